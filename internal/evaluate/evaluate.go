// Package evaluate scores a boundary reconstruction against the true
// outline of the environment.
package evaluate

import (
	"github.com/paulmach/orb"
	"github.com/paulmach/orb/planar"
	"github.com/paulmach/orb/resample"

	"chosenoffset.com/wallfollower/internal/core/geom"
)

// Report summarizes how well accepted points match the true boundary
type Report struct {
	Points    int     `json:"points"`
	MeanError float64 `json:"mean_error"` // Mean distance from a point to the boundary
	MaxError  float64 `json:"max_error"`
	Boundary  float64 `json:"boundary"` // Total length of the true boundary
	Coverage  float64 `json:"coverage"` // Fraction of the boundary near an accepted point
}

// Evaluate compares points with truth. A stretch of boundary counts as
// covered when an accepted point lies within tolerance of it; the boundary
// is sampled every tolerance units.
func Evaluate(points []geom.Point, truth []geom.Segment, tolerance float64) Report {
	report := Report{Points: len(points)}
	if len(truth) == 0 {
		return report
	}

	outline := make(orb.MultiLineString, 0, len(truth))
	for _, s := range truth {
		outline = append(outline, lineString(s))
		report.Boundary += s.Length()
	}

	if len(points) > 0 {
		total := 0.0
		for _, p := range points {
			d := planar.DistanceFrom(outline, orb.Point{p.X, p.Y})
			total += d
			report.MaxError = max(report.MaxError, d)
		}
		report.MeanError = total / float64(len(points))
	}

	if tolerance <= 0 || len(points) == 0 {
		return report
	}

	samples, covered := 0, 0
	for _, ls := range outline {
		for _, q := range resample.ToInterval(ls.Clone(), planar.Distance, tolerance) {
			samples++
			sample := geom.Point{X: q[0], Y: q[1]}
			if i := geom.Nearest(points, sample); geom.Distance(points[i], sample) <= tolerance {
				covered++
			}
		}
	}
	if samples > 0 {
		report.Coverage = float64(covered) / float64(samples)
	}
	return report
}

func lineString(s geom.Segment) orb.LineString {
	l, r := s.Left(), s.Right()
	return orb.LineString{{l.X, l.Y}, {r.X, r.Y}}
}
