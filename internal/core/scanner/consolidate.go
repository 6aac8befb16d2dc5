package scanner

import (
	"math"

	"github.com/paulmach/orb"
	"github.com/paulmach/orb/simplify"

	"chosenoffset.com/wallfollower/internal/core/geom"
)

// consolidate turns runs of chained points into long wall segments
func (s *Scanner) consolidate(runs [][]geom.Point) []geom.Segment {
	var walls []geom.Segment
	for _, run := range runs {
		walls = append(walls, s.consolidateRun(run)...)
	}
	return walls
}

func (s *Scanner) consolidateRun(run []geom.Point) []geom.Segment {
	line := make(orb.LineString, len(run))
	for i, p := range run {
		line[i] = orb.Point{p.X, p.Y}
	}

	simplified, ok := simplify.DouglasPeucker(s.cfg.WallTolerance).Simplify(line.Clone()).(orb.LineString)
	if !ok || len(simplified) < 2 {
		simplified = line
	}

	var pieces []geom.Segment
	for i := 1; i < len(simplified); i++ {
		a, b := simplified[i-1], simplified[i]
		seg := geom.NewSegment(geom.Point{X: a[0], Y: a[1]}, geom.Point{X: b[0], Y: b[1]})
		if seg.Length() < s.cfg.MinWallLength {
			continue
		}
		pieces = append(pieces, seg)
	}

	var walls []geom.Segment
	for _, piece := range pieces {
		if n := len(walls); n > 0 && s.joinable(walls[n-1], piece) {
			walls[n-1] = walls[n-1].Join(piece)
			continue
		}
		walls = append(walls, piece)
	}

	// A run that circles the agent ends where it started
	if n := len(walls); n > 2 && s.joinable(walls[0], walls[n-1]) {
		walls[0] = walls[0].Join(walls[n-1])
		walls = walls[:n-1]
	}
	return walls
}

// joinable reports whether two walls are nearly collinear and close enough
// to be the same wall
func (s *Scanner) joinable(a, b geom.Segment) bool {
	maxAngle := s.cfg.JoinAngle * math.Pi / 180
	return geom.AngleDelta(a.Angle(), b.Angle()) <= maxAngle && a.Distance(b) <= s.cfg.JoinDistance
}
