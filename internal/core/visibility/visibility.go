// Package visibility computes the region the agent can see according to
// the walls it has reconstructed so far.
package visibility

import (
	"math"
	"sort"

	"chosenoffset.com/wallfollower/internal/core/geom"
)

// epsilon offsets rays around each wall endpoint so they graze past corners
const epsilon = 0.0001

// Polygon casts rays from viewer toward every wall endpoint and returns
// the closest hit for each, ordered by angle. Rays that hit nothing stop
// at maxDistance. With no walls the result is empty.
func Polygon(viewer geom.Point, walls []geom.Segment, maxDistance float64) []geom.Point {
	if len(walls) == 0 {
		return nil
	}

	seen := make(map[float64]bool)
	var angles []float64
	for _, v := range vertices(walls) {
		angle := math.Atan2(v.Y-viewer.Y, v.X-viewer.X)
		for _, a := range []float64{angle - epsilon, angle, angle + epsilon} {
			a = math.Mod(a, 2*math.Pi)
			if a < 0 {
				a += 2 * math.Pi
			}
			if !seen[a] {
				seen[a] = true
				angles = append(angles, a)
			}
		}
	}
	sort.Float64s(angles)

	polygon := make([]geom.Point, 0, len(angles))
	for _, angle := range angles {
		dir := geom.Polar(1, angle)

		closest := maxDistance
		for _, wall := range walls {
			if t, ok := intersect(viewer, dir, wall); ok && t < closest {
				closest = t
			}
		}
		polygon = append(polygon, viewer.Add(geom.Polar(closest, angle)))
	}
	return polygon
}

// Area returns the area enclosed by a polygon using the shoelace formula
func Area(polygon []geom.Point) float64 {
	if len(polygon) < 3 {
		return 0
	}
	sum := 0.0
	for i, p := range polygon {
		q := polygon[(i+1)%len(polygon)]
		sum += p.X*q.Y - q.X*p.Y
	}
	return math.Abs(sum) / 2
}

func vertices(walls []geom.Segment) []geom.Point {
	set := make(map[geom.Point]bool, 2*len(walls))
	var out []geom.Point
	for _, w := range walls {
		for _, p := range []geom.Point{w.Left(), w.Right()} {
			if !set[p] {
				set[p] = true
				out = append(out, p)
			}
		}
	}
	return out
}

// intersect returns the distance along the ray origin + t*dir at which it
// crosses wall, if it does
func intersect(origin, dir geom.Point, wall geom.Segment) (float64, bool) {
	a, b := wall.Left(), wall.Right()
	seg := b.Sub(a)

	denominator := dir.X*seg.Y - dir.Y*seg.X
	if math.Abs(denominator) < 1e-10 {
		// Parallel
		return 0, false
	}

	diff := a.Sub(origin)
	u := (diff.X*dir.Y - diff.Y*dir.X) / denominator
	t := (diff.X*seg.Y - diff.Y*seg.X) / denominator

	if u >= -1e-9 && u <= 1+1e-9 && t >= 0 {
		return t, true
	}
	return 0, false
}
