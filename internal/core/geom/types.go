// Package geom holds the planar value types shared by the sensing core:
// points reported by the range sensor and the wall segments reconstructed
// from them.
package geom

import "math"

// Point represents a 2D point in world space
type Point struct {
	X float64 `json:"x"`
	Y float64 `json:"y"`
}

// Add returns p translated by q
func (p Point) Add(q Point) Point {
	return Point{X: p.X + q.X, Y: p.Y + q.Y}
}

// Sub returns the vector from q to p
func (p Point) Sub(q Point) Point {
	return Point{X: p.X - q.X, Y: p.Y - q.Y}
}

// DistanceTo calculates the Euclidean distance between two points
func (p Point) DistanceTo(q Point) float64 {
	return Distance(p, q)
}

// Distance calculates the Euclidean distance between two points
func Distance(a, b Point) float64 {
	dx := b.X - a.X
	dy := b.Y - a.Y
	return math.Sqrt(dx*dx + dy*dy)
}

// Polar returns the offset of length dist along heading (radians).
func Polar(dist, heading float64) Point {
	return Point{X: dist * math.Cos(heading), Y: dist * math.Sin(heading)}
}

// Nearest returns the index of the point in pts closest to p, or -1 when
// pts is empty. Ties keep the first point encountered.
func Nearest(pts []Point, p Point) int {
	best := -1
	bestDist := math.Inf(1)
	for i, q := range pts {
		if d := Distance(p, q); d < bestDist {
			best = i
			bestDist = d
		}
	}
	return best
}
