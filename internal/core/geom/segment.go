package geom

import (
	"encoding/json"
	"math"
)

// VerticalSlope is the slope reported for segments with no horizontal extent.
var VerticalSlope = math.Inf(1)

// Segment represents a reconstructed wall segment. The zero value is not
// meaningful; build segments with NewSegment so the derived attributes are
// populated.
type Segment struct {
	left, right Point
	slope       float64
	angle       float64
	length      float64
}

// NewSegment creates the segment between a and b. Endpoints are ordered by
// X so that construction order never matters.
func NewSegment(a, b Point) Segment {
	left, right := a, b
	if b.X < a.X {
		left, right = b, a
	}

	s := Segment{left: left, right: right}
	if dx := right.X - left.X; dx == 0 {
		s.slope = VerticalSlope
		s.angle = math.Pi / 2
	} else {
		s.slope = (right.Y - left.Y) / dx
		s.angle = math.Atan(s.slope)
	}
	s.length = Distance(left, right)
	return s
}

// Left returns the endpoint with the smaller X coordinate
func (s Segment) Left() Point { return s.left }

// Right returns the endpoint with the larger X coordinate
func (s Segment) Right() Point { return s.right }

// Slope returns dy/dx, or VerticalSlope for vertical segments
func (s Segment) Slope() float64 { return s.slope }

// Angle returns atan(slope) in radians, fixed at π/2 for vertical segments
func (s Segment) Angle() float64 { return s.angle }

// Length returns the distance between the endpoints
func (s Segment) Length() float64 { return s.length }

// IsVertical reports whether the segment has no horizontal extent
func (s Segment) IsVertical() bool { return math.IsInf(s.slope, 1) }

// HasEndpoint reports whether p is exactly one of the segment's endpoints
func (s Segment) HasEndpoint(p Point) bool {
	return s.left == p || s.right == p
}

// Join merges two segments into the one spanning the two most distant
// endpoints among the four.
func (s Segment) Join(other Segment) Segment {
	points := [4]Point{s.left, s.right, other.left, other.right}

	best := s
	bestLen := -1.0
	for i := 0; i < 3; i++ {
		for j := i + 1; j < 4; j++ {
			if d := Distance(points[i], points[j]); d > bestLen {
				bestLen = d
				best = NewSegment(points[i], points[j])
			}
		}
	}
	return best
}

// Distance returns the smallest endpoint-to-endpoint distance between two
// segments.
func (s Segment) Distance(other Segment) float64 {
	return math.Min(
		math.Min(Distance(s.left, other.left), Distance(s.left, other.right)),
		math.Min(Distance(s.right, other.left), Distance(s.right, other.right)),
	)
}

// ClosestPoint projects p onto the segment, clamped to its endpoints
func (s Segment) ClosestPoint(p Point) Point {
	d := s.right.Sub(s.left)
	lenSq := d.X*d.X + d.Y*d.Y
	if lenSq == 0 {
		return s.left
	}

	t := ((p.X-s.left.X)*d.X + (p.Y-s.left.Y)*d.Y) / lenSq
	t = math.Max(0, math.Min(1, t))
	return Point{X: s.left.X + t*d.X, Y: s.left.Y + t*d.Y}
}

// Midpoint returns the point halfway between the endpoints
func (s Segment) Midpoint() Point {
	return Point{X: (s.left.X + s.right.X) / 2, Y: (s.left.Y + s.right.Y) / 2}
}

// AngleDelta returns the difference between two line angles modulo π, in
// [0, π/2]. Lines have no direction, so 89° and -89° are 2° apart.
func AngleDelta(a, b float64) float64 {
	d := math.Mod(math.Abs(a-b), math.Pi)
	if d > math.Pi/2 {
		d = math.Pi - d
	}
	return d
}

type segmentJSON struct {
	Left   Point   `json:"left"`
	Right  Point   `json:"right"`
	Angle  float64 `json:"angle"`
	Length float64 `json:"length"`
}

// MarshalJSON encodes the endpoints with the derived angle and length.
// Slope is left out since vertical segments have an infinite one.
func (s Segment) MarshalJSON() ([]byte, error) {
	return json.Marshal(segmentJSON{Left: s.left, Right: s.right, Angle: s.angle, Length: s.length})
}

// UnmarshalJSON rebuilds a segment from its endpoints
func (s *Segment) UnmarshalJSON(data []byte) error {
	var raw segmentJSON
	if err := json.Unmarshal(data, &raw); err != nil {
		return err
	}
	*s = NewSegment(raw.Left, raw.Right)
	return nil
}
