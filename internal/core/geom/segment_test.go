package geom

import (
	"encoding/json"
	"math"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestNewSegmentOrdersEndpoints(t *testing.T) {
	pairs := [][2]Point{
		{{X: 1, Y: 5}, {X: 9, Y: -2}},
		{{X: -3, Y: 0}, {X: -7, Y: 4}},
		{{X: 2, Y: 2}, {X: 2, Y: 8}},
	}

	for _, pair := range pairs {
		ab := NewSegment(pair[0], pair[1])
		ba := NewSegment(pair[1], pair[0])

		assert.Equal(t, ab.Left(), ba.Left())
		assert.Equal(t, ab.Right(), ba.Right())
		assert.LessOrEqual(t, ab.Left().X, ab.Right().X)
		assert.Equal(t, ab.Slope(), ba.Slope())
		assert.Equal(t, ab.Angle(), ba.Angle())
	}
}

func TestVerticalSegment(t *testing.T) {
	s := NewSegment(Point{X: 5, Y: 0}, Point{X: 5, Y: 10})

	assert.True(t, math.IsInf(s.Slope(), 1), "expected infinite slope, got %v", s.Slope())
	assert.True(t, s.IsVertical())
	assert.Equal(t, math.Pi/2, s.Angle())
	assert.Equal(t, 10.0, s.Length())
}

func TestSegmentDerivedAttributes(t *testing.T) {
	s := NewSegment(Point{X: 4, Y: 4}, Point{X: 0, Y: 0})

	assert.Equal(t, Point{X: 0, Y: 0}, s.Left())
	assert.InDelta(t, 1.0, s.Slope(), 1e-12)
	assert.InDelta(t, math.Pi/4, s.Angle(), 1e-12)
	assert.InDelta(t, math.Sqrt(32), s.Length(), 1e-12)

	flat := NewSegment(Point{X: 0, Y: 3}, Point{X: 6, Y: 3})
	assert.Equal(t, 0.0, flat.Slope())
	assert.Equal(t, 0.0, flat.Angle())
}

func TestJoinSpansMostDistantEndpoints(t *testing.T) {
	a := NewSegment(Point{X: 0, Y: 0}, Point{X: 10, Y: 1})
	b := NewSegment(Point{X: 12, Y: 1}, Point{X: 30, Y: 2})

	joined := a.Join(b)
	assert.Equal(t, Point{X: 0, Y: 0}, joined.Left())
	assert.Equal(t, Point{X: 30, Y: 2}, joined.Right())

	// overlapping segments: the longest pair may come from a single input
	inner := NewSegment(Point{X: 5, Y: 0}, Point{X: 6, Y: 0})
	outer := NewSegment(Point{X: -50, Y: 0}, Point{X: 50, Y: 0})
	assert.Equal(t, outer.Left(), inner.Join(outer).Left())
	assert.Equal(t, outer.Right(), inner.Join(outer).Right())

	// every pairwise distance must be <= the joined length
	pts := []Point{a.Left(), a.Right(), b.Left(), b.Right()}
	for i := range pts {
		for j := range pts {
			assert.LessOrEqual(t, Distance(pts[i], pts[j]), joined.Length()+1e-9)
		}
	}
}

func TestSegmentDistanceAndEndpoints(t *testing.T) {
	a := NewSegment(Point{X: 0, Y: 0}, Point{X: 10, Y: 0})
	b := NewSegment(Point{X: 13, Y: 4}, Point{X: 20, Y: 4})

	assert.Equal(t, 5.0, a.Distance(b))
	assert.True(t, a.HasEndpoint(Point{X: 10, Y: 0}))
	assert.False(t, a.HasEndpoint(Point{X: 5, Y: 0}))
}

func TestClosestPointClamps(t *testing.T) {
	s := NewSegment(Point{X: 0, Y: 0}, Point{X: 10, Y: 0})

	assert.Equal(t, Point{X: 4, Y: 0}, s.ClosestPoint(Point{X: 4, Y: 7}))
	assert.Equal(t, Point{X: 0, Y: 0}, s.ClosestPoint(Point{X: -9, Y: 1}))
	assert.Equal(t, Point{X: 10, Y: 0}, s.ClosestPoint(Point{X: 25, Y: -3}))
}

func TestAngleDelta(t *testing.T) {
	deg := math.Pi / 180

	tests := []struct {
		a, b, want float64
	}{
		{0, 0, 0},
		{89 * deg, -89 * deg, 2 * deg},
		{10 * deg, 40 * deg, 30 * deg},
		{0, 90 * deg, 90 * deg},
		{-45 * deg, 45 * deg, 90 * deg},
	}
	for _, tt := range tests {
		assert.InDelta(t, tt.want, AngleDelta(tt.a, tt.b), 1e-9)
	}
}

func TestNearest(t *testing.T) {
	require.Equal(t, -1, Nearest(nil, Point{}))

	pts := []Point{{X: 5, Y: 0}, {X: -5, Y: 0}, {X: 0, Y: 9}}
	assert.Equal(t, 0, Nearest(pts, Point{}), "ties keep the first point")
	assert.Equal(t, 2, Nearest(pts, Point{X: 0, Y: 6}))
}

func TestSegmentJSON(t *testing.T) {
	s := NewSegment(Point{X: 5, Y: 10}, Point{X: 5, Y: 0})

	data, err := json.Marshal(s)
	require.NoError(t, err)
	assert.JSONEq(t, `{"left":{"x":5,"y":10},"right":{"x":5,"y":0},"angle":1.5707963267948966,"length":10}`, string(data))

	var decoded Segment
	require.NoError(t, json.Unmarshal(data, &decoded))
	assert.Equal(t, s, decoded)
}
