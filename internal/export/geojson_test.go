package export

import (
	"testing"

	"github.com/paulmach/orb"
	"github.com/paulmach/orb/geojson"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"chosenoffset.com/wallfollower/internal/core/geom"
	"chosenoffset.com/wallfollower/internal/core/navigation"
	"chosenoffset.com/wallfollower/internal/simulation"
)

func testSnapshot() simulation.Snapshot {
	a := geom.Point{X: 10, Y: 10}
	b := geom.Point{X: 10, Y: 25}
	c := geom.Point{X: 10, Y: 40}
	target := geom.NewSegment(a, b)

	return simulation.Snapshot{
		Tick:     12,
		Position: geom.Point{X: 50, Y: 30},
		Heading:  3.14,
		Radius:   20,
		Mode:     navigation.FollowWall,
		Target:   &target,
		Points:   []geom.Point{a, b, c},
		Segments: []geom.Segment{target, geom.NewSegment(b, c)},
		Walls:    []geom.Segment{geom.NewSegment(a, c)},
		Visible:  true,
	}
}

func kinds(fc *geojson.FeatureCollection) map[string]int {
	out := map[string]int{}
	for _, f := range fc.Features {
		out[f.Properties.MustString("kind")]++
	}
	return out
}

func TestFeatureCollection(t *testing.T) {
	fc := FeatureCollection(testSnapshot())

	assert.Equal(t, map[string]int{
		KindWall:    1,
		KindSegment: 2,
		KindTarget:  1,
		KindPoints:  1,
		KindAgent:   1,
	}, kinds(fc))

	wall := fc.Features[0]
	assert.Equal(t, orb.LineString{{10, 10}, {10, 40}}, wall.Geometry)
	assert.Equal(t, 30.0, wall.Properties.MustFloat64("length"))

	agent := fc.Features[len(fc.Features)-1]
	assert.Equal(t, orb.Point{50, 30}, agent.Geometry)
	assert.Equal(t, "FollowWall", agent.Properties.MustString("mode"))
}

func TestMarshalSnapshotRoundTrip(t *testing.T) {
	data, err := MarshalSnapshot(testSnapshot())
	require.NoError(t, err)

	fc, err := geojson.UnmarshalFeatureCollection(data)
	require.NoError(t, err)
	require.Len(t, fc.Features, 6)

	points, ok := fc.Features[4].Geometry.(orb.MultiPoint)
	require.True(t, ok)
	assert.Len(t, points, 3)
	assert.Equal(t, 3.0, fc.Features[4].Properties.MustFloat64("count"))
}

func TestEmptySnapshot(t *testing.T) {
	fc := FeatureCollection(simulation.Snapshot{})
	assert.Equal(t, map[string]int{KindAgent: 1}, kinds(fc))

	assert.Empty(t, WallsOnly(simulation.Snapshot{}).Features)
	assert.Len(t, WallsOnly(testSnapshot()).Features, 1)
}

func TestViewPolygon(t *testing.T) {
	snap := testSnapshot()
	snap.View = []geom.Point{{X: 0, Y: 0}, {X: 60, Y: 0}, {X: 60, Y: 60}}

	fc := FeatureCollection(snap)
	require.Equal(t, 1, kinds(fc)[KindView])

	view := fc.Features[len(fc.Features)-2]
	poly, ok := view.Geometry.(orb.Polygon)
	require.True(t, ok)
	require.Len(t, poly, 1)
	assert.Len(t, poly[0], 4)
	assert.True(t, poly[0].Closed())
}

func TestOutline(t *testing.T) {
	fc := Outline([]geom.Segment{
		geom.NewSegment(geom.Point{X: 0, Y: 0}, geom.Point{X: 10, Y: 0}),
		geom.NewSegment(geom.Point{X: 10, Y: 0}, geom.Point{X: 10, Y: 10}),
	})
	assert.Equal(t, map[string]int{KindOutline: 2}, kinds(fc))
}
