// Package export converts simulation snapshots to GeoJSON so reconstructed
// walls can be inspected in standard GIS tooling. Coordinates are world
// units, not longitude/latitude.
package export

import (
	"github.com/paulmach/orb"
	"github.com/paulmach/orb/geojson"

	"chosenoffset.com/wallfollower/internal/core/geom"
	"chosenoffset.com/wallfollower/internal/simulation"
)

// Feature kinds stored in the "kind" property
const (
	KindWall    = "wall"
	KindSegment = "segment"
	KindTarget  = "target"
	KindPoints  = "points"
	KindAgent   = "agent"
	KindView    = "view"
	KindOutline = "outline"
)

func lineString(s geom.Segment) orb.LineString {
	l, r := s.Left(), s.Right()
	return orb.LineString{{l.X, l.Y}, {r.X, r.Y}}
}

func segmentFeature(kind string, index int, s geom.Segment) *geojson.Feature {
	f := geojson.NewFeature(lineString(s))
	f.Properties["kind"] = kind
	f.Properties["index"] = index
	f.Properties["angle"] = s.Angle()
	f.Properties["length"] = s.Length()
	return f
}

// FeatureCollection builds a collection holding the consolidated walls,
// the raw segment chain, the target segment, the accepted points, the
// visibility polygon and the agent
func FeatureCollection(snap simulation.Snapshot) *geojson.FeatureCollection {
	fc := geojson.NewFeatureCollection()

	for i, w := range snap.Walls {
		fc.Append(segmentFeature(KindWall, i, w))
	}
	for i, s := range snap.Segments {
		fc.Append(segmentFeature(KindSegment, i, s))
	}
	if snap.Target != nil {
		fc.Append(segmentFeature(KindTarget, 0, *snap.Target))
	}

	if len(snap.Points) > 0 {
		mp := make(orb.MultiPoint, len(snap.Points))
		for i, p := range snap.Points {
			mp[i] = orb.Point{p.X, p.Y}
		}
		f := geojson.NewFeature(mp)
		f.Properties["kind"] = KindPoints
		f.Properties["count"] = len(mp)
		fc.Append(f)
	}

	if len(snap.View) >= 3 {
		ring := make(orb.Ring, 0, len(snap.View)+1)
		for _, p := range snap.View {
			ring = append(ring, orb.Point{p.X, p.Y})
		}
		ring = append(ring, ring[0])
		f := geojson.NewFeature(orb.Polygon{ring})
		f.Properties["kind"] = KindView
		fc.Append(f)
	}

	agent := geojson.NewFeature(orb.Point{snap.Position.X, snap.Position.Y})
	agent.Properties["kind"] = KindAgent
	agent.Properties["tick"] = snap.Tick
	agent.Properties["heading"] = snap.Heading
	agent.Properties["radius"] = snap.Radius
	agent.Properties["mode"] = snap.Mode.String()
	fc.Append(agent)

	return fc
}

// WallsOnly builds a collection with just the consolidated walls
func WallsOnly(snap simulation.Snapshot) *geojson.FeatureCollection {
	fc := geojson.NewFeatureCollection()
	for i, w := range snap.Walls {
		fc.Append(segmentFeature(KindWall, i, w))
	}
	return fc
}

// Outline builds a collection from the true boundary of an environment
func Outline(segments []geom.Segment) *geojson.FeatureCollection {
	fc := geojson.NewFeatureCollection()
	for i, s := range segments {
		fc.Append(segmentFeature(KindOutline, i, s))
	}
	return fc
}

// MarshalSnapshot encodes FeatureCollection(snap) as JSON
func MarshalSnapshot(snap simulation.Snapshot) ([]byte, error) {
	return FeatureCollection(snap).MarshalJSON()
}
