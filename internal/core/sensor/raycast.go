// Package sensor simulates the agent's range sensor: rays marched across an
// occupancy surface, refined to sub-hop precision at the first wall they
// cross.
package sensor

import (
	"fmt"
	"math"

	"chosenoffset.com/wallfollower/internal/core/geom"
)

// Occupancy reports whether a location is part of an obstacle. Size bounds
// the valid area: [0, width) x [0, height).
type Occupancy interface {
	Occupied(x, y float64) bool
	Size() (width, height int)
}

// Config holds the raycaster parameters
type Config struct {
	MaxRange    float64 `json:"max_range"`    // Rays give up beyond this distance
	HopDistance float64 `json:"hop_distance"` // Coarse marching step
}

// Validate checks that the configuration can be marched
func (c Config) Validate() error {
	if c.MaxRange <= 0 {
		return fmt.Errorf("max range must be positive, got %v", c.MaxRange)
	}
	if c.HopDistance < 1 {
		return fmt.Errorf("hop distance must be at least 1, got %v", c.HopDistance)
	}
	return nil
}

// Raycaster casts single rays against an Occupancy. It keeps no per-ray
// state, so Cast is safe for concurrent use as long as the Occupancy is.
type Raycaster struct {
	occ         Occupancy
	maxRange    float64
	hop         float64
	refineSteps int
}

// NewRaycaster creates a raycaster over occ
func NewRaycaster(occ Occupancy, cfg Config) (*Raycaster, error) {
	if occ == nil {
		return nil, fmt.Errorf("occupancy is required")
	}
	if err := cfg.Validate(); err != nil {
		return nil, fmt.Errorf("invalid sensor config: %w", err)
	}

	return &Raycaster{
		occ:         occ,
		maxRange:    cfg.MaxRange,
		hop:         cfg.HopDistance,
		refineSteps: int(math.Ceil(cfg.HopDistance)),
	}, nil
}

// Cast marches from origin along heading and returns the first free location
// in front of the wall the ray runs into. It reports false when the ray
// leaves the valid area or exceeds the maximum range first.
func (r *Raycaster) Cast(origin geom.Point, heading float64) (geom.Point, bool) {
	width, height := r.occ.Size()
	w, h := float64(width), float64(height)

	step := geom.Polar(r.hop, heading)
	p := origin
	for geom.Distance(origin, p) < r.maxRange && p.X >= 0 && p.X < w && p.Y >= 0 && p.Y < h {
		if r.occ.Occupied(p.X, p.Y) {
			return r.refine(p, heading), true
		}
		p = p.Add(step)
	}
	return geom.Point{}, false
}

// refine walks back from a coarse hit in unit steps until it leaves the
// wall. The walk is bounded to one hop (plus the previous coarse step) so a
// ray that starts inside a wall still terminates.
func (r *Raycaster) refine(hit geom.Point, heading float64) geom.Point {
	back := geom.Polar(1, heading)
	p := hit
	for i := 0; i <= r.refineSteps; i++ {
		if !r.occ.Occupied(p.X, p.Y) {
			return p
		}
		if i < r.refineSteps {
			p = p.Sub(back)
		}
	}
	return p
}
