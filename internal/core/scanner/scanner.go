// Package scanner reconstructs wall segments around the agent from a full
// sweep of the range sensor.
//
// Accepted points accumulate across scans: each sweep only adds hits that
// are farther than the dedup distance from every point already known, while
// the segment chain is rebuilt from the whole accumulated set every time.
// Reset drops the history.
package scanner

import (
	"fmt"
	"math"

	"golang.org/x/sync/errgroup"

	"chosenoffset.com/wallfollower/internal/core/geom"
)

// Caster casts one sensor ray. *sensor.Raycaster satisfies it.
type Caster interface {
	Cast(origin geom.Point, heading float64) (geom.Point, bool)
}

// Config holds the sweep and reconstruction parameters
type Config struct {
	SweepResolution float64 `json:"sweep_resolution"` // Degrees between rays
	DedupDistance   float64 `json:"dedup_distance"`   // Hits this close to a known point are dropped
	LinkDistance    float64 `json:"link_distance"`    // Max gap bridged by a segment (agent radius)
	Workers         int     `json:"workers"`          // Goroutines casting rays; <= 1 casts inline

	// Wall consolidation
	WallTolerance float64 `json:"wall_tolerance"`  // Douglas-Peucker threshold
	MinWallLength float64 `json:"min_wall_length"` // Shorter consolidated walls are dropped
	JoinAngle     float64 `json:"join_angle"`      // Degrees
	JoinDistance  float64 `json:"join_distance"`
}

// Validate checks the sweep can be performed
func (c Config) Validate() error {
	if c.SweepResolution <= 0 || c.SweepResolution > 360 {
		return fmt.Errorf("sweep resolution must be in (0, 360], got %v", c.SweepResolution)
	}
	if c.DedupDistance < 0 {
		return fmt.Errorf("dedup distance must not be negative, got %v", c.DedupDistance)
	}
	if c.LinkDistance <= 0 {
		return fmt.Errorf("link distance must be positive, got %v", c.LinkDistance)
	}
	if c.WallTolerance < 0 || c.MinWallLength < 0 || c.JoinAngle < 0 || c.JoinDistance < 0 {
		return fmt.Errorf("wall consolidation parameters must not be negative")
	}
	return nil
}

// ScanResult is the output of one sweep. Slices are owned by the result.
type ScanResult struct {
	Points    []geom.Point   // Accepted points, in acceptance order
	Segments  []geom.Segment // Nearest-neighbor chain
	Walls     []geom.Segment // Consolidated walls
	NewPoints int            // Points accepted by this sweep
	Visible   bool           // False when there is no point to chain from
}

// Scanner performs sweeps and owns the accepted point history
type Scanner struct {
	caster   Caster
	cfg      Config
	headings []float64
	accepted []geom.Point
}

// New creates a scanner casting through caster
func New(caster Caster, cfg Config) (*Scanner, error) {
	if caster == nil {
		return nil, fmt.Errorf("caster is required")
	}
	if err := cfg.Validate(); err != nil {
		return nil, fmt.Errorf("invalid scanner config: %w", err)
	}

	samples := int(math.Floor(360/cfg.SweepResolution)) + 1
	headings := make([]float64, samples)
	for i := range headings {
		headings[i] = float64(i) * cfg.SweepResolution * math.Pi / 180
	}

	return &Scanner{caster: caster, cfg: cfg, headings: headings}, nil
}

// Samples returns the number of rays cast per sweep
func (s *Scanner) Samples() int {
	return len(s.headings)
}

// Reset forgets every accepted point
func (s *Scanner) Reset() {
	s.accepted = nil
}

// Scan sweeps the sensor around position and rebuilds the segment chain
func (s *Scanner) Scan(position geom.Point) ScanResult {
	added := 0
	for _, hit := range s.sweep(position) {
		if s.tooClose(hit) {
			continue
		}
		s.accepted = append(s.accepted, hit)
		added++
	}

	if len(s.accepted) == 0 {
		return ScanResult{}
	}

	segments, runs := chain(s.accepted, s.cfg.LinkDistance)

	points := make([]geom.Point, len(s.accepted))
	copy(points, s.accepted)

	return ScanResult{
		Points:    points,
		Segments:  segments,
		Walls:     s.consolidate(runs),
		NewPoints: added,
		Visible:   true,
	}
}

// sweep casts every heading and returns the hits in heading order
func (s *Scanner) sweep(position geom.Point) []geom.Point {
	hits := make([]geom.Point, len(s.headings))
	found := make([]bool, len(s.headings))

	if s.cfg.Workers <= 1 {
		for i, heading := range s.headings {
			hits[i], found[i] = s.caster.Cast(position, heading)
		}
	} else {
		var g errgroup.Group
		g.SetLimit(s.cfg.Workers)
		for i, heading := range s.headings {
			i, heading := i, heading
			g.Go(func() error {
				hits[i], found[i] = s.caster.Cast(position, heading)
				return nil
			})
		}
		g.Wait()
	}

	out := hits[:0]
	for i := range hits {
		if found[i] {
			out = append(out, hits[i])
		}
	}
	return out
}

func (s *Scanner) tooClose(p geom.Point) bool {
	for _, q := range s.accepted {
		if geom.Distance(p, q) <= s.cfg.DedupDistance {
			return true
		}
	}
	return false
}

// chain links points by nearest-neighbor adjacency starting from pts[0].
// Every hop advances the chain; only hops within link emit a segment. It
// also returns the runs of consecutive linked points, used to consolidate
// walls.
func chain(pts []geom.Point, link float64) ([]geom.Segment, [][]geom.Point) {
	var segments []geom.Segment
	var runs [][]geom.Point

	visited := make([]bool, len(pts))
	current := 0
	var run []geom.Point
	for hops := 0; hops < len(pts)-1; hops++ {
		visited[current] = true

		next := -1
		best := math.Inf(1)
		for i, p := range pts {
			if visited[i] {
				continue
			}
			if d := geom.Distance(pts[current], p); d < best {
				best = d
				next = i
			}
		}

		if best <= link {
			segments = append(segments, geom.NewSegment(pts[current], pts[next]))
			if run == nil {
				run = []geom.Point{pts[current]}
			}
			run = append(run, pts[next])
		} else if run != nil {
			runs = append(runs, run)
			run = nil
		}
		current = next
	}
	if run != nil {
		runs = append(runs, run)
	}
	return segments, runs
}
