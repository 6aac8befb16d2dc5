package simulation

import (
	"fmt"

	"chosenoffset.com/wallfollower/internal/core/geom"
	"chosenoffset.com/wallfollower/internal/core/navigation"
	"chosenoffset.com/wallfollower/internal/core/scanner"
	"chosenoffset.com/wallfollower/internal/core/sensor"
	"chosenoffset.com/wallfollower/internal/core/visibility"
)

// Snapshot is a read-only view of the simulation after a tick. Slices are
// copies; mutating them does not affect the simulation.
type Snapshot struct {
	Tick     int             `json:"tick"`
	Position geom.Point      `json:"position"`
	Heading  float64         `json:"heading"`
	Radius   float64         `json:"radius"`
	Mode     navigation.Mode `json:"mode"`
	Target   *geom.Segment   `json:"target,omitempty"`
	Points   []geom.Point    `json:"points"`
	Segments []geom.Segment  `json:"segments"`
	Walls    []geom.Segment  `json:"walls"`
	View     []geom.Point    `json:"view"` // Visibility polygon over the walls
	Visible  bool            `json:"visible"`
	Moved    bool            `json:"moved"`
	Collided bool            `json:"collided"`
}

// Simulation runs the scan / navigate loop. It is not safe for concurrent
// use; callers that share it across goroutines must serialize access.
type Simulation struct {
	config     *Config
	occ        sensor.Occupancy
	scanner    *scanner.Scanner
	controller *navigation.Controller

	tick int
	last Snapshot
}

// New builds a simulation over occ
func New(config *Config, occ sensor.Occupancy) (*Simulation, error) {
	if config == nil {
		config = DefaultConfig()
	}
	if err := config.Validate(); err != nil {
		return nil, fmt.Errorf("invalid simulation config: %w", err)
	}

	raycaster, err := sensor.NewRaycaster(occ, config.Sensor)
	if err != nil {
		return nil, fmt.Errorf("failed to create range sensor: %w", err)
	}

	sc, err := scanner.New(raycaster, config.scannerConfig())
	if err != nil {
		return nil, fmt.Errorf("failed to create scanner: %w", err)
	}

	s := &Simulation{
		config:     config,
		occ:        occ,
		scanner:    sc,
		controller: navigation.NewController(config.initialPose()),
	}
	s.last = s.snapshot(scanner.ScanResult{}, navigation.Outcome{})
	return s, nil
}

func (c *Config) initialPose() navigation.Pose {
	return navigation.Pose{
		Position: geom.Point{X: c.Agent.StartX, Y: c.Agent.StartY},
		Heading:  c.Agent.Heading,
		Radius:   c.Agent.Radius,
		Speed:    c.Agent.Speed,
	}
}

// Tick scans at the agent's position, runs one navigation step and returns
// the resulting snapshot
func (s *Simulation) Tick() Snapshot {
	scan := s.scanner.Scan(s.controller.Pose().Position)
	outcome := s.controller.Tick(scan)

	s.tick++
	s.last = s.snapshot(scan, outcome)
	return s.last.clone()
}

// Reset forgets every scanned point and puts the agent back at its start
func (s *Simulation) Reset() {
	s.scanner.Reset()
	s.controller.Reset()
	s.tick = 0
	s.last = s.snapshot(scanner.ScanResult{}, navigation.Outcome{})
}

// Snapshot returns the latest snapshot
func (s *Simulation) Snapshot() Snapshot {
	return s.last.clone()
}

// Config returns the configuration the simulation was built with
func (s *Simulation) Config() *Config {
	return s.config
}

// Size returns the environment dimensions
func (s *Simulation) Size() (int, int) {
	return s.occ.Size()
}

// SweepSamples returns the number of rays cast per tick
func (s *Simulation) SweepSamples() int {
	return s.scanner.Samples()
}

func (s *Simulation) snapshot(scan scanner.ScanResult, outcome navigation.Outcome) Snapshot {
	pose := s.controller.Pose()
	state := s.controller.State()

	snap := Snapshot{
		Tick:     s.tick,
		Position: pose.Position,
		Heading:  pose.Heading,
		Radius:   pose.Radius,
		Mode:     state.Mode,
		Points:   scan.Points,
		Segments: scan.Segments,
		Walls:    scan.Walls,
		View:     visibility.Polygon(pose.Position, scan.Walls, s.config.Sensor.MaxRange),
		Visible:  scan.Visible,
		Moved:    outcome.Moved,
		Collided: outcome.Collided,
	}
	if state.HasTarget {
		target := state.Target
		snap.Target = &target
	}
	return snap
}

// clone copies the slices so the caller cannot reach simulation state
func (snap Snapshot) clone() Snapshot {
	out := snap
	out.Points = append([]geom.Point(nil), snap.Points...)
	out.Segments = append([]geom.Segment(nil), snap.Segments...)
	out.Walls = append([]geom.Segment(nil), snap.Walls...)
	out.View = append([]geom.Point(nil), snap.View...)
	if snap.Target != nil {
		target := *snap.Target
		out.Target = &target
	}
	return out
}
