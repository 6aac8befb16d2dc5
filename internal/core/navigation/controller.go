// Package navigation drives the agent toward the nearest reconstructed wall
// and then keeps it moving along the boundary, turning whenever a move
// would bring it within its radius of a known boundary point.
//
// The approach heading is the wall normal on the agent's side, pointing at
// the wall. The textbook atan(-1/slope) - 90° form runs parallel to the
// wall instead, so it is not used.
package navigation

import (
	"fmt"
	"math"

	"chosenoffset.com/wallfollower/internal/core/geom"
	"chosenoffset.com/wallfollower/internal/core/scanner"
)

// Mode is the state of the navigation machine
type Mode int

const (
	Init         Mode = iota // Waiting for a segment next to the nearest point
	ApproachWall             // Heading straight at the target segment
	FollowWall               // Moving along the boundary, turning when blocked
)

var modeNames = map[Mode]string{
	Init:         "Init",
	ApproachWall: "ApproachWall",
	FollowWall:   "FollowWall",
}

func (m Mode) String() string {
	if name, ok := modeNames[m]; ok {
		return name
	}
	return fmt.Sprintf("Mode(%d)", int(m))
}

// MarshalText encodes the mode by name
func (m Mode) MarshalText() ([]byte, error) {
	return []byte(m.String()), nil
}

// UnmarshalText decodes a mode name
func (m *Mode) UnmarshalText(text []byte) error {
	for mode, name := range modeNames {
		if name == string(text) {
			*m = mode
			return nil
		}
	}
	return fmt.Errorf("unknown navigation mode %q", text)
}

// Pose is the agent's position and motion parameters
type Pose struct {
	Position geom.Point
	Heading  float64 // Radians
	Radius   float64 // Collision radius
	Speed    float64 // Units per tick
}

// State is the navigation machine's state. Target is only meaningful when
// HasTarget is set.
type State struct {
	Mode      Mode
	Target    geom.Segment
	HasTarget bool
}

// Outcome reports what a single step did
type Outcome struct {
	Moved    bool
	Collided bool
}

// Step evaluates one tick of the navigation machine against the scan taken
// at the agent's current position.
func Step(state State, pose Pose, scan scanner.ScanResult) (State, Pose, Outcome) {
	switch state.Mode {
	case Init:
		if target, ok := nearestSegment(scan, pose.Position); ok {
			state.Mode = ApproachWall
			state.Target = target
			state.HasTarget = true
		}
		return state, pose, Outcome{}

	case ApproachWall:
		pose.Heading = approachHeading(state.Target, pose.Position)
		next, collided := MoveForward(pose, scan.Points)
		if collided {
			next.Heading = state.Target.Angle() + math.Pi/2
			state.Mode = FollowWall
		}
		return state, next, Outcome{Moved: !collided, Collided: collided}

	case FollowWall:
		next, collided := MoveForward(pose, scan.Points)
		if collided {
			next.Heading = math.Mod(next.Heading+math.Pi/2, 2*math.Pi)
		}
		return state, next, Outcome{Moved: !collided, Collided: collided}
	}

	return state, pose, Outcome{}
}

// MoveForward advances the pose by one step along its heading unless the
// tentative position is strictly closer than the radius to the nearest
// known point. A rejected move leaves the pose untouched.
func MoveForward(pose Pose, points []geom.Point) (Pose, bool) {
	tentative := pose.Position.Add(geom.Polar(pose.Speed, pose.Heading))

	if i := geom.Nearest(points, tentative); i >= 0 && geom.Distance(points[i], tentative) < pose.Radius {
		return pose, true
	}

	pose.Position = tentative
	return pose, false
}

// nearestSegment finds the first segment that ends at the point nearest to
// position
func nearestSegment(scan scanner.ScanResult, position geom.Point) (geom.Segment, bool) {
	i := geom.Nearest(scan.Points, position)
	if i < 0 {
		return geom.Segment{}, false
	}

	nearest := scan.Points[i]
	for _, seg := range scan.Segments {
		if seg.HasEndpoint(nearest) {
			return seg, true
		}
	}
	return geom.Segment{}, false
}

// approachHeading returns the segment normal that points from position
// toward the segment
func approachHeading(target geom.Segment, position geom.Point) float64 {
	heading := target.Angle() - math.Pi/2

	toWall := target.ClosestPoint(position).Sub(position)
	dir := geom.Polar(1, heading)
	if dir.X*toWall.X+dir.Y*toWall.Y < 0 {
		heading = target.Angle() + math.Pi/2
	}
	return heading
}

// Controller holds the pose and state between ticks
type Controller struct {
	initial Pose
	pose    Pose
	state   State
}

// NewController creates a controller in Init at the given pose
func NewController(pose Pose) *Controller {
	return &Controller{initial: pose, pose: pose}
}

// Tick runs one step against scan
func (c *Controller) Tick(scan scanner.ScanResult) Outcome {
	var outcome Outcome
	c.state, c.pose, outcome = Step(c.state, c.pose, scan)
	return outcome
}

// Pose returns the current pose
func (c *Controller) Pose() Pose {
	return c.pose
}

// State returns the current navigation state
func (c *Controller) State() State {
	return c.state
}

// Reset restores the initial pose and returns to Init
func (c *Controller) Reset() {
	c.pose = c.initial
	c.state = State{}
}
