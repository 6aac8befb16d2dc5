// Package viewer draws a running simulation through the render interfaces
// and maps keyboard controls onto it.
package viewer

import (
	"errors"
	"fmt"
	"image"
	"image/color"
	"log"

	"chosenoffset.com/wallfollower/internal/core/geom"
	"chosenoffset.com/wallfollower/internal/evaluate"
	"chosenoffset.com/wallfollower/internal/render"
	"chosenoffset.com/wallfollower/internal/simulation"
)

// ErrQuit is returned from Update when the user closes the viewer
var ErrQuit = errors.New("viewer closed")

// Simulation is the part of *simulation.Simulation the viewer drives
type Simulation interface {
	Tick() simulation.Snapshot
	Reset()
	Snapshot() simulation.Snapshot
	Size() (int, int)
}

var (
	pointColor   = color.RGBA{0x60, 0xa0, 0xff, 0xff}
	segmentColor = color.RGBA{0x40, 0xe0, 0x40, 0xff}
	wallColor    = color.RGBA{0xff, 0x90, 0x20, 0xff}
	targetColor  = color.RGBA{0xff, 0x00, 0x00, 0xff}
	agentColor   = color.RGBA{0xff, 0xff, 0x00, 0xff}
	headingColor = color.White
	viewColor    = color.RGBA{0x80, 0x80, 0xff, 0x80}
)

// Game implements render.Game for a simulation
type Game struct {
	Sim      Simulation
	Renderer render.Renderer
	Input    render.InputManager

	// Environment drawn under the overlay, uploaded on first draw
	Background image.Image

	// OnTick, when set, receives every snapshot produced by Update
	OnTick func(simulation.Snapshot)

	// Outline, when set, is the true boundary used for the HUD accuracy
	Outline []geom.Segment

	background render.Image
	accuracy   *evaluate.Report
	paused     bool
	showPoints bool
	showWalls  bool
	showView   bool
}

// New creates a viewer that starts running with points and walls shown
func New(sim Simulation, renderer render.Renderer, input render.InputManager, background image.Image) *Game {
	return &Game{
		Sim:        sim,
		Renderer:   renderer,
		Input:      input,
		Background: background,
		showPoints: true,
		showWalls:  true,
	}
}

// Paused reports whether ticking is suspended
func (g *Game) Paused() bool {
	return g.paused
}

// Update handles input and advances the simulation by one tick
func (g *Game) Update() error {
	if g.Input.IsKeyJustPressed(render.KeyEscape) {
		return ErrQuit
	}
	if g.Input.IsKeyJustPressed(render.KeySpace) {
		g.paused = !g.paused
	}
	if g.Input.IsKeyJustPressed(render.KeyP) {
		g.showPoints = !g.showPoints
	}
	if g.Input.IsKeyJustPressed(render.KeyW) {
		g.showWalls = !g.showWalls
	}
	if g.Input.IsKeyJustPressed(render.KeyV) {
		g.showView = !g.showView
	}
	if g.Input.IsKeyJustPressed(render.KeyR) {
		g.Sim.Reset()
		g.accuracy = nil
		log.Println("Simulation reset")
	}

	if g.paused && !g.Input.IsKeyJustPressed(render.KeyN) {
		return nil
	}

	snap := g.Sim.Tick()
	if g.Outline != nil {
		report := evaluate.Evaluate(snap.Points, g.Outline, 2*snap.Radius)
		g.accuracy = &report
	}
	if g.OnTick != nil {
		g.OnTick(snap)
	}
	return nil
}

// Draw renders the environment and the latest snapshot
func (g *Game) Draw(screen render.Image) {
	if g.background == nil && g.Background != nil {
		g.background = g.Renderer.NewImageFromImage(g.Background)
	}
	if g.background != nil {
		screen.DrawImage(g.background, g.fitBackground(screen))
	}

	snap := g.Sim.Snapshot()
	if g.showView {
		for i, p := range snap.View {
			q := snap.View[(i+1)%len(snap.View)]
			g.Renderer.StrokeLine(screen, float32(p.X), float32(p.Y), float32(q.X), float32(q.Y), 1, viewColor)
		}
	}
	if g.showPoints {
		for _, p := range snap.Points {
			g.Renderer.FillCircle(screen, float32(p.X), float32(p.Y), 2, pointColor)
		}
	}
	for _, s := range snap.Segments {
		g.drawSegment(screen, s, 1, segmentColor)
	}
	if g.showWalls {
		for _, s := range snap.Walls {
			g.drawSegment(screen, s, 3, wallColor)
		}
	}
	if snap.Target != nil {
		g.drawSegment(screen, *snap.Target, 5, targetColor)
	}

	g.drawAgent(screen, snap)
	g.drawHUD(screen, snap)
}

// fitBackground stretches the background onto the screen when the source
// image resolution differs from the environment
func (g *Game) fitBackground(screen render.Image) *render.DrawImageOptions {
	sw, sh := screen.Size()
	bw, bh := g.background.Size()
	if bw == 0 || bh == 0 || (sw == bw && sh == bh) {
		return nil
	}
	geoM := render.NewGeoM()
	geoM.Scale(float64(sw)/float64(bw), float64(sh)/float64(bh))
	return &render.DrawImageOptions{GeoM: geoM}
}

// Close releases the uploaded background. The next Draw uploads it again.
func (g *Game) Close() {
	if g.background != nil {
		g.background.Dispose()
		g.background = nil
	}
}

func (g *Game) drawSegment(screen render.Image, s geom.Segment, width float32, clr color.Color) {
	l, r := s.Left(), s.Right()
	g.Renderer.StrokeLine(screen, float32(l.X), float32(l.Y), float32(r.X), float32(r.Y), width, clr)
}

func (g *Game) drawAgent(screen render.Image, snap simulation.Snapshot) {
	x, y := float32(snap.Position.X), float32(snap.Position.Y)
	g.Renderer.StrokeCircle(screen, x, y, float32(snap.Radius), 2, agentColor)

	tip := snap.Position.Add(geom.Polar(snap.Radius, snap.Heading))
	g.Renderer.StrokeLine(screen, x, y, float32(tip.X), float32(tip.Y), 1, headingColor)
}

func (g *Game) drawHUD(screen render.Image, snap simulation.Snapshot) {
	status := fmt.Sprintf("tick %d  %s  points %d  segments %d  walls %d",
		snap.Tick, snap.Mode, len(snap.Points), len(snap.Segments), len(snap.Walls))
	if g.accuracy != nil {
		status += fmt.Sprintf("  coverage %.0f%%  error %.2f", 100*g.accuracy.Coverage, g.accuracy.MeanError)
	}
	if g.paused {
		status += "  [paused]"
	}
	g.Renderer.DrawText(screen, status, 8, 8, color.White, 1)
}

// Layout keeps the logical screen at the environment size
func (g *Game) Layout(outsideWidth, outsideHeight int) (int, int) {
	return g.Sim.Size()
}
