package main

import (
	"errors"
	"flag"
	"image/color"
	"log"
	"time"

	"chosenoffset.com/wallfollower/internal/core/geom"
	"chosenoffset.com/wallfollower/internal/render"
	ebitenrender "chosenoffset.com/wallfollower/internal/render/ebiten"
	"chosenoffset.com/wallfollower/internal/simulation"
	"chosenoffset.com/wallfollower/internal/telemetry"
	"chosenoffset.com/wallfollower/internal/viewer"
	"chosenoffset.com/wallfollower/internal/world/catalog"
)

var (
	wallColor  = color.RGBA{0x50, 0x50, 0x60, 0xff}
	floorColor = color.RGBA{0x10, 0x10, 0x18, 0xff}
)

// launcher builds viewers for environments, sharing one telemetry store
type launcher struct {
	config   *simulation.Config
	renderer render.Renderer
	input    render.InputManager

	store    *telemetry.Store
	recorder *telemetry.Recorder
}

func main() {
	flag.Parse()

	config, err := simulation.LoadConfig(*configFlag)
	if err != nil {
		log.Fatalf("Failed to load config: %v", err)
	}
	if err := config.ApplyEnv(*envFileFlag); err != nil {
		log.Fatalf("Failed to apply environment overrides: %v", err)
	}
	applyFlags(config)

	// Initialize the renderer backend (ebiten)
	l := &launcher{
		config:   config,
		renderer: ebitenrender.NewRenderer(),
		input:    ebitenrender.NewInputManager(),
	}
	engine := ebitenrender.NewEngine()

	if config.Runtime.Database != "" {
		l.store, err = telemetry.Open(config.Runtime.Database)
		if err != nil {
			log.Fatalf("Failed to open telemetry: %v", err)
		}
		defer l.close()
	}

	engine.SetWindowTitle("Wall Follower")
	engine.SetWindowSize(config.World.Width, config.World.Height)
	engine.SetWindowResizable(true)
	engine.SetTPS(config.Runtime.TicksPerSecond)

	var game render.Game
	if *menuFlag && config.World.Environment == "" {
		log.Println("Scanning data directory for environments...")
		entries, err := catalog.ScanDirectory(config.World.DataDir)
		if err != nil {
			log.Printf("Warning: %v", err)
		}
		menu := viewer.NewMenu(entries, l.renderer, l.input)
		game = viewer.NewManager(menu, l.input, l.load, config.World.Width, config.World.Height)
	} else {
		game, err = l.load(viewer.Choice{Entry: catalog.Entry{Path: config.World.Environment}, Generate: config.World.Environment == ""})
		if err != nil {
			log.Fatalf("Failed to load environment: %v", err)
		}
	}

	log.Println("Starting viewer...")
	if err := engine.RunGame(game); err != nil && !errors.Is(err, viewer.ErrQuit) {
		log.Fatal(err)
	}
}

func applyFlags(config *simulation.Config) {
	if *environmentFlag != "" {
		config.World.Environment = *environmentFlag
	}
	if *dataDirFlag != "" {
		config.World.DataDir = *dataDirFlag
	}
	if *seedFlag != 0 {
		config.World.Seed = *seedFlag
	}
	if *tpsFlag > 0 {
		config.Runtime.TicksPerSecond = *tpsFlag
	}
	if *dbFlag != "" {
		config.Runtime.Database = *dbFlag
	}
}

// load resolves the chosen environment and builds a viewer for it
func (l *launcher) load(choice viewer.Choice) (*viewer.Game, error) {
	config := *l.config
	src := catalog.Source{
		DataDir:   config.World.DataDir,
		Width:     config.World.Width,
		Height:    config.World.Height,
		Threshold: config.World.Threshold,
		Seed:      config.World.Seed,
		Spawn:     geom.Point{X: config.Agent.StartX, Y: config.Agent.StartY},
	}
	if !choice.Generate {
		src.Environment = choice.Entry.Path
	}

	env, err := catalog.Resolve(src)
	if err != nil {
		return nil, err
	}
	if env.HasSpawn {
		config.Agent.StartX, config.Agent.StartY = env.Spawn.X, env.Spawn.Y
	}
	config.World.Environment = env.Name
	log.Printf("Environment %s (%d wall cells)", env.Name, env.Grid.WallCount())

	sim, err := simulation.New(&config, env.Grid)
	if err != nil {
		return nil, err
	}

	game := viewer.New(sim, l.renderer, l.input, env.Grid.Image(wallColor, floorColor))
	game.Outline = env.Grid.Outline()

	if l.store != nil {
		if err := l.startRun(&config, env.Name); err != nil {
			return nil, err
		}
		game.OnTick = l.recorder.Record
	}

	log.Printf("Simulating %s, %d rays per sweep", env.Name, sim.SweepSamples())
	return game, nil
}

// startRun finishes the previous run, if any, and starts recording a new one
func (l *launcher) startRun(config *simulation.Config, environment string) error {
	if l.recorder != nil {
		l.recorder.Stop()
		l.recorder = nil
	}

	run, err := l.store.StartRun(environment, config)
	if err != nil {
		return err
	}
	log.Printf("Recording run %s", run.ID)

	l.recorder = telemetry.NewRecorder(l.store, run.ID, config.Runtime.FlushSize,
		time.Duration(config.Runtime.FlushIntervalMS)*time.Millisecond)
	l.recorder.Start()
	return nil
}

func (l *launcher) close() {
	if l.recorder != nil {
		l.recorder.Stop()
	}
	if err := l.store.Close(); err != nil {
		log.Printf("Failed to close telemetry database: %v", err)
	}
}
