package main

import (
	"errors"
	"flag"
	"fmt"
	"log"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/google/uuid"

	"chosenoffset.com/wallfollower/internal/core/geom"
	"chosenoffset.com/wallfollower/internal/evaluate"
	"chosenoffset.com/wallfollower/internal/export"
	"chosenoffset.com/wallfollower/internal/server"
	"chosenoffset.com/wallfollower/internal/simulation"
	"chosenoffset.com/wallfollower/internal/telemetry"
	"chosenoffset.com/wallfollower/internal/world/catalog"
)

func main() {
	flag.Parse()

	if err := run(); err != nil {
		log.Fatal(err)
	}
}

// run reports failures to main so deferred telemetry flushes run before exit
func run() error {
	config, err := simulation.LoadConfig(*configFlag)
	if err != nil {
		return fmt.Errorf("failed to load config: %w", err)
	}
	if err := config.ApplyEnv(*envFileFlag); err != nil {
		return fmt.Errorf("failed to apply environment overrides: %w", err)
	}
	applyFlags(config)

	if *ticksFlag <= 0 && config.Runtime.Listen == "" {
		return errors.New("nothing to do: pass -ticks or -listen")
	}

	env, err := catalog.Resolve(catalog.Source{
		DataDir:     config.World.DataDir,
		Environment: config.World.Environment,
		Width:       config.World.Width,
		Height:      config.World.Height,
		Threshold:   config.World.Threshold,
		Seed:        config.World.Seed,
		Spawn:       geom.Point{X: config.Agent.StartX, Y: config.Agent.StartY},
	})
	if err != nil {
		return fmt.Errorf("failed to load environment: %w", err)
	}
	if env.HasSpawn {
		config.Agent.StartX, config.Agent.StartY = env.Spawn.X, env.Spawn.Y
	}

	sim, err := simulation.New(config, env.Grid)
	if err != nil {
		return fmt.Errorf("failed to create simulation: %w", err)
	}
	runner := server.NewRunner(sim, config.Runtime.TicksPerSecond)

	var store *telemetry.Store
	var runID uuid.UUID
	if config.Runtime.Database != "" {
		store, err = telemetry.Open(config.Runtime.Database)
		if err != nil {
			return fmt.Errorf("failed to open telemetry: %w", err)
		}
		defer store.Close()

		started, err := store.StartRun(env.Name, config)
		if err != nil {
			return fmt.Errorf("failed to start run: %w", err)
		}
		runID = started.ID
		log.Printf("Recording run %s", runID)

		recorder := telemetry.NewRecorder(store, runID, config.Runtime.FlushSize,
			time.Duration(config.Runtime.FlushIntervalMS)*time.Millisecond)
		recorder.Start()
		defer recorder.Stop()
		runner.OnSnapshot(recorder.Record)
	}

	outline := env.Grid.Outline()

	if *ticksFlag > 0 {
		runHeadless(runner, *ticksFlag, env.Name, outline)
	}

	if config.Runtime.Listen != "" {
		serve(runner, config, server.Options{
			DataDir:    config.World.DataDir,
			Store:      store,
			RunID:      runID,
			AccessLogs: *accessLogs,
			Outline:    outline,
		})
	}

	if *geojsonFlag != "" {
		data, err := export.MarshalSnapshot(runner.Snapshot())
		if err != nil {
			return fmt.Errorf("failed to encode GeoJSON: %w", err)
		}
		if err := os.WriteFile(*geojsonFlag, data, 0o644); err != nil {
			return fmt.Errorf("failed to write %s: %w", *geojsonFlag, err)
		}
		log.Printf("Wrote %s", *geojsonFlag)
	}
	return nil
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
	if *listenFlag != "" {
		config.Runtime.Listen = *listenFlag
	}
	if *dbFlag != "" {
		config.Runtime.Database = *dbFlag
	}
}

// runHeadless steps the simulation as fast as possible and logs a summary
func runHeadless(runner *server.Runner, ticks int, environment string, outline []geom.Segment) {
	start := time.Now()
	modes := make(map[string]int)
	moved, collided := 0, 0

	var snap simulation.Snapshot
	for i := 0; i < ticks; i++ {
		snap = runner.Step()
		modes[snap.Mode.String()]++
		if snap.Moved {
			moved++
		}
		if snap.Collided {
			collided++
		}
	}

	log.Printf("Ran %d ticks on %s in %v", ticks, environment, time.Since(start).Round(time.Millisecond))
	log.Printf("  modes: %v", modes)
	log.Printf("  moves: %d, collisions: %d", moved, collided)
	log.Printf("  points: %d, segments: %d, walls: %d", len(snap.Points), len(snap.Segments), len(snap.Walls))
	log.Printf("  final pose: (%.1f, %.1f) heading %.3f, mode %s",
		snap.Position.X, snap.Position.Y, snap.Heading, snap.Mode)

	report := evaluate.Evaluate(snap.Points, outline, 2*snap.Radius)
	log.Printf("  boundary %.0f, coverage %.1f%%, mean error %.2f, max error %.2f",
		report.Boundary, 100*report.Coverage, report.MeanError, report.MaxError)
}

// serve runs the API until SIGINT or SIGTERM
func serve(runner *server.Runner, config *simulation.Config, opts server.Options) {
	hub := server.NewHub()
	go hub.Run()
	runner.OnSnapshot(hub.BroadcastSnapshot)

	srv := server.New(runner, hub, opts)

	errChan := make(chan error, 1)
	go func() {
		errChan <- srv.Listen(config.Runtime.Listen)
	}()
	runner.Start()

	sigChan := make(chan os.Signal, 1)
	signal.Notify(sigChan, os.Interrupt, syscall.SIGTERM)

	select {
	case <-sigChan:
		log.Println("Shutting down...")
	case err := <-errChan:
		log.Printf("Server stopped: %v", err)
	}

	runner.Stop()
	if err := srv.Shutdown(); err != nil {
		log.Printf("Server shutdown error: %v", err)
	}
	hub.Stop()
}
