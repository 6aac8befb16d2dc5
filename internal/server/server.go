// Package server exposes a running simulation over HTTP: JSON and GeoJSON
// snapshots, environment listing, recorded telemetry and a websocket
// snapshot stream.
package server

import (
	"log"
	"strconv"
	"time"

	"github.com/gofiber/fiber/v2"
	"github.com/gofiber/fiber/v2/middleware/cors"
	"github.com/gofiber/fiber/v2/middleware/logger"
	"github.com/gofiber/websocket/v2"
	"github.com/google/uuid"

	"chosenoffset.com/wallfollower/internal/core/geom"
	"chosenoffset.com/wallfollower/internal/evaluate"
	"chosenoffset.com/wallfollower/internal/export"
	"chosenoffset.com/wallfollower/internal/telemetry"
	"chosenoffset.com/wallfollower/internal/world/catalog"
)

// Options configures the optional parts of the API
type Options struct {
	DataDir    string           // Listed by /api/environments
	Store      *telemetry.Store // Serves /api/runs; nil disables it
	RunID      uuid.UUID        // Run being recorded, if any
	AccessLogs bool

	// True boundary of the environment; nil disables accuracy reports
	Outline []geom.Segment
}

// Server is the HTTP front of a Runner
type Server struct {
	app    *fiber.App
	runner *Runner
	hub    *Hub
	opts   Options
}

// New builds the fiber app and its routes
func New(runner *Runner, hub *Hub, opts Options) *Server {
	s := &Server{
		app:    fiber.New(fiber.Config{DisableStartupMessage: true}),
		runner: runner,
		hub:    hub,
		opts:   opts,
	}

	if opts.AccessLogs {
		s.app.Use(logger.New())
	}
	s.app.Use(cors.New(cors.Config{
		AllowOrigins: "*",
		AllowHeaders: "Origin, Content-Type, Accept",
		AllowMethods: "GET, POST, OPTIONS",
	}))

	api := s.app.Group("/api")
	api.Get("/health", s.handleHealth)
	api.Get("/snapshot", s.handleSnapshot)
	api.Get("/snapshot.geojson", s.handleSnapshotGeoJSON)
	api.Get("/walls.geojson", s.handleWallsGeoJSON)
	api.Post("/step", s.handleStep)
	api.Post("/reset", s.handleReset)
	api.Get("/accuracy", s.handleAccuracy)
	api.Get("/outline.geojson", s.handleOutlineGeoJSON)
	api.Get("/environments", s.handleEnvironments)
	api.Get("/runs", s.handleRuns)
	api.Get("/runs/:id/ticks", s.handleRunTicks)

	// WebSocket
	s.app.Use("/ws", func(c *fiber.Ctx) error {
		if websocket.IsWebSocketUpgrade(c) {
			c.Locals("allowed", true)
			return c.Next()
		}
		return fiber.ErrUpgradeRequired
	})
	s.app.Get("/ws/snapshots", websocket.New(s.handleStream))

	return s
}

// App returns the fiber app, mainly for tests
func (s *Server) App() *fiber.App {
	return s.app
}

// Listen serves the API on addr until Shutdown
func (s *Server) Listen(addr string) error {
	log.Printf("API listening on %s", addr)
	return s.app.Listen(addr)
}

// Shutdown stops accepting requests
func (s *Server) Shutdown() error {
	return s.app.Shutdown()
}

func (s *Server) handleHealth(c *fiber.Ctx) error {
	snap := s.runner.Snapshot()
	return c.JSON(fiber.Map{
		"status":  "OK",
		"tick":    snap.Tick,
		"mode":    snap.Mode.String(),
		"running": s.runner.Running(),
		"clients": s.hub.ClientCount(),
		"time":    time.Now().Format(time.RFC3339),
	})
}

func (s *Server) handleSnapshot(c *fiber.Ctx) error {
	return c.JSON(s.runner.Snapshot())
}

func (s *Server) handleSnapshotGeoJSON(c *fiber.Ctx) error {
	data, err := export.MarshalSnapshot(s.runner.Snapshot())
	if err != nil {
		return fiber.NewError(fiber.StatusInternalServerError, err.Error())
	}
	c.Set(fiber.HeaderContentType, "application/geo+json")
	return c.Send(data)
}

func (s *Server) handleWallsGeoJSON(c *fiber.Ctx) error {
	data, err := export.WallsOnly(s.runner.Snapshot()).MarshalJSON()
	if err != nil {
		return fiber.NewError(fiber.StatusInternalServerError, err.Error())
	}
	c.Set(fiber.HeaderContentType, "application/geo+json")
	return c.Send(data)
}

func (s *Server) handleStep(c *fiber.Ctx) error {
	if s.runner.Running() {
		return c.Status(fiber.StatusConflict).JSON(fiber.Map{
			"error": "simulation is running; stepping is only available while stopped",
		})
	}
	return c.JSON(s.runner.Step())
}

func (s *Server) handleReset(c *fiber.Ctx) error {
	snap := s.runner.Reset()
	log.Println("Simulation reset via API")
	return c.JSON(fiber.Map{
		"success": true,
		"tick":    snap.Tick,
	})
}

func (s *Server) handleAccuracy(c *fiber.Ctx) error {
	if s.opts.Outline == nil {
		return fiber.NewError(fiber.StatusNotFound, "no reference outline loaded")
	}

	tolerance, err := strconv.ParseFloat(c.Query("tolerance", "10"), 64)
	if err != nil || tolerance <= 0 {
		return c.Status(fiber.StatusBadRequest).JSON(fiber.Map{
			"error": "tolerance must be positive",
		})
	}

	snap := s.runner.Snapshot()
	return c.JSON(fiber.Map{
		"tick":     snap.Tick,
		"accuracy": evaluate.Evaluate(snap.Points, s.opts.Outline, tolerance),
	})
}

func (s *Server) handleOutlineGeoJSON(c *fiber.Ctx) error {
	if s.opts.Outline == nil {
		return fiber.NewError(fiber.StatusNotFound, "no reference outline loaded")
	}
	data, err := export.Outline(s.opts.Outline).MarshalJSON()
	if err != nil {
		return fiber.NewError(fiber.StatusInternalServerError, err.Error())
	}
	c.Set(fiber.HeaderContentType, "application/geo+json")
	return c.Send(data)
}

func (s *Server) handleEnvironments(c *fiber.Ctx) error {
	entries, err := catalog.ScanDirectory(s.opts.DataDir)
	if err != nil {
		return c.Status(fiber.StatusInternalServerError).JSON(fiber.Map{
			"error": "Failed to list environments",
		})
	}
	if entries == nil {
		entries = []catalog.Entry{}
	}
	return c.JSON(fiber.Map{
		"count":        len(entries),
		"environments": entries,
	})
}

func (s *Server) handleRuns(c *fiber.Ctx) error {
	if s.opts.Store == nil {
		return fiber.NewError(fiber.StatusNotFound, "telemetry is disabled")
	}

	runs, err := s.opts.Store.Runs(queryLimit(c, 20))
	if err != nil {
		return c.Status(fiber.StatusInternalServerError).JSON(fiber.Map{
			"error": "Failed to fetch runs",
		})
	}
	return c.JSON(fiber.Map{
		"current": s.opts.RunID,
		"count":   len(runs),
		"runs":    runs,
	})
}

func (s *Server) handleRunTicks(c *fiber.Ctx) error {
	if s.opts.Store == nil {
		return fiber.NewError(fiber.StatusNotFound, "telemetry is disabled")
	}

	runID, err := uuid.Parse(c.Params("id"))
	if err != nil {
		return c.Status(fiber.StatusBadRequest).JSON(fiber.Map{
			"error": "Invalid run id",
		})
	}

	ticks, err := s.opts.Store.RecentTicks(runID, queryLimit(c, 100))
	if err != nil {
		return c.Status(fiber.StatusInternalServerError).JSON(fiber.Map{
			"error": "Failed to fetch ticks",
		})
	}
	modes, err := s.opts.Store.ModeCounts(runID)
	if err != nil {
		return c.Status(fiber.StatusInternalServerError).JSON(fiber.Map{
			"error": "Failed to fetch mode counts",
		})
	}

	return c.JSON(fiber.Map{
		"run_id": runID,
		"count":  len(ticks),
		"ticks":  ticks,
		"modes":  modes,
	})
}

func queryLimit(c *fiber.Ctx, def int) int {
	limit, err := strconv.Atoi(c.Query("limit", strconv.Itoa(def)))
	if err != nil || limit <= 0 {
		return def
	}
	return limit
}

// handleStream sends the current snapshot, then every broadcast, until
// the client goes away
func (s *Server) handleStream(c *websocket.Conn) {
	// Written before registering so the hub is the only writer afterwards
	if data, err := encodeSnapshot(s.runner.Snapshot()); err == nil {
		_ = c.WriteMessage(textMessage, data)
	}

	s.hub.Register(c)
	defer s.hub.Unregister(c)

	for {
		if _, _, err := c.ReadMessage(); err != nil {
			return
		}
	}
}
