// Package simulation wires the range sensor, boundary scanner and
// navigation controller into a tick-driven simulation. Its configuration is
// loaded from JSON so environments can be tuned without recompiling.
package simulation

import (
	"encoding/json"
	"errors"
	"fmt"
	"io/fs"
	"log"
	"os"
	"strconv"

	"github.com/joho/godotenv"

	"chosenoffset.com/wallfollower/internal/core/scanner"
	"chosenoffset.com/wallfollower/internal/core/sensor"
)

// Config holds everything needed to build and run a simulation
type Config struct {
	// Agent pose and motion
	Agent AgentConfig `json:"agent"`

	// Range sensor
	Sensor sensor.Config `json:"sensor"`

	// Sweep and reconstruction. LinkDistance always follows the agent radius.
	Scanner scanner.Config `json:"scanner"`

	// Environment
	World WorldConfig `json:"world"`

	// Pacing and outer services
	Runtime RuntimeConfig `json:"runtime"`
}

// AgentConfig defines the agent's starting pose and motion
type AgentConfig struct {
	Radius  float64 `json:"radius"`  // Collision radius
	Speed   float64 `json:"speed"`   // Units per tick
	StartX  float64 `json:"start_x"` // Initial position
	StartY  float64 `json:"start_y"`
	Heading float64 `json:"heading"` // Initial heading (radians)
}

// WorldConfig selects and sizes the environment
type WorldConfig struct {
	Width       int    `json:"width"`
	Height      int    `json:"height"`
	DataDir     string `json:"data_dir"`    // Directory scanned for environments
	Environment string `json:"environment"` // Image or JSON map; empty generates one
	Threshold   uint8  `json:"threshold"`   // Luminance at which image pixels become walls
	Seed        int64  `json:"seed"`        // Procedural generation seed
}

// RuntimeConfig defines pacing and the optional outer services
type RuntimeConfig struct {
	TicksPerSecond  int    `json:"ticks_per_second"`
	Listen          string `json:"listen"`   // HTTP address, empty disables the API
	Database        string `json:"database"` // SQLite path, empty disables telemetry
	FlushSize       int    `json:"flush_size"`
	FlushIntervalMS int    `json:"flush_interval_ms"`
}

// DefaultConfig returns the reference setup: a 900x900 world, a radius 20
// agent starting at (100, 100) and a half degree sweep.
func DefaultConfig() *Config {
	return &Config{
		Agent: AgentConfig{
			Radius: 20,
			Speed:  5,
			StartX: 100,
			StartY: 100,
		},
		Sensor: sensor.Config{
			MaxRange:    300,
			HopDistance: 5,
		},
		Scanner: scanner.Config{
			SweepResolution: 0.5,
			DedupDistance:   5,
			LinkDistance:    20,
			Workers:         4,
			WallTolerance:   2,
			MinWallLength:   20,
			JoinAngle:       5,
			JoinDistance:    10,
		},
		World: WorldConfig{
			Width:     900,
			Height:    900,
			DataDir:   "data",
			Threshold: 128,
			Seed:      1,
		},
		Runtime: RuntimeConfig{
			TicksPerSecond:  30,
			FlushSize:       50,
			FlushIntervalMS: 2000,
		},
	}
}

// LoadConfig loads simulation config from a JSON file
func LoadConfig(path string) (*Config, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		// Return defaults if file doesn't exist
		if os.IsNotExist(err) {
			return DefaultConfig(), nil
		}
		return nil, fmt.Errorf("failed to read simulation config: %w", err)
	}

	config := DefaultConfig() // Start with defaults
	if err := json.Unmarshal(data, config); err != nil {
		return nil, fmt.Errorf("failed to parse simulation config: %w", err)
	}

	return config, nil
}

// Validate rejects configurations the core cannot run with
func (c *Config) Validate() error {
	if c.Agent.Radius <= 0 {
		return fmt.Errorf("agent radius must be positive, got %v", c.Agent.Radius)
	}
	if c.Agent.Speed <= 0 {
		return fmt.Errorf("agent speed must be positive, got %v", c.Agent.Speed)
	}
	if err := c.Sensor.Validate(); err != nil {
		return err
	}
	if err := c.scannerConfig().Validate(); err != nil {
		return err
	}
	if c.World.Width <= 0 || c.World.Height <= 0 {
		return fmt.Errorf("invalid world dimensions: %dx%d", c.World.Width, c.World.Height)
	}
	if c.Runtime.TicksPerSecond <= 0 {
		return fmt.Errorf("ticks per second must be positive, got %d", c.Runtime.TicksPerSecond)
	}
	return nil
}

// scannerConfig returns the scanner settings with the link distance tied
// to the agent radius
func (c *Config) scannerConfig() scanner.Config {
	sc := c.Scanner
	sc.LinkDistance = c.Agent.Radius
	return sc
}

// envOverride applies one WALLFOLLOW_* variable
type envOverride struct {
	key   string
	apply func(c *Config, value string) error
}

func floatVar(dst func(*Config) *float64) func(*Config, string) error {
	return func(c *Config, value string) error {
		v, err := strconv.ParseFloat(value, 64)
		if err != nil {
			return err
		}
		*dst(c) = v
		return nil
	}
}

func intVar(dst func(*Config) *int) func(*Config, string) error {
	return func(c *Config, value string) error {
		v, err := strconv.Atoi(value)
		if err != nil {
			return err
		}
		*dst(c) = v
		return nil
	}
}

func stringVar(dst func(*Config) *string) func(*Config, string) error {
	return func(c *Config, value string) error {
		*dst(c) = value
		return nil
	}
}

var envOverrides = []envOverride{
	{"WALLFOLLOW_RADIUS", floatVar(func(c *Config) *float64 { return &c.Agent.Radius })},
	{"WALLFOLLOW_SPEED", floatVar(func(c *Config) *float64 { return &c.Agent.Speed })},
	{"WALLFOLLOW_START_X", floatVar(func(c *Config) *float64 { return &c.Agent.StartX })},
	{"WALLFOLLOW_START_Y", floatVar(func(c *Config) *float64 { return &c.Agent.StartY })},
	{"WALLFOLLOW_MAX_RANGE", floatVar(func(c *Config) *float64 { return &c.Sensor.MaxRange })},
	{"WALLFOLLOW_WORKERS", intVar(func(c *Config) *int { return &c.Scanner.Workers })},
	{"WALLFOLLOW_DATA_DIR", stringVar(func(c *Config) *string { return &c.World.DataDir })},
	{"WALLFOLLOW_ENVIRONMENT", stringVar(func(c *Config) *string { return &c.World.Environment })},
	{"WALLFOLLOW_TPS", intVar(func(c *Config) *int { return &c.Runtime.TicksPerSecond })},
	{"WALLFOLLOW_LISTEN", stringVar(func(c *Config) *string { return &c.Runtime.Listen })},
	{"WALLFOLLOW_DB", stringVar(func(c *Config) *string { return &c.Runtime.Database })},
}

// ApplyEnv overrides fields from WALLFOLLOW_* variables. Values in envFile
// (a .env file, skipped when absent) are used unless the process
// environment sets the same key.
func (c *Config) ApplyEnv(envFile string) error {
	vars := map[string]string{}
	if envFile != "" {
		fileVars, err := godotenv.Read(envFile)
		switch {
		case errors.Is(err, fs.ErrNotExist):
			log.Printf("No env file at %s, using process environment only", envFile)
		case err != nil:
			return fmt.Errorf("failed to read env file %s: %w", envFile, err)
		default:
			vars = fileVars
		}
	}

	for _, o := range envOverrides {
		value, ok := os.LookupEnv(o.key)
		if !ok {
			value, ok = vars[o.key]
		}
		if !ok || value == "" {
			continue
		}
		if err := o.apply(c, value); err != nil {
			return fmt.Errorf("invalid %s=%q: %w", o.key, value, err)
		}
	}
	return nil
}
