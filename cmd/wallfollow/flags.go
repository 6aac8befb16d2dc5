package main

import "flag"

// Command-line flags. Anything set here overrides the config file and the
// environment.
var (
	// configFlag points at the JSON simulation config.
	configFlag = flag.String("config", "wallfollow.json", "path to the JSON simulation config")

	// envFileFlag is read for WALLFOLLOW_* overrides.
	envFileFlag = flag.String("env", ".env", "dotenv file with WALLFOLLOW_* overrides")

	environmentFlag = flag.String("environment", "", "environment to load from the data directory (empty generates one)")
	dataDirFlag     = flag.String("data", "", "directory holding environment images and maps")
	seedFlag        = flag.Int64("seed", 0, "seed for generated environments (0 keeps the configured seed)")
	tpsFlag         = flag.Int("tps", 0, "simulation ticks per second (0 keeps the configured rate)")

	// menuFlag shows the environment picker when no environment is set.
	menuFlag = flag.Bool("menu", true, "pick the environment from a menu when none is configured")

	// dbFlag records every tick into a SQLite telemetry database.
	dbFlag = flag.String("db", "", "SQLite telemetry database (empty disables recording)")
)
