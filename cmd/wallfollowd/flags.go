package main

import "flag"

// Command-line flags. The daemon either runs a fixed number of ticks and
// exits, or serves the API until interrupted.
var (
	configFlag      = flag.String("config", "wallfollow.json", "path to the JSON simulation config")
	envFileFlag     = flag.String("env", ".env", "dotenv file with WALLFOLLOW_* overrides")
	environmentFlag = flag.String("environment", "", "environment to load from the data directory (empty generates one)")
	dataDirFlag     = flag.String("data", "", "directory holding environment images and maps")
	seedFlag        = flag.Int64("seed", 0, "seed for generated environments (0 keeps the configured seed)")

	// ticksFlag runs headless for N ticks and prints a summary.
	ticksFlag = flag.Int("ticks", 0, "run this many ticks headless, then exit")

	// listenFlag serves the HTTP and websocket API.
	listenFlag = flag.String("listen", "", "HTTP address for the API, e.g. :8080")

	dbFlag      = flag.String("db", "", "SQLite telemetry database (empty disables recording)")
	geojsonFlag = flag.String("geojson", "", "write the final snapshot as GeoJSON to this file")
	accessLogs  = flag.Bool("access-logs", false, "log every HTTP request")
)
