// Package catalog discovers environment files in a data directory and
// loads them into occupancy grids.
package catalog

import (
	"fmt"
	"math/rand"
	"os"
	"path/filepath"
	"sort"
	"strings"

	"chosenoffset.com/wallfollower/internal/core/geom"
	"chosenoffset.com/wallfollower/internal/world/maploader"
	"chosenoffset.com/wallfollower/internal/world/occupancy"
)

// Kind tells how an environment file is rasterized
type Kind string

const (
	KindImage Kind = "image" // PNG or BMP, light pixels are walls
	KindMap   Kind = "map"   // JSON cell map
)

// Entry represents a discoverable environment in the data directory
type Entry struct {
	Name string `json:"name"` // File name without extension
	Path string `json:"path"`
	Kind Kind   `json:"kind"`
}

// Environment is a loaded, rasterized environment
type Environment struct {
	Name     string
	Grid     *occupancy.Grid
	Spawn    geom.Point
	HasSpawn bool
}

// ScanDirectory lists the environment files in dataPath, sorted by name
func ScanDirectory(dataPath string) ([]Entry, error) {
	entries, err := os.ReadDir(dataPath)
	if err != nil {
		return nil, fmt.Errorf("failed to read data directory: %w", err)
	}

	var found []Entry
	for _, entry := range entries {
		// Skip directories and hidden files
		name := entry.Name()
		if entry.IsDir() || strings.HasPrefix(name, ".") {
			continue
		}

		kind, ok := kindOf(name)
		if !ok {
			continue
		}

		found = append(found, Entry{
			Name: strings.TrimSuffix(name, filepath.Ext(name)),
			Path: filepath.Join(dataPath, name),
			Kind: kind,
		})
	}

	sort.Slice(found, func(i, j int) bool { return found[i].Name < found[j].Name })
	return found, nil
}

func kindOf(name string) (Kind, bool) {
	switch strings.ToLower(filepath.Ext(name)) {
	case ".png", ".bmp":
		return KindImage, true
	case ".json":
		return KindMap, true
	}
	return "", false
}

// Load rasterizes an environment file. Images are scaled to width x
// height; JSON maps keep their own cell geometry.
func Load(path string, width, height int, threshold uint8) (*Environment, error) {
	name := strings.TrimSuffix(filepath.Base(path), filepath.Ext(path))

	kind, ok := kindOf(path)
	if !ok {
		return nil, fmt.Errorf("unsupported environment file %s", path)
	}

	if kind == KindImage {
		grid, err := occupancy.LoadImage(path, width, height, threshold)
		if err != nil {
			return nil, err
		}
		return &Environment{Name: name, Grid: grid}, nil
	}

	m, err := maploader.LoadMap(path)
	if err != nil {
		return nil, err
	}
	env := &Environment{Name: name, Grid: m.Grid()}
	if m.Data.Name != "" {
		env.Name = m.Data.Name
	}
	env.Spawn, env.HasSpawn = m.SpawnPoint()
	return env, nil
}

// Source selects an environment: a file under DataDir, or a generated one
// when Environment is empty
type Source struct {
	DataDir     string
	Environment string // File name, with or without extension, or a path
	Width       int
	Height      int
	Threshold   uint8
	Seed        int64
	Spawn       geom.Point // Kept clear when generating
}

// Resolve loads or generates the environment described by src
func Resolve(src Source) (*Environment, error) {
	if src.Environment == "" {
		opts := occupancy.DefaultGenerateOptions(src.Width, src.Height)
		opts.Spawn = src.Spawn
		grid := occupancy.Generate(src.Width, src.Height, opts, rand.New(rand.NewSource(src.Seed)))
		return &Environment{
			Name:     fmt.Sprintf("generated-%d", src.Seed),
			Grid:     grid,
			Spawn:    src.Spawn,
			HasSpawn: true,
		}, nil
	}

	path, err := find(src.DataDir, src.Environment)
	if err != nil {
		return nil, err
	}
	return Load(path, src.Width, src.Height, src.Threshold)
}

// find accepts an existing path, or an entry name from dataDir
func find(dataDir, name string) (string, error) {
	if _, err := os.Stat(name); err == nil {
		return name, nil
	}
	if _, err := os.Stat(filepath.Join(dataDir, name)); err == nil {
		return filepath.Join(dataDir, name), nil
	}

	entries, err := ScanDirectory(dataDir)
	if err != nil {
		return "", err
	}
	for _, e := range entries {
		if e.Name == name {
			return e.Path, nil
		}
	}
	return "", fmt.Errorf("environment %q not found in %s", name, dataDir)
}
