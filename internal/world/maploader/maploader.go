package maploader

import (
	"encoding/json"
	"fmt"
	"os"

	"chosenoffset.com/wallfollower/internal/core/geom"
	"chosenoffset.com/wallfollower/internal/world/occupancy"
)

const (
	wallCell  = '#'
	floorCell = '.'
)

// SpawnPoint defines the agent's starting location in world units
type SpawnPoint struct {
	X float64 `json:"x"`
	Y float64 `json:"y"`
}

// MapData represents the loaded map configuration
type MapData struct {
	Name     string      `json:"name"`
	Width    int         `json:"width"`     // Cells per row
	Height   int         `json:"height"`    // Number of rows
	CellSize int         `json:"cell_size"` // World units per cell
	Spawn    *SpawnPoint `json:"spawn,omitempty"`
	Rows     []string    `json:"rows"` // '#' wall, '.' floor
}

// Map is a validated map ready to be rasterized
type Map struct {
	Data *MapData
}

// LoadMap loads a map from a JSON file
func LoadMap(mapPath string) (*Map, error) {
	// Read the map JSON file
	data, err := os.ReadFile(mapPath)
	if err != nil {
		return nil, fmt.Errorf("failed to read map file %s: %w", mapPath, err)
	}

	m, err := ParseMap(data)
	if err != nil {
		return nil, fmt.Errorf("failed to load map file %s: %w", mapPath, err)
	}
	return m, nil
}

// ParseMap parses and validates a JSON map document
func ParseMap(data []byte) (*Map, error) {
	var mapData MapData
	if err := json.Unmarshal(data, &mapData); err != nil {
		return nil, fmt.Errorf("failed to parse map: %w", err)
	}

	if err := validateMapData(&mapData); err != nil {
		return nil, fmt.Errorf("invalid map data: %w", err)
	}

	return &Map{Data: &mapData}, nil
}

// validateMapData checks if the map data is valid
func validateMapData(data *MapData) error {
	if data.Width <= 0 || data.Height <= 0 {
		return fmt.Errorf("invalid map dimensions: %dx%d", data.Width, data.Height)
	}

	if data.CellSize <= 0 {
		return fmt.Errorf("invalid cell size: %d", data.CellSize)
	}

	// Validate rows dimensions
	if len(data.Rows) != data.Height {
		return fmt.Errorf("rows height mismatch: expected %d, got %d", data.Height, len(data.Rows))
	}

	for y, row := range data.Rows {
		if len(row) != data.Width {
			return fmt.Errorf("rows width mismatch at row %d: expected %d, got %d", y, data.Width, len(row))
		}
		for x, c := range row {
			if c != wallCell && c != floorCell {
				return fmt.Errorf("unknown cell %q at (%d, %d)", c, x, y)
			}
		}
	}

	if s := data.Spawn; s != nil {
		w := float64(data.Width * data.CellSize)
		h := float64(data.Height * data.CellSize)
		if s.X < 0 || s.X >= w || s.Y < 0 || s.Y >= h {
			return fmt.Errorf("spawn (%v, %v) outside the %vx%v world", s.X, s.Y, w, h)
		}
	}

	return nil
}

// BlocksSight returns whether the cell at the given coordinates is a wall.
// Out of bounds cells block.
func (m *Map) BlocksSight(x, y int) bool {
	if x < 0 || x >= m.Data.Width || y < 0 || y >= m.Data.Height {
		return true
	}
	return m.Data.Rows[y][x] == wallCell
}

// WorldSize returns the rasterized dimensions in world units
func (m *Map) WorldSize() (int, int) {
	return m.Data.Width * m.Data.CellSize, m.Data.Height * m.Data.CellSize
}

// SpawnPoint returns the configured spawn, if any
func (m *Map) SpawnPoint() (geom.Point, bool) {
	if m.Data.Spawn == nil {
		return geom.Point{}, false
	}
	return geom.Point{X: m.Data.Spawn.X, Y: m.Data.Spawn.Y}, true
}

// Grid rasterizes the map, each cell becoming a CellSize square
func (m *Map) Grid() *occupancy.Grid {
	w, h := m.WorldSize()
	g := occupancy.NewGrid(w, h)
	size := m.Data.CellSize

	for y := 0; y < m.Data.Height; y++ {
		for x := 0; x < m.Data.Width; x++ {
			if m.BlocksSight(x, y) {
				g.FillRect(x*size, y*size, (x+1)*size, (y+1)*size)
			}
		}
	}
	return g
}
