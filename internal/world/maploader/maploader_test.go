package maploader

import (
	"os"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"chosenoffset.com/wallfollower/internal/core/geom"
)

const squareMap = `{
	"name": "square",
	"width": 4,
	"height": 3,
	"cell_size": 10,
	"spawn": {"x": 15, "y": 15},
	"rows": [
		"####",
		"#..#",
		"####"
	]
}`

func TestParseMapAndRasterize(t *testing.T) {
	m, err := ParseMap([]byte(squareMap))
	require.NoError(t, err)

	assert.Equal(t, "square", m.Data.Name)
	w, h := m.WorldSize()
	assert.Equal(t, 40, w)
	assert.Equal(t, 30, h)

	spawn, ok := m.SpawnPoint()
	require.True(t, ok)
	assert.Equal(t, geom.Point{X: 15, Y: 15}, spawn)

	g := m.Grid()
	assert.True(t, g.Occupied(5, 5))
	assert.True(t, g.Occupied(9.9, 15))
	assert.False(t, g.Occupied(10, 15))
	assert.False(t, g.Occupied(29.9, 19.9))
	assert.True(t, g.Occupied(30, 15))
	assert.Equal(t, 40*30-20*10, g.WallCount())

	assert.True(t, m.BlocksSight(-1, 0))
	assert.False(t, m.BlocksSight(1, 1))
}

func TestValidateMapData(t *testing.T) {
	tests := []struct {
		name string
		doc  string
	}{
		{"dimensions", `{"width": 0, "height": 1, "cell_size": 1, "rows": []}`},
		{"cell size", `{"width": 1, "height": 1, "cell_size": 0, "rows": ["#"]}`},
		{"row count", `{"width": 1, "height": 2, "cell_size": 1, "rows": ["#"]}`},
		{"row width", `{"width": 2, "height": 1, "cell_size": 1, "rows": ["#"]}`},
		{"unknown cell", `{"width": 2, "height": 1, "cell_size": 1, "rows": ["#x"]}`},
		{"spawn", `{"width": 1, "height": 1, "cell_size": 5, "spawn": {"x": 5, "y": 0}, "rows": ["."]}`},
		{"syntax", `{"width": `},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			_, err := ParseMap([]byte(tt.doc))
			assert.Error(t, err)
		})
	}
}

func TestLoadMap(t *testing.T) {
	path := filepath.Join(t.TempDir(), "square.json")
	require.NoError(t, os.WriteFile(path, []byte(squareMap), 0o644))

	m, err := LoadMap(path)
	require.NoError(t, err)
	assert.Equal(t, 4, m.Data.Width)

	_, err = LoadMap(filepath.Join(t.TempDir(), "nope.json"))
	assert.Error(t, err)
}

func TestMapWithoutSpawn(t *testing.T) {
	m, err := ParseMap([]byte(`{"width": 1, "height": 1, "cell_size": 3, "rows": ["."]}`))
	require.NoError(t, err)

	_, ok := m.SpawnPoint()
	assert.False(t, ok)
	assert.Equal(t, 0, m.Grid().WallCount())
}
