// Package occupancy provides the boolean grids the range sensor marches
// across. Grids come from simple builders, procedural generation, images or
// JSON maps and never change once the simulation is running.
package occupancy

import (
	"image"
	"image/color"
	"math"
)

// Grid is a row-major wall mask. Anything outside the grid is treated as
// wall.
type Grid struct {
	width, height int
	walls         []bool
}

// NewGrid creates an empty grid
func NewGrid(width, height int) *Grid {
	if width < 0 {
		width = 0
	}
	if height < 0 {
		height = 0
	}
	return &Grid{width: width, height: height, walls: make([]bool, width*height)}
}

// Size returns the grid dimensions
func (g *Grid) Size() (int, int) {
	return g.width, g.height
}

// Set marks or clears a single cell. Out of bounds writes are ignored.
func (g *Grid) Set(x, y int, wall bool) {
	if x < 0 || x >= g.width || y < 0 || y >= g.height {
		return
	}
	g.walls[y*g.width+x] = wall
}

// IsWall reports whether the cell at (x, y) is a wall
func (g *Grid) IsWall(x, y int) bool {
	if x < 0 || x >= g.width || y < 0 || y >= g.height {
		return true
	}
	return g.walls[y*g.width+x]
}

// Occupied reports whether the continuous location falls in a wall cell
func (g *Grid) Occupied(x, y float64) bool {
	return g.IsWall(int(math.Floor(x)), int(math.Floor(y)))
}

// FillRect marks the half-open rectangle [x0, x1) x [y0, y1), clipped to
// the grid
func (g *Grid) FillRect(x0, y0, x1, y1 int) {
	x0, x1 = max(x0, 0), min(x1, g.width)
	y0, y1 = max(y0, 0), min(y1, g.height)
	for y := y0; y < y1; y++ {
		row := g.walls[y*g.width : (y+1)*g.width]
		for x := x0; x < x1; x++ {
			row[x] = true
		}
	}
}

// WallCount returns the number of wall cells
func (g *Grid) WallCount() int {
	n := 0
	for _, wall := range g.walls {
		if wall {
			n++
		}
	}
	return n
}

// Image renders the grid with one pixel per cell
func (g *Grid) Image(wall, floor color.Color) *image.RGBA {
	img := image.NewRGBA(image.Rect(0, 0, g.width, g.height))
	wallRGBA := color.RGBAModel.Convert(wall).(color.RGBA)
	floorRGBA := color.RGBAModel.Convert(floor).(color.RGBA)

	for y := 0; y < g.height; y++ {
		for x := 0; x < g.width; x++ {
			c := floorRGBA
			if g.walls[y*g.width+x] {
				c = wallRGBA
			}
			img.SetRGBA(x, y, c)
		}
	}
	return img
}

// Room creates a closed rectangular room whose walls are thickness cells
// wide
func Room(width, height, thickness int) *Grid {
	g := NewGrid(width, height)
	g.FillRect(0, 0, width, thickness)
	g.FillRect(0, height-thickness, width, height)
	g.FillRect(0, 0, thickness, height)
	g.FillRect(width-thickness, 0, width, height)
	return g
}
