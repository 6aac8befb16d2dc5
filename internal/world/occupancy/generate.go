package occupancy

import (
	"math/rand"

	"chosenoffset.com/wallfollower/internal/core/geom"
)

// GenerateOptions controls procedural environments
type GenerateOptions struct {
	Border          int        `json:"border"`           // Thickness of the enclosing walls
	Segments        int        `json:"segments"`         // Number of interior wall pieces
	MinLength       int        `json:"min_length"`       // Shortest interior piece
	MaxLength       int        `json:"max_length"`       // Longest interior piece
	Thickness       int        `json:"thickness"`        // Half-width of interior pieces
	Spawn           geom.Point `json:"spawn"`            // Kept free of walls
	ExclusionRadius float64    `json:"exclusion_radius"` // Free radius around Spawn
}

// DefaultGenerateOptions returns options sized for a world of the given
// dimensions
func DefaultGenerateOptions(width, height int) GenerateOptions {
	span := min(width, height)
	return GenerateOptions{
		Border:          10,
		Segments:        12,
		MinLength:       span / 10,
		MaxLength:       span / 3,
		Thickness:       3,
		Spawn:           geom.Point{X: float64(width) / 2, Y: float64(height) / 2},
		ExclusionRadius: 60,
	}
}

// Generate creates a bordered room with random straight wall pieces. The
// same rng seed always yields the same grid.
func Generate(width, height int, opts GenerateOptions, rng *rand.Rand) *Grid {
	g := Room(width, height, opts.Border)
	if width <= 4 || height <= 4 {
		return g
	}

	exclusionSq := opts.ExclusionRadius * opts.ExclusionRadius
	trySet := func(x, y int) {
		dx := float64(x) - opts.Spawn.X
		dy := float64(y) - opts.Spawn.Y
		if dx*dx+dy*dy < exclusionSq {
			return
		}
		g.Set(x, y, true)
	}

	for s := 0; s < opts.Segments; s++ {
		lengthRange := opts.MaxLength - opts.MinLength + 1
		if lengthRange <= 0 {
			lengthRange = 1
		}
		length := opts.MinLength + rng.Intn(lengthRange)

		horizontal := rng.Intn(2) == 0
		x := rng.Intn(width-4) + 2
		y := rng.Intn(height-4) + 2
		dx, dy := 0, 1
		if horizontal {
			dx, dy = 1, 0
		}
		perpX, perpY := dy, dx

		cx, cy := x, y
		for l := 0; l < length; l++ {
			if cx <= 0 || cx >= width-1 || cy <= 0 || cy >= height-1 {
				break
			}
			for t := -opts.Thickness; t <= opts.Thickness; t++ {
				trySet(cx+perpX*t, cy+perpY*t)
			}
			cx += dx
			cy += dy
		}
	}
	return g
}
