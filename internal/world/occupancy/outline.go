package occupancy

import "chosenoffset.com/wallfollower/internal/core/geom"

// Side names the free cell edge a boundary segment lies on
type Side int

const (
	Top Side = iota
	Right
	Bottom
	Left
)

// Outline returns the true boundary between free and wall cells as axis
// aligned segments. Edges of neighboring free cells that face a wall on
// the same side are merged into one segment.
func (g *Grid) Outline() []geom.Segment {
	var segments []geom.Segment

	// Horizontal boundaries
	for y := 0; y < g.height; y++ {
		segments = append(segments, g.runs(Top, y, g.width)...)
		segments = append(segments, g.runs(Bottom, y, g.width)...)
	}
	// Vertical boundaries
	for x := 0; x < g.width; x++ {
		segments = append(segments, g.runs(Left, x, g.height)...)
		segments = append(segments, g.runs(Right, x, g.height)...)
	}
	return segments
}

// exposed reports whether free cell (x, y) borders a wall on side
func (g *Grid) exposed(x, y int, side Side) bool {
	if g.IsWall(x, y) {
		return false
	}
	switch side {
	case Top:
		return g.IsWall(x, y-1)
	case Bottom:
		return g.IsWall(x, y+1)
	case Left:
		return g.IsWall(x-1, y)
	default:
		return g.IsWall(x+1, y)
	}
}

// runs walks one row (Top, Bottom) or column (Left, Right) of cells and
// emits a segment for every stretch of exposed edges
func (g *Grid) runs(side Side, line, length int) []geom.Segment {
	var out []geom.Segment
	start := -1
	for i := 0; i <= length; i++ {
		open := false
		if i < length {
			if side == Top || side == Bottom {
				open = g.exposed(i, line, side)
			} else {
				open = g.exposed(line, i, side)
			}
		}

		switch {
		case open && start < 0:
			start = i
		case !open && start >= 0:
			out = append(out, edge(side, line, start, i))
			start = -1
		}
	}
	return out
}

// edge builds the segment covering cells [from, to) of a line
func edge(side Side, line, from, to int) geom.Segment {
	a, b, l := float64(from), float64(to), float64(line)
	switch side {
	case Top:
		return geom.NewSegment(geom.Point{X: a, Y: l}, geom.Point{X: b, Y: l})
	case Bottom:
		return geom.NewSegment(geom.Point{X: a, Y: l + 1}, geom.Point{X: b, Y: l + 1})
	case Left:
		return geom.NewSegment(geom.Point{X: l, Y: a}, geom.Point{X: l, Y: b})
	default:
		return geom.NewSegment(geom.Point{X: l + 1, Y: a}, geom.Point{X: l + 1, Y: b})
	}
}
