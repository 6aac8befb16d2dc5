package viewer

import (
	"fmt"
	"image/color"

	"chosenoffset.com/wallfollower/internal/render"
	"chosenoffset.com/wallfollower/internal/world/catalog"
)

// Choice is an environment picked from the menu. Generate is set for the
// procedural entry, in which case Entry is empty.
type Choice struct {
	Entry    catalog.Entry
	Generate bool
}

// Menu lists the environments of the data directory plus a generated one
type Menu struct {
	entries  []catalog.Entry
	selected int
	renderer render.Renderer
	input    render.InputManager
}

// NewMenu creates a menu over entries
func NewMenu(entries []catalog.Entry, r render.Renderer, input render.InputManager) *Menu {
	return &Menu{entries: entries, renderer: r, input: input}
}

// Selected returns the index of the highlighted item. The last item is the
// generated environment.
func (m *Menu) Selected() int {
	return m.selected
}

// Update moves the selection and reports a choice once Enter or Space is
// pressed
func (m *Menu) Update() (bool, Choice) {
	items := len(m.entries) + 1

	if m.input.IsKeyJustPressed(render.KeyUp) {
		m.selected = (m.selected + items - 1) % items
	}
	if m.input.IsKeyJustPressed(render.KeyDown) {
		m.selected = (m.selected + 1) % items
	}

	if m.input.IsKeyJustPressed(render.KeyEnter) || m.input.IsKeyJustPressed(render.KeySpace) {
		if m.selected == len(m.entries) {
			return true, Choice{Generate: true}
		}
		return true, Choice{Entry: m.entries[m.selected]}
	}
	return false, Choice{}
}

// Draw renders the menu
func (m *Menu) Draw(screen render.Image) {
	screen.Fill(color.RGBA{20, 20, 30, 255})

	titleColor := color.RGBA{255, 255, 255, 255}
	m.renderer.DrawText(screen, "WALL FOLLOWER", 50, 30, titleColor, 3.0)
	m.renderer.DrawText(screen, "Select an environment (arrows, Enter)", 50, 70, titleColor, 1.5)

	y := 110
	for i := 0; i <= len(m.entries); i++ {
		label := "Generate a random environment"
		if i < len(m.entries) {
			label = fmt.Sprintf("%s (%s)", m.entries[i].Name, m.entries[i].Kind)
		}

		clr := color.Color(color.RGBA{200, 200, 255, 255})
		if i == m.selected {
			clr = color.RGBA{100, 255, 100, 255}
			label = "> " + label
		}
		m.renderer.DrawText(screen, label, 50, y, clr, 1.5)
		y += 30
	}
}
