package viewer

import (
	"errors"
	"image/color"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"chosenoffset.com/wallfollower/internal/render"
	"chosenoffset.com/wallfollower/internal/simulation"
	"chosenoffset.com/wallfollower/internal/world/catalog"
	"chosenoffset.com/wallfollower/internal/world/occupancy"
)

var testEntries = []catalog.Entry{
	{Name: "cave", Path: "data/cave.png", Kind: catalog.KindImage},
	{Name: "hall", Path: "data/hall.json", Kind: catalog.KindMap},
}

func TestMenuSelection(t *testing.T) {
	r := newFakeRenderer()
	in := &fakeInput{}
	m := NewMenu(testEntries, r, in)

	in.press(render.KeyUp)
	selected, _ := m.Update()
	assert.False(t, selected)
	assert.Equal(t, 2, m.Selected(), "up from the first item wraps to the generated entry")

	in.press(render.KeyEnter)
	selected, choice := m.Update()
	require.True(t, selected)
	assert.True(t, choice.Generate)

	in.press(render.KeyDown)
	m.Update()
	in.press(render.KeyDown, render.KeySpace)
	selected, choice = m.Update()
	require.True(t, selected)
	assert.Equal(t, testEntries[1], choice.Entry)

	m.Draw(&fakeImage{w: 400, h: 300})
	require.Len(t, r.text, 5)
	assert.Equal(t, "> hall (map)", r.text[3])
	assert.Equal(t, "Generate a random environment", r.text[4])
}

func TestManagerSwitchesScreens(t *testing.T) {
	r := newFakeRenderer()
	in := &fakeInput{}

	var loaded []Choice
	load := func(c Choice) (*Game, error) {
		loaded = append(loaded, c)
		if c.Entry.Name == "cave" {
			return nil, errors.New("broken image")
		}
		grid := occupancy.Room(200, 150, 10)
		sim, err := simulation.New(simulation.DefaultConfig(), grid)
		if err != nil {
			return nil, err
		}
		return New(sim, r, in, grid.Image(color.White, color.Black)), nil
	}
	m := NewManager(NewMenu(testEntries, r, in), in, load, 640, 480)

	w, h := m.Layout(1000, 1000)
	assert.Equal(t, 640, w)
	assert.Equal(t, 480, h)

	// a failed load stays in the menu
	in.press(render.KeyEnter)
	require.NoError(t, m.Update())
	assert.Equal(t, StateMenu, m.State)

	in.press(render.KeyDown, render.KeyEnter)
	require.NoError(t, m.Update())
	require.Equal(t, StateRunning, m.State)
	require.Len(t, loaded, 2)
	assert.Equal(t, "hall", loaded[1].Entry.Name)

	w, h = m.Layout(1000, 1000)
	assert.Equal(t, 200, w)
	assert.Equal(t, 150, h)

	in.press()
	require.NoError(t, m.Update())
	assert.Equal(t, 1, m.Game.Sim.Snapshot().Tick)
	m.Draw(&fakeImage{w: 200, h: 150})
	require.Len(t, r.images, 1)

	in.press(render.KeyEscape)
	require.NoError(t, m.Update(), "escape in the viewer returns to the menu")
	assert.Equal(t, StateMenu, m.State)
	assert.Nil(t, m.Game)
	assert.True(t, r.images[0].disposed, "leaving the viewer releases its background")

	assert.ErrorIs(t, m.Update(), ErrQuit, "escape in the menu quits")
}
