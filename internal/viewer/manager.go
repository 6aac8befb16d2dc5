package viewer

import (
	"errors"
	"log"

	"chosenoffset.com/wallfollower/internal/render"
)

// State is the screen the manager is showing
type State int

const (
	StateMenu State = iota
	StateRunning
)

// Loader builds a viewer for the chosen environment
type Loader func(Choice) (*Game, error)

// Manager switches between the environment menu and a running viewer.
// Escape in a running viewer returns to the menu; Escape in the menu quits.
type Manager struct {
	State State
	Menu  *Menu
	Game  *Game
	Input render.InputManager
	Load  Loader

	width, height int
}

// NewManager creates a manager showing menu in a width x height screen
func NewManager(menu *Menu, input render.InputManager, load Loader, width, height int) *Manager {
	return &Manager{
		State:  StateMenu,
		Menu:   menu,
		Input:  input,
		Load:   load,
		width:  width,
		height: height,
	}
}

// Update forwards to the active screen
func (m *Manager) Update() error {
	switch m.State {
	case StateMenu:
		if m.Input.IsKeyJustPressed(render.KeyEscape) {
			return ErrQuit
		}
		selected, choice := m.Menu.Update()
		if !selected {
			return nil
		}
		game, err := m.Load(choice)
		if err != nil {
			log.Printf("Failed to load environment: %v", err)
			return nil
		}
		m.Game = game
		m.State = StateRunning

	case StateRunning:
		err := m.Game.Update()
		if errors.Is(err, ErrQuit) {
			m.Game.Close()
			m.Game = nil
			m.State = StateMenu
			return nil
		}
		return err
	}
	return nil
}

// Draw draws the active screen
func (m *Manager) Draw(screen render.Image) {
	if m.State == StateRunning {
		m.Game.Draw(screen)
		return
	}
	m.Menu.Draw(screen)
}

// Layout uses the environment size while running
func (m *Manager) Layout(outsideWidth, outsideHeight int) (int, int) {
	if m.State == StateRunning {
		return m.Game.Layout(outsideWidth, outsideHeight)
	}
	return m.width, m.height
}
