// Package telemetry records simulation runs into a SQLite database so
// runs can be inspected after the fact or served over the API.
package telemetry

import (
	"time"

	"github.com/google/uuid"
)

// Run is one simulation session
type Run struct {
	ID          uuid.UUID `gorm:"type:text;primaryKey" json:"id"`
	CreatedAt   time.Time `json:"created_at"`
	Environment string    `json:"environment"`
	ConfigJSON  string    `json:"config_json"` // Simulation config at start
}

// TickRecord is the per-tick summary of a snapshot
type TickRecord struct {
	ID        uint      `gorm:"primaryKey" json:"id"`
	CreatedAt time.Time `json:"created_at"`
	RunID     uuid.UUID `gorm:"type:text;index" json:"run_id"`
	Tick      int       `gorm:"index" json:"tick"`

	// Agent
	X       float64 `json:"x"`
	Y       float64 `json:"y"`
	Heading float64 `json:"heading"`
	Mode    string  `json:"mode"`

	// Outcome
	Moved    bool `json:"moved"`
	Collided bool `json:"collided"`
	Visible  bool `json:"visible"`

	// Reconstruction size
	Points   int `json:"points"`
	Segments int `json:"segments"`
	Walls    int `json:"walls"`
}
