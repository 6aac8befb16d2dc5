package telemetry

import (
	"log"
	"sync"
	"time"

	"github.com/google/uuid"

	"chosenoffset.com/wallfollower/internal/simulation"
)

// Recorder buffers tick records and writes them in batches, either when
// the buffer reaches flushSize or every flushInterval once started.
type Recorder struct {
	store *Store
	runID uuid.UUID

	mu            sync.Mutex
	pending       []TickRecord
	flushSize     int
	flushInterval time.Duration

	stopChan chan struct{}
	done     chan struct{}
}

// NewRecorder creates a recorder for runID
func NewRecorder(store *Store, runID uuid.UUID, flushSize int, flushInterval time.Duration) *Recorder {
	if flushSize <= 0 {
		flushSize = 1
	}
	return &Recorder{
		store:         store,
		runID:         runID,
		pending:       make([]TickRecord, 0, flushSize),
		flushSize:     flushSize,
		flushInterval: flushInterval,
	}
}

// RunID returns the run the recorder writes to
func (r *Recorder) RunID() uuid.UUID {
	return r.runID
}

// Start begins periodic flushing
func (r *Recorder) Start() {
	if r.flushInterval <= 0 || r.stopChan != nil {
		return
	}
	r.stopChan = make(chan struct{})
	r.done = make(chan struct{})
	go r.autoFlush()
}

func (r *Recorder) autoFlush() {
	defer close(r.done)

	ticker := time.NewTicker(r.flushInterval)
	defer ticker.Stop()

	for {
		select {
		case <-ticker.C:
			r.Flush()
		case <-r.stopChan:
			return
		}
	}
}

// Record buffers a snapshot, flushing when the buffer is full
func (r *Recorder) Record(snap simulation.Snapshot) {
	r.mu.Lock()
	r.pending = append(r.pending, TickRecord{
		CreatedAt: time.Now(),
		RunID:     r.runID,
		Tick:      snap.Tick,
		X:         snap.Position.X,
		Y:         snap.Position.Y,
		Heading:   snap.Heading,
		Mode:      snap.Mode.String(),
		Moved:     snap.Moved,
		Collided:  snap.Collided,
		Visible:   snap.Visible,
		Points:    len(snap.Points),
		Segments:  len(snap.Segments),
		Walls:     len(snap.Walls),
	})
	full := len(r.pending) >= r.flushSize
	r.mu.Unlock()

	if full {
		r.Flush()
	}
}

// Flush writes every buffered record
func (r *Recorder) Flush() {
	r.mu.Lock()
	if len(r.pending) == 0 {
		r.mu.Unlock()
		return
	}
	batch := make([]TickRecord, len(r.pending))
	copy(batch, r.pending)
	r.pending = r.pending[:0]
	r.mu.Unlock()

	if err := r.store.SaveTicks(batch); err != nil {
		log.Printf("Failed to save %d tick records: %v", len(batch), err)
	}
}

// Stop ends periodic flushing and writes whatever is still buffered
func (r *Recorder) Stop() {
	if r.stopChan != nil {
		close(r.stopChan)
		<-r.done
		r.stopChan = nil
	}
	r.Flush()
}
