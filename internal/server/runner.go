package server

import (
	"log"
	"sync"
	"time"

	"chosenoffset.com/wallfollower/internal/simulation"
)

// Runner drives a simulation on a ticker and fans every snapshot out to
// its listeners. All access to the simulation goes through the runner.
type Runner struct {
	sim      *simulation.Simulation
	interval time.Duration

	mu        sync.RWMutex
	listeners []func(simulation.Snapshot)
	running   bool
	stopChan  chan struct{}
	done      chan struct{}
}

// NewRunner creates a runner ticking ticksPerSecond times per second
func NewRunner(sim *simulation.Simulation, ticksPerSecond int) *Runner {
	if ticksPerSecond <= 0 {
		ticksPerSecond = 1
	}
	return &Runner{
		sim:      sim,
		interval: time.Second / time.Duration(ticksPerSecond),
	}
}

// OnSnapshot registers fn to receive every snapshot produced by Step
func (r *Runner) OnSnapshot(fn func(simulation.Snapshot)) {
	r.mu.Lock()
	defer r.mu.Unlock()
	r.listeners = append(r.listeners, fn)
}

// Start begins ticking in the background
func (r *Runner) Start() {
	r.mu.Lock()
	if r.running {
		r.mu.Unlock()
		return
	}
	r.running = true
	r.stopChan = make(chan struct{})
	r.done = make(chan struct{})
	r.mu.Unlock()

	log.Printf("Simulation runner started (%v per tick)", r.interval)
	go r.run()
}

// Stop halts the ticker and waits for the loop to exit
func (r *Runner) Stop() {
	r.mu.Lock()
	if !r.running {
		r.mu.Unlock()
		return
	}
	r.running = false
	close(r.stopChan)
	done := r.done
	r.mu.Unlock()

	<-done
	log.Println("Simulation runner stopped")
}

// Running reports whether the ticker is active
func (r *Runner) Running() bool {
	r.mu.RLock()
	defer r.mu.RUnlock()
	return r.running
}

func (r *Runner) run() {
	defer close(r.done)

	ticker := time.NewTicker(r.interval)
	defer ticker.Stop()

	for {
		select {
		case <-r.stopChan:
			return
		case <-ticker.C:
			r.Step()
		}
	}
}

// Step advances the simulation by one tick and notifies listeners
func (r *Runner) Step() simulation.Snapshot {
	r.mu.Lock()
	snap := r.sim.Tick()
	listeners := append([]func(simulation.Snapshot){}, r.listeners...)
	r.mu.Unlock()

	for _, fn := range listeners {
		fn(snap)
	}
	return snap
}

// Reset restarts the simulation from its initial pose
func (r *Runner) Reset() simulation.Snapshot {
	r.mu.Lock()
	defer r.mu.Unlock()
	r.sim.Reset()
	return r.sim.Snapshot()
}

// Snapshot returns the latest snapshot
func (r *Runner) Snapshot() simulation.Snapshot {
	r.mu.RLock()
	defer r.mu.RUnlock()
	return r.sim.Snapshot()
}
