package server

import (
	"encoding/json"
	"log"
	"sync"

	"chosenoffset.com/wallfollower/internal/simulation"
)

// textMessage is the websocket text frame type
const textMessage = 1

// Conn is the part of a websocket connection the hub writes to
type Conn interface {
	WriteMessage(messageType int, data []byte) error
	Close() error
}

// Message is the envelope sent to stream clients
type Message struct {
	Type string              `json:"type"`
	Data simulation.Snapshot `json:"data"`
}

// Hub keeps the connected stream clients and broadcasts snapshots to them
type Hub struct {
	clients    map[Conn]bool
	register   chan Conn
	unregister chan Conn
	broadcast  chan []byte
	stopChan   chan struct{}
	mutex      sync.RWMutex
}

// NewHub creates a hub; call Run to start serving it
func NewHub() *Hub {
	return &Hub{
		clients:    make(map[Conn]bool),
		register:   make(chan Conn),
		unregister: make(chan Conn),
		broadcast:  make(chan []byte, 64),
		stopChan:   make(chan struct{}),
	}
}

// Run processes registrations and broadcasts until Stop is called
func (h *Hub) Run() {
	for {
		select {
		case conn := <-h.register:
			h.mutex.Lock()
			h.clients[conn] = true
			h.mutex.Unlock()

		case conn := <-h.unregister:
			h.remove(conn)

		case msg := <-h.broadcast:
			h.send(msg)

		case <-h.stopChan:
			h.mutex.Lock()
			for conn := range h.clients {
				_ = conn.Close()
				delete(h.clients, conn)
			}
			h.mutex.Unlock()
			return
		}
	}
}

// Stop closes every client and ends Run
func (h *Hub) Stop() {
	close(h.stopChan)
}

func (h *Hub) remove(conn Conn) {
	h.mutex.Lock()
	defer h.mutex.Unlock()
	if _, ok := h.clients[conn]; ok {
		delete(h.clients, conn)
		_ = conn.Close()
	}
}

func (h *Hub) send(msg []byte) {
	h.mutex.RLock()
	var failed []Conn
	for conn := range h.clients {
		if err := conn.WriteMessage(textMessage, msg); err != nil {
			log.Printf("Dropping stream client: %v", err)
			failed = append(failed, conn)
		}
	}
	h.mutex.RUnlock()

	for _, conn := range failed {
		h.remove(conn)
	}
}

// Register adds a client. After Stop the client is closed instead.
func (h *Hub) Register(conn Conn) {
	select {
	case h.register <- conn:
	case <-h.stopChan:
		_ = conn.Close()
	}
}

// Unregister removes and closes a client
func (h *Hub) Unregister(conn Conn) {
	select {
	case h.unregister <- conn:
	case <-h.stopChan:
	}
}

// BroadcastSnapshot queues a snapshot for every client. Snapshots are
// dropped when the queue is full; the next tick supersedes them anyway.
func (h *Hub) BroadcastSnapshot(snap simulation.Snapshot) {
	data, err := encodeSnapshot(snap)
	if err != nil {
		log.Printf("Failed to encode snapshot: %v", err)
		return
	}

	select {
	case h.broadcast <- data:
	default:
		log.Println("Snapshot broadcast queue full, dropping tick", snap.Tick)
	}
}

// ClientCount returns the number of connected clients
func (h *Hub) ClientCount() int {
	h.mutex.RLock()
	defer h.mutex.RUnlock()
	return len(h.clients)
}

func encodeSnapshot(snap simulation.Snapshot) ([]byte, error) {
	return json.Marshal(Message{Type: "snapshot", Data: snap})
}
