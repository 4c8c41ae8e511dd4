package ws

import (
	"encoding/json"
	"log"
	"sync"
)

// Row-change actions pushed to subscribers, mirroring the mutation
// that produced them.
const (
	ActionInsert = "INSERT"
	ActionUpdate = "UPDATE"
	ActionDelete = "DELETE"
)

// Event is a row-level change notification for one table.
type Event struct {
	Table   string          `json:"table"`
	Action  string          `json:"action"`
	Payload json.RawMessage `json:"payload"`
}

// Hub maintains the set of active clients and fans row-change events
// out to those subscribed to the affected table.
type Hub struct {
	// Registered clients with their table filters
	clients map[*Client]bool

	// Inbound messages from clients (register/unregister)
	register   chan *Client
	unregister chan *Client

	// Outbound events to broadcast
	broadcast chan *Event

	// Called for every broadcast event; hook for unread counters
	onEvent func(table string)

	// Mutex for thread-safe client access
	mu sync.RWMutex
}

// NewHub creates a new Hub instance
func NewHub() *Hub {
	return &Hub{
		clients:    make(map[*Client]bool),
		register:   make(chan *Client),
		unregister: make(chan *Client),
		broadcast:  make(chan *Event, 256),
	}
}

// OnEvent registers a callback invoked once per broadcast event.
// Must be set before Run starts.
func (h *Hub) OnEvent(fn func(table string)) {
	h.onEvent = fn
}

// Run starts the hub's main loop
// This should be called as a goroutine: go hub.Run()
func (h *Hub) Run() {
	for {
		select {
		case client := <-h.register:
			h.mu.Lock()
			h.clients[client] = true
			h.mu.Unlock()

		case client := <-h.unregister:
			h.mu.Lock()
			if _, exists := h.clients[client]; exists {
				delete(h.clients, client)
				close(client.send)
			}
			h.mu.Unlock()

		case event := <-h.broadcast:
			if h.onEvent != nil {
				h.onEvent(event.Table)
			}

			message, err := json.Marshal(event)
			if err != nil {
				continue
			}

			h.mu.Lock()
			for client := range h.clients {
				if !client.wants(event.Table) {
					continue
				}
				select {
				case client.send <- message:
				default:
					// Client's send buffer is full, close and unregister
					close(client.send)
					delete(h.clients, client)
				}
			}
			h.mu.Unlock()
		}
	}
}

// Broadcast queues a row-change event for all clients subscribed to
// the table. This is the public API for handlers to publish changes.
func (h *Hub) Broadcast(table, action string, payload interface{}) {
	raw, err := json.Marshal(payload)
	if err != nil {
		log.Printf("ERROR: marshal ws payload for %s: %v", table, err)
		return
	}
	h.broadcast <- &Event{
		Table:   table,
		Action:  action,
		Payload: raw,
	}
}
