package ws

import (
	"log/slog"
	"sync"

	"github.com/tobyv/guesswho/internal/model"
)

// Hub fans messages out to every connection subscribed to one room code.
// Subscription is transport-level only; game membership lives in the room
// itself, which is what lets a connection drop without the player losing
// their seat.
type Hub struct {
	code    model.RoomCode
	clients map[*Client]bool
	mu      sync.RWMutex
	logger  *slog.Logger

	register   chan *Client
	unregister chan *Client
	broadcast  chan []byte
	done       chan struct{}
}

// NewHub creates a new Hub for a room
func NewHub(code model.RoomCode, logger *slog.Logger) *Hub {
	return &Hub{
		code:       code,
		clients:    make(map[*Client]bool),
		logger:     logger.With(slog.String("room", string(code))),
		register:   make(chan *Client),
		unregister: make(chan *Client),
		broadcast:  make(chan []byte, 256),
		done:       make(chan struct{}),
	}
}

// Run starts the hub's event loop
func (h *Hub) Run() {
	for {
		select {
		case client := <-h.register:
			h.mu.Lock()
			h.clients[client] = true
			count := len(h.clients)
			h.mu.Unlock()
			h.logger.Info("subscriber registered",
				slog.String("conn_id", string(client.connID)),
				slog.Int("total_subscribers", count))

		case client := <-h.unregister:
			h.mu.Lock()
			if _, ok := h.clients[client]; ok {
				delete(h.clients, client)
			}
			count := len(h.clients)
			h.mu.Unlock()
			h.logger.Info("subscriber unregistered",
				slog.String("conn_id", string(client.connID)),
				slog.Int("total_subscribers", count))

		case message := <-h.broadcast:
			h.mu.RLock()
			dropped := 0
			for client := range h.clients {
				select {
				case client.send <- message:
				default:
					dropped++
					h.logger.Warn("message dropped - client buffer full",
						slog.String("conn_id", string(client.connID)))
				}
			}
			h.mu.RUnlock()
			if dropped > 0 {
				h.logger.Warn("broadcast partial failure", slog.Int("dropped", dropped))
			}

		case <-h.done:
			// Drop all subscribers. Their connections stay open; the
			// client owns its own send channel and teardown.
			h.mu.Lock()
			count := len(h.clients)
			for client := range h.clients {
				delete(h.clients, client)
			}
			h.mu.Unlock()
			h.logger.Info("hub stopped", slog.Int("dropped_subscribers", count))
			return
		}
	}
}

// Register adds a client to the hub. A no-op once the hub is closed; the
// event loop is gone, so blocking on the channel would wedge the caller's
// read goroutine.
func (h *Hub) Register(client *Client) {
	select {
	case h.register <- client:
	case <-h.done:
	}
}

// Unregister removes a client from the hub, or returns immediately if the
// hub is already closed
func (h *Hub) Unregister(client *Client) {
	select {
	case h.unregister <- client:
	case <-h.done:
	}
}

// Broadcast sends a pre-marshaled message to all subscribers
func (h *Hub) Broadcast(message []byte) {
	select {
	case <-h.done:
	case h.broadcast <- message:
	default:
		h.logger.Warn("broadcast dropped - hub buffer full")
	}
}

// Close shuts down the hub
func (h *Hub) Close() {
	close(h.done)
}

// ClientCount returns the number of subscribed connections
func (h *Hub) ClientCount() int {
	h.mu.RLock()
	defer h.mu.RUnlock()
	return len(h.clients)
}

// HubManager manages hubs for all rooms
type HubManager struct {
	hubs   map[model.RoomCode]*Hub
	mu     sync.RWMutex
	logger *slog.Logger
}

// NewHubManager creates a new HubManager
func NewHubManager(logger *slog.Logger) *HubManager {
	return &HubManager{
		hubs:   make(map[model.RoomCode]*Hub),
		logger: logger.With(slog.String("component", "ws")),
	}
}

// GetOrCreateHub returns the hub for a room, creating one if it doesn't exist
func (m *HubManager) GetOrCreateHub(code model.RoomCode) *Hub {
	m.mu.Lock()
	defer m.mu.Unlock()

	if hub, ok := m.hubs[code]; ok {
		return hub
	}

	hub := NewHub(code, m.logger)
	m.hubs[code] = hub
	go hub.Run()
	return hub
}

// GetHub returns the hub for a room, or nil if it doesn't exist
func (m *HubManager) GetHub(code model.RoomCode) *Hub {
	m.mu.RLock()
	defer m.mu.RUnlock()
	return m.hubs[code]
}

// RemoveHub removes and closes a hub
func (m *HubManager) RemoveHub(code model.RoomCode) {
	m.mu.Lock()
	defer m.mu.Unlock()

	if hub, ok := m.hubs[code]; ok {
		hub.Close()
		delete(m.hubs, code)
		m.logger.Info("hub removed", slog.String("room", string(code)))
	}
}

// CleanupEmptyHubs removes hubs with no subscribers
func (m *HubManager) CleanupEmptyHubs() {
	m.mu.Lock()
	defer m.mu.Unlock()

	removed := 0
	for code, hub := range m.hubs {
		if hub.ClientCount() == 0 {
			hub.Close()
			delete(m.hubs, code)
			removed++
		}
	}
	if removed > 0 {
		m.logger.Info("empty hubs cleaned up", slog.Int("removed", removed))
	}
}
