// Package websocket pushes new-message notifications to connected
// clients. Delivery is best-effort: a send never blocks or fails the
// mailbox transition that triggered it.
package websocket

import (
	"encoding/json"
	"log/slog"
	"sync"
	"time"
)

// EventType represents the type of WebSocket event
type EventType string

const (
	EventTypeNewMessage EventType = "new_message"
	EventTypeError      EventType = "error"
)

// Event represents a WebSocket event sent to clients
type Event struct {
	Type    EventType   `json:"type"`
	Payload interface{} `json:"payload,omitempty"`
	Error   string      `json:"error,omitempty"`
}

// NewMessagePayload is the payload for new message notifications
type NewMessagePayload struct {
	ID             uint      `json:"id"`
	SenderUsername string    `json:"sender_username"`
	Subject        string    `json:"subject"`
	CreatedAt      time.Time `json:"created_at"`
}

// Hub maintains the set of active clients, grouped by the user they
// authenticated as, and routes notifications to that user's connections.
type Hub struct {
	// userID -> set of clients
	clients map[uint]map[*Client]bool

	register   chan *Client
	unregister chan *Client
	notify     chan *userEvent

	mu     sync.RWMutex
	logger *slog.Logger
}

type userEvent struct {
	userID  uint
	message []byte
}

// NewHub creates a new Hub instance
func NewHub(logger *slog.Logger) *Hub {
	return &Hub{
		clients:    make(map[uint]map[*Client]bool),
		register:   make(chan *Client),
		unregister: make(chan *Client),
		notify:     make(chan *userEvent, 256),
		logger:     logger,
	}
}

// Run starts the hub's main loop
func (h *Hub) Run() {
	for {
		select {
		case client := <-h.register:
			h.mu.Lock()
			if h.clients[client.userID] == nil {
				h.clients[client.userID] = make(map[*Client]bool)
			}
			h.clients[client.userID][client] = true
			h.mu.Unlock()
			if h.logger != nil {
				h.logger.Debug("client registered", slog.Uint64("user_id", uint64(client.userID)))
			}

		case client := <-h.unregister:
			h.mu.Lock()
			if conns, ok := h.clients[client.userID]; ok {
				if _, ok := conns[client]; ok {
					delete(conns, client)
					close(client.send)
					if len(conns) == 0 {
						delete(h.clients, client.userID)
					}
				}
			}
			h.mu.Unlock()
			if h.logger != nil {
				h.logger.Debug("client unregistered", slog.Uint64("user_id", uint64(client.userID)))
			}

		case evt := <-h.notify:
			h.mu.RLock()
			for client := range h.clients[evt.userID] {
				select {
				case client.send <- evt.message:
				default:
					// Client buffer full, skip
				}
			}
			h.mu.RUnlock()
		}
	}
}

// Register adds a client to the hub
func (h *Hub) Register(client *Client) {
	h.register <- client
}

// Unregister removes a client from the hub
func (h *Hub) Unregister(client *Client) {
	h.unregister <- client
}

// NotifyNewMessage pushes a new-message notification to every
// connection the receiving user currently has open.
func (h *Hub) NotifyNewMessage(userID uint, payload *NewMessagePayload) {
	evt := Event{
		Type:    EventTypeNewMessage,
		Payload: payload,
	}

	data, err := json.Marshal(evt)
	if err != nil {
		if h.logger != nil {
			h.logger.Error("failed to marshal notification", slog.Any("error", err))
		}
		return
	}

	select {
	case h.notify <- &userEvent{userID: userID, message: data}:
	default:
		// Hub queue full; notifications are best-effort.
		if h.logger != nil {
			h.logger.Warn("notification dropped, hub queue full", slog.Uint64("user_id", uint64(userID)))
		}
	}
}

// ConnectionCount reports the number of open connections for a user.
func (h *Hub) ConnectionCount(userID uint) int {
	h.mu.RLock()
	defer h.mu.RUnlock()
	return len(h.clients[userID])
}
