package uistream

import (
	"encoding/json"
	"log/slog"
	"sync"

	"github.com/huynhthanhnam-354/HouseHelp-sub000/internal/model"
)

// Message is a state-change push to the local presentational layer. Kind
// selects which payload field is set.
type Message struct {
	Kind        string                    `json:"kind"`
	Path        string                    `json:"path,omitempty"`
	Booking     *model.Booking            `json:"booking,omitempty"`
	Events      []model.NotificationEvent `json:"events,omitempty"`
	UnreadCount int                       `json:"unread_count,omitempty"`
}

const (
	KindNavigate      = "navigate"
	KindBooking       = "booking"
	KindNotifications = "notifications"
)

// Hub maintains the set of connected UI clients and broadcasts sync
// messages to them. The UI is a dumb renderer: it never mutates state over
// this connection, it only follows it.
type Hub struct {
	mu      sync.RWMutex
	clients map[*Client]struct{}
	logger  *slog.Logger
}

// NewHub creates a new Hub.
func NewHub(logger *slog.Logger) *Hub {
	return &Hub{
		clients: make(map[*Client]struct{}),
		logger:  logger,
	}
}

// Register adds a client to the hub.
func (h *Hub) Register(c *Client) {
	h.mu.Lock()
	h.clients[c] = struct{}{}
	h.mu.Unlock()
}

// Unregister removes a client from the hub and closes its send channel.
func (h *Hub) Unregister(c *Client) {
	h.mu.Lock()
	if _, ok := h.clients[c]; ok {
		delete(h.clients, c)
		close(c.send)
	}
	h.mu.Unlock()
}

// Broadcast sends a message to all connected UI clients.
func (h *Hub) Broadcast(msg Message) {
	data, err := json.Marshal(msg)
	if err != nil {
		h.logger.Error("marshal broadcast", "error", err)
		return
	}

	h.mu.RLock()
	defer h.mu.RUnlock()

	for c := range h.clients {
		select {
		case c.send <- data:
		default:
			// Client buffer full — drop message to avoid blocking
		}
	}
}

// Navigate broadcasts a navigation instruction; the UI router follows it.
// This makes the Hub the reconciliation engine's Navigator.
func (h *Hub) Navigate(path string) {
	h.Broadcast(Message{Kind: KindNavigate, Path: path})
}

// BookingChanged broadcasts the current booking projection. A nil booking
// means the in-flight booking was cleared.
func (h *Hub) BookingChanged(b *model.Booking) {
	h.Broadcast(Message{Kind: KindBooking, Booking: b})
}

// NotificationsChanged broadcasts the notification log snapshot.
func (h *Hub) NotificationsChanged(events []model.NotificationEvent, unread int) {
	h.Broadcast(Message{Kind: KindNotifications, Events: events, UnreadCount: unread})
}

// ClientCount returns the number of connected clients.
func (h *Hub) ClientCount() int {
	h.mu.RLock()
	defer h.mu.RUnlock()
	return len(h.clients)
}
