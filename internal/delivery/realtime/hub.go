// Package realtime implements the websocket fan-out gateway. Events published
// through the pub/sub layer arrive at the push endpoint and are delivered to
// every connected client the event targets.
package realtime

import (
	"encoding/json"
	"log/slog"
	"sync"

	"github.com/ahmedhassan-hash/go-starter-template/internal/domain/service"

	"github.com/google/uuid"
)

// sendBufferSize bounds the per-client outbound queue. A client that cannot
// drain this many messages is considered dead and dropped.
const sendBufferSize = 32

// wsMessage is the envelope written to websocket clients.
type wsMessage struct {
	Event     string          `json:"event"`
	Payload   json.RawMessage `json:"payload,omitempty"`
	RequestID string          `json:"request_id,omitempty"`
}

// Client is one connected websocket session. A user may hold several
// concurrent clients, one per tab or device.
type Client struct {
	id     string
	userID string
	send   chan []byte
}

// ID returns the socket identifier assigned at registration.
func (c *Client) ID() string {
	return c.id
}

// Hub tracks connected clients and routes broadcast events to them.
type Hub struct {
	mu      sync.RWMutex
	clients map[*Client]struct{}
	logger  *slog.Logger
}

// NewHub creates an empty hub.
func NewHub(logger *slog.Logger) *Hub {
	return &Hub{
		clients: make(map[*Client]struct{}),
		logger:  logger,
	}
}

// Register adds a client for the given user and returns it.
func (h *Hub) Register(userID string) *Client {
	client := &Client{
		id:     uuid.New().String(),
		userID: userID,
		send:   make(chan []byte, sendBufferSize),
	}

	h.mu.Lock()
	h.clients[client] = struct{}{}
	h.mu.Unlock()

	h.logger.Debug("realtime client registered", slog.String("userID", userID))

	return client
}

// Unregister removes a client and closes its outbound queue. Safe to call
// more than once for the same client.
func (h *Hub) Unregister(client *Client) {
	h.mu.Lock()
	defer h.mu.Unlock()

	if _, ok := h.clients[client]; !ok {
		return
	}

	delete(h.clients, client)
	close(client.send)

	h.logger.Debug("realtime client unregistered", slog.String("userID", client.userID))
}

// Broadcast routes an event to connected clients and returns how many
// received it. An empty Target means every client; otherwise only the
// targeted user's clients receive it. Clients whose queues are full are
// dropped rather than blocking delivery.
func (h *Hub) Broadcast(event *service.BroadcastEvent) int {
	payload := json.RawMessage(event.Payload)
	if len(payload) > 0 && !json.Valid(payload) {
		quoted, _ := json.Marshal(event.Payload)
		payload = quoted
	}

	message, err := json.Marshal(wsMessage{
		Event:     event.Event,
		Payload:   payload,
		RequestID: event.RequestID,
	})
	if err != nil {
		h.logger.Error("failed to encode broadcast", slog.Any("error", err))

		return 0
	}

	var stalled []*Client
	delivered := 0

	h.mu.RLock()
	for client := range h.clients {
		if event.Target != "" && client.userID != event.Target {
			continue
		}

		select {
		case client.send <- message:
			delivered++
		default:
			stalled = append(stalled, client)
		}
	}
	h.mu.RUnlock()

	for _, client := range stalled {
		h.logger.Warn("dropping stalled realtime client", slog.String("userID", client.userID))
		h.Unregister(client)
	}

	return delivered
}

// GetUserSocketID returns the socket identifier of one of the user's live
// connections, or false when the user has none.
func (h *Hub) GetUserSocketID(userID string) (string, bool) {
	h.mu.RLock()
	defer h.mu.RUnlock()

	for client := range h.clients {
		if client.userID == userID {
			return client.id, true
		}
	}

	return "", false
}

// ClientCount returns the number of connected clients.
func (h *Hub) ClientCount() int {
	h.mu.RLock()
	defer h.mu.RUnlock()

	return len(h.clients)
}
