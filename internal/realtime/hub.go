package realtime

import (
	"sync"

	"go.uber.org/zap"

	"github.com/noah-isme/demand-desk-api/internal/service"
)

// Hub is the room registry: room key -> joined clients. Membership changes are
// idempotent; delivery never blocks on a slow client.
type Hub struct {
	mu      sync.RWMutex
	rooms   map[string]map[*Client]struct{}
	clients map[*Client]map[string]struct{}
	metrics *service.MetricsService
	logger  *zap.Logger
}

// NewHub constructs an empty registry.
func NewHub(metrics *service.MetricsService, logger *zap.Logger) *Hub {
	if logger == nil {
		logger = zap.NewNop()
	}
	return &Hub{
		rooms:   make(map[string]map[*Client]struct{}),
		clients: make(map[*Client]map[string]struct{}),
		metrics: metrics,
		logger:  logger,
	}
}

// Register tracks a freshly connected client that has joined no rooms yet.
func (h *Hub) Register(c *Client) {
	h.mu.Lock()
	defer h.mu.Unlock()
	if _, ok := h.clients[c]; ok {
		return
	}
	h.clients[c] = make(map[string]struct{})
	h.metrics.ConnectionOpened()
}

// Unregister drops a client from every room it joined.
func (h *Hub) Unregister(c *Client) {
	h.mu.Lock()
	defer h.mu.Unlock()
	joined, ok := h.clients[c]
	if !ok {
		return
	}
	for room := range joined {
		h.removeLocked(c, room)
	}
	delete(h.clients, c)
	h.metrics.ConnectionClosed()
}

// Join adds c to room. It reports false when c is not registered.
func (h *Hub) Join(c *Client, room string) bool {
	h.mu.Lock()
	defer h.mu.Unlock()
	joined, ok := h.clients[c]
	if !ok {
		return false
	}
	members, ok := h.rooms[room]
	if !ok {
		members = make(map[*Client]struct{})
		h.rooms[room] = members
	}
	members[c] = struct{}{}
	joined[room] = struct{}{}
	return true
}

// Leave removes c from room.
func (h *Hub) Leave(c *Client, room string) {
	h.mu.Lock()
	defer h.mu.Unlock()
	if joined, ok := h.clients[c]; ok {
		delete(joined, room)
	}
	h.removeLocked(c, room)
}

func (h *Hub) removeLocked(c *Client, room string) {
	members, ok := h.rooms[room]
	if !ok {
		return
	}
	delete(members, c)
	if len(members) == 0 {
		delete(h.rooms, room)
	}
}

// Deliver queues env for every member of its room and returns how many clients
// accepted it. Clients with a full send buffer miss the event.
func (h *Hub) Deliver(env Envelope) int {
	frame, err := env.Frame()
	if err != nil {
		h.logger.Warn("encode live frame failed", zap.String("event", env.Event), zap.Error(err))
		return 0
	}

	h.mu.RLock()
	defer h.mu.RUnlock()
	delivered := 0
	for c := range h.rooms[env.Room] {
		if c.trySend(frame) {
			delivered++
			continue
		}
		h.logger.Debug("live client buffer full", zap.String("client_id", c.ID()), zap.String("room", env.Room))
	}
	return delivered
}

// Members returns the number of clients joined to room.
func (h *Hub) Members(room string) int {
	h.mu.RLock()
	defer h.mu.RUnlock()
	return len(h.rooms[room])
}

// Connections returns the number of registered clients.
func (h *Hub) Connections() int {
	h.mu.RLock()
	defer h.mu.RUnlock()
	return len(h.clients)
}

// Close asks every connected client to disconnect.
func (h *Hub) Close() {
	h.mu.RLock()
	clients := make([]*Client, 0, len(h.clients))
	for c := range h.clients {
		clients = append(clients, c)
	}
	h.mu.RUnlock()
	for _, c := range clients {
		c.Close()
	}
}
