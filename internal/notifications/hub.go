package notifications

import (
	"context"
	"errors"
	"log/slog"
	"sync"

	"agora/internal/middleware"
	"agora/internal/observability"

	"github.com/gofiber/websocket/v2"
)

const (
	maxConnsPerUser = 12
	maxTotalConns   = 10000
)

var (
	ErrServerFull = errors.New("server connection limit reached")
	ErrUserFull   = errors.New("user connection limit reached")
	ErrHubClosed  = errors.New("notification hub is shut down")
)

// Hub maps user IDs to their open websocket clients.
type Hub struct {
	mu     sync.RWMutex
	conns  map[uint]map[*Client]struct{}
	total  int
	closed bool
}

func NewHub() *Hub {
	return &Hub{conns: make(map[uint]map[*Client]struct{})}
}

// Register adds a connection for userID.
func (h *Hub) Register(userID uint, conn *websocket.Conn) (*Client, error) {
	h.mu.Lock()
	defer h.mu.Unlock()

	if h.closed {
		return nil, ErrHubClosed
	}
	if h.total >= maxTotalConns {
		return nil, ErrServerFull
	}
	m, ok := h.conns[userID]
	if !ok {
		m = make(map[*Client]struct{})
		h.conns[userID] = m
	}
	if len(m) >= maxConnsPerUser {
		return nil, ErrUserFull
	}

	client := newClient(h, conn, userID)
	m[client] = struct{}{}
	h.total++
	observability.WebSocketConnectionsTotal.Inc()
	return client, nil
}

// Unregister removes client and closes its send queue. It is safe to call
// more than once.
func (h *Hub) Unregister(client *Client) {
	h.mu.Lock()
	defer h.mu.Unlock()

	m, ok := h.conns[client.UserID]
	if !ok {
		return
	}
	if _, exists := m[client]; !exists {
		return
	}
	delete(m, client)
	if len(m) == 0 {
		delete(h.conns, client.UserID)
	}
	h.total--
	observability.WebSocketConnectionsTotal.Dec()
	close(client.Send)
}

// Deliver queues message for every connection of userID and reports how
// many accepted it.
func (h *Hub) Deliver(userID uint, message []byte) int {
	h.mu.RLock()
	defer h.mu.RUnlock()

	delivered := 0
	for c := range h.conns[userID] {
		if c.trySend(message) {
			delivered++
		}
	}
	return delivered
}

// Connections returns the number of open connections for userID.
func (h *Hub) Connections(userID uint) int {
	h.mu.RLock()
	defer h.mu.RUnlock()
	return len(h.conns[userID])
}

// StartWiring forwards messages from the notifier's user channels to the
// matching connections.
func (h *Hub) StartWiring(ctx context.Context, n *Notifier) error {
	return n.StartPatternSubscriber(ctx, func(channel, payload string) {
		userID, ok := ParseUserChannel(channel)
		if !ok {
			middleware.Logger.Warn("ignoring message on unexpected channel", slog.String("channel", channel))
			return
		}
		h.Deliver(userID, []byte(payload))
	})
}

// Shutdown closes every send queue, which makes each WritePump send a close
// frame and exit. New registrations are refused afterwards.
func (h *Hub) Shutdown(_ context.Context) error {
	h.mu.Lock()
	defer h.mu.Unlock()

	h.closed = true
	for _, m := range h.conns {
		for c := range m {
			close(c.Send)
			observability.WebSocketConnectionsTotal.Dec()
		}
	}
	h.conns = make(map[uint]map[*Client]struct{})
	h.total = 0
	return nil
}
