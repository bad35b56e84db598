package notifications

import (
	"context"
	"errors"
	"sync"

	"penloft/internal/middleware"
	"penloft/internal/observability"

	"github.com/gofiber/websocket/v2"
)

const (
	maxConnsPerViewer = 8
	maxTotalConns     = 5000
)

var (
	ErrHubClosed       = errors.New("feed hub is shut down")
	ErrServerConnLimit = errors.New("server connection limit reached")
	ErrViewerConnLimit = errors.New("viewer connection limit reached")
)

// Hub tracks live feed subscribers and fans events out to them.
type Hub struct {
	mu       sync.RWMutex
	clients  map[*Client]struct{}
	byViewer map[uint]int
	closed   bool
	once     sync.Once
}

// NewHub creates an empty hub.
func NewHub() *Hub {
	return &Hub{
		clients:  make(map[*Client]struct{}),
		byViewer: make(map[uint]int),
	}
}

// Register adds a subscriber. Anonymous viewers (id 0) share the global
// limit only.
func (h *Hub) Register(viewerID uint, conn *websocket.Conn) (*Client, error) {
	h.mu.Lock()
	defer h.mu.Unlock()

	if h.closed {
		return nil, ErrHubClosed
	}
	if len(h.clients) >= maxTotalConns {
		return nil, ErrServerConnLimit
	}
	if viewerID != 0 && h.byViewer[viewerID] >= maxConnsPerViewer {
		return nil, ErrViewerConnLimit
	}

	c := newClient(h, conn, viewerID)
	h.clients[c] = struct{}{}
	if viewerID != 0 {
		h.byViewer[viewerID]++
	}
	observability.FeedSubscribers.Inc()
	return c, nil
}

// Unregister removes a subscriber and closes its send queue. Safe to call
// more than once.
func (h *Hub) Unregister(c *Client) {
	h.mu.Lock()
	defer h.mu.Unlock()
	h.removeLocked(c)
}

func (h *Hub) removeLocked(c *Client) {
	if _, ok := h.clients[c]; !ok {
		return
	}
	delete(h.clients, c)
	if c.ViewerID != 0 {
		h.byViewer[c.ViewerID]--
		if h.byViewer[c.ViewerID] <= 0 {
			delete(h.byViewer, c.ViewerID)
		}
	}
	close(c.Send)
	observability.FeedSubscribers.Dec()
}

// Len reports the number of connected subscribers.
func (h *Hub) Len() int {
	h.mu.RLock()
	defer h.mu.RUnlock()
	return len(h.clients)
}

// BroadcastAll queues message for every subscriber.
func (h *Hub) BroadcastAll(message string) {
	data := []byte(message)
	h.mu.RLock()
	defer h.mu.RUnlock()
	for c := range h.clients {
		c.TrySend(data)
	}
}

// StartWiring forwards every event on the Redis feed channel to local
// subscribers.
func (h *Hub) StartWiring(ctx context.Context, n *Notifier) error {
	return n.StartFeedSubscriber(ctx, h.BroadcastAll)
}

// Shutdown drops every subscriber and refuses new ones. Closing a client's
// send queue makes its WritePump emit the close frame.
func (h *Hub) Shutdown(_ context.Context) error {
	h.once.Do(func() {
		h.mu.Lock()
		defer h.mu.Unlock()
		h.closed = true
		n := len(h.clients)
		for c := range h.clients {
			h.removeLocked(c)
		}
		if n > 0 {
			middleware.Logger.Info("feed hub shut down", "subscribers", n)
		}
	})
	return nil
}
