package notifications

import (
	"time"

	"penloft/internal/middleware"
	"penloft/internal/observability"

	"github.com/gofiber/websocket/v2"
)

const (
	writeWait      = 10 * time.Second
	pongWait       = 60 * time.Second
	pingPeriod     = (pongWait * 9) / 10
	maxMessageSize = 4096
	sendBuffer     = 64
)

var dropNotice = []byte(`{"type":"messages_dropped","payload":{"reason":"buffer_full"}}`)

// Client is one live feed subscriber.
type Client struct {
	hub *Hub

	// Conn is nil in tests that only exercise the hub bookkeeping.
	Conn *websocket.Conn

	Send chan []byte

	// ViewerID is 0 for anonymous readers.
	ViewerID uint
}

func newClient(hub *Hub, conn *websocket.Conn, viewerID uint) *Client {
	return &Client{
		hub:      hub,
		Conn:     conn,
		ViewerID: viewerID,
		Send:     make(chan []byte, sendBuffer),
	}
}

// ReadPump drains the socket so pongs and close frames are processed.
// The feed is one-way; inbound payloads are discarded.
func (c *Client) ReadPump() {
	defer func() {
		c.hub.Unregister(c)
		_ = c.Conn.Close()
	}()

	c.Conn.SetReadLimit(maxMessageSize)
	_ = c.Conn.SetReadDeadline(time.Now().Add(pongWait))
	c.Conn.SetPongHandler(func(string) error {
		return c.Conn.SetReadDeadline(time.Now().Add(pongWait))
	})

	for {
		if _, _, err := c.Conn.ReadMessage(); err != nil {
			if websocket.IsUnexpectedCloseError(err, websocket.CloseGoingAway, websocket.CloseAbnormalClosure) {
				middleware.Logger.Debug("feed socket closed", "viewer_id", c.ViewerID, "error", err)
			}
			return
		}
	}
}

// WritePump forwards queued events to the socket and keeps it alive with pings.
func (c *Client) WritePump() {
	ticker := time.NewTicker(pingPeriod)
	defer func() {
		ticker.Stop()
		_ = c.Conn.Close()
	}()

	for {
		select {
		case message, ok := <-c.Send:
			_ = c.Conn.SetWriteDeadline(time.Now().Add(writeWait))
			if !ok {
				_ = c.Conn.WriteMessage(websocket.CloseMessage, []byte{})
				return
			}
			if err := c.Conn.WriteMessage(websocket.TextMessage, message); err != nil {
				return
			}
		case <-ticker.C:
			_ = c.Conn.SetWriteDeadline(time.Now().Add(writeWait))
			if err := c.Conn.WriteMessage(websocket.PingMessage, nil); err != nil {
				return
			}
		}
	}
}

// TrySend queues a message without blocking. A full buffer drops the
// message and, if there is room, tells the client to re-fetch.
func (c *Client) TrySend(message []byte) bool {
	defer func() {
		// Send on a channel closed by Unregister.
		if r := recover(); r != nil {
			observability.FeedDrops.Inc()
		}
	}()

	select {
	case c.Send <- message:
		return true
	default:
		observability.FeedDrops.Inc()
		select {
		case c.Send <- dropNotice:
		default:
		}
		return false
	}
}
