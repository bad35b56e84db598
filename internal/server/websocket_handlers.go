package server

import (
	"penloft/internal/middleware"

	"github.com/gofiber/fiber/v2"
	"github.com/gofiber/websocket/v2"
)

// FeedWebsocket handles GET /api/ws/feed. Readers need not be signed in;
// the stream carries post_created events only.
// @Summary Live feed
// @Description WebSocket stream of post_created events
// @Tags feed
// @Success 101
// @Failure 426 {object} models.ErrorResponse
// @Router /ws/feed [get]
func (s *Server) FeedWebsocket() fiber.Handler {
	upgrade := websocket.New(func(conn *websocket.Conn) {
		viewerID, _ := conn.Locals(localUserID).(uint)

		client, err := s.hub.Register(viewerID, conn)
		if err != nil {
			middleware.Logger.Warn("feed subscription refused", "viewer_id", viewerID, "error", err)
			_ = conn.WriteMessage(websocket.TextMessage, []byte(`{"type":"error","payload":{"reason":"`+err.Error()+`"}}`))
			_ = conn.Close()
			return
		}

		go client.WritePump()
		client.ReadPump()
	})

	return func(c *fiber.Ctx) error {
		if !websocket.IsWebSocketUpgrade(c) {
			return fiber.ErrUpgradeRequired
		}
		return upgrade(c)
	}
}
