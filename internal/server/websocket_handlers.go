package server

import (
	"context"
	"log/slog"

	"agora/internal/middleware"

	"github.com/gofiber/fiber/v2"
	"github.com/gofiber/websocket/v2"
)

// WebSocketUpgrade authenticates the caller (header or ?token=) and rejects
// non-upgrade requests.
func (s *Server) WebSocketUpgrade() fiber.Handler {
	auth := s.AuthRequired()
	return func(c *fiber.Ctx) error {
		if !websocket.IsWebSocketUpgrade(c) {
			return fiber.ErrUpgradeRequired
		}
		return auth(c)
	}
}

// NotificationsWebSocket streams notification events to the authenticated
// user until the connection closes.
func (s *Server) NotificationsWebSocket() fiber.Handler {
	return websocket.New(func(conn *websocket.Conn) {
		userID, ok := conn.Locals(middleware.LocalUserID).(uint)
		if !ok || userID == 0 {
			_ = conn.WriteMessage(websocket.TextMessage, []byte(`{"error":"unauthorized"}`))
			_ = conn.Close()
			return
		}
		ctx := middleware.WithUserID(context.Background(), userID)

		client, err := s.hub.Register(userID, conn)
		if err != nil {
			middleware.Logger.WarnContext(ctx, "websocket registration refused", slog.String("error", err.Error()))
			_ = conn.WriteMessage(websocket.TextMessage, []byte(`{"error":"`+err.Error()+`"}`))
			_ = conn.Close()
			return
		}
		middleware.Logger.DebugContext(ctx, "websocket connected")

		go client.WritePump()
		client.ReadPump()
	})
}
