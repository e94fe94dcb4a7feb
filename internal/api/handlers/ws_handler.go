package handlers

import (
	"log/slog"

	gorillaws "github.com/gorilla/websocket"
	"github.com/labstack/echo/v4"
	"github.com/replyhq/reply-backend/internal/api/middleware"
	"github.com/replyhq/reply-backend/internal/api/response"
	"github.com/replyhq/reply-backend/internal/websocket"
)

// WSHandler upgrades connections for new-message notifications
type WSHandler struct {
	hub      *websocket.Hub
	upgrader gorillaws.Upgrader
	logger   *slog.Logger
}

// NewWSHandler creates a new WSHandler
func NewWSHandler(hub *websocket.Hub, allowedOrigins []string, logger *slog.Logger) *WSHandler {
	return &WSHandler{
		hub:      hub,
		upgrader: websocket.NewSecureUpgrader(allowedOrigins, logger),
		logger:   logger,
	}
}

// Connect handles GET /api/ws. The connection is bound to the
// authenticated user; it receives that user's notifications only.
func (h *WSHandler) Connect(c echo.Context) error {
	user := middleware.CurrentUser(c)

	conn, err := h.upgrader.Upgrade(c.Response(), c.Request(), nil)
	if err != nil {
		return response.BadRequest(c, "websocket upgrade failed")
	}

	client := websocket.NewClient(h.hub, conn, user.ID, h.logger)
	h.hub.Register(client)

	go client.WritePump()
	go client.ReadPump()

	return nil
}
