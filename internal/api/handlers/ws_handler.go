package handlers

import (
	"log/slog"

	"github.com/labstack/echo/v4"
	gorillaws "github.com/gorilla/websocket"

	"github.com/mailgo/mailgo-backend/internal/api/middleware"
	"github.com/mailgo/mailgo-backend/internal/websocket"
)

// WSHandler upgrades authenticated connections and attaches them to the hub.
type WSHandler struct {
	hub      *websocket.Hub
	upgrader gorillaws.Upgrader
	logger   *slog.Logger
}

// NewWSHandler creates a new WSHandler
func NewWSHandler(hub *websocket.Hub, upgrader gorillaws.Upgrader, logger *slog.Logger) *WSHandler {
	return &WSHandler{hub: hub, upgrader: upgrader, logger: logger}
}

// Serve handles GET /ws. The connection is subscribed to the authenticated
// identity's events; clients may additionally send subscribe frames, which
// are restricted to their own identity.
func (h *WSHandler) Serve(c echo.Context) error {
	identity := middleware.UserEmail(c)

	conn, err := h.upgrader.Upgrade(c.Response(), c.Request(), nil)
	if err != nil {
		// Upgrade already wrote the error response
		return nil
	}

	client := websocket.NewClient(h.hub, conn, identity, h.logger)
	h.hub.Register(client)
	h.hub.Subscribe(client, identity)

	go client.WritePump()
	go client.ReadPump()

	return nil
}
