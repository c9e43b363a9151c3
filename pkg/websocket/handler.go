package websocket

import (
	"context"

	"mechongo/pkg/logger"

	"github.com/gin-gonic/gin"
	"github.com/gorilla/websocket"
	"go.mongodb.org/mongo-driver/bson/primitive"
)

// Handler upgrades gin requests into hub clients.
type Handler struct {
	hub      *Hub
	upgrader *websocket.Upgrader
	options  Options
	logger   *logger.Logger
}

func NewHandler(hub *Hub, upgrader *websocket.Upgrader, options Options, log *logger.Logger) *Handler {
	return &Handler{
		hub:      hub,
		upgrader: upgrader,
		options:  options,
		logger:   log,
	}
}

// Serve upgrades the connection and subscribes it to topic. On failure the
// upgrader has already written the HTTP error response.
func (h *Handler) Serve(c *gin.Context, topic string, callerID primitive.ObjectID, onMessage MessageFunc) error {
	conn, err := h.upgrader.Upgrade(c.Writer, c.Request, nil)
	if err != nil {
		h.logger.WithError(err).WithField("topic", topic).Warn("WebSocket upgrade failed")
		return err
	}

	ctx := context.WithoutCancel(c.Request.Context())
	client := NewClient(ctx, h.hub, conn, topic, callerID, h.options, onMessage, h.logger.WithContext(ctx))
	return client.Start()
}

func (h *Handler) Hub() *Hub {
	return h.hub
}
