package handlers

import (
	"context"
	"encoding/json"
	"net/http"

	"mechongo/internal/middleware"
	"mechongo/internal/models"
	"mechongo/internal/services"
	"mechongo/internal/utils"
	"mechongo/pkg/logger"
	"mechongo/pkg/websocket"

	"github.com/gin-gonic/gin"
	"go.mongodb.org/mongo-driver/bson/primitive"
)

type errorFrame struct {
	Error string `json:"error"`
}

// LocationHandler serves the mechanic location WebSocket.
type LocationHandler struct {
	locationService services.LocationService
	sockets         *websocket.Handler
	logger          *logger.Logger
}

func NewLocationHandler(locationService services.LocationService, sockets *websocket.Handler, log *logger.Logger) *LocationHandler {
	return &LocationHandler{
		locationService: locationService,
		sockets:         sockets,
		logger:          log,
	}
}

// Subscribe joins the caller to a mechanic's topic. Frames sent on the
// connection are treated as location samples.
func (h *LocationHandler) Subscribe(c *gin.Context) {
	mechanicID, err := primitive.ObjectIDFromHex(c.Param("mechanic_id"))
	if err != nil {
		utils.ErrorResponse(c, http.StatusNotFound, utils.CodeNotFound, "Mechanic not found")
		return
	}

	exists, err := h.locationService.MechanicExists(c.Request.Context(), mechanicID)
	if err != nil {
		RespondWithError(c, h.logger, err)
		return
	}
	if !exists {
		utils.ErrorResponse(c, http.StatusNotFound, utils.CodeNotFound, "Mechanic not found")
		return
	}

	callerID, _ := middleware.GetUserID(c)
	onMessage := func(ctx context.Context, client *websocket.Client, message []byte) {
		h.handleFrame(ctx, client, mechanicID, message)
	}

	topic := services.TopicForMechanic(mechanicID)
	if err := h.sockets.Serve(c, topic, callerID, onMessage); err != nil {
		return
	}
	h.logger.WithContext(c.Request.Context()).LogLocationEvent(mechanicID, primitive.NilObjectID, "subscribed", h.sockets.Hub().Subscribers(topic))
}

func (h *LocationHandler) handleFrame(ctx context.Context, client *websocket.Client, mechanicID primitive.ObjectID, message []byte) {
	var update models.LocationUpdate
	if err := json.Unmarshal(message, &update); err != nil {
		client.Reply(errorFrame{Error: "Invalid message format"})
		return
	}

	_, err := h.locationService.Publish(ctx, client.CallerID, mechanicID, &update)
	if err == nil {
		jobID, _ := primitive.ObjectIDFromHex(*update.JobID)
		h.logger.WithContext(ctx).LogLocationEvent(mechanicID, jobID, "published", h.sockets.Hub().Subscribers(client.Topic()))
		return
	}

	if se, ok := services.AsServiceError(err); ok {
		client.Reply(errorFrame{Error: se.Message})
		return
	}

	h.logger.WithContext(ctx).WithError(err).WithField("mechanic_id", mechanicID.Hex()).Error("Failed to publish location")
	client.Reply(errorFrame{Error: utils.ErrInternalServer})
}
