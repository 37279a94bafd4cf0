package handlers

import (
	"github.com/gin-gonic/gin"

	"github.com/yungbote/skillforge-backend/internal/observability"
	"github.com/yungbote/skillforge-backend/internal/platform/logger"
	"github.com/yungbote/skillforge-backend/internal/realtime"
)

type RealtimeHandler struct {
	log     *logger.Logger
	hub     *realtime.SSEHub
	metrics *observability.Metrics
}

func NewRealtimeHandler(log *logger.Logger, hub *realtime.SSEHub, metrics *observability.Metrics) *RealtimeHandler {
	return &RealtimeHandler{log: log.With("handler", "RealtimeHandler"), hub: hub, metrics: metrics}
}

// GET /api/events/stream
// Every connection of a user receives that user's events; the stream closes
// when the client disconnects.
func (h *RealtimeHandler) SSEStream(c *gin.Context) {
	userID, ok := callerID(c)
	if !ok {
		return
	}
	client := h.hub.Subscribe(userID)
	h.metrics.SetSSEConnections(h.hub.TotalConnections())
	defer func() {
		h.hub.Unsubscribe(client)
		h.metrics.SetSSEConnections(h.hub.TotalConnections())
	}()

	h.log.Debug("SSE stream open", "user_id", userID.String(), "clientID", client.ID.String())
	h.hub.ServeHTTP(c.Writer, c.Request, client)
	h.log.Debug("SSE stream closed", "user_id", userID.String(), "clientID", client.ID.String())
}
