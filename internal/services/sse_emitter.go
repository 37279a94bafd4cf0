package services

import (
	"context"

	"github.com/yungbote/skillforge-backend/internal/platform/logger"
	"github.com/yungbote/skillforge-backend/internal/realtime"
	"github.com/yungbote/skillforge-backend/internal/realtime/bus"
)

type SSEEmitter interface {
	Emit(ctx context.Context, msg realtime.SSEMessage)
}

type HubEmitter struct{ Hub *realtime.SSEHub }

func (e *HubEmitter) Emit(ctx context.Context, msg realtime.SSEMessage) {
	e.Hub.Broadcast(msg)
}

// RedisEmitter publishes through the bus; the forwarder on every instance
// delivers to its local hub. Publish failures fall back to the local hub.
type RedisEmitter struct {
	Bus bus.Bus
	Hub *realtime.SSEHub
	Log *logger.Logger
}

func (e *RedisEmitter) Emit(ctx context.Context, msg realtime.SSEMessage) {
	if err := e.Bus.Publish(ctx, msg); err != nil {
		if e.Log != nil {
			e.Log.Warn("SSE bus publish failed; delivering locally", "error", err, "event", string(msg.Event))
		}
		if e.Hub != nil {
			e.Hub.Broadcast(msg)
		}
	}
}
