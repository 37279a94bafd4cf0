package realtime

import (
	"sync"

	"github.com/google/uuid"

	"github.com/yungbote/skillforge-backend/internal/platform/logger"
)

type SSEClient struct {
	ID       uuid.UUID
	UserID   uuid.UUID
	Outbound chan SSEMessage
	done     chan struct{}
	once     sync.Once
	Logger   *logger.Logger
}

// Done is closed once the client is unsubscribed.
func (c *SSEClient) Done() <-chan struct{} { return c.done }
