package realtime

import (
	"time"

	"github.com/google/uuid"
)

type SSEEvent string

const (
	SSEEventAchievementUnlocked SSEEvent = "achievement_unlocked"
	SSEEventLevelUp             SSEEvent = "level_up"
	SSEEventProgressUpdate      SSEEvent = "progress_update"
	SSEEventAssessmentCompleted SSEEvent = "assessment_completed"
	SSEEventStreakMilestone     SSEEvent = "streak_milestone"

	SSEEventConnected SSEEvent = "connected"
	SSEEventHeartbeat SSEEvent = "heartbeat"
)

// SSEMessage is routed by Channel, which is the recipient user id.
type SSEMessage struct {
	Channel   string    `json:"channel"`
	Event     SSEEvent  `json:"event"`
	Data      any       `json:"data,omitempty"`
	Timestamp time.Time `json:"timestamp"`
}

func UserChannel(userID uuid.UUID) string { return userID.String() }

// NewUserMessage stamps a typed event for one user.
func NewUserMessage(userID uuid.UUID, event SSEEvent, data any) SSEMessage {
	return SSEMessage{
		Channel:   UserChannel(userID),
		Event:     event,
		Data:      data,
		Timestamp: time.Now().UTC(),
	}
}

// wirePayload is the JSON written after "data: ".
type wirePayload struct {
	Type      SSEEvent  `json:"type"`
	Data      any       `json:"data,omitempty"`
	Timestamp time.Time `json:"timestamp"`
}
