package progress

import (
	"time"

	"github.com/google/uuid"
)

// UserProgress is keyed by (user, skill). Level is derived from XP on every write.
type UserProgress struct {
	UserID  uuid.UUID `gorm:"type:varchar(36);primaryKey;column:user_id" json:"user_id"`
	SkillID uuid.UUID `gorm:"type:varchar(36);primaryKey;column:skill_id" json:"skill_id"`

	Level                int       `gorm:"not null;default:1;column:level" json:"level"`
	XP                   int       `gorm:"not null;default:0;column:xp" json:"xp"`
	Streak               int       `gorm:"not null;default:0;column:streak" json:"streak"`
	AssessmentsCompleted int       `gorm:"not null;default:0;column:assessments_completed" json:"assessments_completed"`
	TotalScore           float64   `gorm:"not null;default:0;column:total_score" json:"total_score"`
	MasteryLevel         int       `gorm:"not null;default:0;column:mastery_level" json:"mastery_level"`
	LastActivity         time.Time `gorm:"column:last_activity" json:"last_activity"`

	CreatedAt time.Time `gorm:"autoCreateTime" json:"created_at"`
	UpdatedAt time.Time `gorm:"autoUpdateTime" json:"updated_at"`
}

func (UserProgress) TableName() string { return "user_progress" }
