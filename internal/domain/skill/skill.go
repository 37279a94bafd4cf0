package skill

import (
	"time"

	"github.com/google/uuid"
)

const (
	MinDifficultyLevels = 1
	MaxDifficultyLevels = 10
)

type Skill struct {
	ID               uuid.UUID `gorm:"type:varchar(36);primaryKey" json:"id"`
	Name             string    `gorm:"uniqueIndex;not null;column:name" json:"name"`
	Category         string    `gorm:"index;not null;column:category" json:"category"`
	Description      string    `gorm:"column:description" json:"description"`
	DifficultyLevels int       `gorm:"not null;default:5;column:difficulty_levels" json:"difficulty_levels"`

	CreatedAt time.Time `gorm:"autoCreateTime" json:"created_at"`
	UpdatedAt time.Time `gorm:"autoUpdateTime" json:"updated_at"`
}

func (Skill) TableName() string { return "skill" }
