package achievement

import (
	"encoding/json"
	"time"

	"github.com/google/uuid"
	"gorm.io/datatypes"
)

// Condition kinds.
const (
	KindAssessmentCount = "assessment_count"
	KindHighScore       = "high_score"
	KindPerfectScore    = "perfect_score"
	KindAverageScore    = "average_score"
	KindSkillCategories = "skill_categories"
	KindUniqueSkills    = "unique_skills"
	KindSkillLevel      = "skill_level"
	KindStreak          = "streak"
	KindTotalXP         = "total_xp"
	KindFastCompletion  = "fast_completion"
	KindTimeBased       = "time_based"
	KindMasteryLevel    = "mastery_level"
)

const (
	WindowNight   = "night"
	WindowMorning = "morning"
)

type Condition struct {
	Type           string  `json:"type" yaml:"type"`
	Value          float64 `json:"value,omitempty" yaml:"value"`
	MinAssessments int     `json:"min_assessments,omitempty" yaml:"min_assessments"`
	Window         string  `json:"window,omitempty" yaml:"window"`
}

type Achievement struct {
	ID          string         `gorm:"type:varchar(64);primaryKey" json:"id"`
	Name        string         `gorm:"not null;column:name" json:"name"`
	Description string         `gorm:"column:description" json:"description"`
	Icon        string         `gorm:"column:icon" json:"icon"`
	Category    string         `gorm:"index;column:category" json:"category"`
	Points      int            `gorm:"not null;column:points" json:"points"`
	Condition   datatypes.JSON `gorm:"type:json;column:condition" json:"condition"`
	SortOrder   int            `gorm:"not null;default:0;column:sort_order" json:"-"`
}

func (Achievement) TableName() string { return "achievement" }

func (a *Achievement) DecodeCondition() (Condition, error) {
	var c Condition
	if a == nil || len(a.Condition) == 0 {
		return c, nil
	}
	err := json.Unmarshal(a.Condition, &c)
	return c, err
}

type UserAchievement struct {
	UserID        uuid.UUID    `gorm:"type:varchar(36);primaryKey;column:user_id" json:"user_id"`
	AchievementID string       `gorm:"type:varchar(64);primaryKey;column:achievement_id" json:"achievement_id"`
	Achievement   *Achievement `gorm:"foreignKey:AchievementID;references:ID" json:"-"`
	EarnedAt      time.Time    `gorm:"not null;column:earned_at" json:"earned_at"`
}

func (UserAchievement) TableName() string { return "user_achievement" }
