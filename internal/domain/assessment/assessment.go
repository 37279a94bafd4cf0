package assessment

import (
	"encoding/json"
	"time"

	"github.com/google/uuid"
	"gorm.io/datatypes"

	"github.com/yungbote/skillforge-backend/internal/domain/skill"
)

const (
	QuestionMultipleChoice = "multiple_choice"
	QuestionTrueFalse      = "true_false"
	QuestionShortAnswer    = "short_answer"
)

// Question is stored with its answer key; PublicQuestion is what clients see.
type Question struct {
	ID            string   `json:"id"`
	Type          string   `json:"type"`
	Text          string   `json:"text"`
	Options       []string `json:"options,omitempty"`
	CorrectAnswer string   `json:"correct_answer"`
	Explanation   string   `json:"explanation,omitempty"`
	Difficulty    int      `json:"difficulty"`
	Points        int      `json:"points"`
}

type PublicQuestion struct {
	ID         string   `json:"id"`
	Type       string   `json:"type"`
	Text       string   `json:"text"`
	Options    []string `json:"options,omitempty"`
	Difficulty int      `json:"difficulty"`
	Points     int      `json:"points"`
}

func (q Question) Public() PublicQuestion {
	return PublicQuestion{
		ID:         q.ID,
		Type:       q.Type,
		Text:       q.Text,
		Options:    append([]string(nil), q.Options...),
		Difficulty: q.Difficulty,
		Points:     q.Points,
	}
}

type Answer struct {
	QuestionID string `json:"question_id"`
	Answer     string `json:"answer"`
}

type Assessment struct {
	ID        uuid.UUID      `gorm:"type:varchar(36);primaryKey" json:"id"`
	UserID    uuid.UUID      `gorm:"type:varchar(36);index;not null;column:user_id" json:"user_id"`
	SkillID   uuid.UUID      `gorm:"type:varchar(36);index;not null;column:skill_id" json:"skill_id"`
	Skill     *skill.Skill   `gorm:"foreignKey:SkillID;references:ID;constraint:OnDelete:RESTRICT" json:"-"`
	Level     int            `gorm:"not null;column:level" json:"level"`
	Questions datatypes.JSON `gorm:"type:json;not null;column:questions" json:"-"`
	// TimeLimit is in seconds.
	TimeLimit int       `gorm:"not null;column:time_limit" json:"time_limit"`
	CreatedAt time.Time `gorm:"not null;column:created_at" json:"created_at"`
}

func (Assessment) TableName() string { return "assessment" }

func (a *Assessment) DecodeQuestions() ([]Question, error) {
	if a == nil || len(a.Questions) == 0 {
		return nil, nil
	}
	var out []Question
	if err := json.Unmarshal(a.Questions, &out); err != nil {
		return nil, err
	}
	return out, nil
}

// ExpiresAt is the last instant a submission is accepted.
func (a *Assessment) ExpiresAt() time.Time {
	return a.CreatedAt.Add(2 * time.Duration(a.TimeLimit) * time.Second)
}

// Expired reports whether now is strictly past the 2 x time_limit window.
func (a *Assessment) Expired(now time.Time) bool {
	return now.Sub(a.CreatedAt) > 2*time.Duration(a.TimeLimit)*time.Second
}

type AssessmentResult struct {
	ID             uuid.UUID      `gorm:"type:varchar(36);primaryKey" json:"id"`
	AssessmentID   uuid.UUID      `gorm:"type:varchar(36);uniqueIndex;not null;column:assessment_id" json:"assessment_id"`
	Assessment     *Assessment    `gorm:"foreignKey:AssessmentID;references:ID;constraint:OnDelete:RESTRICT" json:"-"`
	UserID         uuid.UUID      `gorm:"type:varchar(36);index;not null;column:user_id" json:"user_id"`
	SkillID        uuid.UUID      `gorm:"type:varchar(36);index;not null;column:skill_id" json:"skill_id"`
	Answers        datatypes.JSON `gorm:"type:json;column:answers" json:"answers"`
	Score          float64        `gorm:"not null;column:score" json:"score"`
	PointsEarned   int            `gorm:"not null;column:points_earned" json:"points_earned"`
	PointsPossible int            `gorm:"not null;column:points_possible" json:"points_possible"`
	// TimeSpent is in seconds.
	TimeSpent   int       `gorm:"not null;column:time_spent" json:"time_spent"`
	XPEarned    int       `gorm:"not null;column:xp_earned" json:"xp_earned"`
	CompletedAt time.Time `gorm:"index;not null;column:completed_at" json:"completed_at"`
}

func (AssessmentResult) TableName() string { return "assessment_result" }
