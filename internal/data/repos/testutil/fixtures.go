package testutil

import (
	"context"
	"encoding/json"
	"testing"
	"time"

	"github.com/google/uuid"
	"gorm.io/datatypes"
	"gorm.io/gorm"

	types "github.com/yungbote/skillforge-backend/internal/domain"
)

func SeedUser(tb testing.TB, ctx context.Context, tx *gorm.DB, email string) *types.User {
	tb.Helper()
	u := &types.User{
		ID:       uuid.New(),
		Email:    email,
		Username: email,
		Password: "pw",
		Role:     "user",
	}
	if err := tx.WithContext(ctx).Create(u).Error; err != nil {
		tb.Fatalf("seed user: %v", err)
	}
	return u
}

func SeedSkill(tb testing.TB, ctx context.Context, tx *gorm.DB, name, category string) *types.Skill {
	tb.Helper()
	s := &types.Skill{
		ID:               uuid.New(),
		Name:             name,
		Category:         category,
		Description:      name + " fundamentals",
		DifficultyLevels: 5,
	}
	if err := tx.WithContext(ctx).Create(s).Error; err != nil {
		tb.Fatalf("seed skill: %v", err)
	}
	return s
}

func SeedAssessment(tb testing.TB, ctx context.Context, tx *gorm.DB, userID, skillID uuid.UUID, questions []types.Question, timeLimit int, createdAt time.Time) *types.Assessment {
	tb.Helper()
	raw, err := json.Marshal(questions)
	if err != nil {
		tb.Fatalf("marshal questions: %v", err)
	}
	a := &types.Assessment{
		ID:        uuid.New(),
		UserID:    userID,
		SkillID:   skillID,
		Level:     1,
		Questions: datatypes.JSON(raw),
		TimeLimit: timeLimit,
		CreatedAt: createdAt,
	}
	if err := tx.WithContext(ctx).Create(a).Error; err != nil {
		tb.Fatalf("seed assessment: %v", err)
	}
	return a
}

// SeedResult appends a ledger row for an existing assessment.
func SeedResult(tb testing.TB, ctx context.Context, tx *gorm.DB, a *types.Assessment, score float64, timeSpent int, completedAt time.Time) *types.AssessmentResult {
	tb.Helper()
	r := &types.AssessmentResult{
		ID:             uuid.New(),
		AssessmentID:   a.ID,
		UserID:         a.UserID,
		SkillID:        a.SkillID,
		Answers:        datatypes.JSON([]byte("[]")),
		Score:          score,
		PointsEarned:   int(score * 10),
		PointsPossible: 10,
		TimeSpent:      timeSpent,
		CompletedAt:    completedAt,
	}
	if err := tx.WithContext(ctx).Create(r).Error; err != nil {
		tb.Fatalf("seed result: %v", err)
	}
	return r
}

func PtrTime(v time.Time) *time.Time { return &v }
