package progress

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/google/uuid"

	types "github.com/yungbote/skillforge-backend/internal/domain"
	"github.com/yungbote/skillforge-backend/internal/platform/apierr"
	"github.com/yungbote/skillforge-backend/internal/platform/logger"
)

var (
	ErrNegativeXP = errors.New("xp gained must be non-negative")
	ErrMissingIDs = errors.New("user id and skill id are required")
)

// Store is the slice of the persistence gateway the engine needs.
type Store interface {
	InTx(ctx context.Context, fn func(ctx context.Context) error) error
	GetProgress(ctx context.Context, userID, skillID uuid.UUID) (*types.UserProgress, error)
	UpsertProgress(ctx context.Context, row *types.UserProgress) error
	ListProgress(ctx context.Context, userID uuid.UUID) ([]*types.UserProgress, error)
}

type UpdateInput struct {
	UserID           uuid.UUID
	SkillID          uuid.UUID
	XPGained         int
	StreakMaintained bool
	// Score, when set, counts one completed assessment into the running average.
	Score *float64
	// Prepare, when set, runs under the user lock inside the update transaction
	// before the row is written. It sees the stored streak and returns the XP
	// to grant, replacing XPGained. An error rolls back everything fn wrote.
	Prepare func(ctx context.Context, streak int) (int, error)
}

// UpdateResult is the trigger payload for achievements and notifications.
type UpdateResult struct {
	UserID          uuid.UUID `json:"user_id"`
	SkillID         uuid.UUID `json:"skill_id"`
	XPGained        int       `json:"xp_gained"`
	TotalXP         int       `json:"total_xp"`
	OldLevel        int       `json:"old_level"`
	NewLevel        int       `json:"new_level"`
	LeveledUp       bool      `json:"leveled_up"`
	OldStreak       int       `json:"old_streak"`
	NewStreak       int       `json:"new_streak"`
	StreakMilestone bool      `json:"streak_milestone"`
	MasteryLevel    int       `json:"mastery_level"`
	XPToNextLevel   int       `json:"xp_to_next_level"`
	Created         bool      `json:"created"`

	Progress *types.UserProgress `json:"progress"`
}

type Engine struct {
	store Store
	log   *logger.Logger
	locks *keyedMutex
	now   func() time.Time
}

func NewEngine(store Store, log *logger.Logger) *Engine {
	return &Engine{
		store: store,
		log:   log.With("service", "ProgressEngine"),
		locks: newKeyedMutex(),
		now:   func() time.Time { return time.Now().UTC() },
	}
}

// WithClock replaces the engine clock; used by tests.
func (e *Engine) WithClock(now func() time.Time) *Engine {
	e.now = now
	return e
}

// UpdateProgress is the single mutating path for a (user, skill) row. Writes for
// the same user are serialized and each runs in one transaction.
func (e *Engine) UpdateProgress(ctx context.Context, in UpdateInput) (*UpdateResult, error) {
	if in.UserID == uuid.Nil || in.SkillID == uuid.Nil {
		return nil, apierr.BadRequest("invalid_progress_target", ErrMissingIDs)
	}
	if in.XPGained < 0 {
		return nil, apierr.BadRequest("invalid_xp", ErrNegativeXP)
	}

	unlock := e.locks.Lock(in.UserID)
	defer unlock()

	var out *UpdateResult
	err := e.store.InTx(ctx, func(ctx context.Context) error {
		row, err := e.store.GetProgress(ctx, in.UserID, in.SkillID)
		if err != nil {
			return fmt.Errorf("load progress: %w", err)
		}
		if in.Prepare != nil {
			streak := 0
			if row != nil {
				streak = row.Streak
			}
			xp, err := in.Prepare(ctx, streak)
			if err != nil {
				return err
			}
			if xp < 0 {
				return apierr.BadRequest("invalid_xp", ErrNegativeXP)
			}
			in.XPGained = xp
		}
		res, next := e.apply(row, in)
		if err := e.store.UpsertProgress(ctx, next); err != nil {
			return fmt.Errorf("save progress: %w", err)
		}
		out = res
		return nil
	})
	if _, ok := apierr.As(err); ok {
		return nil, err
	}
	if err != nil {
		e.log.Error("Failed to update progress", "error", err, "skill_id", in.SkillID.String())
		return nil, apierr.Internal("progress_update_failed", fmt.Errorf("failed to update progress: %w", err))
	}
	return out, nil
}

// apply computes the next row without touching storage.
func (e *Engine) apply(row *types.UserProgress, in UpdateInput) (*UpdateResult, *types.UserProgress) {
	now := e.now()
	created := row == nil
	if created {
		row = &types.UserProgress{
			UserID:  in.UserID,
			SkillID: in.SkillID,
			Level:   1,
		}
	}
	next := *row

	oldLevel := CalculateLevel(row.XP)
	oldStreak := row.Streak

	next.Streak = CalculateStreak(row.Streak, row.LastActivity, now, in.StreakMaintained)
	next.XP = row.XP + in.XPGained
	next.Level = CalculateLevel(next.XP)
	next.MasteryLevel = MasteryLevel(next.Level, next.Streak)
	next.LastActivity = now

	if in.Score != nil {
		n := float64(row.AssessmentsCompleted)
		next.TotalScore = (row.TotalScore*n + clamp01(*in.Score)) / (n + 1)
		next.AssessmentsCompleted = row.AssessmentsCompleted + 1
	}

	return &UpdateResult{
		UserID:          in.UserID,
		SkillID:         in.SkillID,
		XPGained:        in.XPGained,
		TotalXP:         next.XP,
		OldLevel:        oldLevel,
		NewLevel:        next.Level,
		LeveledUp:       next.Level > oldLevel,
		OldStreak:       oldStreak,
		NewStreak:       next.Streak,
		StreakMilestone: next.Streak != oldStreak && IsStreakMilestone(next.Streak),
		MasteryLevel:    next.MasteryLevel,
		XPToNextLevel:   XPToNextLevel(next.XP),
		Created:         created,
		Progress:        &next,
	}, &next
}

// SkillSummary is a progress row decorated with derived level data.
type SkillSummary struct {
	*types.UserProgress
	XPForCurrentLevel int `json:"xp_for_current_level"`
	XPForNextLevel    int `json:"xp_for_next_level"`
	XPToNextLevel     int `json:"xp_to_next_level"`
	LevelProgress     int `json:"level_progress"`
}

func Summarize(row *types.UserProgress) SkillSummary {
	if row == nil {
		row = &types.UserProgress{Level: 1}
	}
	level := CalculateLevel(row.XP)
	return SkillSummary{
		UserProgress:      row,
		XPForCurrentLevel: XPForLevel(level),
		XPForNextLevel:    XPForNextLevel(level),
		XPToNextLevel:     XPToNextLevel(row.XP),
		LevelProgress:     LevelProgress(row.XP),
	}
}

func (e *Engine) Get(ctx context.Context, userID, skillID uuid.UUID) (SkillSummary, error) {
	row, err := e.store.GetProgress(ctx, userID, skillID)
	if err != nil {
		return SkillSummary{}, apierr.Internal("load_progress_failed", err)
	}
	if row == nil {
		row = &types.UserProgress{UserID: userID, SkillID: skillID, Level: 1}
	}
	return Summarize(row), nil
}

func (e *Engine) List(ctx context.Context, userID uuid.UUID) ([]SkillSummary, error) {
	rows, err := e.store.ListProgress(ctx, userID)
	if err != nil {
		return nil, apierr.Internal("load_progress_failed", err)
	}
	out := make([]SkillSummary, 0, len(rows))
	for _, r := range rows {
		out = append(out, Summarize(r))
	}
	return out, nil
}
