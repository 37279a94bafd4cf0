package achievement

import (
	"context"
	"fmt"
	"time"

	"github.com/google/uuid"
	"golang.org/x/sync/errgroup"

	types "github.com/yungbote/skillforge-backend/internal/domain"
	"github.com/yungbote/skillforge-backend/internal/platform/apierr"
	"github.com/yungbote/skillforge-backend/internal/platform/logger"
)

type Trigger string

const (
	TriggerAssessmentCompleted Trigger = "assessment_completed"
	TriggerProgressUpdate      Trigger = "progress_update"
	TriggerManual              Trigger = "manual"
)

type Store interface {
	GetAssessmentResults(ctx context.Context, userID uuid.UUID) ([]*types.AssessmentResult, error)
	ListProgress(ctx context.Context, userID uuid.UUID) ([]*types.UserProgress, error)
	GetSkills(ctx context.Context, skillIDs []uuid.UUID) ([]*types.Skill, error)
	SeedAchievements(ctx context.Context, rows []*types.Achievement) error
	GetGrantedAchievementIDs(ctx context.Context, userID uuid.UUID) (map[string]bool, error)
	ListGrantedAchievements(ctx context.Context, userID uuid.UUID) ([]*types.UserAchievement, error)
	GrantAchievementIfAbsent(ctx context.Context, userID uuid.UUID, achievementID string, at time.Time) (bool, error)
	RecomputeAndPersistTotalPoints(ctx context.Context, userID uuid.UUID) (int, error)
}

// PointsListener hears about total point changes, e.g. to refresh a ranking.
type PointsListener interface {
	PointsChanged(ctx context.Context, userID uuid.UUID, total int)
}

type Engine struct {
	store    Store
	catalog  *Catalog
	loc      *time.Location
	log      *logger.Logger
	now      func() time.Time
	listener PointsListener
}

// NewEngine evaluates times of day in loc (UTC when nil).
func NewEngine(store Store, catalog *Catalog, loc *time.Location, log *logger.Logger) *Engine {
	if loc == nil {
		loc = time.UTC
	}
	return &Engine{
		store:   store,
		catalog: catalog,
		loc:     loc,
		log:     log.With("service", "AchievementEngine"),
		now:     func() time.Time { return time.Now().UTC() },
	}
}

func (e *Engine) WithPointsListener(l PointsListener) *Engine {
	e.listener = l
	return e
}

func (e *Engine) Catalog() *Catalog { return e.catalog }

// Seed writes the catalog into storage. Called once at startup.
func (e *Engine) Seed(ctx context.Context) error {
	rows, err := e.catalog.Models()
	if err != nil {
		return fmt.Errorf("encode achievement catalog: %w", err)
	}
	if err := e.store.SeedAchievements(ctx, rows); err != nil {
		return fmt.Errorf("seed achievements: %w", err)
	}
	e.log.Info("Achievement catalog seeded", "count", len(rows))
	return nil
}

// Stats loads the snapshot for userID.
func (e *Engine) Stats(ctx context.Context, userID uuid.UUID) (Stats, error) {
	var (
		results  []*types.AssessmentResult
		progress []*types.UserProgress
	)
	g, gctx := errgroup.WithContext(ctx)
	g.Go(func() error {
		var err error
		results, err = e.store.GetAssessmentResults(gctx, userID)
		return err
	})
	g.Go(func() error {
		var err error
		progress, err = e.store.ListProgress(gctx, userID)
		return err
	})
	if err := g.Wait(); err != nil {
		return Stats{}, err
	}

	var skills []*types.Skill
	if ids := SkillIDs(results, progress); len(ids) > 0 {
		var err error
		if skills, err = e.store.GetSkills(ctx, ids); err != nil {
			return Stats{}, err
		}
	}
	return BuildStats(results, progress, skills), nil
}

// Check grants every unearned achievement the user now satisfies and returns
// the newly granted definitions. Safe to call repeatedly and concurrently.
func (e *Engine) Check(ctx context.Context, userID uuid.UUID, trigger Trigger, data map[string]any) ([]Definition, error) {
	if userID == uuid.Nil {
		return nil, apierr.BadRequest("invalid_user", fmt.Errorf("user id is required"))
	}
	log := e.log.With("trigger", string(trigger), "user_id", userID.String())

	granted, err := e.store.GetGrantedAchievementIDs(ctx, userID)
	if err != nil {
		return nil, apierr.Internal("achievement_check_failed", fmt.Errorf("load granted achievements: %w", err))
	}
	stats, err := e.Stats(ctx, userID)
	if err != nil {
		return nil, apierr.Internal("achievement_check_failed", fmt.Errorf("load achievement stats: %w", err))
	}

	now := e.now()
	var unlocked []Definition
	for _, def := range e.catalog.defs {
		if granted[def.ID] || !Evaluate(def.Condition, stats, e.loc) {
			continue
		}
		ok, err := e.store.GrantAchievementIfAbsent(ctx, userID, def.ID, now)
		if err != nil {
			return nil, apierr.Internal("achievement_grant_failed", fmt.Errorf("grant %s: %w", def.ID, err))
		}
		if ok {
			unlocked = append(unlocked, def)
		}
	}

	total, err := e.store.RecomputeAndPersistTotalPoints(ctx, userID)
	if err != nil {
		return nil, apierr.Internal("achievement_points_failed", fmt.Errorf("recompute total points: %w", err))
	}
	if len(unlocked) > 0 {
		ids := make([]string, 0, len(unlocked))
		for _, d := range unlocked {
			ids = append(ids, d.ID)
		}
		log.Info("Achievements unlocked", "achievements", ids, "total_points", total, "data", data)
		if e.listener != nil {
			e.listener.PointsChanged(ctx, userID, total)
		}
	}
	return unlocked, nil
}

// Status is a catalog entry decorated for one user.
type Status struct {
	Definition
	Earned   bool       `json:"earned"`
	EarnedAt *time.Time `json:"earned_at,omitempty"`
	Progress float64    `json:"progress"`
}

// ListForUser returns the whole catalog in display order with earned flags.
func (e *Engine) ListForUser(ctx context.Context, userID uuid.UUID) ([]Status, error) {
	rows, err := e.store.ListGrantedAchievements(ctx, userID)
	if err != nil {
		return nil, apierr.Internal("load_achievements_failed", err)
	}
	stats, err := e.Stats(ctx, userID)
	if err != nil {
		return nil, apierr.Internal("load_achievements_failed", err)
	}
	earned := make(map[string]time.Time, len(rows))
	for _, r := range rows {
		earned[r.AchievementID] = r.EarnedAt
	}

	out := make([]Status, 0, e.catalog.Len())
	for _, def := range e.catalog.defs {
		st := Status{Definition: def}
		if at, ok := earned[def.ID]; ok {
			at := at
			st.Earned = true
			st.EarnedAt = &at
			st.Progress = 1
		} else {
			st.Progress = Progress(def.Condition, stats, e.loc)
		}
		out = append(out, st)
	}
	return out, nil
}
