package services

import (
	"context"

	"github.com/google/uuid"

	"github.com/yungbote/skillforge-backend/internal/data/repos"
	"github.com/yungbote/skillforge-backend/internal/modules/achievement"
	"github.com/yungbote/skillforge-backend/internal/modules/progress"
	"github.com/yungbote/skillforge-backend/internal/platform/apierr"
	"github.com/yungbote/skillforge-backend/internal/platform/dbctx"
	"github.com/yungbote/skillforge-backend/internal/platform/logger"
)

type AwardResult struct {
	Progress     *progress.UpdateResult   `json:"progress"`
	Achievements []achievement.Definition `json:"achievements"`
}

type ProgressService interface {
	List(ctx context.Context, userID uuid.UUID) ([]progress.SkillSummary, error)
	Get(ctx context.Context, userID, skillID uuid.UUID) (progress.SkillSummary, error)
	// AwardXP grants xp outside an assessment and re-checks achievements.
	AwardXP(ctx context.Context, userID, skillID uuid.UUID, xp int) (*AwardResult, error)
}

type progressService struct {
	log          *logger.Logger
	skillRepo    repos.SkillRepo
	engine       *progress.Engine
	achievements *achievement.Engine
	notifier     ProgressNotifier
}

func NewProgressService(log *logger.Logger, skillRepo repos.SkillRepo, engine *progress.Engine, achievements *achievement.Engine, notifier ProgressNotifier) ProgressService {
	return &progressService{
		log:          log.With("service", "ProgressService"),
		skillRepo:    skillRepo,
		engine:       engine,
		achievements: achievements,
		notifier:     notifier,
	}
}

func (s *progressService) List(ctx context.Context, userID uuid.UUID) ([]progress.SkillSummary, error) {
	return s.engine.List(ctx, userID)
}

func (s *progressService) Get(ctx context.Context, userID, skillID uuid.UUID) (progress.SkillSummary, error) {
	if err := s.requireSkill(ctx, skillID); err != nil {
		return progress.SkillSummary{}, err
	}
	return s.engine.Get(ctx, userID, skillID)
}

func (s *progressService) requireSkill(ctx context.Context, skillID uuid.UUID) error {
	sk, err := s.skillRepo.GetByID(dbctx.Context{Ctx: ctx}, skillID)
	if err != nil {
		return apierr.Internal("load_skill_failed", err)
	}
	if sk == nil {
		return apierr.NotFound("skill_not_found")
	}
	return nil
}

func (s *progressService) AwardXP(ctx context.Context, userID, skillID uuid.UUID, xp int) (*AwardResult, error) {
	if xp < 0 {
		return nil, apierr.BadRequest("invalid_xp", progress.ErrNegativeXP)
	}
	if err := s.requireSkill(ctx, skillID); err != nil {
		return nil, err
	}
	res, err := s.engine.UpdateProgress(ctx, progress.UpdateInput{
		UserID:           userID,
		SkillID:          skillID,
		XPGained:         xp,
		StreakMaintained: true,
	})
	if err != nil {
		return nil, err
	}
	unlocked, err := s.achievements.Check(ctx, userID, achievement.TriggerProgressUpdate, map[string]any{
		"skill_id":  skillID.String(),
		"xp_gained": xp,
	})
	if err != nil {
		s.log.Warn("Achievement check failed after xp award", "error", err)
		unlocked = nil
	}
	if unlocked == nil {
		unlocked = []achievement.Definition{}
	}
	if s.notifier != nil {
		s.notifier.ProgressChanged(ctx, res)
		if len(unlocked) > 0 {
			s.notifier.AchievementsUnlocked(ctx, userID, unlocked)
		}
	}
	return &AwardResult{Progress: res, Achievements: unlocked}, nil
}
