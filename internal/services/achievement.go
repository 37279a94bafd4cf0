package services

import (
	"context"

	"github.com/google/uuid"

	"github.com/yungbote/skillforge-backend/internal/modules/achievement"
	"github.com/yungbote/skillforge-backend/internal/platform/logger"
)

type AchievementService interface {
	Catalog() []achievement.Definition
	ListForUser(ctx context.Context, userID uuid.UUID) ([]achievement.Status, error)
	// Check re-evaluates the user's achievements on demand.
	Check(ctx context.Context, userID uuid.UUID) ([]achievement.Definition, error)
}

type achievementService struct {
	log      *logger.Logger
	engine   *achievement.Engine
	notifier ProgressNotifier
}

func NewAchievementService(log *logger.Logger, engine *achievement.Engine, notifier ProgressNotifier) AchievementService {
	return &achievementService{
		log:      log.With("service", "AchievementService"),
		engine:   engine,
		notifier: notifier,
	}
}

func (s *achievementService) Catalog() []achievement.Definition {
	return s.engine.Catalog().All()
}

func (s *achievementService) ListForUser(ctx context.Context, userID uuid.UUID) ([]achievement.Status, error) {
	return s.engine.ListForUser(ctx, userID)
}

func (s *achievementService) Check(ctx context.Context, userID uuid.UUID) ([]achievement.Definition, error) {
	unlocked, err := s.engine.Check(ctx, userID, achievement.TriggerManual, nil)
	if err != nil {
		return nil, err
	}
	if len(unlocked) > 0 && s.notifier != nil {
		s.notifier.AchievementsUnlocked(ctx, userID, unlocked)
	}
	if unlocked == nil {
		unlocked = []achievement.Definition{}
	}
	return unlocked, nil
}
