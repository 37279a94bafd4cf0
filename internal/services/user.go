package services

import (
	"context"

	"github.com/google/uuid"

	"github.com/yungbote/skillforge-backend/internal/data/repos"
	types "github.com/yungbote/skillforge-backend/internal/domain"
	"github.com/yungbote/skillforge-backend/internal/modules/achievement"
	"github.com/yungbote/skillforge-backend/internal/modules/progress"
	"github.com/yungbote/skillforge-backend/internal/platform/apierr"
	"github.com/yungbote/skillforge-backend/internal/platform/dbctx"
	"github.com/yungbote/skillforge-backend/internal/platform/logger"
)

// UserStats is the dashboard view of one user.
type UserStats struct {
	User                *types.User       `json:"user"`
	Stats               achievement.Stats `json:"stats"`
	AchievementsEarned  int               `json:"achievements_earned"`
	AchievementsTotal   int               `json:"achievements_total"`
	OverallLevel        int               `json:"overall_level"`
	OverallLevelPercent int               `json:"overall_level_progress"`
}

type UserService interface {
	GetMe(ctx context.Context, userID uuid.UUID) (*types.User, error)
	GetStats(ctx context.Context, userID uuid.UUID) (*UserStats, error)
}

type userService struct {
	log          *logger.Logger
	userRepo     repos.UserRepo
	achievements *achievement.Engine
}

func NewUserService(log *logger.Logger, userRepo repos.UserRepo, achievements *achievement.Engine) UserService {
	return &userService{
		log:          log.With("service", "UserService"),
		userRepo:     userRepo,
		achievements: achievements,
	}
}

func (s *userService) GetMe(ctx context.Context, userID uuid.UUID) (*types.User, error) {
	u, err := s.userRepo.GetByID(dbctx.Context{Ctx: ctx}, userID)
	if err != nil {
		return nil, apierr.Internal("load_user_failed", err)
	}
	if u == nil {
		return nil, apierr.NotFound("user_not_found")
	}
	return u, nil
}

func (s *userService) GetStats(ctx context.Context, userID uuid.UUID) (*UserStats, error) {
	u, err := s.GetMe(ctx, userID)
	if err != nil {
		return nil, err
	}
	stats, err := s.achievements.Stats(ctx, userID)
	if err != nil {
		return nil, apierr.Internal("load_stats_failed", err)
	}
	statuses, err := s.achievements.ListForUser(ctx, userID)
	if err != nil {
		return nil, err
	}
	earned := 0
	for _, st := range statuses {
		if st.Earned {
			earned++
		}
	}
	return &UserStats{
		User:                u,
		Stats:               stats,
		AchievementsEarned:  earned,
		AchievementsTotal:   len(statuses),
		OverallLevel:        progress.CalculateLevel(stats.TotalXP),
		OverallLevelPercent: progress.LevelProgress(stats.TotalXP),
	}, nil
}
