package app

import (
	"context"
	"fmt"
	"time"

	"github.com/yungbote/skillforge-backend/internal/data/repos"
	"github.com/yungbote/skillforge-backend/internal/data/store"
	"github.com/yungbote/skillforge-backend/internal/modules/achievement"
	"github.com/yungbote/skillforge-backend/internal/modules/assessment"
	"github.com/yungbote/skillforge-backend/internal/modules/progress"
	"github.com/yungbote/skillforge-backend/internal/observability"
	"github.com/yungbote/skillforge-backend/internal/platform/logger"
	"github.com/yungbote/skillforge-backend/internal/realtime"
	"github.com/yungbote/skillforge-backend/internal/realtime/bus"
	"github.com/yungbote/skillforge-backend/internal/services"
)

type Engines struct {
	Progress    *progress.Engine
	Achievement *achievement.Engine
	Assessment  *assessment.Engine
}

type Services struct {
	Auth        services.AuthService
	User        services.UserService
	Skill       services.SkillService
	Progress    services.ProgressService
	Achievement services.AchievementService
	Assessment  services.AssessmentService
	Leaderboard services.LeaderboardService

	Notifier services.ProgressNotifier
	Bus      bus.Bus
	Engines  Engines
}

func activityLocation(log *logger.Logger, name string) *time.Location {
	loc, err := time.LoadLocation(name)
	if err != nil {
		log.Warn("Unknown ACTIVITY_TIMEZONE; using UTC", "timezone", name, "error", err)
		return time.UTC
	}
	return loc
}

func wireServices(log *logger.Logger, cfg Config, reposet repos.Set, gateway *store.Gateway, clients Clients, hub *realtime.SSEHub, metrics *observability.Metrics) (Services, error) {
	log.Info("Wiring services...")

	var (
		emitter services.SSEEmitter = &services.HubEmitter{Hub: hub}
		sseBus  bus.Bus
	)
	if clients.Redis != nil {
		b, err := bus.NewRedisBus(log, clients.Redis, cfg.RedisChannel)
		if err != nil {
			return Services{}, fmt.Errorf("init redis SSE bus: %w", err)
		}
		sseBus = b
		emitter = &services.RedisEmitter{Bus: b, Hub: hub, Log: log}
	}
	notifier := services.NewProgressNotifier(emitter, metrics)

	leaderboard := services.NewLeaderboardService(log, reposet.Users, clients.Redis)

	catalog, err := achievement.DefaultCatalog()
	if err != nil {
		return Services{}, fmt.Errorf("load achievement catalog: %w", err)
	}
	bank, err := assessment.DefaultBank()
	if err != nil {
		return Services{}, fmt.Errorf("load question templates: %w", err)
	}

	progressEngine := progress.NewEngine(gateway, log)
	achievementEngine := achievement.NewEngine(gateway, catalog, activityLocation(log, cfg.ActivityTimezone), log).
		WithPointsListener(leaderboard)
	assessmentEngine := assessment.NewEngine(gateway, bank, progressEngine, achievementEngine, notifier, log)

	return Services{
		Auth:        services.NewAuthService(log, reposet.Users, cfg.JWTSecretKey, cfg.AccessTokenTTL),
		User:        services.NewUserService(log, reposet.Users, achievementEngine),
		Skill:       services.NewSkillService(log, reposet.Skills),
		Progress:    services.NewProgressService(log, reposet.Skills, progressEngine, achievementEngine, notifier),
		Achievement: services.NewAchievementService(log, achievementEngine, notifier),
		Assessment:  services.NewAssessmentService(log, assessmentEngine),
		Leaderboard: leaderboard,
		Notifier:    notifier,
		Bus:         sseBus,
		Engines: Engines{
			Progress:    progressEngine,
			Achievement: achievementEngine,
			Assessment:  assessmentEngine,
		},
	}, nil
}

// seed writes the achievement catalog and, on an empty table, the default skills.
func seed(ctx context.Context, log *logger.Logger, s Services) error {
	if err := s.Engines.Achievement.Seed(ctx); err != nil {
		return fmt.Errorf("seed achievements: %w", err)
	}
	n, err := s.Skill.SeedDefaults(ctx)
	if err != nil {
		return fmt.Errorf("seed skills: %w", err)
	}
	if n > 0 {
		log.Info("Seeded default skills", "count", n)
	}
	return nil
}
