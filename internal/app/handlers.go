package app

import (
	"gorm.io/gorm"

	httpH "github.com/yungbote/skillforge-backend/internal/http/handlers"
	httpMW "github.com/yungbote/skillforge-backend/internal/http/middleware"
	"github.com/yungbote/skillforge-backend/internal/observability"
	"github.com/yungbote/skillforge-backend/internal/platform/logger"
	"github.com/yungbote/skillforge-backend/internal/realtime"
)

type Middleware struct {
	Auth *httpMW.AuthMiddleware
}

type Handlers struct {
	Health      *httpH.HealthHandler
	Auth        *httpH.AuthHandler
	User        *httpH.UserHandler
	Skill       *httpH.SkillHandler
	Assessment  *httpH.AssessmentHandler
	Progress    *httpH.ProgressHandler
	Achievement *httpH.AchievementHandler
	Realtime    *httpH.RealtimeHandler
}

func wireMiddleware(log *logger.Logger, services Services) Middleware {
	log.Info("Wiring middleware...")
	return Middleware{Auth: httpMW.NewAuthMiddleware(log, services.Auth)}
}

func wireHandlers(log *logger.Logger, db *gorm.DB, services Services, hub *realtime.SSEHub, metrics *observability.Metrics) Handlers {
	log.Info("Wiring handlers...")
	return Handlers{
		Health:      httpH.NewHealthHandler(db),
		Auth:        httpH.NewAuthHandler(log, services.Auth, services.User),
		User:        httpH.NewUserHandler(log, services.User, services.Leaderboard),
		Skill:       httpH.NewSkillHandler(log, services.Skill),
		Assessment:  httpH.NewAssessmentHandler(log, services.Assessment),
		Progress:    httpH.NewProgressHandler(log, services.Progress),
		Achievement: httpH.NewAchievementHandler(log, services.Achievement),
		Realtime:    httpH.NewRealtimeHandler(log, hub, metrics),
	}
}
