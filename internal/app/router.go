package app

import (
	"net"

	"github.com/yungbote/skillforge-backend/internal/http"
	"github.com/yungbote/skillforge-backend/internal/observability"
	"github.com/yungbote/skillforge-backend/internal/platform/logger"
)

const serviceName = "skillforge"

func wireServer(log *logger.Logger, cfg Config, handlers Handlers, middleware Middleware, metrics *observability.Metrics) *http.Server {
	routerCfg := http.RouterConfig{
		Log:         log.With("component", "http"),
		CORSOrigins: cfg.CORSOrigins,
		Metrics:     metrics,

		AuthMiddleware: middleware.Auth,

		HealthHandler:      handlers.Health,
		AuthHandler:        handlers.Auth,
		UserHandler:        handlers.User,
		SkillHandler:       handlers.Skill,
		AssessmentHandler:  handlers.Assessment,
		ProgressHandler:    handlers.Progress,
		AchievementHandler: handlers.Achievement,
		RealtimeHandler:    handlers.Realtime,
	}
	if cfg.OtelEnabled {
		routerCfg.ServiceName = serviceName
	}
	return http.NewServer(net.JoinHostPort("", cfg.Port), routerCfg)
}
