package http

import (
	"github.com/gin-gonic/gin"
	"go.opentelemetry.io/contrib/instrumentation/github.com/gin-gonic/gin/otelgin"

	domainuser "github.com/yungbote/skillforge-backend/internal/domain/user"
	httpH "github.com/yungbote/skillforge-backend/internal/http/handlers"
	httpMW "github.com/yungbote/skillforge-backend/internal/http/middleware"
	"github.com/yungbote/skillforge-backend/internal/observability"
	"github.com/yungbote/skillforge-backend/internal/platform/logger"
)

type RouterConfig struct {
	Log         *logger.Logger
	ServiceName string
	CORSOrigins []string
	Metrics     *observability.Metrics

	AuthMiddleware *httpMW.AuthMiddleware

	HealthHandler      *httpH.HealthHandler
	AuthHandler        *httpH.AuthHandler
	UserHandler        *httpH.UserHandler
	SkillHandler       *httpH.SkillHandler
	AssessmentHandler  *httpH.AssessmentHandler
	ProgressHandler    *httpH.ProgressHandler
	AchievementHandler *httpH.AchievementHandler
	RealtimeHandler    *httpH.RealtimeHandler
}

func NewRouter(cfg RouterConfig) *gin.Engine {
	r := gin.New()
	r.Use(gin.Recovery())
	if cfg.ServiceName != "" {
		r.Use(otelgin.Middleware(cfg.ServiceName))
	}
	r.Use(httpMW.AttachTraceContext())
	r.Use(httpMW.RequestLogger(cfg.Log))
	r.Use(httpMW.Metrics(cfg.Metrics))
	r.Use(httpMW.CORS(cfg.CORSOrigins))

	// Health
	if cfg.HealthHandler != nil {
		r.GET("/healthcheck", cfg.HealthHandler.HealthCheck)
	}
	if cfg.Metrics != nil {
		r.GET("/metrics", gin.WrapH(cfg.Metrics))
	}

	api := r.Group("/api")

	// Public
	if cfg.AuthHandler != nil {
		api.POST("/auth/register", cfg.AuthHandler.Register)
		api.POST("/auth/login", cfg.AuthHandler.Login)
	}
	if cfg.SkillHandler != nil {
		api.GET("/skills", cfg.SkillHandler.List)
		api.GET("/skills/categories", cfg.SkillHandler.Categories)
		api.GET("/skills/:id", cfg.SkillHandler.Get)
	}
	if cfg.AchievementHandler != nil {
		api.GET("/achievements/catalog", cfg.AchievementHandler.Catalog)
	}
	if cfg.UserHandler != nil {
		api.GET("/leaderboard", cfg.UserHandler.Leaderboard)
	}

	if cfg.AuthMiddleware == nil {
		return r
	}

	protected := api.Group("")
	protected.Use(cfg.AuthMiddleware.RequireAuth())
	{
		if cfg.AuthHandler != nil {
			protected.GET("/auth/me", cfg.AuthHandler.Me)
		}

		if cfg.SkillHandler != nil {
			admin := protected.Group("/skills", cfg.AuthMiddleware.RequireRole(domainuser.RoleAdmin))
			admin.POST("", cfg.SkillHandler.Create)
			admin.PUT("/:id", cfg.SkillHandler.Update)
			admin.DELETE("/:id", cfg.SkillHandler.Delete)
		}

		if cfg.AssessmentHandler != nil {
			protected.POST("/assessments/generate", cfg.AssessmentHandler.Generate)
			protected.POST("/assessments/:id/submit", cfg.AssessmentHandler.Submit)
			protected.GET("/assessments/history", cfg.AssessmentHandler.History)
		}

		if cfg.ProgressHandler != nil {
			protected.GET("/progress", cfg.ProgressHandler.List)
			protected.GET("/progress/:skillId", cfg.ProgressHandler.Get)
			protected.POST("/progress/:skillId/xp", cfg.ProgressHandler.AwardXP)
		}

		if cfg.AchievementHandler != nil {
			protected.GET("/achievements", cfg.AchievementHandler.List)
			protected.POST("/achievements/check", cfg.AchievementHandler.Check)
		}

		if cfg.UserHandler != nil {
			protected.GET("/users/me/stats", cfg.UserHandler.GetStats)
		}

		// Realtime (SSE)
		if cfg.RealtimeHandler != nil {
			protected.GET("/events/stream", cfg.RealtimeHandler.SSEStream)
		}
	}

	return r
}
