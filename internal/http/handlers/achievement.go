package handlers

import (
	"github.com/gin-gonic/gin"

	"github.com/yungbote/skillforge-backend/internal/http/response"
	"github.com/yungbote/skillforge-backend/internal/platform/logger"
	"github.com/yungbote/skillforge-backend/internal/services"
)

type AchievementHandler struct {
	log                *logger.Logger
	achievementService services.AchievementService
}

func NewAchievementHandler(log *logger.Logger, achievementService services.AchievementService) *AchievementHandler {
	return &AchievementHandler{log: log.With("handler", "AchievementHandler"), achievementService: achievementService}
}

// GET /api/achievements/catalog
func (ah *AchievementHandler) Catalog(c *gin.Context) {
	response.RespondOK(c, gin.H{"achievements": ah.achievementService.Catalog()})
}

// GET /api/achievements
func (ah *AchievementHandler) List(c *gin.Context) {
	userID, ok := callerID(c)
	if !ok {
		return
	}
	statuses, err := ah.achievementService.ListForUser(c.Request.Context(), userID)
	if err != nil {
		response.RespondErr(c, ah.log, err)
		return
	}
	earned := 0
	for _, s := range statuses {
		if s.Earned {
			earned++
		}
	}
	response.RespondOK(c, gin.H{"achievements": statuses, "earned": earned, "total": len(statuses)})
}

// POST /api/achievements/check
func (ah *AchievementHandler) Check(c *gin.Context) {
	userID, ok := callerID(c)
	if !ok {
		return
	}
	unlocked, err := ah.achievementService.Check(c.Request.Context(), userID)
	if err != nil {
		response.RespondErr(c, ah.log, err)
		return
	}
	response.RespondOK(c, gin.H{"unlocked": unlocked})
}
