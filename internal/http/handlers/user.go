package handlers

import (
	"github.com/gin-gonic/gin"

	"github.com/yungbote/skillforge-backend/internal/http/response"
	"github.com/yungbote/skillforge-backend/internal/platform/logger"
	"github.com/yungbote/skillforge-backend/internal/services"
)

type UserHandler struct {
	log                *logger.Logger
	userService        services.UserService
	leaderboardService services.LeaderboardService
}

func NewUserHandler(log *logger.Logger, userService services.UserService, leaderboardService services.LeaderboardService) *UserHandler {
	return &UserHandler{
		log:                log.With("handler", "UserHandler"),
		userService:        userService,
		leaderboardService: leaderboardService,
	}
}

// GET /api/users/me/stats
func (uh *UserHandler) GetStats(c *gin.Context) {
	userID, ok := callerID(c)
	if !ok {
		return
	}
	stats, err := uh.userService.GetStats(c.Request.Context(), userID)
	if err != nil {
		response.RespondErr(c, uh.log, err)
		return
	}
	response.RespondOK(c, stats)
}

// GET /api/leaderboard?limit=N
func (uh *UserHandler) Leaderboard(c *gin.Context) {
	entries, err := uh.leaderboardService.Top(c.Request.Context(), queryInt(c, "limit", 0))
	if err != nil {
		response.RespondErr(c, uh.log, err)
		return
	}
	response.RespondOK(c, gin.H{"entries": entries})
}
