package handlers

import (
	"errors"
	"net/http"

	"github.com/gin-gonic/gin"

	"github.com/yungbote/skillforge-backend/internal/http/response"
	"github.com/yungbote/skillforge-backend/internal/platform/logger"
	"github.com/yungbote/skillforge-backend/internal/services"
)

type ProgressHandler struct {
	log             *logger.Logger
	progressService services.ProgressService
}

func NewProgressHandler(log *logger.Logger, progressService services.ProgressService) *ProgressHandler {
	return &ProgressHandler{log: log.With("handler", "ProgressHandler"), progressService: progressService}
}

// GET /api/progress
func (ph *ProgressHandler) List(c *gin.Context) {
	userID, ok := callerID(c)
	if !ok {
		return
	}
	rows, err := ph.progressService.List(c.Request.Context(), userID)
	if err != nil {
		response.RespondErr(c, ph.log, err)
		return
	}
	response.RespondOK(c, gin.H{"progress": rows})
}

// GET /api/progress/:skillId
func (ph *ProgressHandler) Get(c *gin.Context) {
	userID, ok := callerID(c)
	if !ok {
		return
	}
	skillID, ok := pathID(c, "skillId")
	if !ok {
		return
	}
	row, err := ph.progressService.Get(c.Request.Context(), userID, skillID)
	if err != nil {
		response.RespondErr(c, ph.log, err)
		return
	}
	response.RespondOK(c, gin.H{"progress": row})
}

// POST /api/progress/:skillId/xp
// body: { "xp_gained": n }
func (ph *ProgressHandler) AwardXP(c *gin.Context) {
	userID, ok := callerID(c)
	if !ok {
		return
	}
	skillID, ok := pathID(c, "skillId")
	if !ok {
		return
	}
	var req struct {
		XPGained *int `json:"xp_gained"`
	}
	if !bindJSON(c, &req) {
		return
	}
	if req.XPGained == nil {
		response.RespondError(c, http.StatusBadRequest, "invalid_xp", errors.New("xp_gained is required"))
		return
	}
	res, err := ph.progressService.AwardXP(c.Request.Context(), userID, skillID, *req.XPGained)
	if err != nil {
		response.RespondErr(c, ph.log, err)
		return
	}
	response.RespondOK(c, res)
}
