package handlers

import (
	"net/http"

	"github.com/gin-gonic/gin"
	"github.com/google/uuid"

	types "github.com/yungbote/skillforge-backend/internal/domain"
	"github.com/yungbote/skillforge-backend/internal/http/response"
	"github.com/yungbote/skillforge-backend/internal/platform/logger"
	"github.com/yungbote/skillforge-backend/internal/services"
)

type AssessmentHandler struct {
	log               *logger.Logger
	assessmentService services.AssessmentService
}

func NewAssessmentHandler(log *logger.Logger, assessmentService services.AssessmentService) *AssessmentHandler {
	return &AssessmentHandler{log: log.With("handler", "AssessmentHandler"), assessmentService: assessmentService}
}

// POST /api/assessments/generate
// body: { "skill_id": "...", "level": 1..5, "question_count": 1..20 }
func (ah *AssessmentHandler) Generate(c *gin.Context) {
	userID, ok := callerID(c)
	if !ok {
		return
	}
	var req struct {
		SkillID       uuid.UUID `json:"skill_id"`
		Level         int       `json:"level"`
		QuestionCount int       `json:"question_count"`
	}
	if !bindJSON(c, &req) {
		return
	}
	if req.SkillID == uuid.Nil {
		response.RespondError(c, http.StatusBadRequest, "invalid_skill_id", errInvalidID)
		return
	}
	out, err := ah.assessmentService.Generate(c.Request.Context(), userID, req.SkillID, req.Level, req.QuestionCount)
	if err != nil {
		response.RespondErr(c, ah.log, err)
		return
	}
	response.RespondCreated(c, gin.H{"assessment": out})
}

// POST /api/assessments/:id/submit
// body: { "answers": [{"question_id":"q1","answer":"..."}], "time_spent": seconds }
func (ah *AssessmentHandler) Submit(c *gin.Context) {
	userID, ok := callerID(c)
	if !ok {
		return
	}
	id, ok := pathID(c, "id")
	if !ok {
		return
	}
	var req struct {
		Answers   []types.Answer `json:"answers"`
		TimeSpent int            `json:"time_spent"`
	}
	if !bindJSON(c, &req) {
		return
	}
	sub, err := ah.assessmentService.Submit(c.Request.Context(), userID, id, req.Answers, req.TimeSpent)
	if err != nil {
		response.RespondErr(c, ah.log, err)
		return
	}
	response.RespondOK(c, sub)
}

// GET /api/assessments/history?limit=N
func (ah *AssessmentHandler) History(c *gin.Context) {
	userID, ok := callerID(c)
	if !ok {
		return
	}
	items, err := ah.assessmentService.History(c.Request.Context(), userID, queryInt(c, "limit", 0))
	if err != nil {
		response.RespondErr(c, ah.log, err)
		return
	}
	response.RespondOK(c, gin.H{"history": items})
}
