package handlers

import (
	"github.com/gin-gonic/gin"

	"github.com/yungbote/skillforge-backend/internal/http/response"
	"github.com/yungbote/skillforge-backend/internal/platform/logger"
	"github.com/yungbote/skillforge-backend/internal/services"
)

type SkillHandler struct {
	log          *logger.Logger
	skillService services.SkillService
}

func NewSkillHandler(log *logger.Logger, skillService services.SkillService) *SkillHandler {
	return &SkillHandler{log: log.With("handler", "SkillHandler"), skillService: skillService}
}

// GET /api/skills?category=...
func (sh *SkillHandler) List(c *gin.Context) {
	skills, err := sh.skillService.List(c.Request.Context(), c.Query("category"))
	if err != nil {
		response.RespondErr(c, sh.log, err)
		return
	}
	response.RespondOK(c, gin.H{"skills": skills})
}

// GET /api/skills/categories
func (sh *SkillHandler) Categories(c *gin.Context) {
	cats, err := sh.skillService.Categories(c.Request.Context())
	if err != nil {
		response.RespondErr(c, sh.log, err)
		return
	}
	response.RespondOK(c, gin.H{"categories": cats})
}

// GET /api/skills/:id
func (sh *SkillHandler) Get(c *gin.Context) {
	id, ok := pathID(c, "id")
	if !ok {
		return
	}
	sk, err := sh.skillService.Get(c.Request.Context(), id)
	if err != nil {
		response.RespondErr(c, sh.log, err)
		return
	}
	response.RespondOK(c, gin.H{"skill": sk})
}

// POST /api/skills
func (sh *SkillHandler) Create(c *gin.Context) {
	var req services.SkillInput
	if !bindJSON(c, &req) {
		return
	}
	sk, err := sh.skillService.Create(c.Request.Context(), req)
	if err != nil {
		response.RespondErr(c, sh.log, err)
		return
	}
	response.RespondCreated(c, gin.H{"skill": sk})
}

// PUT /api/skills/:id
func (sh *SkillHandler) Update(c *gin.Context) {
	id, ok := pathID(c, "id")
	if !ok {
		return
	}
	var req services.SkillInput
	if !bindJSON(c, &req) {
		return
	}
	sk, err := sh.skillService.Update(c.Request.Context(), id, req)
	if err != nil {
		response.RespondErr(c, sh.log, err)
		return
	}
	response.RespondOK(c, gin.H{"skill": sk})
}

// DELETE /api/skills/:id
func (sh *SkillHandler) Delete(c *gin.Context) {
	id, ok := pathID(c, "id")
	if !ok {
		return
	}
	if err := sh.skillService.Delete(c.Request.Context(), id); err != nil {
		response.RespondErr(c, sh.log, err)
		return
	}
	response.RespondOK(c, gin.H{"deleted": true})
}
