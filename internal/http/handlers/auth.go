package handlers

import (
	"github.com/gin-gonic/gin"

	"github.com/yungbote/skillforge-backend/internal/http/response"
	"github.com/yungbote/skillforge-backend/internal/platform/logger"
	"github.com/yungbote/skillforge-backend/internal/services"
)

type AuthHandler struct {
	log         *logger.Logger
	authService services.AuthService
	userService services.UserService
}

func NewAuthHandler(log *logger.Logger, authService services.AuthService, userService services.UserService) *AuthHandler {
	return &AuthHandler{log: log.With("handler", "AuthHandler"), authService: authService, userService: userService}
}

func (ah *AuthHandler) tokenPayload(c *gin.Context, user any, token string) gin.H {
	return gin.H{
		"user":         user,
		"access_token": token,
		"token_type":   "Bearer",
		"expires_in":   int(ah.authService.GetAccessTTL().Seconds()),
	}
}

// POST /api/auth/register
func (ah *AuthHandler) Register(c *gin.Context) {
	var req services.RegisterInput
	if !bindJSON(c, &req) {
		return
	}
	user, token, err := ah.authService.Register(c.Request.Context(), req)
	if err != nil {
		response.RespondErr(c, ah.log, err)
		return
	}
	response.RespondCreated(c, ah.tokenPayload(c, user, token))
}

// POST /api/auth/login
func (ah *AuthHandler) Login(c *gin.Context) {
	var req struct {
		Email    string `json:"email"`
		Password string `json:"password"`
	}
	if !bindJSON(c, &req) {
		return
	}
	user, token, err := ah.authService.Login(c.Request.Context(), req.Email, req.Password)
	if err != nil {
		response.RespondErr(c, ah.log, err)
		return
	}
	response.RespondOK(c, ah.tokenPayload(c, user, token))
}

// GET /api/auth/me
func (ah *AuthHandler) Me(c *gin.Context) {
	userID, ok := callerID(c)
	if !ok {
		return
	}
	me, err := ah.userService.GetMe(c.Request.Context(), userID)
	if err != nil {
		response.RespondErr(c, ah.log, err)
		return
	}
	response.RespondOK(c, gin.H{"user": me})
}
