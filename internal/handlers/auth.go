package handlers

import (
	"github.com/gin-gonic/gin"

	"github.com/prodmanhq/prodman-backend/internal/services"
	"github.com/prodmanhq/prodman-backend/internal/sessions"
)

type AuthHandler struct {
	authService services.AuthService
}

func NewAuthHandler(authService services.AuthService) *AuthHandler {
	return &AuthHandler{authService: authService}
}

func (ah *AuthHandler) Login(c *gin.Context) {
	var body struct {
		RememberMe bool `json:"rememberMe"`
	}
	// The body is optional; a bare POST means rememberMe=false.
	_ = c.ShouldBindJSON(&body)

	sid, ttl, err := ah.authService.Login(c.Request.Context(), c.GetHeader("Authorization"), body.RememberMe)
	if err != nil {
		RespondError(c, err)
		return
	}

	c.SetCookie(sessions.CookieName, sid, int(ttl.Seconds()), "/", "", false, true)
	RespondOK(c, gin.H{"success": true})
}

func (ah *AuthHandler) Register(c *gin.Context) {
	var input services.RegisterInput
	if err := c.ShouldBindJSON(&input); err != nil {
		RespondError(c, errInvalidBody)
		return
	}

	if err := ah.authService.Register(c.Request.Context(), input); err != nil {
		RespondError(c, err)
		return
	}
	RespondCreated(c, gin.H{"success": true})
}

func (ah *AuthHandler) Logout(c *gin.Context) {
	sid, err := c.Cookie(sessions.CookieName)
	if err == nil && sid != "" {
		if err := ah.authService.Logout(c.Request.Context(), sid); err != nil {
			RespondError(c, err)
			return
		}
	}
	c.SetCookie(sessions.CookieName, "", -1, "/", "", false, true)
	RespondOK(c, gin.H{"success": true})
}
