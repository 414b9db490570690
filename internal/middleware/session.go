package middleware

import (
	"net/http"

	"github.com/gin-gonic/gin"

	"github.com/prodmanhq/prodman-backend/internal/logger"
	"github.com/prodmanhq/prodman-backend/internal/sessions"
	"github.com/prodmanhq/prodman-backend/internal/types"
)

// ContextKeySession is the gin context key under which handlers find the
// authenticated session.
const ContextKeySession = "session"

type SessionMiddleware struct {
	log   *logger.Logger
	store sessions.Store
}

func NewSessionMiddleware(baseLog *logger.Logger, store sessions.Store) *SessionMiddleware {
	middlewareLog := baseLog.With("middleware", "SessionMiddleware")
	return &SessionMiddleware{log: middlewareLog, store: store}
}

// RequireSession rejects requests that do not carry a live session cookie.
func (sm *SessionMiddleware) RequireSession() gin.HandlerFunc {
	return func(c *gin.Context) {
		session := sm.resolve(c)
		if session == nil {
			c.AbortWithStatusJSON(http.StatusUnauthorized, gin.H{
				"status":  "error",
				"message": "Not authenticated",
			})
			return
		}
		c.Set(ContextKeySession, session)
		c.Next()
	}
}

// RequireAdmin additionally rejects sessions that belong to non-admin users.
func (sm *SessionMiddleware) RequireAdmin() gin.HandlerFunc {
	return func(c *gin.Context) {
		session := sm.resolve(c)
		if session == nil {
			c.AbortWithStatusJSON(http.StatusUnauthorized, gin.H{
				"status":  "error",
				"message": "Not authenticated",
			})
			return
		}
		if session.Role != types.RoleAdmin {
			c.AbortWithStatusJSON(http.StatusForbidden, gin.H{
				"status":  "error",
				"message": "Forbidden",
			})
			return
		}
		c.Set(ContextKeySession, session)
		c.Next()
	}
}

func (sm *SessionMiddleware) resolve(c *gin.Context) *sessions.Session {
	sid, err := c.Cookie(sessions.CookieName)
	if err != nil || sid == "" {
		return nil
	}
	session, err := sm.store.Get(c.Request.Context(), sid)
	if err != nil {
		sm.log.Error("Failed to load session", "error", err)
		return nil
	}
	return session
}

// CurrentSession returns the session stashed by RequireSession/RequireAdmin,
// or nil when the route is unauthenticated.
func CurrentSession(c *gin.Context) *sessions.Session {
	value, ok := c.Get(ContextKeySession)
	if !ok {
		return nil
	}
	session, ok := value.(*sessions.Session)
	if !ok {
		return nil
	}
	return session
}
