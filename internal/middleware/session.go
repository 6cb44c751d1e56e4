package middleware

import (
	"github.com/gin-gonic/gin"

	"moviesearch/api/internal/config"
	"moviesearch/api/internal/security"
	"moviesearch/api/internal/session"
)

// SessionCookieName is the HTTP-only signed session-identifier cookie.
const SessionCookieName = "session-id"

const sessionContextKey = "session_state"

// SessionState is the request-scoped view of the caller's session. It is an
// explicit value threaded through handlers rather than ambient mutable
// request state; transitions go through the auth service, which returns the
// new state.
type SessionState struct {
	ID   string
	Data session.Data
}

// Session resolves the signed session cookie to server-side state. A
// missing, tampered or expired cookie simply leaves the request anonymous;
// rejecting it is the business of RequireAuth and friends.
func Session(mgr *session.Manager, cfg *config.AppConfig) gin.HandlerFunc {
	return func(c *gin.Context) {
		signed, err := c.Cookie(SessionCookieName)
		if err != nil || signed == "" {
			c.Next()
			return
		}

		sid, ok := security.ParseSignedCookie(cfg.Security.CookieSecret, signed)
		if !ok {
			c.Next()
			return
		}

		data, err := mgr.Get(c.Request.Context(), sid)
		if err != nil {
			// Unknown id or store trouble: the request proceeds anonymous.
			c.Next()
			return
		}

		c.Set(sessionContextKey, SessionState{ID: sid, Data: data})
		c.Next()
	}
}

// CurrentSession returns the request's session state, if any.
func CurrentSession(c *gin.Context) (SessionState, bool) {
	val, exists := c.Get(sessionContextKey)
	if !exists {
		return SessionState{}, false
	}
	state, ok := val.(SessionState)
	return state, ok
}
