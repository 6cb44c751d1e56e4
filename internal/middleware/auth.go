package middleware

import (
	"context"
	"net/http"

	"github.com/gin-gonic/gin"

	"moviesearch/api/internal/models"
)

// UserGetter is the slice of the user store the admin gate needs.
type UserGetter interface {
	GetByID(ctx context.Context, id string) (models.User, error)
}

// RequireAuth rejects requests without an authenticated session.
func RequireAuth() gin.HandlerFunc {
	return func(c *gin.Context) {
		state, ok := CurrentSession(c)
		if !ok || !state.Data.Authenticated {
			c.AbortWithStatusJSON(http.StatusUnauthorized, gin.H{"error": "Unauthorized"})
			return
		}
		c.Next()
	}
}

// RequireAdmin re-verifies admin status against the credential store on
// every request. The session's cached isAdmin flag is never trusted here:
// admin status can change between requests.
func RequireAdmin(users UserGetter) gin.HandlerFunc {
	return func(c *gin.Context) {
		state, ok := CurrentSession(c)
		if !ok || !state.Data.Authenticated || state.Data.UserID == "" {
			c.AbortWithStatusJSON(http.StatusUnauthorized, gin.H{"error": "Unauthorized"})
			return
		}

		user, err := users.GetByID(c.Request.Context(), state.Data.UserID)
		if err != nil || !user.IsAdmin {
			c.AbortWithStatusJSON(http.StatusForbidden, gin.H{"error": "Admin access required"})
			return
		}

		c.Set("current_user", user)
		c.Next()
	}
}
