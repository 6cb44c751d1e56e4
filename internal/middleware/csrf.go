package middleware

import (
	"crypto/subtle"
	"net/http"

	"github.com/gin-gonic/gin"
)

const (
	// CSRFCookieName is readable by the frontend (not HTTP-only); the
	// client echoes its value back in CSRFHeaderName on unsafe requests.
	CSRFCookieName = "csrf-token"
	CSRFHeaderName = "X-CSRF-Token"
)

var csrfSafeMethods = map[string]struct{}{
	http.MethodGet:     {},
	http.MethodHead:    {},
	http.MethodOptions: {},
}

// csrfExemptPaths are the pre-authentication routes: no session exists yet
// to bind a token to.
var csrfExemptPaths = map[string]struct{}{
	"/api/login":           {},
	"/api/signup":          {},
	"/api/invite/validate": {},
}

// CSRF enforces the double-submit pattern: cookie and header must both be
// present, equal to each other, and equal to the token bound to the
// server-side session.
func CSRF() gin.HandlerFunc {
	return func(c *gin.Context) {
		if _, safe := csrfSafeMethods[c.Request.Method]; safe {
			c.Next()
			return
		}
		if _, exempt := csrfExemptPaths[c.Request.URL.Path]; exempt {
			c.Next()
			return
		}

		cookieToken, err := c.Cookie(CSRFCookieName)
		headerToken := c.GetHeader(CSRFHeaderName)
		if err != nil || cookieToken == "" || headerToken == "" {
			c.AbortWithStatusJSON(http.StatusForbidden, gin.H{"error": "CSRF token missing"})
			return
		}

		state, ok := CurrentSession(c)
		if !ok ||
			subtle.ConstantTimeCompare([]byte(cookieToken), []byte(headerToken)) != 1 ||
			subtle.ConstantTimeCompare([]byte(cookieToken), []byte(state.Data.CSRFToken)) != 1 {
			c.AbortWithStatusJSON(http.StatusForbidden, gin.H{"error": "CSRF token invalid"})
			return
		}

		c.Next()
	}
}
