package handlers

import (
	"net/http"

	"github.com/gin-gonic/gin"

	"moviesearch/api/internal/middleware"
	"moviesearch/api/internal/security"
	"moviesearch/api/internal/service"
)

// setAuthCookies writes the signed session cookie (HTTP-only) and the CSRF
// cookie (readable by the frontend, which echoes it in X-CSRF-Token).
func (h HandlerSet) setAuthCookies(c *gin.Context, result service.AuthResult) {
	signed := security.SignCookieValue(h.cfg.Security.CookieSecret, result.SessionID)
	maxAge := int(h.cfg.Security.SessionTTL.Seconds())

	c.SetSameSite(http.SameSiteLaxMode)
	c.SetCookie(middleware.SessionCookieName, signed, maxAge, "/", "", h.cfg.Security.SecureCookies, true)
	c.SetCookie(middleware.CSRFCookieName, result.CSRFToken, 0, "/", "", h.cfg.Security.SecureCookies, false)
}

func (h HandlerSet) setCSRFCookie(c *gin.Context, token string) {
	c.SetSameSite(http.SameSiteLaxMode)
	c.SetCookie(middleware.CSRFCookieName, token, 0, "/", "", h.cfg.Security.SecureCookies, false)
}

func (h HandlerSet) clearAuthCookies(c *gin.Context) {
	c.SetSameSite(http.SameSiteLaxMode)
	c.SetCookie(middleware.SessionCookieName, "", -1, "/", "", h.cfg.Security.SecureCookies, true)
	c.SetCookie(middleware.CSRFCookieName, "", -1, "/", "", h.cfg.Security.SecureCookies, false)
}
