package handlers

import (
	"errors"
	"fmt"
	"net/http"

	"github.com/gin-gonic/gin"

	"moviesearch/api/internal/middleware"
	"moviesearch/api/internal/service"
)

type loginRequest struct {
	Username string `json:"username"`
	Password string `json:"password"`
}

func (h HandlerSet) Login(c *gin.Context) {
	var req loginRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": "Username and password required"})
		return
	}

	result, err := h.authService.Login(c.Request.Context(), service.LoginInput{
		Username:  req.Username,
		Password:  req.Password,
		SessionID: currentSessionID(c),
	})
	if err != nil {
		h.respondServiceError(c, err, "Failed to log in")
		return
	}

	h.setAuthCookies(c, result)
	c.JSON(http.StatusOK, gin.H{"success": true, "isAdmin": result.IsAdmin})
}

type signupRequest struct {
	Token    string `json:"token"`
	Username string `json:"username"`
	Email    string `json:"email"`
	Password string `json:"password"`
}

func (h HandlerSet) Signup(c *gin.Context) {
	var req signupRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": "Invalid request body"})
		return
	}

	result, err := h.authService.Signup(c.Request.Context(), service.SignupInput{
		Token:     req.Token,
		Username:  req.Username,
		Email:     req.Email,
		Password:  req.Password,
		SessionID: currentSessionID(c),
	})
	if err != nil {
		h.respondServiceError(c, err, "Failed to create account")
		return
	}

	h.setAuthCookies(c, result)
	c.JSON(http.StatusCreated, gin.H{"success": true})
}

type validateInviteRequest struct {
	Token string `json:"token"`
}

// ValidateInvite is the non-consuming pre-check the signup form runs before
// collecting account details.
func (h HandlerSet) ValidateInvite(c *gin.Context) {
	var req validateInviteRequest
	if err := c.ShouldBindJSON(&req); err != nil || req.Token == "" {
		c.JSON(http.StatusBadRequest, gin.H{"error": "Token required"})
		return
	}

	info, err := h.inviteService.GetInviteInfo(c.Request.Context(), req.Token)
	if err != nil {
		h.log.Error().Err(err).Msg("invite validation failed")
		c.JSON(http.StatusInternalServerError, gin.H{"error": "Failed to validate invite"})
		return
	}

	c.JSON(http.StatusOK, info)
}

func (h HandlerSet) Logout(c *gin.Context) {
	if state, ok := middleware.CurrentSession(c); ok {
		if err := h.authService.Logout(c.Request.Context(), state.ID); err != nil {
			h.log.Error().Err(err).Msg("logout failed")
			c.JSON(http.StatusInternalServerError, gin.H{"error": "Failed to logout"})
			return
		}
	}

	h.clearAuthCookies(c)
	c.JSON(http.StatusOK, gin.H{"success": true})
}

func (h HandlerSet) AuthCheck(c *gin.Context) {
	state, ok := middleware.CurrentSession(c)
	authenticated := ok && state.Data.Authenticated

	if authenticated {
		token, err := h.sessions.EnsureCSRF(c.Request.Context(), state.ID, &state.Data)
		if err != nil {
			h.log.Warn().Err(err).Msg("csrf refresh failed")
		} else {
			h.setCSRFCookie(c, token)
		}
	}

	c.JSON(http.StatusOK, gin.H{
		"authenticated": authenticated,
		"isAdmin":       authenticated && state.Data.IsAdmin,
	})
}

func currentSessionID(c *gin.Context) string {
	if state, ok := middleware.CurrentSession(c); ok {
		return state.ID
	}
	return ""
}

// respondServiceError maps the service error taxonomy to stable client
// messages. Store-level detail never reaches the response body.
func (h HandlerSet) respondServiceError(c *gin.Context, err error, fallback string) {
	var (
		validationErr *service.ValidationError
		lockedErr     *service.LockedError
	)

	switch {
	case errors.As(err, &validationErr):
		c.JSON(http.StatusBadRequest, gin.H{"error": validationErr.Message})
	case errors.As(err, &lockedErr):
		if lockedErr.JustLocked {
			c.JSON(http.StatusTooManyRequests, gin.H{"error": "Too many failed attempts. Account locked for 15 minutes"})
		} else {
			c.JSON(http.StatusTooManyRequests, gin.H{
				"error": fmt.Sprintf("Account temporarily locked. Try again in %d minute(s)", lockedErr.RemainingMinutes),
			})
		}
	case errors.Is(err, service.ErrInvalidCredentials):
		c.JSON(http.StatusUnauthorized, gin.H{"error": "Invalid credentials"})
	case errors.Is(err, service.ErrInviteInvalid):
		c.JSON(http.StatusBadRequest, gin.H{"error": "Invalid or expired invite token"})
	case errors.Is(err, service.ErrEmailMismatch):
		c.JSON(http.StatusBadRequest, gin.H{"error": "Email does not match invite"})
	case errors.Is(err, service.ErrConflict):
		c.JSON(http.StatusConflict, gin.H{"error": "Username or email already in use"})
	case errors.Is(err, service.ErrSessionIntegrity):
		h.log.Error().Err(err).Msg("session integrity failure")
		c.JSON(http.StatusInternalServerError, gin.H{"error": "Failed to create session"})
	default:
		h.log.Error().Err(err).Msg("auth operation failed")
		c.JSON(http.StatusInternalServerError, gin.H{"error": fallback})
	}
}
