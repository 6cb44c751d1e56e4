package handlers

import (
	"errors"
	"net/http"
	"time"

	"github.com/gin-gonic/gin"

	"moviesearch/api/internal/models"
	"moviesearch/api/internal/repository"
	"moviesearch/api/internal/service"
)

type createInviteRequest struct {
	MaxUses      *int   `json:"maxUses"`
	ExpiresIn    string `json:"expiresIn"`
	EmailAllowed string `json:"emailAllowed"`
}

func (h HandlerSet) CreateInvite(c *gin.Context) {
	var req createInviteRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": "Invalid request body"})
		return
	}

	maxUses := 1
	if req.MaxUses != nil {
		maxUses = *req.MaxUses
	}
	expiresIn := req.ExpiresIn
	if expiresIn == "" {
		expiresIn = "7d"
	}

	adminVal, _ := c.Get("current_user")
	admin, ok := adminVal.(models.User)
	if !ok {
		c.JSON(http.StatusUnauthorized, gin.H{"error": "Unauthorized"})
		return
	}

	invite, err := h.inviteService.CreateInvite(c.Request.Context(), service.CreateInviteInput{
		MaxUses:      maxUses,
		ExpiresIn:    expiresIn,
		EmailAllowed: req.EmailAllowed,
		CreatedBy:    admin.ID,
	})
	if err != nil {
		var validationErr *service.ValidationError
		if errors.As(err, &validationErr) {
			c.JSON(http.StatusBadRequest, gin.H{"error": validationErr.Message})
			return
		}
		h.log.Error().Err(err).Msg("create invite failed")
		c.JSON(http.StatusInternalServerError, gin.H{"error": "Failed to create invite"})
		return
	}

	c.JSON(http.StatusCreated, gin.H{
		"success":   true,
		"token":     invite.Token,
		"inviteUrl": h.cfg.BaseURL + "/signup?token=" + invite.Token,
		"expiresAt": invite.ExpiresAt,
	})
}

type inviteResponse struct {
	ID           string              `json:"id"`
	ExpiresAt    time.Time           `json:"expires_at"`
	MaxUses      int                 `json:"max_uses"`
	Uses         int                 `json:"uses"`
	EmailAllowed *string             `json:"email_allowed"`
	CreatedAt    time.Time           `json:"created_at"`
	Revoked      bool                `json:"revoked"`
	Status       models.InviteStatus `json:"status"`
}

func (h HandlerSet) ListInvites(c *gin.Context) {
	invites, err := h.inviteService.List(c.Request.Context())
	if err != nil {
		h.log.Error().Err(err).Msg("list invites failed")
		c.JSON(http.StatusInternalServerError, gin.H{"error": "Failed to list invites"})
		return
	}

	now := time.Now()
	resp := make([]inviteResponse, 0, len(invites))
	for _, invite := range invites {
		resp = append(resp, inviteResponse{
			ID:           invite.ID,
			ExpiresAt:    invite.ExpiresAt,
			MaxUses:      invite.MaxUses,
			Uses:         invite.Uses,
			EmailAllowed: invite.EmailAllowed,
			CreatedAt:    invite.CreatedAt,
			Revoked:      invite.Revoked,
			Status:       invite.Status(now),
		})
	}

	c.JSON(http.StatusOK, gin.H{"invites": resp})
}

func (h HandlerSet) DeleteInvite(c *gin.Context) {
	id := c.Param("id")
	if id == "" {
		c.JSON(http.StatusBadRequest, gin.H{"error": "Invalid invite ID"})
		return
	}

	deleted, err := h.inviteService.RevokeOrDelete(c.Request.Context(), id)
	if err != nil {
		if errors.Is(err, repository.ErrInviteNotFound) {
			c.JSON(http.StatusNotFound, gin.H{"error": "Invite not found"})
			return
		}
		h.log.Error().Err(err).Msg("revoke invite failed")
		c.JSON(http.StatusInternalServerError, gin.H{"error": "Failed to process invite"})
		return
	}

	if deleted {
		c.JSON(http.StatusOK, gin.H{"success": true, "deleted": true})
		return
	}
	c.JSON(http.StatusOK, gin.H{"success": true, "revoked": true})
}
