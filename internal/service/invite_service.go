package service

import (
	"context"
	"errors"
	"regexp"
	"strconv"
	"time"

	"github.com/rs/zerolog"

	"moviesearch/api/internal/ids"
	"moviesearch/api/internal/metrics"
	"moviesearch/api/internal/models"
	"moviesearch/api/internal/repository"
	"moviesearch/api/internal/security"
)

const maxInviteUses = 100

var expiresInPattern = regexp.MustCompile(`^(\d+)([hdm])$`)

type InviteService struct {
	invites InviteStore
	metrics *metrics.Metrics
	log     zerolog.Logger
	now     func() time.Time
}

func NewInviteService(invites InviteStore, m *metrics.Metrics, log zerolog.Logger) *InviteService {
	return &InviteService{
		invites: invites,
		metrics: m,
		log:     log,
		now:     time.Now,
	}
}

type CreateInviteInput struct {
	MaxUses      int
	ExpiresIn    string
	EmailAllowed string
	CreatedBy    string
}

// CreatedInvite carries the raw token. This is the only time it exists
// outside the creating request; from here on only the digest is stored.
type CreatedInvite struct {
	ID           string
	Token        string
	ExpiresAt    time.Time
	MaxUses      int
	EmailAllowed string
}

func (s *InviteService) CreateInvite(ctx context.Context, input CreateInviteInput) (CreatedInvite, error) {
	if input.MaxUses < 1 || input.MaxUses > maxInviteUses {
		return CreatedInvite{}, &ValidationError{Message: "maxUses must be between 1 and 100"}
	}

	expiresAt, err := parseExpiresIn(input.ExpiresIn, s.now())
	if err != nil {
		return CreatedInvite{}, err
	}

	if err := validateEmail(input.EmailAllowed); err != nil {
		return CreatedInvite{}, &ValidationError{Message: "Valid email is required"}
	}

	raw, digest, err := security.GenerateInviteToken()
	if err != nil {
		return CreatedInvite{}, err
	}

	emailAllowed := input.EmailAllowed
	invite := models.Invite{
		ID:           ids.New(),
		TokenHash:    digest,
		ExpiresAt:    expiresAt,
		MaxUses:      input.MaxUses,
		EmailAllowed: &emailAllowed,
		CreatedBy:    input.CreatedBy,
	}

	if err := s.invites.Create(ctx, invite); err != nil {
		return CreatedInvite{}, err
	}

	s.metrics.InvitesIssued.Inc()
	s.log.Info().
		Str("invite_id", invite.ID).
		Str("created_by", input.CreatedBy).
		Int("max_uses", input.MaxUses).
		Time("expires_at", expiresAt).
		Msg("invite created")

	return CreatedInvite{
		ID:           invite.ID,
		Token:        raw,
		ExpiresAt:    expiresAt,
		MaxUses:      input.MaxUses,
		EmailAllowed: emailAllowed,
	}, nil
}

// parseExpiresIn accepts durations like "24h", "7d" or "1m" (months).
func parseExpiresIn(expiresIn string, now time.Time) (time.Time, error) {
	match := expiresInPattern.FindStringSubmatch(expiresIn)
	if match == nil {
		return time.Time{}, &ValidationError{Message: `Invalid expiration format. Use format like "24h", "7d", or "1m"`}
	}

	amount, err := strconv.Atoi(match[1])
	if err != nil || amount == 0 {
		return time.Time{}, &ValidationError{Message: `Invalid expiration format. Use format like "24h", "7d", or "1m"`}
	}

	switch match[2] {
	case "h":
		return now.Add(time.Duration(amount) * time.Hour), nil
	case "d":
		return now.AddDate(0, 0, amount), nil
	default: // m
		return now.AddDate(0, amount, 0), nil
	}
}

// ValidateToken resolves a raw token to its invite while the invite is
// redeemable. The length check rejects malformed input before any store
// work; token length alone does not leak validity.
func (s *InviteService) ValidateToken(ctx context.Context, rawToken string) (models.Invite, error) {
	if len(rawToken) != security.InviteTokenLength {
		return models.Invite{}, ErrInviteInvalid
	}

	invite, err := s.invites.FindActiveByTokenHash(ctx, security.HashInviteToken(rawToken))
	if err != nil {
		if errors.Is(err, repository.ErrInviteNotFound) {
			return models.Invite{}, ErrInviteInvalid
		}
		return models.Invite{}, err
	}
	return invite, nil
}

// InviteInfo is the non-consuming pre-check response used by the signup
// form before collecting details.
type InviteInfo struct {
	Valid         bool       `json:"valid"`
	Reason        string     `json:"reason,omitempty"`
	EmailRequired *string    `json:"emailRequired,omitempty"`
	ExpiresAt     *time.Time `json:"expiresAt,omitempty"`
}

func (s *InviteService) GetInviteInfo(ctx context.Context, rawToken string) (InviteInfo, error) {
	if len(rawToken) != security.InviteTokenLength {
		return InviteInfo{Valid: false, Reason: "invalid"}, nil
	}

	invite, err := s.invites.GetByTokenHash(ctx, security.HashInviteToken(rawToken))
	if err != nil {
		if errors.Is(err, repository.ErrInviteNotFound) {
			return InviteInfo{Valid: false, Reason: "invalid"}, nil
		}
		return InviteInfo{}, err
	}

	if status := invite.Status(s.now()); status != models.InviteStatusActive {
		return InviteInfo{Valid: false, Reason: string(status)}, nil
	}

	expiresAt := invite.ExpiresAt
	return InviteInfo{
		Valid:         true,
		EmailRequired: invite.EmailAllowed,
		ExpiresAt:     &expiresAt,
	}, nil
}

func (s *InviteService) List(ctx context.Context) ([]models.Invite, error) {
	return s.invites.List(ctx)
}

// RevokeOrDelete implements the two-step admin flow: the first call revokes,
// a second call on an already-revoked invite hard-deletes it.
func (s *InviteService) RevokeOrDelete(ctx context.Context, id string) (deleted bool, err error) {
	invite, err := s.invites.GetByID(ctx, id)
	if err != nil {
		return false, err
	}

	if invite.Revoked {
		if err := s.invites.Delete(ctx, id); err != nil {
			return false, err
		}
		s.log.Info().Str("invite_id", id).Msg("invite deleted")
		return true, nil
	}

	if err := s.invites.Revoke(ctx, id); err != nil {
		return false, err
	}
	s.log.Info().Str("invite_id", id).Msg("invite revoked")
	return false, nil
}
