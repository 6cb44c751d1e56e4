package service

import (
	"context"
	"errors"
	"fmt"
	"math"
	"strings"
	"time"

	"github.com/rs/zerolog"

	"moviesearch/api/internal/config"
	"moviesearch/api/internal/ids"
	"moviesearch/api/internal/metrics"
	"moviesearch/api/internal/models"
	"moviesearch/api/internal/repository"
	"moviesearch/api/internal/security"
	"moviesearch/api/internal/session"
)

// AuthService is the login/signup/logout state machine. It owns all
// transitions on session state; nothing else writes to the session store.
type AuthService struct {
	users    UserStore
	invites  *InviteService
	attempts AttemptStore
	sessions *session.Manager
	metrics  *metrics.Metrics
	cfg      *config.AppConfig
	log      zerolog.Logger
	now      func() time.Time
}

func NewAuthService(
	users UserStore,
	invites *InviteService,
	attempts AttemptStore,
	sessions *session.Manager,
	m *metrics.Metrics,
	cfg *config.AppConfig,
	log zerolog.Logger,
) *AuthService {
	return &AuthService{
		users:    users,
		invites:  invites,
		attempts: attempts,
		sessions: sessions,
		metrics:  m,
		cfg:      cfg,
		log:      log,
		now:      time.Now,
	}
}

type LoginInput struct {
	Username string
	Password string
	// SessionID is the caller's pre-auth session id, if any. It is
	// discarded on success; a fresh id is issued to prevent fixation.
	SessionID string
}

// AuthResult describes the post-transition session state. The handler turns
// it into cookies; the service never touches the HTTP layer.
type AuthResult struct {
	SessionID string
	CSRFToken string
	UserID    string
	IsAdmin   bool
}

func (s *AuthService) Login(ctx context.Context, input LoginInput) (AuthResult, error) {
	if input.Username == "" || input.Password == "" {
		return AuthResult{}, &ValidationError{Message: "Username and password required"}
	}

	normalized := strings.ToLower(input.Username)

	if lockErr, err := s.checkLockout(ctx, normalized); err != nil {
		return AuthResult{}, err
	} else if lockErr != nil {
		return AuthResult{}, lockErr
	}

	user, err := s.users.FindByUsername(ctx, input.Username)
	var hash []byte
	switch {
	case err == nil:
		hash = user.PasswordHash
	case errors.Is(err, repository.ErrUserNotFound):
		// Leave hash nil; the verifier still runs one comparison.
	default:
		return AuthResult{}, err
	}

	if !security.VerifyPasswordTimingSafe(hash, input.Password) {
		return AuthResult{}, s.recordFailure(ctx, normalized)
	}

	if err := s.attempts.Clear(ctx, normalized); err != nil {
		return AuthResult{}, err
	}
	if err := s.users.UpdateLastLogin(ctx, user.ID); err != nil {
		s.log.Warn().Err(err).Str("user_id", user.ID).Msg("update last login failed")
	}

	result, err := s.establishSession(ctx, input.SessionID, user.ID, user.IsAdmin)
	if err != nil {
		return AuthResult{}, err
	}

	s.metrics.Logins.Inc()
	s.log.Info().Str("user_id", user.ID).Bool("is_admin", user.IsAdmin).Msg("login")
	return result, nil
}

func (s *AuthService) checkLockout(ctx context.Context, normalized string) (*LockedError, error) {
	attempt, err := s.attempts.Get(ctx, normalized)
	if err != nil {
		if errors.Is(err, repository.ErrAttemptNotFound) {
			return nil, nil
		}
		return nil, err
	}

	if attempt.LockedUntil == nil {
		return nil, nil
	}

	now := s.now()
	if attempt.LockedUntil.After(now) {
		remaining := int(math.Ceil(attempt.LockedUntil.Sub(now).Minutes()))
		if remaining < 1 {
			remaining = 1
		}
		return &LockedError{RemainingMinutes: remaining}, nil
	}

	// Lockout elapsed; clear the record so the counter starts over.
	if err := s.attempts.Clear(ctx, normalized); err != nil {
		return nil, err
	}
	return nil, nil
}

func (s *AuthService) recordFailure(ctx context.Context, normalized string) error {
	s.metrics.LoginFailures.Inc()

	attempts, err := s.attempts.RecordFailure(ctx, normalized)
	if err != nil {
		return err
	}

	if attempts >= repository.MaxFailedAttempts {
		s.metrics.Lockouts.Inc()
		s.log.Warn().Str("username", normalized).Int("attempts", attempts).Msg("account locked")
		return &LockedError{
			RemainingMinutes: int(repository.LockoutDuration.Minutes()),
			JustLocked:       true,
		}
	}
	return ErrInvalidCredentials
}

type SignupInput struct {
	Token     string
	Username  string
	Email     string
	Password  string
	SessionID string
}

func (s *AuthService) Signup(ctx context.Context, input SignupInput) (AuthResult, error) {
	if input.Token == "" {
		return AuthResult{}, &ValidationError{Message: "Invite token required"}
	}
	if err := validateUsername(input.Username); err != nil {
		return AuthResult{}, err
	}
	if err := validateEmail(input.Email); err != nil {
		return AuthResult{}, err
	}
	if err := validatePassword(input.Password); err != nil {
		return AuthResult{}, err
	}

	invite, err := s.invites.ValidateToken(ctx, input.Token)
	if err != nil {
		return AuthResult{}, err
	}

	if invite.EmailAllowed != nil && !emailsMatch(*invite.EmailAllowed, input.Email) {
		return AuthResult{}, ErrEmailMismatch
	}

	if err := s.checkUniqueness(ctx, input.Username, input.Email); err != nil {
		return AuthResult{}, err
	}

	passwordHash, err := security.HashPassword(input.Password, s.cfg.Security.BcryptCost)
	if err != nil {
		return AuthResult{}, err
	}

	user := models.User{
		ID:           ids.New(),
		Username:     input.Username,
		Email:        input.Email,
		PasswordHash: passwordHash,
	}

	if err := s.users.CreateWithInvite(ctx, user, invite.ID); err != nil {
		switch {
		case errors.Is(err, repository.ErrDuplicateUser):
			return AuthResult{}, ErrConflict
		case errors.Is(err, repository.ErrInviteUnavailable):
			// Lost a race for the invite's last use.
			return AuthResult{}, ErrInviteInvalid
		default:
			return AuthResult{}, err
		}
	}

	result, err := s.establishSession(ctx, input.SessionID, user.ID, false)
	if err != nil {
		return AuthResult{}, err
	}

	s.metrics.Signups.Inc()
	s.metrics.InvitesRedeemed.Inc()
	s.log.Info().
		Str("user_id", user.ID).
		Str("invite_id", invite.ID).
		Msg("signup")
	return result, nil
}

// checkUniqueness reports one generic conflict for either collision.
func (s *AuthService) checkUniqueness(ctx context.Context, username string, email string) error {
	if _, err := s.users.FindByUsername(ctx, username); err == nil {
		return ErrConflict
	} else if !errors.Is(err, repository.ErrUserNotFound) {
		return err
	}

	if _, err := s.users.FindByEmail(ctx, email); err == nil {
		return ErrConflict
	} else if !errors.Is(err, repository.ErrUserNotFound) {
		return err
	}
	return nil
}

// emailsMatch folds case and surrounding whitespace; no Unicode
// normalization beyond that.
func emailsMatch(allowed string, supplied string) bool {
	return strings.EqualFold(strings.TrimSpace(allowed), strings.TrimSpace(supplied))
}

// establishSession regenerates the session and mints a fresh CSRF token.
// Authenticated state only ever lives under the newly issued id.
func (s *AuthService) establishSession(ctx context.Context, oldSID string, userID string, isAdmin bool) (AuthResult, error) {
	csrfToken, err := security.GenerateCSRFToken()
	if err != nil {
		return AuthResult{}, fmt.Errorf("%w: %v", ErrSessionIntegrity, err)
	}

	data := session.Data{
		Authenticated: true,
		UserID:        userID,
		IsAdmin:       isAdmin,
		CSRFToken:     csrfToken,
	}

	sid, err := s.sessions.Regenerate(ctx, oldSID, data)
	if err != nil {
		return AuthResult{}, fmt.Errorf("%w: %v", ErrSessionIntegrity, err)
	}

	return AuthResult{
		SessionID: sid,
		CSRFToken: csrfToken,
		UserID:    userID,
		IsAdmin:   isAdmin,
	}, nil
}

func (s *AuthService) Logout(ctx context.Context, sessionID string) error {
	if sessionID == "" {
		return nil
	}
	if err := s.sessions.Destroy(ctx, sessionID); err != nil {
		return fmt.Errorf("%w: %v", ErrSessionIntegrity, err)
	}
	return nil
}

// BootstrapAdmin seeds the single admin account from the legacy environment
// credential pair. It is a no-op once any user exists.
func (s *AuthService) BootstrapAdmin(ctx context.Context) error {
	username := s.cfg.Bootstrap.AdminUsername
	password := s.cfg.Bootstrap.AdminPassword
	if username == "" || password == "" {
		return nil
	}

	count, err := s.users.Count(ctx)
	if err != nil {
		return err
	}
	if count > 0 {
		return nil
	}

	passwordHash, err := security.HashPassword(password, s.cfg.Security.BcryptCost)
	if err != nil {
		return err
	}

	admin := models.User{
		ID:           ids.New(),
		Username:     username,
		PasswordHash: passwordHash,
		IsAdmin:      true,
	}
	if err := s.users.Create(ctx, admin); err != nil {
		return err
	}

	s.log.Info().Str("username", username).Msg("migrated environment credentials as admin user")
	return nil
}
