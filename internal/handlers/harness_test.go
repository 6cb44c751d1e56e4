package handlers

import (
	"bytes"
	"context"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"strings"
	"sync"
	"testing"
	"time"

	"github.com/alicebob/miniredis/v2"
	"github.com/gin-gonic/gin"
	"github.com/prometheus/client_golang/prometheus"
	"github.com/redis/go-redis/v9"
	"github.com/rs/zerolog"
	"github.com/stretchr/testify/require"
	"golang.org/x/crypto/bcrypt"

	"moviesearch/api/internal/config"
	"moviesearch/api/internal/metrics"
	"moviesearch/api/internal/middleware"
	"moviesearch/api/internal/models"
	"moviesearch/api/internal/repository"
	"moviesearch/api/internal/security"
	"moviesearch/api/internal/service"
	"moviesearch/api/internal/session"
)

// memDB backs the store interfaces with shared in-memory state so the
// cross-store semantics (invite consumption during user creation) behave
// like the real transactional repository.
type memDB struct {
	mu       sync.Mutex
	users    map[string]models.User
	invites  map[string]models.Invite
	attempts map[string]models.LoginAttempt
}

func newMemDB() *memDB {
	return &memDB{
		users:    map[string]models.User{},
		invites:  map[string]models.Invite{},
		attempts: map[string]models.LoginAttempt{},
	}
}

type memUsers struct{ db *memDB }

func (s memUsers) Create(_ context.Context, user models.User) error {
	s.db.mu.Lock()
	defer s.db.mu.Unlock()
	return s.db.insertUserLocked(user)
}

func (db *memDB) insertUserLocked(user models.User) error {
	for _, existing := range db.users {
		if strings.EqualFold(existing.Username, user.Username) {
			return repository.ErrDuplicateUser
		}
		if user.Email != "" && strings.EqualFold(existing.Email, user.Email) {
			return repository.ErrDuplicateUser
		}
	}
	db.users[user.ID] = user
	return nil
}

func (s memUsers) CreateWithInvite(_ context.Context, user models.User, inviteID string) error {
	s.db.mu.Lock()
	defer s.db.mu.Unlock()

	invite, ok := s.db.invites[inviteID]
	if !ok || invite.Revoked || invite.Uses >= invite.MaxUses || !time.Now().Before(invite.ExpiresAt) {
		return repository.ErrInviteUnavailable
	}

	id := inviteID
	user.CreatedByInviteID = &id
	if err := s.db.insertUserLocked(user); err != nil {
		return err
	}
	invite.Uses++
	s.db.invites[inviteID] = invite
	return nil
}

func (s memUsers) FindByUsername(_ context.Context, username string) (models.User, error) {
	s.db.mu.Lock()
	defer s.db.mu.Unlock()
	for _, user := range s.db.users {
		if strings.EqualFold(user.Username, username) {
			return user, nil
		}
	}
	return models.User{}, repository.ErrUserNotFound
}

func (s memUsers) FindByEmail(_ context.Context, email string) (models.User, error) {
	s.db.mu.Lock()
	defer s.db.mu.Unlock()
	for _, user := range s.db.users {
		if user.Email != "" && strings.EqualFold(user.Email, email) {
			return user, nil
		}
	}
	return models.User{}, repository.ErrUserNotFound
}

func (s memUsers) GetByID(_ context.Context, id string) (models.User, error) {
	s.db.mu.Lock()
	defer s.db.mu.Unlock()
	user, ok := s.db.users[id]
	if !ok {
		return models.User{}, repository.ErrUserNotFound
	}
	return user, nil
}

func (s memUsers) UpdateLastLogin(_ context.Context, id string) error {
	s.db.mu.Lock()
	defer s.db.mu.Unlock()
	user, ok := s.db.users[id]
	if !ok {
		return repository.ErrUserNotFound
	}
	now := time.Now()
	user.LastLoginAt = &now
	s.db.users[id] = user
	return nil
}

func (s memUsers) Count(_ context.Context) (int, error) {
	s.db.mu.Lock()
	defer s.db.mu.Unlock()
	return len(s.db.users), nil
}

type memInvites struct{ db *memDB }

func (s memInvites) Create(_ context.Context, invite models.Invite) error {
	s.db.mu.Lock()
	defer s.db.mu.Unlock()
	if invite.CreatedAt.IsZero() {
		invite.CreatedAt = time.Now()
	}
	s.db.invites[invite.ID] = invite
	return nil
}

func (s memInvites) FindActiveByTokenHash(ctx context.Context, tokenHash string) (models.Invite, error) {
	invite, err := s.GetByTokenHash(ctx, tokenHash)
	if err != nil {
		return models.Invite{}, err
	}
	if invite.Status(time.Now()) != models.InviteStatusActive {
		return models.Invite{}, repository.ErrInviteNotFound
	}
	return invite, nil
}

func (s memInvites) GetByTokenHash(_ context.Context, tokenHash string) (models.Invite, error) {
	s.db.mu.Lock()
	defer s.db.mu.Unlock()
	for _, invite := range s.db.invites {
		if invite.TokenHash == tokenHash {
			return invite, nil
		}
	}
	return models.Invite{}, repository.ErrInviteNotFound
}

func (s memInvites) GetByID(_ context.Context, id string) (models.Invite, error) {
	s.db.mu.Lock()
	defer s.db.mu.Unlock()
	invite, ok := s.db.invites[id]
	if !ok {
		return models.Invite{}, repository.ErrInviteNotFound
	}
	return invite, nil
}

func (s memInvites) List(_ context.Context) ([]models.Invite, error) {
	s.db.mu.Lock()
	defer s.db.mu.Unlock()
	out := make([]models.Invite, 0, len(s.db.invites))
	for _, invite := range s.db.invites {
		out = append(out, invite)
	}
	return out, nil
}

func (s memInvites) Revoke(_ context.Context, id string) error {
	s.db.mu.Lock()
	defer s.db.mu.Unlock()
	invite, ok := s.db.invites[id]
	if !ok {
		return repository.ErrInviteNotFound
	}
	invite.Revoked = true
	s.db.invites[id] = invite
	return nil
}

func (s memInvites) Delete(_ context.Context, id string) error {
	s.db.mu.Lock()
	defer s.db.mu.Unlock()
	if _, ok := s.db.invites[id]; !ok {
		return repository.ErrInviteNotFound
	}
	delete(s.db.invites, id)
	return nil
}

type memAttempts struct{ db *memDB }

func (s memAttempts) Get(_ context.Context, username string) (models.LoginAttempt, error) {
	s.db.mu.Lock()
	defer s.db.mu.Unlock()
	record, ok := s.db.attempts[username]
	if !ok {
		return models.LoginAttempt{}, repository.ErrAttemptNotFound
	}
	return record, nil
}

func (s memAttempts) RecordFailure(_ context.Context, username string) (int, error) {
	s.db.mu.Lock()
	defer s.db.mu.Unlock()
	record := s.db.attempts[username]
	record.Username = username
	record.Attempts++
	if record.Attempts >= repository.MaxFailedAttempts {
		lockedUntil := time.Now().Add(repository.LockoutDuration)
		record.LockedUntil = &lockedUntil
	}
	s.db.attempts[username] = record
	return record.Attempts, nil
}

func (s memAttempts) Clear(_ context.Context, username string) error {
	s.db.mu.Lock()
	defer s.db.mu.Unlock()
	delete(s.db.attempts, username)
	return nil
}

type harness struct {
	engine   *gin.Engine
	db       *memDB
	sessions *session.Manager
	cfg      *config.AppConfig
	authSvc  *service.AuthService
}

func newHarness(t *testing.T) *harness {
	t.Helper()
	gin.SetMode(gin.TestMode)

	mr := miniredis.RunT(t)
	client := redis.NewClient(&redis.Options{Addr: mr.Addr()})
	t.Cleanup(func() { _ = client.Close() })

	db := newMemDB()
	users := memUsers{db: db}
	invites := memInvites{db: db}
	attempts := memAttempts{db: db}

	cfg := &config.AppConfig{
		Environment: "test",
		BaseURL:     "http://localhost:8080",
		Security: config.SecurityConfig{
			BcryptCost:   bcrypt.MinCost,
			CookieSecret: "test-secret",
			SessionTTL:   time.Hour,
		},
		RateLimit: config.RateLimitConfig{Window: 15 * time.Minute},
	}

	logger := zerolog.Nop()
	m := metrics.New(prometheus.NewRegistry())
	sessions := session.NewManager(client, cfg.Security.SessionTTL)

	inviteSvc := service.NewInviteService(invites, m, logger)
	authSvc := service.NewAuthService(users, inviteSvc, attempts, sessions, m, cfg, logger)

	h := HandlerSet{
		log:           logger,
		cfg:           cfg,
		authService:   authSvc,
		inviteService: inviteSvc,
		sessions:      sessions,
		users:         users,
	}

	engine := gin.New()
	h.Register(engine.Group(""))

	return &harness{
		engine:   engine,
		db:       db,
		sessions: sessions,
		cfg:      cfg,
		authSvc:  authSvc,
	}
}

func (h *harness) seedUser(t *testing.T, username, email, password string, isAdmin bool) models.User {
	t.Helper()
	hash, err := security.HashPassword(password, bcrypt.MinCost)
	require.NoError(t, err)
	user := models.User{
		ID:           "user-" + username,
		Username:     username,
		Email:        email,
		PasswordHash: hash,
		IsAdmin:      isAdmin,
	}
	h.db.mu.Lock()
	defer h.db.mu.Unlock()
	require.NoError(t, h.db.insertUserLocked(user))
	return user
}

// client carries the cookie jar and CSRF echo across requests, standing in
// for the browser.
type client struct {
	t       *testing.T
	engine  *gin.Engine
	cookies map[string]string
}

func newClient(t *testing.T, h *harness) *client {
	return &client{t: t, engine: h.engine, cookies: map[string]string{}}
}

func (c *client) do(method, path string, body any, header map[string]string) *httptest.ResponseRecorder {
	c.t.Helper()

	var reader *bytes.Reader
	if body != nil {
		payload, err := json.Marshal(body)
		require.NoError(c.t, err)
		reader = bytes.NewReader(payload)
	} else {
		reader = bytes.NewReader(nil)
	}

	req := httptest.NewRequest(method, path, reader)
	if body != nil {
		req.Header.Set("Content-Type", "application/json")
	}
	for name, value := range c.cookies {
		req.AddCookie(&http.Cookie{Name: name, Value: value})
	}
	for name, value := range header {
		req.Header.Set(name, value)
	}

	rec := httptest.NewRecorder()
	c.engine.ServeHTTP(rec, req)

	for _, cookie := range rec.Result().Cookies() {
		if cookie.MaxAge < 0 || cookie.Value == "" {
			delete(c.cookies, cookie.Name)
			continue
		}
		c.cookies[cookie.Name] = cookie.Value
	}
	return rec
}

// doCSRF echoes the csrf cookie in the X-CSRF-Token header, as the
// frontend does for unsafe requests.
func (c *client) doCSRF(method, path string, body any) *httptest.ResponseRecorder {
	return c.do(method, path, body, map[string]string{
		middleware.CSRFHeaderName: c.cookies[middleware.CSRFCookieName],
	})
}

func (c *client) login(username, password string) *httptest.ResponseRecorder {
	return c.do(http.MethodPost, "/api/login", gin.H{"username": username, "password": password}, nil)
}

// rawRequest sends a body with an explicit content type, bypassing the
// client's JSON plumbing.
func rawRequest(t *testing.T, h *harness, method, path, body, contentType string) *httptest.ResponseRecorder {
	t.Helper()
	req := httptest.NewRequest(method, path, strings.NewReader(body))
	req.Header.Set("Content-Type", contentType)
	rec := httptest.NewRecorder()
	h.engine.ServeHTTP(rec, req)
	return rec
}

func decodeBody(t *testing.T, rec *httptest.ResponseRecorder) map[string]any {
	t.Helper()
	var body map[string]any
	require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &body))
	return body
}
