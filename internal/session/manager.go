package session

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"time"

	"github.com/redis/go-redis/v9"

	"moviesearch/api/internal/security"
)

var ErrNotFound = errors.New("session not found")

const keyPrefix = "session:"

// Data is the server-side session state. The rest of the application reads
// Authenticated, UserID and IsAdmin; the CSRF token is bound to the session
// and rotates whenever the session is regenerated.
type Data struct {
	Authenticated bool   `json:"authenticated"`
	UserID        string `json:"userId"`
	IsAdmin       bool   `json:"isAdmin"`
	CSRFToken     string `json:"csrfToken"`
}

// Manager stores sessions in Redis keyed by an opaque identifier. Expiry is
// enforced by the store itself via the configured TTL.
type Manager struct {
	client *redis.Client
	ttl    time.Duration
}

func NewManager(client *redis.Client, ttl time.Duration) *Manager {
	return &Manager{client: client, ttl: ttl}
}

func (m *Manager) Get(ctx context.Context, sid string) (Data, error) {
	raw, err := m.client.Get(ctx, keyPrefix+sid).Bytes()
	if err != nil {
		if errors.Is(err, redis.Nil) {
			return Data{}, ErrNotFound
		}
		return Data{}, fmt.Errorf("session get: %w", err)
	}

	var data Data
	if err := json.Unmarshal(raw, &data); err != nil {
		return Data{}, fmt.Errorf("session decode: %w", err)
	}
	return data, nil
}

func (m *Manager) Save(ctx context.Context, sid string, data Data) error {
	raw, err := json.Marshal(data)
	if err != nil {
		return fmt.Errorf("session encode: %w", err)
	}
	if err := m.client.Set(ctx, keyPrefix+sid, raw, m.ttl).Err(); err != nil {
		return fmt.Errorf("session save: %w", err)
	}
	return nil
}

// Regenerate allocates and persists a fresh session id carrying data, then
// discards the old session. The new id is durable before the old one is
// touched, so a failure leaves the request safely unauthenticated.
func (m *Manager) Regenerate(ctx context.Context, oldSID string, data Data) (string, error) {
	sid, err := security.GenerateSessionID()
	if err != nil {
		return "", err
	}
	if err := m.Save(ctx, sid, data); err != nil {
		return "", err
	}
	if oldSID != "" {
		if err := m.client.Del(ctx, keyPrefix+oldSID).Err(); err != nil {
			return "", fmt.Errorf("session discard: %w", err)
		}
	}
	return sid, nil
}

func (m *Manager) Destroy(ctx context.Context, sid string) error {
	if err := m.client.Del(ctx, keyPrefix+sid).Err(); err != nil {
		return fmt.Errorf("session destroy: %w", err)
	}
	return nil
}

// EnsureCSRF lazily mints the session's double-submit token on first need.
func (m *Manager) EnsureCSRF(ctx context.Context, sid string, data *Data) (string, error) {
	if data.CSRFToken != "" {
		return data.CSRFToken, nil
	}

	token, err := security.GenerateCSRFToken()
	if err != nil {
		return "", err
	}
	data.CSRFToken = token
	if err := m.Save(ctx, sid, *data); err != nil {
		return "", err
	}
	return token, nil
}
