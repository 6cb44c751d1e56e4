package service

import (
	"context"
	"strings"
	"sync"
	"time"

	"moviesearch/api/internal/models"
	"moviesearch/api/internal/repository"
)

// In-memory store fakes. They mirror the repository package's sentinel
// errors so the services' errors.Is branches are exercised for real.

type fakeUserStore struct {
	mu    sync.Mutex
	users map[string]models.User // keyed by id

	createWithInviteErr error
	updateLastLoginErr  error
	lastLoginUpdated    []string
	onInviteConsumed    func(inviteID string)
}

func newFakeUserStore() *fakeUserStore {
	return &fakeUserStore{users: map[string]models.User{}}
}

func (f *fakeUserStore) Create(_ context.Context, user models.User) error {
	f.mu.Lock()
	defer f.mu.Unlock()
	for _, existing := range f.users {
		if strings.EqualFold(existing.Username, user.Username) {
			return repository.ErrDuplicateUser
		}
		if user.Email != "" && strings.EqualFold(existing.Email, user.Email) {
			return repository.ErrDuplicateUser
		}
	}
	f.users[user.ID] = user
	return nil
}

func (f *fakeUserStore) CreateWithInvite(ctx context.Context, user models.User, inviteID string) error {
	if f.createWithInviteErr != nil {
		return f.createWithInviteErr
	}
	id := inviteID
	user.CreatedByInviteID = &id
	if err := f.Create(ctx, user); err != nil {
		return err
	}
	if f.onInviteConsumed != nil {
		f.onInviteConsumed(inviteID)
	}
	return nil
}

func (f *fakeUserStore) FindByUsername(_ context.Context, username string) (models.User, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	for _, user := range f.users {
		if strings.EqualFold(user.Username, username) {
			return user, nil
		}
	}
	return models.User{}, repository.ErrUserNotFound
}

func (f *fakeUserStore) FindByEmail(_ context.Context, email string) (models.User, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	for _, user := range f.users {
		if user.Email != "" && strings.EqualFold(user.Email, email) {
			return user, nil
		}
	}
	return models.User{}, repository.ErrUserNotFound
}

func (f *fakeUserStore) GetByID(_ context.Context, id string) (models.User, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	user, ok := f.users[id]
	if !ok {
		return models.User{}, repository.ErrUserNotFound
	}
	return user, nil
}

func (f *fakeUserStore) UpdateLastLogin(_ context.Context, id string) error {
	if f.updateLastLoginErr != nil {
		return f.updateLastLoginErr
	}
	f.mu.Lock()
	defer f.mu.Unlock()
	f.lastLoginUpdated = append(f.lastLoginUpdated, id)
	return nil
}

func (f *fakeUserStore) Count(_ context.Context) (int, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	return len(f.users), nil
}

type fakeInviteStore struct {
	mu      sync.Mutex
	invites map[string]models.Invite // keyed by id
	now     func() time.Time
}

func newFakeInviteStore(now func() time.Time) *fakeInviteStore {
	return &fakeInviteStore{invites: map[string]models.Invite{}, now: now}
}

func (f *fakeInviteStore) Create(_ context.Context, invite models.Invite) error {
	f.mu.Lock()
	defer f.mu.Unlock()
	if invite.CreatedAt.IsZero() {
		invite.CreatedAt = f.now()
	}
	f.invites[invite.ID] = invite
	return nil
}

func (f *fakeInviteStore) FindActiveByTokenHash(ctx context.Context, tokenHash string) (models.Invite, error) {
	invite, err := f.GetByTokenHash(ctx, tokenHash)
	if err != nil {
		return models.Invite{}, err
	}
	if invite.Status(f.now()) != models.InviteStatusActive {
		return models.Invite{}, repository.ErrInviteNotFound
	}
	return invite, nil
}

func (f *fakeInviteStore) GetByTokenHash(_ context.Context, tokenHash string) (models.Invite, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	for _, invite := range f.invites {
		if invite.TokenHash == tokenHash {
			return invite, nil
		}
	}
	return models.Invite{}, repository.ErrInviteNotFound
}

func (f *fakeInviteStore) GetByID(_ context.Context, id string) (models.Invite, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	invite, ok := f.invites[id]
	if !ok {
		return models.Invite{}, repository.ErrInviteNotFound
	}
	return invite, nil
}

func (f *fakeInviteStore) List(_ context.Context) ([]models.Invite, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	out := make([]models.Invite, 0, len(f.invites))
	for _, invite := range f.invites {
		out = append(out, invite)
	}
	return out, nil
}

func (f *fakeInviteStore) Revoke(_ context.Context, id string) error {
	f.mu.Lock()
	defer f.mu.Unlock()
	invite, ok := f.invites[id]
	if !ok {
		return repository.ErrInviteNotFound
	}
	invite.Revoked = true
	f.invites[id] = invite
	return nil
}

func (f *fakeInviteStore) Delete(_ context.Context, id string) error {
	f.mu.Lock()
	defer f.mu.Unlock()
	if _, ok := f.invites[id]; !ok {
		return repository.ErrInviteNotFound
	}
	delete(f.invites, id)
	return nil
}

func (f *fakeInviteStore) recordUse(id string) {
	f.mu.Lock()
	defer f.mu.Unlock()
	invite := f.invites[id]
	invite.Uses++
	f.invites[id] = invite
}

type fakeAttemptStore struct {
	mu      sync.Mutex
	records map[string]models.LoginAttempt
	now     func() time.Time
}

func newFakeAttemptStore(now func() time.Time) *fakeAttemptStore {
	return &fakeAttemptStore{records: map[string]models.LoginAttempt{}, now: now}
}

func (f *fakeAttemptStore) Get(_ context.Context, username string) (models.LoginAttempt, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	record, ok := f.records[username]
	if !ok {
		return models.LoginAttempt{}, repository.ErrAttemptNotFound
	}
	return record, nil
}

func (f *fakeAttemptStore) RecordFailure(_ context.Context, username string) (int, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	record := f.records[username]
	record.Username = username
	record.Attempts++
	if record.Attempts >= repository.MaxFailedAttempts {
		lockedUntil := f.now().Add(repository.LockoutDuration)
		record.LockedUntil = &lockedUntil
	}
	f.records[username] = record
	return record.Attempts, nil
}

func (f *fakeAttemptStore) Clear(_ context.Context, username string) error {
	f.mu.Lock()
	defer f.mu.Unlock()
	delete(f.records, username)
	return nil
}
