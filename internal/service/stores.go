package service

import (
	"context"

	"moviesearch/api/internal/models"
)

// Store contracts implemented by the repository package. Services accept the
// interfaces so state-machine behavior is testable without a live database.

type UserStore interface {
	Create(ctx context.Context, user models.User) error
	CreateWithInvite(ctx context.Context, user models.User, inviteID string) error
	FindByUsername(ctx context.Context, username string) (models.User, error)
	FindByEmail(ctx context.Context, email string) (models.User, error)
	GetByID(ctx context.Context, id string) (models.User, error)
	UpdateLastLogin(ctx context.Context, id string) error
	Count(ctx context.Context) (int, error)
}

type InviteStore interface {
	Create(ctx context.Context, invite models.Invite) error
	FindActiveByTokenHash(ctx context.Context, tokenHash string) (models.Invite, error)
	GetByTokenHash(ctx context.Context, tokenHash string) (models.Invite, error)
	GetByID(ctx context.Context, id string) (models.Invite, error)
	List(ctx context.Context) ([]models.Invite, error)
	Revoke(ctx context.Context, id string) error
	Delete(ctx context.Context, id string) error
}

type AttemptStore interface {
	Get(ctx context.Context, username string) (models.LoginAttempt, error)
	RecordFailure(ctx context.Context, username string) (int, error)
	Clear(ctx context.Context, username string) error
}
