package repository

import (
	"context"
	"errors"

	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgxpool"

	"moviesearch/api/internal/models"
)

var ErrInviteNotFound = errors.New("invite not found")

const inviteColumns = `id, token_hash, expires_at, max_uses, uses, email_allowed, created_by, created_at, revoked`

type InviteRepository struct {
	pool *pgxpool.Pool
}

func NewInviteRepository(pool *pgxpool.Pool) *InviteRepository {
	return &InviteRepository{pool: pool}
}

func (r *InviteRepository) Create(ctx context.Context, invite models.Invite) error {
	const query = `
		INSERT INTO invites (id, token_hash, expires_at, max_uses, email_allowed, created_by, created_at)
		VALUES ($1, $2, $3, $4, $5, $6, NOW())
	`
	_, err := r.pool.Exec(ctx, query,
		invite.ID,
		invite.TokenHash,
		invite.ExpiresAt,
		invite.MaxUses,
		invite.EmailAllowed,
		invite.CreatedBy,
	)
	return err
}

// FindActiveByTokenHash resolves a digest to its invite only while the
// invite is redeemable. Folding the status checks into the query keeps
// validation atomic with the read.
func (r *InviteRepository) FindActiveByTokenHash(ctx context.Context, tokenHash string) (models.Invite, error) {
	const query = `
		SELECT ` + inviteColumns + `
		FROM invites
		WHERE token_hash = $1
		  AND NOT revoked
		  AND uses < max_uses
		  AND expires_at > NOW()
	`
	return r.scanInvite(r.pool.QueryRow(ctx, query, tokenHash))
}

// GetByTokenHash resolves a digest regardless of status, for the
// non-consuming pre-check.
func (r *InviteRepository) GetByTokenHash(ctx context.Context, tokenHash string) (models.Invite, error) {
	const query = `SELECT ` + inviteColumns + ` FROM invites WHERE token_hash = $1`
	return r.scanInvite(r.pool.QueryRow(ctx, query, tokenHash))
}

func (r *InviteRepository) GetByID(ctx context.Context, id string) (models.Invite, error) {
	const query = `SELECT ` + inviteColumns + ` FROM invites WHERE id = $1`
	return r.scanInvite(r.pool.QueryRow(ctx, query, id))
}

func (r *InviteRepository) List(ctx context.Context) ([]models.Invite, error) {
	const query = `SELECT ` + inviteColumns + ` FROM invites ORDER BY created_at DESC`

	rows, err := r.pool.Query(ctx, query)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	var invites []models.Invite
	for rows.Next() {
		invite, err := r.scanInvite(rows)
		if err != nil {
			return nil, err
		}
		invites = append(invites, invite)
	}
	return invites, rows.Err()
}

// Revoke is one-way; a revoked invite can later be deleted but never
// un-revoked.
func (r *InviteRepository) Revoke(ctx context.Context, id string) error {
	const query = `UPDATE invites SET revoked = TRUE WHERE id = $1`
	cmd, err := r.pool.Exec(ctx, query, id)
	if err != nil {
		return err
	}
	if cmd.RowsAffected() == 0 {
		return ErrInviteNotFound
	}
	return nil
}

func (r *InviteRepository) Delete(ctx context.Context, id string) error {
	const query = `DELETE FROM invites WHERE id = $1`
	cmd, err := r.pool.Exec(ctx, query, id)
	if err != nil {
		return err
	}
	if cmd.RowsAffected() == 0 {
		return ErrInviteNotFound
	}
	return nil
}

func (r *InviteRepository) scanInvite(row pgx.Row) (models.Invite, error) {
	var invite models.Invite
	if err := row.Scan(
		&invite.ID,
		&invite.TokenHash,
		&invite.ExpiresAt,
		&invite.MaxUses,
		&invite.Uses,
		&invite.EmailAllowed,
		&invite.CreatedBy,
		&invite.CreatedAt,
		&invite.Revoked,
	); err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return models.Invite{}, ErrInviteNotFound
		}
		return models.Invite{}, err
	}
	return invite, nil
}
