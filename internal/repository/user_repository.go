package repository

import (
	"context"
	"errors"

	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgconn"
	"github.com/jackc/pgx/v5/pgxpool"

	"moviesearch/api/internal/models"
)

var (
	ErrUserNotFound = errors.New("user not found")
	// ErrDuplicateUser covers both username and email collisions. Callers
	// must not disclose which field collided.
	ErrDuplicateUser = errors.New("username or email already in use")
	// ErrInviteUnavailable is returned when the invite could not be consumed
	// inside the signup transaction (revoked, expired or exhausted since
	// validation, possibly by a concurrent redemption).
	ErrInviteUnavailable = errors.New("invite unavailable")
)

const userColumns = `id, username, email, password_hash, is_admin, created_by_invite_id, created_at, last_login_at`

type UserRepository struct {
	pool *pgxpool.Pool
}

func NewUserRepository(pool *pgxpool.Pool) *UserRepository {
	return &UserRepository{pool: pool}
}

func (r *UserRepository) Create(ctx context.Context, user models.User) error {
	const query = `
		INSERT INTO users (id, username, email, password_hash, is_admin, created_by_invite_id, created_at)
		VALUES ($1, $2, NULLIF($3, ''), $4, $5, $6, NOW())
	`

	_, err := r.pool.Exec(ctx, query,
		user.ID,
		user.Username,
		user.Email,
		user.PasswordHash,
		user.IsAdmin,
		user.CreatedByInviteID,
	)
	if isUniqueViolation(err) {
		return ErrDuplicateUser
	}
	return err
}

// CreateWithInvite creates the user row and consumes the invite in one
// transaction: either both persist or neither does. The invite update is
// conditional on the invite still being redeemable, so two concurrent
// redemptions of a single-use invite cannot both succeed.
func (r *UserRepository) CreateWithInvite(ctx context.Context, user models.User, inviteID string) error {
	tx, err := r.pool.Begin(ctx)
	if err != nil {
		return err
	}
	defer tx.Rollback(ctx)

	const consumeQuery = `
		UPDATE invites
		SET uses = uses + 1
		WHERE id = $1
		  AND NOT revoked
		  AND uses < max_uses
		  AND expires_at > NOW()
	`
	cmd, err := tx.Exec(ctx, consumeQuery, inviteID)
	if err != nil {
		return err
	}
	if cmd.RowsAffected() == 0 {
		return ErrInviteUnavailable
	}

	const insertQuery = `
		INSERT INTO users (id, username, email, password_hash, is_admin, created_by_invite_id, created_at)
		VALUES ($1, $2, NULLIF($3, ''), $4, $5, $6, NOW())
	`
	if _, err := tx.Exec(ctx, insertQuery,
		user.ID,
		user.Username,
		user.Email,
		user.PasswordHash,
		user.IsAdmin,
		&inviteID,
	); err != nil {
		if isUniqueViolation(err) {
			return ErrDuplicateUser
		}
		return err
	}

	return tx.Commit(ctx)
}

func (r *UserRepository) FindByUsername(ctx context.Context, username string) (models.User, error) {
	const query = `SELECT ` + userColumns + ` FROM users WHERE username = $1`
	return r.scanUser(r.pool.QueryRow(ctx, query, username))
}

func (r *UserRepository) FindByEmail(ctx context.Context, email string) (models.User, error) {
	const query = `SELECT ` + userColumns + ` FROM users WHERE email = $1`
	return r.scanUser(r.pool.QueryRow(ctx, query, email))
}

func (r *UserRepository) GetByID(ctx context.Context, id string) (models.User, error) {
	const query = `SELECT ` + userColumns + ` FROM users WHERE id = $1`
	return r.scanUser(r.pool.QueryRow(ctx, query, id))
}

func (r *UserRepository) UpdateLastLogin(ctx context.Context, id string) error {
	const query = `UPDATE users SET last_login_at = NOW() WHERE id = $1`
	cmd, err := r.pool.Exec(ctx, query, id)
	if err != nil {
		return err
	}
	if cmd.RowsAffected() == 0 {
		return ErrUserNotFound
	}
	return nil
}

func (r *UserRepository) Count(ctx context.Context) (int, error) {
	const query = `SELECT COUNT(*) FROM users`
	var count int
	if err := r.pool.QueryRow(ctx, query).Scan(&count); err != nil {
		return 0, err
	}
	return count, nil
}

func (r *UserRepository) scanUser(row pgx.Row) (models.User, error) {
	var (
		user  models.User
		email *string
	)
	if err := row.Scan(
		&user.ID,
		&user.Username,
		&email,
		&user.PasswordHash,
		&user.IsAdmin,
		&user.CreatedByInviteID,
		&user.CreatedAt,
		&user.LastLoginAt,
	); err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return models.User{}, ErrUserNotFound
		}
		return models.User{}, err
	}
	if email != nil {
		user.Email = *email
	}
	return user, nil
}

func isUniqueViolation(err error) bool {
	var pgErr *pgconn.PgError
	return errors.As(err, &pgErr) && pgErr.Code == "23505"
}
