package repository

import (
	"context"
	"errors"
	"time"

	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgxpool"

	"moviesearch/api/internal/models"
)

var ErrAttemptNotFound = errors.New("login attempt record not found")

const (
	// MaxFailedAttempts is the consecutive-failure threshold that locks an
	// account.
	MaxFailedAttempts = 5
	// LockoutDuration is how long a locked account stays locked.
	LockoutDuration = 15 * time.Minute
)

// AttemptRepository persists per-username failure counters. Keeping them in
// the transactional store (rather than process memory) makes lockouts
// survive restarts and stay consistent across instances.
type AttemptRepository struct {
	pool *pgxpool.Pool
}

func NewAttemptRepository(pool *pgxpool.Pool) *AttemptRepository {
	return &AttemptRepository{pool: pool}
}

func (r *AttemptRepository) Get(ctx context.Context, username string) (models.LoginAttempt, error) {
	const query = `SELECT username, attempts, locked_until FROM login_attempts WHERE username = $1`

	var attempt models.LoginAttempt
	if err := r.pool.QueryRow(ctx, query, username).Scan(
		&attempt.Username,
		&attempt.Attempts,
		&attempt.LockedUntil,
	); err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return models.LoginAttempt{}, ErrAttemptNotFound
		}
		return models.LoginAttempt{}, err
	}
	return attempt, nil
}

// RecordFailure increments the counter in a single upsert, stamping
// locked_until the moment the threshold is crossed. Concurrent failures for
// the same username serialize on the row, so no increment is lost.
func (r *AttemptRepository) RecordFailure(ctx context.Context, username string) (int, error) {
	const query = `
		INSERT INTO login_attempts (username, attempts, locked_until)
		VALUES ($1, 1, NULL)
		ON CONFLICT (username) DO UPDATE
		SET attempts = login_attempts.attempts + 1,
		    locked_until = CASE
		        WHEN login_attempts.attempts + 1 >= $2
		            THEN NOW() + make_interval(mins => $3)
		        ELSE login_attempts.locked_until
		    END
		RETURNING attempts
	`

	var attempts int
	err := r.pool.QueryRow(ctx, query,
		username,
		MaxFailedAttempts,
		int(LockoutDuration.Minutes()),
	).Scan(&attempts)
	if err != nil {
		return 0, err
	}
	return attempts, nil
}

func (r *AttemptRepository) Clear(ctx context.Context, username string) error {
	const query = `DELETE FROM login_attempts WHERE username = $1`
	_, err := r.pool.Exec(ctx, query, username)
	return err
}

// DeleteExpired sweeps rows whose lockout has elapsed. Stale counters for
// never-locked usernames are left alone; they reset on the next successful
// login.
func (r *AttemptRepository) DeleteExpired(ctx context.Context) (int64, error) {
	const query = `DELETE FROM login_attempts WHERE locked_until IS NOT NULL AND locked_until < NOW()`
	cmd, err := r.pool.Exec(ctx, query)
	if err != nil {
		return 0, err
	}
	return cmd.RowsAffected(), nil
}
