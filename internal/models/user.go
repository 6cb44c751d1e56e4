package models

import "time"

type User struct {
	ID                string
	Username          string
	Email             string
	PasswordHash      []byte
	IsAdmin           bool
	CreatedByInviteID *string
	CreatedAt         time.Time
	LastLoginAt       *time.Time
}

// LoginAttempt tracks consecutive failed logins for one normalized
// (lowercased) username. The row is deleted on successful login or once an
// elapsed lockout is observed.
type LoginAttempt struct {
	Username    string
	Attempts    int
	LockedUntil *time.Time
}
