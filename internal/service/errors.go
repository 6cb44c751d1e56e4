package service

import (
	"errors"
	"fmt"
)

var (
	// ErrInvalidCredentials is deliberately generic: it is returned for an
	// unknown username and for a wrong password alike.
	ErrInvalidCredentials = errors.New("invalid credentials")
	// ErrInviteInvalid covers unknown, revoked, expired and exhausted
	// tokens on the redemption path; the pre-check endpoint is the only
	// place that distinguishes them.
	ErrInviteInvalid = errors.New("invalid or expired invite token")
	ErrEmailMismatch = errors.New("email does not match invite")
	// ErrConflict is returned for a username collision and an email
	// collision alike, so signup cannot be used to enumerate accounts.
	ErrConflict = errors.New("username or email already in use")
	// ErrSessionIntegrity marks a failed session regeneration or
	// destruction; the request must fail as a 500, the caller may retry.
	ErrSessionIntegrity = errors.New("session integrity failure")
)

// ValidationError carries a message that is safe to show verbatim.
type ValidationError struct {
	Message string
}

func (e *ValidationError) Error() string {
	return e.Message
}

// LockedError reports an account lockout. JustLocked distinguishes the
// attempt that crossed the threshold from attempts against an existing lock.
type LockedError struct {
	RemainingMinutes int
	JustLocked       bool
}

func (e *LockedError) Error() string {
	return fmt.Sprintf("account locked for %d minute(s)", e.RemainingMinutes)
}
