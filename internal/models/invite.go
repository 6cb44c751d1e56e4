package models

import "time"

type InviteStatus string

const (
	InviteStatusActive    InviteStatus = "active"
	InviteStatusRevoked   InviteStatus = "revoked"
	InviteStatusExpired   InviteStatus = "expired"
	InviteStatusExhausted InviteStatus = "exhausted"
)

// Invite is a limited-use bearer capability for signup. Only the sha256
// digest of the token is ever stored; the raw secret is returned once at
// creation and is unrecoverable afterwards.
type Invite struct {
	ID           string
	TokenHash    string
	ExpiresAt    time.Time
	MaxUses      int
	Uses         int
	EmailAllowed *string
	CreatedBy    string
	CreatedAt    time.Time
	Revoked      bool
}

// Status derives the invite's lifecycle state. Revocation wins over expiry,
// which wins over exhaustion.
func (i Invite) Status(now time.Time) InviteStatus {
	switch {
	case i.Revoked:
		return InviteStatusRevoked
	case !now.Before(i.ExpiresAt):
		return InviteStatusExpired
	case i.Uses >= i.MaxUses:
		return InviteStatusExhausted
	default:
		return InviteStatusActive
	}
}
