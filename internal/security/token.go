package security

import (
	"crypto/hmac"
	"crypto/rand"
	"crypto/sha256"
	"encoding/base64"
	"encoding/hex"
	"fmt"
	"strings"
)

// InviteTokenLength is the length of a raw invite token: 32 random bytes,
// hex encoded.
const InviteTokenLength = 64

// GenerateInviteToken returns a raw invite secret and its sha256 digest.
// Only the digest may be persisted.
func GenerateInviteToken() (raw string, digest string, err error) {
	buf := make([]byte, 32)
	if _, err := rand.Read(buf); err != nil {
		return "", "", fmt.Errorf("generate invite token: %w", err)
	}
	raw = hex.EncodeToString(buf)
	return raw, HashInviteToken(raw), nil
}

func HashInviteToken(raw string) string {
	sum := sha256.Sum256([]byte(raw))
	return hex.EncodeToString(sum[:])
}

// GenerateSessionID returns an opaque session identifier.
func GenerateSessionID() (string, error) {
	buf := make([]byte, 32)
	if _, err := rand.Read(buf); err != nil {
		return "", fmt.Errorf("generate session id: %w", err)
	}
	return hex.EncodeToString(buf), nil
}

// GenerateCSRFToken returns a fresh double-submit token.
func GenerateCSRFToken() (string, error) {
	buf := make([]byte, 32)
	if _, err := rand.Read(buf); err != nil {
		return "", fmt.Errorf("generate csrf token: %w", err)
	}
	return hex.EncodeToString(buf), nil
}

// SignCookieValue appends an HMAC-SHA256 tag so a tampered session cookie is
// rejected before any store lookup.
func SignCookieValue(secret string, value string) string {
	mac := hmac.New(sha256.New, []byte(secret))
	mac.Write([]byte(value))
	sig := base64.RawURLEncoding.EncodeToString(mac.Sum(nil))
	return value + "." + sig
}

// ParseSignedCookie verifies the HMAC tag and returns the embedded value.
func ParseSignedCookie(secret string, signed string) (string, bool) {
	idx := strings.LastIndexByte(signed, '.')
	if idx <= 0 {
		return "", false
	}
	value := signed[:idx]
	if !hmac.Equal([]byte(SignCookieValue(secret, value)), []byte(signed)) {
		return "", false
	}
	return value, true
}
