package security

import (
	"fmt"

	"golang.org/x/crypto/bcrypt"
)

// dummyHash is a precomputed bcrypt digest of a random string (cost 12).
// It is the comparison target when the account does not exist, so the
// hashing work is identical on both paths.
const dummyHash = "$2b$12$LQv3c1yqBWVHxkd0LHAkCOYz6TtxMQJqhN8/X4.VTtYA/iCUVVK3m"

// compareHash is swappable so tests can count invocations.
var compareHash = bcrypt.CompareHashAndPassword

func HashPassword(password string, cost int) ([]byte, error) {
	hash, err := bcrypt.GenerateFromPassword([]byte(password), cost)
	if err != nil {
		return nil, fmt.Errorf("bcrypt hash: %w", err)
	}
	return hash, nil
}

// VerifyPasswordTimingSafe runs exactly one bcrypt comparison whether or not
// the account exists (hash may be nil), so response latency does not leak
// account existence. It returns true only when a real stored hash matched.
func VerifyPasswordTimingSafe(hash []byte, password string) bool {
	target := hash
	if len(target) == 0 {
		target = []byte(dummyHash)
	}

	err := compareHash(target, []byte(password))
	return len(hash) > 0 && err == nil
}
