package service

import (
	"regexp"
	"strings"
)

var (
	usernamePattern = regexp.MustCompile(`^[a-zA-Z0-9_]+$`)
	emailPattern    = regexp.MustCompile(`^[^\s@]+@[^\s@]+\.[^\s@]+$`)

	lowerPattern = regexp.MustCompile(`[a-z]`)
	upperPattern = regexp.MustCompile(`[A-Z]`)
	digitPattern = regexp.MustCompile(`[0-9]`)
)

func validateUsername(username string) error {
	if len(username) < 3 || len(username) > 30 || !usernamePattern.MatchString(username) {
		return &ValidationError{Message: "Username must be 3-30 alphanumeric characters or underscores"}
	}
	return nil
}

func validateEmail(email string) error {
	if email == "" || !emailPattern.MatchString(email) {
		return &ValidationError{Message: "Invalid email format"}
	}
	return nil
}

// validatePassword reports every missing character class at once, so the
// user does not fix requirements one 400 at a time.
func validatePassword(password string) error {
	var missing []string

	if len(password) < 8 {
		missing = append(missing, "at least 8 characters")
	}
	if !lowerPattern.MatchString(password) {
		missing = append(missing, "a lowercase letter")
	}
	if !upperPattern.MatchString(password) {
		missing = append(missing, "an uppercase letter")
	}
	if !digitPattern.MatchString(password) {
		missing = append(missing, "a number")
	}

	if len(missing) > 0 {
		return &ValidationError{Message: "Password must contain " + strings.Join(missing, " and ")}
	}
	return nil
}
