package domain

import (
	"regexp"
	"strings"
	"time"
)

var usernamePattern = regexp.MustCompile(`^[A-Za-z0-9_]{3,50}$`)

// User is an actor identified by username, created lazily on first
// reservation or purchase attempt.
type User struct {
	ID        string
	Username  string
	CreatedAt time.Time
}

// NormalizeUsername trims and validates a username against the
// 3-50 word-character rule. Returns ErrInvalidUsername on failure.
func NormalizeUsername(raw string) (string, error) {
	trimmed := strings.TrimSpace(raw)
	if !usernamePattern.MatchString(trimmed) {
		return "", ErrInvalidUsername
	}
	return trimmed, nil
}
