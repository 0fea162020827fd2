package account

import (
	"errors"
	"fmt"
	"regexp"
	"strconv"
	"strings"
)

var (
	ErrInvalidCredentials = errors.New("invalid email or password")
	ErrEmailTaken         = errors.New("email is already registered")
)

// the auth client reports failures as "response status code N: <body>"
var statusPattern = regexp.MustCompile(`status code (\d{3})`)

func statusOf(msg string) int {
	m := statusPattern.FindStringSubmatch(msg)
	if m == nil {
		return 0
	}
	code, _ := strconv.Atoi(m[1])
	return code
}

// mapAuthError turns an auth backend failure into one of the package errors.
// Unknown failures are returned wrapped but otherwise unchanged.
func mapAuthError(err error) error {
	if err == nil {
		return nil
	}
	msg := strings.ToLower(err.Error())
	status := statusOf(msg)

	var sentinel error
	switch {
	case status == 429 || strings.Contains(msg, "rate limit") || strings.Contains(msg, "too many"):
		sentinel = ErrTooManyAttempts
	case strings.Contains(msg, "refresh token") || strings.Contains(msg, "jwt expired") ||
		strings.Contains(msg, "session_not_found") || strings.Contains(msg, "reauthentication"):
		sentinel = ErrReloginRequired
	case strings.Contains(msg, "weak_password") || strings.Contains(msg, "password should"):
		sentinel = ErrWeakPassword
	case strings.Contains(msg, "already registered") || strings.Contains(msg, "user_already_exists"):
		sentinel = ErrEmailTaken
	case strings.Contains(msg, "invalid login credentials") || strings.Contains(msg, "invalid_credentials"):
		sentinel = ErrInvalidCredentials
	case status == 401 || status == 403:
		sentinel = ErrReloginRequired
	default:
		return fmt.Errorf("auth request failed: %w", err)
	}
	return fmt.Errorf("%w (%v)", sentinel, err)
}
