package publish

import (
	"errors"
	"fmt"
	"strings"
)

// AuthError indicates the remote rejected our credentials.
type AuthError struct {
	Remote string
	Err    error
}

func (e *AuthError) Error() string { return fmt.Sprintf("authentication failed for %s: %v", e.Remote, e.Err) }
func (e *AuthError) Unwrap() error { return e.Err }

// TransientPushError indicates a push failure worth retrying.
type TransientPushError struct {
	Remote string
	Err    error
}

func (e *TransientPushError) Error() string {
	return fmt.Sprintf("transient push failure to %s: %v", e.Remote, e.Err)
}
func (e *TransientPushError) Unwrap() error { return e.Err }

// classifyPushError wraps underlying go-git errors into typed failures so
// callers can decide on retry without string parsing.
func classifyPushError(remote string, err error) error {
	l := strings.ToLower(err.Error())
	switch {
	case strings.Contains(l, "authentication") || strings.Contains(l, "authorization") || strings.Contains(l, "invalid username or password"):
		return &AuthError{Remote: remote, Err: err}
	case strings.Contains(l, "timeout") || strings.Contains(l, "i/o timeout"),
		strings.Contains(l, "connection reset"),
		strings.Contains(l, "connection refused"),
		strings.Contains(l, "temporarily unavailable"),
		strings.Contains(l, "rate limit") || strings.Contains(l, "too many requests"):
		return &TransientPushError{Remote: remote, Err: err}
	default:
		return fmt.Errorf("failed to push to %s: %w", remote, err)
	}
}

// IsTransient reports whether the error is a retryable push failure.
func IsTransient(err error) bool {
	var te *TransientPushError
	return errors.As(err, &te)
}
