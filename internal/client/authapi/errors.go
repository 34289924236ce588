package authapi

import (
	"errors"
	"fmt"
)

var (
	// ErrInvalidCredentials is returned by Login for a rejected username or password.
	ErrInvalidCredentials = errors.New("invalid credentials")
	// ErrUnauthorized means the bearer token is missing, expired or revoked.
	ErrUnauthorized = errors.New("unauthorized")
	// ErrConflict is returned by Register when the username is taken.
	ErrConflict = errors.New("conflict")
)

// ValidationError carries the server's explanation of a rejected request.
type ValidationError struct {
	Status  int
	Message string
}

func (e *ValidationError) Error() string {
	return fmt.Sprintf("validation failed (%d): %s", e.Status, e.Message)
}

// NetworkError wraps transport failures and server-side (5xx) answers.
type NetworkError struct {
	Op     string
	Status int // 0 when no response was received
	Err    error
}

func (e *NetworkError) Error() string {
	if e.Status != 0 {
		return fmt.Sprintf("%s: server answered %d: %v", e.Op, e.Status, e.Err)
	}
	return fmt.Sprintf("%s: %v", e.Op, e.Err)
}

func (e *NetworkError) Unwrap() error { return e.Err }

// Temporary reports whether retrying later could succeed. Every NetworkError
// is temporary; client-side rejections are never wrapped in one.
func (e *NetworkError) Temporary() bool { return true }

// IsTemporary reports whether err is, or wraps, a temporary NetworkError.
func IsTemporary(err error) bool {
	var ne *NetworkError
	return errors.As(err, &ne) && ne.Temporary()
}
