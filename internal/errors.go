package internal

import (
	"errors"
	"fmt"
	"strings"
)

var (
	// ErrTokenMalformed means the access token could not be decoded at all.
	// The session is treated as already expired rather than trusted.
	ErrTokenMalformed = errors.New("access token is malformed")

	// ErrNoSession means no session is stored (not logged in).
	ErrNoSession = errors.New("no active session")

	// ErrConflict means the server's version tag no longer matches the one
	// submitted with the write. The caller must re-read before retrying.
	ErrConflict = errors.New("resource was modified by another user")

	// ErrNotFound means the resource no longer exists server-side.
	ErrNotFound = errors.New("resource not found")

	// ErrUnauthorized covers 401/403 responses, including the case where the
	// locally selected user level was revoked server-side after selection.
	ErrUnauthorized = errors.New("not authorized for this operation")
)

// RefreshKind classifies refresh failures.
type RefreshKind int

const (
	// RefreshInvalid: the server rejected the refresh token itself.
	RefreshInvalid RefreshKind = iota
	// RefreshNetwork: the exchange never completed (transport error, timeout).
	RefreshNetwork
	// RefreshServerUnavailable: the server answered but could not serve (5xx).
	RefreshServerUnavailable
)

// RefreshError is returned by the refresh exchange. Whatever the kind, the
// stored pair is left untouched; the monitor treats every kind as terminal.
type RefreshError struct {
	Kind RefreshKind
	Err  error
}

func (e *RefreshError) Error() string {
	switch e.Kind {
	case RefreshInvalid:
		return fmt.Sprintf("refresh token rejected: %v", e.Err)
	case RefreshServerUnavailable:
		return fmt.Sprintf("server unavailable during refresh: %v", e.Err)
	default:
		return fmt.Sprintf("refresh failed: %v", e.Err)
	}
}

func (e *RefreshError) Unwrap() error { return e.Err }

// ValidationError carries server-side input rejections verbatim.
type ValidationError struct {
	Messages []string
}

func (e *ValidationError) Error() string {
	if len(e.Messages) == 0 {
		return "request rejected by server validation"
	}
	return "validation failed: " + strings.Join(e.Messages, "; ")
}
