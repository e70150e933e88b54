package apperrors

import (
	"errors"
	"fmt"
)

var (
	ErrInvalidState       = errors.New("invalid session state")
	ErrInvalidCredentials = errors.New("invalid credentials")
	ErrDatabaseSelection  = errors.New("database selection failed")
	ErrNoJobsSelected     = errors.New("no jobs selected")
	ErrExportInProgress   = errors.New("an export is already running on this session")
)

// ConnectionErrorKind classifies a failed connection attempt for display.
// The kind never changes control flow.
type ConnectionErrorKind int

const (
	ConnectionErrorOther ConnectionErrorKind = iota
	ConnectionErrorAuthenticationFailed
	ConnectionErrorTimeout
	ConnectionErrorNetworkUnreachable
)

func (k ConnectionErrorKind) String() string {
	switch k {
	case ConnectionErrorAuthenticationFailed:
		return "authentication_failed"
	case ConnectionErrorTimeout:
		return "timeout"
	case ConnectionErrorNetworkUnreachable:
		return "network_unreachable"
	default:
		return "other"
	}
}

// Message returns the operator-facing explanation for the kind.
func (k ConnectionErrorKind) Message() string {
	switch k {
	case ConnectionErrorAuthenticationFailed:
		return "authentication failed: wrong user name or password"
	case ConnectionErrorTimeout:
		return "timeout: the server did not answer in time"
	case ConnectionErrorNetworkUnreachable:
		return "network error: the server was not found or is not accepting connections"
	default:
		return "could not connect"
	}
}

// ConnectionError is returned when a session cannot be established.
type ConnectionError struct {
	Kind     ConnectionErrorKind
	Endpoint string
	Err      error
}

func (e *ConnectionError) Error() string {
	return fmt.Sprintf("connect to %s: %s: %v", e.Endpoint, e.Kind.Message(), e.Err)
}

func (e *ConnectionError) Unwrap() error {
	return e.Err
}

// SelectionError is returned when switching the session to a database fails.
type SelectionError struct {
	Database string
	Err      error
}

func (e *SelectionError) Error() string {
	return fmt.Sprintf("select database %q: %v", e.Database, e.Err)
}

func (e *SelectionError) Unwrap() []error {
	return []error{ErrDatabaseSelection, e.Err}
}
