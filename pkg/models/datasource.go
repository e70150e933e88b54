package models

import (
	"fmt"
	"strings"

	"github.com/ekaya-inc/ekaya-export/pkg/apperrors"
)

// Endpoint identifies one SQL Server instance: a host, optionally qualified by
// an instance name (HOST\INSTANCE) or a port (HOST,1433).
type Endpoint string

func (e Endpoint) String() string {
	return string(e)
}

// Equal reports whether two endpoints address the same instance.
// SQL Server host and instance names are case-insensitive.
func (e Endpoint) Equal(other Endpoint) bool {
	return strings.EqualFold(strings.TrimSpace(string(e)), strings.TrimSpace(string(other)))
}

// AuthMode is the credentials variant in use for a session.
type AuthMode string

const (
	AuthIntegrated AuthMode = "integrated"
	AuthExplicit   AuthMode = "explicit"
)

// Credentials is a tagged variant: either integrated (the OS identity of the
// process) or explicit user name and password. Build it with Integrated or
// Explicit; the zero value is integrated.
type Credentials struct {
	mode     AuthMode
	username string
	password string
}

// Integrated returns credentials that authenticate with the process identity.
func Integrated() Credentials {
	return Credentials{mode: AuthIntegrated}
}

// Explicit returns SQL Server login credentials.
func Explicit(username, password string) Credentials {
	return Credentials{mode: AuthExplicit, username: username, password: password}
}

// Mode returns the active variant.
func (c Credentials) Mode() AuthMode {
	if c.mode == "" {
		return AuthIntegrated
	}
	return c.mode
}

// IsIntegrated reports whether no explicit secret is carried.
func (c Credentials) IsIntegrated() bool {
	return c.Mode() == AuthIntegrated
}

// Username returns the login name; empty for integrated credentials.
func (c Credentials) Username() string {
	return c.username
}

// Password returns the login secret; empty for integrated credentials.
func (c Credentials) Password() string {
	return c.password
}

// Validate checks that explicit credentials carry both a user and a password.
func (c Credentials) Validate() error {
	if c.IsIntegrated() {
		return nil
	}
	if strings.TrimSpace(c.username) == "" || c.password == "" {
		return fmt.Errorf("%w: user name and password are required", apperrors.ErrInvalidCredentials)
	}
	return nil
}

// String never includes the password.
func (c Credentials) String() string {
	if c.IsIntegrated() {
		return "integrated"
	}
	return "explicit(" + c.username + ")"
}
