package mssql

import (
	"context"
	"errors"
	"net"
	"strings"
	"syscall"

	mssqldb "github.com/microsoft/go-mssqldb"

	"github.com/ekaya-inc/ekaya-export/pkg/apperrors"
)

// loginFailureNumbers are server error numbers raised when the server exists
// but refuses the login.
var loginFailureNumbers = map[int32]bool{
	18452: true, // login from an untrusted domain
	18456: true, // login failed for user
	18470: true, // account disabled
	18486: true, // account locked out
	18487: true, // password expired
	18488: true, // password must be changed
}

var (
	authMessages = []string{
		"login failed",
		"error de autenticación",
		"untrusted domain",
	}
	timeoutMessages = []string{
		"timeout",
		"timed out",
	}
	networkMessages = []string{
		"unable to open tcp connection",
		"no such host",
		"connection refused",
		"server does not exist",
		"network-related",
		"unable to get instances from sql server browser",
		"no instance matching",
	}
)

// ClassifyError maps a driver error to a connection error kind.
// TLS and certificate failures are classified as Other.
func ClassifyError(err error) apperrors.ConnectionErrorKind {
	if err == nil {
		return apperrors.ConnectionErrorOther
	}

	var sqlErr mssqldb.Error
	if errors.As(err, &sqlErr) && loginFailureNumbers[sqlErr.Number] {
		return apperrors.ConnectionErrorAuthenticationFailed
	}

	if errors.Is(err, context.DeadlineExceeded) {
		return apperrors.ConnectionErrorTimeout
	}
	var netErr net.Error
	if errors.As(err, &netErr) && netErr.Timeout() {
		return apperrors.ConnectionErrorTimeout
	}
	var dnsErr *net.DNSError
	if errors.As(err, &dnsErr) {
		return apperrors.ConnectionErrorNetworkUnreachable
	}
	if errors.Is(err, syscall.ECONNREFUSED) {
		return apperrors.ConnectionErrorNetworkUnreachable
	}
	var opErr *net.OpError
	if errors.As(err, &opErr) {
		return apperrors.ConnectionErrorNetworkUnreachable
	}

	// The driver flattens some failures into plain strings.
	msg := strings.ToLower(err.Error())
	switch {
	case containsAny(msg, authMessages):
		return apperrors.ConnectionErrorAuthenticationFailed
	case containsAny(msg, timeoutMessages):
		return apperrors.ConnectionErrorTimeout
	case containsAny(msg, networkMessages):
		return apperrors.ConnectionErrorNetworkUnreachable
	}
	return apperrors.ConnectionErrorOther
}

func containsAny(s string, needles []string) bool {
	for _, n := range needles {
		if strings.Contains(s, n) {
			return true
		}
	}
	return false
}
