package logging

import (
	"regexp"
	"strings"
)

const (
	// MaxQueryLogLength is the maximum length of a query to log
	MaxQueryLogLength = 120
	// RedactedText is the replacement text for sensitive data
	RedactedText = "[REDACTED]"
)

var (
	// Key/value secrets in ODBC or ADO style connection strings and URL queries.
	// Matches: password=xxx, pwd=xxx, pass=xxx (until the next delimiter)
	passwordPattern = regexp.MustCompile(`(?i)\b(password|pwd|pass)\s*=\s*[^;&\s]+`)

	// user:pass@host in sqlserver:// URLs. The password may itself contain '@',
	// so the match runs to the last '@' before the host.
	urlCredentialsPattern = regexp.MustCompile(`://[^/:\s]+:[^\s]*@([^@/\s?]+)`)
)

// SanitizeConnectionString removes sensitive data from connection strings.
// Use this before logging any connection string.
func SanitizeConnectionString(connStr string) string {
	if connStr == "" {
		return ""
	}
	return redact(connStr)
}

// SanitizeError sanitizes error messages that might contain sensitive data.
// Driver errors can echo the DSN they failed to open.
func SanitizeError(err error) string {
	if err == nil {
		return ""
	}
	return redact(err.Error())
}

// SanitizeQuery flattens, truncates and sanitizes a SQL query for logging.
func SanitizeQuery(query string) string {
	if query == "" {
		return ""
	}

	sanitized := strings.Join(strings.Fields(query), " ")
	sanitized = TruncateString(sanitized, MaxQueryLogLength)
	return passwordPattern.ReplaceAllString(sanitized, "${1}="+RedactedText)
}

// TruncateString truncates a string to maxLen bytes and adds an ellipsis if
// needed. It never splits a multi-byte character.
func TruncateString(s string, maxLen int) string {
	if len(s) <= maxLen {
		return s
	}
	cut := maxLen
	for cut > 0 && !isRuneStart(s[cut]) {
		cut--
	}
	return s[:cut] + "..."
}

func redact(s string) string {
	s = passwordPattern.ReplaceAllString(s, "${1}="+RedactedText)
	return urlCredentialsPattern.ReplaceAllString(s, "://"+RedactedText+"@${1}")
}

func isRuneStart(b byte) bool {
	return b&0xC0 != 0x80
}
