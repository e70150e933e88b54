// Package sql checks the statements the export catalog is allowed to run.
package sql

import (
	"errors"
	"strings"
	"unicode"
)

var (
	// ErrNoResultSet indicates the last statement of a batch does not return rows.
	ErrNoResultSet = errors.New("the last statement must be a SELECT or WITH query")
	// ErrEmptyStatement indicates nothing but whitespace, semicolons and comments.
	ErrEmptyStatement = errors.New("empty SQL statement")
)

// ValidateBatch checks a query that may hold several statements, as in
// "SET NOCOUNT ON; SELECT ..." or a temp-table batch. The last statement
// must begin with SELECT or WITH since its rows are what gets exported.
// The batch is returned trimmed with one trailing semicolon removed.
func ValidateBatch(sqlQuery string) (string, error) {
	var last string
	for _, stmt := range Statements(sqlQuery) {
		// Comment-only pieces carry no statement.
		if kw := firstKeyword(stmt); kw != "" {
			last = kw
		}
	}

	switch strings.ToUpper(last) {
	case "SELECT", "WITH":
		return stripTrailingSemicolon(strings.TrimSpace(sqlQuery)), nil
	case "":
		return "", ErrEmptyStatement
	default:
		return "", ErrNoResultSet
	}
}

// firstKeyword returns the first word after leading comments and opening
// parentheses.
func firstKeyword(sqlQuery string) string {
	s := sqlQuery
	for {
		s = strings.TrimLeftFunc(s, func(r rune) bool { return unicode.IsSpace(r) || r == '(' })
		switch {
		case strings.HasPrefix(s, "--"):
			i := strings.IndexByte(s, '\n')
			if i < 0 {
				return ""
			}
			s = s[i+1:]
		case strings.HasPrefix(s, "/*"):
			i := strings.Index(s, "*/")
			if i < 0 {
				return ""
			}
			s = s[i+2:]
		default:
			end := strings.IndexFunc(s, func(r rune) bool { return !unicode.IsLetter(r) })
			if end < 0 {
				return s
			}
			return s[:end]
		}
	}
}

// Statements splits sqlQuery on semicolons outside 'literals', "quoted" or
// [bracketed] identifiers and comments. Statements are trimmed and empty
// ones dropped. Doubled quotes ('') end and immediately re-enter a literal,
// which keeps the scan in the literal.
func Statements(sqlQuery string) []string {
	const (
		stateNormal = iota
		stateSingleQuote
		stateDoubleQuote
		stateBracket
		stateLineComment
		stateBlockComment
	)

	var statements []string
	state := stateNormal
	runes := []rune(sqlQuery)
	start := 0

	add := func(stmt string) {
		if stmt = strings.TrimSpace(stmt); stmt != "" {
			statements = append(statements, stmt)
		}
	}

	for i := 0; i < len(runes); i++ {
		char := runes[i]
		next := rune(0)
		if i+1 < len(runes) {
			next = runes[i+1]
		}

		switch state {
		case stateNormal:
			switch {
			case char == ';':
				add(string(runes[start:i]))
				start = i + 1
			case char == '\'':
				state = stateSingleQuote
			case char == '"':
				state = stateDoubleQuote
			case char == '[':
				state = stateBracket
			case char == '-' && next == '-':
				state = stateLineComment
				i++
			case char == '/' && next == '*':
				state = stateBlockComment
				i++
			}
		case stateSingleQuote:
			if char == '\'' {
				state = stateNormal
			}
		case stateDoubleQuote:
			if char == '"' {
				state = stateNormal
			}
		case stateBracket:
			if char == ']' {
				state = stateNormal
			}
		case stateLineComment:
			if char == '\n' {
				state = stateNormal
			}
		case stateBlockComment:
			if char == '*' && next == '/' {
				state = stateNormal
				i++
			}
		}
	}

	add(string(runes[start:]))
	return statements
}

// stripTrailingSemicolon removes a trailing semicolon and any whitespace around it.
func stripTrailingSemicolon(sqlQuery string) string {
	sqlQuery = strings.TrimRight(sqlQuery, " \t\n\r")
	if strings.HasSuffix(sqlQuery, ";") {
		sqlQuery = strings.TrimSuffix(sqlQuery, ";")
		sqlQuery = strings.TrimRight(sqlQuery, " \t\n\r")
	}
	return sqlQuery
}
