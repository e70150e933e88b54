// Package sanitize normalizes cell values before they are written to export
// files: accents are folded to their base letters and control characters that
// break line-oriented consumers are removed.
package sanitize

import (
	"fmt"
	"math"
	"strconv"
	"strings"
	"time"
	"unicode"

	"github.com/golang-sql/civil"
	"golang.org/x/text/runes"
	"golang.org/x/text/transform"
	"golang.org/x/text/unicode/norm"
)

// accentMarks are the spacing accents and apostrophes removed from text.
const accentMarks = "´`'‘’"

var (
	enye = strings.NewReplacer("ñ", "n", "Ñ", "N")

	dropAccentMarks = strings.NewReplacer(
		"´", "",
		"`", "",
		"'", "",
		"‘", "",
		"’", "",
	)

	numericPunct = strings.NewReplacer(".", "", ",", "", "-", "", "+", "")
)

// Value renders a driver value as text and sanitizes it. nil becomes "".
func Value(v any) string {
	if v == nil {
		return ""
	}
	return String(Format(v))
}

// String folds accents and strips control characters from s.
// String is idempotent: String(String(s)) == String(s).
func String(s string) string {
	if s == "" {
		return ""
	}
	return stripControl(fold(s))
}

// Format stringifies a database/sql driver value the same way for every export.
func Format(v any) string {
	switch t := v.(type) {
	case nil:
		return ""
	case string:
		return t
	case []byte:
		return string(t)
	case bool:
		if t {
			return "True"
		}
		return "False"
	case int64:
		return strconv.FormatInt(t, 10)
	case int32:
		return strconv.FormatInt(int64(t), 10)
	case int:
		return strconv.Itoa(t)
	case float64:
		return formatFloat(t)
	case float32:
		return formatFloat(float64(t))
	case time.Time:
		if t.Nanosecond() == 0 {
			return t.Format("2006-01-02 15:04:05")
		}
		return t.Format("2006-01-02 15:04:05.000000")
	case civil.Date:
		return t.String()
	case civil.Time:
		if t.Nanosecond == 0 {
			return fmt.Sprintf("%02d:%02d:%02d", t.Hour, t.Minute, t.Second)
		}
		return fmt.Sprintf("%02d:%02d:%02d.%06d", t.Hour, t.Minute, t.Second, t.Nanosecond/1000)
	case fmt.Stringer:
		return t.String()
	default:
		return fmt.Sprint(v)
	}
}

// formatFloat writes the shortest round-trip digits. Whole numbers keep a
// ".0" and exponents below -4 or from 16 up switch to e-notation, so 2.0
// is "2.0" and 0.00001 is "1e-05".
func formatFloat(f float64) string {
	switch {
	case math.IsNaN(f):
		return "nan"
	case math.IsInf(f, 1):
		return "inf"
	case math.IsInf(f, -1):
		return "-inf"
	case f == 0:
		if math.Signbit(f) {
			return "-0.0"
		}
		return "0.0"
	}

	sci := strconv.FormatFloat(f, 'e', -1, 64)
	exp, err := strconv.Atoi(sci[strings.IndexByte(sci, 'e')+1:])
	if err == nil && (exp < -4 || exp >= 16) {
		return sci
	}
	s := strconv.FormatFloat(f, 'f', -1, 64)
	if !strings.ContainsRune(s, '.') {
		s += ".0"
	}
	return s
}

// fold removes diacritics from textual values. Numeric-looking values and
// values without letters are returned untouched.
func fold(s string) string {
	if strings.TrimSpace(s) == "" {
		return s
	}
	if isNumeric(s) || !hasLetter(s) {
		return s
	}

	s = enye.Replace(s)
	s = dropAccentMarks.Replace(s)

	t := transform.Chain(norm.NFD, runes.Remove(runes.In(unicode.Mn)))
	out, _, err := transform.String(t, s)
	if err != nil {
		return s
	}
	return out
}

// isNumeric reports whether s is made only of digits, sign and separators.
func isNumeric(s string) bool {
	cleaned := strings.TrimSpace(numericPunct.Replace(s))
	for _, r := range cleaned {
		if !unicode.IsDigit(r) {
			return false
		}
	}
	return true
}

func hasLetter(s string) bool {
	return strings.IndexFunc(s, unicode.IsLetter) >= 0
}

// stripControl drops C0 controls other than tab and newline, DEL, the two
// non-characters U+FFFE/U+FFFF, and the accent marks.
func stripControl(s string) string {
	return strings.Map(func(r rune) rune {
		switch {
		case r == '\t' || r == '\n':
			return r
		case r < 0x20, r == 0x7f, r == 0xfffe, r == 0xffff:
			return -1
		case strings.ContainsRune(accentMarks, r):
			return -1
		}
		return r
	}, s)
}
