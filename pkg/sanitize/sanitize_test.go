package sanitize

import (
	"testing"
	"time"

	"github.com/golang-sql/civil"
	"github.com/stretchr/testify/assert"
)

func TestString(t *testing.T) {
	tests := []struct {
		name     string
		input    string
		expected string
	}{
		{name: "empty", input: "", expected: ""},
		{name: "enye folded", input: "Peña S.A.", expected: "Pena S.A."},
		{name: "uppercase enye", input: "MUÑOZ", expected: "MUNOZ"},
		{name: "acute accents", input: "Artículos de Farmacía", expected: "Articulos de Farmacia"},
		{name: "mixed diacritics", input: "Crème brûlée über", expected: "Creme brulee uber"},
		{name: "apostrophes removed", input: "L'Oréal ‘Paris’", expected: "LOreal Paris"},
		{name: "spacing accents removed", input: "Jos´e `x`", expected: "Jose x"},
		{name: "decimal with comma untouched", input: "1.234,56-", expected: "1.234,56-"},
		{name: "signed integer untouched", input: "+42", expected: "+42"},
		{name: "punctuation only untouched", input: "--", expected: "--"},
		{name: "whitespace only untouched", input: "   ", expected: "   "},
		{name: "no letters keeps symbols", input: "#12/04", expected: "#12/04"},
		{name: "tab and newline kept", input: "a\tb\nc", expected: "a\tb\nc"},
		{name: "c0 controls removed", input: "ab\x00c\x07d\x1b", expected: "abcd"},
		{name: "carriage return removed", input: "line\r\n", expected: "line\n"},
		{name: "delete and non-characters removed", input: "x\x7fy\uFFFEz\uFFFF", expected: "xyz"},
		{name: "controls removed from numbers", input: "12\x0134", expected: "1234"},
		{name: "apostrophe removed from numeric-looking value", input: "1'000", expected: "1000"},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			assert.Equal(t, tt.expected, String(tt.input))
		})
	}
}

func TestValue(t *testing.T) {
	ts := time.Date(2024, 3, 9, 14, 5, 7, 0, time.UTC)
	tsMicro := time.Date(2024, 3, 9, 14, 5, 7, 123456000, time.UTC)

	tests := []struct {
		name     string
		input    any
		expected string
	}{
		{name: "nil", input: nil, expected: ""},
		{name: "string", input: "Señal", expected: "Senal"},
		{name: "bytes from decimal column", input: []byte("12.50"), expected: "12.50"},
		{name: "bytes with accents", input: []byte("Categoría"), expected: "Categoria"},
		{name: "int64", input: int64(-17), expected: "-17"},
		{name: "int", input: 3, expected: "3"},
		{name: "float", input: 2.5, expected: "2.5"},
		{name: "whole float", input: 2.0, expected: "2.0"},
		{name: "negative whole float", input: -150.0, expected: "-150.0"},
		{name: "zero float", input: 0.0, expected: "0.0"},
		{name: "small float", input: 1e-05, expected: "1e-05"},
		{name: "smallest fixed float", input: 0.0001, expected: "0.0001"},
		{name: "large float", input: 1e16, expected: "1e+16"},
		{name: "largest fixed float", input: 1e15, expected: "1000000000000000.0"},
		{name: "float32", input: float32(0.5), expected: "0.5"},
		{name: "date", input: civil.Date{Year: 2024, Month: time.March, Day: 9}, expected: "2024-03-09"},
		{name: "time of day", input: civil.Time{Hour: 14, Minute: 5, Second: 7}, expected: "14:05:07"},
		{name: "time of day with micros", input: civil.Time{Hour: 9, Minute: 0, Second: 1, Nanosecond: 250000000}, expected: "09:00:01.250000"},
		{name: "bool true", input: true, expected: "True"},
		{name: "bool false", input: false, expected: "False"},
		{name: "time", input: ts, expected: "2024-03-09 14:05:07"},
		{name: "time with micros", input: tsMicro, expected: "2024-03-09 14:05:07.123456"},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			assert.Equal(t, tt.expected, Value(tt.input))
		})
	}
}

func TestString_Idempotent(t *testing.T) {
	inputs := []string{
		"", " ", "Peña S.A.", "1.234,56-", "Ünïcödé\x00\r", "´", "'", "\x01é", "12\x01",
		"Ärzte ohne Grenzen", "한국어", "ﬁ ligature", "Ǆ", "ȩ́", "N°5",
	}
	for _, in := range inputs {
		once := String(in)
		assert.Equal(t, once, String(once), "input %q", in)
	}
}

func FuzzString(f *testing.F) {
	for _, seed := range []string{"Peña S.A.", "1.234,56-", "Crème", "a\tb\x00", "’´`", "\uFFFE"} {
		f.Add(seed)
	}
	f.Fuzz(func(t *testing.T, in string) {
		once := String(in)
		if twice := String(once); twice != once {
			t.Fatalf("not idempotent for %q: %q then %q", in, once, twice)
		}
	})
}
