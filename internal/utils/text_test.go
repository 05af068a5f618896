package utils

import (
	"strings"
	"testing"
	"unicode/utf8"
)

func TestTruncateRunes(t *testing.T) {
	tests := []struct {
		in       string
		max      int
		expected string
	}{
		{"hello", 10, "hello"},
		{"hello", 3, "hel"},
		{"café crème", 4, "café"},
		{"日本語テキスト", 3, "日本語"},
		{"abc", 0, ""},
		{"", 5, ""},
	}

	for _, tt := range tests {
		got := TruncateRunes(tt.in, tt.max)
		if got != tt.expected {
			t.Errorf("TruncateRunes(%q, %d) = %q, expected %q", tt.in, tt.max, got, tt.expected)
		}
		if !utf8.ValidString(got) {
			t.Errorf("TruncateRunes(%q, %d) produced invalid UTF-8", tt.in, tt.max)
		}
	}
}

func TestTooLong(t *testing.T) {
	accented := strings.Repeat("é", 200)
	if TooLong(accented, 255) {
		t.Errorf("200 two-byte runes should fit a 255 character limit")
	}
	if !TooLong(strings.Repeat("é", 256), 255) {
		t.Errorf("256 runes should exceed a 255 character limit")
	}
}
