package utils

import "unicode/utf8"

// TooLong reports whether s has more than max characters. Length limits in
// request bindings count runes, so stored limits do too.
func TooLong(s string, max int) bool {
	return utf8.RuneCountInString(s) > max
}

// TruncateRunes cuts s to at most max runes without splitting a character.
func TruncateRunes(s string, max int) string {
	if max <= 0 {
		return ""
	}
	n := 0
	for i := range s {
		if n == max {
			return s[:i]
		}
		n++
	}
	return s
}
