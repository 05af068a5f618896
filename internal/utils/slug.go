package utils

import (
	"fmt"
	"regexp"
	"strings"
	"unicode"

	gonanoid "github.com/matoous/go-nanoid/v2"
	"golang.org/x/text/unicode/norm"
)

const (
	maxSlugLength  = 180
	slugSuffixSize = 6
	slugAlphabet   = "abcdefghijklmnopqrstuvwxyz0123456789"
)

var (
	nonAlphanumeric = regexp.MustCompile(`[^a-z0-9]+`)
	multipleHyphens = regexp.MustCompile(`-+`)
)

// Slugify converts a title to a URL-safe slug.
// "Brand Identity 2024" -> "brand-identity-2024".
// "Café Logo" -> "cafe-logo".
func Slugify(s string) string {
	s = norm.NFKD.String(s)

	s = strings.Map(func(r rune) rune {
		if r > unicode.MaxASCII {
			return -1
		}
		return r
	}, s)

	s = strings.ToLower(s)
	s = nonAlphanumeric.ReplaceAllString(s, "-")
	s = multipleHyphens.ReplaceAllString(s, "-")
	s = strings.Trim(s, "-")

	if len(s) > maxSlugLength {
		s = strings.TrimRight(s[:maxSlugLength], "-")
	}
	return s
}

// SlugWithSuffix appends a short random fragment to base, used when the
// plain slug is already taken.
func SlugWithSuffix(base string) (string, error) {
	suffix, err := gonanoid.Generate(slugAlphabet, slugSuffixSize)
	if err != nil {
		return "", fmt.Errorf("generate slug suffix: %w", err)
	}
	if base == "" {
		return suffix, nil
	}
	return base + "-" + suffix, nil
}
