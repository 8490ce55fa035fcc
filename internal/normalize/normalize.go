// Package normalize provides utilities for normalizing user-supplied text.
package normalize

import (
	"regexp"
	"strings"
	"unicode"

	"golang.org/x/text/unicode/norm"
)

var (
	// Matches any non-alphanumeric character.
	nonAlphanumeric = regexp.MustCompile(`[^a-z0-9]+`)
	// Matches multiple underscores.
	multipleUnderscores = regexp.MustCompile(`_+`)
	// Matches runs of whitespace, including newlines.
	whitespaceRun = regexp.MustCompile(`\s+`)
)

// ProfileTag converts a display name into a lowercase, URL-safe profile tag.
// "Ana María" -> "ana_maria".
// "DJ Spin!" -> "dj_spin".
func ProfileTag(s string) string {
	// Normalize unicode (decompose accented characters).
	s = norm.NFKD.String(s)

	// Remove non-ASCII characters.
	s = strings.Map(func(r rune) rune {
		if r > unicode.MaxASCII {
			return -1
		}
		return r
	}, s)

	// Lowercase.
	s = strings.ToLower(s)

	// Replace non-alphanumeric with underscores.
	s = nonAlphanumeric.ReplaceAllString(s, "_")

	// Collapse multiple underscores.
	s = multipleUnderscores.ReplaceAllString(s, "_")

	// Trim leading/trailing underscores.
	s = strings.Trim(s, "_")

	return s
}

// Username trims and unicode-normalizes a username without changing case.
func Username(s string) string {
	return norm.NFC.String(strings.TrimSpace(s))
}

// Caption normalizes a caption or comment body: converts any HTML markup to
// Markdown, collapses whitespace runs, and trims the result.
func Caption(s string) string {
	s = BodyMarkdown(s)
	s = whitespaceRun.ReplaceAllString(s, " ")
	return strings.TrimSpace(s)
}

// LocationName trims and collapses whitespace in a free-form place name.
func LocationName(s string) string {
	return strings.TrimSpace(whitespaceRun.ReplaceAllString(s, " "))
}
