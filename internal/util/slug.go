// Package util provides common utility functions.
package util

import (
	"regexp"
	"strings"
)

var (
	// Matches spaces, underscores, dots and slashes.
	wordSeparatorRe = regexp.MustCompile(`[\s_./\\]+`)
	// Matches anything that is not a lowercase letter, digit or dash.
	nonAlphanumericRe = regexp.MustCompile(`[^a-z0-9-]`)
	multipleDashRe    = regexp.MustCompile(`-+`)
)

// maxSlugLen bounds slugs used in file names.
const maxSlugLen = 40

// Slug converts free text into a lowercase, dash separated token that is
// safe inside a file name or a quoted header value.
//
//	"Alice Smith"      → "alice-smith"
//	"weekly_sync.v2"   → "weekly-sync-v2"
//	"\"quoted\"; evil" → "quoted-evil"
//	"🐉"               → ""
func Slug(input string) string {
	s := strings.ToLower(strings.TrimSpace(input))
	s = wordSeparatorRe.ReplaceAllString(s, "-")
	s = nonAlphanumericRe.ReplaceAllString(s, "")
	s = multipleDashRe.ReplaceAllString(s, "-")
	s = strings.Trim(s, "-")

	if len(s) > maxSlugLen {
		s = strings.TrimRight(s[:maxSlugLen], "-")
	}
	return s
}
