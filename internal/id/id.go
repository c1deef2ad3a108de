// Package id generates the prefixed string identifiers used for users,
// sessions and tokens. Transcriptions and MoMs use database row ids instead.
package id

import (
	"fmt"
	"strings"

	gonanoid "github.com/matoous/go-nanoid/v2"
)

// Prefixes in use.
const (
	PrefixUser    = "user"
	PrefixSession = "session"
	PrefixToken   = "token"
)

// Generate returns prefix + "-" + a 21 character NanoID, e.g.
// "user-V1StGXR8_Z5jdHi6B-myT".
func Generate(prefix string) (string, error) {
	n, err := gonanoid.New()
	if err != nil {
		return "", fmt.Errorf("generate nanoid: %w", err)
	}
	return prefix + "-" + n, nil
}

// HasPrefix reports whether s was generated with prefix.
func HasPrefix(s, prefix string) bool {
	return strings.HasPrefix(s, prefix+"-") && len(s) > len(prefix)+1
}
