// Package id generates prefixed unique identifiers for Knotspot entities.
package id

import (
	"fmt"

	gonanoid "github.com/matoous/go-nanoid/v2"
)

// Entity prefixes used across the application. Ids look like
// "spot-V1StGXR8_Z5jdHi6B-myT".
const (
	PrefixUser         = "user"
	PrefixSpot         = "spot"
	PrefixKnot         = "knot"
	PrefixGroup        = "grp"
	PrefixComment      = "cmt"
	PrefixNotification = "ntf"
)

// Generate creates a prefixed unique ID using NanoID (21 characters,
// URL-safe alphabet). NanoIDs are compact and carry more entropy per
// character than UUIDs.
//
// Returns an error if the system has insufficient entropy for secure random
// generation.
func Generate(prefix string) (string, error) {
	id, err := gonanoid.New()
	if err != nil {
		return "", fmt.Errorf("generate nanoid: %w", err)
	}
	return prefix + "-" + id, nil
}

// MustGenerate is like Generate but panics if ID generation fails. Use only
// where failure should crash the program, e.g. during initialization.
func MustGenerate(prefix string) string {
	id, err := Generate(prefix)
	if err != nil {
		panic(fmt.Sprintf("failed to generate ID: %v", err))
	}
	return id
}
