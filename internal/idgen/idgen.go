// Package idgen provides short, URL-safe unique ID generation backed by nanoid.
package idgen

import (
	"fmt"

	nanoid "github.com/matoous/go-nanoid/v2"
)

// Prefixes for the record kinds that need generated ids. Raw and
// categorized events use content-derived hashes instead, so repeated
// captures dedupe; see model.ComputeID.
const (
	PrefixDecision = "dec-"
	PrefixEntry    = "ke-"
)

// Alphabet defines the character set used for the random portion of the ID.
var Alphabet = "abcdefghijklmnopqrstuvwxyzABCDEFGHIJKLMNOPQRSTUVWXYZ0123456789"

// Length is the number of random characters generated (excluding the prefix).
var Length = 10

// Decision returns a new unique decision ID.
func Decision() (string, error) {
	return generate(PrefixDecision)
}

// Entry returns a new unique knowledge-entry ID.
func Entry() (string, error) {
	return generate(PrefixEntry)
}

func generate(prefix string) (string, error) {
	id, err := nanoid.Generate(Alphabet, Length)
	if err != nil {
		return "", fmt.Errorf("idgen: %w", err)
	}
	return prefix + id, nil
}
