// Package subcipher implements a keyed substitution cipher.
// This file defines the primitive interface used for Tink integration.
// For Tink integration, see the tinksubst package.

package subcipher

// Substituter is a Tink-style primitive for the substitution cipher.
// It is deterministic: the same message and key always give the same output.
type Substituter interface {
	// Encode substitutes plain letters with cipher letters, preserving case and
	// passing every non-letter through.
	Encode(message string) (string, error)

	// Decode is the inverse of Encode.
	Decode(message string) (string, error)
}
