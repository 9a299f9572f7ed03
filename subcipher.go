// Package subcipher implements a keyed, reversible monoalphabetic substitution
// cipher over the 26-letter Latin alphabet.
//
// A key is 26 decimal digits. The digits drive a sequential scrambling of the
// alphabet (see subtle.Scramble) that yields a bijective letter mapping for
// every well-formed key. Substitution preserves letter case and passes every
// other character through unchanged, so decoding an encoded message with the
// same key reproduces it exactly.
//
// This is a puzzle cipher, not a secure one: the keyspace is at most 26! and a
// single-letter substitution leaks letter frequencies.
//
// Example usage:
//
//	c, err := subcipher.New("31415926535897932384626433")
//	if err != nil {
//		log.Fatal(err)
//	}
//
//	encoded, err := c.Encode("Meet me at noon.")
//	if err != nil {
//		log.Fatal(err)
//	}
//
//	decoded, err := c.Decode(encoded)
//	if err != nil {
//		log.Fatal(err)
//	}
//	// decoded == "Meet me at noon."
package subcipher

import (
	"errors"
	"fmt"

	"github.com/vdparikh/subcipher/subtle"
)

// Variant selects the key-to-permutation construction.
type Variant int

const (
	// VariantSequential is the canonical construction. It accepts every
	// well-formed key.
	VariantSequential Variant = iota
	// VariantDirectShift maps letter i to letter (i + digit i) mod 26 and rejects
	// keys whose targets collide. It produces different ciphertexts than
	// VariantSequential for the same key.
	VariantDirectShift
)

func (v Variant) String() string {
	switch v {
	case VariantSequential:
		return "sequential"
	case VariantDirectShift:
		return "direct"
	default:
		return fmt.Sprintf("Variant(%d)", int(v))
	}
}

// ParseVariant accepts "sequential" or "direct". The empty string selects
// VariantSequential.
func ParseVariant(s string) (Variant, error) {
	switch s {
	case "", "sequential":
		return VariantSequential, nil
	case "direct":
		return VariantDirectShift, nil
	}
	return 0, fmt.Errorf("unknown variant %q (want sequential or direct)", s)
}

// DerivePermutation validates key and builds its permutation by sequential
// scrambling. A malformed key is rejected with a *KeyError wrapping
// ErrMalformedKey; any well-formed key succeeds.
func DerivePermutation(key string) (*subtle.Permutation, error) {
	return DerivePermutationVariant(key, VariantSequential)
}

// DeriveDirectPermutation validates key and builds its permutation by direct
// shifting. Besides ErrMalformedKey it can reject a key with ErrNonInvertibleKey.
func DeriveDirectPermutation(key string) (*subtle.Permutation, error) {
	return DerivePermutationVariant(key, VariantDirectShift)
}

// DerivePermutationVariant validates key and builds its permutation with the
// given construction.
func DerivePermutationVariant(key string, variant Variant) (*subtle.Permutation, error) {
	k, err := ParseKey(key)
	if err != nil {
		return nil, err
	}
	return DeriveFromKey(k, variant)
}

// DeriveFromKey builds the permutation for an already parsed key.
func DeriveFromKey(k Key, variant Variant) (*subtle.Permutation, error) {
	if !k.valid() {
		return nil, malformed("key digit out of range")
	}

	switch variant {
	case VariantSequential:
		p, err := subtle.Scramble(k.Shifts())
		if err != nil {
			return nil, fmt.Errorf("%w: %v", ErrInternalConsistency, err)
		}
		return p, nil
	case VariantDirectShift:
		p, err := subtle.DirectShift(k.Shifts())
		if errors.Is(err, subtle.ErrNotBijective) {
			return nil, &KeyError{Reason: ErrNonInvertibleKey, Detail: err.Error()}
		}
		if err != nil {
			return nil, fmt.Errorf("failed to derive permutation: %w", err)
		}
		return p, nil
	default:
		return nil, fmt.Errorf("unknown variant %v", variant)
	}
}

// Transform substitutes every letter of message through perm in the direction
// given by mode. Uppercase input letters produce uppercase output letters; all
// other characters are copied unchanged, so the output has the same length in
// bytes and in runes as the input.
//
// A letter with no entry in perm is a *ConsistencyError; it is never passed
// through silently.
func Transform(message string, perm *subtle.Permutation, mode Mode) (string, error) {
	var lookup func(byte) (byte, bool)
	switch mode {
	case Encode:
		lookup = perm.Encode
	case Decode:
		lookup = perm.Decode
	default:
		return "", fmt.Errorf("%w: %v", ErrInvalidMode, mode)
	}

	// ASCII letters never occur inside a multi-byte UTF-8 sequence, so working
	// byte by byte leaves every other character, valid or not, untouched.
	out := []byte(message)
	for i, b := range out {
		lower, upper, ok := foldLetter(rune(b))
		if !ok {
			continue
		}
		mapped, ok := lookup(lower)
		if !ok {
			return "", &ConsistencyError{Char: rune(b), Mode: mode}
		}
		out[i] = byte(restoreCase(mapped, upper))
	}
	return string(out), nil
}

// Cipher binds a derived permutation for repeated encoding and decoding.
//
// Thread safety: a Cipher is immutable and safe for concurrent use.
type Cipher struct {
	perm *subtle.Permutation
}

// New derives the sequential-scrambling permutation for key.
func New(key string) (*Cipher, error) {
	return NewWithVariant(key, VariantSequential)
}

// NewWithVariant derives the permutation for key with the given construction.
func NewWithVariant(key string, variant Variant) (*Cipher, error) {
	p, err := DerivePermutationVariant(key, variant)
	if err != nil {
		return nil, err
	}
	return &Cipher{perm: p}, nil
}

// NewFromPermutation wraps an existing permutation, for example one served
// from a cache. The permutation is validated first.
func NewFromPermutation(p *subtle.Permutation) (*Cipher, error) {
	if err := p.Validate(); err != nil {
		return nil, fmt.Errorf("%w: %v", ErrInternalConsistency, err)
	}
	return &Cipher{perm: p}, nil
}

// Encode substitutes plain letters with cipher letters.
func (c *Cipher) Encode(message string) (string, error) {
	return Transform(message, c.perm, Encode)
}

// Decode substitutes cipher letters with plain letters.
func (c *Cipher) Decode(message string) (string, error) {
	return Transform(message, c.perm, Decode)
}

// Permutation returns the permutation the cipher substitutes through.
func (c *Cipher) Permutation() *subtle.Permutation {
	return c.perm
}

var _ Substituter = (*Cipher)(nil)
