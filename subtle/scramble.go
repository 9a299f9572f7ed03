// Package subtle provides low-level primitives for the keyed substitution cipher.
// This package contains the two permutation constructions that work on raw shift
// values. It should not be used directly by most users; instead use the high-level
// APIs in the parent package, which parse and validate keys first.
package subtle

import (
	"fmt"
	"slices"
)

// MaxShift is the largest shift a single key digit can carry.
const MaxShift = 9

// Scramble derives a Permutation by sequential scrambling.
//
// Starting from Alphabet, each original letter Alphabet[i] in turn is removed
// from its current position p in the working sequence and re-inserted at
// (p + shifts[i]) mod 25. When a non-zero move wraps exactly onto index 0 the
// letter goes to the end of the sequence instead. The final sequence is the
// cipher alphabet.
//
// Every remove/re-insert keeps the sequence a rearrangement of the alphabet, so
// the result is a bijection for any valid shift vector.
//
// Thread safety: this function is pure and safe for concurrent use.
func Scramble(shifts []uint8) (*Permutation, error) {
	if err := checkShifts(shifts); err != nil {
		return nil, err
	}

	working := []byte(Alphabet)
	for i := 0; i < Size; i++ {
		letter := Alphabet[i]
		shift := int(shifts[i])

		p := slices.Index(working, letter)
		if p < 0 {
			return nil, fmt.Errorf("%w: letter %q missing from working sequence", ErrNotBijective, letter)
		}
		working = slices.Delete(working, p, p+1)

		// Length is Size-1 while the letter is out of the sequence.
		q := (p + shift) % len(working)
		if q == 0 && p+shift > 0 {
			q = len(working)
		}
		working = slices.Insert(working, q, letter)
	}

	return FromScrambled(string(working))
}

// DirectShift derives a Permutation by shifting every letter independently:
// plain letter i maps to Alphabet[(i + shifts[i]) mod 26].
//
// Unlike Scramble this construction can collide. When two letters land on the
// same target the key is rejected with ErrNotBijective and no Permutation is
// produced.
func DirectShift(shifts []uint8) (*Permutation, error) {
	if err := checkShifts(shifts); err != nil {
		return nil, err
	}

	var targets [Size]int
	var taken [Size]bool
	for i := 0; i < Size; i++ {
		t := (i + int(shifts[i])) % Size
		if taken[t] {
			return nil, fmt.Errorf("%w: letter %q collides on %q", ErrNotBijective, Alphabet[i], Alphabet[t])
		}
		taken[t] = true
		targets[i] = t
	}

	return fromTargets(targets)
}

func checkShifts(shifts []uint8) error {
	if len(shifts) != Size {
		return fmt.Errorf("invalid shift count: got %d, want %d", len(shifts), Size)
	}
	for i, s := range shifts {
		if s > MaxShift {
			return fmt.Errorf("invalid shift at position %d: %d (maximum %d)", i, s, MaxShift)
		}
	}
	return nil
}
