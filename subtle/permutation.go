// Package subtle provides low-level primitives for the keyed substitution cipher.
package subtle

import (
	"errors"
	"fmt"
)

// Alphabet is the ordered plain alphabet every permutation is defined over.
const Alphabet = "abcdefghijklmnopqrstuvwxyz"

// Size is the number of letters in Alphabet and the number of shifts in a key.
const Size = len(Alphabet)

// ErrNotBijective is returned when a construction does not yield a one-to-one
// mapping of the alphabet onto itself.
var ErrNotBijective = errors.New("mapping is not a bijection over the alphabet")

// Permutation is a bijective mapping from Alphabet to Alphabet, held as two
// mutually inverse lookup tables.
//
// A *Permutation obtained from Scramble, DirectShift or FromScrambled is always
// total. The zero value has no entries and every lookup on it reports a miss.
//
// Thread safety: a Permutation is never modified after construction and is safe
// for concurrent use by multiple goroutines.
type Permutation struct {
	encode [Size]byte
	decode [Size]byte
}

// FromScrambled builds a Permutation from a scrambled alphabet, where position j
// holds the cipher letter for plain letter Alphabet[j]. The input must contain
// every lowercase letter exactly once.
func FromScrambled(scrambled string) (*Permutation, error) {
	if len(scrambled) != Size {
		return nil, fmt.Errorf("%w: scrambled alphabet has %d letters, want %d", ErrNotBijective, len(scrambled), Size)
	}

	p := &Permutation{}
	for j := 0; j < Size; j++ {
		c := scrambled[j]
		if c < 'a' || c > 'z' {
			return nil, fmt.Errorf("%w: %q is not a lowercase letter", ErrNotBijective, c)
		}
		if p.decode[c-'a'] != 0 {
			return nil, fmt.Errorf("%w: letter %q appears more than once", ErrNotBijective, c)
		}
		p.encode[j] = c
		p.decode[c-'a'] = Alphabet[j]
	}
	return p, nil
}

// Encode returns the cipher letter for the lowercase plain letter c. The boolean
// is false when c is outside the alphabet or the table has no entry for it.
func (p *Permutation) Encode(c byte) (byte, bool) {
	return lookup(p, c, true)
}

// Decode returns the plain letter for the lowercase cipher letter c.
func (p *Permutation) Decode(c byte) (byte, bool) {
	return lookup(p, c, false)
}

func lookup(p *Permutation, c byte, forward bool) (byte, bool) {
	if p == nil || c < 'a' || c > 'z' {
		return 0, false
	}
	var out byte
	if forward {
		out = p.encode[c-'a']
	} else {
		out = p.decode[c-'a']
	}
	return out, out != 0
}

// Scrambled returns the cipher alphabet: position j is the image of Alphabet[j].
func (p *Permutation) Scrambled() string {
	if p == nil {
		return ""
	}
	return string(p.encode[:])
}

// Validate reports whether the two tables are total and mutually inverse.
func (p *Permutation) Validate() error {
	if p == nil {
		return fmt.Errorf("%w: nil permutation", ErrNotBijective)
	}
	for i := 0; i < Size; i++ {
		plain := Alphabet[i]
		c, ok := p.Encode(plain)
		if !ok {
			return fmt.Errorf("%w: no encode entry for %q", ErrNotBijective, plain)
		}
		back, ok := p.Decode(c)
		if !ok || back != plain {
			return fmt.Errorf("%w: decode(encode(%q)) = %q", ErrNotBijective, plain, back)
		}
	}
	return nil
}

// fromTargets builds a Permutation where plain letter i maps to Alphabet[targets[i]].
func fromTargets(targets [Size]int) (*Permutation, error) {
	scrambled := make([]byte, Size)
	for i, t := range targets {
		scrambled[i] = Alphabet[t]
	}
	return FromScrambled(string(scrambled))
}
