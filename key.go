package subcipher

import (
	"strings"

	"github.com/vdparikh/subcipher/subtle"
)

// KeyLength is the number of digits in a key, one per alphabet letter.
const KeyLength = subtle.Size

// Key is a parsed cipher key. Digit i is the shift applied to letter 'a'+i.
type Key [KeyLength]uint8

// ParseKey converts a 26-character decimal string into a Key.
// Any other length, or any character outside '0'..'9', is rejected with a
// *KeyError wrapping ErrMalformedKey.
func ParseKey(s string) (Key, error) {
	var k Key
	if len(s) != KeyLength {
		return k, malformed("key must be exactly %d digits, got %d characters", KeyLength, len([]rune(s)))
	}
	for i := 0; i < len(s); i++ {
		c := s[i]
		if c < '0' || c > '9' {
			return k, malformed("non-digit character at position %d", i)
		}
		k[i] = c - '0'
	}
	return k, nil
}

// MustParseKey is like ParseKey but panics on a malformed key.
// It is intended for keys that are constants in source code.
func MustParseKey(s string) Key {
	k, err := ParseKey(s)
	if err != nil {
		panic(err)
	}
	return k
}

// String renders the key as its 26 digits.
func (k Key) String() string {
	var b strings.Builder
	b.Grow(KeyLength)
	for _, d := range k {
		b.WriteByte('0' + d)
	}
	return b.String()
}

// Shifts returns the key digits as shift values for the subtle constructions.
func (k Key) Shifts() []uint8 {
	shifts := make([]uint8, KeyLength)
	copy(shifts, k[:])
	return shifts
}

func (k Key) valid() bool {
	for _, d := range k {
		if d > subtle.MaxShift {
			return false
		}
	}
	return true
}
