package subcipher

import (
	"fmt"
	"strings"
)

// Mode selects the direction of a substitution.
type Mode int

const (
	// Encode maps plain letters to cipher letters.
	Encode Mode = iota
	// Decode maps cipher letters back to plain letters.
	Decode
)

func (m Mode) String() string {
	switch m {
	case Encode:
		return "encode"
	case Decode:
		return "decode"
	default:
		return fmt.Sprintf("Mode(%d)", int(m))
	}
}

// ParseMode accepts "encode" or "decode", ignoring case and surrounding space.
func ParseMode(s string) (Mode, error) {
	switch strings.ToLower(strings.TrimSpace(s)) {
	case "encode":
		return Encode, nil
	case "decode":
		return Decode, nil
	}
	return 0, fmt.Errorf("%w: %q", ErrInvalidMode, s)
}
