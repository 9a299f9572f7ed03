package subcipher

import (
	"errors"
	"fmt"
)

var (
	// ErrMalformedKey is returned when a key is not exactly 26 decimal digits.
	ErrMalformedKey = errors.New("malformed key")
	// ErrNonInvertibleKey is returned when a key does not yield a bijection under
	// the direct-shift construction.
	ErrNonInvertibleKey = errors.New("non-invertible key")
	// ErrInternalConsistency is returned when a permutation lacks an entry that a
	// valid permutation always has. It indicates a defect, not bad input.
	ErrInternalConsistency = errors.New("internal consistency error")
	// ErrInvalidMode is returned for a mode other than encode or decode.
	ErrInvalidMode = errors.New("invalid mode")
)

// KeyError is the typed rejection for a key that cannot produce a permutation.
// Reason is ErrMalformedKey or ErrNonInvertibleKey.
type KeyError struct {
	Reason error
	Detail string
}

func (e *KeyError) Error() string {
	if e.Detail == "" {
		return e.Reason.Error()
	}
	return e.Reason.Error() + ": " + e.Detail
}

func (e *KeyError) Unwrap() error {
	return e.Reason
}

// ConsistencyError reports a letter the permutation could not map.
type ConsistencyError struct {
	Char rune
	Mode Mode
}

func (e *ConsistencyError) Error() string {
	return fmt.Sprintf("%v: no %s entry for %q", ErrInternalConsistency, e.Mode, e.Char)
}

func (e *ConsistencyError) Unwrap() error {
	return ErrInternalConsistency
}

func malformed(format string, args ...interface{}) error {
	return &KeyError{Reason: ErrMalformedKey, Detail: fmt.Sprintf(format, args...)}
}
