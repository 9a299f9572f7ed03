package subcipher

import (
	"crypto/rand"
	"fmt"
	"io"
	"math/big"
)

// KeyStrategy produces a new key. Callers pick the policy; the cipher itself
// accepts any well-formed key.
type KeyStrategy func() (Key, error)

var ten = big.NewInt(10)

// RandomDigits returns a strategy that draws each of the 26 digits
// independently and uniformly from r. A nil r uses crypto/rand.
func RandomDigits(r io.Reader) KeyStrategy {
	if r == nil {
		r = rand.Reader
	}
	return func() (Key, error) {
		var k Key
		for i := range k {
			d, err := randomDigit(r)
			if err != nil {
				return Key{}, err
			}
			k[i] = d
		}
		return k, nil
	}
}

// RepeatedDigit returns a strategy that draws a single digit from r and repeats
// it 26 times. Under VariantDirectShift such a key is a Caesar shift.
func RepeatedDigit(r io.Reader) KeyStrategy {
	if r == nil {
		r = rand.Reader
	}
	return func() (Key, error) {
		var k Key
		d, err := randomDigit(r)
		if err != nil {
			return Key{}, err
		}
		for i := range k {
			k[i] = d
		}
		return k, nil
	}
}

// GenerateKey returns a key of 26 random digits from crypto/rand.
func GenerateKey() (Key, error) {
	return RandomDigits(nil)()
}

func randomDigit(r io.Reader) (uint8, error) {
	n, err := rand.Int(r, ten)
	if err != nil {
		return 0, fmt.Errorf("failed to generate key digit: %w", err)
	}
	return uint8(n.Int64()), nil
}

// StrategyByName resolves "random" or "repeated" to a strategy reading from r.
func StrategyByName(name string, r io.Reader) (KeyStrategy, error) {
	switch name {
	case "", "random":
		return RandomDigits(r), nil
	case "repeated":
		return RepeatedDigit(r), nil
	}
	return nil, fmt.Errorf("unknown key strategy %q (want random or repeated)", name)
}
