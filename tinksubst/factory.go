package tinksubst

import (
	"fmt"
	"io"

	"github.com/google/tink/go/insecurecleartextkeyset"
	"github.com/google/tink/go/keyset"
	"github.com/vdparikh/subcipher"
)

// New creates a substitution primitive from a Tink keyset handle, registering
// the KeyManager first if needed.
//
// Example:
//
//	handle, err := keyset.NewHandle(tinksubst.KeyTemplate())
//	if err != nil {
//	    return err
//	}
//	primitive, err := tinksubst.New(handle)
//	if err != nil {
//	    return err
//	}
//	encoded, err := primitive.Encode("Hello, World!")
func New(handle *keyset.Handle) (subcipher.Substituter, error) {
	if handle == nil {
		return nil, fmt.Errorf("keyset handle cannot be nil")
	}
	if err := Register(); err != nil {
		return nil, fmt.Errorf("failed to register key manager: %w", err)
	}

	primitives, err := handle.Primitives()
	if err != nil {
		return nil, fmt.Errorf("failed to get primitives from handle: %w", err)
	}

	primary := primitives.Primary
	if primary == nil {
		return nil, fmt.Errorf("no primary key found in keyset")
	}

	cipher, ok := primary.Primitive.(*subcipher.Cipher)
	if !ok {
		return nil, fmt.Errorf("primary key is not a substitution key: %T", primary.Primitive)
	}
	return cipher, nil
}

// PrimaryKey returns the digits of the primary key of a cleartext keyset.
func PrimaryKey(handle *keyset.Handle) (subcipher.Key, error) {
	if handle == nil {
		return subcipher.Key{}, fmt.Errorf("keyset handle cannot be nil")
	}

	ks := insecurecleartextkeyset.KeysetMaterial(handle)
	for _, key := range ks.Key {
		if key.KeyId != ks.PrimaryKeyId || key.KeyData == nil {
			continue
		}
		if key.KeyData.TypeUrl != SubstitutionKeyTypeURL {
			return subcipher.Key{}, fmt.Errorf("primary key has type %s", key.KeyData.TypeUrl)
		}
		digits, err := unmarshalKey(key.KeyData.Value)
		if err != nil {
			return subcipher.Key{}, err
		}
		return subcipher.ParseKey(digits)
	}
	return subcipher.Key{}, fmt.Errorf("primary key %d not found", ks.PrimaryKeyId)
}

// WriteKeyset writes a cleartext keyset as JSON.
func WriteKeyset(handle *keyset.Handle, w io.Writer) error {
	if handle == nil {
		return fmt.Errorf("keyset handle cannot be nil")
	}
	if err := insecurecleartextkeyset.Write(handle, keyset.NewJSONWriter(w)); err != nil {
		return fmt.Errorf("failed to write keyset: %w", err)
	}
	return nil
}

// ReadKeyset reads a cleartext JSON keyset written by WriteKeyset.
func ReadKeyset(r io.Reader) (*keyset.Handle, error) {
	handle, err := insecurecleartextkeyset.Read(keyset.NewJSONReader(r))
	if err != nil {
		return nil, fmt.Errorf("failed to read keyset: %w", err)
	}
	return handle, nil
}
