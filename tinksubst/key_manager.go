// Package tinksubst provides Tink integration for the substitution cipher.
// This file contains the KeyManager implementation that registers the cipher with Tink's registry.
package tinksubst

import (
	"crypto/rand"
	"encoding/binary"
	"fmt"
	"io"

	"github.com/google/tink/go/core/registry"
	"github.com/google/tink/go/insecurecleartextkeyset"
	"github.com/google/tink/go/keyset"
	"github.com/google/tink/go/proto/tink_go_proto"
	"github.com/vdparikh/subcipher"
	"google.golang.org/protobuf/proto"
	"google.golang.org/protobuf/types/known/wrapperspb"
)

const (
	// SubstitutionKeyTypeURL is the type URL for substitution keys in Tink's registry.
	SubstitutionKeyTypeURL = "type.googleapis.com/google.crypto.tink.SubstitutionKey"
)

// Template values select the key generation strategy.
const (
	templateRandomDigits  byte = 0
	templateRepeatedDigit byte = 1
)

// KeyManager implements registry.KeyManager for substitution keys.
// Key material is a wrapperspb.StringValue holding the 26 key digits.
type KeyManager struct {
	typeURL string
	rand    io.Reader
}

// NewKeyManager creates a new substitution key manager that draws key digits
// from crypto/rand.
func NewKeyManager() *KeyManager {
	return &KeyManager{
		typeURL: SubstitutionKeyTypeURL,
		rand:    rand.Reader,
	}
}

// Primitive creates a *subcipher.Cipher from the given serialized key.
func (km *KeyManager) Primitive(serializedKey []byte) (interface{}, error) {
	digits, err := unmarshalKey(serializedKey)
	if err != nil {
		return nil, err
	}

	cipher, err := subcipher.New(digits)
	if err != nil {
		return nil, fmt.Errorf("failed to create cipher: %w", err)
	}
	return cipher, nil
}

// DoesSupport returns true if this KeyManager supports the given key type URL.
func (km *KeyManager) DoesSupport(typeURL string) bool {
	return typeURL == km.typeURL
}

// TypeURL returns the type URL of the keys managed by this KeyManager.
func (km *KeyManager) TypeURL() string {
	return km.typeURL
}

// NewKey generates a new key according to the given key template value.
// An empty template selects random digits.
func (km *KeyManager) NewKey(serializedKeyTemplate []byte) (proto.Message, error) {
	strategy, err := km.strategyFor(serializedKeyTemplate)
	if err != nil {
		return nil, err
	}

	key, err := strategy()
	if err != nil {
		return nil, fmt.Errorf("failed to generate key: %w", err)
	}
	return wrapperspb.String(key.String()), nil
}

// NewKeyData creates a new KeyData from the given key template value.
func (km *KeyManager) NewKeyData(serializedKeyTemplate []byte) (*tink_go_proto.KeyData, error) {
	key, err := km.NewKey(serializedKeyTemplate)
	if err != nil {
		return nil, err
	}

	value, err := proto.Marshal(key)
	if err != nil {
		return nil, fmt.Errorf("failed to serialize key: %w", err)
	}

	return &tink_go_proto.KeyData{
		TypeUrl:         km.typeURL,
		Value:           value,
		KeyMaterialType: tink_go_proto.KeyData_SYMMETRIC,
	}, nil
}

func (km *KeyManager) strategyFor(template []byte) (subcipher.KeyStrategy, error) {
	if len(template) == 0 {
		return subcipher.RandomDigits(km.rand), nil
	}
	if len(template) != 1 {
		return nil, fmt.Errorf("invalid key template: %d bytes (want 1)", len(template))
	}
	switch template[0] {
	case templateRandomDigits:
		return subcipher.RandomDigits(km.rand), nil
	case templateRepeatedDigit:
		return subcipher.RepeatedDigit(km.rand), nil
	default:
		return nil, fmt.Errorf("invalid key template: unknown strategy %d", template[0])
	}
}

// Verify that KeyManager implements registry.KeyManager
var _ registry.KeyManager = (*KeyManager)(nil)

// KeyTemplate creates a key template for substitution keys with 26 random digits.
//
//	handle, err := keyset.NewHandle(tinksubst.KeyTemplate())
func KeyTemplate() *tink_go_proto.KeyTemplate {
	return &tink_go_proto.KeyTemplate{
		TypeUrl:          SubstitutionKeyTypeURL,
		Value:            []byte{templateRandomDigits},
		OutputPrefixType: tink_go_proto.OutputPrefixType_RAW,
	}
}

// KeyTemplateRepeatedDigit creates a key template whose keys repeat a single
// random digit 26 times.
func KeyTemplateRepeatedDigit() *tink_go_proto.KeyTemplate {
	return &tink_go_proto.KeyTemplate{
		TypeUrl:          SubstitutionKeyTypeURL,
		Value:            []byte{templateRepeatedDigit},
		OutputPrefixType: tink_go_proto.OutputPrefixType_RAW,
	}
}

// NewKeysetHandleFromKey creates a keyset handle from a 26-digit key string,
// for keys that were issued outside Tink.
//
// Example:
//
//	handle, err := tinksubst.NewKeysetHandleFromKey("12345678901234567890123456")
//	if err != nil {
//		log.Fatal(err)
//	}
//	primitive, err := tinksubst.New(handle)
//
// The keyset is unencrypted.
func NewKeysetHandleFromKey(key string) (*keyset.Handle, error) {
	parsed, err := subcipher.ParseKey(key)
	if err != nil {
		return nil, err
	}

	value, err := proto.Marshal(wrapperspb.String(parsed.String()))
	if err != nil {
		return nil, fmt.Errorf("failed to serialize key: %w", err)
	}

	keyIDBytes := make([]byte, 4)
	if _, err := rand.Read(keyIDBytes); err != nil {
		return nil, fmt.Errorf("failed to generate key ID: %w", err)
	}
	keyID := binary.BigEndian.Uint32(keyIDBytes)
	if keyID == 0 {
		keyID = 1
	}

	keysetKey := &tink_go_proto.Keyset_Key{
		KeyData: &tink_go_proto.KeyData{
			TypeUrl:         SubstitutionKeyTypeURL,
			Value:           value,
			KeyMaterialType: tink_go_proto.KeyData_SYMMETRIC,
		},
		KeyId:            keyID,
		Status:           tink_go_proto.KeyStatusType_ENABLED,
		OutputPrefixType: tink_go_proto.OutputPrefixType_RAW,
	}

	ks := &tink_go_proto.Keyset{
		PrimaryKeyId: keyID,
		Key:          []*tink_go_proto.Keyset_Key{keysetKey},
	}

	buf := &keyset.MemReaderWriter{Keyset: ks}
	return insecurecleartextkeyset.Read(buf)
}

func unmarshalKey(serializedKey []byte) (string, error) {
	var v wrapperspb.StringValue
	if err := proto.Unmarshal(serializedKey, &v); err != nil {
		return "", fmt.Errorf("failed to parse key material: %w", err)
	}
	return v.GetValue(), nil
}
