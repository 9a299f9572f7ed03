package tinksubst

import (
	"bytes"
	"errors"
	"strings"
	"testing"

	"github.com/google/tink/go/keyset"
	"github.com/google/tink/go/proto/tink_go_proto"
	"github.com/vdparikh/subcipher"
	"google.golang.org/protobuf/proto"
	"google.golang.org/protobuf/types/known/wrapperspb"
)

const testKey = "12345678901234567890123456"

func serializedKey(t testing.TB, digits string) []byte {
	t.Helper()
	value, err := proto.Marshal(wrapperspb.String(digits))
	if err != nil {
		t.Fatalf("Failed to serialize key: %v", err)
	}
	return value
}

// TestKeyManagerPrimitive tests that KeyManager.Primitive() builds a working cipher
func TestKeyManagerPrimitive(t *testing.T) {
	keyManager := NewKeyManager()

	primitive, err := keyManager.Primitive(serializedKey(t, testKey))
	if err != nil {
		t.Fatalf("KeyManager.Primitive() failed: %v", err)
	}

	cipher, ok := primitive.(*subcipher.Cipher)
	if !ok {
		t.Fatalf("Primitive is %T, want *subcipher.Cipher", primitive)
	}

	encoded, err := cipher.Encode("Hello, World!")
	if err != nil {
		t.Fatalf("Encode failed: %v", err)
	}
	if encoded != "Jdhhi, Rithc!" {
		t.Errorf("Encode = %q, want %q", encoded, "Jdhhi, Rithc!")
	}
}

func TestKeyManagerPrimitive_Invalid(t *testing.T) {
	keyManager := NewKeyManager()

	t.Run("MalformedDigits", func(t *testing.T) {
		_, err := keyManager.Primitive(serializedKey(t, "1234"))
		if !errors.Is(err, subcipher.ErrMalformedKey) {
			t.Errorf("expected ErrMalformedKey, got %v", err)
		}
	})

	t.Run("EmptyKeyMaterial", func(t *testing.T) {
		_, err := keyManager.Primitive(nil)
		if !errors.Is(err, subcipher.ErrMalformedKey) {
			t.Errorf("expected ErrMalformedKey, got %v", err)
		}
	})

	t.Run("TruncatedProto", func(t *testing.T) {
		if _, err := keyManager.Primitive([]byte{0x0a, 0x05, '1'}); err == nil {
			t.Error("expected error for truncated key material")
		}
	})
}

// TestKeyManagerDoesSupport tests KeyManager.DoesSupport()
func TestKeyManagerDoesSupport(t *testing.T) {
	keyManager := NewKeyManager()

	if !keyManager.DoesSupport(SubstitutionKeyTypeURL) {
		t.Errorf("KeyManager should support %s", SubstitutionKeyTypeURL)
	}

	if keyManager.DoesSupport("invalid-type-url") {
		t.Error("KeyManager should not support invalid type URL")
	}
}

// TestKeyManagerTypeURL tests KeyManager.TypeURL()
func TestKeyManagerTypeURL(t *testing.T) {
	keyManager := NewKeyManager()

	if keyManager.TypeURL() != SubstitutionKeyTypeURL {
		t.Errorf("Expected TypeURL %s, got %s", SubstitutionKeyTypeURL, keyManager.TypeURL())
	}
}

func TestKeyManagerNewKeyData(t *testing.T) {
	keyManager := NewKeyManager()

	testCases := []struct {
		name     string
		template []byte
		repeated bool
	}{
		{"EmptyTemplate", nil, false},
		{"RandomDigits", KeyTemplate().Value, false},
		{"RepeatedDigit", KeyTemplateRepeatedDigit().Value, true},
	}

	for _, tc := range testCases {
		t.Run(tc.name, func(t *testing.T) {
			keyData, err := keyManager.NewKeyData(tc.template)
			if err != nil {
				t.Fatalf("NewKeyData failed: %v", err)
			}
			if keyData.TypeUrl != SubstitutionKeyTypeURL {
				t.Errorf("TypeUrl = %s, want %s", keyData.TypeUrl, SubstitutionKeyTypeURL)
			}
			if keyData.KeyMaterialType != tink_go_proto.KeyData_SYMMETRIC {
				t.Errorf("KeyMaterialType = %v, want SYMMETRIC", keyData.KeyMaterialType)
			}

			digits, err := unmarshalKey(keyData.Value)
			if err != nil {
				t.Fatalf("unmarshalKey failed: %v", err)
			}
			if _, err := subcipher.ParseKey(digits); err != nil {
				t.Fatalf("generated key %q does not parse: %v", digits, err)
			}
			if tc.repeated && strings.Count(digits, digits[:1]) != len(digits) {
				t.Errorf("expected a repeated digit, got %s", digits)
			}
		})
	}
}

func TestKeyManagerNewKeyData_InvalidTemplate(t *testing.T) {
	keyManager := NewKeyManager()

	for _, template := range [][]byte{{7}, {0, 0}} {
		if _, err := keyManager.NewKeyData(template); err == nil {
			t.Errorf("expected error for template %v", template)
		}
	}
}

func TestKeyManagerNewKey_ExhaustedReader(t *testing.T) {
	keyManager := &KeyManager{typeURL: SubstitutionKeyTypeURL, rand: bytes.NewReader(nil)}

	if _, err := keyManager.NewKey(nil); err == nil {
		t.Error("expected error when the random source is exhausted")
	}
}

func TestNewKeysetHandleFromKey(t *testing.T) {
	handle, err := NewKeysetHandleFromKey(testKey)
	if err != nil {
		t.Fatalf("NewKeysetHandleFromKey failed: %v", err)
	}

	primitive, err := New(handle)
	if err != nil {
		t.Fatalf("New failed: %v", err)
	}
	encoded, err := primitive.Encode("Hello, World!")
	if err != nil {
		t.Fatalf("Encode failed: %v", err)
	}
	if encoded != "Jdhhi, Rithc!" {
		t.Errorf("Encode = %q, want %q", encoded, "Jdhhi, Rithc!")
	}

	key, err := PrimaryKey(handle)
	if err != nil {
		t.Fatalf("PrimaryKey failed: %v", err)
	}
	if key.String() != testKey {
		t.Errorf("PrimaryKey = %s, want %s", key, testKey)
	}
}

func TestNewKeysetHandleFromKey_Malformed(t *testing.T) {
	for _, key := range []string{"", "123", testKey + "7", "1234567890123456789012345x"} {
		if _, err := NewKeysetHandleFromKey(key); !errors.Is(err, subcipher.ErrMalformedKey) {
			t.Errorf("NewKeysetHandleFromKey(%q): expected ErrMalformedKey, got %v", key, err)
		}
	}
}

func TestNewHandleFromTemplate(t *testing.T) {
	if err := Register(); err != nil {
		t.Fatalf("Failed to register KeyManager: %v", err)
	}

	handle, err := keyset.NewHandle(KeyTemplateRepeatedDigit())
	if err != nil {
		t.Fatalf("Failed to create keyset handle: %v", err)
	}

	key, err := PrimaryKey(handle)
	if err != nil {
		t.Fatalf("PrimaryKey failed: %v", err)
	}
	digits := key.String()
	if strings.Count(digits, digits[:1]) != len(digits) {
		t.Errorf("expected a repeated digit, got %s", digits)
	}

	primitive, err := New(handle)
	if err != nil {
		t.Fatalf("New failed: %v", err)
	}
	roundTrip(t, primitive, "Repeated digits still scramble: XYZ")
}

func TestKeysetSerialization(t *testing.T) {
	handle, err := NewKeysetHandleFromKey(testKey)
	if err != nil {
		t.Fatalf("NewKeysetHandleFromKey failed: %v", err)
	}

	var buf bytes.Buffer
	if err := WriteKeyset(handle, &buf); err != nil {
		t.Fatalf("WriteKeyset failed: %v", err)
	}
	if !strings.Contains(buf.String(), SubstitutionKeyTypeURL) {
		t.Errorf("keyset JSON does not name the key type: %s", buf.String())
	}

	restored, err := ReadKeyset(&buf)
	if err != nil {
		t.Fatalf("ReadKeyset failed: %v", err)
	}

	original, err := New(handle)
	if err != nil {
		t.Fatalf("New(original) failed: %v", err)
	}
	loaded, err := New(restored)
	if err != nil {
		t.Fatalf("New(restored) failed: %v", err)
	}

	message := "Serialize me, please."
	want, _ := original.Encode(message)
	got, err := loaded.Encode(message)
	if err != nil {
		t.Fatalf("Encode failed: %v", err)
	}
	if got != want {
		t.Errorf("restored keyset encodes %q as %q, want %q", message, got, want)
	}
}

func TestNew_NilHandle(t *testing.T) {
	if _, err := New(nil); err == nil {
		t.Error("expected error for nil handle")
	}
	if _, err := PrimaryKey(nil); err == nil {
		t.Error("expected error for nil handle")
	}
	if err := WriteKeyset(nil, &bytes.Buffer{}); err == nil {
		t.Error("expected error for nil handle")
	}
}

func TestReadKeyset_Garbage(t *testing.T) {
	if _, err := ReadKeyset(strings.NewReader("{not json")); err == nil {
		t.Error("expected error for malformed keyset JSON")
	}
}

func TestRegister_Idempotent(t *testing.T) {
	for i := 0; i < 3; i++ {
		if err := Register(); err != nil {
			t.Fatalf("Register call %d failed: %v", i, err)
		}
	}
}

func roundTrip(t *testing.T, primitive subcipher.Substituter, message string) {
	t.Helper()
	encoded, err := primitive.Encode(message)
	if err != nil {
		t.Fatalf("Encode failed: %v", err)
	}
	decoded, err := primitive.Decode(encoded)
	if err != nil {
		t.Fatalf("Decode failed: %v", err)
	}
	if decoded != message {
		t.Errorf("round trip: %q -> %q -> %q", message, encoded, decoded)
	}
}
