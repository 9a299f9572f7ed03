package tinksubst

import (
	"sync"

	"github.com/google/tink/go/core/registry"
)

var registerMu sync.Mutex

// Register adds the substitution KeyManager to Tink's global registry. It is
// safe to call more than once and from multiple goroutines.
func Register() error {
	registerMu.Lock()
	defer registerMu.Unlock()

	if _, err := registry.GetKeyManager(SubstitutionKeyTypeURL); err == nil {
		return nil
	}
	return registry.RegisterKeyManager(NewKeyManager())
}
