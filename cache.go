package subcipher

import (
	"context"
	"sync"

	"github.com/vdparikh/subcipher/subtle"
)

// PermutationCache stores derived permutations by key. Implementations must be
// safe for concurrent Get and Put.
type PermutationCache interface {
	// Get returns the cached permutation for key. The boolean is false on a miss.
	Get(ctx context.Context, key Key) (*subtle.Permutation, bool, error)

	// Put stores the permutation for key.
	Put(ctx context.Context, key Key, perm *subtle.Permutation) error
}

// MemoryCache is an in-process PermutationCache.
type MemoryCache struct {
	mu    sync.RWMutex
	perms map[Key]*subtle.Permutation
}

// NewMemoryCache returns an empty MemoryCache.
func NewMemoryCache() *MemoryCache {
	return &MemoryCache{perms: make(map[Key]*subtle.Permutation)}
}

// Get implements PermutationCache.
func (c *MemoryCache) Get(_ context.Context, key Key) (*subtle.Permutation, bool, error) {
	c.mu.RLock()
	defer c.mu.RUnlock()

	p, ok := c.perms[key]
	return p, ok, nil
}

// Put implements PermutationCache.
func (c *MemoryCache) Put(_ context.Context, key Key, perm *subtle.Permutation) error {
	c.mu.Lock()
	defer c.mu.Unlock()

	c.perms[key] = perm
	return nil
}

// Len returns the number of cached permutations.
func (c *MemoryCache) Len() int {
	c.mu.RLock()
	defer c.mu.RUnlock()
	return len(c.perms)
}

// DeriverOption configures a Deriver.
type DeriverOption func(*Deriver)

// WithVariant selects the construction the Deriver uses. Caches should not be
// shared between Derivers with different variants.
func WithVariant(v Variant) DeriverOption {
	return func(d *Deriver) {
		d.variant = v
	}
}

// WithErrorHandler registers a callback for cache failures. Cache failures
// never fail a derivation.
func WithErrorHandler(fn func(op string, err error)) DeriverOption {
	return func(d *Deriver) {
		d.onError = fn
	}
}

// Deriver memoizes permutation derivation through a read-through cache.
type Deriver struct {
	cache   PermutationCache
	variant Variant
	onError func(op string, err error)
}

// NewDeriver returns a Deriver backed by cache. A nil cache disables memoization.
func NewDeriver(cache PermutationCache, opts ...DeriverOption) *Deriver {
	d := &Deriver{cache: cache, variant: VariantSequential}
	for _, opt := range opts {
		opt(d)
	}
	return d
}

// Derive parses key and returns its permutation, consulting the cache first.
// Malformed keys are rejected before the cache is touched. The boolean reports
// whether the permutation came from the cache.
func (d *Deriver) Derive(ctx context.Context, key string) (*subtle.Permutation, bool, error) {
	k, err := ParseKey(key)
	if err != nil {
		return nil, false, err
	}

	if d.cache != nil {
		p, ok, err := d.cache.Get(ctx, k)
		switch {
		case err != nil:
			d.report("get", err)
		case ok && p.Validate() == nil:
			return p, true, nil
		}
	}

	p, err := DeriveFromKey(k, d.variant)
	if err != nil {
		return nil, false, err
	}

	if d.cache != nil {
		if err := d.cache.Put(ctx, k, p); err != nil {
			d.report("put", err)
		}
	}
	return p, false, nil
}

// Cipher derives the permutation for key and wraps it in a Cipher.
func (d *Deriver) Cipher(ctx context.Context, key string) (*Cipher, error) {
	p, _, err := d.Derive(ctx, key)
	if err != nil {
		return nil, err
	}
	return &Cipher{perm: p}, nil
}

func (d *Deriver) report(op string, err error) {
	if d.onError != nil {
		d.onError(op, err)
	}
}
