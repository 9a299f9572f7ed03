package subcipher

import (
	"context"
	"errors"
	"strings"
	"sync"
	"testing"

	"github.com/vdparikh/subcipher/subtle"
)

type countingCache struct {
	*MemoryCache
	mu   sync.Mutex
	gets int
	puts int
}

func (c *countingCache) Get(ctx context.Context, key Key) (*subtle.Permutation, bool, error) {
	c.mu.Lock()
	c.gets++
	c.mu.Unlock()
	return c.MemoryCache.Get(ctx, key)
}

func (c *countingCache) Put(ctx context.Context, key Key, perm *subtle.Permutation) error {
	c.mu.Lock()
	c.puts++
	c.mu.Unlock()
	return c.MemoryCache.Put(ctx, key, perm)
}

type failingCache struct{}

var errCacheDown = errors.New("cache down")

func (failingCache) Get(context.Context, Key) (*subtle.Permutation, bool, error) {
	return nil, false, errCacheDown
}

func (failingCache) Put(context.Context, Key, *subtle.Permutation) error {
	return errCacheDown
}

func TestDeriver_ReadThrough(t *testing.T) {
	ctx := context.Background()
	cache := &countingCache{MemoryCache: NewMemoryCache()}
	d := NewDeriver(cache)

	p1, hit, err := d.Derive(ctx, testKey)
	if err != nil {
		t.Fatalf("Derive failed: %v", err)
	}
	if hit {
		t.Error("first Derive should miss")
	}

	p2, hit, err := d.Derive(ctx, testKey)
	if err != nil {
		t.Fatalf("Derive failed: %v", err)
	}
	if !hit {
		t.Error("second Derive should hit")
	}
	if p1 != p2 {
		t.Error("cache should return the stored permutation")
	}
	if cache.gets != 2 || cache.puts != 1 {
		t.Errorf("gets=%d puts=%d, want 2 and 1", cache.gets, cache.puts)
	}

	want, _ := DerivePermutation(testKey)
	if p2.Scrambled() != want.Scrambled() {
		t.Errorf("cached permutation %s differs from derived %s", p2.Scrambled(), want.Scrambled())
	}
}

func TestDeriver_MalformedKeySkipsCache(t *testing.T) {
	cache := &countingCache{MemoryCache: NewMemoryCache()}
	d := NewDeriver(cache)

	if _, _, err := d.Derive(context.Background(), "12a4"); !errors.Is(err, ErrMalformedKey) {
		t.Fatalf("expected ErrMalformedKey, got %v", err)
	}
	if cache.gets != 0 || cache.puts != 0 {
		t.Error("malformed key must not reach the cache")
	}
}

func TestDeriver_CacheFailureDoesNotFailDerivation(t *testing.T) {
	var ops []string
	d := NewDeriver(failingCache{}, WithErrorHandler(func(op string, err error) {
		if !errors.Is(err, errCacheDown) {
			t.Errorf("unexpected error: %v", err)
		}
		ops = append(ops, op)
	}))

	p, hit, err := d.Derive(context.Background(), testKey)
	if err != nil {
		t.Fatalf("Derive failed: %v", err)
	}
	if hit || p == nil {
		t.Error("expected a freshly derived permutation")
	}
	if strings.Join(ops, ",") != "get,put" {
		t.Errorf("error handler saw %v", ops)
	}
}

func TestDeriver_InvalidCachedEntryIsRederived(t *testing.T) {
	ctx := context.Background()
	cache := NewMemoryCache()
	k := MustParseKey(testKey)
	if err := cache.Put(ctx, k, &subtle.Permutation{}); err != nil {
		t.Fatalf("Put failed: %v", err)
	}

	p, hit, err := NewDeriver(cache).Derive(ctx, testKey)
	if err != nil {
		t.Fatalf("Derive failed: %v", err)
	}
	if hit {
		t.Error("an invalid cached entry must not count as a hit")
	}
	if err := p.Validate(); err != nil {
		t.Errorf("derived permutation invalid: %v", err)
	}
}

func TestDeriver_Variant(t *testing.T) {
	ctx := context.Background()
	d := NewDeriver(nil, WithVariant(VariantDirectShift))

	if _, _, err := d.Derive(ctx, testKey); !errors.Is(err, ErrNonInvertibleKey) {
		t.Errorf("expected ErrNonInvertibleKey, got %v", err)
	}

	c, err := d.Cipher(ctx, strings.Repeat("3", 26))
	if err != nil {
		t.Fatalf("Cipher failed: %v", err)
	}
	out, err := c.Encode("abcXYZ")
	if err != nil || out != "defABC" {
		t.Errorf("Encode = %q, %v; want defABC", out, err)
	}
}

func TestMemoryCache_Concurrent(t *testing.T) {
	ctx := context.Background()
	cache := NewMemoryCache()
	d := NewDeriver(cache)

	keys := []string{
		testKey,
		strings.Repeat("0", 26),
		strings.Repeat("9", 26),
		"98765432109876543210987654",
	}

	var wg sync.WaitGroup
	for g := 0; g < 16; g++ {
		wg.Add(1)
		go func(g int) {
			defer wg.Done()
			for i := 0; i < 100; i++ {
				key := keys[(g+i)%len(keys)]
				c, err := d.Cipher(ctx, key)
				if err != nil {
					t.Errorf("Cipher failed: %v", err)
					return
				}
				enc, err := c.Encode("concurrent message")
				if err != nil {
					t.Errorf("Encode failed: %v", err)
					return
				}
				dec, err := c.Decode(enc)
				if err != nil || dec != "concurrent message" {
					t.Errorf("round-trip failed: %q, %v", dec, err)
					return
				}
			}
		}(g)
	}
	wg.Wait()

	if cache.Len() != len(keys) {
		t.Errorf("cache holds %d entries, want %d", cache.Len(), len(keys))
	}
}
