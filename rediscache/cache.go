// Package rediscache stores derived substitution permutations in Redis.
//
// Entries are keyed by a SHA-256 digest of the cipher key so the key digits are
// never written to Redis. The value is the 26-letter cipher alphabet.
package rediscache

import (
	"context"
	"crypto/sha256"
	"encoding/hex"
	"errors"
	"fmt"
	"time"

	"github.com/redis/go-redis/v9"
	"github.com/vdparikh/subcipher"
	"github.com/vdparikh/subcipher/subtle"
)

// DefaultPrefix is the key prefix used when none is configured.
const DefaultPrefix = "subcipher:perm"

var (
	// ErrRedisUnavailable is returned when Redis cannot serve a request.
	ErrRedisUnavailable = errors.New("redis unavailable")
	// ErrCorruptEntry is returned when a stored value is not a valid cipher alphabet.
	ErrCorruptEntry = errors.New("corrupt permutation entry")
)

// Cache is a subcipher.PermutationCache backed by Redis.
type Cache struct {
	client redis.UniversalClient
	prefix string
	ttl    time.Duration
}

// Option configures a Cache.
type Option func(*Cache)

// WithPrefix sets the key prefix.
func WithPrefix(prefix string) Option {
	return func(c *Cache) {
		if prefix != "" {
			c.prefix = prefix
		}
	}
}

// WithTTL sets an expiry on stored entries. Zero keeps entries until evicted.
func WithTTL(ttl time.Duration) Option {
	return func(c *Cache) {
		if ttl > 0 {
			c.ttl = ttl
		}
	}
}

// New returns a Cache using client.
func New(client redis.UniversalClient, opts ...Option) *Cache {
	c := &Cache{client: client, prefix: DefaultPrefix}
	for _, opt := range opts {
		opt(c)
	}
	return c
}

// Get implements subcipher.PermutationCache.
func (c *Cache) Get(ctx context.Context, key subcipher.Key) (*subtle.Permutation, bool, error) {
	val, err := c.client.Get(ctx, c.redisKey(key)).Result()
	if errors.Is(err, redis.Nil) {
		return nil, false, nil
	}
	if err != nil {
		return nil, false, fmt.Errorf("%w: %v", ErrRedisUnavailable, err)
	}

	p, err := subtle.FromScrambled(val)
	if err != nil {
		return nil, false, fmt.Errorf("%w: %v", ErrCorruptEntry, err)
	}
	return p, true, nil
}

// Put implements subcipher.PermutationCache.
func (c *Cache) Put(ctx context.Context, key subcipher.Key, perm *subtle.Permutation) error {
	if err := perm.Validate(); err != nil {
		return fmt.Errorf("refusing to cache invalid permutation: %w", err)
	}
	if err := c.client.Set(ctx, c.redisKey(key), perm.Scrambled(), c.ttl).Err(); err != nil {
		return fmt.Errorf("%w: %v", ErrRedisUnavailable, err)
	}
	return nil
}

// Delete removes the entry for key. Deleting a missing entry is not an error.
func (c *Cache) Delete(ctx context.Context, key subcipher.Key) error {
	if err := c.client.Del(ctx, c.redisKey(key)).Err(); err != nil {
		return fmt.Errorf("%w: %v", ErrRedisUnavailable, err)
	}
	return nil
}

func (c *Cache) redisKey(key subcipher.Key) string {
	sum := sha256.Sum256([]byte(key.String()))
	return c.prefix + ":" + hex.EncodeToString(sum[:])
}

var _ subcipher.PermutationCache = (*Cache)(nil)
