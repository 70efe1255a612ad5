// Package kv is the thin adapter over the shared network key/value store.
// The token registry, the abuse tracker and the cache layer all coordinate
// through it; its atomic primitives are the only cross-request
// synchronization points in the process.
package kv

import (
	"context"
	"time"
)

// Store is the contract every keyed-store implementation must satisfy.
// Operations map one-to-one onto atomic store commands; multi-step
// sequences built on top (scan-then-delete) are documented as
// non-transactional by their callers.
type Store interface {
	// Get returns the value at key; the boolean reports presence.
	Get(ctx context.Context, key string) ([]byte, bool, error)
	// GetEx behaves like Get and refreshes the key TTL on a hit.
	GetEx(ctx context.Context, key string, ttl time.Duration) ([]byte, bool, error)
	// Set stores value at key with a TTL; ttl <= 0 means no expiry.
	Set(ctx context.Context, key string, value []byte, ttl time.Duration) error
	// Del removes keys in one round trip. Deleting absent keys is not an
	// error.
	Del(ctx context.Context, keys ...string) error
	// Keys lists the keys matching a glob pattern.
	Keys(ctx context.Context, pattern string) ([]string, error)

	// Set membership, used by the token registry.
	SAdd(ctx context.Context, key string, member string) error
	SRem(ctx context.Context, key string, member string) error
	SIsMember(ctx context.Context, key string, member string) (bool, error)

	// Hash fields, used by the abuse tracker and fetch timestamps.
	HGet(ctx context.Context, key, field string) ([]byte, bool, error)
	HSet(ctx context.Context, key, field string, value []byte) error
	// HIncrBy atomically increments a hash field and returns the new value.
	HIncrBy(ctx context.Context, key, field string, delta int64) (int64, error)

	Close() error
}
