// Package cache implements the read-through cache protecting every
// expensive aggregate query. Keys are a hash over the logical namespace and
// the query parameters; writes invalidate a whole namespace by pattern so
// the next read recomputes from the source of truth.
package cache

import (
	"context"
	"fmt"
	"time"

	"matchday.app/internal/kv"
)

// Observer receives cache traffic notifications. Implementations must be
// safe for concurrent use.
type Observer interface {
	Hit(namespace string)
	Miss(namespace string)
	Invalidated(namespace string, keys int)
}

type nopObserver struct{}

func (nopObserver) Hit(string)              {}
func (nopObserver) Miss(string)             {}
func (nopObserver) Invalidated(string, int) {}

// Cache is the shared read-through layer. TTLs are short by design:
// staleness is bounded, not eliminated.
type Cache struct {
	store    kv.Store
	codec    Codec
	readTTL  time.Duration
	writeTTL time.Duration
	observer Observer
}

// Option configures a Cache.
type Option func(*Cache)

// WithCodec overrides the payload codec (JSON by default).
func WithCodec(c Codec) Option {
	return func(cc *Cache) {
		if c != nil {
			cc.codec = c
		}
	}
}

// WithObserver wires traffic metrics.
func WithObserver(o Observer) Option {
	return func(cc *Cache) {
		if o != nil {
			cc.observer = o
		}
	}
}

// New builds a cache over the keyed store. readTTL refreshes hits;
// writeTTL bounds freshly computed entries.
func New(store kv.Store, readTTL, writeTTL time.Duration, opts ...Option) *Cache {
	c := &Cache{
		store:    store,
		codec:    JSONCodec{},
		readTTL:  readTTL,
		writeTTL: writeTTL,
		observer: nopObserver{},
	}
	for _, opt := range opts {
		opt(c)
	}
	return c
}

// Through runs the cache-aside read for q. On a hit the entry TTL is
// refreshed and the cached value decoded; on a miss compute is consulted
// and its result stored before returning. Store read errors surface to the
// caller rather than silently degrading to the source of truth, so an
// unreachable cache is visible in operations.
func Through[T any](ctx context.Context, c *Cache, q *Query, compute func(context.Context) (T, error)) (T, error) {
	var zero T
	key := q.Key()

	raw, ok, err := c.store.GetEx(ctx, key, c.readTTL)
	if err != nil {
		return zero, fmt.Errorf("cache: read %s: %w", key, err)
	}
	if ok {
		var out T
		if err := c.codec.Unmarshal(raw, &out); err == nil {
			c.observer.Hit(q.Namespace())
			return out, nil
		}
		// Corrupt entry: drop it and fall through to recompute.
		_ = c.store.Del(ctx, key)
	}

	c.observer.Miss(q.Namespace())
	out, err := compute(ctx)
	if err != nil {
		return zero, err
	}
	payload, err := c.codec.Marshal(out)
	if err != nil {
		return zero, fmt.Errorf("cache: encode %s: %w", key, err)
	}
	if err := c.store.Set(ctx, key, payload, c.writeTTL); err != nil {
		return zero, fmt.Errorf("cache: store %s: %w", key, err)
	}
	return out, nil
}

// Invalidate deletes every key in the namespace. A write touching the
// namespace is not complete until this has been attempted; failures
// propagate because a dropped invalidation breaks the freshness invariant.
// The scan-then-delete pair is not transactional: a concurrent write may
// leave one stale key behind until its TTL expires.
func (c *Cache) Invalidate(ctx context.Context, namespace string) error {
	pattern := namespace + keySeparator + "*"
	keys, err := c.store.Keys(ctx, pattern)
	if err != nil {
		return fmt.Errorf("cache: scan %s: %w", pattern, err)
	}
	if len(keys) == 0 {
		c.observer.Invalidated(namespace, 0)
		return nil
	}
	if err := c.store.Del(ctx, keys...); err != nil {
		return fmt.Errorf("cache: invalidate %s: %w", namespace, err)
	}
	c.observer.Invalidated(namespace, len(keys))
	return nil
}
