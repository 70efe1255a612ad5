package kv

import (
	"context"
	"errors"
	"fmt"
	"time"

	goredis "github.com/redis/go-redis/v9"
)

// Redis implements Store on a go-redis universal client.
type Redis struct {
	rdb         goredis.UniversalClient
	closeClient bool
}

var _ Store = (*Redis)(nil)

// ErrNilClient reports a missing redis client.
var ErrNilClient = errors.New("kv: nil redis client")

// NewRedis wraps an existing client. Set closeClient only if this adapter
// exclusively owns the client.
func NewRedis(client goredis.UniversalClient, closeClient bool) (*Redis, error) {
	if client == nil {
		return nil, ErrNilClient
	}
	return &Redis{rdb: client, closeClient: closeClient}, nil
}

// DialRedis connects to the store at the given URL and owns the client.
func DialRedis(url string) (*Redis, error) {
	opts, err := goredis.ParseURL(url)
	if err != nil {
		return nil, fmt.Errorf("kv: parse redis url: %w", err)
	}
	return &Redis{rdb: goredis.NewClient(opts), closeClient: true}, nil
}

func (r *Redis) Get(ctx context.Context, key string) ([]byte, bool, error) {
	b, err := r.rdb.Get(ctx, key).Bytes()
	if err == goredis.Nil {
		return nil, false, nil
	}
	if err != nil {
		return nil, false, err
	}
	return b, true, nil
}

func (r *Redis) GetEx(ctx context.Context, key string, ttl time.Duration) ([]byte, bool, error) {
	b, err := r.rdb.GetEx(ctx, key, ttl).Bytes()
	if err == goredis.Nil {
		return nil, false, nil
	}
	if err != nil {
		return nil, false, err
	}
	return b, true, nil
}

func (r *Redis) Set(ctx context.Context, key string, value []byte, ttl time.Duration) error {
	if ttl < 0 {
		ttl = 0
	}
	return r.rdb.Set(ctx, key, value, ttl).Err()
}

func (r *Redis) Del(ctx context.Context, keys ...string) error {
	if len(keys) == 0 {
		return nil
	}
	return r.rdb.Del(ctx, keys...).Err()
}

func (r *Redis) Keys(ctx context.Context, pattern string) ([]string, error) {
	return r.rdb.Keys(ctx, pattern).Result()
}

func (r *Redis) SAdd(ctx context.Context, key, member string) error {
	return r.rdb.SAdd(ctx, key, member).Err()
}

func (r *Redis) SRem(ctx context.Context, key, member string) error {
	return r.rdb.SRem(ctx, key, member).Err()
}

func (r *Redis) SIsMember(ctx context.Context, key, member string) (bool, error) {
	return r.rdb.SIsMember(ctx, key, member).Result()
}

func (r *Redis) HGet(ctx context.Context, key, field string) ([]byte, bool, error) {
	b, err := r.rdb.HGet(ctx, key, field).Bytes()
	if err == goredis.Nil {
		return nil, false, nil
	}
	if err != nil {
		return nil, false, err
	}
	return b, true, nil
}

func (r *Redis) HSet(ctx context.Context, key, field string, value []byte) error {
	return r.rdb.HSet(ctx, key, field, value).Err()
}

func (r *Redis) HIncrBy(ctx context.Context, key, field string, delta int64) (int64, error) {
	return r.rdb.HIncrBy(ctx, key, field, delta).Result()
}

// Close releases the client only when this adapter owns it. Safe to call
// more than once.
func (r *Redis) Close() error {
	if !r.closeClient {
		return nil
	}
	if err := r.rdb.Close(); err != nil && !errors.Is(err, goredis.ErrClosed) {
		return err
	}
	return nil
}
