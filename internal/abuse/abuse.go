// Package abuse tracks client errors per network address. Every 4xx served
// to an address increments its counter; once the counter exceeds the
// configured threshold the address is rejected at the gate before any other
// stage runs. The counter has no decay: a ban only lifts when an operator
// clears the field.
package abuse

import (
	"context"
	"strconv"

	"matchday.app/internal/kv"
)

const counterKey = "client_errors"

// Tracker counts client errors in the shared keyed store, so the count
// survives restarts and is shared by every replica.
type Tracker struct {
	store     kv.Store
	threshold int64
}

// NewTracker builds a tracker with the given ban threshold.
func NewTracker(store kv.Store, threshold int64) *Tracker {
	return &Tracker{store: store, threshold: threshold}
}

// RegisterClientError atomically increments the counter for addr. The new
// value is observed only by future requests, never the current one.
func (t *Tracker) RegisterClientError(ctx context.Context, addr string) error {
	_, err := t.store.HIncrBy(ctx, counterKey, addr, 1)
	return err
}

// IsBanned reports whether addr has exceeded the threshold. An absent
// counter means the address has never misbehaved.
func (t *Tracker) IsBanned(ctx context.Context, addr string) (bool, error) {
	raw, ok, err := t.store.HGet(ctx, counterKey, addr)
	if err != nil {
		return false, err
	}
	if !ok {
		return false, nil
	}
	count, err := strconv.ParseInt(string(raw), 10, 64)
	if err != nil {
		return false, nil
	}
	return count > t.threshold, nil
}
