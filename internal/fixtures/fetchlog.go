package fixtures

import (
	"context"
	"time"

	"matchday.app/internal/kv"
)

const fetchLogKey = "fixtures_fetch_date"

// FetchLog records, per day, when the provider batch for that day was last
// ingested. Lives in the shared keyed store so every replica sees the same
// timestamps.
type FetchLog struct {
	store kv.Store
}

func NewFetchLog(store kv.Store) *FetchLog {
	return &FetchLog{store: store}
}

// MarkFetched stamps the day (YYYY-MM-DD) with the ingestion time.
func (l *FetchLog) MarkFetched(ctx context.Context, date string, at time.Time) error {
	return l.store.HSet(ctx, fetchLogKey, date, []byte(at.UTC().Format(time.RFC3339)))
}

// LastFetched returns the last ingestion time for the day, if any.
func (l *FetchLog) LastFetched(ctx context.Context, date string) (time.Time, bool, error) {
	raw, ok, err := l.store.HGet(ctx, fetchLogKey, date)
	if err != nil || !ok {
		return time.Time{}, false, err
	}
	at, err := time.Parse(time.RFC3339, string(raw))
	if err != nil {
		return time.Time{}, false, nil
	}
	return at, true, nil
}
