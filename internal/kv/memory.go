package kv

import (
	"context"
	"path"
	"strconv"
	"sync"
	"time"
)

// Memory is an in-process Store used by tests and local development. It
// honors the same contract as the Redis adapter, including TTL expiry and
// glob pattern listing.
type Memory struct {
	mu     sync.Mutex
	now    func() time.Time
	values map[string]memoryValue
	sets   map[string]map[string]struct{}
	hashes map[string]map[string][]byte
}

type memoryValue struct {
	data      []byte
	expiresAt time.Time // zero means no expiry
}

var _ Store = (*Memory)(nil)

// NewMemory returns an empty in-process store.
func NewMemory() *Memory {
	return &Memory{
		now:    time.Now,
		values: make(map[string]memoryValue),
		sets:   make(map[string]map[string]struct{}),
		hashes: make(map[string]map[string][]byte),
	}
}

// SetClock overrides the time source, letting tests drive TTL expiry.
func (m *Memory) SetClock(now func() time.Time) {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.now = now
}

func (m *Memory) get(key string) ([]byte, bool) {
	v, ok := m.values[key]
	if !ok {
		return nil, false
	}
	if !v.expiresAt.IsZero() && m.now().After(v.expiresAt) {
		delete(m.values, key)
		return nil, false
	}
	return v.data, true
}

func (m *Memory) Get(_ context.Context, key string) ([]byte, bool, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	b, ok := m.get(key)
	return b, ok, nil
}

func (m *Memory) GetEx(_ context.Context, key string, ttl time.Duration) ([]byte, bool, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	b, ok := m.get(key)
	if ok && ttl > 0 {
		m.values[key] = memoryValue{data: b, expiresAt: m.now().Add(ttl)}
	}
	return b, ok, nil
}

func (m *Memory) Set(_ context.Context, key string, value []byte, ttl time.Duration) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	v := memoryValue{data: append([]byte(nil), value...)}
	if ttl > 0 {
		v.expiresAt = m.now().Add(ttl)
	}
	m.values[key] = v
	return nil
}

func (m *Memory) Del(_ context.Context, keys ...string) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	for _, key := range keys {
		delete(m.values, key)
		delete(m.sets, key)
		delete(m.hashes, key)
	}
	return nil
}

func (m *Memory) Keys(_ context.Context, pattern string) ([]string, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	var out []string
	for key := range m.values {
		if _, ok := m.get(key); !ok {
			continue
		}
		if ok, _ := path.Match(pattern, key); ok {
			out = append(out, key)
		}
	}
	for key := range m.sets {
		if ok, _ := path.Match(pattern, key); ok {
			out = append(out, key)
		}
	}
	for key := range m.hashes {
		if ok, _ := path.Match(pattern, key); ok {
			out = append(out, key)
		}
	}
	return out, nil
}

func (m *Memory) SAdd(_ context.Context, key, member string) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	set, ok := m.sets[key]
	if !ok {
		set = make(map[string]struct{})
		m.sets[key] = set
	}
	set[member] = struct{}{}
	return nil
}

func (m *Memory) SRem(_ context.Context, key, member string) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	if set, ok := m.sets[key]; ok {
		delete(set, member)
		if len(set) == 0 {
			delete(m.sets, key)
		}
	}
	return nil
}

func (m *Memory) SIsMember(_ context.Context, key, member string) (bool, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	set, ok := m.sets[key]
	if !ok {
		return false, nil
	}
	_, ok = set[member]
	return ok, nil
}

func (m *Memory) HGet(_ context.Context, key, field string) ([]byte, bool, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	h, ok := m.hashes[key]
	if !ok {
		return nil, false, nil
	}
	b, ok := h[field]
	return b, ok, nil
}

func (m *Memory) HSet(_ context.Context, key, field string, value []byte) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	h, ok := m.hashes[key]
	if !ok {
		h = make(map[string][]byte)
		m.hashes[key] = h
	}
	h[field] = append([]byte(nil), value...)
	return nil
}

func (m *Memory) HIncrBy(_ context.Context, key, field string, delta int64) (int64, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	h, ok := m.hashes[key]
	if !ok {
		h = make(map[string][]byte)
		m.hashes[key] = h
	}
	current := parseInt(h[field])
	current += delta
	h[field] = formatInt(current)
	return current, nil
}

func (m *Memory) Close() error { return nil }

func parseInt(b []byte) int64 {
	n, err := strconv.ParseInt(string(b), 10, 64)
	if err != nil {
		return 0
	}
	return n
}

func formatInt(n int64) []byte {
	return []byte(strconv.FormatInt(n, 10))
}
