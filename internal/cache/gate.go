// Package cache implements the session-scoped fetch-or-cache gate. Values are
// stored under a key that changes at every trading-session boundary, so each
// upstream fetch runs at most once per session and its result is shared by
// every caller in the process.
package cache

import (
	"context"
	"errors"
	"fmt"
	"sort"
	"sync"
	"time"

	"go.uber.org/zap"
	"golang.org/x/sync/singleflight"
)

// ErrTypeMismatch is returned when a stored value is not of the type the
// caller asked for. It means two call sites share a name with different
// result types.
var ErrTypeMismatch = errors.New("cached value has unexpected type")

// KeySource derives the current cache key for a fetch name.
// *session.Clock satisfies it.
type KeySource interface {
	CurrentKey(category string) string
}

// entry is one stored result.
type entry struct {
	Key      string
	Value    any
	StoredAt time.Time
}

// Stats summarizes store activity.
type Stats struct {
	Entries int
	Hits    uint64
	Misses  uint64
	Fetches uint64
	Errors  uint64
}

// Store is the process-wide cache. Construct it once and share it.
type Store struct {
	keys KeySource
	log  *zap.Logger
	now  func() time.Time

	mu      sync.RWMutex
	entries map[string]entry
	latest  map[string]string // name -> most recent key
	stats   Stats

	group singleflight.Group
}

// NewStore builds an empty store.
func NewStore(keys KeySource, log *zap.Logger) *Store {
	if log == nil {
		log = zap.NewNop()
	}
	return &Store{
		keys:    keys,
		log:     log,
		now:     time.Now,
		entries: make(map[string]entry),
		latest:  make(map[string]string),
	}
}

// Fetcher produces a value for the gate.
type Fetcher[T any] interface {
	Fetch(ctx context.Context) (T, error)
}

// FetchFunc adapts a plain function to Fetcher.
type FetchFunc[T any] func(ctx context.Context) (T, error)

// Fetch calls f.
func (f FetchFunc[T]) Fetch(ctx context.Context) (T, error) { return f(ctx) }

// GetOrFetch returns the value stored for name under the current session key,
// running f when nothing is stored. Concurrent callers that miss on the same
// key share one call to f, which runs detached from any single caller's
// cancellation. A failed fetch is not stored, nor is a result whose key has
// been superseded by a session boundary while it was fetching.
func GetOrFetch[T any](ctx context.Context, s *Store, name string, f Fetcher[T]) (T, error) {
	var zero T
	key := s.keys.CurrentKey(name)

	if v, ok := s.lookup(key); ok {
		typed, ok := v.(T)
		if !ok {
			return zero, fmt.Errorf("%s: %w", key, ErrTypeMismatch)
		}
		s.count(func(st *Stats) { st.Hits++ })
		return typed, nil
	}
	s.count(func(st *Stats) { st.Misses++ })

	flight := context.WithoutCancel(ctx)
	ch := s.group.DoChan(key, func() (any, error) {
		// Another flight may have stored the key between lookup and DoChan.
		if v, ok := s.lookup(key); ok {
			return v, nil
		}
		s.count(func(st *Stats) { st.Fetches++ })
		started := s.now()
		v, err := f.Fetch(flight)
		if err != nil {
			s.count(func(st *Stats) { st.Errors++ })
			s.log.Warn("cache fetch failed",
				zap.String("name", name), zap.String("key", key), zap.Error(err))
			return nil, err
		}
		if !s.store(name, key, v) {
			s.log.Debug("cache fill skipped, key superseded",
				zap.String("name", name), zap.String("key", key))
			return v, nil
		}
		s.log.Debug("cache fill",
			zap.String("name", name), zap.String("key", key),
			zap.Duration("took", s.now().Sub(started)))
		return v, nil
	})

	var res singleflight.Result
	select {
	case <-ctx.Done():
		return zero, ctx.Err()
	case res = <-ch:
	}
	if res.Err != nil {
		return zero, res.Err
	}
	if res.Shared {
		s.log.Debug("cache fetch shared", zap.String("key", key))
	}
	typed, ok := res.Val.(T)
	if !ok {
		return zero, fmt.Errorf("%s: %w", key, ErrTypeMismatch)
	}
	return typed, nil
}

// Key returns the current session key of name.
func (s *Store) Key(name string) string { return s.keys.CurrentKey(name) }

func (s *Store) lookup(key string) (any, bool) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	e, ok := s.entries[key]
	if !ok {
		return nil, false
	}
	return e.Value, true
}

// store keeps v under key and prunes the previous key of name. It reports
// false and keeps nothing when key is no longer the current key of name.
func (s *Store) store(name, key string, v any) bool {
	if s.keys.CurrentKey(name) != key {
		return false
	}
	s.mu.Lock()
	defer s.mu.Unlock()
	if prev, ok := s.latest[name]; ok && prev != key {
		delete(s.entries, prev)
	}
	s.latest[name] = key
	s.entries[key] = entry{Key: key, Value: v, StoredAt: s.now().UTC()}
	return true
}

func (s *Store) count(fn func(*Stats)) {
	s.mu.Lock()
	fn(&s.stats)
	s.mu.Unlock()
}

// Stats returns a snapshot of the store counters.
func (s *Store) Stats() Stats {
	s.mu.RLock()
	defer s.mu.RUnlock()
	st := s.stats
	st.Entries = len(s.entries)
	return st
}

// Keys lists stored keys in sorted order.
func (s *Store) Keys() []string {
	s.mu.RLock()
	keys := make([]string, 0, len(s.entries))
	for k := range s.entries {
		keys = append(keys, k)
	}
	s.mu.RUnlock()
	sort.Strings(keys)
	return keys
}

// Clear drops every stored value. In-flight fetches still complete and store
// their results.
func (s *Store) Clear() {
	s.mu.Lock()
	n := len(s.entries)
	s.entries = make(map[string]entry)
	s.latest = make(map[string]string)
	s.mu.Unlock()
	s.log.Info("cache cleared", zap.Int("entries", n))
}
