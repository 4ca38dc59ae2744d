package store

import (
	"context"
	"errors"
	"sync"
	"time"
)

var (
	// ErrNotFound is returned when no value is held for a key.
	ErrNotFound = errors.New("no data for key")
)

// Token identifies one load started with Begin.
type Token struct {
	Key string
	Gen uint64
}

// Entry is the state held for one key.
type Entry[T any] struct {
	Value     T
	HasValue  bool
	Err       error
	Loading   bool
	UpdatedAt time.Time
}

type slot[T any] struct {
	entry  Entry[T]
	gen    uint64
	cancel context.CancelFunc
}

// LatestStore is a concurrency-safe in-memory store that keeps only the result
// of the most recently started load per key. A load started later supersedes
// any earlier one: the earlier context is cancelled and its result discarded,
// even if it arrives after the newer one.
type LatestStore[T any] struct {
	mu   sync.RWMutex
	data map[string]*slot[T]
	now  func() time.Time
}

// NewLatestStore creates an empty store.
func NewLatestStore[T any]() *LatestStore[T] {
	return &LatestStore[T]{
		data: make(map[string]*slot[T]),
		now:  time.Now,
	}
}

// Begin starts a load for key and returns its context and token. Any load
// still in flight for key is cancelled.
func (s *LatestStore[T]) Begin(parent context.Context, key string) (context.Context, Token) {
	ctx, cancel := context.WithCancel(parent)

	s.mu.Lock()
	defer s.mu.Unlock()

	sl := s.slot(key)
	if sl.cancel != nil {
		sl.cancel()
	}
	sl.gen++
	sl.cancel = cancel
	sl.entry.Loading = true

	return ctx, Token{Key: key, Gen: sl.gen}
}

// Commit stores v if tok is still the latest load for its key. It reports whether v was kept.
func (s *LatestStore[T]) Commit(tok Token, v T) bool {
	s.mu.Lock()
	defer s.mu.Unlock()

	sl, ok := s.current(tok)
	if !ok {
		return false
	}
	sl.entry = Entry[T]{Value: v, HasValue: true, UpdatedAt: s.now()}
	s.finish(sl)
	return true
}

// Fail clears the value for tok's key and records err, if tok is still the latest load.
func (s *LatestStore[T]) Fail(tok Token, err error) bool {
	s.mu.Lock()
	defer s.mu.Unlock()

	sl, ok := s.current(tok)
	if !ok {
		return false
	}
	sl.entry = Entry[T]{Err: err, UpdatedAt: s.now()}
	s.finish(sl)
	return true
}

// Abandon ends tok's load without touching the held value.
func (s *LatestStore[T]) Abandon(tok Token) bool {
	s.mu.Lock()
	defer s.mu.Unlock()

	sl, ok := s.current(tok)
	if !ok {
		return false
	}
	sl.entry.Loading = false
	s.finish(sl)
	return true
}

// Get returns the value held for key.
func (s *LatestStore[T]) Get(key string) (T, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	var zero T
	sl, ok := s.data[key]
	if !ok || !sl.entry.HasValue {
		return zero, ErrNotFound
	}
	return sl.entry.Value, nil
}

// Entry returns the full state for key.
func (s *LatestStore[T]) Entry(key string) Entry[T] {
	s.mu.RLock()
	defer s.mu.RUnlock()

	if sl, ok := s.data[key]; ok {
		return sl.entry
	}
	return Entry[T]{}
}

// Clear drops the state for key and cancels its in-flight load.
func (s *LatestStore[T]) Clear(key string) {
	s.mu.Lock()
	defer s.mu.Unlock()

	if sl, ok := s.data[key]; ok {
		if sl.cancel != nil {
			sl.cancel()
		}
		// Keep the generation so late results of cancelled loads stay stale.
		sl.gen++
		sl.cancel = nil
		sl.entry = Entry[T]{}
	}
}

// Close cancels every in-flight load.
func (s *LatestStore[T]) Close() {
	s.mu.Lock()
	defer s.mu.Unlock()

	for _, sl := range s.data {
		if sl.cancel != nil {
			sl.cancel()
			sl.cancel = nil
		}
		sl.gen++
		sl.entry.Loading = false
	}
}

func (s *LatestStore[T]) slot(key string) *slot[T] {
	sl, ok := s.data[key]
	if !ok {
		sl = &slot[T]{}
		s.data[key] = sl
	}
	return sl
}

func (s *LatestStore[T]) current(tok Token) (*slot[T], bool) {
	sl, ok := s.data[tok.Key]
	if !ok || sl.gen != tok.Gen {
		return nil, false
	}
	return sl, true
}

func (s *LatestStore[T]) finish(sl *slot[T]) {
	if sl.cancel != nil {
		sl.cancel()
		sl.cancel = nil
	}
}
