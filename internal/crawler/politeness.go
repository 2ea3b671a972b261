package crawler

import (
	"context"
	"slices"
	"sync"
	"time"
)

// VisitedSet tracks canonical keys already admitted during one crawl.
// It only grows. Writes happen during the single-threaded admit step;
// reads are safe from any goroutine.
type VisitedSet struct {
	mu   sync.RWMutex
	seen map[Key]struct{}
}

// NewVisitedSet returns an empty set.
func NewVisitedSet() *VisitedSet {
	return &VisitedSet{seen: make(map[Key]struct{})}
}

// MarkIfNew stores key if it has not been seen before and returns true.
func (s *VisitedSet) MarkIfNew(key Key) bool {
	s.mu.Lock()
	defer s.mu.Unlock()
	if _, ok := s.seen[key]; ok {
		return false
	}
	s.seen[key] = struct{}{}
	return true
}

// Contains reports whether key was admitted.
func (s *VisitedSet) Contains(key Key) bool {
	s.mu.RLock()
	defer s.mu.RUnlock()
	_, ok := s.seen[key]
	return ok
}

// Len returns the number of admitted keys.
func (s *VisitedSet) Len() int {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return len(s.seen)
}

// Keys returns the admitted keys in canonical order.
func (s *VisitedSet) Keys() []Key {
	s.mu.RLock()
	out := make([]Key, 0, len(s.seen))
	for k := range s.seen {
		out = append(out, k)
	}
	s.mu.RUnlock()
	slices.SortFunc(out, Key.Compare)
	return out
}

// pauseController abstracts how the crawler waits between fetches.
type pauseController interface {
	Pause(ctx context.Context, delay time.Duration)
}

type timerPauseController struct{}

func (p *timerPauseController) Pause(ctx context.Context, delay time.Duration) {
	if delay <= 0 {
		return
	}
	timer := time.NewTimer(delay)
	defer timer.Stop()
	select {
	case <-ctx.Done():
	case <-timer.C:
	}
}
