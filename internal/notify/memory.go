package notify

import (
	"context"
	"sync"
)

// Hit captures one PublishHit call.
type Hit struct {
	RunID string
	URL   string
}

// Memory stores published hits for inspection.
type Memory struct {
	mu     sync.RWMutex
	hits   []Hit
	closed bool
}

// NewMemory returns an empty Memory publisher.
func NewMemory() *Memory {
	return &Memory{}
}

// PublishHit records the hit.
func (m *Memory) PublishHit(_ context.Context, runID, rawURL string) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.hits = append(m.hits, Hit{RunID: runID, URL: rawURL})
	return nil
}

// Close marks the publisher closed.
func (m *Memory) Close() error {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.closed = true
	return nil
}

// Hits returns the recorded hits in publish order.
func (m *Memory) Hits() []Hit {
	m.mu.RLock()
	defer m.mu.RUnlock()
	out := make([]Hit, len(m.hits))
	copy(out, m.hits)
	return out
}

// Closed reports whether Close was called.
func (m *Memory) Closed() bool {
	m.mu.RLock()
	defer m.mu.RUnlock()
	return m.closed
}
