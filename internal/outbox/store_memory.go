package outbox

import (
	"context"
	"sync"
)

// InMemory is a slice-backed Store for unit tests and local development.
type InMemory struct {
	mu        sync.Mutex
	events    []Event
	published map[string]bool
}

func NewInMemory() *InMemory {
	return &InMemory{published: make(map[string]bool)}
}

func (s *InMemory) Insert(_ context.Context, event Event) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.events = append(s.events, event)
	return nil
}

func (s *InMemory) ListUnpublished(_ context.Context, limit int) ([]Event, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	var out []Event
	for _, e := range s.events {
		if s.published[e.ID] {
			continue
		}
		out = append(out, e)
		if len(out) == limit {
			break
		}
	}
	return out, nil
}

func (s *InMemory) MarkPublished(_ context.Context, ids []string) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	for _, id := range ids {
		s.published[id] = true
	}
	return nil
}

// All returns every inserted event, for test assertions.
func (s *InMemory) All() []Event {
	s.mu.Lock()
	defer s.mu.Unlock()
	out := make([]Event, len(s.events))
	copy(out, s.events)
	return out
}
