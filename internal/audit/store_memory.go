package audit

import (
	"context"
	"sort"
	"sync"
)

// InMemoryStore keeps the event log in process memory. It favors clarity
// over performance and backs unit tests and single-node deployments.
type InMemoryStore struct {
	mu     sync.RWMutex
	chains map[string][]Event
}

func NewInMemoryStore() *InMemoryStore {
	return &InMemoryStore{chains: make(map[string][]Event)}
}

func (s *InMemoryStore) Append(_ context.Context, event Event) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.chains[event.CorrelationID] = append(s.chains[event.CorrelationID], event)
	return nil
}

func (s *InMemoryStore) ListByCorrelation(_ context.Context, correlationID string) ([]Event, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	chain := append([]Event{}, s.chains[correlationID]...)
	sort.Slice(chain, func(i, j int) bool { return chain[i].Sequence < chain[j].Sequence })
	return chain, nil
}

func (s *InMemoryStore) List(_ context.Context, filter Filter) ([]Event, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	var out []Event
	for _, chain := range s.chains {
		for _, e := range chain {
			if filter.Matches(e) {
				out = append(out, e)
			}
		}
	}
	sort.Slice(out, func(i, j int) bool { return out[i].Timestamp.Before(out[j].Timestamp) })
	return out, nil
}

// Corrupt overwrites one stored event in place. Test hook for
// tamper-detection coverage; never called by production code.
func (s *InMemoryStore) Corrupt(correlationID string, sequence int, mutate func(*Event)) bool {
	s.mu.Lock()
	defer s.mu.Unlock()
	chain := s.chains[correlationID]
	for i := range chain {
		if chain[i].Sequence == sequence {
			mutate(&chain[i])
			return true
		}
	}
	return false
}
