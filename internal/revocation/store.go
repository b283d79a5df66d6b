package revocation

import (
	"context"
	"sort"
	"sync"

	"custos/pkg/platform/sentinel"
)

// Store persists revocation records.
type Store interface {
	Get(ctx context.Context, id string) (Record, error)
	Save(ctx context.Context, record Record) error
	List(ctx context.Context) ([]Record, error)
}

// InMemoryStore is the default record store.
type InMemoryStore struct {
	mu      sync.RWMutex
	records map[string]Record
}

func NewInMemoryStore() *InMemoryStore {
	return &InMemoryStore{records: make(map[string]Record)}
}

func (s *InMemoryStore) Get(_ context.Context, id string) (Record, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	record, ok := s.records[id]
	if !ok {
		return Record{}, sentinel.ErrNotFound
	}
	return cloneRecord(record), nil
}

func (s *InMemoryStore) Save(_ context.Context, record Record) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.records[record.ID] = cloneRecord(record)
	return nil
}

func (s *InMemoryStore) List(_ context.Context) ([]Record, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	out := make([]Record, 0, len(s.records))
	for _, r := range s.records {
		out = append(out, cloneRecord(r))
	}
	sort.Slice(out, func(i, j int) bool { return out[i].InitiatedAt.Before(out[j].InitiatedAt) })
	return out, nil
}

func cloneRecord(r Record) Record {
	targets := make(map[string]Target, len(r.Targets))
	for k, v := range r.Targets {
		targets[k] = v
	}
	r.Targets = targets
	return r
}
