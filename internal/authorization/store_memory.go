package authorization

import (
	"context"
	"sort"
	"sync"

	"custos/pkg/platform/sentinel"
)

// InMemoryStore is the default mapping store for tests and single node
// deployments.
type InMemoryStore struct {
	mu       sync.RWMutex
	mappings map[string]Mapping
	changes  map[string][]ChangeReport
}

func NewInMemoryStore() *InMemoryStore {
	return &InMemoryStore{
		mappings: make(map[string]Mapping),
		changes:  make(map[string][]ChangeReport),
	}
}

func (s *InMemoryStore) Get(_ context.Context, agentID string) (Mapping, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	mapping, ok := s.mappings[agentID]
	if !ok {
		return Mapping{}, sentinel.ErrNotFound
	}
	return cloneMapping(mapping), nil
}

func (s *InMemoryStore) Save(_ context.Context, mapping Mapping) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.mappings[mapping.AgentID] = cloneMapping(mapping)
	return nil
}

func (s *InMemoryStore) List(_ context.Context) ([]Mapping, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	out := make([]Mapping, 0, len(s.mappings))
	for _, m := range s.mappings {
		out = append(out, cloneMapping(m))
	}
	sort.Slice(out, func(i, j int) bool { return out[i].AgentID < out[j].AgentID })
	return out, nil
}

func (s *InMemoryStore) SaveChange(_ context.Context, change ChangeReport) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.changes[change.AgentID] = append(s.changes[change.AgentID], change)
	return nil
}

func (s *InMemoryStore) ListChanges(_ context.Context, agentID string) ([]ChangeReport, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return append([]ChangeReport(nil), s.changes[agentID]...), nil
}

func cloneMapping(m Mapping) Mapping {
	m.Tools = append([]string(nil), m.Tools...)
	return m
}
