package integration

import (
	"context"
	"sort"
	"sync"

	"custos/pkg/platform/sentinel"
)

// Store persists integration requests.
type Store interface {
	Get(ctx context.Context, id string) (Request, error)
	Save(ctx context.Context, request Request) error
	List(ctx context.Context) ([]Request, error)
}

// InMemoryStore is the default request store.
type InMemoryStore struct {
	mu       sync.RWMutex
	requests map[string]Request
}

func NewInMemoryStore() *InMemoryStore {
	return &InMemoryStore{requests: make(map[string]Request)}
}

func (s *InMemoryStore) Get(_ context.Context, id string) (Request, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	request, ok := s.requests[id]
	if !ok {
		return Request{}, sentinel.ErrNotFound
	}
	return request, nil
}

func (s *InMemoryStore) Save(_ context.Context, request Request) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.requests[request.ID] = request
	return nil
}

func (s *InMemoryStore) List(_ context.Context) ([]Request, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	out := make([]Request, 0, len(s.requests))
	for _, r := range s.requests {
		out = append(out, r)
	}
	sort.Slice(out, func(i, j int) bool { return out[i].RequestedAt.Before(out[j].RequestedAt) })
	return out, nil
}
