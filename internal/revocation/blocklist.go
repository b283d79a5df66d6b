package revocation

import (
	"context"
	"errors"
	"sync"

	"github.com/redis/go-redis/v9"
)

// Blocklist answers whether a subject's access has been revoked. The
// subject lands here at initiation time, before any downstream system
// confirms, so enforcement never waits on propagation.
type Blocklist interface {
	Block(ctx context.Context, subject string) error
	IsBlocked(ctx context.Context, subject string) (bool, error)
}

// InMemoryBlocklist is the single-node blocklist.
type InMemoryBlocklist struct {
	mu       sync.RWMutex
	subjects map[string]bool
}

func NewInMemoryBlocklist() *InMemoryBlocklist {
	return &InMemoryBlocklist{subjects: make(map[string]bool)}
}

func (b *InMemoryBlocklist) Block(_ context.Context, subject string) error {
	if subject == "" {
		return nil
	}
	b.mu.Lock()
	b.subjects[subject] = true
	b.mu.Unlock()
	return nil
}

func (b *InMemoryBlocklist) IsBlocked(_ context.Context, subject string) (bool, error) {
	b.mu.RLock()
	defer b.mu.RUnlock()
	return b.subjects[subject], nil
}

const blockedSubjectKeyPrefix = "revocation:subject:"

// RedisBlocklist shares revocation state across instances. This is the
// production implementation for distributed deployments.
type RedisBlocklist struct {
	client *redis.Client
}

func NewRedisBlocklist(client *redis.Client) *RedisBlocklist {
	return &RedisBlocklist{client: client}
}

// Block marks a subject as revoked. No TTL: revocation is permanent
// until an operator clears the key out of band.
func (b *RedisBlocklist) Block(ctx context.Context, subject string) error {
	if subject == "" {
		return nil
	}
	// Store "1" as a simple marker; the key existence is what matters
	return b.client.Set(ctx, blockedSubjectKeyPrefix+subject, "1", 0).Err()
}

func (b *RedisBlocklist) IsBlocked(ctx context.Context, subject string) (bool, error) {
	if subject == "" {
		return false, nil
	}
	_, err := b.client.Get(ctx, blockedSubjectKeyPrefix+subject).Result()
	if errors.Is(err, redis.Nil) {
		return false, nil
	}
	if err != nil {
		return false, err
	}
	return true, nil
}
