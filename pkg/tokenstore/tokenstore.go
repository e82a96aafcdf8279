// Package tokenstore records revoked token ids until the tokens expire.
package tokenstore

import (
	"context"
	"sync"
	"time"

	"libraryapi/pkg/redis"
)

type RevocationStore interface {
	Revoke(ctx context.Context, tokenID string, expiresAt time.Time) error
	IsRevoked(ctx context.Context, tokenID string) (bool, error)
}

const keyPrefix = "revoked:"

type RedisStore struct {
	client *redis.RedisClient
}

func NewRedisStore(client *redis.RedisClient) *RedisStore {
	return &RedisStore{client: client}
}

func (s *RedisStore) Revoke(ctx context.Context, tokenID string, expiresAt time.Time) error {
	ttl := time.Until(expiresAt)
	if ttl <= 0 {
		return nil
	}
	return s.client.Set(ctx, keyPrefix+tokenID, 1, ttl)
}

func (s *RedisStore) IsRevoked(ctx context.Context, tokenID string) (bool, error) {
	return s.client.Exists(ctx, keyPrefix+tokenID)
}

// MemoryStore keeps revocations in process. Entries are dropped lazily
// once their token would have expired anyway.
type MemoryStore struct {
	mu      sync.Mutex
	entries map[string]time.Time
	now     func() time.Time
}

func NewMemoryStore() *MemoryStore {
	return &MemoryStore{
		entries: make(map[string]time.Time),
		now:     time.Now,
	}
}

func (s *MemoryStore) Revoke(_ context.Context, tokenID string, expiresAt time.Time) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	now := s.now()
	if !expiresAt.After(now) {
		return nil
	}

	for id, exp := range s.entries {
		if !exp.After(now) {
			delete(s.entries, id)
		}
	}
	s.entries[tokenID] = expiresAt
	return nil
}

func (s *MemoryStore) IsRevoked(_ context.Context, tokenID string) (bool, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	exp, ok := s.entries[tokenID]
	if !ok {
		return false, nil
	}
	if !exp.After(s.now()) {
		delete(s.entries, tokenID)
		return false, nil
	}
	return true, nil
}
