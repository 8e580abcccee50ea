package session

import (
	"context"
	"fmt"
	"sync"
	"time"

	"github.com/redis/go-redis/v9"
)

// StateTTL bounds how long an OAuth authorization round-trip may take.
const StateTTL = 10 * time.Minute

const stateKeyPrefix = "oauth_state:"

// MemoryStateStore holds pending OAuth state values for CSRF validation.
// A state is consumed on first validation.
type MemoryStateStore struct {
	mu     sync.Mutex
	states map[string]time.Time
}

// NewMemoryStateStore creates an in-memory OAuth state store.
func NewMemoryStateStore() *MemoryStateStore {
	return &MemoryStateStore{states: make(map[string]time.Time)}
}

// StoreState registers a pending state value.
func (s *MemoryStateStore) StoreState(ctx context.Context, state string, ttl time.Duration) error {
	if ttl <= 0 {
		ttl = StateTTL
	}
	s.mu.Lock()
	defer s.mu.Unlock()

	// Sweep expired entries while the lock is held; the map stays tiny.
	now := time.Now()
	for st, exp := range s.states {
		if now.After(exp) {
			delete(s.states, st)
		}
	}

	s.states[state] = now.Add(ttl)
	return nil
}

// ValidateState consumes a pending state value, failing for unknown or
// expired states.
func (s *MemoryStateStore) ValidateState(ctx context.Context, state string) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	exp, ok := s.states[state]
	if !ok {
		return fmt.Errorf("unknown OAuth state")
	}
	delete(s.states, state)

	if time.Now().After(exp) {
		return fmt.Errorf("expired OAuth state")
	}
	return nil
}

// RedisStateStore holds pending OAuth state values in Redis.
type RedisStateStore struct {
	client *redis.Client
}

// NewRedisStateStore creates a Redis-backed OAuth state store.
func NewRedisStateStore(client *redis.Client) *RedisStateStore {
	return &RedisStateStore{client: client}
}

// StoreState registers a pending state value.
func (s *RedisStateStore) StoreState(ctx context.Context, state string, ttl time.Duration) error {
	if ttl <= 0 {
		ttl = StateTTL
	}
	if err := s.client.Set(ctx, stateKeyPrefix+state, "1", ttl).Err(); err != nil {
		return fmt.Errorf("failed to store OAuth state: %w", err)
	}
	return nil
}

// ValidateState consumes a pending state value with an atomic GETDEL.
func (s *RedisStateStore) ValidateState(ctx context.Context, state string) error {
	err := s.client.GetDel(ctx, stateKeyPrefix+state).Err()
	if err == redis.Nil {
		return fmt.Errorf("unknown OAuth state")
	}
	if err != nil {
		return fmt.Errorf("failed to validate OAuth state: %w", err)
	}
	return nil
}
