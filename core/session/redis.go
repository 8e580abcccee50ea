package session

import (
	"context"
	"fmt"
	"time"

	"github.com/goccy/go-json"
	"github.com/redis/go-redis/v9"

	"assistant_server/core/domain"
	"assistant_server/pkg/logger"
)

const sessionKeyPrefix = "session:"

// RedisStore keeps sessions in Redis so multiple server instances can share
// them. The TTL is enforced by Redis key expiry.
type RedisStore struct {
	client *redis.Client
	ttl    time.Duration
}

// NewRedisStore creates a Redis-backed session store.
func NewRedisStore(client *redis.Client, ttl time.Duration) *RedisStore {
	if ttl <= 0 {
		ttl = DefaultTTL
	}
	return &RedisStore{client: client, ttl: ttl}
}

func sessionKey(token string) string {
	return sessionKeyPrefix + token
}

// Create stores a new session and returns its token.
func (s *RedisStore) Create(ctx context.Context, user *domain.UserData) (string, error) {
	token, err := newToken()
	if err != nil {
		return "", err
	}

	now := time.Now()
	sess := &domain.Session{
		Token:     token,
		User:      *user,
		CreatedAt: now,
		ExpiresAt: now.Add(s.ttl),
	}

	data, err := json.Marshal(sess)
	if err != nil {
		return "", fmt.Errorf("failed to marshal session: %w", err)
	}

	if err := s.client.Set(ctx, sessionKey(token), data, s.ttl).Err(); err != nil {
		return "", fmt.Errorf("failed to store session: %w", err)
	}

	logger.Info("Session created for user: %s", user.Email)
	return token, nil
}

// Get returns the session for token, or (nil, nil) when missing or expired.
func (s *RedisStore) Get(ctx context.Context, token string) (*domain.Session, error) {
	data, err := s.client.Get(ctx, sessionKey(token)).Bytes()
	if err == redis.Nil {
		return nil, nil
	}
	if err != nil {
		return nil, fmt.Errorf("failed to load session: %w", err)
	}

	var sess domain.Session
	if err := json.Unmarshal(data, &sess); err != nil {
		return nil, fmt.Errorf("failed to unmarshal session: %w", err)
	}

	// Redis expiry is authoritative but the stamp is still checked in case
	// the key was written without a TTL.
	if sess.Expired() {
		_ = s.client.Del(ctx, sessionKey(token)).Err()
		return nil, nil
	}

	return &sess, nil
}

// UpdateCredentials replaces the credential material of a live session while
// preserving the remaining TTL.
func (s *RedisStore) UpdateCredentials(ctx context.Context, token string, creds domain.Credentials) error {
	sess, err := s.Get(ctx, token)
	if err != nil {
		return err
	}
	if sess == nil {
		return fmt.Errorf("session not found")
	}

	sess.User.Credentials = creds

	data, err := json.Marshal(sess)
	if err != nil {
		return fmt.Errorf("failed to marshal session: %w", err)
	}

	if err := s.client.Set(ctx, sessionKey(token), data, redis.KeepTTL).Err(); err != nil {
		return fmt.Errorf("failed to update session: %w", err)
	}
	return nil
}

// Delete removes a session.
func (s *RedisStore) Delete(ctx context.Context, token string) error {
	if err := s.client.Del(ctx, sessionKey(token)).Err(); err != nil {
		return fmt.Errorf("failed to delete session: %w", err)
	}
	return nil
}
