// Package session implements the token -> credential session stores.
package session

import (
	"context"
	"crypto/rand"
	"encoding/base64"
	"fmt"
	"sync"
	"time"

	"assistant_server/core/domain"
	"assistant_server/pkg/logger"
)

// DefaultTTL is the fixed session lifetime.
const DefaultTTL = 24 * time.Hour

// newToken returns a high-entropy, URL-safe opaque token.
func newToken() (string, error) {
	buf := make([]byte, 32)
	if _, err := rand.Read(buf); err != nil {
		return "", fmt.Errorf("failed to generate session token: %w", err)
	}
	return base64.RawURLEncoding.EncodeToString(buf), nil
}

// MemoryStore is an in-memory session store for single-process deployments.
// Expired sessions are dropped lazily on read and swept periodically.
type MemoryStore struct {
	mu       sync.RWMutex
	sessions map[string]*domain.Session
	ttl      time.Duration
	stopCh   chan struct{}
	stopOnce sync.Once
}

// NewMemoryStore creates a store with the default 24h TTL.
func NewMemoryStore() *MemoryStore {
	return NewMemoryStoreWithTTL(DefaultTTL)
}

// NewMemoryStoreWithTTL creates a store with a custom TTL.
func NewMemoryStoreWithTTL(ttl time.Duration) *MemoryStore {
	s := &MemoryStore{
		sessions: make(map[string]*domain.Session),
		ttl:      ttl,
		stopCh:   make(chan struct{}),
	}
	go s.cleanupLoop()
	return s
}

// Create stores a new session and returns its token.
func (s *MemoryStore) Create(ctx context.Context, user *domain.UserData) (string, error) {
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

	s.mu.Lock()
	s.sessions[token] = sess
	s.mu.Unlock()

	logger.Info("Session created for user: %s", user.Email)
	return token, nil
}

// Get returns the session for token, or (nil, nil) when missing or expired.
func (s *MemoryStore) Get(ctx context.Context, token string) (*domain.Session, error) {
	s.mu.RLock()
	sess, ok := s.sessions[token]
	s.mu.RUnlock()

	if !ok {
		return nil, nil
	}

	if sess.Expired() {
		s.mu.Lock()
		delete(s.sessions, token)
		s.mu.Unlock()
		logger.Info("Session expired: %s...", truncToken(token))
		return nil, nil
	}

	cp := *sess
	return &cp, nil
}

// UpdateCredentials replaces the credential material of a live session.
// Used after a token refresh.
func (s *MemoryStore) UpdateCredentials(ctx context.Context, token string, creds domain.Credentials) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	sess, ok := s.sessions[token]
	if !ok || sess.Expired() {
		return fmt.Errorf("session not found")
	}
	sess.User.Credentials = creds
	return nil
}

// Delete removes a session.
func (s *MemoryStore) Delete(ctx context.Context, token string) error {
	s.mu.Lock()
	_, ok := s.sessions[token]
	delete(s.sessions, token)
	s.mu.Unlock()

	if ok {
		logger.Info("Session deleted: %s...", truncToken(token))
	}
	return nil
}

// Count returns the number of stored sessions, including not-yet-swept
// expired ones.
func (s *MemoryStore) Count() int {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return len(s.sessions)
}

func (s *MemoryStore) cleanupLoop() {
	ticker := time.NewTicker(5 * time.Minute)
	defer ticker.Stop()

	for {
		select {
		case <-ticker.C:
			s.cleanup()
		case <-s.stopCh:
			return
		}
	}
}

func (s *MemoryStore) cleanup() {
	s.mu.Lock()
	defer s.mu.Unlock()

	now := time.Now()
	for token, sess := range s.sessions {
		if now.After(sess.ExpiresAt) {
			delete(s.sessions, token)
		}
	}
}

// Stop stops the cleanup goroutine.
func (s *MemoryStore) Stop() {
	s.stopOnce.Do(func() { close(s.stopCh) })
}

func truncToken(token string) string {
	if len(token) <= 10 {
		return token
	}
	return token[:10]
}
