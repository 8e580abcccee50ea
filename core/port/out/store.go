package out

import (
	"context"
	"time"

	"assistant_server/core/domain"
)

// SessionStore owns the token -> session mapping. Get returns (nil, nil) for
// a missing or expired session; errors are reserved for backend failures, so
// the in-memory implementation never returns one.
type SessionStore interface {
	Create(ctx context.Context, user *domain.UserData) (string, error)
	Get(ctx context.Context, token string) (*domain.Session, error)
	UpdateCredentials(ctx context.Context, token string, creds domain.Credentials) error
	Delete(ctx context.Context, token string) error
}

// OAuthStateStore stores OAuth state parameters for CSRF protection.
// ValidateState consumes the state: a second validation of the same value
// must fail.
type OAuthStateStore interface {
	StoreState(ctx context.Context, state string, ttl time.Duration) error
	ValidateState(ctx context.Context, state string) error
}
