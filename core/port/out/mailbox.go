package out

import (
	"context"

	"assistant_server/core/domain"
)

// MailboxProvider is the outbound port for the mail provider. Implementations
// are bound to a single user's credentials for the duration of one request.
//
// FindBySender and FindBySubject return (nil, nil) when no message matches;
// a non-nil error always indicates a provider failure.
type MailboxProvider interface {
	Profile(ctx context.Context) (*domain.MailboxProfile, error)
	ListRecent(ctx context.Context, maxResults int) ([]*domain.Email, error)
	Send(ctx context.Context, req *domain.SendRequest) (*domain.SendResult, error)
	Delete(ctx context.Context, messageID string) error
	FindBySender(ctx context.Context, address string) (*domain.Email, error)
	FindBySubject(ctx context.Context, keyword string) (*domain.Email, error)
}
