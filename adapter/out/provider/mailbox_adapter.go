// Package provider wires mail providers behind the outbound mailbox port.
package provider

import (
	"context"
	"errors"
	"net/http"
	"time"

	"github.com/sony/gobreaker"
	"golang.org/x/oauth2"
	"google.golang.org/api/googleapi"

	"assistant_server/adapter/out/provider/gmail"
	"assistant_server/core/domain"
	"assistant_server/core/port/out"
	"assistant_server/pkg/apperr"
	"assistant_server/pkg/httputil"
	"assistant_server/pkg/logger"
)

// GmailAdapter creates per-request mailbox providers sharing one circuit
// breaker, so sustained Gmail failures trip for all users at once instead of
// per session.
type GmailAdapter struct {
	config     *oauth2.Config
	breaker    *gobreaker.CircuitBreaker
	timeout    time.Duration
	httpClient *http.Client
}

// NewGmailAdapter creates the adapter. timeout bounds each provider call.
func NewGmailAdapter(config *oauth2.Config, timeout time.Duration) *GmailAdapter {
	if timeout <= 0 {
		timeout = 30 * time.Second
	}

	settings := gobreaker.Settings{
		Name:        "gmail-api",
		MaxRequests: 3,
		Interval:    60 * time.Second,
		Timeout:     30 * time.Second,
		ReadyToTrip: func(counts gobreaker.Counts) bool {
			failureRatio := float64(counts.TotalFailures) / float64(counts.Requests)
			return counts.ConsecutiveFailures > 5 ||
				(counts.Requests >= 10 && failureRatio >= 0.6)
		},
		OnStateChange: func(name string, from, to gobreaker.State) {
			logger.Warn("Circuit breaker %s: %s -> %s", name, from, to)
		},
	}

	return &GmailAdapter{
		config:     config,
		breaker:    gobreaker.NewCircuitBreaker(settings),
		timeout:    timeout,
		httpClient: httputil.NewClient(httputil.MailboxClientConfig()),
	}
}

// Mailbox binds a provider to the given user token.
func (a *GmailAdapter) Mailbox(ctx context.Context, token *oauth2.Token) (out.MailboxProvider, error) {
	// The token source built by config.Client picks this up, so both token
	// refreshes and API calls use the pooled client.
	ctx = context.WithValue(ctx, oauth2.HTTPClient, a.httpClient)
	inner, err := gmail.NewProvider(ctx, token, a.config)
	if err != nil {
		return nil, apperr.ExternalError("gmail", err)
	}
	return &breakerMailbox{inner: inner, breaker: a.breaker, timeout: a.timeout}, nil
}

// breakerMailbox routes every provider call through the shared breaker with
// a per-call timeout and maps Google API failures onto the error taxonomy.
type breakerMailbox struct {
	inner   *gmail.Provider
	breaker *gobreaker.CircuitBreaker
	timeout time.Duration
}

func (b *breakerMailbox) execute(ctx context.Context, op func(ctx context.Context) (any, error)) (any, error) {
	result, err := b.breaker.Execute(func() (any, error) {
		callCtx, cancel := context.WithTimeout(ctx, b.timeout)
		defer cancel()
		return op(callCtx)
	})
	if err != nil {
		return nil, mapProviderError(err)
	}
	return result, nil
}

func (b *breakerMailbox) Profile(ctx context.Context) (*domain.MailboxProfile, error) {
	result, err := b.execute(ctx, func(ctx context.Context) (any, error) {
		return b.inner.Profile(ctx)
	})
	if err != nil {
		return nil, err
	}
	return result.(*domain.MailboxProfile), nil
}

func (b *breakerMailbox) ListRecent(ctx context.Context, maxResults int) ([]*domain.Email, error) {
	result, err := b.execute(ctx, func(ctx context.Context) (any, error) {
		return b.inner.ListRecent(ctx, maxResults)
	})
	if err != nil {
		return nil, err
	}
	return result.([]*domain.Email), nil
}

func (b *breakerMailbox) Send(ctx context.Context, req *domain.SendRequest) (*domain.SendResult, error) {
	result, err := b.execute(ctx, func(ctx context.Context) (any, error) {
		return b.inner.Send(ctx, req)
	})
	if err != nil {
		return nil, err
	}
	return result.(*domain.SendResult), nil
}

func (b *breakerMailbox) Delete(ctx context.Context, messageID string) error {
	_, err := b.execute(ctx, func(ctx context.Context) (any, error) {
		return nil, b.inner.Delete(ctx, messageID)
	})
	return err
}

func (b *breakerMailbox) FindBySender(ctx context.Context, address string) (*domain.Email, error) {
	return b.find(ctx, func(ctx context.Context) (any, error) {
		return b.inner.FindBySender(ctx, address)
	})
}

func (b *breakerMailbox) FindBySubject(ctx context.Context, keyword string) (*domain.Email, error) {
	return b.find(ctx, func(ctx context.Context) (any, error) {
		return b.inner.FindBySubject(ctx, keyword)
	})
}

func (b *breakerMailbox) find(ctx context.Context, op func(ctx context.Context) (any, error)) (*domain.Email, error) {
	result, err := b.execute(ctx, op)
	if err != nil {
		return nil, err
	}
	email, _ := result.(*domain.Email)
	return email, nil
}

// mapProviderError translates Gmail API failures. Credential rejections are
// auth errors the user must fix by re-authenticating; everything else is a
// transport failure.
func mapProviderError(err error) error {
	var apiErr *googleapi.Error
	if errors.As(err, &apiErr) {
		switch apiErr.Code {
		case http.StatusUnauthorized:
			return apperr.Unauthorized("Gmail rejected the credentials")
		case http.StatusForbidden:
			return apperr.Forbidden("Gmail API access was denied. Re-authorize the app with full Gmail access.")
		}
	}
	return apperr.ExternalError("gmail", err)
}
