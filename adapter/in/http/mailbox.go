package http

import (
	"github.com/gofiber/fiber/v2"

	"assistant_server/adapter/out/provider"
	"assistant_server/core/port/out"
	"assistant_server/core/service/auth"
)

// MailboxResolver turns the request's session into a credential-bound
// mailbox provider, refreshing the Google token when needed.
type MailboxResolver struct {
	auth    *auth.Service
	adapter *provider.GmailAdapter
}

// NewMailboxResolver creates the resolver.
func NewMailboxResolver(authService *auth.Service, adapter *provider.GmailAdapter) *MailboxResolver {
	return &MailboxResolver{auth: authService, adapter: adapter}
}

// Mailbox resolves the calling user's mailbox for this request.
func (r *MailboxResolver) Mailbox(c *fiber.Ctx) (out.MailboxProvider, error) {
	token, err := SessionToken(c)
	if err != nil {
		return nil, err
	}

	googleToken, err := r.auth.Resolve(c.Context(), token)
	if err != nil {
		return nil, err
	}

	return r.adapter.Mailbox(c.Context(), googleToken)
}
