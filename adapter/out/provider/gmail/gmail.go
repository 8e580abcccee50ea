// Package gmail provides the Gmail API mailbox provider.
package gmail

import (
	"context"
	"encoding/base64"
	"fmt"
	"net/mail"
	"regexp"
	"strings"

	"golang.org/x/oauth2"
	"google.golang.org/api/gmail/v1"
	"google.golang.org/api/option"

	"assistant_server/core/domain"
	"assistant_server/pkg/logger"
)

const inboxQuery = "in:inbox"

// htmlTagPattern strips markup when only an HTML body part is available.
var htmlTagPattern = regexp.MustCompile(`<[^>]+>`)

// Provider wraps a gmail.Service bound to one user's credentials.
type Provider struct {
	service *gmail.Service
}

// NewProvider creates a provider for the given token.
func NewProvider(ctx context.Context, token *oauth2.Token, config *oauth2.Config) (*Provider, error) {
	client := config.Client(ctx, token)
	service, err := gmail.NewService(ctx, option.WithHTTPClient(client))
	if err != nil {
		return nil, fmt.Errorf("failed to create gmail service: %w", err)
	}
	return &Provider{service: service}, nil
}

// Profile returns the user's mailbox metadata.
func (p *Provider) Profile(ctx context.Context) (*domain.MailboxProfile, error) {
	profile, err := p.service.Users.GetProfile("me").Context(ctx).Do()
	if err != nil {
		return nil, fmt.Errorf("failed to get profile: %w", err)
	}
	return &domain.MailboxProfile{
		Email:         profile.EmailAddress,
		MessagesTotal: profile.MessagesTotal,
		ThreadsTotal:  profile.ThreadsTotal,
	}, nil
}

// ListRecent fetches the most recent inbox messages. Message bodies are
// retrieved in parallel with bounded concurrency; per-message fetch failures
// are skipped, and the returned order matches the listing order.
func (p *Provider) ListRecent(ctx context.Context, maxResults int) ([]*domain.Email, error) {
	resp, err := p.service.Users.Messages.List("me").
		Q(inboxQuery).
		MaxResults(int64(maxResults)).
		Context(ctx).
		Do()
	if err != nil {
		return nil, fmt.Errorf("failed to list messages: %w", err)
	}

	if len(resp.Messages) == 0 {
		return []*domain.Email{}, nil
	}

	const maxConcurrency = 5
	type result struct {
		index int
		email *domain.Email
		err   error
	}

	results := make(chan result, len(resp.Messages))
	semaphore := make(chan struct{}, maxConcurrency)

	for i, m := range resp.Messages {
		go func(idx int, msgID string) {
			semaphore <- struct{}{}
			defer func() { <-semaphore }()

			email, err := p.getMessage(ctx, msgID)
			results <- result{index: idx, email: email, err: err}
		}(i, m.Id)
	}

	ordered := make([]*domain.Email, len(resp.Messages))
	for range resp.Messages {
		r := <-results
		if r.err != nil {
			logger.Error("Error fetching message: %v", r.err)
			continue
		}
		ordered[r.index] = r.email
	}

	emails := make([]*domain.Email, 0, len(ordered))
	for _, e := range ordered {
		if e != nil {
			emails = append(emails, e)
		}
	}
	return emails, nil
}

// Send sends an email from the authenticated account, optionally threading
// it into an existing conversation.
func (p *Provider) Send(ctx context.Context, req *domain.SendRequest) (*domain.SendResult, error) {
	profile, err := p.service.Users.GetProfile("me").Context(ctx).Do()
	if err != nil {
		return nil, fmt.Errorf("failed to get sender address: %w", err)
	}

	raw := fmt.Sprintf("From: %s\r\nTo: %s\r\nSubject: %s\r\n\r\n%s",
		profile.EmailAddress, req.To, req.Subject, req.Body)

	msg := &gmail.Message{
		Raw: base64.URLEncoding.EncodeToString([]byte(raw)),
	}
	if req.ThreadID != "" {
		msg.ThreadId = req.ThreadID
	}

	sent, err := p.service.Users.Messages.Send("me", msg).Context(ctx).Do()
	if err != nil {
		return nil, fmt.Errorf("failed to send message: %w", err)
	}

	logger.Info("Email sent successfully: %s", sent.Id)
	return &domain.SendResult{
		MessageID: sent.Id,
		ThreadID:  sent.ThreadId,
	}, nil
}

// Delete permanently deletes a message.
func (p *Provider) Delete(ctx context.Context, messageID string) error {
	if err := p.service.Users.Messages.Delete("me", messageID).Context(ctx).Do(); err != nil {
		return fmt.Errorf("failed to delete message: %w", err)
	}
	logger.Info("Email deleted successfully: %s", messageID)
	return nil
}

// FindBySender returns the latest inbox message from the given address, or
// (nil, nil) when no message matches.
func (p *Provider) FindBySender(ctx context.Context, address string) (*domain.Email, error) {
	return p.findOne(ctx, fmt.Sprintf("from:%s %s", address, inboxQuery))
}

// FindBySubject returns the latest inbox message whose subject matches the
// keyword, or (nil, nil) when no message matches.
func (p *Provider) FindBySubject(ctx context.Context, keyword string) (*domain.Email, error) {
	return p.findOne(ctx, fmt.Sprintf("subject:%q %s", keyword, inboxQuery))
}

func (p *Provider) findOne(ctx context.Context, query string) (*domain.Email, error) {
	resp, err := p.service.Users.Messages.List("me").
		Q(query).
		MaxResults(1).
		Context(ctx).
		Do()
	if err != nil {
		return nil, fmt.Errorf("failed to search messages: %w", err)
	}
	if len(resp.Messages) == 0 {
		return nil, nil
	}
	return p.getMessage(ctx, resp.Messages[0].Id)
}

func (p *Provider) getMessage(ctx context.Context, messageID string) (*domain.Email, error) {
	msg, err := p.service.Users.Messages.Get("me", messageID).
		Format("full").
		Context(ctx).
		Do()
	if err != nil {
		return nil, fmt.Errorf("failed to get message %s: %w", messageID, err)
	}
	return parseMessage(msg), nil
}

// parseMessage flattens a Gmail message into the domain shape.
func parseMessage(msg *gmail.Message) *domain.Email {
	email := &domain.Email{
		ID:       msg.Id,
		ThreadID: msg.ThreadId,
		Subject:  "(No subject)",
		Snippet:  msg.Snippet,
		Labels:   msg.LabelIds,
	}

	if msg.Payload == nil {
		return email
	}

	for _, header := range msg.Payload.Headers {
		switch header.Name {
		case "From":
			name, addr := parseSender(header.Value)
			email.SenderName = name
			email.SenderEmail = strings.ToLower(addr)
		case "Subject":
			if header.Value != "" {
				email.Subject = header.Value
			}
		case "Date":
			email.Date = header.Value
		}
	}

	email.Body = extractBody(msg.Payload)
	return email
}

// parseSender splits a From header into display name and address. The name
// falls back to the bare address when absent.
func parseSender(from string) (name, address string) {
	addr, err := mail.ParseAddress(from)
	if err != nil {
		// Malformed header; use it as-is for both fields.
		return from, from
	}
	if addr.Name != "" {
		return addr.Name, addr.Address
	}
	return addr.Address, addr.Address
}

// extractBody pulls the first text part of a message. HTML-only parts have
// their markup stripped.
func extractBody(payload *gmail.MessagePart) string {
	if len(payload.Parts) > 0 {
		for _, part := range payload.Parts {
			mimeType := part.MimeType
			if !strings.Contains(mimeType, "text/plain") && !strings.Contains(mimeType, "text/html") {
				continue
			}
			if part.Body == nil || part.Body.Data == "" {
				continue
			}
			decoded, err := decodeBody(part.Body.Data)
			if err != nil {
				logger.Error("Error decoding body: %v", err)
				continue
			}
			if strings.Contains(mimeType, "html") {
				decoded = htmlTagPattern.ReplaceAllString(decoded, "")
			}
			return strings.TrimSpace(decoded)
		}
		return ""
	}

	if payload.Body == nil || payload.Body.Data == "" {
		return ""
	}
	decoded, err := decodeBody(payload.Body.Data)
	if err != nil {
		logger.Error("Error decoding body: %v", err)
		return ""
	}
	return strings.TrimSpace(decoded)
}

func decodeBody(data string) (string, error) {
	decoded, err := base64.URLEncoding.WithPadding(base64.NoPadding).DecodeString(strings.TrimRight(data, "="))
	if err != nil {
		return "", err
	}
	return string(decoded), nil
}
