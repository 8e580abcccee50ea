package chat

import (
	"context"
	"fmt"

	"assistant_server/core/domain"
)

// fakeLLM implements out.LLM with overridable behavior per method.
type fakeLLM struct {
	classifyFn     func(command string, emailContext []*domain.Email) (*domain.ClassifiedCommand, error)
	summaryErr     bool
	summaryFailFor map[string]bool
	replyErr       bool
	digestErr      bool
}

func (f *fakeLLM) ClassifyCommand(ctx context.Context, command string, emailContext []*domain.Email) (*domain.ClassifiedCommand, error) {
	if f.classifyFn != nil {
		return f.classifyFn(command, emailContext)
	}
	return &domain.ClassifiedCommand{
		Intent:     domain.IntentUnknown,
		Confidence: domain.ConfidenceLow,
	}, nil
}

func (f *fakeLLM) SummarizeEmail(ctx context.Context, subject, body, sender string) (string, error) {
	if f.summaryErr || f.summaryFailFor[subject] {
		return "", fmt.Errorf("model unavailable")
	}
	return "summary of " + subject, nil
}

func (f *fakeLLM) GenerateReply(ctx context.Context, email *domain.Email, userContext string) (string, error) {
	if f.replyErr {
		return "", fmt.Errorf("model unavailable")
	}
	return "drafted reply to " + email.Subject, nil
}

func (f *fakeLLM) GenerateDigest(ctx context.Context, emails []*domain.Email) (string, error) {
	if f.digestErr {
		return "", fmt.Errorf("model unavailable")
	}
	return fmt.Sprintf("digest of %d emails", len(emails)), nil
}

func (f *fakeLLM) GroupedSummary(ctx context.Context, emails []*domain.Email) (string, error) {
	return fmt.Sprintf("grouped digest of %d emails", len(emails)), nil
}

// fakeMailbox implements out.MailboxProvider and records destructive calls.
type fakeMailbox struct {
	inbox []*domain.Email

	listCalls    []int
	deleteCalls  []string
	senderCalls  []string
	subjectCalls []string

	listErr error
}

func (f *fakeMailbox) Profile(ctx context.Context) (*domain.MailboxProfile, error) {
	return &domain.MailboxProfile{Email: "user@example.com"}, nil
}

func (f *fakeMailbox) ListRecent(ctx context.Context, maxResults int) ([]*domain.Email, error) {
	f.listCalls = append(f.listCalls, maxResults)
	if f.listErr != nil {
		return nil, f.listErr
	}
	if maxResults > len(f.inbox) {
		maxResults = len(f.inbox)
	}
	out := make([]*domain.Email, maxResults)
	for i := 0; i < maxResults; i++ {
		cp := *f.inbox[i]
		out[i] = &cp
	}
	return out, nil
}

func (f *fakeMailbox) Send(ctx context.Context, req *domain.SendRequest) (*domain.SendResult, error) {
	return &domain.SendResult{MessageID: "sent-1", ThreadID: req.ThreadID}, nil
}

func (f *fakeMailbox) Delete(ctx context.Context, messageID string) error {
	f.deleteCalls = append(f.deleteCalls, messageID)
	return nil
}

func (f *fakeMailbox) FindBySender(ctx context.Context, address string) (*domain.Email, error) {
	f.senderCalls = append(f.senderCalls, address)
	for _, e := range f.inbox {
		if e.SenderEmail == address {
			cp := *e
			return &cp, nil
		}
	}
	return nil, nil
}

func (f *fakeMailbox) FindBySubject(ctx context.Context, keyword string) (*domain.Email, error) {
	f.subjectCalls = append(f.subjectCalls, keyword)
	for _, e := range f.inbox {
		if e.Subject == keyword {
			cp := *e
			return &cp, nil
		}
	}
	return nil, nil
}

func testEmails(n int) []*domain.Email {
	emails := make([]*domain.Email, n)
	for i := range emails {
		emails[i] = &domain.Email{
			ID:          fmt.Sprintf("msg-%d", i+1),
			ThreadID:    fmt.Sprintf("thread-%d", i+1),
			SenderName:  fmt.Sprintf("Sender %d", i+1),
			SenderEmail: fmt.Sprintf("sender%d@example.com", i+1),
			Subject:     fmt.Sprintf("Subject %d", i+1),
			Body:        fmt.Sprintf("Body %d", i+1),
			Snippet:     fmt.Sprintf("Snippet %d", i+1),
		}
	}
	return emails
}

func classifyAs(intent domain.Intent, params domain.CommandParameters) func(string, []*domain.Email) (*domain.ClassifiedCommand, error) {
	return func(string, []*domain.Email) (*domain.ClassifiedCommand, error) {
		return &domain.ClassifiedCommand{
			Intent:     intent,
			Parameters: params,
			Confidence: domain.ConfidenceHigh,
		}, nil
	}
}
