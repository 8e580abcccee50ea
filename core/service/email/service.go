// Package email implements mailbox operations enriched with model-generated
// summaries.
package email

import (
	"context"
	"net/http"
	"sync"

	"assistant_server/core/domain"
	"assistant_server/core/port/out"
	"assistant_server/pkg/apperr"
	"assistant_server/pkg/logger"
)

// summaryPlaceholder is substituted when one email's summarization fails.
// Summary failures never abort a batch.
const summaryPlaceholder = "Unable to generate summary."

// replyPlaceholder is substituted when reply drafting fails; the request
// still succeeds with the located email.
const replyPlaceholder = "I apologize, but I'm having trouble generating a reply right now. Please try again later."

// replyLookupWindow is how many recent emails are scanned when resolving an
// email ID for reply generation.
const replyLookupWindow = 50

// groupedBatchSize is the batch fetched for the grouped inbox summary.
const groupedBatchSize = 20

// Service layers summarization on top of a per-request MailboxProvider. The
// provider is passed per call because it is bound to one user's credentials.
type Service struct {
	llm     out.LLM
	workers int
}

// NewService creates the email service. workers bounds the summarization
// fan-out; values below 1 disable concurrency.
func NewService(llm out.LLM, workers int) *Service {
	if workers < 1 {
		workers = 1
	}
	return &Service{llm: llm, workers: workers}
}

// RecentWithSummaries fetches the most recent emails and annotates each with
// a model summary. Summaries are generated concurrently but the returned
// order matches the fetch order.
func (s *Service) RecentWithSummaries(ctx context.Context, mailbox out.MailboxProvider, maxResults int) ([]*domain.Email, error) {
	emails, err := mailbox.ListRecent(ctx, maxResults)
	if err != nil {
		return nil, err
	}

	s.summarizeAll(ctx, emails)
	return emails, nil
}

// summarizeAll fills AISummary on every email in place, at most s.workers
// summarizations in flight.
func (s *Service) summarizeAll(ctx context.Context, emails []*domain.Email) {
	if len(emails) == 0 {
		return
	}

	sem := make(chan struct{}, s.workers)
	var wg sync.WaitGroup

	for _, email := range emails {
		wg.Add(1)
		sem <- struct{}{}
		go func(e *domain.Email) {
			defer wg.Done()
			defer func() { <-sem }()
			s.summarize(ctx, e)
		}(email)
	}

	wg.Wait()
}

func (s *Service) summarize(ctx context.Context, email *domain.Email) {
	summary, err := s.llm.SummarizeEmail(ctx, email.Subject, email.Body, email.SenderName)
	if err != nil {
		logger.Error("Error generating summary for email %s: %v", email.ID, err)
		email.AISummary = summaryPlaceholder
		return
	}
	email.AISummary = summary
}

// Send sends an email, optionally threading it into an existing conversation.
func (s *Service) Send(ctx context.Context, mailbox out.MailboxProvider, req *domain.SendRequest) (*domain.SendResult, error) {
	if req.To == "" {
		return nil, apperr.MissingField("to")
	}
	return mailbox.Send(ctx, req)
}

// Delete permanently removes an email. This is the commit half of the
// two-phase delete; the chat dispatcher only ever proposes.
func (s *Service) Delete(ctx context.Context, mailbox out.MailboxProvider, messageID string) error {
	if messageID == "" {
		return apperr.MissingField("message_id")
	}
	logger.Info("Deleting email: %s", messageID)
	return mailbox.Delete(ctx, messageID)
}

// GenerateReply drafts a reply for the email with the given ID, located in
// the recent inbox window.
func (s *Service) GenerateReply(ctx context.Context, mailbox out.MailboxProvider, emailID, userContext string) (string, *domain.Email, error) {
	if emailID == "" {
		return "", nil, apperr.MissingField("email_id")
	}

	emails, err := mailbox.ListRecent(ctx, replyLookupWindow)
	if err != nil {
		return "", nil, err
	}

	var target *domain.Email
	for _, e := range emails {
		if e.ID == emailID {
			target = e
			break
		}
	}
	if target == nil {
		return "", nil, apperr.New(apperr.CodeNotFound, "Email not found", http.StatusNotFound)
	}

	reply, err := s.llm.GenerateReply(ctx, target, userContext)
	if err != nil {
		logger.Error("Error generating reply for email %s: %v", target.ID, err)
		reply = replyPlaceholder
	}
	return reply, target, nil
}

// FindBySender returns the latest email from the given sender, summarized.
// Returns a NotFound error when no email matches.
func (s *Service) FindBySender(ctx context.Context, mailbox out.MailboxProvider, senderEmail string) (*domain.Email, error) {
	if senderEmail == "" {
		return nil, apperr.MissingField("sender_email")
	}

	email, err := mailbox.FindBySender(ctx, senderEmail)
	if err != nil {
		return nil, err
	}
	if email == nil {
		return nil, apperr.New(apperr.CodeNotFound, "No email found from this sender", http.StatusNotFound)
	}

	s.summarize(ctx, email)
	return email, nil
}

// FindBySubject returns the latest email whose subject contains the keyword,
// summarized. Returns a NotFound error when no email matches.
func (s *Service) FindBySubject(ctx context.Context, mailbox out.MailboxProvider, keyword string) (*domain.Email, error) {
	if keyword == "" {
		return nil, apperr.MissingField("subject_keyword")
	}

	email, err := mailbox.FindBySubject(ctx, keyword)
	if err != nil {
		return nil, err
	}
	if email == nil {
		return nil, apperr.New(apperr.CodeNotFound, "No email found with this subject keyword", http.StatusNotFound)
	}

	s.summarize(ctx, email)
	return email, nil
}

// GroupedSummary fetches a recent batch and returns a categorized triage
// digest over it, plus the batch size.
func (s *Service) GroupedSummary(ctx context.Context, mailbox out.MailboxProvider) (string, int, error) {
	emails, err := mailbox.ListRecent(ctx, groupedBatchSize)
	if err != nil {
		return "", 0, err
	}

	digest, err := s.llm.GroupedSummary(ctx, emails)
	if err != nil {
		logger.Error("Error generating grouped summary: %v", err)
		return "Unable to generate grouped summary at this time.", len(emails), nil
	}
	return digest, len(emails), nil
}
