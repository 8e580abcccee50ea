package out

import (
	"context"

	"assistant_server/core/domain"
)

// LLM is the outbound port for the language model. Every call is a single
// synchronous round trip bounded by the client's timeout.
type LLM interface {
	// ClassifyCommand extracts structured intent from a chat message. The
	// context list is truncated to 5 entries when building the prompt.
	ClassifyCommand(ctx context.Context, command string, emailContext []*domain.Email) (*domain.ClassifiedCommand, error)

	// SummarizeEmail produces a 2-3 sentence summary of one email.
	SummarizeEmail(ctx context.Context, subject, body, sender string) (string, error)

	// GenerateReply drafts a reply to the given email; userContext is free
	// text from the user ("tell him I'll be late").
	GenerateReply(ctx context.Context, email *domain.Email, userContext string) (string, error)

	// GenerateDigest builds a linear daily digest over the batch.
	GenerateDigest(ctx context.Context, emails []*domain.Email) (string, error)

	// GroupedSummary groups the batch into categories and summarizes each.
	GroupedSummary(ctx context.Context, emails []*domain.Email) (string, error)
}
