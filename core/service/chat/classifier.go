package chat

import (
	"context"

	"assistant_server/core/domain"
	"assistant_server/core/port/out"
	"assistant_server/pkg/logger"
)

// Classifier wraps the model-backed intent extraction with graceful
// degradation: it never returns an error, only a command that may carry the
// unknown intent. The dispatcher's keyword layer covers for it.
type Classifier struct {
	llm out.LLM
}

// NewClassifier creates a classifier backed by the given model client.
func NewClassifier(llm out.LLM) *Classifier {
	return &Classifier{llm: llm}
}

// Classify extracts intent and parameters from a chat message. Model errors
// and malformed responses degrade to an unknown-intent result.
func (c *Classifier) Classify(ctx context.Context, command string, emailContext []*domain.Email) *domain.ClassifiedCommand {
	cmd, err := c.llm.ClassifyCommand(ctx, command, emailContext)
	if err != nil {
		logger.Warn("Intent classification failed, falling back to keywords: %v", err)
		return unknownCommand(err.Error())
	}
	if cmd == nil {
		return unknownCommand("empty classification result")
	}

	if !cmd.Intent.Valid() {
		cmd.Intent = domain.IntentUnknown
	}
	switch cmd.Confidence {
	case domain.ConfidenceHigh, domain.ConfidenceMedium, domain.ConfidenceLow:
	default:
		cmd.Confidence = domain.ConfidenceLow
	}
	return cmd
}

func unknownCommand(reason string) *domain.ClassifiedCommand {
	return &domain.ClassifiedCommand{
		Intent:     domain.IntentUnknown,
		Parameters: domain.CommandParameters{},
		Confidence: domain.ConfidenceLow,
		Error:      reason,
	}
}
