package llm

import (
	"context"
	"fmt"
	"strings"

	"assistant_server/core/domain"
)

// GenerateReply drafts a context-aware reply to an email. userContext carries
// free-text instructions from the user and may be empty.
func (c *Client) GenerateReply(ctx context.Context, email *domain.Email, userContext string) (string, error) {
	sender := email.SenderName
	if sender == "" {
		sender = email.SenderEmail
	}
	if sender == "" {
		sender = "Unknown"
	}

	extra := ""
	if userContext != "" {
		extra = fmt.Sprintf("Additional context: %s\n", userContext)
	}

	systemPrompt := "You are a professional email assistant that writes clear, contextually appropriate replies."

	userPrompt := fmt.Sprintf(`Write a professional, clear, and contextually appropriate email reply to this message:

From: %s
Subject: %s

Original Message:
%s

%s
Please write a concise, professional reply that:
- Addresses the key points in the original email
- Is ready to send (no placeholders or explanations)
- Maintains a professional tone
- Is appropriate for the context

Reply:`, sender, email.Subject, truncateBody(email.Body, 2000), extra)

	resp, err := c.complete(ctx, systemPrompt, userPrompt, completionOptions{
		maxTokens:   300,
		temperature: 0.7,
	})
	if err != nil {
		return "", err
	}

	return strings.TrimSpace(resp), nil
}
