package llm

import (
	"context"
	"fmt"
	"strings"
)

// SummarizeEmail creates a brief summary of one email.
func (c *Client) SummarizeEmail(ctx context.Context, subject, body, sender string) (string, error) {
	systemPrompt := "You are a helpful assistant that summarizes emails concisely."

	userPrompt := fmt.Sprintf(`Please provide a brief, clear summary (2-3 sentences) of this email:

From: %s
Subject: %s

Body:
%s

Summary:`, sender, subject, truncateBody(body, 2000))

	resp, err := c.complete(ctx, systemPrompt, userPrompt, completionOptions{
		maxTokens:   150,
		temperature: 0.3,
	})
	if err != nil {
		return "", err
	}

	return strings.TrimSpace(resp), nil
}

func truncateBody(body string, maxLen int) string {
	if len(body) <= maxLen {
		return body
	}
	return body[:maxLen] + "..."
}
