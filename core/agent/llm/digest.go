package llm

import (
	"context"
	"fmt"
	"strings"

	"assistant_server/core/domain"
)

// GenerateDigest creates a linear daily digest over the batch.
func (c *Client) GenerateDigest(ctx context.Context, emails []*domain.Email) (string, error) {
	var sb strings.Builder
	for i, email := range emails {
		if i > 0 {
			sb.WriteString("\n\n")
		}
		sender := email.SenderEmail
		if sender == "" {
			sender = "unknown"
		}
		fmt.Fprintf(&sb, "From: %s\nSubject: %s\nPreview: %s", sender, email.Subject, email.Snippet)
	}

	systemPrompt := "You are an email assistant that creates helpful daily digests."

	userPrompt := fmt.Sprintf(`Create a concise daily email digest summarizing these emails:

%s

Please provide:
1. Key highlights (most important emails)
2. Suggested actions or follow-ups
3. Brief categorization if helpful

Keep it concise and actionable:`, sb.String())

	resp, err := c.complete(ctx, systemPrompt, userPrompt, completionOptions{
		maxTokens:   400,
		temperature: 0.5,
	})
	if err != nil {
		return "", err
	}

	return strings.TrimSpace(resp), nil
}

// GroupedSummary groups the batch into Work, Promotions, Personal and Urgent
// categories and summarizes each group in markdown.
func (c *Client) GroupedSummary(ctx context.Context, emails []*domain.Email) (string, error) {
	var sb strings.Builder
	for i, email := range emails {
		if i > 0 {
			sb.WriteString("\n\n")
		}
		sender := email.SenderEmail
		if sender == "" {
			sender = "unknown"
		}
		fmt.Fprintf(&sb, "ID: %s\nFrom: %s\nSubject: %s\nPreview: %s", email.ID, sender, email.Subject, email.Snippet)
	}

	systemPrompt := "You are an email assistant that categorizes and summarizes emails."

	userPrompt := fmt.Sprintf(`You are helping a user triage their inbox.

Here are some recent emails:

%s

1. Group these emails into the following categories based on sender, subject, and preview:
   - Work
   - Promotions
   - Personal
   - Urgent
2. For each category, provide:
   - A short title line with the category name and number of emails
   - 2-4 bullet points summarizing the most important emails (reference subjects, not IDs)
3. If a category has no emails, omit it entirely.
4. Answer in clear markdown.
`, sb.String())

	resp, err := c.complete(ctx, systemPrompt, userPrompt, completionOptions{
		maxTokens:   500,
		temperature: 0.4,
	})
	if err != nil {
		return "", err
	}

	return strings.TrimSpace(resp), nil
}
