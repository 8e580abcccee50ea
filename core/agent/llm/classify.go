package llm

import (
	"context"
	"fmt"
	"strings"

	"github.com/goccy/go-json"

	"assistant_server/core/domain"
)

// maxContextEmails bounds the prompt cost of the context listing.
const maxContextEmails = 5

// ClassifyCommand extracts structured intent from a natural-language command.
// The caller is responsible for degrading errors to an unknown intent.
func (c *Client) ClassifyCommand(ctx context.Context, command string, emailContext []*domain.Email) (*domain.ClassifiedCommand, error) {
	contextStr := "No email context available."
	if len(emailContext) > 0 {
		listed := emailContext
		if len(listed) > maxContextEmails {
			listed = listed[:maxContextEmails]
		}
		var sb strings.Builder
		sb.WriteString("Available emails:\n")
		for _, email := range listed {
			sender := email.SenderEmail
			if sender == "" {
				sender = "unknown"
			}
			fmt.Fprintf(&sb, "- From %s: %s\n", sender, email.Subject)
		}
		contextStr = strings.TrimRight(sb.String(), "\n")
	}

	systemPrompt := "You are a command parser that extracts structured intent from natural language."

	userPrompt := fmt.Sprintf(`Analyze this user command and determine the intent:

User command: "%s"

%s

Determine the intent and extract key parameters. Respond in this JSON format:
{
    "intent": "read|reply|delete|digest",
    "parameters": {
        "sender_email": "extracted sender if mentioned",
        "subject_keyword": "extracted keyword if mentioned",
        "email_index": "1-5 if referencing by number",
        "action_details": "any additional details"
    },
    "confidence": "high|medium|low"
}`, command, contextStr)

	resp, err := c.CompleteJSON(ctx, systemPrompt, userPrompt)
	if err != nil {
		return nil, err
	}
	if resp == "" {
		return nil, fmt.Errorf("no content returned from model")
	}

	var cmd domain.ClassifiedCommand
	resp = cleanJSONResponse(resp)
	if err := json.Unmarshal([]byte(resp), &cmd); err != nil {
		return nil, fmt.Errorf("unparsable classification response: %w", err)
	}

	return &cmd, nil
}

// cleanJSONResponse strips markdown code fences some models wrap around JSON.
func cleanJSONResponse(resp string) string {
	resp = strings.TrimSpace(resp)
	resp = strings.TrimPrefix(resp, "```json")
	resp = strings.TrimPrefix(resp, "```")
	resp = strings.TrimSuffix(resp, "```")
	return strings.TrimSpace(resp)
}
