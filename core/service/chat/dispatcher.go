// Package chat implements the natural-language command core: intent
// classification with a deterministic keyword fallback, target resolution
// against conversational context, and the branch dispatch that turns a chat
// message into a response envelope.
package chat

import (
	"context"
	"fmt"
	"strconv"
	"strings"

	"assistant_server/core/domain"
	"assistant_server/core/port/out"
	"assistant_server/core/service/email"
	"assistant_server/pkg/logger"
)

// digestBatchSize is fixed: the digest branch ignores count phrasing.
const digestBatchSize = 20

const (
	replyMissMessage  = "I couldn't find the email you want to reply to. Please try fetching your recent emails first or be more specific about which email to reply to."
	deleteMissMessage = "I couldn't find the email you want to delete. Please try fetching your recent emails first or be more specific."
	digestMessage     = "Here's your daily email digest:"
	digestPlaceholder = "Unable to generate digest at this time."
	replyPlaceholder  = "I apologize, but I'm having trouble generating a reply right now. Please try again later."
)

const infoMessage = `I'm your AI email assistant! I can help you with:

• **Read emails**: "Show me my recent emails" or "Fetch last 5 emails"
• **Generate replies**: "Reply to John" or "Generate a reply to the latest email from [sender]"
• **Delete emails**: "Delete the latest email from [sender]" or "Delete email number 2"

Try asking me to fetch your emails first, and then I can help you reply or delete specific ones!`

// Dispatcher routes a classified chat message to one of the four action
// branches. It holds no per-conversation state; the caller resends the
// email context each turn.
type Dispatcher struct {
	classifier *Classifier
	llm        out.LLM
	emails     *email.Service
}

// NewDispatcher creates the dispatcher.
func NewDispatcher(classifier *Classifier, llm out.LLM, emails *email.Service) *Dispatcher {
	return &Dispatcher{classifier: classifier, llm: llm, emails: emails}
}

// Dispatch interprets one chat message. The mailbox is bound to the calling
// user. A non-nil error is a provider or auth failure; resolution misses and
// unrecognized input come back as envelopes.
func (d *Dispatcher) Dispatch(ctx context.Context, mailbox out.MailboxProvider, text string, emailContext []*domain.Email) (*domain.ResponseEnvelope, error) {
	message := normalizeMessage(text)

	cmd := d.classifier.Classify(ctx, text, emailContext)
	logger.Info("Processed chat message: %s -> %s", text, cmd.Intent)

	// Branches are evaluated in fixed priority order; classifier output and
	// keyword match are equally valid evidence of intent.
	switch {
	case cmd.Intent == domain.IntentRead || matchesIntent(message, domain.IntentRead):
		return d.read(ctx, mailbox, message, cmd)
	case cmd.Intent == domain.IntentReply || matchesIntent(message, domain.IntentReply):
		return d.reply(ctx, mailbox, cmd, emailContext)
	case cmd.Intent == domain.IntentDelete || matchesIntent(message, domain.IntentDelete):
		return d.delete(ctx, mailbox, cmd, emailContext)
	case cmd.Intent == domain.IntentDigest || matchesIntent(message, domain.IntentDigest):
		return d.digest(ctx, mailbox, cmd)
	default:
		return &domain.ResponseEnvelope{
			Intent:     cmd.Intent,
			Confidence: cmd.Confidence,
			Message:    infoMessage,
			Action:     domain.ActionInfo,
		}, nil
	}
}

func (d *Dispatcher) read(ctx context.Context, mailbox out.MailboxProvider, message string, cmd *domain.ClassifiedCommand) (*domain.ResponseEnvelope, error) {
	emails, err := d.emails.RecentWithSummaries(ctx, mailbox, readCount(message))
	if err != nil {
		return nil, err
	}

	return &domain.ResponseEnvelope{
		Intent:     cmd.Intent,
		Confidence: cmd.Confidence,
		Message:    fmt.Sprintf("I found %d recent emails. Here they are:", len(emails)),
		Action:     domain.ActionDisplayEmails,
		Data:       domain.EmailListData{Emails: emails},
	}, nil
}

func (d *Dispatcher) reply(ctx context.Context, mailbox out.MailboxProvider, cmd *domain.ClassifiedCommand, emailContext []*domain.Email) (*domain.ResponseEnvelope, error) {
	params := cmd.Parameters

	target := resolveFromContext(emailContext, params.EmailIndex, params.SenderEmail, "")

	if target == nil && params.SenderEmail != "" {
		found, err := mailbox.FindBySender(ctx, params.SenderEmail)
		if err != nil {
			return nil, err
		}
		target = found
	}

	if target == nil {
		return &domain.ResponseEnvelope{
			Intent:     cmd.Intent,
			Confidence: cmd.Confidence,
			Message:    replyMissMessage,
			Action:     domain.ActionError,
		}, nil
	}

	reply, err := d.llm.GenerateReply(ctx, target, params.ActionDetails)
	if err != nil {
		logger.Error("Error generating reply: %v", err)
		reply = replyPlaceholder
	}

	return &domain.ResponseEnvelope{
		Intent:     cmd.Intent,
		Confidence: cmd.Confidence,
		Message:    fmt.Sprintf("Here's a suggested reply to the email from %s:", senderLabel(target)),
		Action:     domain.ActionDisplayReply,
		Data: domain.ReplyData{
			Reply:         reply,
			OriginalEmail: target.Stub(),
		},
	}, nil
}

// delete only proposes: the envelope asks for confirmation and the
// destructive provider call happens on a separate explicit request.
func (d *Dispatcher) delete(ctx context.Context, mailbox out.MailboxProvider, cmd *domain.ClassifiedCommand, emailContext []*domain.Email) (*domain.ResponseEnvelope, error) {
	params := cmd.Parameters

	target := resolveFromContext(emailContext, params.EmailIndex, params.SenderEmail, params.SubjectKeyword)

	if target == nil {
		var found *domain.Email
		var err error
		if params.SenderEmail != "" {
			found, err = mailbox.FindBySender(ctx, params.SenderEmail)
		} else if params.SubjectKeyword != "" {
			found, err = mailbox.FindBySubject(ctx, params.SubjectKeyword)
		}
		if err != nil {
			return nil, err
		}
		target = found
	}

	if target == nil {
		return &domain.ResponseEnvelope{
			Intent:     cmd.Intent,
			Confidence: cmd.Confidence,
			Message:    deleteMissMessage,
			Action:     domain.ActionError,
		}, nil
	}

	return &domain.ResponseEnvelope{
		Intent:     cmd.Intent,
		Confidence: cmd.Confidence,
		Message: fmt.Sprintf("I found the email from %s with subject '%s'. Are you sure you want to delete it?",
			senderLabel(target), target.Subject),
		Action: domain.ActionConfirmDelete,
		Data:   domain.DeleteConfirmData{Email: target.Stub()},
	}, nil
}

func (d *Dispatcher) digest(ctx context.Context, mailbox out.MailboxProvider, cmd *domain.ClassifiedCommand) (*domain.ResponseEnvelope, error) {
	emails, err := mailbox.ListRecent(ctx, digestBatchSize)
	if err != nil {
		return nil, err
	}

	digest, err := d.llm.GenerateDigest(ctx, emails)
	if err != nil {
		logger.Error("Error generating digest: %v", err)
		digest = digestPlaceholder
	}

	return &domain.ResponseEnvelope{
		Intent:     cmd.Intent,
		Confidence: cmd.Confidence,
		Message:    digestMessage,
		Action:     domain.ActionDisplayDigest,
		Data:       domain.DigestData{Digest: digest, EmailCount: len(emails)},
	}, nil
}

// resolveFromContext picks a target email from the context list. Priority is
// fixed: a valid 1-based index wins over a sender match, which wins over a
// subject-keyword match. An out-of-range index falls through.
func resolveFromContext(emailContext []*domain.Email, index, senderEmail, subjectKeyword string) *domain.Email {
	if len(emailContext) == 0 {
		return nil
	}

	if isDigits(index) {
		idx, _ := strconv.Atoi(index)
		zero := idx - 1
		if zero >= 0 && zero < len(emailContext) {
			return emailContext[zero]
		}
		// A present-but-out-of-range index skips the rest of the context
		// chain; only the provider fallback remains.
		return nil
	}

	if senderEmail != "" {
		needle := strings.ToLower(senderEmail)
		for _, e := range emailContext {
			if strings.Contains(strings.ToLower(e.SenderEmail), needle) {
				return e
			}
		}
		return nil
	}

	if subjectKeyword != "" {
		needle := strings.ToLower(subjectKeyword)
		for _, e := range emailContext {
			if strings.Contains(strings.ToLower(e.Subject), needle) {
				return e
			}
		}
	}

	return nil
}

func isDigits(s string) bool {
	if s == "" {
		return false
	}
	for _, r := range s {
		if r < '0' || r > '9' {
			return false
		}
	}
	return true
}

func senderLabel(e *domain.Email) string {
	if e.SenderName != "" {
		return e.SenderName
	}
	return "the sender"
}
