package http

import (
	"github.com/gofiber/fiber/v2"

	"assistant_server/core/domain"
	"assistant_server/core/service/email"
	"assistant_server/pkg/apperr"
	"assistant_server/pkg/logger"
)

// EmailHandler exposes the direct mailbox endpoints.
type EmailHandler struct {
	emails   *email.Service
	resolver *MailboxResolver
	sessions fiber.Handler
}

// NewEmailHandler creates the handler.
func NewEmailHandler(emails *email.Service, resolver *MailboxResolver, sessionAuth fiber.Handler) *EmailHandler {
	return &EmailHandler{emails: emails, resolver: resolver, sessions: sessionAuth}
}

// Register mounts the email routes. All of them require a session.
func (h *EmailHandler) Register(app fiber.Router) {
	grp := app.Group("/email", h.sessions)
	grp.Get("/recent", h.Recent)
	grp.Post("/send", h.Send)
	grp.Post("/delete", h.Delete)
	grp.Post("/generate-reply", h.GenerateReply)
	grp.Get("/find-by-sender", h.FindBySender)
	grp.Get("/find-by-subject", h.FindBySubject)
	grp.Get("/grouped-summary", h.GroupedSummary)
}

// Recent returns the last N emails with summaries.
func (h *EmailHandler) Recent(c *fiber.Ctx) error {
	maxResults := c.QueryInt("max_results", 5)
	if maxResults < 1 || maxResults > 50 {
		return apperr.BadRequest("max_results must be between 1 and 50")
	}

	mailbox, err := h.resolver.Mailbox(c)
	if err != nil {
		return err
	}

	logger.Info("Fetching %d recent emails", maxResults)
	emails, err := h.emails.RecentWithSummaries(c.Context(), mailbox, maxResults)
	if err != nil {
		return err
	}

	return c.JSON(fiber.Map{"emails": emails})
}

// Send sends an email.
func (h *EmailHandler) Send(c *fiber.Ctx) error {
	var req domain.SendRequest
	if err := c.BodyParser(&req); err != nil {
		return apperr.BadRequest("Invalid request body")
	}

	mailbox, err := h.resolver.Mailbox(c)
	if err != nil {
		return err
	}

	logger.Info("Sending email to %s", req.To)
	result, err := h.emails.Send(c.Context(), mailbox, &req)
	if err != nil {
		return err
	}

	return c.JSON(fiber.Map{
		"success":    true,
		"message_id": result.MessageID,
		"thread_id":  result.ThreadID,
	})
}

type deleteRequest struct {
	MessageID string `json:"message_id"`
}

// Delete permanently deletes an email. This is the explicit commit the chat
// confirm_delete envelope points the client at.
func (h *EmailHandler) Delete(c *fiber.Ctx) error {
	var req deleteRequest
	if err := c.BodyParser(&req); err != nil {
		return apperr.BadRequest("Invalid request body")
	}

	mailbox, err := h.resolver.Mailbox(c)
	if err != nil {
		return err
	}

	if err := h.emails.Delete(c.Context(), mailbox, req.MessageID); err != nil {
		return err
	}

	return c.JSON(fiber.Map{
		"success": true,
		"message": "Email deleted successfully",
	})
}

type generateReplyRequest struct {
	EmailID     string `json:"email_id"`
	UserContext string `json:"user_context"`
}

// GenerateReply drafts a reply for a specific email.
func (h *EmailHandler) GenerateReply(c *fiber.Ctx) error {
	var req generateReplyRequest
	if err := c.BodyParser(&req); err != nil {
		return apperr.BadRequest("Invalid request body")
	}

	mailbox, err := h.resolver.Mailbox(c)
	if err != nil {
		return err
	}

	logger.Info("Generating reply for email: %s", req.EmailID)
	reply, target, err := h.emails.GenerateReply(c.Context(), mailbox, req.EmailID, req.UserContext)
	if err != nil {
		return err
	}

	return c.JSON(fiber.Map{
		"reply":          reply,
		"original_email": target.Stub(),
	})
}

// FindBySender returns the latest email from a sender, summarized.
func (h *EmailHandler) FindBySender(c *fiber.Ctx) error {
	sender := c.Query("sender_email")

	mailbox, err := h.resolver.Mailbox(c)
	if err != nil {
		return err
	}

	logger.Info("Finding email from sender: %s", sender)
	found, err := h.emails.FindBySender(c.Context(), mailbox, sender)
	if err != nil {
		return err
	}

	return c.JSON(fiber.Map{"email": found})
}

// FindBySubject returns the latest email matching a subject keyword,
// summarized.
func (h *EmailHandler) FindBySubject(c *fiber.Ctx) error {
	keyword := c.Query("subject_keyword")

	mailbox, err := h.resolver.Mailbox(c)
	if err != nil {
		return err
	}

	logger.Info("Finding email with subject keyword: %s", keyword)
	found, err := h.emails.FindBySubject(c.Context(), mailbox, keyword)
	if err != nil {
		return err
	}

	return c.JSON(fiber.Map{"email": found})
}

// GroupedSummary returns a categorized triage digest of the recent inbox.
func (h *EmailHandler) GroupedSummary(c *fiber.Ctx) error {
	mailbox, err := h.resolver.Mailbox(c)
	if err != nil {
		return err
	}

	digest, count, err := h.emails.GroupedSummary(c.Context(), mailbox)
	if err != nil {
		return err
	}

	return c.JSON(fiber.Map{
		"summary":     digest,
		"email_count": count,
	})
}
