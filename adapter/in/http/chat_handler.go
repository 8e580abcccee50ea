package http

import (
	"fmt"

	"github.com/gofiber/fiber/v2"

	"assistant_server/core/domain"
	"assistant_server/core/service/chat"
	"assistant_server/pkg/apperr"
)

// ChatHandler exposes the natural-language command endpoints.
type ChatHandler struct {
	dispatcher *chat.Dispatcher
	resolver   *MailboxResolver
	sessions   fiber.Handler
}

// NewChatHandler creates the handler.
func NewChatHandler(dispatcher *chat.Dispatcher, resolver *MailboxResolver, sessionAuth fiber.Handler) *ChatHandler {
	return &ChatHandler{dispatcher: dispatcher, resolver: resolver, sessions: sessionAuth}
}

// Register mounts the chat routes.
func (h *ChatHandler) Register(app fiber.Router) {
	grp := app.Group("/chat", h.sessions)
	grp.Post("/message", h.Message)
	grp.Get("/greeting", h.Greeting)
}

type chatRequest struct {
	Message      string          `json:"message"`
	EmailContext []*domain.Email `json:"email_context"`
}

// Message interprets one chat instruction and returns the action envelope.
// The client owns the conversation context and resends it each turn.
func (h *ChatHandler) Message(c *fiber.Ctx) error {
	var req chatRequest
	if err := c.BodyParser(&req); err != nil {
		return apperr.BadRequest("Invalid request body")
	}
	if req.Message == "" {
		return apperr.MissingField("message")
	}

	mailbox, err := h.resolver.Mailbox(c)
	if err != nil {
		return err
	}

	envelope, err := h.dispatcher.Dispatch(c.Context(), mailbox, req.Message, req.EmailContext)
	if err != nil {
		return err
	}

	return c.JSON(envelope)
}

// Greeting returns the assistant's personalized opening message.
func (h *ChatHandler) Greeting(c *fiber.Ctx) error {
	sess, err := CurrentSession(c)
	if err != nil {
		return err
	}

	name := sess.User.Name
	if name == "" {
		name = "there"
	}

	greeting := fmt.Sprintf(`Hello %s! 👋

I'm your AI email assistant. I can help you:
• Read and summarize your recent emails
• Generate smart, context-aware replies
• Delete specific emails based on your instructions

Just tell me what you'd like to do in natural language. For example:
- "Show me my last 5 emails"
- "Reply to the latest email from John"
- "Delete the email about invoices"

How can I help you today?`, name)

	return c.JSON(fiber.Map{
		"greeting": greeting,
		"user": fiber.Map{
			"name":  name,
			"email": sess.User.Email,
		},
	})
}
