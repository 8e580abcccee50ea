package domain

// Email is a mailbox message fetched per request. It is never persisted;
// every field except ID may be empty.
type Email struct {
	ID          string   `json:"id"`
	ThreadID    string   `json:"thread_id,omitempty"`
	SenderName  string   `json:"sender_name"`
	SenderEmail string   `json:"sender_email"` // always lower-cased for comparisons
	Subject     string   `json:"subject"`
	Body        string   `json:"body"`
	Date        string   `json:"date"` // provider-formatted, treated as opaque
	Snippet     string   `json:"snippet"`
	Labels      []string `json:"labels,omitempty"`
	AISummary   string   `json:"ai_summary,omitempty"`
}

// EmailStub identifies an email without carrying its body. Used in reply and
// delete-confirmation payloads.
type EmailStub struct {
	ID          string `json:"id"`
	SenderName  string `json:"sender_name"`
	SenderEmail string `json:"sender_email"`
	Subject     string `json:"subject"`
	ThreadID    string `json:"thread_id,omitempty"`
}

// Stub returns the identifying fields of an email.
func (e *Email) Stub() EmailStub {
	return EmailStub{
		ID:          e.ID,
		SenderName:  e.SenderName,
		SenderEmail: e.SenderEmail,
		Subject:     e.Subject,
		ThreadID:    e.ThreadID,
	}
}

// MailboxProfile holds the authenticated user's mailbox metadata.
type MailboxProfile struct {
	Email         string `json:"email"`
	MessagesTotal int64  `json:"messages_total"`
	ThreadsTotal  int64  `json:"threads_total"`
}

// SendRequest describes an outgoing email.
type SendRequest struct {
	To       string `json:"to"`
	Subject  string `json:"subject"`
	Body     string `json:"body"`
	ThreadID string `json:"thread_id,omitempty"`
}

// SendResult is returned after a successful send.
type SendResult struct {
	MessageID string `json:"message_id"`
	ThreadID  string `json:"thread_id,omitempty"`
}
