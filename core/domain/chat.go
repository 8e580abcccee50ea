package domain

// Intent is the action class a chat message maps to.
type Intent string

const (
	IntentRead    Intent = "read"
	IntentReply   Intent = "reply"
	IntentDelete  Intent = "delete"
	IntentDigest  Intent = "digest"
	IntentUnknown Intent = "unknown"
)

// Valid reports whether the intent is one of the four actionable intents.
func (i Intent) Valid() bool {
	switch i {
	case IntentRead, IntentReply, IntentDelete, IntentDigest:
		return true
	}
	return false
}

// Confidence is the classifier-reported certainty. Advisory only; it never
// gates branch execution.
type Confidence string

const (
	ConfidenceHigh   Confidence = "high"
	ConfidenceMedium Confidence = "medium"
	ConfidenceLow    Confidence = "low"
)

// CommandParameters are the bounded parameters the classifier may extract.
// EmailIndex is a digit string ("1".."5") referencing the context list.
type CommandParameters struct {
	SenderEmail    string `json:"sender_email,omitempty"`
	SubjectKeyword string `json:"subject_keyword,omitempty"`
	EmailIndex     string `json:"email_index,omitempty"`
	ActionDetails  string `json:"action_details,omitempty"`
}

// ClassifiedCommand is the classifier output for one chat turn. It is
// consumed exactly once by the dispatcher and never persisted.
type ClassifiedCommand struct {
	Intent     Intent            `json:"intent"`
	Parameters CommandParameters `json:"parameters"`
	Confidence Confidence        `json:"confidence"`
	Error      string            `json:"error,omitempty"`
}

// ResponseAction tells the client what to render.
type ResponseAction string

const (
	ActionDisplayEmails ResponseAction = "display_emails"
	ActionDisplayReply  ResponseAction = "display_reply"
	ActionConfirmDelete ResponseAction = "confirm_delete"
	ActionDisplayDigest ResponseAction = "display_digest"
	ActionError         ResponseAction = "error"
	ActionInfo          ResponseAction = "info"
)

// ResponseEnvelope is the sole contract between the dispatcher and its
// caller.
type ResponseEnvelope struct {
	Intent     Intent         `json:"intent"`
	Confidence Confidence     `json:"confidence"`
	Message    string         `json:"message"`
	Action     ResponseAction `json:"action"`
	Data       any            `json:"data,omitempty"`
}

// Envelope payloads, keyed to match the client contract.

type EmailListData struct {
	Emails []*Email `json:"emails"`
}

type ReplyData struct {
	Reply         string    `json:"reply"`
	OriginalEmail EmailStub `json:"original_email"`
}

type DeleteConfirmData struct {
	Email EmailStub `json:"email"`
}

type DigestData struct {
	Digest     string `json:"digest"`
	EmailCount int    `json:"email_count"`
}
