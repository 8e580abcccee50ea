package chat

import (
	"context"
	"fmt"
	"strings"
	"testing"

	"assistant_server/core/domain"
	"assistant_server/core/service/email"
)

func newTestDispatcher(llm *fakeLLM) *Dispatcher {
	return NewDispatcher(NewClassifier(llm), llm, email.NewService(llm, 5))
}

func TestDispatchKeywordFallbackRoutesAllBranches(t *testing.T) {
	// The classifier erroring out must not hide the four core verbs.
	llm := &fakeLLM{
		classifyFn: func(string, []*domain.Email) (*domain.ClassifiedCommand, error) {
			return nil, fmt.Errorf("model down")
		},
	}
	d := newTestDispatcher(llm)
	mailbox := &fakeMailbox{inbox: testEmails(5)}
	ctxEmails := testEmails(3)

	tests := []struct {
		message string
		action  domain.ResponseAction
	}{
		{"show me my emails", domain.ActionDisplayEmails},
		{"reply to sender1@example.com", domain.ActionDisplayReply},
		{"delete email number 2", domain.ActionConfirmDelete},
		{"give me a digest", domain.ActionDisplayDigest},
	}

	for _, tt := range tests {
		t.Run(tt.message, func(t *testing.T) {
			// The classifier degraded to unknown, so parameters are empty;
			// reply and delete need the keyword-only path to still resolve.
			env, err := d.Dispatch(context.Background(), mailbox, tt.message, ctxEmails)
			if err != nil {
				t.Fatalf("Dispatch failed: %v", err)
			}
			if tt.action == domain.ActionDisplayReply || tt.action == domain.ActionConfirmDelete {
				// Without extracted parameters these branches miss their
				// target and emit the guidance envelope instead.
				if env.Action != domain.ActionError {
					t.Errorf("expected error envelope without parameters, got %s", env.Action)
				}
				return
			}
			if env.Action != tt.action {
				t.Errorf("expected action %s, got %s", tt.action, env.Action)
			}
		})
	}
}

func TestDispatchKeywordWithClassifierParameters(t *testing.T) {
	// Classifier unknown but parameters empty vs. keyword fallback with
	// index extraction: when the classifier does return parameters, the
	// keyword-routed branch uses them.
	llm := &fakeLLM{
		classifyFn: classifyAs(domain.IntentDelete, domain.CommandParameters{EmailIndex: "2"}),
	}
	d := newTestDispatcher(llm)
	mailbox := &fakeMailbox{inbox: testEmails(5)}
	ctxEmails := testEmails(3)

	env, err := d.Dispatch(context.Background(), mailbox, "get rid of the second one", ctxEmails)
	if err != nil {
		t.Fatalf("Dispatch failed: %v", err)
	}
	if env.Action != domain.ActionConfirmDelete {
		t.Fatalf("expected confirm_delete, got %s", env.Action)
	}
	data := env.Data.(domain.DeleteConfirmData)
	if data.Email.ID != "msg-2" {
		t.Errorf("expected msg-2 selected, got %s", data.Email.ID)
	}
}

func TestDispatchBranchPriorityReadWins(t *testing.T) {
	// "show" and "delete" both present: read is evaluated first.
	llm := &fakeLLM{}
	d := newTestDispatcher(llm)
	mailbox := &fakeMailbox{inbox: testEmails(5)}

	env, err := d.Dispatch(context.Background(), mailbox, "show me the email i should delete", nil)
	if err != nil {
		t.Fatalf("Dispatch failed: %v", err)
	}
	if env.Action != domain.ActionDisplayEmails {
		t.Errorf("expected display_emails from read branch, got %s", env.Action)
	}
	if len(mailbox.deleteCalls) != 0 {
		t.Errorf("delete must not be called, got %v", mailbox.deleteCalls)
	}
}

func TestDispatchReadCountHeuristic(t *testing.T) {
	llm := &fakeLLM{}
	d := newTestDispatcher(llm)

	tests := []struct {
		message string
		want    int
	}{
		{"show me my emails", 5},
		{"show me all my emails", 20},
		{"fetch many emails", 20},
	}

	for _, tt := range tests {
		mailbox := &fakeMailbox{inbox: testEmails(25)}
		if _, err := d.Dispatch(context.Background(), mailbox, tt.message, nil); err != nil {
			t.Fatalf("Dispatch(%q) failed: %v", tt.message, err)
		}
		if len(mailbox.listCalls) != 1 || mailbox.listCalls[0] != tt.want {
			t.Errorf("Dispatch(%q) requested %v, want [%d]", tt.message, mailbox.listCalls, tt.want)
		}
	}
}

func TestDispatchReadSummaryFailureIsIsolated(t *testing.T) {
	llm := &fakeLLM{summaryErr: true}
	d := newTestDispatcher(llm)
	mailbox := &fakeMailbox{inbox: testEmails(5)}

	env, err := d.Dispatch(context.Background(), mailbox, "show me my emails", nil)
	if err != nil {
		t.Fatalf("Dispatch failed: %v", err)
	}

	data := env.Data.(domain.EmailListData)
	if len(data.Emails) != 5 {
		t.Fatalf("expected 5 emails despite summary failures, got %d", len(data.Emails))
	}
	for _, e := range data.Emails {
		if e.AISummary != "Unable to generate summary." {
			t.Errorf("expected placeholder summary, got %q", e.AISummary)
		}
	}
	if !strings.Contains(env.Message, "5 recent emails") {
		t.Errorf("message should report count, got %q", env.Message)
	}
}

func TestDispatchReadPreservesOrder(t *testing.T) {
	llm := &fakeLLM{}
	d := newTestDispatcher(llm)
	mailbox := &fakeMailbox{inbox: testEmails(5)}

	env, err := d.Dispatch(context.Background(), mailbox, "fetch my emails", nil)
	if err != nil {
		t.Fatalf("Dispatch failed: %v", err)
	}

	data := env.Data.(domain.EmailListData)
	for i, e := range data.Emails {
		want := fmt.Sprintf("msg-%d", i+1)
		if e.ID != want {
			t.Errorf("position %d: expected %s, got %s", i, want, e.ID)
		}
		if e.AISummary == "" {
			t.Errorf("position %d: missing summary", i)
		}
	}
}

func TestDispatchReplyIndexResolution(t *testing.T) {
	llm := &fakeLLM{
		classifyFn: classifyAs(domain.IntentReply, domain.CommandParameters{EmailIndex: "2"}),
	}
	d := newTestDispatcher(llm)
	mailbox := &fakeMailbox{inbox: testEmails(5)}
	ctxEmails := testEmails(3)

	env, err := d.Dispatch(context.Background(), mailbox, "answer the second email", ctxEmails)
	if err != nil {
		t.Fatalf("Dispatch failed: %v", err)
	}
	if env.Action != domain.ActionDisplayReply {
		t.Fatalf("expected display_reply, got %s", env.Action)
	}
	data := env.Data.(domain.ReplyData)
	if data.OriginalEmail.ID != "msg-2" {
		t.Errorf("email_index=2 must select context[1], got %s", data.OriginalEmail.ID)
	}
	if data.OriginalEmail.ThreadID != "thread-2" {
		t.Errorf("reply stub must carry thread id, got %q", data.OriginalEmail.ThreadID)
	}
}

func TestDispatchReplyIndexWinsOverSender(t *testing.T) {
	// Context = [A,B,C], index "1", sender that matches B: index wins.
	llm := &fakeLLM{
		classifyFn: classifyAs(domain.IntentReply, domain.CommandParameters{
			EmailIndex:  "1",
			SenderEmail: "sender2@example.com",
		}),
	}
	d := newTestDispatcher(llm)
	mailbox := &fakeMailbox{inbox: testEmails(5)}
	ctxEmails := testEmails(3)

	env, err := d.Dispatch(context.Background(), mailbox, "answer that one", ctxEmails)
	if err != nil {
		t.Fatalf("Dispatch failed: %v", err)
	}
	data := env.Data.(domain.ReplyData)
	if data.OriginalEmail.ID != "msg-1" {
		t.Errorf("index must win over sender, got %s", data.OriginalEmail.ID)
	}
	if len(mailbox.senderCalls) != 0 {
		t.Errorf("provider search must not run when index resolves, got %v", mailbox.senderCalls)
	}
}

func TestDispatchReplyOutOfRangeIndexFallsThrough(t *testing.T) {
	llm := &fakeLLM{
		classifyFn: classifyAs(domain.IntentReply, domain.CommandParameters{
			EmailIndex:  "5",
			SenderEmail: "sender4@example.com",
		}),
	}
	d := newTestDispatcher(llm)
	mailbox := &fakeMailbox{inbox: testEmails(5)}
	ctxEmails := testEmails(3)

	env, err := d.Dispatch(context.Background(), mailbox, "answer number five", ctxEmails)
	if err != nil {
		t.Fatalf("Dispatch failed: %v", err)
	}
	if env.Action != domain.ActionDisplayReply {
		t.Fatalf("expected display_reply via provider fallback, got %s", env.Action)
	}
	if len(mailbox.senderCalls) != 1 {
		t.Fatalf("expected one provider sender search, got %v", mailbox.senderCalls)
	}
	data := env.Data.(domain.ReplyData)
	if data.OriginalEmail.ID != "msg-4" {
		t.Errorf("expected provider match msg-4, got %s", data.OriginalEmail.ID)
	}
}

func TestDispatchReplyContextSenderSubstringMatch(t *testing.T) {
	llm := &fakeLLM{
		classifyFn: classifyAs(domain.IntentReply, domain.CommandParameters{
			SenderEmail: "Sender2",
		}),
	}
	d := newTestDispatcher(llm)
	mailbox := &fakeMailbox{inbox: testEmails(5)}
	ctxEmails := testEmails(3)

	env, err := d.Dispatch(context.Background(), mailbox, "answer that sender", ctxEmails)
	if err != nil {
		t.Fatalf("Dispatch failed: %v", err)
	}
	data := env.Data.(domain.ReplyData)
	if data.OriginalEmail.ID != "msg-2" {
		t.Errorf("case-insensitive substring sender match failed, got %s", data.OriginalEmail.ID)
	}
}

func TestDispatchReplyResolutionMiss(t *testing.T) {
	llm := &fakeLLM{
		classifyFn: classifyAs(domain.IntentReply, domain.CommandParameters{}),
	}
	d := newTestDispatcher(llm)
	mailbox := &fakeMailbox{inbox: testEmails(5)}

	env, err := d.Dispatch(context.Background(), mailbox, "answer it please", nil)
	if err != nil {
		t.Fatalf("resolution miss must not be an error: %v", err)
	}
	if env.Action != domain.ActionError {
		t.Fatalf("expected error envelope, got %s", env.Action)
	}
	if !strings.Contains(env.Message, "fetching your recent emails first") {
		t.Errorf("miss message should guide the user, got %q", env.Message)
	}
}

func TestDispatchReplyModelFailureSubstituted(t *testing.T) {
	// A transient reply-draft failure must not abort the branch: the target
	// was already located, so the envelope still displays it with the fixed
	// fallback draft.
	llm := &fakeLLM{
		classifyFn: classifyAs(domain.IntentReply, domain.CommandParameters{EmailIndex: "2"}),
		replyErr:   true,
	}
	d := newTestDispatcher(llm)
	mailbox := &fakeMailbox{inbox: testEmails(5)}
	ctxEmails := testEmails(3)

	env, err := d.Dispatch(context.Background(), mailbox, "answer the second email", ctxEmails)
	if err != nil {
		t.Fatalf("reply model failure must not abort the branch: %v", err)
	}
	if env.Action != domain.ActionDisplayReply {
		t.Fatalf("expected display_reply, got %s", env.Action)
	}
	data := env.Data.(domain.ReplyData)
	if data.Reply != "I apologize, but I'm having trouble generating a reply right now. Please try again later." {
		t.Errorf("expected reply placeholder, got %q", data.Reply)
	}
	if data.OriginalEmail.ID != "msg-2" {
		t.Errorf("located target must still be attached, got %s", data.OriginalEmail.ID)
	}
}

func TestDispatchReadMixedSummaryFailure(t *testing.T) {
	// Exactly one of five summaries failing: the other four keep their real
	// summaries.
	llm := &fakeLLM{summaryFailFor: map[string]bool{"Subject 2": true}}
	d := newTestDispatcher(llm)
	mailbox := &fakeMailbox{inbox: testEmails(5)}

	env, err := d.Dispatch(context.Background(), mailbox, "show me my emails", nil)
	if err != nil {
		t.Fatalf("Dispatch failed: %v", err)
	}

	data := env.Data.(domain.EmailListData)
	if len(data.Emails) != 5 {
		t.Fatalf("expected 5 emails, got %d", len(data.Emails))
	}
	for i, e := range data.Emails {
		want := "summary of " + e.Subject
		if i == 1 {
			want = "Unable to generate summary."
		}
		if e.AISummary != want {
			t.Errorf("position %d: summary = %q, want %q", i, e.AISummary, want)
		}
	}
}

func TestDispatchDeleteNeverCallsProviderDelete(t *testing.T) {
	llm := &fakeLLM{
		classifyFn: classifyAs(domain.IntentDelete, domain.CommandParameters{
			SenderEmail: "sender1@example.com",
		}),
	}
	d := newTestDispatcher(llm)
	mailbox := &fakeMailbox{inbox: testEmails(5)}
	ctxEmails := testEmails(3)

	env, err := d.Dispatch(context.Background(), mailbox, "delete the email from sender1@example.com", ctxEmails)
	if err != nil {
		t.Fatalf("Dispatch failed: %v", err)
	}
	if env.Action != domain.ActionConfirmDelete {
		t.Fatalf("expected confirm_delete, got %s", env.Action)
	}
	if len(mailbox.deleteCalls) != 0 {
		t.Fatalf("chat branch must never delete, got calls: %v", mailbox.deleteCalls)
	}
	data := env.Data.(domain.DeleteConfirmData)
	if data.Email.ID != "msg-1" {
		t.Errorf("expected msg-1, got %s", data.Email.ID)
	}
	if !strings.Contains(env.Message, "Are you sure you want to delete it?") {
		t.Errorf("confirmation prompt missing, got %q", env.Message)
	}
}

func TestDispatchDeleteSubjectKeywordFromContext(t *testing.T) {
	llm := &fakeLLM{
		classifyFn: classifyAs(domain.IntentDelete, domain.CommandParameters{
			SubjectKeyword: "subject 3",
		}),
	}
	d := newTestDispatcher(llm)
	mailbox := &fakeMailbox{inbox: testEmails(5)}
	ctxEmails := testEmails(3)

	env, err := d.Dispatch(context.Background(), mailbox, "trash the one about that", ctxEmails)
	if err != nil {
		t.Fatalf("Dispatch failed: %v", err)
	}
	data := env.Data.(domain.DeleteConfirmData)
	if data.Email.ID != "msg-3" {
		t.Errorf("case-insensitive subject match failed, got %s", data.Email.ID)
	}
	if len(mailbox.subjectCalls) != 0 {
		t.Errorf("provider search must not run on context hit, got %v", mailbox.subjectCalls)
	}
}

func TestDispatchDeleteProviderFallbackPrefersSender(t *testing.T) {
	// Both sender and subject extracted, nothing in context: only the
	// sender search runs.
	llm := &fakeLLM{
		classifyFn: classifyAs(domain.IntentDelete, domain.CommandParameters{
			SenderEmail:    "sender4@example.com",
			SubjectKeyword: "Subject 4",
		}),
	}
	d := newTestDispatcher(llm)
	mailbox := &fakeMailbox{inbox: testEmails(5)}

	env, err := d.Dispatch(context.Background(), mailbox, "trash it", nil)
	if err != nil {
		t.Fatalf("Dispatch failed: %v", err)
	}
	if env.Action != domain.ActionConfirmDelete {
		t.Fatalf("expected confirm_delete, got %s", env.Action)
	}
	if len(mailbox.senderCalls) != 1 || len(mailbox.subjectCalls) != 0 {
		t.Errorf("expected sender-only provider search, sender=%v subject=%v",
			mailbox.senderCalls, mailbox.subjectCalls)
	}
}

func TestDispatchDeleteProviderSubjectFallback(t *testing.T) {
	llm := &fakeLLM{
		classifyFn: classifyAs(domain.IntentDelete, domain.CommandParameters{
			SubjectKeyword: "Subject 2",
		}),
	}
	d := newTestDispatcher(llm)
	mailbox := &fakeMailbox{inbox: testEmails(5)}

	env, err := d.Dispatch(context.Background(), mailbox, "trash it", nil)
	if err != nil {
		t.Fatalf("Dispatch failed: %v", err)
	}
	data := env.Data.(domain.DeleteConfirmData)
	if data.Email.ID != "msg-2" {
		t.Errorf("expected provider subject match msg-2, got %s", data.Email.ID)
	}
}

func TestDispatchDeleteResolutionMiss(t *testing.T) {
	llm := &fakeLLM{
		classifyFn: classifyAs(domain.IntentDelete, domain.CommandParameters{}),
	}
	d := newTestDispatcher(llm)
	mailbox := &fakeMailbox{inbox: testEmails(5)}

	env, err := d.Dispatch(context.Background(), mailbox, "get rid of it", nil)
	if err != nil {
		t.Fatalf("Dispatch failed: %v", err)
	}
	if env.Action != domain.ActionError {
		t.Errorf("expected error envelope, got %s", env.Action)
	}
}

func TestDispatchDigestAlwaysFetchesTwenty(t *testing.T) {
	llm := &fakeLLM{}
	d := newTestDispatcher(llm)

	for _, message := range []string{"give me a short digest", "full digest please"} {
		mailbox := &fakeMailbox{inbox: testEmails(25)}
		env, err := d.Dispatch(context.Background(), mailbox, message, nil)
		if err != nil {
			t.Fatalf("Dispatch(%q) failed: %v", message, err)
		}
		if len(mailbox.listCalls) != 1 || mailbox.listCalls[0] != 20 {
			t.Errorf("Dispatch(%q): expected one fetch of 20, got %v", message, mailbox.listCalls)
		}
		data := env.Data.(domain.DigestData)
		if data.EmailCount != 20 {
			t.Errorf("expected email_count 20, got %d", data.EmailCount)
		}
	}
}

func TestDispatchDigestModelFailureSubstituted(t *testing.T) {
	llm := &fakeLLM{digestErr: true}
	d := newTestDispatcher(llm)
	mailbox := &fakeMailbox{inbox: testEmails(25)}

	env, err := d.Dispatch(context.Background(), mailbox, "daily digest", nil)
	if err != nil {
		t.Fatalf("digest model failure must not fail the branch: %v", err)
	}
	if env.Action != domain.ActionDisplayDigest {
		t.Fatalf("expected display_digest, got %s", env.Action)
	}
	data := env.Data.(domain.DigestData)
	if data.Digest != "Unable to generate digest at this time." {
		t.Errorf("expected digest placeholder, got %q", data.Digest)
	}
}

func TestDispatchUnknownEmitsInfo(t *testing.T) {
	llm := &fakeLLM{}
	d := newTestDispatcher(llm)
	mailbox := &fakeMailbox{inbox: testEmails(5)}

	env, err := d.Dispatch(context.Background(), mailbox, "what's the weather like", nil)
	if err != nil {
		t.Fatalf("Dispatch failed: %v", err)
	}
	if env.Action != domain.ActionInfo {
		t.Fatalf("expected info envelope, got %s", env.Action)
	}
	if !strings.Contains(env.Message, "Read emails") {
		t.Errorf("info message should list supported commands, got %q", env.Message)
	}
	if len(mailbox.listCalls)+len(mailbox.deleteCalls)+len(mailbox.senderCalls) != 0 {
		t.Error("unknown input must not touch the mailbox")
	}
}

func TestDispatchListFailureSurfaced(t *testing.T) {
	llm := &fakeLLM{}
	d := newTestDispatcher(llm)
	mailbox := &fakeMailbox{listErr: fmt.Errorf("gmail unreachable")}

	if _, err := d.Dispatch(context.Background(), mailbox, "show my emails", nil); err == nil {
		t.Error("primary mailbox failure must surface as an error")
	}
}
