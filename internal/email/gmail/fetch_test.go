package gmail

import (
	"encoding/base64"
	"testing"
	"time"

	"google.golang.org/api/gmail/v1"

	"github.com/triagekit/emailtriage/internal/email"
	"github.com/triagekit/emailtriage/internal/model"
)

func textPart(text string) *gmail.MessagePart {
	return &gmail.MessagePart{
		MimeType: "text/plain",
		Body:     &gmail.MessagePartBody{Data: base64.URLEncoding.EncodeToString([]byte(text))},
	}
}

func TestConvertMessageMapsHeadersAndBody(t *testing.T) {
	msg := &gmail.Message{
		Id:       "m1",
		ThreadId: "t1",
		LabelIds: []string{"INBOX", "IMPORTANT"},
		Payload: &gmail.MessagePart{
			Headers: []*gmail.MessagePartHeader{
				{Name: "Subject", Value: "Interview scheduled"},
				{Name: "From", Value: "Jane Recruiter <jane@acme.example>"},
				{Name: "To", Value: "me@example.com"},
				{Name: "Date", Value: "Mon, 2 Jan 2023 15:04:05 -0700"},
			},
			Parts: []*gmail.MessagePart{textPart("Please confirm your interview time.")},
		},
	}

	got := convertMessage(msg)

	if got.ID != "m1" || got.ConversationID != "t1" {
		t.Errorf("ID/ConversationID = %q/%q", got.ID, got.ConversationID)
	}
	if got.Subject != "Interview scheduled" {
		t.Errorf("Subject = %q", got.Subject)
	}
	if got.Sender != "Jane Recruiter <jane@acme.example>" {
		t.Errorf("Sender = %q", got.Sender)
	}
	if len(got.Recipients) != 1 || got.Recipients[0] != "me@example.com" {
		t.Errorf("Recipients = %v", got.Recipients)
	}
	if got.Importance != model.ImportanceHigh {
		t.Errorf("Importance = %v, want High", got.Importance)
	}
	if got.Folder != "inbox" {
		t.Errorf("Folder = %q, want inbox", got.Folder)
	}
	if got.BodyText != "Please confirm your interview time." {
		t.Errorf("BodyText = %q", got.BodyText)
	}
}

func TestConvertMessageFallsBackToInternalDate(t *testing.T) {
	msg := &gmail.Message{
		Id:           "m2",
		InternalDate: 1700000000000,
		Payload:      &gmail.MessagePart{},
	}

	got := convertMessage(msg)
	if got.ReceivedAt.IsZero() {
		t.Error("expected ReceivedAt to fall back to InternalDate")
	}
}

func TestHasAttachmentsDetectsFilename(t *testing.T) {
	part := &gmail.MessagePart{
		Parts: []*gmail.MessagePart{
			{Filename: "resume.pdf"},
		},
	}
	if !hasAttachments(part) {
		t.Error("expected hasAttachments() to detect nested filename")
	}
}

func TestBuildQueryIncludesAfterAndCustomQuery(t *testing.T) {
	after := time.Date(2026, 1, 2, 0, 0, 0, 0, time.UTC)
	opts := email.FetchOptions{After: &after, Query: "label:unread"}
	q := buildQuery(opts)
	if q != "after:2026/01/02 label:unread" {
		t.Errorf("buildQuery() = %q", q)
	}
}
