package gmail

import (
	"encoding/base64"
	"strings"
	"testing"

	gmail "google.golang.org/api/gmail/v1"
)

func TestHeaderValue(t *testing.T) {
	headers := []*gmail.MessagePartHeader{
		{Name: "From", Value: "alice@example.com"},
		{Name: "subject", Value: "Hello"},
	}

	tests := []struct {
		name   string
		header string
		want   string
	}{
		{"exact case", "From", "alice@example.com"},
		{"case insensitive", "SUBJECT", "Hello"},
		{"missing header", "Cc", ""},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			if got := headerValue(headers, tt.header); got != tt.want {
				t.Errorf("headerValue(%q) = %q, want %q", tt.header, got, tt.want)
			}
		})
	}
}

func TestToMessageSummaryDefaults(t *testing.T) {
	summary := toMessageSummary(&gmail.Message{Id: "m1", ThreadId: "t1"})

	if summary.From != "Unknown sender" {
		t.Errorf("From = %q, want default", summary.From)
	}
	if summary.Subject != "No subject" {
		t.Errorf("Subject = %q, want default", summary.Subject)
	}
	if summary.Date != "Unknown date" {
		t.Errorf("Date = %q, want default", summary.Date)
	}
}

func TestToMessageSummaryHeaders(t *testing.T) {
	msg := &gmail.Message{
		Id:       "m1",
		ThreadId: "t1",
		Snippet:  "snippet text",
		LabelIds: []string{"INBOX", "UNREAD"},
		Payload: &gmail.MessagePart{
			Headers: []*gmail.MessagePartHeader{
				{Name: "From", Value: "alice@example.com"},
				{Name: "To", Value: "bob@example.com"},
				{Name: "Subject", Value: "Meeting"},
				{Name: "Date", Value: "Fri, 28 Aug 2026 10:00:00 +0000"},
			},
		},
	}

	summary := toMessageSummary(msg)
	if summary.From != "alice@example.com" || summary.To != "bob@example.com" {
		t.Errorf("from/to = %q/%q", summary.From, summary.To)
	}
	if summary.Subject != "Meeting" {
		t.Errorf("Subject = %q, want Meeting", summary.Subject)
	}
	if len(summary.Labels) != 2 {
		t.Errorf("Labels = %v, want 2 entries", summary.Labels)
	}
}

func TestExtractBodyPrefersPlainText(t *testing.T) {
	plain := base64.URLEncoding.EncodeToString([]byte("plain body"))
	html := base64.URLEncoding.EncodeToString([]byte("<p>html body</p>"))

	payload := &gmail.MessagePart{
		MimeType: "multipart/alternative",
		Parts: []*gmail.MessagePart{
			{MimeType: "text/html", Body: &gmail.MessagePartBody{Data: html}},
			{MimeType: "text/plain", Body: &gmail.MessagePartBody{Data: plain}},
		},
	}

	if got := extractBody(payload); got != "plain body" {
		t.Errorf("extractBody() = %q, want %q", got, "plain body")
	}
}

func TestExtractBodyFallsBackToHTML(t *testing.T) {
	html := base64.URLEncoding.EncodeToString([]byte("<p>html body</p>"))
	payload := &gmail.MessagePart{
		MimeType: "text/html",
		Body:     &gmail.MessagePartBody{Data: html},
	}

	if got := extractBody(payload); got != "<p>html body</p>" {
		t.Errorf("extractBody() = %q, want html fallback", got)
	}
}

func TestExtractBodyNestedParts(t *testing.T) {
	plain := base64.RawURLEncoding.EncodeToString([]byte("nested plain"))
	payload := &gmail.MessagePart{
		MimeType: "multipart/mixed",
		Parts: []*gmail.MessagePart{
			{
				MimeType: "multipart/alternative",
				Parts: []*gmail.MessagePart{
					{MimeType: "text/plain", Body: &gmail.MessagePartBody{Data: plain}},
				},
			},
		},
	}

	if got := extractBody(payload); got != "nested plain" {
		t.Errorf("extractBody() = %q, want %q", got, "nested plain")
	}
}

func TestCollectAttachments(t *testing.T) {
	payload := &gmail.MessagePart{
		MimeType: "multipart/mixed",
		Parts: []*gmail.MessagePart{
			{MimeType: "text/plain", Body: &gmail.MessagePartBody{Data: "aGk="}},
			{
				MimeType: "application/pdf",
				Filename: "report.pdf",
				Body:     &gmail.MessagePartBody{AttachmentId: "att-1", Size: 1024},
			},
			{
				MimeType: "multipart/related",
				Parts: []*gmail.MessagePart{
					{
						MimeType: "image/png",
						Filename: "logo.png",
						Body:     &gmail.MessagePartBody{AttachmentId: "att-2", Size: 256},
					},
				},
			},
		},
	}

	attachments := collectAttachments(payload)
	if len(attachments) != 2 {
		t.Fatalf("collectAttachments() returned %d entries, want 2", len(attachments))
	}
	if attachments[0].ID != "att-1" || attachments[0].Filename != "report.pdf" {
		t.Errorf("first attachment = %+v", attachments[0])
	}
	if attachments[1].ID != "att-2" || attachments[1].Size != 256 {
		t.Errorf("second attachment = %+v", attachments[1])
	}
}

func TestBuildRawMessage(t *testing.T) {
	raw := buildRawMessage(&EmailMessage{
		To:      "bob@example.com",
		CC:      []string{"carol@example.com", "dave@example.com"},
		Subject: "Status",
		Body:    "All green.",
	})

	decoded, err := base64.URLEncoding.DecodeString(raw)
	if err != nil {
		t.Fatalf("raw message is not base64url: %v", err)
	}
	text := string(decoded)

	for _, want := range []string{
		"To: bob@example.com\r\n",
		"Cc: carol@example.com, dave@example.com\r\n",
		"Subject: Status\r\n",
		"Content-Type: text/plain",
	} {
		if !strings.Contains(text, want) {
			t.Errorf("raw message missing %q:\n%s", want, text)
		}
	}
	if strings.Contains(text, "Bcc:") {
		t.Error("raw message contains Bcc header without recipients")
	}
	if !strings.HasSuffix(text, "\r\n\r\nAll green.") {
		t.Errorf("raw message body malformed:\n%s", text)
	}
}

func TestDecodeBodyToleratesMissingPadding(t *testing.T) {
	unpadded := base64.RawURLEncoding.EncodeToString([]byte("body"))
	if got := decodeBody(unpadded); got != "body" {
		t.Errorf("decodeBody(unpadded) = %q, want %q", got, "body")
	}
	if got := decodeBody("!!!"); got != "" {
		t.Errorf("decodeBody(invalid) = %q, want empty", got)
	}
}
