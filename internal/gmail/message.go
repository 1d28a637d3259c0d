package gmail

import (
	"encoding/base64"
	"fmt"
	"strings"

	gmail "google.golang.org/api/gmail/v1"
)

// toMessageSummary converts a Gmail message to a MessageSummary.
func toMessageSummary(msg *gmail.Message) MessageSummary {
	summary := MessageSummary{
		ID:       msg.Id,
		ThreadID: msg.ThreadId,
		Snippet:  msg.Snippet,
		Date:     "Unknown date",
		From:     "Unknown sender",
		To:       "Unknown recipient",
		Subject:  "No subject",
		Labels:   msg.LabelIds,
	}

	if msg.Payload == nil {
		return summary
	}
	if v := headerValue(msg.Payload.Headers, "Date"); v != "" {
		summary.Date = v
	}
	if v := headerValue(msg.Payload.Headers, "From"); v != "" {
		summary.From = v
	}
	if v := headerValue(msg.Payload.Headers, "To"); v != "" {
		summary.To = v
	}
	if v := headerValue(msg.Payload.Headers, "Subject"); v != "" {
		summary.Subject = v
	}
	return summary
}

// headerValue returns the value of the named header, matched
// case-insensitively, or an empty string.
func headerValue(headers []*gmail.MessagePartHeader, name string) string {
	for _, h := range headers {
		if strings.EqualFold(h.Name, name) {
			return h.Value
		}
	}
	return ""
}

// extractBody walks the message payload and returns the decoded body text.
// A text/plain part is preferred; text/html is the fallback when no plain
// part exists.
func extractBody(payload *gmail.MessagePart) string {
	if body := findBody(payload, "text/plain"); body != "" {
		return body
	}
	return findBody(payload, "text/html")
}

// findBody returns the first decoded part of the given MIME type.
func findBody(part *gmail.MessagePart, mimeType string) string {
	if part == nil {
		return ""
	}
	if part.MimeType == mimeType && part.Body != nil && part.Body.Data != "" {
		return decodeBody(part.Body.Data)
	}
	for _, p := range part.Parts {
		if body := findBody(p, mimeType); body != "" {
			return body
		}
	}
	return ""
}

// decodeBody decodes base64url body data, tolerating missing padding.
func decodeBody(data string) string {
	decoded, err := base64.URLEncoding.DecodeString(data)
	if err != nil {
		decoded, err = base64.RawURLEncoding.DecodeString(data)
		if err != nil {
			return ""
		}
	}
	return string(decoded)
}

// collectAttachments returns the attachment metadata of all parts carrying
// an attachment ID.
func collectAttachments(part *gmail.MessagePart) []AttachmentInfo {
	var attachments []AttachmentInfo
	walkParts(part, func(p *gmail.MessagePart) {
		if p.Body != nil && p.Body.AttachmentId != "" {
			attachments = append(attachments, AttachmentInfo{
				ID:       p.Body.AttachmentId,
				Filename: p.Filename,
				MimeType: p.MimeType,
				Size:     p.Body.Size,
			})
		}
	})
	return attachments
}

// walkParts visits the part and all nested parts depth-first.
func walkParts(part *gmail.MessagePart, fn func(*gmail.MessagePart)) {
	if part == nil {
		return
	}
	fn(part)
	for _, p := range part.Parts {
		walkParts(p, fn)
	}
}

// buildRawMessage assembles an RFC 5322 plain-text message and encodes it
// the way the Gmail API expects raw payloads (base64url).
func buildRawMessage(msg *EmailMessage) string {
	var b strings.Builder
	fmt.Fprintf(&b, "To: %s\r\n", msg.To)
	if len(msg.CC) > 0 {
		fmt.Fprintf(&b, "Cc: %s\r\n", strings.Join(msg.CC, ", "))
	}
	if len(msg.BCC) > 0 {
		fmt.Fprintf(&b, "Bcc: %s\r\n", strings.Join(msg.BCC, ", "))
	}
	fmt.Fprintf(&b, "Subject: %s\r\n", msg.Subject)
	b.WriteString("MIME-Version: 1.0\r\n")
	b.WriteString("Content-Type: text/plain; charset=\"UTF-8\"\r\n")
	b.WriteString("\r\n")
	b.WriteString(msg.Body)

	return base64.URLEncoding.EncodeToString([]byte(b.String()))
}
