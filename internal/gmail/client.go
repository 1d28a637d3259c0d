package gmail

import (
	"context"
	"encoding/base64"
	"fmt"

	gmail "google.golang.org/api/gmail/v1"
	"google.golang.org/api/option"

	"github.com/kiyora/google-mcp/internal/auth"
)

// DefaultMaxResults is used when a listing call does not specify a limit.
const DefaultMaxResults = 10

// Client wraps the Gmail service for one resolved authorization session.
type Client struct {
	svc *gmail.Service
}

// NewClient creates a Gmail client from resolved session credentials.
func NewClient(ctx context.Context, creds *auth.Credentials) (*Client, error) {
	if creds == nil {
		return nil, fmt.Errorf("credentials cannot be nil")
	}

	svc, err := gmail.NewService(ctx, option.WithHTTPClient(creds.HTTPClient(ctx)))
	if err != nil {
		return nil, fmt.Errorf("failed to create Gmail service: %w", err)
	}

	return &Client{svc: svc}, nil
}

// ListMessages lists messages matching the given Gmail search query. An
// empty query lists the most recent messages. It returns summaries plus the
// provider's next-page token, if any.
func (c *Client) ListMessages(query string, maxResults int64, includeLabels bool) ([]MessageSummary, string, error) {
	if maxResults <= 0 {
		maxResults = DefaultMaxResults
	}

	call := c.svc.Users.Messages.List("me").MaxResults(maxResults)
	if query != "" {
		call = call.Q(query)
	}

	res, err := call.Do()
	if err != nil {
		return nil, "", fmt.Errorf("failed to list messages: %w", err)
	}

	summaries := make([]MessageSummary, 0, len(res.Messages))
	for _, m := range res.Messages {
		msg, err := c.svc.Users.Messages.Get("me", m.Id).
			Format("metadata").
			MetadataHeaders("From", "To", "Subject", "Date").
			Do()
		if err != nil {
			return nil, "", fmt.Errorf("failed to get message %s: %w", m.Id, err)
		}

		summary := toMessageSummary(msg)
		if !includeLabels {
			summary.Labels = nil
		}
		summaries = append(summaries, summary)
	}

	return summaries, res.NextPageToken, nil
}

// GetMessage retrieves a full message including its decoded plain-text body
// and attachment metadata.
func (c *Client) GetMessage(messageID string) (*MessageDetail, error) {
	msg, err := c.svc.Users.Messages.Get("me", messageID).Format("full").Do()
	if err != nil {
		return nil, fmt.Errorf("failed to get message %s: %w", messageID, err)
	}

	detail := &MessageDetail{
		MessageSummary: toMessageSummary(msg),
	}
	if msg.Payload != nil {
		detail.CC = headerValue(msg.Payload.Headers, "Cc")
		detail.Body = extractBody(msg.Payload)
		detail.Attachments = collectAttachments(msg.Payload)
	}

	return detail, nil
}

// GetLabels lists the labels of the mailbox.
func (c *Client) GetLabels() ([]Label, error) {
	res, err := c.svc.Users.Labels.List("me").Do()
	if err != nil {
		return nil, fmt.Errorf("failed to list labels: %w", err)
	}

	labels := make([]Label, 0, len(res.Labels))
	for _, l := range res.Labels {
		labels = append(labels, Label{
			ID:             l.Id,
			Name:           l.Name,
			Type:           l.Type,
			MessagesTotal:  l.MessagesTotal,
			MessagesUnread: l.MessagesUnread,
		})
	}
	return labels, nil
}

// GetAttachment downloads and decodes an attachment from a message.
func (c *Client) GetAttachment(messageID, attachmentID string) (*Attachment, error) {
	att, err := c.svc.Users.Messages.Attachments.Get("me", messageID, attachmentID).Do()
	if err != nil {
		return nil, fmt.Errorf("failed to get attachment %s: %w", attachmentID, err)
	}

	data, err := base64.URLEncoding.DecodeString(att.Data)
	if err != nil {
		// Some payloads come through without padding
		data, err = base64.RawURLEncoding.DecodeString(att.Data)
		if err != nil {
			return nil, fmt.Errorf("failed to decode attachment data: %w", err)
		}
	}

	return &Attachment{Data: data, Size: att.Size}, nil
}

// SendEmail sends a plain-text email from the authenticated user.
func (c *Client) SendEmail(msg *EmailMessage) (*SendResult, error) {
	if msg == nil || msg.To == "" {
		return nil, fmt.Errorf("recipient is required")
	}

	raw := buildRawMessage(msg)
	sent, err := c.svc.Users.Messages.Send("me", &gmail.Message{Raw: raw}).Do()
	if err != nil {
		return nil, fmt.Errorf("failed to send email: %w", err)
	}

	return &SendResult{MessageID: sent.Id, ThreadID: sent.ThreadId}, nil
}
