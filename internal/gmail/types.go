package gmail

// MessageSummary represents a simplified Gmail message for listing.
type MessageSummary struct {
	ID       string   `json:"id"`
	ThreadID string   `json:"threadId"`
	Snippet  string   `json:"snippet"`
	Date     string   `json:"date"`
	From     string   `json:"from"`
	To       string   `json:"to"`
	Subject  string   `json:"subject"`
	Labels   []string `json:"labels,omitempty"`
}

// MessageDetail represents a full Gmail message including its decoded body
// and attachment metadata.
type MessageDetail struct {
	MessageSummary
	CC          string           `json:"cc,omitempty"`
	Body        string           `json:"body,omitempty"`
	Attachments []AttachmentInfo `json:"attachments,omitempty"`
}

// AttachmentInfo describes an attachment without its content.
type AttachmentInfo struct {
	ID       string `json:"id"`
	Filename string `json:"filename"`
	MimeType string `json:"mimeType"`
	Size     int64  `json:"size"`
}

// Attachment holds downloaded attachment content.
type Attachment struct {
	Data []byte `json:"-"`
	Size int64  `json:"size"`
}

// Label represents a Gmail label.
type Label struct {
	ID             string `json:"id"`
	Name           string `json:"name"`
	Type           string `json:"type"`
	MessagesTotal  int64  `json:"messagesTotal"`
	MessagesUnread int64  `json:"messagesUnread"`
}

// EmailMessage represents an outgoing plain-text email.
type EmailMessage struct {
	To      string
	CC      []string
	BCC     []string
	Subject string
	Body    string
}

// SendResult identifies a sent message.
type SendResult struct {
	MessageID string `json:"message_id"`
	ThreadID  string `json:"thread_id"`
}
