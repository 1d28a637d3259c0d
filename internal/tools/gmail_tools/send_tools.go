package gmail_tools

import (
	"context"
	"fmt"
	"strings"

	"github.com/mark3labs/mcp-go/mcp"
	mcpserver "github.com/mark3labs/mcp-go/server"

	"github.com/kiyora/google-mcp/internal/auth"
	"github.com/kiyora/google-mcp/internal/gmail"
	"github.com/kiyora/google-mcp/internal/instrumentation"
	"github.com/kiyora/google-mcp/internal/server"
)

// registerSendTools registers the email sending tool. Only called when write
// operations are enabled.
func registerSendTools(s *mcpserver.MCPServer, sc *server.ServerContext) {
	sendTool := mcp.NewTool("gmail_send_email",
		mcp.WithDescription("Send a plain-text email through Gmail"),
		sessionArg(),
		mcp.WithString("to",
			mcp.Required(),
			mcp.Description("Recipient email address(es), comma-separated for multiple recipients"),
		),
		mcp.WithString("subject",
			mcp.Required(),
			mcp.Description("Email subject"),
		),
		mcp.WithString("body",
			mcp.Required(),
			mcp.Description("Email body content"),
		),
		mcp.WithString("cc",
			mcp.Description("CC email address(es), comma-separated for multiple recipients"),
		),
		mcp.WithString("bcc",
			mcp.Description("BCC email address(es), comma-separated for multiple recipients"),
		),
	)
	addInstrumentedTool(s, sc, sendTool, instrumentation.OperationSend,
		func(ctx context.Context, request mcp.CallToolRequest) (*mcp.CallToolResult, error) {
			return handleSendEmail(ctx, request, sc)
		})
}

func handleSendEmail(ctx context.Context, request mcp.CallToolRequest, sc *server.ServerContext) (*mcp.CallToolResult, error) {
	args := request.GetArguments()

	to, ok := args["to"].(string)
	if !ok || to == "" {
		return mcp.NewToolResultError("'to' field is required"), nil
	}

	subject, ok := args["subject"].(string)
	if !ok || subject == "" {
		return mcp.NewToolResultError("'subject' field is required"), nil
	}

	body, ok := args["body"].(string)
	if !ok || body == "" {
		return mcp.NewToolResultError("'body' field is required"), nil
	}

	cc := ""
	if ccVal, ok := args["cc"].(string); ok {
		cc = ccVal
	}
	bcc := ""
	if bccVal, ok := args["bcc"].(string); ok {
		bcc = bccVal
	}

	// Sending requires its own scope beyond the readonly grant; an
	// already-authorized read session escalates through the incremental
	// flow here.
	client, result := gmailClientForSession(ctx, sc, request, auth.ScopeGmailSend)
	if result != nil {
		return result, nil
	}

	msg := &gmail.EmailMessage{
		To:      to,
		CC:      splitEmailAddresses(cc),
		BCC:     splitEmailAddresses(bcc),
		Subject: subject,
		Body:    body,
	}

	sent, err := client.SendEmail(msg)
	if err != nil {
		return mcp.NewToolResultError(fmt.Sprintf("Failed to send email: %v", err)), nil
	}

	return mcp.NewToolResultText(fmt.Sprintf(
		"Email sent successfully!\nMessage ID: %s\nThread ID: %s\nTo: %s\nSubject: %s",
		sent.MessageID, sent.ThreadID, to, subject)), nil
}

// splitEmailAddresses splits a comma-separated string of email addresses.
func splitEmailAddresses(addresses string) []string {
	if addresses == "" {
		return nil
	}

	parts := strings.Split(addresses, ",")
	result := make([]string, 0, len(parts))
	for _, addr := range parts {
		trimmed := strings.TrimSpace(addr)
		if trimmed != "" {
			result = append(result, trimmed)
		}
	}
	return result
}
