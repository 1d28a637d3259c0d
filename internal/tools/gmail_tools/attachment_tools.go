package gmail_tools

import (
	"context"
	"encoding/base64"
	"fmt"

	"github.com/mark3labs/mcp-go/mcp"
	mcpserver "github.com/mark3labs/mcp-go/server"

	"github.com/kiyora/google-mcp/internal/auth"
	"github.com/kiyora/google-mcp/internal/instrumentation"
	"github.com/kiyora/google-mcp/internal/server"
)

// registerAttachmentTools registers the attachment download tool.
func registerAttachmentTools(s *mcpserver.MCPServer, sc *server.ServerContext) {
	attachmentTool := mcp.NewTool("gmail_get_attachment",
		mcp.WithDescription("Download an email attachment; the content is returned base64-encoded"),
		sessionArg(),
		mcp.WithString("message_id",
			mcp.Required(),
			mcp.Description("Gmail message ID the attachment belongs to"),
		),
		mcp.WithString("attachment_id",
			mcp.Required(),
			mcp.Description("Attachment ID as reported by gmail_get_email"),
		),
	)
	addInstrumentedTool(s, sc, attachmentTool, instrumentation.OperationGet,
		func(ctx context.Context, request mcp.CallToolRequest) (*mcp.CallToolResult, error) {
			return handleGetAttachment(ctx, request, sc)
		})
}

func handleGetAttachment(ctx context.Context, request mcp.CallToolRequest, sc *server.ServerContext) (*mcp.CallToolResult, error) {
	args := request.GetArguments()

	messageID, ok := args["message_id"].(string)
	if !ok || messageID == "" {
		return mcp.NewToolResultError("'message_id' field is required"), nil
	}

	attachmentID, ok := args["attachment_id"].(string)
	if !ok || attachmentID == "" {
		return mcp.NewToolResultError("'attachment_id' field is required"), nil
	}

	client, result := gmailClientForSession(ctx, sc, request, auth.ScopeGmailReadonly)
	if result != nil {
		return result, nil
	}

	attachment, err := client.GetAttachment(messageID, attachmentID)
	if err != nil {
		return mcp.NewToolResultError(fmt.Sprintf("Failed to get attachment: %v", err)), nil
	}

	return jsonResult(struct {
		Size int64  `json:"size"`
		Data string `json:"data_base64"`
	}{
		Size: attachment.Size,
		Data: base64.StdEncoding.EncodeToString(attachment.Data),
	})
}
