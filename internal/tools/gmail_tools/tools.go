package gmail_tools

import (
	"context"
	"fmt"

	"github.com/mark3labs/mcp-go/mcp"
	mcpserver "github.com/mark3labs/mcp-go/server"

	"github.com/kiyora/google-mcp/internal/gmail"
	"github.com/kiyora/google-mcp/internal/instrumentation"
	"github.com/kiyora/google-mcp/internal/server"
	"github.com/kiyora/google-mcp/internal/tools/common"
)

// RegisterGmailTools registers all Gmail tools with the MCP server.
// Write operations (sending email) are only registered when readOnly is
// false.
func RegisterGmailTools(s *mcpserver.MCPServer, sc *server.ServerContext, readOnly bool) error {
	registerReadTools(s, sc)
	registerAttachmentTools(s, sc)
	if !readOnly {
		registerSendTools(s, sc)
	}
	return nil
}

// gmailClientForSession resolves the session's credentials for the given
// scope and builds a Gmail client from them. The returned tool result is
// non-nil when the caller must authorize first.
func gmailClientForSession(ctx context.Context, sc *server.ServerContext, request mcp.CallToolRequest, scope string) (*gmail.Client, *mcp.CallToolResult) {
	sessionID, result := common.RequireSessionID(request.GetArguments())
	if result != nil {
		return nil, result
	}

	creds, result := common.ResolveCredentials(ctx, sc, sessionID, scope)
	if result != nil {
		return nil, result
	}

	client, err := gmail.NewClient(ctx, creds)
	if err != nil {
		return nil, mcp.NewToolResultError(fmt.Sprintf("Failed to create Gmail client: %v", err))
	}
	return client, nil
}

func addInstrumentedTool(s *mcpserver.MCPServer, sc *server.ServerContext, tool mcp.Tool, operation string,
	handler func(ctx context.Context, request mcp.CallToolRequest) (*mcp.CallToolResult, error),
) {
	s.AddTool(tool, common.InstrumentedToolHandlerWithService(
		tool.Name, instrumentation.ServiceGmail, operation, sc, handler))
}

// sessionArg is the mandatory session_id argument shared by every Gmail
// tool.
func sessionArg() mcp.ToolOption {
	return mcp.WithString("session_id",
		mcp.Required(),
		mcp.Description("Opaque session identifier that carries the OAuth authorization. Reuse the same value across calls."),
	)
}
