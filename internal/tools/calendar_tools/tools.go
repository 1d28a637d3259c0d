package calendar_tools

import (
	"context"
	"fmt"
	"time"

	"github.com/mark3labs/mcp-go/mcp"
	mcpserver "github.com/mark3labs/mcp-go/server"

	"github.com/kiyora/google-mcp/internal/auth"
	"github.com/kiyora/google-mcp/internal/calendar"
	"github.com/kiyora/google-mcp/internal/instrumentation"
	"github.com/kiyora/google-mcp/internal/server"
	"github.com/kiyora/google-mcp/internal/tools/common"
)

// RegisterCalendarTools registers all Calendar tools with the MCP server.
// Event mutation tools are only registered when readOnly is false.
func RegisterCalendarTools(s *mcpserver.MCPServer, sc *server.ServerContext, readOnly bool) error {
	registerEventReadTools(s, sc)
	if !readOnly {
		registerEventWriteTools(s, sc)
	}
	return nil
}

// calendarClientForSession resolves the session's credentials for the
// calendar scope and builds a Calendar client from them. The returned tool
// result is non-nil when the caller must authorize first.
func calendarClientForSession(ctx context.Context, sc *server.ServerContext, request mcp.CallToolRequest) (*calendar.Client, *mcp.CallToolResult) {
	sessionID, result := common.RequireSessionID(request.GetArguments())
	if result != nil {
		return nil, result
	}

	creds, result := common.ResolveCredentials(ctx, sc, sessionID, auth.ScopeCalendar)
	if result != nil {
		return nil, result
	}

	client, err := calendar.NewClient(ctx, creds)
	if err != nil {
		return nil, mcp.NewToolResultError(fmt.Sprintf("Failed to create Calendar client: %v", err))
	}
	return client, nil
}

func addInstrumentedTool(s *mcpserver.MCPServer, sc *server.ServerContext, tool mcp.Tool, operation string,
	handler func(ctx context.Context, request mcp.CallToolRequest) (*mcp.CallToolResult, error),
) {
	s.AddTool(tool, common.InstrumentedToolHandlerWithService(
		tool.Name, instrumentation.ServiceCalendar, operation, sc, handler))
}

// sessionArg is the mandatory session_id argument shared by every Calendar
// tool.
func sessionArg() mcp.ToolOption {
	return mcp.WithString("session_id",
		mcp.Required(),
		mcp.Description("Opaque session identifier that carries the OAuth authorization. Reuse the same value across calls."),
	)
}

// parseTimeArg parses an optional RFC 3339 time argument. An absent argument
// yields a zero time.
func parseTimeArg(args map[string]interface{}, key string) (time.Time, error) {
	raw, ok := args[key].(string)
	if !ok || raw == "" {
		return time.Time{}, nil
	}
	t, err := time.Parse(time.RFC3339, raw)
	if err != nil {
		return time.Time{}, fmt.Errorf("invalid %s: %v (expected RFC 3339, e.g. 2026-01-02T15:04:05Z)", key, err)
	}
	return t, nil
}
