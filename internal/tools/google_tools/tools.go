package google_tools

import (
	"context"
	"encoding/json"
	"fmt"
	"time"

	"github.com/mark3labs/mcp-go/mcp"
	mcpserver "github.com/mark3labs/mcp-go/server"

	"github.com/kiyora/google-mcp/internal/auth"
	"github.com/kiyora/google-mcp/internal/server"
	"github.com/kiyora/google-mcp/internal/tools/common"
)

// RegisterGoogleTools registers the session inspection tools with the MCP
// server.
func RegisterGoogleTools(s *mcpserver.MCPServer, sc *server.ServerContext) error {
	statusTool := mcp.NewTool("google_auth_status",
		mcp.WithDescription("Report the authorization status of a session: flow state, granted scopes, grant history and last error"),
		mcp.WithString("session_id",
			mcp.Required(),
			mcp.Description("Session identifier to inspect"),
		),
	)
	s.AddTool(statusTool, common.InstrumentedToolHandler("google_auth_status", sc,
		func(ctx context.Context, request mcp.CallToolRequest) (*mcp.CallToolResult, error) {
			return handleAuthStatus(ctx, request, sc)
		}))

	hasScopeTool := mcp.NewTool("google_has_scope",
		mcp.WithDescription("Check whether a session holds an authorized grant for a specific scope"),
		mcp.WithString("session_id",
			mcp.Required(),
			mcp.Description("Session identifier to inspect"),
		),
		mcp.WithString("scope",
			mcp.Required(),
			mcp.Description("Full scope URL (e.g. https://www.googleapis.com/auth/gmail.readonly)"),
		),
	)
	s.AddTool(hasScopeTool, common.InstrumentedToolHandler("google_has_scope", sc,
		func(ctx context.Context, request mcp.CallToolRequest) (*mcp.CallToolResult, error) {
			return handleHasScope(ctx, request, sc)
		}))

	return nil
}

// authStatusResponse is the JSON payload of google_auth_status.
type authStatusResponse struct {
	Status         auth.Status       `json:"status"`
	Scopes         []string          `json:"scopes"`
	CreatedAt      time.Time         `json:"created_at"`
	LastAuthorized *time.Time        `json:"last_authorized,omitempty"`
	HasToken       bool              `json:"has_token"`
	HasRefresh     bool              `json:"has_refresh_token"`
	TokenExpired   bool              `json:"token_expired,omitempty"`
	ScopesHistory  []auth.ScopeGrant `json:"scopes_history,omitempty"`
	LastError      *auth.ErrorInfo   `json:"last_error,omitempty"`
}

func handleAuthStatus(_ context.Context, request mcp.CallToolRequest, sc *server.ServerContext) (*mcp.CallToolResult, error) {
	sessionID, result := common.RequireSessionID(request.GetArguments())
	if result != nil {
		return result, nil
	}

	sess, ok, err := sc.Authenticator().Session(sessionID)
	if err != nil {
		return mcp.NewToolResultError(fmt.Sprintf("Failed to read session: %v", err)), nil
	}
	if !ok {
		return mcp.NewToolResultError(
			"No session found with this ID. Any Google tool creates the session on first use and returns an authorization URL."), nil
	}

	response := authStatusResponse{
		Status:        sess.Status,
		Scopes:        sess.Scopes,
		CreatedAt:     sess.CreatedAt,
		HasToken:      sess.TokenData != nil,
		ScopesHistory: sess.ScopesHistory,
		LastError:     sess.LastError,
	}
	if !sess.LastAuthorized.IsZero() {
		t := sess.LastAuthorized
		response.LastAuthorized = &t
	}
	if sess.TokenData != nil {
		response.HasRefresh = sess.TokenData.RefreshToken != ""
		response.TokenExpired = sess.TokenData.Expired(time.Now())
	}

	data, err := json.MarshalIndent(response, "", "  ")
	if err != nil {
		return mcp.NewToolResultError(fmt.Sprintf("Failed to encode result: %v", err)), nil
	}
	return mcp.NewToolResultText(string(data)), nil
}

func handleHasScope(_ context.Context, request mcp.CallToolRequest, sc *server.ServerContext) (*mcp.CallToolResult, error) {
	args := request.GetArguments()

	sessionID, result := common.RequireSessionID(args)
	if result != nil {
		return result, nil
	}

	scope, ok := args["scope"].(string)
	if !ok || scope == "" {
		return mcp.NewToolResultError("'scope' field is required"), nil
	}

	if sc.Authenticator().HasScope(sessionID, scope) {
		return mcp.NewToolResultText(fmt.Sprintf("Session holds an authorized grant for %s", scope)), nil
	}
	return mcp.NewToolResultText(fmt.Sprintf("Session does not hold an authorized grant for %s", scope)), nil
}
