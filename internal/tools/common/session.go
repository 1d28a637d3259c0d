package common

import (
	"context"
	"fmt"
	"strings"

	"github.com/mark3labs/mcp-go/mcp"

	"github.com/kiyora/google-mcp/internal/auth"
	"github.com/kiyora/google-mcp/internal/server"
)

// GetSessionFromArgs extracts the session_id argument, or "" when absent.
func GetSessionFromArgs(args map[string]interface{}) string {
	if sessionID, ok := args["session_id"].(string); ok {
		return sessionID
	}
	return ""
}

// RequireSessionID extracts the mandatory session_id argument. The second
// return value is non-nil when the argument is missing and should be
// returned to the caller as-is.
func RequireSessionID(args map[string]interface{}) (string, *mcp.CallToolResult) {
	sessionID := GetSessionFromArgs(args)
	if sessionID == "" {
		return "", mcp.NewToolResultError("'session_id' field is required")
	}
	return sessionID, nil
}

// AuthInstructions formats the message returned to a caller whose session
// has not yet authorized the required scopes.
func AuthInstructions(authURL string, scopes []string) string {
	return fmt.Sprintf(`Authorization required. To grant access:

1. Visit this URL in your browser:
   %s

2. Sign in with your Google account
3. Grant access to the requested scopes:
   %s
4. Retry this tool once the browser shows the success page

The authorization is remembered for this session; you only need to repeat
it when additional scopes are requested.`, authURL, strings.Join(scopes, "\n   "))
}

// ResolveCredentials runs the session through the authenticator for the
// given scopes. When the session is not yet authorized it returns a tool
// result carrying the consent URL and instructions; the caller returns that
// result without invoking the Google API.
func ResolveCredentials(ctx context.Context, sc *server.ServerContext, sessionID string, scopes ...string) (*auth.Credentials, *mcp.CallToolResult) {
	creds, authURL, err := sc.Authenticator().Authenticate(ctx, sessionID, scopes...)
	if err != nil {
		return nil, mcp.NewToolResultError(fmt.Sprintf("Authentication failed: %v", err))
	}
	if creds == nil {
		return nil, mcp.NewToolResultError(AuthInstructions(authURL, scopes))
	}
	return creds, nil
}
