package gmail_tools

import (
	"context"
	"encoding/json"
	"fmt"

	"github.com/mark3labs/mcp-go/mcp"
	mcpserver "github.com/mark3labs/mcp-go/server"

	"github.com/kiyora/google-mcp/internal/auth"
	"github.com/kiyora/google-mcp/internal/gmail"
	"github.com/kiyora/google-mcp/internal/instrumentation"
	"github.com/kiyora/google-mcp/internal/server"
)

// registerReadTools registers the read-only Gmail tools.
func registerReadTools(s *mcpserver.MCPServer, sc *server.ServerContext) {
	listTool := mcp.NewTool("gmail_list_emails",
		mcp.WithDescription("List recent emails from the Gmail inbox"),
		sessionArg(),
		mcp.WithString("query",
			mcp.Description("Gmail search query (e.g. 'is:unread', 'from:alice@example.com')"),
		),
		mcp.WithNumber("max_results",
			mcp.Description(fmt.Sprintf("Maximum number of messages to return (default: %d)", gmail.DefaultMaxResults)),
		),
		mcp.WithBoolean("include_labels",
			mcp.Description("Include the label names of each message (default: false)"),
		),
	)
	addInstrumentedTool(s, sc, listTool, instrumentation.OperationList,
		func(ctx context.Context, request mcp.CallToolRequest) (*mcp.CallToolResult, error) {
			return handleListEmails(ctx, request, sc)
		})

	searchTool := mcp.NewTool("gmail_search_emails",
		mcp.WithDescription("Search emails with a Gmail query"),
		sessionArg(),
		mcp.WithString("query",
			mcp.Required(),
			mcp.Description("Gmail search query"),
		),
		mcp.WithNumber("max_results",
			mcp.Description(fmt.Sprintf("Maximum number of messages to return (default: %d)", gmail.DefaultMaxResults)),
		),
	)
	addInstrumentedTool(s, sc, searchTool, instrumentation.OperationSearch,
		func(ctx context.Context, request mcp.CallToolRequest) (*mcp.CallToolResult, error) {
			return handleSearchEmails(ctx, request, sc)
		})

	getTool := mcp.NewTool("gmail_get_email",
		mcp.WithDescription("Get the full content of an email including its decoded body and attachment metadata"),
		sessionArg(),
		mcp.WithString("message_id",
			mcp.Required(),
			mcp.Description("Gmail message ID"),
		),
	)
	addInstrumentedTool(s, sc, getTool, instrumentation.OperationGet,
		func(ctx context.Context, request mcp.CallToolRequest) (*mcp.CallToolResult, error) {
			return handleGetEmail(ctx, request, sc)
		})

	labelsTool := mcp.NewTool("gmail_get_labels",
		mcp.WithDescription("List all Gmail labels with their message counts"),
		sessionArg(),
	)
	addInstrumentedTool(s, sc, labelsTool, instrumentation.OperationList,
		func(ctx context.Context, request mcp.CallToolRequest) (*mcp.CallToolResult, error) {
			return handleGetLabels(ctx, request, sc)
		})
}

func handleListEmails(ctx context.Context, request mcp.CallToolRequest, sc *server.ServerContext) (*mcp.CallToolResult, error) {
	args := request.GetArguments()

	client, result := gmailClientForSession(ctx, sc, request, auth.ScopeGmailReadonly)
	if result != nil {
		return result, nil
	}

	query := ""
	if queryVal, ok := args["query"].(string); ok {
		query = queryVal
	}

	maxResults := int64(gmail.DefaultMaxResults)
	if maxVal, ok := args["max_results"].(float64); ok && maxVal > 0 {
		maxResults = int64(maxVal)
	}

	includeLabels := false
	if includeVal, ok := args["include_labels"].(bool); ok {
		includeLabels = includeVal
	}

	messages, nextPageToken, err := client.ListMessages(query, maxResults, includeLabels)
	if err != nil {
		return mcp.NewToolResultError(fmt.Sprintf("Failed to list messages: %v", err)), nil
	}

	return jsonResult(struct {
		Messages      []gmail.MessageSummary `json:"messages"`
		NextPageToken string                 `json:"next_page_token,omitempty"`
	}{Messages: messages, NextPageToken: nextPageToken})
}

func handleSearchEmails(ctx context.Context, request mcp.CallToolRequest, sc *server.ServerContext) (*mcp.CallToolResult, error) {
	args := request.GetArguments()

	query, ok := args["query"].(string)
	if !ok || query == "" {
		return mcp.NewToolResultError("'query' field is required"), nil
	}

	client, result := gmailClientForSession(ctx, sc, request, auth.ScopeGmailReadonly)
	if result != nil {
		return result, nil
	}

	maxResults := int64(gmail.DefaultMaxResults)
	if maxVal, ok := args["max_results"].(float64); ok && maxVal > 0 {
		maxResults = int64(maxVal)
	}

	messages, _, err := client.ListMessages(query, maxResults, false)
	if err != nil {
		return mcp.NewToolResultError(fmt.Sprintf("Failed to search messages: %v", err)), nil
	}

	return jsonResult(struct {
		Query    string                 `json:"query"`
		Messages []gmail.MessageSummary `json:"messages"`
	}{Query: query, Messages: messages})
}

func handleGetEmail(ctx context.Context, request mcp.CallToolRequest, sc *server.ServerContext) (*mcp.CallToolResult, error) {
	args := request.GetArguments()

	messageID, ok := args["message_id"].(string)
	if !ok || messageID == "" {
		return mcp.NewToolResultError("'message_id' field is required"), nil
	}

	client, result := gmailClientForSession(ctx, sc, request, auth.ScopeGmailReadonly)
	if result != nil {
		return result, nil
	}

	detail, err := client.GetMessage(messageID)
	if err != nil {
		return mcp.NewToolResultError(fmt.Sprintf("Failed to get message: %v", err)), nil
	}

	return jsonResult(detail)
}

func handleGetLabels(ctx context.Context, request mcp.CallToolRequest, sc *server.ServerContext) (*mcp.CallToolResult, error) {
	client, result := gmailClientForSession(ctx, sc, request, auth.ScopeGmailReadonly)
	if result != nil {
		return result, nil
	}

	labels, err := client.GetLabels()
	if err != nil {
		return mcp.NewToolResultError(fmt.Sprintf("Failed to list labels: %v", err)), nil
	}

	return jsonResult(struct {
		Labels []gmail.Label `json:"labels"`
	}{Labels: labels})
}

// jsonResult marshals v into an indented JSON tool result.
func jsonResult(v interface{}) (*mcp.CallToolResult, error) {
	data, err := json.MarshalIndent(v, "", "  ")
	if err != nil {
		return mcp.NewToolResultError(fmt.Sprintf("Failed to encode result: %v", err)), nil
	}
	return mcp.NewToolResultText(string(data)), nil
}
