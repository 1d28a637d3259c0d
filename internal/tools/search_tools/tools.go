package search_tools

import (
	"context"
	"encoding/json"
	"fmt"

	"github.com/mark3labs/mcp-go/mcp"
	mcpserver "github.com/mark3labs/mcp-go/server"

	"github.com/kiyora/google-mcp/internal/instrumentation"
	"github.com/kiyora/google-mcp/internal/search"
	"github.com/kiyora/google-mcp/internal/server"
	"github.com/kiyora/google-mcp/internal/tools/common"
)

// RegisterSearchTools registers the web search tools with the MCP server.
// The tools report a configuration error at call time when no search client
// is attached, so registration itself never fails.
func RegisterSearchTools(s *mcpserver.MCPServer, sc *server.ServerContext) error {
	searchTool := mcp.NewTool("google_search",
		mcp.WithDescription("Search the web with Google"),
		mcp.WithString("query",
			mcp.Required(),
			mcp.Description("Search query"),
		),
		mcp.WithNumber("num_results",
			mcp.Description(fmt.Sprintf("Number of results to return (1-%d, default: %d)",
				search.MaxResultsPerQuery, search.MaxResultsPerQuery)),
		),
		mcp.WithBoolean("safe_search",
			mcp.Description("Enable safe search filtering (default: true)"),
		),
	)
	addInstrumentedTool(s, sc, searchTool, instrumentation.OperationSearch,
		func(ctx context.Context, request mcp.CallToolRequest) (*mcp.CallToolResult, error) {
			return handleSearch(ctx, request, sc)
		})

	historyTool := mcp.NewTool("google_search_history",
		mcp.WithDescription("List recent web searches performed in this server instance"),
		mcp.WithNumber("limit",
			mcp.Description(fmt.Sprintf("Maximum number of history entries to return (default: %d)",
				search.DefaultHistoryResults)),
		),
	)
	addInstrumentedTool(s, sc, historyTool, instrumentation.OperationList,
		func(ctx context.Context, request mcp.CallToolRequest) (*mcp.CallToolResult, error) {
			return handleSearchHistory(ctx, request, sc)
		})

	clearTool := mcp.NewTool("google_clear_search_history",
		mcp.WithDescription("Clear the recorded web search history"),
	)
	addInstrumentedTool(s, sc, clearTool, instrumentation.OperationDelete,
		func(ctx context.Context, request mcp.CallToolRequest) (*mcp.CallToolResult, error) {
			return handleClearSearchHistory(ctx, request, sc)
		})

	return nil
}

func addInstrumentedTool(s *mcpserver.MCPServer, sc *server.ServerContext, tool mcp.Tool, operation string,
	handler func(ctx context.Context, request mcp.CallToolRequest) (*mcp.CallToolResult, error),
) {
	s.AddTool(tool, common.InstrumentedToolHandlerWithService(
		tool.Name, instrumentation.ServiceSearch, operation, sc, handler))
}

// searchClient returns the configured search client, or an error result
// when web search is not configured.
func searchClient(sc *server.ServerContext) (*search.Client, *mcp.CallToolResult) {
	client := sc.SearchClient()
	if client == nil {
		return nil, mcp.NewToolResultError(
			"Web search is not configured: set GOOGLE_API_KEY and GOOGLE_CSE_ID and restart the server")
	}
	return client, nil
}

func handleSearch(ctx context.Context, request mcp.CallToolRequest, sc *server.ServerContext) (*mcp.CallToolResult, error) {
	args := request.GetArguments()

	query, ok := args["query"].(string)
	if !ok || query == "" {
		return mcp.NewToolResultError("'query' field is required"), nil
	}

	numResults := int64(search.MaxResultsPerQuery)
	if numVal, ok := args["num_results"].(float64); ok && numVal > 0 {
		numResults = int64(numVal)
	}

	safeSearch := true
	if safeVal, ok := args["safe_search"].(bool); ok {
		safeSearch = safeVal
	}

	client, result := searchClient(sc)
	if result != nil {
		return result, nil
	}

	response, err := client.Search(ctx, query, numResults, safeSearch)
	if err != nil {
		return mcp.NewToolResultError(fmt.Sprintf("Search failed: %v", err)), nil
	}

	return jsonResult(response)
}

func handleSearchHistory(_ context.Context, request mcp.CallToolRequest, sc *server.ServerContext) (*mcp.CallToolResult, error) {
	args := request.GetArguments()

	limit := 0
	if limitVal, ok := args["limit"].(float64); ok {
		limit = int(limitVal)
	}

	client, result := searchClient(sc)
	if result != nil {
		return result, nil
	}

	entries := client.History(limit)
	return jsonResult(struct {
		History []search.HistoryEntry `json:"history"`
	}{History: entries})
}

func handleClearSearchHistory(_ context.Context, _ mcp.CallToolRequest, sc *server.ServerContext) (*mcp.CallToolResult, error) {
	client, result := searchClient(sc)
	if result != nil {
		return result, nil
	}

	client.ClearHistory()
	return mcp.NewToolResultText("Search history cleared"), nil
}

// jsonResult marshals v into an indented JSON tool result.
func jsonResult(v interface{}) (*mcp.CallToolResult, error) {
	data, err := json.MarshalIndent(v, "", "  ")
	if err != nil {
		return mcp.NewToolResultError(fmt.Sprintf("Failed to encode result: %v", err)), nil
	}
	return mcp.NewToolResultText(string(data)), nil
}
