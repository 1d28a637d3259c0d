// Package search_tools provides MCP tools for Google web search via the
// Custom Search JSON API. Search is authenticated with an API key rather
// than an OAuth session, so these tools do not take a session_id argument.
package search_tools
