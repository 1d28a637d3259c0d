// Package google_tools provides MCP tools for inspecting the OAuth session
// state: where a session sits in the authorization flow, which scopes it
// holds, and what its last failure was. These tools never talk to Google.
package google_tools
