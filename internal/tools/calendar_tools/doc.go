// Package calendar_tools provides MCP tools for Google Calendar. Listing
// and searching events requires the calendar scope on the caller's session;
// create, update and delete tools are only registered when write operations
// are enabled.
package calendar_tools
