// Package gmail_tools provides MCP tools for reading and sending Gmail
// messages. Read tools require the gmail.readonly scope on the caller's
// session; gmail_send_email requires the gmail.send scope and is only
// registered when write operations are enabled.
package gmail_tools
