// Package server provides the MCP server context, the OAuth callback HTTP
// server, and the operational endpoints for the google-mcp application.
//
// # Key Components
//
// ServerContext owns the long-lived dependencies the MCP tools share: the
// session authenticator, the web search client, and the instrumentation
// sinks. It is constructed explicitly at startup and shut down once, so no
// package-level singletons are involved.
//
// CallbackServer terminates the browser leg of the OAuth authorization-code
// flow. Google redirects the user to GET /oauth/callback with the session ID
// in the state parameter; the server exchanges the code, persists the token
// against the session, and renders a minimal HTML result page. A companion
// GET /oauth/status/{id} endpoint reports where a session sits in the flow.
//
// HealthChecker serves /healthz and /readyz for Kubernetes probes, and
// MetricsServer exposes Prometheus metrics on a dedicated port so they stay
// off the main application listener.
package server
