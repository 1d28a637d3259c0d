package instrumentation

import "github.com/kiyora/google-mcp/internal/logging"

// Cardinality management helpers for metrics.
//
// # Warning
//
// High cardinality in metrics can cause:
// - Increased memory usage in Prometheus/metrics backends
// - Slower query performance
// - Higher storage costs
//
// Session identifiers are caller-chosen and unbounded, so they never appear
// as metric labels unless detailed labels are explicitly enabled, and then
// only in hashed form.

// HashSessionID returns the hashed representation of a session identifier
// used for metric labels and audit correlation. Returns "unknown" for an
// empty identifier so label values stay non-empty.
func HashSessionID(sessionID string) string {
	if sessionID == "" {
		return "unknown"
	}
	return logging.AnonymizeSessionID(sessionID)
}

// Common operation types for Google API metrics.
// Status and Service constants are defined in config.go.
const (
	OperationList   = "list"
	OperationGet    = "get"
	OperationCreate = "create"
	OperationUpdate = "update"
	OperationDelete = "delete"
	OperationSend   = "send"
	OperationSearch = "search"
)
