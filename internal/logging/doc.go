// Package logging provides structured logging utilities for the google-mcp
// application.
//
// This package centralizes logging patterns to ensure consistent, structured
// logging throughout the codebase using the standard library's slog package.
//
// # Key Features
//
//   - Structured logging with slog
//   - PII sanitization (session identifier anonymization)
//   - Consistent attribute naming across the codebase
//
// # Usage Patterns
//
// Create a logger with standard attributes:
//
//	logger := logging.WithOperation(slog.Default(), "auth.callback")
//	logger.Info("callback handled",
//	    logging.Status("success"))
//
// Sanitize sensitive data before logging:
//
//	logger.Info("session authorized",
//	    logging.SessionHash(sessionID))
//
// # Security Considerations
//
// This package is designed with security in mind:
//   - Session identifiers are hashed to prevent PII leakage while allowing correlation
//   - Tokens are never logged directly
package logging
