package server

import (
	"context"
	"fmt"
	"log/slog"
	"sync"

	"github.com/kiyora/google-mcp/internal/auth"
	"github.com/kiyora/google-mcp/internal/instrumentation"
	"github.com/kiyora/google-mcp/internal/search"
)

// ServerContext holds the shared dependencies for the MCP server.
// Gmail and Calendar clients are not cached here: they are bound to
// per-session credentials and constructed by the tool handlers on demand.
type ServerContext struct {
	ctx           context.Context
	cancel        context.CancelFunc
	authenticator *auth.Authenticator
	searchClient  *search.Client
	metrics       *instrumentation.Metrics
	auditLogger   *instrumentation.AuditLogger
	logger        *slog.Logger
	mu            sync.RWMutex
	shutdown      bool
}

// NewServerContext creates a new server context around the given
// authenticator. The search client and instrumentation sinks are optional
// and attached with the setters.
func NewServerContext(ctx context.Context, authenticator *auth.Authenticator, logger *slog.Logger) (*ServerContext, error) {
	if authenticator == nil {
		return nil, fmt.Errorf("authenticator is required")
	}
	if logger == nil {
		logger = slog.Default()
	}

	shutdownCtx, cancel := context.WithCancel(ctx)

	return &ServerContext{
		ctx:           shutdownCtx,
		cancel:        cancel,
		authenticator: authenticator,
		logger:        logger,
	}, nil
}

// Context returns the server context.
func (sc *ServerContext) Context() context.Context {
	return sc.ctx
}

// Authenticator returns the session authenticator.
func (sc *ServerContext) Authenticator() *auth.Authenticator {
	return sc.authenticator
}

// SearchClient returns the web search client, or nil when no API key was
// configured.
func (sc *ServerContext) SearchClient() *search.Client {
	sc.mu.RLock()
	defer sc.mu.RUnlock()
	return sc.searchClient
}

// SetSearchClient attaches the web search client.
func (sc *ServerContext) SetSearchClient(client *search.Client) {
	sc.mu.Lock()
	defer sc.mu.Unlock()
	sc.searchClient = client
}

// Metrics returns the metrics recorder, or nil when instrumentation is
// disabled.
func (sc *ServerContext) Metrics() *instrumentation.Metrics {
	sc.mu.RLock()
	defer sc.mu.RUnlock()
	return sc.metrics
}

// SetMetrics attaches the metrics recorder.
func (sc *ServerContext) SetMetrics(m *instrumentation.Metrics) {
	sc.mu.Lock()
	defer sc.mu.Unlock()
	sc.metrics = m
}

// AuditLogger returns the audit logger, or nil when audit logging is
// disabled.
func (sc *ServerContext) AuditLogger() *instrumentation.AuditLogger {
	sc.mu.RLock()
	defer sc.mu.RUnlock()
	return sc.auditLogger
}

// SetAuditLogger attaches the audit logger.
func (sc *ServerContext) SetAuditLogger(l *instrumentation.AuditLogger) {
	sc.mu.Lock()
	defer sc.mu.Unlock()
	sc.auditLogger = l
}

// Logger returns the structured logger.
func (sc *ServerContext) Logger() *slog.Logger {
	return sc.logger
}

// IsShutdown returns whether the server has been shutdown.
func (sc *ServerContext) IsShutdown() bool {
	sc.mu.RLock()
	defer sc.mu.RUnlock()
	return sc.shutdown
}

// Shutdown shuts down the server context. It is safe to call more than once.
func (sc *ServerContext) Shutdown() error {
	sc.mu.Lock()
	defer sc.mu.Unlock()

	if sc.shutdown {
		return nil
	}

	sc.shutdown = true
	sc.cancel()
	return nil
}
