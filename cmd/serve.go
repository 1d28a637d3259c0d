package cmd

import (
	"context"
	"fmt"
	"log"
	"log/slog"
	"net/http"
	"os"
	"os/signal"
	"path/filepath"
	"syscall"
	"time"

	"github.com/spf13/cobra"

	mcpserver "github.com/mark3labs/mcp-go/server"

	"github.com/kiyora/google-mcp/internal/auth"
	"github.com/kiyora/google-mcp/internal/instrumentation"
	"github.com/kiyora/google-mcp/internal/search"
	"github.com/kiyora/google-mcp/internal/server"
	"github.com/kiyora/google-mcp/internal/tools/calendar_tools"
	"github.com/kiyora/google-mcp/internal/tools/gmail_tools"
	"github.com/kiyora/google-mcp/internal/tools/google_tools"
	"github.com/kiyora/google-mcp/internal/tools/search_tools"
)

// OAuthClientConfig holds the Google OAuth client used for the session
// authorization flow.
type OAuthClientConfig struct {
	// ClientID is the Google OAuth client ID.
	ClientID string

	// ClientSecret is the Google OAuth client secret.
	ClientSecret string

	// RedirectURI is the callback URL registered with the OAuth client.
	// When empty it is derived from the callback server address.
	RedirectURI string
}

// SearchConfig holds the Custom Search Engine credentials for the web
// search tools. Search uses API-key authentication, not OAuth sessions.
type SearchConfig struct {
	// APIKey is the Google API key.
	APIKey string

	// CSEID is the Custom Search Engine ID.
	CSEID string
}

// MetricsConfig holds configuration for the metrics server
type MetricsConfig struct {
	// Enabled determines whether to start the metrics server (default: true)
	Enabled bool

	// Addr is the address for the metrics server (e.g., ":9090")
	Addr string
}

func newServeCmd() *cobra.Command {
	var (
		debugMode    bool
		transport    string
		httpAddr     string
		yolo         bool
		oauthClient  OAuthClientConfig
		searchConfig SearchConfig
		sessionsFile string
		callbackAddr string
		// Metrics server configuration
		metricsEnabled bool
		metricsAddr    string
	)

	cmd := &cobra.Command{
		Use:   "serve",
		Short: "Start the MCP server",
		Long: `Start the Model Context Protocol (MCP) server to provide Gmail, Calendar
and Google Search tools for AI assistants.

Supports multiple transport types:
  - stdio: Standard input/output (default)
  - sse: Server-Sent Events transport
  - streamable-http: Streamable HTTP transport

Safety Mode:
  By default, the server operates in read-only mode, providing only safe
  operations. Use --yolo to enable write operations (email sending, event
  creation and deletion, etc.)

OAuth Configuration:
  Gmail and Calendar tools authorize per session. Provide the OAuth client:
    --google-client-id and --google-client-secret flags
    OR GOOGLE_CLIENT_ID and GOOGLE_CLIENT_SECRET env vars
  The redirect URI must match the callback endpoint of this server:
    --redirect-uri OR GOOGLE_REDIRECT_URI env var
    (defaults to http://localhost:8085/oauth/callback)

Search Configuration (optional):
  Web search tools use a Google API key instead of OAuth:
    --google-api-key and --google-cse-id flags
    OR GOOGLE_API_KEY and GOOGLE_CSE_ID env vars
  Without these, search tools report that search is not configured.`,
		RunE: func(cmd *cobra.Command, args []string) error {
			// Build metrics config
			metricsConfig := MetricsConfig{
				Enabled: metricsEnabled,
				Addr:    metricsAddr,
			}

			return runServe(transport, debugMode, httpAddr, yolo, oauthClient, searchConfig, sessionsFile, callbackAddr, metricsConfig)
		},
	}

	cmd.Flags().BoolVar(&debugMode, "debug", false, "Enable debug logging")
	cmd.Flags().StringVar(&transport, "transport", "stdio", "Transport type: stdio, sse or streamable-http")
	cmd.Flags().StringVar(&httpAddr, "http-addr", ":8080", "HTTP server address (for sse and streamable-http transports)")
	cmd.Flags().BoolVar(&yolo, "yolo", false, "Enable write operations (email sending, event creation/deletion, etc.). Default is read-only mode.")
	cmd.Flags().StringVar(&oauthClient.ClientID, "google-client-id", "", "Google OAuth Client ID for the session authorization flow. Can also use GOOGLE_CLIENT_ID env var.")
	cmd.Flags().StringVar(&oauthClient.ClientSecret, "google-client-secret", "", "Google OAuth Client Secret for the session authorization flow. Can also use GOOGLE_CLIENT_SECRET env var.")
	cmd.Flags().StringVar(&oauthClient.RedirectURI, "redirect-uri", "", "OAuth redirect URI registered with the Google client. Can also use GOOGLE_REDIRECT_URI env var. Defaults to the callback server address.")
	cmd.Flags().StringVar(&searchConfig.APIKey, "google-api-key", "", "Google API key for web search tools. Can also use GOOGLE_API_KEY env var.")
	cmd.Flags().StringVar(&searchConfig.CSEID, "google-cse-id", "", "Google Custom Search Engine ID for web search tools. Can also use GOOGLE_CSE_ID env var.")
	cmd.Flags().StringVar(&sessionsFile, "sessions-file", "", "Path to the session store file. Can also use MCP_SESSIONS_FILE env var. Defaults to ~/.config/google-mcp/sessions.json.")
	cmd.Flags().StringVar(&callbackAddr, "callback-addr", server.DefaultCallbackAddr, "OAuth callback server address. Can also use MCP_CALLBACK_ADDR env var.")

	// Metrics server flags
	cmd.Flags().BoolVar(&metricsEnabled, "metrics-enabled", true, "Enable the metrics server on a dedicated port. Can also use METRICS_ENABLED env var.")
	cmd.Flags().StringVar(&metricsAddr, "metrics-addr", ":9090", "Metrics server address. Can also use METRICS_ADDR env var.")

	return cmd
}

func runServe(transport string, debugMode bool, httpAddr string, yolo bool, oauthClient OAuthClientConfig, searchConfig SearchConfig, sessionsFile, callbackAddr string, metricsConfig MetricsConfig) error {
	// Setup graceful shutdown
	shutdownCtx, cancel := signal.NotifyContext(context.Background(),
		os.Interrupt, syscall.SIGTERM)
	defer cancel()

	// Load metrics config from environment if not set via flags
	if !metricsConfig.Enabled {
		if os.Getenv("METRICS_ENABLED") == "true" {
			metricsConfig.Enabled = true
		}
	}
	if metricsConfig.Addr == "" || metricsConfig.Addr == ":9090" {
		if addr := os.Getenv("METRICS_ADDR"); addr != "" {
			metricsConfig.Addr = addr
		}
	}

	// Get Google credentials from environment if not provided via flags
	if oauthClient.ClientID == "" {
		oauthClient.ClientID = os.Getenv("GOOGLE_CLIENT_ID")
	}
	if oauthClient.ClientSecret == "" {
		oauthClient.ClientSecret = os.Getenv("GOOGLE_CLIENT_SECRET")
	}
	if oauthClient.RedirectURI == "" {
		oauthClient.RedirectURI = os.Getenv("GOOGLE_REDIRECT_URI")
	}
	if searchConfig.APIKey == "" {
		searchConfig.APIKey = os.Getenv("GOOGLE_API_KEY")
	}
	if searchConfig.CSEID == "" {
		searchConfig.CSEID = os.Getenv("GOOGLE_CSE_ID")
	}
	if sessionsFile == "" {
		sessionsFile = os.Getenv("MCP_SESSIONS_FILE")
	}
	if sessionsFile == "" {
		sessionsFile = defaultSessionsFile()
	}
	if callbackAddr == "" || callbackAddr == server.DefaultCallbackAddr {
		if addr := os.Getenv("MCP_CALLBACK_ADDR"); addr != "" {
			callbackAddr = addr
		}
	}
	if oauthClient.RedirectURI == "" {
		oauthClient.RedirectURI = deriveRedirectURI(callbackAddr)
	}

	// Logs go to stderr so the stdio transport keeps stdout clean for the
	// protocol stream.
	logLevel := slog.LevelInfo
	if debugMode {
		logLevel = slog.LevelDebug
	}
	logger := slog.New(slog.NewTextHandler(os.Stderr, &slog.HandlerOptions{Level: logLevel}))

	if oauthClient.ClientID == "" || oauthClient.ClientSecret == "" {
		logger.Warn("No Google OAuth client configured; session authorization will fail",
			"hint", "set --google-client-id and --google-client-secret or GOOGLE_CLIENT_ID and GOOGLE_CLIENT_SECRET")
	}

	// Initialize instrumentation provider
	instrConfig := instrumentation.DefaultConfig()
	instrConfig.ServiceVersion = version
	instrConfig.Logger = logger

	provider, err := instrumentation.NewProvider(shutdownCtx, instrConfig)
	if err != nil {
		return fmt.Errorf("failed to create instrumentation provider: %w", err)
	}
	defer func() {
		if err := provider.Shutdown(shutdownCtx); err != nil {
			if transport != "stdio" {
				log.Printf("Error during instrumentation shutdown: %v", err)
			}
		}
	}()

	// Start metrics server if enabled and not in stdio mode
	var metricsServer *server.MetricsServer
	if transport != "stdio" && metricsConfig.Enabled && provider.Enabled() {
		var err error
		metricsServer, err = server.NewMetricsServer(server.MetricsServerConfig{
			Addr:                    metricsConfig.Addr,
			Enabled:                 true,
			InstrumentationProvider: provider,
		})
		if err != nil {
			return fmt.Errorf("failed to create metrics server: %w", err)
		}

		// Use ready channel to confirm metrics server started successfully
		metricsReady := make(chan struct{})
		metricsErr := make(chan error, 1)
		go func() {
			if err := metricsServer.StartWithReadySignal(metricsReady); err != nil && err != http.ErrServerClosed {
				metricsErr <- err
			}
			close(metricsErr)
		}()

		// Wait for metrics server to be ready or fail
		select {
		case <-metricsReady:
			logger.Info("Metrics server started", "addr", metricsServer.Addr())
		case err := <-metricsErr:
			return fmt.Errorf("metrics server failed to start: %w", err)
		case <-time.After(5 * time.Second):
			return fmt.Errorf("metrics server startup timed out")
		}
	}

	// Build the session store and the authenticator driving the
	// per-session authorization flow
	store, err := auth.NewStore(sessionsFile, logger)
	if err != nil {
		return fmt.Errorf("failed to open session store: %w", err)
	}

	var auditLogger *instrumentation.AuditLogger
	authConfig := auth.Config{
		ClientID:     oauthClient.ClientID,
		ClientSecret: oauthClient.ClientSecret,
		RedirectURI:  oauthClient.RedirectURI,
		Store:        store,
		Exchanger:    auth.NewGoogleExchanger(oauthClient.ClientID, oauthClient.ClientSecret, oauthClient.RedirectURI),
		Logger:       logger,
	}
	if provider.Enabled() {
		auditLogger = instrumentation.NewAuditLoggerWithConfig(logger, instrConfig.AuditLogging)
		authConfig.Metrics = provider.Metrics()
		authConfig.Audit = auditLogger
	}

	authenticator, err := auth.NewAuthenticator(authConfig)
	if err != nil {
		return fmt.Errorf("failed to create authenticator: %w", err)
	}

	// Create server context
	serverContext, err := server.NewServerContext(shutdownCtx, authenticator, logger)
	if err != nil {
		return fmt.Errorf("failed to create server context: %w", err)
	}

	// Set metrics and audit logger on server context for tool instrumentation
	if provider.Enabled() {
		serverContext.SetMetrics(provider.Metrics())
		serverContext.SetAuditLogger(auditLogger)
	}
	defer func() {
		// Shutdown metrics server first
		if metricsServer != nil {
			shutdownCtx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
			defer cancel()
			if err := metricsServer.Shutdown(shutdownCtx); err != nil {
				log.Printf("Error during metrics server shutdown: %v", err)
			}
		}
		if err := serverContext.Shutdown(); err != nil {
			if transport != "stdio" {
				log.Printf("Error during server context shutdown: %v", err)
			}
		}
	}()

	// Wire the web search client when the API key is configured. Search
	// tools stay registered either way and report the missing
	// configuration at call time.
	if searchConfig.APIKey != "" && searchConfig.CSEID != "" {
		searchClient, err := search.NewClient(shutdownCtx, searchConfig.APIKey, searchConfig.CSEID)
		if err != nil {
			return fmt.Errorf("failed to create search client: %w", err)
		}
		serverContext.SetSearchClient(searchClient)
	} else {
		logger.Info("Web search not configured; search tools will report this at call time")
	}

	// Create MCP server
	mcpSrv := mcpserver.NewMCPServer("google-mcp", version,
		mcpserver.WithToolCapabilities(true),
	)

	// readOnly is the inverse of yolo
	readOnly := !yolo
	if readOnly {
		logger.Info("Starting server in READ-ONLY mode (use --yolo to enable write operations)")
	} else {
		logger.Info("Starting server with WRITE operations enabled (--yolo flag is set)")
	}

	// Register all tools
	if err := registerAllTools(mcpSrv, serverContext, readOnly); err != nil {
		return err
	}

	// The callback server terminates the browser leg of the OAuth flow and
	// runs for every transport; without it consent URLs lead nowhere.
	healthChecker := server.NewHealthChecker(serverContext)
	callbackServer, err := server.NewCallbackServer(server.CallbackServerConfig{
		Addr:          callbackAddr,
		Authenticator: authenticator,
		HealthChecker: healthChecker,
		Logger:        logger,
	})
	if err != nil {
		return fmt.Errorf("failed to create callback server: %w", err)
	}

	go func() {
		if err := callbackServer.Start(); err != nil && err != http.ErrServerClosed {
			logger.Error("OAuth callback server stopped", "addr", callbackServer.Addr(), "error", err)
		}
	}()
	defer func() {
		stopCtx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
		defer cancel()
		if err := callbackServer.Shutdown(stopCtx); err != nil {
			if transport != "stdio" {
				log.Printf("Error during callback server shutdown: %v", err)
			}
		}
	}()
	healthChecker.SetReady(true)

	logger.Info("OAuth callback server listening",
		"addr", callbackServer.Addr(), "redirect_uri", oauthClient.RedirectURI)

	// Start the appropriate server based on transport type
	switch transport {
	case "stdio":
		return runStdioServer(mcpSrv)
	case "sse":
		logger.Info("Starting MCP server", "transport", transport, "addr", httpAddr)
		return runHTTPTransport(shutdownCtx, mcpserver.NewSSEServer(mcpSrv), httpAddr, logger)
	case "streamable-http":
		logger.Info("Starting MCP server", "transport", transport, "addr", httpAddr)
		return runHTTPTransport(shutdownCtx, mcpserver.NewStreamableHTTPServer(mcpSrv), httpAddr, logger)
	default:
		return fmt.Errorf("unsupported transport type: %s (supported: stdio, sse, streamable-http)", transport)
	}
}

func runStdioServer(mcpSrv *mcpserver.MCPServer) error {
	serverDone := make(chan error, 1)
	go func() {
		defer close(serverDone)
		if err := mcpserver.ServeStdio(mcpSrv); err != nil {
			serverDone <- err
		}
	}()

	err := <-serverDone
	if err != nil {
		return fmt.Errorf("server stopped with error: %w", err)
	}
	return nil
}

// httpTransport is the lifecycle shared by the SSE server and the
// streamable HTTP server from mcp-go.
type httpTransport interface {
	Start(addr string) error
	Shutdown(ctx context.Context) error
}

func runHTTPTransport(ctx context.Context, srv httpTransport, addr string, logger *slog.Logger) error {
	serverDone := make(chan error, 1)
	go func() {
		defer close(serverDone)
		if err := srv.Start(addr); err != nil && err != http.ErrServerClosed {
			serverDone <- err
		}
	}()

	select {
	case <-ctx.Done():
		logger.Info("Shutdown signal received, stopping HTTP server")
		shutdownCtx, cancel := context.WithTimeout(context.Background(), 30*time.Second)
		defer cancel()
		if err := srv.Shutdown(shutdownCtx); err != nil {
			return fmt.Errorf("error shutting down HTTP server: %w", err)
		}
	case err := <-serverDone:
		if err != nil {
			return fmt.Errorf("HTTP server stopped with error: %w", err)
		}
	}

	logger.Info("HTTP server gracefully stopped")
	return nil
}

// registerAllTools registers all MCP tools
func registerAllTools(mcpSrv *mcpserver.MCPServer, ctx *server.ServerContext, readOnly bool) error {
	// Define all tool registrations
	type toolRegistration struct {
		name     string
		register func() error
	}

	registrations := []toolRegistration{
		{
			name: "Gmail",
			register: func() error {
				return gmail_tools.RegisterGmailTools(mcpSrv, ctx, readOnly)
			},
		},
		{
			name: "Calendar",
			register: func() error {
				return calendar_tools.RegisterCalendarTools(mcpSrv, ctx, readOnly)
			},
		},
		{
			name: "Search",
			register: func() error {
				return search_tools.RegisterSearchTools(mcpSrv, ctx)
			},
		},
		{
			name: "Google",
			register: func() error {
				return google_tools.RegisterGoogleTools(mcpSrv, ctx)
			},
		},
	}

	// Register all tools
	for _, reg := range registrations {
		if err := reg.register(); err != nil {
			return fmt.Errorf("failed to register %s: %w", reg.name, err)
		}
	}

	return nil
}

// defaultSessionsFile returns the session store location used when neither
// the flag nor MCP_SESSIONS_FILE is set.
func defaultSessionsFile() string {
	home, err := os.UserHomeDir()
	if err != nil {
		return filepath.Join(".google-mcp", "sessions.json")
	}
	return filepath.Join(home, ".config", "google-mcp", "sessions.json")
}

// deriveRedirectURI builds the redirect URI matching the callback server
// address. A bare port binds all interfaces but the browser-facing URL
// still points at localhost.
func deriveRedirectURI(callbackAddr string) string {
	if callbackAddr == "" {
		callbackAddr = server.DefaultCallbackAddr
	}
	host := callbackAddr
	if host[0] == ':' {
		host = "localhost" + host
	}
	return fmt.Sprintf("http://%s/oauth/callback", host)
}
