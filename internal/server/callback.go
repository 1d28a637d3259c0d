package server

import (
	"context"
	"encoding/json"
	"fmt"
	"html/template"
	"log/slog"
	"net/http"
	"time"

	"github.com/kiyora/google-mcp/internal/auth"
	"github.com/kiyora/google-mcp/internal/logging"
)

const (
	// DefaultCallbackAddr is the default address for the OAuth callback server.
	DefaultCallbackAddr = ":8085"

	// DefaultCallbackReadTimeout is the read header timeout for the callback server.
	DefaultCallbackReadTimeout = 10 * time.Second

	// DefaultCallbackWriteTimeout is the write timeout for the callback server.
	DefaultCallbackWriteTimeout = 10 * time.Second

	// DefaultCallbackIdleTimeout is the idle timeout for the callback server.
	DefaultCallbackIdleTimeout = 60 * time.Second
)

var successTemplate = template.Must(template.New("success").Parse(`<!DOCTYPE html>
<html>
<head><title>Authorization successful</title></head>
<body>
<h1>Authorization successful</h1>
<p>Access was granted for the following scopes:</p>
<ul>
{{- range .Scopes}}
<li>{{.}}</li>
{{- end}}
</ul>
<p>You can close this window and return to your AI assistant.</p>
</body>
</html>
`))

var errorTemplate = template.Must(template.New("error").Parse(`<!DOCTYPE html>
<html>
<head><title>Authorization failed</title></head>
<body>
<h1>Authorization failed</h1>
<p>{{.Message}}</p>
<p>You can close this window and retry the authorization from your AI assistant.</p>
</body>
</html>
`))

// CallbackServerConfig holds configuration for the OAuth callback server.
type CallbackServerConfig struct {
	// Addr is the address to bind the callback server to (e.g., ":8085").
	Addr string

	// Authenticator completes the authorization flow for incoming callbacks.
	Authenticator *auth.Authenticator

	// HealthChecker optionally registers /healthz and /readyz on the same
	// listener.
	HealthChecker *HealthChecker

	// Logger is the structured logger. Defaults to slog.Default().
	Logger *slog.Logger
}

// CallbackServer terminates the browser leg of the OAuth flow. Google
// redirects the user here after the consent screen; the session ID travels
// in the state parameter.
type CallbackServer struct {
	authenticator *auth.Authenticator
	health        *HealthChecker
	logger        *slog.Logger
	httpServer    *http.Server
	addr          string
}

// NewCallbackServer creates a new callback server with the given
// configuration.
func NewCallbackServer(config CallbackServerConfig) (*CallbackServer, error) {
	if config.Authenticator == nil {
		return nil, fmt.Errorf("authenticator is required for callback server")
	}
	if config.Addr == "" {
		config.Addr = DefaultCallbackAddr
	}
	logger := config.Logger
	if logger == nil {
		logger = slog.Default()
	}

	return &CallbackServer{
		authenticator: config.Authenticator,
		health:        config.HealthChecker,
		logger:        logger.With(logging.Service("oauth-callback")),
		addr:          config.Addr,
	}, nil
}

// Handler returns the HTTP handler serving the callback endpoints. It is
// exposed separately from Start so tests can drive it through httptest.
func (s *CallbackServer) Handler() http.Handler {
	mux := http.NewServeMux()
	mux.HandleFunc("GET /oauth/callback", s.handleCallback)
	mux.HandleFunc("GET /oauth/status/{id}", s.handleStatus)
	if s.health != nil {
		s.health.RegisterHealthEndpoints(mux)
	}
	return mux
}

// Start starts the callback server in a blocking manner.
// Call this in a goroutine if you need non-blocking operation.
func (s *CallbackServer) Start() error {
	s.httpServer = &http.Server{
		Addr:              s.addr,
		Handler:           s.Handler(),
		ReadHeaderTimeout: DefaultCallbackReadTimeout,
		WriteTimeout:      DefaultCallbackWriteTimeout,
		IdleTimeout:       DefaultCallbackIdleTimeout,
	}

	s.logger.Info("starting OAuth callback server", "addr", s.addr)
	return s.httpServer.ListenAndServe()
}

// Shutdown gracefully shuts down the callback server.
func (s *CallbackServer) Shutdown(ctx context.Context) error {
	if s.httpServer != nil {
		s.logger.Info("shutting down OAuth callback server")
		return s.httpServer.Shutdown(ctx)
	}
	return nil
}

// Addr returns the configured address for the callback server.
func (s *CallbackServer) Addr() string {
	return s.addr
}

func (s *CallbackServer) handleCallback(w http.ResponseWriter, r *http.Request) {
	query := r.URL.Query()
	state := query.Get("state")

	// A consent-screen denial arrives as an error parameter instead of a
	// code. The failure is recorded against the session without attempting
	// an exchange; the session stays retriable.
	if providerErr := query.Get("error"); providerErr != "" {
		if state != "" {
			if err := s.authenticator.RecordFailure(state, auth.KindProviderDenied, providerErr); err != nil {
				s.logger.Warn("failed to record provider denial",
					logging.SessionHash(state), logging.Err(err))
			}
		}
		s.renderError(w, http.StatusOK,
			fmt.Sprintf("The authorization request was denied by the provider: %s", providerErr))
		return
	}

	code := query.Get("code")
	if code == "" || state == "" {
		http.Error(w, "missing code or state parameter", http.StatusBadRequest)
		return
	}

	grantedScopes := auth.SplitScopeParam(query.Get("scope"))

	sess, err := s.authenticator.HandleCallback(r.Context(), state, code, grantedScopes)
	if err != nil {
		s.logger.Warn("authorization callback failed",
			logging.SessionHash(state), logging.Err(err))
		status := http.StatusInternalServerError
		if auth.IsKind(err, auth.KindUnknownSession) {
			status = http.StatusNotFound
		}
		s.renderError(w, status, "The authorization could not be completed. Please retry from your AI assistant.")
		return
	}

	s.logger.Info("authorization callback completed",
		logging.SessionHash(state), logging.ScopeList(sess.Scopes))
	s.renderSuccess(w, sess.Scopes)
}

// sessionStatusResponse is the JSON body of the status endpoint.
type sessionStatusResponse struct {
	Status         auth.Status `json:"status"`
	Scopes         []string    `json:"scopes"`
	CreatedAt      time.Time   `json:"created_at"`
	LastAuthorized *time.Time  `json:"last_authorized,omitempty"`
}

func (s *CallbackServer) handleStatus(w http.ResponseWriter, r *http.Request) {
	sessionID := r.PathValue("id")
	w.Header().Set("Content-Type", "application/json")

	sess, ok, err := s.authenticator.Session(sessionID)
	if err != nil {
		w.WriteHeader(http.StatusInternalServerError)
		_ = json.NewEncoder(w).Encode(map[string]string{"error": "failed to read session"})
		return
	}
	if !ok {
		w.WriteHeader(http.StatusNotFound)
		_ = json.NewEncoder(w).Encode(map[string]string{"error": "unknown session"})
		return
	}

	response := sessionStatusResponse{
		Status:    sess.Status,
		Scopes:    sess.Scopes,
		CreatedAt: sess.CreatedAt,
	}
	if !sess.LastAuthorized.IsZero() {
		t := sess.LastAuthorized
		response.LastAuthorized = &t
	}

	w.WriteHeader(http.StatusOK)
	_ = json.NewEncoder(w).Encode(response)
}

func (s *CallbackServer) renderSuccess(w http.ResponseWriter, scopes []string) {
	w.Header().Set("Content-Type", "text/html; charset=utf-8")
	w.WriteHeader(http.StatusOK)
	if err := successTemplate.Execute(w, struct{ Scopes []string }{Scopes: scopes}); err != nil {
		s.logger.Warn("failed to render success page", logging.Err(err))
	}
}

func (s *CallbackServer) renderError(w http.ResponseWriter, status int, message string) {
	w.Header().Set("Content-Type", "text/html; charset=utf-8")
	w.WriteHeader(status)
	if err := errorTemplate.Execute(w, struct{ Message string }{Message: message}); err != nil {
		s.logger.Warn("failed to render error page", logging.Err(err))
	}
}
