package auth

import (
	"context"
	"fmt"
	"log/slog"
	"time"

	"github.com/kiyora/google-mcp/internal/logging"
)

// MetricsRecorder receives counters for authentication outcomes. The
// instrumentation package provides the production implementation; a nil
// recorder disables recording.
type MetricsRecorder interface {
	RecordOAuthAuth(ctx context.Context, result string)
	RecordOAuthTokenExchange(ctx context.Context, status string)
	RecordOAuthTokenRefresh(ctx context.Context, status string)
}

// AuditRecorder receives session lifecycle events for the audit trail.
type AuditRecorder interface {
	LogAuthEvent(event, sessionID string, scopes []string)
}

// Auth result labels reported to the metrics recorder.
const (
	AuthResultResolved  = "resolved"
	AuthResultURLIssued = "url_issued"
	AuthResultError     = "error"
)

// Audit event names emitted during the session lifecycle.
const (
	EventSessionCreated = "session_created"
	EventAuthURLIssued  = "auth_url_issued"
	EventAuthCompleted  = "auth_completed"
	EventAuthFailed     = "auth_failed"
	EventScopesAdded    = "scopes_added"
	EventTokenRefreshed = "token_refreshed"
)

// Config carries the dependencies of an Authenticator. Store is required;
// Exchanger defaults to a Google exchanger built from the client credentials.
type Config struct {
	ClientID     string
	ClientSecret string
	RedirectURI  string

	Store     *Store
	Exchanger Exchanger
	Logger    *slog.Logger
	Metrics   MetricsRecorder
	Audit     AuditRecorder
}

// Authenticator drives the multi-scope authorization flow for sessions: it
// hands out consent URLs, absorbs OAuth callbacks, refreshes expired tokens
// and answers scope queries. All state lives in the Store; the Authenticator
// itself is stateless and safe for concurrent use.
type Authenticator struct {
	clientID     string
	clientSecret string
	redirectURI  string

	store     *Store
	exchanger Exchanger
	logger    *slog.Logger
	metrics   MetricsRecorder
	audit     AuditRecorder

	now func() time.Time
}

// NewAuthenticator creates an Authenticator from the given configuration.
func NewAuthenticator(cfg Config) (*Authenticator, error) {
	if cfg.Store == nil {
		return nil, fmt.Errorf("auth: session store is required")
	}

	exchanger := cfg.Exchanger
	if exchanger == nil {
		if cfg.ClientID == "" || cfg.ClientSecret == "" {
			return nil, fmt.Errorf("auth: client ID and client secret are required")
		}
		exchanger = NewGoogleExchanger(cfg.ClientID, cfg.ClientSecret, cfg.RedirectURI)
	}

	logger := cfg.Logger
	if logger == nil {
		logger = slog.Default()
	}

	return &Authenticator{
		clientID:     cfg.ClientID,
		clientSecret: cfg.ClientSecret,
		redirectURI:  cfg.RedirectURI,
		store:        cfg.Store,
		exchanger:    exchanger,
		logger:       logger.With(logging.Service("auth")),
		metrics:      cfg.Metrics,
		audit:        cfg.Audit,
		now:          time.Now,
	}, nil
}

// Authenticate ensures the session identified by sessionID can act with the
// requested scopes. It returns either ready credentials or a consent URL the
// user must visit, never both.
//
// A session that already holds a token covering the requested scopes resolves
// directly, refreshing the token if it has expired. Requesting scopes beyond
// the authorized set moves the session to pending_additional_scopes and
// yields a consent URL for the union of old and new scopes.
//
// Calling Authenticate again while a consent URL is outstanding reissues the
// URL for the scopes already attached to the session; newly requested scopes
// are folded in only once the session holds a token.
func (a *Authenticator) Authenticate(ctx context.Context, sessionID string, scopes ...string) (*Credentials, string, error) {
	if sessionID == "" {
		return nil, "", NewError(KindMissingParameter, "session ID is required")
	}
	requested := NormalizeScopes(scopes)

	unlock := a.store.LockSession(sessionID)
	defer unlock()

	sess, ok, err := a.store.Get(sessionID)
	if err != nil {
		return nil, "", WrapError(KindStore, "loading session", err)
	}

	logger := a.logger.With(logging.SessionHash(sessionID))

	if !ok {
		if len(requested) == 0 {
			return nil, "", NewError(KindMissingParameter, "at least one scope is required for a new session")
		}
		sess = &Session{
			CreatedAt:   a.now().UTC(),
			Status:      StatusPending,
			RedirectURI: a.redirectURI,
			Scopes:      requested,
		}
		if err := a.store.Put(sessionID, sess); err != nil {
			return nil, "", WrapError(KindStore, "saving new session", err)
		}
		logger.Info("session created", logging.ScopeList(requested))
		a.auditEvent(EventSessionCreated, sessionID, requested)
		return nil, a.issueURL(ctx, sessionID, requested), nil
	}

	if sess.Authorized() && ContainsAllScopes(sess.Scopes, requested) {
		creds, err := a.resolveLocked(ctx, sessionID, sess, requested)
		if err != nil {
			return nil, "", err
		}
		a.recordAuth(ctx, AuthResultResolved)
		return creds, "", nil
	}

	if sess.Authorized() {
		// Scope escalation: widen the session's scope set and send the
		// user back through consent for the union.
		union := UnionScopes(sess.Scopes, requested)
		sess.Scopes = union
		sess.Status = StatusPendingAdditionalScopes
		if err := a.store.Put(sessionID, sess); err != nil {
			return nil, "", WrapError(KindStore, "saving session", err)
		}
		logger.Info("additional scopes requested", logging.ScopeList(union))
		return nil, a.issueURL(ctx, sessionID, union), nil
	}

	// Still pending: the outstanding consent URL covers the scopes the
	// session was created with, regardless of what was requested now.
	return nil, a.issueURL(ctx, sessionID, sess.Scopes), nil
}

// Resolve returns credentials for the session if it holds a token covering
// the requested scopes, refreshing the access token first when it has
// expired and a refresh token is on file. When scopes are given, the
// returned credential is narrowed to exactly that set. It returns nil
// credentials, without error, when the session is unknown, has no token, or
// the token does not cover the requested scopes.
func (a *Authenticator) Resolve(ctx context.Context, sessionID string, scopes ...string) (*Credentials, error) {
	requested := NormalizeScopes(scopes)

	unlock := a.store.LockSession(sessionID)
	defer unlock()

	sess, ok, err := a.store.Get(sessionID)
	if err != nil {
		return nil, WrapError(KindStore, "loading session", err)
	}
	if !ok || !sess.Authorized() || !ContainsAllScopes(sess.Scopes, requested) {
		return nil, nil
	}
	return a.resolveLocked(ctx, sessionID, sess, requested)
}

// resolveLocked turns the session's stored token into credentials, refreshing
// it first when it has expired and a refresh token is available. An expired
// token with no refresh token is handed back as-is; the downstream API call
// surfaces the failure. The credential carries the requested scopes when the
// caller named any, otherwise the session's full scope set. The caller must
// hold the session lock.
func (a *Authenticator) resolveLocked(ctx context.Context, sessionID string, sess *Session, requested []string) (*Credentials, error) {
	rec := sess.TokenData
	if rec == nil {
		return nil, nil
	}

	scopes := sess.Scopes
	if len(requested) > 0 {
		scopes = requested
	}

	if rec.Expired(a.now()) && rec.RefreshToken != "" {
		// The refresh always covers the session's full scope set, not the
		// narrower set the caller asked for, so the stored token keeps its
		// breadth.
		tok, err := a.exchanger.Refresh(ctx, rec.RefreshToken, sess.Scopes)
		if err != nil {
			a.recordRefresh(ctx, logging.StatusError)
			a.logger.Warn("token refresh failed",
				logging.SessionHash(sessionID), logging.Err(err))
			return nil, WrapError(KindRefreshFailed, "refreshing access token", err)
		}
		rec.AccessToken = tok.AccessToken
		rec.Expiry = tok.Expiry
		if tok.RefreshToken != "" {
			rec.RefreshToken = tok.RefreshToken
		}
		rec.LastUpdated = a.now().UTC()
		if err := a.store.Put(sessionID, sess); err != nil {
			return nil, WrapError(KindStore, "saving refreshed token", err)
		}
		a.recordRefresh(ctx, logging.StatusSuccess)
		a.logger.Info("token refreshed", logging.SessionHash(sessionID))
		a.auditEvent(EventTokenRefreshed, sessionID, sess.Scopes)
	}

	return credentialsFromRecord(rec, scopes), nil
}

// HandleCallback completes the authorization flow for a session using the
// code returned by the provider. grantedScopes, when non-empty, is the scope
// list echoed back on the callback; it is folded into the session's scope set
// before the exchange so the stored token reflects everything the user
// actually granted.
//
// On exchange failure the session is marked failed with the error recorded,
// but any previously stored token survives so the session can keep operating
// with its old grant until a retry succeeds.
func (a *Authenticator) HandleCallback(ctx context.Context, sessionID, code string, grantedScopes []string) (*Session, error) {
	if code == "" {
		return nil, NewError(KindMissingParameter, "authorization code is required")
	}

	unlock := a.store.LockSession(sessionID)
	defer unlock()

	sess, ok, err := a.store.Get(sessionID)
	if err != nil {
		return nil, WrapError(KindStore, "loading session", err)
	}
	if !ok {
		return nil, NewError(KindUnknownSession, fmt.Sprintf("no session with ID %q", sessionID))
	}

	logger := a.logger.With(logging.SessionHash(sessionID))
	union := UnionScopes(sess.Scopes, grantedScopes)

	tok, err := a.exchanger.Exchange(ctx, code, union)
	if err != nil {
		a.recordExchange(ctx, logging.StatusError)
		wrapped := WrapError(KindExchangeFailed, "exchanging authorization code", err)
		sess.Status = StatusFailed
		sess.LastError = &ErrorInfo{
			Time:    a.now().UTC(),
			Kind:    string(KindExchangeFailed),
			Message: wrapped.Error(),
		}
		if saveErr := a.store.Put(sessionID, sess); saveErr != nil {
			logger.Error("saving failed session", logging.Err(saveErr))
		}
		logger.Warn("token exchange failed", logging.Err(err))
		a.auditEvent(EventAuthFailed, sessionID, union)
		return nil, wrapped
	}

	var previouslyAuthorized []string
	if sess.TokenData != nil {
		previouslyAuthorized = sess.TokenData.Scopes
	}
	// The grant widened the session when it went through an escalation round
	// or the provider echoed back more scopes than the session carried.
	widened := sess.Status == StatusPendingAdditionalScopes ||
		len(diffScopes(union, sess.Scopes)) > 0

	rec := &TokenRecord{
		AccessToken:  tok.AccessToken,
		RefreshToken: tok.RefreshToken,
		ClientID:     a.clientID,
		ClientSecret: a.clientSecret,
		Scopes:       union,
		Expiry:       tok.Expiry,
		LastUpdated:  a.now().UTC(),
	}
	// Incremental grants often omit the refresh token. Carry the previous
	// one forward so the session stays refreshable.
	if rec.RefreshToken == "" && sess.TokenData != nil {
		rec.RefreshToken = sess.TokenData.RefreshToken
	}

	if widened {
		// History entries record the full scope set as of the grant, not
		// the delta.
		sess.ScopesHistory = append(sess.ScopesHistory, ScopeGrant{
			Date:   a.now().UTC(),
			Action: GrantActionAddedScopes,
			Scopes: union,
		})
		a.auditEvent(EventScopesAdded, sessionID, diffScopes(union, previouslyAuthorized))
	}

	sess.TokenData = rec
	sess.Scopes = union
	sess.Status = StatusCompleted
	sess.LastError = nil
	sess.LastAuthorized = a.now().UTC()

	if err := a.store.Put(sessionID, sess); err != nil {
		return nil, WrapError(KindStore, "saving authorized session", err)
	}

	a.recordExchange(ctx, logging.StatusSuccess)
	logger.Info("authorization completed", logging.ScopeList(union))
	a.auditEvent(EventAuthCompleted, sessionID, union)
	return sess.Clone(), nil
}

// RecordFailure marks the session failed with the given error, overwriting
// any previous error. It is used when the provider reports a denial on the
// callback, before any token exchange happens. Previously stored token data
// is left intact.
func (a *Authenticator) RecordFailure(sessionID string, kind Kind, message string) error {
	unlock := a.store.LockSession(sessionID)
	defer unlock()

	sess, ok, err := a.store.Get(sessionID)
	if err != nil {
		return WrapError(KindStore, "loading session", err)
	}
	if !ok {
		return NewError(KindUnknownSession, fmt.Sprintf("no session with ID %q", sessionID))
	}

	sess.Status = StatusFailed
	sess.LastError = &ErrorInfo{
		Time:    a.now().UTC(),
		Kind:    string(kind),
		Message: message,
	}
	if err := a.store.Put(sessionID, sess); err != nil {
		return WrapError(KindStore, "saving session", err)
	}

	a.logger.Warn("authorization failed",
		logging.SessionHash(sessionID),
		slog.String("error_type", string(kind)),
		slog.String("error_message", message))
	a.auditEvent(EventAuthFailed, sessionID, sess.Scopes)
	return nil
}

// HasScope reports whether the session holds a token whose authorized scope
// set includes scope. It never touches the network.
func (a *Authenticator) HasScope(sessionID, scope string) bool {
	sess, ok, err := a.store.Get(sessionID)
	if err != nil || !ok {
		return false
	}
	return sess.Authorized() && ContainsScope(sess.Scopes, scope)
}

// Session returns a copy of the stored session state, for status reporting.
func (a *Authenticator) Session(sessionID string) (*Session, bool, error) {
	return a.store.Get(sessionID)
}

// Store returns the underlying session store.
func (a *Authenticator) Store() *Store {
	return a.store
}

func (a *Authenticator) issueURL(ctx context.Context, sessionID string, scopes []string) string {
	url := a.exchanger.AuthCodeURL(sessionID, scopes)
	a.recordAuth(ctx, AuthResultURLIssued)
	a.logger.Info("consent URL issued",
		logging.SessionHash(sessionID), logging.ScopeList(scopes))
	a.auditEvent(EventAuthURLIssued, sessionID, scopes)
	return url
}

func (a *Authenticator) recordAuth(ctx context.Context, result string) {
	if a.metrics != nil {
		a.metrics.RecordOAuthAuth(ctx, result)
	}
}

func (a *Authenticator) recordExchange(ctx context.Context, status string) {
	if a.metrics != nil {
		a.metrics.RecordOAuthTokenExchange(ctx, status)
	}
}

func (a *Authenticator) recordRefresh(ctx context.Context, status string) {
	if a.metrics != nil {
		a.metrics.RecordOAuthTokenRefresh(ctx, status)
	}
}

func (a *Authenticator) auditEvent(event, sessionID string, scopes []string) {
	if a.audit != nil {
		a.audit.LogAuthEvent(event, sessionID, scopes)
	}
}

// diffScopes returns the scopes present in have but not in prior.
func diffScopes(have, prior []string) []string {
	var added []string
	for _, s := range have {
		if !ContainsScope(prior, s) {
			added = append(added, s)
		}
	}
	return added
}
