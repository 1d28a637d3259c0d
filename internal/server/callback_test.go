package server

import (
	"context"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"net/url"
	"strings"
	"testing"
	"time"

	"golang.org/x/oauth2"

	"github.com/kiyora/google-mcp/internal/auth"
)

type stubExchanger struct {
	exchangeToken *oauth2.Token
	exchangeErr   error
}

func (s *stubExchanger) AuthCodeURL(sessionID string, scopes []string) string {
	v := url.Values{}
	v.Set("state", sessionID)
	v.Set("scope", strings.Join(scopes, " "))
	return "https://provider.test/auth?" + v.Encode()
}

func (s *stubExchanger) Exchange(_ context.Context, _ string, _ []string) (*oauth2.Token, error) {
	return s.exchangeToken, s.exchangeErr
}

func (s *stubExchanger) Refresh(_ context.Context, _ string, _ []string) (*oauth2.Token, error) {
	return s.exchangeToken, s.exchangeErr
}

func newTestCallbackServer(t *testing.T, exchanger *stubExchanger) (*CallbackServer, *auth.Authenticator) {
	t.Helper()

	store, err := auth.NewStore(t.TempDir()+"/sessions.json", nil)
	if err != nil {
		t.Fatalf("NewStore: %v", err)
	}
	authenticator, err := auth.NewAuthenticator(auth.Config{
		ClientID:     "client-id",
		ClientSecret: "client-secret",
		Store:        store,
		Exchanger:    exchanger,
	})
	if err != nil {
		t.Fatalf("NewAuthenticator: %v", err)
	}
	srv, err := NewCallbackServer(CallbackServerConfig{
		Authenticator: authenticator,
	})
	if err != nil {
		t.Fatalf("NewCallbackServer: %v", err)
	}
	return srv, authenticator
}

func startSession(t *testing.T, authenticator *auth.Authenticator, sessionID string, scopes ...string) {
	t.Helper()
	_, authURL, err := authenticator.Authenticate(context.Background(), sessionID, scopes...)
	if err != nil {
		t.Fatalf("Authenticate: %v", err)
	}
	if authURL == "" {
		t.Fatal("expected a consent URL for a new session")
	}
}

func TestCallback_CompletesSession(t *testing.T) {
	exchanger := &stubExchanger{
		exchangeToken: &oauth2.Token{
			AccessToken:  "at-1",
			RefreshToken: "rt-1",
			Expiry:       time.Now().Add(time.Hour),
		},
	}
	srv, authenticator := newTestCallbackServer(t, exchanger)
	startSession(t, authenticator, "s1", auth.ScopeGmailReadonly)

	req := httptest.NewRequest(http.MethodGet,
		"/oauth/callback?code=auth-code&state=s1&scope="+url.QueryEscape(auth.ScopeGmailReadonly), nil)
	rec := httptest.NewRecorder()
	srv.Handler().ServeHTTP(rec, req)

	if rec.Code != http.StatusOK {
		t.Fatalf("status = %d, want %d (body: %s)", rec.Code, http.StatusOK, rec.Body.String())
	}
	if !strings.Contains(rec.Body.String(), "Authorization successful") {
		t.Errorf("body does not contain success message: %s", rec.Body.String())
	}
	if !strings.Contains(rec.Body.String(), auth.ScopeGmailReadonly) {
		t.Errorf("body does not list the granted scope")
	}

	sess, ok, err := authenticator.Session("s1")
	if err != nil || !ok {
		t.Fatalf("Session(s1) = %v, %v", ok, err)
	}
	if sess.Status != auth.StatusCompleted {
		t.Errorf("status = %q, want %q", sess.Status, auth.StatusCompleted)
	}
	if sess.TokenData == nil || sess.TokenData.AccessToken != "at-1" {
		t.Errorf("token not persisted: %+v", sess.TokenData)
	}
}

func TestCallback_MissingParameters(t *testing.T) {
	srv, _ := newTestCallbackServer(t, &stubExchanger{})

	tests := []struct {
		name   string
		target string
	}{
		{"no code", "/oauth/callback?state=s1"},
		{"no state", "/oauth/callback?code=auth-code"},
		{"neither", "/oauth/callback"},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			rec := httptest.NewRecorder()
			srv.Handler().ServeHTTP(rec, httptest.NewRequest(http.MethodGet, tt.target, nil))
			if rec.Code != http.StatusBadRequest {
				t.Errorf("status = %d, want %d", rec.Code, http.StatusBadRequest)
			}
		})
	}
}

func TestCallback_ProviderDenialMarksSessionFailed(t *testing.T) {
	srv, authenticator := newTestCallbackServer(t, &stubExchanger{})
	startSession(t, authenticator, "s1", auth.ScopeGmailReadonly)

	req := httptest.NewRequest(http.MethodGet, "/oauth/callback?state=s1&error=access_denied", nil)
	rec := httptest.NewRecorder()
	srv.Handler().ServeHTTP(rec, req)

	if rec.Code != http.StatusOK {
		t.Fatalf("status = %d, want %d", rec.Code, http.StatusOK)
	}
	if !strings.Contains(rec.Body.String(), "access_denied") {
		t.Errorf("body does not mention the provider error: %s", rec.Body.String())
	}

	sess, ok, err := authenticator.Session("s1")
	if err != nil || !ok {
		t.Fatalf("Session(s1) = %v, %v", ok, err)
	}
	if sess.Status != auth.StatusFailed {
		t.Errorf("status = %q, want %q", sess.Status, auth.StatusFailed)
	}
	if sess.LastError == nil || sess.LastError.Kind != string(auth.KindProviderDenied) {
		t.Errorf("last error = %+v, want provider_denied", sess.LastError)
	}
}

func TestCallback_UnknownSession(t *testing.T) {
	srv, _ := newTestCallbackServer(t, &stubExchanger{
		exchangeToken: &oauth2.Token{AccessToken: "at-1"},
	})

	req := httptest.NewRequest(http.MethodGet, "/oauth/callback?code=auth-code&state=nope", nil)
	rec := httptest.NewRecorder()
	srv.Handler().ServeHTTP(rec, req)

	if rec.Code != http.StatusNotFound {
		t.Fatalf("status = %d, want %d", rec.Code, http.StatusNotFound)
	}
	if !strings.Contains(rec.Body.String(), "Authorization failed") {
		t.Errorf("body does not contain error message: %s", rec.Body.String())
	}
}

func TestCallback_ExchangeFailureRendersError(t *testing.T) {
	srv, authenticator := newTestCallbackServer(t, &stubExchanger{
		exchangeErr: context.DeadlineExceeded,
	})
	startSession(t, authenticator, "s1", auth.ScopeGmailReadonly)

	req := httptest.NewRequest(http.MethodGet, "/oauth/callback?code=auth-code&state=s1", nil)
	rec := httptest.NewRecorder()
	srv.Handler().ServeHTTP(rec, req)

	if rec.Code != http.StatusInternalServerError {
		t.Fatalf("status = %d, want %d", rec.Code, http.StatusInternalServerError)
	}

	sess, _, _ := authenticator.Session("s1")
	if sess.Status != auth.StatusFailed {
		t.Errorf("status = %q, want %q", sess.Status, auth.StatusFailed)
	}
}

func TestStatusEndpoint(t *testing.T) {
	exchanger := &stubExchanger{
		exchangeToken: &oauth2.Token{
			AccessToken: "at-1",
			Expiry:      time.Now().Add(time.Hour),
		},
	}
	srv, authenticator := newTestCallbackServer(t, exchanger)
	startSession(t, authenticator, "s1", auth.ScopeGmailReadonly)

	t.Run("pending session", func(t *testing.T) {
		rec := httptest.NewRecorder()
		srv.Handler().ServeHTTP(rec, httptest.NewRequest(http.MethodGet, "/oauth/status/s1", nil))
		if rec.Code != http.StatusOK {
			t.Fatalf("status = %d, want %d", rec.Code, http.StatusOK)
		}
		var body sessionStatusResponse
		if err := json.Unmarshal(rec.Body.Bytes(), &body); err != nil {
			t.Fatalf("unmarshal: %v", err)
		}
		if body.Status != auth.StatusPending {
			t.Errorf("status = %q, want %q", body.Status, auth.StatusPending)
		}
		if body.LastAuthorized != nil {
			t.Errorf("last_authorized should be absent before a grant")
		}
	})

	t.Run("completed session", func(t *testing.T) {
		if _, err := authenticator.HandleCallback(context.Background(), "s1", "auth-code", nil); err != nil {
			t.Fatalf("HandleCallback: %v", err)
		}
		rec := httptest.NewRecorder()
		srv.Handler().ServeHTTP(rec, httptest.NewRequest(http.MethodGet, "/oauth/status/s1", nil))
		var body sessionStatusResponse
		if err := json.Unmarshal(rec.Body.Bytes(), &body); err != nil {
			t.Fatalf("unmarshal: %v", err)
		}
		if body.Status != auth.StatusCompleted {
			t.Errorf("status = %q, want %q", body.Status, auth.StatusCompleted)
		}
		if body.LastAuthorized == nil {
			t.Errorf("last_authorized missing after grant")
		}
	})

	t.Run("unknown session", func(t *testing.T) {
		rec := httptest.NewRecorder()
		srv.Handler().ServeHTTP(rec, httptest.NewRequest(http.MethodGet, "/oauth/status/missing", nil))
		if rec.Code != http.StatusNotFound {
			t.Errorf("status = %d, want %d", rec.Code, http.StatusNotFound)
		}
	})
}

func TestNewCallbackServer_RequiresAuthenticator(t *testing.T) {
	if _, err := NewCallbackServer(CallbackServerConfig{}); err == nil {
		t.Error("expected an error without an authenticator")
	}
}

func TestCallbackServer_DefaultAddr(t *testing.T) {
	srv, _ := newTestCallbackServer(t, &stubExchanger{})
	if srv.Addr() != DefaultCallbackAddr {
		t.Errorf("Addr() = %q, want %q", srv.Addr(), DefaultCallbackAddr)
	}
}
