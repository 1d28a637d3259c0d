package auth

import (
	"time"
)

// Status describes where a session is in the authorization state machine.
type Status string

// Session states. None of them is terminal: a failed session accepts a
// retried callback, and a completed session can re-enter the flow when new
// scopes are requested.
const (
	StatusPending                 Status = "pending"
	StatusPendingAdditionalScopes Status = "pending_additional_scopes"
	StatusCompleted               Status = "completed"
	StatusFailed                  Status = "failed"
)

// TokenRecord holds the credential material bound to a session after at
// least one successful authorization round trip. The JSON field names match
// the persisted store layout of earlier deployments; Expiry is an additive
// field (older records without it are treated as expired, which forces a
// refresh on first use).
type TokenRecord struct {
	AccessToken  string    `json:"token"`
	RefreshToken string    `json:"refresh_token,omitempty"`
	ClientID     string    `json:"client_id,omitempty"`
	ClientSecret string    `json:"client_secret,omitempty"`
	Scopes       []string  `json:"authorized_scopes,omitempty"`
	Expiry       time.Time `json:"expiry,omitempty"`
	LastUpdated  time.Time `json:"last_updated"`
}

// Expired reports whether the access token should be considered expired at
// the given time. Records without a known expiry are treated as expired.
func (t *TokenRecord) Expired(now time.Time) bool {
	if t.Expiry.IsZero() {
		return true
	}
	return !t.Expiry.After(now)
}

// Clone returns a deep copy of the record.
func (t *TokenRecord) Clone() *TokenRecord {
	if t == nil {
		return nil
	}
	c := *t
	c.Scopes = append([]string(nil), t.Scopes...)
	return &c
}

// ScopeGrant is one entry of a session's append-only scope history.
type ScopeGrant struct {
	Date   time.Time `json:"date"`
	Action string    `json:"action"`
	Scopes []string  `json:"scopes"`
}

// ScopeGrant actions.
const (
	GrantActionAddedScopes = "added_scopes"
)

// ErrorInfo records the most recent failure of a session. It is overwritten
// on each new failure, not accumulated.
type ErrorInfo struct {
	Time    time.Time `json:"error_time"`
	Kind    string    `json:"error_type"`
	Message string    `json:"error_message"`
}

// Session is the central entity of the auth subsystem, keyed by an opaque
// caller-supplied identifier. Scopes accumulate monotonically over the
// session's lifetime; ScopesHistory is append-only.
type Session struct {
	CreatedAt      time.Time    `json:"created_at"`
	Status         Status       `json:"status"`
	RedirectURI    string       `json:"redirect_uri,omitempty"`
	Scopes         []string     `json:"scopes"`
	TokenData      *TokenRecord `json:"token_data"`
	ScopesHistory  []ScopeGrant `json:"scopes_history,omitempty"`
	LastError      *ErrorInfo   `json:"last_error,omitempty"`
	LastAuthorized time.Time    `json:"last_authorized,omitempty"`

	// LegacyScope captures the singular scope field written by early
	// deployments. It is migrated into Scopes on load and never written
	// back.
	LegacyScope string `json:"scope,omitempty"`
}

// Authorized reports whether the session holds token material.
func (s *Session) Authorized() bool {
	return s != nil && s.TokenData != nil
}

// Clone returns a deep copy of the session so callers never share slices or
// token records with the store's in-memory state.
func (s *Session) Clone() *Session {
	if s == nil {
		return nil
	}
	c := *s
	c.Scopes = append([]string(nil), s.Scopes...)
	c.TokenData = s.TokenData.Clone()
	if s.ScopesHistory != nil {
		c.ScopesHistory = make([]ScopeGrant, len(s.ScopesHistory))
		for i, g := range s.ScopesHistory {
			c.ScopesHistory[i] = g
			c.ScopesHistory[i].Scopes = append([]string(nil), g.Scopes...)
		}
	}
	if s.LastError != nil {
		e := *s.LastError
		c.LastError = &e
	}
	return &c
}

// migrate applies one-time backward-compatible fixes to a freshly loaded
// session record.
func (s *Session) migrate() {
	if s.LegacyScope != "" {
		if len(s.Scopes) == 0 {
			s.Scopes = []string{s.LegacyScope}
		}
		s.LegacyScope = ""
	}
	s.Scopes = NormalizeScopes(s.Scopes)
}
