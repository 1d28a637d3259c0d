package auth

import (
	"context"
	"net/http"
	"time"

	"golang.org/x/oauth2"
)

// Credentials is resolved token material ready to back a Google API client,
// scoped to the subset of the session's scopes the caller asked for.
type Credentials struct {
	AccessToken  string
	RefreshToken string
	ClientID     string
	ClientSecret string
	Scopes       []string
	Expiry       time.Time
}

// credentialsFromRecord builds credentials from stored token material,
// restricted to the given scope set.
func credentialsFromRecord(rec *TokenRecord, scopes []string) *Credentials {
	return &Credentials{
		AccessToken:  rec.AccessToken,
		RefreshToken: rec.RefreshToken,
		ClientID:     rec.ClientID,
		ClientSecret: rec.ClientSecret,
		Scopes:       append([]string(nil), scopes...),
		Expiry:       rec.Expiry,
	}
}

// Token returns the credentials as an OAuth2 token.
func (c *Credentials) Token() *oauth2.Token {
	return &oauth2.Token{
		AccessToken:  c.AccessToken,
		TokenType:    "Bearer",
		RefreshToken: c.RefreshToken,
		Expiry:       c.Expiry,
	}
}

// TokenSource returns a static token source for the resolved access token.
// Refresh happens through the Authenticator's Resolve path so that new
// access tokens are persisted back into the session store, not inside an
// unobserved oauth2 transport.
func (c *Credentials) TokenSource() oauth2.TokenSource {
	return oauth2.StaticTokenSource(c.Token())
}

// HTTPClient returns an HTTP client that authenticates requests with the
// resolved access token. The client is configured to use HTTP/1.1 to avoid
// HTTP/2 protocol errors seen with some Google API endpoints.
func (c *Credentials) HTTPClient(ctx context.Context) *http.Client {
	client := oauth2.NewClient(ctx, c.TokenSource())

	// Force HTTP/1.1 by disabling HTTP/2
	if transport, ok := client.Transport.(*oauth2.Transport); ok {
		transport.Base = &http.Transport{
			ForceAttemptHTTP2: false,
		}
	}

	return client
}
