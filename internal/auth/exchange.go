package auth

import (
	"context"
	"fmt"
	"time"

	"golang.org/x/oauth2"
	"golang.org/x/oauth2/google"
)

// DefaultProviderTimeout bounds each network call to the provider's token
// endpoint. A timeout surfaces as an exchange/refresh failure; it is not
// retried automatically.
const DefaultProviderTimeout = 30 * time.Second

// Exchanger performs the provider-facing legs of the authorization code
// flow. It is an interface so tests can run the full state machine against a
// fake provider.
type Exchanger interface {
	// AuthCodeURL builds the authorization URL for the given scope set,
	// with state set to the session id so the callback can recover the
	// session context.
	AuthCodeURL(sessionID string, scopes []string) string

	// Exchange trades an authorization code for tokens.
	Exchange(ctx context.Context, code string, scopes []string) (*oauth2.Token, error)

	// Refresh mints a new access token from a refresh token.
	Refresh(ctx context.Context, refreshToken string, scopes []string) (*oauth2.Token, error)
}

// GoogleExchanger implements Exchanger against Google's OAuth2 endpoints.
type GoogleExchanger struct {
	clientID     string
	clientSecret string
	redirectURI  string
	timeout      time.Duration
}

// NewGoogleExchanger creates an exchanger for the given OAuth client. The
// redirect URI is fixed per deployment and must match the client's
// registered callback endpoint.
func NewGoogleExchanger(clientID, clientSecret, redirectURI string) *GoogleExchanger {
	return &GoogleExchanger{
		clientID:     clientID,
		clientSecret: clientSecret,
		redirectURI:  redirectURI,
		timeout:      DefaultProviderTimeout,
	}
}

// config builds an OAuth2 flow configuration for the given scope set.
func (g *GoogleExchanger) config(scopes []string) *oauth2.Config {
	return &oauth2.Config{
		ClientID:     g.clientID,
		ClientSecret: g.clientSecret,
		Endpoint:     google.Endpoint,
		RedirectURL:  g.redirectURI,
		Scopes:       scopes,
	}
}

// AuthCodeURL builds the authorization URL. It always requests
// access_type=offline so a refresh token is issued, and prompt=consent so
// scope grants are re-confirmed for previously seen users; without the
// latter, incremental scope grants are not reliably delivered.
func (g *GoogleExchanger) AuthCodeURL(sessionID string, scopes []string) string {
	conf := g.config(scopes)
	return conf.AuthCodeURL(sessionID,
		oauth2.AccessTypeOffline,
		oauth2.SetAuthURLParam("prompt", "consent"),
	)
}

// Exchange trades an authorization code for tokens with a bounded timeout.
func (g *GoogleExchanger) Exchange(ctx context.Context, code string, scopes []string) (*oauth2.Token, error) {
	ctx, cancel := context.WithTimeout(ctx, g.timeout)
	defer cancel()

	tok, err := g.config(scopes).Exchange(ctx, code)
	if err != nil {
		return nil, fmt.Errorf("failed to exchange authorization code: %w", err)
	}
	return tok, nil
}

// Refresh mints a new access token from the given refresh token with a
// bounded timeout.
func (g *GoogleExchanger) Refresh(ctx context.Context, refreshToken string, scopes []string) (*oauth2.Token, error) {
	ctx, cancel := context.WithTimeout(ctx, g.timeout)
	defer cancel()

	src := g.config(scopes).TokenSource(ctx, &oauth2.Token{RefreshToken: refreshToken})
	tok, err := src.Token()
	if err != nil {
		return nil, fmt.Errorf("failed to refresh access token: %w", err)
	}
	return tok, nil
}
