// Package gauth implements the Google OAuth2 authorization-code flow for
// read-only Sheets and Drive access.
package gauth

import (
	"context"
	"net/http"
	"time"

	"golang.org/x/oauth2"
	"golang.org/x/oauth2/google"

	"github.com/dvloznov/sheets-importer/internal/apperr"
)

// Scopes requested on every authorization. Read-only: the importer never
// writes back to the user's sheets or Drive.
var scopes = []string{
	"https://www.googleapis.com/auth/spreadsheets.readonly",
	"https://www.googleapis.com/auth/drive.readonly",
}

// TokenSet is the credential material produced by a successful code
// exchange. RefreshToken is empty when Google withholds it (it is only
// issued when the consent screen is shown, which is why AuthURL forces
// prompt=consent).
type TokenSet struct {
	AccessToken  string    `json:"access_token"`
	RefreshToken string    `json:"refresh_token,omitempty"`
	Expiry       time.Time `json:"expiry"`
}

// Flow wraps an oauth2.Config for the Google endpoint. Construct one at
// startup and inject it; there is no package-level client.
type Flow struct {
	cfg *oauth2.Config
}

// NewFlow creates a Flow for the given OAuth client credentials. The
// redirect URI must match one registered on the Google Cloud console,
// otherwise every exchange fails with a redirect_uri_mismatch.
func NewFlow(clientID, clientSecret, redirectURI string) *Flow {
	return &Flow{
		cfg: &oauth2.Config{
			ClientID:     clientID,
			ClientSecret: clientSecret,
			RedirectURL:  redirectURI,
			Scopes:       scopes,
			Endpoint:     google.Endpoint,
		},
	}
}

// AuthURL builds the consent URL. Offline access plus prompt=consent so
// that a refresh token is reissued even for a user who already authorized
// once; without the forced prompt Google silently omits it on repeat
// authorizations.
func (f *Flow) AuthURL() string {
	return f.cfg.AuthCodeURL("",
		oauth2.AccessTypeOffline,
		oauth2.SetAuthURLParam("prompt", "consent"),
		oauth2.SetAuthURLParam("include_granted_scopes", "true"),
	)
}

// Exchange trades a one-time authorization code for a TokenSet. Codes are
// single-use: a second exchange with the same code fails at the provider,
// and this method does not guard against replays.
func (f *Flow) Exchange(ctx context.Context, code string) (*TokenSet, error) {
	if code == "" {
		return nil, &apperr.AuthError{Message: "No code provided"}
	}

	tok, err := f.cfg.Exchange(ctx, code)
	if err != nil {
		return nil, &apperr.AuthError{Message: "Authentication failed", Cause: err}
	}

	return &TokenSet{
		AccessToken:  tok.AccessToken,
		RefreshToken: tok.RefreshToken,
		Expiry:       tok.Expiry,
	}, nil
}

// Client returns an HTTP client that authenticates requests with the given
// tokens, refreshing the access token automatically when a refresh token
// is present.
func (f *Flow) Client(ctx context.Context, ts *TokenSet) *http.Client {
	return f.cfg.Client(ctx, &oauth2.Token{
		AccessToken:  ts.AccessToken,
		RefreshToken: ts.RefreshToken,
		Expiry:       ts.Expiry,
	})
}
