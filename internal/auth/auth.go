// Package auth obtains bearer tokens for the remote document store.
package auth

import (
	"context"
	"time"

	"golang.org/x/oauth2"
)

// Grant is a freshly issued bearer token.
type Grant struct {
	AccessToken string
	// ExpiresIn is the token lifetime in seconds. Zero means unknown.
	ExpiresIn int
}

// Authenticator obtains a token from an OAuth provider.
type Authenticator interface {
	Authenticate(ctx context.Context) (*Grant, error)
}

// StaticToken hands back a token obtained elsewhere, for example by a
// browser front end that ran the consent popup itself.
type StaticToken struct {
	AccessToken string
	ExpiresIn   int
}

func (s StaticToken) Authenticate(ctx context.Context) (*Grant, error) {
	if s.AccessToken == "" {
		return nil, &AuthError{Message: "access token is empty"}
	}
	return &Grant{AccessToken: s.AccessToken, ExpiresIn: s.ExpiresIn}, nil
}

// DeviceFlow runs the OAuth device authorization grant. Prompt is called
// once with the verification URL and user code to show the user, then the
// flow polls until the user approves, denies, or the code expires.
type DeviceFlow struct {
	Config *oauth2.Config
	Prompt func(*oauth2.DeviceAuthResponse)

	now func() time.Time
}

func (d *DeviceFlow) Authenticate(ctx context.Context) (*Grant, error) {
	if d.Config == nil {
		return nil, &AuthError{Message: "oauth config is not set"}
	}

	resp, err := d.Config.DeviceAuth(ctx)
	if err != nil {
		return nil, &AuthError{Message: "device authorization request failed", Cause: err}
	}
	if d.Prompt != nil {
		d.Prompt(resp)
	}

	tok, err := d.Config.DeviceAccessToken(ctx, resp)
	if err != nil {
		return nil, &AuthError{Message: "device token exchange failed", Cause: err}
	}
	if tok.AccessToken == "" {
		return nil, &AuthError{Message: "provider returned an empty access token"}
	}

	return &Grant{AccessToken: tok.AccessToken, ExpiresIn: d.expiresIn(tok)}, nil
}

func (d *DeviceFlow) expiresIn(tok *oauth2.Token) int {
	if tok.Expiry.IsZero() {
		return 0
	}
	now := time.Now
	if d.now != nil {
		now = d.now
	}
	secs := int(tok.Expiry.Sub(now()).Seconds())
	if secs < 0 {
		return 0
	}
	return secs
}
