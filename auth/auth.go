// Package auth logs the bot in, either offline by name or online with an
// OAuth2 account whose tokens persist in an encrypted file.
package auth

import (
	"context"

	"golang.org/x/oauth2"
)

// Identity is who the bot logs in as.
type Identity struct {
	// Name is the bot's own display name. Chat from this name is ignored.
	Name string
	// ID is the bot's participant id.
	ID string
	// Token is the access token presented at login, if any.
	Token string
}

// Authenticator produces the identity used to log in.
type Authenticator interface {
	Authenticate(ctx context.Context) (Identity, error)
}

// TokenSource is a source of OAuth2 access tokens. Its methods are safe to
// call concurrently.
type TokenSource interface {
	// Token retrieves a valid token, running the device code flow or a
	// refresh as needed. The result is non-nil if the error is nil.
	Token(ctx context.Context) (*oauth2.Token, error)
	// Refresh forces a refresh if the current token is still old in the
	// sense of [Equal]. Otherwise it returns the current token, so that
	// callers racing on the same rejected token cause one refresh.
	Refresh(ctx context.Context, old *oauth2.Token) (*oauth2.Token, error)
}

// Equal reports whether two tokens have the same access token, refresh
// token, type, and expiry.
func Equal(a, b *oauth2.Token) bool {
	if a == nil || b == nil {
		return a == b
	}
	return a.AccessToken == b.AccessToken &&
		a.TokenType == b.TokenType &&
		a.RefreshToken == b.RefreshToken &&
		a.Expiry.Equal(b.Expiry)
}
