package auth

import (
	"context"
	"crypto/md5"
	"errors"
	"fmt"
	"io"
	"log/slog"
	"net/http"

	"github.com/go-json-experiment/json"
	"github.com/google/uuid"
)

// Offline authenticates without a token for servers that don't verify
// accounts.
type Offline struct {
	Name string
}

// Authenticate returns the offline identity for o.Name.
func (o Offline) Authenticate(ctx context.Context) (Identity, error) {
	if o.Name == "" {
		return Identity{}, errors.New("offline login needs a name")
	}
	return Identity{Name: o.Name, ID: OfflineID(o.Name).String()}, nil
}

// OfflineID derives the id a server assigns to an unverified player name.
// It is a version 3 UUID over the MD5 of "OfflinePlayer:" and the name,
// with no namespace.
func OfflineID(name string) uuid.UUID {
	h := md5.Sum([]byte("OfflinePlayer:" + name))
	h[6] = h[6]&0x0f | 0x30
	h[8] = h[8]&0x3f | 0x80
	return uuid.UUID(h)
}

// Online authenticates with an OAuth2 access token and looks up the account
// profile it belongs to.
type Online struct {
	// Log receives login progress. If nil, nothing is logged.
	Log *slog.Logger
	// Tokens supplies access tokens.
	Tokens TokenSource
	// HTTP is the client used for profile requests.
	// If nil, [http.DefaultClient] is used.
	HTTP *http.Client
	// ProfileURL is the endpoint returning the account's name and id.
	ProfileURL string
}

// Authenticate obtains a token and fetches the profile. If the profile
// endpoint rejects the token, it is refreshed once.
func (o *Online) Authenticate(ctx context.Context) (Identity, error) {
	tok, err := o.Tokens.Token(ctx)
	if err != nil {
		return Identity{}, fmt.Errorf("couldn't get access token: %w", err)
	}
	p, err := o.profile(ctx, tok.AccessToken)
	if errors.Is(err, errUnauthorized) {
		orDiscard(o.Log).InfoContext(ctx, "profile request unauthorized, refreshing token")
		tok, err = o.Tokens.Refresh(ctx, tok)
		if err != nil {
			return Identity{}, fmt.Errorf("couldn't refresh access token: %w", err)
		}
		p, err = o.profile(ctx, tok.AccessToken)
	}
	if err != nil {
		return Identity{}, err
	}
	id, err := uuid.Parse(p.ID)
	if err != nil {
		return Identity{}, fmt.Errorf("profile has malformed id %q: %w", p.ID, err)
	}
	if p.Name == "" {
		return Identity{}, errors.New("profile has no name")
	}
	return Identity{Name: p.Name, ID: id.String(), Token: tok.AccessToken}, nil
}

type profile struct {
	ID   string `json:"id"`
	Name string `json:"name"`
}

func (o *Online) profile(ctx context.Context, access string) (*profile, error) {
	client := o.HTTP
	if client == nil {
		client = http.DefaultClient
	}
	req, err := http.NewRequestWithContext(ctx, "GET", o.ProfileURL, nil)
	if err != nil {
		return nil, fmt.Errorf("couldn't create profile request: %w", err)
	}
	req.Header.Set("Authorization", "Bearer "+access)
	req.Header.Set("Accept", "application/json")
	resp, err := client.Do(req)
	if err != nil {
		return nil, fmt.Errorf("profile request failed: %w", err)
	}
	defer resp.Body.Close()
	body, err := io.ReadAll(io.LimitReader(resp.Body, 1<<20))
	if err != nil {
		return nil, fmt.Errorf("couldn't read profile response: %w", err)
	}
	switch {
	case resp.StatusCode == http.StatusUnauthorized:
		return nil, errUnauthorized
	case resp.StatusCode != http.StatusOK:
		return nil, fmt.Errorf("profile request failed: %s", resp.Status)
	}
	var p profile
	if err := json.Unmarshal(body, &p); err != nil {
		return nil, fmt.Errorf("couldn't decode profile: %w", err)
	}
	return &p, nil
}

var errUnauthorized = errors.New("unauthorized")
