package auth

import (
	"context"
	"errors"
	"fmt"
	"io"
	"net/http"
	"net/http/httptest"
	"sync"
	"testing"
	"time"

	"golang.org/x/oauth2"
)

type memStorage struct {
	v *oauth2.Token
}

func (s *memStorage) Load(ctx context.Context) (*oauth2.Token, error) {
	return s.v, nil
}

func (s *memStorage) Store(ctx context.Context, tok *oauth2.Token) error {
	s.v = tok
	return nil
}

// tokenServer is a device authorization endpoint shaped like the Microsoft
// identity platform's consumer tenant.
type tokenServer struct {
	mu sync.Mutex
	// grants counts token grants by grant_type.
	grants map[string]int
	// rejectRefresh makes refresh_token grants fail with invalid_grant.
	rejectRefresh bool
	// expiresIn is the lifetime reported for issued access tokens.
	expiresIn int
}

func (s *tokenServer) device(w http.ResponseWriter, r *http.Request) {
	w.Header().Set("Content-Type", "application/json")
	io.WriteString(w, `{"device_code":"DAQABAAEAAAD","user_code":"F7K2QXRM","verification_uri":"https://www.microsoft.com/link","expires_in":900,"interval":1,"message":"To sign in, use a web browser to open the page https://www.microsoft.com/link and enter the code F7K2QXRM to authenticate."}`)
}

func (s *tokenServer) token(w http.ResponseWriter, r *http.Request) {
	s.mu.Lock()
	defer s.mu.Unlock()
	w.Header().Set("Content-Type", "application/json")
	gt := r.FormValue("grant_type")
	if gt == "refresh_token" && s.rejectRefresh {
		w.WriteHeader(http.StatusBadRequest)
		io.WriteString(w, `{"error":"invalid_grant","error_description":"AADSTS70000: The provided grant has expired due to it being revoked."}`)
		return
	}
	s.grants[gt]++
	n := s.grants["refresh_token"] + s.grants["urn:ietf:params:oauth:grant-type:device_code"]
	fmt.Fprintf(w, `{"token_type":"Bearer","scope":"XboxLive.signin offline_access","expires_in":%d,"access_token":"EwA4A-%d","refresh_token":"M.C5-%d"}`, s.expiresIn, n, n)
}

func (s *tokenServer) count(grant string) int {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.grants[grant]
}

const deviceGrant = "urn:ietf:params:oauth:grant-type:device_code"

// newTokenFlow starts a token server and a device code flow against it.
func newTokenFlow(t *testing.T, st *memStorage) (srv *tokenServer, prompts *int, src *dcf) {
	t.Helper()
	srv = &tokenServer{grants: make(map[string]int), expiresIn: 3600}
	var mux http.ServeMux
	mux.HandleFunc("POST /consumers/oauth2/v2.0/devicecode", srv.device)
	mux.HandleFunc("POST /consumers/oauth2/v2.0/token", srv.token)
	hs := httptest.NewServer(&mux)
	t.Cleanup(hs.Close)
	cfg := oauth2.Config{
		ClientID: "00000000402b5328",
		Endpoint: oauth2.Endpoint{
			DeviceAuthURL: hs.URL + "/consumers/oauth2/v2.0/devicecode",
			TokenURL:      hs.URL + "/consumers/oauth2/v2.0/token",
		},
		Scopes: []string{"XboxLive.signin", "offline_access"},
	}
	prompts = new(int)
	prompt := func(userCode, verURI, _ string) {
		if userCode != "F7K2QXRM" || verURI != "https://www.microsoft.com/link" {
			t.Errorf("wrong prompt: %q at %q", userCode, verURI)
		}
		*prompts++
	}
	src = DeviceCodeFlow(nil, cfg, st, hs.Client(), prompt).(*dcf)
	return srv, prompts, src
}

func TestDeviceFlowFirstLogin(t *testing.T) {
	t.Parallel()
	st := new(memStorage)
	srv, prompts, src := newTokenFlow(t, st)
	tok, err := src.Token(context.Background())
	if err != nil {
		t.Fatalf("couldn't get token: %v", err)
	}
	if tok.AccessToken != "EwA4A-1" {
		t.Errorf("wrong access token: want %q, got %q", "EwA4A-1", tok.AccessToken)
	}
	if tok.RefreshToken != "M.C5-1" {
		t.Errorf("wrong refresh token: want %q, got %q", "M.C5-1", tok.RefreshToken)
	}
	if *prompts != 1 {
		t.Errorf("wrong number of prompts: want 1, got %d", *prompts)
	}
	if got := srv.count(deviceGrant); got != 1 {
		t.Errorf("wrong number of device grants: want 1, got %d", got)
	}
	if st.v != tok {
		t.Errorf("token not stored: %#v", st.v)
	}
}

func TestTokenReusedUntilExpiry(t *testing.T) {
	t.Parallel()
	ctx := context.Background()
	st := new(memStorage)
	srv, prompts, src := newTokenFlow(t, st)
	first, err := src.Token(ctx)
	if err != nil {
		t.Fatalf("couldn't get first token: %v", err)
	}
	again, err := src.Token(ctx)
	if err != nil {
		t.Fatalf("couldn't get token again: %v", err)
	}
	if again != first {
		t.Errorf("valid token was replaced: %#v", again)
	}
	first.Expiry = time.Now().Add(-time.Minute)
	renewed, err := src.Token(ctx)
	if err != nil {
		t.Fatalf("couldn't get token after expiry: %v", err)
	}
	if renewed.AccessToken != "EwA4A-2" {
		t.Errorf("wrong renewed access token: want %q, got %q", "EwA4A-2", renewed.AccessToken)
	}
	if *prompts != 1 {
		t.Errorf("renewal prompted: want 1 prompt, got %d", *prompts)
	}
	if got := srv.count("refresh_token"); got != 1 {
		t.Errorf("wrong number of refresh grants: want 1, got %d", got)
	}
}

func TestRefreshSetsExpiry(t *testing.T) {
	t.Parallel()
	cases := []struct {
		name      string
		expiresIn int
		want      time.Duration
	}{
		{"hour", 3600, time.Hour},
		{"xbox", 86400, 24 * time.Hour},
		{"none", 0, 0},
	}
	for _, c := range cases {
		t.Run(c.name, func(t *testing.T) {
			t.Parallel()
			srv, _, src := newTokenFlow(t, new(memStorage))
			srv.mu.Lock()
			srv.expiresIn = c.expiresIn
			srv.mu.Unlock()
			before := time.Now()
			tok, err := src.refreshLocked(context.Background(), "M.C5-0")
			if err != nil {
				t.Fatalf("couldn't refresh: %v", err)
			}
			after := time.Now()
			if c.want == 0 {
				if !tok.Expiry.IsZero() {
					t.Errorf("token without lifetime expires at %v", tok.Expiry)
				}
				return
			}
			if tok.Expiry.Before(before.Add(c.want)) || tok.Expiry.After(after.Add(c.want)) {
				t.Errorf("wrong expiry: want %v after %v, got %v", c.want, before, tok.Expiry)
			}
			if !tok.Valid() {
				t.Errorf("fresh token is not valid: %#v", tok)
			}
		})
	}
}

func TestRefreshKeepsRefreshToken(t *testing.T) {
	t.Parallel()
	var mux http.ServeMux
	mux.HandleFunc("POST /token", func(w http.ResponseWriter, r *http.Request) {
		w.Header().Set("Content-Type", "application/json")
		io.WriteString(w, `{"token_type":"Bearer","expires_in":3600,"access_token":"EwA4A-9"}`)
	})
	hs := httptest.NewServer(&mux)
	t.Cleanup(hs.Close)
	cfg := oauth2.Config{
		ClientID: "00000000402b5328",
		Endpoint: oauth2.Endpoint{DeviceAuthURL: hs.URL + "/device", TokenURL: hs.URL + "/token"},
	}
	src := DeviceCodeFlow(nil, cfg, new(memStorage), hs.Client(), func(string, string, string) {}).(*dcf)
	tok, err := src.refreshLocked(context.Background(), "M.C5-8")
	if err != nil {
		t.Fatalf("couldn't refresh: %v", err)
	}
	if tok.RefreshToken != "M.C5-8" {
		t.Errorf("wrong refresh token: want %q, got %q", "M.C5-8", tok.RefreshToken)
	}
}

func TestRefreshStale(t *testing.T) {
	t.Parallel()
	ctx := context.Background()
	st := new(memStorage)
	srv, prompts, src := newTokenFlow(t, st)
	first, err := src.Refresh(ctx, nil)
	if err != nil {
		t.Fatalf("couldn't get first token: %v", err)
	}
	if *prompts != 1 {
		t.Errorf("wrong number of prompts after first login: want 1, got %d", *prompts)
	}
	// Two callers observe the same rejected token.
	a, err := src.Refresh(ctx, first)
	if err != nil {
		t.Fatalf("couldn't refresh: %v", err)
	}
	b, err := src.Refresh(ctx, first)
	if err != nil {
		t.Fatalf("couldn't refresh stale token: %v", err)
	}
	if a == first {
		t.Error("refresh returned the rejected token")
	}
	if b != a {
		t.Errorf("stale refresh made a new token: want %q, got %q", a.AccessToken, b.AccessToken)
	}
	if got := srv.count("refresh_token"); got != 1 {
		t.Errorf("wrong number of refresh grants: want 1, got %d", got)
	}
	if *prompts != 1 {
		t.Errorf("refresh prompted: want 1 prompt, got %d", *prompts)
	}
}

func TestInvalidRefreshFallsBack(t *testing.T) {
	t.Parallel()
	ctx := context.Background()
	old := &oauth2.Token{AccessToken: "EwA4A-0", RefreshToken: "M.C5-0", Expiry: time.Now().Add(time.Hour)}
	st := &memStorage{v: old}
	srv, prompts, src := newTokenFlow(t, st)
	srv.mu.Lock()
	srv.rejectRefresh = true
	srv.mu.Unlock()
	if _, err := src.refreshLocked(ctx, "M.C5-0"); !errors.Is(err, errInvalidRefresh) {
		t.Errorf("wrong refresh error: want %v, got %v", errInvalidRefresh, err)
	}
	tok, err := src.Refresh(ctx, old)
	if err != nil {
		t.Fatalf("couldn't refresh: %v", err)
	}
	if tok.AccessToken != "EwA4A-1" {
		t.Errorf("wrong access token: want %q, got %q", "EwA4A-1", tok.AccessToken)
	}
	if *prompts != 1 {
		t.Errorf("invalid refresh didn't fall back to device code flow: %d prompts", *prompts)
	}
	if !Equal(st.v, tok) {
		t.Errorf("new token not stored: %#v", st.v)
	}
}
