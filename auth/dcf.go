package auth

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"log/slog"
	"net/http"
	"net/url"
	"strings"
	"sync"
	"time"

	"golang.org/x/oauth2"
)

// dcf is a token source that uses the device code flow for initial tokens.
type dcf struct {
	mu sync.Mutex

	log    *slog.Logger
	cfg    oauth2.Config
	st     Storage
	client *http.Client
	prompt DeviceCodePrompt
}

// DeviceCodePrompt asks the operator to visit a verification URI and enter
// the user code there.
type DeviceCodePrompt func(userCode, verURI, verURIComplete string)

// DeviceCodeFlow creates a TokenSource which retrieves tokens through the
// device code flow. If log is nil, nothing is logged. If client is nil,
// [http.DefaultClient] is used instead.
// prompt must be a function which prompts to navigate to the verification URI
// and enter the user code. It may be called concurrently at any time when a
// new refresh token is required.
func DeviceCodeFlow(log *slog.Logger, cfg oauth2.Config, st Storage, client *http.Client, prompt DeviceCodePrompt) TokenSource {
	if cfg.Endpoint.DeviceAuthURL == "" {
		panic("auth: device code flow without device auth url")
	}
	if client == nil {
		client = http.DefaultClient
	}
	return &dcf{
		log:    orDiscard(log),
		cfg:    cfg,
		st:     st,
		client: client,
		prompt: prompt,
	}
}

func (s *dcf) Token(ctx context.Context) (*oauth2.Token, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	tok, err := s.st.Load(ctx)
	if err != nil {
		return nil, fmt.Errorf("couldn't retrieve current token: %w", err)
	}
	if tok == nil {
		return s.flowLocked(ctx)
	}
	if !tok.Valid() {
		if tok.RefreshToken == "" {
			return s.flowLocked(ctx)
		}
		return s.refreshLocked(ctx, tok.RefreshToken)
	}
	return tok, nil
}

func (s *dcf) Refresh(ctx context.Context, old *oauth2.Token) (*oauth2.Token, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	tok, err := s.st.Load(ctx)
	if err != nil {
		return nil, fmt.Errorf("couldn't retrieve current token for refresh: %w", err)
	}
	if tok != nil {
		if !Equal(tok, old) {
			s.log.DebugContext(ctx, "token not current, won't refresh")
			return tok, nil
		}
		tok, err := s.refreshLocked(ctx, tok.RefreshToken)
		switch {
		case err == nil:
			return tok, nil
		case errors.Is(err, errInvalidRefresh):
			return s.flowLocked(ctx)
		default:
			return nil, err
		}
	}
	return s.flowLocked(ctx)
}

func (s *dcf) refreshLocked(ctx context.Context, rt string) (*oauth2.Token, error) {
	// x/oauth2 doesn't expose anything to do token refresh, so we implement
	// that manually here.
	v := url.Values{
		"client_id":     {s.cfg.ClientID},
		"client_secret": {s.cfg.ClientSecret},
		"grant_type":    {"refresh_token"},
		"refresh_token": {rt},
	}
	req, err := http.NewRequestWithContext(ctx, "POST", s.cfg.Endpoint.TokenURL, strings.NewReader(v.Encode()))
	if err != nil {
		return nil, fmt.Errorf("couldn't create token refresh request: %w", err)
	}
	req.Header.Set("Content-Type", "application/x-www-form-urlencoded")
	resp, err := s.client.Do(req)
	if err != nil {
		return nil, fmt.Errorf("token refresh failed: %w", err)
	}
	defer resp.Body.Close()
	body, err := io.ReadAll(io.LimitReader(resp.Body, 1<<20))
	if err != nil {
		return nil, fmt.Errorf("couldn't read refresh response body: %w", err)
	}
	var d struct {
		oauth2.Token
		ExpiresIn   int64  `json:"expires_in"`
		Error       string `json:"error"`
		Description string `json:"error_description"`
	}
	if err := json.Unmarshal(body, &d); err != nil {
		return nil, fmt.Errorf("couldn't decode token refresh response: %w", err)
	}
	s.log.InfoContext(ctx, "refresh response", slog.Int("status", resp.StatusCode), slog.String("error", d.Error))
	if resp.StatusCode == http.StatusBadRequest && d.Error == "invalid_grant" {
		return nil, fmt.Errorf("refresh failed: %w", errInvalidRefresh)
	}
	if resp.StatusCode != http.StatusOK {
		return nil, fmt.Errorf("refresh failed: %s %s (%s)", d.Error, d.Description, resp.Status)
	}
	tok := d.Token
	if d.ExpiresIn > 0 && tok.Expiry.IsZero() {
		tok.Expiry = time.Now().Add(time.Duration(d.ExpiresIn) * time.Second)
	}
	if tok.RefreshToken == "" {
		// Some providers only issue a refresh token with the first grant.
		tok.RefreshToken = rt
	}
	if err := s.st.Store(ctx, &tok); err != nil {
		return nil, fmt.Errorf("failed to store new token: %w", err)
	}
	return &tok, nil
}

func (s *dcf) flowLocked(ctx context.Context) (*oauth2.Token, error) {
	ctx = context.WithValue(ctx, oauth2.HTTPClient, s.client)
	resp, err := s.cfg.DeviceAuth(ctx)
	if err != nil {
		return nil, fmt.Errorf("couldn't start device code flow: %w", err)
	}
	s.log.InfoContext(ctx, "waiting for device authorization", slog.String("uri", resp.VerificationURI))
	s.prompt(resp.UserCode, resp.VerificationURI, resp.VerificationURIComplete)
	var tok *oauth2.Token
	for {
		tok, err = s.cfg.DeviceAccessToken(ctx, resp)
		if err == nil {
			break
		}
		if isPending(err) {
			select {
			case <-ctx.Done():
				return nil, ctx.Err()
			case <-time.After(pollInterval(resp)):
			}
			continue
		}
		return nil, fmt.Errorf("failed to get token from device code flow: %w", err)
	}
	if err := s.st.Store(ctx, tok); err != nil {
		return nil, fmt.Errorf("failed to store first token: %w", err)
	}
	return tok, nil
}

// isPending returns whether the error indicates that device code authorization
// is pending the user's input.
func isPending(err error) bool {
	r := new(oauth2.RetrieveError)
	if !errors.As(err, &r) {
		return false
	}
	return r.ErrorCode == "authorization_pending" || r.ErrorCode == "slow_down"
}

func pollInterval(resp *oauth2.DeviceAuthResponse) time.Duration {
	if resp.Interval <= 0 {
		return 5 * time.Second
	}
	return time.Duration(resp.Interval) * time.Second
}

// orDiscard returns log, or a logger that drops everything if log is nil.
func orDiscard(log *slog.Logger) *slog.Logger {
	if log == nil {
		return slog.New(slog.NewTextHandler(io.Discard, nil))
	}
	return log
}

var errInvalidRefresh = errors.New("invalid refresh token")
