package main

import (
	"context"
	"fmt"
	"io"
	"os"
	"strings"
	"time"

	"github.com/BurntSushi/toml"
	"golang.org/x/crypto/hkdf"
	"golang.org/x/crypto/sha3"
	"golang.org/x/time/rate"
)

// Load loads the bot's TOML configuration.
func Load(ctx context.Context, r io.Reader) (*Config, *toml.MetaData, error) {
	var cfg Config
	md, err := toml.NewDecoder(r).Decode(&cfg)
	if err != nil {
		return nil, nil, fmt.Errorf("couldn't decode config: %w", err)
	}
	expandcfg(&cfg, os.Getenv)
	return &cfg, &md, nil
}

// domainkey fills o with a key derived from k for the given domain. Panics if
// a key cannot be expanded.
func domainkey(o, k, domain []byte) []byte {
	kr := hkdf.Expand(sha3.New224, k, domain)
	if _, err := io.ReadFull(kr, o); err != nil {
		panic(err)
	}
	return o
}

// Config is the marshaled structure of the bot's configuration.
type Config struct {
	// Server is the game server to join.
	Server ServerCfg `toml:"server"`
	// Auth is how the bot logs in.
	Auth AuthCfg `toml:"auth"`
	// Allow is the list of participant ids allowed to use privileged
	// commands. An entry may hold several ids separated by commas, usually
	// from an environment variable.
	Allow []string `toml:"allow"`
	// Notify is the notification sink configuration.
	Notify NotifyCfg `toml:"notify"`
	// HTTP is the metrics and state API configuration.
	HTTP HTTPCfg `toml:"http"`
	// Rate is the pacing of outbound chat.
	Rate Rate `toml:"rate"`
	// Debug enables packet dumps.
	Debug DebugCfg `toml:"debug"`
}

// ServerCfg is the configuration for the server connection.
type ServerCfg struct {
	// Addr is the WebSocket URL of the server.
	Addr string `toml:"addr"`
	// Version is the protocol version announced at login.
	Version string `toml:"version"`
}

// AuthCfg is the configuration for logging in.
type AuthCfg struct {
	// Offline logs in with only a name, for servers that don't verify
	// accounts.
	Offline bool `toml:"offline"`
	// Name is the name used offline.
	Name string `toml:"name"`
	// CID is the OAuth2 client ID.
	CID string `toml:"cid"`
	// DeviceURL is the device authorization endpoint.
	DeviceURL string `toml:"device"`
	// TokenURL is the token endpoint.
	TokenURL string `toml:"token_url"`
	// TokenFile is the path to a file in which the bot will persist its OAuth2
	// token. It is encrypted with a key derived from the secret key.
	TokenFile string `toml:"token"`
	// SecretFile is the path to a file containing the secret key used to
	// encrypt the token file.
	SecretFile string `toml:"secret"`
	// ProfileURL is the endpoint returning the account's name and id.
	ProfileURL string `toml:"profile"`
	// Scopes are the OAuth2 scopes to request.
	Scopes []string `toml:"scopes"`
}

// NotifyCfg is the configuration for operator notifications.
type NotifyCfg struct {
	// Webhook is a chat webhook URL. If empty, notifications are discarded.
	Webhook string `toml:"webhook"`
}

// HTTPCfg is the configuration for the HTTP API.
type HTTPCfg struct {
	// Listen is the address to serve on. If empty, there is no server.
	Listen string `toml:"listen"`
}

// Rate is a rate limit configuration.
type Rate struct {
	// Every is the length of a rate limit window in seconds.
	Every float64 `toml:"every"`
	// Num is the number of sends allowed per window.
	Num int `toml:"num"`
}

// Limiter creates a limiter for the configured rate.
// If Num is not positive, the result is nil, meaning no limit.
func (r Rate) Limiter() *rate.Limiter {
	if r.Num <= 0 {
		return nil
	}
	return rate.NewLimiter(rate.Every(fseconds(r.Every)/time.Duration(r.Num)), r.Num)
}

// DebugCfg enables debug output.
type DebugCfg struct {
	// Dump logs every event received and command sent.
	Dump bool `toml:"dump"`
	// Unknown includes unrecognized events in dumps.
	Unknown bool `toml:"unknown"`
}

func fseconds(s float64) time.Duration {
	return time.Duration(s * float64(time.Second))
}

// allowIDs splits comma-separated allow entries and drops empty ones.
func allowIDs(entries []string) []string {
	var ids []string
	for _, e := range entries {
		for _, id := range strings.Split(e, ",") {
			id = strings.TrimSpace(id)
			if id != "" {
				ids = append(ids, id)
			}
		}
	}
	return ids
}

func expandcfg(cfg *Config, expand func(s string) string) {
	fields := []*string{
		&cfg.Server.Addr,
		&cfg.Server.Version,
		&cfg.Auth.Name,
		&cfg.Auth.CID,
		&cfg.Auth.DeviceURL,
		&cfg.Auth.TokenURL,
		&cfg.Auth.TokenFile,
		&cfg.Auth.SecretFile,
		&cfg.Auth.ProfileURL,
		&cfg.Notify.Webhook,
		&cfg.HTTP.Listen,
	}
	for _, f := range fields {
		*f = os.Expand(*f, expand)
	}
	for i, s := range cfg.Allow {
		cfg.Allow[i] = os.Expand(s, expand)
	}
	cfg.Allow = allowIDs(cfg.Allow)
}
