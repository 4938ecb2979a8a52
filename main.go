package main

import (
	"context"
	"errors"
	"fmt"
	"io"
	"log/slog"
	"net/http"
	"os"
	"os/signal"
	"strings"
	"time"

	"github.com/urfave/cli/v3"
	"golang.org/x/oauth2"
	"gopkg.in/natefinch/lumberjack.v2"

	"github.com/targetedentropy/trashbag/auth"
	"github.com/targetedentropy/trashbag/notify"
)

var app = cli.Command{
	Name:  "trashbag",
	Usage: "Game chat bot",

	Flags: []cli.Flag{
		&flagConfig,
		&flagLog,
		&flagLogFormat,
		&flagLogFile,
		&flagDump,
		&flagDumpUnknown,
	},
	Commands: []*cli.Command{
		{
			Name:   "whoami",
			Usage:  "Log in and print the bot's identity without joining",
			Action: cliWhoami,
		},
	},
	Action: cliRun,

	Authors: []any{
		"Targeted Entropy",
	},
	Copyright: "Copyright 2024 Targeted Entropy",
}

func main() {
	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt)
	go func() {
		<-ctx.Done()
		stop()
	}()
	err := app.Run(ctx, os.Args)
	if err != nil {
		fmt.Fprintln(os.Stderr, err)
		os.Exit(1)
	}
}

func cliRun(ctx context.Context, cmd *cli.Command) error {
	log := loggerFromFlags(cmd)
	slog.SetDefault(log)
	cfg, err := loadConfig(ctx, cmd.String("config"))
	if err != nil {
		return err
	}
	cfg.Debug.Dump = cfg.Debug.Dump || cmd.Bool("dump-packets")
	cfg.Debug.Unknown = cfg.Debug.Unknown || cmd.Bool("dump-unknown")

	a, err := authenticator(log, cfg.Auth)
	if err != nil {
		return err
	}
	id, err := a.Authenticate(ctx)
	if err != nil {
		return fmt.Errorf("couldn't log in: %w", err)
	}
	log.InfoContext(ctx, "logged in", slog.String("name", id.Name), slog.String("id", id.ID))

	var sink notify.Sink = notify.Discard{}
	if cfg.Notify.Webhook != "" {
		sink = &notify.Webhook{
			HTTP: &http.Client{Timeout: 10 * time.Second},
			URL:  cfg.Notify.Webhook,
		}
	}
	b := New(log, cfg, id, sink)
	return b.Run(ctx, id, os.Stdin, os.Stdout)
}

func cliWhoami(ctx context.Context, cmd *cli.Command) error {
	log := loggerFromFlags(cmd)
	slog.SetDefault(log)
	cfg, err := loadConfig(ctx, cmd.String("config"))
	if err != nil {
		return err
	}
	a, err := authenticator(log, cfg.Auth)
	if err != nil {
		return err
	}
	id, err := a.Authenticate(ctx)
	if err != nil {
		return fmt.Errorf("couldn't log in: %w", err)
	}
	fmt.Println(id.Name, id.ID)
	return nil
}

func loadConfig(ctx context.Context, file string) (*Config, error) {
	r, err := os.Open(file)
	if err != nil {
		return nil, fmt.Errorf("couldn't open config file: %w", err)
	}
	defer r.Close()
	cfg, _, err := Load(ctx, r)
	if err != nil {
		return nil, fmt.Errorf("couldn't load config: %w", err)
	}
	return cfg, nil
}

// authenticator creates the login method described by cfg.
func authenticator(log *slog.Logger, cfg AuthCfg) (auth.Authenticator, error) {
	if cfg.Offline {
		return auth.Offline{Name: cfg.Name}, nil
	}
	k, err := os.ReadFile(cfg.SecretFile)
	if err != nil {
		return nil, fmt.Errorf("couldn't read secret key: %w", err)
	}
	var key [auth.KeySize]byte
	domainkey(key[:], k, []byte("oauth2.account"))
	st, err := auth.NewFileAt(cfg.TokenFile, key)
	if err != nil {
		return nil, fmt.Errorf("couldn't open token storage: %w", err)
	}
	client := &http.Client{Timeout: 30 * time.Second}
	oc := oauth2.Config{
		ClientID: cfg.CID,
		Endpoint: oauth2.Endpoint{
			DeviceAuthURL: cfg.DeviceURL,
			TokenURL:      cfg.TokenURL,
		},
		Scopes: cfg.Scopes,
	}
	if oc.Endpoint.DeviceAuthURL == "" {
		return nil, errors.New("online login needs a device authorization URL")
	}
	prompt := func(userCode, verURI, verURIComplete string) {
		fmt.Fprintf(os.Stderr, "To log in, visit %s and enter the code %s\n", verURI, userCode)
	}
	return &auth.Online{
		Log:        log,
		Tokens:     auth.DeviceCodeFlow(log, oc, st, client, prompt),
		HTTP:       client,
		ProfileURL: cfg.ProfileURL,
	}, nil
}

var (
	flagConfig = cli.StringFlag{
		Name:       "config",
		Required:   true,
		Usage:      "TOML config file",
		Persistent: true,
		Action: func(ctx context.Context, cmd *cli.Command, s string) error {
			i, err := os.Stat(s)
			if err != nil {
				return err
			}
			if !i.Mode().IsRegular() {
				return errors.New("config must be a regular file")
			}
			return nil
		},
	}

	flagLog = cli.StringFlag{
		Name:       "log",
		Usage:      "Logging level, one of debug, info, warn, error",
		Value:      "info",
		Persistent: true,
		Action: func(ctx context.Context, c *cli.Command, s string) error {
			var l slog.Level
			return l.UnmarshalText([]byte(s))
		},
	}

	flagLogFormat = cli.StringFlag{
		Name:       "log-format",
		Usage:      "Logging format, either text or json",
		Value:      "text",
		Persistent: true,
		Action: func(ctx context.Context, c *cli.Command, s string) error {
			switch strings.ToLower(s) {
			case "text", "json":
				return nil
			default:
				return errors.New("unknown logging format")
			}
		},
	}

	flagLogFile = cli.StringFlag{
		Name:       "log-file",
		Usage:      "Write logs to a rotated file instead of standard error",
		Persistent: true,
	}

	flagDump = cli.BoolFlag{
		Name:  "dump-packets",
		Usage: "Log every event received and command sent",
	}

	flagDumpUnknown = cli.BoolFlag{
		Name:  "dump-unknown",
		Usage: "Include unrecognized events in --dump-packets output",
	}
)

func loggerFromFlags(cmd *cli.Command) *slog.Logger {
	var l slog.Level
	if err := l.UnmarshalText([]byte(cmd.String("log"))); err != nil {
		panic(err)
	}
	var w io.Writer = os.Stderr
	if f := cmd.String("log-file"); f != "" {
		w = &lumberjack.Logger{
			Filename:   f,
			MaxSize:    16,
			MaxBackups: 4,
			Compress:   true,
		}
	}
	var h slog.Handler
	switch strings.ToLower(cmd.String("log-format")) {
	case "text":
		h = slog.NewTextHandler(w, &slog.HandlerOptions{Level: l})
	case "json":
		h = slog.NewJSONHandler(w, &slog.HandlerOptions{Level: l})
	}
	return slog.New(h)
}
