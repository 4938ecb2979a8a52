package main

import (
	"context"
	"errors"
	"io"
	"log/slog"
	"net/url"

	"golang.org/x/sync/errgroup"

	"github.com/targetedentropy/trashbag/allow"
	"github.com/targetedentropy/trashbag/auth"
	"github.com/targetedentropy/trashbag/command"
	"github.com/targetedentropy/trashbag/conn"
	"github.com/targetedentropy/trashbag/dispatch"
	"github.com/targetedentropy/trashbag/event"
	"github.com/targetedentropy/trashbag/metrics"
	"github.com/targetedentropy/trashbag/notify"
	"github.com/targetedentropy/trashbag/session"
)

// Bot is one bot session on one server.
type Bot struct {
	log *slog.Logger

	// name is the bot's own name. Chat from it is ignored.
	name string
	// server names the server in notifications.
	server string
	// listen is the HTTP API address. Empty means no API.
	listen string

	state   *session.State
	allow   *allow.List
	sink    notify.Sink
	metrics *metrics.Metrics
	conn    *conn.Conn
	robo    *command.Robot

	// dead is whether the last health update had no health left.
	// Only the dispatching goroutine uses it.
	dead bool
}

// New creates a bot for the configured server, logged in as id.
func New(log *slog.Logger, cfg *Config, id auth.Identity, sink notify.Sink) *Bot {
	m := metrics.New("trashbag")
	reg := dispatch.New(log, m)
	c := conn.New(cfg.Server.Addr, log, reg, conn.Options{
		Version: cfg.Server.Version,
		Limit:   cfg.Rate.Limiter(),
		Metrics: m,
	})
	b := newBot(log, id.Name, serverName(cfg.Server.Addr), allow.New(cfg.Allow), sink, m, c.Send)
	b.conn = c
	b.listen = cfg.HTTP.Listen
	b.register(c, cfg.Debug)
	return b
}

func newBot(log *slog.Logger, name, server string, allowed *allow.List, sink notify.Sink, m *metrics.Metrics, send func(context.Context, event.Command, bool) error) *Bot {
	state := session.New()
	return &Bot{
		log:     log,
		name:    name,
		server:  server,
		state:   state,
		allow:   allowed,
		sink:    sink,
		metrics: m,
		robo: &command.Robot{
			Log:     log,
			State:   state,
			Send:    send,
			Out:     io.Discard,
			Metrics: m,
		},
	}
}

// serverName gives the host of a server address, or the address itself if
// it has none.
func serverName(addr string) string {
	u, err := url.Parse(addr)
	if err != nil || u.Host == "" {
		return addr
	}
	return u.Host
}

// Run connects to the server and runs the session until the server closes
// the connection, ctx is canceled, or a component fails. Console input is
// read from in, and reports are written to out.
func (b *Bot) Run(ctx context.Context, id auth.Identity, in io.Reader, out io.Writer) error {
	b.robo.Out = out
	if err := b.conn.Connect(ctx, id); err != nil {
		return err
	}
	group, ctx := errgroup.WithContext(ctx)
	stop := context.AfterFunc(ctx, func() { b.conn.Close() })
	defer stop()
	group.Go(func() error {
		err := b.conn.Run(ctx)
		if err == nil {
			// Stop the other components.
			err = errSessionEnded
		}
		return err
	})
	group.Go(func() error { return b.console(ctx, in) })
	if b.listen != "" {
		group.Go(func() error { return b.api(ctx, b.listen) })
	}
	err := group.Wait()
	if errors.Is(err, errSessionEnded) || errors.Is(err, context.Canceled) {
		// Normal shutdown.
		err = nil
	}
	b.log.InfoContext(ctx, "session ended", slog.Any("err", err))
	return err
}

var errSessionEnded = errors.New("session ended")
