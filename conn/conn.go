// Package conn connects the bot to a game server over a WebSocket.
package conn

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"net/http"
	"sync/atomic"

	"github.com/coder/websocket"
	"golang.org/x/time/rate"

	"github.com/targetedentropy/trashbag/auth"
	"github.com/targetedentropy/trashbag/dispatch"
	"github.com/targetedentropy/trashbag/event"
	"github.com/targetedentropy/trashbag/metrics"
)

// Options configure a Conn.
type Options struct {
	// HTTP is the client used to dial. If nil, the websocket default is used.
	HTTP *http.Client
	// Version is the protocol version announced at login.
	Version string
	// Limit paces sends that aren't forced. A nil Limit sends immediately.
	Limit *rate.Limiter
	// Metrics records sends. If nil, nothing is recorded.
	Metrics *metrics.Metrics
}

// Conn is a connection to a game server. Inbound frames are decoded and
// dispatched to the handlers registered on it, one at a time, on the
// goroutine calling Run.
type Conn struct {
	url  string
	log  *slog.Logger
	reg  *dispatch.Registry
	opts Options

	ws atomic.Pointer[websocket.Conn]
}

// New creates an unconnected Conn to the server at url.
func New(url string, log *slog.Logger, reg *dispatch.Registry, opts Options) *Conn {
	if opts.Metrics == nil {
		opts.Metrics = metrics.Nop()
	}
	return &Conn{url: url, log: log, reg: reg, opts: opts}
}

// Register subscribes h to inbound events of the given kind.
// All registration must happen before Run.
func (c *Conn) Register(kind event.Kind, h dispatch.Handler, opts dispatch.Options) {
	c.reg.Subscribe(kind, h, opts)
}

// RegisterOutgoing subscribes h to every command sent on the connection.
func (c *Conn) RegisterOutgoing(h dispatch.OutgoingHandler) {
	c.reg.SubscribeOutgoing(h)
}

// Connect dials the server and logs in as id.
func (c *Conn) Connect(ctx context.Context, id auth.Identity) error {
	var opts *websocket.DialOptions
	if c.opts.HTTP != nil {
		opts = &websocket.DialOptions{HTTPClient: c.opts.HTTP}
	}
	c.log.DebugContext(ctx, "dial server", slog.String("url", c.url))
	ws, resp, err := websocket.Dial(ctx, c.url, opts)
	if err != nil {
		if resp != nil && resp.Body != nil {
			b := make([]byte, 1024)
			n, _ := resp.Body.Read(b)
			return fmt.Errorf("couldn't connect to %s: %w (%s)", c.url, err, b[:n])
		}
		return fmt.Errorf("couldn't connect to %s: %w", c.url, err)
	}
	ws.SetReadLimit(1 << 20)
	b, err := encodeFrame("login", login{Name: id.Name, ID: id.ID, Token: id.Token, Version: c.opts.Version})
	if err != nil {
		ws.CloseNow()
		return err
	}
	if err := ws.Write(ctx, websocket.MessageText, b); err != nil {
		ws.CloseNow()
		return fmt.Errorf("couldn't send login: %w", err)
	}
	c.ws.Store(ws)
	c.log.InfoContext(ctx, "connected", slog.String("url", c.url), slog.String("name", id.Name))
	return nil
}

// Run reads and dispatches inbound events until the connection closes or
// ctx is done. A normal closure by the server returns nil.
func (c *Conn) Run(ctx context.Context) error {
	ws := c.ws.Load()
	if ws == nil {
		return errNotConnected
	}
	for {
		_, b, err := ws.Read(ctx)
		if err != nil {
			if websocket.CloseStatus(err) == websocket.StatusNormalClosure {
				c.log.InfoContext(ctx, "server closed connection")
				return nil
			}
			if ctx.Err() != nil {
				return ctx.Err()
			}
			return fmt.Errorf("couldn't read from server: %w", err)
		}
		ev, err := Decode(b)
		if err != nil {
			c.log.WarnContext(ctx, "dropped malformed frame", slog.Any("err", err), slog.Int("len", len(b)))
			continue
		}
		c.reg.Dispatch(ctx, ev)
	}
}

// Send writes cmd to the server. Unless force is set, Send first waits for
// the rate limit. Commands that are written are then reported to the
// outgoing handlers.
func (c *Conn) Send(ctx context.Context, cmd event.Command, force bool) error {
	ws := c.ws.Load()
	if ws == nil {
		return errNotConnected
	}
	if !force && c.opts.Limit != nil {
		if err := c.opts.Limit.Wait(ctx); err != nil {
			c.opts.Metrics.SendFailures.Observe(1)
			return fmt.Errorf("couldn't wait to send %s: %w", cmd.Kind(), err)
		}
	}
	b, err := Encode(cmd)
	if err != nil {
		c.opts.Metrics.SendFailures.Observe(1)
		return err
	}
	if err := ws.Write(ctx, websocket.MessageText, b); err != nil {
		c.opts.Metrics.SendFailures.Observe(1)
		return fmt.Errorf("couldn't send %s: %w", cmd.Kind(), err)
	}
	c.opts.Metrics.SentCount.Observe(1, cmd.Kind().String())
	c.reg.Outgoing(ctx, cmd)
	return nil
}

// Close closes the connection normally.
func (c *Conn) Close() error {
	ws := c.ws.Swap(nil)
	if ws == nil {
		return nil
	}
	return ws.Close(websocket.StatusNormalClosure, "")
}

var errNotConnected = errors.New("not connected")
