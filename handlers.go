package main

import (
	"context"
	"fmt"
	"log/slog"

	"github.com/targetedentropy/trashbag/command"
	"github.com/targetedentropy/trashbag/dispatch"
	"github.com/targetedentropy/trashbag/event"
	"github.com/targetedentropy/trashbag/notify"
	"github.com/targetedentropy/trashbag/richtext"
)

// registrar is where the bot subscribes its listeners.
type registrar interface {
	Register(kind event.Kind, h dispatch.Handler, opts dispatch.Options)
	RegisterOutgoing(h dispatch.OutgoingHandler)
}

func (b *Bot) register(r registrar, dbg DebugCfg) {
	if dbg.Dump {
		r.Register(event.Any, b.dumpEvent(dbg.Unknown), dispatch.Options{Early: true})
		r.RegisterOutgoing(b.dumpCommand)
	}
	r.Register(event.JoinNotice, on(b.onJoin), dispatch.Options{})
	r.Register(event.ChatMessage, on(b.onChat), dispatch.Options{})
	r.Register(event.PositionUpdate, on(b.onPosition), dispatch.Options{})
	r.Register(event.RosterChange, on(b.onRoster), dispatch.Options{})
	r.Register(event.HealthUpdate, on(b.onHealth), dispatch.Options{})
	r.Register(event.RespawnNotice, on(b.onRespawn), dispatch.Options{})
	r.Register(event.QueryResult, on(b.onQuery), dispatch.Options{})
}

// on adapts a handler for one concrete event type.
func on[T event.Event](f func(context.Context, T) error) dispatch.Handler {
	return func(ctx context.Context, ev event.Event) error {
		v, ok := ev.(T)
		if !ok {
			return fmt.Errorf("unexpected %T for %v handler", ev, ev.Kind())
		}
		return f(ctx, v)
	}
}

func (b *Bot) dumpEvent(unknown bool) dispatch.Handler {
	return func(ctx context.Context, ev event.Event) error {
		if ev.Kind() == event.Unrecognized && !unknown {
			return nil
		}
		b.log.InfoContext(ctx, "-->", slog.String("kind", ev.Kind().String()), slog.Any("event", ev))
		return nil
	}
}

func (b *Bot) dumpCommand(ctx context.Context, cmd event.Command) error {
	b.log.InfoContext(ctx, "<--", slog.String("kind", cmd.Kind().String()), slog.Any("command", cmd))
	return nil
}

func (b *Bot) onJoin(ctx context.Context, j event.Join) error {
	b.log.InfoContext(ctx, "joined game",
		slog.String("server", b.server),
		slog.Int("entity", int(j.EntityID)),
		slog.String("mode", j.GameMode),
	)
	notify.Best(ctx, b.log, b.sink, "joined "+b.server)
	return nil
}

func (b *Bot) onChat(ctx context.Context, m event.Chat) error {
	msg := richtext.Parse(m.JSON)
	if msg.Class == richtext.Other {
		b.log.DebugContext(ctx, "server message", slog.String("text", richtext.Plain(m.JSON)))
		return nil
	}
	if !msg.HasSender || !msg.HasText {
		b.log.DebugContext(ctx, "incomplete chat",
			slog.String("class", msg.Class.String()),
			slog.Bool("sender", msg.HasSender),
			slog.Bool("text", msg.HasText),
		)
		return nil
	}
	if msg.Sender == b.name {
		return nil
	}
	id, known := b.state.Lookup(msg.Sender)
	call := command.Invocation{
		Source:     command.Chat,
		Text:       msg.Text,
		Sender:     msg.Sender,
		Whisper:    msg.Class == richtext.Whisper,
		Authorized: known && b.allow.Allowed(id),
	}
	b.log.InfoContext(ctx, "chat",
		slog.String("class", msg.Class.String()),
		slog.String("sender", msg.Sender),
		slog.String("text", msg.Text),
	)
	command.Do(ctx, b.robo, &call)
	return nil
}

func (b *Bot) onPosition(ctx context.Context, p event.Position) error {
	b.state.ApplyPosition(p.X, p.Y, p.Z, p.Yaw, p.Pitch)
	b.log.DebugContext(ctx, "position",
		slog.Float64("x", p.X),
		slog.Float64("y", p.Y),
		slog.Float64("z", p.Z),
	)
	return nil
}

func (b *Bot) onRoster(ctx context.Context, r event.Roster) error {
	for _, e := range r.Entries {
		switch r.Action {
		case event.RosterAdd:
			b.state.ApplyRosterAdd(e.Name, e.ID)
		case event.RosterRemove:
			b.state.ApplyRosterRemove(e.ID)
		default:
			return fmt.Errorf("unknown roster action %v", r.Action)
		}
	}
	n := b.state.Len()
	b.metrics.RosterSize.Observe(float64(n))
	b.log.DebugContext(ctx, "roster", slog.String("action", r.Action.String()), slog.Int("entries", len(r.Entries)), slog.Int("size", n))
	return nil
}

func (b *Bot) onHealth(ctx context.Context, h event.Health) error {
	b.state.ApplyHealth(h.Health, h.Food, h.Saturation)
	dead := h.Health <= 0
	if dead && !b.dead {
		b.log.WarnContext(ctx, "died")
		notify.Best(ctx, b.log, b.sink, "died on "+b.server)
	}
	b.dead = dead
	return nil
}

func (b *Bot) onRespawn(ctx context.Context, r event.Respawn) error {
	b.log.InfoContext(ctx, "respawned", slog.Int("dimension", int(r.Dimension)), slog.String("mode", r.GameMode))
	return nil
}

func (b *Bot) onQuery(ctx context.Context, q event.Query) error {
	b.log.DebugContext(ctx, "query result", slog.Int("id", int(q.ID)), slog.Any("matches", q.Matches))
	return nil
}
