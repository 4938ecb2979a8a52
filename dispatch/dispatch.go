// Package dispatch routes inbound events to the handlers subscribed to them.
//
// A Registry holds two ordered lists of inbound handlers, early and normal,
// and a separate list of observers for outbound commands. Every event is
// delivered first to the early handlers and then to the normal handlers
// subscribed to its kind or to [event.Any], each in registration order.
// Handlers run synchronously on the caller's goroutine, so the next event is
// not dispatched until every handler for the current one has returned.
package dispatch

import (
	"context"
	"fmt"
	"log/slog"
	"sync/atomic"
	"time"

	"github.com/targetedentropy/trashbag/event"
	"github.com/targetedentropy/trashbag/metrics"
)

// Handler handles an inbound event. A returned error is logged; it does not
// affect other handlers.
type Handler func(ctx context.Context, ev event.Event) error

// OutgoingHandler observes a command after it has been sent.
type OutgoingHandler func(ctx context.Context, cmd event.Command) error

// Options modify a subscription.
type Options struct {
	// Early handlers run before all normal handlers for the same event.
	Early bool
}

type entry struct {
	kind event.Kind
	fn   Handler
}

// Registry is an event dispatch registry.
// Subscriptions must all happen before the first dispatch and before Seal;
// after that the registry may be used from one dispatching goroutine and any
// number of goroutines reporting outgoing commands.
type Registry struct {
	log     *slog.Logger
	metrics *metrics.Metrics

	early    []entry
	normal   []entry
	outgoing []OutgoingHandler

	sealed atomic.Bool
}

// New creates an empty registry. If m is nil, metrics are not recorded
// anywhere visible.
func New(log *slog.Logger, m *metrics.Metrics) *Registry {
	if m == nil {
		m = metrics.Nop()
	}
	return &Registry{log: log, metrics: m}
}

// Subscribe registers h to receive events of the given kind, or every event
// if kind is [event.Any]. Panics if the registry is sealed.
func (r *Registry) Subscribe(kind event.Kind, h Handler, opts Options) {
	if r.sealed.Load() {
		panic("dispatch: subscribe after seal")
	}
	e := entry{kind: kind, fn: h}
	if opts.Early {
		r.early = append(r.early, e)
		return
	}
	r.normal = append(r.normal, e)
}

// SubscribeOutgoing registers h to observe every outbound command after it
// is sent. Panics if the registry is sealed.
func (r *Registry) SubscribeOutgoing(h OutgoingHandler) {
	if r.sealed.Load() {
		panic("dispatch: subscribe after seal")
	}
	r.outgoing = append(r.outgoing, h)
}

// Seal fixes the handler topology. Later subscriptions panic.
func (r *Registry) Seal() {
	r.sealed.Store(true)
}

// Dispatch delivers ev to its handlers. It returns once all of them have.
// Dispatch seals the registry.
func (r *Registry) Dispatch(ctx context.Context, ev event.Event) {
	r.Seal()
	k := ev.Kind()
	start := time.Now()
	r.metrics.EventsCount.Observe(1, k.String())
	for i, e := range r.early {
		if e.kind == event.Any || e.kind == k {
			r.call(ctx, "early", i, ev, e.fn)
		}
	}
	for i, e := range r.normal {
		if e.kind == event.Any || e.kind == k {
			r.call(ctx, "normal", i, ev, e.fn)
		}
	}
	r.metrics.DispatchLatency.Observe(time.Since(start).Seconds(), k.String())
}

// Outgoing delivers cmd to the outgoing observers.
func (r *Registry) Outgoing(ctx context.Context, cmd event.Command) {
	for i, h := range r.outgoing {
		err := protect(func() error { return h(ctx, cmd) })
		if err != nil {
			r.log.ErrorContext(ctx, "outgoing handler failed",
				slog.Any("err", err),
				slog.String("command", cmd.Kind().String()),
				slog.Int("handler", i),
			)
		}
	}
}

func (r *Registry) call(ctx context.Context, list string, i int, ev event.Event, h Handler) {
	err := protect(func() error { return h(ctx, ev) })
	if err == nil {
		return
	}
	r.metrics.HandlerFailures.Observe(1, ev.Kind().String())
	r.log.ErrorContext(ctx, "handler failed",
		slog.Any("err", err),
		slog.String("kind", ev.Kind().String()),
		slog.String("list", list),
		slog.Int("handler", i),
	)
}

// protect calls f, converting a panic into an error.
func protect(f func() error) (err error) {
	defer func() {
		if r := recover(); r != nil {
			err = fmt.Errorf("panic: %v", r)
		}
	}()
	return f()
}
