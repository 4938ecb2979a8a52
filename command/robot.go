package command

import (
	"context"
	"io"
	"log/slog"

	"github.com/targetedentropy/trashbag/event"
	"github.com/targetedentropy/trashbag/metrics"
	"github.com/targetedentropy/trashbag/session"
)

// Robot is the bot state as is visible to commands.
type Robot struct {
	Log *slog.Logger
	// State is the session state. Commands only read it.
	State *session.State
	// Send hands a command to the server connection. When force is true the
	// command bypasses outbound pacing.
	Send func(ctx context.Context, cmd event.Command, force bool) error
	// Out receives reports for the local operator.
	Out     io.Writer
	Metrics *metrics.Metrics
}

// send sends cmd and logs a failure. There are no retries.
func (robo *Robot) send(ctx context.Context, cmd event.Command, force bool) {
	if err := robo.Send(ctx, cmd, force); err != nil {
		robo.Log.ErrorContext(ctx, "couldn't send command",
			slog.Any("err", err),
			slog.String("command", cmd.Kind().String()),
		)
	}
}
