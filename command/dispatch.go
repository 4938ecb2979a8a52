package command

import (
	"context"
	"log/slog"
	"regexp"
)

// Do performs the command named by the invocation's text and returns the
// name of the performed command, or the empty string if none ran.
//
// Privileged commands from unauthorized senders are dropped without any
// response. Console text which names no command, or names a command the
// console can't use, is sent to public chat verbatim. Command names match
// exactly, including case and surrounding whitespace.
func Do(ctx context.Context, robo *Robot, call *Invocation) string {
	if call.Text == "" {
		return ""
	}
	for i := range all {
		c := &all[i]
		if !c.re.MatchString(call.Text) {
			continue
		}
		if !c.ok(call) {
			if call.Source == Chat {
				robo.Log.DebugContext(ctx, "dropped command",
					slog.String("name", c.name),
					slog.String("sender", call.Sender),
					slog.Bool("authorized", call.Authorized),
				)
				return ""
			}
			break
		}
		robo.Log.InfoContext(ctx, "command",
			slog.String("name", c.name),
			slog.String("source", call.Source.String()),
			slog.String("sender", call.Sender),
		)
		if robo.Metrics != nil {
			robo.Metrics.CommandsCount.Observe(1, c.name)
		}
		c.fn(ctx, robo, call)
		return c.name
	}
	if call.Source != Console {
		return ""
	}
	if robo.Metrics != nil {
		robo.Metrics.CommandsCount.Observe(1, "say")
	}
	Say(ctx, robo, call)
	return "say"
}

type command struct {
	// name is the name of this command as used in logs and metrics.
	name string
	// re matches the entire text of an invocation of this command.
	re *regexp.Regexp
	// console and chat indicate whether the command may be invoked from the
	// respective sources. Chat invocations additionally need authorization.
	console, chat bool
	// whisper restricts chat invocations to private messages.
	whisper bool
	fn      Func
}

func (c *command) ok(call *Invocation) bool {
	switch call.Source {
	case Console:
		return c.console
	case Chat:
		return c.chat && call.Authorized && (call.Whisper || !c.whisper)
	default:
		return false
	}
}

var all = []command{
	{
		name:    "purge",
		re:      regexp.MustCompile(`^purge$`),
		console: true,
		chat:    true,
		fn:      Purge,
	},
	{
		name:    "hi",
		re:      regexp.MustCompile(`^hi$`),
		chat:    true,
		whisper: true,
		fn:      Greet,
	},
	{
		name:    "respawn",
		re:      regexp.MustCompile(`^respawn$`),
		console: true,
		fn:      Respawn,
	},
	{
		name:    "step",
		re:      regexp.MustCompile(`^(?:step|test)$`),
		console: true,
		fn:      Step,
	},
	{
		name:    "pos",
		re:      regexp.MustCompile(`^pos$`),
		console: true,
		fn:      ReportPosition,
	},
	{
		name:    "players",
		re:      regexp.MustCompile(`^players$`),
		console: true,
		fn:      ReportPlayers,
	},
	{
		name:    "health",
		re:      regexp.MustCompile(`^health$`),
		console: true,
		fn:      ReportHealth,
	},
}
