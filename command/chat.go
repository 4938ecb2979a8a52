package command

import (
	"context"
	"log/slog"

	"github.com/targetedentropy/trashbag/event"
)

// PurgeMessage is the announcement made by [Purge].
const PurgeMessage = "initiating purge..."

// Purge announces a purge in public chat.
func Purge(ctx context.Context, robo *Robot, call *Invocation) {
	robo.send(ctx, event.Say{Text: PurgeMessage}, false)
}

// Greet acknowledges a greeting whispered by an authorized participant.
// Nothing is sent to the server.
func Greet(ctx context.Context, robo *Robot, call *Invocation) {
	robo.Log.InfoContext(ctx, "received authorized whisper", slog.String("sender", call.Sender))
}

// Say sends the invocation text to public chat exactly as given.
func Say(ctx context.Context, robo *Robot, call *Invocation) {
	robo.send(ctx, event.Say{Text: call.Text}, false)
}
