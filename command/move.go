package command

import (
	"context"

	"github.com/targetedentropy/trashbag/event"
)

// Respawn asks the server to respawn the bot.
func Respawn(ctx context.Context, robo *Robot, call *Invocation) {
	robo.send(ctx, event.Status{Action: event.ActionRespawn}, false)
}

// Step walks the bot two blocks along +X in two moves, keeping its current
// look direction. The session position is not changed; the server corrects
// it with a position update if it disagrees.
func Step(ctx context.Context, robo *Robot, call *Invocation) {
	p := robo.State.Position()
	r := robo.State.Rotation()
	for i := range 2 {
		m := event.Move{
			X:        p.X + float64(i+1),
			Y:        p.Y,
			Z:        p.Z,
			Yaw:      r.Yaw,
			Pitch:    r.Pitch,
			OnGround: true,
		}
		robo.send(ctx, m, true)
	}
}
