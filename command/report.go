package command

import (
	"context"
	"fmt"
	"maps"
	"slices"
)

// ReportPosition writes the bot's position and look direction.
func ReportPosition(ctx context.Context, robo *Robot, call *Invocation) {
	p := robo.State.Position()
	r := robo.State.Rotation()
	fmt.Fprintf(robo.Out, "position: x=%.2f y=%.2f z=%.2f yaw=%.1f pitch=%.1f\n", p.X, p.Y, p.Z, r.Yaw, r.Pitch)
}

// ReportPlayers writes the roster sorted by name.
func ReportPlayers(ctx context.Context, robo *Robot, call *Invocation) {
	roster := robo.State.Roster()
	fmt.Fprintf(robo.Out, "players: %d\n", len(roster))
	for _, name := range slices.Sorted(maps.Keys(roster)) {
		fmt.Fprintf(robo.Out, "  %s %s\n", name, roster[name])
	}
}

// ReportHealth writes the bot's health and food.
func ReportHealth(ctx context.Context, robo *Robot, call *Invocation) {
	v := robo.State.Vitals()
	fmt.Fprintf(robo.Out, "health: %.1f food: %d saturation: %.1f\n", v.Health, v.Food, v.Saturation)
}
