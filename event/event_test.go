package event_test

import (
	"testing"

	"github.com/targetedentropy/trashbag/event"
)

func TestKindNames(t *testing.T) {
	cases := []struct {
		kind event.Kind
		name string
		ok   bool
	}{
		{event.JoinNotice, "join", true},
		{event.ChatMessage, "chat", true},
		{event.PositionUpdate, "position", true},
		{event.RosterChange, "roster", true},
		{event.HealthUpdate, "health", true},
		{event.RespawnNotice, "respawn", true},
		{event.QueryResult, "query", true},
		{event.Unrecognized, "unrecognized", true},
	}
	for _, c := range cases {
		t.Run(c.name, func(t *testing.T) {
			if got := c.kind.String(); got != c.name {
				t.Errorf("wrong name: want %q, got %q", c.name, got)
			}
			k, ok := event.ParseKind(c.name)
			if k != c.kind || ok != c.ok {
				t.Errorf("wrong parse: want %v/%t, got %v/%t", c.kind, c.ok, k, ok)
			}
		})
	}
}

func TestParseKindRejects(t *testing.T) {
	for _, s := range []string{"", "any", "keep_alive", "CHAT"} {
		k, ok := event.ParseKind(s)
		if ok || k != event.Unrecognized {
			t.Errorf("%q parsed as %v/%t", s, k, ok)
		}
	}
	if got := event.Kind(99).String(); got != "invalid" {
		t.Errorf("out of range kind named %q", got)
	}
}

func TestEventKinds(t *testing.T) {
	cases := []struct {
		ev   event.Event
		want event.Kind
	}{
		{event.Join{}, event.JoinNotice},
		{event.Chat{}, event.ChatMessage},
		{event.Position{}, event.PositionUpdate},
		{event.Roster{}, event.RosterChange},
		{event.Health{}, event.HealthUpdate},
		{event.Respawn{}, event.RespawnNotice},
		{event.Query{}, event.QueryResult},
		{event.Unknown{}, event.Unrecognized},
	}
	for _, c := range cases {
		if got := c.ev.Kind(); got != c.want {
			t.Errorf("%T has kind %v, want %v", c.ev, got, c.want)
		}
	}
}
