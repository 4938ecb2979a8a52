package conn

import (
	"fmt"

	"github.com/go-json-experiment/json"
	"github.com/go-json-experiment/json/jsontext"

	"github.com/targetedentropy/trashbag/event"
)

// frame is the envelope of every message in both directions.
type frame struct {
	Type    string         `json:"type"`
	Payload jsontext.Value `json:"payload,omitzero"`
}

// roster is the wire form of a roster change.
type roster struct {
	Action  string              `json:"action"`
	Entries []event.RosterEntry `json:"entries"`
}

// login is the first frame sent on a connection.
type login struct {
	Name    string `json:"name"`
	ID      string `json:"id"`
	Token   string `json:"token,omitempty"`
	Version string `json:"version"`
}

// Decode decodes one inbound frame. Frames of unknown type, and frames of
// known type whose payloads don't match it, decode to [event.Unknown] with a
// nil error. The error is non-nil only when b is not a frame at all.
func Decode(b []byte) (event.Event, error) {
	var f frame
	if err := json.Unmarshal(b, &f); err != nil {
		return nil, fmt.Errorf("couldn't decode frame: %w", err)
	}
	p := []byte(f.Payload)
	if len(p) == 0 {
		p = []byte("{}")
	}
	unknown := event.Unknown{Type: f.Type, Raw: append([]byte(nil), b...)}
	k, ok := event.ParseKind(f.Type)
	if !ok {
		return unknown, nil
	}
	var (
		ev  event.Event
		err error
	)
	switch k {
	case event.JoinNotice:
		ev, err = decodeAs[event.Join](p)
	case event.ChatMessage:
		ev, err = decodeAs[event.Chat](p)
	case event.PositionUpdate:
		ev, err = decodeAs[event.Position](p)
	case event.HealthUpdate:
		ev, err = decodeAs[event.Health](p)
	case event.RespawnNotice:
		ev, err = decodeAs[event.Respawn](p)
	case event.QueryResult:
		ev, err = decodeAs[event.Query](p)
	case event.RosterChange:
		ev, err = decodeRoster(p)
	default:
		return unknown, nil
	}
	if err != nil {
		return unknown, nil
	}
	return ev, nil
}

func decodeAs[T event.Event](p []byte) (event.Event, error) {
	var v T
	if err := json.Unmarshal(p, &v); err != nil {
		return nil, err
	}
	return v, nil
}

func decodeRoster(p []byte) (event.Event, error) {
	var r roster
	if err := json.Unmarshal(p, &r); err != nil {
		return nil, err
	}
	ev := event.Roster{Entries: r.Entries}
	switch r.Action {
	case "add":
		ev.Action = event.RosterAdd
	case "remove":
		ev.Action = event.RosterRemove
	default:
		return nil, fmt.Errorf("unknown roster action %q", r.Action)
	}
	return ev, nil
}

// Encode encodes an outbound command as a frame.
func Encode(cmd event.Command) ([]byte, error) {
	return encodeFrame(cmd.Kind().String(), cmd)
}

func encodeFrame(typ string, payload any) ([]byte, error) {
	p, err := json.Marshal(payload)
	if err != nil {
		return nil, fmt.Errorf("couldn't encode %s payload: %w", typ, err)
	}
	return json.Marshal(frame{Type: typ, Payload: p})
}
