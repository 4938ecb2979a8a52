// Package event defines the events received from a game server and the
// commands sent back to it.
package event

// Kind is the tag of an inbound event.
type Kind int

const (
	// Any matches every inbound event. It is only meaningful for
	// subscriptions; no event has kind Any.
	Any Kind = iota
	JoinNotice
	ChatMessage
	PositionUpdate
	RosterChange
	HealthUpdate
	RespawnNotice
	QueryResult
	Unrecognized
)

var kindNames = [...]string{
	Any:            "any",
	JoinNotice:     "join",
	ChatMessage:    "chat",
	PositionUpdate: "position",
	RosterChange:   "roster",
	HealthUpdate:   "health",
	RespawnNotice:  "respawn",
	QueryResult:    "query",
	Unrecognized:   "unrecognized",
}

func (k Kind) String() string {
	if k < 0 || int(k) >= len(kindNames) {
		return "invalid"
	}
	return kindNames[k]
}

// ParseKind returns the kind with the given name.
// Unknown names give Unrecognized and false.
func ParseKind(s string) (Kind, bool) {
	for k, n := range kindNames {
		if k != int(Any) && n == s {
			return Kind(k), true
		}
	}
	return Unrecognized, false
}

// Event is an event received from the server.
type Event interface {
	Kind() Kind
}

// Join is sent once the server has accepted the session.
type Join struct {
	EntityID  int32  `json:"entity_id"`
	GameMode  string `json:"game_mode"`
	Dimension int32  `json:"dimension"`
}

// Chat is a chat message. JSON is the raw rich-text payload.
type Chat struct {
	JSON     string `json:"json_data"`
	Position int8   `json:"position"`
}

// Position is an authoritative position and look update for the bot.
type Position struct {
	X          float64 `json:"x"`
	Y          float64 `json:"y"`
	Z          float64 `json:"z"`
	Yaw        float64 `json:"yaw"`
	Pitch      float64 `json:"pitch"`
	TeleportID int32   `json:"teleport_id"`
}

// RosterAction is the change a Roster event applies.
type RosterAction int

const (
	RosterAdd RosterAction = iota
	RosterRemove
)

func (a RosterAction) String() string {
	switch a {
	case RosterAdd:
		return "add"
	case RosterRemove:
		return "remove"
	default:
		return "invalid"
	}
}

// RosterEntry is one participant in a roster change.
// Name may be empty for removals.
type RosterEntry struct {
	Name string `json:"name"`
	ID   string `json:"id"`
}

// Roster is a change to the set of connected participants.
type Roster struct {
	Action  RosterAction
	Entries []RosterEntry
}

// Health is the bot's health and food status.
type Health struct {
	Health     float64 `json:"health"`
	Food       int     `json:"food"`
	Saturation float64 `json:"food_saturation"`
}

// Respawn is sent when the bot respawns or changes dimension.
type Respawn struct {
	Dimension int32  `json:"dimension"`
	GameMode  string `json:"game_mode"`
}

// Query is the server's answer to a completion query.
type Query struct {
	ID      int32    `json:"id"`
	Matches []string `json:"matches"`
}

// Unknown is an event the decoder does not understand.
type Unknown struct {
	Type string
	Raw  []byte
}

func (Join) Kind() Kind     { return JoinNotice }
func (Chat) Kind() Kind     { return ChatMessage }
func (Position) Kind() Kind { return PositionUpdate }
func (Roster) Kind() Kind   { return RosterChange }
func (Health) Kind() Kind   { return HealthUpdate }
func (Respawn) Kind() Kind  { return RespawnNotice }
func (Query) Kind() Kind    { return QueryResult }
func (Unknown) Kind() Kind  { return Unrecognized }
