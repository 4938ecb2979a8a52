package event

// CommandKind is the tag of an outbound command.
type CommandKind int

const (
	ChatSend CommandKind = iota
	MoveTo
	ClientStatus
)

func (k CommandKind) String() string {
	switch k {
	case ChatSend:
		return "chat_send"
	case MoveTo:
		return "move_to"
	case ClientStatus:
		return "client_status"
	default:
		return "invalid"
	}
}

// Command is a command sent to the server. Commands are values and are not
// modified after they are handed to a connection.
type Command interface {
	Kind() CommandKind
}

// Say sends a public chat message.
type Say struct {
	Text string `json:"message"`
}

// Move moves the bot to an absolute position and look.
type Move struct {
	X        float64 `json:"x"`
	Y        float64 `json:"feet_y"`
	Z        float64 `json:"z"`
	Yaw      float64 `json:"yaw"`
	Pitch    float64 `json:"pitch"`
	OnGround bool    `json:"on_ground"`
}

// Status performs a client status action.
type Status struct {
	Action int32 `json:"action_id"`
}

// ActionRespawn is the client status action that requests a respawn.
const ActionRespawn int32 = 0

func (Say) Kind() CommandKind    { return ChatSend }
func (Move) Kind() CommandKind   { return MoveTo }
func (Status) Kind() CommandKind { return ClientStatus }
