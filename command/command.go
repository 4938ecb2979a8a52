package command

import "context"

// Source is where an invocation originated.
type Source int

const (
	// Chat is an invocation from a server chat message.
	Chat Source = iota
	// Console is an invocation typed by the local operator.
	Console
)

func (s Source) String() string {
	switch s {
	case Chat:
		return "chat"
	case Console:
		return "console"
	default:
		return "invalid"
	}
}

// Invocation is a command invocation. An Invocation and its fields must not
// be modified or retained by any command.
type Invocation struct {
	// Source is where the invocation came from.
	Source Source
	// Text is the full text of the invocation as received.
	Text string
	// Sender is the display name of the participant who sent the message.
	// It is empty for console invocations.
	Sender string
	// Whisper indicates that the message was sent privately to the bot.
	Whisper bool
	// Authorized indicates whether the sender may use privileged commands.
	// Console invocations are always authorized.
	Authorized bool
}

// Func executes a command.
type Func func(ctx context.Context, robo *Robot, call *Invocation)
