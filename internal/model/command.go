package model

import "fmt"

// Command is the closed set of robot commands. Adding a command means
// extending this enum and the exhaustive switch in the state machine.
type Command uint8

const (
	CommandStart Command = iota
	CommandStop
	CommandReset
)

func (c Command) String() string {
	switch c {
	case CommandStart:
		return "start"
	case CommandStop:
		return "stop"
	case CommandReset:
		return "reset"
	default:
		return fmt.Sprintf("command(%d)", uint8(c))
	}
}

// ParseCommand validates a wire token against the closed command set.
// Unknown tokens are rejected here, before any state machine involvement.
func ParseCommand(name string) (Command, error) {
	switch name {
	case "start":
		return CommandStart, nil
	case "stop":
		return CommandStop, nil
	case "reset":
		return CommandReset, nil
	default:
		return 0, fmt.Errorf("invalid command %q, valid commands: start, stop, reset", name)
	}
}
