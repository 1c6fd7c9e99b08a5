package tools

import (
	"fmt"
	"strings"

	"todoassist/internal/task"
)

// Command is the typed form of the five task operations. Any front-end
// (LLM tool call, rule classifier, HTTP handler) reduces to one of these
// plus Args before anything touches the store.
type Command int

const (
	CommandNone Command = iota
	CommandAdd
	CommandList
	CommandComplete
	CommandUpdate
	CommandDelete
)

// Tool names as exposed to the model. They mirror the original wrapper
// functions one to one.
const (
	NameAdd      = "add_task"
	NameList     = "list_tasks"
	NameComplete = "complete_task"
	NameUpdate   = "update_task"
	NameDelete   = "delete_task"
)

func (c Command) String() string {
	switch c {
	case CommandAdd:
		return NameAdd
	case CommandList:
		return NameList
	case CommandComplete:
		return NameComplete
	case CommandUpdate:
		return NameUpdate
	case CommandDelete:
		return NameDelete
	default:
		return "none"
	}
}

// Mutating reports whether the command requires the confirmation
// handshake before execution.
func (c Command) Mutating() bool {
	switch c {
	case CommandComplete, CommandUpdate, CommandDelete:
		return true
	default:
		return false
	}
}

// ParseCommand maps a tool name back onto the enum.
func ParseCommand(name string) (Command, error) {
	switch strings.ToLower(strings.TrimSpace(name)) {
	case NameAdd:
		return CommandAdd, nil
	case NameList:
		return CommandList, nil
	case NameComplete:
		return CommandComplete, nil
	case NameUpdate:
		return CommandUpdate, nil
	case NameDelete:
		return CommandDelete, nil
	default:
		return CommandNone, fmt.Errorf("unknown tool: %s", name)
	}
}

// Args carries the arguments of one command. TaskID must always be the
// canonical full identifier.
type Args struct {
	Title       string
	Description string
	// DescriptionSet distinguishes "clear description" from "leave as is"
	// on update.
	DescriptionSet bool
	TaskID         string
	Filter         task.Filter
}
