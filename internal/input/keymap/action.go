package keymap

import (
	"fmt"
	"strings"
)

// Action is what a node does when its key is pressed.
type Action int

const (
	// ActionNone is only used by the root node.
	ActionNone Action = iota

	// ActionEnter starts a nested chain.
	ActionEnter

	// ActionEscape replays the chain's own prefix key to the focused window.
	ActionEscape

	// ActionAbort leaves the chain without doing anything.
	ActionAbort

	// ActionExec runs the argument as a shell command.
	ActionExec

	// ActionGroup runs the argument and keeps the named group active.
	ActionGroup

	// ActionLoad reloads the configuration, optionally from a new path.
	ActionLoad
)

// actionNames holds the spelling of each action in matching order.
var actionNames = []struct {
	action Action
	name   string
}{
	{ActionEnter, ":enter"},
	{ActionEscape, ":escape"},
	{ActionAbort, ":abort"},
	{ActionExec, ":exec"},
	{ActionGroup, ":group"},
	{ActionLoad, ":load"},
}

// String returns the config spelling of the action, e.g. ":exec".
func (a Action) String() string {
	if a == ActionNone {
		return ":none"
	}
	for _, n := range actionNames {
		if n.action == a {
			return n.name
		}
	}
	return fmt.Sprintf("Action(%d)", int(a))
}

// IsTerminal returns true for actions that cannot have children.
func (a Action) IsTerminal() bool {
	return a != ActionEnter && a != ActionNone
}

// AllowedAtTopLevel reports whether a binding with this action may be
// placed directly under the root.
func (a Action) AllowedAtTopLevel() bool {
	switch a {
	case ActionEscape, ActionAbort, ActionGroup:
		return false
	default:
		return true
	}
}

// ActionLookup is the result of resolving an action token.
type ActionLookup struct {
	Action Action

	// Name is set when the token implies a group name (":repeat").
	Name string

	// Deprecated is set when the token is an old spelling.
	Deprecated string
}

// LookupAction resolves an action token by prefix, so ":ex" is ":exec".
// ":reload" is accepted for ":load" and ":repeat" for ":group \"default\"".
func LookupAction(token string) (ActionLookup, bool) {
	if len(token) < 2 || token[0] != ':' {
		return ActionLookup{}, false
	}

	switch token {
	case ":reload":
		return ActionLookup{Action: ActionLoad}, true
	case ":repeat":
		return ActionLookup{
			Action:     ActionGroup,
			Name:       DefaultName,
			Deprecated: `':repeat' is deprecated, using ':group "default"' instead`,
		}, true
	}

	for _, n := range actionNames {
		if strings.HasPrefix(n.name, token) {
			return ActionLookup{Action: n.action}, true
		}
	}
	return ActionLookup{}, false
}

// AbortMode controls how a chain reacts to keys that do not activate
// a binding.
type AbortMode int

const (
	// AbortAuto leaves the chain after any key press.
	AbortAuto AbortMode = iota

	// AbortManual stays in the chain until :abort, :escape or timeout.
	AbortManual
)

// String returns the option spelling of the mode.
func (m AbortMode) String() string {
	switch m {
	case AbortAuto:
		return "auto"
	case AbortManual:
		return "manual"
	default:
		return fmt.Sprintf("AbortMode(%d)", int(m))
	}
}

// ParseAbortMode parses "auto" or "manual".
func ParseAbortMode(s string) (AbortMode, bool) {
	switch s {
	case "auto":
		return AbortAuto, true
	case "manual":
		return AbortManual, true
	default:
		return AbortAuto, false
	}
}
