package pipeline

import "fmt"

// State is a step of a single run.
type State string

const (
	StateInit     State = "INIT"
	StateCollect  State = "COLLECT"
	StatePrompt   State = "PROMPT"
	StateComplete State = "COMPLETE"
	StateMail     State = "MAIL"
	StateDone     State = "DONE"
	StateFailFast State = "FAIL-FAST"
	StateSkipMail State = "SKIP-MAIL"
)

// IsTerminal reports whether the run stops in s.
func IsTerminal(s State) bool {
	switch s {
	case StateDone, StateFailFast, StateSkipMail:
		return true
	default:
		return false
	}
}

func isAllowedTransition(from, to State) bool {
	switch from {
	case StateInit:
		return to == StateCollect || to == StateFailFast
	case StateCollect:
		return to == StatePrompt || to == StateSkipMail
	case StatePrompt:
		return to == StateComplete
	case StateComplete:
		return to == StateMail || to == StateSkipMail
	case StateMail:
		return to == StateDone
	default:
		return false
	}
}

// machine tracks the current state and the path taken to reach it.
type machine struct {
	current State
	path    []State
}

func newMachine() *machine {
	return &machine{current: StateInit, path: []State{StateInit}}
}

func (m *machine) advance(to State) error {
	if !isAllowedTransition(m.current, to) {
		return fmt.Errorf("disallowed transition: %s -> %s", m.current, to)
	}
	m.current = to
	m.path = append(m.path, to)
	return nil
}

func (m *machine) Path() []State {
	out := make([]State, len(m.path))
	copy(out, m.path)
	return out
}
