package pipeline

import (
	"errors"
	"fmt"
	"slices"
)

// State is a point in the linear build lifecycle.
type State string

const (
	StateStart        State = "start"
	StateToolsChecked State = "tools_checked"
	StateCompiled     State = "compiled"
	StateLinked       State = "linked"
	StateImaged       State = "imaged"
	StateDone         State = "done"
	StateFailed       State = "failed"
)

// ErrInvalidTransition is returned for any transition the lifecycle forbids.
var ErrInvalidTransition = errors.New("invalid state transition")

var transitions = map[State][]State{
	StateStart:        {StateToolsChecked, StateFailed},
	StateToolsChecked: {StateCompiled, StateFailed},
	StateCompiled:     {StateLinked, StateFailed},
	StateLinked:       {StateImaged, StateFailed},
	StateImaged:       {StateDone, StateFailed},
}

// CanTransition reports whether from may move to to.
func CanTransition(from, to State) bool {
	return slices.Contains(transitions[from], to)
}

// Terminal reports whether s ends the lifecycle.
func (s State) Terminal() bool { return s == StateDone || s == StateFailed }

// Machine tracks the current state of one run.
type Machine struct {
	current State
	history []State
}

// NewMachine returns a machine in the start state.
func NewMachine() *Machine {
	return &Machine{current: StateStart, history: []State{StateStart}}
}

// Current returns the current state.
func (m *Machine) Current() State { return m.current }

// History returns every state visited, in order.
func (m *Machine) History() []State { return slices.Clone(m.history) }

// Transition moves to the next state or returns ErrInvalidTransition.
func (m *Machine) Transition(to State) error {
	if !CanTransition(m.current, to) {
		return fmt.Errorf("%w: %s -> %s", ErrInvalidTransition, m.current, to)
	}
	m.current = to
	m.history = append(m.history, to)
	return nil
}

// Fail moves to the failed state unless the machine already finished.
func (m *Machine) Fail() {
	if m.current.Terminal() {
		return
	}
	m.current = StateFailed
	m.history = append(m.history, StateFailed)
}
