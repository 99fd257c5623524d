package pipeline

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestMachineHappyPath(t *testing.T) {
	m := NewMachine()
	for _, s := range []State{StateToolsChecked, StateCompiled, StateLinked, StateImaged, StateDone} {
		require.NoError(t, m.Transition(s))
	}
	assert.Equal(t, StateDone, m.Current())
	assert.Equal(t, []State{StateStart, StateToolsChecked, StateCompiled, StateLinked, StateImaged, StateDone}, m.History())
}

func TestMachineRejectsInvalidTransitions(t *testing.T) {
	tests := []struct {
		name string
		from []State
		to   State
	}{
		{"skip a stage", nil, StateCompiled},
		{"backwards", []State{StateToolsChecked, StateCompiled}, StateToolsChecked},
		{"done early", []State{StateToolsChecked}, StateDone},
		{"leave done", []State{StateToolsChecked, StateCompiled, StateLinked, StateImaged, StateDone}, StateFailed},
		{"leave failed", []State{StateFailed}, StateToolsChecked},
		{"repeat", []State{StateToolsChecked}, StateToolsChecked},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			m := NewMachine()
			for _, s := range tt.from {
				require.NoError(t, m.Transition(s))
			}
			before := m.Current()
			err := m.Transition(tt.to)
			require.ErrorIs(t, err, ErrInvalidTransition)
			assert.Equal(t, before, m.Current())
		})
	}
}

func TestFailedReachableFromEveryRunningState(t *testing.T) {
	for _, s := range []State{StateStart, StateToolsChecked, StateCompiled, StateLinked, StateImaged} {
		assert.True(t, CanTransition(s, StateFailed), "from %s", s)
	}
	assert.False(t, CanTransition(StateDone, StateFailed))
}

func TestMachineFail(t *testing.T) {
	m := NewMachine()
	require.NoError(t, m.Transition(StateToolsChecked))
	m.Fail()
	assert.Equal(t, StateFailed, m.Current())
	m.Fail()
	assert.Equal(t, []State{StateStart, StateToolsChecked, StateFailed}, m.History())

	done := NewMachine()
	for _, s := range []State{StateToolsChecked, StateCompiled, StateLinked, StateImaged, StateDone} {
		require.NoError(t, done.Transition(s))
	}
	done.Fail()
	assert.Equal(t, StateDone, done.Current())
}

func TestStateTerminal(t *testing.T) {
	assert.True(t, StateDone.Terminal())
	assert.True(t, StateFailed.Terminal())
	assert.False(t, StateLinked.Terminal())
}
