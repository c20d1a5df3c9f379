package negotio

import (
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestSessionStateString(t *testing.T) {
	m := map[string]struct{}{}
	for st := sessionState(0); st < sessionState(10); st++ {
		s := st.String()
		if s == "unknown" {
			continue
		}
		_, alreadyExists := m[s]
		assert.False(t, alreadyExists)
		m[s] = struct{}{}
	}
}

func TestSessionStateSetHonorsTerminal(t *testing.T) {
	var s sessionState
	s.Set(stateDone)
	assert.Equal(t, stateDone, s.Get())

	old := s.Set(stateWaitConfirm)
	assert.Equal(t, stateDone, old)
	assert.Equal(t, stateDone, s.Get(), "terminal state must not be overwritten")
}

func TestSessionStateSetReturnsPreviousState(t *testing.T) {
	var s sessionState // zero value is stateWaitR2
	old := s.Set(stateWaitConfirm)
	assert.Equal(t, stateWaitR2, old)
	assert.Equal(t, stateWaitConfirm, s.Get())
}
