package channel

import (
	"errors"
	"sync"

	"github.com/biwakonbu/fcode-sub005/pkg/log"
)

// State represents the connection state of a channel.
type State int

const (
	StateDisconnected State = iota
	StateConnecting
	StateReady
	StateClosed
	StateFaulted
)

// String returns a human-readable representation of the state.
func (s State) String() string {
	switch s {
	case StateDisconnected:
		return "Disconnected"
	case StateConnecting:
		return "Connecting"
	case StateReady:
		return "Ready"
	case StateClosed:
		return "Closed"
	case StateFaulted:
		return "Faulted"
	default:
		return "Unknown"
	}
}

// StateListener is called after each state transition.
// It runs synchronously on the transitioning goroutine and must not call
// back into the channel.
type StateListener func(previous, current State, reason string)

var errInvalidTransition = errors.New("channel: invalid state transition")

// stateMachine guards the connection state and validates transitions.
//
// Valid transitions:
//
//	Disconnected -> Connecting, Closed
//	Connecting   -> Ready, Faulted, Closed
//	Ready        -> Closed, Faulted
//	Closed       -> (terminal)
//	Faulted      -> (terminal; callers construct a new Channel)
type stateMachine struct {
	mu       sync.RWMutex
	state    State
	listener StateListener
	logger   log.Logger
}

func newStateMachine(logger log.Logger, listener StateListener) *stateMachine {
	return &stateMachine{
		state:    StateDisconnected,
		listener: listener,
		logger:   logger,
	}
}

// Current returns the current state.
func (m *stateMachine) Current() State {
	m.mu.RLock()
	defer m.mu.RUnlock()
	return m.state
}

// transitionTo moves to next if the transition is valid.
func (m *stateMachine) transitionTo(next State, reason string) error {
	m.mu.Lock()
	prev := m.state

	valid := false
	switch prev {
	case StateDisconnected:
		valid = next == StateConnecting || next == StateClosed
	case StateConnecting:
		valid = next == StateReady || next == StateFaulted || next == StateClosed
	case StateReady:
		valid = next == StateClosed || next == StateFaulted
	}
	if !valid {
		m.mu.Unlock()
		return errInvalidTransition
	}

	m.state = next
	m.mu.Unlock()

	// Notify outside the lock.
	if m.listener != nil {
		m.listener(prev, next, reason)
	}

	m.logger.Debug("state transition",
		log.String("from", prev.String()),
		log.String("to", next.String()),
		log.String("reason", reason),
	)
	return nil
}
