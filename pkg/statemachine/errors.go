package statemachine

import (
	"errors"
	"fmt"
)

var (
	ErrInvalidState      = errors.New("statemachine: initial state is nil")
	ErrInvalidTransition = errors.New("statemachine: transition needs from, to and event")
	ErrInvalidEvent      = errors.New("statemachine: event is nil")
	ErrNoTransition      = errors.New("statemachine: no transition for event")
	ErrRejected          = errors.New("statemachine: transition rejected by guards")
)

// TransitionError reports why Fire could not leave State on Event. It
// unwraps to ErrNoTransition or ErrRejected.
type TransitionError struct {
	State string
	Event string
	Err   error
}

func (e *TransitionError) Error() string {
	return fmt.Sprintf("%v: state %q, event %q", e.Err, e.State, e.Event)
}

func (e *TransitionError) Unwrap() error { return e.Err }
