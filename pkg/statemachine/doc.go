// Package statemachine implements a small thread-safe finite state machine.
//
// Transitions are declared up front with functional options; Fire moves the
// machine along a matching transition after its guards pass and its actions
// succeed, then notifies registered hooks.
//
//	const (
//		Idle    = statemachine.StringState("idle")
//		Running = statemachine.StringState("running")
//		Start   = statemachine.StringEvent("start")
//	)
//
//	sm := statemachine.MustNew(Idle,
//		statemachine.WithTransition(Idle, Running, Start),
//	)
//	err := sm.Fire(ctx, Start, nil)
//
// Fire returns a *TransitionError wrapping ErrNoTransition when the current
// state has no transition for the event, or ErrRejected when every guard
// refused it.
package statemachine
