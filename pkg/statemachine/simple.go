package statemachine

import (
	"context"
	"fmt"
	"sync"
)

// SimpleStateMachine is a thread-safe in-memory state machine.
// Transitions are indexed as [fromState][event][]Transition.
type SimpleStateMachine struct {
	currentState State
	transitions  map[string]map[string][]Transition
	hooks        []Hook
	mu           sync.RWMutex
}

func newSimpleStateMachine(initialState State) *SimpleStateMachine {
	return &SimpleStateMachine{
		currentState: initialState,
		transitions:  make(map[string]map[string][]Transition),
	}
}

func (sm *SimpleStateMachine) Current() State {
	sm.mu.RLock()
	defer sm.mu.RUnlock()
	return sm.currentState
}

// Is reports whether the machine is currently in state.
func (sm *SimpleStateMachine) Is(state State) bool {
	if state == nil {
		return false
	}
	return sm.Current().Name() == state.Name()
}

func (sm *SimpleStateMachine) AddTransition(from, to State, event Event, guards []Guard, actions []Action) error {
	if from == nil || to == nil || event == nil {
		return ErrInvalidTransition
	}

	sm.mu.Lock()
	defer sm.mu.Unlock()

	byEvent, ok := sm.transitions[from.Name()]
	if !ok {
		byEvent = make(map[string][]Transition)
		sm.transitions[from.Name()] = byEvent
	}

	// Several transitions per from/event pair allow guard-based branching.
	byEvent[event.Name()] = append(byEvent[event.Name()], Transition{
		From:    from,
		To:      to,
		Event:   event,
		Guards:  guards,
		Actions: actions,
	})
	return nil
}

func (sm *SimpleStateMachine) Fire(ctx context.Context, event Event, data any) error {
	if event == nil {
		return ErrInvalidEvent
	}

	sm.mu.Lock()
	from := sm.currentState
	t, err := sm.match(ctx, event, data)
	if err != nil {
		sm.mu.Unlock()
		return err
	}

	for _, action := range t.Actions {
		if action == nil {
			continue
		}
		if err := action(ctx, from, t.To, event, data); err != nil {
			sm.mu.Unlock()
			return fmt.Errorf("action failed: %w", err)
		}
	}

	sm.currentState = t.To
	hooks := sm.hooks
	sm.mu.Unlock()

	for _, h := range hooks {
		h(ctx, from, t.To, event)
	}
	return nil
}

func (sm *SimpleStateMachine) CanFire(ctx context.Context, event Event, data any) bool {
	if event == nil {
		return false
	}

	sm.mu.RLock()
	defer sm.mu.RUnlock()

	_, err := sm.match(ctx, event, data)
	return err == nil
}

// match returns the first transition from the current state whose guards pass.
// The caller must hold sm.mu.
func (sm *SimpleStateMachine) match(ctx context.Context, event Event, data any) (*Transition, error) {
	stateName := sm.currentState.Name()
	candidates := sm.transitions[stateName][event.Name()]
	if len(candidates) == 0 {
		return nil, &TransitionError{State: stateName, Event: event.Name(), Err: ErrNoTransition}
	}

	for i := range candidates {
		if sm.guardsPass(ctx, candidates[i], event, data) {
			return &candidates[i], nil
		}
	}
	return nil, &TransitionError{State: stateName, Event: event.Name(), Err: ErrRejected}
}

func (sm *SimpleStateMachine) guardsPass(ctx context.Context, t Transition, event Event, data any) bool {
	for _, guard := range t.Guards {
		if guard != nil && !guard(ctx, sm.currentState, event, data) {
			return false
		}
	}
	return true
}
