package statemachine

import (
	"fmt"
)

// Option configures a state machine during construction.
type Option func(*SimpleStateMachine) error

// TransitionOption configures a single transition with guards and actions.
type TransitionOption func(*transitionConfig)

type transitionConfig struct {
	guards  []Guard
	actions []Action
}

// New creates a new state machine with the given initial state and options.
func New(initialState State, opts ...Option) (StateMachine, error) {
	if initialState == nil {
		return nil, ErrInvalidState
	}

	sm := newSimpleStateMachine(initialState)
	for _, opt := range opts {
		if err := opt(sm); err != nil {
			return nil, err
		}
	}
	return sm, nil
}

// MustNew is like New but panics on error.
func MustNew(initialState State, opts ...Option) StateMachine {
	sm, err := New(initialState, opts...)
	if err != nil {
		panic(fmt.Sprintf("failed to create state machine: %v", err))
	}
	return sm
}

// WithTransition adds a single transition.
func WithTransition(from, to State, event Event, opts ...TransitionOption) Option {
	return func(sm *SimpleStateMachine) error {
		cfg := &transitionConfig{}
		for _, opt := range opts {
			opt(cfg)
		}
		if err := sm.AddTransition(from, to, event, cfg.guards, cfg.actions); err != nil {
			return fmt.Errorf("transition %s: %w", describe(from, to, event), err)
		}
		return nil
	}
}

// WithTransitionFrom adds the same event-driven transition from several states.
func WithTransitionFrom(froms []State, to State, event Event, opts ...TransitionOption) Option {
	return func(sm *SimpleStateMachine) error {
		for _, from := range froms {
			if err := WithTransition(from, to, event, opts...)(sm); err != nil {
				return err
			}
		}
		return nil
	}
}

// WithHook registers a callback invoked after every successful transition.
func WithHook(h Hook) Option {
	return func(sm *SimpleStateMachine) error {
		if h != nil {
			sm.hooks = append(sm.hooks, h)
		}
		return nil
	}
}

// WithGuard adds a guard to a transition.
func WithGuard(guard Guard) TransitionOption {
	return func(cfg *transitionConfig) {
		if guard != nil {
			cfg.guards = append(cfg.guards, guard)
		}
	}
}

// WithAction adds an action to a transition.
func WithAction(action Action) TransitionOption {
	return func(cfg *transitionConfig) {
		if action != nil {
			cfg.actions = append(cfg.actions, action)
		}
	}
}

func describe(from, to State, event Event) string {
	name := func(n interface{ Name() string }) string {
		if n == nil {
			return "<nil>"
		}
		return n.Name()
	}
	return fmt.Sprintf("%s->%s on %s", name(from), name(to), name(event))
}
