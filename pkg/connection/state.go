package connection

import (
	"context"
	"log/slog"
	"strings"

	"github.com/windlogs/notifykit/pkg/logger"
	"github.com/windlogs/notifykit/pkg/statemachine"
)

// Connection lifecycle states.
const (
	StateDisconnected = statemachine.StringState("disconnected")
	StateConnecting   = statemachine.StringState("connecting")
	StateConnected    = statemachine.StringState("connected")
)

const (
	eventDial        = statemachine.StringEvent("dial")
	eventEstablished = statemachine.StringEvent("established")
	eventFail        = statemachine.StringEvent("fail")
	eventClose       = statemachine.StringEvent("close")
)

// newLifecycle builds the connection state machine. Every Fire happens with
// m.mu held, so guards and actions may touch the manager's fields.
func (m *Manager) newLifecycle() statemachine.StateMachine {
	all := []statemachine.State{StateDisconnected, StateConnecting, StateConnected}
	resetAttempts := statemachine.WithAction(func(context.Context, statemachine.State, statemachine.State, statemachine.Event, any) error {
		m.attempts = 0
		return nil
	})

	return statemachine.MustNew(StateDisconnected,
		statemachine.WithTransitionFrom([]statemachine.State{StateDisconnected, StateConnected}, StateConnecting, eventDial,
			statemachine.WithGuard(hasIdentity),
			statemachine.WithGuard(func(context.Context, statemachine.State, statemachine.Event, any) bool {
				return !m.closed
			}),
		),
		statemachine.WithTransition(StateConnecting, StateConnected, eventEstablished, resetAttempts),
		statemachine.WithTransitionFrom([]statemachine.State{StateConnecting, StateConnected}, StateDisconnected, eventFail),
		statemachine.WithTransitionFrom(all, StateDisconnected, eventClose, resetAttempts),
		statemachine.WithHook(func(ctx context.Context, from, to statemachine.State, event statemachine.Event) {
			m.logger.Debug("connection state changed",
				slog.String("from", from.Name()),
				logger.State(to.Name()),
				slog.String("event", event.Name()),
			)
		}),
	)
}

// hasIdentity rejects dialing without someone to connect as. The event data
// is the identity.
func hasIdentity(_ context.Context, _ statemachine.State, _ statemachine.Event, data any) bool {
	identity, _ := data.(string)
	return strings.TrimSpace(identity) != ""
}
