package connection

import (
	"context"
	"errors"
	"log/slog"
	"sync"

	"github.com/windlogs/notifykit/pkg/broadcast"
	"github.com/windlogs/notifykit/pkg/logger"
	"github.com/windlogs/notifykit/pkg/statemachine"
	"github.com/windlogs/notifykit/pkg/stomp"
)

// ConnectHook runs after a session becomes live. It is the place to set up
// subscriptions; it is called again after every reconnect.
type ConnectHook func(ctx context.Context, sess stomp.Session, identity string)

// Manager owns the single broker session of the process. It opens the
// session for an identity, publishes connectivity changes and reconnects
// with backoff after failures.
type Manager struct {
	dialer      stomp.Dialer
	backoff     BackoffStrategy
	maxAttempts int
	afterFunc   TimerFunc
	hooks       []ConnectHook
	token       func() string
	logger      *slog.Logger

	status    *broadcast.LatestBroadcaster[bool]
	lifecycle statemachine.StateMachine

	ctx    context.Context
	cancel context.CancelFunc

	mu         sync.Mutex
	identity   string
	session    stomp.Session
	attempts   int
	retry      Timer
	generation uint64
	closed     bool
}

// New creates a disconnected Manager.
func New(dialer stomp.Dialer, opts ...Option) *Manager {
	ctx, cancel := context.WithCancel(context.Background())
	m := &Manager{
		dialer:      dialer,
		backoff:     LinearBackoff{},
		maxAttempts: 5,
		afterFunc:   realAfterFunc,
		token:       func() string { return "" },
		logger:      slog.Default(),
		status:      broadcast.NewLatestBroadcaster(false),
		ctx:         ctx,
		cancel:      cancel,
	}
	for _, opt := range opts {
		opt(m)
	}
	m.logger = m.logger.With(logger.Component("connection"))
	m.lifecycle = m.newLifecycle()
	return m
}

// Connect opens a session for identity. An empty identity reuses the last
// one; with neither there is nothing to do. While an attempt is already in
// flight the call does nothing; a live session is torn down and replaced.
func (m *Manager) Connect(identity string) {
	m.mu.Lock()
	start := m.beginLocked(identity)
	m.mu.Unlock()
	start()
}

// beginLocked moves the manager into Connecting and returns the work to do
// once the lock is released.
func (m *Manager) beginLocked(identity string) func() {
	if m.lifecycle.Is(StateConnecting) {
		m.logger.Debug("connection attempt already in flight")
		return func() {}
	}

	if identity == "" {
		identity = m.identity
	}
	if !m.lifecycle.CanFire(m.ctx, eventDial, identity) {
		if !m.closed {
			m.logger.Warn("no identity to connect as")
		}
		return func() {}
	}

	m.identity = identity
	m.stopRetryLocked()

	prev := m.session
	m.session = nil
	m.generation++
	gen := m.generation

	if err := m.lifecycle.Fire(m.ctx, eventDial, identity); err != nil {
		m.logger.Error("cannot start connection attempt", logger.Error(err))
		return func() {}
	}
	if prev != nil {
		m.status.Publish(false)
	}

	return func() {
		if prev != nil {
			m.teardown(prev)
		}
		go m.activate(gen, identity)
	}
}

func (m *Manager) activate(gen uint64, identity string) {
	m.logger.Info("connecting to broker", logger.Identity(identity))

	sess, err := m.dialer.Dial(m.ctx, stomp.Credentials{Identity: identity, Token: m.token()})
	if err != nil {
		m.handleFailure(gen, err)
		return
	}

	m.mu.Lock()
	if gen != m.generation || m.closed {
		m.mu.Unlock()
		m.teardown(sess)
		return
	}
	m.session = sess
	if err := m.lifecycle.Fire(m.ctx, eventEstablished, nil); err != nil {
		m.logger.Error("unexpected lifecycle state", logger.Error(err))
	}
	m.status.Publish(true)
	m.mu.Unlock()

	m.logger.Info("connected to broker", logger.Identity(identity))

	for _, h := range m.hooks {
		h(m.ctx, sess, identity)
	}

	go m.watch(gen, sess)
}

func (m *Manager) watch(gen uint64, sess stomp.Session) {
	<-sess.Done()
	err := sess.Err()
	if errors.Is(err, stomp.ErrSessionClosed) {
		return
	}
	m.handleFailure(gen, err)
}

// handleFailure records a failed activation or an abrupt closure and
// schedules the next retry while attempts remain.
func (m *Manager) handleFailure(gen uint64, cause error) {
	m.mu.Lock()
	defer m.mu.Unlock()

	if gen != m.generation || m.closed {
		return
	}

	m.session = nil
	if err := m.lifecycle.Fire(m.ctx, eventFail, nil); err != nil {
		m.logger.Error("unexpected lifecycle state", logger.Error(err))
	}
	m.status.Publish(false)

	if m.attempts >= m.maxAttempts {
		m.logger.Error("giving up on broker connection",
			logger.Attempt(m.attempts),
			logger.Error(cause),
		)
		return
	}

	m.attempts++
	delay := m.backoff.NextInterval(m.attempts)
	m.logger.Warn("broker connection failed, scheduling reconnect",
		logger.Attempt(m.attempts),
		logger.Delay(delay),
		logger.Error(cause),
	)
	m.retry = m.afterFunc(delay, func() { m.reconnect(gen) })
}

func (m *Manager) reconnect(gen uint64) {
	m.mu.Lock()
	if gen != m.generation {
		m.mu.Unlock()
		return
	}
	m.retry = nil
	start := m.beginLocked("")
	m.mu.Unlock()
	start()
}

// Disconnect cancels any pending retry, resets the attempt counter and
// closes the live session. It is safe to call when already disconnected.
func (m *Manager) Disconnect() {
	m.mu.Lock()
	sess := m.disconnectLocked()
	m.mu.Unlock()

	if sess != nil {
		m.teardown(sess)
	}
}

func (m *Manager) disconnectLocked() stomp.Session {
	m.stopRetryLocked()
	m.generation++

	sess := m.session
	m.session = nil

	if err := m.lifecycle.Fire(m.ctx, eventClose, nil); err != nil {
		m.logger.Error("unexpected lifecycle state", logger.Error(err))
	}
	m.status.Publish(false)
	return sess
}

func (m *Manager) stopRetryLocked() {
	if m.retry != nil {
		m.retry.Stop()
		m.retry = nil
	}
}

func (m *Manager) teardown(sess stomp.Session) {
	if sess.Err() != nil {
		return
	}
	if err := sess.Close(); err != nil {
		m.logger.Debug("session close failed", logger.Error(err))
	}
}

// Send publishes body on the live session.
func (m *Manager) Send(destination, contentType string, body []byte) error {
	m.mu.Lock()
	sess, closed := m.session, m.closed
	m.mu.Unlock()

	if closed {
		return ErrClosed
	}
	if sess == nil || !m.lifecycle.Is(StateConnected) {
		return ErrNotConnected
	}
	return sess.Send(destination, contentType, body)
}

// Status subscribes to connectivity changes. The current value is delivered
// first.
func (m *Manager) Status(ctx context.Context) broadcast.Subscriber[bool] {
	return m.status.Subscribe(ctx)
}

// Connected reports whether a live session exists.
func (m *Manager) Connected() bool {
	return m.lifecycle.Is(StateConnected)
}

// State returns the current lifecycle state.
func (m *Manager) State() statemachine.State {
	return m.lifecycle.Current()
}

// Attempts returns the number of consecutive reconnection attempts made
// since the last successful connect or Disconnect.
func (m *Manager) Attempts() int {
	m.mu.Lock()
	defer m.mu.Unlock()
	return m.attempts
}

// Identity returns the identity of the last Connect call.
func (m *Manager) Identity() string {
	m.mu.Lock()
	defer m.mu.Unlock()
	return m.identity
}

// Close disconnects and releases the status stream. The manager cannot be
// reused afterwards.
func (m *Manager) Close() error {
	m.mu.Lock()
	if m.closed {
		m.mu.Unlock()
		return nil
	}
	sess := m.disconnectLocked()
	m.closed = true
	m.mu.Unlock()

	if sess != nil {
		m.teardown(sess)
	}
	m.cancel()
	return m.status.Close()
}
