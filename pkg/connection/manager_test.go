package connection_test

import (
	"context"
	"errors"
	"sync"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/windlogs/notifykit/pkg/connection"
	"github.com/windlogs/notifykit/pkg/logger"
	"github.com/windlogs/notifykit/pkg/stomp"
)

var errRefused = errors.New("connection refused")

type fakeSession struct {
	done chan struct{}
	once sync.Once

	mu     sync.Mutex
	err    error
	closes int
	sent   []string
}

func newFakeSession() *fakeSession {
	return &fakeSession{done: make(chan struct{})}
}

func (s *fakeSession) Subscribe(string, stomp.Handler) error { return nil }

func (s *fakeSession) Send(destination, _ string, _ []byte) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	if s.err != nil {
		return stomp.ErrSessionClosed
	}
	s.sent = append(s.sent, destination)
	return nil
}

func (s *fakeSession) Done() <-chan struct{} { return s.done }

func (s *fakeSession) Err() error {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.err
}

func (s *fakeSession) Close() error {
	s.mu.Lock()
	s.closes++
	s.mu.Unlock()
	s.end(stomp.ErrSessionClosed)
	return nil
}

func (s *fakeSession) drop() {
	s.end(stomp.ErrConnectionLost)
}

func (s *fakeSession) end(err error) {
	s.once.Do(func() {
		s.mu.Lock()
		s.err = err
		s.mu.Unlock()
		close(s.done)
	})
}

func (s *fakeSession) closeCount() int {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.closes
}

// fakeDialer fails while fail is set, otherwise hands out fresh sessions.
// A non-nil gate blocks each dial until it receives a value.
type fakeDialer struct {
	mu       sync.Mutex
	fail     bool
	gate     chan struct{}
	calls    int
	creds    []stomp.Credentials
	sessions []*fakeSession
}

func (d *fakeDialer) Dial(ctx context.Context, creds stomp.Credentials) (stomp.Session, error) {
	d.mu.Lock()
	d.calls++
	d.creds = append(d.creds, creds)
	gate := d.gate
	d.mu.Unlock()

	if gate != nil {
		select {
		case <-gate:
		case <-ctx.Done():
			return nil, ctx.Err()
		}
	}

	d.mu.Lock()
	defer d.mu.Unlock()
	if d.fail {
		return nil, errRefused
	}
	s := newFakeSession()
	d.sessions = append(d.sessions, s)
	return s, nil
}

func (d *fakeDialer) setFail(v bool) {
	d.mu.Lock()
	defer d.mu.Unlock()
	d.fail = v
}

func (d *fakeDialer) callCount() int {
	d.mu.Lock()
	defer d.mu.Unlock()
	return d.calls
}

func (d *fakeDialer) lastSession() *fakeSession {
	d.mu.Lock()
	defer d.mu.Unlock()
	if len(d.sessions) == 0 {
		return nil
	}
	return d.sessions[len(d.sessions)-1]
}

type manualTimer struct {
	clock   *manualClock
	delay   time.Duration
	fn      func()
	stopped bool
	fired   bool
}

func (t *manualTimer) Stop() bool {
	t.clock.mu.Lock()
	defer t.clock.mu.Unlock()
	active := !t.stopped && !t.fired
	t.stopped = true
	return active
}

// manualClock records scheduled retries; tests fire them explicitly.
type manualClock struct {
	mu     sync.Mutex
	timers []*manualTimer
}

func (c *manualClock) AfterFunc(d time.Duration, f func()) connection.Timer {
	c.mu.Lock()
	defer c.mu.Unlock()
	t := &manualTimer{clock: c, delay: d, fn: f}
	c.timers = append(c.timers, t)
	return t
}

func (c *manualClock) scheduled() int {
	c.mu.Lock()
	defer c.mu.Unlock()
	return len(c.timers)
}

func (c *manualClock) delays() []time.Duration {
	c.mu.Lock()
	defer c.mu.Unlock()
	out := make([]time.Duration, 0, len(c.timers))
	for _, t := range c.timers {
		out = append(out, t.delay)
	}
	return out
}

func (c *manualClock) timer(i int) *manualTimer {
	c.mu.Lock()
	defer c.mu.Unlock()
	return c.timers[i]
}

// fire runs timer i unless it was stopped.
func (c *manualClock) fire(i int) bool {
	c.mu.Lock()
	t := c.timers[i]
	if t.stopped || t.fired {
		c.mu.Unlock()
		return false
	}
	t.fired = true
	c.mu.Unlock()
	t.fn()
	return true
}

func newManager(t *testing.T, d *fakeDialer, clock *manualClock, opts ...connection.Option) *connection.Manager {
	t.Helper()
	base := []connection.Option{
		connection.WithTimerFunc(clock.AfterFunc),
		connection.WithLogger(logger.Discard()),
	}
	m := connection.New(d, append(base, opts...)...)
	t.Cleanup(func() { _ = m.Close() })
	return m
}

func waitState(t *testing.T, m *connection.Manager, want string) {
	t.Helper()
	require.Eventually(t, func() bool {
		return m.State().Name() == want
	}, time.Second, 5*time.Millisecond, "state never became %s", want)
}

func TestManager_ConnectSuccess(t *testing.T) {
	t.Parallel()

	d := &fakeDialer{}
	clock := &manualClock{}

	var hookMu sync.Mutex
	var hooked []string
	m := newManager(t, d, clock,
		connection.WithTokenSource(func() string { return "tok" }),
		connection.WithConnectHook(func(_ context.Context, _ stomp.Session, identity string) {
			hookMu.Lock()
			hooked = append(hooked, identity)
			hookMu.Unlock()
		}),
	)

	assert.False(t, m.Connected())
	m.Connect("a@x.com")
	waitState(t, m, "connected")

	assert.True(t, m.Connected())
	assert.Equal(t, "a@x.com", m.Identity())
	assert.Equal(t, 0, m.Attempts())

	d.mu.Lock()
	require.Len(t, d.creds, 1)
	assert.Equal(t, stomp.Credentials{Identity: "a@x.com", Token: "tok"}, d.creds[0])
	d.mu.Unlock()

	require.Eventually(t, func() bool {
		hookMu.Lock()
		defer hookMu.Unlock()
		return len(hooked) == 1
	}, time.Second, 5*time.Millisecond)
	assert.Equal(t, "a@x.com", hooked[0])
}

func TestManager_StatusReplaysLatest(t *testing.T) {
	t.Parallel()

	d := &fakeDialer{}
	m := newManager(t, d, &manualClock{})

	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()

	first := m.Status(ctx)
	msg := <-first.Receive(ctx)
	assert.False(t, msg.Data)

	m.Connect("a@x.com")
	waitState(t, m, "connected")

	select {
	case msg := <-first.Receive(ctx):
		assert.True(t, msg.Data)
	case <-time.After(time.Second):
		t.Fatal("status change not delivered")
	}

	late := m.Status(ctx)
	select {
	case msg := <-late.Receive(ctx):
		assert.True(t, msg.Data, "late subscriber should see current status")
	case <-time.After(time.Second):
		t.Fatal("late subscriber got nothing")
	}
}

func TestManager_ConnectIsNoOpWhileInFlight(t *testing.T) {
	t.Parallel()

	gate := make(chan struct{})
	d := &fakeDialer{gate: gate}
	m := newManager(t, d, &manualClock{})

	m.Connect("a@x.com")
	require.Eventually(t, func() bool { return d.callCount() == 1 }, time.Second, 5*time.Millisecond)
	assert.Equal(t, "connecting", m.State().Name())

	m.Connect("a@x.com")
	m.Connect("b@x.com")

	close(gate)
	waitState(t, m, "connected")
	assert.Equal(t, 1, d.callCount())
	assert.Equal(t, "a@x.com", m.Identity())
}

func TestManager_LinearReconnectSchedule(t *testing.T) {
	t.Parallel()

	d := &fakeDialer{fail: true}
	clock := &manualClock{}
	m := newManager(t, d, clock)

	m.Connect("a@x.com")
	for i := range 5 {
		require.Eventually(t, func() bool { return clock.scheduled() == i+1 }, time.Second, 5*time.Millisecond)
		assert.Equal(t, i+1, m.Attempts())
		require.True(t, clock.fire(i))
	}

	// the sixth failure schedules nothing
	require.Eventually(t, func() bool { return d.callCount() == 6 }, time.Second, 5*time.Millisecond)
	waitState(t, m, "disconnected")
	time.Sleep(20 * time.Millisecond)

	assert.Equal(t, 5, clock.scheduled())
	assert.Equal(t, []time.Duration{
		2 * time.Second,
		4 * time.Second,
		6 * time.Second,
		8 * time.Second,
		10 * time.Second,
	}, clock.delays())
	assert.Equal(t, 5, m.Attempts())
	assert.False(t, m.Connected())
}

func TestManager_SuccessResetsAttempts(t *testing.T) {
	t.Parallel()

	d := &fakeDialer{fail: true}
	clock := &manualClock{}
	m := newManager(t, d, clock)

	m.Connect("a@x.com")
	require.Eventually(t, func() bool { return clock.scheduled() == 1 }, time.Second, 5*time.Millisecond)
	require.True(t, clock.fire(0))
	require.Eventually(t, func() bool { return clock.scheduled() == 2 }, time.Second, 5*time.Millisecond)
	assert.Equal(t, 2, m.Attempts())

	d.setFail(false)
	require.True(t, clock.fire(1))
	waitState(t, m, "connected")
	assert.Equal(t, 0, m.Attempts())

	// a later loss starts again from the first delay
	d.lastSession().drop()
	require.Eventually(t, func() bool { return clock.scheduled() == 3 }, time.Second, 5*time.Millisecond)
	assert.Equal(t, 2*time.Second, clock.delays()[2])
	assert.Equal(t, 1, m.Attempts())
}

func TestManager_AbruptClosureTriggersReconnect(t *testing.T) {
	t.Parallel()

	d := &fakeDialer{}
	clock := &manualClock{}
	m := newManager(t, d, clock)

	m.Connect("a@x.com")
	waitState(t, m, "connected")

	d.lastSession().drop()
	waitState(t, m, "disconnected")
	require.Eventually(t, func() bool { return clock.scheduled() == 1 }, time.Second, 5*time.Millisecond)

	require.True(t, clock.fire(0))
	waitState(t, m, "connected")
	assert.Equal(t, 2, d.callCount())
	assert.Equal(t, "a@x.com", m.Identity())
}

func TestManager_DisconnectCancelsRetry(t *testing.T) {
	t.Parallel()

	d := &fakeDialer{fail: true}
	clock := &manualClock{}
	m := newManager(t, d, clock)

	m.Connect("a@x.com")
	require.Eventually(t, func() bool { return clock.scheduled() == 1 }, time.Second, 5*time.Millisecond)

	m.Disconnect()
	assert.True(t, clock.timer(0).stopped)
	assert.Equal(t, 0, m.Attempts())
	assert.Equal(t, "disconnected", m.State().Name())

	assert.False(t, clock.fire(0))
	time.Sleep(20 * time.Millisecond)
	assert.Equal(t, 1, d.callCount())
}

func TestManager_DisconnectClosesSession(t *testing.T) {
	t.Parallel()

	d := &fakeDialer{}
	clock := &manualClock{}
	m := newManager(t, d, clock)

	m.Connect("a@x.com")
	waitState(t, m, "connected")
	sess := d.lastSession()

	m.Disconnect()
	assert.Equal(t, 1, sess.closeCount())
	assert.False(t, m.Connected())

	// deliberate close must not schedule a retry
	time.Sleep(20 * time.Millisecond)
	assert.Equal(t, 0, clock.scheduled())

	m.Disconnect()
	assert.Equal(t, 1, sess.closeCount())
}

func TestManager_ConnectReplacesLiveSession(t *testing.T) {
	t.Parallel()

	d := &fakeDialer{}
	m := newManager(t, d, &manualClock{})

	m.Connect("a@x.com")
	waitState(t, m, "connected")
	old := d.lastSession()

	m.Connect("b@x.com")
	require.Eventually(t, func() bool { return d.callCount() == 2 }, time.Second, 5*time.Millisecond)
	waitState(t, m, "connected")

	assert.Equal(t, 1, old.closeCount())
	assert.Equal(t, "b@x.com", m.Identity())
	assert.NotSame(t, old, d.lastSession())
}

func TestManager_StaleDialIsDiscarded(t *testing.T) {
	t.Parallel()

	gate := make(chan struct{})
	d := &fakeDialer{gate: gate}
	m := newManager(t, d, &manualClock{})

	m.Connect("a@x.com")
	require.Eventually(t, func() bool { return d.callCount() == 1 }, time.Second, 5*time.Millisecond)

	m.Disconnect()
	close(gate)

	require.Eventually(t, func() bool {
		s := d.lastSession()
		return s != nil && s.closeCount() == 1
	}, time.Second, 5*time.Millisecond)
	assert.Equal(t, "disconnected", m.State().Name())
}

func TestManager_Send(t *testing.T) {
	t.Parallel()

	d := &fakeDialer{}
	m := newManager(t, d, &manualClock{})

	err := m.Send("/app/notification.send", "application/json", []byte(`{}`))
	assert.ErrorIs(t, err, connection.ErrNotConnected)

	m.Connect("a@x.com")
	waitState(t, m, "connected")

	require.NoError(t, m.Send("/app/notification.send", "application/json", []byte(`{}`)))
	assert.Equal(t, []string{"/app/notification.send"}, d.lastSession().sent)

	require.NoError(t, m.Close())
	assert.ErrorIs(t, m.Send("/app/notification.send", "", nil), connection.ErrClosed)
}

func TestManager_ZeroAttemptsNeverRetries(t *testing.T) {
	t.Parallel()

	d := &fakeDialer{fail: true}
	clock := &manualClock{}
	m := newManager(t, d, clock, connection.WithMaxAttempts(0))

	m.Connect("a@x.com")
	require.Eventually(t, func() bool { return d.callCount() == 1 }, time.Second, 5*time.Millisecond)
	waitState(t, m, "disconnected")
	time.Sleep(20 * time.Millisecond)
	assert.Equal(t, 0, clock.scheduled())
}

func TestManager_ConnectWithoutIdentity(t *testing.T) {
	t.Parallel()

	d := &fakeDialer{}
	m := newManager(t, d, &manualClock{})

	m.Connect("")
	m.Connect("   ")
	time.Sleep(20 * time.Millisecond)

	assert.Equal(t, 0, d.callCount())
	assert.Equal(t, "disconnected", m.State().Name())
}

func TestManager_ConnectAfterCloseIsIgnored(t *testing.T) {
	t.Parallel()

	d := &fakeDialer{}
	m := newManager(t, d, &manualClock{})
	require.NoError(t, m.Close())

	m.Connect("a@x.com")
	time.Sleep(20 * time.Millisecond)

	assert.Equal(t, 0, d.callCount())
	assert.False(t, m.Connected())
}

func TestManager_ExponentialScheduleFromConfig(t *testing.T) {
	t.Parallel()

	d := &fakeDialer{fail: true}
	clock := &manualClock{}
	m, err := connection.NewFromConfig(d, connection.Config{
		MaxReconnectAttempts: 4,
		ReconnectBackoff:     connection.BackoffExponential,
		ReconnectInterval:    time.Second,
		ReconnectMaxInterval: 5 * time.Second,
	},
		connection.WithTimerFunc(clock.AfterFunc),
		connection.WithLogger(logger.Discard()),
	)
	require.NoError(t, err)
	t.Cleanup(func() { _ = m.Close() })

	m.Connect("a@x.com")
	for i := range 4 {
		require.Eventually(t, func() bool { return clock.scheduled() == i+1 }, time.Second, 5*time.Millisecond)
		require.True(t, clock.fire(i))
	}
	require.Eventually(t, func() bool { return d.callCount() == 5 }, time.Second, 5*time.Millisecond)
	waitState(t, m, "disconnected")

	assert.Equal(t, []time.Duration{
		time.Second,
		2 * time.Second,
		4 * time.Second,
		5 * time.Second,
	}, clock.delays())
}
