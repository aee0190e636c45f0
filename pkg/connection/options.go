package connection

import (
	"log/slog"
)

// Option configures a Manager.
type Option func(*Manager)

// WithLogger sets the logger. Defaults to slog.Default().
func WithLogger(l *slog.Logger) Option {
	return func(m *Manager) {
		if l != nil {
			m.logger = l
		}
	}
}

// WithBackoff replaces the reconnection delay strategy.
func WithBackoff(b BackoffStrategy) Option {
	return func(m *Manager) {
		if b != nil {
			m.backoff = b
		}
	}
}

// WithMaxAttempts caps consecutive reconnection attempts. Zero disables them.
func WithMaxAttempts(n int) Option {
	return func(m *Manager) {
		m.maxAttempts = max(n, 0)
	}
}

// WithTimerFunc replaces time.AfterFunc for scheduling retries.
func WithTimerFunc(f TimerFunc) Option {
	return func(m *Manager) {
		if f != nil {
			m.afterFunc = f
		}
	}
}

// WithConnectHook registers a callback invoked after every successful activation.
func WithConnectHook(h ConnectHook) Option {
	return func(m *Manager) {
		if h != nil {
			m.hooks = append(m.hooks, h)
		}
	}
}

// WithTokenSource supplies the bearer token used for each dial.
func WithTokenSource(f func() string) Option {
	return func(m *Manager) {
		if f != nil {
			m.token = f
		}
	}
}
