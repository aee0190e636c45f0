package connection

import (
	"fmt"
	"strings"
	"time"

	"github.com/windlogs/notifykit/pkg/stomp"
)

// Reconnection delay strategies selectable through Config.
const (
	BackoffLinear      = "linear"
	BackoffExponential = "exponential"
	BackoffFixed       = "fixed"
)

// Config holds the reconnection policy.
type Config struct {
	MaxReconnectAttempts int           `env:"NOTIFY_MAX_RECONNECT_ATTEMPTS" envDefault:"5"` // Retries before giving up; 0 disables reconnection.
	ReconnectBackoff     string        `env:"NOTIFY_RECONNECT_BACKOFF" envDefault:"linear"` // linear, exponential or fixed.
	ReconnectInterval    time.Duration `env:"NOTIFY_RECONNECT_INTERVAL" envDefault:"2s"`    // Linear step, exponential initial delay or fixed delay.
	ReconnectMaxInterval time.Duration `env:"NOTIFY_RECONNECT_MAX_INTERVAL"`                // Upper bound for linear and exponential delays.
	ReconnectJitter      float64       `env:"NOTIFY_RECONNECT_JITTER"`                      // Exponential only; fraction of the delay, 0 to 1.
}

// Backoff returns the strategy selected by ReconnectBackoff.
func (c Config) Backoff() (BackoffStrategy, error) {
	switch strings.ToLower(strings.TrimSpace(c.ReconnectBackoff)) {
	case "", BackoffLinear:
		return LinearBackoff{Interval: c.ReconnectInterval, MaxInterval: c.ReconnectMaxInterval}, nil
	case BackoffExponential:
		return ExponentialBackoff{
			InitialInterval: c.ReconnectInterval,
			MaxInterval:     c.ReconnectMaxInterval,
			JitterFactor:    min(max(c.ReconnectJitter, 0), 1),
		}, nil
	case BackoffFixed:
		interval := c.ReconnectInterval
		if interval <= 0 {
			interval = 2 * time.Second
		}
		return FixedBackoff{Interval: interval}, nil
	default:
		return nil, fmt.Errorf("%w: %q", ErrUnknownBackoff, c.ReconnectBackoff)
	}
}

// NewFromConfig creates a Manager using the policy in cfg.
func NewFromConfig(dialer stomp.Dialer, cfg Config, opts ...Option) (*Manager, error) {
	backoff, err := cfg.Backoff()
	if err != nil {
		return nil, err
	}
	configOpts := []Option{
		WithMaxAttempts(cfg.MaxReconnectAttempts),
		WithBackoff(backoff),
	}
	return New(dialer, append(configOpts, opts...)...), nil
}
