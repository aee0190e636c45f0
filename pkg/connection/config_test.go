package connection_test

import (
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/windlogs/notifykit/pkg/connection"
)

func TestConfig_Backoff(t *testing.T) {
	t.Parallel()

	tests := []struct {
		name string
		cfg  connection.Config
		want connection.BackoffStrategy
	}{
		{
			name: "default is linear",
			cfg:  connection.Config{ReconnectInterval: 2 * time.Second},
			want: connection.LinearBackoff{Interval: 2 * time.Second},
		},
		{
			name: "linear with cap",
			cfg:  connection.Config{ReconnectBackoff: "Linear", ReconnectInterval: time.Second, ReconnectMaxInterval: 3 * time.Second},
			want: connection.LinearBackoff{Interval: time.Second, MaxInterval: 3 * time.Second},
		},
		{
			name: "exponential clamps jitter",
			cfg:  connection.Config{ReconnectBackoff: "exponential", ReconnectInterval: time.Second, ReconnectJitter: 4},
			want: connection.ExponentialBackoff{InitialInterval: time.Second, JitterFactor: 1},
		},
		{
			name: "fixed",
			cfg:  connection.Config{ReconnectBackoff: " fixed ", ReconnectInterval: 3 * time.Second},
			want: connection.FixedBackoff{Interval: 3 * time.Second},
		},
		{
			name: "fixed without interval",
			cfg:  connection.Config{ReconnectBackoff: "fixed"},
			want: connection.FixedBackoff{Interval: 2 * time.Second},
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			got, err := tt.cfg.Backoff()
			require.NoError(t, err)
			assert.Equal(t, tt.want, got)
		})
	}
}

func TestNewFromConfig_UnknownBackoff(t *testing.T) {
	t.Parallel()

	m, err := connection.NewFromConfig(&fakeDialer{}, connection.Config{ReconnectBackoff: "fibonacci"})
	assert.ErrorIs(t, err, connection.ErrUnknownBackoff)
	assert.Nil(t, m)
}
