package redis_test

import (
	"context"
	"testing"
	"time"

	"github.com/alicebob/miniredis/v2"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/windlogs/notifykit/pkg/redis"
)

func TestConnect(t *testing.T) {
	t.Parallel()

	mr := miniredis.RunT(t)

	client, err := redis.Connect(context.Background(), redis.Config{
		ConnectionURL:  "redis://" + mr.Addr() + "/0",
		RetryAttempts:  2,
		RetryInterval:  10 * time.Millisecond,
		ConnectTimeout: time.Second,
	})
	require.NoError(t, err)
	t.Cleanup(func() { _ = client.Close() })

	assert.NoError(t, redis.Probe(client, time.Second)(context.Background()))

	mr.Close()
	assert.ErrorIs(t, redis.Probe(client, time.Second)(context.Background()), redis.ErrUnhealthy)
}

func TestConnect_Errors(t *testing.T) {
	t.Parallel()

	tests := []struct {
		name string
		cfg  redis.Config
		want error
	}{
		{"empty url", redis.Config{}, redis.ErrNoURL},
		{"bad url", redis.Config{ConnectionURL: "http://nope"}, redis.ErrInvalidURL},
		{"unreachable", redis.Config{
			ConnectionURL:  "redis://127.0.0.1:1/0",
			RetryAttempts:  2,
			RetryInterval:  5 * time.Millisecond,
			ConnectTimeout: time.Second,
		}, redis.ErrNotReady},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			_, err := redis.Connect(context.Background(), tt.cfg)
			assert.ErrorIs(t, err, tt.want)
		})
	}
}

func TestConfig_Enabled(t *testing.T) {
	t.Parallel()

	assert.False(t, redis.Config{}.Enabled())
	assert.True(t, redis.Config{ConnectionURL: "redis://localhost:6379/0"}.Enabled())
}
