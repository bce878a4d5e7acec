package redis_test

import (
	"context"
	"errors"
	"testing"
	"time"

	"github.com/stretchr/testify/require"

	"github.com/dmitrymomot/relay/pkg/redis"
)

type closer struct{ closed bool }

func (c *closer) Close() error {
	c.closed = true
	return nil
}

func TestOpen_Validation(t *testing.T) {
	t.Parallel()
	ctx := context.Background()

	t.Run("empty url", func(t *testing.T) {
		t.Parallel()
		client, err := redis.Open(ctx, "")
		require.ErrorIs(t, err, redis.ErrEmptyConnectionURL)
		require.Nil(t, client)
	})

	for _, url := range []string{"http://localhost:6379", "localhost:6379", "postgres://localhost"} {
		t.Run(url, func(t *testing.T) {
			t.Parallel()
			client, err := redis.Open(ctx, url)
			require.ErrorIs(t, err, redis.ErrFailedToParseURL)
			require.Nil(t, client)
		})
	}

	t.Run("unreachable server", func(t *testing.T) {
		t.Parallel()
		client, err := redis.Open(ctx, "redis://127.0.0.1:1/0",
			redis.WithRetry(2, time.Millisecond),
			redis.WithTimeouts(50*time.Millisecond, 0, 0),
		)
		require.ErrorIs(t, err, redis.ErrConnectionFailed)
		require.Nil(t, client)
	})

	t.Run("cancelled while retrying", func(t *testing.T) {
		t.Parallel()
		ctx, cancel := context.WithCancel(ctx)
		cancel()
		_, err := redis.Connect(ctx, redis.Config{URL: "redis://127.0.0.1:1/0", RetryAttempts: 3, RetryInterval: time.Second})
		require.ErrorIs(t, err, redis.ErrConnectionFailed)
	})
}

func TestHealthcheck(t *testing.T) {
	t.Parallel()

	err := redis.Healthcheck(nil)(context.Background())
	require.True(t, errors.Is(err, redis.ErrHealthcheckFailed))
}

func TestShutdown(t *testing.T) {
	t.Parallel()

	c := &closer{}
	require.NoError(t, redis.Shutdown(c)(context.Background()))
	require.True(t, c.closed)
	require.NoError(t, redis.Shutdown(nil)(context.Background()))
}
