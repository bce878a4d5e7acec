package internal_test

import (
	"context"
	"errors"
	"sync"
	"testing"
	"time"

	"github.com/stretchr/testify/require"

	"github.com/dmitrymomot/relay/internal"
)

func TestApp_Run(t *testing.T) {
	t.Parallel()

	t.Run("hooks run around the server", func(t *testing.T) {
		t.Parallel()

		var (
			mu    sync.Mutex
			calls []string
		)
		record := func(name string) func(context.Context) error {
			return func(context.Context) error {
				mu.Lock()
				defer mu.Unlock()
				calls = append(calls, name)
				return nil
			}
		}

		ctx, cancel := context.WithCancel(context.Background())
		started := make(chan struct{})

		app := internal.New()
		done := make(chan error, 1)
		go func() {
			done <- app.Run("127.0.0.1:0",
				internal.WithContext(ctx),
				internal.StartupHook(record("start")),
				internal.StartupHook(func(context.Context) error {
					close(started)
					return nil
				}),
				internal.ShutdownHook(record("stop-1")),
				internal.ShutdownHook(record("stop-2")),
				internal.ShutdownTimeout(time.Second),
			)
		}()

		<-started
		cancel()

		select {
		case err := <-done:
			require.NoError(t, err)
		case <-time.After(5 * time.Second):
			t.Fatal("server did not stop")
		}
		require.Equal(t, []string{"start", "stop-1", "stop-2"}, calls)
	})

	t.Run("failing startup hook aborts", func(t *testing.T) {
		t.Parallel()

		boom := errors.New("boom")
		err := internal.New().Run("127.0.0.1:0", internal.StartupHook(func(context.Context) error {
			return boom
		}))
		require.ErrorIs(t, err, boom)
	})

	t.Run("shutdown hook errors are joined", func(t *testing.T) {
		t.Parallel()

		ctx, cancel := context.WithCancel(context.Background())
		cancel()

		first, second := errors.New("first"), errors.New("second")
		err := internal.New().Run("127.0.0.1:0",
			internal.WithContext(ctx),
			internal.ShutdownHook(func(context.Context) error { return first }),
			internal.ShutdownHook(func(context.Context) error { return second }),
		)
		require.ErrorIs(t, err, first)
		require.ErrorIs(t, err, second)
	})
}
