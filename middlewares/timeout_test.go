package middlewares_test

import (
	"context"
	"errors"
	"net/http"
	"testing"
	"time"

	"github.com/stretchr/testify/require"

	"github.com/dmitrymomot/relay/internal"
	"github.com/dmitrymomot/relay/middlewares"
)

func TestTimeout(t *testing.T) {
	t.Parallel()

	t.Run("fast handler", func(t *testing.T) {
		t.Parallel()

		app := newApp(
			func(c internal.Context) error { return c.String(http.StatusOK, "done") },
			internal.WithMiddleware(middlewares.Timeout(time.Second)),
		)

		w := get(t, app, "/")
		require.Equal(t, http.StatusOK, w.Code)
		require.Equal(t, "done", w.Body.String())
	})

	t.Run("handler sees the deadline", func(t *testing.T) {
		t.Parallel()

		var got error
		app := newApp(
			func(c internal.Context) error {
				_, ok := c.Deadline()
				require.True(t, ok)
				select {
				case <-c.Done():
					return c.Err()
				case <-time.After(time.Second):
					return c.String(http.StatusOK, "too late")
				}
			},
			internal.WithMiddleware(middlewares.Timeout(20*time.Millisecond)),
			internal.WithErrorHandler(func(c internal.Context, err error) error {
				got = err
				return c.NoContent(http.StatusGatewayTimeout)
			}),
		)

		w := get(t, app, "/")
		require.Equal(t, http.StatusGatewayTimeout, w.Code)

		te, ok := middlewares.AsTimeoutError(got)
		require.True(t, ok)
		require.Equal(t, 20*time.Millisecond, te.Duration)
		require.Equal(t, "/", te.Route)
		require.ErrorIs(t, got, context.DeadlineExceeded)
	})

	t.Run("written response is kept", func(t *testing.T) {
		t.Parallel()

		app := newApp(
			func(c internal.Context) error {
				if err := c.String(http.StatusOK, "partial"); err != nil {
					return err
				}
				<-c.Done()
				return nil
			},
			internal.WithMiddleware(middlewares.Timeout(10*time.Millisecond)),
		)

		w := get(t, app, "/")
		require.Equal(t, http.StatusOK, w.Code)
		require.Equal(t, "partial", w.Body.String())
	})

	t.Run("other errors win", func(t *testing.T) {
		t.Parallel()

		sentinel := errors.New("validation")
		var got error
		app := newApp(
			func(c internal.Context) error {
				<-c.Done()
				return sentinel
			},
			internal.WithMiddleware(middlewares.Timeout(10*time.Millisecond)),
			internal.WithErrorHandler(func(c internal.Context, err error) error {
				got = err
				return c.NoContent(http.StatusBadRequest)
			}),
		)

		get(t, app, "/")
		require.ErrorIs(t, got, sentinel)
		require.False(t, middlewares.IsTimeoutError(got))
	})
}

func TestTimeoutError(t *testing.T) {
	t.Parallel()

	err := &middlewares.TimeoutError{Duration: 5 * time.Second}
	require.Equal(t, "request timeout after 5s", err.Error())
	require.True(t, middlewares.IsTimeoutError(err))
	require.False(t, middlewares.IsTimeoutError(errors.New("slow")))

	_, ok := middlewares.AsTimeoutError(errors.New("slow"))
	require.False(t, ok)
}
