package middlewares_test

import (
	"errors"
	"net/http"
	"testing"

	"github.com/stretchr/testify/require"

	"github.com/dmitrymomot/relay/internal"
	"github.com/dmitrymomot/relay/middlewares"
)

func TestRecover(t *testing.T) {
	t.Parallel()

	t.Run("panic becomes PanicError", func(t *testing.T) {
		t.Parallel()

		var got error
		app := newApp(
			func(internal.Context) error { panic("boom") },
			internal.WithMiddleware(middlewares.Recover()),
			internal.WithErrorHandler(func(c internal.Context, err error) error {
				got = err
				return c.String(http.StatusInternalServerError, "recovered")
			}),
		)

		w := get(t, app, "/")
		require.Equal(t, http.StatusInternalServerError, w.Code)
		require.Equal(t, "recovered", w.Body.String())

		pe, ok := middlewares.AsPanicError(got)
		require.True(t, ok)
		require.Equal(t, "boom", pe.Value)
		require.Equal(t, "/", pe.Route)
		require.NotEmpty(t, pe.Stack)
	})

	t.Run("panic in a pattern route", func(t *testing.T) {
		t.Parallel()

		app := internal.New(
			internal.WithMiddleware(middlewares.Recover()),
			internal.WithRoutes(func(r *internal.Routes) {
				r.GET("/explode", func(internal.Context) error { panic("route") })
			}),
		)

		require.Equal(t, http.StatusInternalServerError, get(t, app, "/explode").Code)
	})

	t.Run("passes through without panic", func(t *testing.T) {
		t.Parallel()

		app := newApp(
			func(c internal.Context) error { return c.String(http.StatusOK, "fine") },
			internal.WithMiddleware(middlewares.Recover()),
		)

		w := get(t, app, "/")
		require.Equal(t, http.StatusOK, w.Code)
		require.Equal(t, "fine", w.Body.String())
	})

	t.Run("errors pass through untouched", func(t *testing.T) {
		t.Parallel()

		sentinel := errors.New("sentinel")
		mw := middlewares.Recover()
		err := mw(func(internal.Context) error { return sentinel })(nil)
		require.ErrorIs(t, err, sentinel)
	})

	t.Run("disabled stack", func(t *testing.T) {
		t.Parallel()

		var got error
		app := newApp(
			func(internal.Context) error { panic(errors.New("typed")) },
			internal.WithMiddleware(middlewares.Recover(middlewares.WithRecoverDisablePrintStack())),
			internal.WithErrorHandler(func(c internal.Context, err error) error {
				got = err
				return c.NoContent(http.StatusInternalServerError)
			}),
		)

		get(t, app, "/")
		pe, ok := middlewares.AsPanicError(got)
		require.True(t, ok)
		require.Nil(t, pe.Stack)
		require.EqualError(t, errors.Unwrap(pe), "typed")
	})

	t.Run("stack size limit", func(t *testing.T) {
		t.Parallel()

		var got error
		app := newApp(
			func(internal.Context) error { panic("small") },
			internal.WithMiddleware(middlewares.Recover(middlewares.WithRecoverStackSize(64))),
			internal.WithErrorHandler(func(c internal.Context, err error) error {
				got = err
				return c.NoContent(http.StatusInternalServerError)
			}),
		)

		get(t, app, "/")
		pe, ok := middlewares.AsPanicError(got)
		require.True(t, ok)
		require.LessOrEqual(t, len(pe.Stack), 64)
	})
}

func TestPanicError(t *testing.T) {
	t.Parallel()

	require.Equal(t, "panic: x", (&middlewares.PanicError{Value: "x"}).Error())
	require.Equal(t, "panic while handling /a: x", (&middlewares.PanicError{Value: "x", Route: "/a"}).Error())
	require.Nil(t, (&middlewares.PanicError{Value: 42}).Unwrap())

	require.False(t, middlewares.IsPanicError(errors.New("plain")))
	_, ok := middlewares.AsPanicError(nil)
	require.False(t, ok)
}
