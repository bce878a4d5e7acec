package relay_test

import (
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/stretchr/testify/require"

	"github.com/dmitrymomot/relay"
)

func TestApp(t *testing.T) {
	t.Parallel()

	var steps []string
	step := func(name string) relay.HandlerFunc {
		return func(c relay.Context) error {
			steps = append(steps, name)
			return nil
		}
	}

	app := relay.New(
		relay.WithController("blog", relay.Methods{
			"before":    step("before"),
			"get_edit":  func(c relay.Context) error { return c.String(http.StatusOK, "edit "+relay.Param[string](c, 0)) },
			"after":     step("after"),
			"get_index": step("get_index"),
		}),
		relay.WithRoutes(func(r *relay.Routes) {
			r.GET("/ping", func(c relay.Context) error {
				return c.String(http.StatusOK, "pong")
			}, relay.Terminate())
		}),
	)

	t.Run("realigned action", func(t *testing.T) {
		r := httptest.NewRequest(http.MethodGet, "/blog/edit/5", nil)
		w := httptest.NewRecorder()
		app.ServeHTTP(w, r)

		require.Equal(t, http.StatusOK, w.Code)
		require.Equal(t, "edit 5", w.Body.String())
		require.Equal(t, []string{"before", "after"}, steps)
	})

	t.Run("terminating route", func(t *testing.T) {
		r := httptest.NewRequest(http.MethodGet, "/ping", nil)
		w := httptest.NewRecorder()
		app.ServeHTTP(w, r)

		require.Equal(t, http.StatusOK, w.Code)
		require.Equal(t, "pong", w.Body.String())
	})

	t.Run("resolve", func(t *testing.T) {
		res, plan := app.Resolve(http.MethodGet, "/blog/edit/5")
		require.True(t, res.Found)
		require.Equal(t, "/blog", res.Controller)
		require.Equal(t, "edit", res.Action)
		require.Equal(t, []string{"5"}, res.Params)
		require.Equal(t, []string{"before", "get_edit", "after"}, plan.Names())
	})
}

func TestCandidates(t *testing.T) {
	t.Parallel()

	got := relay.Candidates("post", relay.Phases{Before: "before", After: "after"}, "save")
	require.Equal(t, [10]string{
		"post", "before", "post_before", "before_save", "post_before_save",
		"post_save",
		"post_after_save", "after_save", "post_after", "after",
	}, got)
}

func TestCleanRoute(t *testing.T) {
	t.Parallel()

	require.Equal(t, "/ab", relay.CleanRoute("/a.!.b"))
	require.Equal(t, "/", relay.CleanRoute("!!!"))
	require.Equal(t, relay.CleanRoute("/a/../b"), relay.CleanRoute(relay.CleanRoute("/a/../b")))
	require.True(t, relay.IsReservedHook("controller"))
	require.False(t, relay.IsReservedHook("audit"))
}
