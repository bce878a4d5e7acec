package internal

import (
	"log/slog"
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/stretchr/testify/require"
)

// newTestContext builds a request context whose dispatch state carries params.
func newTestContext(target string, params ...string) *requestContext {
	app := &App{logger: slog.New(slog.DiscardHandler), dispatch: defaultDispatchConfig()}
	r := httptest.NewRequest(http.MethodGet, target, nil)
	st := newRequestState(r.URL.Path, r.Method, "", app.dispatch.mapping)
	st.Params = params
	return newContext(NewResponseWriter(httptest.NewRecorder()), r, app, st)
}

func TestParam(t *testing.T) {
	t.Parallel()

	c := newTestContext("/posts/42/3.5/true/draft", "42", "3.5", "true", "draft")

	require.Equal(t, 42, Param[int](c, 0))
	require.Equal(t, int64(42), Param[int64](c, 0))
	require.InDelta(t, 3.5, Param[float64](c, 1), 0.001)
	require.True(t, Param[bool](c, 2))
	require.Equal(t, "draft", Param[string](c, 3))

	t.Run("malformed returns zero", func(t *testing.T) {
		t.Parallel()
		require.Equal(t, 0, Param[int](c, 3))
		require.False(t, Param[bool](c, 0))
	})

	t.Run("out of range returns zero", func(t *testing.T) {
		t.Parallel()
		require.Equal(t, "", Param[string](c, 4))
		require.Equal(t, 0, Param[int](c, -1))
	})
}

func TestParamDefault(t *testing.T) {
	t.Parallel()

	c := newTestContext("/posts/abc", "abc")

	require.Equal(t, "abc", ParamDefault(c, 0, "x"))
	require.Equal(t, 10, ParamDefault(c, 0, 10))
	require.Equal(t, 7, ParamDefault(c, 1, 7))
}

func TestParam_NamedTypes(t *testing.T) {
	t.Parallel()

	type slug string
	type page int

	c := newTestContext("/posts/hello/2", "hello", "2")
	require.Equal(t, slug("hello"), Param[slug](c, 0))
	require.Equal(t, page(2), Param[page](c, 1))
	require.Equal(t, page(1), ParamDefault(c, 0, page(1)))
}

func TestQuery(t *testing.T) {
	t.Parallel()

	c := newTestContext("/search?q=go&page=3&ratio=0.5&all=1&bad=x")

	require.Equal(t, "go", Query[string](c, "q"))
	require.Equal(t, 3, Query[int](c, "page"))
	require.Equal(t, int64(3), Query[int64](c, "page"))
	require.InDelta(t, 0.5, Query[float64](c, "ratio"), 0.001)
	require.True(t, Query[bool](c, "all"))
	require.Equal(t, 0, Query[int](c, "bad"))
	require.Equal(t, "", Query[string](c, "missing"))
}

func TestQueryDefault(t *testing.T) {
	t.Parallel()

	c := newTestContext("/search?page=3&bad=x")

	require.Equal(t, 3, QueryDefault(c, "page", 1))
	require.Equal(t, 1, QueryDefault(c, "bad", 1))
	require.Equal(t, 20, QueryDefault(c, "limit", 20))
	require.Equal(t, "asc", QueryDefault(c, "order", "asc"))
}

func TestContextValue(t *testing.T) {
	t.Parallel()

	type key struct{}
	type user struct {
		Name string
	}

	t.Run("typed value", func(t *testing.T) {
		t.Parallel()
		c := newTestContext("/")
		c.Set(key{}, user{Name: "Alice"})
		require.Equal(t, "Alice", ContextValue[user](c, key{}).Name)
	})

	t.Run("wrong type returns zero", func(t *testing.T) {
		t.Parallel()
		c := newTestContext("/")
		c.Set(key{}, 42)
		require.Equal(t, "", ContextValue[string](c, key{}))
	})

	t.Run("missing key returns zero", func(t *testing.T) {
		t.Parallel()
		c := newTestContext("/")
		require.Equal(t, user{}, ContextValue[user](c, key{}))
	})
}
