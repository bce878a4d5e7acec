package internal

import (
	"testing"

	"github.com/stretchr/testify/require"
)

func noop(Context) error { return nil }

func newTestResolver(t *testing.T, controllers map[string]Methods) *resolver {
	t.Helper()
	reg := NewControllerRegistry()
	for path, m := range controllers {
		require.NoError(t, reg.Register(path, m))
	}
	return &resolver{finder: reg, defaultController: "home", defaultAction: "index"}
}

func TestResolver_Resolve(t *testing.T) {
	t.Parallel()

	rv := newTestResolver(t, map[string]Methods{
		"home":        {"get_index": noop},
		"blog":        {"get_index": noop, "get_edit": noop},
		"admin/home":  {"get_index": noop},
		"admin/users": {"get_index": noop, "post_delete": noop},
		"users":       {"get_index": noop},
	})

	tests := []struct {
		name       string
		route      string
		verb       string
		controller string
		action     string
		params     []string
		fallback   bool
		realigned  bool
	}{
		{name: "root resolves to default controller", route: "/", verb: "get", controller: "/home", action: "index", params: []string{}},
		{name: "controller without params", route: "/blog", verb: "get", controller: "/blog", action: "index", params: []string{}},
		{name: "param not an action", route: "/blog/5", verb: "get", controller: "/blog", action: "index", params: []string{"5"}},
		{name: "param realigned to action", route: "/blog/edit/5", verb: "get", controller: "/blog", action: "edit", params: []string{"5"}, realigned: true},
		{name: "realignment depends on verb", route: "/blog/edit/5", verb: "post", controller: "/blog", action: "index", params: []string{"edit", "5"}},
		{name: "nested controller", route: "/admin/users/7", verb: "get", controller: "/admin/users", action: "index", params: []string{"7"}},
		{name: "nested realignment", route: "/admin/users/delete/7", verb: "post", controller: "/admin/users", action: "delete", params: []string{"7"}, realigned: true},
		{name: "directory default controller", route: "/admin/stats", verb: "get", controller: "/admin/home", action: "index", params: []string{"stats"}},
		{name: "unknown path falls back", route: "/nowhere/at/all", verb: "get", controller: "/home", action: "index", params: []string{"nowhere", "at", "all"}, fallback: true},
		{name: "every occurrence of a controller segment is removed", route: "/users/users/5", verb: "get", controller: "/users", action: "index", params: []string{"5"}},
		{name: "deepest controller wins", route: "/admin/users", verb: "get", controller: "/admin/users", action: "index", params: []string{}},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			t.Parallel()

			res := rv.Resolve(tt.route, tt.verb)
			require.True(t, res.Found)
			require.Equal(t, tt.controller, res.Controller)
			require.Equal(t, tt.action, res.Action)
			require.Equal(t, tt.params, res.Params)
			require.Equal(t, tt.fallback, res.Fallback)
			require.Equal(t, tt.realigned, res.Realigned)
		})
	}
}

func TestResolver_Deterministic(t *testing.T) {
	t.Parallel()

	rv := newTestResolver(t, map[string]Methods{
		"home":  {"get_index": noop},
		"blog":  {"get_index": noop, "get_edit": noop},
		"admin": {"get_index": noop},
	})

	for _, route := range []string{"/", "/blog/edit/5", "/admin/blog/5", "/x/y/z"} {
		first := rv.Resolve(route, "get")
		for range 20 {
			again := rv.Resolve(route, "get")
			require.Equal(t, first.Controller, again.Controller)
			require.Equal(t, first.Action, again.Action)
			require.Equal(t, first.Params, again.Params)
		}
	}
}

func TestResolver_NoDefaultController(t *testing.T) {
	t.Parallel()

	rv := newTestResolver(t, map[string]Methods{
		"blog": {"get_index": noop},
	})

	res := rv.Resolve("/missing/page", "get")
	require.False(t, res.Found)
	require.True(t, res.Fallback)
	require.Equal(t, []string{"missing", "page"}, res.Params)
}

func TestResolver_CaseSensitivePaths(t *testing.T) {
	t.Parallel()

	rv := newTestResolver(t, map[string]Methods{
		"home": {"get_index": noop},
		"Blog": {"get_index": noop},
	})

	require.Equal(t, "/Blog", rv.Resolve("/Blog/1", "get").Controller)

	res := rv.Resolve("/blog/1", "get")
	require.True(t, res.Fallback)
	require.Equal(t, "/home", res.Controller)
}

func TestControllerRegistry(t *testing.T) {
	t.Parallel()

	reg := NewControllerRegistry()
	require.NoError(t, reg.Register("/admin//users/", Methods{"GET_Index": noop, "nil": nil}))
	require.Error(t, reg.Register("///", Methods{}))
	require.Error(t, reg.Register("blog", nil))

	id, methods, ok := reg.Find("admin/users")
	require.True(t, ok)
	require.Equal(t, "admin/users", id)
	require.True(t, methods.Has("get_index"))
	require.False(t, methods.Has("nil"))

	_, _, ok = reg.Find("/admin/users/home")
	require.False(t, ok)

	require.Equal(t, []string{"admin/users"}, reg.Paths())
}

func TestDiffSegments(t *testing.T) {
	t.Parallel()

	require.Equal(t, []string{"5", "x"}, diffSegments([]string{"blog", "5", "blog", "x"}, []string{"blog"}))
	require.Empty(t, diffSegments([]string{"a", "b"}, []string{"a", "b"}))
}
