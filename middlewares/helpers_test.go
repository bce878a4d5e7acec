package middlewares_test

import (
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/dmitrymomot/relay/internal"
)

// newApp serves a single "home" controller behind mw.
func newApp(handler internal.HandlerFunc, opts ...internal.Option) *internal.App {
	opts = append(opts, internal.WithController("home", internal.Methods{"get_index": handler}))
	return internal.New(opts...)
}

func do(t *testing.T, app *internal.App, req *http.Request) *httptest.ResponseRecorder {
	t.Helper()
	w := httptest.NewRecorder()
	app.ServeHTTP(w, req)
	return w
}

func get(t *testing.T, app *internal.App, target string) *httptest.ResponseRecorder {
	t.Helper()
	return do(t, app, httptest.NewRequest(http.MethodGet, target, nil))
}
