package middlewares_test

import (
	"net/http"
	"strings"
	"testing"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/testutil"
	"github.com/stretchr/testify/require"

	"github.com/dmitrymomot/relay/internal"
	"github.com/dmitrymomot/relay/middlewares"
)

func TestMetrics(t *testing.T) {
	t.Parallel()

	reg := prometheus.NewRegistry()
	app := internal.New(
		internal.WithMiddleware(middlewares.Metrics(
			middlewares.WithMetricsRegistry(reg),
			middlewares.WithMetricsNamespace("test"),
		)),
		internal.WithMetricsEndpoint("/metrics", reg),
		internal.WithController("blog", internal.Methods{
			"get_index": func(c internal.Context) error { return c.String(http.StatusOK, "list") },
			"get_edit":  func(c internal.Context) error { return internal.ErrForbidden("no") },
		}),
	)

	get(t, app, "/blog")
	get(t, app, "/blog")
	get(t, app, "/blog/edit/1")
	get(t, app, "/missing")

	expected := `
# HELP test_requests_total Requests handled, by controller, action, method and status.
# TYPE test_requests_total counter
test_requests_total{action="",controller="none",method="get",status="404"} 1
test_requests_total{action="edit",controller="blog",method="get",status="403"} 1
test_requests_total{action="index",controller="blog",method="get",status="200"} 2
`
	require.NoError(t, testutil.GatherAndCompare(reg, strings.NewReader(expected), "test_requests_total"))
	n, err := testutil.GatherAndCount(reg, "test_request_duration_seconds")
	require.NoError(t, err)
	require.Equal(t, 3, n)

	w := get(t, app, "/metrics")
	require.Equal(t, http.StatusOK, w.Code)
	require.Contains(t, w.Body.String(), "test_requests_in_flight 0")
}

func TestMetrics_HaltedRequest(t *testing.T) {
	t.Parallel()

	reg := prometheus.NewRegistry()
	app := internal.New(
		internal.WithMiddleware(middlewares.Metrics(middlewares.WithMetricsRegistry(reg))),
		internal.WithRoutes(func(r *internal.Routes) {
			r.GET("/ping", func(c internal.Context) error {
				return c.String(http.StatusAccepted, "pong")
			}, internal.Terminate())
		}),
	)

	get(t, app, "/ping")

	expected := `
# HELP relay_requests_total Requests handled, by controller, action, method and status.
# TYPE relay_requests_total counter
relay_requests_total{action="",controller="none",method="get",status="202"} 1
`
	require.NoError(t, testutil.GatherAndCompare(reg, strings.NewReader(expected), "relay_requests_total"))
}
