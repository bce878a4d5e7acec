package internal_test

import (
	"context"
	"encoding/json"
	"errors"
	"net/http"
	"testing"
	"testing/fstest"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/stretchr/testify/require"

	"github.com/dmitrymomot/relay/internal"
	"github.com/dmitrymomot/relay/pkg/cron"
)

func TestNew_InvalidConfigPanics(t *testing.T) {
	t.Parallel()

	require.Panics(t, func() { internal.New(internal.WithMapping("home")) })
	require.Panics(t, func() { internal.New(internal.WithPhases("before")) })
	require.Panics(t, func() { internal.New(internal.WithHeadlessMode("sometimes")) })
	require.Panics(t, func() { internal.New(internal.WithController("/", internal.Methods{})) })
}

func TestApp_WithConfig(t *testing.T) {
	t.Parallel()

	app := internal.New(
		internal.WithConfig(internal.Config{Mapping: "main/start", Phases: "pre/post"}),
		internal.WithController("main", internal.Methods{
			"get_start": func(c internal.Context) error {
				return c.String(http.StatusOK, c.Action())
			},
		}),
	)

	require.Equal(t, "start", serve(t, app, http.MethodGet, "/").Body.String())
	require.Equal(t, internal.Phases{Before: "pre", After: "post"}, app.Phases())
}

func TestApp_Resolve(t *testing.T) {
	t.Parallel()

	app := internal.New(
		internal.WithController("home", internal.Methods{"get_index": noop}),
		internal.WithController("blog", internal.Methods{
			"before":     noop,
			"get_edit":   noop,
			"after_edit": noop,
		}),
	)

	res, plan := app.Resolve(http.MethodGet, "/blog/edit/5")
	require.True(t, res.Found)
	require.Equal(t, "/blog", res.Controller)
	require.Equal(t, "edit", res.Action)
	require.Equal(t, []string{"5"}, res.Params)
	require.True(t, plan.Primary)
	require.Equal(t, []string{"before", "get_edit", "after_edit"}, plan.Names())

	res, plan = app.Resolve(http.MethodPost, "/blog/edit/5")
	require.Equal(t, "index", res.Action)
	require.False(t, plan.Primary)

	require.Equal(t, []string{"blog", "home"}, app.Controllers())
	require.Equal(t, "//etc/passwd", app.Route("/../etc/passwd"))
}

type finderFunc func(path string) (string, internal.Methods, bool)

func (f finderFunc) Find(path string) (string, internal.Methods, bool) { return f(path) }

func TestApp_WithControllerFinder(t *testing.T) {
	t.Parallel()

	var probes []string
	finder := finderFunc(func(path string) (string, internal.Methods, bool) {
		probes = append(probes, path)
		if path == "/shop/cart" {
			return "Cart", internal.Methods{
				"get_index": func(c internal.Context) error {
					return c.String(http.StatusOK, c.Controller())
				},
			}, true
		}
		return "", nil, false
	})

	app := internal.New(internal.WithControllerFinder(finder))

	w := serve(t, app, http.MethodGet, "/shop/cart/3")
	require.Equal(t, "Cart", w.Body.String())
	require.Equal(t, []string{"/shop/cart/3", "/shop/cart/3/home", "/shop/cart"}, probes)
}

func TestApp_HealthEndpoints(t *testing.T) {
	t.Parallel()

	failing := errors.New("redis unreachable")
	app := internal.New(
		internal.WithHealthChecks(
			internal.WithReadinessCheck("redis", func(context.Context) error { return failing }),
		),
	)

	w := serve(t, app, http.MethodGet, "/health/live")
	require.Equal(t, http.StatusOK, w.Code)
	require.Equal(t, "OK", w.Body.String())

	w = serve(t, app, http.MethodGet, "/health/ready")
	require.Equal(t, http.StatusServiceUnavailable, w.Code)
	require.Contains(t, w.Body.String(), "redis")
}

func TestApp_MetricsEndpoint(t *testing.T) {
	t.Parallel()

	reg := prometheus.NewRegistry()
	counter := prometheus.NewCounter(prometheus.CounterOpts{Name: "relay_test_total", Help: "test counter"})
	reg.MustRegister(counter)
	counter.Inc()

	app := internal.New(internal.WithMetricsEndpoint("/metrics", reg))

	w := serve(t, app, http.MethodGet, "/metrics")
	require.Equal(t, http.StatusOK, w.Code)
	require.Contains(t, w.Body.String(), "relay_test_total 1")
}

func TestApp_StaticFiles(t *testing.T) {
	t.Parallel()

	fsys := fstest.MapFS{
		"public/app.css": {Data: []byte("body{}")},
	}
	app := internal.New(
		internal.WithStaticFiles("/static/", fsys, "public"),
		internal.WithController("home", internal.Methods{"get_index": noop}),
	)

	w := serve(t, app, http.MethodGet, "/static/app.css")
	require.Equal(t, http.StatusOK, w.Code)
	require.Equal(t, "body{}", w.Body.String())
	require.Equal(t, "nosniff", w.Header().Get("X-Content-Type-Options"))

	require.Equal(t, http.StatusNotFound, serve(t, app, http.MethodGet, "/static/").Code)
}

func TestApp_WithCron(t *testing.T) {
	t.Parallel()

	ran := 0
	s := cron.New(
		cron.WithoutTicker(),
		cron.WithTask(cron.NewTask("cleanup", "@hourly", func(context.Context) error {
			ran++
			return nil
		})),
	)
	app := internal.New(internal.WithCron(s))

	w := serve(t, app, http.MethodGet, "/cleanup?_cron=1")
	require.Equal(t, http.StatusOK, w.Code)

	var res internal.CronResult
	require.NoError(t, json.Unmarshal(w.Body.Bytes(), &res))
	require.Equal(t, []string{"cleanup"}, res.Ran)
	require.Empty(t, res.Error)
	require.Equal(t, 1, ran)

	// Due tasks: cleanup has just run, so nothing is due.
	w = serve(t, app, http.MethodGet, "/?_cron")
	require.NoError(t, json.Unmarshal(w.Body.Bytes(), &res))
	require.Empty(t, res.Ran)
	require.Equal(t, 1, ran)
}

func TestApp_WithCron_TaskFailure(t *testing.T) {
	t.Parallel()

	s := cron.New(
		cron.WithoutTicker(),
		cron.WithTask(cron.NewTask("sync", "@daily", func(context.Context) error {
			return errors.New("upstream down")
		})),
	)
	app := internal.New(internal.WithCron(s), internal.WithCronMarker("run-cron"))

	w := serve(t, app, http.MethodGet, "/sync?run-cron")
	require.Equal(t, http.StatusInternalServerError, w.Code)

	var res internal.CronResult
	require.NoError(t, json.Unmarshal(w.Body.Bytes(), &res))
	require.Contains(t, res.Error, "upstream down")
}
