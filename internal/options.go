package internal

import (
	"io/fs"
	"log/slog"
	"net/http"
	"strings"

	"github.com/prometheus/client_golang/prometheus"

	"github.com/dmitrymomot/relay/pkg/cron"
	"github.com/dmitrymomot/relay/pkg/health"
	"github.com/dmitrymomot/relay/pkg/logger"
	"github.com/dmitrymomot/relay/pkg/view"
)

// Option configures the application.
type Option func(*App)

// WithMiddleware adds middleware around the dispatcher.
// Middleware is applied in the order provided and shares the request Context
// with pattern routes, hooks and controllers.
func WithMiddleware(mw ...Middleware) Option {
	return func(a *App) {
		for _, m := range mw {
			if m != nil {
				a.middlewares = append(a.middlewares, m)
			}
		}
	}
}

// WithController registers a controller under a path such as "users" or
// "admin/users". Paths are compared segment by segment and case-sensitively.
//
// Example:
//
//	relay.WithController("users", relay.Methods{
//	    "get_index": listUsers,
//	    "get_show":  showUser,
//	})
func WithController(path string, c Controller) Option {
	return func(a *App) {
		a.setConfigErr(a.controllers.Register(path, c))
	}
}

// WithControllers registers several controllers at once.
func WithControllers(controllers map[string]Controller) Option {
	return func(a *App) {
		for path, c := range controllers {
			a.setConfigErr(a.controllers.Register(path, c))
		}
	}
}

// WithControllerFinder replaces the built-in registry as the source of
// controllers, for example to look them up in a plugin directory.
// Controllers registered with WithController are then ignored by dispatch.
func WithControllerFinder(f ControllerFinder) Option {
	return func(a *App) {
		if f != nil {
			a.finder = f
		}
	}
}

// WithRoutes declares pattern routes. The function runs once, after all
// options are applied, so it sees the final WithAllPatterns setting.
//
// Example:
//
//	relay.WithRoutes(func(r *relay.Routes) {
//	    r.GET("/ping", func(c relay.Context) error {
//	        return c.String(http.StatusOK, "pong")
//	    }, relay.Terminate())
//	})
func WithRoutes(fn func(r *Routes)) Option {
	return func(a *App) {
		if fn != nil {
			a.routeBuilders = append(a.routeBuilders, fn)
		}
	}
}

// WithHook registers an application hook under phase. Every request starts
// with these hooks in its registry. Reserved phase names are ignored.
//
// Example:
//
//	relay.WithHook("before", requireSession)
func WithHook(phase string, fn HandlerFunc) Option {
	return func(a *App) {
		if phase == "" || fn == nil || IsReservedHook(phase) {
			a.logger.Debug("hook registration ignored", slog.String("phase", phase))
			return
		}
		a.hooks = append(a.hooks, hookEntry{phase: phase, fn: fn})
	}
}

// WithConfig applies dispatch settings, typically loaded with pkg/config.
// Empty fields keep their defaults.
func WithConfig(cfg Config) Option {
	return func(a *App) {
		a.setConfigErr(a.dispatch.apply(cfg))
	}
}

// WithMapping sets the default controller and action, "home/index" by default.
func WithMapping(m string) Option {
	return WithConfig(Config{Mapping: m})
}

// WithPhases names the before and after phases, "before/after" by default.
func WithPhases(p string) Option {
	return WithConfig(Config{Phases: p})
}

// WithCronMarker sets the query parameter that diverts a request to the
// cron dispatcher, "_cron" by default.
func WithCronMarker(marker string) Option {
	return WithConfig(Config{CronMarker: marker})
}

// WithViewPrefix sets the prefix of headless view names, "~" by default.
func WithViewPrefix(prefix string) Option {
	return WithConfig(Config{ViewPrefix: prefix})
}

// WithBasePath mounts the app under a path prefix: with "/app", the request
// "/app/users" routes as "/users".
func WithBasePath(base string) Option {
	return WithConfig(Config{BasePath: base})
}

// WithHeadlessMode selects how headless views interact with the execution plan.
func WithHeadlessMode(mode HeadlessMode) Option {
	return WithConfig(Config{Headless: string(mode)})
}

// WithAllPatterns makes routes registered with several patterns match any
// of them. Without it only the first pattern is evaluated.
func WithAllPatterns() Option {
	return func(a *App) {
		a.dispatch.allPatterns = true
	}
}

// WithViews sets the renderer for Context.View and headless views.
// Several renderers can be combined with view.Chain.
func WithViews(r view.Renderer) Option {
	return func(a *App) {
		a.views = r
	}
}

// WithCron serves requests carrying the cron marker with s and starts s's
// ticker when the App runs.
func WithCron(s *cron.Scheduler) Option {
	return func(a *App) {
		if s == nil {
			return
		}
		a.scheduler = s
		a.cron = &schedulerDispatcher{scheduler: s}
	}
}

// WithCronDispatcher serves requests carrying the cron marker with d.
func WithCronDispatcher(d CronDispatcher) Option {
	return func(a *App) {
		a.cron = d
	}
}

// WithMetricsEndpoint exposes the metrics in g at path, for example the
// registry the Metrics middleware records to.
//
// Example:
//
//	reg := prometheus.NewRegistry()
//	relay.New(
//	    relay.WithMiddleware(middlewares.Metrics(middlewares.WithMetricsRegistry(reg))),
//	    relay.WithMetricsEndpoint("/metrics", reg),
//	)
func WithMetricsEndpoint(path string, g prometheus.Gatherer) Option {
	return func(a *App) {
		if path == "" {
			path = "/metrics"
		}
		if g == nil {
			g = prometheus.DefaultGatherer
		}
		a.metrics = &metricsEndpoint{path: path, gatherer: g}
	}
}

// WithStaticFiles mounts a static file handler at the given pattern.
// Directory listings are disabled. Files are served with default cache headers.
//
// Example:
//
//	//go:embed public
//	var assets embed.FS
//
//	relay.New(
//	    relay.WithStaticFiles("/static/", assets, "public"),
//	)
func WithStaticFiles(pattern string, fsys fs.FS, subDir string) Option {
	return func(a *App) {
		subFS, err := fs.Sub(fsys, subDir)
		if err != nil {
			panic(err)
		}

		fileServer := http.StripPrefix(strings.TrimSuffix(pattern, "/"), http.FileServerFS(subFS))

		handler := http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			// Block directory listings
			if strings.HasSuffix(r.URL.Path, "/") {
				http.NotFound(w, r)
				return
			}

			w.Header().Set("Cache-Control", "public, max-age=3600")
			w.Header().Set("X-Content-Type-Options", "nosniff")

			fileServer.ServeHTTP(w, r)
		})

		a.staticRoutes = append(a.staticRoutes, staticRoute{handler, pattern})
	}
}

// WithErrorHandler sets a custom error handler for handler errors.
// Called when a route callback, hook or controller method returns a
// non-nil error other than ErrHalt.
//
// Example:
//
//	relay.WithErrorHandler(func(c relay.Context, err error) error {
//	    if he := relay.AsHTTPError(err); he != nil {
//	        return c.JSON(he.Code, he)
//	    }
//	    return c.JSON(http.StatusInternalServerError, map[string]string{"error": "internal"})
//	})
func WithErrorHandler(h ErrorHandler) Option {
	return func(a *App) {
		a.errorHandler = h
	}
}

// WithNotFoundHandler sets the handler for requests no controller can serve.
//
// Example:
//
//	relay.WithNotFoundHandler(func(c relay.Context) error {
//	    return c.View(http.StatusNotFound, "errors/404", c.Info())
//	})
func WithNotFoundHandler(h HandlerFunc) Option {
	return func(a *App) {
		a.notFoundHandler = h
	}
}

// WithHealthChecks enables health check endpoints with optional configuration.
// Liveness (/health/live): Always returns OK if process is running.
// Readiness (/health/ready): Runs all configured checks.
//
// Example:
//
//	relay.WithHealthChecks(
//	    relay.WithReadinessCheck("redis", redis.Healthcheck(client)),
//	)
func WithHealthChecks(opts ...HealthOption) Option {
	return func(a *App) {
		cfg := &healthConfig{
			livenessPath:  defaultLivenessPath,
			readinessPath: defaultReadinessPath,
			checks:        make(health.Checks),
		}
		for _, opt := range opts {
			opt(cfg)
		}
		a.healthConfig = cfg
	}
}

// WithLogger creates a logger with a component name and optional extractors.
// The component name is added to every log entry for easy filtering.
// Extractors pull values from context (e.g., request_id, controller).
//
// Example:
//
//	relay.New(
//	    relay.WithLogger("web", middlewares.RequestIDExtractor(), relay.DispatchExtractor()),
//	)
func WithLogger(component string, extractors ...logger.ContextExtractor) Option {
	return func(a *App) {
		a.logger = logger.New(logger.WithExtractors(extractors...)).With("component", component)
	}
}

// WithCustomLogger sets a fully custom logger.
//
// Example:
//
//	log := logger.New(logger.FromConfig(cfg), logger.WithExtractors(relay.DispatchExtractor()))
//	relay.New(relay.WithCustomLogger(log))
func WithCustomLogger(l *slog.Logger) Option {
	return func(a *App) {
		if l != nil {
			a.logger = l
		}
	}
}
