package internal

import (
	"errors"
	"fmt"
	"log/slog"
	"net/http"

	"github.com/go-chi/chi/v5"
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promhttp"

	"github.com/dmitrymomot/relay/pkg/cron"
	"github.com/dmitrymomot/relay/pkg/health"
	"github.com/dmitrymomot/relay/pkg/logger"
	"github.com/dmitrymomot/relay/pkg/view"
)

// App is a relay application: pattern routes and the controller dispatch
// behind a chi mux that also serves static files, health and metrics.
// App is immutable after creation - all configuration is done via New().
type App struct {
	router          chi.Router
	errorHandler    ErrorHandler
	notFoundHandler HandlerFunc
	healthConfig    *healthConfig
	metrics         *metricsEndpoint
	logger          *slog.Logger
	middlewares     []Middleware
	staticRoutes    []staticRoute
	configErr       error

	dispatch      dispatchConfig
	routes        *Routes
	routeBuilders []func(*Routes)
	hooks         []hookEntry
	patterns      patternCache
	controllers   *ControllerRegistry
	finder        ControllerFinder
	resolver      *resolver
	views         view.Renderer
	cron          CronDispatcher
	scheduler     *cron.Scheduler
	handler       HandlerFunc
}

// staticRoute represents a static file handler mount point.
type staticRoute struct {
	handler http.Handler
	pattern string
}

type metricsEndpoint struct {
	path     string
	gatherer prometheus.Gatherer
}

// New creates a new application with the given options.
// It panics when an option carries an invalid dispatch setting, the way
// a malformed route table would fail at startup.
//
// Example:
//
//	app := relay.New(
//	    relay.WithController("users", controllers.NewUsers(repo)),
//	    relay.WithRoutes(func(r *relay.Routes) {
//	        r.GET("/ping", ping, relay.Terminate())
//	    }),
//	    relay.WithViews(view.NewFS(views)),
//	)
func New(opts ...Option) *App {
	a := &App{
		router:      chi.NewRouter(),
		logger:      logger.NewNope(), // Default: noop logger (before options)
		dispatch:    defaultDispatchConfig(),
		controllers: NewControllerRegistry(),
	}

	for _, opt := range opts {
		opt(a)
	}
	if a.configErr != nil {
		panic(a.configErr)
	}

	if a.finder == nil {
		a.finder = a.controllers
	}
	a.resolver = &resolver{
		finder:            a.finder,
		defaultController: a.dispatch.mapping.controller,
		defaultAction:     a.dispatch.mapping.action,
	}

	a.routes = newRoutes(a.logger, a.dispatch.allPatterns)
	for _, build := range a.routeBuilders {
		build(a.routes)
	}

	// Middleware is applied in the order provided: the first one is outermost.
	a.handler = a.serve
	for i := len(a.middlewares) - 1; i >= 0; i-- {
		a.handler = a.middlewares[i](a.handler)
	}

	a.setupRoutes()
	return a
}

// Router returns the underlying chi.Router.
func (a *App) Router() chi.Router {
	return a.router
}

// ServeHTTP makes the App an http.Handler, for tests and custom servers.
func (a *App) ServeHTTP(w http.ResponseWriter, r *http.Request) {
	a.router.ServeHTTP(w, r)
}

// Logger returns the application logger.
func (a *App) Logger() *slog.Logger {
	return a.logger
}

// setupRoutes mounts the fixed endpoints and sends everything else to the
// dispatcher. Static, health and metrics endpoints bypass the middleware.
func (a *App) setupRoutes() {
	for _, sr := range a.staticRoutes {
		a.router.Mount(sr.pattern, sr.handler)
	}

	if a.healthConfig != nil {
		opts := []health.Option{health.WithLogger(a.logger)}
		a.router.Get(a.healthConfig.livenessPath, health.LivenessHandler())
		a.router.Get(a.healthConfig.readinessPath, health.ReadinessHandler(a.healthConfig.checks, opts...))
	}

	if a.metrics != nil {
		a.router.Method(http.MethodGet, a.metrics.path, promhttp.HandlerFor(a.metrics.gatherer, promhttp.HandlerOpts{}))
	}

	a.router.Handle("/*", http.HandlerFunc(a.dispatchHTTP))
}

// dispatchHTTP runs one request through the middleware chain, the pattern
// routes and the controller dispatch.
func (a *App) dispatchHTTP(w http.ResponseWriter, r *http.Request) {
	st := newRequestState(r.URL.Path, r.Method, a.dispatch.basePath, a.dispatch.mapping)
	c := newContext(NewResponseWriter(w), r, a, st)

	if err := a.handler(c); err != nil {
		a.handleError(c, err)
	}
}

// handleError turns a handler error into a response. ErrHalt ends the
// request as is. Nothing is written once the response has started.
func (a *App) handleError(c Context, err error) {
	if IsHalt(err) {
		return
	}
	if c.Written() {
		a.logger.WarnContext(c, "error after response was written", slog.String("error", err.Error()))
		return
	}

	if IsNotFound(err) && a.notFoundHandler != nil {
		if nfErr := a.notFoundHandler(c); nfErr != nil && !IsHalt(nfErr) && !c.Written() {
			http.NotFound(c.Response(), c.Request())
		}
		return
	}

	if a.errorHandler != nil {
		if hErr := a.errorHandler(c, err); hErr != nil && !c.Written() {
			a.logger.ErrorContext(c, "error handler failed", slog.String("error", hErr.Error()))
			http.Error(c.Response(), http.StatusText(http.StatusInternalServerError), http.StatusInternalServerError)
		}
		return
	}

	defaultErrorHandler(a.logger, c, err)
}

// defaultErrorHandler answers with the HTTPError status and message, or a
// bare 500 for any other error.
func defaultErrorHandler(log *slog.Logger, c Context, err error) {
	var he *HTTPError
	if errors.As(err, &he) {
		if he.Code >= http.StatusInternalServerError {
			log.ErrorContext(c, "request failed", slog.Int("status", he.Code), slog.String("error", err.Error()))
		}
		http.Error(c.Response(), he.Message, he.Code)
		return
	}

	log.ErrorContext(c, "request failed", slog.String("error", err.Error()))
	http.Error(c.Response(), http.StatusText(http.StatusInternalServerError), http.StatusInternalServerError)
}

// Resolve reports how a request would be dispatched without running any
// controller code: the resolution and the execution plan.
func (a *App) Resolve(method, path string) (Resolution, Plan) {
	st := newRequestState(path, method, a.dispatch.basePath, a.dispatch.mapping)
	res := a.resolver.Resolve(st.Route, st.Method)
	if !res.Found {
		return res, Plan{}
	}
	return res, BuildPlan(res.Methods, st.Method, a.dispatch.phases, res.Action)
}

// Route returns the cleaned routing key of a request path, with the base
// path removed.
func (a *App) Route(path string) string {
	return CleanRoute(stripBasePath(path, a.dispatch.basePath))
}

// Controllers returns the paths of the registered controllers.
func (a *App) Controllers() []string {
	return a.controllers.Paths()
}

// Phases returns the configured hook phase names.
func (a *App) Phases() Phases {
	return a.dispatch.phases
}

// healthConfig holds health check endpoint configuration.
type healthConfig struct {
	checks        health.Checks
	livenessPath  string
	readinessPath string
}

// Default health check paths.
const (
	defaultLivenessPath  = "/health/live"
	defaultReadinessPath = "/health/ready"
)

// HealthOption configures health check endpoints.
type HealthOption func(*healthConfig)

// WithLivenessPath sets a custom liveness endpoint path.
// Defaults to "/health/live".
func WithLivenessPath(path string) HealthOption {
	return func(c *healthConfig) {
		if path != "" {
			c.livenessPath = path
		}
	}
}

// WithReadinessPath sets a custom readiness endpoint path.
// Defaults to "/health/ready".
func WithReadinessPath(path string) HealthOption {
	return func(c *healthConfig) {
		if path != "" {
			c.readinessPath = path
		}
	}
}

// WithReadinessCheck adds a named readiness check.
// Checks run concurrently during the readiness probe.
//
// Example:
//
//	relay.WithReadinessCheck("redis", redis.Healthcheck(client))
func WithReadinessCheck(name string, fn health.CheckFunc) HealthOption {
	return func(c *healthConfig) {
		if name != "" && fn != nil {
			c.checks[name] = fn
		}
	}
}

func (a *App) setConfigErr(err error) {
	if err != nil && a.configErr == nil {
		a.configErr = fmt.Errorf("relay: %w", err)
	}
}
