package relay

import (
	"context"
	"io/fs"
	"log/slog"
	"time"

	"github.com/prometheus/client_golang/prometheus"

	"github.com/dmitrymomot/relay/internal"
	"github.com/dmitrymomot/relay/pkg/cron"
	"github.com/dmitrymomot/relay/pkg/health"
	"github.com/dmitrymomot/relay/pkg/logger"
	"github.com/dmitrymomot/relay/pkg/view"
)

// Type aliases - public API
type (
	// App is a relay application: pattern routes, hooks and the controller
	// dispatch behind one http.Handler.
	App = internal.App

	// Context provides request/response access, the dispatch state and helpers.
	Context = internal.Context

	// HandlerFunc is the signature for lifecycle methods, hooks and route callbacks.
	HandlerFunc = internal.HandlerFunc

	// Middleware wraps a HandlerFunc to add cross-cutting concerns.
	Middleware = internal.Middleware

	// ErrorHandler handles errors returned from handlers.
	ErrorHandler = internal.ErrorHandler

	// Option configures the application.
	Option = internal.Option

	// RunOption configures the server runtime.
	RunOption = internal.RunOption

	// HealthOption configures health check endpoints.
	HealthOption = internal.HealthOption

	// Component is the interface for renderable templates.
	Component = internal.Component

	// ResponseWriter tracks status, size and whether the response started.
	ResponseWriter = internal.ResponseWriter

	// Controller exposes a method table to the dispatcher.
	Controller = internal.Controller

	// Methods is a controller's method table.
	Methods = internal.Methods

	// ControllerFinder is the controller discovery oracle.
	ControllerFinder = internal.ControllerFinder

	// ControllerRegistry is the built-in ControllerFinder.
	ControllerRegistry = internal.ControllerRegistry

	// Routes is the pattern router.
	Routes = internal.Routes

	// RouteOption configures a single pattern route.
	RouteOption = internal.RouteOption

	// RouteMatch is one entry of the route trace.
	RouteMatch = internal.RouteMatch

	// HookRegistry holds named, ordered hook lists for one request.
	HookRegistry = internal.HookRegistry

	// Config holds the dispatch settings.
	Config = internal.Config

	// Phases names the before and after phases.
	Phases = internal.Phases

	// Scalar is the set of types Param and Query convert to.
	Scalar = internal.Scalar

	// HeadlessMode selects how headless views interact with the execution plan.
	HeadlessMode = internal.HeadlessMode

	// Resolution is the outcome of walking a route to a controller.
	Resolution = internal.Resolution

	// Plan is the ordered list of lifecycle methods for one request.
	Plan = internal.Plan

	// PlanStep is one method of a Plan.
	PlanStep = internal.PlanStep

	// Info is a snapshot of the dispatch state for debug views.
	Info = internal.Info

	// CronDispatcher serves requests carrying the cron marker.
	CronDispatcher = internal.CronDispatcher

	// CronDispatcherFunc adapts a function to CronDispatcher.
	CronDispatcherFunc = internal.CronDispatcherFunc

	// CronResult is the JSON body of a cron request.
	CronResult = internal.CronResult

	// HTTPError represents an HTTP error with all data needed for rendering.
	HTTPError = internal.HTTPError

	// HTTPErrorOption configures an HTTPError.
	HTTPErrorOption = internal.HTTPErrorOption

	// ContextExtractor extracts a slog attribute from context.
	// Used with WithLogger to add request-scoped values to logs.
	ContextExtractor = logger.ContextExtractor
)

// Wildcard route verbs.
const (
	VerbAny   = internal.VerbAny
	VerbPort  = internal.VerbPort
	VerbPorts = internal.VerbPorts
)

// Headless modes.
const (
	HeadlessFallthrough = internal.HeadlessFallthrough
	HeadlessStrict      = internal.HeadlessStrict
	HeadlessOff         = internal.HeadlessOff
)

// Dispatch defaults.
const (
	DefaultMapping    = internal.DefaultMapping
	DefaultPhases     = internal.DefaultPhases
	DefaultCronMarker = internal.DefaultCronMarker
	DefaultViewPrefix = internal.DefaultViewPrefix
)

// Version is the framework version reported by Info.
const Version = internal.Version

// ErrHalt ends a request normally when returned from a hook, a route
// callback or a lifecycle method.
var ErrHalt = internal.ErrHalt

// Constructors

// New creates a new application with the given options.
// The App is immutable after creation.
//
// Example:
//
//	app := relay.New(
//	    relay.WithController("home", relay.Methods{"get_index": home}),
//	    relay.WithController("blog", blog.New(repo)),
//	    relay.WithRoutes(func(r *relay.Routes) {
//	        r.GET("/ping", ping, relay.Terminate())
//	    }),
//	)
//
//	err := app.Run(":8080", relay.Logger(log))
func New(opts ...Option) *App {
	return internal.New(opts...)
}

// NewControllerRegistry creates an empty controller registry, for use with
// WithControllerFinder when controllers are registered after startup.
func NewControllerRegistry() *ControllerRegistry {
	return internal.NewControllerRegistry()
}

// NewHookRegistry creates an empty hook registry.
func NewHookRegistry(l *slog.Logger) *HookRegistry {
	return internal.NewHookRegistry(l)
}

// Routing

// Terminate ends the request after the route's callback, skipping dispatch.
func Terminate() RouteOption {
	return internal.Terminate()
}

// CleanRoute normalizes a request path into the routing key.
func CleanRoute(raw string) string {
	return internal.CleanRoute(raw)
}

// Candidates returns the ten lifecycle method names in execution order.
func Candidates(verb string, phases Phases, action string) [10]string {
	return internal.Candidates(verb, phases, action)
}

// BuildPlan intersects the candidates with a controller's methods.
func BuildPlan(methods Methods, verb string, phases Phases, action string) Plan {
	return internal.BuildPlan(methods, verb, phases, action)
}

// IsReservedHook reports whether phase is a reserved dispatch-state name.
func IsReservedHook(phase string) bool {
	return internal.IsReservedHook(phase)
}

// App options

// WithMiddleware adds middleware around the dispatcher.
// Middleware is applied in the order provided.
func WithMiddleware(mw ...Middleware) Option {
	return internal.WithMiddleware(mw...)
}

// WithController registers a controller under a slash-delimited path.
func WithController(path string, c Controller) Option {
	return internal.WithController(path, c)
}

// WithControllers registers several controllers at once.
func WithControllers(controllers map[string]Controller) Option {
	return internal.WithControllers(controllers)
}

// WithControllerFinder replaces the built-in registry as the controller source.
func WithControllerFinder(f ControllerFinder) Option {
	return internal.WithControllerFinder(f)
}

// WithRoutes declares pattern routes.
func WithRoutes(fn func(r *Routes)) Option {
	return internal.WithRoutes(fn)
}

// WithHook registers an application hook under phase.
func WithHook(phase string, fn HandlerFunc) Option {
	return internal.WithHook(phase, fn)
}

// WithConfig applies dispatch settings, typically loaded with pkg/config:
//
//	var cfg relay.Config
//	config.MustLoad(&cfg)
//	app := relay.New(relay.WithConfig(cfg))
func WithConfig(cfg Config) Option {
	return internal.WithConfig(cfg)
}

// WithMapping sets the default controller and action.
func WithMapping(m string) Option {
	return internal.WithMapping(m)
}

// WithPhases names the before and after phases.
func WithPhases(p string) Option {
	return internal.WithPhases(p)
}

// WithCronMarker sets the query parameter that diverts requests to cron.
func WithCronMarker(marker string) Option {
	return internal.WithCronMarker(marker)
}

// WithViewPrefix sets the prefix of headless view names.
func WithViewPrefix(prefix string) Option {
	return internal.WithViewPrefix(prefix)
}

// WithBasePath mounts the app under a path prefix.
func WithBasePath(base string) Option {
	return internal.WithBasePath(base)
}

// WithHeadlessMode selects how headless views interact with the execution plan.
func WithHeadlessMode(mode HeadlessMode) Option {
	return internal.WithHeadlessMode(mode)
}

// WithAllPatterns makes multi-pattern routes match any of their patterns.
func WithAllPatterns() Option {
	return internal.WithAllPatterns()
}

// WithViews sets the renderer for Context.View and headless views.
func WithViews(r view.Renderer) Option {
	return internal.WithViews(r)
}

// WithCron serves cron requests with s and runs its ticker with the App.
func WithCron(s *cron.Scheduler) Option {
	return internal.WithCron(s)
}

// WithCronDispatcher serves cron requests with d.
func WithCronDispatcher(d CronDispatcher) Option {
	return internal.WithCronDispatcher(d)
}

// WithMetricsEndpoint exposes the metrics in g at path.
func WithMetricsEndpoint(path string, g prometheus.Gatherer) Option {
	return internal.WithMetricsEndpoint(path, g)
}

// WithStaticFiles mounts a static file handler at the given pattern.
// Directory listings are disabled.
func WithStaticFiles(pattern string, fsys fs.FS, subDir string) Option {
	return internal.WithStaticFiles(pattern, fsys, subDir)
}

// WithErrorHandler sets a custom error handler for handler errors.
func WithErrorHandler(h ErrorHandler) Option {
	return internal.WithErrorHandler(h)
}

// WithNotFoundHandler sets the handler for requests no controller can serve.
func WithNotFoundHandler(h HandlerFunc) Option {
	return internal.WithNotFoundHandler(h)
}

// WithHealthChecks enables health check endpoints with optional configuration.
// Liveness (/health/live): Always returns OK if process is running.
// Readiness (/health/ready): Runs all configured checks.
func WithHealthChecks(opts ...HealthOption) Option {
	return internal.WithHealthChecks(opts...)
}

// WithLivenessPath sets a custom liveness endpoint path.
func WithLivenessPath(path string) HealthOption {
	return internal.WithLivenessPath(path)
}

// WithReadinessPath sets a custom readiness endpoint path.
func WithReadinessPath(path string) HealthOption {
	return internal.WithReadinessPath(path)
}

// WithReadinessCheck adds a named readiness check.
func WithReadinessCheck(name string, fn health.CheckFunc) HealthOption {
	return internal.WithReadinessCheck(name, fn)
}

// WithLogger creates a logger with a component name and optional extractors.
//
// Example:
//
//	relay.WithLogger("web", middlewares.RequestIDExtractor(), relay.DispatchExtractor())
func WithLogger(component string, extractors ...ContextExtractor) Option {
	return internal.WithLogger(component, extractors...)
}

// WithCustomLogger sets a fully custom logger.
func WithCustomLogger(l *slog.Logger) Option {
	return internal.WithCustomLogger(l)
}

// DispatchExtractor adds the resolved controller and action to log entries.
func DispatchExtractor() ContextExtractor {
	return internal.DispatchExtractor()
}

// Run options

// Logger sets the logger for server lifecycle events.
func Logger(l *slog.Logger) RunOption {
	return internal.Logger(l)
}

// ShutdownTimeout sets the graceful shutdown timeout.
func ShutdownTimeout(d time.Duration) RunOption {
	return internal.ShutdownTimeout(d)
}

// StartupHook runs fn once the listener is open, before serving.
func StartupHook(fn func(context.Context) error) RunOption {
	return internal.StartupHook(fn)
}

// ShutdownHook registers a cleanup function to run during shutdown.
func ShutdownHook(fn func(context.Context) error) RunOption {
	return internal.ShutdownHook(fn)
}

// WithContext sets the base context; cancelling it shuts the server down.
func WithContext(ctx context.Context) RunOption {
	return internal.WithContext(ctx)
}

// Helpers

// Param returns the i-th positional route parameter converted to T.
func Param[T Scalar](c Context, i int) T {
	return internal.Param[T](c, i)
}

// ParamDefault is Param with a fallback for missing or malformed parameters.
func ParamDefault[T Scalar](c Context, i int, defaultValue T) T {
	return internal.ParamDefault(c, i, defaultValue)
}

// Query returns a query parameter converted to T.
func Query[T Scalar](c Context, name string) T {
	return internal.Query[T](c, name)
}

// QueryDefault returns a query parameter converted to T, or defaultValue.
func QueryDefault[T Scalar](c Context, name string, defaultValue T) T {
	return internal.QueryDefault(c, name, defaultValue)
}

// ContextValue returns the value stored under key with Context.Set.
func ContextValue[T any](c Context, key any) T {
	return internal.ContextValue[T](c, key)
}

// Errors

// IsHalt reports whether err is (or wraps) ErrHalt.
func IsHalt(err error) bool {
	return internal.IsHalt(err)
}

// NewHTTPError creates an HTTPError.
func NewHTTPError(code int, message string, opts ...HTTPErrorOption) *HTTPError {
	return internal.NewHTTPError(code, message, opts...)
}

// IsHTTPError reports whether err is or wraps an *HTTPError.
func IsHTTPError(err error) bool {
	return internal.IsHTTPError(err)
}

// AsHTTPError extracts the HTTPError from an error chain, or nil.
func AsHTTPError(err error) *HTTPError {
	return internal.AsHTTPError(err)
}

// IsNotFound reports whether err carries a 404 HTTPError.
func IsNotFound(err error) bool {
	return internal.IsNotFound(err)
}

func ErrBadRequest(message string, opts ...HTTPErrorOption) *HTTPError {
	return internal.ErrBadRequest(message, opts...)
}

func ErrForbidden(message string, opts ...HTTPErrorOption) *HTTPError {
	return internal.ErrForbidden(message, opts...)
}

func ErrNotFound(message string, opts ...HTTPErrorOption) *HTTPError {
	return internal.ErrNotFound(message, opts...)
}

func ErrMethodNotAllowed(message string, opts ...HTTPErrorOption) *HTTPError {
	return internal.ErrMethodNotAllowed(message, opts...)
}

func ErrInternal(message string, opts ...HTTPErrorOption) *HTTPError {
	return internal.ErrInternal(message, opts...)
}

func ErrServiceUnavailable(message string, opts ...HTTPErrorOption) *HTTPError {
	return internal.ErrServiceUnavailable(message, opts...)
}

func WithTitle(title string) HTTPErrorOption {
	return internal.WithTitle(title)
}

func WithDetail(detail string) HTTPErrorOption {
	return internal.WithDetail(detail)
}

func WithErrorCode(code string) HTTPErrorOption {
	return internal.WithErrorCode(code)
}

func WithRequestID(id string) HTTPErrorOption {
	return internal.WithRequestID(id)
}

func WithError(err error) HTTPErrorOption {
	return internal.WithError(err)
}
