package internal

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"io"
	"log/slog"
	"net/http"
	"slices"
	"time"
)

// Component is the interface for renderable templates.
// This is compatible with templ.Component.
type Component interface {
	Render(ctx context.Context, w io.Writer) error
}

// Context provides request/response access, the dispatch state and helper methods.
// It also implements context.Context by delegating to the underlying request context.
type Context interface {
	context.Context

	// Request returns the underlying *http.Request.
	Request() *http.Request

	// Response returns the underlying http.ResponseWriter.
	Response() http.ResponseWriter

	// ResponseWriter returns the tracking writer the dispatcher installed.
	ResponseWriter() *ResponseWriter

	// Context returns the request's context.Context.
	Context() context.Context

	// SetContext replaces the request's context.Context.
	SetContext(ctx context.Context)

	// Route returns the cleaned routing key.
	Route() string

	// RawPath returns the request path before cleaning, without the base path.
	RawPath() string

	// Method returns the lower-cased request verb.
	Method() string

	// Controller returns the identifier of the resolved controller.
	// Empty before the controller dispatch has resolved one.
	Controller() string

	// ControllerPath returns the controller path the route resolved to.
	ControllerPath() string

	// Action returns the action name.
	Action() string

	// Params returns a copy of the positional route parameters.
	Params() []string

	// Param returns the i-th positional parameter, or "" when out of range.
	Param(i int) string

	// Matches returns the route trace: every pattern route that matched so far.
	Matches() []RouteMatch

	// Match evaluates verb and pattern against the current request the way
	// registered pattern routes are evaluated, recording a match in the trace.
	Match(verb, pattern string) bool

	// Hooks returns the request's hook registry. Hooks registered here run
	// in this request only.
	Hooks() *HookRegistry

	// Query returns the query parameter value by name.
	Query(name string) string

	// Header returns the request header value by name.
	Header(name string) string

	// SetHeader sets a response header.
	SetHeader(name, value string)

	// JSON writes a JSON response with the given status code.
	JSON(code int, v any) error

	// String writes a plain text response with the given status code.
	String(code int, s string) error

	// HTML writes an HTML string with the given status code.
	HTML(code int, html string) error

	// NoContent writes a response with no body.
	NoContent(code int) error

	// Redirect redirects to the given URL with the given status code.
	Redirect(code int, url string) error

	// Render renders a component with the given status code.
	// Compatible with templ.Component.
	Render(code int, component Component) error

	// View renders a named view through the configured view renderer.
	// Returns a 404 HTTPError when the view does not exist.
	View(code int, name string, data any) error

	// Error creates and returns an HTTPError without writing a response.
	Error(code int, message string, opts ...HTTPErrorOption) *HTTPError

	// Halt returns ErrHalt. Returning it from a hook, route callback or
	// lifecycle method ends the request without running anything else.
	Halt() error

	// Written returns true if a response has already been written.
	Written() bool

	// Info returns a snapshot of the dispatch state for debugging views.
	Info() Info

	// Logger returns the logger for advanced usage.
	Logger() *slog.Logger

	// LogDebug logs a debug message with optional attributes.
	LogDebug(msg string, attrs ...any)

	// LogInfo logs an info message with optional attributes.
	LogInfo(msg string, attrs ...any)

	// LogWarn logs a warning message with optional attributes.
	LogWarn(msg string, attrs ...any)

	// LogError logs an error message with optional attributes.
	LogError(msg string, attrs ...any)

	// Set stores a value in the request context.
	Set(key any, value any)

	// Get retrieves a value from the request context.
	// Returns nil if the key is not found.
	Get(key any) any
}

// stateKey stores the *RequestState in the request context so log
// extractors can see the dispatch state.
type stateKey struct{}

// requestContext implements Context.
type requestContext struct {
	request        *http.Request
	responseWriter *ResponseWriter
	app            *App
	state          *RequestState
	hooks          *HookRegistry
}

// newContext wraps w and r for one request. The state is stored in the
// request context so DispatchExtractor can read it.
func newContext(w *ResponseWriter, r *http.Request, app *App, st *RequestState) *requestContext {
	r = r.WithContext(context.WithValue(r.Context(), stateKey{}, st))
	return &requestContext{
		request:        r,
		responseWriter: w,
		app:            app,
		state:          st,
		hooks:          newRequestHooks(app.logger, app.hooks),
	}
}

func (c *requestContext) Request() *http.Request {
	return c.request
}

func (c *requestContext) Response() http.ResponseWriter {
	return c.responseWriter
}

func (c *requestContext) ResponseWriter() *ResponseWriter {
	return c.responseWriter
}

func (c *requestContext) Context() context.Context {
	return c.request.Context()
}

func (c *requestContext) SetContext(ctx context.Context) {
	if ctx != nil {
		c.request = c.request.WithContext(ctx)
	}
}

func (c *requestContext) Deadline() (time.Time, bool) {
	return c.request.Context().Deadline()
}

func (c *requestContext) Done() <-chan struct{} {
	return c.request.Context().Done()
}

func (c *requestContext) Err() error {
	return c.request.Context().Err()
}

func (c *requestContext) Value(key any) any {
	return c.request.Context().Value(key)
}

func (c *requestContext) Route() string {
	return c.state.Route
}

func (c *requestContext) RawPath() string {
	return c.state.RawPath
}

func (c *requestContext) Method() string {
	return c.state.Method
}

func (c *requestContext) Controller() string {
	return c.state.ControllerID
}

func (c *requestContext) ControllerPath() string {
	return c.state.Controller
}

func (c *requestContext) Action() string {
	return c.state.Action
}

func (c *requestContext) Params() []string {
	return slices.Clone(c.state.Params)
}

func (c *requestContext) Param(i int) string {
	if i < 0 || i >= len(c.state.Params) {
		return ""
	}
	return c.state.Params[i]
}

func (c *requestContext) Matches() []RouteMatch {
	return slices.Clone(c.state.Matches)
}

func (c *requestContext) Match(verb, pattern string) bool {
	return matchRoute(c.state, verb, pattern, c.app.patterns.compile(pattern))
}

func (c *requestContext) Hooks() *HookRegistry {
	return c.hooks
}

func (c *requestContext) Query(name string) string {
	return c.request.URL.Query().Get(name)
}

func (c *requestContext) Header(name string) string {
	return c.request.Header.Get(name)
}

func (c *requestContext) SetHeader(name, value string) {
	c.responseWriter.Header().Set(name, value)
}

func (c *requestContext) JSON(code int, v any) error {
	c.responseWriter.Header().Set("Content-Type", "application/json; charset=utf-8")
	c.responseWriter.WriteHeader(code)
	return json.NewEncoder(c.responseWriter).Encode(v)
}

func (c *requestContext) String(code int, s string) error {
	c.responseWriter.Header().Set("Content-Type", "text/plain; charset=utf-8")
	c.responseWriter.WriteHeader(code)
	_, err := io.WriteString(c.responseWriter, s)
	return err
}

func (c *requestContext) HTML(code int, html string) error {
	c.responseWriter.Header().Set("Content-Type", "text/html; charset=utf-8")
	c.responseWriter.WriteHeader(code)
	_, err := io.WriteString(c.responseWriter, html)
	return err
}

func (c *requestContext) NoContent(code int) error {
	c.responseWriter.WriteHeader(code)
	return nil
}

func (c *requestContext) Redirect(code int, url string) error {
	http.Redirect(c.responseWriter, c.request, url, code)
	return nil
}

func (c *requestContext) Render(code int, component Component) error {
	var buf bytes.Buffer
	if err := component.Render(c.request.Context(), &buf); err != nil {
		return fmt.Errorf("render component: %w", err)
	}
	return writeHTML(c, code, buf.Bytes())
}

func (c *requestContext) View(code int, name string, data any) error {
	out, err := c.app.renderView(c, name, data)
	if err != nil {
		return err
	}
	return writeHTML(c, code, out)
}

// writeHTML sends a fully rendered body so render failures never leave a
// half-written response behind.
func writeHTML(c Context, code int, body []byte) error {
	w := c.Response()
	w.Header().Set("Content-Type", "text/html; charset=utf-8")
	w.WriteHeader(code)
	_, err := w.Write(body)
	return err
}

func (c *requestContext) Error(code int, message string, opts ...HTTPErrorOption) *HTTPError {
	return NewHTTPError(code, message, opts...)
}

func (c *requestContext) Halt() error {
	return ErrHalt
}

func (c *requestContext) Written() bool {
	return c.responseWriter.Written()
}

func (c *requestContext) Info() Info {
	return newInfo(c.app.dispatch, c.state, c.request)
}

func (c *requestContext) Logger() *slog.Logger {
	return c.app.logger
}

func (c *requestContext) LogDebug(msg string, attrs ...any) {
	c.app.logger.DebugContext(c.request.Context(), msg, attrs...)
}

func (c *requestContext) LogInfo(msg string, attrs ...any) {
	c.app.logger.InfoContext(c.request.Context(), msg, attrs...)
}

func (c *requestContext) LogWarn(msg string, attrs ...any) {
	c.app.logger.WarnContext(c.request.Context(), msg, attrs...)
}

func (c *requestContext) LogError(msg string, attrs ...any) {
	c.app.logger.ErrorContext(c.request.Context(), msg, attrs...)
}

func (c *requestContext) Set(key, value any) {
	ctx := context.WithValue(c.request.Context(), key, value)
	c.request = c.request.WithContext(ctx)
}

func (c *requestContext) Get(key any) any {
	return c.request.Context().Value(key)
}
