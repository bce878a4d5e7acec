package internal

import (
	"log/slog"
	"net/http"
	"regexp"
	"strings"
	"sync"
)

// Wildcard verbs. ANY matches every request verb. PORT and PORTS also match
// every verb and, on a match, force the controller dispatch and end the request.
const (
	VerbAny   = "ANY"
	VerbPort  = "PORT"
	VerbPorts = "PORTS"
)

// RouteOption configures a single pattern route.
type RouteOption func(*routeEntry)

// Terminate ends request processing after the route's callback runs,
// so the controller dispatch never happens for this request.
func Terminate() RouteOption {
	return func(e *routeEntry) {
		e.terminate = true
	}
}

// routeEntry is one registered pattern route.
type routeEntry struct {
	callback  HandlerFunc
	verb      string
	patterns  []string
	compiled  []*regexp.Regexp // nil entry: pattern only matches literally
	terminate bool
}

// Routes is the pattern router. Entries are declared once while the App is
// built and evaluated in declaration order against every request, before the
// controller dispatch.
//
// Example:
//
//	relay.WithRoutes(func(r *relay.Routes) {
//	    r.GET("/health", healthCheck, relay.Terminate())
//	    r.GET(`/posts/\d+`, countView)
//	    r.PORT("/internal/sync", nil)
//	})
type Routes struct {
	logger      *slog.Logger
	entries     []*routeEntry
	allPatterns bool
}

func newRoutes(logger *slog.Logger, allPatterns bool) *Routes {
	return &Routes{logger: logger, allPatterns: allPatterns}
}

// Handle registers a route for an arbitrary verb. The verb is
// case-insensitive; ANY, PORT and PORTS are the wildcard verbs.
// The pattern is matched literally first, then as an anchored regular
// expression. callback may be nil.
func (r *Routes) Handle(verb, pattern string, callback HandlerFunc, opts ...RouteOption) {
	r.HandlePatterns(verb, []string{pattern}, callback, opts...)
}

// HandlePatterns registers one route for several patterns.
//
// Unless the App was built with WithAllPatterns, only the first pattern is
// ever evaluated and the rest are kept for introspection only. This keeps
// routing tables written for the legacy behavior working unchanged.
func (r *Routes) HandlePatterns(verb string, patterns []string, callback HandlerFunc, opts ...RouteOption) {
	if len(patterns) == 0 {
		return
	}

	e := &routeEntry{
		verb:     strings.ToUpper(verb),
		patterns: patterns,
		callback: callback,
	}
	for _, opt := range opts {
		opt(e)
	}

	evaluated := patterns[:1]
	if r.allPatterns {
		evaluated = patterns
	}
	e.compiled = make([]*regexp.Regexp, len(evaluated))
	for i, p := range evaluated {
		re, err := regexp.Compile("^" + p + "$")
		if err != nil {
			if r.logger != nil {
				r.logger.Warn("route pattern is not a valid regexp, matching literally",
					slog.String("verb", e.verb),
					slog.String("pattern", p),
					slog.String("error", err.Error()),
				)
			}
			continue
		}
		e.compiled[i] = re
	}

	r.entries = append(r.entries, e)
}

func (r *Routes) GET(pattern string, callback HandlerFunc, opts ...RouteOption) {
	r.Handle(http.MethodGet, pattern, callback, opts...)
}

func (r *Routes) POST(pattern string, callback HandlerFunc, opts ...RouteOption) {
	r.Handle(http.MethodPost, pattern, callback, opts...)
}

func (r *Routes) PUT(pattern string, callback HandlerFunc, opts ...RouteOption) {
	r.Handle(http.MethodPut, pattern, callback, opts...)
}

func (r *Routes) PATCH(pattern string, callback HandlerFunc, opts ...RouteOption) {
	r.Handle(http.MethodPatch, pattern, callback, opts...)
}

func (r *Routes) DELETE(pattern string, callback HandlerFunc, opts ...RouteOption) {
	r.Handle(http.MethodDelete, pattern, callback, opts...)
}

func (r *Routes) HEAD(pattern string, callback HandlerFunc, opts ...RouteOption) {
	r.Handle(http.MethodHead, pattern, callback, opts...)
}

func (r *Routes) OPTIONS(pattern string, callback HandlerFunc, opts ...RouteOption) {
	r.Handle(http.MethodOptions, pattern, callback, opts...)
}

// ANY matches the pattern for every verb.
func (r *Routes) ANY(pattern string, callback HandlerFunc, opts ...RouteOption) {
	r.Handle(VerbAny, pattern, callback, opts...)
}

// PORT matches the pattern for every verb, runs the callback, then forces
// the controller dispatch and ends the request. Later routes are not evaluated.
func (r *Routes) PORT(pattern string, callback HandlerFunc, opts ...RouteOption) {
	r.Handle(VerbPort, pattern, callback, opts...)
}

// Len returns the number of registered routes.
func (r *Routes) Len() int {
	return len(r.entries)
}

// routeOutcome tells the caller what to do after the routes were evaluated.
type routeOutcome int

const (
	routeContinue routeOutcome = iota // fall through to the controller dispatch
	routePort                         // dispatch now, then stop
	routeStop                         // stop without dispatching
)

// evaluate runs the routes against the request in declaration order.
func (r *Routes) evaluate(c Context, st *RequestState) (routeOutcome, error) {
	for _, e := range r.entries {
		matched := false
		for i, re := range e.compiled {
			if matchRoute(st, e.verb, e.patterns[i], re) {
				matched = true
				break
			}
		}
		if !matched {
			continue
		}

		if r.logger != nil {
			r.logger.DebugContext(c, "route matched",
				slog.String("verb", e.verb),
				slog.String("route", st.Route),
			)
		}

		if e.callback != nil {
			if err := e.callback(c); err != nil {
				return routeStop, err
			}
		}
		if e.verb == VerbPort || e.verb == VerbPorts {
			return routePort, nil
		}
		if e.terminate {
			return routeStop, nil
		}
	}
	return routeContinue, nil
}

// matchRoute reports whether verb and pattern match the request and records
// the match in the route trace. Literal equality is checked before the regexp,
// so a pattern that is not a valid regexp still matches its own path.
// re may be nil, in which case only the literal comparison applies.
func matchRoute(st *RequestState, verb, pattern string, re *regexp.Regexp) bool {
	verb = strings.ToUpper(verb)
	switch verb {
	case VerbAny, VerbPort, VerbPorts, strings.ToUpper(st.Method):
	default:
		return false
	}

	if st.Route != pattern && (re == nil || !re.MatchString(st.Route)) {
		return false
	}

	st.Matches = append(st.Matches, RouteMatch{Verb: verb, Pattern: pattern})
	return true
}

// patternCache compiles ad hoc patterns passed to Context.Match once.
type patternCache struct {
	compiled sync.Map // pattern -> *regexp.Regexp, nil when invalid
}

func (p *patternCache) compile(pattern string) *regexp.Regexp {
	if v, ok := p.compiled.Load(pattern); ok {
		re, _ := v.(*regexp.Regexp)
		return re
	}
	re, err := regexp.Compile("^" + pattern + "$")
	if err != nil {
		re = nil
	}
	p.compiled.Store(pattern, re)
	return re
}
