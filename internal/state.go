package internal

import (
	"regexp"
	"strings"
)

// unsafeRouteChars matches everything CleanRoute removes: characters outside
// the routing alphabet and runs of two or more colons or periods.
var unsafeRouteChars = regexp.MustCompile(`[^a-zA-Z0-9:~/.\-_]|:{2,}|\.{2,}`)

// CleanRoute normalizes a request path into the routing key.
// Characters outside [A-Za-z0-9:~/.-_] are stripped and runs of "::" or ".."
// are removed entirely. Stripping can join two periods that were apart, so
// the pass repeats until nothing changes. An empty result becomes "/".
func CleanRoute(raw string) string {
	route := raw
	for {
		next := unsafeRouteChars.ReplaceAllString(route, "")
		if next == route {
			break
		}
		route = next
	}
	if route == "" {
		return "/"
	}
	return route
}

// RouteMatch is one entry of the route trace.
type RouteMatch struct {
	Verb    string `json:"verb"`
	Pattern string `json:"pattern"`
}

// RequestState is the per-request dispatch state.
// It is created for every request and passed explicitly through the router,
// resolver and dispatcher; nothing about a request lives in package state.
type RequestState struct {
	// RawPath is the request path before normalization (base path removed).
	RawPath string
	// Route is the cleaned routing key.
	Route string
	// Controller is the controller path that resolved the request.
	Controller string
	// ControllerID is the identifier reported by the discovery oracle.
	ControllerID string
	// Action is the action name, the configured default unless realigned.
	Action string
	// Method is the lower-cased request verb.
	Method string
	// Params are the leftover route segments.
	Params []string
	// Matches is the route trace recorded by the pattern router.
	Matches []RouteMatch
}

// newRequestState builds the state for a request path and verb.
func newRequestState(path, verb, basePath string, m mapping) *RequestState {
	raw := stripBasePath(path, basePath)
	return &RequestState{
		RawPath:    raw,
		Route:      CleanRoute(raw),
		Controller: m.controller,
		Action:     m.action,
		Method:     strings.ToLower(verb),
	}
}

// stripBasePath removes the mount prefix so an app served under "/app"
// routes "/app/users" as "/users".
func stripBasePath(path, base string) string {
	base = strings.TrimRight(base, "/")
	if base == "" {
		return path
	}
	rest, ok := strings.CutPrefix(path, base)
	if !ok || (rest != "" && rest[0] != '/') {
		return path
	}
	if rest == "" {
		return "/"
	}
	return rest
}

// segments splits a path on "/" and drops empty segments.
func segments(path string) []string {
	parts := strings.Split(path, "/")
	out := parts[:0]
	for _, p := range parts {
		if p != "" {
			out = append(out, p)
		}
	}
	return out
}
