package internal

import (
	"slices"
	"strings"
)

// Resolution is the outcome of walking a route to a controller.
type Resolution struct {
	// Methods is the resolved controller's method table.
	Methods Methods
	// Controller is the controller path that matched ("/admin/users").
	Controller string
	// ControllerID is the identifier the discovery oracle returned.
	ControllerID string
	// Action is the default action, or the first param when realigned.
	Action string
	// Params are the route segments that are not part of the controller path.
	Params []string
	// Found is false when not even the default controller exists.
	Found bool
	// Fallback is true when no probe matched and the default controller was used.
	Fallback bool
	// Realigned is true when the first param was taken as the action.
	Realigned bool
}

// resolver maps cleaned routes to controllers.
type resolver struct {
	finder            ControllerFinder
	defaultController string
	defaultAction     string
}

// Resolve walks route from its full length down to its first segment.
// At each step it probes the prefix itself and then the prefix joined with the
// default controller name; the first probe the finder confirms wins. Without
// any confirmed probe the default controller is used.
//
// Params are the route segments minus every segment value that occurs in the
// controller path. When the controller declares "{verb}_{first param}", that
// param becomes the action.
func (rv *resolver) Resolve(route, verb string) Resolution {
	res := Resolution{Action: rv.defaultAction}

	res.Controller, res.ControllerID, res.Methods, res.Found = rv.walk(route)
	if !res.Found {
		res.Fallback = true
		res.ControllerID, res.Methods, res.Found = rv.finder.Find(rv.defaultController)
		res.Controller = "/" + controllerKey(rv.defaultController)
	}

	res.Params = diffSegments(segments(route), segments(res.Controller))

	if res.Found && len(res.Params) > 0 && res.Methods.Has(verb+"_"+res.Params[0]) {
		res.Action = res.Params[0]
		res.Params = res.Params[1:]
		res.Realigned = true
	}

	return res
}

func (rv *resolver) walk(route string) (string, string, Methods, bool) {
	for rte := route; ; {
		pos := strings.LastIndexByte(rte, '/')
		if pos < 0 {
			return "", "", nil, false
		}
		for _, attempt := range [2]string{rte, rte + "/" + rv.defaultController} {
			if id, methods, ok := rv.finder.Find(attempt); ok {
				return "/" + controllerKey(attempt), id, methods, true
			}
		}
		rte = rte[:pos]
	}
}

// diffSegments returns the values of route that do not occur in controller,
// keeping their order. Every occurrence of a controller segment is removed.
func diffSegments(route, controller []string) []string {
	out := make([]string, 0, len(route))
	for _, s := range route {
		if !slices.Contains(controller, s) {
			out = append(out, s)
		}
	}
	return out
}
