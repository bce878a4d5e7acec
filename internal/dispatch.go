package internal

import (
	"bytes"
	"context"
	"errors"
	"fmt"
	"log/slog"
	"net/http"
	"strings"

	"github.com/dmitrymomot/relay/pkg/view"
)

// serve is the innermost handler every request reaches through the middleware
// chain: pattern routes first, then the controller dispatch.
func (a *App) serve(c Context) error {
	st := stateFrom(c)

	outcome, err := a.routes.evaluate(c, st)
	if err != nil {
		return err
	}
	if outcome == routeStop {
		return nil
	}
	// routePort dispatches as well; evaluate has already stopped at the PORT route.
	return a.dispatchRequest(c, st)
}

// stateFrom returns the dispatch state stored in the request context.
// Middleware may wrap the Context, so the state is not taken from the
// concrete type.
func stateFrom(c Context) *RequestState {
	if st, ok := c.Value(stateKey{}).(*RequestState); ok && st != nil {
		return st
	}
	r := c.Request()
	return newRequestState(r.URL.Path, r.Method, "", mapping{})
}

// dispatchRequest resolves the controller and runs hooks, the headless view
// and the execution plan for one request.
func (a *App) dispatchRequest(c Context, st *RequestState) error {
	if a.cron != nil && hasMarker(c.Request(), a.dispatch.cronMarker) {
		a.logger.DebugContext(c, "request diverted to cron dispatcher", slog.String("route", st.Route))
		return a.cron.ServeCron(c)
	}

	res := a.resolver.Resolve(st.Route, st.Method)
	st.Controller = res.Controller
	st.ControllerID = res.ControllerID
	st.Action = res.Action
	st.Params = res.Params

	if !res.Found {
		a.logger.DebugContext(c, "no controller found", slog.String("route", st.Route))
		return ErrNotFound("page not found")
	}

	a.logger.DebugContext(c, "controller resolved",
		slog.String("controller", res.ControllerID),
		slog.String("action", res.Action),
		slog.Any("params", res.Params),
		slog.Bool("fallback", res.Fallback),
		slog.Bool("realigned", res.Realigned),
	)

	hooks := c.Hooks()
	if err := hooks.Run(c, a.dispatch.phases.Before); err != nil {
		return err
	}

	plan := BuildPlan(res.Methods, st.Method, a.dispatch.phases, st.Action)

	switch a.dispatch.headless {
	case HeadlessStrict:
		if !plan.Primary {
			return ErrNotFound("page not found")
		}
		if a.isHeadless(st) {
			if err := a.serveHeadless(c, st); err != nil {
				return err
			}
			return hooks.Run(c, a.dispatch.phases.After)
		}
	case HeadlessFallthrough:
		if a.isHeadless(st) {
			served, err := a.tryHeadless(c, st)
			if err != nil {
				return err
			}
			if served {
				return hooks.Run(c, a.dispatch.phases.After)
			}
		}
	}

	if !plan.Primary {
		return ErrNotFound("page not found")
	}

	a.logger.DebugContext(c, "running execution plan", slog.Any("plan", plan.Names()))
	if err := plan.Run(c); err != nil {
		return err
	}

	return hooks.Run(c, a.dispatch.phases.After)
}

// isHeadless applies the headless-view heuristic: there are params, and the
// action name does not appear anywhere in the route.
func (a *App) isHeadless(st *RequestState) bool {
	return len(st.Params) > 0 &&
		!strings.Contains(strings.ToLower(st.Route), strings.ToLower(st.Action))
}

func (a *App) headlessView(st *RequestState) string {
	return a.dispatch.viewPrefix + st.Params[0]
}

// serveHeadless renders the headless view or fails with a 404.
func (a *App) serveHeadless(c Context, st *RequestState) error {
	served, err := a.tryHeadless(c, st)
	if err != nil {
		return err
	}
	if !served {
		return ErrNotFound("page not found")
	}
	return nil
}

// tryHeadless renders the headless view when it exists.
func (a *App) tryHeadless(c Context, st *RequestState) (bool, error) {
	name := a.headlessView(st)
	out, err := a.renderView(c, name, c.Info())
	if err != nil {
		if IsNotFound(err) {
			a.logger.DebugContext(c, "headless view not found", slog.String("view", name))
			return false, nil
		}
		return false, err
	}

	a.logger.DebugContext(c, "serving headless view", slog.String("view", name))
	return true, writeHTML(c, http.StatusOK, out)
}

// renderView renders name to memory, mapping a missing view to a 404.
func (a *App) renderView(ctx context.Context, name string, data any) ([]byte, error) {
	if a.views == nil {
		return nil, ErrNotFound("view not found", WithError(view.ErrNotFound))
	}
	var buf bytes.Buffer
	if err := a.views.Render(ctx, &buf, name, data); err != nil {
		if errors.Is(err, view.ErrNotFound) {
			return nil, ErrNotFound("view not found", WithError(err))
		}
		return nil, fmt.Errorf("render view %q: %w", name, err)
	}
	return buf.Bytes(), nil
}

// hasMarker reports whether the request carries marker as a query
// parameter, an urlencoded form field or a cookie.
func hasMarker(r *http.Request, marker string) bool {
	if r.URL.Query().Has(marker) {
		return true
	}
	if r.Method == http.MethodPost || r.Method == http.MethodPut || r.Method == http.MethodPatch {
		if err := r.ParseForm(); err == nil && r.PostForm.Has(marker) {
			return true
		}
	}
	_, err := r.Cookie(marker)
	return err == nil
}
