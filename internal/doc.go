// Package internal provides the core types and implementation of relay.
//
// This package is internal and should not be used directly. Import
// "github.com/dmitrymomot/relay" instead, which re-exports the public API.
//
// # Request flow
//
// Every request that is not a static file, health probe or metrics scrape
// enters the dispatcher through a chi catch-all route:
//
//  1. The path is stripped of the base path and cleaned into the route.
//  2. Middleware runs, outermost first.
//  3. Pattern routes are evaluated in declaration order. A match runs its
//     callback; Terminate ends the request, PORT dispatches and then ends it.
//  4. A request carrying the cron marker goes to the CronDispatcher.
//  5. The resolver walks the route to the deepest registered controller and
//     splits the remaining segments into the action and params.
//  6. Before hooks run, then a headless view or the controller's execution
//     plan, then after hooks.
//
// # Controllers
//
// A controller is a method table. The dispatcher picks up to ten methods
// named after the request verb, the hook phases and the action:
//
//	relay.Methods{
//	    "before":      loadAccount,
//	    "get_index":   listUsers,
//	    "post_update": updateUser,
//	}
//
// "{verb}_{action}" is mandatory; the rest run around it when declared.
//
// # Context as context.Context
//
// Context embeds context.Context, so it can be passed directly to any
// function that expects a standard library context:
//
//	func showUser(c relay.Context) error {
//	    user, err := repo.GetUser(c, relay.Param[int64](c, 0))
//	    if err != nil {
//	        return err
//	    }
//	    return c.JSON(http.StatusOK, user)
//	}
//
// # Ending a request early
//
// Returning c.Halt() from a hook, route callback or controller method stops
// all further processing without treating it as an error.
package internal
