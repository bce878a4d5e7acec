// Package relay is a small request dispatcher that maps URLs to controllers
// by convention.
//
// A request goes through three stages. Pattern routes registered with
// WithRoutes are evaluated first, in declaration order; each one that
// matches runs its callback. The route is then walked from its full length
// down to its first segment until a controller is found, and the leftover
// segments become positional params. Finally up to ten lifecycle methods run
// in a fixed order, wrapped by the before and after hook phases.
//
// # Quick Start
//
//	app := relay.New(
//	    relay.WithLogger("web", relay.DispatchExtractor()),
//	    relay.WithController("home", relay.Methods{
//	        "get_index": func(c relay.Context) error {
//	            return c.String(http.StatusOK, "hello")
//	        },
//	    }),
//	)
//
//	if err := app.Run(":8080"); err != nil {
//	    log.Fatal(err)
//	}
//
// # Controllers
//
// A controller is a method table registered under a path. Methods are named
// after the verb and the action, "get_index" or "post_update"; the action is
// the default action from the mapping ("home/index") unless the first param
// names a method, in which case it becomes the action:
//
//	relay.WithController("blog", relay.Methods{
//	    "get_index": listPosts, // GET /blog, GET /blog/5 (param "5")
//	    "get_edit":  editPost,  // GET /blog/edit/5 (param "5")
//	    "before":    loadUser,  // runs before every blog method
//	})
//
// Requests whose route reaches no controller fall back to the default one.
// A controller without "{verb}_{action}" cannot serve the request: the
// result is a 404 even when phase methods exist.
//
// # Lifecycle
//
// For GET on action "index" with the default phases, the candidates are:
//
//	get, before, get_before, before_index, get_before_index,
//	get_index,
//	get_after_index, after_index, get_after, after
//
// The ones the controller declares run in that order. Returning ErrHalt
// (c.Halt()) from any of them ends the request without running the rest.
//
// # Pattern Routes
//
//	relay.WithRoutes(func(r *relay.Routes) {
//	    r.GET("/ping", pong, relay.Terminate()) // respond and stop
//	    r.ANY(`/admin/.*`, requireAdmin)         // then dispatch normally
//	    r.PORT("/internal/sync", nil)            // dispatch now, skip later routes
//	})
//
// Patterns match the cleaned route literally first and then as anchored
// regular expressions.
//
// # Hooks
//
// Hooks registered with WithHook run in every request; c.Hooks() adds hooks
// for the current request only. The names config, route, params, classes,
// controller and action are reserved and ignored.
//
// # Views
//
// WithViews plugs in a view.Renderer. When a route has params and the
// action name does not appear in it, the first param names a headless view
// ("~" + param) that is rendered instead of the controller methods.
//
// # Cron
//
// Requests carrying the cron marker query parameter ("?_cron") go to the
// cron dispatcher instead of a controller. WithCron wires a pkg/cron
// Scheduler, which also runs its own ticker while the App is running.
package relay
