// Package middlewares provides middleware for relay applications.
//
// Middleware wraps the whole request: pattern routes, the cron diversion
// and the controller dispatch all run inside it and share one Context.
// Anything the middleware reads after calling next (controller, action,
// status) reflects what the dispatch did.
//
// # Request ID
//
// RequestID reuses an upstream X-Request-ID or generates a UUID, stores it
// in the request context and echoes it in the response. HTTP errors
// returned by handlers get the ID attached for the error handler.
//
//	app := relay.New(
//	    relay.WithLogger("web", middlewares.RequestIDExtractor(), relay.DispatchExtractor()),
//	    relay.WithMiddleware(middlewares.RequestID()),
//	)
//
// # Recover
//
// Recover turns panics into *PanicError values for the error handler:
//
//	relay.WithErrorHandler(func(c relay.Context, err error) error {
//	    if middlewares.IsPanicError(err) {
//	        return c.String(http.StatusInternalServerError, "Internal Server Error")
//	    }
//	    return c.String(http.StatusInternalServerError, err.Error())
//	})
//
// # Timeout
//
// Timeout sets a deadline on the request context. Handlers must watch
// c.Done() in blocking calls; a request that runs past the deadline
// without writing fails with *TimeoutError.
//
// # Metrics
//
// Metrics records Prometheus counters and latency histograms labelled by
// controller and action. Pair it with relay.WithMetricsEndpoint:
//
//	reg := prometheus.NewRegistry()
//	app := relay.New(
//	    relay.WithMiddleware(middlewares.Metrics(middlewares.WithMetricsRegistry(reg))),
//	    relay.WithMetricsEndpoint("/metrics", reg),
//	)
//
// # Recommended Middleware Order
//
//	relay.WithMiddleware(
//	    middlewares.RequestID(),            // ID for all subsequent logging
//	    middlewares.Metrics(),              // sees the final status
//	    middlewares.Recover(),              // catches panics from everything below
//	    middlewares.Timeout(5*time.Second), // deadline for hooks and controllers
//	)
package middlewares
