// Package health provides liveness and readiness HTTP handlers.
//
// Readiness checks are plain func(context.Context) error closures, so probes
// such as pkg/redis.Healthcheck plug in directly. Checks run concurrently
// under one timeout and every check reports, even when another one fails.
//
//	r.Get("/health/live", health.LivenessHandler())
//	r.Get("/health/ready", health.ReadinessHandler(health.Checks{
//	    "redis": redis.Healthcheck(client),
//	}, health.WithTimeout(3*time.Second)))
//
// Responses are plain text ("OK" / "Service Unavailable") unless the client
// asks for JSON with ?format=json or an Accept: application/json header:
//
//	{"status":"down","checks":{"redis":{"status":"down","error":"dial tcp: connection refused","duration_ns":1200}}}
package health
