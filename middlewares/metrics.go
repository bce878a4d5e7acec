package middlewares

import (
	"net/http"
	"strconv"
	"strings"
	"time"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"

	"github.com/dmitrymomot/relay/internal"
)

// MetricsConfig configures the metrics middleware.
type MetricsConfig struct {
	Registerer prometheus.Registerer
	Namespace  string
	Buckets    []float64
}

// MetricsOption configures MetricsConfig.
type MetricsOption func(*MetricsConfig)

// WithMetricsRegistry records to r instead of the default registerer.
func WithMetricsRegistry(r prometheus.Registerer) MetricsOption {
	return func(cfg *MetricsConfig) {
		if r != nil {
			cfg.Registerer = r
		}
	}
}

// WithMetricsNamespace sets the metric name prefix, "relay" by default.
func WithMetricsNamespace(ns string) MetricsOption {
	return func(cfg *MetricsConfig) {
		cfg.Namespace = ns
	}
}

// WithMetricsBuckets sets the latency histogram buckets in seconds.
func WithMetricsBuckets(b ...float64) MetricsOption {
	return func(cfg *MetricsConfig) {
		if len(b) > 0 {
			cfg.Buckets = b
		}
	}
}

// Metrics returns middleware that counts requests and observes their latency,
// labelled by resolved controller, action, verb and status code.
// Requests that never reach a controller (pattern routes with Terminate,
// cron requests, 404s) are labelled with controller "none".
//
// Collectors are registered when Metrics is called, so call it once per registry.
func Metrics(opts ...MetricsOption) internal.Middleware {
	cfg := &MetricsConfig{
		Registerer: prometheus.DefaultRegisterer,
		Namespace:  "relay",
		Buckets:    prometheus.DefBuckets,
	}
	for _, opt := range opts {
		opt(cfg)
	}

	labels := []string{"controller", "action", "method", "status"}
	factory := promauto.With(cfg.Registerer)

	requests := factory.NewCounterVec(prometheus.CounterOpts{
		Namespace: cfg.Namespace,
		Name:      "requests_total",
		Help:      "Requests handled, by controller, action, method and status.",
	}, labels)

	duration := factory.NewHistogramVec(prometheus.HistogramOpts{
		Namespace: cfg.Namespace,
		Name:      "request_duration_seconds",
		Help:      "Request latency, by controller, action, method and status.",
		Buckets:   cfg.Buckets,
	}, labels)

	inflight := factory.NewGauge(prometheus.GaugeOpts{
		Namespace: cfg.Namespace,
		Name:      "requests_in_flight",
		Help:      "Requests currently being handled.",
	})

	return func(next internal.HandlerFunc) internal.HandlerFunc {
		return func(c internal.Context) error {
			inflight.Inc()
			defer inflight.Dec()

			start := time.Now()
			err := next(c)

			controller, action := c.Controller(), c.Action()
			if controller == "" {
				controller, action = "none", ""
			}
			lv := []string{controller, action, methodLabel(c.Method()), strconv.Itoa(statusOf(c, err))}

			requests.WithLabelValues(lv...).Inc()
			duration.WithLabelValues(lv...).Observe(time.Since(start).Seconds())
			return err
		}
	}
}

// methodLabel bounds the method label to the standard verbs; anything else
// a client sends is counted as "other".
func methodLabel(m string) string {
	m = strings.ToLower(m)
	switch m {
	case "get", "head", "post", "put", "patch", "delete", "options", "connect", "trace":
		return m
	}
	return "other"
}

// statusOf predicts the status the error handler will send when the handlers
// returned err without writing.
func statusOf(c internal.Context, err error) int {
	if c.Written() || err == nil || internal.IsHalt(err) {
		return c.ResponseWriter().Status()
	}
	if he := internal.AsHTTPError(err); he != nil {
		return he.Code
	}
	return http.StatusInternalServerError
}
