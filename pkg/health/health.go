package health

import (
	"context"
	"errors"
	"io"
	"log/slog"
	"sort"
	"sync"
	"time"

	"golang.org/x/sync/errgroup"
)

var (
	// ErrCheckFailed is returned when one or more checks fail.
	ErrCheckFailed = errors.New("health: check failed")
	// ErrCheckTimeout is returned when a check outlives its timeout.
	ErrCheckTimeout = errors.New("health: check timeout")
)

const (
	defaultTimeout = 5 * time.Second

	// StatusUp means every check passed.
	StatusUp = "up"
	// StatusDown means at least one check failed.
	StatusDown = "down"
)

// CheckFunc probes one dependency. pkg/redis.Healthcheck has this shape.
type CheckFunc func(ctx context.Context) error

// Checks maps a check name to its probe.
type Checks map[string]CheckFunc

// Report is the aggregated outcome of a readiness probe.
type Report struct {
	Checks map[string]Result `json:"checks,omitempty"`
	Status string            `json:"status"`
}

// Result is the outcome of a single check.
type Result struct {
	Status   string        `json:"status"`
	Error    string        `json:"error,omitempty"`
	Duration time.Duration `json:"duration_ns"`
}

// Healthy reports whether every check passed.
func (r *Report) Healthy() bool {
	return r.Status == StatusUp
}

// Failed returns the names of the failed checks in lexical order.
func (r *Report) Failed() []string {
	var names []string
	for name, res := range r.Checks {
		if res.Status != StatusUp {
			names = append(names, name)
		}
	}
	sort.Strings(names)
	return names
}

type config struct {
	logger  *slog.Logger
	timeout time.Duration
}

// Option configures check execution.
type Option func(*config)

// WithTimeout bounds the whole readiness run.
func WithTimeout(d time.Duration) Option {
	return func(c *config) {
		if d > 0 {
			c.timeout = d
		}
	}
}

// WithLogger sets the logger failed checks are reported to.
func WithLogger(l *slog.Logger) Option {
	return func(c *config) {
		if l != nil {
			c.logger = l
		}
	}
}

func newConfig(opts ...Option) *config {
	cfg := &config{
		timeout: defaultTimeout,
		logger:  slog.New(slog.NewTextHandler(io.Discard, nil)),
	}
	for _, opt := range opts {
		opt(cfg)
	}
	return cfg
}

// Run executes all checks concurrently under a shared timeout.
// A failing check never cancels the others; every check reports.
// The returned error wraps ErrCheckFailed or ErrCheckTimeout when the
// report is not healthy.
func Run(ctx context.Context, checks Checks, opts ...Option) (*Report, error) {
	return run(ctx, checks, newConfig(opts...))
}

func run(ctx context.Context, checks Checks, cfg *config) (*Report, error) {
	report := &Report{Status: StatusUp}
	if len(checks) == 0 {
		return report, nil
	}

	ctx, cancel := context.WithTimeout(ctx, cfg.timeout)
	defer cancel()

	var (
		mu   sync.Mutex
		errs []error
		g    errgroup.Group
	)
	report.Checks = make(map[string]Result, len(checks))

	for name, check := range checks {
		g.Go(func() error {
			start := time.Now()
			err := check(ctx)
			res := Result{Status: StatusUp, Duration: time.Since(start)}
			if err != nil {
				res.Status = StatusDown
				res.Error = err.Error()
				cfg.logger.WarnContext(ctx, "health check failed",
					slog.String("check", name),
					slog.String("error", err.Error()),
				)
			}

			mu.Lock()
			defer mu.Unlock()
			report.Checks[name] = res
			if err != nil {
				if errors.Is(err, context.DeadlineExceeded) {
					err = errors.Join(ErrCheckTimeout, err)
				}
				errs = append(errs, err)
			}
			return nil
		})
	}
	_ = g.Wait()

	if len(errs) == 0 {
		return report, nil
	}
	report.Status = StatusDown
	return report, errors.Join(append([]error{ErrCheckFailed}, errs...)...)
}
