package logger

import (
	"context"
	"io"
	"log/slog"
	"os"
	"strings"

	"github.com/getsentry/sentry-go"
	sentryslog "github.com/getsentry/sentry-go/slog"
)

// Config is the env-loadable logger configuration.
type Config struct {
	Level             string `env:"LOG_LEVEL" envDefault:"info"`
	Format            string `env:"LOG_FORMAT" envDefault:"json"`
	SentryDSN         string `env:"SENTRY_DSN"`
	SentryEnvironment string `env:"SENTRY_ENVIRONMENT" envDefault:"production"`
}

type options struct {
	out        io.Writer
	level      slog.Level
	text       bool
	extractors []ContextExtractor
	sentryDSN  string
	sentryEnv  string
}

// Option configures New.
type Option func(*options)

// WithLevel sets the minimum level written to the output.
func WithLevel(level slog.Level) Option {
	return func(o *options) {
		o.level = level
	}
}

// WithOutput replaces stdout.
func WithOutput(w io.Writer) Option {
	return func(o *options) {
		if w != nil {
			o.out = w
		}
	}
}

// WithText switches from JSON to logfmt-style text output.
func WithText() Option {
	return func(o *options) {
		o.text = true
	}
}

// WithExtractors adds context extractors.
func WithExtractors(extractors ...ContextExtractor) Option {
	return func(o *options) {
		o.extractors = append(o.extractors, extractors...)
	}
}

// WithSentry also ships warnings and errors to Sentry; errors become issues.
// An empty dsn leaves Sentry off.
func WithSentry(dsn, environment string) Option {
	return func(o *options) {
		o.sentryDSN = dsn
		o.sentryEnv = environment
	}
}

// FromConfig applies a loaded Config.
func FromConfig(cfg Config) Option {
	return func(o *options) {
		o.level = ParseLevel(cfg.Level)
		o.text = strings.EqualFold(cfg.Format, "text")
		o.sentryDSN = cfg.SentryDSN
		o.sentryEnv = cfg.SentryEnvironment
	}
}

// New builds a logger. Defaults: JSON to stdout at info level.
//
//	log := logger.New(
//	    logger.WithLevel(slog.LevelDebug),
//	    logger.WithExtractors(middlewares.RequestIDExtractor(), relay.DispatchExtractor()),
//	)
func New(opts ...Option) *slog.Logger {
	o := &options{out: os.Stdout, level: slog.LevelInfo}
	for _, opt := range opts {
		opt(o)
	}

	hopts := &slog.HandlerOptions{Level: o.level}
	var out slog.Handler
	if o.text {
		out = slog.NewTextHandler(o.out, hopts)
	} else {
		out = slog.NewJSONHandler(o.out, hopts)
	}

	if o.sentryDSN != "" {
		if err := sentry.Init(sentry.ClientOptions{
			Dsn:         o.sentryDSN,
			Environment: o.sentryEnv,
			EnableLogs:  true,
		}); err != nil {
			slog.New(out).Error("sentry disabled", slog.String("error", err.Error()))
		} else {
			out = fanout{out, sentryslog.Option{
				EventLevel: []slog.Level{slog.LevelError},
				LogLevel:   []slog.Level{slog.LevelWarn, slog.LevelError},
			}.NewSentryHandler(context.Background())}
		}
	}

	return slog.New(NewContextHandler(out, o.extractors...))
}

// NewNope returns a logger that discards everything.
func NewNope() *slog.Logger {
	return slog.New(slog.DiscardHandler)
}

// ParseLevel maps debug/info/warn/error to a level; anything else is info.
func ParseLevel(s string) slog.Level {
	switch strings.ToLower(strings.TrimSpace(s)) {
	case "debug":
		return slog.LevelDebug
	case "warn", "warning":
		return slog.LevelWarn
	case "error":
		return slog.LevelError
	default:
		return slog.LevelInfo
	}
}
