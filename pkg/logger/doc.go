// Package logger builds the slog loggers relay apps use.
//
// Records go to stdout as JSON by default. Context extractors add
// request-scoped attributes at log time, and WithSentry fans warnings and
// errors out to Sentry through github.com/getsentry/sentry-go/slog.
//
//	var cfg logger.Config
//	config.MustLoad(&cfg)
//	log := logger.New(logger.FromConfig(cfg), logger.WithExtractors(relay.DispatchExtractor()))
//
// NewNope is the default logger of an App.
package logger
