package internal

import (
	"context"
	"errors"
	"log/slog"
	"net"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"golang.org/x/sync/errgroup"
)

// Server timeouts.
const (
	defaultAddr              = ":8080"
	defaultReadTimeout       = 15 * time.Second
	defaultWriteTimeout      = 30 * time.Second
	defaultIdleTimeout       = 120 * time.Second
	defaultReadHeaderTimeout = 5 * time.Second
	defaultMaxHeaderBytes    = 1 << 20
	defaultShutdownTimeout   = 30 * time.Second
)

// hook is a startup or shutdown step. Name only shows up in logs.
// undo, when set on a startup step, reverts it if a later startup step fails.
type hook struct {
	fn   func(context.Context) error
	undo func(context.Context) error
	name string
}

// RunOption configures App.Run.
type RunOption func(*server)

// server owns one run of an App: the listener, the hooks around it and the
// shutdown sequence.
type server struct {
	handler         http.Handler
	baseCtx         context.Context
	logger          *slog.Logger
	addr            string
	startup         []hook
	shutdown        []hook
	shutdownTimeout time.Duration
}

// Logger sets the logger for server lifecycle events. Defaults to the
// App's logger.
func Logger(l *slog.Logger) RunOption {
	return func(s *server) {
		if l != nil {
			s.logger = l
		}
	}
}

// ShutdownTimeout bounds the graceful shutdown: draining requests and every
// shutdown hook share it. Defaults to 30 seconds.
func ShutdownTimeout(d time.Duration) RunOption {
	return func(s *server) {
		if d > 0 {
			s.shutdownTimeout = d
		}
	}
}

// StartupHook runs fn once the listener is open, before requests are
// served. A failing hook aborts the start.
func StartupHook(fn func(context.Context) error) RunOption {
	return func(s *server) {
		if fn != nil {
			s.startup = append(s.startup, hook{name: "startup", fn: fn})
		}
	}
}

// ShutdownHook registers a cleanup step. Steps run in registration order
// after the server has drained.
//
//	relay.ShutdownHook(redis.Shutdown(client))
func ShutdownHook(fn func(context.Context) error) RunOption {
	return func(s *server) {
		if fn != nil {
			s.shutdown = append(s.shutdown, hook{name: "shutdown", fn: fn})
		}
	}
}

// WithContext sets the base context. Cancelling it shuts the server down
// the same way SIGINT and SIGTERM do.
func WithContext(ctx context.Context) RunOption {
	return func(s *server) {
		if ctx != nil {
			s.baseCtx = ctx
		}
	}
}

// Run starts the HTTP server and blocks until shutdown.
// A cron scheduler configured with WithCron starts before serving requests
// and stops after the server has drained.
//
//	err := app.Run(":8080", relay.Logger(log), relay.ShutdownHook(redis.Shutdown(client)))
func (a *App) Run(addr string, opts ...RunOption) error {
	s := &server{
		handler:         a.router,
		baseCtx:         context.Background(),
		logger:          a.logger,
		addr:            addr,
		shutdownTimeout: defaultShutdownTimeout,
	}
	if s.addr == "" {
		s.addr = defaultAddr
	}
	if a.scheduler != nil {
		s.startup = append(s.startup, hook{name: "cron", fn: a.scheduler.Start, undo: a.scheduler.Stop})
		s.shutdown = append(s.shutdown, hook{name: "cron", fn: a.scheduler.Stop})
	}
	for _, opt := range opts {
		opt(s)
	}
	return s.run()
}

func (s *server) run() error {
	ctx, stop := signal.NotifyContext(s.baseCtx, os.Interrupt, syscall.SIGTERM)
	defer stop()

	ln, err := net.Listen("tcp", s.addr)
	if err != nil {
		return err
	}

	for i, h := range s.startup {
		if err := h.fn(ctx); err != nil {
			_ = ln.Close()
			s.logger.Error("startup hook failed", slog.String("hook", h.name), slog.Any("error", err))
			return errors.Join(err, s.rollback(s.startup[:i]))
		}
	}

	srv := &http.Server{
		Handler:           s.handler,
		ReadTimeout:       defaultReadTimeout,
		WriteTimeout:      defaultWriteTimeout,
		IdleTimeout:       defaultIdleTimeout,
		ReadHeaderTimeout: defaultReadHeaderTimeout,
		MaxHeaderBytes:    defaultMaxHeaderBytes,
	}

	g, gctx := errgroup.WithContext(ctx)
	g.Go(func() error {
		s.logger.Info("server starting", slog.String("address", ln.Addr().String()))
		if err := srv.Serve(ln); !errors.Is(err, http.ErrServerClosed) {
			return err
		}
		return nil
	})
	g.Go(func() error {
		<-gctx.Done()
		return s.stop(srv)
	})
	return g.Wait()
}

// rollback undoes the startup steps that already ran, newest first.
func (s *server) rollback(started []hook) error {
	ctx, cancel := context.WithTimeout(context.Background(), s.shutdownTimeout)
	defer cancel()

	var errs []error
	for i := len(started) - 1; i >= 0; i-- {
		h := started[i]
		if h.undo == nil {
			continue
		}
		if err := h.undo(ctx); err != nil {
			s.logger.Error("startup rollback failed", slog.String("hook", h.name), slog.Any("error", err))
			errs = append(errs, err)
		}
	}
	return errors.Join(errs...)
}

// stop drains the server, then runs the shutdown hooks under one deadline.
func (s *server) stop(srv *http.Server) error {
	s.logger.Info("shutting down server")
	ctx, cancel := context.WithTimeout(context.Background(), s.shutdownTimeout)
	defer cancel()

	var errs []error
	if err := srv.Shutdown(ctx); err != nil {
		errs = append(errs, err)
	}
	for _, h := range s.shutdown {
		if err := h.fn(ctx); err != nil {
			s.logger.Error("shutdown hook failed", slog.String("hook", h.name), slog.Any("error", err))
			errs = append(errs, err)
		}
	}

	if err := errors.Join(errs...); err != nil {
		s.logger.Error("shutdown completed with errors", slog.Any("error", err))
		return err
	}
	s.logger.Info("shutdown completed")
	return nil
}
