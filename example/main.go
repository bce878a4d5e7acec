// Command example runs a small relay site: a blog controller, nested admin
// controllers, headless markdown pages and a cron task.
//
//	go run ./example serve
//	go run ./example resolve GET /admin/users/disable/7
package main

import (
	"encoding/json"
	"log/slog"
	"net/http"
	"os"
	"time"

	"github.com/prometheus/client_golang/prometheus"
	goredis "github.com/redis/go-redis/v9"
	"github.com/spf13/cobra"

	"github.com/dmitrymomot/relay"
	"github.com/dmitrymomot/relay/example/views"
	"github.com/dmitrymomot/relay/middlewares"
	"github.com/dmitrymomot/relay/pkg/cache"
	"github.com/dmitrymomot/relay/pkg/config"
	"github.com/dmitrymomot/relay/pkg/cron"
	"github.com/dmitrymomot/relay/pkg/logger"
	"github.com/dmitrymomot/relay/pkg/redis"
	"github.com/dmitrymomot/relay/pkg/view"
)

type appConfig struct {
	Addr           string        `env:"HTTP_ADDR" envDefault:":8080"`
	RequestTimeout time.Duration `env:"HTTP_REQUEST_TIMEOUT" envDefault:"15s"`
	Relay          relay.Config
	Log            logger.Config
	Redis          redis.Config
}

func main() {
	if err := rootCmd().Execute(); err != nil {
		os.Exit(1)
	}
}

func rootCmd() *cobra.Command {
	root := &cobra.Command{
		Use:          "example",
		Short:        "relay example site",
		SilenceUsage: true,
	}
	root.AddCommand(serveCmd(), resolveCmd())
	return root
}

func serveCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "serve",
		Short: "Start the HTTP server",
		RunE: func(cmd *cobra.Command, _ []string) error {
			var cfg appConfig
			if err := config.Load(&cfg); err != nil {
				return err
			}

			log := logger.New(
				logger.FromConfig(cfg.Log),
				logger.WithExtractors(middlewares.RequestIDExtractor(), relay.DispatchExtractor()),
			)

			var client goredis.UniversalClient
			if cfg.Redis.URL != "" {
				c, err := redis.Connect(cmd.Context(), cfg.Redis)
				if err != nil {
					return err
				}
				client = c
			}

			app := newApp(cfg, log, client)

			runOpts := []relay.RunOption{
				relay.Logger(log),
				relay.WithContext(cmd.Context()),
				relay.ShutdownTimeout(30 * time.Second),
			}
			if client != nil {
				runOpts = append(runOpts, relay.ShutdownHook(redis.Shutdown(client)))
			}
			return app.Run(cfg.Addr, runOpts...)
		},
	}
}

func resolveCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "resolve METHOD PATH",
		Short: "Print the controller, action, params and plan a request would get",
		Args:  cobra.ExactArgs(2),
		RunE: func(cmd *cobra.Command, args []string) error {
			var cfg appConfig
			if err := config.Load(&cfg); err != nil {
				return err
			}

			app := newApp(cfg, logger.NewNope(), nil)
			res, plan := app.Resolve(args[0], args[1])

			enc := json.NewEncoder(cmd.OutOrStdout())
			enc.SetIndent("", "  ")
			return enc.Encode(resolveOutput{
				Route:      app.Route(args[1]),
				Found:      res.Found,
				Controller: res.Controller,
				Action:     res.Action,
				Params:     res.Params,
				Fallback:   res.Fallback,
				Realigned:  res.Realigned,
				Plan:       plan.Names(),
				Primary:    plan.Primary,
			})
		},
	}
}

type resolveOutput struct {
	Route      string   `json:"route"`
	Controller string   `json:"controller,omitempty"`
	Action     string   `json:"action,omitempty"`
	Params     []string `json:"params"`
	Plan       []string `json:"plan"`
	Found      bool     `json:"found"`
	Fallback   bool     `json:"fallback"`
	Realigned  bool     `json:"realigned"`
	Primary    bool     `json:"primary"`
}

// newApp wires the site. client may be nil, in which case view counts and
// cron state live in memory.
func newApp(cfg appConfig, log *slog.Logger, client goredis.UniversalClient) *relay.App {
	var (
		counts    cache.Cache[int]
		cronState cache.Cache[time.Time]
		health    []relay.HealthOption
	)
	if client != nil {
		counts = cache.NewRedis[int](client, nil, cache.WithPrefix("example:views:"))
		cronState = cache.NewRedis[time.Time](client, nil, cache.WithPrefix("example:cron:"))
		health = append(health, relay.WithReadinessCheck("redis", redis.Healthcheck(client)))
	} else {
		counts = cache.NewMemory[int]()
		cronState = cache.NewMemory[time.Time]()
	}

	store := newPostStore()
	scheduler := cron.New(
		cron.WithLogger(log),
		cron.WithState(cronState),
		cron.WithTask(cron.NewTask("view-report", "@hourly", viewReport(log, store, counts))),
	)

	reg := prometheus.NewRegistry()

	return relay.New(
		relay.WithCustomLogger(log),
		relay.WithConfig(cfg.Relay),
		relay.WithViewPrefix("pages/"),
		relay.WithMiddleware(
			middlewares.RequestID(),
			middlewares.Metrics(middlewares.WithMetricsRegistry(reg)),
			middlewares.Recover(),
			middlewares.Timeout(cfg.RequestTimeout),
		),
		relay.WithMetricsEndpoint("/metrics", reg),
		relay.WithHealthChecks(health...),
		relay.WithViews(view.NewFS(views.FS)),
		relay.WithCron(scheduler),
		relay.WithRoutes(func(r *relay.Routes) {
			r.GET("/ping", func(c relay.Context) error {
				return c.String(http.StatusOK, "pong")
			}, relay.Terminate())
			r.ANY(`/admin/.*`, requireAdmin)
			// PORT dispatches right away; routes declared after it never run.
			r.PORT("/internal/sync", func(c relay.Context) error {
				c.Hooks().Register("after", func(c relay.Context) error {
					c.LogInfo("sync dispatched", "controller", c.Controller())
					return nil
				})
				return nil
			})
		}),
		relay.WithController("home", homeController()),
		relay.WithController("blog", &blogController{store: store, views: counts}),
		relay.WithController("admin/users", adminUsersController()),
		relay.WithController("debug", debugController()),
		relay.WithNotFoundHandler(func(c relay.Context) error {
			return c.View(http.StatusNotFound, "errors/404", c.Info())
		}),
	)
}

// requireAdmin guards every /admin route before dispatch.
func requireAdmin(c relay.Context) error {
	if c.Header("X-Admin-Token") == "" {
		return relay.ErrForbidden("admin token required")
	}
	return nil
}
