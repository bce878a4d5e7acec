// Package redis opens go-redis clients for the parts of relay that share
// state between processes, such as the cron run state in pkg/cache.
//
// Settings come from functional options or from a Config loaded with
// pkg/config (REDIS_URL, REDIS_POOL_SIZE, ...). The first ping is retried
// so a service can start before Redis is ready.
//
//	var cfg redis.Config
//	config.MustLoad(&cfg)
//	client, err := redis.Connect(ctx, cfg)
//	if err != nil {
//	    return err
//	}
//
//	app := relay.New(relay.WithHealthChecks(
//	    relay.WithReadinessCheck("redis", redis.Healthcheck(client)),
//	))
//	app.Run(":8080", relay.ShutdownHook(redis.Shutdown(client)))
package redis
