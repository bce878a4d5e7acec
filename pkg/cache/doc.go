// Package cache provides the typed caches relay keeps its runtime state in:
// compiled views and rendered markdown (Memory) and cron run times shared
// between replicas (Redis).
//
// Both stores implement Cache[V]. A Loader deduplicates concurrent misses
// with singleflight, so a view that is requested by many clients at once is
// parsed a single time:
//
//	loader := cache.NewLoader[*template.Template](cache.NewMemory[*template.Template]())
//	tpl, err := loader.Get(ctx, "users/index", func(ctx context.Context) (*template.Template, time.Duration, error) {
//	    t, err := template.ParseFS(fsys, "users/index.html")
//	    return t, -1, err
//	})
//
// Redis values are encoded with a Codec (JSON by default) and namespaced
// with a key prefix.
package cache
