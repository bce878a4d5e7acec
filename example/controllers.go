package main

import (
	"context"
	"errors"
	"log/slog"
	"net/http"
	"slices"
	"sync"
	"time"

	"github.com/dmitrymomot/relay"
	"github.com/dmitrymomot/relay/pkg/cache"
)

type post struct {
	Slug  string `json:"slug"`
	Title string `json:"title"`
	Body  string `json:"body"`
}

// postStore is an in-memory post repository.
type postStore struct {
	posts []post
	mu    sync.RWMutex
}

func newPostStore() *postStore {
	return &postStore{posts: []post{
		{Slug: "hello", Title: "Hello, relay", Body: "Controllers are found by walking the URL."},
		{Slug: "lifecycle", Title: "Ten methods", Body: "before, get_before, before_index and friends."},
	}}
}

func (s *postStore) list() []post {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return slices.Clone(s.posts)
}

func (s *postStore) find(slug string) (post, bool) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	i := slices.IndexFunc(s.posts, func(p post) bool { return p.Slug == slug })
	if i < 0 {
		return post{}, false
	}
	return s.posts[i], true
}

func (s *postStore) add(p post) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.posts = append(s.posts, p)
}

// homeController is the default controller. It serves "/" and every route
// no other controller claims.
func homeController() relay.Methods {
	return relay.Methods{
		"get_index": func(c relay.Context) error {
			return c.View(http.StatusOK, "home/index", c.Info())
		},
	}
}

// blogController shows the lifecycle: "before" loads shared state, the
// action methods render, "after_show" counts views.
type blogController struct {
	store *postStore
	views cache.Cache[int]
}

type postKey struct{}

func (b *blogController) Methods() relay.Methods {
	return relay.Methods{
		"before":      b.before,
		"get_index":   b.index,
		"get_show":    b.show,
		"after_show":  b.countView,
		"post_before": b.requireJSON,
		"post_create": b.create,
	}
}

func (b *blogController) before(c relay.Context) error {
	c.SetHeader("X-Controller", c.Controller())
	return nil
}

func (b *blogController) index(c relay.Context) error {
	return c.View(http.StatusOK, "blog/index", b.store.list())
}

func (b *blogController) show(c relay.Context) error {
	p, ok := b.store.find(c.Param(0))
	if !ok {
		return relay.ErrNotFound("post not found")
	}
	c.Set(postKey{}, p)
	return c.View(http.StatusOK, "blog/show", p)
}

func (b *blogController) countView(c relay.Context) error {
	p := relay.ContextValue[post](c, postKey{})
	n, err := b.views.Get(c, p.Slug)
	if err != nil && !errors.Is(err, cache.ErrNotFound) {
		return err
	}
	return b.views.Set(c, p.Slug, n+1, 24*time.Hour)
}

func (b *blogController) requireJSON(c relay.Context) error {
	if c.Header("Content-Type") != "application/json" {
		return relay.NewHTTPError(http.StatusUnsupportedMediaType, "expected application/json")
	}
	return nil
}

func (b *blogController) create(c relay.Context) error {
	p := post{
		Slug:  relay.QueryDefault(c, "slug", ""),
		Title: relay.QueryDefault(c, "title", "Untitled"),
	}
	if p.Slug == "" {
		return relay.ErrBadRequest("slug is required")
	}
	b.store.add(p)
	return c.JSON(http.StatusCreated, p)
}

// adminUsersController lives under a nested path; "/admin/users/disable/7"
// realigns "disable" as the action.
func adminUsersController() relay.Methods {
	return relay.Methods{
		"get_index": func(c relay.Context) error {
			return c.JSON(http.StatusOK, map[string]any{"users": []string{"ada", "grace"}})
		},
		"post_disable": func(c relay.Context) error {
			id := relay.Param[int](c, 0)
			if id <= 0 {
				return relay.ErrBadRequest("user id is required")
			}
			c.LogInfo("user disabled", "user_id", id)
			return c.NoContent(http.StatusNoContent)
		},
	}
}

// debugController answers with the dispatch snapshot.
func debugController() relay.Methods {
	return relay.Methods{
		"get_info": func(c relay.Context) error {
			return c.JSON(http.StatusOK, c.Info())
		},
	}
}

// viewReport is a cron task that logs blog view counts.
func viewReport(log *slog.Logger, store *postStore, views cache.Cache[int]) func(context.Context) error {
	return func(ctx context.Context) error {
		for _, p := range store.list() {
			n, err := views.Get(ctx, p.Slug)
			if err != nil && !errors.Is(err, cache.ErrNotFound) {
				return err
			}
			log.InfoContext(ctx, "post views", "slug", p.Slug, "views", n)
		}
		return nil
	}
}
