package cache

import (
	"container/list"
	"context"
	"sync"
	"time"
)

type memoryItem[V any] struct {
	key       string
	value     V
	expiresAt time.Time // zero: never
}

func (it *memoryItem[V]) expired(now time.Time) bool {
	return !it.expiresAt.IsZero() && now.After(it.expiresAt)
}

// MemoryOption configures a Memory cache.
type MemoryOption func(*memoryConfig)

type memoryConfig struct {
	defaultTTL time.Duration
	maxEntries int
	now        func() time.Time
}

// WithDefaultTTL sets the TTL used when Set gets a zero TTL.
// Default: one hour.
func WithDefaultTTL(d time.Duration) MemoryOption {
	return func(c *memoryConfig) {
		c.defaultTTL = d
	}
}

// WithMaxEntries caps the cache size; the least recently used entry is
// dropped to make room. Zero means unbounded.
func WithMaxEntries(n int) MemoryOption {
	return func(c *memoryConfig) {
		if n >= 0 {
			c.maxEntries = n
		}
	}
}

// WithClock replaces time.Now, for tests.
func WithClock(now func() time.Time) MemoryOption {
	return func(c *memoryConfig) {
		if now != nil {
			c.now = now
		}
	}
}

// Memory is a process-local LRU cache. Expired entries are dropped lazily,
// when they are read or when room is needed.
type Memory[V any] struct {
	cfg    memoryConfig
	items  map[string]*list.Element
	order  *list.List // front: most recently used
	mu     sync.Mutex
	closed bool
}

// NewMemory creates an empty Memory cache.
//
//	views := cache.NewMemory[[]byte](cache.WithMaxEntries(512))
func NewMemory[V any](opts ...MemoryOption) *Memory[V] {
	cfg := memoryConfig{defaultTTL: time.Hour, now: time.Now}
	for _, opt := range opts {
		opt(&cfg)
	}
	return &Memory[V]{
		cfg:   cfg,
		items: make(map[string]*list.Element),
		order: list.New(),
	}
}

func (m *Memory[V]) Get(_ context.Context, key string) (V, error) {
	m.mu.Lock()
	defer m.mu.Unlock()

	var zero V
	if m.closed {
		return zero, ErrClosed
	}
	el, ok := m.items[key]
	if !ok {
		return zero, ErrNotFound
	}
	it := el.Value.(*memoryItem[V])
	if it.expired(m.cfg.now()) {
		m.remove(el)
		return zero, ErrNotFound
	}
	m.order.MoveToFront(el)
	return it.value, nil
}

func (m *Memory[V]) Set(_ context.Context, key string, value V, ttl time.Duration) error {
	m.mu.Lock()
	defer m.mu.Unlock()

	if m.closed {
		return ErrClosed
	}
	if ttl == 0 {
		ttl = m.cfg.defaultTTL
	}
	var expiresAt time.Time
	if ttl > 0 {
		expiresAt = m.cfg.now().Add(ttl)
	}

	if el, ok := m.items[key]; ok {
		it := el.Value.(*memoryItem[V])
		it.value, it.expiresAt = value, expiresAt
		m.order.MoveToFront(el)
		return nil
	}

	if m.cfg.maxEntries > 0 {
		for len(m.items) >= m.cfg.maxEntries {
			m.remove(m.order.Back())
		}
	}
	m.items[key] = m.order.PushFront(&memoryItem[V]{key: key, value: value, expiresAt: expiresAt})
	return nil
}

func (m *Memory[V]) Delete(_ context.Context, key string) error {
	m.mu.Lock()
	defer m.mu.Unlock()

	if m.closed {
		return ErrClosed
	}
	if el, ok := m.items[key]; ok {
		m.remove(el)
	}
	return nil
}

func (m *Memory[V]) Clear(_ context.Context) error {
	m.mu.Lock()
	defer m.mu.Unlock()

	if m.closed {
		return ErrClosed
	}
	clear(m.items)
	m.order.Init()
	return nil
}

// Len returns the number of entries, expired ones included.
func (m *Memory[V]) Len() int {
	m.mu.Lock()
	defer m.mu.Unlock()
	return len(m.items)
}

// Close is idempotent. Every later call returns ErrClosed.
func (m *Memory[V]) Close() error {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.closed = true
	clear(m.items)
	m.order.Init()
	return nil
}

// remove must be called with mu held.
func (m *Memory[V]) remove(el *list.Element) {
	m.order.Remove(el)
	delete(m.items, el.Value.(*memoryItem[V]).key)
}

var _ Cache[any] = (*Memory[any])(nil)
