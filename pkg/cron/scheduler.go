package cron

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"strings"
	"sync"
	"time"

	"github.com/robfig/cron/v3"

	"github.com/dmitrymomot/relay/pkg/cache"
	"github.com/dmitrymomot/relay/pkg/logger"
)

const defaultTick = "@every 1m"

type entry struct {
	task     Task
	schedule cron.Schedule
}

// Option configures a Scheduler.
type Option func(*Scheduler)

// WithState stores last run times in c. Use a cache.Redis to share them
// between replicas. Default: an in-memory cache.
func WithState(c cache.Cache[time.Time]) Option {
	return func(s *Scheduler) {
		if c != nil {
			s.state = c
		}
	}
}

// WithLogger sets the logger task runs are reported to.
func WithLogger(l *slog.Logger) Option {
	return func(s *Scheduler) {
		if l != nil {
			s.logger = l
		}
	}
}

// WithTick sets how often Start checks for due tasks. Default: every minute.
func WithTick(spec string) Option {
	return func(s *Scheduler) {
		s.tick = spec
	}
}

// WithoutTicker makes Start a no-op. Tasks then run only when something
// calls RunDue, such as a request carrying the cron marker.
func WithoutTicker() Option {
	return WithTick("")
}

// WithClock replaces time.Now, for tests.
func WithClock(now func() time.Time) Option {
	return func(s *Scheduler) {
		if now != nil {
			s.now = now
		}
	}
}

// WithTask registers tasks and panics on an invalid one.
func WithTask(tasks ...Task) Option {
	return func(s *Scheduler) {
		for _, t := range tasks {
			if err := s.Register(t); err != nil {
				panic(err)
			}
		}
	}
}

// Scheduler runs tasks whose schedule says they are due since their last run.
type Scheduler struct {
	state  cache.Cache[time.Time]
	logger *slog.Logger
	now    func() time.Time
	tick   string

	mu      sync.RWMutex
	entries map[string]*entry
	names   []string

	runMu  sync.Mutex // one run at a time
	runner *cron.Cron
}

// New creates a Scheduler.
//
//	s := cron.New(
//	    cron.WithState(cache.NewRedis[time.Time](client, nil, cache.WithPrefix("cron"))),
//	    cron.WithTask(tasks.NewCleanup(repo)),
//	)
func New(opts ...Option) *Scheduler {
	s := &Scheduler{
		logger:  logger.NewNope(),
		now:     time.Now,
		tick:    defaultTick,
		entries: make(map[string]*entry),
	}
	for _, opt := range opts {
		opt(s)
	}
	if s.state == nil {
		s.state = cache.NewMemory[time.Time]()
	}
	return s
}

// Register adds a task. Names are unique and case-insensitive.
func (s *Scheduler) Register(t Task) error {
	if t == nil || strings.TrimSpace(t.Name()) == "" {
		return ErrInvalidTask
	}
	sched, err := ParseSchedule(t.Schedule())
	if err != nil {
		return fmt.Errorf("task %q: %w", t.Name(), err)
	}

	key := strings.ToLower(t.Name())

	s.mu.Lock()
	defer s.mu.Unlock()
	if _, ok := s.entries[key]; ok {
		return fmt.Errorf("%w: %s", ErrDuplicateTask, t.Name())
	}
	s.entries[key] = &entry{task: t, schedule: sched}
	s.names = append(s.names, key)
	return nil
}

// Has reports whether a task called name is registered.
func (s *Scheduler) Has(name string) bool {
	_, ok := s.lookup(name)
	return ok
}

// Tasks returns the task names in registration order.
func (s *Scheduler) Tasks() []string {
	s.mu.RLock()
	defer s.mu.RUnlock()

	names := make([]string, len(s.names))
	for i, key := range s.names {
		names[i] = s.entries[key].task.Name()
	}
	return names
}

// LastRun returns when the task last ran. ok is false if it never ran.
func (s *Scheduler) LastRun(ctx context.Context, name string) (time.Time, bool, error) {
	e, found := s.lookup(name)
	if !found {
		return time.Time{}, false, fmt.Errorf("%w: %s", ErrUnknownTask, name)
	}
	return s.lastRun(ctx, e)
}

// Due lists the tasks whose next activation after their last run is not
// after now. Tasks that never ran are due.
func (s *Scheduler) Due(ctx context.Context, now time.Time) ([]string, error) {
	var due []string
	for _, e := range s.snapshot() {
		ok, err := s.isDue(ctx, e, now)
		if err != nil {
			return nil, err
		}
		if ok {
			due = append(due, e.task.Name())
		}
	}
	return due, nil
}

// RunDue runs every due task in registration order and records the run
// time of each. A failing task does not stop the others; their errors
// are joined.
func (s *Scheduler) RunDue(ctx context.Context, now time.Time) ([]string, error) {
	s.runMu.Lock()
	defer s.runMu.Unlock()

	var (
		ran  []string
		errs []error
	)
	for _, e := range s.snapshot() {
		ok, err := s.isDue(ctx, e, now)
		if err != nil {
			errs = append(errs, err)
			continue
		}
		if !ok {
			continue
		}
		ran = append(ran, e.task.Name())
		if err := s.run(ctx, e, now); err != nil {
			errs = append(errs, err)
		}
	}
	return ran, errors.Join(errs...)
}

// RunTask runs one task now, whether it is due or not.
func (s *Scheduler) RunTask(ctx context.Context, name string) error {
	e, ok := s.lookup(name)
	if !ok {
		return fmt.Errorf("%w: %s", ErrUnknownTask, name)
	}

	s.runMu.Lock()
	defer s.runMu.Unlock()
	return s.run(ctx, e, s.now())
}

// Start checks for due tasks on the tick schedule until Stop is called.
// It returns immediately.
func (s *Scheduler) Start(context.Context) error {
	if s.tick == "" {
		return nil
	}

	s.mu.Lock()
	defer s.mu.Unlock()
	if s.runner != nil {
		return ErrAlreadyStarted
	}

	runner := cron.New(cron.WithParser(parser))
	if _, err := runner.AddFunc(s.tick, s.onTick); err != nil {
		return fmt.Errorf("%w: tick %q: %v", ErrInvalidSchedule, s.tick, err)
	}
	runner.Start()
	s.runner = runner
	s.logger.Info("cron scheduler started", slog.String("tick", s.tick), slog.Int("tasks", len(s.names)))
	return nil
}

// Stop stops the ticker and waits for a running tick to finish or ctx to end.
func (s *Scheduler) Stop(ctx context.Context) error {
	s.mu.Lock()
	runner := s.runner
	s.runner = nil
	s.mu.Unlock()

	if runner == nil {
		return nil
	}
	select {
	case <-runner.Stop().Done():
		s.logger.Info("cron scheduler stopped")
		return nil
	case <-ctx.Done():
		return ctx.Err()
	}
}

func (s *Scheduler) onTick() {
	ctx := context.Background()
	ran, err := s.RunDue(ctx, s.now())
	if err != nil {
		s.logger.ErrorContext(ctx, "cron tick failed", slog.Any("ran", ran), slog.String("error", err.Error()))
	}
}

func (s *Scheduler) run(ctx context.Context, e *entry, now time.Time) (err error) {
	name := e.task.Name()
	start := time.Now()

	defer func() {
		if r := recover(); r != nil {
			err = fmt.Errorf("%w: %s: %v", ErrTaskPanic, name, r)
		}
		if err != nil {
			s.logger.ErrorContext(ctx, "cron task failed",
				slog.String("task", name),
				slog.String("error", err.Error()),
			)
			return
		}
		s.logger.InfoContext(ctx, "cron task finished",
			slog.String("task", name),
			slog.Duration("took", time.Since(start)),
		)
	}()

	// The run is recorded before the task starts so a slow task is not
	// picked up again by the next tick.
	if err := s.state.Set(ctx, stateKey(name), now, -1); err != nil {
		return fmt.Errorf("task %q: record run: %w", name, err)
	}
	return e.task.Handle(ctx)
}

func (s *Scheduler) isDue(ctx context.Context, e *entry, now time.Time) (bool, error) {
	last, ok, err := s.lastRun(ctx, e)
	if err != nil {
		return false, err
	}
	if !ok {
		return true, nil
	}
	return !e.schedule.Next(last).After(now), nil
}

func (s *Scheduler) lastRun(ctx context.Context, e *entry) (time.Time, bool, error) {
	t, err := s.state.Get(ctx, stateKey(e.task.Name()))
	if errors.Is(err, cache.ErrNotFound) {
		return time.Time{}, false, nil
	}
	if err != nil {
		return time.Time{}, false, fmt.Errorf("task %q: read state: %w", e.task.Name(), err)
	}
	return t, true, nil
}

func (s *Scheduler) lookup(name string) (*entry, bool) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	e, ok := s.entries[strings.ToLower(name)]
	return e, ok
}

func (s *Scheduler) snapshot() []*entry {
	s.mu.RLock()
	defer s.mu.RUnlock()
	out := make([]*entry, 0, len(s.names))
	for _, key := range s.names {
		out = append(out, s.entries[key])
	}
	return out
}

func stateKey(name string) string {
	return "last_run:" + strings.ToLower(name)
}
