package internal

import (
	"log/slog"
	"slices"
	"sync"
)

// reservedHookNames share a namespace with dispatch state and can never be
// used as hook phases.
var reservedHookNames = []string{"config", "route", "params", "classes", "controller", "action"}

// IsReservedHook reports whether phase is one of the reserved dispatch-state names.
func IsReservedHook(phase string) bool {
	return slices.Contains(reservedHookNames, phase)
}

// hookEntry is an application-level hook copied into every request's registry.
type hookEntry struct {
	phase string
	fn    HandlerFunc
}

// HookRegistry holds named, ordered lists of hooks for one request.
// Each request gets its own registry seeded with the application hooks, so
// hooks registered while handling a request never leak into another one.
type HookRegistry struct {
	hooks  map[string][]HandlerFunc
	logger *slog.Logger
	mu     sync.Mutex
}

// NewHookRegistry creates an empty registry.
// A nil logger discards the debug output about ignored registrations.
func NewHookRegistry(logger *slog.Logger) *HookRegistry {
	return &HookRegistry{
		hooks:  make(map[string][]HandlerFunc),
		logger: logger,
	}
}

// newRequestHooks seeds a registry with the application hooks, in order.
func newRequestHooks(logger *slog.Logger, seed []hookEntry) *HookRegistry {
	r := NewHookRegistry(logger)
	for _, h := range seed {
		r.Register(h.phase, h.fn)
	}
	return r
}

// Register appends fn to the list for phase.
// Reserved names, empty names and nil functions are ignored without error.
func (r *HookRegistry) Register(phase string, fn HandlerFunc) {
	if phase == "" || fn == nil || IsReservedHook(phase) {
		if r.logger != nil {
			r.logger.Debug("hook registration ignored", slog.String("phase", phase))
		}
		return
	}

	r.mu.Lock()
	defer r.mu.Unlock()
	r.hooks[phase] = append(r.hooks[phase], fn)
}

// Run invokes every hook registered under phase in registration order.
// The list is not cleared, so a second Run executes the same hooks again.
// Hooks registered while Run is in progress wait for the next Run.
// The first error stops the remaining hooks and is returned as is.
func (r *HookRegistry) Run(c Context, phase string) error {
	r.mu.Lock()
	snapshot := slices.Clone(r.hooks[phase])
	r.mu.Unlock()

	for _, fn := range snapshot {
		if err := fn(c); err != nil {
			return err
		}
	}
	return nil
}

// Has reports whether at least one hook is registered under phase.
func (r *HookRegistry) Has(phase string) bool {
	return r.Len(phase) > 0
}

// Len returns the number of hooks registered under phase.
func (r *HookRegistry) Len(phase string) int {
	r.mu.Lock()
	defer r.mu.Unlock()
	return len(r.hooks[phase])
}

// Phases returns the names of all phases that have hooks, sorted.
func (r *HookRegistry) Phases() []string {
	r.mu.Lock()
	defer r.mu.Unlock()
	names := make([]string, 0, len(r.hooks))
	for name := range r.hooks {
		names = append(names, name)
	}
	slices.Sort(names)
	return names
}
