package internal

import (
	"errors"
	"fmt"
	"slices"
	"strings"
	"sync"
)

var errInvalidControllerPath = errors.New("relay: invalid controller path")

// ControllerRegistry is the default controller discovery oracle.
// Controllers are registered under slash-delimited paths ("home",
// "admin/users") and found by any spelling of the same path
// ("/admin/users", "admin//users/").
type ControllerRegistry struct {
	controllers map[string]Methods
	mu          sync.RWMutex
}

// NewControllerRegistry creates an empty registry.
func NewControllerRegistry() *ControllerRegistry {
	return &ControllerRegistry{controllers: make(map[string]Methods)}
}

// Register stores c under path, replacing any previous controller there.
// The method table is copied once with lower-cased names.
func (r *ControllerRegistry) Register(path string, c Controller) error {
	key := controllerKey(path)
	if key == "" {
		return fmt.Errorf("%w: %q", errInvalidControllerPath, path)
	}
	if c == nil {
		return fmt.Errorf("%w: nil controller at %q", errInvalidControllerPath, path)
	}

	methods := c.Methods().normalized()

	r.mu.Lock()
	defer r.mu.Unlock()
	r.controllers[key] = methods
	return nil
}

// Find implements ControllerFinder. The identifier is the normalized path.
func (r *ControllerRegistry) Find(path string) (string, Methods, bool) {
	key := controllerKey(path)
	if key == "" {
		return "", nil, false
	}

	r.mu.RLock()
	defer r.mu.RUnlock()
	m, ok := r.controllers[key]
	if !ok {
		return "", nil, false
	}
	return key, m, true
}

// Paths lists the registered controller paths, sorted.
func (r *ControllerRegistry) Paths() []string {
	r.mu.RLock()
	defer r.mu.RUnlock()
	paths := make([]string, 0, len(r.controllers))
	for p := range r.controllers {
		paths = append(paths, p)
	}
	slices.Sort(paths)
	return paths
}

// controllerKey joins the non-empty segments of path with "/".
func controllerKey(path string) string {
	return strings.Join(segments(path), "/")
}
