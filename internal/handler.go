package internal

import "strings"

// HandlerFunc is the signature for lifecycle methods, hooks and route callbacks.
// It receives the request Context and returns an error.
// Returning ErrHalt ends the request normally; any other non-nil error
// is passed to the error handler.
type HandlerFunc func(c Context) error

// Middleware wraps a HandlerFunc to add cross-cutting concerns.
// Middleware wraps the whole request: pattern routes, the cron diversion
// and the controller dispatch all run inside it and share one Context.
//
// Example:
//
//	func Auth(next relay.HandlerFunc) relay.HandlerFunc {
//	    return func(c relay.Context) error {
//	        if !isAuthenticated(c) {
//	            return c.Redirect(302, "/login")
//	        }
//	        return next(c)
//	    }
//	}
type Middleware func(next HandlerFunc) HandlerFunc

// ErrorHandler handles errors returned from handlers.
type ErrorHandler func(Context, error) error

// Methods is a controller's method table: lifecycle method name to handler.
// Names follow the "{verb}_{action}" convention ("get_index", "post_before",
// "after_update"). Lookups are case-insensitive.
//
// Methods implements Controller, so a literal table can be registered directly:
//
//	relay.WithController("users", relay.Methods{
//	    "get_index": listUsers,
//	    "get_edit":  editUser,
//	    "before":    loadAccount,
//	})
type Methods map[string]HandlerFunc

// Methods returns the table itself.
func (m Methods) Methods() Methods {
	return m
}

// Lookup returns the handler declared under name, ignoring case.
func (m Methods) Lookup(name string) (HandlerFunc, bool) {
	if h, ok := m[name]; ok && h != nil {
		return h, true
	}
	for k, h := range m {
		if h != nil && strings.EqualFold(k, name) {
			return h, true
		}
	}
	return nil, false
}

// Has reports whether name is declared, ignoring case.
func (m Methods) Has(name string) bool {
	_, ok := m.Lookup(name)
	return ok
}

// normalized returns a copy keyed by lower-case names with nil handlers dropped.
func (m Methods) normalized() Methods {
	out := make(Methods, len(m))
	for k, h := range m {
		if h == nil || k == "" {
			continue
		}
		out[strings.ToLower(k)] = h
	}
	return out
}

// Controller exposes a method table to the dispatcher.
// Controllers are stateless method namespaces: the dispatcher never
// instantiates them, it only looks names up in the table.
//
// Example:
//
//	type Blog struct{ repo *Repo }
//
//	func (b *Blog) Methods() relay.Methods {
//	    return relay.Methods{
//	        "get_index": b.list,
//	        "get_show":  b.show,
//	    }
//	}
type Controller interface {
	Methods() Methods
}

// ControllerFinder is the controller discovery oracle.
// Find receives a slash-delimited candidate path produced while walking the
// route and reports whether a controller lives there. On success it returns
// the controller's canonical identifier and its method table.
type ControllerFinder interface {
	Find(path string) (id string, methods Methods, ok bool)
}
