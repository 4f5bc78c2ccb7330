// Package registry holds the bounded list of sandbox-visible tool
// function names. Membership in this list is the sole source of truth
// for what tool functions exist; it survives Session.Reset (only the
// interpreter is rebuilt) and is what Reset replays onto the fresh
// interpreter.
package registry

import "errors"

// MaxFunctions is the fixed cap on registered tool function names.
const MaxFunctions = 64

// ErrTooManyFunctions is returned by Add once the registry is full.
var ErrTooManyFunctions = errors.New("registry: too many registered functions (limit 64)")

// Registry is a bounded, ordered, deduplicated set of tool names.
type Registry struct {
	names []string
	seen  map[string]bool
}

// New returns an empty Registry.
func New() *Registry {
	return &Registry{seen: make(map[string]bool)}
}

// Add registers name, returning ErrTooManyFunctions if the registry is
// already at capacity. Re-adding an already-registered name is a no-op
// that does not count twice against the cap.
func (r *Registry) Add(name string) error {
	if r.seen[name] {
		return nil
	}
	if len(r.names) >= MaxFunctions {
		return ErrTooManyFunctions
	}
	r.names = append(r.names, name)
	r.seen[name] = true
	return nil
}

// Names returns the registered names in registration order.
func (r *Registry) Names() []string {
	out := make([]string, len(r.names))
	copy(out, r.names)
	return out
}

// Len returns the number of registered names.
func (r *Registry) Len() int { return len(r.names) }
