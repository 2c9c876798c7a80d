package action

import (
	"fmt"
	"sort"
)

// Registry maps action names to actions. It is filled once at startup and
// read-only afterwards.
type Registry struct {
	actions map[string]*Action
}

// NewRegistry creates an empty action registry.
func NewRegistry() *Registry {
	return &Registry{
		actions: make(map[string]*Action),
	}
}

// Get retrieves an action by name.
func (r *Registry) Get(name string) (*Action, bool) {
	a, ok := r.actions[name]
	return a, ok
}

// All returns all registered actions sorted by name.
func (r *Registry) All() []*Action {
	out := make([]*Action, 0, len(r.actions))
	for _, a := range r.actions {
		out = append(out, a)
	}
	sort.Slice(out, func(i, j int) bool { return out[i].Name() < out[j].Name() })
	return out
}

// Add registers an action. Names and base paths must be unique.
func (r *Registry) Add(a *Action) error {
	if _, exists := r.actions[a.Name()]; exists {
		return fmt.Errorf("action %q already registered", a.Name())
	}
	for _, other := range r.actions {
		if other.BasePath() == a.BasePath() {
			return fmt.Errorf("action %q: base path %q already used by %q", a.Name(), a.BasePath(), other.Name())
		}
	}
	r.actions[a.Name()] = a
	return nil
}
