// Package actions is the catalog of built-in actions.
package actions

import (
	"fmt"
	"sort"

	"github.com/mattjoyce/niftyapes-action/internal/action"
	"github.com/mattjoyce/niftyapes-action/internal/actions/niftyapes"
)

var catalog = map[string]func() action.Definition{
	niftyapes.Name: niftyapes.Definition,
}

// Names returns the built-in action names, sorted.
func Names() []string {
	names := make([]string, 0, len(catalog))
	for name := range catalog {
		names = append(names, name)
	}
	sort.Strings(names)
	return names
}

// Known reports whether name is a built-in action.
func Known(name string) bool {
	_, ok := catalog[name]
	return ok
}

// Definition returns the definition of a built-in action.
func Definition(name string) (action.Definition, error) {
	build, ok := catalog[name]
	if !ok {
		return action.Definition{}, fmt.Errorf("unknown action %q", name)
	}
	return build(), nil
}

// Build creates a built-in action, overriding its base path when basePath is set.
func Build(name, basePath string) (*action.Action, error) {
	def, err := Definition(name)
	if err != nil {
		return nil, err
	}
	if basePath != "" {
		def.BasePath = basePath
	}
	return action.New(def)
}
