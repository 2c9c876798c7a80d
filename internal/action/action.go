package action

import (
	"context"
	"errors"
	"fmt"
	"slices"
	"sort"
	"strings"

	"github.com/mattjoyce/niftyapes-action/internal/interaction"
)

//go:generate mockgen -destination=mocks/mock_handler.go -package=mocks github.com/mattjoyce/niftyapes-action/internal/action Handler

// Handler runs the business logic behind one command.
type Handler interface {
	Handle(ctx context.Context, req *interaction.Request) (Reply, error)
}

// HandlerFunc adapts a function to Handler.
type HandlerFunc func(ctx context.Context, req *interaction.Request) (Reply, error)

func (f HandlerFunc) Handle(ctx context.Context, req *interaction.Request) (Reply, error) {
	return f(ctx, req)
}

// Reply is what a handler hands back. Response, when set, is sent as is;
// otherwise Content becomes a channel message.
type Reply struct {
	Content   string
	Ephemeral bool
	Response  *interaction.Response
}

// EphemeralText is a plain text reply only the invoking user sees.
func EphemeralText(content string) Reply {
	return Reply{Content: content, Ephemeral: true}
}

// empty reports whether the reply has nothing to send.
func (r Reply) empty() bool {
	return r.Response == nil && r.Content == ""
}

func (r Reply) toResponse() *interaction.Response {
	if r.Response != nil {
		return r.Response
	}
	return interaction.BuildSimpleResponse(r.Content, r.Ephemeral)
}

// MetadataProvider exposes an action's static descriptor.
type MetadataProvider interface {
	Metadata() interaction.Metadata
}

// Definition is everything needed to build an Action.
type Definition struct {
	// Name is the registry key.
	Name string
	// BasePath defaults to "/" + Name.
	BasePath string
	Manifest interaction.Manifest
	Patterns []interaction.Pattern
	Commands []interaction.CommandSpec
	// Handlers is the dispatch table keyed by command name.
	Handlers map[string]Handler
}

// Validate cross-checks patterns, commands and handlers. Every problem is
// reported, joined into one error.
func (d Definition) Validate() error {
	var problems []error
	addf := func(format string, args ...any) {
		problems = append(problems, fmt.Errorf("%w: %s: %s", ErrInvalidDefinition, d.Name, fmt.Sprintf(format, args...)))
	}

	if d.Name == "" {
		addf("name is required")
	}
	if d.BasePath != "" && (!strings.HasPrefix(d.BasePath, "/") || d.BasePath == "/") {
		addf("base path %q must start with / and name a segment", d.BasePath)
	}

	commands := make(map[string]bool, len(d.Commands))
	for i, c := range d.Commands {
		if c.Name == "" {
			addf("command[%d] has no name", i)
			continue
		}
		if commands[c.Name] {
			addf("command %q declared twice", c.Name)
		}
		commands[c.Name] = true
	}

	for _, p := range d.Patterns {
		for _, name := range p.Names {
			if !commands[name] {
				addf("pattern name %q has no application command", name)
			}
		}
	}

	for name, h := range d.Handlers {
		if h == nil {
			addf("handler for %q is nil", name)
		}
		if !commands[name] {
			addf("handler %q has no application command", name)
		}
	}
	for name := range commands {
		if _, ok := d.Handlers[name]; !ok {
			addf("command %q has no handler", name)
		}
	}

	return errors.Join(problems...)
}

// Action is an immutable, validated action: metadata plus dispatch table.
// It is safe for concurrent use.
type Action struct {
	name     string
	basePath string
	metadata interaction.Metadata
	dispatch map[string]Handler
}

// New validates def and freezes it into an Action.
func New(def Definition) (*Action, error) {
	if err := def.Validate(); err != nil {
		return nil, err
	}

	basePath := def.BasePath
	if basePath == "" {
		basePath = "/" + def.Name
	}

	dispatch := make(map[string]Handler, len(def.Handlers))
	for name, h := range def.Handlers {
		dispatch[name] = h
	}

	return &Action{
		name:     def.Name,
		basePath: strings.TrimSuffix(basePath, "/"),
		metadata: interaction.Metadata{
			Manifest:              def.Manifest,
			SupportedInteractions: def.Patterns,
			ApplicationCommands:   def.Commands,
		}.Clone(),
		dispatch: dispatch,
	}, nil
}

var (
	_ MetadataProvider = (*Action)(nil)
	_ Routable         = (*Action)(nil)
)

// Name returns the registry key.
func (a *Action) Name() string { return a.name }

// BasePath returns the URL prefix the action is served under.
func (a *Action) BasePath() string { return a.basePath }

// Metadata returns a copy of the action's descriptor. Repeated calls return
// equal values and never touch I/O.
func (a *Action) Metadata() interaction.Metadata {
	return a.metadata.Clone()
}

// Patterns returns the declared interaction patterns.
func (a *Action) Patterns() []interaction.Pattern {
	return a.metadata.SupportedInteractions
}

// Lookup finds the handler for a command name.
func (a *Action) Lookup(name string) (Handler, bool) {
	h, ok := a.dispatch[name]
	return h, ok
}

// DispatchKeys returns the sorted command names the dispatch table handles.
func (a *Action) DispatchKeys() []string {
	keys := make([]string, 0, len(a.dispatch))
	for k := range a.dispatch {
		keys = append(keys, k)
	}
	sort.Strings(keys)
	return keys
}

// HasCommand reports whether name is a declared application command.
func (a *Action) HasCommand(name string) bool {
	return slices.Contains(a.metadata.CommandNames(), name)
}
