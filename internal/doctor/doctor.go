// Package doctor validates niftyapes-action configuration and the action catalog.
package doctor

import (
	"encoding/json"
	"errors"
	"fmt"
	"sort"
	"strings"

	"github.com/mattjoyce/niftyapes-action/internal/action"
	"github.com/mattjoyce/niftyapes-action/internal/config"
	"github.com/mattjoyce/niftyapes-action/internal/signature"
)

// Result holds the outcome of a validation run.
type Result struct {
	Valid    bool    `json:"valid"`
	Errors   []Issue `json:"errors,omitempty"`
	Warnings []Issue `json:"warnings,omitempty"`
}

// Issue describes a single validation error or warning.
type Issue struct {
	Category string `json:"category"`
	Message  string `json:"message"`
	Field    string `json:"field,omitempty"`
}

// Doctor validates configuration against the built-in action definitions.
type Doctor struct {
	cfg         *config.Config
	definitions map[string]action.Definition
}

// New creates a Doctor from a loaded config and the known action definitions.
func New(cfg *config.Config, definitions []action.Definition) *Doctor {
	defs := make(map[string]action.Definition, len(definitions))
	for _, def := range definitions {
		defs[def.Name] = def
	}
	return &Doctor{cfg: cfg, definitions: defs}
}

// Validate runs all checks and returns a result.
func (d *Doctor) Validate() *Result {
	r := &Result{Valid: true}

	d.validateSignature(r)
	d.validateActionRefs(r)
	d.validateDefinitions(r)
	d.validateBasePaths(r)
	d.warnReplayWindow(r)
	d.warnServerLimits(r)

	r.Valid = len(r.Errors) == 0
	return r
}

func (d *Doctor) addError(r *Result, category, field, msg string) {
	r.Errors = append(r.Errors, Issue{Category: category, Field: field, Message: msg})
}

func (d *Doctor) addWarning(r *Result, category, field, msg string) {
	r.Warnings = append(r.Warnings, Issue{Category: category, Field: field, Message: msg})
}

// validateSignature checks that the verification key parses. Key material is
// never echoed back.
func (d *Doctor) validateSignature(r *Result) {
	s := d.cfg.Signature
	if s.Key == "" {
		d.addError(r, "signature", "signature.key", "signature.key is required")
		return
	}
	if strings.Contains(s.Key, "${") {
		d.addError(r, "signature", "signature.key", "signature.key references an unset environment variable")
		return
	}
	scheme, err := signature.ParseVerificationKey(s.Key, s.Keys)
	if err != nil {
		d.addError(r, "signature", "signature.key", err.Error())
		return
	}
	if scheme.Name() == signature.SchemeHMAC && len(s.Keys) == 0 {
		d.addWarning(r, "signature", "signature.keys",
			"hmac scheme without named keys; secret rotation needs a restart")
	}
}

// validateActionRefs checks that configured actions exist.
func (d *Doctor) validateActionRefs(r *Result) {
	for name := range d.cfg.Actions {
		if _, ok := d.definitions[name]; !ok {
			d.addError(r, "action_refs", fmt.Sprintf("actions.%s", name),
				fmt.Sprintf("action %q in config but not built in", name))
		}
	}
	if len(d.enabled()) == 0 {
		d.addError(r, "action_refs", "actions", "no actions enabled")
	}
}

// validateDefinitions cross-checks patterns, commands and dispatch tables.
func (d *Doctor) validateDefinitions(r *Result) {
	for _, name := range d.enabled() {
		err := d.definitions[name].Validate()
		if err == nil {
			continue
		}
		var joined interface{ Unwrap() []error }
		problems := []error{err}
		if errors.As(err, &joined) {
			problems = joined.Unwrap()
		}
		for _, p := range problems {
			d.addError(r, "definition", fmt.Sprintf("actions.%s", name), p.Error())
		}
	}
}

// validateBasePaths checks that enabled actions mount on distinct paths.
func (d *Doctor) validateBasePaths(r *Result) {
	seen := make(map[string]string)
	for _, name := range d.enabled() {
		path := d.basePath(name)
		if other, dup := seen[path]; dup {
			d.addError(r, "base_path", fmt.Sprintf("actions.%s.base_path", name),
				fmt.Sprintf("base path %q already used by %q", path, other))
			continue
		}
		seen[path] = name
	}
}

// warnReplayWindow flags deployments that accept replayed requests.
func (d *Doctor) warnReplayWindow(r *Result) {
	if d.cfg.Signature.MaxAge == 0 {
		d.addWarning(r, "signature", "signature.max_age",
			"timestamp freshness check disabled; captured requests can be replayed")
	}
}

// warnServerLimits flags a body limit that rejects ordinary interactions.
func (d *Doctor) warnServerLimits(r *Result) {
	if d.cfg.Server.MaxBodySize > 0 && d.cfg.Server.MaxBodySize < 4096 {
		d.addWarning(r, "server", "server.max_body_size",
			fmt.Sprintf("max_body_size %d is smaller than a typical interaction", d.cfg.Server.MaxBodySize))
	}
}

func (d *Doctor) enabled() []string {
	names := make([]string, 0, len(d.definitions))
	for name := range d.definitions {
		names = append(names, name)
	}
	sort.Strings(names)
	return d.cfg.EnabledActions(names)
}

func (d *Doctor) basePath(name string) string {
	path := d.definitions[name].BasePath
	if conf, ok := d.cfg.Actions[name]; ok && conf.BasePath != "" {
		path = conf.BasePath
	}
	if path == "" {
		path = "/" + name
	}
	return strings.TrimSuffix(path, "/")
}

// FormatHuman returns a human-readable validation report.
func FormatHuman(r *Result) string {
	var b strings.Builder

	if r.Valid && len(r.Warnings) == 0 {
		b.WriteString("Configuration valid.\n")
		return b.String()
	}

	if r.Valid && len(r.Warnings) > 0 {
		b.WriteString("Configuration valid")
		fmt.Fprintf(&b, " (%d warning(s))\n", len(r.Warnings))
	}

	if !r.Valid {
		fmt.Fprintf(&b, "Configuration invalid (%d error(s), %d warning(s))\n", len(r.Errors), len(r.Warnings))
	}

	for _, e := range r.Errors {
		if e.Field != "" {
			fmt.Fprintf(&b, "  ERROR [%s] %s: %s\n", e.Category, e.Field, e.Message)
		} else {
			fmt.Fprintf(&b, "  ERROR [%s] %s\n", e.Category, e.Message)
		}
	}
	for _, w := range r.Warnings {
		if w.Field != "" {
			fmt.Fprintf(&b, "  WARN  [%s] %s: %s\n", w.Category, w.Field, w.Message)
		} else {
			fmt.Fprintf(&b, "  WARN  [%s] %s\n", w.Category, w.Message)
		}
	}

	return b.String()
}

// FormatJSON returns the result as indented JSON.
func FormatJSON(r *Result) (string, error) {
	data, err := json.MarshalIndent(r, "", "  ")
	if err != nil {
		return "", err
	}
	return string(data), nil
}
