package interaction

import (
	"slices"

	"github.com/bwmarrin/discordgo"
)

// Pattern declares the interactions an action accepts: a type plus the names
// routed for that type.
type Pattern struct {
	Type  discordgo.InteractionType `json:"type"`
	Names []string                  `json:"names,omitempty"`
}

// Matches reports whether in is in scope of this pattern.
func (p Pattern) Matches(in *Interaction) bool {
	if in.Type != p.Type {
		return false
	}
	name, ok := in.Name().Get()
	if !ok {
		return false
	}
	return slices.Contains(p.Names, name)
}

// Match reports whether any pattern accepts in. Ping is always in scope.
func Match(patterns []Pattern, in *Interaction) bool {
	if in.IsPing() {
		return true
	}
	for _, p := range patterns {
		if p.Matches(in) {
			return true
		}
	}
	return false
}
