package interaction

import "github.com/bwmarrin/discordgo"

// Version names a manifest release.
type Version struct {
	Name string `json:"name"`
}

// Manifest describes the mini app behind an action.
type Manifest struct {
	AppID       string   `json:"appId"`
	Developer   string   `json:"developer"`
	Name        string   `json:"name"`
	Platforms   []string `json:"platforms"`
	ShortName   string   `json:"shortName"`
	Version     Version  `json:"version"`
	Website     string   `json:"website,omitempty"`
	Description string   `json:"description,omitempty"`
}

// CommandMetadata ties a command back to its app.
type CommandMetadata struct {
	Name      string `json:"name"`
	ShortName string `json:"shortName"`
}

// CommandSpec declares an application command registered on install.
type CommandSpec struct {
	Metadata    CommandMetadata                  `json:"metadata"`
	Name        string                           `json:"name"`
	Type        discordgo.ApplicationCommandType `json:"type"`
	Description string                           `json:"description"`
}

// Metadata is the static descriptor an action exposes for discovery.
type Metadata struct {
	Manifest              Manifest      `json:"manifest"`
	SupportedInteractions []Pattern     `json:"supportedInteractions"`
	ApplicationCommands   []CommandSpec `json:"applicationCommands"`
}

// CommandNames lists the declared command names in declaration order.
func (m Metadata) CommandNames() []string {
	names := make([]string, 0, len(m.ApplicationCommands))
	for _, c := range m.ApplicationCommands {
		names = append(names, c.Name)
	}
	return names
}

// Clone returns a deep copy so callers cannot alias the owner's slices.
func (m Metadata) Clone() Metadata {
	out := m
	out.Manifest.Platforms = append([]string(nil), m.Manifest.Platforms...)
	out.SupportedInteractions = make([]Pattern, len(m.SupportedInteractions))
	for i, p := range m.SupportedInteractions {
		out.SupportedInteractions[i] = Pattern{Type: p.Type, Names: append([]string(nil), p.Names...)}
	}
	out.ApplicationCommands = append([]CommandSpec(nil), m.ApplicationCommands...)
	return out
}
