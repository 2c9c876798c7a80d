// Package interaction models the platform's interaction events, the patterns an
// action declares to receive them, and the responses it sends back.
package interaction

import (
	"encoding/json"
	"errors"
	"fmt"

	"github.com/bwmarrin/discordgo"
	"github.com/samber/mo"
)

// ErrMalformedRequest means an authenticated body could not be decoded.
var ErrMalformedRequest = errors.New("malformed action request")

// Interaction is an inbound interaction event. It is never mutated after Parse.
type Interaction struct {
	discordgo.Interaction

	raw json.RawMessage
}

// Raw returns the interaction exactly as received.
func (i *Interaction) Raw() json.RawMessage {
	return i.raw
}

// Name returns the routing name: data.name for application commands and
// data.custom_id for message components and modal submissions. Ping and
// unknown types have no name.
func (i *Interaction) Name() mo.Option[string] {
	var name string
	switch d := i.Data.(type) {
	case discordgo.ApplicationCommandInteractionData:
		name = d.Name
	case discordgo.MessageComponentInteractionData:
		name = d.CustomID
	case discordgo.ModalSubmitInteractionData:
		name = d.CustomID
	}
	if name == "" {
		return mo.None[string]()
	}
	return mo.Some(name)
}

// IsPing reports whether this is a protocol liveness check.
func (i *Interaction) IsPing() bool {
	return i.Type == discordgo.InteractionPing
}

// Request is the body of POST <base>/interactions.
type Request struct {
	Interaction *Interaction
	// Context is optional action-scoped context forwarded to handlers untouched.
	Context json.RawMessage
}

type wireRequest struct {
	Interaction json.RawMessage `json:"interaction"`
	Context     json.RawMessage `json:"context,omitempty"`
}

// ParseRequest decodes an action request body.
func ParseRequest(body []byte) (*Request, error) {
	var wire wireRequest
	if err := json.Unmarshal(body, &wire); err != nil {
		return nil, fmt.Errorf("%w: %w", ErrMalformedRequest, err)
	}
	if len(wire.Interaction) == 0 || string(wire.Interaction) == "null" {
		return nil, fmt.Errorf("%w: interaction is required", ErrMalformedRequest)
	}

	in, err := Parse(wire.Interaction)
	if err != nil {
		return nil, err
	}
	return &Request{Interaction: in, Context: wire.Context}, nil
}

// Parse decodes a single interaction object.
func Parse(raw []byte) (*Interaction, error) {
	in := &Interaction{raw: append(json.RawMessage(nil), raw...)}
	if err := json.Unmarshal(raw, &in.Interaction); err != nil {
		return nil, fmt.Errorf("%w: %w", ErrMalformedRequest, err)
	}
	if in.Type == 0 {
		return nil, fmt.Errorf("%w: interaction type is required", ErrMalformedRequest)
	}
	return in, nil
}
