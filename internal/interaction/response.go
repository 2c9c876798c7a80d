package interaction

import "github.com/bwmarrin/discordgo"

// Response is the wire-level reply to an interaction.
type Response struct {
	Type discordgo.InteractionResponseType `json:"type"`
	Data *ResponseData                     `json:"data,omitempty"`
}

// ResponseData is the message payload of a response.
type ResponseData struct {
	Content string                    `json:"content,omitempty"`
	Flags   discordgo.MessageFlags    `json:"flags,omitempty"`
	Embeds  []*discordgo.MessageEmbed `json:"embeds,omitempty"`
}

// Pong acknowledges a ping.
func Pong() *Response {
	return &Response{Type: discordgo.InteractionResponsePong}
}

// BuildSimpleResponse replies in the channel with plain text, visible only to
// the invoking user when ephemeral is set.
func BuildSimpleResponse(content string, ephemeral bool) *Response {
	data := &ResponseData{Content: content}
	if ephemeral {
		data.Flags = discordgo.MessageFlagsEphemeral
	}
	return &Response{
		Type: discordgo.InteractionResponseChannelMessageWithSource,
		Data: data,
	}
}

// IsEphemeral reports whether the response carries the ephemeral flag.
func (r *Response) IsEphemeral() bool {
	return r.Data != nil && r.Data.Flags&discordgo.MessageFlagsEphemeral != 0
}
