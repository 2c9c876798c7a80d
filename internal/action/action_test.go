package action

import (
	"context"
	"errors"
	"testing"

	"github.com/bwmarrin/discordgo"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/mattjoyce/niftyapes-action/internal/interaction"
)

func okHandler(content string) Handler {
	return HandlerFunc(func(context.Context, *interaction.Request) (Reply, error) {
		return EphemeralText(content), nil
	})
}

func testDefinition() Definition {
	return Definition{
		Name:     "demo",
		Manifest: interaction.Manifest{AppID: "demo", Name: "Demo"},
		Patterns: []interaction.Pattern{
			{Type: discordgo.InteractionApplicationCommand, Names: []string{"one", "two"}},
		},
		Commands: []interaction.CommandSpec{
			{Name: "one", Type: discordgo.ChatApplicationCommand, Description: "first"},
			{Name: "two", Type: discordgo.ChatApplicationCommand, Description: "second"},
		},
		Handlers: map[string]Handler{
			"one": okHandler("1"),
			"two": okHandler("2"),
		},
	}
}

func TestDefinitionValidate(t *testing.T) {
	require.NoError(t, testDefinition().Validate())

	tests := []struct {
		name   string
		mutate func(*Definition)
		want   string
	}{
		{
			name:   "missing name",
			mutate: func(d *Definition) { d.Name = "" },
			want:   "name is required",
		},
		{
			name:   "bad base path",
			mutate: func(d *Definition) { d.BasePath = "demo" },
			want:   "must start with /",
		},
		{
			name: "duplicate command",
			mutate: func(d *Definition) {
				d.Commands = append(d.Commands, interaction.CommandSpec{Name: "one"})
			},
			want: `command "one" declared twice`,
		},
		{
			name: "pattern without command",
			mutate: func(d *Definition) {
				d.Patterns[0].Names = append(d.Patterns[0].Names, "three")
			},
			want: `pattern name "three" has no application command`,
		},
		{
			name:   "command without handler",
			mutate: func(d *Definition) { delete(d.Handlers, "two") },
			want:   `command "two" has no handler`,
		},
		{
			name:   "handler without command",
			mutate: func(d *Definition) { d.Handlers["three"] = okHandler("3") },
			want:   `handler "three" has no application command`,
		},
		{
			name:   "nil handler",
			mutate: func(d *Definition) { d.Handlers["one"] = nil },
			want:   `handler for "one" is nil`,
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			def := testDefinition()
			tt.mutate(&def)
			err := def.Validate()
			require.Error(t, err)
			assert.True(t, errors.Is(err, ErrInvalidDefinition))
			assert.Contains(t, err.Error(), tt.want)
		})
	}
}

func TestNew(t *testing.T) {
	a, err := New(testDefinition())
	require.NoError(t, err)

	assert.Equal(t, "demo", a.Name())
	assert.Equal(t, "/demo", a.BasePath())
	assert.Equal(t, []string{"one", "two"}, a.DispatchKeys())
	assert.True(t, a.HasCommand("one"))
	assert.False(t, a.HasCommand("three"))

	h, ok := a.Lookup("two")
	require.True(t, ok)
	reply, err := h.Handle(context.Background(), nil)
	require.NoError(t, err)
	assert.Equal(t, "2", reply.Content)

	_, ok = a.Lookup("three")
	assert.False(t, ok)
}

func TestNew_BasePath(t *testing.T) {
	def := testDefinition()
	def.BasePath = "/custom/"
	a, err := New(def)
	require.NoError(t, err)
	assert.Equal(t, "/custom", a.BasePath())
}

func TestMetadataIsStable(t *testing.T) {
	a, err := New(testDefinition())
	require.NoError(t, err)

	first := a.Metadata()
	first.ApplicationCommands[0].Name = "mutated"
	first.SupportedInteractions[0].Names[0] = "mutated"

	second := a.Metadata()
	assert.Equal(t, "one", second.ApplicationCommands[0].Name)
	assert.Equal(t, "one", second.SupportedInteractions[0].Names[0])
	assert.Equal(t, second, a.Metadata())
}

func TestReplyToResponse(t *testing.T) {
	resp := EphemeralText("hi").toResponse()
	assert.Equal(t, discordgo.InteractionResponseChannelMessageWithSource, resp.Type)
	assert.Equal(t, "hi", resp.Data.Content)
	assert.True(t, resp.IsEphemeral())

	public := Reply{Content: "all"}.toResponse()
	assert.False(t, public.IsEphemeral())

	custom := interaction.Pong()
	assert.Same(t, custom, Reply{Content: "ignored", Response: custom}.toResponse())
}

func TestReplyEmpty(t *testing.T) {
	assert.True(t, Reply{}.empty())
	assert.True(t, Reply{Ephemeral: true}.empty())
	assert.False(t, EphemeralText("hi").empty())
	assert.False(t, Reply{Response: interaction.Pong()}.empty())
}

func TestRegistry(t *testing.T) {
	r := NewRegistry()

	a, err := New(testDefinition())
	require.NoError(t, err)
	require.NoError(t, r.Add(a))

	got, ok := r.Get("demo")
	require.True(t, ok)
	assert.Same(t, a, got)

	err = r.Add(a)
	assert.ErrorContains(t, err, "already registered")

	def := testDefinition()
	def.Name = "other"
	def.BasePath = "/demo"
	clash, err := New(def)
	require.NoError(t, err)
	assert.ErrorContains(t, r.Add(clash), "base path")

	def.BasePath = ""
	b, err := New(def)
	require.NoError(t, err)
	require.NoError(t, r.Add(b))

	all := r.All()
	require.Len(t, all, 2)
	assert.Equal(t, "demo", all[0].Name())
	assert.Equal(t, "other", all[1].Name())
}

func TestStateString(t *testing.T) {
	assert.Equal(t, "received", StateReceived.String())
	assert.Equal(t, "rejected", StateRejected.String())
	assert.Equal(t, "State(42)", State(42).String())
}
