// Package niftyapes is the NiftyApes marketplace action: buy, sell, borrow and
// follow commands that point users at niftyapes.money.
package niftyapes

import (
	"context"

	"github.com/bwmarrin/discordgo"

	"github.com/mattjoyce/niftyapes-action/internal/action"
	"github.com/mattjoyce/niftyapes-action/internal/interaction"
)

// Name is the registry key of this action.
const Name = "niftyapes"

const (
	appID     = "niftyapes"
	appName   = "NiftyApes Marketplace"
	shortName = "niftyapes"
)

// Command names.
const (
	CommandBuy    = "buy"
	CommandSell   = "sell"
	CommandBorrow = "borrow"
	CommandFollow = "follow"
)

// Replies sent by each command.
const (
	BuyReply    = "Buy on niftyapes.money"
	SellReply   = "Sell on niftyapes.money"
	BorrowReply = "Borrow on niftyapes.money"
	FollowReply = "Follow us on Twitter @niftyapes"
)

type command struct {
	name        string
	description string
	reply       string
}

var commands = []command{
	{CommandBuy, "Buy NFTs on the niftyapes.money marketplace", BuyReply},
	{CommandSell, "Sell NFTs on the niftyapes.money marketplace", SellReply},
	{CommandBorrow, "Use your NFTs as collateral", BorrowReply},
	{CommandFollow, "Follow NiftyApes and never miss important news", FollowReply},
}

// Definition describes the action. The base path defaults to /niftyapes.
func Definition() action.Definition {
	def := action.Definition{
		Name: Name,
		Manifest: interaction.Manifest{
			AppID:       appID,
			Developer:   "NiftyApes",
			Name:        appName,
			Platforms:   []string{"discord"},
			ShortName:   shortName,
			Version:     interaction.Version{Name: "0.0.1"},
			Website:     "https://niftyapes.money",
			Description: "Buy, Sell, Borrow from the NiftyApes protocol. ",
		},
		Handlers: make(map[string]action.Handler, len(commands)),
	}

	names := make([]string, 0, len(commands))
	for _, c := range commands {
		names = append(names, c.name)
		def.Commands = append(def.Commands, interaction.CommandSpec{
			Metadata:    interaction.CommandMetadata{Name: appName, ShortName: shortName},
			Name:        c.name,
			Type:        discordgo.ChatApplicationCommand,
			Description: c.description,
		})
		def.Handlers[c.name] = reply(c.reply)
	}
	def.Patterns = []interaction.Pattern{
		{Type: discordgo.InteractionApplicationCommand, Names: names},
	}
	return def
}

// New builds the action.
func New() (*action.Action, error) {
	return action.New(Definition())
}

func reply(content string) action.Handler {
	return action.HandlerFunc(func(context.Context, *interaction.Request) (action.Reply, error) {
		return action.EphemeralText(content), nil
	})
}
