package discord

import (
	"github.com/bwmarrin/discordgo"

	"github.com/mrwong99/interactink/pkg/interactink/syncengine"
)

func discordCommands(payloads []syncengine.CommandPayload) []*discordgo.ApplicationCommand {
	cmds := make([]*discordgo.ApplicationCommand, len(payloads))
	for i, p := range payloads {
		cmds[i] = discordCommand(p)
	}
	return cmds
}

func discordCommand(p syncengine.CommandPayload) *discordgo.ApplicationCommand {
	return &discordgo.ApplicationCommand{
		Name:        p.Name,
		Description: p.Description,
		Type:        discordCommandType(p.Type),
		Options:     discordOptions(p.Options),
	}
}

func discordCommandType(t syncengine.PayloadType) discordgo.ApplicationCommandType {
	switch t {
	case syncengine.UserCommandPayload:
		return discordgo.UserApplicationCommand
	case syncengine.MessageCommandPayload:
		return discordgo.MessageApplicationCommand
	default:
		return discordgo.ChatApplicationCommand
	}
}

func discordOptions(opts []syncengine.PayloadOption) []*discordgo.ApplicationCommandOption {
	if len(opts) == 0 {
		return nil
	}
	out := make([]*discordgo.ApplicationCommandOption, len(opts))
	for i, o := range opts {
		out[i] = discordOption(o)
	}
	return out
}

func discordOption(o syncengine.PayloadOption) *discordgo.ApplicationCommandOption {
	opt := &discordgo.ApplicationCommandOption{
		Name:        o.Name,
		Description: o.Description,
		Type:        discordgo.ApplicationCommandOptionType(o.Type),
		Required:    o.Required,
		Options:     discordOptions(o.Options),
	}
	if o.Min != nil {
		opt.MinValue = o.Min
	}
	if o.Max != nil {
		opt.MaxValue = *o.Max
	}
	for _, ct := range o.ChannelTypes {
		opt.ChannelTypes = append(opt.ChannelTypes, discordgo.ChannelType(ct))
	}
	for _, c := range o.Choices {
		opt.Choices = append(opt.Choices, &discordgo.ApplicationCommandOptionChoice{
			Name:  c.Name,
			Value: c.Value,
		})
	}
	return opt
}

// payloadsFromDiscord converts already-registered Discord commands back into
// CommandPayload for SyncAll's existing/declared reconciliation. It carries
// the command's snowflake ID forward in Name-keyed form only; syncengine
// reconciles by Name, never by ID, so loss of the ID here is harmless — a
// bulk overwrite republishes every surviving command with a fresh
// assignment.
func payloadsFromDiscord(cmds []*discordgo.ApplicationCommand) []syncengine.CommandPayload {
	out := make([]syncengine.CommandPayload, len(cmds))
	for i, c := range cmds {
		out[i] = syncengine.CommandPayload{
			Name:        c.Name,
			Description: c.Description,
			Type:        payloadTypeFromDiscord(c.Type),
			Options:     payloadOptionsFromDiscord(c.Options),
		}
	}
	return out
}

func payloadTypeFromDiscord(t discordgo.ApplicationCommandType) syncengine.PayloadType {
	switch t {
	case discordgo.UserApplicationCommand:
		return syncengine.UserCommandPayload
	case discordgo.MessageApplicationCommand:
		return syncengine.MessageCommandPayload
	default:
		return syncengine.SlashCommandPayload
	}
}

func payloadOptionsFromDiscord(opts []*discordgo.ApplicationCommandOption) []syncengine.PayloadOption {
	if len(opts) == 0 {
		return nil
	}
	out := make([]syncengine.PayloadOption, len(opts))
	for i, o := range opts {
		out[i] = syncengine.PayloadOption{
			Name:        o.Name,
			Description: o.Description,
			Type:        int(o.Type),
			Required:    o.Required,
			Options:     payloadOptionsFromDiscord(o.Options),
		}
	}
	return out
}
