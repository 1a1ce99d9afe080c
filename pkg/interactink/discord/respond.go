package discord

import (
	"fmt"

	"github.com/bwmarrin/discordgo"
)

// respondEphemeral sends an ephemeral text response to i.
func (b *Bot) respondEphemeral(i *discordgo.InteractionCreate, content string) error {
	if err := b.session.InteractionRespond(i.Interaction, &discordgo.InteractionResponse{
		Type: discordgo.InteractionResponseChannelMessageWithSource,
		Data: &discordgo.InteractionResponseData{
			Content: content,
			Flags:   discordgo.MessageFlagsEphemeral,
		},
	}); err != nil {
		return fmt.Errorf("discord: send ephemeral response: %w", err)
	}
	return nil
}

// respondEmbed sends an ephemeral embed response to i.
func (b *Bot) respondEmbed(i *discordgo.InteractionCreate, embed *discordgo.MessageEmbed) error {
	if err := b.session.InteractionRespond(i.Interaction, &discordgo.InteractionResponse{
		Type: discordgo.InteractionResponseChannelMessageWithSource,
		Data: &discordgo.InteractionResponseData{
			Embeds: []*discordgo.MessageEmbed{embed},
			Flags:  discordgo.MessageFlagsEphemeral,
		},
	}); err != nil {
		return fmt.Errorf("discord: send embed response: %w", err)
	}
	return nil
}

// respondError renders err as an ephemeral text response.
func (b *Bot) respondError(i *discordgo.InteractionCreate, err error) error {
	return b.respondEphemeral(i, fmt.Sprintf("Error: %v", err))
}

// respondModal opens a modal dialog in reply to i. A handler triggers this
// by returning a *discordgo.InteractionResponseData as its result value,
// which respond (dispatch.go) routes here instead of rendering it as text.
func (b *Bot) respondModal(i *discordgo.InteractionCreate, modal *discordgo.InteractionResponseData) error {
	if err := b.session.InteractionRespond(i.Interaction, &discordgo.InteractionResponse{
		Type: discordgo.InteractionResponseModal,
		Data: modal,
	}); err != nil {
		return fmt.Errorf("discord: open modal: %w", err)
	}
	return nil
}

// deferReply acknowledges i without content, buying up to 15 minutes to
// deliver the real result as a follow-up. Used when the pipeline's RunAsync
// option detaches dispatch into a goroutine (pipeline.Executed fires later).
func (b *Bot) deferReply(i *discordgo.InteractionCreate) error {
	if err := b.session.InteractionRespond(i.Interaction, &discordgo.InteractionResponse{
		Type: discordgo.InteractionResponseDeferredChannelMessageWithSource,
		Data: &discordgo.InteractionResponseData{
			Flags: discordgo.MessageFlagsEphemeral,
		},
	}); err != nil {
		return fmt.Errorf("discord: defer reply: %w", err)
	}
	return nil
}

// followUp sends a follow-up text message after a deferred response.
func (b *Bot) followUp(i *discordgo.InteractionCreate, content string) error {
	if _, err := b.session.FollowupMessageCreate(i.Interaction, true, &discordgo.WebhookParams{
		Content: content,
		Flags:   discordgo.MessageFlagsEphemeral,
	}); err != nil {
		return fmt.Errorf("discord: send follow-up: %w", err)
	}
	return nil
}

// followUpEmbed sends a follow-up embed message after a deferred response.
func (b *Bot) followUpEmbed(i *discordgo.InteractionCreate, embed *discordgo.MessageEmbed) error {
	if _, err := b.session.FollowupMessageCreate(i.Interaction, true, &discordgo.WebhookParams{
		Embeds: []*discordgo.MessageEmbed{embed},
		Flags:  discordgo.MessageFlagsEphemeral,
	}); err != nil {
		return fmt.Errorf("discord: send embed follow-up: %w", err)
	}
	return nil
}
