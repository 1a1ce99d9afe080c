// Package discord is interactink's Discord transport adapter. It owns the
// discordgo.Session lifecycle, translates *discordgo.InteractionCreate
// events into model.InteractionEvent for the framework's pipeline, and
// implements the pipeline.AckDeleter and syncengine.RegistryClient contracts
// against the real Discord API.
package discord

import (
	"context"
	"fmt"
	"log/slog"
	"sync"

	"github.com/bwmarrin/discordgo"

	"github.com/mrwong99/interactink/pkg/interactink"
	"github.com/mrwong99/interactink/pkg/interactink/syncengine"
)

// Config holds Discord bot configuration.
type Config struct {
	// Token is the Discord bot token (e.g., "Bot MTIz...").
	Token string `yaml:"token"`

	// GuildID is the guild Run's initial sync targets; empty means global.
	GuildID string `yaml:"guild_id"`

	// DeleteMissing controls whether Run's initial sync removes any
	// registered command with no declared counterpart.
	DeleteMissing bool `yaml:"delete_missing"`
}

// Bot owns the Discord gateway connection and drives a *interactink.Framework
// from inbound interactions.
type Bot struct {
	mu            sync.RWMutex
	session       *discordgo.Session
	framework     *interactink.Framework
	guildID       string
	deleteMissing bool
	runAsync      bool
	commands      []*discordgo.ApplicationCommand
	closeOnce     sync.Once
}

// New creates a Bot wired to framework, connects to Discord, and registers
// the gateway interaction handler. The framework should already have its
// modules registered before calling Run so the first sync publishes them.
func New(_ context.Context, cfg Config, framework *interactink.Framework) (*Bot, error) {
	session, err := discordgo.New("Bot " + cfg.Token)
	if err != nil {
		return nil, fmt.Errorf("discord: create session: %w", err)
	}

	session.Identify.Intents = discordgo.IntentsGuilds | discordgo.IntentsGuildMessages

	if err := session.Open(); err != nil {
		return nil, fmt.Errorf("discord: open session: %w", err)
	}

	b := &Bot{
		session:       session,
		framework:     framework,
		guildID:       cfg.GuildID,
		deleteMissing: cfg.DeleteMissing,
		runAsync:      framework.Options().RunAsync,
	}

	session.AddHandler(b.handleInteraction)
	if b.runAsync {
		b.subscribeAsyncFollowUps()
	}

	return b, nil
}

// Session returns the underlying discordgo session. Used by subsystems that
// need direct Discord API access beyond the interaction pipeline.
func (b *Bot) Session() *discordgo.Session {
	b.mu.RLock()
	defer b.mu.RUnlock()
	return b.session
}

// GuildID returns the bot's configured default guild.
func (b *Bot) GuildID() string { return b.guildID }

// Run syncs the framework's commands into GuildID (global if empty) and
// blocks until ctx is cancelled.
func (b *Bot) Run(ctx context.Context) error {
	if err := b.framework.SyncCommands(ctx, b.guildID, b.deleteMissing); err != nil {
		return fmt.Errorf("discord: sync commands: %w", err)
	}
	<-ctx.Done()
	return ctx.Err()
}

// Close disconnects from Discord. It does not unregister commands: a
// restart should rejoin the same published command set, not tear it down.
func (b *Bot) Close() error {
	var closeErr error
	b.closeOnce.Do(func() {
		b.mu.Lock()
		defer b.mu.Unlock()
		if b.session != nil {
			if err := b.session.Close(); err != nil {
				closeErr = fmt.Errorf("discord: close session: %w", err)
			}
		}
		slog.Info("discord bot closed")
	})
	return closeErr
}

// DeleteOriginalAck implements pipeline.AckDeleter: it deletes the original
// interaction response, used when DeleteUnknownCommandAck is set and a
// lookup misses after the gateway already saw a deferred ack.
func (b *Bot) DeleteOriginalAck(_ context.Context, interactionToken string) error {
	b.mu.RLock()
	session := b.session
	b.mu.RUnlock()
	if err := session.InteractionResponseDelete(&discordgo.Interaction{Token: interactionToken}); err != nil {
		return fmt.Errorf("discord: delete original ack: %w", err)
	}
	return nil
}

// GetGlobal implements syncengine.RegistryClient.
func (b *Bot) GetGlobal(context.Context) ([]syncengine.CommandPayload, error) {
	cmds, err := b.session.ApplicationCommands(b.appID(), "")
	if err != nil {
		return nil, fmt.Errorf("discord: list global commands: %w", err)
	}
	return payloadsFromDiscord(cmds), nil
}

// GetGuild implements syncengine.RegistryClient.
func (b *Bot) GetGuild(_ context.Context, guildID string) ([]syncengine.CommandPayload, error) {
	cmds, err := b.session.ApplicationCommands(b.appID(), guildID)
	if err != nil {
		return nil, fmt.Errorf("discord: list guild %s commands: %w", guildID, err)
	}
	return payloadsFromDiscord(cmds), nil
}

// BulkOverwriteGlobal implements syncengine.RegistryClient.
func (b *Bot) BulkOverwriteGlobal(_ context.Context, payloads []syncengine.CommandPayload) error {
	registered, err := b.session.ApplicationCommandBulkOverwrite(b.appID(), "", discordCommands(payloads))
	if err != nil {
		return fmt.Errorf("discord: bulk overwrite global commands: %w", err)
	}
	b.mu.Lock()
	b.commands = registered
	b.mu.Unlock()
	slog.Info("discord commands registered", "scope", "global", "count", len(registered))
	return nil
}

// BulkOverwriteGuild implements syncengine.RegistryClient.
func (b *Bot) BulkOverwriteGuild(_ context.Context, guildID string, payloads []syncengine.CommandPayload) error {
	registered, err := b.session.ApplicationCommandBulkOverwrite(b.appID(), guildID, discordCommands(payloads))
	if err != nil {
		return fmt.Errorf("discord: bulk overwrite guild %s commands: %w", guildID, err)
	}
	b.mu.Lock()
	b.commands = registered
	b.mu.Unlock()
	slog.Info("discord commands registered", "scope", guildID, "count", len(registered))
	return nil
}

// CreateGuild implements syncengine.RegistryClient.
func (b *Bot) CreateGuild(_ context.Context, guildID string, payload syncengine.CommandPayload) error {
	if _, err := b.session.ApplicationCommandCreate(b.appID(), guildID, discordCommand(payload)); err != nil {
		return fmt.Errorf("discord: create guild %s command %q: %w", guildID, payload.Name, err)
	}
	return nil
}

// Delete implements syncengine.RegistryClient. id is the Discord snowflake
// of a previously published command.
func (b *Bot) Delete(_ context.Context, id string) error {
	if err := b.session.ApplicationCommandDelete(b.appID(), "", id); err != nil {
		return fmt.Errorf("discord: delete command %s: %w", id, err)
	}
	return nil
}

func (b *Bot) appID() string {
	b.mu.RLock()
	defer b.mu.RUnlock()
	return b.session.State.User.ID
}
