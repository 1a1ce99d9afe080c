package discord

import (
	"context"
	"fmt"
	"log/slog"
	"reflect"

	"github.com/bwmarrin/discordgo"

	"github.com/mrwong99/interactink/pkg/interactink/model"
	"github.com/mrwong99/interactink/pkg/interactink/pipeline"
)

// handleInteraction is the single discordgo.AddHandler entry point: it
// translates i into a model.InteractionEvent, drives the framework's
// pipeline, and publishes the result back to Discord. With RunAsync set,
// every branch except autocomplete defers first and lets
// subscribeAsyncFollowUps deliver the eventual pipeline.Executed result as a
// follow-up instead; autocomplete always answers directly.
func (b *Bot) handleInteraction(_ *discordgo.Session, i *discordgo.InteractionCreate) {
	ctx := context.Background()
	pipe := b.framework.Pipeline()

	switch i.Type {
	case discordgo.InteractionApplicationCommand:
		data := i.ApplicationCommandData()
		path, leafOpts := flattenedOptions(data.Name, data.Options)
		event := &model.InteractionEvent{Kind: commandKind(data.CommandType), ID: i.Interaction.Token, Path: path, Raw: i}

		if data.CommandType == discordgo.UserApplicationCommand || data.CommandType == discordgo.MessageApplicationCommand {
			if b.runAsync {
				b.warnRespond(b.deferReply(i))
			}
			result, err := pipe.ExecuteContext(ctx, event, contextCommandType(data.CommandType), data.Name, contextTarget(data), stubServices{})
			if !b.runAsync {
				b.respond(i, result, err)
			}
			return
		}

		options := optionValues(leafOpts, data.Resolved)
		if b.runAsync {
			b.warnRespond(b.deferReply(i))
		}
		result, err := pipe.ExecuteSlash(ctx, event, options, stubServices{})
		if !b.runAsync {
			b.respond(i, result, err)
		}

	case discordgo.InteractionApplicationCommandAutocomplete:
		data := i.ApplicationCommandData()
		path, leafOpts := flattenedOptions(data.Name, data.Options)
		focused, partial := focusedOption(leafOpts)
		choices, err := pipe.ExecuteAutocomplete(ctx, path, focused, partial)
		if err != nil {
			slog.Debug("discord: autocomplete lookup miss", "error", err)
		}
		b.respondAutocomplete(i, choices)

	case discordgo.InteractionMessageComponent:
		data := i.MessageComponentData()
		event := &model.InteractionEvent{Kind: model.ComponentInteraction, ID: i.Interaction.Token, CustomID: data.CustomID, Raw: i}
		var selected []string
		if len(data.Values) > 0 {
			selected = data.Values
		}
		if b.runAsync {
			b.warnRespond(b.deferReply(i))
		}
		result, err := pipe.ExecuteComponent(ctx, event, selected, stubServices{})
		if !b.runAsync {
			b.respond(i, result, err)
		}

	case discordgo.InteractionModalSubmit:
		data := i.ModalSubmitData()
		event := &model.InteractionEvent{Kind: model.ModalInteraction, ID: i.Interaction.Token, CustomID: data.CustomID, Raw: i}
		fields := make(map[string]any)
		for _, row := range data.Components {
			actionRow, ok := row.(*discordgo.ActionsRow)
			if !ok {
				continue
			}
			for _, comp := range actionRow.Components {
				if input, ok := comp.(*discordgo.TextInput); ok {
					fields[input.CustomID] = input.Value
				}
			}
		}
		if b.runAsync {
			b.warnRespond(b.deferReply(i))
		}
		result, err := pipe.ExecuteModal(ctx, event, fields, stubServices{})
		if !b.runAsync {
			b.respond(i, result, err)
		}

	default:
		slog.Warn("discord: unhandled interaction type", "type", i.Type)
	}
}

// subscribeAsyncFollowUps wires every dispatch-bearing Executed bus to a
// Discord follow-up message. Only meaningful alongside RunAsync: dispatch
// returns a placeholder success immediately and handleInteraction has
// already deferred, so the real content arrives here once the detached
// handler goroutine publishes (pipeline.go's dispatch/finish).
func (b *Bot) subscribeAsyncFollowUps() {
	pipe := b.framework.Pipeline()
	pipe.SlashExecuted.Subscribe(b.followUpExecuted)
	pipe.ContextExecuted.Subscribe(b.followUpExecuted)
	pipe.ComponentExecuted.Subscribe(b.followUpExecuted)
	pipe.ModalExecuted.Subscribe(b.followUpExecuted)
}

func (b *Bot) followUpExecuted(e pipeline.Executed) {
	if e.Ctx == nil || e.Ctx.Event == nil || e.Result == nil {
		return
	}
	inter, ok := e.Ctx.Event.Raw.(*discordgo.InteractionCreate)
	if !ok {
		return
	}
	if !e.Result.IsSuccess {
		b.warnRespond(b.followUp(inter, fmt.Sprintf("Error: %s", e.Result.ErrorReason)))
		return
	}
	switch v := e.Result.Value.(type) {
	case nil:
		b.warnRespond(b.followUp(inter, "Done."))
	case string:
		b.warnRespond(b.followUp(inter, v))
	case *discordgo.MessageEmbed:
		b.warnRespond(b.followUpEmbed(inter, v))
	default:
		b.warnRespond(b.followUp(inter, fmt.Sprintf("%v", v)))
	}
}

func commandKind(t discordgo.ApplicationCommandType) model.InteractionKind {
	if t == discordgo.UserApplicationCommand || t == discordgo.MessageApplicationCommand {
		return model.ContextInteraction
	}
	return model.SlashInteraction
}

func contextCommandType(t discordgo.ApplicationCommandType) model.CommandType {
	if t == discordgo.MessageApplicationCommand {
		return model.MessageCommand
	}
	return model.UserCommand
}

func contextTarget(data discordgo.ApplicationCommandInteractionData) any {
	if u, ok := data.Resolved.Users[data.TargetID]; ok {
		return User{u}
	}
	if m, ok := data.Resolved.Messages[data.TargetID]; ok {
		return m
	}
	return data.TargetID
}

func focusedOption(opts []*discordgo.ApplicationCommandInteractionDataOption) (name, partial string) {
	for _, o := range opts {
		if o.Focused {
			s, _ := o.Value.(string)
			return o.Name, s
		}
	}
	return "", ""
}

// respond publishes a model.ExecuteResult back to Discord. err, when
// non-nil, means ThrowOnError surfaced a handler exception; it is still
// reported to the user the same way as any other failure.
func (b *Bot) respond(i *discordgo.InteractionCreate, result *model.ExecuteResult, _ error) {
	if result == nil {
		b.warnRespond(b.respondEphemeral(i, "Internal error: no result."))
		return
	}
	if !result.IsSuccess {
		b.warnRespond(b.respondError(i, fmt.Errorf("%s", result.ErrorReason)))
		return
	}
	switch v := result.Value.(type) {
	case nil:
		b.warnRespond(b.respondEphemeral(i, "Done."))
	case string:
		b.warnRespond(b.respondEphemeral(i, v))
	case *discordgo.MessageEmbed:
		b.warnRespond(b.respondEmbed(i, v))
	case *discordgo.InteractionResponseData:
		b.warnRespond(b.respondModal(i, v))
	default:
		b.warnRespond(b.respondEphemeral(i, fmt.Sprintf("%v", v)))
	}
}

func (b *Bot) respondAutocomplete(i *discordgo.InteractionCreate, choices []model.Choice) {
	out := make([]*discordgo.ApplicationCommandOptionChoice, len(choices))
	for idx, c := range choices {
		out[idx] = &discordgo.ApplicationCommandOptionChoice{Name: c.Name, Value: c.Value}
	}
	err := b.session.InteractionRespond(i.Interaction, &discordgo.InteractionResponse{
		Type: discordgo.InteractionApplicationCommandAutocompleteResult,
		Data: &discordgo.InteractionResponseData{Choices: out},
	})
	if err != nil {
		slog.Warn("discord: failed to respond autocomplete", "err", err)
	}
}

// warnRespond logs a response-delivery failure at WARN. Every respond*/
// followUp* helper returns its error instead of swallowing it so callers
// that need to distinguish failures (tests, future retry logic) still can;
// handleInteraction itself only ever logs.
func (b *Bot) warnRespond(err error) {
	if err != nil {
		slog.Warn("discord: response failed", "err", err)
	}
}

// stubServices is the zero-dependency ServiceLocator used until a host
// wires its own DI container through interactink.Framework.
type stubServices struct{}

func (stubServices) Resolve(t reflect.Type) (any, bool) { return nil, false }
