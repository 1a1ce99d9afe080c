// Package syncengine builds [CommandPayload] trees from a built module tree
// and reconciles them against a platform's registered command set (spec.md
// §4.5). It never talks to a concrete transport directly; callers supply a
// [RegistryClient] that does.
package syncengine

import (
	"context"
	"fmt"
	"strings"

	"golang.org/x/sync/errgroup"

	"github.com/mrwong99/interactink/pkg/interactink/convert"
	"github.com/mrwong99/interactink/pkg/interactink/model"
)

// PayloadType distinguishes what a CommandPayload represents once emitted.
type PayloadType int

const (
	SlashCommandPayload PayloadType = iota
	UserCommandPayload
	MessageCommandPayload
	SubCommandPayload
	SubCommandGroupPayload
)

// subCommandOptionType and subCommandGroupOptionType mirror discordgo's
// ApplicationCommandOptionSubCommand/SubCommandGroup values (1 and 2) so a
// PayloadOption.Type for a nested group member is never confused with a
// leaf parameter's convert.OptionType (OptionString starts at 3).
const (
	subCommandOptionType      = 1
	subCommandGroupOptionType = 2
)

// PayloadOption is either a SubCommand/SubCommandGroup nested payload or a
// leaf parameter option, mirroring the platform's single discriminated
// option-tree shape.
type PayloadOption struct {
	Name         string
	Description  string
	Type         int // the converter's discord option type, or Sub(Group) for nesting
	Required     bool
	Choices      []model.Choice
	Min, Max     *float64
	ChannelTypes []int
	Options      []PayloadOption // only for SubCommand/SubCommandGroup
}

// CommandPayload is the platform-agnostic shape of one published command
// (spec.md §4.5).
type CommandPayload struct {
	Name              string
	Description       string
	Type              PayloadType
	DefaultPermission bool
	Options           []PayloadOption
}

// RegistryClient is the external CommandRegistryClient contract (spec.md §6).
type RegistryClient interface {
	GetGlobal(ctx context.Context) ([]CommandPayload, error)
	GetGuild(ctx context.Context, guildID string) ([]CommandPayload, error)
	BulkOverwriteGlobal(ctx context.Context, payloads []CommandPayload) error
	BulkOverwriteGuild(ctx context.Context, guildID string, payloads []CommandPayload) error
	CreateGuild(ctx context.Context, guildID string, payload CommandPayload) error
	Delete(ctx context.Context, id string) error
}

// BuildPayloads walks roots and emits one CommandPayload per spec.md §4.5:
// context commands individually; non-group modules' slash commands
// individually (recursing into children); slash-group modules collapse
// their own SlashCommands into SubCommand options of one payload (unless
// IgnoreGroupNames escapes them to top level) and their child modules into
// SubCommandGroup options.
func BuildPayloads(roots []*model.Module, registry *convert.Registry) []CommandPayload {
	perRoot := make([][]CommandPayload, len(roots))
	var g errgroup.Group
	for i, m := range roots {
		g.Go(func() error {
			perRoot[i] = buildModulePayloads(m, registry)
			return nil
		})
	}
	_ = g.Wait() // buildModulePayloads never errors; Wait only drains the group

	var out []CommandPayload
	for _, payloads := range perRoot {
		out = append(out, payloads...)
	}
	return out
}

func buildModulePayloads(m *model.Module, registry *convert.Registry) []CommandPayload {
	var out []CommandPayload
	for _, cc := range m.ContextCommands {
		out = append(out, CommandPayload{
			Name:              cc.Name,
			Type:              contextPayloadType(cc.CommandType),
			DefaultPermission: cc.DefaultPermission,
		})
	}

	if !m.IsSlashGroup() {
		for _, c := range m.SlashCommands {
			out = append(out, CommandPayload{
				Name:              c.Name,
				Description:       c.Description,
				Type:              SlashCommandPayload,
				DefaultPermission: c.DefaultPermission,
				Options:           parameterOptions(c.Parameters, registry),
			})
		}
		for _, child := range m.Children {
			out = append(out, buildModulePayloads(child, registry)...)
		}
		return out
	}

	group := CommandPayload{
		Name:              strings.ToLower(m.GroupName),
		Description:       m.Description,
		Type:              SlashCommandPayload,
		DefaultPermission: m.DefaultPermission,
	}
	for _, c := range m.SlashCommands {
		if c.IgnoreGroupNames {
			out = append(out, CommandPayload{
				Name:              c.Name,
				Description:       c.Description,
				Type:              SlashCommandPayload,
				DefaultPermission: c.DefaultPermission,
				Options:           parameterOptions(c.Parameters, registry),
			})
			continue
		}
		group.Options = append(group.Options, PayloadOption{
			Name:        c.Name,
			Description: c.Description,
			Type:        subCommandOptionType,
			Options:     parameterOptions(c.Parameters, registry),
		})
	}
	for _, child := range m.Children {
		if !child.IsSlashGroup() {
			continue
		}
		sub := PayloadOption{
			Name:        strings.ToLower(child.GroupName),
			Description: child.Description,
			Type:        subCommandGroupOptionType,
		}
		for _, c := range child.SlashCommands {
			sub.Options = append(sub.Options, PayloadOption{
				Name:        c.Name,
				Description: c.Description,
				Type:        subCommandOptionType,
				Options:     parameterOptions(c.Parameters, registry),
			})
		}
		group.Options = append(group.Options, sub)
	}
	out = append(out, group)
	return out
}

func contextPayloadType(t model.CommandType) PayloadType {
	if t == model.MessageCommand {
		return MessageCommandPayload
	}
	return UserCommandPayload
}

func parameterOptions(params []*model.Parameter, registry *convert.Registry) []PayloadOption {
	opts := make([]PayloadOption, 0, len(params))
	for _, p := range params {
		opt := PayloadOption{
			Name:         p.Name,
			Description:  p.Description,
			Required:     p.IsRequired,
			Choices:      p.Choices,
			Min:          p.Min,
			Max:          p.Max,
			ChannelTypes: p.ChannelTypes,
		}
		if c, err := registry.Resolve(p.Type); err == nil {
			opt.Type = int(c.DiscordOptionType())
		}
		opts = append(opts, opt)
	}
	return opts
}

// SyncAll implements spec.md §4.5's syncAll: fetch the scope's existing
// commands, substitute declared payloads over same-named existing ones,
// drop (deleteMissing=true) or preserve verbatim (deleteMissing=false) any
// existing command with no declared counterpart, then bulk-overwrite with
// the reconciled list. guildID empty means the global scope.
func SyncAll(ctx context.Context, client RegistryClient, guildID string, declared []CommandPayload, deleteMissing bool) error {
	var existing []CommandPayload
	var err error
	if guildID == "" {
		existing, err = client.GetGlobal(ctx)
	} else {
		existing, err = client.GetGuild(ctx, guildID)
	}
	if err != nil {
		return fmt.Errorf("syncengine: fetch existing commands: %w", err)
	}

	byName := make(map[string]CommandPayload, len(declared))
	for _, d := range declared {
		byName[d.Name] = d
	}

	final := make([]CommandPayload, 0, len(declared))
	seen := make(map[string]bool, len(declared))
	for _, e := range existing {
		if d, ok := byName[e.Name]; ok {
			final = append(final, d)
			seen[e.Name] = true
			continue
		}
		if !deleteMissing {
			final = append(final, e)
		}
	}
	for _, d := range declared {
		if !seen[d.Name] {
			final = append(final, d)
		}
	}

	if guildID == "" {
		return client.BulkOverwriteGlobal(ctx, final)
	}
	return client.BulkOverwriteGuild(ctx, guildID, final)
}

// AddCommandsToGuild creates each payload individually with no overwrite
// (spec.md §4.5 addCommandsToGuild).
func AddCommandsToGuild(ctx context.Context, client RegistryClient, guildID string, payloads []CommandPayload) error {
	for _, p := range payloads {
		if err := client.CreateGuild(ctx, guildID, p); err != nil {
			return fmt.Errorf("syncengine: create guild command %q: %w", p.Name, err)
		}
	}
	return nil
}

// AddModulesToGuild builds payloads from roots and creates each individually
// (spec.md §4.5 addModulesToGuild).
func AddModulesToGuild(ctx context.Context, client RegistryClient, guildID string, roots []*model.Module, registry *convert.Registry) error {
	return AddCommandsToGuild(ctx, client, guildID, BuildPayloads(roots, registry))
}
