package discord

import (
	"github.com/bwmarrin/discordgo"
)

// User, Channel, and Role wrap discordgo's resolved objects to satisfy the
// convert package's platform marker interfaces (Channel/Role/User), so a
// module can declare a slash parameter of one of these types and receive the
// real Discord object instead of a bare snowflake.
type User struct{ *discordgo.User }

func (u User) UserID() string { return u.ID }

type Channel struct{ *discordgo.Channel }

func (c Channel) ChannelID() string { return c.ID }

type Role struct{ *discordgo.Role }

func (r Role) RoleID() string { return r.ID }

// Mentionable wraps whichever of a user or a role a MENTIONABLE option
// resolved to; at most one of User or Role is set, and neither is set when
// the id is not found in the interaction's resolved data.
type Mentionable struct {
	User *User
	Role *Role
}

func (m Mentionable) MentionID() string {
	if m.User != nil {
		return m.User.ID
	}
	if m.Role != nil {
		return m.Role.ID
	}
	return ""
}

// flattenedOptions descends through every level of subcommand/subcommand-
// group nesting and returns the command path plus the leaf options; the
// caller resolves those against data.Resolved with optionValues (spec.md
// §4.2's slash-group collapse, mirrored back out at dispatch time).
func flattenedOptions(name string, opts []*discordgo.ApplicationCommandInteractionDataOption) ([]string, []*discordgo.ApplicationCommandInteractionDataOption) {
	path := []string{name}
	for len(opts) == 1 && (opts[0].Type == discordgo.ApplicationCommandOptionSubCommand || opts[0].Type == discordgo.ApplicationCommandOptionSubCommandGroup) {
		path = append(path, opts[0].Name)
		opts = opts[0].Options
	}
	return path, opts
}

func optionValues(opts []*discordgo.ApplicationCommandInteractionDataOption, resolved *discordgo.ApplicationCommandInteractionDataResolved) map[string]any {
	values := make(map[string]any, len(opts))
	for _, o := range opts {
		values[o.Name] = resolveOptionValue(o, resolved)
	}
	return values
}

func resolveOptionValue(o *discordgo.ApplicationCommandInteractionDataOption, resolved *discordgo.ApplicationCommandInteractionDataResolved) any {
	switch o.Type {
	case discordgo.ApplicationCommandOptionUser:
		id, _ := o.Value.(string)
		if resolved != nil {
			if u, ok := resolved.Users[id]; ok {
				return User{u}
			}
		}
		return User{&discordgo.User{ID: id}}
	case discordgo.ApplicationCommandOptionChannel:
		id, _ := o.Value.(string)
		if resolved != nil {
			if c, ok := resolved.Channels[id]; ok {
				return Channel{c}
			}
		}
		return Channel{&discordgo.Channel{ID: id}}
	case discordgo.ApplicationCommandOptionRole:
		id, _ := o.Value.(string)
		if resolved != nil {
			if r, ok := resolved.Roles[id]; ok {
				return Role{r}
			}
		}
		return Role{&discordgo.Role{ID: id}}
	case discordgo.ApplicationCommandOptionMentionable:
		id, _ := o.Value.(string)
		if resolved != nil {
			if u, ok := resolved.Users[id]; ok {
				return Mentionable{User: &User{u}}
			}
			if r, ok := resolved.Roles[id]; ok {
				return Mentionable{Role: &Role{r}}
			}
		}
		return Mentionable{}
	default:
		return o.Value
	}
}
