package discord

import (
	"slices"

	"github.com/bwmarrin/discordgo"

	"github.com/mrwong99/interactink/pkg/interactink/model"
)

// RequireRole builds a model.Precondition that rejects an interaction unless
// its author carries roleID. An empty roleID always passes, useful during
// development. Interactions with no Member (DM channel interactions) are
// rejected, since Discord never reports roles outside a guild.
func RequireRole(roleID string) model.Precondition {
	return func(ctx *model.Context) (bool, string) {
		if roleID == "" {
			return true, ""
		}
		inter, ok := ctx.Event.Raw.(*discordgo.InteractionCreate)
		if !ok || inter.Member == nil {
			return false, "this command requires a guild role Discord did not report here"
		}
		if !slices.Contains(inter.Member.Roles, roleID) {
			return false, "you do not have the required role for this command"
		}
		return true, ""
	}
}
