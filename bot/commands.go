package bot

import (
	"context"
	"errors"
	"log/slog"

	"github.com/bwmarrin/discordgo"

	"github.com/Edward-Boguslavsky/Birthday-Bot/commands"
	"github.com/Edward-Boguslavsky/Birthday-Bot/discordutils"
	"github.com/Edward-Boguslavsky/Birthday-Bot/editor"
	"github.com/Edward-Boguslavsky/Birthday-Bot/logfields"
	"github.com/Edward-Boguslavsky/Birthday-Bot/session"
)

// Replies sent outside the editor UI.
const (
	replyNotAdmin      = "Nice try."
	replyAdminRole     = "That role allows admin permissions, that's a bad idea."
	replyGuildOnly     = "This command only works in a server."
	replySessionEnded  = "This session has ended. Please run the command again."
	replyRecordMissing = "That birthday no longer exists!"
	replyFailure       = "Something went wrong, please try again."
)

// dispatch routes one interaction. Panics are logged and answered with a
// generic failure so a bad handler never takes the bot down.
func (bot *Bot) dispatch(i *discordgo.InteractionCreate) {
	defer func() {
		if r := recover(); r != nil {
			slog.Error("Interaction handler panicked",
				slog.Any("panic", r),
				logfields.Guild(i.GuildID))
			discordutils.ReplyEphemeral(bot.api, i.Interaction, replyFailure)
		}
	}()

	ctx, cancel := context.WithTimeout(context.Background(), handlerTimeout)
	defer cancel()

	switch i.Type {
	case discordgo.InteractionApplicationCommand:
		bot.handleCommand(ctx, i)
	case discordgo.InteractionMessageComponent:
		bot.handleComponent(ctx, i)
	case discordgo.InteractionModalSubmit:
		bot.handleModal(ctx, i)
	}
}

func (bot *Bot) handleCommand(ctx context.Context, i *discordgo.InteractionCreate) {
	data := i.ApplicationCommandData()
	kind, ok := commands.Kind(data.Name)
	if !ok {
		return
	}
	if i.Member == nil || i.Member.User == nil {
		discordutils.ReplyEphemeral(bot.api, i.Interaction, replyGuildOnly)
		return
	}
	if !bot.isAdmin(i) {
		discordutils.ReplyEphemeral(bot.api, i.Interaction, replyNotAdmin)
		return
	}

	if err := discordutils.AckEphemeral(bot.api, i.Interaction); err != nil {
		slog.Warn("Failed to acknowledge command", logfields.Command(data.Name), logfields.Error(err))
		return
	}

	_, err := bot.editor.Open(ctx, kind, i.GuildID, i.Member.User.ID, bot.surface(i))
	if err != nil {
		slog.Error("Failed to open editor", logfields.Command(data.Name), logfields.Error(err))
		discordutils.ReplyEphemeral(bot.api, i.Interaction, replyFailure)
	}
}

func (bot *Bot) handleComponent(ctx context.Context, i *discordgo.InteractionCreate) {
	data := i.MessageComponentData()
	id, s, ok := bot.resolve(i, data.CustomID)
	if !ok {
		return
	}

	switch id.Action {
	case commands.ActionAdd:
		form, err := bot.editor.BeginAdd(s)
		bot.showModal(ctx, i, s, form, err)
		return
	case commands.ActionEdit:
		form, err := bot.editor.BeginEdit(s, id.UserID)
		bot.showModal(ctx, i, s, form, err)
		return
	}

	if err := discordutils.AckUpdate(bot.api, i.Interaction); err != nil {
		slog.Warn("Failed to acknowledge component", logfields.CustomID(data.CustomID), logfields.Error(err))
		return
	}

	surface := bot.surface(i)
	value := ""
	if len(data.Values) > 0 {
		value = data.Values[0]
	}

	var err error
	switch id.Action {
	case commands.ActionPrevious:
		err = bot.editor.Previous(ctx, s, surface)
	case commands.ActionNext:
		err = bot.editor.Next(ctx, s, surface)
	case commands.ActionRemove:
		if id.UserID != "" {
			err = bot.editor.Remove(ctx, s, surface, id.UserID)
		}
	case commands.ActionSelect:
		err = bot.editor.Select(ctx, s, surface, value)
	case commands.ActionChannel:
		if value != "" {
			err = bot.editor.SetChannel(ctx, s, surface, value)
		}
	case commands.ActionRole:
		switch {
		case value == "":
		case bot.roleIsAdmin(i.GuildID, value, data):
			err = bot.editor.Reject(ctx, s, surface, replyAdminRole)
		default:
			err = bot.editor.SetRole(ctx, s, surface, value)
		}
	case commands.ActionTimezone:
		if value != "" {
			err = bot.editor.SetTimezone(ctx, s, surface, value)
		}
	default:
		slog.Debug("Ignoring component", logfields.CustomID(data.CustomID))
	}
	bot.finish(i, err)
}

func (bot *Bot) handleModal(ctx context.Context, i *discordgo.InteractionCreate) {
	data := i.ModalSubmitData()
	id, s, ok := bot.resolve(i, data.CustomID)
	if !ok {
		return
	}
	if id.Action != commands.ActionAddForm && id.Action != commands.ActionEditForm {
		return
	}

	if err := discordutils.AckUpdate(bot.api, i.Interaction); err != nil {
		slog.Warn("Failed to acknowledge form", logfields.CustomID(data.CustomID), logfields.Error(err))
		return
	}

	form := commands.ParseModal(id, data)
	bot.finish(i, bot.editor.Submit(ctx, s, bot.surface(i), form))
}

// resolve decodes a custom id and finds its live session, answering the
// interaction itself when it cannot be handled.
func (bot *Bot) resolve(i *discordgo.InteractionCreate, raw string) (commands.CustomID, *session.Session, bool) {
	id, err := commands.ParseCustomID(raw)
	if err != nil {
		slog.Debug("Ignoring foreign custom id", logfields.CustomID(raw))
		return id, nil, false
	}

	s, err := bot.editor.Session(id.SessionID)
	if err != nil {
		discordutils.ReplyEphemeral(bot.api, i.Interaction, replySessionEnded)
		return id, nil, false
	}
	if !bot.isAdmin(i) {
		discordutils.ReplyEphemeral(bot.api, i.Interaction, replyNotAdmin)
		return id, nil, false
	}
	return id, s, true
}

func (bot *Bot) showModal(
	ctx context.Context,
	i *discordgo.InteractionCreate,
	s *session.Session,
	form editor.Form,
	err error,
) {
	switch {
	case errors.Is(err, editor.ErrNoSession):
		discordutils.ReplyEphemeral(bot.api, i.Interaction, replySessionEnded)
		return
	case errors.Is(err, editor.ErrUnknownRecord):
		if ackErr := discordutils.AckUpdate(bot.api, i.Interaction); ackErr != nil {
			return
		}
		bot.finish(i, bot.editor.Reject(ctx, s, bot.surface(i), replyRecordMissing))
		return
	case err != nil:
		slog.Error("Failed to open form", logfields.Session(s.ID), logfields.Error(err))
		discordutils.ReplyEphemeral(bot.api, i.Interaction, replyFailure)
		return
	}

	if err := bot.api.InteractionRespond(i.Interaction, commands.Modal(s.ID, form)); err != nil {
		slog.Warn("Failed to show form", logfields.Session(s.ID), logfields.Error(err))
		bot.editor.Cancel(s)
	}
}

// finish reports an editor error on an interaction that was already
// acknowledged.
func (bot *Bot) finish(i *discordgo.InteractionCreate, err error) {
	switch {
	case err == nil:
	case errors.Is(err, editor.ErrNoSession):
		discordutils.ReplyEphemeral(bot.api, i.Interaction, replySessionEnded)
	default:
		slog.Error("Editor event failed", logfields.Guild(i.GuildID), logfields.Error(err))
		discordutils.ReplyEphemeral(bot.api, i.Interaction, replyFailure)
	}
}

func (bot *Bot) surface(i *discordgo.InteractionCreate) session.Surface {
	return discordutils.NewInteractionSurface(bot.api, i.Interaction, commands.Render)
}

func (bot *Bot) isAdmin(i *discordgo.InteractionCreate) bool {
	if i.Member == nil {
		return false
	}
	return discordutils.MemberHasAdminPermissions(bot.guild(i.GuildID), i.Member)
}

func (bot *Bot) roleIsAdmin(guildID, roleID string, data discordgo.MessageComponentInteractionData) bool {
	if role, ok := data.Resolved.Roles[roleID]; ok {
		return discordutils.RoleAllowsAdminPermissions(role)
	}
	if g := bot.guild(guildID); g != nil {
		for _, role := range g.Roles {
			if role.ID == roleID {
				return discordutils.RoleAllowsAdminPermissions(role)
			}
		}
	}
	return false
}

func (bot *Bot) guild(guildID string) *discordgo.Guild {
	if bot.session == nil || bot.session.State == nil {
		return nil
	}
	g, err := bot.session.State.Guild(guildID)
	if err != nil {
		return nil
	}
	return g
}
