package discordutils

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"net/http"

	"github.com/bwmarrin/discordgo"

	"github.com/Edward-Boguslavsky/Birthday-Bot/logfields"
	"github.com/Edward-Boguslavsky/Birthday-Bot/models"
)

// MemberHasAdminPermissions returns true if the given member has admin permissions.
func MemberHasAdminPermissions(guild *discordgo.Guild, member *discordgo.Member) bool {
	if member == nil {
		return false
	}
	if member.Permissions&discordgo.PermissionAdministrator != 0 {
		return true
	}
	if guild == nil {
		return false
	}
	if member.User != nil && guild.OwnerID == member.User.ID {
		return true
	}

	guildRoles := make(map[string]*discordgo.Role)
	for _, role := range guild.Roles {
		guildRoles[role.ID] = role
	}

	for _, roleID := range member.Roles {
		if role, ok := guildRoles[roleID]; ok {
			if RoleAllowsAdminPermissions(role) {
				return true
			}
		}
	}

	return false
}

// RoleAllowsAdminPermissions returns true if the given role allows admin permissions.
func RoleAllowsAdminPermissions(role *discordgo.Role) bool {
	return role != nil && role.Permissions&discordgo.PermissionAdministrator > 0
}

const (
	errCodeUnknownInteraction  = 10062
	errCodeInvalidWebhookToken = 50027
)

// IsNotFound reports whether err is a Discord 404, or one of the "unknown
// entity" and expired webhook token codes the API uses for things that are
// gone.
func IsNotFound(err error) bool {
	var restErr *discordgo.RESTError
	if !errors.As(err, &restErr) {
		return false
	}
	if restErr.Response != nil && restErr.Response.StatusCode == http.StatusNotFound {
		return true
	}
	if restErr.Message != nil {
		switch restErr.Message.Code {
		case discordgo.ErrCodeUnknownMember,
			discordgo.ErrCodeUnknownUser,
			discordgo.ErrCodeUnknownMessage,
			discordgo.ErrCodeUnknownWebhook,
			errCodeUnknownInteraction,
			errCodeInvalidWebhookToken:
			return true
		}
	}
	return false
}

// DisplayName returns the member's nickname, falling back to the global name
// and then the username.
func DisplayName(member *discordgo.Member) string {
	if member.Nick != "" {
		return member.Nick
	}
	if member.User == nil {
		return ""
	}
	if member.User.GlobalName != "" {
		return member.User.GlobalName
	}
	return member.User.Username
}

// ToMember converts a discordgo member.
func ToMember(member *discordgo.Member) models.Member {
	m := models.Member{
		DisplayName: DisplayName(member),
		Roles:       append([]string(nil), member.Roles...),
	}
	if member.User != nil {
		m.UserID = member.User.ID
		m.Username = member.User.Username
	}
	return m
}

// Guild resolves members and mutates roles through a discordgo session.
type Guild struct {
	session *discordgo.Session
	guildID string
}

// NewGuild returns a Guild. If guildID is set only that guild is swept;
// otherwise every guild in the session state is.
func NewGuild(session *discordgo.Session, guildID string) *Guild {
	return &Guild{session: session, guildID: guildID}
}

// GuildIDs lists the guilds to sweep.
func (g *Guild) GuildIDs() []string {
	if g.guildID != "" {
		return []string{g.guildID}
	}

	g.session.State.RLock()
	defer g.session.State.RUnlock()

	ids := make([]string, 0, len(g.session.State.Guilds))
	for _, guild := range g.session.State.Guilds {
		ids = append(ids, guild.ID)
	}
	return ids
}

// OwnsRole reports whether roleID belongs to guildID. The gateway state is
// consulted first and the API only when the guild is not cached.
func (g *Guild) OwnsRole(ctx context.Context, guildID, roleID string) (bool, error) {
	if roles, ok := g.stateRoles(guildID); ok {
		return containsRole(roles, roleID), nil
	}

	roles, err := g.session.GuildRoles(guildID, discordgo.WithContext(ctx))
	if err != nil {
		return false, fmt.Errorf("failed to fetch roles for guild %v: %w", guildID, err)
	}
	return containsRole(roles, roleID), nil
}

func (g *Guild) stateRoles(guildID string) ([]*discordgo.Role, bool) {
	if g.session.State == nil {
		return nil, false
	}

	g.session.State.RLock()
	defer g.session.State.RUnlock()

	for _, guild := range g.session.State.Guilds {
		if guild.ID == guildID {
			return append([]*discordgo.Role(nil), guild.Roles...), true
		}
	}
	return nil, false
}

func containsRole(roles []*discordgo.Role, roleID string) bool {
	for _, role := range roles {
		if role != nil && role.ID == roleID {
			return true
		}
	}
	return false
}

// Member fetches a guild member from the API. Members that are not in the
// guild are reported as models.ErrUnknownMember.
func (g *Guild) Member(ctx context.Context, guildID, userID string) (models.Member, error) {
	member, err := g.session.GuildMember(guildID, userID, discordgo.WithContext(ctx))
	if err != nil {
		if IsNotFound(err) {
			return models.Member{}, fmt.Errorf("%w: %s", models.ErrUnknownMember, userID)
		}
		return models.Member{}, fmt.Errorf("failed to fetch member %v: %w", userID, err)
	}
	return ToMember(member), nil
}

// AddRole grants roleID to userID.
func (g *Guild) AddRole(ctx context.Context, guildID, userID, roleID string) error {
	return g.session.GuildMemberRoleAdd(guildID, userID, roleID, discordgo.WithContext(ctx))
}

// RemoveRole revokes roleID from userID.
func (g *Guild) RemoveRole(ctx context.Context, guildID, userID, roleID string) error {
	return g.session.GuildMemberRoleRemove(guildID, userID, roleID, discordgo.WithContext(ctx))
}

// Announce posts content to channelID.
func (g *Guild) Announce(ctx context.Context, channelID, content string) error {
	_, err := g.session.ChannelMessageSend(channelID, content, discordgo.WithContext(ctx))
	return err
}

// Responder is the part of a discordgo session that answers interactions.
type Responder interface {
	ResponseEditor
	InteractionRespond(
		interaction *discordgo.Interaction,
		resp *discordgo.InteractionResponse,
		options ...discordgo.RequestOption,
	) error
	FollowupMessageCreate(
		interaction *discordgo.Interaction,
		wait bool,
		data *discordgo.WebhookParams,
		options ...discordgo.RequestOption,
	) (*discordgo.Message, error)
}

// AckUpdate acknowledges a component interaction without changing its
// message; the message is edited afterwards.
func AckUpdate(session Responder, interaction *discordgo.Interaction) error {
	return session.InteractionRespond(interaction, &discordgo.InteractionResponse{
		Type: discordgo.InteractionResponseDeferredMessageUpdate,
	})
}

// AckEphemeral defers an ephemeral reply to a slash command.
func AckEphemeral(session Responder, interaction *discordgo.Interaction) error {
	return session.InteractionRespond(interaction, &discordgo.InteractionResponse{
		Type: discordgo.InteractionResponseDeferredChannelMessageWithSource,
		Data: &discordgo.InteractionResponseData{Flags: discordgo.MessageFlagsEphemeral},
	})
}

// ReplyEphemeral answers an interaction with a message only its author sees.
// If the interaction was already acknowledged a followup is sent instead.
func ReplyEphemeral(session Responder, interaction *discordgo.Interaction, content string) {
	err := session.InteractionRespond(interaction, &discordgo.InteractionResponse{
		Type: discordgo.InteractionResponseChannelMessageWithSource,
		Data: &discordgo.InteractionResponseData{
			Content: content,
			Flags:   discordgo.MessageFlagsEphemeral,
		},
	})
	if err == nil {
		return
	}

	_, err = session.FollowupMessageCreate(interaction, true, &discordgo.WebhookParams{
		Content: content,
		Flags:   discordgo.MessageFlagsEphemeral,
	})
	if err != nil {
		slog.Debug("Failed to reply to interaction",
			logfields.Guild(interaction.GuildID),
			logfields.Error(err))
	}
}
