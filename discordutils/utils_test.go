package discordutils

import (
	"context"
	"errors"
	"net/http"
	"testing"

	"github.com/bwmarrin/discordgo"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/Edward-Boguslavsky/Birthday-Bot/session"
)

func restError(status, code int) error {
	return &discordgo.RESTError{
		Response: &http.Response{StatusCode: status},
		Message:  &discordgo.APIErrorMessage{Code: code},
	}
}

func TestIsNotFound(t *testing.T) {
	assert.True(t, IsNotFound(restError(http.StatusNotFound, 0)))
	assert.True(t, IsNotFound(restError(http.StatusBadRequest, discordgo.ErrCodeUnknownMember)))
	assert.True(t, IsNotFound(restError(http.StatusUnauthorized, errCodeInvalidWebhookToken)))
	assert.False(t, IsNotFound(restError(http.StatusForbidden, discordgo.ErrCodeMissingAccess)))
	assert.False(t, IsNotFound(errors.New("connection reset")))
	assert.False(t, IsNotFound(nil))
}

func TestDisplayName(t *testing.T) {
	user := &discordgo.User{ID: "1", Username: "eddy", GlobalName: "Eddy B"}

	assert.Equal(t, "Ed", DisplayName(&discordgo.Member{Nick: "Ed", User: user}))
	assert.Equal(t, "Eddy B", DisplayName(&discordgo.Member{User: user}))
	assert.Equal(t, "eddy", DisplayName(&discordgo.Member{User: &discordgo.User{Username: "eddy"}}))

	m := ToMember(&discordgo.Member{User: user, Roles: []string{"r1"}})
	assert.Equal(t, "1", m.UserID)
	assert.Equal(t, "eddy", m.Username)
	assert.True(t, m.HasRole("r1"))
}

func TestMemberHasAdminPermissions(t *testing.T) {
	guild := &discordgo.Guild{
		OwnerID: "owner",
		Roles: []*discordgo.Role{
			{ID: "admin", Permissions: discordgo.PermissionAdministrator},
			{ID: "mod", Permissions: discordgo.PermissionManageMessages},
		},
	}

	tests := []struct {
		name   string
		member *discordgo.Member
		want   bool
	}{
		{"admin role", &discordgo.Member{User: &discordgo.User{ID: "a"}, Roles: []string{"mod", "admin"}}, true},
		{"owner", &discordgo.Member{User: &discordgo.User{ID: "owner"}}, true},
		{"resolved permissions", &discordgo.Member{User: &discordgo.User{ID: "b"}, Permissions: discordgo.PermissionAdministrator}, true},
		{"moderator", &discordgo.Member{User: &discordgo.User{ID: "c"}, Roles: []string{"mod"}}, false},
		{"no member", nil, false},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			assert.Equal(t, tt.want, MemberHasAdminPermissions(guild, tt.member))
		})
	}

	assert.True(t, RoleAllowsAdminPermissions(guild.Roles[0]))
	assert.False(t, RoleAllowsAdminPermissions(guild.Roles[1]))
	assert.False(t, RoleAllowsAdminPermissions(nil))
}

type fakeResponseEditor struct {
	err   error
	edits []*discordgo.WebhookEdit
}

func (f *fakeResponseEditor) InteractionResponseEdit(
	_ *discordgo.Interaction,
	edit *discordgo.WebhookEdit,
	_ ...discordgo.RequestOption,
) (*discordgo.Message, error) {
	f.edits = append(f.edits, edit)
	return &discordgo.Message{}, f.err
}

func TestInteractionSurfaceResults(t *testing.T) {
	render := func(v session.View) *discordgo.WebhookEdit {
		content := v.SessionID
		return &discordgo.WebhookEdit{Content: &content}
	}

	tests := []struct {
		name string
		err  error
		want session.UpdateResult
	}{
		{"updated", nil, session.Updated},
		{"message deleted", restError(http.StatusNotFound, discordgo.ErrCodeUnknownMessage), session.Gone},
		{"rate limited", restError(http.StatusTooManyRequests, 0), session.Failed},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			editor := &fakeResponseEditor{err: tt.err}
			surface := NewInteractionSurface(editor, &discordgo.Interaction{ID: "i"}, render)

			got := surface.Update(context.Background(), session.View{SessionID: "s1"})
			assert.Equal(t, tt.want, got)
			require.Len(t, editor.edits, 1)
			assert.Equal(t, "s1", *editor.edits[0].Content)
		})
	}
}

func TestGuildOwnsRoleFromState(t *testing.T) {
	state := discordgo.NewState()
	require.NoError(t, state.GuildAdd(&discordgo.Guild{
		ID:    "home",
		Roles: []*discordgo.Role{{ID: "everyone"}, {ID: "birthday"}},
	}))
	require.NoError(t, state.GuildAdd(&discordgo.Guild{
		ID:    "other",
		Roles: []*discordgo.Role{{ID: "everyone-other"}},
	}))
	g := NewGuild(&discordgo.Session{State: state}, "")

	owns, err := g.OwnsRole(context.Background(), "home", "birthday")
	require.NoError(t, err)
	assert.True(t, owns)

	owns, err = g.OwnsRole(context.Background(), "other", "birthday")
	require.NoError(t, err)
	assert.False(t, owns)

	assert.ElementsMatch(t, []string{"home", "other"}, g.GuildIDs())
	assert.Equal(t, []string{"home"}, NewGuild(&discordgo.Session{State: state}, "home").GuildIDs())
}
