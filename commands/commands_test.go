package commands

import (
	"testing"
	"time"

	"github.com/bwmarrin/discordgo"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/Edward-Boguslavsky/Birthday-Bot/editor"
	"github.com/Edward-Boguslavsky/Birthday-Bot/models"
	"github.com/Edward-Boguslavsky/Birthday-Bot/session"
)

const sid = "3f1c9a52-8f0e-4c1e-9d3b-6c1f2a7d9e10"

func TestCustomIDRoundTrip(t *testing.T) {
	id := CustomID{SessionID: sid, Action: ActionRemove, UserID: "300770582826450955"}
	raw := id.String()
	assert.Equal(t, "bday:"+sid+":remove:300770582826450955", raw)
	assert.LessOrEqual(t, len(raw), 100)

	parsed, err := ParseCustomID(raw)
	require.NoError(t, err)
	assert.Equal(t, id, parsed)

	parsed, err = ParseCustomID(customID(sid, ActionNext))
	require.NoError(t, err)
	assert.Equal(t, CustomID{SessionID: sid, Action: ActionNext}, parsed)
}

func TestParseCustomIDRejectsForeignIDs(t *testing.T) {
	for _, raw := range []string{"", "next", "birthday_btn_add", "bday::next", "bday:x", "bday:x:y:z:w", "other:x:next"} {
		_, err := ParseCustomID(raw)
		assert.ErrorIs(t, err, ErrForeignCustomID, raw)
	}
}

func TestDefinitions(t *testing.T) {
	defs := Definitions()
	require.Len(t, defs, 2)
	for _, d := range defs {
		kind, ok := Kind(d.Name)
		assert.True(t, ok)
		assert.NotEmpty(t, kind)
		require.NotNil(t, d.DefaultMemberPermissions)
		assert.Equal(t, int64(discordgo.PermissionManageServer), *d.DefaultMemberPermissions)
	}
	_, ok := Kind("meatball")
	assert.False(t, ok)
}

func entry(userID, name string, month, day int) session.Entry {
	return session.Entry{
		Birthday:    models.Birthday{UserID: userID, Month: month, Day: day},
		DisplayName: name,
		Username:    name,
		Known:       true,
	}
}

func buttons(t *testing.T, row discordgo.MessageComponent) []discordgo.Button {
	t.Helper()
	r, ok := row.(discordgo.ActionsRow)
	require.True(t, ok)
	var out []discordgo.Button
	for _, c := range r.Components {
		if b, ok := c.(discordgo.Button); ok {
			out = append(out, b)
		}
	}
	return out
}

func TestRenderCustomize(t *testing.T) {
	now := time.Date(2025, 6, 15, 12, 0, 0, 0, time.UTC)
	v := session.View{
		SessionID: sid,
		Kind:      session.KindCustomize,
		Page:      0,
		PageCount: 2,
		Total:     5,
		Entries: []session.Entry{
			entry("100000000000000001", "Alice", 1, 5),
			entry("100000000000000002", "Bob", 2, 20),
		},
		Notification: session.Success("Birthday successfully added"),
		Now:          now,
		ExpiresAt:    now.Add(10 * time.Minute),
	}

	edit := Render(v)
	require.NotNil(t, edit.Content)
	assert.Contains(t, *edit.Content, "Page 1 of 2")
	assert.Contains(t, *edit.Content, "10 minutes from now")

	rows := *edit.Components
	require.Len(t, rows, 3)

	first := buttons(t, rows[0])
	require.Len(t, first, 3)
	assert.Equal(t, customID(sid, ActionRemove, "100000000000000001"), first[0].CustomID)
	assert.Equal(t, "1/5", first[1].Label)
	assert.True(t, first[1].Disabled)
	assert.Equal(t, "Alice", first[2].Label)
	assert.Equal(t, customID(sid, ActionEdit, "100000000000000001"), first[2].CustomID)

	controls := buttons(t, rows[2])
	require.Len(t, controls, 3)
	assert.True(t, controls[1].Disabled, "previous disabled on first page")
	assert.False(t, controls[2].Disabled, "next enabled")

	embeds := *edit.Embeds
	require.Len(t, embeds, 1)
	assert.Equal(t, ColorSuccess, embeds[0].Color)
	assert.Equal(t, "Birthday successfully added", embeds[0].Title)
}

func TestRenderSettings(t *testing.T) {
	alice := entry("100000000000000001", "Alice", 6, 15)
	v := session.View{
		SessionID:    sid,
		Kind:         session.KindSettings,
		PageCount:    1,
		Entries:      []session.Entry{alice},
		Selected:     &alice,
		Notification: session.Failure("Invalid user ID! Birthday was not added"),
		Settings:     models.Settings{ChannelID: "c1", Timezone: "Asia/Tokyo"},
	}

	edit := Render(v)
	rows := *edit.Components
	require.Len(t, rows, 5)

	tz := rows[2].(discordgo.ActionsRow).Components[0].(discordgo.SelectMenu)
	assert.Len(t, tz.Options, len(models.Timezones))
	var defaults []string
	for _, o := range tz.Options {
		if o.Default {
			defaults = append(defaults, o.Value)
		}
	}
	assert.Equal(t, []string{"Asia/Tokyo"}, defaults)

	records := rows[3].(discordgo.ActionsRow).Components[0].(discordgo.SelectMenu)
	require.Len(t, records.Options, 1)
	assert.Equal(t, "June 15", records.Options[0].Description)
	assert.True(t, records.Options[0].Default)

	actions := buttons(t, rows[4])
	require.Len(t, actions, 5)
	assert.False(t, actions[1].Disabled)
	assert.Equal(t, customID(sid, ActionEdit, alice.UserID), actions[1].CustomID)
	assert.Equal(t, customID(sid, ActionRemove, alice.UserID), actions[2].CustomID)

	embeds := *edit.Embeds
	require.Len(t, embeds, 3)
	assert.Equal(t, ColorError, embeds[0].Color)
	assert.Equal(t, "<#c1>", embeds[1].Fields[0].Value)
	assert.Equal(t, "Not set", embeds[1].Fields[1].Value)
	require.Len(t, embeds[2].Fields, 1)
	assert.Contains(t, embeds[2].Fields[0].Value, "June 15th")
}

func TestRenderSettingsWithoutRecords(t *testing.T) {
	edit := Render(session.View{SessionID: sid, Kind: session.KindSettings, PageCount: 1})
	rows := *edit.Components

	records := rows[3].(discordgo.ActionsRow).Components[0].(discordgo.SelectMenu)
	require.Len(t, records.Options, 1)
	assert.Equal(t, editor.NoneValue, records.Options[0].Value)
	assert.Equal(t, "No birthdays found", records.Options[0].Label)

	actions := buttons(t, rows[4])
	assert.True(t, actions[1].Disabled)
	assert.True(t, actions[2].Disabled)
	assert.True(t, actions[3].Disabled)
	assert.True(t, actions[4].Disabled)
}

func TestRenderRetiredSessions(t *testing.T) {
	expired := Render(session.View{Kind: session.KindCustomize, Status: session.StatusExpired})
	assert.Equal(t, "The previous session expired. Please use the /customize command again.", *expired.Content)
	assert.Empty(t, *expired.Components)

	superseded := Render(session.View{Kind: session.KindSettings, Status: session.StatusSuperseded})
	assert.Empty(t, *superseded.Components)
	require.Len(t, *superseded.Embeds, 1)
	assert.Equal(t, ColorWarning, (*superseded.Embeds)[0].Color)
	assert.Contains(t, (*superseded.Embeds)[0].Title, "settings menu")
}

func TestModals(t *testing.T) {
	add := Modal(sid, editor.Form{Mode: session.ModeAdd})
	assert.Equal(t, discordgo.InteractionResponseModal, add.Type)
	assert.Equal(t, "Add Birthday", add.Data.Title)
	assert.Len(t, add.Data.Components, 3)

	edit := Modal(sid, editor.Form{Mode: session.ModeEdit, UserID: "100000000000000001", Month: "6", Day: "15"})
	assert.Equal(t, "Edit Birthday", edit.Data.Title)
	require.Len(t, edit.Data.Components, 2)
	month := edit.Data.Components[0].(discordgo.ActionsRow).Components[0].(discordgo.TextInput)
	assert.Equal(t, "6", month.Value)

	id, err := ParseCustomID(edit.Data.CustomID)
	require.NoError(t, err)
	assert.Equal(t, ActionEditForm, id.Action)
}

func TestParseModal(t *testing.T) {
	data := discordgo.ModalSubmitInteractionData{
		CustomID: customID(sid, ActionAddForm),
		Components: []discordgo.MessageComponent{
			&discordgo.ActionsRow{Components: []discordgo.MessageComponent{
				&discordgo.TextInput{CustomID: InputUserID, Value: "100000000000000001"},
			}},
			&discordgo.ActionsRow{Components: []discordgo.MessageComponent{
				&discordgo.TextInput{CustomID: InputMonth, Value: "6"},
			}},
			&discordgo.ActionsRow{Components: []discordgo.MessageComponent{
				&discordgo.TextInput{CustomID: InputDay, Value: "15"},
			}},
		},
	}

	id, err := ParseCustomID(data.CustomID)
	require.NoError(t, err)
	form := ParseModal(id, data)
	assert.Equal(t, editor.Form{Mode: session.ModeAdd, UserID: "100000000000000001", Month: "6", Day: "15"}, form)

	editID := CustomID{SessionID: sid, Action: ActionEditForm, UserID: "100000000000000002"}
	form = ParseModal(editID, data)
	assert.Equal(t, session.ModeEdit, form.Mode)
	assert.Equal(t, "100000000000000002", form.UserID)
}
