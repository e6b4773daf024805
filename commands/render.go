package commands

import (
	"fmt"
	"strings"

	"github.com/bwmarrin/discordgo"
	"github.com/dustin/go-humanize"

	"github.com/Edward-Boguslavsky/Birthday-Bot/editor"
	"github.com/Edward-Boguslavsky/Birthday-Bot/models"
	"github.com/Edward-Boguslavsky/Birthday-Bot/session"
)

// Embed colours.
const (
	ColorSuccess = 0x00863A
	ColorError   = 0xD22D39
	ColorWarning = 0xFEE75C
	ColorInfo    = 0x5865F2
)

// Render draws a view as an edit of the editor message.
func Render(v session.View) *discordgo.WebhookEdit {
	switch v.Status {
	case session.StatusExpired:
		return notice(fmt.Sprintf(
			"The previous session expired. Please use the /%s command again.", commandName(v.Kind)))
	case session.StatusSuperseded:
		return noticeEmbed(&discordgo.MessageEmbed{
			Color: ColorWarning,
			Title: fmt.Sprintf(
				"Another user opened the %s menu! You can only have one session at a time", commandName(v.Kind)),
		})
	}

	if v.Kind == session.KindSettings {
		return renderSettings(v)
	}
	return renderCustomize(v)
}

func commandName(kind session.Kind) string {
	if kind == session.KindSettings {
		return Settings
	}
	return Customize
}

func notice(content string) *discordgo.WebhookEdit {
	return &discordgo.WebhookEdit{
		Content:    &content,
		Components: &[]discordgo.MessageComponent{},
		Embeds:     &[]*discordgo.MessageEmbed{},
	}
}

func noticeEmbed(embed *discordgo.MessageEmbed) *discordgo.WebhookEdit {
	content := ""
	return &discordgo.WebhookEdit{
		Content:    &content,
		Components: &[]discordgo.MessageComponent{},
		Embeds:     &[]*discordgo.MessageEmbed{embed},
	}
}

func notificationEmbed(n *session.Notification) *discordgo.MessageEmbed {
	if n == nil {
		return nil
	}
	color := ColorSuccess
	if n.Kind == session.NotifyError {
		color = ColorError
	}
	return &discordgo.MessageEmbed{Color: color, Title: n.Message}
}

func footer(v session.View) string {
	page := fmt.Sprintf("Page %d of %d", v.Page+1, v.PageCount)
	if v.ExpiresAt.IsZero() {
		return page
	}
	return page + " · Expires " + humanize.RelTime(v.ExpiresAt, v.Now, "ago", "from now")
}

func renderCustomize(v session.View) *discordgo.WebhookEdit {
	content := "## Add, edit, or remove users' birthdays\n\n-# " + footer(v)

	var rows []discordgo.MessageComponent
	for _, e := range v.Entries {
		rows = append(rows, discordgo.ActionsRow{
			Components: []discordgo.MessageComponent{
				discordgo.Button{
					CustomID: customID(v.SessionID, ActionRemove, e.UserID),
					Label:    "✖",
					Style:    discordgo.DangerButton,
				},
				discordgo.Button{
					CustomID: customID(v.SessionID, ActionDate, e.UserID),
					Label:    fmt.Sprintf("%d/%d", e.Month, e.Day),
					Style:    discordgo.SecondaryButton,
					Disabled: true,
				},
				discordgo.Button{
					CustomID: customID(v.SessionID, ActionEdit, e.UserID),
					Label:    truncate(e.DisplayName, 80),
					Style:    discordgo.PrimaryButton,
				},
			},
		})
	}
	rows = append(rows, discordgo.ActionsRow{
		Components: []discordgo.MessageComponent{
			discordgo.Button{
				CustomID: customID(v.SessionID, ActionAdd),
				Label:    "✚",
				Style:    discordgo.SuccessButton,
			},
			previousButton(v),
			nextButton(v),
		},
	})

	embeds := []*discordgo.MessageEmbed{}
	if n := notificationEmbed(v.Notification); n != nil {
		embeds = append(embeds, n)
	}

	return &discordgo.WebhookEdit{
		Content:    &content,
		Components: &rows,
		Embeds:     &embeds,
	}
}

func previousButton(v session.View) discordgo.Button {
	return discordgo.Button{
		CustomID: customID(v.SessionID, ActionPrevious),
		Label:    "<",
		Style:    discordgo.SecondaryButton,
		Disabled: !v.HasPrevious(),
	}
}

func nextButton(v session.View) discordgo.Button {
	return discordgo.Button{
		CustomID: customID(v.SessionID, ActionNext),
		Label:    ">",
		Style:    discordgo.SecondaryButton,
		Disabled: !v.HasNext(),
	}
}

func renderSettings(v session.View) *discordgo.WebhookEdit {
	content := ""

	var embeds []*discordgo.MessageEmbed
	if n := notificationEmbed(v.Notification); n != nil {
		embeds = append(embeds, n)
	}
	embeds = append(embeds, settingsEmbed(v.Settings), birthdaysEmbed(v))

	rows := []discordgo.MessageComponent{
		discordgo.ActionsRow{Components: []discordgo.MessageComponent{
			discordgo.SelectMenu{
				MenuType:     discordgo.ChannelSelectMenu,
				CustomID:     customID(v.SessionID, ActionChannel),
				Placeholder:  "Select announcement channel",
				ChannelTypes: []discordgo.ChannelType{discordgo.ChannelTypeGuildText},
				MaxValues:    1,
			},
		}},
		discordgo.ActionsRow{Components: []discordgo.MessageComponent{
			discordgo.SelectMenu{
				MenuType:    discordgo.RoleSelectMenu,
				CustomID:    customID(v.SessionID, ActionRole),
				Placeholder: "Select birthday role",
				MaxValues:   1,
			},
		}},
		discordgo.ActionsRow{Components: []discordgo.MessageComponent{
			discordgo.SelectMenu{
				MenuType:    discordgo.StringSelectMenu,
				CustomID:    customID(v.SessionID, ActionTimezone),
				Placeholder: "Select Server Timezone",
				Options:     timezoneOptions(v.Settings.Timezone),
			},
		}},
		discordgo.ActionsRow{Components: []discordgo.MessageComponent{
			discordgo.SelectMenu{
				MenuType:    discordgo.StringSelectMenu,
				CustomID:    customID(v.SessionID, ActionSelect),
				Placeholder: "Select a user",
				Options:     recordOptions(v),
			},
		}},
		discordgo.ActionsRow{Components: recordButtons(v)},
	}

	return &discordgo.WebhookEdit{
		Content:    &content,
		Components: &rows,
		Embeds:     &embeds,
	}
}

func settingsEmbed(s models.Settings) *discordgo.MessageEmbed {
	channel := "Not set"
	if s.ChannelID != "" {
		channel = "<#" + s.ChannelID + ">"
	}
	role := "Not set"
	if s.RoleID != "" {
		role = "<@&" + s.RoleID + ">"
	}
	return &discordgo.MessageEmbed{
		Color:       ColorInfo,
		Title:       "Settings",
		Description: "Select the announcement channel, birthday role, and server timezone below",
		Fields: []*discordgo.MessageEmbedField{
			{Name: "Channel", Value: channel, Inline: true},
			{Name: "Role", Value: role, Inline: true},
			{Name: "Timezone", Value: strings.ReplaceAll(s.Timezone, "_", " "), Inline: true},
		},
	}
}

func birthdaysEmbed(v session.View) *discordgo.MessageEmbed {
	embed := &discordgo.MessageEmbed{
		Color:       ColorInfo,
		Title:       "Birthdays",
		Description: "Add a new birthday or select an existing birthday below to edit",
		Footer:      &discordgo.MessageEmbedFooter{Text: footer(v)},
	}
	if e := v.Selected; e != nil {
		embed.Fields = append(embed.Fields, &discordgo.MessageEmbedField{
			Name:  e.DisplayName,
			Value: fmt.Sprintf("%s\n%s\n-# %s", e.Ordinal(), e.Username, e.UserID),
		})
	}
	return embed
}

func timezoneOptions(current string) []discordgo.SelectMenuOption {
	options := make([]discordgo.SelectMenuOption, 0, len(models.Timezones))
	for _, tz := range models.Timezones {
		options = append(options, discordgo.SelectMenuOption{
			Label:       tz.Label(),
			Value:       tz.Name,
			Description: tz.Description,
			Default:     tz.Name == current,
		})
	}
	return options
}

func recordOptions(v session.View) []discordgo.SelectMenuOption {
	if len(v.Entries) == 0 {
		return []discordgo.SelectMenuOption{{Label: "No birthdays found", Value: editor.NoneValue}}
	}
	options := make([]discordgo.SelectMenuOption, 0, len(v.Entries))
	for _, e := range v.Entries {
		options = append(options, discordgo.SelectMenuOption{
			Label:       truncate(e.DisplayName, 100),
			Value:       e.UserID,
			Description: e.String(),
			Default:     v.Selected != nil && v.Selected.UserID == e.UserID,
		})
	}
	return options
}

func recordButtons(v session.View) []discordgo.MessageComponent {
	selected := ""
	if v.Selected != nil {
		selected = v.Selected.UserID
	}
	edit := discordgo.Button{Label: "Edit", Style: discordgo.SecondaryButton, Disabled: selected == ""}
	remove := discordgo.Button{Label: "Delete", Style: discordgo.DangerButton, Disabled: selected == ""}
	if selected != "" {
		edit.CustomID = customID(v.SessionID, ActionEdit, selected)
		remove.CustomID = customID(v.SessionID, ActionRemove, selected)
	} else {
		edit.CustomID = customID(v.SessionID, ActionEdit)
		remove.CustomID = customID(v.SessionID, ActionRemove)
	}

	return []discordgo.MessageComponent{
		discordgo.Button{
			CustomID: customID(v.SessionID, ActionAdd),
			Label:    "Add",
			Style:    discordgo.SuccessButton,
		},
		edit,
		remove,
		previousButton(v),
		nextButton(v),
	}
}

func truncate(s string, n int) string {
	r := []rune(s)
	if len(r) <= n {
		return s
	}
	return string(r[:n-1]) + "…"
}
