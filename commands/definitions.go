// Package commands defines the slash commands and turns editor views into
// Discord components.
package commands

import (
	"github.com/bwmarrin/discordgo"

	"github.com/Edward-Boguslavsky/Birthday-Bot/session"
)

// Command names.
const (
	Customize = "customize"
	Settings  = "settings"
)

var manageGuild int64 = discordgo.PermissionManageServer

// Definitions returns the slash commands registered by the bot.
func Definitions() []*discordgo.ApplicationCommand {
	return []*discordgo.ApplicationCommand{
		{
			Name:                     Customize,
			Description:              "Add, edit, or remove users' birthdays",
			DefaultMemberPermissions: &manageGuild,
		},
		{
			Name:                     Settings,
			Description:              "Manage birthday settings",
			DefaultMemberPermissions: &manageGuild,
		},
	}
}

// Kind maps a command name to the editor it opens.
func Kind(name string) (session.Kind, bool) {
	switch name {
	case Customize:
		return session.KindCustomize, true
	case Settings:
		return session.KindSettings, true
	}
	return "", false
}
