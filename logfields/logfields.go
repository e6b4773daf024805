// Package logfields keeps slog attribute names consistent across packages.
package logfields

import "log/slog"

const (
	KeyGuild    = "guild_id"
	KeyUser     = "user_id"
	KeyRole     = "role_id"
	KeyChannel  = "channel_id"
	KeySession  = "session_id"
	KeyScope    = "scope"
	KeyCommand  = "command"
	KeyCustomID = "custom_id"
	KeyPath     = "path"
	KeyTimezone = "timezone"
	KeyError    = "error"
)

func Guild(id string) slog.Attr       { return slog.String(KeyGuild, id) }
func User(id string) slog.Attr        { return slog.String(KeyUser, id) }
func Role(id string) slog.Attr        { return slog.String(KeyRole, id) }
func Channel(id string) slog.Attr     { return slog.String(KeyChannel, id) }
func Session(id string) slog.Attr     { return slog.String(KeySession, id) }
func Scope(key string) slog.Attr      { return slog.String(KeyScope, key) }
func Command(name string) slog.Attr   { return slog.String(KeyCommand, name) }
func CustomID(id string) slog.Attr    { return slog.String(KeyCustomID, id) }
func Path(p string) slog.Attr         { return slog.String(KeyPath, p) }
func Timezone(tz string) slog.Attr    { return slog.String(KeyTimezone, tz) }
func Error(err error) slog.Attr {
	if err == nil {
		return slog.String(KeyError, "")
	}
	return slog.String(KeyError, err.Error())
}
