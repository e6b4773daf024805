package models

// DefaultTimezone is used until an admin picks another zone.
const DefaultTimezone = "America/New_York"

// Settings holds the announcement channel, birthday role and timezone.
type Settings struct {
	ChannelID string `json:"channelId"`
	RoleID    string `json:"roleId"`
	Timezone  string `json:"timezone"`
}

// DefaultSettings returns the settings written on first run.
func DefaultSettings() Settings {
	return Settings{Timezone: DefaultTimezone}
}

// Complete returns true once both the channel and the role are configured.
func (s Settings) Complete() bool {
	return s.ChannelID != "" && s.RoleID != ""
}
