package models

import "errors"

// ErrUnknownMember is returned when a user is not a member of the guild.
var ErrUnknownMember = errors.New("unknown member")

// Member is a guild member as seen by the birthday features.
type Member struct {
	UserID      string
	Username    string
	DisplayName string
	Roles       []string
}

// HasRole returns true if the member has the given role.
func (m Member) HasRole(roleID string) bool {
	for _, id := range m.Roles {
		if id == roleID {
			return true
		}
	}
	return false
}

// Mention returns the member mention markup.
func (m Member) Mention() string {
	return "<@" + m.UserID + ">"
}
