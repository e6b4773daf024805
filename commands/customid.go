package commands

import (
	"errors"
	"strings"
)

// CustomIDPrefix marks components that belong to the birthday editor.
const CustomIDPrefix = "bday"

// Component actions.
const (
	ActionPrevious = "prev"
	ActionNext     = "next"
	ActionAdd      = "add"
	ActionEdit     = "edit"
	ActionRemove   = "remove"
	ActionSelect   = "select"
	ActionDate     = "date"
	ActionChannel  = "channel"
	ActionRole     = "role"
	ActionTimezone = "tz"
	ActionAddForm  = "addform"
	ActionEditForm = "editform"
)

// ErrForeignCustomID is returned for custom ids this bot did not create.
var ErrForeignCustomID = errors.New("not a birthday editor custom id")

// CustomID addresses one control of one session.
type CustomID struct {
	SessionID string
	Action    string
	UserID    string
}

// String encodes the id as bday:<session>:<action>[:<user>].
func (c CustomID) String() string {
	parts := []string{CustomIDPrefix, c.SessionID, c.Action}
	if c.UserID != "" {
		parts = append(parts, c.UserID)
	}
	return strings.Join(parts, ":")
}

// ParseCustomID decodes an id produced by CustomID.String.
func ParseCustomID(raw string) (CustomID, error) {
	parts := strings.Split(raw, ":")
	if len(parts) < 3 || len(parts) > 4 || parts[0] != CustomIDPrefix {
		return CustomID{}, ErrForeignCustomID
	}
	id := CustomID{SessionID: parts[1], Action: parts[2]}
	if len(parts) == 4 {
		id.UserID = parts[3]
	}
	if id.SessionID == "" || id.Action == "" {
		return CustomID{}, ErrForeignCustomID
	}
	return id, nil
}

func customID(sessionID, action string, userID ...string) string {
	id := CustomID{SessionID: sessionID, Action: action}
	if len(userID) > 0 {
		id.UserID = userID[0]
	}
	return id.String()
}
