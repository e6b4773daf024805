// Package session tracks the live interactive editor sessions.
package session

import (
	"context"
	"fmt"
	"sync"
	"time"

	"github.com/Edward-Boguslavsky/Birthday-Bot/models"
	"github.com/google/uuid"
	"github.com/jonboulle/clockwork"
)

// Kind identifies which command opened a session.
type Kind string

const (
	KindCustomize Kind = "customize"
	KindSettings  Kind = "settings"
)

// Mode is the editor state within a session.
type Mode int

const (
	// ModeListing shows the paginated list.
	ModeListing Mode = iota
	// ModeAdd waits for the add form to be submitted.
	ModeAdd
	// ModeEdit waits for the edit form of EditUserID to be submitted.
	ModeEdit
)

func (m Mode) String() string {
	switch m {
	case ModeAdd:
		return "add"
	case ModeEdit:
		return "edit"
	default:
		return "listing"
	}
}

// Scope decides which sessions exclude each other.
type Scope string

const (
	// ScopeGuild allows one session per guild, whoever opened it.
	ScopeGuild Scope = "guild"
	// ScopeUser allows one session per user per guild.
	ScopeUser Scope = "user"
)

// ParseScope validates a configured scope name.
func ParseScope(s string) (Scope, error) {
	switch Scope(s) {
	case ScopeGuild, ScopeUser:
		return Scope(s), nil
	case "":
		return ScopeGuild, nil
	}
	return "", fmt.Errorf("unknown session scope %q", s)
}

// Key is the registry key under which exclusivity is enforced.
type Key string

// Key returns the registry key for a session opened by userID in guildID.
func (sc Scope) Key(guildID, userID string) Key {
	if sc == ScopeUser {
		return Key("user:" + guildID + ":" + userID)
	}
	return Key("guild:" + guildID)
}

// Session is one live editor UI. Editor state fields are guarded by Lock and
// Unlock, which the editor holds for the whole of one event. Timers belong to
// the registry and are guarded separately.
type Session struct {
	ID      string
	Kind    Kind
	GuildID string
	OwnerID string
	Key     Key

	mu             sync.Mutex
	Page           int
	SelectedUserID string
	Mode           Mode
	EditUserID     string
	Notification   *Notification
	NotifySeq      uint64
	Surface        Surface

	timerMu   sync.Mutex
	ended     bool
	expiresAt time.Time
	expiryGen uint64
	expiry    clockwork.Timer
	clear     clockwork.Timer
}

// New returns a session in the listing state rendering to surface.
func New(kind Kind, guildID, ownerID string, surface Surface) *Session {
	return &Session{
		ID:      uuid.NewString(),
		Kind:    kind,
		GuildID: guildID,
		OwnerID: ownerID,
		Surface: surface,
	}
}

// Lock acquires the session for one event.
func (s *Session) Lock() { s.mu.Lock() }

// Unlock releases the session.
func (s *Session) Unlock() { s.mu.Unlock() }

// Ended reports whether the session was expired, superseded or ended.
func (s *Session) Ended() bool {
	s.timerMu.Lock()
	defer s.timerMu.Unlock()
	return s.ended
}

// ExpiresAt returns when the inactivity timer fires.
func (s *Session) ExpiresAt() time.Time {
	s.timerMu.Lock()
	defer s.timerMu.Unlock()
	return s.expiresAt
}

// Render pushes v to the session's surface.
func (s *Session) Render(ctx context.Context, v View) UpdateResult {
	if s.Surface == nil {
		return Gone
	}
	return s.Surface.Update(ctx, v)
}

// end marks the session dead and stops its timers. Callers hold timerMu.
func (s *Session) end() bool {
	if s.ended {
		return false
	}
	s.ended = true
	s.expiryGen++
	if s.expiry != nil {
		s.expiry.Stop()
		s.expiry = nil
	}
	if s.clear != nil {
		s.clear.Stop()
		s.clear = nil
	}
	return true
}

// Notification is a transient message shown above the editor.
type Notification struct {
	Message string
	Kind    NotificationKind
}

// NotificationKind selects the notification style.
type NotificationKind string

const (
	NotifySuccess NotificationKind = "success"
	NotifyError   NotificationKind = "error"
)

// Success returns a success notification.
func Success(format string, args ...any) *Notification {
	return &Notification{Message: fmt.Sprintf(format, args...), Kind: NotifySuccess}
}

// Failure returns an error notification.
func Failure(format string, args ...any) *Notification {
	return &Notification{Message: fmt.Sprintf(format, args...), Kind: NotifyError}
}

// UpdateResult is the outcome of a surface update.
type UpdateResult int

const (
	// Updated means the message now shows the view.
	Updated UpdateResult = iota
	// Gone means the message or interaction no longer exists.
	Gone
	// Failed means the update failed for another reason.
	Failed
)

func (r UpdateResult) String() string {
	switch r {
	case Updated:
		return "updated"
	case Gone:
		return "gone"
	default:
		return "failed"
	}
}

// Surface is where a session renders. Implementations never panic on a
// vanished message; they report Gone.
type Surface interface {
	Update(ctx context.Context, v View) UpdateResult
}

// Status describes whether a view belongs to a live session.
type Status int

const (
	StatusActive Status = iota
	StatusExpired
	StatusSuperseded
)

// View is everything needed to draw one editor screen.
type View struct {
	SessionID    string
	Kind         Kind
	Status       Status
	Page         int
	PageCount    int
	Total        int
	Entries      []Entry
	Selected     *Entry
	Notification *Notification
	Settings     models.Settings
	Now          time.Time
	ExpiresAt    time.Time
}

// HasPrevious reports whether the previous page button is enabled.
func (v View) HasPrevious() bool { return v.Page > 0 }

// HasNext reports whether the next page button is enabled.
func (v View) HasNext() bool { return v.Page < v.PageCount-1 }

// Entry is one record decorated with the member's names.
type Entry struct {
	models.Birthday
	DisplayName string
	Username    string
	Known       bool
}
