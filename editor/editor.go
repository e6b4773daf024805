// Package editor implements the interactive birthday editor: pagination,
// selection, the add/edit forms, removal and the settings pickers. Every
// operation borrows one session for its duration and leaves it rendered,
// or ended if its message is gone.
package editor

import (
	"context"
	"errors"
	"log/slog"
	"time"

	"github.com/Edward-Boguslavsky/Birthday-Bot/dal"
	"github.com/Edward-Boguslavsky/Birthday-Bot/logfields"
	"github.com/Edward-Boguslavsky/Birthday-Bot/metrics"
	"github.com/Edward-Boguslavsky/Birthday-Bot/models"
	"github.com/Edward-Boguslavsky/Birthday-Bot/session"
)

// PageSize is the number of records per page.
const PageSize = 4

// NoneValue is the select option shown when there are no records.
const NoneValue = "none"

// DefaultNotificationTTL is how long a notification stays on screen.
const DefaultNotificationTTL = 7 * time.Second

// timerRenderTimeout bounds renders triggered by timers.
const timerRenderTimeout = 10 * time.Second

// ErrNoSession is returned for events addressed to a session that has ended.
var ErrNoSession = errors.New("session has ended")

// MemberLookup resolves guild members.
type MemberLookup interface {
	Member(ctx context.Context, guildID, userID string) (models.Member, error)
}

// Config wires an Editor.
type Config struct {
	Store           dal.Store
	Registry        *session.Registry
	Members         MemberLookup
	Scope           session.Scope
	NotificationTTL time.Duration
	Metrics         *metrics.Recorder
	// OnChange runs after every persisted birthday change.
	OnChange func()
}

// Editor drives editor sessions.
type Editor struct {
	store           dal.Store
	registry        *session.Registry
	members         MemberLookup
	scope           session.Scope
	notificationTTL time.Duration
	metrics         *metrics.Recorder
	onChange        func()
}

// New returns an editor and installs its expiry handler on the registry.
func New(cfg Config) *Editor {
	e := &Editor{
		store:           cfg.Store,
		registry:        cfg.Registry,
		members:         cfg.Members,
		scope:           cfg.Scope,
		notificationTTL: cfg.NotificationTTL,
		metrics:         cfg.Metrics,
		onChange:        cfg.OnChange,
	}
	if e.scope == "" {
		e.scope = session.ScopeGuild
	}
	if e.notificationTTL <= 0 {
		e.notificationTTL = DefaultNotificationTTL
	}
	e.registry.SetOnExpire(e.expired)
	return e
}

// Open starts a session for ownerID, supersedes whichever session held the
// same scope, and renders the first page.
func (e *Editor) Open(
	ctx context.Context,
	kind session.Kind,
	guildID string,
	ownerID string,
	surface session.Surface,
) (*session.Session, error) {
	s := session.New(kind, guildID, ownerID, surface)
	key := e.scope.Key(guildID, ownerID)

	if previous := e.registry.Start(key, s); previous != nil {
		e.metrics.IncSession(string(previous.Kind), "superseded")
		e.retire(ctx, previous, session.StatusSuperseded)
	}
	e.metrics.IncSession(string(kind), "started")
	e.metrics.SetActiveSessions(e.registry.Len())

	slog.Info("Opened editor",
		logfields.Session(s.ID),
		logfields.Command(string(kind)),
		logfields.Guild(guildID),
		logfields.User(ownerID))

	s.Lock()
	defer s.Unlock()
	if err := e.render(ctx, s); err != nil {
		return s, err
	}
	return s, nil
}

// Session returns the live session with the given id.
func (e *Editor) Session(id string) (*session.Session, error) {
	s := e.registry.Find(id)
	if s == nil {
		return nil, ErrNoSession
	}
	return s, nil
}

// Next shows the following page.
func (e *Editor) Next(ctx context.Context, s *session.Session, surface session.Surface) error {
	return e.do(ctx, s, surface, func(bs models.Birthdays) {
		s.Page = clampPage(s.Page+1, bs)
	})
}

// Previous shows the preceding page.
func (e *Editor) Previous(ctx context.Context, s *session.Session, surface session.Surface) error {
	return e.do(ctx, s, surface, func(bs models.Birthdays) {
		s.Page = clampPage(s.Page-1, bs)
	})
}

// Select marks userID as the record whose edit and delete controls are
// enabled. Selecting NoneValue changes nothing and renders nothing.
func (e *Editor) Select(
	ctx context.Context,
	s *session.Session,
	surface session.Surface,
	userID string,
) error {
	if userID == NoneValue || userID == "" {
		s.Lock()
		defer s.Unlock()
		if s.Ended() {
			return ErrNoSession
		}
		e.registry.Touch(s)
		return nil
	}
	return e.do(ctx, s, surface, func(models.Birthdays) {
		s.SelectedUserID = userID
	})
}

// Reject shows an error notification without changing anything else.
func (e *Editor) Reject(
	ctx context.Context,
	s *session.Session,
	surface session.Surface,
	message string,
) error {
	return e.do(ctx, s, surface, func(models.Birthdays) {
		e.notify(s, session.Failure("%s", message))
	})
}

// Cancel drops a pending form and returns to the list.
func (e *Editor) Cancel(s *session.Session) {
	s.Lock()
	defer s.Unlock()
	s.Mode = session.ModeListing
	s.EditUserID = ""
}

// do runs one event against a live session and re-renders it. Any
// notification from the previous event is dropped first.
func (e *Editor) do(
	ctx context.Context,
	s *session.Session,
	surface session.Surface,
	fn func(models.Birthdays),
) error {
	s.Lock()
	defer s.Unlock()

	if s.Ended() {
		return ErrNoSession
	}
	if surface != nil {
		s.Surface = surface
	}
	e.registry.Touch(s)
	e.registry.CancelClear(s)
	s.Notification = nil
	s.Mode = session.ModeListing
	s.EditUserID = ""

	bs, err := e.store.Birthdays()
	if err != nil {
		slog.Error("Failed to load birthdays", logfields.Session(s.ID), logfields.Error(err))
		return err
	}
	fn(bs)
	return e.render(ctx, s)
}

// notify attaches n and schedules its removal. A pending removal is
// replaced. Callers hold the session lock.
func (e *Editor) notify(s *session.Session, n *session.Notification) {
	s.Notification = n
	s.NotifySeq++
	seq := s.NotifySeq
	e.registry.ScheduleClear(s, e.notificationTTL, func() {
		e.clearNotification(s, seq)
	})
}

func (e *Editor) clearNotification(s *session.Session, seq uint64) {
	ctx, cancel := context.WithTimeout(context.Background(), timerRenderTimeout)
	defer cancel()

	s.Lock()
	defer s.Unlock()
	if s.Ended() || s.NotifySeq != seq || s.Notification == nil {
		return
	}
	s.Notification = nil
	if err := e.render(ctx, s); err != nil {
		slog.Debug("Failed to clear notification", logfields.Session(s.ID), logfields.Error(err))
	}
}

// expired is the registry's expiry callback.
func (e *Editor) expired(s *session.Session) {
	ctx, cancel := context.WithTimeout(context.Background(), timerRenderTimeout)
	defer cancel()

	e.metrics.IncSession(string(s.Kind), "expired")
	e.metrics.SetActiveSessions(e.registry.Len())
	e.retire(ctx, s, session.StatusExpired)
}

// retire replaces an ended session's UI with a status notice. A message that
// no longer exists is fine.
func (e *Editor) retire(ctx context.Context, s *session.Session, status session.Status) {
	s.Lock()
	defer s.Unlock()

	result := s.Render(ctx, session.View{
		SessionID: s.ID,
		Kind:      s.Kind,
		Status:    status,
	})
	if result == session.Failed {
		slog.Warn("Failed to retire session UI", logfields.Session(s.ID))
	}
}

// render draws the session's current state. If the message is gone the
// session ends. Callers hold the session lock.
func (e *Editor) render(ctx context.Context, s *session.Session) error {
	view, err := e.view(ctx, s)
	if err != nil {
		slog.Error("Failed to build editor view", logfields.Session(s.ID), logfields.Error(err))
		return err
	}

	switch s.Render(ctx, view) {
	case session.Gone:
		slog.Info("Editor message is gone, ending session", logfields.Session(s.ID))
		e.registry.EndSession(s)
		e.metrics.IncSession(string(s.Kind), "gone")
		e.metrics.SetActiveSessions(e.registry.Len())
	case session.Failed:
		slog.Warn("Failed to update editor", logfields.Session(s.ID))
	}
	return nil
}

func (e *Editor) view(ctx context.Context, s *session.Session) (session.View, error) {
	bs, err := e.store.Birthdays()
	if err != nil {
		return session.View{}, err
	}
	settings, err := e.store.Settings()
	if err != nil {
		return session.View{}, err
	}

	s.Page = clampPage(s.Page, bs)
	view := session.View{
		SessionID:    s.ID,
		Kind:         s.Kind,
		Status:       session.StatusActive,
		Page:         s.Page,
		PageCount:    bs.PageCount(PageSize),
		Total:        len(bs),
		Notification: s.Notification,
		Settings:     settings,
		Now:          e.registry.Clock().Now(),
		ExpiresAt:    s.ExpiresAt(),
	}

	for _, b := range bs.Page(s.Page, PageSize) {
		entry := e.entry(ctx, s.GuildID, b)
		view.Entries = append(view.Entries, entry)
		if b.UserID == s.SelectedUserID {
			selected := entry
			view.Selected = &selected
		}
	}

	if s.SelectedUserID != "" && view.Selected == nil {
		if b, ok := bs.Find(s.SelectedUserID); ok {
			selected := e.entry(ctx, s.GuildID, b)
			view.Selected = &selected
		} else {
			s.SelectedUserID = ""
		}
	}
	return view, nil
}

func (e *Editor) entry(ctx context.Context, guildID string, b models.Birthday) session.Entry {
	entry := session.Entry{Birthday: b, DisplayName: "Unknown User", Username: b.UserID}
	if e.members == nil {
		return entry
	}
	member, err := e.members.Member(ctx, guildID, b.UserID)
	if err != nil {
		return entry
	}
	entry.DisplayName = member.DisplayName
	entry.Username = member.Username
	entry.Known = true
	return entry
}

func clampPage(page int, bs models.Birthdays) int {
	last := bs.PageCount(PageSize) - 1
	if page > last {
		page = last
	}
	if page < 0 {
		page = 0
	}
	return page
}
