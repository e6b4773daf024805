package editor

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"regexp"
	"strconv"
	"strings"
	"time"

	"github.com/Edward-Boguslavsky/Birthday-Bot/logfields"
	"github.com/Edward-Boguslavsky/Birthday-Bot/metrics"
	"github.com/Edward-Boguslavsky/Birthday-Bot/models"
	"github.com/Edward-Boguslavsky/Birthday-Bot/session"
)

var userIDPattern = regexp.MustCompile(`^\d{17,20}$`)

var errDuplicate = errors.New("birthday already exists")

// ErrUnknownRecord is returned when an event names a record that was removed.
var ErrUnknownRecord = errors.New("birthday does not exist")

// Form is the content of an add or edit form. For BeginEdit it carries the
// current values used to prefill the form.
type Form struct {
	Mode   session.Mode
	UserID string
	Month  string
	Day    string
}

// BeginAdd moves the session to the add form.
func (e *Editor) BeginAdd(s *session.Session) (Form, error) {
	s.Lock()
	defer s.Unlock()

	if s.Ended() {
		return Form{}, ErrNoSession
	}
	e.registry.Touch(s)
	s.Mode = session.ModeAdd
	s.EditUserID = ""
	return Form{Mode: session.ModeAdd}, nil
}

// BeginEdit moves the session to the edit form for userID and returns the
// form prefilled with the stored date.
func (e *Editor) BeginEdit(s *session.Session, userID string) (Form, error) {
	s.Lock()
	defer s.Unlock()

	if s.Ended() {
		return Form{}, ErrNoSession
	}
	e.registry.Touch(s)

	bs, err := e.store.Birthdays()
	if err != nil {
		return Form{}, err
	}
	b, ok := bs.Find(userID)
	if !ok {
		return Form{}, ErrUnknownRecord
	}

	s.Mode = session.ModeEdit
	s.EditUserID = userID
	return Form{
		Mode:   session.ModeEdit,
		UserID: userID,
		Month:  strconv.Itoa(b.Month),
		Day:    strconv.Itoa(b.Day),
	}, nil
}

// Remove deletes userID's record. If the current page is left empty the
// editor steps back one page.
func (e *Editor) Remove(
	ctx context.Context,
	s *session.Session,
	surface session.Surface,
	userID string,
) error {
	return e.do(ctx, s, surface, func(models.Birthdays) {
		updated, err := e.store.UpdateBirthdays(func(bs models.Birthdays) (models.Birthdays, error) {
			if bs.IndexOf(userID) < 0 {
				return nil, ErrUnknownRecord
			}
			return bs.Without(userID), nil
		})
		if err != nil {
			e.mutationFailed(s, "remove", userID, err, "Birthday was not deleted")
			return
		}

		if s.Page > 0 && s.Page*PageSize >= len(updated) {
			s.Page--
		}
		if s.SelectedUserID == userID {
			s.SelectedUserID = ""
		}
		e.metrics.IncMutation("remove", metrics.ResultSuccess)
		slog.Info("Deleted birthday", logfields.Session(s.ID), logfields.User(userID))
		e.notify(s, session.Success("Birthday successfully deleted"))
		e.changed()
	})
}

// Submit validates and applies an add or edit form. Checks run in order and
// the first failure is shown as an error notification with nothing written:
// month and day must be numbers, in range, and for adds the user ID must look
// like a snowflake, belong to a guild member and not already have a record.
func (e *Editor) Submit(
	ctx context.Context,
	s *session.Session,
	surface session.Surface,
	form Form,
) error {
	op := "edit"
	verb := "edited"
	if form.Mode == session.ModeAdd {
		op = "add"
		verb = "added"
	}

	return e.do(ctx, s, surface, func(models.Birthdays) {
		b, reason := e.validate(ctx, s.GuildID, form)
		if reason != "" {
			e.metrics.IncMutation(op, metrics.ResultRejected)
			e.notify(s, session.Failure("%s Birthday was not %s", reason, verb))
			return
		}

		updated, err := e.store.UpdateBirthdays(func(bs models.Birthdays) (models.Birthdays, error) {
			_, exists := bs.Find(b.UserID)
			if form.Mode == session.ModeAdd && exists {
				return nil, errDuplicate
			}
			if form.Mode == session.ModeEdit && !exists {
				return nil, ErrUnknownRecord
			}
			return bs.Put(b), nil
		})
		if err != nil {
			e.mutationFailed(s, op, b.UserID, err, fmt.Sprintf("Birthday was not %s", verb))
			return
		}

		s.Page = updated.IndexOf(b.UserID) / PageSize
		s.SelectedUserID = b.UserID
		e.metrics.IncMutation(op, metrics.ResultSuccess)
		slog.Info("Saved birthday",
			logfields.Session(s.ID),
			logfields.User(b.UserID),
			slog.String("op", op),
			slog.String("date", b.String()))
		e.notify(s, session.Success("Birthday successfully %s", verb))
		e.changed()
	})
}

// validate returns the record to store or the reason it was rejected.
func (e *Editor) validate(ctx context.Context, guildID string, form Form) (models.Birthday, string) {
	month, err := strconv.Atoi(strings.TrimSpace(form.Month))
	if err != nil {
		return models.Birthday{}, "Invalid birthday month or day!"
	}
	day, err := strconv.Atoi(strings.TrimSpace(form.Day))
	if err != nil {
		return models.Birthday{}, "Invalid birthday month or day!"
	}

	b := models.Birthday{UserID: strings.TrimSpace(form.UserID), Month: month, Day: day}
	if !b.Valid() {
		return models.Birthday{}, "Invalid birthday month or day!"
	}
	if form.Mode != session.ModeAdd {
		return b, ""
	}

	if !userIDPattern.MatchString(b.UserID) {
		return models.Birthday{}, "Invalid user ID!"
	}
	if e.members == nil {
		return b, ""
	}
	if _, err := e.members.Member(ctx, guildID, b.UserID); err != nil {
		if !errors.Is(err, models.ErrUnknownMember) {
			slog.Warn("Failed to look up member",
				logfields.Guild(guildID),
				logfields.User(b.UserID),
				logfields.Error(err))
		}
		return models.Birthday{}, "No matching user in this server!"
	}
	return b, ""
}

func (e *Editor) mutationFailed(s *session.Session, op, userID string, err error, suffix string) {
	switch {
	case errors.Is(err, errDuplicate):
		e.metrics.IncMutation(op, metrics.ResultRejected)
		e.notify(s, session.Failure("That user already has a birthday, use Edit instead! %s", suffix))
	case errors.Is(err, ErrUnknownRecord):
		e.metrics.IncMutation(op, metrics.ResultRejected)
		e.notify(s, session.Failure("That birthday no longer exists! %s", suffix))
	default:
		e.metrics.IncMutation(op, metrics.ResultFailed)
		slog.Error("Failed to save birthdays",
			logfields.Session(s.ID),
			logfields.User(userID),
			logfields.Error(err))
		e.notify(s, session.Failure("Something went wrong while saving! %s", suffix))
	}
}

func (e *Editor) changed() {
	if e.onChange != nil {
		e.onChange()
	}
}

// SetChannel stores the announcement channel.
func (e *Editor) SetChannel(
	ctx context.Context,
	s *session.Session,
	surface session.Surface,
	channelID string,
) error {
	return e.updateSettings(ctx, s, surface, "channel", func(settings *models.Settings) error {
		settings.ChannelID = channelID
		return nil
	})
}

// SetRole stores the birthday role.
func (e *Editor) SetRole(
	ctx context.Context,
	s *session.Session,
	surface session.Surface,
	roleID string,
) error {
	return e.updateSettings(ctx, s, surface, "role", func(settings *models.Settings) error {
		settings.RoleID = roleID
		return nil
	})
}

// SetTimezone stores the timezone used to decide what day it is. Only zones
// offered by the picker are accepted.
func (e *Editor) SetTimezone(
	ctx context.Context,
	s *session.Session,
	surface session.Surface,
	name string,
) error {
	return e.updateSettings(ctx, s, surface, "timezone", func(settings *models.Settings) error {
		if !models.KnownTimezone(name) {
			return fmt.Errorf("unknown timezone %q", name)
		}
		if _, err := time.LoadLocation(name); err != nil {
			return err
		}
		settings.Timezone = name
		return nil
	})
}

func (e *Editor) updateSettings(
	ctx context.Context,
	s *session.Session,
	surface session.Surface,
	op string,
	fn func(*models.Settings) error,
) error {
	return e.do(ctx, s, surface, func(models.Birthdays) {
		settings, err := e.store.UpdateSettings(fn)
		if err != nil {
			e.metrics.IncMutation(op, metrics.ResultRejected)
			slog.Warn("Settings not updated",
				logfields.Session(s.ID),
				slog.String("setting", op),
				logfields.Error(err))
			e.notify(s, session.Failure("Couldn't update the %s! Settings were not changed", op))
			return
		}
		e.metrics.IncMutation(op, metrics.ResultSuccess)
		s.SelectedUserID = ""
		slog.Info("Updated settings",
			logfields.Session(s.ID),
			logfields.Channel(settings.ChannelID),
			logfields.Role(settings.RoleID),
			logfields.Timezone(settings.Timezone))
		e.changed()
	})
}
