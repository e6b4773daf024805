package bot

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"sync"
	"time"

	"github.com/Edward-Boguslavsky/Birthday-Bot/dal"
	"github.com/Edward-Boguslavsky/Birthday-Bot/logfields"
	"github.com/Edward-Boguslavsky/Birthday-Bot/metrics"
	"github.com/Edward-Boguslavsky/Birthday-Bot/models"
	"github.com/jonboulle/clockwork"
)

// Guild is everything the role checker needs from the chat platform.
type Guild interface {
	GuildIDs() []string
	OwnsRole(ctx context.Context, guildID, roleID string) (bool, error)
	Member(ctx context.Context, guildID, userID string) (models.Member, error)
	AddRole(ctx context.Context, guildID, userID, roleID string) error
	RemoveRole(ctx context.Context, guildID, userID, roleID string) error
	Announce(ctx context.Context, channelID, content string) error
}

// SweepResult summarises one run of CheckRoles.
type SweepResult struct {
	Idle      bool
	Granted   int
	Revoked   int
	Announced int
	Skipped   int
}

// RoleChecker grants the birthday role to members whose birthday is today,
// announces them, and revokes the role from everyone else.
type RoleChecker struct {
	mu      sync.Mutex
	store   dal.Store
	guild   Guild
	clock   clockwork.Clock
	metrics *metrics.Recorder
}

// NewRoleChecker returns a role checker reading from store.
func NewRoleChecker(store dal.Store, guild Guild, clock clockwork.Clock, rec *metrics.Recorder) *RoleChecker {
	if clock == nil {
		clock = clockwork.NewRealClock()
	}
	return &RoleChecker{store: store, guild: guild, clock: clock, metrics: rec}
}

// CheckRoles runs one sweep. Settings and records are reloaded on every run.
// It only fails if the store cannot be read; per-member failures are logged
// and skipped.
func (rc *RoleChecker) CheckRoles(ctx context.Context) (SweepResult, error) {
	rc.mu.Lock()
	defer rc.mu.Unlock()

	var result SweepResult

	settings, err := rc.store.Settings()
	if err != nil {
		rc.metrics.IncSweep(metrics.ResultFailed)
		return result, fmt.Errorf("failed to load settings: %w", err)
	}
	birthdays, err := rc.store.Birthdays()
	if err != nil {
		rc.metrics.IncSweep(metrics.ResultFailed)
		return result, fmt.Errorf("failed to load birthdays: %w", err)
	}

	if !settings.Complete() || len(birthdays) == 0 {
		slog.Debug("Role check idle",
			logfields.Channel(settings.ChannelID),
			logfields.Role(settings.RoleID),
			slog.Int("birthdays", len(birthdays)))
		rc.metrics.IncSweep(metrics.ResultIdle)
		result.Idle = true
		return result, nil
	}

	_, month, day := rc.clock.Now().In(rc.location(settings.Timezone)).Date()

	swept := 0
	for _, guildID := range rc.guild.GuildIDs() {
		// only the guild the role belongs to is swept
		owns, err := rc.guild.OwnsRole(ctx, guildID, settings.RoleID)
		if err != nil {
			slog.Warn("Failed to look up birthday role",
				logfields.Guild(guildID),
				logfields.Role(settings.RoleID),
				logfields.Error(err))
			continue
		}
		if !owns {
			slog.Debug("Skipping guild without birthday role",
				logfields.Guild(guildID),
				logfields.Role(settings.RoleID))
			continue
		}
		swept++

		for _, b := range birthdays {
			if ctx.Err() != nil {
				rc.metrics.IncSweep(metrics.ResultFailed)
				return result, ctx.Err()
			}
			rc.checkMember(ctx, guildID, settings, b, b.Is(month, day), &result)
		}
	}

	if swept == 0 {
		slog.Warn("Birthday role not found in any guild", logfields.Role(settings.RoleID))
	}

	slog.Debug("Role check complete",
		slog.Int("granted", result.Granted),
		slog.Int("revoked", result.Revoked),
		slog.Int("announced", result.Announced),
		slog.Int("skipped", result.Skipped))
	rc.metrics.IncSweep(metrics.ResultSuccess)
	return result, nil
}

func (rc *RoleChecker) checkMember(
	ctx context.Context,
	guildID string,
	settings models.Settings,
	b models.Birthday,
	isBirthday bool,
	result *SweepResult,
) {
	member, err := rc.guild.Member(ctx, guildID, b.UserID)
	if err != nil {
		result.Skipped++
		rc.metrics.IncUnresolvedMember()
		if errors.Is(err, models.ErrUnknownMember) {
			slog.Info("Member not in guild", logfields.Guild(guildID), logfields.User(b.UserID))
		} else {
			slog.Warn("Failed to resolve member",
				logfields.Guild(guildID),
				logfields.User(b.UserID),
				logfields.Error(err))
		}
		return
	}

	hasRole := member.HasRole(settings.RoleID)

	switch {
	case isBirthday && !hasRole:
		err := rc.guild.AddRole(ctx, guildID, member.UserID, settings.RoleID)
		rc.metrics.IncRoleChange("grant", err == nil)
		if err != nil {
			slog.Error("Failed to add birthday role",
				logfields.Guild(guildID),
				logfields.User(member.UserID),
				logfields.Role(settings.RoleID),
				logfields.Error(err))
		} else {
			result.Granted++
			slog.Info("Added birthday role",
				logfields.Guild(guildID),
				logfields.User(member.UserID),
				slog.String("username", member.Username))
		}

		err = rc.guild.Announce(ctx, settings.ChannelID, Announcement(member))
		rc.metrics.IncAnnouncement(err == nil)
		if err != nil {
			slog.Error("Failed to announce birthday",
				logfields.Channel(settings.ChannelID),
				logfields.User(member.UserID),
				logfields.Error(err))
		} else {
			result.Announced++
		}

	case !isBirthday && hasRole:
		err := rc.guild.RemoveRole(ctx, guildID, member.UserID, settings.RoleID)
		rc.metrics.IncRoleChange("revoke", err == nil)
		if err != nil {
			slog.Error("Failed to remove birthday role",
				logfields.Guild(guildID),
				logfields.User(member.UserID),
				logfields.Role(settings.RoleID),
				logfields.Error(err))
			return
		}
		result.Revoked++
		slog.Info("Removed birthday role",
			logfields.Guild(guildID),
			logfields.User(member.UserID),
			slog.String("username", member.Username))
	}
}

// location loads the configured zone, falling back to the default zone.
func (rc *RoleChecker) location(name string) *time.Location {
	loc, err := time.LoadLocation(name)
	if err == nil {
		return loc
	}
	slog.Warn("Invalid timezone, using default",
		logfields.Timezone(name),
		logfields.Error(err))
	if loc, err := time.LoadLocation(models.DefaultTimezone); err == nil {
		return loc
	}
	return time.UTC
}

// Announcement is the message posted when a member's birthday starts.
func Announcement(member models.Member) string {
	return fmt.Sprintf("Happy birthday, %s! 🎂", member.DisplayName)
}
