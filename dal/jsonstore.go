package dal

import (
	"encoding/json"
	"errors"
	"fmt"
	"io/fs"
	"log/slog"
	"os"
	"path/filepath"
	"strconv"
	"strings"
	"sync"

	"github.com/Edward-Boguslavsky/Birthday-Bot/logfields"
	"github.com/Edward-Boguslavsky/Birthday-Bot/models"
)

// File names used inside the data directory.
const (
	BirthdaysFile = "birthdays.json"
	SettingsFile  = "settings.json"
)

// JSONStore keeps records and settings in two flat JSON documents that are
// rewritten wholesale on every save.
type JSONStore struct {
	mu            sync.Mutex
	birthdaysPath string
	settingsPath  string
}

// NewJSONStore returns a store rooted at dir.
func NewJSONStore(dir string) *JSONStore {
	return &JSONStore{
		birthdaysPath: filepath.Join(dir, BirthdaysFile),
		settingsPath:  filepath.Join(dir, SettingsFile),
	}
}

// Init creates the data directory and both documents if they are absent.
func (s *JSONStore) Init() error {
	s.mu.Lock()
	defer s.mu.Unlock()

	if err := os.MkdirAll(filepath.Dir(s.birthdaysPath), 0o755); err != nil {
		return err
	}
	if _, err := os.Stat(s.birthdaysPath); errors.Is(err, fs.ErrNotExist) {
		slog.Info("Creating birthdays file", logfields.Path(s.birthdaysPath))
		if err := writeJSON(s.birthdaysPath, models.Birthdays{}); err != nil {
			return err
		}
	}
	if _, err := os.Stat(s.settingsPath); errors.Is(err, fs.ErrNotExist) {
		slog.Info("Creating settings file", logfields.Path(s.settingsPath))
		if err := writeJSON(s.settingsPath, models.DefaultSettings()); err != nil {
			return err
		}
	}
	return nil
}

// Birthdays loads all records, sorted.
func (s *JSONStore) Birthdays() (models.Birthdays, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.loadBirthdays()
}

// SaveBirthdays replaces the records file.
func (s *JSONStore) SaveBirthdays(bs models.Birthdays) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.saveBirthdays(bs)
}

// UpdateBirthdays runs fn against the current records and saves its result.
func (s *JSONStore) UpdateBirthdays(
	fn func(models.Birthdays) (models.Birthdays, error),
) (models.Birthdays, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	current, err := s.loadBirthdays()
	if err != nil {
		return nil, err
	}
	updated, err := fn(current)
	if err != nil {
		return current, err
	}
	if err := s.saveBirthdays(updated); err != nil {
		return current, err
	}
	return updated, nil
}

// Settings loads the settings document.
func (s *JSONStore) Settings() (models.Settings, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.loadSettings()
}

// SaveSettings replaces the settings file.
func (s *JSONStore) SaveSettings(settings models.Settings) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	normalize(nil, &settings)
	return writeJSON(s.settingsPath, settings)
}

// UpdateSettings runs fn against the current settings and saves the result.
func (s *JSONStore) UpdateSettings(fn func(*models.Settings) error) (models.Settings, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	settings, err := s.loadSettings()
	if err != nil {
		return settings, err
	}
	updated := settings
	if err := fn(&updated); err != nil {
		return settings, err
	}
	normalize(nil, &updated)
	if err := writeJSON(s.settingsPath, updated); err != nil {
		return settings, err
	}
	return updated, nil
}

// Close is a no-op; files are not held open between calls.
func (s *JSONStore) Close() error { return nil }

func (s *JSONStore) loadBirthdays() (models.Birthdays, error) {
	data, err := os.ReadFile(s.birthdaysPath)
	if errors.Is(err, fs.ErrNotExist) {
		return models.Birthdays{}, nil
	}
	if err != nil {
		return nil, fmt.Errorf("failed to read %v: %w", s.birthdaysPath, err)
	}

	bs, err := decodeBirthdays(s.birthdaysPath, data)
	if err != nil {
		slog.Warn("Ignoring unreadable birthdays file",
			logfields.Path(s.birthdaysPath),
			logfields.Error(err))
		return models.Birthdays{}, nil
	}
	normalize(bs, nil)
	return bs, nil
}

func (s *JSONStore) saveBirthdays(bs models.Birthdays) error {
	out := make(models.Birthdays, len(bs))
	copy(out, bs)
	normalize(out, nil)
	return writeJSON(s.birthdaysPath, out)
}

func (s *JSONStore) loadSettings() (models.Settings, error) {
	data, err := os.ReadFile(s.settingsPath)
	if errors.Is(err, fs.ErrNotExist) {
		return models.DefaultSettings(), nil
	}
	if err != nil {
		return models.DefaultSettings(), fmt.Errorf("failed to read %v: %w", s.settingsPath, err)
	}

	settings := models.DefaultSettings()
	if err := json.Unmarshal(data, &settings); err != nil {
		slog.Warn("Ignoring unreadable settings file",
			logfields.Path(s.settingsPath),
			logfields.Error(err))
		return models.DefaultSettings(), nil
	}
	normalize(nil, &settings)
	return settings, nil
}

// decodeBirthdays accepts the current array layout as well as the older
// {"<userId>": "MM-DD"} object layout. Records that cannot be matched to a
// user or fall out of range are dropped, and a user listed twice keeps the
// last entry.
func decodeBirthdays(path string, data []byte) (models.Birthdays, error) {
	trimmed := strings.TrimSpace(string(data))
	if trimmed == "" {
		return models.Birthdays{}, nil
	}

	var bs models.Birthdays
	if strings.HasPrefix(trimmed, "[") {
		if err := json.Unmarshal(data, &bs); err != nil {
			return nil, fmt.Errorf("%w: %v", ErrCorrupt, err)
		}
	} else {
		var legacy map[string]string
		if err := json.Unmarshal(data, &legacy); err != nil {
			return nil, fmt.Errorf("%w: %v", ErrCorrupt, err)
		}
		bs = make(models.Birthdays, 0, len(legacy))
		for userID, date := range legacy {
			b, err := parseLegacyDate(userID, date)
			if err != nil {
				slog.Warn("Dropping birthday record", logfields.Path(path), logfields.Error(err))
				continue
			}
			bs = append(bs, b)
		}
	}

	index := make(map[string]int, len(bs))
	out := make(models.Birthdays, 0, len(bs))
	for _, b := range bs {
		switch {
		case b.UserID == "":
			slog.Warn("Dropping birthday record without a user", logfields.Path(path))
			continue
		case !b.Valid():
			slog.Warn("Dropping out of range birthday record",
				logfields.Path(path),
				logfields.User(b.UserID),
				slog.Int("month", b.Month),
				slog.Int("day", b.Day))
			continue
		}
		if i, ok := index[b.UserID]; ok {
			slog.Warn("Dropping duplicate birthday record",
				logfields.Path(path),
				logfields.User(b.UserID),
				slog.String("kept", b.String()),
				slog.String("dropped", out[i].String()))
			out[i] = b
			continue
		}
		index[b.UserID] = len(out)
		out = append(out, b)
	}
	return out, nil
}

func parseLegacyDate(userID, date string) (models.Birthday, error) {
	month, day, ok := strings.Cut(date, "-")
	if !ok {
		return models.Birthday{}, fmt.Errorf("%w: bad date %q for %v", ErrCorrupt, date, userID)
	}
	m, err := strconv.Atoi(month)
	if err != nil {
		return models.Birthday{}, fmt.Errorf("%w: bad month %q for %v", ErrCorrupt, month, userID)
	}
	d, err := strconv.Atoi(day)
	if err != nil {
		return models.Birthday{}, fmt.Errorf("%w: bad day %q for %v", ErrCorrupt, day, userID)
	}
	return models.Birthday{UserID: userID, Month: m, Day: d}, nil
}

// writeJSON replaces path atomically with the indented encoding of v.
func writeJSON(path string, v any) error {
	data, err := json.MarshalIndent(v, "", "  ")
	if err != nil {
		return err
	}

	tmp, err := os.CreateTemp(filepath.Dir(path), filepath.Base(path)+".*.tmp")
	if err != nil {
		return fmt.Errorf("failed to create temp file for %v: %w", path, err)
	}
	defer os.Remove(tmp.Name())

	if _, err := tmp.Write(append(data, '\n')); err != nil {
		tmp.Close()
		return fmt.Errorf("failed to write %v: %w", path, err)
	}
	if err := tmp.Close(); err != nil {
		return fmt.Errorf("failed to write %v: %w", path, err)
	}
	if err := os.Rename(tmp.Name(), path); err != nil {
		return fmt.Errorf("failed to replace %v: %w", path, err)
	}
	return nil
}
