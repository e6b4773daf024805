package dal

import (
	"fmt"
	"log/slog"
	"path/filepath"
	"sync"

	"github.com/Edward-Boguslavsky/Birthday-Bot/logfields"
	"github.com/Edward-Boguslavsky/Birthday-Bot/models"
	"gorm.io/driver/sqlite"
	"gorm.io/gorm"
	"gorm.io/gorm/clause"
	"gorm.io/gorm/logger"
)

// DatabaseFile is the SQLite file name used inside the data directory.
const DatabaseFile = "birthdays.db"

const settingsRowID = 1

type birthdayRow struct {
	gorm.Model
	UserID string `gorm:"uniqueIndex"`
	Month  uint
	Day    uint
}

func (birthdayRow) TableName() string { return "birthdays" }

type settingsRow struct {
	ID        uint `gorm:"primaryKey"`
	ChannelID string
	RoleID    string
	Timezone  string
}

func (settingsRow) TableName() string { return "settings" }

// SQLStore keeps records and settings in a SQLite database.
type SQLStore struct {
	mu sync.Mutex
	db *gorm.DB
}

// NewSQLStore opens (creating if needed) the database inside dir.
func NewSQLStore(dir string) (*SQLStore, error) {
	path := filepath.Join(dir, DatabaseFile)
	db, err := gorm.Open(
		sqlite.Open(path),
		&gorm.Config{Logger: logger.Default.LogMode(logger.Silent)},
	)
	if err != nil {
		return nil, fmt.Errorf("failed to connect to DB: %w", err)
	}
	slog.Info("Connected to database.", logfields.Path(path))

	return &SQLStore{db: db}, nil
}

// Init migrates the schema and seeds the default settings row.
func (s *SQLStore) Init() error {
	s.mu.Lock()
	defer s.mu.Unlock()

	if err := s.db.AutoMigrate(&birthdayRow{}, &settingsRow{}); err != nil {
		return fmt.Errorf("failed to migrate database: %w", err)
	}
	slog.Info("Migrated database.")

	defaults := models.DefaultSettings()
	return s.db.Clauses(clause.OnConflict{DoNothing: true}).Create(&settingsRow{
		ID:       settingsRowID,
		Timezone: defaults.Timezone,
	}).Error
}

// Birthdays loads all records, sorted.
func (s *SQLStore) Birthdays() (models.Birthdays, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	return loadBirthdayRows(s.db)
}

// SaveBirthdays replaces every stored record with bs.
func (s *SQLStore) SaveBirthdays(bs models.Birthdays) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.db.Transaction(func(tx *gorm.DB) error {
		return replaceBirthdayRows(tx, bs)
	})
}

// UpdateBirthdays runs fn inside a transaction and stores its result.
func (s *SQLStore) UpdateBirthdays(
	fn func(models.Birthdays) (models.Birthdays, error),
) (models.Birthdays, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	var result models.Birthdays
	err := s.db.Transaction(func(tx *gorm.DB) error {
		current, err := loadBirthdayRows(tx)
		if err != nil {
			return err
		}
		result = current
		updated, err := fn(current)
		if err != nil {
			return err
		}
		if err := replaceBirthdayRows(tx, updated); err != nil {
			return err
		}
		result = updated
		return nil
	})
	return result, err
}

// Settings loads the settings row.
func (s *SQLStore) Settings() (models.Settings, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	return loadSettingsRow(s.db)
}

// SaveSettings upserts the settings row.
func (s *SQLStore) SaveSettings(settings models.Settings) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	return upsertSettingsRow(s.db, settings)
}

// UpdateSettings runs fn inside a transaction and stores the result.
func (s *SQLStore) UpdateSettings(fn func(*models.Settings) error) (models.Settings, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	var result models.Settings
	err := s.db.Transaction(func(tx *gorm.DB) error {
		current, err := loadSettingsRow(tx)
		if err != nil {
			return err
		}
		result = current
		updated := current
		if err := fn(&updated); err != nil {
			return err
		}
		if err := upsertSettingsRow(tx, updated); err != nil {
			return err
		}
		result = updated
		return nil
	})
	return result, err
}

// Close closes the underlying connection.
func (s *SQLStore) Close() error {
	sqlDB, err := s.db.DB()
	if err != nil {
		return err
	}
	return sqlDB.Close()
}

func loadBirthdayRows(db *gorm.DB) (models.Birthdays, error) {
	var rows []birthdayRow
	if err := db.Find(&rows).Error; err != nil {
		return nil, fmt.Errorf("failed to load birthdays: %w", err)
	}

	bs := make(models.Birthdays, 0, len(rows))
	for _, row := range rows {
		bs = append(bs, models.Birthday{
			UserID: row.UserID,
			Month:  int(row.Month),
			Day:    int(row.Day),
		})
	}
	normalize(bs, nil)
	return bs, nil
}

func replaceBirthdayRows(tx *gorm.DB, bs models.Birthdays) error {
	keep := make([]string, 0, len(bs))
	for _, b := range bs {
		keep = append(keep, b.UserID)
		err := tx.Clauses(clause.OnConflict{
			Columns:   []clause.Column{{Name: "user_id"}},
			DoUpdates: clause.AssignmentColumns([]string{"month", "day", "deleted_at", "updated_at"}),
		}).Create(&birthdayRow{
			UserID: b.UserID,
			Month:  uint(b.Month),
			Day:    uint(b.Day),
		}).Error
		if err != nil {
			return fmt.Errorf("failed to save birthday for %v: %w", b.UserID, err)
		}
	}

	del := tx.Unscoped()
	if len(keep) > 0 {
		del = del.Where("user_id NOT IN ?", keep)
	} else {
		del = del.Where("1 = 1")
	}
	if err := del.Delete(&birthdayRow{}).Error; err != nil {
		return fmt.Errorf("failed to delete removed birthdays: %w", err)
	}
	return nil
}

func loadSettingsRow(db *gorm.DB) (models.Settings, error) {
	var row settingsRow
	err := db.Where(&settingsRow{ID: settingsRowID}).Limit(1).Find(&row).Error
	if err != nil {
		return models.DefaultSettings(), fmt.Errorf("failed to load settings: %w", err)
	}

	settings := models.Settings{
		ChannelID: row.ChannelID,
		RoleID:    row.RoleID,
		Timezone:  row.Timezone,
	}
	normalize(nil, &settings)
	return settings, nil
}

func upsertSettingsRow(db *gorm.DB, settings models.Settings) error {
	normalize(nil, &settings)
	return db.Clauses(clause.OnConflict{
		Columns:   []clause.Column{{Name: "id"}},
		DoUpdates: clause.AssignmentColumns([]string{"channel_id", "role_id", "timezone"}),
	}).Create(&settingsRow{
		ID:        settingsRowID,
		ChannelID: settings.ChannelID,
		RoleID:    settings.RoleID,
		Timezone:  settings.Timezone,
	}).Error
}
