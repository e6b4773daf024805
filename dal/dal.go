// Package dal persists birthday records and bot settings.
package dal

import (
	"errors"
	"fmt"

	"github.com/Edward-Boguslavsky/Birthday-Bot/models"
)

// ErrCorrupt is reported (and logged) when a stored document cannot be decoded.
var ErrCorrupt = errors.New("corrupt document")

// Store is the durable home of birthday records and settings.
//
// Reads never fail because data is missing or corrupt; they return an empty
// collection or default settings instead. Update* run a read-modify-write
// cycle serialized with every other update on the same store. If fn returns
// an error nothing is written.
type Store interface {
	Init() error
	Birthdays() (models.Birthdays, error)
	SaveBirthdays(models.Birthdays) error
	UpdateBirthdays(fn func(models.Birthdays) (models.Birthdays, error)) (models.Birthdays, error)
	Settings() (models.Settings, error)
	SaveSettings(models.Settings) error
	UpdateSettings(fn func(*models.Settings) error) (models.Settings, error)
	Close() error
}

// Driver names accepted by Open.
const (
	DriverJSON   = "json"
	DriverSQLite = "sqlite"
)

// Open creates the store for the given driver and makes sure its documents exist.
func Open(driver string, dataDir string) (Store, error) {
	var (
		store Store
		err   error
	)

	switch driver {
	case "", DriverJSON:
		store = NewJSONStore(dataDir)
	case DriverSQLite:
		store, err = NewSQLStore(dataDir)
		if err != nil {
			return nil, err
		}
	default:
		return nil, fmt.Errorf("unknown storage driver %q", driver)
	}

	if err := store.Init(); err != nil {
		return nil, fmt.Errorf("failed to initialise %v store: %w", driver, err)
	}
	return store, nil
}

func normalize(bs models.Birthdays, s *models.Settings) {
	if bs != nil {
		bs.Sort()
	}
	if s != nil && s.Timezone == "" {
		s.Timezone = models.DefaultTimezone
	}
}
