package dal

import (
	"errors"
	"testing"

	"github.com/Edward-Boguslavsky/Birthday-Bot/models"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func newSQLStore(t *testing.T) Store {
	t.Helper()
	store, err := Open(DriverSQLite, t.TempDir())
	require.NoError(t, err)
	t.Cleanup(func() { _ = store.Close() })
	return store
}

func TestSQLStoreDefaults(t *testing.T) {
	store := newSQLStore(t)

	bs, err := store.Birthdays()
	require.NoError(t, err)
	assert.Empty(t, bs)

	settings, err := store.Settings()
	require.NoError(t, err)
	assert.Equal(t, models.DefaultSettings(), settings)
}

func TestSQLStoreUpdateBirthdays(t *testing.T) {
	store := newSQLStore(t)

	_, err := store.UpdateBirthdays(func(bs models.Birthdays) (models.Birthdays, error) {
		bs = bs.Put(models.Birthday{UserID: "2", Month: 6, Day: 15})
		return bs.Put(models.Birthday{UserID: "1", Month: 1, Day: 1}), nil
	})
	require.NoError(t, err)

	_, err = store.UpdateBirthdays(func(bs models.Birthdays) (models.Birthdays, error) {
		return bs.Put(models.Birthday{UserID: "2", Month: 2, Day: 30}).Without("1"), nil
	})
	require.NoError(t, err)

	bs, err := store.Birthdays()
	require.NoError(t, err)
	assert.Equal(t, models.Birthdays{{UserID: "2", Month: 2, Day: 30}}, bs)

	// re-adding a removed user must not collide with the old row
	_, err = store.UpdateBirthdays(func(bs models.Birthdays) (models.Birthdays, error) {
		return bs.Put(models.Birthday{UserID: "1", Month: 3, Day: 3}), nil
	})
	require.NoError(t, err)
	bs, err = store.Birthdays()
	require.NoError(t, err)
	assert.Len(t, bs, 2)
}

func TestSQLStoreUpdateErrorRollsBack(t *testing.T) {
	store := newSQLStore(t)
	require.NoError(t, store.SaveBirthdays(models.Birthdays{{UserID: "1", Month: 1, Day: 1}}))

	boom := errors.New("boom")
	_, err := store.UpdateBirthdays(func(bs models.Birthdays) (models.Birthdays, error) {
		return nil, boom
	})
	require.ErrorIs(t, err, boom)

	bs, err := store.Birthdays()
	require.NoError(t, err)
	assert.Len(t, bs, 1)
}

func TestSQLStoreSettings(t *testing.T) {
	store := newSQLStore(t)

	_, err := store.UpdateSettings(func(s *models.Settings) error {
		s.RoleID = "r1"
		s.Timezone = "Europe/Paris"
		return nil
	})
	require.NoError(t, err)

	settings, err := store.Settings()
	require.NoError(t, err)
	assert.Equal(t, models.Settings{RoleID: "r1", Timezone: "Europe/Paris"}, settings)
}
