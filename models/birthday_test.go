package models

import (
	"testing"
	"time"
	_ "time/tzdata"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestBirthdaysPutKeepsOrder(t *testing.T) {
	var bs Birthdays
	bs = bs.Put(Birthday{UserID: "3", Month: 12, Day: 29})
	bs = bs.Put(Birthday{UserID: "1", Month: 1, Day: 5})
	bs = bs.Put(Birthday{UserID: "2", Month: 1, Day: 5})
	bs = bs.Put(Birthday{UserID: "4", Month: 4, Day: 23})

	ids := make([]string, len(bs))
	for i, b := range bs {
		ids[i] = b.UserID
	}
	assert.Equal(t, []string{"1", "2", "4", "3"}, ids)
}

func TestBirthdaysPutReplaces(t *testing.T) {
	bs := Birthdays{{UserID: "1", Month: 1, Day: 5}, {UserID: "2", Month: 2, Day: 20}}
	bs = bs.Put(Birthday{UserID: "1", Month: 3, Day: 3})

	require.Len(t, bs, 2)
	assert.Equal(t, "2", bs[0].UserID)
	got, ok := bs.Find("1")
	require.True(t, ok)
	assert.Equal(t, 3, got.Month)
}

func TestBirthdaysWithoutDoesNotAlias(t *testing.T) {
	bs := Birthdays{{UserID: "1", Month: 1, Day: 5}, {UserID: "2", Month: 2, Day: 20}}
	out := bs.Without("1")

	assert.Len(t, out, 1)
	assert.Len(t, bs, 2)
	assert.Equal(t, -1, out.IndexOf("1"))
}

func TestBirthdaysPaging(t *testing.T) {
	tests := []struct {
		name  string
		count int
		pages int
	}{
		{"empty", 0, 1},
		{"one", 1, 1},
		{"full page", 4, 1},
		{"one over", 5, 2},
		{"nine", 9, 3},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			bs := make(Birthdays, tt.count)
			assert.Equal(t, tt.pages, bs.PageCount(4))
		})
	}

	bs := make(Birthdays, 9)
	assert.Len(t, bs.Page(0, 4), 4)
	assert.Len(t, bs.Page(2, 4), 1)
	assert.Nil(t, bs.Page(3, 4))
	assert.Equal(t, 1, bs.PageCount(0))
}

func TestBirthdayValid(t *testing.T) {
	assert.True(t, Birthday{Month: 2, Day: 30}.Valid())
	assert.True(t, Birthday{Month: 12, Day: 31}.Valid())
	assert.False(t, Birthday{Month: 13, Day: 1}.Valid())
	assert.False(t, Birthday{Month: 1, Day: 0}.Valid())
}

func TestBirthdayFormatting(t *testing.T) {
	b := Birthday{UserID: "1", Month: 6, Day: 15}
	assert.Equal(t, "June 15", b.String())
	assert.Equal(t, "June 15th", b.Ordinal())
	assert.True(t, b.Is(time.June, 15))
	assert.False(t, b.Is(time.June, 16))
}

func TestMemberHasRole(t *testing.T) {
	m := Member{UserID: "1", Roles: []string{"a", "b"}}
	assert.True(t, m.HasRole("b"))
	assert.False(t, m.HasRole("c"))
	assert.Equal(t, "<@1>", m.Mention())
}

func TestTimezoneCatalogue(t *testing.T) {
	assert.Len(t, Timezones, 23)
	assert.True(t, KnownTimezone(DefaultTimezone))
	assert.False(t, KnownTimezone("Mars/Olympus_Mons"))
	for _, tz := range Timezones {
		_, err := time.LoadLocation(tz.Name)
		assert.NoError(t, err, tz.Name)
	}
	assert.Equal(t, "America/New York", Timezones[5].Label())
}
