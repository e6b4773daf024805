package models

import (
	"fmt"
	"sort"
	"time"

	"github.com/dustin/go-humanize"
)

// Birthday represents a user's birth day and month.
type Birthday struct {
	UserID string `json:"userId"`
	Month  int    `json:"month"`
	Day    int    `json:"day"`
}

// Valid reports whether the month and day are within range. There is no
// per-month day count check, so February 30 is accepted.
func (b Birthday) Valid() bool {
	return b.Month >= 1 && b.Month <= 12 && b.Day >= 1 && b.Day <= 31
}

// Is returns true if the birthday falls on the given month and day.
func (b Birthday) Is(month time.Month, day int) bool {
	return b.Month == int(month) && b.Day == day
}

// String formats the birthday as e.g. "June 15".
func (b Birthday) String() string {
	return fmt.Sprintf("%v %v", time.Month(b.Month), b.Day)
}

// Ordinal formats the birthday as e.g. "June 15th".
func (b Birthday) Ordinal() string {
	return fmt.Sprintf("%v %v", time.Month(b.Month), humanize.Ordinal(b.Day))
}

func (b Birthday) less(other Birthday) bool {
	if b.Month != other.Month {
		return b.Month < other.Month
	}
	if b.Day != other.Day {
		return b.Day < other.Day
	}
	return b.UserID < other.UserID
}

// Birthdays is the canonical ordered collection of birthday records.
type Birthdays []Birthday

// Sort orders the collection by month then day. Records sharing a date are
// ordered by user ID.
func (bs Birthdays) Sort() {
	sort.SliceStable(bs, func(i, j int) bool { return bs[i].less(bs[j]) })
}

// IndexOf returns the position of the given user's record, or -1.
func (bs Birthdays) IndexOf(userID string) int {
	for i, b := range bs {
		if b.UserID == userID {
			return i
		}
	}
	return -1
}

// Find returns the given user's record.
func (bs Birthdays) Find(userID string) (Birthday, bool) {
	if i := bs.IndexOf(userID); i >= 0 {
		return bs[i], true
	}
	return Birthday{}, false
}

// Put inserts or replaces the record for b.UserID and re-sorts.
func (bs Birthdays) Put(b Birthday) Birthdays {
	out := bs.Without(b.UserID)
	out = append(out, b)
	out.Sort()
	return out
}

// Without returns a copy of the collection without the given user.
func (bs Birthdays) Without(userID string) Birthdays {
	out := make(Birthdays, 0, len(bs))
	for _, b := range bs {
		if b.UserID != userID {
			out = append(out, b)
		}
	}
	return out
}

// Page returns the records on the given zero-based page.
func (bs Birthdays) Page(page, size int) Birthdays {
	start := page * size
	if size <= 0 || page < 0 || start >= len(bs) {
		return nil
	}
	end := start + size
	if end > len(bs) {
		end = len(bs)
	}
	return bs[start:end]
}

// PageCount returns the number of pages needed to show the collection. An
// empty collection still has one page.
func (bs Birthdays) PageCount(size int) int {
	if size <= 0 || len(bs) == 0 {
		return 1
	}
	return (len(bs) + size - 1) / size
}
