// Package calendar holds the school calendar rules: weekend and holiday overlay,
// the attendance gate, date ranges and the fixed table of class periods.
package calendar

import (
	"time"

	"github.com/rickar/cal/v2"

	"github.com/noah-isme/lapanclass-api/internal/models"
)

// WeekendLabel is the status text of Saturdays and Sundays.
const WeekendLabel = "Libur Akhir Pekan"

// DateLayout is the ISO layout of date keys.
const DateLayout = "2006-01-02"

// HolidaySet indexes explicit holiday and event entries by date key.
type HolidaySet map[string]models.Holiday

// NewHolidaySet indexes the given entries. Later entries win on duplicate dates.
func NewHolidaySet(entries ...models.Holiday) HolidaySet {
	set := make(HolidaySet, len(entries))
	for _, entry := range entries {
		set[DateKey(entry.Date)] = entry
	}
	return set
}

// Lookup returns the entry registered for the exact date key.
func (s HolidaySet) Lookup(dateKey string) (models.Holiday, bool) {
	entry, ok := s[dateKey]
	return entry, ok
}

// Entries returns the entries of the set ordered by date.
func (s HolidaySet) Entries() []models.Holiday {
	entries := make([]models.Holiday, 0, len(s))
	for _, entry := range s {
		entries = append(entries, entry)
	}
	sortHolidays(entries)
	return entries
}

// IsWeekend reports whether the date falls on Saturday or Sunday in its own location.
func IsWeekend(date time.Time) bool {
	return cal.IsWeekend(date)
}

// DateKey renders the ISO date key in the date's own location.
func DateKey(date time.Time) string {
	return date.Format(DateLayout)
}

// ParseDate parses an ISO date key as midnight in loc.
func ParseDate(value string, loc *time.Location) (time.Time, error) {
	if loc == nil {
		loc = time.UTC
	}
	return time.ParseInLocation(DateLayout, value, loc)
}

// HolidayStatusText returns the label of a non-ordinary day. Weekends win over explicit entries.
func HolidayStatusText(date time.Time, set HolidaySet) (string, bool) {
	if IsWeekend(date) {
		return WeekendLabel, true
	}
	if entry, ok := set.Lookup(DateKey(date)); ok {
		return entry.Label, true
	}
	return "", false
}

// CanRecordAttendance is the policy gate for attendance writes: closed on weekends and
// HOLIDAY entries, open on EVENT entries and ordinary days.
func CanRecordAttendance(date time.Time, set HolidaySet) bool {
	if IsWeekend(date) {
		return false
	}
	if entry, ok := set.Lookup(DateKey(date)); ok && entry.Type == models.HolidayTypeHoliday {
		return false
	}
	return true
}
