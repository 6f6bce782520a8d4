package calendar

import (
	"fmt"
	"sort"
	"time"

	"github.com/noah-isme/lapanclass-api/internal/models"
	appErrors "github.com/noah-isme/lapanclass-api/pkg/errors"
)

// MaxCustomRangeDays bounds custom report ranges, counted inclusively.
const MaxCustomRangeDays = 31

// Mode selects how a reference date is expanded into a range.
type Mode string

const (
	ModeDay    Mode = "day"
	ModeWeek   Mode = "week"
	ModeMonth  Mode = "month"
	ModeCustom Mode = "custom"
)

// ParseMode validates a mode name; empty defaults to day.
func ParseMode(value string) (Mode, error) {
	switch Mode(value) {
	case "":
		return ModeDay, nil
	case ModeDay, ModeWeek, ModeMonth, ModeCustom:
		return Mode(value), nil
	default:
		return "", fmt.Errorf("unknown range mode %q", value)
	}
}

// Range is an inclusive span from Start 00:00:00 to End 23:59:59.
type Range struct {
	Start time.Time `json:"start"`
	End   time.Time `json:"end"`
}

// StartKey is the ISO key of the first day.
func (r Range) StartKey() string { return DateKey(r.Start) }

// EndKey is the ISO key of the last day.
func (r Range) EndKey() string { return DateKey(r.End) }

// DateRange expands ref into day, week (Monday first) or month bounds.
// For month mode a zero year or month falls back to ref's own.
func DateRange(mode Mode, ref time.Time, year int, month time.Month) Range {
	switch mode {
	case ModeWeek:
		// Sunday belongs to the week that started six days earlier.
		offset := (int(ref.Weekday()) + 6) % 7
		monday := ref.AddDate(0, 0, -offset)
		return Range{Start: startOfDay(monday), End: endOfDay(monday.AddDate(0, 0, 6))}
	case ModeMonth:
		if year == 0 {
			year = ref.Year()
		}
		if month == 0 {
			month = ref.Month()
		}
		first := time.Date(year, month, 1, 0, 0, 0, 0, ref.Location())
		return Range{Start: first, End: endOfDay(first.AddDate(0, 1, -1))}
	default:
		return Range{Start: startOfDay(ref), End: endOfDay(ref)}
	}
}

// ValidateCustomRange rejects inverted spans and spans longer than MaxCustomRangeDays.
func ValidateCustomRange(start, end time.Time) error {
	days := civilDays(start, end)
	if days < 0 {
		return appErrors.Clone(appErrors.ErrValidation, "end date must not be before start date")
	}
	if days+1 > MaxCustomRangeDays {
		return appErrors.Clone(appErrors.ErrValidation, fmt.Sprintf("date range must not exceed %d days", MaxCustomRangeDays))
	}
	return nil
}

// CustomRange validates and normalises an explicit start/end pair.
func CustomRange(start, end time.Time) (Range, error) {
	if err := ValidateCustomRange(start, end); err != nil {
		return Range{}, err
	}
	return Range{Start: startOfDay(start), End: endOfDay(end)}, nil
}

// Days lists every calendar day of the range at midnight.
func Days(r Range) []time.Time {
	n := civilDays(r.Start, r.End) + 1
	if n <= 0 {
		return nil
	}
	first := startOfDay(r.Start)
	days := make([]time.Time, 0, n)
	for i := 0; i < n; i++ {
		days = append(days, first.AddDate(0, 0, i))
	}
	return days
}

// civilDays counts calendar days from a to b, ignoring clock time and DST shifts.
func civilDays(a, b time.Time) int {
	ay, am, ad := a.Date()
	by, bm, bd := b.Date()
	da := time.Date(ay, am, ad, 12, 0, 0, 0, time.UTC)
	db := time.Date(by, bm, bd, 12, 0, 0, 0, time.UTC)
	return int(db.Sub(da).Hours() / 24)
}

func startOfDay(t time.Time) time.Time {
	y, m, d := t.Date()
	return time.Date(y, m, d, 0, 0, 0, 0, t.Location())
}

func endOfDay(t time.Time) time.Time {
	y, m, d := t.Date()
	return time.Date(y, m, d, 23, 59, 59, 0, t.Location())
}

func sortHolidays(entries []models.Holiday) {
	sort.Slice(entries, func(i, j int) bool {
		return DateKey(entries[i].Date) < DateKey(entries[j].Date)
	})
}
