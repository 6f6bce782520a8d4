package calendar

import (
	"github.com/rickar/cal/v2"

	"github.com/noah-isme/lapanclass-api/internal/models"
)

// BusinessCalendar builds a school-day calendar seeded with the HOLIDAY entries of the set.
// EVENT entries stay workdays.
func BusinessCalendar(set HolidaySet) *cal.BusinessCalendar {
	bc := cal.NewBusinessCalendar()
	for _, entry := range set {
		if entry.Type != models.HolidayTypeHoliday {
			continue
		}
		year := entry.Date.Year()
		bc.AddHoliday(&cal.Holiday{
			Name:      entry.Label,
			Type:      cal.ObservancePublic,
			Month:     entry.Date.Month(),
			Day:       entry.Date.Day(),
			StartYear: year,
			EndYear:   year,
			Func:      cal.CalcDayOfMonth,
		})
	}
	return bc
}

// SchoolDays counts the days of the range on which attendance can be recorded.
func SchoolDays(r Range, set HolidaySet) int {
	bc := BusinessCalendar(set)
	count := 0
	for _, day := range Days(r) {
		if bc.IsWorkday(day) {
			count++
		}
	}
	return count
}
