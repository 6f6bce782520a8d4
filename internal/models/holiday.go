package models

import "time"

// HolidayType distinguishes days off from school events.
type HolidayType string

const (
	HolidayTypeHoliday HolidayType = "HOLIDAY"
	HolidayTypeEvent   HolidayType = "EVENT"
)

// Valid reports whether the type is known.
func (t HolidayType) Valid() bool {
	return t == HolidayTypeHoliday || t == HolidayTypeEvent
}

// Holiday is an explicit weekday exception in the school calendar.
type Holiday struct {
	ID        string      `db:"id" json:"id"`
	Date      time.Time   `db:"date" json:"date"`
	Label     string      `db:"label" json:"label"`
	Type      HolidayType `db:"type" json:"type"`
	CreatedAt time.Time   `db:"created_at" json:"created_at"`
	UpdatedAt time.Time   `db:"updated_at" json:"updated_at"`
}

// HolidayRequest is the create/update payload of a holiday entry.
type HolidayRequest struct {
	Date  string      `json:"date" validate:"required,datetime=2006-01-02"`
	Label string      `json:"label" validate:"required,max=120"`
	Type  HolidayType `json:"type" validate:"required,holiday_type"`
}

// DayStatus describes how the calendar treats a date.
type DayStatus struct {
	Date      string   `json:"date"`
	Label     string   `json:"label"`
	Weekend   bool     `json:"weekend"`
	Holiday   *Holiday `json:"holiday,omitempty"`
	Status    *string  `json:"status,omitempty"`
	CanRecord bool     `json:"can_record"`
}

// MonthCalendar lists the day statuses of one month.
type MonthCalendar struct {
	Year       int         `json:"year"`
	Month      int         `json:"month"`
	MonthName  string      `json:"month_name"`
	SchoolDays int         `json:"school_days"`
	Days       []DayStatus `json:"days"`
}
