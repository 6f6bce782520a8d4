package calendar

import (
	"fmt"
	"time"
)

var monthNames = [...]string{
	"Januari", "Februari", "Maret", "April", "Mei", "Juni",
	"Juli", "Agustus", "September", "Oktober", "November", "Desember",
}

var dayNames = [...]string{"Minggu", "Senin", "Selasa", "Rabu", "Kamis", "Jumat", "Sabtu"}

// MonthName returns the Indonesian month name.
func MonthName(m time.Month) string {
	if m < time.January || m > time.December {
		return ""
	}
	return monthNames[m-1]
}

// DayName returns the Indonesian weekday name.
func DayName(d time.Weekday) string {
	if d < time.Sunday || d > time.Saturday {
		return ""
	}
	return dayNames[d]
}

// FormatIndonesian renders a date as "Senin, 19 Oktober 2026".
func FormatIndonesian(date time.Time) string {
	return fmt.Sprintf("%s, %d %s %d", DayName(date.Weekday()), date.Day(), MonthName(date.Month()), date.Year())
}

// FormatShort renders a date as "19 Oktober 2026".
func FormatShort(date time.Time) string {
	return fmt.Sprintf("%d %s %d", date.Day(), MonthName(date.Month()), date.Year())
}
