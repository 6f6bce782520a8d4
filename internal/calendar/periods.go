package calendar

import (
	"fmt"
	"strconv"
	"strings"
)

// Clock is a wall-clock time in minutes after midnight.
type Clock int

// ParseClock parses a 24-hour "HH:MM" value.
func ParseClock(value string) (Clock, error) {
	parts := strings.Split(strings.TrimSpace(value), ":")
	if len(parts) != 2 || len(parts[0]) != 2 || len(parts[1]) != 2 {
		return 0, fmt.Errorf("invalid clock %q, expected HH:MM", value)
	}
	hour, err := strconv.Atoi(parts[0])
	if err != nil || hour < 0 || hour > 23 {
		return 0, fmt.Errorf("invalid hour in %q", value)
	}
	minute, err := strconv.Atoi(parts[1])
	if err != nil || minute < 0 || minute > 59 {
		return 0, fmt.Errorf("invalid minute in %q", value)
	}
	return Clock(hour*60 + minute), nil
}

// String renders the clock as HH:MM.
func (c Clock) String() string {
	return fmt.Sprintf("%02d:%02d", int(c)/60, int(c)%60)
}

// MarshalText implements encoding.TextMarshaler.
func (c Clock) MarshalText() ([]byte, error) {
	return []byte(c.String()), nil
}

// Window is the half-open span of one class period.
type Window struct {
	Period int   `json:"period"`
	Start  Clock `json:"start"`
	End    Clock `json:"end"`
}

// Overlaps applies the strict overlap test start1 < end2 && end1 > start2.
func (w Window) Overlaps(start, end Clock) bool {
	return w.Start < end && w.End > start
}

const (
	FirstPeriod = 1
	LastPeriod  = 10
)

func clock(h, m int) Clock { return Clock(h*60 + m) }

var periodTable = [LastPeriod]Window{
	{Period: 1, Start: clock(6, 45), End: clock(7, 25)},
	{Period: 2, Start: clock(7, 25), End: clock(8, 5)},
	{Period: 3, Start: clock(8, 5), End: clock(8, 45)},
	{Period: 4, Start: clock(9, 0), End: clock(9, 40)},
	{Period: 5, Start: clock(10, 0), End: clock(10, 40)},
	{Period: 6, Start: clock(10, 40), End: clock(11, 20)},
	{Period: 7, Start: clock(11, 20), End: clock(12, 0)},
	{Period: 8, Start: clock(13, 0), End: clock(13, 40)},
	{Period: 9, Start: clock(13, 40), End: clock(14, 20)},
	{Period: 10, Start: clock(14, 20), End: clock(15, 0)},
}

// Periods returns a copy of the period table.
func Periods() []Window {
	out := make([]Window, len(periodTable))
	copy(out, periodTable[:])
	return out
}

// PeriodWindow returns the window of period n.
func PeriodWindow(n int) (Window, bool) {
	if n < FirstPeriod || n > LastPeriod {
		return Window{}, false
	}
	return periodTable[n-1], true
}

// TimeToPeriods returns, in order, the periods overlapping [start, end).
// Unparseable input yields no periods.
func TimeToPeriods(start, end string) []int {
	from, err := ParseClock(start)
	if err != nil {
		return []int{}
	}
	to, err := ParseClock(end)
	if err != nil {
		return []int{}
	}
	periods := []int{}
	for _, w := range periodTable {
		if w.Overlaps(from, to) {
			periods = append(periods, w.Period)
		}
	}
	return periods
}

// PeriodSpan lists from..to inclusive after checking FirstPeriod <= from <= to <= LastPeriod.
func PeriodSpan(from, to int) ([]int, error) {
	if from < FirstPeriod || to > LastPeriod || from > to {
		return nil, fmt.Errorf("period range must satisfy %d <= from <= to <= %d, got %d..%d", FirstPeriod, LastPeriod, from, to)
	}
	span := make([]int, 0, to-from+1)
	for p := from; p <= to; p++ {
		span = append(span, p)
	}
	return span, nil
}
