// Package schedule converts class periods to wall-clock times and projects
// events into display-ready views.
package schedule

import (
	"fmt"
	"time"

	"github.com/deptevents/event-registration/internal/domain"
)

type clock struct {
	hour   int
	minute int
}

// periodEnd holds the end of each period, indexed by period number.
// Index 0 is unused.
var periodEnd = [...]clock{
	{},
	{8, 0},
	{9, 0},
	{10, 0},
	{11, 0},
	{14, 0},
	{15, 0},
	{16, 0},
	{17, 0},
	{18, 25},
	{19, 25},
	{20, 25},
	{21, 25},
}

// fallbackEnd is used for periods outside the table. Events with such a period
// end late in the day instead of being reported as ended.
var fallbackEnd = clock{23, 59}

// PeriodEndClock returns the hour and minute at which the period ends.
// Unknown periods return 23:59.
func PeriodEndClock(period int) (hour, minute int) {
	c := fallbackEnd
	if period >= domain.MinPeriod && period <= domain.MaxPeriod {
		c = periodEnd[period]
	}
	return c.hour, c.minute
}

// PeriodStartHour returns the hour at which the period starts on the
// display schedule.
func PeriodStartHour(period int) int {
	if period <= 6 {
		return 7 + (period - 1)
	}
	return 13 + (period - 7)
}

// PeriodStartLabel renders the start of a period as "8h00".
func PeriodStartLabel(period int) string {
	return fmt.Sprintf("%dh00", PeriodStartHour(period))
}

// EndInstant combines the day of the event with the end clock of its last
// period in loc.
func EndInstant(day time.Time, endPeriod int, loc *time.Location) time.Time {
	if loc == nil {
		loc = time.UTC
	}
	hour, minute := PeriodEndClock(endPeriod)
	y, m, d := day.Date()
	return time.Date(y, m, d, hour, minute, 0, 0, loc)
}

// HasEnded reports whether now is strictly after the end of the event.
func HasEnded(event *domain.Event, now time.Time, loc *time.Location) bool {
	return now.After(EndInstant(event.Day, event.EndPeriod, loc))
}
