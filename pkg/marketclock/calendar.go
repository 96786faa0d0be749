package marketclock

import "time"

// HolidayCalendar answers whether the exchange is fully closed on a civil
// date. Implementations are versioned by year so the clock can distinguish
// "no holidays that day" from "no data for that year".
type HolidayCalendar interface {
	IsHoliday(year int, month time.Month, day int) bool
	HasYear(year int) bool
}

// AbsentYearPolicy decides how the clock treats a civil date whose year is
// missing from the calendar data.
type AbsentYearPolicy int

const (
	// AssumeNoHolidays treats an absent year as holiday-free.
	AssumeNoHolidays AbsentYearPolicy = iota
	// FailClosed treats every day of an absent year as a full-closure day.
	FailClosed
)

// StaticCalendar is an immutable year -> closure-date table.
type StaticCalendar struct {
	years map[int]map[civil]struct{}
}

type civil struct {
	m time.Month
	d int
}

// NewStaticCalendar copies the given table. Dates are exchange-local civil
// dates on which the exchange does not trade at all.
func NewStaticCalendar(table map[int][]time.Time) *StaticCalendar {
	years := make(map[int]map[civil]struct{}, len(table))
	for year, dates := range table {
		set := make(map[civil]struct{}, len(dates))
		for _, d := range dates {
			set[civil{d.Month(), d.Day()}] = struct{}{}
		}
		years[year] = set
	}
	return &StaticCalendar{years: years}
}

// IsHoliday reports whether the given civil date is a full-closure day.
func (c *StaticCalendar) IsHoliday(year int, month time.Month, day int) bool {
	set, ok := c.years[year]
	if !ok {
		return false
	}
	_, closed := set[civil{month, day}]
	return closed
}

// HasYear reports whether the calendar carries data for the given year.
func (c *StaticCalendar) HasYear(year int) bool {
	_, ok := c.years[year]
	return ok
}

func d(year int, month time.Month, day int) time.Time {
	return time.Date(year, month, day, 0, 0, 0, 0, time.UTC)
}

// USEquityHolidays returns the full-closure days of the US equity exchanges
// for the years this build knows about.
func USEquityHolidays() *StaticCalendar {
	return NewStaticCalendar(map[int][]time.Time{
		2024: {
			d(2024, time.January, 1), d(2024, time.January, 15),
			d(2024, time.February, 19), d(2024, time.March, 29),
			d(2024, time.May, 27), d(2024, time.June, 19),
			d(2024, time.July, 4), d(2024, time.September, 2),
			d(2024, time.November, 28), d(2024, time.December, 25),
		},
		2025: {
			d(2025, time.January, 1), d(2025, time.January, 20),
			d(2025, time.February, 17), d(2025, time.April, 18),
			d(2025, time.May, 26), d(2025, time.June, 19),
			d(2025, time.July, 4), d(2025, time.September, 1),
			d(2025, time.November, 27), d(2025, time.December, 25),
		},
		2026: {
			d(2026, time.January, 1), d(2026, time.January, 19),
			d(2026, time.February, 16), d(2026, time.April, 3),
			d(2026, time.May, 25), d(2026, time.June, 19),
			d(2026, time.July, 3), d(2026, time.September, 7),
			d(2026, time.November, 26), d(2026, time.December, 25),
		},
	})
}
