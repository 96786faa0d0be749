// Package marketclock classifies instants against a single exchange's
// trading calendar and derives the freshness policy for cached quotes.
package marketclock

import (
	"fmt"
	"time"
)

// Session is the classification of an instant relative to the exchange
// calendar. It is derived, never stored.
type Session int

const (
	Closed Session = iota
	PreMarket
	Open
	AfterHours
)

// String returns the session name for logs and API payloads.
func (s Session) String() string {
	switch s {
	case PreMarket:
		return "pre_market"
	case Open:
		return "open"
	case AfterHours:
		return "after_hours"
	default:
		return "closed"
	}
}

// Exchange-local session band boundaries, in minutes since midnight.
// Bands are closed-open on the lower bound: 09:30:00 is Open.
const (
	preMarketStart = 4 * 60
	openStart      = 9*60 + 30
	closeStart     = 16 * 60
	afterHoursEnd  = 20 * 60
)

// DefaultExchangeTZ is the tz database name of the exchange timezone.
const DefaultExchangeTZ = "America/New_York"

// Clock converts instants to exchange-local civil time and classifies them.
// All methods are pure and total over any instant.
type Clock struct {
	loc    *time.Location
	cal    HolidayCalendar
	policy AbsentYearPolicy
}

// New builds a Clock for the exchange timezone. A nil calendar means no
// holiday data at all, which the absent-year policy then governs.
func New(cal HolidayCalendar, policy AbsentYearPolicy) (*Clock, error) {
	loc, err := time.LoadLocation(DefaultExchangeTZ)
	if err != nil {
		return nil, fmt.Errorf("load exchange timezone: %w", err)
	}
	return &Clock{loc: loc, cal: cal, policy: policy}, nil
}

// SessionAt classifies the instant t.
func (c *Clock) SessionAt(t time.Time) Session {
	local := t.In(c.loc)
	if !c.tradingDay(local) {
		return Closed
	}

	minute := local.Hour()*60 + local.Minute()
	switch {
	case minute < preMarketStart:
		return Closed
	case minute < openStart:
		return PreMarket
	case minute < closeStart:
		return Open
	case minute < afterHoursEnd:
		return AfterHours
	default:
		return Closed
	}
}

// NextOpen returns the first 09:30 exchange-local instant strictly after the
// open of the civil date of `after` has passed.
func (c *Clock) NextOpen(after time.Time) time.Time {
	return c.nextBoundary(after, openStart)
}

// NextClose returns the first 16:00 exchange-local instant strictly after
// the close of the civil date of `after` has passed.
func (c *Clock) NextClose(after time.Time) time.Time {
	return c.nextBoundary(after, closeStart)
}

func (c *Clock) nextBoundary(after time.Time, minuteOfDay int) time.Time {
	local := after.In(c.loc)
	candidate := time.Date(local.Year(), local.Month(), local.Day(),
		minuteOfDay/60, minuteOfDay%60, 0, 0, c.loc)
	if !local.Before(candidate) {
		candidate = candidate.AddDate(0, 0, 1)
	}
	// Under FailClosed an absent year makes every day a closure day; cap the
	// scan so the function stays total and return the last candidate.
	for i := 0; i < 2*366 && !c.tradingDay(candidate); i++ {
		candidate = candidate.AddDate(0, 0, 1)
	}
	return candidate
}

// tradingDay reports whether the exchange trades at all on the civil date of
// the exchange-local instant.
func (c *Clock) tradingDay(local time.Time) bool {
	switch local.Weekday() {
	case time.Saturday, time.Sunday:
		return false
	}
	year, month, day := local.Date()
	if c.cal == nil || !c.cal.HasYear(year) {
		return c.policy != FailClosed
	}
	return !c.cal.IsHoliday(year, month, day)
}
