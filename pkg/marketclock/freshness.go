package marketclock

import "time"

// Default TTLs: quotes turn over quickly during regular hours and barely at
// all outside them.
const (
	DefaultOpenTTL     = 20 * time.Minute
	DefaultOffHoursTTL = 2 * time.Hour
)

// FreshnessPolicy maps a session to the maximum age at which a cached
// observation is still usable. It never touches the network or the store.
type FreshnessPolicy struct {
	OpenTTL     time.Duration
	OffHoursTTL time.Duration
}

// NewFreshnessPolicy returns the default policy; zero durations fall back to
// the defaults.
func NewFreshnessPolicy(open, offHours time.Duration) FreshnessPolicy {
	if open <= 0 {
		open = DefaultOpenTTL
	}
	if offHours <= 0 {
		offHours = DefaultOffHoursTTL
	}
	return FreshnessPolicy{OpenTTL: open, OffHoursTTL: offHours}
}

// TTL returns the time-to-live of a cached observation under the session.
func (p FreshnessPolicy) TTL(s Session) time.Duration {
	if s == Open {
		return p.OpenTTL
	}
	return p.OffHoursTTL
}

// IsFresh reports whether an observation taken at updatedAt is still usable
// at now under the given session.
func (p FreshnessPolicy) IsFresh(updatedAt, now time.Time, s Session) bool {
	return now.Sub(updatedAt) <= p.TTL(s)
}
