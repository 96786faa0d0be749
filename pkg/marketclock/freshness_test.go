package marketclock

import (
	"testing"
	"time"
)

func TestFreshnessPolicy_IsFresh(t *testing.T) {
	policy := NewFreshnessPolicy(0, 0) // defaults: 20m open, 2h off-hours
	now := time.Date(2025, 6, 10, 12, 0, 0, 0, time.UTC)

	tests := []struct {
		name    string
		age     time.Duration
		session Session
		want    bool
	}{
		{"open just under ttl", 19 * time.Minute, Open, true},
		{"open exactly at ttl", 20 * time.Minute, Open, true},
		{"open just over ttl", 21 * time.Minute, Open, false},
		{"closed just under ttl", time.Hour + 59*time.Minute, Closed, true},
		{"closed just over ttl", 2*time.Hour + time.Minute, Closed, false},
		{"pre-market uses off-hours ttl", 90 * time.Minute, PreMarket, true},
		{"after-hours uses off-hours ttl", 90 * time.Minute, AfterHours, true},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			updatedAt := now.Add(-tt.age)
			if got := policy.IsFresh(updatedAt, now, tt.session); got != tt.want {
				t.Errorf("IsFresh(age=%v, session=%v) = %v, want %v", tt.age, tt.session, got, tt.want)
			}
		})
	}
}

func TestNewFreshnessPolicy_Overrides(t *testing.T) {
	policy := NewFreshnessPolicy(5*time.Minute, 30*time.Minute)
	if got := policy.TTL(Open); got != 5*time.Minute {
		t.Errorf("TTL(Open) = %v, want 5m", got)
	}
	if got := policy.TTL(AfterHours); got != 30*time.Minute {
		t.Errorf("TTL(AfterHours) = %v, want 30m", got)
	}
}
