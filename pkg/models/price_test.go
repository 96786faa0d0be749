package models

import (
	"strings"
	"testing"
	"time"

	"github.com/shopspring/decimal"
)

func TestOptionKey_String(t *testing.T) {
	key := NewOptionKey("tsla", time.Date(2026, 2, 27, 15, 4, 5, 0, time.UTC), decimal.RequireFromString("455"), Call)
	if got, want := key.String(), "TSLA|2026-02-27|455.0000|call"; got != want {
		t.Errorf("String() = %q, want %q", got, want)
	}
}

func TestOptionKey_StringStableAcrossStrikeForms(t *testing.T) {
	exp := time.Date(2026, 2, 27, 0, 0, 0, 0, time.UTC)
	a := NewOptionKey("TSLA", exp, decimal.RequireFromString("455"), Call)
	b := NewOptionKey("TSLA", exp, decimal.RequireFromString("455.00"), Call)
	if a.String() != b.String() {
		t.Errorf("equal strikes encode differently: %q vs %q", a.String(), b.String())
	}
}

func TestNewOptionKey_DefaultsTypeToCall(t *testing.T) {
	key := NewOptionKey("AAPL", time.Date(2025, 12, 19, 0, 0, 0, 0, time.UTC), decimal.NewFromInt(190), "")
	if key.Type != Call {
		t.Errorf("Type = %q, want call", key.Type)
	}
}

func TestParseOptionKey_RoundTrip(t *testing.T) {
	tests := []string{
		"TSLA|2026-02-27|455.0000|call",
		"AAPL|2025-12-19|187.5000|put",
	}
	for _, s := range tests {
		key, err := ParseOptionKey(s)
		if err != nil {
			t.Fatalf("ParseOptionKey(%q) error: %v", s, err)
		}
		if got := key.String(); got != s {
			t.Errorf("round trip: got %q, want %q", got, s)
		}
	}
}

func TestParseOptionKey_Invalid(t *testing.T) {
	tests := []string{
		"",
		"TSLA|2026-02-27|455.0000",          // missing type
		"TSLA|2026-02-27|455.0000|straddle", // unknown type
		"TSLA|02/27/2026|455.0000|call",     // wrong date form
		"TSLA|2026-02-27|abc|call",          // bad strike
	}
	for _, s := range tests {
		if _, err := ParseOptionKey(s); err == nil {
			t.Errorf("ParseOptionKey(%q): expected error", s)
		}
	}
}

func TestOptionKey_Validate(t *testing.T) {
	exp := time.Date(2026, 2, 27, 0, 0, 0, 0, time.UTC)
	good := NewOptionKey("TSLA", exp, decimal.NewFromInt(455), Call)
	if err := good.Validate(); err != nil {
		t.Errorf("valid key rejected: %v", err)
	}

	zeroStrike := NewOptionKey("TSLA", exp, decimal.Zero, Call)
	if err := zeroStrike.Validate(); err == nil {
		t.Error("zero strike accepted")
	}
}

func TestPlaceholderRecord(t *testing.T) {
	now := time.Date(2025, 6, 10, 12, 0, 0, 0, time.UTC)
	rec := PlaceholderRecord(" iiaxx ", now)
	if rec.Symbol != "IIAXX" {
		t.Errorf("Symbol = %q, want IIAXX", rec.Symbol)
	}
	if rec.Price != 1 {
		t.Errorf("Price = %v, want 1", rec.Price)
	}
	if rec.Change != 0 {
		t.Errorf("Change = %v, want 0", rec.Change)
	}
	if !rec.UpdatedAt.Equal(now) {
		t.Errorf("UpdatedAt = %v, want %v", rec.UpdatedAt, now)
	}
	if err := rec.Validate(); err != nil {
		t.Errorf("placeholder record invalid: %v", err)
	}
}

func TestPriceRecord_Validate(t *testing.T) {
	now := time.Now()
	tests := []struct {
		name    string
		rec     PriceRecord
		wantErr bool
	}{
		{"valid", PriceRecord{Symbol: "AAPL", Price: 187.5, UpdatedAt: now}, false},
		{"missing symbol", PriceRecord{Price: 187.5, UpdatedAt: now}, true},
		{"bad symbol", PriceRecord{Symbol: "aapl!", Price: 187.5, UpdatedAt: now}, true},
		{"zero price", PriceRecord{Symbol: "AAPL", UpdatedAt: now}, true},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			err := tt.rec.Validate()
			if (err != nil) != tt.wantErr {
				t.Errorf("Validate() error = %v, wantErr %v", err, tt.wantErr)
			}
		})
	}
}

func TestPriceRecord_Sanitize(t *testing.T) {
	rec := PriceRecord{Symbol: " tsla ", Price: 420.123456789, UpdatedAt: time.Now().Add(time.Hour)}
	rec.Sanitize()
	if rec.Symbol != "TSLA" {
		t.Errorf("Symbol = %q, want TSLA", rec.Symbol)
	}
	if rec.UpdatedAt.After(time.Now()) {
		t.Error("future UpdatedAt survived sanitization")
	}
}

func TestRefreshSummary_ToJSON(t *testing.T) {
	ok := RefreshSummary{Requested: 5, Updated: 5}
	s, err := ok.ToJSON()
	if err != nil {
		t.Fatalf("ToJSON error: %v", err)
	}
	if strings.Contains(s, "error") {
		t.Errorf("empty Err serialized: %s", s)
	}

	failed := RefreshSummary{Requested: 5, Err: "upstream unavailable"}
	s, err = failed.ToJSON()
	if err != nil {
		t.Fatalf("ToJSON error: %v", err)
	}
	if !strings.Contains(s, "upstream unavailable") {
		t.Errorf("Err missing from serialization: %s", s)
	}
}
