package validation

import (
	"testing"
	"time"
)

func TestSanitizeSymbol(t *testing.T) {
	tests := []struct {
		in   string
		want string
	}{
		{" tsla ", "TSLA"},
		{"AAPL", "AAPL"},
		{"brk.b", "BRK.B"},
		{"\x00msft\x01", "MSFT"},
		{"   ", ""},
	}
	for _, tt := range tests {
		if got := SanitizeSymbol(tt.in); got != tt.want {
			t.Errorf("SanitizeSymbol(%q) = %q, want %q", tt.in, got, tt.want)
		}
	}
}

func TestSanitizePrice(t *testing.T) {
	tests := []struct {
		in   float64
		want float64
	}{
		{187.5, 187.5},
		{0, 0.01},
		{-3, 0.01},
		{2000000, 1000000},
	}
	for _, tt := range tests {
		if got := SanitizePrice(tt.in); got != tt.want {
			t.Errorf("SanitizePrice(%v) = %v, want %v", tt.in, got, tt.want)
		}
	}
}

func TestSanitizeObservedAt(t *testing.T) {
	past := time.Now().Add(-time.Hour)
	if got := SanitizeObservedAt(past); !got.Equal(past) {
		t.Errorf("past timestamp altered: %v", got)
	}

	future := time.Now().Add(time.Hour)
	if got := SanitizeObservedAt(future); got.After(time.Now()) {
		t.Errorf("future timestamp not clamped: %v", got)
	}

	if got := SanitizeObservedAt(time.Time{}); got.IsZero() {
		t.Error("zero timestamp not defaulted")
	}
}

func TestValidateStruct_Ticker(t *testing.T) {
	type sample struct {
		Symbol string `validate:"required,ticker"`
	}

	if errs := ValidateStruct(sample{Symbol: "TSLA"}); len(errs) != 0 {
		t.Errorf("valid ticker rejected: %v", errs)
	}
	if errs := ValidateStruct(sample{Symbol: "tsla!"}); len(errs) == 0 {
		t.Error("invalid ticker accepted")
	}
	if errs := ValidateStruct(sample{}); len(errs) == 0 {
		t.Error("missing ticker accepted")
	}
}
