package store

import (
	"testing"
	"time"

	"github.com/shopspring/decimal"

	"github.com/alim08/price_cache/pkg/models"
)

func TestOptionKeysPredicate(t *testing.T) {
	keys := []models.OptionKey{
		models.NewOptionKey("TSLA", time.Date(2026, 2, 27, 0, 0, 0, 0, time.UTC), decimal.RequireFromString("455"), models.Call),
		models.NewOptionKey("AAPL", time.Date(2025, 12, 19, 0, 0, 0, 0, time.UTC), decimal.RequireFromString("187.5"), models.Put),
	}

	predicate, args := optionKeysPredicate(keys)

	want := "(symbol, expiration, strike, option_type) IN (($1, $2::date, $3::numeric, $4), ($5, $6::date, $7::numeric, $8))"
	if predicate != want {
		t.Errorf("predicate = %q, want %q", predicate, want)
	}

	wantArgs := []interface{}{
		"TSLA", "2026-02-27", "455", "call",
		"AAPL", "2025-12-19", "187.5", "put",
	}
	if len(args) != len(wantArgs) {
		t.Fatalf("got %d args, want %d", len(args), len(wantArgs))
	}
	for i := range wantArgs {
		if args[i] != wantArgs[i] {
			t.Errorf("args[%d] = %v, want %v", i, args[i], wantArgs[i])
		}
	}
}

func TestOptionKeysPredicate_SingleKey(t *testing.T) {
	keys := []models.OptionKey{
		models.NewOptionKey("TSLA", time.Date(2026, 2, 27, 0, 0, 0, 0, time.UTC), decimal.NewFromInt(455), models.Call),
	}
	predicate, args := optionKeysPredicate(keys)
	if want := "(symbol, expiration, strike, option_type) IN (($1, $2::date, $3::numeric, $4))"; predicate != want {
		t.Errorf("predicate = %q, want %q", predicate, want)
	}
	if len(args) != 4 {
		t.Errorf("got %d args, want 4", len(args))
	}
}
