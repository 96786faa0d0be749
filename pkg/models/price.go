package models

import (
	"encoding/json"
	"fmt"
	"strings"
	"time"

	"github.com/shopspring/decimal"

	"github.com/alim08/price_cache/pkg/validation"
)

// OptionType distinguishes calls from puts.
type OptionType string

const (
	Call OptionType = "call"
	Put  OptionType = "put"
)

// ExpirationFormat is the civil-date form used for option expirations.
const ExpirationFormat = "2006-01-02"

// PriceRecord is the cached quote for one equity symbol. The symbol is the
// unique key; records are overwritten in place by upsert.
type PriceRecord struct {
	Symbol        string    `json:"symbol" validate:"required,ticker"`
	Price         float64   `json:"price" validate:"required,price"`
	Change        float64   `json:"change"`
	ChangePercent float64   `json:"change_percent"`
	UpdatedAt     time.Time `json:"updated_at" validate:"required"`
}

// Validate validates the PriceRecord struct
func (p PriceRecord) Validate() error {
	if errors := validation.ValidateStruct(p); len(errors) > 0 {
		return errors
	}
	return nil
}

// Sanitize cleans the PriceRecord data
func (p *PriceRecord) Sanitize() {
	p.Symbol = validation.SanitizeSymbol(p.Symbol)
	p.Price = validation.SanitizePrice(p.Price)
	p.UpdatedAt = validation.SanitizeObservedAt(p.UpdatedAt)
}

// PlaceholderRecord builds the synthetic record assigned to non-quotable
// cash-equivalent symbols. Those never consume upstream quote calls.
func PlaceholderRecord(symbol string, now time.Time) PriceRecord {
	return PriceRecord{
		Symbol:    validation.SanitizeSymbol(symbol),
		Price:     1,
		Change:    0,
		UpdatedAt: now,
	}
}

// OptionKey identifies an option contract's cached premium. Uniqueness is the
// full 4-tuple; there is no surrogate identity.
type OptionKey struct {
	Symbol     string          `json:"symbol" validate:"required,ticker"`
	Expiration time.Time       `json:"expiration" validate:"required"`
	Strike     decimal.Decimal `json:"strike"`
	Type       OptionType      `json:"option_type" validate:"required,optiontype"`
}

// NewOptionKey builds a normalized key: symbol uppercased, expiration
// truncated to its civil date, empty type defaulted to call.
func NewOptionKey(symbol string, expiration time.Time, strike decimal.Decimal, typ OptionType) OptionKey {
	if typ != Put {
		typ = Call
	}
	return OptionKey{
		Symbol:     validation.SanitizeSymbol(symbol),
		Expiration: civilDate(expiration),
		Strike:     strike,
		Type:       typ,
	}
}

// String renders the canonical encoding of the 4-tuple. It is stable across
// equal keys and is used for dedup and as the map key on batched reads.
func (k OptionKey) String() string {
	return strings.Join([]string{
		k.Symbol,
		k.Expiration.Format(ExpirationFormat),
		k.Strike.StringFixed(4),
		string(k.Type),
	}, "|")
}

// ParseOptionKey decodes the canonical "SYMBOL|YYYY-MM-DD|STRIKE|TYPE"
// encoding produced by OptionKey.String.
func ParseOptionKey(s string) (OptionKey, error) {
	parts := strings.Split(s, "|")
	if len(parts) != 4 {
		return OptionKey{}, fmt.Errorf("invalid option key %q: want 4 fields, got %d", s, len(parts))
	}
	expiration, err := time.Parse(ExpirationFormat, parts[1])
	if err != nil {
		return OptionKey{}, fmt.Errorf("invalid option key %q: %w", s, err)
	}
	strike, err := decimal.NewFromString(parts[2])
	if err != nil {
		return OptionKey{}, fmt.Errorf("invalid option key %q: %w", s, err)
	}
	typ := OptionType(strings.ToLower(strings.TrimSpace(parts[3])))
	if typ != Call && typ != Put {
		return OptionKey{}, fmt.Errorf("invalid option key %q: unknown type %q", s, parts[3])
	}
	return NewOptionKey(parts[0], expiration, strike, typ), nil
}

// Validate validates the OptionKey struct
func (k OptionKey) Validate() error {
	if errors := validation.ValidateStruct(k); len(errors) > 0 {
		return errors
	}
	if k.Strike.Sign() <= 0 {
		return fmt.Errorf("strike must be positive, got %s", k.Strike)
	}
	return nil
}

// OptionPriceRecord is the cached premium for one option contract, keyed by
// the contract 4-tuple.
type OptionPriceRecord struct {
	OptionKey
	Price     float64   `json:"price" validate:"required,price"`
	UpdatedAt time.Time `json:"updated_at" validate:"required"`
}

// Sanitize cleans the OptionPriceRecord data
func (r *OptionPriceRecord) Sanitize() {
	r.Symbol = validation.SanitizeSymbol(r.Symbol)
	r.Expiration = civilDate(r.Expiration)
	r.Price = validation.SanitizePrice(r.Price)
	r.UpdatedAt = validation.SanitizeObservedAt(r.UpdatedAt)
}

// Validate validates the OptionPriceRecord struct
func (r OptionPriceRecord) Validate() error {
	if err := r.OptionKey.Validate(); err != nil {
		return err
	}
	if errors := validation.ValidateStruct(r); len(errors) > 0 {
		return errors
	}
	return nil
}

// OptionPremium is the read-side projection returned by batched premium
// lookups: price plus the observation instant the caller judges freshness by.
type OptionPremium struct {
	Price     float64   `json:"price"`
	UpdatedAt time.Time `json:"updated_at"`
}

// RefreshSummary reports one coordinator invocation back to its trigger. It
// is transient and never persisted.
type RefreshSummary struct {
	Requested int    `json:"requested"`
	Updated   int    `json:"updated"`
	Err       string `json:"error,omitempty"`
}

// ToJSON converts the summary to a JSON string for logging
func (s RefreshSummary) ToJSON() (string, error) {
	data, err := json.Marshal(s)
	if err != nil {
		return "", fmt.Errorf("json marshal error: %w", err)
	}
	return string(data), nil
}

// civilDate truncates an instant to its UTC civil date; expirations carry no
// intraday component.
func civilDate(t time.Time) time.Time {
	y, m, d := t.Date()
	return time.Date(y, m, d, 0, 0, 0, 0, time.UTC)
}
