package models

import (
	"time"

	"github.com/shopspring/decimal"
)

// PositionKind tags what a brokerage position holds.
type PositionKind string

const (
	StockPosition  PositionKind = "stock"
	OptionPosition PositionKind = "option"
	CashPosition   PositionKind = "cash"
)

// Position is one account position record as supplied by the position
// source. The cache only reads these; it never validates or persists them.
type Position struct {
	Account  string       `json:"account"`
	Kind     PositionKind `json:"kind"`
	Ticker   string       `json:"ticker"`
	Quantity float64      `json:"quantity"`

	// Option fields; zero values mean unknown.
	Expiration time.Time       `json:"expiration,omitempty"`
	Strike     decimal.Decimal `json:"strike,omitempty"`
	OptionType OptionType      `json:"option_type,omitempty"`
}

// HasContractTerms reports whether the position carries enough detail to
// form an option key.
func (p Position) HasContractTerms() bool {
	return !p.Expiration.IsZero() && p.Strike.Sign() > 0
}
