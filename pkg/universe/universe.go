// Package universe derives the set of instruments that need pricing from a
// collection of brokerage position records.
package universe

import (
	"regexp"
	"sort"

	"github.com/alim08/price_cache/pkg/models"
	"github.com/alim08/price_cache/pkg/validation"
)

// Money-market and sweep tickers end in a double-X by convention; those are
// cash equivalents with no real quote.
var cashEquivalentPattern = regexp.MustCompile(`^[A-Z]+XX$`)

// defaultPlaceholders are known non-quotable symbols recognized outside the
// suffix rule.
var defaultPlaceholders = map[string]struct{}{
	"IIAXX": {},
}

// StockSymbols returns the deduplicated set of equity symbols referenced by
// the positions: stock tickers directly, plus the underlying of every option
// position. Output is sorted for deterministic batching.
func StockSymbols(positions []models.Position) []string {
	set := make(map[string]struct{})
	for _, p := range positions {
		switch p.Kind {
		case models.StockPosition:
			if s := validation.SanitizeSymbol(p.Ticker); s != "" {
				set[s] = struct{}{}
			}
		case models.OptionPosition:
			if s := UnderlyingSymbol(p.Ticker); s != "" {
				set[s] = struct{}{}
			}
		}
	}
	symbols := make([]string, 0, len(set))
	for s := range set {
		symbols = append(symbols, s)
	}
	sort.Strings(symbols)
	return symbols
}

// OptionKeys returns the deduplicated contract keys of every option position
// with known expiration and strike. Positions across accounts referencing
// the identical contract collapse to one key. Option type defaults to call
// when the position does not carry one.
func OptionKeys(positions []models.Position) []models.OptionKey {
	seen := make(map[string]struct{})
	var keys []models.OptionKey
	for _, p := range positions {
		if p.Kind != models.OptionPosition {
			continue
		}
		key, ok := contractKey(p)
		if !ok {
			continue
		}
		canonical := key.String()
		if _, dup := seen[canonical]; dup {
			continue
		}
		seen[canonical] = struct{}{}
		keys = append(keys, key)
	}
	sort.Slice(keys, func(i, j int) bool { return keys[i].String() < keys[j].String() })
	return keys
}

// contractKey assembles the 4-tuple for one option position, preferring the
// explicit fields and falling back to terms decoded from the ticker.
func contractKey(p models.Position) (models.OptionKey, bool) {
	if p.HasContractTerms() {
		return models.NewOptionKey(UnderlyingSymbol(p.Ticker), p.Expiration, p.Strike, p.OptionType), true
	}
	ct, ok := ParseContractTicker(p.Ticker)
	if !ok {
		return models.OptionKey{}, false
	}
	return models.NewOptionKey(ct.Root, ct.Expiration, ct.Strike, ct.Type), true
}

// Partition splits symbols into the quotable set and the placeholder-only
// set. Placeholder symbols are assigned a synthetic price and never sent
// upstream. Pure and total.
func Partition(symbols []string) (quotable, placeholder []string) {
	for _, raw := range symbols {
		s := validation.SanitizeSymbol(raw)
		if s == "" {
			continue
		}
		if isPlaceholder(s) {
			placeholder = append(placeholder, s)
		} else {
			quotable = append(quotable, s)
		}
	}
	return quotable, placeholder
}

// RegisterPlaceholders adds symbols to the known cash-equivalent set. Call
// from main before any refresh runs; the set is not synchronized.
func RegisterPlaceholders(symbols ...string) {
	for _, raw := range symbols {
		if s := validation.SanitizeSymbol(raw); s != "" {
			defaultPlaceholders[s] = struct{}{}
		}
	}
}

func isPlaceholder(symbol string) bool {
	if _, ok := defaultPlaceholders[symbol]; ok {
		return true
	}
	return cashEquivalentPattern.MatchString(symbol)
}
