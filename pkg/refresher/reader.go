package refresher

import (
	"context"

	"github.com/alim08/price_cache/pkg/models"
	"github.com/alim08/price_cache/pkg/store"
	"github.com/alim08/price_cache/pkg/validation"
)

// Reader is the read-only batched lookup surface over the price store. It
// applies no freshness filtering: callers judge staleness themselves from
// each record's UpdatedAt.
type Reader struct {
	prices store.PriceStore
}

// NewReader builds a Reader over the given store.
func NewReader(prices store.PriceStore) *Reader {
	return &Reader{prices: prices}
}

// CachedStockPrices returns whatever subset of the requested symbols exists
// in the cache. Input is uppercased and deduplicated; empty input returns an
// empty map without touching the store. Missing symbols are simply absent.
func (r *Reader) CachedStockPrices(ctx context.Context, symbols []string) (map[string]models.PriceRecord, error) {
	seen := make(map[string]struct{}, len(symbols))
	normalized := make([]string, 0, len(symbols))
	for _, raw := range symbols {
		s := validation.SanitizeSymbol(raw)
		if s == "" {
			continue
		}
		if _, dup := seen[s]; dup {
			continue
		}
		seen[s] = struct{}{}
		normalized = append(normalized, s)
	}
	if len(normalized) == 0 {
		return map[string]models.PriceRecord{}, nil
	}
	return r.prices.StockPricesBySymbols(ctx, normalized)
}

// CachedOptionPremiums returns cached premiums for the requested contracts,
// keyed by the canonical encoding of each 4-tuple. Input keys are
// deduplicated; empty input returns an empty map without a store query.
func (r *Reader) CachedOptionPremiums(ctx context.Context, keys []models.OptionKey) (map[string]models.OptionPremium, error) {
	seen := make(map[string]struct{}, len(keys))
	deduped := make([]models.OptionKey, 0, len(keys))
	for _, raw := range keys {
		key := models.NewOptionKey(raw.Symbol, raw.Expiration, raw.Strike, raw.Type)
		canonical := key.String()
		if _, dup := seen[canonical]; dup {
			continue
		}
		seen[canonical] = struct{}{}
		deduped = append(deduped, key)
	}
	if len(deduped) == 0 {
		return map[string]models.OptionPremium{}, nil
	}
	return r.prices.OptionPremiumsByKeys(ctx, deduped)
}
