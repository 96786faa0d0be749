package store

import (
	"context"
	"fmt"
	"strings"
	"time"

	"github.com/lib/pq"

	"github.com/alim08/price_cache/pkg/metrics"
	"github.com/alim08/price_cache/pkg/models"
)

// PriceStore is the persistence surface the refresh coordinator and the
// cache reader depend on. Upsert is the only mutation path; there is no
// delete.
type PriceStore interface {
	UpsertStockPrice(ctx context.Context, rec *models.PriceRecord) error
	UpsertOptionPrice(ctx context.Context, rec *models.OptionPriceRecord) error
	StockPricesBySymbols(ctx context.Context, symbols []string) (map[string]models.PriceRecord, error)
	OptionPremiumsByKeys(ctx context.Context, keys []models.OptionKey) (map[string]models.OptionPremium, error)
}

// priceStore implements PriceStore on Postgres
type priceStore struct {
	db *DB
}

// NewPriceStore creates a PriceStore backed by the given connection
func NewPriceStore(db *DB) PriceStore {
	return &priceStore{db: db}
}

// UpsertStockPrice inserts or overwrites the record for its symbol.
func (s *priceStore) UpsertStockPrice(ctx context.Context, rec *models.PriceRecord) error {
	start := time.Now()
	defer func() {
		metrics.DatabaseOperationDuration.WithLabelValues("upsert_stock_price", "success").Observe(time.Since(start).Seconds())
	}()

	rec.Sanitize()
	if err := rec.Validate(); err != nil {
		return fmt.Errorf("stock price validation failed: %w", err)
	}

	query := `
		INSERT INTO stock_prices (symbol, price, change, change_percent, updated_at)
		VALUES ($1, $2, $3, $4, $5)
		ON CONFLICT (symbol) DO UPDATE SET
			price = EXCLUDED.price,
			change = EXCLUDED.change,
			change_percent = EXCLUDED.change_percent,
			updated_at = EXCLUDED.updated_at
	`

	_, err := s.db.ExecContext(ctx, query,
		rec.Symbol, rec.Price, rec.Change, rec.ChangePercent, rec.UpdatedAt)
	if err != nil {
		metrics.DatabaseErrors.WithLabelValues("upsert_stock_price").Inc()
		return fmt.Errorf("failed to upsert stock price: %w", err)
	}

	metrics.DatabaseOperations.WithLabelValues("upsert_stock_price", "success").Inc()
	return nil
}

// UpsertOptionPrice inserts or overwrites the record for its 4-tuple.
func (s *priceStore) UpsertOptionPrice(ctx context.Context, rec *models.OptionPriceRecord) error {
	start := time.Now()
	defer func() {
		metrics.DatabaseOperationDuration.WithLabelValues("upsert_option_price", "success").Observe(time.Since(start).Seconds())
	}()

	rec.Sanitize()
	if err := rec.Validate(); err != nil {
		return fmt.Errorf("option price validation failed: %w", err)
	}

	query := `
		INSERT INTO option_prices (symbol, expiration, strike, option_type, price, updated_at)
		VALUES ($1, $2, $3, $4, $5, $6)
		ON CONFLICT (symbol, expiration, strike, option_type) DO UPDATE SET
			price = EXCLUDED.price,
			updated_at = EXCLUDED.updated_at
	`

	_, err := s.db.ExecContext(ctx, query,
		rec.Symbol, rec.Expiration, rec.Strike, string(rec.Type), rec.Price, rec.UpdatedAt)
	if err != nil {
		metrics.DatabaseErrors.WithLabelValues("upsert_option_price").Inc()
		return fmt.Errorf("failed to upsert option price: %w", err)
	}

	metrics.DatabaseOperations.WithLabelValues("upsert_option_price", "success").Inc()
	return nil
}

// StockPricesBySymbols returns whatever subset of the requested symbols
// exists. Missing symbols are simply absent from the result.
func (s *priceStore) StockPricesBySymbols(ctx context.Context, symbols []string) (map[string]models.PriceRecord, error) {
	start := time.Now()
	defer func() {
		metrics.DatabaseOperationDuration.WithLabelValues("stock_prices_by_symbols", "success").Observe(time.Since(start).Seconds())
	}()

	query := `
		SELECT symbol, price, change, change_percent, updated_at
		FROM stock_prices
		WHERE symbol = ANY($1)
	`

	rows, err := s.db.QueryContext(ctx, query, pq.Array(symbols))
	if err != nil {
		metrics.DatabaseErrors.WithLabelValues("stock_prices_by_symbols").Inc()
		return nil, fmt.Errorf("failed to query stock prices: %w", err)
	}
	defer rows.Close()

	records := make(map[string]models.PriceRecord)
	for rows.Next() {
		var rec models.PriceRecord
		if err := rows.Scan(&rec.Symbol, &rec.Price, &rec.Change, &rec.ChangePercent, &rec.UpdatedAt); err != nil {
			return nil, fmt.Errorf("failed to scan stock price: %w", err)
		}
		records[rec.Symbol] = rec
	}

	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("error iterating stock prices: %w", err)
	}

	metrics.DatabaseOperations.WithLabelValues("stock_prices_by_symbols", "success").Inc()
	return records, nil
}

// OptionPremiumsByKeys issues one disjunctive query over the exact 4-tuples
// and returns the result keyed by the canonical key encoding.
func (s *priceStore) OptionPremiumsByKeys(ctx context.Context, keys []models.OptionKey) (map[string]models.OptionPremium, error) {
	start := time.Now()
	defer func() {
		metrics.DatabaseOperationDuration.WithLabelValues("option_premiums_by_keys", "success").Observe(time.Since(start).Seconds())
	}()

	predicate, args := optionKeysPredicate(keys)
	query := `
		SELECT symbol, expiration, strike, option_type, price, updated_at
		FROM option_prices
		WHERE ` + predicate

	rows, err := s.db.QueryContext(ctx, query, args...)
	if err != nil {
		metrics.DatabaseErrors.WithLabelValues("option_premiums_by_keys").Inc()
		return nil, fmt.Errorf("failed to query option premiums: %w", err)
	}
	defer rows.Close()

	premiums := make(map[string]models.OptionPremium)
	for rows.Next() {
		var rec models.OptionPriceRecord
		var typ string
		if err := rows.Scan(&rec.Symbol, &rec.Expiration, &rec.Strike, &typ, &rec.Price, &rec.UpdatedAt); err != nil {
			return nil, fmt.Errorf("failed to scan option premium: %w", err)
		}
		rec.Type = models.OptionType(typ)
		key := models.NewOptionKey(rec.Symbol, rec.Expiration, rec.Strike, rec.Type)
		premiums[key.String()] = models.OptionPremium{Price: rec.Price, UpdatedAt: rec.UpdatedAt}
	}

	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("error iterating option premiums: %w", err)
	}

	metrics.DatabaseOperations.WithLabelValues("option_premiums_by_keys", "success").Inc()
	return premiums, nil
}

// optionKeysPredicate renders "(symbol, expiration, strike, option_type) IN
// ((...), ...)" with positional parameters for the given keys.
func optionKeysPredicate(keys []models.OptionKey) (string, []interface{}) {
	tuples := make([]string, 0, len(keys))
	args := make([]interface{}, 0, len(keys)*4)
	for i, key := range keys {
		n := i * 4
		tuples = append(tuples, fmt.Sprintf("($%d, $%d::date, $%d::numeric, $%d)", n+1, n+2, n+3, n+4))
		args = append(args,
			key.Symbol,
			key.Expiration.Format(models.ExpirationFormat),
			key.Strike.String(),
			string(key.Type))
	}
	return "(symbol, expiration, strike, option_type) IN (" + strings.Join(tuples, ", ") + ")", args
}
