// Package refresher orchestrates cache refreshes: it derives the instrument
// universe from positions, pulls quotes from the upstream source, and
// performs idempotent upserts into the price store.
package refresher

import (
	"context"
	"errors"
	"sync"
	"time"

	"go.uber.org/zap"
	"golang.org/x/sync/singleflight"

	"github.com/alim08/price_cache/pkg/logger"
	"github.com/alim08/price_cache/pkg/metrics"
	"github.com/alim08/price_cache/pkg/models"
	"github.com/alim08/price_cache/pkg/quotes"
	"github.com/alim08/price_cache/pkg/store"
	"github.com/alim08/price_cache/pkg/universe"
)

// DefaultOptionBatchSize bounds per-batch upstream concurrency on the
// option path.
const DefaultOptionBatchSize = 15

// DefaultCallTimeout caps any single upstream call so a hung request cannot
// stall its batch forever.
const DefaultCallTimeout = 10 * time.Second

// Publisher mirrors updated records into the hot cache. It is optional and
// best-effort; publish failures never fail a refresh.
type Publisher interface {
	PublishLatest(ctx context.Context, key string, payload interface{}) error
}

// Options tune a Coordinator. Zero values fall back to the defaults.
type Options struct {
	BatchSize   int
	CallTimeout time.Duration
	Publisher   Publisher
}

// Coordinator runs refresh invocations. It is stateless across invocations:
// upserts are idempotent per key, so repeated invocations converge rather
// than accumulate. Overlapping triggers of the same path coalesce through a
// single-flight group.
type Coordinator struct {
	positions store.PositionSource
	source    quotes.Source
	prices    store.PriceStore
	publisher Publisher

	batchSize   int
	callTimeout time.Duration
	now         func() time.Time

	flight singleflight.Group
}

// New builds a Coordinator over the given collaborators.
func New(positions store.PositionSource, source quotes.Source, prices store.PriceStore, opts Options) *Coordinator {
	if opts.BatchSize <= 0 {
		opts.BatchSize = DefaultOptionBatchSize
	}
	if opts.CallTimeout <= 0 {
		opts.CallTimeout = DefaultCallTimeout
	}
	return &Coordinator{
		positions:   positions,
		source:      source,
		prices:      prices,
		publisher:   opts.Publisher,
		batchSize:   opts.BatchSize,
		callTimeout: opts.CallTimeout,
		now:         time.Now,
	}
}

// RefreshStockPrices refreshes every equity symbol the positions reference.
// The upstream call is all-or-nothing: if the batch fails, no writes occur
// and the summary carries the error.
func (c *Coordinator) RefreshStockPrices(ctx context.Context) models.RefreshSummary {
	v, _, _ := c.flight.Do("stocks", func() (interface{}, error) {
		return c.refreshStocks(ctx), nil
	})
	return v.(models.RefreshSummary)
}

func (c *Coordinator) refreshStocks(ctx context.Context) models.RefreshSummary {
	start := time.Now()
	metrics.RefreshCounter.WithLabelValues("stocks").Inc()
	defer func() {
		metrics.RefreshLatency.WithLabelValues("stocks").Observe(time.Since(start).Seconds())
	}()

	positions, err := c.positions.OpenPositions(ctx)
	if err != nil {
		metrics.RefreshErrors.WithLabelValues("stocks").Inc()
		return models.RefreshSummary{Err: "load positions: " + err.Error()}
	}

	quotable, placeholder := universe.Partition(universe.StockSymbols(positions))
	requested := len(quotable) + len(placeholder)
	if requested == 0 {
		return models.RefreshSummary{}
	}

	var fetched map[string]quotes.StockQuote
	if len(quotable) > 0 {
		callCtx, cancel := context.WithTimeout(ctx, c.callTimeout)
		defer cancel()

		fetched, err = c.source.BatchStockQuotes(callCtx, quotable)
		if err != nil {
			// All-or-nothing at the upstream boundary: report, write nothing.
			metrics.RefreshErrors.WithLabelValues("stocks").Inc()
			logger.Log.Error("stock quote batch failed",
				zap.Int("symbols", len(quotable)), zap.Error(err))
			return models.RefreshSummary{Requested: requested, Err: err.Error()}
		}
	}

	now := c.now()
	updated := 0
	for _, symbol := range quotable {
		quote, ok := fetched[symbol]
		if !ok {
			continue
		}
		rec := models.PriceRecord{
			Symbol:        symbol,
			Price:         quote.Price,
			Change:        quote.Change,
			ChangePercent: quote.ChangePercent,
			UpdatedAt:     now,
		}
		if c.upsertStock(ctx, rec) {
			updated++
		}
	}
	for _, symbol := range placeholder {
		if c.upsertStock(ctx, models.PlaceholderRecord(symbol, now)) {
			updated++
		}
	}

	metrics.RefreshUpserts.WithLabelValues("stocks").Add(float64(updated))
	return models.RefreshSummary{Requested: requested, Updated: updated}
}

// upsertStock writes one record and mirrors it to the hot cache. A store
// failure drops that record from the updated count; it does not abort the
// invocation.
func (c *Coordinator) upsertStock(ctx context.Context, rec models.PriceRecord) bool {
	if err := c.prices.UpsertStockPrice(ctx, &rec); err != nil {
		logger.Log.Error("stock price upsert failed",
			zap.String("symbol", rec.Symbol), zap.Error(err))
		return false
	}
	if c.publisher != nil {
		if err := c.publisher.PublishLatest(ctx, rec.Symbol, rec); err != nil {
			logger.Log.Warn("hot cache publish failed",
				zap.String("symbol", rec.Symbol), zap.Error(err))
		}
	}
	return true
}

// premiumResult is the settled outcome of one per-key upstream call.
type premiumResult struct {
	key   models.OptionKey
	price float64
	err   error
}

// RefreshOptionPremiums refreshes every distinct option contract the
// positions reference. Failures are isolated per key: a failed call is
// logged and excluded from the updated count, and never aborts its batch or
// the batches after it.
func (c *Coordinator) RefreshOptionPremiums(ctx context.Context) models.RefreshSummary {
	v, _, _ := c.flight.Do("options", func() (interface{}, error) {
		return c.refreshOptions(ctx), nil
	})
	return v.(models.RefreshSummary)
}

func (c *Coordinator) refreshOptions(ctx context.Context) models.RefreshSummary {
	start := time.Now()
	metrics.RefreshCounter.WithLabelValues("options").Inc()
	defer func() {
		metrics.RefreshLatency.WithLabelValues("options").Observe(time.Since(start).Seconds())
	}()

	positions, err := c.positions.OpenPositions(ctx)
	if err != nil {
		metrics.RefreshErrors.WithLabelValues("options").Inc()
		return models.RefreshSummary{Err: "load positions: " + err.Error()}
	}

	keys := universe.OptionKeys(positions)
	if len(keys) == 0 {
		return models.RefreshSummary{}
	}

	updated := 0
	for batchStart := 0; batchStart < len(keys); batchStart += c.batchSize {
		batchEnd := batchStart + c.batchSize
		if batchEnd > len(keys) {
			batchEnd = len(keys)
		}
		settled := c.fetchPremiumBatch(ctx, keys[batchStart:batchEnd])

		// All results of this batch are upserted before the next batch
		// is dispatched.
		now := c.now()
		for _, res := range settled {
			switch {
			case errors.Is(res.err, quotes.ErrNotFound):
				logger.Log.Debug("no premium for contract", zap.String("key", res.key.String()))
			case res.err != nil:
				logger.Log.Warn("option premium fetch failed",
					zap.String("key", res.key.String()), zap.Error(res.err))
			default:
				rec := models.OptionPriceRecord{OptionKey: res.key, Price: res.price, UpdatedAt: now}
				if err := c.prices.UpsertOptionPrice(ctx, &rec); err != nil {
					logger.Log.Error("option price upsert failed",
						zap.String("key", res.key.String()), zap.Error(err))
					continue
				}
				updated++
			}
		}
	}

	metrics.RefreshUpserts.WithLabelValues("options").Add(float64(updated))
	return models.RefreshSummary{Requested: len(keys), Updated: updated}
}

// fetchPremiumBatch dispatches one concurrent call per key and waits for
// every call to settle before returning. Concurrency is bounded by the
// batch size; only one batch is ever in flight.
func (c *Coordinator) fetchPremiumBatch(ctx context.Context, batch []models.OptionKey) []premiumResult {
	settled := make([]premiumResult, len(batch))
	var wg sync.WaitGroup
	for i, key := range batch {
		wg.Add(1)
		go func(i int, key models.OptionKey) {
			defer wg.Done()
			callCtx, cancel := context.WithTimeout(ctx, c.callTimeout)
			defer cancel()
			price, err := c.source.OptionPremium(callCtx, key)
			settled[i] = premiumResult{key: key, price: price, err: err}
		}(i, key)
	}
	wg.Wait()
	return settled
}
