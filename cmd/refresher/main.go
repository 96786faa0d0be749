package main

import (
	"context"
	"fmt"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"go.uber.org/zap"

	"github.com/alim08/price_cache/pkg/config"
	"github.com/alim08/price_cache/pkg/logger"
	"github.com/alim08/price_cache/pkg/marketclock"
	"github.com/alim08/price_cache/pkg/metrics"
	"github.com/alim08/price_cache/pkg/quotes"
	"github.com/alim08/price_cache/pkg/redisclient"
	"github.com/alim08/price_cache/pkg/refresher"
	"github.com/alim08/price_cache/pkg/store"
	"github.com/alim08/price_cache/pkg/universe"
)

func main() {
	// 1. Load config
	cfg, err := config.Load()
	if err != nil {
		panic("config error: " + err.Error())
	}

	// 2. Init logger
	if err := logger.Init(); err != nil {
		panic("logger init: " + err.Error())
	}
	defer logger.Sync()

	universe.RegisterPlaceholders(cfg.PlaceholderSymbols...)

	// 3. Connect to Postgres and run migrations
	db, err := store.New(store.NewConfig())
	if err != nil {
		logger.Log.Fatal("database connect failed", zap.Error(err))
	}
	defer db.Close()

	migrateCtx, cancelMigrate := context.WithTimeout(context.Background(), 30*time.Second)
	defer cancelMigrate()
	if err := db.RunMigrations(migrateCtx); err != nil {
		logger.Log.Fatal("migrations failed", zap.Error(err))
	}

	// 4. Connect to Redis for the hot-cache mirror
	rdb, err := redisclient.New(cfg.RedisURL)
	if err != nil {
		logger.Log.Fatal("redis connect failed", zap.Error(err))
	}
	defer rdb.Close()

	// 5. Build the session clock and the coordinator
	clock, err := marketclock.New(marketclock.USEquityHolidays(), absentYearPolicy(cfg))
	if err != nil {
		logger.Log.Fatal("market clock init failed", zap.Error(err))
	}

	coordinator := refresher.New(
		store.NewPositionSource(db),
		quotes.NewClient(cfg.QuoteAPIURL, cfg.QuoteAPIKey, cfg.QuoteAPITimeout),
		store.NewPriceStore(db),
		refresher.Options{
			BatchSize:   cfg.OptionBatchSize,
			CallTimeout: cfg.QuoteAPITimeout,
			Publisher:   rdb,
		},
	)

	// 6. Start Prometheus metrics endpoint
	go startMetricsServer(cfg.MetricsPort)

	// 7. Run the session-aware refresh loop until shutdown
	ctx, cancel := context.WithCancel(context.Background())
	go runRefreshLoop(ctx, cfg, clock, coordinator)

	sigs := make(chan os.Signal, 1)
	signal.Notify(sigs, syscall.SIGINT, syscall.SIGTERM)
	<-sigs
	logger.Log.Info("shutdown signal received, exiting")
	cancel()
	// give the in-flight refresh a moment to finish
	time.Sleep(500 * time.Millisecond)
}

// runRefreshLoop triggers both refresh paths on a cadence derived from the
// session state: frequent while the market is open, sparse otherwise.
func runRefreshLoop(ctx context.Context, cfg *config.Config, clock *marketclock.Clock, coordinator *refresher.Coordinator) {
	for {
		runOnce(ctx, coordinator)

		interval := cfg.OffHoursInterval
		if clock.SessionAt(time.Now()) == marketclock.Open {
			interval = cfg.OpenRefreshInterval
		}

		select {
		case <-ctx.Done():
			return
		case <-time.After(interval):
		}
	}
}

func runOnce(ctx context.Context, coordinator *refresher.Coordinator) {
	stocks := coordinator.RefreshStockPrices(ctx)
	logger.Log.Info("stock refresh finished",
		zap.Int("requested", stocks.Requested),
		zap.Int("updated", stocks.Updated),
		zap.String("error", stocks.Err))

	options := coordinator.RefreshOptionPremiums(ctx)
	logger.Log.Info("option refresh finished",
		zap.Int("requested", options.Requested),
		zap.Int("updated", options.Updated),
		zap.String("error", options.Err))
}

func absentYearPolicy(cfg *config.Config) marketclock.AbsentYearPolicy {
	if cfg.AbsentYearPolicy == "closed" {
		return marketclock.FailClosed
	}
	return marketclock.AssumeNoHolidays
}

func startMetricsServer(port int) {
	addr := fmt.Sprintf(":%d", port)
	mux := http.NewServeMux()
	mux.Handle("/metrics", metrics.Handler())
	logger.Log.Info("metrics server listening", zap.String("addr", addr))
	if err := http.ListenAndServe(addr, mux); err != nil {
		logger.Log.Error("metrics server stopped", zap.Error(err))
	}
}
