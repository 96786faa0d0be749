package main

import (
	"context"
	"fmt"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/gorilla/mux"
	"go.uber.org/zap"

	"github.com/alim08/price_cache/pkg/config"
	"github.com/alim08/price_cache/pkg/logger"
	"github.com/alim08/price_cache/pkg/marketclock"
	"github.com/alim08/price_cache/pkg/metrics"
	"github.com/alim08/price_cache/pkg/redisclient"
	"github.com/alim08/price_cache/pkg/refresher"
	"github.com/alim08/price_cache/pkg/store"
)

func main() {
	// Initialize logger
	if err := logger.Init(); err != nil {
		panic("logger init: " + err.Error())
	}
	defer logger.Sync()
	log := logger.Log

	log.Info("starting price cache API server")

	// Load configuration
	cfg, err := config.Load()
	if err != nil {
		log.Fatal("config error", zap.Error(err))
	}

	// Initialize database
	db, err := store.New(store.NewConfig())
	if err != nil {
		log.Fatal("failed to connect to database", zap.Error(err))
	}
	defer db.Close()

	// Run database migrations
	migrateCtx, cancelMigrate := context.WithTimeout(context.Background(), 30*time.Second)
	defer cancelMigrate()
	if err := db.RunMigrations(migrateCtx); err != nil {
		log.Fatal("failed to run database migrations", zap.Error(err))
	}

	// Initialize Redis client
	redisClient, err := redisclient.New(cfg.RedisURL)
	if err != nil {
		log.Fatal("failed to connect to Redis", zap.Error(err))
	}
	defer redisClient.Close()

	// Build the session clock and freshness policy for read-time annotation
	policy := marketclock.AssumeNoHolidays
	if cfg.AbsentYearPolicy == "closed" {
		policy = marketclock.FailClosed
	}
	clock, err := marketclock.New(marketclock.USEquityHolidays(), policy)
	if err != nil {
		log.Fatal("failed to init market clock", zap.Error(err))
	}

	server := &Server{
		reader:    refresher.NewReader(store.NewPriceStore(db)),
		clock:     clock,
		freshness: marketclock.NewFreshnessPolicy(cfg.OpenTTL, cfg.OffHoursTTL),
		db:        db,
		redis:     redisClient,
	}

	// Create router
	router := mux.NewRouter()
	router.Use(loggingMiddleware)
	router.Use(metricsMiddleware)

	router.HandleFunc("/health", server.healthHandler).Methods("GET")
	router.HandleFunc("/ready", server.readyHandler).Methods("GET")

	apiRouter := router.PathPrefix("/api/v1").Subrouter()
	apiRouter.HandleFunc("/prices", server.stockPricesHandler).Methods("GET")
	apiRouter.HandleFunc("/premiums", server.optionPremiumsHandler).Methods("GET")
	apiRouter.HandleFunc("/session", server.sessionHandler).Methods("GET")

	router.Handle("/metrics", metrics.Handler())

	// Create HTTP server
	httpServer := &http.Server{
		Addr:         fmt.Sprintf(":%d", cfg.HTTPPort),
		Handler:      router,
		ReadTimeout:  30 * time.Second,
		WriteTimeout: 30 * time.Second,
		IdleTimeout:  60 * time.Second,
	}

	go func() {
		log.Info("API server listening", zap.Int("port", cfg.HTTPPort))
		if err := httpServer.ListenAndServe(); err != nil && err != http.ErrServerClosed {
			log.Fatal("server failed", zap.Error(err))
		}
	}()

	// Wait for shutdown signal
	sigs := make(chan os.Signal, 1)
	signal.Notify(sigs, syscall.SIGINT, syscall.SIGTERM)
	<-sigs
	log.Info("shutdown signal received")

	shutdownCtx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
	defer cancel()
	if err := httpServer.Shutdown(shutdownCtx); err != nil {
		log.Error("server shutdown failed", zap.Error(err))
	}
}

// loggingMiddleware logs each request with latency
func loggingMiddleware(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		start := time.Now()
		next.ServeHTTP(w, r)
		logger.Log.Debug("request handled",
			zap.String("method", r.Method),
			zap.String("path", r.URL.Path),
			zap.Duration("latency", time.Since(start)))
	})
}

// metricsMiddleware records request counts and durations
func metricsMiddleware(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		start := time.Now()
		sw := &statusWriter{ResponseWriter: w, status: http.StatusOK}
		next.ServeHTTP(sw, r)

		status := fmt.Sprintf("%d", sw.status)
		metrics.APIRequestTotal.WithLabelValues(r.Method, r.URL.Path, status).Inc()
		metrics.APIRequestDuration.WithLabelValues(r.Method, r.URL.Path, status).Observe(time.Since(start).Seconds())
	})
}

type statusWriter struct {
	http.ResponseWriter
	status int
}

func (w *statusWriter) WriteHeader(status int) {
	w.status = status
	w.ResponseWriter.WriteHeader(status)
}
