package main

import (
	"encoding/json"
	"net/http"
	"strings"
	"time"

	"go.uber.org/zap"

	"github.com/alim08/price_cache/pkg/logger"
	"github.com/alim08/price_cache/pkg/marketclock"
	"github.com/alim08/price_cache/pkg/models"
	"github.com/alim08/price_cache/pkg/redisclient"
	"github.com/alim08/price_cache/pkg/refresher"
	"github.com/alim08/price_cache/pkg/store"
	"github.com/alim08/price_cache/pkg/validation"
)

const maxQuerySymbols = 100

// Server holds the dependencies shared by all API handlers.
type Server struct {
	reader    *refresher.Reader
	clock     *marketclock.Clock
	freshness marketclock.FreshnessPolicy
	db        *store.DB
	redis     *redisclient.Client
}

// Response is the standard API envelope
type Response struct {
	Success bool        `json:"success"`
	Data    interface{} `json:"data,omitempty"`
	Error   string      `json:"error,omitempty"`
}

// StockPriceView is a cached stock price annotated with freshness at read time.
type StockPriceView struct {
	Symbol        string    `json:"symbol"`
	Price         float64   `json:"price"`
	Change        float64   `json:"change"`
	ChangePercent float64   `json:"change_percent"`
	UpdatedAt     time.Time `json:"updated_at"`
	Fresh         bool      `json:"fresh"`
}

// PremiumView is a cached option premium annotated with freshness at read time.
type PremiumView struct {
	Key       string    `json:"key"`
	Price     float64   `json:"price"`
	UpdatedAt time.Time `json:"updated_at"`
	Fresh     bool      `json:"fresh"`
}

// SessionView reports the current market session and the TTL in force.
type SessionView struct {
	Session   string    `json:"session"`
	AsOf      time.Time `json:"as_of"`
	TTL       string    `json:"ttl"`
	NextOpen  time.Time `json:"next_open"`
	NextClose time.Time `json:"next_close,omitempty"`
}

// stockPricesHandler serves GET /api/v1/prices?symbols=AAPL,TSLA
func (s *Server) stockPricesHandler(w http.ResponseWriter, r *http.Request) {
	raw := r.URL.Query().Get("symbols")
	if raw == "" {
		writeError(w, http.StatusBadRequest, "symbols parameter is required")
		return
	}

	var symbols []string
	for _, part := range strings.Split(raw, ",") {
		sym := validation.SanitizeSymbol(part)
		if sym != "" {
			symbols = append(symbols, sym)
		}
	}
	if len(symbols) == 0 {
		writeError(w, http.StatusBadRequest, "no valid symbols in request")
		return
	}
	if len(symbols) > maxQuerySymbols {
		writeError(w, http.StatusBadRequest, "too many symbols requested")
		return
	}

	records, err := s.reader.CachedStockPrices(r.Context(), symbols)
	if err != nil {
		logger.Log.Error("cached price lookup failed", zap.Error(err))
		writeError(w, http.StatusInternalServerError, "failed to read cached prices")
		return
	}

	now := time.Now()
	session := s.clock.SessionAt(now)
	views := make(map[string]StockPriceView, len(records))
	for sym, rec := range records {
		views[sym] = StockPriceView{
			Symbol:        rec.Symbol,
			Price:         rec.Price,
			Change:        rec.Change,
			ChangePercent: rec.ChangePercent,
			UpdatedAt:     rec.UpdatedAt,
			Fresh:         s.freshness.IsFresh(rec.UpdatedAt, now, session),
		}
	}

	writeJSON(w, http.StatusOK, Response{Success: true, Data: views})
}

// optionPremiumsHandler serves GET /api/v1/premiums?keys=TSLA|2026-02-27|455.0000|call,...
func (s *Server) optionPremiumsHandler(w http.ResponseWriter, r *http.Request) {
	raw := r.URL.Query().Get("keys")
	if raw == "" {
		writeError(w, http.StatusBadRequest, "keys parameter is required")
		return
	}

	var keys []models.OptionKey
	for _, part := range strings.Split(raw, ",") {
		part = strings.TrimSpace(part)
		if part == "" {
			continue
		}
		key, err := models.ParseOptionKey(part)
		if err != nil {
			writeError(w, http.StatusBadRequest, "invalid option key: "+part)
			return
		}
		keys = append(keys, key)
	}
	if len(keys) == 0 {
		writeError(w, http.StatusBadRequest, "no valid keys in request")
		return
	}
	if len(keys) > maxQuerySymbols {
		writeError(w, http.StatusBadRequest, "too many keys requested")
		return
	}

	premiums, err := s.reader.CachedOptionPremiums(r.Context(), keys)
	if err != nil {
		logger.Log.Error("cached premium lookup failed", zap.Error(err))
		writeError(w, http.StatusInternalServerError, "failed to read cached premiums")
		return
	}

	now := time.Now()
	session := s.clock.SessionAt(now)
	views := make(map[string]PremiumView, len(premiums))
	for key, prem := range premiums {
		views[key] = PremiumView{
			Key:       key,
			Price:     prem.Price,
			UpdatedAt: prem.UpdatedAt,
			Fresh:     s.freshness.IsFresh(prem.UpdatedAt, now, session),
		}
	}

	writeJSON(w, http.StatusOK, Response{Success: true, Data: views})
}

// sessionHandler serves GET /api/v1/session
func (s *Server) sessionHandler(w http.ResponseWriter, r *http.Request) {
	now := time.Now()
	session := s.clock.SessionAt(now)

	view := SessionView{
		Session:  session.String(),
		AsOf:     now,
		TTL:      s.freshness.TTL(session).String(),
		NextOpen: s.clock.NextOpen(now),
	}
	if session == marketclock.Open {
		view.NextClose = s.clock.NextClose(now)
	}

	writeJSON(w, http.StatusOK, Response{Success: true, Data: view})
}

// healthHandler serves liveness checks
func (s *Server) healthHandler(w http.ResponseWriter, r *http.Request) {
	writeJSON(w, http.StatusOK, Response{Success: true, Data: map[string]string{"status": "healthy"}})
}

// readyHandler verifies downstream connectivity before reporting ready
func (s *Server) readyHandler(w http.ResponseWriter, r *http.Request) {
	if err := s.db.HealthCheck(r.Context()); err != nil {
		writeError(w, http.StatusServiceUnavailable, "database unavailable")
		return
	}
	if err := s.redis.Ping(r.Context()); err != nil {
		writeError(w, http.StatusServiceUnavailable, "redis unavailable")
		return
	}
	writeJSON(w, http.StatusOK, Response{Success: true, Data: map[string]string{"status": "ready"}})
}

func writeJSON(w http.ResponseWriter, status int, resp Response) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	if err := json.NewEncoder(w).Encode(resp); err != nil {
		logger.Log.Error("failed to encode response", zap.Error(err))
	}
}

func writeError(w http.ResponseWriter, status int, msg string) {
	writeJSON(w, status, Response{Success: false, Error: msg})
}
