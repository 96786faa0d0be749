package quotes

import (
	"context"
	"errors"
	"net/http"
	"net/http/httptest"
	"testing"
	"time"

	"github.com/shopspring/decimal"

	"github.com/alim08/price_cache/pkg/models"
)

func TestBatchStockQuotes(t *testing.T) {
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		if r.URL.Path != "/v1/quotes" {
			t.Errorf("path = %q, want /v1/quotes", r.URL.Path)
		}
		if got := r.URL.Query().Get("symbols"); got != "AAPL,TSLA" {
			t.Errorf("symbols = %q, want AAPL,TSLA", got)
		}
		if got := r.Header.Get("Authorization"); got != "Bearer test-key" {
			t.Errorf("Authorization = %q", got)
		}
		w.Header().Set("Content-Type", "application/json")
		w.Write([]byte(`{"aapl":{"price":187.5,"change":1.2,"change_percent":0.64},"TSLA":{"price":420.5}}`))
	}))
	defer server.Close()

	client := NewClient(server.URL, "test-key", 5*time.Second)
	got, err := client.BatchStockQuotes(context.Background(), []string{"AAPL", "TSLA"})
	if err != nil {
		t.Fatalf("BatchStockQuotes error: %v", err)
	}
	if len(got) != 2 {
		t.Fatalf("got %d quotes, want 2", len(got))
	}
	// Response symbols are uppercased regardless of provider casing.
	if got["AAPL"].Price != 187.5 {
		t.Errorf("AAPL price = %v, want 187.5", got["AAPL"].Price)
	}
	if got["TSLA"].Price != 420.5 {
		t.Errorf("TSLA price = %v, want 420.5", got["TSLA"].Price)
	}
}

func TestBatchStockQuotes_EmptyInput(t *testing.T) {
	called := false
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		called = true
	}))
	defer server.Close()

	client := NewClient(server.URL, "", 5*time.Second)
	got, err := client.BatchStockQuotes(context.Background(), nil)
	if err != nil {
		t.Fatalf("BatchStockQuotes error: %v", err)
	}
	if len(got) != 0 {
		t.Errorf("got %d quotes, want 0", len(got))
	}
	if called {
		t.Error("request issued for empty symbol set")
	}
}

func TestBatchStockQuotes_WholeBatchFails(t *testing.T) {
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		http.Error(w, "rate limited", http.StatusTooManyRequests)
	}))
	defer server.Close()

	client := NewClient(server.URL, "", 5*time.Second)
	if _, err := client.BatchStockQuotes(context.Background(), []string{"AAPL"}); err == nil {
		t.Fatal("expected error for non-200 response")
	}
}

func premiumKey() models.OptionKey {
	return models.NewOptionKey("TSLA",
		time.Date(2026, 2, 27, 0, 0, 0, 0, time.UTC),
		decimal.RequireFromString("455"), models.Call)
}

func TestOptionPremium(t *testing.T) {
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		if r.URL.Path != "/v1/options/premium" {
			t.Errorf("path = %q, want /v1/options/premium", r.URL.Path)
		}
		q := r.URL.Query()
		if q.Get("symbol") != "TSLA" || q.Get("expiration") != "2026-02-27" ||
			q.Get("strike") != "455" || q.Get("type") != "call" {
			t.Errorf("unexpected query: %v", q)
		}
		w.Header().Set("Content-Type", "application/json")
		w.Write([]byte(`{"price":12.35}`))
	}))
	defer server.Close()

	client := NewClient(server.URL, "", 5*time.Second)
	got, err := client.OptionPremium(context.Background(), premiumKey())
	if err != nil {
		t.Fatalf("OptionPremium error: %v", err)
	}
	if got != 12.35 {
		t.Errorf("premium = %v, want 12.35", got)
	}
}

func TestOptionPremium_NotFound(t *testing.T) {
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		http.NotFound(w, r)
	}))
	defer server.Close()

	client := NewClient(server.URL, "", 5*time.Second)
	_, err := client.OptionPremium(context.Background(), premiumKey())
	if !errors.Is(err, ErrNotFound) {
		t.Fatalf("err = %v, want ErrNotFound", err)
	}
}

func TestOptionPremium_NullPrice(t *testing.T) {
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.Header().Set("Content-Type", "application/json")
		w.Write([]byte(`{"price":null}`))
	}))
	defer server.Close()

	client := NewClient(server.URL, "", 5*time.Second)
	_, err := client.OptionPremium(context.Background(), premiumKey())
	if !errors.Is(err, ErrNotFound) {
		t.Fatalf("err = %v, want ErrNotFound", err)
	}
}
