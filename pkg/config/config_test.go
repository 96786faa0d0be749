package config

import (
    "os"
    "reflect"
    "testing"
    "time"
)

func TestLoad_Valid(t *testing.T) {
    t.Setenv("REDIS_URL", "redis://localhost:6379/0")
    t.Setenv("QUOTE_API_URL", "https://quotes.example.com")
    t.Setenv("PLACEHOLDER_SYMBOLS", " IIAXX , SPAXX ")

    cfg, err := Load()
    if err != nil {
        t.Fatalf("expected no error, got %v", err)
    }
    if cfg.RedisURL != "redis://localhost:6379/0" {
        t.Errorf("RedisURL = %q; want %q", cfg.RedisURL, "redis://localhost:6379/0")
    }
    if cfg.QuoteAPIURL != "https://quotes.example.com" {
        t.Errorf("QuoteAPIURL = %q; want %q", cfg.QuoteAPIURL, "https://quotes.example.com")
    }
    if cfg.OptionBatchSize != 15 {
        t.Errorf("OptionBatchSize = %d; want 15", cfg.OptionBatchSize)
    }
    if cfg.OpenTTL != 20*time.Minute {
        t.Errorf("OpenTTL = %v; want 20m", cfg.OpenTTL)
    }
    if cfg.OffHoursTTL != 2*time.Hour {
        t.Errorf("OffHoursTTL = %v; want 2h", cfg.OffHoursTTL)
    }
    wantPlaceholders := []string{"IIAXX", "SPAXX"}
    if !reflect.DeepEqual(cfg.PlaceholderSymbols, wantPlaceholders) {
        t.Errorf("PlaceholderSymbols = %v; want %v", cfg.PlaceholderSymbols, wantPlaceholders)
    }
}

func TestLoad_MissingQuoteAPI(t *testing.T) {
    t.Setenv("REDIS_URL", "redis://localhost:6379/0")
    os.Unsetenv("QUOTE_API_URL")

    _, err := Load()
    if err == nil {
        t.Fatal("expected error due to missing QUOTE_API_URL, got nil")
    }
}

func TestLoad_InvalidPolicy(t *testing.T) {
    t.Setenv("REDIS_URL", "redis://localhost:6379/0")
    t.Setenv("QUOTE_API_URL", "https://quotes.example.com")
    t.Setenv("HOLIDAY_ABSENT_YEAR_POLICY", "prior-year")

    _, err := Load()
    if err == nil {
        t.Fatal("expected error for unknown absent-year policy, got nil")
    }
}

func TestLoad_EnvOverrides(t *testing.T) {
    t.Setenv("REDIS_URL", "redis://localhost:6379/0")
    t.Setenv("QUOTE_API_URL", "https://quotes.example.com")
    t.Setenv("OPTION_BATCH_SIZE", "25")
    t.Setenv("OPEN_TTL", "10m")

    cfg, err := Load()
    if err != nil {
        t.Fatalf("expected no error, got %v", err)
    }
    if cfg.OptionBatchSize != 25 {
        t.Errorf("OptionBatchSize = %d; want 25", cfg.OptionBatchSize)
    }
    if cfg.OpenTTL != 10*time.Minute {
        t.Errorf("OpenTTL = %v; want 10m", cfg.OpenTTL)
    }
}

func TestSplitAndTrim(t *testing.T) {
    in := " a , ,b ,c"
    got := splitAndTrim(in, ",")
    want := []string{"a", "b", "c"}
    if !reflect.DeepEqual(got, want) {
        t.Errorf("splitAndTrim = %v; want %v", got, want)
    }
}
