package config

import (
    "flag"
    "fmt"
    "os"
    "strconv"
    "strings"
    "time"
)

// Config carries the runtime settings shared by the refresher and API
// services. Database settings live with the store package.
type Config struct {
    RedisURL    string
    HTTPPort    int
    MetricsPort int

    // Upstream quote source
    QuoteAPIURL     string
    QuoteAPIKey     string
    QuoteAPITimeout time.Duration

    // Refresh coordinator
    OptionBatchSize     int
    OpenRefreshInterval time.Duration
    OffHoursInterval    time.Duration

    // Freshness policy
    OpenTTL     time.Duration
    OffHoursTTL time.Duration

    // Holiday calendar behavior for years without data: "none" treats them
    // as holiday-free, "closed" treats every day as a closure day.
    AbsentYearPolicy string

    // Additional cash-equivalent symbols beyond the built-in recognition rule
    PlaceholderSymbols []string
}

// Load reads environment variables and application flags (via a local FlagSet),
// strips out any -test.* flags, and validates required fields.
func Load() (*Config, error) {
    // 1. Build a fresh FlagSet so we don't collide with `go test` flags
    fs := flag.NewFlagSet("config", flag.ContinueOnError)

    // 2. Define only the flags this package cares about
    var redisURL, quoteURL string
    var httpPort, metricsPort int
    fs.StringVar(&redisURL, "redis", os.Getenv("REDIS_URL"), "Redis connection URL")
    fs.StringVar(&quoteURL, "quote-api", os.Getenv("QUOTE_API_URL"), "Upstream quote API base URL")
    fs.IntVar(&httpPort, "port", 8080, "HTTP listen port")
    fs.IntVar(&metricsPort, "metrics-port", 8082, "Metrics server port")

    // 3. Filter out any -test.* args before parsing
    var appArgs []string
    for _, arg := range os.Args[1:] {
        if strings.HasPrefix(arg, "-test.") {
            continue
        }
        appArgs = append(appArgs, arg)
    }
    if err := fs.Parse(appArgs); err != nil {
        return nil, err
    }

    // 4. Populate our Config struct with defaults
    cfg := &Config{
        RedisURL:    redisURL,
        HTTPPort:    httpPort,
        MetricsPort: metricsPort,

        QuoteAPIURL:     quoteURL,
        QuoteAPIKey:     os.Getenv("QUOTE_API_KEY"),
        QuoteAPITimeout: getDurationEnvOrDefault("QUOTE_API_TIMEOUT", 10*time.Second),

        OptionBatchSize:     getIntEnvOrDefault("OPTION_BATCH_SIZE", 15),
        OpenRefreshInterval: getDurationEnvOrDefault("OPEN_REFRESH_INTERVAL", 5*time.Minute),
        OffHoursInterval:    getDurationEnvOrDefault("OFFHOURS_REFRESH_INTERVAL", time.Hour),

        OpenTTL:     getDurationEnvOrDefault("OPEN_TTL", 20*time.Minute),
        OffHoursTTL: getDurationEnvOrDefault("OFFHOURS_TTL", 2*time.Hour),

        AbsentYearPolicy: getEnvOrDefault("HOLIDAY_ABSENT_YEAR_POLICY", "none"),
    }

    // Check for PORT env var (overrides flag/default if set)
    if portEnv := os.Getenv("PORT"); portEnv != "" {
        if portVal, err := strconv.Atoi(portEnv); err == nil {
            cfg.HTTPPort = portVal
        } else {
            return nil, fmt.Errorf("invalid PORT env var: %v", err)
        }
    }

    if env := os.Getenv("PLACEHOLDER_SYMBOLS"); env != "" {
        cfg.PlaceholderSymbols = splitAndTrim(env, ",")
    }

    // 5. Validate required fields
    if cfg.RedisURL == "" {
        return nil, fmt.Errorf("missing required config: REDIS_URL or -redis")
    }
    if cfg.QuoteAPIURL == "" {
        return nil, fmt.Errorf("missing required config: QUOTE_API_URL or -quote-api")
    }
    if cfg.AbsentYearPolicy != "none" && cfg.AbsentYearPolicy != "closed" {
        return nil, fmt.Errorf("invalid HOLIDAY_ABSENT_YEAR_POLICY %q (want \"none\" or \"closed\")", cfg.AbsentYearPolicy)
    }
    if cfg.OptionBatchSize <= 0 {
        return nil, fmt.Errorf("OPTION_BATCH_SIZE must be positive")
    }

    return cfg, nil
}

// splitAndTrim splits s on sep, trims spaces, and drops empty entries.
func splitAndTrim(s, sep string) []string {
    parts := []string{}
    for _, p := range strings.Split(s, sep) {
        if t := strings.TrimSpace(p); t != "" {
            parts = append(parts, t)
        }
    }
    return parts
}

// getEnvOrDefault returns environment variable value or default
func getEnvOrDefault(key, defaultValue string) string {
    if value := os.Getenv(key); value != "" {
        return value
    }
    return defaultValue
}

// getIntEnvOrDefault returns environment variable as int or default
func getIntEnvOrDefault(key string, defaultValue int) int {
    if value := os.Getenv(key); value != "" {
        if n, err := strconv.Atoi(value); err == nil {
            return n
        }
    }
    return defaultValue
}

// getDurationEnvOrDefault returns environment variable as duration or default
func getDurationEnvOrDefault(key string, defaultValue time.Duration) time.Duration {
    if value := os.Getenv(key); value != "" {
        if duration, err := time.ParseDuration(value); err == nil {
            return duration
        }
    }
    return defaultValue
}
