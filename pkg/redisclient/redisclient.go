// Package redisclient wraps the Redis hot cache the refresher mirrors the
// latest quotes into. Postgres is the system of record; Redis only serves
// pubsub fanout and cheap latest-value reads.
package redisclient

import (
  "context"
  "encoding/json"
  "errors"
  "sync/atomic"
  "time"

  "github.com/cenkalti/backoff/v4"
  "github.com/go-redis/redis/v8"
  "go.uber.org/zap"

  "github.com/alim08/price_cache/pkg/logger"
  "github.com/alim08/price_cache/pkg/metrics"
)

var (
  ErrCircuitBreakerOpen = errors.New("circuit breaker is open")
)

// Key and channel layout for the latest-quote mirror.
const (
  latestKeyPrefix = "quotes:latest:"
  pubsubChannel   = "quotes:pubsub"
)

type Client struct {
  rdb *redis.Client
  // Circuit breaker state
  failureCount int64
  lastFailure  int64
  state        int32 // 0: closed, 1: open, 2: half-open
}

// New constructs a Client with sensible defaults & retry logic
func New(redisURL string) (*Client, error) {
  opt, err := redis.ParseURL(redisURL)
  if err != nil {
    return nil, errors.New("invalid REDIS_URL: " + err.Error())
  }
  opt.PoolSize = 20
  opt.MinIdleConns = 5
  opt.MaxRetries = 3
  opt.DialTimeout = 5 * time.Second
  opt.ReadTimeout = 3 * time.Second
  opt.WriteTimeout = 3 * time.Second
  opt.IdleTimeout = 5 * time.Minute
  return &Client{rdb: redis.NewClient(opt)}, nil
}

// withMetrics wraps operations with metrics collection
func (c *Client) withMetrics(operation string, fn func() error) error {
  start := time.Now()
  err := fn()
  duration := time.Since(start).Seconds()

  metrics.RedisOperationDuration.WithLabelValues(operation, getStatus(err)).Observe(duration)
  if err != nil {
    metrics.RedisErrors.WithLabelValues(operation).Inc()
  }

  return err
}

// getStatus returns "success" or "error" for metrics
func getStatus(err error) string {
  if err != nil {
    return "error"
  }
  return "success"
}

// checkCircuitBreaker checks if circuit breaker should be opened/closed
func (c *Client) checkCircuitBreaker(err error) {
  if err != nil {
    atomic.AddInt64(&c.failureCount, 1)
    atomic.StoreInt64(&c.lastFailure, time.Now().Unix())

    // Open circuit breaker after 5 consecutive failures
    if atomic.LoadInt64(&c.failureCount) >= 5 {
      atomic.CompareAndSwapInt32(&c.state, 0, 1) // closed -> open
      logger.Log.Warn("circuit breaker opened", zap.String("operation", "redis"))
    }
  } else {
    // Reset failure count on success
    atomic.StoreInt64(&c.failureCount, 0)
    atomic.CompareAndSwapInt32(&c.state, 1, 2) // open -> half-open
  }
}

// PublishLatest mirrors one updated record into its latest-value key and
// announces it on the pubsub channel, atomically via a pipeline.
func (c *Client) PublishLatest(ctx context.Context, key string, payload interface{}) error {
  return c.withMetrics("publish_latest", func() error {
    if atomic.LoadInt32(&c.state) == 1 {
      return ErrCircuitBreakerOpen
    }

    body, err := json.Marshal(payload)
    if err != nil {
      return err
    }

    op := func() error {
      ctx, cancel := context.WithTimeout(ctx, 100*time.Millisecond)
      defer cancel()

      pipe := c.rdb.Pipeline()
      pipe.Set(ctx, latestKeyPrefix+key, body, 0)
      pipe.Publish(ctx, pubsubChannel, body)
      _, err := pipe.Exec(ctx)

      c.checkCircuitBreaker(err)
      return err
    }
    // exponential backoff: max 3 retries
    return backoff.Retry(op, backoff.WithMaxRetries(backoff.NewExponentialBackOff(), 3))
  })
}

// Latest reads one mirrored record by its cache key.
func (c *Client) Latest(ctx context.Context, key string) ([]byte, error) {
  var body []byte
  err := c.withMetrics("latest", func() error {
    ctx, cancel := context.WithTimeout(ctx, 100*time.Millisecond)
    defer cancel()
    b, err := c.rdb.Get(ctx, latestKeyPrefix+key).Bytes()
    if err != nil {
      return err
    }
    body = b
    return nil
  })
  return body, err
}

// Subscribe creates a pub/sub subscription for quote updates
func (c *Client) Subscribe(ctx context.Context) *redis.PubSub {
  return c.rdb.Subscribe(ctx, pubsubChannel)
}

// Ping checks connectivity for health endpoints
func (c *Client) Ping(ctx context.Context) error {
  return c.withMetrics("ping", func() error {
    ctx, cancel := context.WithTimeout(ctx, time.Second)
    defer cancel()
    return c.rdb.Ping(ctx).Err()
  })
}

// Close closes the underlying connection pool
func (c *Client) Close() error {
  return c.rdb.Close()
}

// Client returns the underlying Redis client for direct access
func (c *Client) Client() *redis.Client {
  return c.rdb
}
