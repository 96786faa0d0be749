package metrics

import (
  "net/http"

  "github.com/prometheus/client_golang/prometheus"
  "github.com/prometheus/client_golang/prometheus/promhttp"
)

var (
  // Refresh metrics, labeled by path ("stocks" or "options")
  RefreshCounter = prometheus.NewCounterVec(
    prometheus.CounterOpts{
      Name: "pricecache_refresh_total",
      Help: "Total refresh invocations",
    },
    []string{"path"},
  )
  RefreshErrors = prometheus.NewCounterVec(
    prometheus.CounterOpts{
      Name: "pricecache_refresh_errors_total",
      Help: "Refresh invocations that reported an error",
    },
    []string{"path"},
  )
  RefreshLatency = prometheus.NewHistogramVec(
    prometheus.HistogramOpts{
      Name:    "pricecache_refresh_latency_seconds",
      Help:    "Time for one full refresh invocation",
      Buckets: prometheus.DefBuckets,
    },
    []string{"path"},
  )
  RefreshUpserts = prometheus.NewCounterVec(
    prometheus.CounterOpts{
      Name: "pricecache_refresh_upserts_total",
      Help: "Records upserted by refresh invocations",
    },
    []string{"path"},
  )

  // Upstream quote source metrics
  UpstreamRequestDuration = prometheus.NewHistogramVec(
    prometheus.HistogramOpts{
      Name:    "pricecache_upstream_request_duration_seconds",
      Help:    "Upstream quote request duration",
      Buckets: prometheus.DefBuckets,
    },
    []string{"operation", "status"},
  )
  UpstreamErrors = prometheus.NewCounterVec(
    prometheus.CounterOpts{
      Name: "pricecache_upstream_errors_total",
      Help: "Upstream quote request errors",
    },
    []string{"operation"},
  )

  // API metrics
  APIRequestDuration = prometheus.NewHistogramVec(
    prometheus.HistogramOpts{
      Name:    "api_request_duration_seconds",
      Help:    "API request duration",
      Buckets: prometheus.DefBuckets,
    },
    []string{"method", "endpoint", "status"},
  )
  APIRequestTotal = prometheus.NewCounterVec(
    prometheus.CounterOpts{
      Name: "api_requests_total",
      Help: "Total API requests",
    },
    []string{"method", "endpoint", "status"},
  )

  // Redis metrics
  RedisOperationDuration = prometheus.NewHistogramVec(
    prometheus.HistogramOpts{
      Name:    "redis_operation_duration_seconds",
      Help:    "Redis operation duration",
      Buckets: prometheus.DefBuckets,
    },
    []string{"operation", "status"},
  )
  RedisErrors = prometheus.NewCounterVec(
    prometheus.CounterOpts{
      Name: "redis_errors_total",
      Help: "Total Redis errors",
    },
    []string{"operation"},
  )

  // Database metrics
  DatabaseHealthCheckDuration = prometheus.NewHistogram(
    prometheus.HistogramOpts{
      Name:    "database_health_check_duration_seconds",
      Help:    "Database health check duration",
      Buckets: prometheus.DefBuckets,
    })
  DatabaseOperationDuration = prometheus.NewHistogramVec(
    prometheus.HistogramOpts{
      Name:    "database_operation_duration_seconds",
      Help:    "Database operation duration",
      Buckets: prometheus.DefBuckets,
    },
    []string{"operation", "status"},
  )
  DatabaseOperations = prometheus.NewCounterVec(
    prometheus.CounterOpts{
      Name: "database_operations_total",
      Help: "Total database operations",
    },
    []string{"operation", "status"},
  )
  DatabaseErrors = prometheus.NewCounterVec(
    prometheus.CounterOpts{
      Name: "database_errors_total",
      Help: "Total database errors",
    },
    []string{"operation"},
  )
)

func init() {
  // MustRegister panics if registration fails (e.g. duplicate)
  prometheus.MustRegister(
    RefreshCounter, RefreshErrors, RefreshLatency, RefreshUpserts,
    UpstreamRequestDuration, UpstreamErrors,
    APIRequestDuration, APIRequestTotal,
    RedisOperationDuration, RedisErrors,
    DatabaseHealthCheckDuration, DatabaseOperationDuration,
    DatabaseOperations, DatabaseErrors,
  )
}

// Handler exposes the default registry for the /metrics endpoint.
func Handler() http.Handler {
  return promhttp.Handler()
}
