package metrics

import (
	"context"
	"time"

	"github.com/jackc/pgx/v5/pgxpool"
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
)

// HTTP metrics.
var (
	HTTPRequestsTotal = promauto.NewCounterVec(prometheus.CounterOpts{
		Name: "uzscript_http_requests_total",
		Help: "Total HTTP requests by route, method, and status code",
	}, []string{"route", "method", "status"})

	HTTPRequestDuration = promauto.NewHistogramVec(prometheus.HistogramOpts{
		Name:    "uzscript_http_request_duration_seconds",
		Help:    "HTTP request duration in seconds",
		Buckets: []float64{0.001, 0.005, 0.01, 0.025, 0.05, 0.1, 0.25, 0.5, 1},
	}, []string{"route", "method"})

	RateLimitHits = promauto.NewCounterVec(prometheus.CounterOpts{
		Name: "uzscript_rate_limit_hits_total",
		Help: "Total rate limit rejections by surface",
	}, []string{"surface"})
)

// Transliteration metrics.
var (
	TransliterationsTotal = promauto.NewCounterVec(prometheus.CounterOpts{
		Name: "uzscript_transliterations_total",
		Help: "Conversions by direction, whether the direction was detected, and source",
	}, []string{"direction", "detected", "source"})

	InputBytes = promauto.NewHistogramVec(prometheus.HistogramOpts{
		Name:    "uzscript_input_bytes",
		Help:    "Size of transliterated input in bytes",
		Buckets: prometheus.ExponentialBuckets(16, 4, 8),
	}, []string{"source"})

	ShieldedSpans = promauto.NewCounter(prometheus.CounterOpts{
		Name: "uzscript_shielded_spans_total",
		Help: "Markup spans copied through verbatim",
	})

	DetectionsTotal = promauto.NewCounterVec(prometheus.CounterOpts{
		Name: "uzscript_detections_total",
		Help: "Script detection results",
	}, []string{"script"})

	FeedbackTotal = promauto.NewCounterVec(prometheus.CounterOpts{
		Name: "uzscript_feedback_total",
		Help: "Feedback submissions by source",
	}, []string{"source"})
)

// Worker metrics.
var (
	RetentionCycleDuration = promauto.NewHistogram(prometheus.HistogramOpts{
		Name:    "uzscript_worker_retention_duration_seconds",
		Help:    "Duration of each retention cycle",
		Buckets: []float64{0.01, 0.05, 0.1, 0.5, 1, 5, 10, 30},
	})

	RetentionDeletedTotal = promauto.NewCounterVec(prometheus.CounterOpts{
		Name: "uzscript_worker_retention_deleted_total",
		Help: "Rows removed by the retention worker by table",
	}, []string{"table"})
)

// Database pool metrics (gauges updated periodically).
var (
	DBPoolTotalConns = promauto.NewGauge(prometheus.GaugeOpts{
		Name: "uzscript_db_pool_total_conns",
		Help: "Total number of connections in the pool",
	})

	DBPoolIdleConns = promauto.NewGauge(prometheus.GaugeOpts{
		Name: "uzscript_db_pool_idle_conns",
		Help: "Number of idle connections in the pool",
	})

	DBPoolAcquiredConns = promauto.NewGauge(prometheus.GaugeOpts{
		Name: "uzscript_db_pool_acquired_conns",
		Help: "Number of acquired connections in the pool",
	})

	DBPoolMaxConns = promauto.NewGauge(prometheus.GaugeOpts{
		Name: "uzscript_db_pool_max_conns",
		Help: "Max connections configured for the pool",
	})
)

// PoolStatser is implemented by repositories backed by a pgx pool.
type PoolStatser interface {
	PoolStats() *pgxpool.Stat
}

// ExportPoolStats copies pool statistics into the DBPool gauges every
// interval until ctx is done.
func ExportPoolStats(ctx context.Context, src PoolStatser, interval time.Duration) {
	ticker := time.NewTicker(interval)
	defer ticker.Stop()
	for {
		select {
		case <-ticker.C:
			s := src.PoolStats()
			DBPoolTotalConns.Set(float64(s.TotalConns()))
			DBPoolIdleConns.Set(float64(s.IdleConns()))
			DBPoolAcquiredConns.Set(float64(s.AcquiredConns()))
			DBPoolMaxConns.Set(float64(s.MaxConns()))
		case <-ctx.Done():
			return
		}
	}
}
