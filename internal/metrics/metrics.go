// Package metrics holds the process-wide Prometheus collectors.
package metrics

import (
	"time"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
)

const namespace = "hedera_defi"

// Upstream request outcomes.
const (
	OutcomeOK       = "ok"
	OutcomeCacheHit = "cache_hit"
	OutcomeFailed   = "failed"
)

// ── Upstream requests ──────────────────────────────────────────────────

var (
	UpstreamRequestsTotal = promauto.NewCounterVec(prometheus.CounterOpts{
		Namespace: namespace,
		Subsystem: "upstream",
		Name:      "requests_total",
		Help:      "Upstream lookups per source by outcome (ok, cache_hit, failed).",
	}, []string{"source", "outcome"})

	UpstreamRequestDuration = promauto.NewHistogramVec(prometheus.HistogramOpts{
		Namespace: namespace,
		Subsystem: "upstream",
		Name:      "request_duration_seconds",
		Help:      "Network round-trip latency per source, retries included.",
		Buckets:   []float64{0.05, 0.1, 0.25, 0.5, 1, 2, 5, 10, 30},
	}, []string{"source"})
)

// ── Liquidity monitor ──────────────────────────────────────────────────

var (
	SnapshotsTotal = promauto.NewCounterVec(prometheus.CounterOpts{
		Namespace: namespace,
		Subsystem: "monitor",
		Name:      "snapshots_total",
		Help:      "Liquidity snapshots taken by status.",
	}, []string{"status"})

	LiquidityUSD = promauto.NewGaugeVec(prometheus.GaugeOpts{
		Namespace: namespace,
		Subsystem: "monitor",
		Name:      "liquidity_usd",
		Help:      "Latest liquidity in USD per protocol, plus total.",
	}, []string{"protocol"})

	LastSnapshot = promauto.NewGauge(prometheus.GaugeOpts{
		Namespace: namespace,
		Subsystem: "monitor",
		Name:      "last_snapshot_timestamp",
		Help:      "Unix timestamp of the latest snapshot bucket.",
	})

	AlertsSentTotal = promauto.NewCounter(prometheus.CounterOpts{
		Namespace: namespace,
		Subsystem: "alerts",
		Name:      "sent_total",
		Help:      "Liquidity-shift alerts delivered.",
	})

	AlertsFailedTotal = promauto.NewCounter(prometheus.CounterOpts{
		Namespace: namespace,
		Subsystem: "alerts",
		Name:      "failed_total",
		Help:      "Liquidity-shift alerts that failed to deliver.",
	})
)

// ObserveUpstream records one upstream lookup. elapsed is ignored for cache hits.
func ObserveUpstream(source, outcome string, elapsed time.Duration) {
	UpstreamRequestsTotal.WithLabelValues(source, outcome).Inc()
	if outcome != OutcomeCacheHit {
		UpstreamRequestDuration.WithLabelValues(source).Observe(elapsed.Seconds())
	}
}
