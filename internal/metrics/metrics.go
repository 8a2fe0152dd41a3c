package metrics

import (
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
)

var (
	FeedFetchesTotal = promauto.NewCounterVec(
		prometheus.CounterOpts{
			Name: "surfdash_feed_fetches_total",
			Help: "Total tide feed fetches",
		},
		[]string{"feed", "status"},
	)

	FeedFetchLatency = promauto.NewHistogramVec(
		prometheus.HistogramOpts{
			Name:    "surfdash_feed_fetch_latency_seconds",
			Help:    "Tide feed fetch latency in seconds",
			Buckets: prometheus.DefBuckets,
		},
		[]string{"feed"},
	)

	PointsParsed = promauto.NewCounterVec(
		prometheus.CounterOpts{
			Name: "surfdash_feed_points_parsed_total",
			Help: "Total series points decoded from feeds",
		},
		[]string{"feed"},
	)

	PointsSkipped = promauto.NewCounterVec(
		prometheus.CounterOpts{
			Name: "surfdash_feed_points_skipped_total",
			Help: "Series points dropped for malformed timestamps or values",
		},
		[]string{"feed"},
	)

	ReconcileRunsTotal = promauto.NewCounterVec(
		prometheus.CounterOpts{
			Name: "surfdash_reconcile_runs_total",
			Help: "Reconciliation passes completed",
		},
		[]string{"status"},
	)

	SnapshotStaleDropsTotal = promauto.NewCounter(
		prometheus.CounterOpts{
			Name: "surfdash_snapshot_stale_drops_total",
			Help: "Refresh results discarded because a newer generation already published",
		},
	)

	ResidualGauge = promauto.NewGaugeVec(
		prometheus.GaugeOpts{
			Name: "surfdash_latest_residual_metres",
			Help: "Most recent observed-minus-predicted residual per station",
		},
		[]string{"station"},
	)

	CardRendersTotal = promauto.NewCounterVec(
		prometheus.CounterOpts{
			Name: "surfdash_card_renders_total",
			Help: "Share cards rendered, excluding cache hits",
		},
		[]string{"station"},
	)
)
