// Package observability provides Prometheus metrics for monitoring.
package observability

import (
	"net/http"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
	"github.com/prometheus/client_golang/prometheus/promhttp"
)

// Metrics holds all Prometheus metrics for the relay.
type Metrics struct {
	// Ingestion metrics
	TransactionsProcessed prometheus.Counter
	TransactionsSkipped   *prometheus.CounterVec
	TradesExtracted       *prometheus.CounterVec
	WebhookBatches        prometheus.Counter
	PollCycles            *prometheus.CounterVec

	// Notification metrics
	NotificationsSent   *prometheus.CounterVec
	NotificationErrors  prometheus.Counter
	WindowsFlushed      prometheus.Counter
	BaseVolumeNotified  prometheus.Counter

	// Queue and cache metrics
	QueueDepth         prometheus.Gauge
	QueueWindowCalls   prometheus.Gauge
	DedupSize          prometheus.Gauge
	BucketsOutstanding prometheus.Gauge

	// Upstream metrics
	HeliusCallLatency prometheus.Histogram
	RPCCallLatency    *prometheus.HistogramVec
	RateLimitPauses   prometheus.Counter

	// Health metrics
	LastSuccessfulPoll prometheus.Gauge
	HolderCount        prometheus.Gauge
}

// NewMetrics creates a new Metrics instance with all metrics registered.
func NewMetrics(namespace string) *Metrics {
	if namespace == "" {
		namespace = "trade_relay"
	}

	return &Metrics{
		// Ingestion metrics
		TransactionsProcessed: promauto.NewCounter(prometheus.CounterOpts{
			Namespace: namespace,
			Subsystem: "ingestion",
			Name:      "transactions_processed_total",
			Help:      "Total number of transactions considered by the pipeline",
		}),
		TransactionsSkipped: promauto.NewCounterVec(prometheus.CounterOpts{
			Namespace: namespace,
			Subsystem: "ingestion",
			Name:      "transactions_skipped_total",
			Help:      "Total number of transactions skipped by reason",
		}, []string{"reason"}),
		TradesExtracted: promauto.NewCounterVec(prometheus.CounterOpts{
			Namespace: namespace,
			Subsystem: "ingestion",
			Name:      "trades_extracted_total",
			Help:      "Total number of trades extracted by side",
		}, []string{"side"}),
		WebhookBatches: promauto.NewCounter(prometheus.CounterOpts{
			Namespace: namespace,
			Subsystem: "ingestion",
			Name:      "webhook_batches_total",
			Help:      "Total number of webhook payloads accepted",
		}),
		PollCycles: promauto.NewCounterVec(prometheus.CounterOpts{
			Namespace: namespace,
			Subsystem: "ingestion",
			Name:      "poll_cycles_total",
			Help:      "Total number of poll cycles by status",
		}, []string{"status"}),

		// Notification metrics
		NotificationsSent: promauto.NewCounterVec(prometheus.CounterOpts{
			Namespace: namespace,
			Subsystem: "notify",
			Name:      "messages_sent_total",
			Help:      "Total number of Telegram messages sent by kind",
		}, []string{"kind"}),
		NotificationErrors: promauto.NewCounter(prometheus.CounterOpts{
			Namespace: namespace,
			Subsystem: "notify",
			Name:      "errors_total",
			Help:      "Total number of failed Telegram sends",
		}),
		WindowsFlushed: promauto.NewCounter(prometheus.CounterOpts{
			Namespace: namespace,
			Subsystem: "notify",
			Name:      "windows_flushed_total",
			Help:      "Total number of batch windows flushed",
		}),
		BaseVolumeNotified: promauto.NewCounter(prometheus.CounterOpts{
			Namespace: namespace,
			Subsystem: "notify",
			Name:      "base_volume_total",
			Help:      "Total base-asset volume carried by notified trades",
		}),

		// Queue and cache metrics
		QueueDepth: promauto.NewGauge(prometheus.GaugeOpts{
			Namespace: namespace,
			Subsystem: "ratelimit",
			Name:      "queue_depth",
			Help:      "Current number of pending outbound requests",
		}),
		QueueWindowCalls: promauto.NewGauge(prometheus.GaugeOpts{
			Namespace: namespace,
			Subsystem: "ratelimit",
			Name:      "window_calls",
			Help:      "Calls spent in the current rate window",
		}),
		DedupSize: promauto.NewGauge(prometheus.GaugeOpts{
			Namespace: namespace,
			Subsystem: "dedup",
			Name:      "cache_size",
			Help:      "Current number of signatures in the dedup cache",
		}),
		BucketsOutstanding: promauto.NewGauge(prometheus.GaugeOpts{
			Namespace: namespace,
			Subsystem: "batch",
			Name:      "buckets_outstanding",
			Help:      "Batch buckets waiting for their flush timer",
		}),

		// Upstream metrics
		HeliusCallLatency: promauto.NewHistogram(prometheus.HistogramOpts{
			Namespace: namespace,
			Subsystem: "helius",
			Name:      "call_latency_seconds",
			Help:      "Helius API call latency in seconds",
			Buckets:   prometheus.DefBuckets,
		}),
		RPCCallLatency: promauto.NewHistogramVec(prometheus.HistogramOpts{
			Namespace: namespace,
			Subsystem: "solana",
			Name:      "rpc_call_latency_seconds",
			Help:      "Solana RPC call latency in seconds",
			Buckets:   prometheus.DefBuckets,
		}, []string{"method"}),
		RateLimitPauses: promauto.NewCounter(prometheus.CounterOpts{
			Namespace: namespace,
			Subsystem: "helius",
			Name:      "rate_limit_pauses_total",
			Help:      "Total number of poller pauses caused by upstream rate limits",
		}),

		// Health metrics
		LastSuccessfulPoll: promauto.NewGauge(prometheus.GaugeOpts{
			Namespace: namespace,
			Subsystem: "health",
			Name:      "last_successful_poll_timestamp",
			Help:      "Unix timestamp of the last successful poll cycle",
		}),
		HolderCount: promauto.NewGauge(prometheus.GaugeOpts{
			Namespace: namespace,
			Subsystem: "health",
			Name:      "holder_count",
			Help:      "Most recent holder count of the tracked token",
		}),
	}
}

// Handler returns an HTTP handler for the /metrics endpoint.
func Handler() http.Handler {
	return promhttp.Handler()
}
