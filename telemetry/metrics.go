// Package telemetry provides Prometheus metrics and correlation-id aware logging helpers.
package telemetry

import (
	"context"
	"log/slog"
	"sync"
	"time"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
)

var (
	once sync.Once

	// Counters
	MessagesSeen     prometheus.Counter
	LinksDetected    *prometheus.CounterVec // label: provider
	ThreadOutcomes   *prometheus.CounterVec // label: outcome
	ChunksDelivered  prometheus.Counter
	ResolverFailures *prometheus.CounterVec // label: provider

	// Histograms (seconds)
	ResolveDuration *prometheus.HistogramVec // label: provider
	HandleDuration  prometheus.Observer

	// Gauges
	LedgerSize       prometheus.Gauge
	DiscordConnected prometheus.Gauge // 1=connected,0=disconnected
)

// Init registers metrics (idempotent).
func Init() {
	once.Do(func() {
		MessagesSeen = promauto.NewCounter(prometheus.CounterOpts{Name: "threadbot_messages_seen_total", Help: "Number of Discord messages received"})
		LinksDetected = promauto.NewCounterVec(prometheus.CounterOpts{Name: "threadbot_links_detected_total", Help: "Number of supported links detected in eligible channels"}, []string{"provider"})
		ThreadOutcomes = promauto.NewCounterVec(prometheus.CounterOpts{Name: "threadbot_thread_outcomes_total", Help: "Pipeline outcomes per handled message"}, []string{"outcome"})
		ChunksDelivered = promauto.NewCounter(prometheus.CounterOpts{Name: "threadbot_chunks_delivered_total", Help: "Number of description chunks posted into threads"})
		ResolverFailures = promauto.NewCounterVec(prometheus.CounterOpts{Name: "threadbot_resolver_failures_total", Help: "Number of metadata resolution failures"}, []string{"provider"})
		ResolveDuration = promauto.NewHistogramVec(prometheus.HistogramOpts{Name: "threadbot_resolve_duration_seconds", Help: "Metadata resolution duration seconds", Buckets: prometheus.DefBuckets}, []string{"provider"})
		HandleDuration = promauto.NewHistogram(prometheus.HistogramOpts{Name: "threadbot_handle_duration_seconds", Help: "Total message handling duration seconds", Buckets: prometheus.DefBuckets})
		LedgerSize = promauto.NewGauge(prometheus.GaugeOpts{Name: "threadbot_ledger_size", Help: "Number of URLs recorded in the dedup ledger"})
		DiscordConnected = promauto.NewGauge(prometheus.GaugeOpts{Name: "threadbot_discord_connected", Help: "Discord gateway connected=1 disconnected=0"})
	})
}

// UpdateConnectedGauge sets gauge to 1 if connected else 0.
func UpdateConnectedGauge(connected bool) {
	if DiscordConnected != nil {
		if connected {
			DiscordConnected.Set(1)
		} else {
			DiscordConnected.Set(0)
		}
	}
}

// SetLedgerSize records the current ledger size.
func SetLedgerSize(n int) {
	if LedgerSize != nil {
		LedgerSize.Set(float64(n))
	}
}

// CountOutcome increments the outcome counter if metrics are initialized.
func CountOutcome(outcome string) {
	if ThreadOutcomes != nil {
		ThreadOutcomes.WithLabelValues(outcome).Inc()
	}
}

// CountMessage increments the received-message counter.
func CountMessage() {
	if MessagesSeen != nil {
		MessagesSeen.Inc()
	}
}

// CountResolverFailure increments the resolver failure counter for provider.
func CountResolverFailure(provider string) {
	if ResolverFailures != nil {
		ResolverFailures.WithLabelValues(provider).Inc()
	}
}

// AddChunks adds n to the delivered chunk counter.
func AddChunks(n int) {
	if ChunksDelivered != nil && n > 0 {
		ChunksDelivered.Add(float64(n))
	}
}

// CountLink increments the detected-link counter for provider.
func CountLink(provider string) {
	if LinksDetected != nil {
		LinksDetected.WithLabelValues(provider).Inc()
	}
}

// TimeFunc measures the duration of fn and records in observer if non-nil.
func TimeFunc(obs prometheus.Observer, fn func()) time.Duration {
	start := time.Now()
	fn()
	d := time.Since(start)
	if obs != nil {
		obs.Observe(d.Seconds())
	}
	return d
}

// ResolveObserver returns the resolve histogram for provider, or nil before Init.
func ResolveObserver(provider string) prometheus.Observer {
	if ResolveDuration == nil {
		return nil
	}
	return ResolveDuration.WithLabelValues(provider)
}

// Correlation ID helpers ----------------------------------------------------
type corrKeyType struct{}

var corrKey corrKeyType

// WithCorrelation returns a new context carrying the correlation id.
func WithCorrelation(ctx context.Context, id string) context.Context {
	return context.WithValue(ctx, corrKey, id)
}

// GetCorrelation returns correlation id or empty string.
func GetCorrelation(ctx context.Context) string {
	v := ctx.Value(corrKey)
	if s, ok := v.(string); ok {
		return s
	}
	return ""
}

// LoggerWithCorr returns a logger with corr attribute if present.
func LoggerWithCorr(ctx context.Context) *slog.Logger {
	if id := GetCorrelation(ctx); id != "" {
		return slog.Default().With(slog.String("corr", id))
	}
	return slog.Default()
}
