package observability

import (
	"time"

	"github.com/prometheus/client_golang/prometheus"
)

var (
	ProviderRequests = prometheus.NewCounterVec(
		prometheus.CounterOpts{Namespace: "faregate", Name: "provider_requests_total", Help: "Provider fetches by outcome."},
		[]string{"provider", "outcome"}, // outcome: success|timeout|rejected|malformed_response|stale
	)
	ProviderLatency = prometheus.NewHistogramVec(
		prometheus.HistogramOpts{
			Namespace: "faregate", Name: "provider_request_duration_seconds",
			Help:    "Provider fetch duration seconds.",
			Buckets: prometheus.DefBuckets,
		},
		[]string{"provider"},
	)
	OffersMerged = prometheus.NewCounterVec(
		prometheus.CounterOpts{Namespace: "faregate", Name: "offers_merged_total", Help: "Offers accepted into aggregated sets."},
		[]string{"provider"},
	)
	DedupSupersessions = prometheus.NewCounter(
		prometheus.CounterOpts{Namespace: "faregate", Name: "dedup_supersessions_total", Help: "Offers replaced by a cheaper duplicate."},
	)
	SkippedRecords = prometheus.NewCounterVec(
		prometheus.CounterOpts{Namespace: "faregate", Name: "skipped_records_total", Help: "Raw provider records dropped as unparseable."},
		[]string{"provider", "reason"},
	)
	CacheEvents = prometheus.NewCounterVec(
		prometheus.CounterOpts{Namespace: "faregate", Name: "cache_events_total", Help: "Search cache hits/misses/sets."},
		[]string{"event"}, // event: hit|miss|set
	)
)

func InitRegistry() *prometheus.Registry {
	reg := prometheus.NewRegistry()
	reg.MustRegister(ProviderRequests, ProviderLatency, OffersMerged, DedupSupersessions, SkippedRecords, CacheEvents)
	return reg
}

func ObserveProvider(provider, outcome string, dur time.Duration) {
	ProviderRequests.WithLabelValues(provider, outcome).Inc()
	ProviderLatency.WithLabelValues(provider).Observe(dur.Seconds())
}

func ObserveCache(event string) {
	CacheEvents.WithLabelValues(event).Inc()
}
