package metrics

import (
	"errors"
	"net/http"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/collectors"
	"github.com/prometheus/client_golang/prometheus/promhttp"

	"villagefeed/extractor"
	"villagefeed/models"
)

// Manager holds the feed's Prometheus metrics on a private registry. It also
// serves as an extractor.Observer.
type Manager struct {
	Registry *prometheus.Registry

	FetchesTotal          *prometheus.CounterVec
	CandidatesTotal       *prometheus.CounterVec
	StrategyFailuresTotal *prometheus.CounterVec
	ListingsExtracted     *prometheus.GaugeVec
	LocationDuration      *prometheus.HistogramVec
	ExtractionRunsTotal   *prometheus.CounterVec
	SyncRunsTotal         *prometheus.CounterVec
	SyncDuration          prometheus.Histogram
	LastSyncTimestamp     prometheus.Gauge
	CachedListings        prometheus.Gauge
}

func NewManager(namespace string) *Manager {
	registry := prometheus.NewRegistry()

	m := &Manager{
		Registry: registry,
		FetchesTotal: prometheus.NewCounterVec(prometheus.CounterOpts{
			Namespace: namespace,
			Name:      "fetches_total",
			Help:      "Location page fetches by outcome.",
		}, []string{"location", "result"}),
		CandidatesTotal: prometheus.NewCounterVec(prometheus.CounterOpts{
			Namespace: namespace,
			Name:      "candidates_total",
			Help:      "Listing candidates by outcome.",
		}, []string{"location", "outcome"}),
		StrategyFailuresTotal: prometheus.NewCounterVec(prometheus.CounterOpts{
			Namespace: namespace,
			Name:      "strategy_failures_total",
			Help:      "Extraction strategy failures.",
		}, []string{"location", "strategy"}),
		ListingsExtracted: prometheus.NewGaugeVec(prometheus.GaugeOpts{
			Namespace: namespace,
			Name:      "listings_extracted",
			Help:      "Listings found for a location on its last successful extraction.",
		}, []string{"location", "strategy"}),
		LocationDuration: prometheus.NewHistogramVec(prometheus.HistogramOpts{
			Namespace: namespace,
			Name:      "location_extraction_seconds",
			Help:      "Time to fetch and extract one location.",
			Buckets:   prometheus.DefBuckets,
		}, []string{"location"}),
		ExtractionRunsTotal: prometheus.NewCounterVec(prometheus.CounterOpts{
			Namespace: namespace,
			Name:      "extraction_runs_total",
			Help:      "Extraction runs by outcome.",
		}, []string{"result"}),
		SyncRunsTotal: prometheus.NewCounterVec(prometheus.CounterOpts{
			Namespace: namespace,
			Name:      "sync_runs_total",
			Help:      "Sync runs by trigger and status.",
		}, []string{"trigger", "status"}),
		SyncDuration: prometheus.NewHistogram(prometheus.HistogramOpts{
			Namespace: namespace,
			Name:      "sync_duration_seconds",
			Help:      "Wall time of completed syncs.",
			Buckets:   []float64{1, 2.5, 5, 10, 30, 60, 120},
		}),
		LastSyncTimestamp: prometheus.NewGauge(prometheus.GaugeOpts{
			Namespace: namespace,
			Name:      "last_sync_timestamp_seconds",
			Help:      "Unix time of the last stored sync.",
		}),
		CachedListings: prometheus.NewGauge(prometheus.GaugeOpts{
			Namespace: namespace,
			Name:      "cached_listings",
			Help:      "Listings in the stored property cache.",
		}),
	}

	registry.MustRegister(
		m.FetchesTotal,
		m.CandidatesTotal,
		m.StrategyFailuresTotal,
		m.ListingsExtracted,
		m.LocationDuration,
		m.ExtractionRunsTotal,
		m.SyncRunsTotal,
		m.SyncDuration,
		m.LastSyncTimestamp,
		m.CachedListings,
		collectors.NewGoCollector(),
		collectors.NewProcessCollector(collectors.ProcessCollectorOpts{}),
	)

	return m
}

func (m *Manager) Handler() http.Handler {
	return promhttp.HandlerFor(m.Registry, promhttp.HandlerOpts{})
}

func (m *Manager) FetchStart(models.Location) {}

func (m *Manager) FetchFailed(loc models.Location, err error) {
	result := "network_error"
	var statusErr *extractor.HTTPStatusError
	if errors.As(err, &statusErr) {
		result = "http_status"
	}
	m.FetchesTotal.WithLabelValues(loc.Slug, result).Inc()
}

func (m *Manager) CandidateFound(loc models.Location, _ extractor.Candidate) {
	m.CandidatesTotal.WithLabelValues(loc.Slug, "found").Inc()
}

func (m *Manager) CandidateRejected(loc models.Location, _ extractor.Candidate, reason error) {
	outcome := "error"
	switch {
	case errors.Is(reason, extractor.ErrMissingTitle):
		outcome = "missing_title"
	case errors.Is(reason, extractor.ErrMissingPrice):
		outcome = "missing_price"
	}
	m.CandidatesTotal.WithLabelValues(loc.Slug, outcome).Inc()
}

func (m *Manager) StrategyFailed(loc models.Location, strategy string, _ error) {
	m.StrategyFailuresTotal.WithLabelValues(loc.Slug, strategy).Inc()
}

func (m *Manager) LocationDone(loc models.Location, r extractor.LocationReport) {
	m.FetchesTotal.WithLabelValues(loc.Slug, "ok").Inc()
	strategy := r.Strategy
	if strategy == "" {
		strategy = "none"
	}
	m.ListingsExtracted.WithLabelValues(loc.Slug, strategy).Set(float64(r.Count))
	m.LocationDuration.WithLabelValues(loc.Slug).Observe(r.Duration.Seconds())
}

func (m *Manager) RunSummary(s extractor.RunSummary) {
	result := "complete"
	switch {
	case s.Failed > 0 && s.Failed == s.Locations:
		result = "failed"
	case s.Failed > 0:
		result = "partial"
	}
	m.ExtractionRunsTotal.WithLabelValues(result).Inc()
}

// RecordSync counts a finished sync attempt.
func (m *Manager) RecordSync(o *models.SyncOutcome, status models.RunStatus) {
	m.SyncRunsTotal.WithLabelValues(string(o.Trigger), string(status)).Inc()
	if status == models.RunStatusCompleted || status == models.RunStatusPartial {
		m.SyncDuration.Observe(float64(o.Duration) / 1000)
		m.LastSyncTimestamp.Set(float64(o.Timestamp.Unix()))
		m.CachedListings.Set(float64(o.Count))
	}
}
