package metrics

import (
	"errors"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"
	"time"

	"github.com/prometheus/client_golang/prometheus/testutil"

	"villagefeed/extractor"
	"villagefeed/models"
)

var loc = models.Location{Slug: "moline", Name: "Moline Village"}

func TestManager_ObserverCounters(t *testing.T) {
	m := NewManager("villagefeed")

	m.FetchFailed(loc, &extractor.HTTPStatusError{StatusCode: 503})
	m.FetchFailed(loc, errors.New("dial tcp: refused"))
	m.CandidateFound(loc, extractor.Candidate{})
	m.CandidateRejected(loc, extractor.Candidate{}, extractor.ErrMissingPrice)
	m.CandidateRejected(loc, extractor.Candidate{}, &extractor.CandidateError{Err: errors.New("x")})
	m.StrategyFailed(loc, "next_data", extractor.ErrNextDataNotFound)
	m.LocationDone(loc, extractor.LocationReport{Strategy: "html_cards", Count: 4, Duration: time.Second})
	m.RunSummary(extractor.RunSummary{Locations: 2, Failed: 1})

	checks := []struct {
		got  float64
		want float64
		name string
	}{
		{testutil.ToFloat64(m.FetchesTotal.WithLabelValues("moline", "http_status")), 1, "http_status"},
		{testutil.ToFloat64(m.FetchesTotal.WithLabelValues("moline", "network_error")), 1, "network_error"},
		{testutil.ToFloat64(m.FetchesTotal.WithLabelValues("moline", "ok")), 1, "ok"},
		{testutil.ToFloat64(m.CandidatesTotal.WithLabelValues("moline", "missing_price")), 1, "missing_price"},
		{testutil.ToFloat64(m.CandidatesTotal.WithLabelValues("moline", "error")), 1, "candidate error"},
		{testutil.ToFloat64(m.StrategyFailuresTotal.WithLabelValues("moline", "next_data")), 1, "strategy"},
		{testutil.ToFloat64(m.ListingsExtracted.WithLabelValues("moline", "html_cards")), 4, "listings"},
		{testutil.ToFloat64(m.ExtractionRunsTotal.WithLabelValues("partial")), 1, "partial run"},
	}
	for _, c := range checks {
		if c.got != c.want {
			t.Fatalf("%s: got %v, want %v", c.name, c.got, c.want)
		}
	}
}

func TestManager_RecordSync(t *testing.T) {
	m := NewManager("villagefeed")
	ts := time.Date(2026, 3, 1, 9, 0, 0, 0, time.UTC)

	m.RecordSync(&models.SyncOutcome{Trigger: models.TriggerAutomated, Count: 7, Duration: 2500, Timestamp: ts}, models.RunStatusCompleted)
	m.RecordSync(&models.SyncOutcome{Trigger: models.TriggerAutomated}, models.RunStatusSkipped)

	if got := testutil.ToFloat64(m.SyncRunsTotal.WithLabelValues("automated", "completed")); got != 1 {
		t.Fatalf("expected 1 completed sync, got %v", got)
	}
	if got := testutil.ToFloat64(m.SyncRunsTotal.WithLabelValues("automated", "skipped")); got != 1 {
		t.Fatalf("expected 1 skipped sync, got %v", got)
	}
	if got := testutil.ToFloat64(m.CachedListings); got != 7 {
		t.Fatalf("expected 7 cached listings, got %v", got)
	}
	if got := testutil.ToFloat64(m.LastSyncTimestamp); got != float64(ts.Unix()) {
		t.Fatalf("unexpected last sync timestamp %v", got)
	}
}

func TestManager_Handler(t *testing.T) {
	m := NewManager("villagefeed")
	m.CandidateFound(loc, extractor.Candidate{})

	rec := httptest.NewRecorder()
	m.Handler().ServeHTTP(rec, httptest.NewRequest(http.MethodGet, "/metrics", nil))
	if rec.Code != http.StatusOK {
		t.Fatalf("expected 200, got %d", rec.Code)
	}
	if !strings.Contains(rec.Body.String(), `villagefeed_candidates_total{location="moline",outcome="found"} 1`) {
		t.Fatalf("candidate counter missing from exposition")
	}
}
