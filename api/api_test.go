package api

import (
	"context"
	"encoding/json"
	"fmt"
	"net/http"
	"net/http/httptest"
	"testing"

	"villagefeed/models"
	"villagefeed/syncer"
)

type fakeService struct {
	outcome    *models.SyncOutcome
	runErr     error
	result     *syncer.PropertiesResult
	propsErr   error
	gotForce   bool
	gotTrigger models.Trigger
	gotFilters syncer.Filters
	runs       []models.SyncRun
	runCalls   int
}

func (f *fakeService) Run(ctx context.Context, force bool, trigger models.Trigger) (*models.SyncOutcome, error) {
	f.runCalls++
	f.gotForce = force
	f.gotTrigger = trigger
	return f.outcome, f.runErr
}

func (f *fakeService) Properties(ctx context.Context, filters syncer.Filters) (*syncer.PropertiesResult, error) {
	f.gotFilters = filters
	return f.result, f.propsErr
}

func (f *fakeService) RecentRuns(ctx context.Context, limit int) ([]models.SyncRun, error) {
	return f.runs, nil
}

var testLocations = []models.Location{{Slug: "moline"}, {Slug: "riverside"}}

func serve(t *testing.T, svc *fakeService, secret string, req *http.Request) (*httptest.ResponseRecorder, map[string]any) {
	t.Helper()
	router := NewRouter(NewHandler(svc, testLocations, secret, nil), nil)
	rec := httptest.NewRecorder()
	router.ServeHTTP(rec, req)

	var body map[string]any
	if err := json.Unmarshal(rec.Body.Bytes(), &body); err != nil {
		t.Fatalf("response is not JSON: %v (%s)", err, rec.Body.String())
	}
	return rec, body
}

func TestPropertiesOK(t *testing.T) {
	svc := &fakeService{result: &syncer.PropertiesResult{
		Success:    true,
		Properties: []models.Listing{{ID: "a", Title: "Apartment 308", Price: 360000}},
		Total:      1,
		Source:     "cache",
	}}
	req := httptest.NewRequest(http.MethodGet, "/api/properties?village=moline&beds=2", nil)
	rec, body := serve(t, svc, "", req)

	if rec.Code != http.StatusOK {
		t.Fatalf("expected 200, got %d", rec.Code)
	}
	if body["total"].(float64) != 1 || body["success"] != true {
		t.Fatalf("unexpected body: %v", body)
	}
	if len(svc.gotFilters.Locations) != 1 || svc.gotFilters.Bedrooms[0] != 2 {
		t.Fatalf("filters not parsed: %+v", svc.gotFilters)
	}
}

func TestPropertiesUnavailableIsRetryable(t *testing.T) {
	svc := &fakeService{result: &syncer.PropertiesResult{
		Success:    true,
		Properties: []models.Listing{},
		Errors:     []string{"failed to extract from moline: HTTP 403"},
	}}
	rec, body := serve(t, svc, "", httptest.NewRequest(http.MethodGet, "/api/properties", nil))

	if rec.Code != http.StatusServiceUnavailable {
		t.Fatalf("expected 503, got %d", rec.Code)
	}
	if body["retryable"] != true || body["success"] != false {
		t.Fatalf("expected retryable failure body, got %v", body)
	}
}

func TestPropertiesNoData(t *testing.T) {
	svc := &fakeService{propsErr: fmt.Errorf("%w: boom", syncer.ErrNoData)}
	rec, body := serve(t, svc, "", httptest.NewRequest(http.MethodGet, "/api/properties", nil))

	if rec.Code != http.StatusNotFound {
		t.Fatalf("expected 404, got %d", rec.Code)
	}
	if body["error"] != "No properties data available" {
		t.Fatalf("unexpected body: %v", body)
	}
}

func TestManualSync(t *testing.T) {
	svc := &fakeService{outcome: &models.SyncOutcome{Success: true, Count: 7, Trigger: models.TriggerManual}}
	rec, body := serve(t, svc, "secret", httptest.NewRequest(http.MethodGet, "/api/properties/sync?force=true", nil))

	if rec.Code != http.StatusOK || body["count"].(float64) != 7 {
		t.Fatalf("unexpected response %d: %v", rec.Code, body)
	}
	if !svc.gotForce || svc.gotTrigger != models.TriggerManual {
		t.Fatalf("expected forced manual run, got force=%t trigger=%s", svc.gotForce, svc.gotTrigger)
	}
}

func TestAutomatedSyncRequiresSecret(t *testing.T) {
	svc := &fakeService{outcome: &models.SyncOutcome{Success: true}}

	rec, _ := serve(t, svc, "secret", httptest.NewRequest(http.MethodPost, "/api/properties/sync", nil))
	if rec.Code != http.StatusUnauthorized || svc.runCalls != 0 {
		t.Fatalf("expected 401 without running, got %d (calls=%d)", rec.Code, svc.runCalls)
	}

	req := httptest.NewRequest(http.MethodPost, "/api/properties/sync", nil)
	req.Header.Set("Authorization", "Bearer secret")
	rec, _ = serve(t, svc, "secret", req)
	if rec.Code != http.StatusOK {
		t.Fatalf("expected 200 with secret, got %d", rec.Code)
	}
	if svc.gotForce || svc.gotTrigger != models.TriggerAutomated {
		t.Fatalf("expected unforced automated run, got force=%t trigger=%s", svc.gotForce, svc.gotTrigger)
	}
}

func TestAutomatedSyncWithoutConfiguredSecret(t *testing.T) {
	svc := &fakeService{outcome: &models.SyncOutcome{Success: true, Skipped: true}}
	rec, body := serve(t, svc, "", httptest.NewRequest(http.MethodPost, "/api/properties/sync", nil))
	if rec.Code != http.StatusOK || body["skipped"] != true {
		t.Fatalf("unexpected response %d: %v", rec.Code, body)
	}
}

func TestSyncFailureStatuses(t *testing.T) {
	cases := []struct {
		err  error
		code int
	}{
		{fmt.Errorf("%w: 2 locations failed", syncer.ErrNoListings), http.StatusServiceUnavailable},
		{fmt.Errorf("%w: 403", syncer.ErrStoreFailed), http.StatusInternalServerError},
		{fmt.Errorf("%w: panic", syncer.ErrExtractionFailed), http.StatusInternalServerError},
	}
	for _, tc := range cases {
		svc := &fakeService{outcome: &models.SyncOutcome{Success: false, Error: tc.err.Error()}, runErr: tc.err}
		rec, body := serve(t, svc, "", httptest.NewRequest(http.MethodGet, "/api/properties/sync", nil))
		if rec.Code != tc.code {
			t.Fatalf("%v: expected %d, got %d", tc.err, tc.code, rec.Code)
		}
		if body["success"] != false {
			t.Fatalf("%v: expected failure body, got %v", tc.err, body)
		}
	}
}

func TestHealthAndRuns(t *testing.T) {
	svc := &fakeService{}
	rec, body := serve(t, svc, "", httptest.NewRequest(http.MethodGet, "/healthz", nil))
	if rec.Code != http.StatusOK || body["status"] != "ok" {
		t.Fatalf("unexpected health response %d: %v", rec.Code, body)
	}

	rec, body = serve(t, svc, "", httptest.NewRequest(http.MethodGet, "/api/properties/runs?limit=5", nil))
	if rec.Code != http.StatusOK {
		t.Fatalf("expected 200, got %d", rec.Code)
	}
	if runs, ok := body["runs"].([]any); !ok || len(runs) != 0 {
		t.Fatalf("expected empty runs array, got %v", body["runs"])
	}
}
