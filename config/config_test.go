package config

import (
	"os"
	"path/filepath"
	"testing"
	"time"
)

func writeFile(t *testing.T, dir, name, body string) {
	t.Helper()
	if err := os.WriteFile(filepath.Join(dir, name), []byte(body), 0644); err != nil {
		t.Fatalf("write %s: %v", name, err)
	}
}

func TestLoadLocations_SortedByFileName(t *testing.T) {
	dir := t.TempDir()
	writeFile(t, dir, "b.yaml", "slug: riverside\nname: Collier Park\nurl: https://example.com/collier-park\n")
	writeFile(t, dir, "a.yaml", "slug: moline\nurl: https://example.com/moline-village\nbase_url: https://cdn.example.com\n")
	writeFile(t, dir, "notes.txt", "ignored")

	locs, err := LoadLocations(dir)
	if err != nil {
		t.Fatalf("load failed: %v", err)
	}
	if len(locs) != 2 {
		t.Fatalf("expected 2 locations, got %d", len(locs))
	}
	if locs[0].Slug != "moline" || locs[1].Slug != "riverside" {
		t.Fatalf("unexpected order %s, %s", locs[0].Slug, locs[1].Slug)
	}
	if locs[0].Name != "moline" {
		t.Fatalf("expected name to default to slug, got %s", locs[0].Name)
	}
	if locs[0].BaseURL != "https://cdn.example.com" {
		t.Fatalf("unexpected base url %s", locs[0].BaseURL)
	}
}

func TestLoadLocations_Invalid(t *testing.T) {
	dir := t.TempDir()
	writeFile(t, dir, "a.yaml", "name: Nowhere\n")
	if _, err := LoadLocations(dir); err == nil {
		t.Fatalf("expected error for location without slug")
	}

	dir = t.TempDir()
	writeFile(t, dir, "a.yaml", "slug: moline\nurl: https://example.com/a\n")
	writeFile(t, dir, "b.yaml", "slug: moline\nurl: https://example.com/b\n")
	if _, err := LoadLocations(dir); err == nil {
		t.Fatalf("expected error for duplicate slug")
	}
}

func TestLoadLocations_MissingDir(t *testing.T) {
	locs, err := LoadLocations(filepath.Join(t.TempDir(), "absent"))
	if err != nil || locs != nil {
		t.Fatalf("expected no locations and no error, got %v %v", locs, err)
	}
}

func TestLoad_DefaultsAndOverrides(t *testing.T) {
	t.Setenv("LOCATIONS_DIR", t.TempDir())
	t.Setenv("FETCH_TIMEOUT", "12s")
	t.Setenv("SYNC_MIN_INTERVAL", "not-a-duration")
	t.Setenv("EXTRACT_CONCURRENCY", "2")
	t.Setenv("CACHE_BACKEND", "memory")
	t.Setenv("FETCH_RATE", "0.5")

	cfg, err := Load()
	if err != nil {
		t.Fatalf("load failed: %v", err)
	}
	if cfg.Fetch.Timeout != 12*time.Second {
		t.Fatalf("expected 12s timeout, got %v", cfg.Fetch.Timeout)
	}
	if cfg.Sync.MinInterval != 4*time.Hour {
		t.Fatalf("expected default 4h interval, got %v", cfg.Sync.MinInterval)
	}
	if cfg.Fetch.RatePerSec != 0.5 || cfg.Fetch.RateBurst != 1 {
		t.Fatalf("unexpected rate settings %v/%d", cfg.Fetch.RatePerSec, cfg.Fetch.RateBurst)
	}
	if cfg.Fetch.Concurrency != 2 || cfg.Cache.Backend != "memory" {
		t.Fatalf("unexpected overrides %+v %+v", cfg.Fetch, cfg.Cache)
	}
	if len(cfg.Locations) != 2 || cfg.Locations[0].Slug != "moline" || cfg.Locations[1].Slug != "riverside" {
		t.Fatalf("expected built-in locations, got %+v", cfg.Locations)
	}
}

func TestShippedLocationFiles(t *testing.T) {
	locs, err := LoadLocations("locations")
	if err != nil {
		t.Fatalf("load failed: %v", err)
	}
	if len(locs) != len(DefaultLocations) {
		t.Fatalf("expected %d shipped locations, got %d", len(DefaultLocations), len(locs))
	}
	for i, loc := range locs {
		if loc != DefaultLocations[i] {
			t.Fatalf("shipped location %d differs from built-in: %+v", i, loc)
		}
	}
}

func TestLoad_ExtractSettings(t *testing.T) {
	t.Setenv("LOCATIONS_DIR", t.TempDir())
	t.Setenv("SEARCH_MAX_DEPTH", "6")
	t.Setenv("CHAR_ARRAY_MIN_ENTRIES", "40")
	t.Setenv("EXTRACT_STRATEGIES", " next_data , ,html_cards,")

	cfg, err := Load()
	if err != nil {
		t.Fatalf("load failed: %v", err)
	}
	if cfg.Extract.MaxDepth != 6 || cfg.Extract.MinCharArrayEntries != 40 {
		t.Fatalf("unexpected extract overrides %+v", cfg.Extract)
	}
	if cfg.Extract.MinKeys != 3 || cfg.Extract.MaxImageDepth != 5 {
		t.Fatalf("unexpected extract defaults %+v", cfg.Extract)
	}
	if len(cfg.Extract.Strategies) != 2 || cfg.Extract.Strategies[0] != "next_data" || cfg.Extract.Strategies[1] != "html_cards" {
		t.Fatalf("unexpected strategies %v", cfg.Extract.Strategies)
	}
}
