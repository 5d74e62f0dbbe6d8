package main

import (
	"context"
	"encoding/json"
	"errors"
	"flag"
	"log"
	"net/http"
	"net/url"
	"os"
	"os/signal"
	"syscall"
	"time"

	"villagefeed/api"
	"villagefeed/config"
	"villagefeed/extractor"
	"villagefeed/httputil"
	"villagefeed/logging"
	"villagefeed/metrics"
	"villagefeed/models"
	"villagefeed/scheduler"
	"villagefeed/storage"
	"villagefeed/syncer"
)

var (
	syncNow  = flag.Bool("sync", false, "Run one sync and exit")
	force    = flag.Bool("force", false, "Bypass the minimum sync interval")
	location = flag.String("location", "", "Extract one location, print its listings as JSON and exit")
)

func main() {
	flag.Parse()
	log.SetFlags(log.LstdFlags | log.Lshortfile)

	cfg, err := config.Load()
	if err != nil {
		log.Fatalf("Failed to load config: %v", err)
	}

	logFile, err := logging.Setup(cfg.LogFile)
	if err != nil {
		log.Printf("Warning: could not set up file logging: %v", err)
	} else {
		defer logFile.Close()
	}

	log.Println("Starting villagefeed...")
	log.Printf("Loaded %d locations", len(cfg.Locations))
	for _, loc := range cfg.Locations {
		log.Printf("  - %s (%s)", loc.Name, loc.Slug)
	}

	logger := logging.NewLogger(cfg.LogLevel)
	metricsManager := metrics.NewManager("villagefeed")
	clients := httputil.NewClients(cfg.Fetch)
	if cfg.Fetch.ProxyURL != "" {
		log.Printf("Proxy: %s", redact(cfg.Fetch.ProxyURL))
	}

	fetcher := extractor.NewFetcher(cfg.Fetch.Mode, clients.Scraping, cfg.Fetch.Timeout)
	fetcher = extractor.NewRateLimitedFetcher(fetcher, cfg.Fetch.RatePerSec, cfg.Fetch.RateBurst)
	if closer, ok := fetcher.(interface{ Close() }); ok {
		defer closer.Close()
	}
	log.Printf("Fetch mode: %s", cfg.Fetch.Mode)

	strategies, err := extractor.StrategiesByName(cfg.Extract.Strategies, extractor.Heuristics{
		MaxDepth:            cfg.Extract.MaxDepth,
		MinCharArrayEntries: cfg.Extract.MinCharArrayEntries,
		MinKeys:             cfg.Extract.MinKeys,
		MaxImageDepth:       cfg.Extract.MaxImageDepth,
	})
	if err != nil {
		log.Fatalf("Invalid extraction config: %v", err)
	}

	ext := extractor.NewExtractor(fetcher, cfg.Locations)
	ext.SetStrategies(strategies...)
	ext.SetObserver(extractor.Observers{logging.NewObserver(logger), metricsManager})
	ext.SetConcurrency(cfg.Fetch.Concurrency)

	ctx := context.Background()

	if *location != "" {
		listings, err := ext.ExtractOne(ctx, *location)
		if err != nil {
			log.Fatalf("Extraction failed: %v", err)
		}
		enc := json.NewEncoder(os.Stdout)
		enc.SetIndent("", "  ")
		if err := enc.Encode(listings); err != nil {
			log.Fatalf("Failed to write listings: %v", err)
		}
		return
	}

	store, err := storage.New(ctx, cfg.Cache, clients.API)
	if err != nil {
		log.Fatalf("Failed to open %s cache: %v", cfg.Cache.Backend, err)
	}
	defer store.Close()
	log.Printf("Cache backend: %s", describeBackend(cfg.Cache))

	svc := syncer.New(ext, store, logger)
	svc.SetRecorder(metricsManager)
	svc.SetMinInterval(cfg.Sync.MinInterval)

	// Handle one-shot sync
	if *syncNow {
		trigger := models.TriggerManual
		if !*force {
			trigger = models.TriggerAutomated
		}
		outcome, err := svc.Run(ctx, *force, trigger)
		if err != nil {
			log.Fatalf("Sync failed: %v", err)
		}
		if outcome.Skipped {
			log.Printf("Sync skipped: %s", outcome.Message)
			return
		}
		log.Printf("Sync complete! %d listings in %dms", outcome.Count, outcome.Duration)
		return
	}

	// Daemon mode
	ctx, cancel := context.WithCancel(ctx)
	defer cancel()

	sched := scheduler.New(cfg.Scheduler, svc, logger)
	if err := sched.Start(ctx); err != nil {
		log.Fatalf("Failed to start scheduler: %v", err)
	}

	handler := api.NewHandler(svc, cfg.Locations, cfg.Sync.CronSecret, logger)
	server := &http.Server{
		Addr:              cfg.HTTPAddr,
		Handler:           api.NewRouter(handler, metricsManager.Handler()),
		ReadHeaderTimeout: 10 * time.Second,
	}
	go func() {
		log.Printf("HTTP server listening on %s", cfg.HTTPAddr)
		if err := server.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			log.Fatalf("HTTP server error: %v", err)
		}
	}()

	log.Println("Daemon running. Press Ctrl+C to stop.")

	sigCh := make(chan os.Signal, 1)
	signal.Notify(sigCh, syscall.SIGINT, syscall.SIGTERM)
	<-sigCh

	log.Println("Shutting down...")
	shutdownCtx, shutdownCancel := context.WithTimeout(context.Background(), 10*time.Second)
	defer shutdownCancel()
	if err := server.Shutdown(shutdownCtx); err != nil {
		log.Printf("HTTP shutdown error: %v", err)
	}
	sched.Stop()
	log.Println("Goodbye!")
}

func describeBackend(c config.CacheConfig) string {
	switch c.Backend {
	case "postgres":
		return "postgres " + redact(c.DatabaseURL)
	case "redis":
		return "redis " + c.RedisAddr
	case "s3":
		return "s3 " + c.S3.Bucket + "/" + c.S3.Prefix
	case "edgeconfig":
		return "edgeconfig " + c.EdgeConfig.ID
	case "memory":
		return "memory"
	}
	return "sqlite " + c.DBPath
}

// redact masks the password in a connection string for logging.
func redact(raw string) string {
	u, err := url.Parse(raw)
	if err != nil || u.User == nil {
		return raw
	}
	return u.Redacted()
}
