package config

import (
	"fmt"
	"os"
	"path/filepath"
	"sort"
	"strconv"
	"strings"
	"time"

	"github.com/joho/godotenv"
	"gopkg.in/yaml.v3"

	"villagefeed/models"
)

type Config struct {
	Fetch     FetchConfig
	Extract   ExtractConfig
	Cache     CacheConfig
	Sync      SyncConfig
	Scheduler SchedulerConfig
	HTTPAddr  string
	LogFile   string
	LogLevel  string
	Locations []models.Location
}

type FetchConfig struct {
	Timeout     time.Duration
	Mode        string // http | browser
	ProxyURL    string
	Concurrency int
	RatePerSec  float64 // 0 disables
	RateBurst   int
}

// ExtractConfig tunes the payload search. Zero values fall back to the
// extractor's defaults.
type ExtractConfig struct {
	MaxDepth            int
	MinCharArrayEntries int
	MinKeys             int
	MaxImageDepth       int
	Strategies          []string // tried in order
}

type CacheConfig struct {
	Backend       string // sqlite | postgres | redis | s3 | edgeconfig | memory
	DBPath        string
	DatabaseURL   string
	RedisAddr     string
	RedisPassword string
	RedisDB       int
	S3            S3Config
	EdgeConfig    EdgeConfigConfig
}

type S3Config struct {
	Bucket          string
	Region          string
	Endpoint        string
	AccessKeyID     string
	SecretAccessKey string
	Prefix          string
}

type EdgeConfigConfig struct {
	ID       string
	Token    string
	Endpoint string
}

type SyncConfig struct {
	MinInterval time.Duration
	CronSecret  string
}

type SchedulerConfig struct {
	Interval time.Duration
	Cron     string
}

// DefaultLocations are used when no location files are configured.
var DefaultLocations = []models.Location{
	{
		Slug:    "moline",
		Name:    "Moline Village",
		URL:     "https://www.amanaliving.com.au/retirement-villages/locations/moline-village",
		BaseURL: "https://www.amanaliving.com.au",
	},
	{
		Slug:    "riverside",
		Name:    "Collier Park",
		URL:     "https://www.amanaliving.com.au/retirement-villages/locations/collier-park",
		BaseURL: "https://www.amanaliving.com.au",
	},
}

const locationsDir = "config/locations"

func Load() (*Config, error) {
	_ = godotenv.Load()

	cfg := &Config{
		Fetch: FetchConfig{
			Timeout:     getEnvDuration("FETCH_TIMEOUT", 30*time.Second),
			Mode:        getEnv("FETCH_MODE", "http"),
			ProxyURL:    os.Getenv("PROXY_URL"),
			Concurrency: getEnvInt("EXTRACT_CONCURRENCY", 0),
			RatePerSec:  getEnvFloat("FETCH_RATE", 0),
			RateBurst:   getEnvInt("FETCH_BURST", 1),
		},
		Extract: ExtractConfig{
			MaxDepth:            getEnvInt("SEARCH_MAX_DEPTH", 10),
			MinCharArrayEntries: getEnvInt("CHAR_ARRAY_MIN_ENTRIES", 100),
			MinKeys:             getEnvInt("CANDIDATE_MIN_KEYS", 3),
			MaxImageDepth:       getEnvInt("IMAGE_MAX_DEPTH", 5),
			Strategies:          getEnvList("EXTRACT_STRATEGIES", []string{"next_data", "html_cards"}),
		},
		Cache: CacheConfig{
			Backend:       getEnv("CACHE_BACKEND", "sqlite"),
			DBPath:        getEnv("DB_PATH", "villagefeed.db"),
			DatabaseURL:   os.Getenv("DATABASE_URL"),
			RedisAddr:     getEnv("REDIS_ADDR", "localhost:6379"),
			RedisPassword: os.Getenv("REDIS_PASSWORD"),
			RedisDB:       getEnvInt("REDIS_DB", 0),
			S3: S3Config{
				Bucket:          os.Getenv("S3_BUCKET"),
				Region:          getEnv("S3_REGION", "auto"),
				Endpoint:        os.Getenv("S3_ENDPOINT"),
				AccessKeyID:     os.Getenv("S3_ACCESS_KEY_ID"),
				SecretAccessKey: os.Getenv("S3_SECRET_ACCESS_KEY"),
				Prefix:          getEnv("S3_PREFIX", "villagefeed/"),
			},
			EdgeConfig: EdgeConfigConfig{
				ID:       os.Getenv("EDGE_CONFIG"),
				Token:    os.Getenv("VERCEL_TOKEN"),
				Endpoint: getEnv("EDGE_CONFIG_ENDPOINT", "https://api.vercel.com/v1/edge-config"),
			},
		},
		Sync: SyncConfig{
			MinInterval: getEnvDuration("SYNC_MIN_INTERVAL", 4*time.Hour),
			CronSecret:  os.Getenv("CRON_SECRET"),
		},
		Scheduler: SchedulerConfig{
			Cron:     os.Getenv("SYNC_CRON"),
			Interval: getEnvDuration("SYNC_INTERVAL", 0),
		},
		HTTPAddr: getEnv("HTTP_ADDR", ":8080"),
		LogFile:  getEnv("LOG_FILE", "villagefeed.log"),
		LogLevel: getEnv("LOG_LEVEL", "info"),
	}

	locations, err := LoadLocations(getEnv("LOCATIONS_DIR", locationsDir))
	if err != nil {
		return nil, err
	}
	if len(locations) == 0 {
		locations = DefaultLocations
	}
	cfg.Locations = locations

	return cfg, nil
}

// LoadLocations reads every *.yaml file in dir as one location, sorted by
// file name. A missing dir yields no locations.
func LoadLocations(dir string) ([]models.Location, error) {
	entries, err := os.ReadDir(dir)
	if err != nil {
		if os.IsNotExist(err) {
			return nil, nil
		}
		return nil, err
	}

	var names []string
	for _, entry := range entries {
		if entry.IsDir() || filepath.Ext(entry.Name()) != ".yaml" {
			continue
		}
		names = append(names, entry.Name())
	}
	sort.Strings(names)

	seen := make(map[string]bool)
	var locations []models.Location
	for _, name := range names {
		path := filepath.Join(dir, name)
		data, err := os.ReadFile(path)
		if err != nil {
			return nil, err
		}

		var loc models.Location
		if err := yaml.Unmarshal(data, &loc); err != nil {
			return nil, fmt.Errorf("%s: %w", path, err)
		}
		if loc.Slug == "" || loc.URL == "" {
			return nil, fmt.Errorf("%s: slug and url are required", path)
		}
		if seen[loc.Slug] {
			return nil, fmt.Errorf("%s: duplicate location slug %q", path, loc.Slug)
		}
		seen[loc.Slug] = true
		if loc.Name == "" {
			loc.Name = loc.Slug
		}

		locations = append(locations, loc)
	}

	return locations, nil
}

func getEnv(key, defaultVal string) string {
	if val := os.Getenv(key); val != "" {
		return val
	}
	return defaultVal
}

func getEnvInt(key string, defaultVal int) int {
	if val := os.Getenv(key); val != "" {
		if i, err := strconv.Atoi(val); err == nil {
			return i
		}
	}
	return defaultVal
}

func getEnvFloat(key string, defaultVal float64) float64 {
	if val := os.Getenv(key); val != "" {
		if f, err := strconv.ParseFloat(val, 64); err == nil {
			return f
		}
	}
	return defaultVal
}

// getEnvList splits a comma-separated value, dropping blanks.
func getEnvList(key string, defaultVal []string) []string {
	var out []string
	for _, part := range strings.Split(os.Getenv(key), ",") {
		if part = strings.TrimSpace(part); part != "" {
			out = append(out, part)
		}
	}
	if len(out) == 0 {
		return defaultVal
	}
	return out
}

func getEnvDuration(key string, defaultVal time.Duration) time.Duration {
	if val := os.Getenv(key); val != "" {
		if d, err := time.ParseDuration(val); err == nil {
			return d
		}
	}
	return defaultVal
}
