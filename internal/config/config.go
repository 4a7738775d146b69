package config

import (
	"fmt"
	"os"
	"strconv"
	"time"

	"github.com/joho/godotenv"
)

// ServiceConfig configures the checker service.
type ServiceConfig struct {
	HTTPAddr       string
	GRPCAddr       string
	DataDir        string // empty serves the embedded data
	ReloadInterval time.Duration
	LogLevel       string
	LogFormat      string
}

// AggregateConfig configures the aggregate and TLD update commands.
type AggregateConfig struct {
	DataDir        string
	SourcesFile    string // empty uses the built-in catalogue
	FetchTimeout   time.Duration
	Concurrency    int
	PushgatewayURL string
	TLDURL         string
	LogLevel       string
	LogFormat      string
}

const defaultTLDURL = "https://data.iana.org/TLD/tlds-alpha-by-domain.txt"

func getenv(key, def string) string {
	if v := os.Getenv(key); v != "" {
		return v
	}
	return def
}

// loadDotEnv reads .env from the working directory when there is one.
// Variables already set in the environment win.
func loadDotEnv() {
	_ = godotenv.Load()
}

func LoadService() (ServiceConfig, error) {
	loadDotEnv()

	cfg := ServiceConfig{
		HTTPAddr:  getenv("HTTP_ADDR", ":8080"),
		GRPCAddr:  getenv("GRPC_ADDR", ":9090"),
		DataDir:   getenv("DATA_DIR", ""),
		LogLevel:  getenv("LOG_LEVEL", "info"),
		LogFormat: getenv("LOG_FORMAT", "text"),
	}

	d, err := duration("RELOAD_INTERVAL", "10m", time.Minute, 24*time.Hour)
	if err != nil {
		return ServiceConfig{}, err
	}
	cfg.ReloadInterval = d

	if cfg.HTTPAddr == cfg.GRPCAddr {
		return ServiceConfig{}, fmt.Errorf("HTTP_ADDR and GRPC_ADDR must differ, both are %q", cfg.HTTPAddr)
	}
	return cfg, nil
}

func LoadAggregate() (AggregateConfig, error) {
	loadDotEnv()

	cfg := AggregateConfig{
		DataDir:        getenv("DATA_DIR", "internal/data"),
		SourcesFile:    getenv("SOURCES_FILE", ""),
		PushgatewayURL: getenv("PUSHGATEWAY_URL", ""),
		TLDURL:         getenv("TLD_URL", defaultTLDURL),
		LogLevel:       getenv("LOG_LEVEL", "info"),
		LogFormat:      getenv("LOG_FORMAT", "text"),
	}

	d, err := duration("FETCH_TIMEOUT", "30s", time.Second, 5*time.Minute)
	if err != nil {
		return AggregateConfig{}, err
	}
	cfg.FetchTimeout = d

	concStr := getenv("FETCH_CONCURRENCY", "0")
	n, err := strconv.Atoi(concStr)
	if err != nil || n < 0 {
		return AggregateConfig{}, fmt.Errorf("invalid FETCH_CONCURRENCY=%q, must be a non-negative integer", concStr)
	}
	cfg.Concurrency = n

	return cfg, nil
}

func duration(key, def string, min, max time.Duration) (time.Duration, error) {
	s := getenv(key, def)
	d, err := time.ParseDuration(s)
	if err != nil {
		return 0, fmt.Errorf("invalid %s=%q: %w", key, s, err)
	}
	if d < min {
		return 0, fmt.Errorf("%s too small (%s), must be >=%s", key, d, min)
	}
	if d > max {
		return 0, fmt.Errorf("%s too large (%s), must be <=%s", key, d, max)
	}
	return d, nil
}
