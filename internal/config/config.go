package config

import (
	"errors"
	"fmt"
	"io/fs"
	"os"
	"strconv"
	"strings"
	"time"

	sharedcfg "github.com/couchcryptid/storm-data-shared/config"
	"github.com/couchcryptid/wildlife-hotspot-service/internal/domain"
	"github.com/joho/godotenv"
)

// Segment source kinds.
const (
	SourceHTTP     = "http"
	SourcePostgres = "postgres"
)

// Config holds all service settings, populated from environment variables.
type Config struct {
	HTTPAddr        string
	LogLevel        string
	LogFormat       string
	ShutdownTimeout time.Duration

	// Segment source configuration.
	HotspotSource     string
	HotspotAPIURL     string
	HotspotAPITimeout time.Duration
	DatabaseURL       string
	FilterRoadName    string
	FilterTimeOfDay   string
	FilterSpecies     string
	RefreshInterval   time.Duration

	AlertDisplayDuration time.Duration

	KafkaEnabled       bool
	KafkaBrokers       []string
	KafkaPositionTopic string
	KafkaAlertTopic    string
	KafkaGroupID       string

	BatchSize          int
	BatchFlushInterval time.Duration
}

// Load reads configuration from environment variables, applying defaults where unset.
// Variables from ENV_FILE (default ".env") are applied first without
// overriding the real environment; a missing file is not an error.
func Load() (*Config, error) {
	if err := loadEnvFile(sharedcfg.EnvOrDefault("ENV_FILE", ".env")); err != nil {
		return nil, err
	}

	shutdownTimeout, err := sharedcfg.ParseShutdownTimeout()
	if err != nil {
		return nil, err
	}
	apiTimeout, err := parseDuration("HOTSPOT_API_TIMEOUT", "5s")
	if err != nil {
		return nil, err
	}
	refreshInterval, err := parseDuration("REFRESH_INTERVAL", "5m")
	if err != nil {
		return nil, err
	}
	displayDuration, err := parseDuration("ALERT_DISPLAY_DURATION", "5s")
	if err != nil {
		return nil, err
	}
	flushInterval, err := sharedcfg.ParseBatchFlushInterval()
	if err != nil {
		return nil, err
	}
	batchSize, err := sharedcfg.ParseBatchSize()
	if err != nil {
		return nil, err
	}
	kafkaEnabled, err := strconv.ParseBool(sharedcfg.EnvOrDefault("KAFKA_ENABLED", "true"))
	if err != nil {
		return nil, errors.New("invalid KAFKA_ENABLED: must be a boolean")
	}

	cfg := &Config{
		HTTPAddr:        sharedcfg.EnvOrDefault("HTTP_ADDR", ":8080"),
		LogLevel:        sharedcfg.EnvOrDefault("LOG_LEVEL", "info"),
		LogFormat:       sharedcfg.EnvOrDefault("LOG_FORMAT", "json"),
		ShutdownTimeout: shutdownTimeout,

		HotspotSource:     strings.ToLower(sharedcfg.EnvOrDefault("HOTSPOT_SOURCE", SourceHTTP)),
		HotspotAPIURL:     strings.TrimRight(sharedcfg.EnvOrDefault("HOTSPOT_API_URL", "http://127.0.0.1:8000"), "/"),
		HotspotAPITimeout: apiTimeout,
		DatabaseURL:       os.Getenv("DATABASE_URL"),
		FilterRoadName:    os.Getenv("FILTER_ROAD_NAME"),
		FilterTimeOfDay:   os.Getenv("FILTER_TIME_OF_DAY"),
		FilterSpecies:     os.Getenv("FILTER_SPECIES"),
		RefreshInterval:   refreshInterval,

		AlertDisplayDuration: displayDuration,

		KafkaEnabled:       kafkaEnabled,
		KafkaBrokers:       sharedcfg.ParseBrokers(sharedcfg.EnvOrDefault("KAFKA_BROKERS", "localhost:9092")),
		KafkaPositionTopic: sharedcfg.EnvOrDefault("KAFKA_POSITION_TOPIC", "vehicle-positions"),
		KafkaAlertTopic:    sharedcfg.EnvOrDefault("KAFKA_ALERT_TOPIC", "wildlife-alerts"),
		KafkaGroupID:       sharedcfg.EnvOrDefault("KAFKA_GROUP_ID", "wildlife-hotspot-monitor"),

		BatchSize:          batchSize,
		BatchFlushInterval: flushInterval,
	}

	switch cfg.HotspotSource {
	case SourceHTTP:
		if cfg.HotspotAPIURL == "" {
			return nil, errors.New("HOTSPOT_API_URL is required when HOTSPOT_SOURCE is http")
		}
	case SourcePostgres:
		if cfg.DatabaseURL == "" {
			return nil, errors.New("DATABASE_URL is required when HOTSPOT_SOURCE is postgres")
		}
	default:
		return nil, fmt.Errorf("invalid HOTSPOT_SOURCE %q: want http or postgres", cfg.HotspotSource)
	}

	if cfg.KafkaEnabled {
		if len(cfg.KafkaBrokers) == 0 {
			return nil, errors.New("KAFKA_BROKERS is required")
		}
		if cfg.KafkaPositionTopic == "" {
			return nil, errors.New("KAFKA_POSITION_TOPIC is required")
		}
		if cfg.KafkaAlertTopic == "" {
			return nil, errors.New("KAFKA_ALERT_TOPIC is required")
		}
	}

	return cfg, nil
}

func loadEnvFile(path string) error {
	if path == "" {
		return nil
	}
	if err := godotenv.Load(path); err != nil {
		if errors.Is(err, fs.ErrNotExist) {
			return nil
		}
		return fmt.Errorf("load ENV_FILE %s: %w", path, err)
	}
	return nil
}

// parseDuration reads a service-specific duration; the shared parsers cover
// SHUTDOWN_TIMEOUT and BATCH_FLUSH_INTERVAL.
func parseDuration(key, fallback string) (time.Duration, error) {
	d, err := time.ParseDuration(sharedcfg.EnvOrDefault(key, fallback))
	if err != nil || d <= 0 {
		return 0, fmt.Errorf("invalid %s: must be a positive duration", key)
	}
	return d, nil
}

// SegmentFilter returns the configured filter for segment sources.
func (c *Config) SegmentFilter() domain.SegmentFilter {
	return domain.SegmentFilter{
		RoadName:  c.FilterRoadName,
		TimeOfDay: c.FilterTimeOfDay,
		Species:   c.FilterSpecies,
	}
}
