package common

import (
	"fmt"
	"os"
	"strconv"
	"time"

	"github.com/go-playground/validator/v10"
	"github.com/pelletier/go-toml/v2"
)

// Config represents the application configuration
type Config struct {
	Logging   LoggingConfig   `toml:"logging"`
	Browser   BrowserConfig   `toml:"browser"`
	Scheduler SchedulerConfig `toml:"scheduler"`
	Sink      SinkConfig      `toml:"sink"`
	Robots    RobotsConfig    `toml:"robots"`
	HireBase  HireBaseConfig  `toml:"hirebase"`
}

type LoggingConfig struct {
	Level      string   `toml:"level"`       // "debug", "info", "warn", "error"
	Output     []string `toml:"output"`      // "stdout", "file"
	TimeFormat string   `toml:"time_format"` // Time format for logs (default: "15:04:05.000")
}

// BrowserConfig controls the headless browser pool
type BrowserConfig struct {
	PoolSize        int           `toml:"pool_size" validate:"gte=1,lte=8"` // Concurrent browser instances
	PageTimeout     time.Duration `toml:"page_timeout"`                     // Per-page operation timeout
	DownloadDir     string        `toml:"download_dir"`                     // Root for per-instance download directories
	DownloadTimeout time.Duration `toml:"download_timeout"`                 // How long to poll for a finished download
}

// SchedulerConfig controls worker cadence behavior
type SchedulerConfig struct {
	JitterMinutes    int           `toml:"jitter_minutes" validate:"gte=0"` // ± applied to each cycle's sleep
	QuietPollMinutes int           `toml:"quiet_poll_minutes"`              // Wait between quiet-window checks
	DrainPoll        time.Duration `toml:"drain_poll"`                      // Wait between bus-drained checks
}

// SinkConfig carries credentials and pacing for the document database
type SinkConfig struct {
	Token        string        `toml:"token"`       // From NOTION_KEY unless set here
	DatabaseID   string        `toml:"database_id"` // From DATABASE_ID
	DataSourceID string        `toml:"data_source_id"`
	BaseURL      string        `toml:"base_url"` // Override for tests
	Version      string        `toml:"version"`  // API version header
	WriteSpacing time.Duration `toml:"write_spacing"`
	CleanupAge   time.Duration `toml:"cleanup_age"` // Entries older than this are deleted
}

type RobotsConfig struct {
	RefreshHours int `toml:"refresh_hours" validate:"gte=1"` // Cache revalidation interval
}

// HireBaseConfig configures the vendor job-search API fetcher
type HireBaseConfig struct {
	APIKey        string   `toml:"api_key"` // From HIREBASE_API_KEY unless set here
	Queries       []string `toml:"queries"`
	QueryPostfix  string   `toml:"query_postfix"`              // Appended to every query, e.g. "Intern"
	PostedDaysAgo int      `toml:"posted_days_ago"`            // Only jobs posted within the last N days
	APILimit      int      `toml:"api_limit" validate:"gte=1"` // Max queries submitted per cycle
}

// NewDefaultConfig creates a configuration with default values.
// Technical parameters are hardcoded here for production stability.
func NewDefaultConfig() *Config {
	return &Config{
		Logging: LoggingConfig{
			Level:  "info",
			Output: []string{"stdout", "file"},
		},
		Browser: BrowserConfig{
			PoolSize:        2,
			PageTimeout:     300 * time.Second,
			DownloadDir:     "./downloads",
			DownloadTimeout: 60 * time.Second,
		},
		Scheduler: SchedulerConfig{
			JitterMinutes:    45,
			QuietPollMinutes: 12,
			DrainPoll:        5 * time.Minute,
		},
		Sink: SinkConfig{
			BaseURL:      "https://api.notion.com",
			Version:      "2025-09-03",
			WriteSpacing: 350 * time.Millisecond,
			CleanupAge:   48 * time.Hour,
		},
		Robots: RobotsConfig{
			RefreshHours: 24,
		},
		HireBase: HireBaseConfig{
			PostedDaysAgo: 1,
			APILimit:      10,
		},
	}
}

// LoadFromFiles loads configuration from multiple files with priority:
// default -> file1 -> file2 -> ... -> env. Later files override earlier files.
func LoadFromFiles(paths ...string) (*Config, error) {
	config := NewDefaultConfig()

	for i, path := range paths {
		if path == "" {
			continue
		}

		data, err := os.ReadFile(path)
		if err != nil {
			return nil, fmt.Errorf("failed to read config file %s: %w", path, err)
		}

		if err := toml.Unmarshal(data, config); err != nil {
			return nil, fmt.Errorf("failed to parse config file %s (file %d of %d): %w", path, i+1, len(paths), err)
		}
	}

	applyEnvOverrides(config)

	if err := validator.New().Struct(config); err != nil {
		return nil, fmt.Errorf("invalid configuration: %w", err)
	}

	return config, nil
}

// applyEnvOverrides applies environment variable overrides to config
func applyEnvOverrides(config *Config) {
	if level := os.Getenv("SCOUT_LOG_LEVEL"); level != "" {
		config.Logging.Level = level
	}

	// Sink credentials come from the environment in production
	if token := os.Getenv("NOTION_KEY"); token != "" {
		config.Sink.Token = token
	}
	if databaseID := os.Getenv("DATABASE_ID"); databaseID != "" {
		config.Sink.DatabaseID = databaseID
	}
	if dataSourceID := os.Getenv("DATA_SOURCE_ID"); dataSourceID != "" {
		config.Sink.DataSourceID = dataSourceID
	}

	if apiKey := os.Getenv("HIREBASE_API_KEY"); apiKey != "" {
		config.HireBase.APIKey = apiKey
	}
	if apiLimit := os.Getenv("HIREBASE_API_LIMIT"); apiLimit != "" {
		if limit, err := strconv.Atoi(apiLimit); err == nil && limit > 0 {
			config.HireBase.APILimit = limit
		}
	}

	if poolSize := os.Getenv("SCOUT_BROWSER_POOL_SIZE"); poolSize != "" {
		if size, err := strconv.Atoi(poolSize); err == nil && size > 0 {
			config.Browser.PoolSize = size
		}
	}
}
