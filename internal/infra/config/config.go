// Package config holds all retracer configuration: defaults, JSON config
// file, .env file, and environment variable overrides, in that order.
package config

import (
	"encoding/json"
	"fmt"
	"os"
	"path/filepath"
	"strconv"
	"strings"
	"time"

	"github.com/joho/godotenv"
)

// Config holds all application configuration.
type Config struct {
	// Logging
	LogLevel string `json:"log_level"`

	// Storage root: session DB, record DB, archive and media trees all
	// live below this directory.
	StorePath string `json:"store_path"`

	// Device
	DeviceName string `json:"device_name"`

	// Operator commands
	CommandPrefix string `json:"command_prefix"`

	Archive   ArchiveConfig   `json:"archive"`
	Media     MediaConfig     `json:"media"`
	Retention RetentionConfig `json:"retention"`
}

// ArchiveConfig controls the ingestion queue and batch flusher.
type ArchiveConfig struct {
	FlushBatchSize  int           `json:"flush_batch_size"`
	FlushInterval   time.Duration `json:"-"`
	FlushIntervalMs int           `json:"flush_interval_ms"`
	QueueCapacity   int           `json:"queue_capacity"`
}

// MediaConfig controls media download and vault storage.
type MediaConfig struct {
	Download bool `json:"download"`

	// MaxFileSize accepts either a bare byte count ("8388608") or a
	// "<number><unit>" string with unit in B, KB, MB, GB ("64MB").
	MaxFileSize      string `json:"max_file_size"`
	MaxFileSizeBytes int64  `json:"-"`
}

// RetentionConfig controls the sweeper schedule and window.
type RetentionConfig struct {
	WindowDays    int           `json:"window_days"`
	WarmupMins    int           `json:"warmup_mins"`
	IntervalHours int           `json:"interval_hours"`
	Window        time.Duration `json:"-"`
	Warmup        time.Duration `json:"-"`
	Interval      time.Duration `json:"-"`
}

// Default returns a Config with sensible defaults.
func Default() *Config {
	homeDir, _ := os.UserHomeDir()
	defaultStore := filepath.Join(homeDir, ".retracer", "store")

	return &Config{
		LogLevel:      "INFO",
		StorePath:     defaultStore,
		DeviceName:    "Retracer",
		CommandPrefix: "!",
		Archive: ArchiveConfig{
			FlushBatchSize:  10,
			FlushIntervalMs: 500,
			QueueCapacity:   4096,
		},
		Media: MediaConfig{
			Download:    true,
			MaxFileSize: "64MB",
		},
		Retention: RetentionConfig{
			WindowDays:    3,
			WarmupMins:    10,
			IntervalHours: 24,
		},
	}
}

// LoadFromFile loads configuration from a JSON file, falling back to
// defaults when the file does not exist.
func LoadFromFile(path string) (*Config, error) {
	cfg := Default()

	data, err := os.ReadFile(path)
	if err != nil {
		if os.IsNotExist(err) {
			return cfg, nil
		}
		return nil, err
	}

	if err := json.Unmarshal(data, cfg); err != nil {
		return nil, fmt.Errorf("failed to parse config %s: %w", path, err)
	}

	return cfg, nil
}

// Load loads configuration from an optional JSON file, then applies .env
// and environment variable overrides, then derives computed fields.
func Load(configPath string) (*Config, error) {
	// Missing .env is fine; godotenv only errors on a present-but-broken file.
	_ = godotenv.Load()

	var cfg *Config
	var err error

	if configPath != "" {
		cfg, err = LoadFromFile(configPath)
		if err != nil {
			return nil, err
		}
	} else {
		cfg = Default()
	}

	if v := os.Getenv("RETRACER_LOG_LEVEL"); v != "" {
		cfg.LogLevel = v
	}
	if v := os.Getenv("RETRACER_STORE_PATH"); v != "" {
		cfg.StorePath = v
	}
	if v := os.Getenv("RETRACER_DEVICE_NAME"); v != "" {
		cfg.DeviceName = v
	}
	if v := os.Getenv("RETRACER_COMMAND_PREFIX"); v != "" {
		cfg.CommandPrefix = v
	}
	if v := os.Getenv("RETRACER_MAX_FILE_SIZE"); v != "" {
		cfg.Media.MaxFileSize = v
	}
	if v := os.Getenv("RETRACER_MEDIA_DOWNLOAD"); v != "" {
		cfg.Media.Download = v == "true" || v == "1"
	}
	if v := os.Getenv("RETRACER_RETENTION_DAYS"); v != "" {
		if days, err := strconv.Atoi(v); err == nil && days > 0 {
			cfg.Retention.WindowDays = days
		}
	}
	if v := os.Getenv("RETRACER_FLUSH_BATCH_SIZE"); v != "" {
		if n, err := strconv.Atoi(v); err == nil && n > 0 {
			cfg.Archive.FlushBatchSize = n
		}
	}
	if v := os.Getenv("RETRACER_FLUSH_INTERVAL_MS"); v != "" {
		if ms, err := strconv.Atoi(v); err == nil && ms > 0 {
			cfg.Archive.FlushIntervalMs = ms
		}
	}

	if err := cfg.Finalize(); err != nil {
		return nil, err
	}
	return cfg, nil
}

// Finalize derives computed fields and validates size strings.
func (c *Config) Finalize() error {
	size, err := ParseSize(c.Media.MaxFileSize)
	if err != nil {
		return fmt.Errorf("invalid max_file_size: %w", err)
	}
	c.Media.MaxFileSizeBytes = size

	if c.Archive.FlushBatchSize <= 0 {
		c.Archive.FlushBatchSize = 10
	}
	if c.Archive.FlushIntervalMs <= 0 {
		c.Archive.FlushIntervalMs = 500
	}
	if c.Archive.QueueCapacity <= 0 {
		c.Archive.QueueCapacity = 4096
	}
	c.Archive.FlushInterval = time.Duration(c.Archive.FlushIntervalMs) * time.Millisecond

	if c.Retention.WindowDays <= 0 {
		c.Retention.WindowDays = 3
	}
	if c.Retention.WarmupMins < 0 {
		c.Retention.WarmupMins = 0
	}
	if c.Retention.IntervalHours <= 0 {
		c.Retention.IntervalHours = 24
	}
	c.Retention.Window = time.Duration(c.Retention.WindowDays) * 24 * time.Hour
	c.Retention.Warmup = time.Duration(c.Retention.WarmupMins) * time.Minute
	c.Retention.Interval = time.Duration(c.Retention.IntervalHours) * time.Hour

	return nil
}

// ParseSize parses a size value that is either a bare integer byte count or
// "<number><unit>" with unit in B, KB, MB, GB. Units are case-insensitive
// and whitespace around the number is tolerated.
func ParseSize(s string) (int64, error) {
	s = strings.TrimSpace(s)
	if s == "" {
		return 0, fmt.Errorf("empty size")
	}

	// Bare byte count.
	if n, err := strconv.ParseInt(s, 10, 64); err == nil {
		if n < 0 {
			return 0, fmt.Errorf("negative size %d", n)
		}
		return n, nil
	}

	upper := strings.ToUpper(s)
	var multiplier int64
	var numPart string
	switch {
	case strings.HasSuffix(upper, "GB"):
		multiplier = 1 << 30
		numPart = upper[:len(upper)-2]
	case strings.HasSuffix(upper, "MB"):
		multiplier = 1 << 20
		numPart = upper[:len(upper)-2]
	case strings.HasSuffix(upper, "KB"):
		multiplier = 1 << 10
		numPart = upper[:len(upper)-2]
	case strings.HasSuffix(upper, "B"):
		multiplier = 1
		numPart = upper[:len(upper)-1]
	default:
		return 0, fmt.Errorf("unknown size unit in %q", s)
	}

	num, err := strconv.ParseFloat(strings.TrimSpace(numPart), 64)
	if err != nil {
		return 0, fmt.Errorf("invalid size number in %q", s)
	}
	if num < 0 {
		return 0, fmt.Errorf("negative size in %q", s)
	}

	return int64(num * float64(multiplier)), nil
}

// FormatSize renders a byte count for operator-facing output.
func FormatSize(n int64) string {
	switch {
	case n >= 1<<30:
		return fmt.Sprintf("%.1fGB", float64(n)/float64(1<<30))
	case n >= 1<<20:
		return fmt.Sprintf("%.1fMB", float64(n)/float64(1<<20))
	case n >= 1<<10:
		return fmt.Sprintf("%.1fKB", float64(n)/float64(1<<10))
	default:
		return fmt.Sprintf("%dB", n)
	}
}

// ArchivePath returns the root directory for message partitions.
func (c *Config) ArchivePath() string {
	return filepath.Join(c.StorePath, "archive")
}

// MediaPath returns the root directory for vault files.
func (c *Config) MediaPath() string {
	return filepath.Join(c.StorePath, "media")
}

// EnsureStorePath creates the storage directories if they don't exist.
func (c *Config) EnsureStorePath() error {
	for _, dir := range []string{c.StorePath, c.ArchivePath(), c.MediaPath()} {
		if err := os.MkdirAll(dir, 0o755); err != nil {
			return err
		}
	}
	return nil
}
