package config

import (
	"fmt"
	"os"
	"strconv"

	"github.com/go-playground/validator/v10"
	"github.com/joho/godotenv"
)

// Config 应用配置
type Config struct {
	MapDBPath   string `validate:"required"`
	StoreSuffix string `validate:"required,startswith=."`

	SampleIntervalMs int64 `validate:"gt=0"`
	OutputStepMs     int64 `validate:"gt=0,ltefield=SampleIntervalMs"`
	MinStoreLines    int   `validate:"gt=0"`

	SearchRadiusDeg float64 `validate:"gt=0,lt=1"`
	ThresholdMiles  float64 `validate:"gt=0"`
	MatchDistance   string  `validate:"oneof=cosines haversine"`
	NodeIndex       string  `validate:"oneof=sql rtree"`

	LogLevel        string `validate:"oneof=debug info warn error"`
	LogFormat       string `validate:"oneof=console json"`
	MetricsTextfile string
}

// Load 加载配置
func Load() (*Config, error) {
	// Load .env into environment (ignore if missing)
	_ = godotenv.Load()

	cfg := &Config{
		MapDBPath:       getenvDefault("MAP_DB_PATH", "illinois.sq3"),
		StoreSuffix:     getenvDefault("STORE_SUFFIX", ".sq3"),
		MatchDistance:   getenvDefault("MATCH_DISTANCE", "cosines"),
		NodeIndex:       getenvDefault("NODE_INDEX", "sql"),
		LogLevel:        getenvDefault("LOG_LEVEL", "info"),
		LogFormat:       getenvDefault("LOG_FORMAT", "console"),
		MetricsTextfile: os.Getenv("METRICS_TEXTFILE"),
	}

	var err error
	if cfg.SampleIntervalMs, err = getenvInt64("SAMPLE_INTERVAL_MS", 5000); err != nil {
		return nil, err
	}
	if cfg.OutputStepMs, err = getenvInt64("OUTPUT_STEP_MS", 1000); err != nil {
		return nil, err
	}
	minLines, err := getenvInt64("MIN_STORE_LINES", 40)
	if err != nil {
		return nil, err
	}
	cfg.MinStoreLines = int(minLines)
	if cfg.SearchRadiusDeg, err = getenvFloat("SEARCH_RADIUS_DEG", 0.005); err != nil {
		return nil, err
	}
	if cfg.ThresholdMiles, err = getenvFloat("MATCH_THRESHOLD_MILES", 0.01); err != nil {
		return nil, err
	}

	if err := cfg.Validate(); err != nil {
		return nil, err
	}
	return cfg, nil
}

// Validate checks field ranges and cross-field constraints.
func (c *Config) Validate() error {
	if err := validator.New().Struct(c); err != nil {
		return fmt.Errorf("invalid config: %w", err)
	}
	if c.SampleIntervalMs%c.OutputStepMs != 0 {
		return fmt.Errorf("invalid config: SAMPLE_INTERVAL_MS (%d) must be a multiple of OUTPUT_STEP_MS (%d)",
			c.SampleIntervalMs, c.OutputStepMs)
	}
	return nil
}

func getenvDefault(k, def string) string {
	if v := os.Getenv(k); v != "" {
		return v
	}
	return def
}

func getenvInt64(k string, def int64) (int64, error) {
	v := os.Getenv(k)
	if v == "" {
		return def, nil
	}
	n, err := strconv.ParseInt(v, 10, 64)
	if err != nil {
		return 0, fmt.Errorf("invalid %s: %q", k, v)
	}
	return n, nil
}

func getenvFloat(k string, def float64) (float64, error) {
	v := os.Getenv(k)
	if v == "" {
		return def, nil
	}
	f, err := strconv.ParseFloat(v, 64)
	if err != nil {
		return 0, fmt.Errorf("invalid %s: %q", k, v)
	}
	return f, nil
}
