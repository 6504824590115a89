package config

import (
	"fmt"
	"os"
	"strconv"
	"strings"
	"time"

	"gopkg.in/yaml.v3"
)

// Config captures configuration for the booking service. Values come from an
// optional YAML file, overridden by environment variables.
type Config struct {
	HTTPPort              int           `yaml:"http_port"`
	SQLiteDSN             string        `yaml:"sqlite_dsn"`
	SweepInterval         time.Duration `yaml:"sweep_interval"`
	GenerationHorizonDays int           `yaml:"generation_horizon_days"`
	RateLimitPerSecond    float64       `yaml:"rate_limit_per_second"`
	RateLimitBurst        int           `yaml:"rate_limit_burst"`
	LogLevel              string        `yaml:"log_level"`
}

// Default returns the configuration used when nothing is specified.
// The DSN declares write intent up front so booking transactions queue
// instead of failing under contention.
func Default() Config {
	return Config{
		HTTPPort:              8080,
		SQLiteDSN:             "file:studio.db?_txlock=immediate&_foreign_keys=on",
		SweepInterval:         6 * time.Hour,
		GenerationHorizonDays: 28,
		RateLimitPerSecond:    10,
		RateLimitBurst:        20,
		LogLevel:              "info",
	}
}

// Load reads the YAML file at path (skipped when path is empty or the file
// does not exist), applies environment overrides, then validates.
func Load(path string) (Config, error) {
	cfg := Default()

	if path != "" {
		data, err := os.ReadFile(path)
		if err != nil {
			if !os.IsNotExist(err) {
				return Config{}, fmt.Errorf("config: read %s: %w", path, err)
			}
		} else if err := yaml.Unmarshal(data, &cfg); err != nil {
			return Config{}, fmt.Errorf("config: parse %s: %w", path, err)
		}
	}

	if err := applyEnv(&cfg); err != nil {
		return Config{}, err
	}
	if err := cfg.validate(); err != nil {
		return Config{}, err
	}
	return cfg, nil
}

func applyEnv(cfg *Config) error {
	invalid := make([]string, 0, 2)

	if value := strings.TrimSpace(os.Getenv("STUDIO_HTTP_PORT")); value != "" {
		port, err := strconv.Atoi(value)
		if err != nil || port <= 0 {
			invalid = append(invalid, "STUDIO_HTTP_PORT")
		} else {
			cfg.HTTPPort = port
		}
	}
	if value := strings.TrimSpace(os.Getenv("STUDIO_SQLITE_DSN")); value != "" {
		cfg.SQLiteDSN = value
	}
	if value := strings.TrimSpace(os.Getenv("STUDIO_SWEEP_INTERVAL")); value != "" {
		interval, err := time.ParseDuration(value)
		if err != nil || interval <= 0 {
			invalid = append(invalid, "STUDIO_SWEEP_INTERVAL")
		} else {
			cfg.SweepInterval = interval
		}
	}
	if value := strings.TrimSpace(os.Getenv("STUDIO_GENERATION_HORIZON_DAYS")); value != "" {
		days, err := strconv.Atoi(value)
		if err != nil || days <= 0 {
			invalid = append(invalid, "STUDIO_GENERATION_HORIZON_DAYS")
		} else {
			cfg.GenerationHorizonDays = days
		}
	}
	if value := strings.TrimSpace(os.Getenv("STUDIO_RATE_LIMIT_PER_SECOND")); value != "" {
		rate, err := strconv.ParseFloat(value, 64)
		if err != nil || rate <= 0 {
			invalid = append(invalid, "STUDIO_RATE_LIMIT_PER_SECOND")
		} else {
			cfg.RateLimitPerSecond = rate
		}
	}
	if value := strings.TrimSpace(os.Getenv("STUDIO_RATE_LIMIT_BURST")); value != "" {
		burst, err := strconv.Atoi(value)
		if err != nil || burst <= 0 {
			invalid = append(invalid, "STUDIO_RATE_LIMIT_BURST")
		} else {
			cfg.RateLimitBurst = burst
		}
	}
	if value := strings.TrimSpace(os.Getenv("STUDIO_LOG_LEVEL")); value != "" {
		cfg.LogLevel = value
	}

	if len(invalid) > 0 {
		return fmt.Errorf("config: invalid environment values: %s", strings.Join(invalid, ", "))
	}
	return nil
}

func (c Config) validate() error {
	if c.HTTPPort <= 0 {
		return fmt.Errorf("config: http_port must be positive")
	}
	if strings.TrimSpace(c.SQLiteDSN) == "" {
		return fmt.Errorf("config: sqlite_dsn is required")
	}
	if c.SweepInterval <= 0 {
		return fmt.Errorf("config: sweep_interval must be positive")
	}
	if c.GenerationHorizonDays <= 0 {
		return fmt.Errorf("config: generation_horizon_days must be positive")
	}
	switch strings.ToLower(c.LogLevel) {
	case "debug", "info", "warn", "error":
	default:
		return fmt.Errorf("config: log_level must be debug, info, warn or error")
	}
	return nil
}
