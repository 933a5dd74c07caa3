package config

import (
	"fmt"
	"os"
	"strconv"
	"time"

	"gopkg.in/yaml.v3"

	"frizo/collateral_engine/internal/fixed"
	"frizo/collateral_engine/internal/rebalance"
	"frizo/collateral_engine/internal/venue"
	"frizo/collateral_engine/internal/venue/perpbook"
)

// Config holds the application configuration.
type Config struct {
	// Logging configuration
	LogLevel  string `yaml:"log_level"`
	LogFormat string `yaml:"log_format"`

	// Application configuration
	Environment string `yaml:"environment"`

	// Engine tunables
	DustThreshold     fixed.I80F48        `yaml:"dust_threshold"`
	DepositDivisor    int64               `yaml:"deposit_divisor"`
	WithdrawTolerance fixed.I80F48        `yaml:"withdraw_tolerance"`
	PerpBook          perpbook.RiskParams `yaml:"perpbook"`

	// Rebalancer configuration
	PollInterval time.Duration `yaml:"poll_interval"`
	MetricsAddr  string        `yaml:"metrics_addr"`
	SnapshotDir  string        `yaml:"snapshot_dir"`

	// AddressBook maps venue names to the on-venue account identifiers the
	// snapshot fetcher reads from.
	AddressBook map[string]string `yaml:"address_book"`
}

// Default returns the built-in configuration.
func Default() *Config {
	policy := rebalance.DefaultPolicy()
	params := venue.DefaultParams()
	return &Config{
		LogLevel:          "info",
		LogFormat:         "text",
		Environment:       "development",
		DustThreshold:     params.DustThreshold,
		DepositDivisor:    policy.DepositDivisor,
		WithdrawTolerance: policy.WithdrawTolerance,
		PerpBook:          params.PerpBook,
		PollInterval:      30 * time.Second,
		MetricsAddr:       ":9090",
	}
}

// Load loads the configuration from environment variables.
func Load() (*Config, error) {
	cfg := Default()
	if err := cfg.applyEnv(); err != nil {
		return nil, err
	}
	return cfg, cfg.Validate()
}

// LoadFile reads a YAML file over the defaults. Environment variables
// still take precedence over the file.
func LoadFile(path string) (*Config, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("read config file: %w", err)
	}

	cfg := Default()
	if err := yaml.Unmarshal(data, cfg); err != nil {
		return nil, fmt.Errorf("parse config %s: %w", path, err)
	}
	if err := cfg.applyEnv(); err != nil {
		return nil, err
	}
	if err := cfg.Validate(); err != nil {
		return nil, fmt.Errorf("invalid config: %w", err)
	}
	return cfg, nil
}

// Validate checks if the configuration is valid.
func (c *Config) Validate() error {
	if c.DepositDivisor <= 0 {
		return fmt.Errorf("deposit_divisor must be positive, got %d", c.DepositDivisor)
	}
	if c.DustThreshold.IsNegative() {
		return fmt.Errorf("dust_threshold must not be negative, got %s", c.DustThreshold)
	}
	if c.WithdrawTolerance.IsNegative() {
		return fmt.Errorf("withdraw_tolerance must not be negative, got %s", c.WithdrawTolerance)
	}
	if c.PollInterval <= 0 {
		return fmt.Errorf("poll_interval must be positive, got %s", c.PollInterval)
	}
	p := c.PerpBook
	if p.InitDivisor <= 0 || p.MaintDivisor <= 0 || p.ContinuousDivisor <= 0 {
		return fmt.Errorf("perpbook divisors must be positive")
	}
	if p.SpotInitPermille <= 0 || p.SpotMaintPermille <= 0 {
		return fmt.Errorf("perpbook spot permilles must be positive")
	}
	switch c.LogFormat {
	case "text", "json":
	default:
		return fmt.Errorf("log_format must be text or json, got %q", c.LogFormat)
	}
	return nil
}

// VenueParams returns the venue observer parameters.
func (c *Config) VenueParams() venue.Params {
	return venue.Params{
		PerpBook:      c.PerpBook,
		DustThreshold: c.DustThreshold,
	}
}

// Policy returns the rebalance policy.
func (c *Config) Policy() rebalance.Policy {
	return rebalance.Policy{
		DepositDivisor:    c.DepositDivisor,
		WithdrawTolerance: c.WithdrawTolerance,
	}
}

func (c *Config) applyEnv() error {
	c.LogLevel = getEnv("LOG_LEVEL", c.LogLevel)
	c.LogFormat = getEnv("LOG_FORMAT", c.LogFormat)
	c.Environment = getEnv("ENVIRONMENT", c.Environment)
	c.MetricsAddr = getEnv("METRICS_ADDR", c.MetricsAddr)
	c.SnapshotDir = getEnv("SNAPSHOT_DIR", c.SnapshotDir)
	c.DepositDivisor = getEnvAsInt64("DEPOSIT_DIVISOR", c.DepositDivisor)
	c.PollInterval = getEnvAsDuration("POLL_INTERVAL", c.PollInterval)

	var err error
	if c.DustThreshold, err = getEnvAsFixed("DUST_THRESHOLD", c.DustThreshold); err != nil {
		return err
	}
	if c.WithdrawTolerance, err = getEnvAsFixed("WITHDRAW_TOLERANCE", c.WithdrawTolerance); err != nil {
		return err
	}
	return nil
}

// getEnv gets an environment variable with a default value.
func getEnv(key, defaultVal string) string {
	if value := os.Getenv(key); value != "" {
		return value
	}
	return defaultVal
}

// getEnvAsInt64 gets an environment variable as integer with a default value.
func getEnvAsInt64(key string, defaultVal int64) int64 {
	if value := os.Getenv(key); value != "" {
		if intVal, err := strconv.ParseInt(value, 10, 64); err == nil {
			return intVal
		}
	}
	return defaultVal
}

func getEnvAsDuration(key string, defaultVal time.Duration) time.Duration {
	if value := os.Getenv(key); value != "" {
		if d, err := time.ParseDuration(value); err == nil {
			return d
		}
	}
	return defaultVal
}

// getEnvAsFixed rejects malformed amounts instead of silently falling back.
func getEnvAsFixed(key string, defaultVal fixed.I80F48) (fixed.I80F48, error) {
	value := os.Getenv(key)
	if value == "" {
		return defaultVal, nil
	}
	f, err := fixed.Parse(value)
	if err != nil {
		return fixed.Zero, fmt.Errorf("%s: %w", key, err)
	}
	return f, nil
}
