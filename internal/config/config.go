// Package config provides configuration management functionality.
package config

import (
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"strconv"
	"time"

	"github.com/aristath/hedger/internal/modules/hedging/reference"
	"github.com/joho/godotenv"
)

// Config holds application configuration
type Config struct {
	DataDir         string // Base directory for the quote cache database (always absolute)
	LogLevel        string
	Port            int
	DevMode         bool
	ReferenceFile   string // Optional YAML replacing the embedded reference tables
	QuoteTTL        time.Duration
	CleanupSchedule string
	Model           ModelOverrides
}

// ModelOverrides replace individual risk-model parameters of the reference
// tables. Nil fields keep the table value.
type ModelOverrides struct {
	AUDUSD            *float64
	DailyVolProxy     *float64
	ASXProxyBeta      *float64
	RiskFreeRate      *float64
	DefaultVolatility *float64
}

// Load reads configuration from environment variables
func Load() (*Config, error) {
	// Load .env file if it exists
	_ = godotenv.Load()

	dataDir := getEnv("HEDGER_DATA_DIR", "./data")
	absDataDir, err := filepath.Abs(dataDir)
	if err != nil {
		return nil, fmt.Errorf("failed to resolve data directory path: %w", err)
	}
	if err := os.MkdirAll(absDataDir, 0755); err != nil {
		return nil, fmt.Errorf("failed to create data directory: %w", err)
	}

	cfg := &Config{
		DataDir:         absDataDir,
		Port:            getEnvAsInt("HEDGER_PORT", 8080),
		DevMode:         getEnvAsBool("DEV_MODE", false),
		LogLevel:        getEnv("LOG_LEVEL", "info"),
		ReferenceFile:   getEnv("HEDGER_REFERENCE_FILE", ""),
		QuoteTTL:        getEnvAsDuration("HEDGER_QUOTE_TTL", 15*time.Minute),
		CleanupSchedule: getEnv("HEDGER_CLEANUP_SCHEDULE", "0 0 3 * * *"), // 3 AM daily
		Model: ModelOverrides{
			AUDUSD:            getEnvAsFloat("HEDGER_AUDUSD"),
			DailyVolProxy:     getEnvAsFloat("HEDGER_DAILY_VOL_PROXY"),
			ASXProxyBeta:      getEnvAsFloat("HEDGER_ASX_PROXY_BETA"),
			RiskFreeRate:      getEnvAsFloat("HEDGER_RISK_FREE_RATE"),
			DefaultVolatility: getEnvAsFloat("HEDGER_DEFAULT_VOL"),
		},
	}

	if err := cfg.Validate(); err != nil {
		return nil, err
	}
	return cfg, nil
}

// Validate checks configuration values
func (c *Config) Validate() error {
	var errs []error

	if c.Port <= 0 || c.Port > 65535 {
		errs = append(errs, fmt.Errorf("HEDGER_PORT out of range: %d", c.Port))
	}
	if c.QuoteTTL <= 0 {
		errs = append(errs, fmt.Errorf("HEDGER_QUOTE_TTL must be positive: %s", c.QuoteTTL))
	}
	if c.CleanupSchedule == "" {
		errs = append(errs, errors.New("HEDGER_CLEANUP_SCHEDULE must not be empty"))
	}

	m := c.Model
	for name, v := range map[string]*float64{
		"HEDGER_AUDUSD":          m.AUDUSD,
		"HEDGER_DAILY_VOL_PROXY": m.DailyVolProxy,
		"HEDGER_ASX_PROXY_BETA":  m.ASXProxyBeta,
		"HEDGER_DEFAULT_VOL":     m.DefaultVolatility,
	} {
		if v != nil && *v <= 0 {
			errs = append(errs, fmt.Errorf("%s must be positive: %v", name, *v))
		}
	}

	return errors.Join(errs...)
}

// ReferenceTables loads the reference tables, from ReferenceFile when set,
// and applies the model overrides. The result is prepared and private to the
// caller.
func (c *Config) ReferenceTables() (*reference.Tables, error) {
	var (
		base *reference.Tables
		err  error
	)
	if c.ReferenceFile != "" {
		base, err = reference.LoadFile(c.ReferenceFile)
	} else {
		base, err = reference.Default()
	}
	if err != nil {
		return nil, err
	}

	tables := base.Clone()
	c.Model.apply(&tables.Parameters)
	if err := tables.Prepare(); err != nil {
		return nil, fmt.Errorf("invalid reference tables after overrides: %w", err)
	}
	return tables, nil
}

func (m ModelOverrides) apply(p *reference.Params) {
	set := func(dst *float64, v *float64) {
		if v != nil {
			*dst = *v
		}
	}
	set(&p.AUDUSD, m.AUDUSD)
	set(&p.DailyVolProxy, m.DailyVolProxy)
	set(&p.ASXProxyBeta, m.ASXProxyBeta)
	set(&p.RiskFreeRate, m.RiskFreeRate)
	set(&p.DefaultVolatility, m.DefaultVolatility)
}

// Helper functions
func getEnv(key, defaultValue string) string {
	if value := os.Getenv(key); value != "" {
		return value
	}
	return defaultValue
}

func getEnvAsInt(key string, defaultValue int) int {
	if value := os.Getenv(key); value != "" {
		if intVal, err := strconv.Atoi(value); err == nil {
			return intVal
		}
	}
	return defaultValue
}

func getEnvAsBool(key string, defaultValue bool) bool {
	if value := os.Getenv(key); value != "" {
		if boolVal, err := strconv.ParseBool(value); err == nil {
			return boolVal
		}
	}
	return defaultValue
}

func getEnvAsDuration(key string, defaultValue time.Duration) time.Duration {
	if value := os.Getenv(key); value != "" {
		if d, err := time.ParseDuration(value); err == nil {
			return d
		}
	}
	return defaultValue
}

// getEnvAsFloat returns nil when the variable is unset or unparseable
func getEnvAsFloat(key string) *float64 {
	value := os.Getenv(key)
	if value == "" {
		return nil
	}
	f, err := strconv.ParseFloat(value, 64)
	if err != nil {
		return nil
	}
	return &f
}
