package config

import (
	"os"
	"path/filepath"
	"testing"
	"time"

	"github.com/aristath/hedger/internal/modules/hedging/reference"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestLoad_Defaults(t *testing.T) {
	wd, err := os.Getwd()
	require.NoError(t, err)
	require.NoError(t, os.Chdir(t.TempDir()))
	defer os.Chdir(wd)

	t.Setenv("HEDGER_DATA_DIR", "")
	t.Setenv("HEDGER_PORT", "")
	t.Setenv("LOG_LEVEL", "")
	t.Setenv("HEDGER_QUOTE_TTL", "")
	t.Setenv("HEDGER_AUDUSD", "")

	cfg, err := Load()
	require.NoError(t, err)
	assert.True(t, filepath.IsAbs(cfg.DataDir))
	assert.DirExists(t, cfg.DataDir)
	assert.Equal(t, 8080, cfg.Port)
	assert.Equal(t, "info", cfg.LogLevel)
	assert.Equal(t, 15*time.Minute, cfg.QuoteTTL)
	assert.Equal(t, "0 0 3 * * *", cfg.CleanupSchedule)
	assert.Nil(t, cfg.Model.AUDUSD)
}

func TestLoad_EnvOverrides(t *testing.T) {
	dataDir := filepath.Join(t.TempDir(), "hedger")
	t.Setenv("HEDGER_DATA_DIR", dataDir)
	t.Setenv("HEDGER_PORT", "9100")
	t.Setenv("LOG_LEVEL", "debug")
	t.Setenv("DEV_MODE", "true")
	t.Setenv("HEDGER_QUOTE_TTL", "2m")
	t.Setenv("HEDGER_AUDUSD", "0.70")
	t.Setenv("HEDGER_RISK_FREE_RATE", "0.04")

	cfg, err := Load()
	require.NoError(t, err)

	assert.Equal(t, dataDir, cfg.DataDir)
	assert.Equal(t, 9100, cfg.Port)
	assert.Equal(t, "debug", cfg.LogLevel)
	assert.True(t, cfg.DevMode)
	assert.Equal(t, 2*time.Minute, cfg.QuoteTTL)
	require.NotNil(t, cfg.Model.AUDUSD)
	assert.Equal(t, 0.70, *cfg.Model.AUDUSD)
}

func TestLoad_IgnoresMalformedValues(t *testing.T) {
	t.Setenv("HEDGER_DATA_DIR", t.TempDir())
	t.Setenv("HEDGER_PORT", "eighty")
	t.Setenv("HEDGER_QUOTE_TTL", "soon")
	t.Setenv("HEDGER_AUDUSD", "n/a")

	cfg, err := Load()
	require.NoError(t, err)
	assert.Equal(t, 8080, cfg.Port)
	assert.Equal(t, 15*time.Minute, cfg.QuoteTTL)
	assert.Nil(t, cfg.Model.AUDUSD)
}

func TestValidate(t *testing.T) {
	neg := -0.1
	valid := Config{Port: 8080, QuoteTTL: time.Minute, CleanupSchedule: "@daily"}

	tests := []struct {
		name    string
		mutate  func(c *Config)
		wantErr string
	}{
		{"valid", func(c *Config) {}, ""},
		{"port", func(c *Config) { c.Port = 70000 }, "HEDGER_PORT"},
		{"ttl", func(c *Config) { c.QuoteTTL = 0 }, "HEDGER_QUOTE_TTL"},
		{"schedule", func(c *Config) { c.CleanupSchedule = "" }, "HEDGER_CLEANUP_SCHEDULE"},
		{"negative audusd", func(c *Config) { c.Model.AUDUSD = &neg }, "HEDGER_AUDUSD"},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			c := valid
			tt.mutate(&c)
			err := c.Validate()
			if tt.wantErr == "" {
				assert.NoError(t, err)
				return
			}
			assert.ErrorContains(t, err, tt.wantErr)
		})
	}
}

func TestReferenceTables_AppliesOverrides(t *testing.T) {
	audusd, rate := 0.7, 0.03
	cfg := Config{Model: ModelOverrides{AUDUSD: &audusd, RiskFreeRate: &rate}}

	tables, err := cfg.ReferenceTables()
	require.NoError(t, err)

	assert.Equal(t, 0.7, tables.Parameters.AUDUSD)
	assert.Equal(t, 0.03, tables.Parameters.RiskFreeRate)
	assert.Equal(t, 0.012, tables.Parameters.DailyVolProxy)
	assert.Equal(t, "gold", mustCommodity(t, tables, "NST"))

	assert.Equal(t, 0.65, reference.MustDefault().Parameters.AUDUSD, "shared defaults untouched")
}

func TestReferenceTables_FromFile(t *testing.T) {
	path := filepath.Join(t.TempDir(), "ref.yaml")
	require.NoError(t, os.WriteFile(path, []byte("parameters: [not, a, map]"), 0644))

	_, err := (&Config{ReferenceFile: path}).ReferenceTables()
	assert.Error(t, err)

	_, err = (&Config{ReferenceFile: filepath.Join(t.TempDir(), "missing.yaml")}).ReferenceTables()
	assert.Error(t, err)
}

func mustCommodity(t *testing.T, tables *reference.Tables, ticker string) string {
	t.Helper()
	c, ok := tables.CommodityForTicker(ticker)
	require.True(t, ok)
	return c
}
