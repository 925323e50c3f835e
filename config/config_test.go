package config

import (
	"os"
	"path/filepath"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/alejandrodnm/hedgelab/internal/domain"
)

func writeConfig(t *testing.T, body string) string {
	t.Helper()
	path := filepath.Join(t.TempDir(), "config.yaml")
	require.NoError(t, os.WriteFile(path, []byte(body), 0o644))
	return path
}

func TestLoad_Defaults(t *testing.T) {
	cfg, err := Load(writeConfig(t, "log:\n  level: debug\n"))
	require.NoError(t, err)

	assert.Equal(t, "debug", cfg.Log.Level)
	assert.Equal(t, "text", cfg.Log.Format)
	assert.Equal(t, "sqlite", cfg.Cache.Backend)
	assert.Equal(t, 24*time.Hour, cfg.CacheTTL())
	assert.Equal(t, 15*time.Second, cfg.MarketTimeout())
	assert.Equal(t, "hedgelab.db", cfg.Storage.DSN)

	pc, err := cfg.Pipeline()
	require.NoError(t, err)
	assert.Equal(t, domain.MissingDrop, pc.MissingPolicy)
	assert.Equal(t, domain.MethodMinVariance, pc.Method)
	assert.Equal(t, domain.DirectionInventory, pc.Direction)
	assert.Equal(t, 0, pc.Window)
	assert.Equal(t, 5.0, pc.StressThresholdPct)
	assert.Equal(t, 3, pc.StressMinDays)
	assert.Equal(t, 30, pc.RollingWindow)
	assert.Equal(t, domain.DefaultSensitivityGrid(), pc.Sensitivity)
	assert.Equal(t, domain.DefaultSummaryOptions(), pc.Summary)
}

func TestLoad_FullFile(t *testing.T) {
	cfg, err := Load(writeConfig(t, `
analysis:
  missing_policy: interpolate
  method: ols
  window: 60
  direction: procurement
  spot_quantity: 250
  contract_size: 10
  price_change_threshold_pct: 3.5
  min_consecutive_days: 4
  rolling_window_size: 20
  annualization_factor: 252
  sensitivity:
    min_multiplier: 0.5
    max_multiplier: 1.5
    steps: 11
cache:
  backend: redis
  ttl_hours: 6
`))
	require.NoError(t, err)

	pc, err := cfg.Pipeline()
	require.NoError(t, err)
	assert.Equal(t, domain.MissingInterpolate, pc.MissingPolicy)
	assert.Equal(t, domain.MethodOLS, pc.Method)
	assert.Equal(t, domain.DirectionProcurement, pc.Direction)
	assert.Equal(t, 60, pc.Window)
	assert.Equal(t, 250.0, pc.SpotQuantity)
	assert.Equal(t, 10.0, pc.ContractSize)
	assert.Equal(t, 3.5, pc.StressThresholdPct)
	assert.Equal(t, 4, pc.StressMinDays)
	assert.Equal(t, 20, pc.RollingWindow)
	assert.Equal(t, 252.0, pc.Summary.AnnualizationFactor)
	assert.Equal(t, domain.SensitivityGrid{MinMultiplier: 0.5, MaxMultiplier: 1.5, Steps: 11}, pc.Sensitivity)
	assert.Equal(t, "redis", cfg.Cache.Backend)
	assert.Equal(t, 6*time.Hour, cfg.CacheTTL())
}

func TestLoad_EnvOverrides(t *testing.T) {
	t.Setenv("HEDGELAB_LOG_LEVEL", "warn")
	t.Setenv("HEDGELAB_LOG_FORMAT", "json")
	t.Setenv("HEDGELAB_REDIS_ADDR", "redis:6380")
	t.Setenv("HEDGELAB_DSN", ":memory:")

	cfg, err := Load(writeConfig(t, "log:\n  level: debug\nstorage:\n  dsn: file.db\n"))
	require.NoError(t, err)
	assert.Equal(t, "warn", cfg.Log.Level)
	assert.Equal(t, "json", cfg.Log.Format)
	assert.Equal(t, "redis:6380", cfg.Cache.RedisAddr)
	assert.Equal(t, ":memory:", cfg.Storage.DSN)
}

func TestLoad_Errors(t *testing.T) {
	_, err := Load(filepath.Join(t.TempDir(), "missing.yaml"))
	assert.Error(t, err)

	_, err = Load(writeConfig(t, "analysis: [1, 2\n"))
	assert.Error(t, err)
}

func TestPipeline_RejectsInvalidValues(t *testing.T) {
	tests := []struct {
		name string
		yaml string
	}{
		{"unknown method", "analysis:\n  method: magic\n"},
		{"unknown policy", "analysis:\n  missing_policy: ffill\n"},
		{"unknown direction", "analysis:\n  direction: sideways\n"},
		{"window one", "analysis:\n  window: 1\n"},
		{"negative window", "analysis:\n  window: -5\n"},
		{"negative quantity", "analysis:\n  spot_quantity: -10\n"},
		{"negative threshold", "analysis:\n  price_change_threshold_pct: -1\n"},
		{"rolling window one", "analysis:\n  rolling_window_size: 1\n"},
		{"negative min days", "analysis:\n  min_consecutive_days: -2\n"},
		{"negative annualization", "analysis:\n  annualization_factor: -252\n"},
		{"inverted grid", "analysis:\n  sensitivity:\n    min_multiplier: 2\n    max_multiplier: 1\n    steps: 5\n"},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			cfg, err := Load(writeConfig(t, tt.yaml))
			require.NoError(t, err)
			_, err = cfg.Pipeline()
			assert.ErrorIs(t, err, domain.ErrConfiguration)
		})
	}
}
