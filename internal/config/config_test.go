package config

import (
	"os"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/Hanoi896/risk-map/internal/hazard"
)

func chTempDir(t *testing.T) {
	t.Helper()
	dir := t.TempDir()
	origDir, _ := os.Getwd()
	require.NoError(t, os.Chdir(dir))
	t.Cleanup(func() { os.Chdir(origDir) })
}

func TestLoadDefaults(t *testing.T) {
	// Change to temp dir so no config.yaml is found
	chTempDir(t)

	cfg, err := Load()
	require.NoError(t, err)

	assert.Equal(t, "sqlite", cfg.Store.Driver)
	assert.Equal(t, "info", cfg.Log.Level)
	assert.Equal(t, "json", cfg.Log.Format)
	assert.Equal(t, 8080, cfg.Server.Port)
	assert.Equal(t, 1000, cfg.Server.EventLimit)
	assert.Equal(t, 30, cfg.Sources.TimeoutSecs)
	assert.Equal(t, "https://eonet.gsfc.nasa.gov/api/v3", cfg.Sources.EONET.BaseURL)
	assert.Equal(t, "https://www.gdacs.org/rss.aspx", cfg.Sources.GDACS.FeedURL)
	assert.Equal(t, 90, cfg.Sources.ReliefWeb.Days)
	assert.Equal(t, "metric", cfg.Weather.Units)

	assert.Equal(t, 90, cfg.Scoring.CategoryWeights["Earthquakes"])
	assert.Equal(t, 10, cfg.Scoring.CategoryWeights["Manmade"])
	assert.Equal(t, 20, cfg.Scoring.DefaultWeight)
	require.Len(t, cfg.Scoring.RecencyTiers, 3)
	assert.Equal(t, hazard.RecencyTier{MaxAgeDays: 3, Bonus: 20}, cfg.Scoring.RecencyTiers[0])

	assert.Equal(t, 5.0, cfg.Aggregation.GridSizeDegrees)
	assert.Equal(t, 30, cfg.Aggregation.NoiseThreshold)
	assert.Equal(t, 300, cfg.Aggregation.Risk.DeepRed)
	assert.Equal(t, 150, cfg.Aggregation.Risk.High)
	assert.Equal(t, 80, cfg.Aggregation.Risk.Medium)
	assert.Equal(t, 500.0, cfg.Aggregation.CellRadiusKM)
	assert.Equal(t, 3, cfg.Aggregation.MaxRepresentative)
	assert.False(t, cfg.Aggregation.RepresentativeByScore)
}

func TestLoadFromYAML(t *testing.T) {
	chTempDir(t)

	yaml := `
store:
  driver: postgres
  database_url: postgres://localhost/riskmap
log:
  level: debug
  format: console
server:
  port: 9090
aggregation:
  grid_size_degrees: 2.5
  noise_threshold: 50
scoring:
  default_weight: 15
`
	dir, _ := os.Getwd()
	require.NoError(t, os.WriteFile(filepath.Join(dir, "config.yaml"), []byte(yaml), 0644))

	cfg, err := Load()
	require.NoError(t, err)

	assert.Equal(t, "postgres", cfg.Store.Driver)
	assert.Equal(t, "debug", cfg.Log.Level)
	assert.Equal(t, 9090, cfg.Server.Port)
	assert.Equal(t, 2.5, cfg.Aggregation.GridSizeDegrees)
	assert.Equal(t, 50, cfg.Aggregation.NoiseThreshold)
	assert.Equal(t, 15, cfg.Scoring.DefaultWeight)
	// Defaults still apply for unset values
	assert.Equal(t, 500.0, cfg.Aggregation.CellRadiusKM)
	assert.Equal(t, 90, cfg.Scoring.CategoryWeights["Earthquakes"])
}

func TestLoadEnvOverridesFile(t *testing.T) {
	chTempDir(t)

	t.Setenv("RISKMAP_SERVER_PORT", "7070")
	t.Setenv("RISKMAP_STORE_DRIVER", "postgres")

	cfg, err := Load()
	require.NoError(t, err)

	assert.Equal(t, 7070, cfg.Server.Port)
	assert.Equal(t, "postgres", cfg.Store.Driver)
}

func TestLoadRejectsInvalidAggregation(t *testing.T) {
	chTempDir(t)

	yaml := `
aggregation:
  grid_size_degrees: 0
`
	dir, _ := os.Getwd()
	require.NoError(t, os.WriteFile(filepath.Join(dir, "config.yaml"), []byte(yaml), 0644))

	_, err := Load()
	assert.Error(t, err)
}

func TestInitLogger(t *testing.T) {
	require.NoError(t, InitLogger(LogConfig{Level: "debug", Format: "console"}))
	require.NoError(t, InitLogger(LogConfig{Level: "info", Format: "json"}))
	assert.Error(t, InitLogger(LogConfig{Level: "nope", Format: "json"}))
}
