package config

import (
	"os"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestLoad_Defaults(t *testing.T) {
	t.Setenv("EQ_CONFIG_FILE", filepath.Join(t.TempDir(), "missing.yaml"))

	cfg, err := Load()
	require.NoError(t, err)

	assert.Equal(t, 8080, cfg.Server.Port)
	assert.Equal(t, "info", cfg.Logging.Level)
	assert.Equal(t, 30, cfg.Analysis.MinObservations)
	assert.InDelta(t, 0.2, cfg.Analysis.MaxDroppedFraction, 1e-9)
	assert.Equal(t, "mlp", cfg.Analysis.Model.Kind)
	assert.Equal(t, int64(42), cfg.Analysis.Model.Seed)
	assert.NotEmpty(t, cfg.Analysis.TimestampAliases)
	assert.NotEmpty(t, cfg.Analysis.Features)
}

func TestLoad_EnvOverrides(t *testing.T) {
	t.Setenv("EQ_CONFIG_FILE", filepath.Join(t.TempDir(), "missing.yaml"))
	t.Setenv("EQ_SERVER_PORT", "9091")
	t.Setenv("EQ_ANALYSIS_MODEL_KIND", "linear")
	t.Setenv("EQ_ANALYSIS_MIN_OBSERVATIONS", "50")

	cfg, err := Load()
	require.NoError(t, err)

	assert.Equal(t, 9091, cfg.Server.Port)
	assert.Equal(t, "linear", cfg.Analysis.Model.Kind)
	assert.Equal(t, 50, cfg.Analysis.MinObservations)
}

func TestLoad_YAMLFile(t *testing.T) {
	dir := t.TempDir()
	configPath := filepath.Join(dir, "config.yaml")
	content := `
analysis:
  features:
    - name: sma_5
      kind: sma
      window: 5
    - name: direction
      kind: direction
      window: 2
  open_aliases: ["px_open"]
  high_aliases: ["px_high"]
  low_aliases: ["px_low"]
  close_aliases: ["px_last"]
  volume_aliases: ["px_volume"]
`
	require.NoError(t, os.WriteFile(configPath, []byte(content), 0644))
	t.Setenv("EQ_CONFIG_FILE", configPath)

	cfg, err := Load()
	require.NoError(t, err)

	require.Len(t, cfg.Analysis.Features, 2)
	assert.Equal(t, "sma_5", cfg.Analysis.Features[0].Name)
	assert.Equal(t, []string{"px_open"}, cfg.Analysis.OpenAliases)
	assert.Equal(t, []string{"px_high"}, cfg.Analysis.HighAliases)
	assert.Equal(t, []string{"px_low"}, cfg.Analysis.LowAliases)
	assert.Equal(t, []string{"px_last"}, cfg.Analysis.CloseAliases)
	assert.Equal(t, []string{"px_volume"}, cfg.Analysis.VolumeAliases)
}

func TestLoad_InvalidModelKind(t *testing.T) {
	t.Setenv("EQ_CONFIG_FILE", filepath.Join(t.TempDir(), "missing.yaml"))
	t.Setenv("EQ_ANALYSIS_MODEL_KIND", "forest")

	_, err := Load()
	assert.Error(t, err)
}

func TestDefaultAnalysis(t *testing.T) {
	cfg := DefaultAnalysis()

	assert.Equal(t, 30, cfg.MinObservations)
	assert.Len(t, cfg.Features, 7)
	assert.Equal(t, "direction", cfg.Model.Target)

	names := cfg.FeatureNames()
	assert.NotContains(t, names, "direction")
	assert.Contains(t, names, "sma_21")
	assert.Contains(t, names, "mom_300")
}
