package config

import (
	"os"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap"

	"github.com/sells-group/ecoflow/internal/decay"
	"github.com/sells-group/ecoflow/internal/engine"
)

func chtemp(t *testing.T) string {
	// Change to temp dir so no config.yaml is found
	dir := t.TempDir()
	origDir, _ := os.Getwd()
	require.NoError(t, os.Chdir(dir))
	t.Cleanup(func() { os.Chdir(origDir) })
	return dir
}

func TestLoadDefaults(t *testing.T) {
	chtemp(t)

	cfg, err := Load()
	require.NoError(t, err)

	assert.Equal(t, "ecoflow.db", cfg.Store.Path)
	assert.Equal(t, "info", cfg.Log.Level)
	assert.Equal(t, "json", cfg.Log.Format)
	assert.Equal(t, -9999.0, cfg.IO.NoDataValue)
	assert.InDelta(t, 0.5, cfg.Engine.Alpha, 0.001)
	assert.InDelta(t, 0.5, cfg.Engine.Beta, 0.001)
	assert.InDelta(t, 1.0, cfg.Engine.Gamma, 0.001)
	assert.InDelta(t, 1000.0, cfg.Engine.MaxDistance, 0.001)
	assert.InDelta(t, 0.001, cfg.Engine.FlowThreshold, 1e-9)
	assert.Equal(t, decay.CurveExponential, cfg.Engine.DistanceDecay)
	assert.Equal(t, engine.CapacityFinite, cfg.Engine.SourceType)
	assert.Equal(t, engine.BenefitRival, cfg.Engine.BenefitType)
	assert.Equal(t, 30.0, cfg.Engine.CellWidth)
	assert.Equal(t, 5, cfg.Engine.TopBottlenecks)
	assert.NoError(t, cfg.Engine.Validate())
}

func TestLoadFromYAML(t *testing.T) {
	dir := chtemp(t)

	yaml := `
store:
  path: runs.db
log:
  level: debug
  format: console
engine:
  alpha: 0.2
  distance_decay: gaussian
  benefit_type: non-rival
`
	require.NoError(t, os.WriteFile(filepath.Join(dir, "config.yaml"), []byte(yaml), 0644))

	cfg, err := Load()
	require.NoError(t, err)

	assert.Equal(t, "runs.db", cfg.Store.Path)
	assert.Equal(t, "debug", cfg.Log.Level)
	assert.Equal(t, "console", cfg.Log.Format)
	assert.InDelta(t, 0.2, cfg.Engine.Alpha, 0.001)
	assert.Equal(t, decay.CurveGaussian, cfg.Engine.DistanceDecay)
	assert.Equal(t, engine.BenefitNonRival, cfg.Engine.BenefitType)
	// Defaults still apply for unset values
	assert.InDelta(t, 1000.0, cfg.Engine.MaxDistance, 0.001)
}

func TestLoadEnvOverridesFile(t *testing.T) {
	dir := chtemp(t)

	yaml := `
log:
  level: debug
engine:
  alpha: 0.2
`
	require.NoError(t, os.WriteFile(filepath.Join(dir, "config.yaml"), []byte(yaml), 0644))

	t.Setenv("ECOFLOW_LOG_LEVEL", "warn")
	t.Setenv("ECOFLOW_ENGINE_ALPHA", "0.9")

	cfg, err := Load()
	require.NoError(t, err)

	// Env overrides file
	assert.Equal(t, "warn", cfg.Log.Level)
	assert.InDelta(t, 0.9, cfg.Engine.Alpha, 0.001)
}

func TestLoadRejectsInvalidEngine(t *testing.T) {
	dir := chtemp(t)

	yaml := `
engine:
  distance_decay: sigmoid
`
	require.NoError(t, os.WriteFile(filepath.Join(dir, "config.yaml"), []byte(yaml), 0644))

	_, err := Load()
	assert.Error(t, err)
}

func TestInitLoggerConsole(t *testing.T) {
	err := InitLogger(LogConfig{Level: "debug", Format: "console"})
	require.NoError(t, err)
	assert.NotNil(t, zap.L())
}

func TestInitLoggerJSON(t *testing.T) {
	err := InitLogger(LogConfig{Level: "info", Format: "json"})
	require.NoError(t, err)
	assert.NotNil(t, zap.L())
}

func TestInitLoggerInvalidLevel(t *testing.T) {
	err := InitLogger(LogConfig{Level: "invalid", Format: "json"})
	assert.Error(t, err)
}
