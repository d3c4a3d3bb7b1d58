package config

import (
	"os"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"glrlm3d/pkg/features"
	"glrlm3d/pkg/glrlm"
)

func TestDefaultConfig(t *testing.T) {
	cfg := DefaultConfig()

	assert.Equal(t, 25.0, cfg.Discretization.BinWidth)
	assert.Equal(t, 0, cfg.Discretization.BinCount)
	assert.Equal(t, "3D", cfg.Matrix.Mode)
	assert.Equal(t, "average", cfg.Matrix.Aggregation)
	assert.Greater(t, cfg.Matrix.Workers, 0)
	assert.Empty(t, cfg.Features.Enabled)
}

func TestLoadConfigMissingFileReturnsDefaults(t *testing.T) {
	cfg, err := LoadConfig(filepath.Join(t.TempDir(), "nope.yaml"))
	require.NoError(t, err)
	assert.Equal(t, DefaultConfig().Discretization, cfg.Discretization)
}

func TestSaveLoadRoundtrip(t *testing.T) {
	path := filepath.Join(t.TempDir(), "conf", "glrlm3d.yaml")

	cfg := DefaultConfig()
	cfg.Discretization.BinCount = 32
	cfg.Matrix.Mode = "2D"
	cfg.Matrix.Aggregation = "sum"
	cfg.Features.Enabled = []string{"ShortRunEmphasis", "RunPercentage"}
	require.NoError(t, SaveConfig(cfg, path))

	loaded, err := LoadConfig(path)
	require.NoError(t, err)
	assert.Equal(t, cfg, loaded)
}

func TestLoadConfigPartialFile(t *testing.T) {
	// Fields absent from the file keep their defaults.
	path := filepath.Join(t.TempDir(), "glrlm3d.yaml")
	require.NoError(t, os.WriteFile(path, []byte("discretization:\n  binWidth: 10\n"), 0644))

	cfg, err := LoadConfig(path)
	require.NoError(t, err)
	assert.Equal(t, 10.0, cfg.Discretization.BinWidth)
	assert.Equal(t, "average", cfg.Matrix.Aggregation)
}

func TestLoadConfigBadYAML(t *testing.T) {
	path := filepath.Join(t.TempDir(), "glrlm3d.yaml")
	require.NoError(t, os.WriteFile(path, []byte("discretization: [\n"), 0644))

	_, err := LoadConfig(path)
	assert.Error(t, err)
}

func TestExtractorParams(t *testing.T) {
	cfg := DefaultConfig()
	params, err := cfg.ExtractorParams()
	require.NoError(t, err)
	assert.Equal(t, glrlm.Directions3D, params.Directions)
	assert.Equal(t, features.AggregationAverage, params.Aggregation)
	assert.Equal(t, 25.0, params.Bins.BinWidth)

	cfg.Matrix.Mode = "2D"
	cfg.Matrix.Aggregation = "sum"
	params, err = cfg.ExtractorParams()
	require.NoError(t, err)
	assert.Equal(t, glrlm.Directions2D, params.Directions)
	assert.Equal(t, features.AggregationSum, params.Aggregation)
}

func TestExtractorParamsValidation(t *testing.T) {
	cfg := DefaultConfig()
	cfg.Matrix.Mode = "4D"
	_, err := cfg.ExtractorParams()
	assert.Error(t, err)

	cfg = DefaultConfig()
	cfg.Matrix.Aggregation = "median"
	_, err = cfg.ExtractorParams()
	assert.Error(t, err)

	cfg = DefaultConfig()
	cfg.Discretization.BinWidth = 0
	_, err = cfg.ExtractorParams()
	assert.Error(t, err)
}
