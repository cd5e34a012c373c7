package config

import (
	"os"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestDefaultConfigValidates(t *testing.T) {
	cfg := DefaultConfig()
	assert.NoError(t, cfg.Validate())
}

func TestValidateRejectsMinConfidenceOutOfRange(t *testing.T) {
	cfg := DefaultConfig()
	cfg.MinConfidence = 0.99
	assert.Error(t, cfg.Validate())
}

func TestValidateRejectsInvertedRSIBand(t *testing.T) {
	cfg := DefaultConfig()
	cfg.Indicators.RSIOverbought = 20
	cfg.Indicators.RSIOversold = 30
	assert.Error(t, cfg.Validate())
}

func TestValidateRejectsMinVoteRatioAtOrBelowOne(t *testing.T) {
	cfg := DefaultConfig()
	cfg.Clusters.MinVoteRatio = 1.0
	assert.Error(t, cfg.Validate())
}

func TestValidateRejectsInvertedVolatilityBand(t *testing.T) {
	cfg := DefaultConfig()
	cfg.Filters.MinVolatility = 0.05
	cfg.Filters.MaxVolatility = 0.01
	assert.Error(t, cfg.Validate())
}

func TestValidateRejectsInvertedCorrelationBand(t *testing.T) {
	cfg := DefaultConfig()
	cfg.Filters.CorrelationBandMin = 0.5
	cfg.Filters.CorrelationBandMax = 0.4
	assert.Error(t, cfg.Validate())
}

func TestValidateRejectsNegativeEnsembleWeight(t *testing.T) {
	cfg := DefaultConfig()
	cfg.ML.EnsembleWeights["random_forest"] = -1
	assert.Error(t, cfg.Validate())
}

func TestLoadConfigRoundTripsYAML(t *testing.T) {
	dir := t.TempDir()
	path := filepath.Join(dir, "config.yaml")

	data := []byte(`
min_confidence: 0.6
indicators:
  rsi_overbought: 70
  rsi_oversold: 30
  bb_overbought: 1.0
  bb_oversold: 0.0
  stoch_rsi_overbought: 0.8
  stoch_rsi_oversold: 0.2
  volatility_scale: 1.0
  divergence_lookback: 14
clusters:
  min_active_votes: 3
  min_vote_ratio: 1.15
  multi_tf_bonus: 0.12
  cluster_min_alignment: 0.7
ml:
  retrain_interval_trades: 50
  min_training_samples: 100
  walk_forward_train_days: 30
  walk_forward_test_days: 7
filters:
  max_spread_bps: 1500
  min_volatility: 0.0005
  max_volatility: 0.03
  correlation_band_min: -0.3
  correlation_band_max: 0.9
calibration:
  buckets: 10
  decay_factor: 0.98
`)
	require.NoError(t, os.WriteFile(path, data, 0o644))

	cfg, err := LoadConfig(path)
	require.NoError(t, err)
	assert.Equal(t, 0.6, cfg.MinConfidence)
	assert.Equal(t, 70.0, cfg.Indicators.RSIOverbought)
}

func TestLoadConfigRejectsInvalidDocument(t *testing.T) {
	dir := t.TempDir()
	path := filepath.Join(dir, "bad.yaml")
	require.NoError(t, os.WriteFile(path, []byte("min_confidence: 2.0\n"), 0o644))

	_, err := LoadConfig(path)
	assert.Error(t, err)
}

func TestLoadConfigMissingFile(t *testing.T) {
	_, err := LoadConfig(filepath.Join(t.TempDir(), "missing.yaml"))
	assert.Error(t, err)
}
