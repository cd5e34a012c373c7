// Package config loads the engine's single configuration document from
// YAML. Grounded on cryptorun's own internal/config package
// (providers.go's LoadProvidersConfig/Validate shape: os.ReadFile then
// yaml.Unmarshal, then an explicit Validate() walking every sub-config)
// and on config/regime's WeightsConfig (a map keyed by regime name plus
// a tolerance-bounded validation pass).
package config

import (
	"fmt"
	"os"

	"gopkg.in/yaml.v3"

	"github.com/sawpanic/signalengine/internal/market"
)

// IndicatorConfig holds the indicator-level thresholds spec §6's
// Configuration list names.
type IndicatorConfig struct {
	RSIOverbought          float64 `yaml:"rsi_overbought"`
	RSIOversold            float64 `yaml:"rsi_oversold"`
	MACDThreshold          float64 `yaml:"macd_threshold"`
	BBOverbought           float64 `yaml:"bb_overbought"`
	BBOversold             float64 `yaml:"bb_oversold"`
	TrendThreshold         float64 `yaml:"trend_threshold"`
	VolatilityScale        float64 `yaml:"volatility_scale"`
	StochRSIOverbought     float64 `yaml:"stoch_rsi_overbought"`
	StochRSIOversold       float64 `yaml:"stoch_rsi_oversold"`
	VolumeConfirmThreshold float64 `yaml:"volume_confirm_threshold"`
	VolumePenaltyThreshold float64 `yaml:"volume_penalty_threshold"`
	DivergenceLookback     int     `yaml:"divergence_lookback"`
}

// ClusterVoterConfig holds the cluster-vote gating knobs.
type ClusterVoterConfig struct {
	MinActiveVotes                     int     `yaml:"min_active_votes"`
	MinVoteRatio                       float64 `yaml:"min_vote_ratio"`
	MultiTFBonus                       float64 `yaml:"multi_tf_bonus"`
	MinEdgeNet                         float64 `yaml:"min_edge_net"`
	ClusterMinAlignment                float64 `yaml:"cluster_min_alignment"`
	ClusterRequireTrendMomentumAgree   bool    `yaml:"cluster_require_trend_momentum_agreement"`
	LateEntryThresholds                map[market.Asset]float64 `yaml:"late_entry_thresholds"`
}

// MLConfig holds the ensemble predictor's sub-configuration.
type MLConfig struct {
	ModelType             string             `yaml:"model_type"`
	EnsembleWeights       map[string]float64 `yaml:"ensemble_weights"`
	DynamicWeights        bool               `yaml:"dynamic_weights"`
	ClassBalance          bool               `yaml:"class_balance"`
	RetrainIntervalTrades int                `yaml:"retrain_interval_trades"`
	MinTrainingSamples    int                `yaml:"min_training_samples"`
	WalkForwardTrainDays  int                `yaml:"walk_forward_train_days"`
	WalkForwardTestDays   int                `yaml:"walk_forward_test_days"`
}

// FilterConfig holds the smart filter chain's thresholds.
type FilterConfig struct {
	MinLiquidity       float64      `yaml:"min_liquidity"`
	MaxSpreadBPS       float64      `yaml:"max_spread_bps"`
	MaxVolatility      float64      `yaml:"max_volatility"`
	MinVolatility      float64      `yaml:"min_volatility"`
	MinMinutesToExpiry float64      `yaml:"min_minutes_to_expiry"`
	HourFilterEnabled  bool         `yaml:"hour_filter_enabled"`
	SuboptimalHours    []int        `yaml:"suboptimal_hours"`
	CorrelationBandMin float64      `yaml:"correlation_band_min"`
	CorrelationBandMax float64      `yaml:"correlation_band_max"`
}

// CalibrationConfig holds the confidence-calibrator's bucket count and
// decay settings.
type CalibrationConfig struct {
	Buckets       int     `yaml:"buckets"`
	DecayFactor   float64 `yaml:"decay_factor"`
	MinSamplesPerBucket int `yaml:"min_samples_per_bucket"`
}

// Config is the engine's single top-level configuration document.
type Config struct {
	MinConfidence float64 `yaml:"min_confidence"`

	Indicators  IndicatorConfig    `yaml:"indicators"`
	Clusters    ClusterVoterConfig `yaml:"clusters"`
	ML          MLConfig           `yaml:"ml"`
	Filters     FilterConfig       `yaml:"filters"`
	Calibration CalibrationConfig  `yaml:"calibration"`
}

// LoadConfig reads and parses a Config document and validates it,
// following cryptorun's LoadProvidersConfig shape.
func LoadConfig(path string) (*Config, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("failed to read config: %w", err)
	}

	var cfg Config
	if err := yaml.Unmarshal(data, &cfg); err != nil {
		return nil, fmt.Errorf("failed to parse config: %w", err)
	}

	if err := cfg.Validate(); err != nil {
		return nil, fmt.Errorf("invalid config: %w", err)
	}

	return &cfg, nil
}

// Validate enforces the Fatal error class: contradictory or out-of-range
// thresholds are caught at load time, never silently clamped at runtime.
func (c *Config) Validate() error {
	if c.MinConfidence <= 0 || c.MinConfidence >= 0.95 {
		return fmt.Errorf("min_confidence %.3f must be in (0, 0.95)", c.MinConfidence)
	}

	if c.Indicators.RSIOverbought <= c.Indicators.RSIOversold {
		return fmt.Errorf("rsi_overbought (%.1f) must exceed rsi_oversold (%.1f)",
			c.Indicators.RSIOverbought, c.Indicators.RSIOversold)
	}
	if c.Indicators.BBOverbought <= c.Indicators.BBOversold {
		return fmt.Errorf("bb_overbought (%.3f) must exceed bb_oversold (%.3f)",
			c.Indicators.BBOverbought, c.Indicators.BBOversold)
	}
	if c.Indicators.StochRSIOverbought <= c.Indicators.StochRSIOversold {
		return fmt.Errorf("stoch_rsi_overbought (%.3f) must exceed stoch_rsi_oversold (%.3f)",
			c.Indicators.StochRSIOverbought, c.Indicators.StochRSIOversold)
	}
	if c.Indicators.VolatilityScale <= 0 {
		return fmt.Errorf("volatility_scale must be positive, got %.4f", c.Indicators.VolatilityScale)
	}
	if c.Indicators.DivergenceLookback <= 0 {
		return fmt.Errorf("divergence_lookback must be positive, got %d", c.Indicators.DivergenceLookback)
	}

	if c.Clusters.MinActiveVotes <= 0 {
		return fmt.Errorf("min_active_votes must be positive, got %d", c.Clusters.MinActiveVotes)
	}
	if c.Clusters.MinVoteRatio <= 1.0 {
		return fmt.Errorf("min_vote_ratio must exceed 1.0, got %.3f", c.Clusters.MinVoteRatio)
	}
	if c.Clusters.MultiTFBonus < 0 || c.Clusters.MultiTFBonus > 0.12 {
		return fmt.Errorf("multi_tf_bonus %.3f outside [0, 0.12]", c.Clusters.MultiTFBonus)
	}
	if c.Clusters.ClusterMinAlignment <= 0 || c.Clusters.ClusterMinAlignment > 1 {
		return fmt.Errorf("cluster_min_alignment %.3f must be in (0, 1]", c.Clusters.ClusterMinAlignment)
	}
	for asset, threshold := range c.Clusters.LateEntryThresholds {
		if threshold <= 0 || threshold >= 1 {
			return fmt.Errorf("late entry threshold for %s (%.3f) must be in (0, 1)", asset, threshold)
		}
	}

	if c.ML.RetrainIntervalTrades <= 0 {
		return fmt.Errorf("retrain_interval_trades must be positive, got %d", c.ML.RetrainIntervalTrades)
	}
	if c.ML.MinTrainingSamples <= 0 {
		return fmt.Errorf("min_training_samples must be positive, got %d", c.ML.MinTrainingSamples)
	}
	if c.ML.WalkForwardTrainDays <= 0 || c.ML.WalkForwardTestDays <= 0 {
		return fmt.Errorf("walk_forward train/test days must be positive, got %d/%d",
			c.ML.WalkForwardTrainDays, c.ML.WalkForwardTestDays)
	}
	for name, w := range c.ML.EnsembleWeights {
		if w < 0 {
			return fmt.Errorf("ensemble weight for %s is negative: %.3f", name, w)
		}
	}

	if c.Filters.MinLiquidity < 0 {
		return fmt.Errorf("min_liquidity cannot be negative, got %.3f", c.Filters.MinLiquidity)
	}
	if c.Filters.MaxSpreadBPS <= 0 {
		return fmt.Errorf("max_spread_bps must be positive, got %.1f", c.Filters.MaxSpreadBPS)
	}
	if c.Filters.MinVolatility >= c.Filters.MaxVolatility {
		return fmt.Errorf("min_volatility (%.5f) must be below max_volatility (%.5f)",
			c.Filters.MinVolatility, c.Filters.MaxVolatility)
	}
	if c.Filters.CorrelationBandMin >= c.Filters.CorrelationBandMax {
		return fmt.Errorf("correlation_band_min (%.3f) must be below correlation_band_max (%.3f)",
			c.Filters.CorrelationBandMin, c.Filters.CorrelationBandMax)
	}

	if c.Calibration.Buckets <= 0 {
		return fmt.Errorf("calibration buckets must be positive, got %d", c.Calibration.Buckets)
	}
	if c.Calibration.DecayFactor <= 0 || c.Calibration.DecayFactor > 1 {
		return fmt.Errorf("calibration decay_factor %.3f must be in (0, 1]", c.Calibration.DecayFactor)
	}

	return nil
}

// DefaultConfig returns a config document with the values already in use
// across internal/strategy/legacy and internal/filters' own defaults, so a
// fresh deployment's YAML can start from this baseline. One value differs:
// min_active_votes is 3 here, while legacy.DefaultThresholds uses 2.
func DefaultConfig() *Config {
	return &Config{
		MinConfidence: 0.55,
		Indicators: IndicatorConfig{
			RSIOverbought:          70,
			RSIOversold:            30,
			MACDThreshold:          0,
			BBOverbought:           1.0,
			BBOversold:             0.0,
			TrendThreshold:         25,
			VolatilityScale:        1.0,
			StochRSIOverbought:     0.8,
			StochRSIOversold:       0.2,
			VolumeConfirmThreshold: 1.3,
			VolumePenaltyThreshold: 0.6,
			DivergenceLookback:     14,
		},
		Clusters: ClusterVoterConfig{
			MinActiveVotes:                   3,
			MinVoteRatio:                     1.15,
			MultiTFBonus:                     0.12,
			MinEdgeNet:                       0.03,
			ClusterMinAlignment:              0.70,
			ClusterRequireTrendMomentumAgree: true,
			LateEntryThresholds: map[market.Asset]float64{
				market.BTC: 0.85,
				market.ETH: 0.85,
			},
		},
		ML: MLConfig{
			ModelType: "ensemble",
			EnsembleWeights: map[string]float64{
				"random_forest": 1.0,
				"gbm_simplified": 1.0,
				"logistic_regression": 1.0,
			},
			DynamicWeights:        true,
			ClassBalance:          true,
			RetrainIntervalTrades: 50,
			MinTrainingSamples:    100,
			WalkForwardTrainDays:  30,
			WalkForwardTestDays:   7,
		},
		Filters: FilterConfig{
			MinLiquidity:       10,
			MaxSpreadBPS:       1500,
			MaxVolatility:      0.03,
			MinVolatility:      0.0005,
			MinMinutesToExpiry: 1.0,
			HourFilterEnabled:  false,
			SuboptimalHours:    []int{3, 4},
			CorrelationBandMin: -0.3,
			CorrelationBandMax: 0.9,
		},
		Calibration: CalibrationConfig{
			Buckets:             10,
			DecayFactor:         0.98,
			MinSamplesPerBucket: 20,
		},
	}
}
