package temporal

import (
	"testing"
	"time"

	"github.com/stretchr/testify/assert"

	"github.com/sawpanic/signalengine/internal/market"
)

func TestAnalyzer_BoostsConfidenceForDominantDirection(t *testing.T) {
	an := NewAnalyzer()
	at := time.Date(2026, 1, 5, 9, 0, 0, 0, time.UTC)
	for i := 0; i < 6; i++ {
		an.RecordOutcome(market.BTC, market.TF15M, market.Up, true, 0.7, 0.1, at)
	}
	mult, reason := an.TemporalAdjustment(market.BTC, market.TF15M, market.Up, at)
	assert.Greater(t, mult, 1.0)
	assert.Equal(t, "temporal_boost_dominant_direction", reason)
}

func TestAnalyzer_PenalizesLowWinRateBucket(t *testing.T) {
	an := NewAnalyzer()
	at := time.Date(2026, 1, 5, 9, 0, 0, 0, time.UTC)
	for i := 0; i < 11; i++ {
		an.RecordOutcome(market.BTC, market.TF15M, market.Up, false, 0.5, -0.1, at)
	}
	mult, reason := an.TemporalAdjustment(market.BTC, market.TF15M, market.Up, at)
	assert.Equal(t, penaltyMultiplier, mult)
	assert.Equal(t, "temporal_penalty_low_win_rate", reason)
}

func TestAnalyzer_BlocksTradingOnPersistentlyPoorHour(t *testing.T) {
	an := NewAnalyzer()
	at := time.Date(2026, 1, 5, 9, 0, 0, 0, time.UTC)
	for i := 0; i < 16; i++ {
		an.RecordOutcome(market.BTC, market.TF15M, market.Down, false, 0.5, -0.2, at)
	}
	blocked, reason := an.ShouldBlockTrading(market.BTC, market.TF15M, at)
	assert.True(t, blocked)
	assert.Contains(t, reason, "temporal_block:")
}

func TestAnalyzer_NoBlockWithoutEnoughSamples(t *testing.T) {
	an := NewAnalyzer()
	at := time.Date(2026, 1, 5, 9, 0, 0, 0, time.UTC)
	an.RecordOutcome(market.BTC, market.TF15M, market.Down, false, 0.5, -0.2, at)
	blocked, _ := an.ShouldBlockTrading(market.BTC, market.TF15M, at)
	assert.False(t, blocked)
}
