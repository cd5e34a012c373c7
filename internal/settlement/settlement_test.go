package settlement

import (
	"testing"

	"github.com/stretchr/testify/assert"

	"github.com/sawpanic/signalengine/internal/market"
)

func TestTracker_VelocityPositiveOnRisingPrice(t *testing.T) {
	tr := NewTracker(market.BTC)
	tr.OnTick(100, 0)
	tr.OnTick(101, 60000)
	assert.Greater(t, tr.velocity(), 0.0)
}

func TestTracker_PredictAppliesDecayNearExpiry(t *testing.T) {
	tr := NewTracker(market.BTC)
	tr.OnTick(100, 0)
	tr.OnTick(101, 60000)
	tr.OnTick(102, 120000)
	tr.OnTick(103, 180000)

	pred := tr.Predict(103, 1, 0, 0.5, 100)
	assert.Less(t, pred.Drift, tr.velocity(), "decay shrinks drift below the undamped v*T")
	assert.NotZero(t, pred.PredictedPrice)
	assert.GreaterOrEqual(t, pred.Confidence, 0.0)
	assert.LessOrEqual(t, pred.Confidence, 1.0)
}

func TestTracker_EdgeUsesComplementWhenBelowStrike(t *testing.T) {
	tr := NewTracker(market.BTC)
	tr.OnTick(100, 0)
	tr.OnTick(99, 60000)

	pred := tr.Predict(99, 5, 0, 0.5, 100)
	if pred.PredictedPrice <= 100 {
		assert.InDelta(t, (1-pred.Confidence)-0.5, pred.Edge, 1e-9)
	}
}

func TestTracker_HistoricalAccuracyDefaultsToHalf(t *testing.T) {
	tr := NewTracker(market.ETH)
	assert.Equal(t, 0.5, tr.historicalAccuracy())
	tr.RecordOutcome(true, true)
	tr.RecordOutcome(true, false)
	assert.Equal(t, 0.5, tr.historicalAccuracy())
}
