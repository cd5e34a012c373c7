package filters

import (
	"testing"

	"github.com/stretchr/testify/assert"

	"github.com/sawpanic/signalengine/internal/features"
	"github.com/sawpanic/signalengine/internal/market"
	"github.com/sawpanic/signalengine/internal/window"
)

func TestFilterLiquidityRejectsBelowThreshold(t *testing.T) {
	th := DefaultThresholds()
	req := Request{Snapshot: features.Snapshot{Top5Depth: 1}}
	r := filterLiquidity(req, th)
	assert.False(t, r.Allow)
	assert.Equal(t, ReasonInsufficientLiquidity, r.Reason)
}

func TestFilterLiquidityAllowsAboveThreshold(t *testing.T) {
	th := DefaultThresholds()
	req := Request{Snapshot: features.Snapshot{Top5Depth: 100}}
	r := filterLiquidity(req, th)
	assert.True(t, r.Allow)
}

func TestFilterSpreadRejectsWideSpread(t *testing.T) {
	th := DefaultThresholds()
	req := Request{Snapshot: features.Snapshot{SpreadBPS: 9999}}
	r := filterSpread(req, th)
	assert.False(t, r.Allow)
	assert.Equal(t, ReasonExcessiveSpread, r.Reason)
}

func TestFilterVolatilityRejectsHighAndLow(t *testing.T) {
	th := DefaultThresholds()

	high := Request{Snapshot: features.Snapshot{}}
	high.Snapshot.Volatility.IsValid = true
	high.Snapshot.Volatility.Value = 1.0
	rHigh := filterVolatility(high, th)
	assert.False(t, rHigh.Allow)
	assert.Equal(t, ReasonHighVolatility, rHigh.Reason)

	low := Request{Snapshot: features.Snapshot{}}
	low.Snapshot.Volatility.IsValid = true
	low.Snapshot.Volatility.Value = 0.00001
	rLow := filterVolatility(low, th)
	assert.False(t, rLow.Allow)
	assert.Equal(t, ReasonLowVolatility, rLow.Reason)
}

func TestFilterVolatilityPassesWhenInvalid(t *testing.T) {
	th := DefaultThresholds()
	req := Request{Snapshot: features.Snapshot{}}
	r := filterVolatility(req, th)
	assert.True(t, r.Allow)
}

func TestFilterHourDisabledAlwaysPasses(t *testing.T) {
	th := DefaultThresholds()
	th.HourFilterEnabled = false
	req := Request{NowMs: 3 * 3600 * 1000}
	r := filterHour(req, th)
	assert.True(t, r.Allow)
}

func TestFilterHourEnabledRejectsConfiguredHour(t *testing.T) {
	th := DefaultThresholds()
	th.HourFilterEnabled = true
	req := Request{NowMs: 3 * 3600 * 1000}
	r := filterHour(req, th)
	assert.False(t, r.Allow)
	assert.Equal(t, ReasonSuboptimalHour, r.Reason)
}

func TestFilterCorrelationPassesWhenUnavailable(t *testing.T) {
	th := DefaultThresholds()
	req := Request{CorrelationOK: false}
	r := filterCorrelation(req, th)
	assert.True(t, r.Allow)
}

func TestFilterCorrelationRejectsOutsideBand(t *testing.T) {
	th := DefaultThresholds()
	req := Request{CorrelationOK: true, Correlation: -0.9}
	r := filterCorrelation(req, th)
	assert.False(t, r.Allow)
	assert.Equal(t, ReasonUnstableCorrelation, r.Reason)
}

func TestFilterLateEntryRejectsMatchingDirection(t *testing.T) {
	req := Request{
		Snapshot:  features.Snapshot{Window: window.Snapshot{LateEntryUp: true}},
		Direction: market.Up,
	}
	r := filterLateEntry(req, DefaultThresholds())
	assert.False(t, r.Allow)
	assert.Equal(t, ReasonLateEntryUp, r.Reason)
}

func TestFilterLateEntryIgnoresOppositeDirection(t *testing.T) {
	req := Request{
		Snapshot:  features.Snapshot{Window: window.Snapshot{LateEntryUp: true}},
		Direction: market.Down,
	}
	r := filterLateEntry(req, DefaultThresholds())
	assert.True(t, r.Allow)
}

func TestFilterTimeToCloseRejectsTooSoon(t *testing.T) {
	th := DefaultThresholds()
	req := Request{MinutesToExpiry: 0.1}
	r := filterTimeToClose(req, th)
	assert.False(t, r.Allow)
	assert.Equal(t, ReasonInsufficientTime, r.Reason)
}

func TestFilterMacroEventRejectsWhenNear(t *testing.T) {
	req := Request{MacroEventNear: true}
	r := filterMacroEvent(req, DefaultThresholds())
	assert.False(t, r.Allow)
	assert.Equal(t, ReasonMacroEvent, r.Reason)
}

func TestFilterConfidenceRejectsBelowMin(t *testing.T) {
	th := DefaultThresholds()
	req := Request{Confidence: 0.1}
	r := filterConfidence(req, th)
	assert.False(t, r.Allow)
	assert.Equal(t, ReasonConfidenceBelowMin, r.Reason)
}

func TestChainEvaluateStopsAtFirstBlockingFilter(t *testing.T) {
	chain := NewChain(DefaultThresholds())
	req := Request{
		Snapshot: features.Snapshot{
			Top5Depth: 1, // fails liquidity first
			SpreadBPS: 9999,
		},
		Confidence: 0.1,
	}
	r := chain.Evaluate(req)
	assert.False(t, r.Allow)
	assert.Equal(t, ReasonInsufficientLiquidity, r.Reason)
}

func TestChainEvaluateAllowsWhenEveryFilterPasses(t *testing.T) {
	chain := NewChain(DefaultThresholds())
	req := Request{
		Snapshot: features.Snapshot{
			Top5Depth: 100,
			SpreadBPS: 100,
		},
		Direction:       market.Up,
		Confidence:      0.9,
		MinutesToExpiry: 10,
	}
	r := chain.Evaluate(req)
	assert.True(t, r.Allow)
}

func TestChainAllResultsEvaluatesEveryFilterIndependently(t *testing.T) {
	chain := NewChain(DefaultThresholds())
	req := Request{
		Snapshot: features.Snapshot{
			Top5Depth: 1,
			SpreadBPS: 9999,
		},
		Confidence: 0.1,
	}
	results := chain.AllResults(req)
	assert.False(t, results[ReasonInsufficientLiquidity].Allow)
	assert.False(t, results[ReasonExcessiveSpread].Allow)
	assert.False(t, results[ReasonConfidenceBelowMin].Allow)
}

func TestAdaptiveThresholdWidensAfterTwentyLosingWinnerRejections(t *testing.T) {
	at := NewAdaptiveThreshold(10)
	for i := 0; i < 25; i++ {
		at.RecordRejection(true) // every rejection would have won
	}
	assert.Greater(t, at.Effective(), at.Base)
}

func TestAdaptiveThresholdStaysNeutralBelowMinApplications(t *testing.T) {
	at := NewAdaptiveThreshold(10)
	for i := 0; i < 5; i++ {
		at.RecordRejection(true)
	}
	assert.Equal(t, at.Base, at.Effective())
}

func TestAdaptiveThresholdNarrowsWhenRejectingMostlyLosers(t *testing.T) {
	at := NewAdaptiveThreshold(10)
	at.multiplier = 1.5
	for i := 0; i < 25; i++ {
		at.RecordRejection(false)
	}
	assert.Less(t, at.Effective(), 1.5*at.Base)
}

func TestChainRecordRejectionOutcomeRoutesToCorrectThreshold(t *testing.T) {
	chain := NewChain(DefaultThresholds())
	before := chain.Thresholds.MinLiquidity.Effective()
	for i := 0; i < 25; i++ {
		chain.RecordRejectionOutcome(ReasonInsufficientLiquidity, true)
	}
	assert.Greater(t, chain.Thresholds.MinLiquidity.Effective(), before)
}
