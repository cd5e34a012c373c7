package legacy

import (
	"testing"

	"github.com/stretchr/testify/assert"

	"github.com/sawpanic/signalengine/internal/calibration"
	"github.com/sawpanic/signalengine/internal/crossasset"
	"github.com/sawpanic/signalengine/internal/features"
	"github.com/sawpanic/signalengine/internal/indicators"
	"github.com/sawpanic/signalengine/internal/market"
	"github.com/sawpanic/signalengine/internal/temporal"
	"github.com/sawpanic/signalengine/internal/window"
)

func TestGateAssetSupported(t *testing.T) {
	_, ok := gateAssetSupported(market.BTC)
	assert.True(t, ok)

	reason, ok := gateAssetSupported(market.Asset("DOGE"))
	assert.False(t, ok)
	assert.Equal(t, ReasonAssetNotSupported, reason)
}

func TestGateCooldown(t *testing.T) {
	_, ok := gateCooldown(market.TF15M, 1000, 0)
	assert.True(t, ok, "no prior signal means no cooldown")

	windowMs := market.TF15M.DurationMillis()
	reason, ok := gateCooldown(market.TF15M, windowMs/2, 0+1)
	assert.False(t, ok)
	assert.Equal(t, ReasonSignalCooldown, reason)

	_, ok = gateCooldown(market.TF15M, windowMs+100, 1)
	assert.True(t, ok)
}

func TestGateEthLongDisabled(t *testing.T) {
	reason, ok := gateEthLongDisabled(market.ETH, market.TF1H)
	assert.False(t, ok)
	assert.Equal(t, ReasonEth1HDisabled, reason)

	_, ok = gateEthLongDisabled(market.ETH, market.TF15M)
	assert.True(t, ok)
	_, ok = gateEthLongDisabled(market.BTC, market.TF1H)
	assert.True(t, ok)
}

func TestGateVolatileRegimeLong(t *testing.T) {
	reason, ok := gateVolatileRegimeLong(market.TF1H, features.Volatile)
	assert.False(t, ok)
	assert.Equal(t, ReasonRegimeVolatile1H, reason)

	_, ok = gateVolatileRegimeLong(market.TF15M, features.Volatile)
	assert.True(t, ok, "volatile regime only blocks the long timeframe")
}

func TestGateLateEntry(t *testing.T) {
	snap := features.Snapshot{Window: window.Snapshot{WindowProgress: 0.9, LateEntryUp: true}}
	reason, ok := gateLateEntry(snap, 0.85)
	assert.False(t, ok)
	assert.Equal(t, ReasonLateEntryUp, reason)

	snap.LateEntryUp = false
	snap.LateEntryDown = true
	reason, ok = gateLateEntry(snap, 0.85)
	assert.False(t, ok)
	assert.Equal(t, ReasonLateEntryDown, reason)

	snap.WindowProgress = 0.5
	_, ok = gateLateEntry(snap, 0.85)
	assert.True(t, ok)
}

func TestGateSpread(t *testing.T) {
	th := DefaultThresholds()
	snap := features.Snapshot{Timeframe: market.TF15M, SpreadBPS: 1500}
	reason, ok := gateSpread(snap, th)
	assert.False(t, ok)
	assert.Equal(t, ReasonSpreadTooWide, reason)

	snap.Timeframe = market.TF1H
	_, ok = gateSpread(snap, th)
	assert.True(t, ok, "1500bps clears the wider long-timeframe threshold")
}

func TestGateDepth(t *testing.T) {
	th := DefaultThresholds()
	snap := features.Snapshot{Timeframe: market.TF15M, Top5Depth: 3}
	reason, ok := gateDepth(snap, th)
	assert.False(t, ok)
	assert.Equal(t, ReasonDepthTooLow, reason)

	snap.Top5Depth = 0
	_, ok = gateDepth(snap, th)
	assert.True(t, ok, "unreported depth is skipped")
}

func TestGateEarlyWindowVolatility(t *testing.T) {
	th := DefaultThresholds()
	snap := features.Snapshot{Window: window.Snapshot{WindowProgress: 0.1, IntraWindowRange: 0.05}}
	reason, ok := gateEarlyWindowVolatility(snap, th)
	assert.False(t, ok)
	assert.Equal(t, ReasonEarlyWindowHighVolatility, reason)

	snap.Window.WindowProgress = 0.6
	_, ok = gateEarlyWindowVolatility(snap, th)
	assert.True(t, ok)
}

func TestGateInsufficientClusters(t *testing.T) {
	clusters := []clusterResult{
		{name: "Trend", active: true},
		{name: "Momentum", active: false},
	}
	reason, ok := gateInsufficientClusters(clusters, 2)
	assert.False(t, ok)
	assert.Equal(t, ReasonInsufficientClusters, reason)

	clusters[1].active = true
	_, ok = gateInsufficientClusters(clusters, 2)
	assert.True(t, ok)
}

func TestGateInsufficientClustersRespectsConfiguredMinimum(t *testing.T) {
	clusters := []clusterResult{
		{name: "Trend", active: true},
		{name: "Momentum", active: true},
	}
	reason, ok := gateInsufficientClusters(clusters, 3)
	assert.False(t, ok, "min_active_votes=3 rejects with only two active clusters")
	assert.Equal(t, ReasonInsufficientClusters, reason)

	clusters = append(clusters, clusterResult{name: "Reversion", active: true})
	_, ok = gateInsufficientClusters(clusters, 3)
	assert.True(t, ok)
}

func TestGateTrendMomentumMisalignment(t *testing.T) {
	clusters := []clusterResult{
		{name: "Trend", active: true, dominantDirection: market.Up},
		{name: "Momentum", active: true, dominantDirection: market.Down},
	}
	reason, ok := gateTrendMomentumMisalignment(clusters, true)
	assert.False(t, ok)
	assert.Equal(t, ReasonTrendMomentumMisaligned, reason)

	clusters[1].dominantDirection = market.Up
	_, ok = gateTrendMomentumMisalignment(clusters, true)
	assert.True(t, ok)
}

func TestGateTrendMomentumMisalignmentSkippedWhenNotRequired(t *testing.T) {
	clusters := []clusterResult{
		{name: "Trend", active: true, dominantDirection: market.Up},
		{name: "Momentum", active: true, dominantDirection: market.Down},
	}
	_, ok := gateTrendMomentumMisalignment(clusters, false)
	assert.True(t, ok, "cluster_require_trend_momentum_agreement=false admits a disagreeing pair")
}

func TestGateZeroVotesAndMargin(t *testing.T) {
	reason, ok := gateZeroVotes(0, 0)
	assert.False(t, ok)
	assert.Equal(t, ReasonZeroTotalVotes, reason)

	reason, ok = gateVoteMargin(10, 9, 1.15)
	assert.False(t, ok)
	assert.Equal(t, ReasonVoteMarginTooLow, reason)

	_, ok = gateVoteMargin(12, 9, 1.15)
	assert.True(t, ok)
}

func TestTallyPicksAlignedDominantSide(t *testing.T) {
	votes := []vote{
		{market.Up, 3},
		{market.Up, 2},
		{market.Down, 1},
	}
	result := tally("Trend", votes, 0.70)
	assert.True(t, result.active, "5/6 share clears the 0.70 alignment bar")
	assert.Equal(t, market.Up, result.dominantDirection)
	assert.InDelta(t, 5.0/6.0, result.confidence, 0.001)
}

func TestTallyEmptyIsInactive(t *testing.T) {
	result := tally("Confirmation", nil, 0.70)
	assert.False(t, result.active)
}

func TestTallyAlignmentBarIsConfigurable(t *testing.T) {
	votes := []vote{
		{market.Up, 5},
		{market.Down, 4},
	}
	result := tally("Trend", votes, 0.70)
	assert.False(t, result.active, "5/9 share misses the 0.70 bar")

	result = tally("Trend", votes, 0.50)
	assert.True(t, result.active, "5/9 share clears a 0.50 bar")
}

func TestMarketTimingMultiplierBands(t *testing.T) {
	assert.InDelta(t, 1.08, marketTimingMultiplier(0.6, market.Up), 0.001)
	assert.InDelta(t, 1.02, marketTimingMultiplier(0.2, market.Up), 0.001)
	assert.InDelta(t, 0.92, marketTimingMultiplier(-0.6, market.Up), 0.001)
	assert.InDelta(t, 0.98, marketTimingMultiplier(-0.2, market.Up), 0.001)
}

func TestMultiTimeframeBonusZeroedOnOtherLateEntry(t *testing.T) {
	other := &features.Snapshot{Window: window.Snapshot{LateEntryUp: true, ShortTermMomentum: 0.01}}
	bonus := multiTimeframeBonus(market.Up, other, true)
	assert.Equal(t, 0.0, bonus)
}

func TestMultiTimeframeBonusCappedAtPointOneTwo(t *testing.T) {
	other := &features.Snapshot{Window: window.Snapshot{ShortTermMomentum: 0.01}}
	bonus := multiTimeframeBonus(market.Up, other, true)
	assert.LessOrEqual(t, bonus, 0.12)
	assert.Greater(t, bonus, 0.0)
}

func TestAssembleConfidenceCapsAtPointNineFive(t *testing.T) {
	snap := features.Snapshot{
		Regime:     features.Trending,
		Volatility: indicators.Result{},
		RelVolume:  indicators.Result{Value: 1.5, IsValid: true},
		Window:     window.Snapshot{MarketTimingScore: 0.9},
	}
	confidence := assembleConfidence(market.Up, 100, 1, assemblyInputs{
		Snapshot:           snap,
		TemporalMultiplier: 1.12,
	})
	assert.LessOrEqual(t, confidence, confidenceCap)
}

func TestEngineEvaluateRejectsUnsupportedAsset(t *testing.T) {
	e := NewEngine(DefaultThresholds(), temporal.NewAnalyzer(), crossasset.NewAnalyzer(), calibration.NewIndicatorStore())
	decision := e.Evaluate(market.Asset("DOGE"), market.TF15M, Request{})
	assert.False(t, decision.Signal)
	assert.Equal(t, ReasonAssetNotSupported, decision.RejectReason)
}

func TestEngineEvaluateEnforcesCooldownAfterASignal(t *testing.T) {
	e := NewEngine(DefaultThresholds(), temporal.NewAnalyzer(), crossasset.NewAnalyzer(), calibration.NewIndicatorStore())
	e.lastSignalAtMs[market.MarketKey(market.BTC, market.TF15M)] = 1000

	decision := e.Evaluate(market.BTC, market.TF15M, Request{NowMs: 1000 + market.TF15M.DurationMillis()/2})
	assert.False(t, decision.Signal)
	assert.Equal(t, ReasonSignalCooldown, decision.RejectReason)
}

func TestEngineEvaluateRejectsEthLongTimeframe(t *testing.T) {
	e := NewEngine(DefaultThresholds(), temporal.NewAnalyzer(), crossasset.NewAnalyzer(), calibration.NewIndicatorStore())
	decision := e.Evaluate(market.ETH, market.TF1H, Request{NowMs: 1})
	assert.False(t, decision.Signal)
	assert.Equal(t, ReasonEth1HDisabled, decision.RejectReason)
}

func TestEngineEvaluateRejectsInsufficientClustersOnEmptySnapshot(t *testing.T) {
	e := NewEngine(DefaultThresholds(), temporal.NewAnalyzer(), crossasset.NewAnalyzer(), calibration.NewIndicatorStore())
	decision := e.Evaluate(market.BTC, market.TF15M, Request{NowMs: 1, Snapshot: features.Snapshot{Timeframe: market.TF15M}})
	assert.False(t, decision.Signal)
	assert.Equal(t, ReasonInsufficientClusters, decision.RejectReason)
}
