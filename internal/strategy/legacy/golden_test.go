package legacy

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/sawpanic/signalengine/internal/calibration"
	"github.com/sawpanic/signalengine/internal/crossasset"
	"github.com/sawpanic/signalengine/internal/features"
	"github.com/sawpanic/signalengine/internal/indicators"
	"github.com/sawpanic/signalengine/internal/market"
	"github.com/sawpanic/signalengine/internal/temporal"
	"github.com/sawpanic/signalengine/internal/window"
)

// oversoldReversalSnapshot builds the feature snapshot for the oversold-
// reversal scenario directly (RSI deeply oversold, price below the
// Bollinger middle band, bullish MACD histogram and Heikin-Ashi trend,
// positive short-term momentum) rather than replaying 30 candles through
// the indicator engine, matching this package's existing snapshot-literal
// test style.
func oversoldReversalSnapshot() features.Snapshot {
	return features.Snapshot{
		Asset:     market.BTC,
		Timeframe: market.TF15M,
		Close:     49200,
		Regime:    features.Ranging,
		RSI:       indicators.Result{Value: 25, IsValid: true},
		MACD: indicators.MACDResult{
			Histogram: indicators.Result{Value: 0.001, IsValid: true},
		},
		Bollinger: indicators.BollingerResult{
			Middle: indicators.Result{Value: 49600, IsValid: true},
		},
		StochRSI: indicators.StochRSIResult{
			K: indicators.Result{Value: 0.3, IsValid: true},
		},
		HeikinAshi: indicators.HeikinAshiResult{
			Trend: indicators.Result{Value: 0.01, IsValid: true},
		},
		Window: window.Snapshot{
			WindowStart:       49400,
			ShortTermMomentum: 0.05,
		},
	}
}

func newTestEngine() *Engine {
	return NewEngine(DefaultThresholds(), temporal.NewAnalyzer(), crossasset.NewAnalyzer(), calibration.NewIndicatorStore())
}

// S1 — oversold reversal. RSI, Bollinger and StochRSI vote Up in the
// Reversion cluster; MACD, Heikin-Ashi trend and short-term momentum vote
// Up in the Momentum cluster. Trend and Confirmation stay inactive (no
// ADX/EMA/OBV data), so the gating chain sees exactly two aligned active
// clusters and admits the signal.
func TestS1OversoldReversalProducesUpSignal(t *testing.T) {
	e := newTestEngine()
	decision := e.Evaluate(market.BTC, market.TF15M, Request{Snapshot: oversoldReversalSnapshot(), NowMs: 1})

	require.True(t, decision.Signal, "reject reason: %s", decision.RejectReason)
	assert.Equal(t, market.Up, decision.Direction)
	assert.GreaterOrEqual(t, decision.Confidence, 0.60)

	activeNames := map[string]bool{}
	for _, c := range decision.Clusters {
		if c.Active {
			activeNames[c.Name] = true
		}
	}
	// Reversion carries the RSI/Bollinger/StochRSI votes, Momentum carries
	// the MACD/Heikin-Ashi/short-term-momentum votes — the finest per-
	// indicator attribution the cluster voter's Decision type exposes
	// (see DESIGN.md's internal/backtest entry on reason granularity).
	assert.True(t, activeNames["Reversion"], "Reversion cluster (RSI, Bollinger) should be active")
	assert.True(t, activeNames["Momentum"], "Momentum cluster (MACD, short-term momentum) should be active")
}

// S2 — cooldown enforcement. An identical tick one second later is
// rejected for cooldown; the same tick replayed a full window later signals
// again. TestGateCooldown/TestEngineEvaluateEnforcesCooldownAfterASignal
// already cover the gate in isolation; this exercises it through the full
// Engine.Evaluate path on the S1 fixture.
func TestS2CooldownEnforcedThenClearsAfterAWindow(t *testing.T) {
	e := newTestEngine()
	snap := oversoldReversalSnapshot()

	first := e.Evaluate(market.BTC, market.TF15M, Request{Snapshot: snap, NowMs: 1})
	require.True(t, first.Signal)

	second := e.Evaluate(market.BTC, market.TF15M, Request{Snapshot: snap, NowMs: 1001})
	assert.False(t, second.Signal)
	assert.Equal(t, ReasonSignalCooldown, second.RejectReason)

	windowMs := market.TF15M.DurationMillis()
	third := e.Evaluate(market.BTC, market.TF15M, Request{Snapshot: snap, NowMs: windowMs + 1001})
	assert.True(t, third.Signal, "reject reason: %s", third.RejectReason)
}

// S3 — late entry rejection. Same fixture, but window progress has passed
// the late-entry bound with LateEntryUp set.
func TestS3LateEntryRejectsPastWindowBound(t *testing.T) {
	e := newTestEngine()
	snap := oversoldReversalSnapshot()
	snap.Window.WindowProgress = 0.75
	snap.Window.LateEntryUp = true

	decision := e.Evaluate(market.BTC, market.TF15M, Request{Snapshot: snap, NowMs: 1})
	assert.False(t, decision.Signal)
	assert.Equal(t, ReasonLateEntryUp, decision.RejectReason)
}

// S4 — Trend/Momentum misalignment. ADX now votes Up (Trend) while MACD
// and short-term momentum vote Down (Momentum); both clusters are active
// and disagree, so gate 10 rejects before a vote tally ever runs.
func TestS4TrendMomentumMisalignmentRejects(t *testing.T) {
	e := newTestEngine()
	snap := oversoldReversalSnapshot()
	snap.ADX = indicators.ADXResult{
		PlusDI:  indicators.Result{Value: 30, IsValid: true},
		MinusDI: indicators.Result{Value: 10, IsValid: true},
	}
	snap.EMA26 = indicators.Result{Value: snap.Close - 100, IsValid: true} // close above EMA26: also votes Up
	snap.MACD.Histogram = indicators.Result{Value: -0.002, IsValid: true}
	snap.Window.ShortTermMomentum = -0.003
	snap.HeikinAshi.Trend = indicators.Result{Value: -0.01, IsValid: true}

	decision := e.Evaluate(market.BTC, market.TF15M, Request{Snapshot: snap, NowMs: 1})
	assert.False(t, decision.Signal)
	assert.Equal(t, ReasonTrendMomentumMisaligned, decision.RejectReason)
}
