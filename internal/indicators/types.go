// Package indicators implements the stateful indicator primitives of
// spec §4.1: RSI, MACD, Bollinger Bands, ATR, VWAP, EMA, ADX, StochRSI, OBV,
// Heikin-Ashi, short-window volatility and relative volume.
//
// Each primitive is a function over a candle history plus a small carried
// State, not an object — the caller (internal/features) owns one State per
// (asset, timeframe) and threads it through every tick, matching the
// teacher's domain/indicators style of returning a plain result struct
// rather than a stateful type with methods.
package indicators

import "github.com/sawpanic/signalengine/internal/candle"

// Result is the common shape every primitive returns: a value plus an
// IsValid flag that is false whenever the backing history is too short or
// degenerate. Callers must check IsValid before reading Value — an invalid
// result is the "field absent" outcome required by spec §4.1 and §7, never
// a zero standing in for "unknown".
type Result struct {
	Value    float64
	IsValid  bool
	DataUsed int
}

func invalid() Result { return Result{} }

func valid(v float64, n int) Result {
	return Result{Value: v, IsValid: true, DataUsed: n}
}

// State carries the smoothing accumulators that make RSI, MACD, ADX, OBV,
// EMA, StochRSI and Heikin-Ashi genuinely stateful rather than recomputable
// from a fixed window.
// Zero value is "no observations yet".
type State struct {
	rsiAvgGain float64
	rsiAvgLoss float64
	rsiReady   bool

	macdHistory []float64 // capped at 100, oldest first

	adxSmoothTR    float64
	adxSmoothPlus  float64
	adxSmoothMinus float64
	adxPrevADX     float64
	adxDXHistory   []float64 // used only until the first 14 DX values seed ADX
	adxReady       bool

	obvCum     float64
	obvHistory []float64 // last 5 OBV totals, for the slope

	genericEMA map[string]float64

	rsiHistory   []float64 // last 14 RSI values, for StochRSI
	stochRawHist []float64 // last 3 raw StochRSI values, for %K

	haPrevOpen  float64
	haPrevClose float64
	haReady     bool

	volReturns []float64 // last 20 one-step returns
}

// NewState returns a zeroed indicator State for one (asset, timeframe).
func NewState() *State {
	return &State{genericEMA: make(map[string]float64)}
}

const macdHistoryCap = 100

func pushCapped(hist []float64, v float64, cap int) []float64 {
	hist = append(hist, v)
	if len(hist) > cap {
		hist = hist[len(hist)-cap:]
	}
	return hist
}
