// Package window implements the per-(asset, timeframe) settlement-window
// tracker: window-start/high/low bookkeeping, late-entry flags, short-term
// and weighted momentum, and the market-timing score. Grounded on the
// teacher's internal/algo/momentum/core.go, which holds the same shape of
// rolling-window-plus-derived-score state for its momentum core.
package window

import (
	"math"

	"github.com/sawpanic/signalengine/internal/candle"
	"github.com/sawpanic/signalengine/internal/market"
)

const (
	lateEntryShortPct = 0.005 // 0.5% for the short timeframe
	lateEntryLongPct  = 0.015 // 1.5% for the long timeframe
)

// Snapshot is the window-relative slice of a Features snapshot (spec §3).
type Snapshot struct {
	WindowStart        float64
	WindowPriceChgPct  float64
	WindowPriceMovedAbs float64
	IntraWindowRange   float64
	WindowProgress     float64
	LateEntryUp        bool
	LateEntryDown      bool
	ShortTermMomentum  float64
	WeightedMomentum   float64
	MarketTimingScore  float64
}

// Tracker holds the currently-open window state for one (asset, timeframe).
type Tracker struct {
	asset     market.Asset
	timeframe market.Timeframe

	windowStartMs    int64
	windowStartPrice float64
	high             float64
	low              float64

	recentCloses []float64 // last 4 closes, for momentum
}

// NewTracker constructs a window Tracker for one (asset, timeframe).
func NewTracker(a market.Asset, tf market.Timeframe) *Tracker {
	return &Tracker{asset: a, timeframe: tf}
}

// OnCandle folds in a new candle's open/high/low per spec §4.2 steps 1-3.
func (t *Tracker) OnCandle(c candle.Candle) {
	windowMs := t.timeframe.DurationMillis()
	if windowMs == 0 {
		return
	}
	start := (c.OpenTime / windowMs) * windowMs

	if start != t.windowStartMs || t.windowStartPrice == 0 {
		t.windowStartMs = start
		t.windowStartPrice = c.Open
		t.high = c.High
		t.low = c.Low
	} else {
		if c.High > t.high {
			t.high = c.High
		}
		if c.Low < t.low {
			t.low = c.Low
		}
	}

	t.recentCloses = append(t.recentCloses, c.Close)
	if len(t.recentCloses) > 4 {
		t.recentCloses = t.recentCloses[len(t.recentCloses)-4:]
	}
}

// Evaluate derives the window-relative snapshot as of nowMs (wall-clock,
// not candle time — spec §4.2 is explicit that window_progress uses
// wall-clock elapsed time).
func (t *Tracker) Evaluate(close float64, nowMs int64) Snapshot {
	if t.windowStartPrice == 0 {
		return Snapshot{}
	}

	windowMs := t.timeframe.DurationMillis()
	changePct := (close - t.windowStartPrice) / t.windowStartPrice
	movedAbs := math.Abs(changePct)
	intraRange := (t.high - t.low) / t.windowStartPrice

	progress := float64(nowMs-t.windowStartMs) / float64(windowMs)
	progress = clamp(progress, 0, 1)

	threshold := lateEntryShortPct
	if t.timeframe.IsLong() {
		threshold = lateEntryLongPct
	}
	lateUp := changePct > threshold
	lateDown := changePct < -threshold

	shortMomentum := t.shortTermMomentum()
	weightedMomentum := t.weightedMomentum()

	momentumAgreement := 0.0
	if shortMomentum > 0 && weightedMomentum > 0 {
		momentumAgreement = 1
	} else if shortMomentum < 0 && weightedMomentum < 0 {
		momentumAgreement = -1
	}

	latePenalty := 0.0
	if lateUp {
		latePenalty = -1
	} else if lateDown {
		latePenalty = 1
	}

	timing := 0.3*progress + 0.25*clamp(movedAbs*20, 0, 1) + 0.25*momentumAgreement +
		0.1*clamp(intraRange*20, 0, 1) + 0.1*latePenalty
	timing = clamp(timing, -1, 1)

	return Snapshot{
		WindowStart:         t.windowStartPrice,
		WindowPriceChgPct:   changePct,
		WindowPriceMovedAbs: movedAbs,
		IntraWindowRange:    intraRange,
		WindowProgress:      progress,
		LateEntryUp:         lateUp,
		LateEntryDown:       lateDown,
		ShortTermMomentum:   shortMomentum,
		WeightedMomentum:    weightedMomentum,
		MarketTimingScore:   timing,
	}
}

// shortTermMomentum uses the last 1 and 2 one-step returns (equal weight),
// per spec §4.2.
func (t *Tracker) shortTermMomentum() float64 {
	n := len(t.recentCloses)
	if n < 2 {
		return 0
	}
	r1, ok1 := candle.Return(t.recentCloses[n-2], t.recentCloses[n-1])
	if !ok1 {
		return 0
	}
	if n < 3 {
		return r1
	}
	r2, ok2 := candle.Return(t.recentCloses[n-3], t.recentCloses[n-2])
	if !ok2 {
		return r1
	}
	return (r1 + r2) / 2
}

// weightedMomentum applies weights 0.5/0.3/0.2 to the three most-recent
// one-step returns, most-recent weighted highest.
func (t *Tracker) weightedMomentum() float64 {
	n := len(t.recentCloses)
	if n < 2 {
		return 0
	}
	returns := make([]float64, 0, 2)
	for i := n - 1; i > 0 && len(returns) < 3; i-- {
		r, ok := candle.Return(t.recentCloses[i-1], t.recentCloses[i])
		if !ok {
			break
		}
		returns = append(returns, r)
	}
	weights := []float64{0.5, 0.3, 0.2}
	sum, weightSum := 0.0, 0.0
	for i, r := range returns {
		sum += r * weights[i]
		weightSum += weights[i]
	}
	if weightSum == 0 {
		return 0
	}
	return sum / weightSum
}

func clamp(v, lo, hi float64) float64 {
	if v < lo {
		return lo
	}
	if v > hi {
		return hi
	}
	return v
}
