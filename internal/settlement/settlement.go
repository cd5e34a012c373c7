// Package settlement implements the settlement predictor of spec §4.6: a
// per-asset price-velocity tracker, the drift-based settlement-price
// projection, and the edge-vs-market-implied-probability calculation.
// Grounded on cryptorun's internal/algo/momentum/core.go
// (CalculateAcceleration: velocity/acceleration over a rolling tick
// window) and internal/algo/momentum/guards.go (the GuardResult{Pass,
// Value, Reason} pattern this package's confidence components echo).
package settlement

import (
	"math"

	"github.com/sawpanic/signalengine/internal/market"
)

const (
	defaultWindowSeconds = 300
	velocityStableThresh = 0.001
	pressureCoefficient  = 0.0005
)

type tick struct {
	price float64
	atMs  int64
}

// Tracker holds a window-seconds-scoped deque of price ticks for one asset
// and derives velocity, acceleration, and the predicted settlement price.
type Tracker struct {
	asset         market.Asset
	windowSeconds int64
	ticks         []tick

	// accuracyHits/accuracyTotal feed the historical-accuracy confidence
	// component: the fraction of past drift-direction calls that matched
	// the realized settlement outcome.
	accuracyHits  int
	accuracyTotal int
}

// NewTracker constructs a settlement Tracker for one asset with the
// default 300-second velocity window.
func NewTracker(asset market.Asset) *Tracker {
	return &Tracker{asset: asset, windowSeconds: defaultWindowSeconds}
}

// OnTick folds in a new price observation, evicting ticks older than the
// window.
func (t *Tracker) OnTick(price float64, atMs int64) {
	t.ticks = append(t.ticks, tick{price: price, atMs: atMs})
	cutoff := atMs - t.windowSeconds*1000
	i := 0
	for i < len(t.ticks) && t.ticks[i].atMs < cutoff {
		i++
	}
	if i > 0 {
		t.ticks = t.ticks[i:]
	}
}

// velocity returns (last-first)/first divided by elapsed minutes, 0 if
// fewer than two ticks or zero elapsed time.
func (t *Tracker) velocity() float64 {
	if len(t.ticks) < 2 {
		return 0
	}
	first, last := t.ticks[0], t.ticks[len(t.ticks)-1]
	if first.price == 0 {
		return 0
	}
	elapsedMin := float64(last.atMs-first.atMs) / 60000
	if elapsedMin == 0 {
		return 0
	}
	return (last.price - first.price) / first.price / elapsedMin
}

// velocityOver computes the velocity of a tick sub-slice the same way.
func velocityOver(ticks []tick) float64 {
	if len(ticks) < 2 {
		return 0
	}
	first, last := ticks[0], ticks[len(ticks)-1]
	if first.price == 0 {
		return 0
	}
	elapsedMin := float64(last.atMs-first.atMs) / 60000
	if elapsedMin == 0 {
		return 0
	}
	return (last.price - first.price) / first.price / elapsedMin
}

// acceleration is the difference in velocity between the first and second
// halves of the retained tick deque.
func (t *Tracker) acceleration() float64 {
	n := len(t.ticks)
	if n < 4 {
		return 0
	}
	mid := n / 2
	firstHalf := velocityOver(t.ticks[:mid+1])
	secondHalf := velocityOver(t.ticks[mid:])
	return secondHalf - firstHalf
}

// Prediction is the settlement predictor's output for one evaluation.
type Prediction struct {
	PredictedPrice float64
	Drift          float64
	Confidence     float64
	Edge           float64
}

// RecordOutcome feeds back whether the last drift-direction call matched
// the realized settlement outcome, per spec §4.6's historical-accuracy
// confidence component.
func (t *Tracker) RecordOutcome(driftWasUp, settledUp bool) {
	t.accuracyTotal++
	if driftWasUp == settledUp {
		t.accuracyHits++
	}
}

// Velocity exposes the tracker's current price velocity (fractional change
// per minute), the signal the cluster voter's momentum cluster votes on.
func (t *Tracker) Velocity() float64 {
	return t.velocity()
}

func (t *Tracker) historicalAccuracy() float64 {
	if t.accuracyTotal == 0 {
		return 0.5
	}
	return float64(t.accuracyHits) / float64(t.accuracyTotal)
}

// Predict projects the settlement price T minutes to expiry given the
// current price, an order-book pressure reading, the market-implied
// probability m, and the strike (window-start price).
func (t *Tracker) Predict(currentPrice float64, minutesToExpiry, pressure, impliedProb, strike float64) Prediction {
	v := t.velocity()
	a := t.acceleration()

	decay := math.Min(0.8, 0.8*minutesToExpiry/5)
	drift := (v*minutesToExpiry + 0.5*a*minutesToExpiry*minutesToExpiry) * decay
	drift += pressureCoefficient * pressure

	predictedPrice := currentPrice * (1 + drift)

	timeComponent := 1 - clamp(minutesToExpiry/60, 0, 1) // higher near expiry
	stabilityComponent := 1.0
	if math.Abs(v) > velocityStableThresh {
		stabilityComponent = 0.5
	}
	accuracyComponent := t.historicalAccuracy()

	confidence := clamp((timeComponent+stabilityComponent+accuracyComponent)/3, 0, 1)

	ourProb := confidence
	if predictedPrice <= strike {
		ourProb = 1 - confidence
	}
	edge := ourProb - impliedProb

	return Prediction{
		PredictedPrice: predictedPrice,
		Drift:          drift,
		Confidence:     confidence,
		Edge:           edge,
	}
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
