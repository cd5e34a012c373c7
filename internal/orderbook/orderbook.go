// Package orderbook implements the per-(asset, timeframe) order-book
// tracker of spec §4.3: a capped history of book snapshots and trade
// prints, an order-flow accumulator, and the pressure classifier. Grounded
// on cryptorun's internal/domain/microstructure/checker.go (spread/depth/
// imbalance derivation, proof-style snapshot retention) and
// internal/data/venue/types/types.go (OrderBook/Level shapes this package
// consumes via internal/candle).
package orderbook

import (
	"github.com/sawpanic/signalengine/internal/candle"
)

const (
	maxSnapshots  = 100
	maxTrades     = 100
	topNLevels    = 5
	strongThresh  = 3.0
	moderateThresh = 1.5
)

// Snapshot is one derived reading of a book update, retained for the
// imbalance-velocity and short-trend calculations.
type Snapshot struct {
	TimestampMs      int64
	BidSumTop5       float64
	AskSumTop5       float64
	SpreadBPS        float64
	Imbalance        float64
	WeightedPressure float64
}

// PressureLabel is the classifier's closed-set output.
type PressureLabel string

const (
	StrongBuy    PressureLabel = "StrongBuy"
	ModerateBuy  PressureLabel = "ModerateBuy"
	Neutral      PressureLabel = "Neutral"
	ModerateSell PressureLabel = "ModerateSell"
	StrongSell   PressureLabel = "StrongSell"
)

// Tracker holds book/trade history and the order-flow accumulator for one
// (asset, timeframe).
type Tracker struct {
	snapshots []Snapshot
	trades    []candle.TradePrint

	orderFlowBuy  float64
	orderFlowSell float64
}

// NewTracker constructs an empty order-book Tracker.
func NewTracker() *Tracker {
	return &Tracker{}
}

// OnBook folds in a new order-book snapshot, computing its derived fields
// and updating imbalance velocity via the elapsed time since the previous
// snapshot.
func (t *Tracker) OnBook(ob candle.OrderBook) Snapshot {
	imbalance, _ := ob.Imbalance(topNLevels)
	pressure, _ := ob.WeightedPressure(topNLevels)
	spreadBPS, _ := ob.SpreadBPS()

	snap := Snapshot{
		TimestampMs:      ob.Timestamp,
		BidSumTop5:       sumTop(ob.Bids, topNLevels),
		AskSumTop5:       sumTop(ob.Asks, topNLevels),
		SpreadBPS:        spreadBPS,
		Imbalance:        imbalance,
		WeightedPressure: pressure,
	}

	t.snapshots = append(t.snapshots, snap)
	if len(t.snapshots) > maxSnapshots {
		t.snapshots = t.snapshots[len(t.snapshots)-maxSnapshots:]
	}
	return snap
}

func sumTop(levels []candle.BookLevel, n int) float64 {
	sum := 0.0
	for i := 0; i < n && i < len(levels); i++ {
		sum += levels[i].Size
	}
	return sum
}

// OnTrade folds in a trade print, retaining it and crediting the
// order-flow accumulator by side.
func (t *Tracker) OnTrade(tp candle.TradePrint) {
	t.trades = append(t.trades, tp)
	if len(t.trades) > maxTrades {
		t.trades = t.trades[len(t.trades)-maxTrades:]
	}
	switch tp.Side {
	case candle.Buy:
		t.orderFlowBuy += tp.Size
	case candle.Sell:
		t.orderFlowSell += tp.Size
	}
}

// ResetOrderFlow zeroes the per-window order-flow accumulator. The caller
// (internal/features) invokes this whenever the window tracker rolls over.
func (t *Tracker) ResetOrderFlow() {
	t.orderFlowBuy = 0
	t.orderFlowSell = 0
}

// OrderFlowDelta returns (buy - sell) / (buy + sell), 0 if no flow yet.
func (t *Tracker) OrderFlowDelta() float64 {
	total := t.orderFlowBuy + t.orderFlowSell
	if total == 0 {
		return 0
	}
	return (t.orderFlowBuy - t.orderFlowSell) / total
}

// LastImbalance returns the most recent snapshot's imbalance, ok=false if
// no book update has been observed yet.
func (t *Tracker) LastImbalance() (float64, bool) {
	if len(t.snapshots) == 0 {
		return 0, false
	}
	return t.snapshots[len(t.snapshots)-1].Imbalance, true
}

// Depth returns the most recent snapshot's combined top-5 depth, 0 if no
// book update has been observed yet.
func (t *Tracker) Depth() float64 {
	if len(t.snapshots) == 0 {
		return 0
	}
	last := t.snapshots[len(t.snapshots)-1]
	return last.BidSumTop5 + last.AskSumTop5
}

// LastSpreadBPS returns the most recent snapshot's spread in basis points,
// 0 if no book update has been observed yet.
func (t *Tracker) LastSpreadBPS() float64 {
	if len(t.snapshots) == 0 {
		return 0
	}
	return t.snapshots[len(t.snapshots)-1].SpreadBPS
}

// imbalanceVelocity returns delta-imbalance / delta-t (ms) between the two
// most recent snapshots, 0 if fewer than two are retained or the elapsed
// time is zero.
func (t *Tracker) imbalanceVelocity() float64 {
	n := len(t.snapshots)
	if n < 2 {
		return 0
	}
	cur, prev := t.snapshots[n-1], t.snapshots[n-2]
	dt := cur.TimestampMs - prev.TimestampMs
	if dt == 0 {
		return 0
	}
	return (cur.Imbalance - prev.Imbalance) / float64(dt)
}

// imbalanceTrend returns the simple slope of imbalance over the last three
// snapshots (endpoint difference), 0 if fewer than three are retained.
func (t *Tracker) imbalanceTrend() float64 {
	n := len(t.snapshots)
	if n < 3 {
		return 0
	}
	return t.snapshots[n-1].Imbalance - t.snapshots[n-3].Imbalance
}

// Classify computes the pressure classifier's net score from instantaneous
// imbalance magnitude, order-flow delta, imbalance velocity, and the
// short-term imbalance trend, then buckets it per spec §4.3 thresholds
// (|score|>=3 Strong, >=1.5 Moderate, else Neutral).
func (t *Tracker) Classify() (PressureLabel, float64) {
	if len(t.snapshots) == 0 {
		return Neutral, 0
	}
	last := t.snapshots[len(t.snapshots)-1]

	score := last.Imbalance*4 +
		t.OrderFlowDelta()*3 +
		t.imbalanceVelocity()*1000 +
		t.imbalanceTrend()*2

	label := Neutral
	switch {
	case score >= strongThresh:
		label = StrongBuy
	case score >= moderateThresh:
		label = ModerateBuy
	case score <= -strongThresh:
		label = StrongSell
	case score <= -moderateThresh:
		label = ModerateSell
	}
	return label, score
}
