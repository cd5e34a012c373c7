package candle

import (
	"github.com/sawpanic/signalengine/internal/market"
)

// BookLevel is a single (price, size) level of a book side.
type BookLevel struct {
	Price float64
	Size  float64
}

// OrderBook is a normalized snapshot: bids sorted descending by price, asks
// sorted ascending by price, size-zero levels already omitted by the
// upstream collaborator (spec §6).
type OrderBook struct {
	TokenID   string
	Asset     market.Asset
	Timeframe market.Timeframe
	Bids      []BookLevel
	Asks      []BookLevel
	Timestamp int64 // unix millis
}

// BestBid returns the top bid level, ok=false if the book side is empty.
func (ob OrderBook) BestBid() (BookLevel, bool) {
	if len(ob.Bids) == 0 {
		return BookLevel{}, false
	}
	return ob.Bids[0], true
}

// BestAsk returns the top ask level, ok=false if the book side is empty.
func (ob OrderBook) BestAsk() (BookLevel, bool) {
	if len(ob.Asks) == 0 {
		return BookLevel{}, false
	}
	return ob.Asks[0], true
}

// Mid returns the mid price, ok=false if either side is empty.
func (ob OrderBook) Mid() (float64, bool) {
	bid, ok1 := ob.BestBid()
	ask, ok2 := ob.BestAsk()
	if !ok1 || !ok2 {
		return 0, false
	}
	return (bid.Price + ask.Price) / 2, true
}

// Spread returns best_ask - best_bid, ok=false if either side is empty.
func (ob OrderBook) Spread() (float64, bool) {
	bid, ok1 := ob.BestBid()
	ask, ok2 := ob.BestAsk()
	if !ok1 || !ok2 {
		return 0, false
	}
	return ask.Price - bid.Price, true
}

// SpreadBPS returns the spread in basis points of mid price.
func (ob OrderBook) SpreadBPS() (float64, bool) {
	spread, ok := ob.Spread()
	if !ok {
		return 0, false
	}
	mid, ok := ob.Mid()
	if !ok || mid == 0 {
		return 0, false
	}
	return spread / mid * 10000, true
}

// topN sums sizes of the first n levels (or fewer if the side is shorter).
func topN(levels []BookLevel, n int) float64 {
	total := 0.0
	for i := 0; i < n && i < len(levels); i++ {
		total += levels[i].Size
	}
	return total
}

// Imbalance computes (bid_top_n - ask_top_n) / total over the top n levels
// of each side. ok=false when both sides are empty.
func (ob OrderBook) Imbalance(n int) (float64, bool) {
	bidSum := topN(ob.Bids, n)
	askSum := topN(ob.Asks, n)
	total := bidSum + askSum
	if total == 0 {
		return 0, false
	}
	return (bidSum - askSum) / total, true
}

// DepthTopN returns the combined size resting in the top n levels of each
// side (used for the depth_too_low gate).
func (ob OrderBook) DepthTopN(n int) float64 {
	return topN(ob.Bids, n) + topN(ob.Asks, n)
}

// WeightedPressure sums size_i * f(distance_from_mid_i) over the top n
// levels of both sides, where f decays linearly to zero over the book's own
// price range — nearer levels count for more. Returns 0, false if mid is
// undefined.
func (ob OrderBook) WeightedPressure(n int) (float64, bool) {
	mid, ok := ob.Mid()
	if !ok || mid == 0 {
		return 0, false
	}
	pressure := 0.0
	weigh := func(levels []BookLevel, sign float64) {
		for i := 0; i < n && i < len(levels); i++ {
			dist := abs(levels[i].Price-mid) / mid
			weight := 1.0 - dist*10 // decays to 0 at 10% away from mid
			if weight < 0 {
				weight = 0
			}
			pressure += sign * levels[i].Size * weight
		}
	}
	weigh(ob.Bids, 1)
	weigh(ob.Asks, -1)
	return pressure, true
}

func abs(x float64) float64 {
	if x < 0 {
		return -x
	}
	return x
}

// TradeSide is the aggressor side of a trade print.
type TradeSide string

const (
	Buy  TradeSide = "buy"
	Sell TradeSide = "sell"
)

// TradePrint is a single executed trade observed on a token's book.
type TradePrint struct {
	TokenID   string
	Asset     market.Asset
	Timeframe market.Timeframe
	Price     float64
	Size      float64
	Side      TradeSide
	Timestamp int64 // unix millis
}
