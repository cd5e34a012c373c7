// Package candle holds the wire-level data model shared across the pipeline:
// candles, order books, and trade prints, plus their invariant checks. The
// shapes mirror cryptorun's internal/data/venue/types.OrderBook, extended
// with the candle/trade types spec.md §3 requires and no venue attribution
// (venue/exchange identity is an external-collaborator concern here).
package candle

import (
	"fmt"

	"github.com/sawpanic/signalengine/internal/market"
)

// Candle is a single OHLCV bar for one (asset, timeframe).
type Candle struct {
	Asset     market.Asset
	Timeframe market.Timeframe
	Open      float64
	High      float64
	Low       float64
	Close     float64
	Volume    float64
	Trades    int64
	OpenTime  int64 // unix millis
	CloseTime int64 // unix millis
}

// Validate enforces the candle invariants from spec §3 and §8.1. A violation
// means the event must be dropped by the caller, never propagated.
func (c Candle) Validate() error {
	if c.High < c.Open || c.High < c.Close {
		return fmt.Errorf("candle invariant violated: high %.8f below max(open,close)", c.High)
	}
	if c.Low > c.Open || c.Low > c.Close {
		return fmt.Errorf("candle invariant violated: low %.8f above min(open,close)", c.Low)
	}
	wantDuration := c.Timeframe.DurationMillis()
	if wantDuration > 0 && c.CloseTime-c.OpenTime != wantDuration {
		return fmt.Errorf("candle invariant violated: close_time-open_time=%d want %d",
			c.CloseTime-c.OpenTime, wantDuration)
	}
	return nil
}

// Return computes the one-step simple return against a previous close.
func Return(prevClose, close float64) (float64, bool) {
	if prevClose == 0 {
		return 0, false
	}
	return (close - prevClose) / prevClose, true
}
