package features

import (
	"testing"

	"github.com/stretchr/testify/assert"

	"github.com/sawpanic/signalengine/internal/candle"
	"github.com/sawpanic/signalengine/internal/market"
)

func feedCandles(e *Engine, closes []float64, startMs, stepMs int64) Snapshot {
	var snap Snapshot
	t := startMs
	for _, c := range closes {
		snap = e.OnCandle(candle.Candle{
			Asset:     market.BTC,
			Timeframe: market.TF15M,
			Open:      c,
			High:      c + 0.5,
			Low:       c - 0.5,
			Close:     c,
			Volume:    100,
			OpenTime:  t,
			CloseTime: t + market.TF15M.DurationMillis(),
		}, t+market.TF15M.DurationMillis()/2)
		t += stepMs
	}
	return snap
}

func TestEngine_CapsHistoryAtHundredCandles(t *testing.T) {
	e := NewEngine(market.BTC, market.TF15M)
	closes := make([]float64, 150)
	for i := range closes {
		closes[i] = 100 + float64(i%7)
	}
	feedCandles(e, closes, 0, market.TF15M.DurationMillis())
	assert.Len(t, e.history, candleHistoryCap)
}

func TestEngine_ReturnInvalidOnFirstCandle(t *testing.T) {
	e := NewEngine(market.ETH, market.TF1H)
	snap := feedCandles(e, []float64{100}, 0, market.TF1H.DurationMillis())
	assert.False(t, snap.Return.IsValid)
}

func TestEngine_ReturnValidFromSecondCandle(t *testing.T) {
	e := NewEngine(market.ETH, market.TF1H)
	snap := feedCandles(e, []float64{100, 105}, 0, market.TF1H.DurationMillis())
	assert.True(t, snap.Return.IsValid)
	assert.InDelta(t, 0.05, snap.Return.Value, 0.001)
}

func TestEngine_RegimeVolatileOnSharpSwings(t *testing.T) {
	e := NewEngine(market.BTC, market.TF15M)
	closes := make([]float64, 25)
	for i := range closes {
		if i%2 == 0 {
			closes[i] = 100
		} else {
			closes[i] = 110
		}
	}
	snap := feedCandles(e, closes, 0, market.TF15M.DurationMillis())
	assert.Equal(t, Volatile, snap.Regime)
}

func TestEngine_MicrostructureFieldsPopulateAfterBookUpdate(t *testing.T) {
	e := NewEngine(market.BTC, market.TF15M)
	e.OnBook(candle.OrderBook{
		Bids:      []candle.BookLevel{{Price: 100, Size: 70}},
		Asks:      []candle.BookLevel{{Price: 101, Size: 30}},
		Timestamp: 0,
	})
	snap := feedCandles(e, []float64{100, 101}, 0, market.TF15M.DurationMillis())
	assert.InDelta(t, 0.4, snap.OrderbookImbalance, 0.001)
	assert.Equal(t, 100.0, snap.Top5Depth)
}
