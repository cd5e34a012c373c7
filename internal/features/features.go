// Package features assembles the per-(asset, timeframe) Features snapshot
// of spec §3 from the indicator primitives, window tracker, order-book
// tracker, and regime classifier. This is the feature engine spec §1 and
// §5 describe as owning "the indicator primitives' rolling state and
// window tracker" — grounded structurally on cryptorun's
// internal/domain/indicators.TechnicalIndicators aggregate, which plays
// the same "one struct per tick, many primitives feeding it" role.
package features

import (
	"math"

	"github.com/sawpanic/signalengine/internal/candle"
	"github.com/sawpanic/signalengine/internal/indicators"
	"github.com/sawpanic/signalengine/internal/market"
	"github.com/sawpanic/signalengine/internal/orderbook"
	"github.com/sawpanic/signalengine/internal/window"
)

const candleHistoryCap = 100

// Snapshot is the full per-tick feature set spec §3 names.
type Snapshot struct {
	Asset     market.Asset
	Timeframe market.Timeframe

	Close     float64
	Return    indicators.Result
	LogReturn indicators.Result

	RSI        indicators.Result
	MACD       indicators.MACDResult
	Bollinger  indicators.BollingerResult
	ATR        indicators.Result
	VWAP       indicators.VWAPResult
	EMA12      indicators.Result
	EMA26      indicators.Result
	ADX        indicators.ADXResult
	StochRSI   indicators.StochRSIResult
	OBV        indicators.OBVResult
	HeikinAshi indicators.HeikinAshiResult
	Volatility indicators.Result
	RelVolume  indicators.Result

	Regime Regime

	Window window.Snapshot

	OrderbookImbalance float64
	Top5Depth          float64
	SpreadBPS          float64
	OrderFlowDelta     float64
}

// Engine owns the rolling candle history, indicator state, window tracker
// and order-book tracker for one (asset, timeframe) and assembles a fresh
// Snapshot on every new candle.
type Engine struct {
	asset     market.Asset
	timeframe market.Timeframe

	history   []candle.Candle
	indState  *indicators.State
	windowTr  *window.Tracker
	bookTr    *orderbook.Tracker
}

// NewEngine constructs a feature Engine for one (asset, timeframe).
func NewEngine(a market.Asset, tf market.Timeframe) *Engine {
	return &Engine{
		asset:     a,
		timeframe: tf,
		indState:  indicators.NewState(),
		windowTr:  window.NewTracker(a, tf),
		bookTr:    orderbook.NewTracker(),
	}
}

// OnBook folds in a new order-book snapshot ahead of the next OnCandle.
func (e *Engine) OnBook(ob candle.OrderBook) {
	e.bookTr.OnBook(ob)
}

// OnTrade folds in a new trade print ahead of the next OnCandle.
func (e *Engine) OnTrade(tp candle.TradePrint) {
	e.bookTr.OnTrade(tp)
}

// OnCandle folds in a new candle, runs every indicator primitive, and
// returns the assembled Features snapshot. nowMs is the wall-clock time
// used for window_progress (spec §4.2 is explicit this is wall-clock, not
// candle time).
func (e *Engine) OnCandle(c candle.Candle, nowMs int64) Snapshot {
	e.history = append(e.history, c)
	if len(e.history) > candleHistoryCap {
		e.history = e.history[len(e.history)-candleHistoryCap:]
	}
	e.windowTr.OnCandle(c)

	snap := Snapshot{
		Asset:     e.asset,
		Timeframe: e.timeframe,
		Close:     c.Close,
	}

	if len(e.history) >= 2 {
		prev := e.history[len(e.history)-2].Close
		if ret, ok := candle.Return(prev, c.Close); ok {
			snap.Return = indicators.Result{Value: ret, IsValid: true, DataUsed: 2}
			if prev > 0 && c.Close > 0 {
				snap.LogReturn = indicators.Result{Value: math.Log(c.Close / prev), IsValid: true, DataUsed: 2}
			}
		}
	}

	snap.RSI = indicators.RSI(e.history, e.indState)
	snap.MACD = indicators.MACD(e.history, e.indState)
	snap.Bollinger = indicators.Bollinger(e.history)
	snap.ATR = indicators.ATR(e.history)
	snap.VWAP = indicators.VWAP(e.history)
	snap.EMA12 = indicators.EMA(e.history, 12, "snapshot_ema12", e.indState)
	snap.EMA26 = indicators.EMA(e.history, 26, "snapshot_ema26", e.indState)
	snap.ADX = indicators.ADX(e.history, e.indState)
	snap.StochRSI = indicators.StochRSI(e.history, e.indState)
	snap.OBV = indicators.OBV(e.history, e.indState)
	snap.HeikinAshi = indicators.HeikinAshi(e.history, e.indState)
	snap.Volatility = indicators.Volatility(e.history, e.indState)
	snap.RelVolume = indicators.RelVolume(e.history, e.indState)

	snap.Regime = classifyRegime(snap.ADX.ADX, snap.Volatility)
	snap.Window = e.windowTr.Evaluate(c.Close, nowMs)

	if imb, ok := e.currentImbalance(); ok {
		snap.OrderbookImbalance = imb
	}
	snap.Top5Depth = e.bookTr.Depth()
	snap.SpreadBPS = e.bookTr.LastSpreadBPS()
	snap.OrderFlowDelta = e.bookTr.OrderFlowDelta()

	return snap
}

func (e *Engine) currentImbalance() (float64, bool) {
	imb, ok := e.bookTr.LastImbalance()
	return imb, ok
}
