// Package backtest implements the chronological replay driver of spec
// §4.11: group candles by (asset, timeframe), sort, feed them one at a
// time through the feature and strategy engines with a lookback before
// admitting signals, simulate the binary settlement payoff, and tabulate
// win-rate/profit-factor/Sharpe/drawdown. Grounded on cryptorun's own
// backtest driver shape (candle-by-candle replay, a Runner owning the
// per-asset engines) but rebuilt around real per-trade win/loss records
// rather than cryptorun's report/perf package's assumed-hit-rate
// shortcut — this domain's trades settle with a genuinely known outcome
// (did the exit price move the direction the signal called), so there is
// no need to approximate one.
package backtest

import (
	"github.com/sawpanic/signalengine/internal/market"
	"github.com/sawpanic/signalengine/internal/signal"
)

// Trade is one settled backtest trade, the row shape spec §6's CSV export
// names: entry_ts,exit_ts,asset,timeframe,direction,entry_price,
// exit_price,confidence,pnl,is_win.
type Trade struct {
	Signal signal.GeneratedSignal

	EntryTS    int64 // unix millis
	ExitTS     int64
	Asset      market.Asset
	Timeframe  market.Timeframe
	Direction  market.Direction
	EntryPrice float64
	ExitPrice  float64
	Confidence float64
	PnL        float64
	IsWin      bool
}

// Rejection is one non-signal tick, retained for the run's rejection
// histogram rather than silently dropped.
type Rejection struct {
	Asset     market.Asset
	Timeframe market.Timeframe
	Reason    string
	AtMs      int64
}
