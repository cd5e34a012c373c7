package backtest

import (
	"fmt"
	"sort"
	"time"

	"github.com/rs/zerolog"

	"github.com/sawpanic/signalengine/internal/calibration"
	"github.com/sawpanic/signalengine/internal/candle"
	"github.com/sawpanic/signalengine/internal/crossasset"
	"github.com/sawpanic/signalengine/internal/features"
	"github.com/sawpanic/signalengine/internal/market"
	"github.com/sawpanic/signalengine/internal/signal"
	"github.com/sawpanic/signalengine/internal/strategy/legacy"
	"github.com/sawpanic/signalengine/internal/temporal"
)

// Config tunes the replay driver: the lookback before signals are
// admitted, the fixed binary payoff, and the fractional cost multipliers
// spec §4.11 calls out explicitly.
type Config struct {
	LookbackCandles int

	PositionSizeUSDC float64
	WinPayout        float64 // fraction of position size won, default 0.8
	LossPayout       float64 // fraction of position size lost, default 1.0

	CommissionRate float64 // fractional multiplier of notional
	SlippageRate   float64

	Thresholds legacy.Thresholds // cluster-voter gating chain, §6 knobs
}

// DefaultConfig matches spec §4.11's named constants: 50-candle lookback,
// +0.8/−1.0 binary payoff, zero cost multipliers (a frictionless replay
// unless the caller opts into commission/slippage), and the cluster
// voter's own default thresholds.
func DefaultConfig() Config {
	return Config{
		LookbackCandles:  50,
		PositionSizeUSDC: 1.0,
		WinPayout:        0.8,
		LossPayout:       1.0,
		Thresholds:       legacy.DefaultThresholds(),
	}
}

// Result is one full replay run's output: every settled trade, every
// rejected tick, and the derived performance metrics.
type Result struct {
	Trades     []Trade
	Rejections []Rejection
	Metrics    Metrics
}

// Runner drives the chronological replay of spec §4.11: one fresh
// feature engine and strategy engine per (asset, timeframe) partition,
// fed candle by candle in timestamp order.
type Runner struct {
	cfg Config
	log zerolog.Logger
}

// NewRunner constructs a Runner.
func NewRunner(cfg Config, log zerolog.Logger) *Runner {
	return &Runner{cfg: cfg, log: log}
}

type partition struct {
	asset     market.Asset
	timeframe market.Timeframe
	candles   []candle.Candle
}

// Run groups candles by (asset, timeframe), sorts each group
// chronologically, and replays every partition independently,
// aggregating trades and rejections across all of them.
//
// The smart filter chain (spec §4.10) is deliberately not exercised here:
// its liquidity/correlation/macro-event checks need external collaborator
// signals (live order book, cross-asset correlation, a macro calendar)
// that a pure candle replay has no source for. Only the cluster voter's
// own gating chain (spec §4.8) runs.
func (r *Runner) Run(candles []candle.Candle) (Result, error) {
	partitions := groupByPartition(candles)

	var result Result
	for _, p := range partitions {
		trades, rejections, err := r.runPartition(p)
		if err != nil {
			return Result{}, fmt.Errorf("partition %s/%s: %w", p.asset, p.timeframe, err)
		}
		result.Trades = append(result.Trades, trades...)
		result.Rejections = append(result.Rejections, rejections...)
	}

	sort.Slice(result.Trades, func(i, j int) bool {
		return result.Trades[i].EntryTS < result.Trades[j].EntryTS
	})

	result.Metrics = ComputeMetrics(result.Trades, result.Rejections)
	return result, nil
}

func groupByPartition(candles []candle.Candle) []partition {
	index := make(map[string]int)
	var partitions []partition

	for _, c := range candles {
		key := market.MarketKey(c.Asset, c.Timeframe)
		if i, ok := index[key]; ok {
			partitions[i].candles = append(partitions[i].candles, c)
			continue
		}
		index[key] = len(partitions)
		partitions = append(partitions, partition{
			asset:     c.Asset,
			timeframe: c.Timeframe,
			candles:   []candle.Candle{c},
		})
	}

	for i := range partitions {
		sort.Slice(partitions[i].candles, func(a, b int) bool {
			return partitions[i].candles[a].OpenTime < partitions[i].candles[b].OpenTime
		})
	}
	return partitions
}

func (r *Runner) runPartition(p partition) ([]Trade, []Rejection, error) {
	featureEngine := features.NewEngine(p.asset, p.timeframe)
	strategyEngine := legacy.NewEngine(r.cfg.Thresholds, temporal.NewAnalyzer(), crossasset.NewAnalyzer(), calibration.NewIndicatorStore())

	var trades []Trade
	var rejections []Rejection

	lookback := r.cfg.LookbackCandles
	// the final candle in the series has no successor to settle against.
	lastSettleable := len(p.candles) - 2

	for i, c := range p.candles {
		if err := c.Validate(); err != nil {
			r.log.Warn().Err(err).Str("asset", string(p.asset)).Msg("dropping invalid candle in replay")
			continue
		}

		nowMs := c.CloseTime
		snap := featureEngine.OnCandle(c, nowMs)

		if i < lookback-1 || i > lastSettleable {
			continue
		}

		decision := strategyEngine.Evaluate(p.asset, p.timeframe, legacy.Request{
			Snapshot: snap,
			NowMs:    nowMs,
		})

		if !decision.Signal {
			reason := decision.RejectReason
			if reason == "" {
				reason = "strategy_no_signal"
			}
			rejections = append(rejections, Rejection{
				Asset: p.asset, Timeframe: p.timeframe, Reason: reason, AtMs: nowMs,
			})
			continue
		}

		entry := c
		exit := p.candles[i+1]
		trade := r.settle(p.asset, p.timeframe, decision, entry, exit)
		trades = append(trades, trade)
	}

	return trades, rejections, nil
}

func (r *Runner) settle(asset market.Asset, tf market.Timeframe, decision legacy.Decision, entry, exit candle.Candle) Trade {
	isWin := directionAgrees(decision.Direction, entry.Close, exit.Close)

	grossPnL := -r.cfg.LossPayout * r.cfg.PositionSizeUSDC
	if isWin {
		grossPnL = r.cfg.WinPayout * r.cfg.PositionSizeUSDC
	}
	cost := (r.cfg.CommissionRate + r.cfg.SlippageRate) * r.cfg.PositionSizeUSDC
	netPnL := grossPnL - cost

	reasons, indicatorsUsed := activeClusters(decision)

	sig := signal.New(asset, tf, decision.Direction, decision.Confidence, reasons, indicatorsUsed,
		signal.StrategyClusterVoter, time.UnixMilli(entry.CloseTime), r.cfg.PositionSizeUSDC)

	return Trade{
		Signal:     sig,
		EntryTS:    entry.CloseTime,
		ExitTS:     exit.CloseTime,
		Asset:      asset,
		Timeframe:  tf,
		Direction:  decision.Direction,
		EntryPrice: entry.Close,
		ExitPrice:  exit.Close,
		Confidence: decision.Confidence,
		PnL:        netPnL,
		IsWin:      isWin,
	}
}

// directionAgrees reports whether the realized close-to-close move agrees
// with the signal's called direction, the spec §4.11 payoff trigger.
func directionAgrees(direction market.Direction, entryClose, exitClose float64) bool {
	if direction == market.Up {
		return exitClose > entryClose
	}
	return exitClose < entryClose
}

// activeClusters renders a Decision's active cluster summaries into the
// reason/indicator-name lists GeneratedSignal carries. The cluster voter
// doesn't expose finer-grained per-indicator attribution than its five
// named clusters, so both lists are built from the same cluster names —
// the finest granularity available post-hoc.
func activeClusters(decision legacy.Decision) (reasons, indicatorsUsed []string) {
	for _, cl := range decision.Clusters {
		if !cl.Active {
			continue
		}
		reasons = append(reasons, fmt.Sprintf("%s_cluster_active", cl.Name))
		indicatorsUsed = append(indicatorsUsed, cl.Name)
	}
	return reasons, indicatorsUsed
}
