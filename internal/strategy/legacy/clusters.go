// Package legacy implements the cluster-voting strategy engine of spec
// §4.8: five indicator clusters each casting weighted Up/Down votes, a
// twelve-step gating chain, and the confidence-assembly formula. Grounded
// structurally on cryptorun's internal/domain/gates/evaluate.go
// (EvaluateAllGates: ordered gate evaluation with short-circuit and a
// closed-vocabulary reason string per failure) and
// internal/domain/regime/detector.go (weighted-vote-per-indicator,
// dominant-share framing this package's clusters reuse one level down).
package legacy

import (
	"github.com/sawpanic/signalengine/internal/features"
	"github.com/sawpanic/signalengine/internal/market"
)

// vote is one indicator's weighted directional call.
type vote struct {
	direction market.Direction
	weight    float64
}

// clusterResult is one cluster's aggregated outcome.
type clusterResult struct {
	name              string
	active            bool
	dominantDirection market.Direction
	confidence        float64 // dominant-side share
	upWeight          float64
	downWeight        float64
}

func tally(name string, votes []vote, minAlignment float64) clusterResult {
	var up, down float64
	for _, v := range votes {
		if v.direction == market.Up {
			up += v.weight
		} else {
			down += v.weight
		}
	}
	total := up + down
	if total == 0 {
		return clusterResult{name: name}
	}
	dominant := market.Up
	dominantWeight := up
	if down > up {
		dominant = market.Down
		dominantWeight = down
	}
	share := dominantWeight / total
	return clusterResult{
		name:              name,
		active:            share >= minAlignment,
		dominantDirection: dominant,
		confidence:        share,
		upWeight:          up,
		downWeight:        down,
	}
}

func directionFromSign(v float64) market.Direction {
	if v >= 0 {
		return market.Up
	}
	return market.Down
}

// weightFor applies a calibrated indicator weight if present, else 1.0.
func weightFor(weights map[string]float64, name string) float64 {
	if w, ok := weights[name]; ok {
		return w
	}
	return 1.0
}

// trendCluster votes from ADX directional bias and EMA trend (close vs
// EMA26).
func trendCluster(s features.Snapshot, weights map[string]float64, minAlignment float64) clusterResult {
	var votes []vote
	if s.ADX.PlusDI.IsValid && s.ADX.MinusDI.IsValid {
		dir := market.Up
		if s.ADX.MinusDI.Value > s.ADX.PlusDI.Value {
			dir = market.Down
		}
		votes = append(votes, vote{dir, weightFor(weights, "adx")})
	}
	if s.EMA26.IsValid {
		votes = append(votes, vote{directionFromSign(s.Close - s.EMA26.Value), weightFor(weights, "ema")})
	}
	return tally("Trend", votes, minAlignment)
}

// momentumCluster votes from MACD histogram, settlement velocity, Heikin-
// Ashi trend, and short-term window momentum.
func momentumCluster(s features.Snapshot, settlementVelocitySign float64, weights map[string]float64, minAlignment float64) clusterResult {
	var votes []vote
	if s.MACD.Histogram.IsValid {
		votes = append(votes, vote{directionFromSign(s.MACD.Histogram.Value), weightFor(weights, "macd")})
	}
	if settlementVelocitySign != 0 {
		votes = append(votes, vote{directionFromSign(settlementVelocitySign), weightFor(weights, "momentum_velocity")})
	}
	if s.HeikinAshi.Trend.IsValid {
		votes = append(votes, vote{directionFromSign(s.HeikinAshi.Trend.Value), weightFor(weights, "heikin_ashi")})
	}
	if s.Window.WindowStart != 0 && s.Window.ShortTermMomentum != 0 {
		votes = append(votes, vote{directionFromSign(s.Window.ShortTermMomentum), weightFor(weights, "short_term_momentum")})
	}
	return tally("Momentum", votes, minAlignment)
}

// reversionCluster votes from RSI, Bollinger position, and StochRSI — all
// mean-reversion signals voting against the extreme.
func reversionCluster(s features.Snapshot, weights map[string]float64, minAlignment float64) clusterResult {
	var votes []vote
	if s.RSI.IsValid {
		dir := market.Down
		if s.RSI.Value < 50 {
			dir = market.Up
		}
		votes = append(votes, vote{dir, weightFor(weights, "rsi")})
	}
	if s.Bollinger.Middle.IsValid {
		dir := market.Down
		if s.Close < s.Bollinger.Middle.Value {
			dir = market.Up
		}
		votes = append(votes, vote{dir, weightFor(weights, "bollinger")})
	}
	if s.StochRSI.K.IsValid {
		dir := market.Down
		if s.StochRSI.K.Value < 0.5 {
			dir = market.Up
		}
		votes = append(votes, vote{dir, weightFor(weights, "stoch_rsi")})
	}
	return tally("Reversion", votes, minAlignment)
}

// microstructureCluster votes from order-book imbalance and order-flow
// delta. Both require book/trade data to actually have been observed
// (Top5Depth > 0) — otherwise the zero-value snapshot would read as a
// perfectly balanced book and cast a phantom vote.
func microstructureCluster(s features.Snapshot, weights map[string]float64, minAlignment float64) clusterResult {
	var votes []vote
	if s.Top5Depth > 0 {
		if s.OrderbookImbalance != 0 {
			votes = append(votes, vote{directionFromSign(s.OrderbookImbalance), weightFor(weights, "orderbook_imbalance")})
		}
		if s.OrderFlowDelta != 0 {
			votes = append(votes, vote{directionFromSign(s.OrderFlowDelta), weightFor(weights, "order_flow_delta")})
		}
	}
	return tally("Microstructure", votes, minAlignment)
}

// confirmationCluster votes from OBV slope plus volume (always available)
// and RSI divergence, long-timeframe only.
func confirmationCluster(s features.Snapshot, weights map[string]float64, minAlignment float64) clusterResult {
	var votes []vote
	if s.OBV.Slope.IsValid {
		votes = append(votes, vote{directionFromSign(s.OBV.Slope.Value), weightFor(weights, "obv_volume")})
	}
	if s.Timeframe.IsLong() && s.RSI.IsValid {
		priceUp := s.Return.IsValid && s.Return.Value > 0
		rsiUp := s.RSI.Value > 50
		if priceUp != rsiUp {
			dir := market.Up
			if priceUp {
				dir = market.Down // price rising while RSI weak: bearish divergence
			}
			votes = append(votes, vote{dir, weightFor(weights, "rsi_divergence")})
		}
	}
	return tally("Confirmation", votes, minAlignment)
}

func allClusters(s features.Snapshot, settlementVelocitySign float64, weights map[string]float64, minAlignment float64) []clusterResult {
	return []clusterResult{
		trendCluster(s, weights, minAlignment),
		momentumCluster(s, settlementVelocitySign, weights, minAlignment),
		reversionCluster(s, weights, minAlignment),
		microstructureCluster(s, weights, minAlignment),
		confirmationCluster(s, weights, minAlignment),
	}
}
