// Package crossasset implements the cross-asset analyzer of spec §4.4:
// rolling per-(asset, timeframe) return series, Pearson correlation between
// BTC and ETH, and the four cross-asset/timeframe signal labels. Grounded
// on cryptorun's rolling-deque style (internal/algo/momentum/core.go) for
// the capped-by-size-and-age series, and on gonum.org/v1/gonum/stat
// (carried into this pack via the other_examples manifests for
// aristath-sentinel and raykavin-backnrun) for the correlation itself —
// no repo in the pack hand-rolls Pearson correlation, and gonum/stat is the
// only statistics library the corpus references anywhere.
package crossasset

import (
	"math"

	"gonum.org/v1/gonum/stat"

	"github.com/sawpanic/signalengine/internal/market"
)

const (
	seriesCapDefault   = 50
	maxAgeSecDefault   = 3600
	correlationMinPts  = 5
	correlationThresh  = 0.7
	dominantDeltaThresh = 0.005 // 0.5%
)

type point struct {
	price     float64
	tsMs      int64
	oneStepRt float64
}

// series is the rolling (price, timestamp, return) deque for one
// (asset, timeframe).
type series struct {
	points []point
	capLen int
	maxAge int64 // seconds
}

func newSeries() *series {
	return &series{capLen: seriesCapDefault, maxAge: maxAgeSecDefault}
}

func (s *series) add(price float64, tsMs int64) {
	var ret float64
	if len(s.points) > 0 {
		prev := s.points[len(s.points)-1].price
		if prev != 0 {
			ret = (price - prev) / prev
		}
	}
	s.points = append(s.points, point{price: price, tsMs: tsMs, oneStepRt: ret})
	if len(s.points) > s.capLen {
		s.points = s.points[len(s.points)-s.capLen:]
	}
	s.evictStale(tsMs)
}

func (s *series) evictStale(nowMs int64) {
	cutoff := nowMs - s.maxAge*1000
	i := 0
	for i < len(s.points) && s.points[i].tsMs < cutoff {
		i++
	}
	if i > 0 {
		s.points = s.points[i:]
	}
}

func (s *series) returns() []float64 {
	if len(s.points) < 2 {
		return nil
	}
	out := make([]float64, 0, len(s.points)-1)
	for _, p := range s.points[1:] {
		out = append(out, p.oneStepRt)
	}
	return out
}

func (s *series) lastReturn() float64 {
	if len(s.points) == 0 {
		return 0
	}
	return s.points[len(s.points)-1].oneStepRt
}

// Signal is the closed-set cross-asset/timeframe label.
type Signal string

const (
	CorrelatedMovement Signal = "CorrelatedMovement"
	Divergence         Signal = "Divergence"
	BTCDominant        Signal = "BTCDominant"
	ETHDominant        Signal = "ETHDominant"
	TimeframeConfluence Signal = "TimeframeConfluence"
	TimeframeConflict  Signal = "TimeframeConflict"
)

// Analyzer tracks a return series per (asset, timeframe) and derives the
// cross-asset and cross-timeframe signals from them.
type Analyzer struct {
	bySymbol map[market.Asset]map[market.Timeframe]*series
}

// NewAnalyzer constructs an empty Analyzer.
func NewAnalyzer() *Analyzer {
	return &Analyzer{bySymbol: make(map[market.Asset]map[market.Timeframe]*series)}
}

func (a *Analyzer) seriesFor(asset market.Asset, tf market.Timeframe) *series {
	tfMap, ok := a.bySymbol[asset]
	if !ok {
		tfMap = make(map[market.Timeframe]*series)
		a.bySymbol[asset] = tfMap
	}
	s, ok := tfMap[tf]
	if !ok {
		s = newSeries()
		tfMap[tf] = s
	}
	return s
}

// OnPrice folds a new price observation into the (asset, timeframe) series.
func (a *Analyzer) OnPrice(asset market.Asset, tf market.Timeframe, price float64, tsMs int64) {
	a.seriesFor(asset, tf).add(price, tsMs)
}

// correlation returns Pearson correlation over the trailing min(len(a), len(b))
// returns of the two series, ok=false if either has fewer than 5 points.
func correlation(a, b *series) (float64, bool) {
	if len(a.points) < correlationMinPts || len(b.points) < correlationMinPts {
		return 0, false
	}
	ra, rb := a.returns(), b.returns()
	n := len(ra)
	if len(rb) < n {
		n = len(rb)
	}
	ra = ra[len(ra)-n:]
	rb = rb[len(rb)-n:]
	return stat.Correlation(ra, rb, nil), true
}

// BTCETHCorrelation exposes the raw Pearson correlation BTCETHSignal
// derives its label from, for callers (the smart filter chain's
// unstable_correlation check) that need the number rather than the label.
func (a *Analyzer) BTCETHCorrelation(tf market.Timeframe) (float64, bool) {
	return correlation(a.seriesFor(market.BTC, tf), a.seriesFor(market.ETH, tf))
}

// BTCETHSignal compares BTC and ETH at the same timeframe and returns the
// cross-asset signal per spec §4.4, ok=false if either series is too short
// or no label applies.
func (a *Analyzer) BTCETHSignal(tf market.Timeframe) (Signal, bool) {
	btc := a.seriesFor(market.BTC, tf)
	eth := a.seriesFor(market.ETH, tf)

	corr, ok := correlation(btc, eth)
	if !ok {
		return "", false
	}

	btcRet := btc.lastReturn()
	ethRet := eth.lastReturn()
	sameDirection := (btcRet >= 0) == (ethRet >= 0)

	if math.Abs(corr) > correlationThresh {
		if sameDirection {
			return CorrelatedMovement, true
		}
		return Divergence, true
	}

	delta := math.Abs(btcRet - ethRet)
	if delta > dominantDeltaThresh {
		if math.Abs(btcRet) > math.Abs(ethRet) {
			return BTCDominant, true
		}
		return ETHDominant, true
	}
	return "", false
}

// TimeframeSignal compares one asset's two timeframes' sign of recent
// return and returns TimeframeConfluence/Conflict, ok=false if either
// timeframe has no observation yet.
func (a *Analyzer) TimeframeSignal(asset market.Asset) (Signal, bool) {
	short := a.seriesFor(asset, market.TF15M)
	long := a.seriesFor(asset, market.TF1H)
	if len(short.points) == 0 || len(long.points) == 0 {
		return "", false
	}
	shortSign := short.lastReturn() >= 0
	longSign := long.lastReturn() >= 0
	if shortSign == longSign {
		return TimeframeConfluence, true
	}
	return TimeframeConflict, true
}
