package ml

import "github.com/sawpanic/signalengine/internal/features"

// MarketContext carries the external-market fields the feature vector
// needs that the Features snapshot itself doesn't hold (settlement
// timing and the market-implied probability).
type MarketContext struct {
	ImpliedProbability float64
	MinutesToExpiry    float64
}

// FeatureVectorSize is the fixed arity every model's X row must match.
const FeatureVectorSize = 20

func orZero(v float64, ok bool) float64 {
	if !ok {
		return 0
	}
	return v
}

// BuildFeatureVector flattens a Features snapshot plus MarketContext into
// the fixed-arity vector every model consumes. Invalid indicator results
// contribute 0, matching how a missing field would be encoded once
// persisted to the Dataset contract's flat features list.
func BuildFeatureVector(s features.Snapshot, ctx MarketContext) []float64 {
	return []float64{
		orZero(s.Return.Value, s.Return.IsValid),
		orZero(s.RSI.Value, s.RSI.IsValid),
		orZero(s.MACD.Histogram.Value, s.MACD.Histogram.IsValid),
		orZero(s.ADX.ADX.Value, s.ADX.ADX.IsValid),
		orZero(s.ADX.PlusDI.Value, s.ADX.PlusDI.IsValid),
		orZero(s.ADX.MinusDI.Value, s.ADX.MinusDI.IsValid),
		orZero(s.StochRSI.K.Value, s.StochRSI.K.IsValid),
		orZero(s.OBV.Slope.Value, s.OBV.Slope.IsValid),
		orZero(s.HeikinAshi.Trend.Value, s.HeikinAshi.Trend.IsValid),
		orZero(s.Volatility.Value, s.Volatility.IsValid),
		orZero(s.RelVolume.Value, s.RelVolume.IsValid),
		orZero(s.VWAP.Deviation.Value, s.VWAP.Deviation.IsValid),
		s.Window.WindowPriceChgPct,
		s.Window.WindowProgress,
		s.Window.ShortTermMomentum,
		s.Window.WeightedMomentum,
		s.Window.MarketTimingScore,
		s.OrderbookImbalance,
		s.OrderFlowDelta,
		ctx.ImpliedProbability,
	}
}
