package legacy

import (
	"math"

	"github.com/sawpanic/signalengine/internal/crossasset"
	"github.com/sawpanic/signalengine/internal/features"
	"github.com/sawpanic/signalengine/internal/market"
	"github.com/sawpanic/signalengine/internal/settlement"
)

const confidenceCap = 0.95

// regimeMultiplier applies spec §4.8's regime-dependent confidence scale.
func regimeMultiplier(r features.Regime) float64 {
	switch r {
	case features.Trending:
		return 1.05
	case features.Ranging:
		return 0.90
	case features.Volatile:
		return 0.85
	default:
		return 1.0
	}
}

// marketTimingMultiplier buckets the window-timing score into the ±2%/±8%
// bands spec §4.8 names, relative to whether the score's sign agrees with
// the candidate direction. The exact split between the two bands is not
// pinned by the distilled spec beyond naming the two magnitudes — an Open
// Question resolution recorded in DESIGN.md.
func marketTimingMultiplier(timingScore float64, direction market.Direction) float64 {
	aligned := (timingScore >= 0) == (direction == market.Up)
	magnitude := math.Abs(timingScore)
	switch {
	case aligned && magnitude >= 0.5:
		return 1.08
	case aligned:
		return 1.02
	case magnitude >= 0.5:
		return 0.92
	default:
		return 0.98
	}
}

// multiTimeframeBonus implements the up-to-+0.12 additive bonus: a 0.06
// base, a momentum-alignment boost of x1.3 (agree) or x0.5 (disagree),
// zeroed if the other timeframe itself shows a late entry in the candidate
// direction, and a further x1.15 if the order book agrees.
func multiTimeframeBonus(direction market.Direction, other *features.Snapshot, orderBookAgrees bool) float64 {
	if other == nil {
		return 0
	}
	otherLate := (direction == market.Up && other.Window.LateEntryUp) ||
		(direction == market.Down && other.Window.LateEntryDown)
	if otherLate {
		return 0
	}

	base := 0.06
	momentumAligned := (other.Window.ShortTermMomentum >= 0) == (direction == market.Up)
	if momentumAligned {
		base *= 1.3
	} else {
		base *= 0.5
	}
	if orderBookAgrees {
		base *= 1.15
	}
	if base > 0.12 {
		base = 0.12
	}
	return base
}

// crossAssetMultiplier derives a confidence multiplier from the BTC/ETH
// cross-asset signal per spec §4.4: CorrelatedMovement gives 1.05 and
// Divergence 0.95 whatever the candidate direction (sameDirectionAsBTC is
// not consulted); every other signal, and ok=false, gives 1.0 (an Open
// Question resolution, see DESIGN.md).
func crossAssetMultiplier(sig crossasset.Signal, ok bool, sameDirectionAsBTC bool) float64 {
	if !ok {
		return 1.0
	}
	switch sig {
	case crossasset.CorrelatedMovement:
		return 1.05
	case crossasset.Divergence:
		return 0.95
	default:
		return 1.0
	}
}

// settlementEdgeAdjustment implements the up-to-+10% bonus when the
// settlement predictor's projected direction agrees with the candidate
// direction, and the x0.9 penalty when it contradicts at high confidence.
func settlementEdgeAdjustment(pred *settlement.Prediction, strike, currentConfidence float64, direction market.Direction) (additive, multiplicative float64) {
	if pred == nil {
		return 0, 1.0
	}
	predictedDirection := market.Up
	if pred.PredictedPrice < strike {
		predictedDirection = market.Down
	}
	if predictedDirection == direction {
		bonus := math.Abs(pred.Edge)
		if bonus > 0.10 {
			bonus = 0.10
		}
		return bonus, 1.0
	}
	if currentConfidence > 0.7 {
		return 0, 0.9
	}
	return 0, 1.0
}

// assemblyInputs collects every contribution the confidence formula needs
// beyond the raw vote tally, threaded in by the Engine so this function
// stays a pure computation over its arguments.
type assemblyInputs struct {
	Snapshot              features.Snapshot
	OtherTimeframeSnapshot *features.Snapshot
	OrderBookAgrees       bool
	TemporalMultiplier    float64
	CrossAssetSignal      crossasset.Signal
	CrossAssetOK          bool
	SettlementPrediction  *settlement.Prediction
	Strike                float64
}

// assembleConfidence implements spec §4.8's full confidence-assembly
// formula: signal strength from the vote tally, then a chain of
// multiplicative penalties/boosts (volatility, regime, volume, market
// timing, temporal, cross-asset), an additive multi-timeframe-alignment
// bonus, an additive/multiplicative settlement-edge adjustment, and finally
// the 0.95 cap.
func assembleConfidence(direction market.Direction, winningTotal, losingTotal float64, in assemblyInputs) float64 {
	signalStrength := winningTotal / (winningTotal + losingTotal)
	confidence := signalStrength

	if in.Snapshot.Volatility.IsValid {
		penalty := math.Min(in.Snapshot.Volatility.Value*0.5, 0.25)
		confidence *= 1 - penalty
	}

	confidence *= regimeMultiplier(in.Snapshot.Regime)

	if in.Snapshot.RelVolume.IsValid {
		switch {
		case in.Snapshot.RelVolume.Value >= 1.3:
			confidence *= 1.04
		case in.Snapshot.RelVolume.Value <= 0.6:
			confidence *= 0.85
		}
	}

	confidence *= marketTimingMultiplier(in.Snapshot.Window.MarketTimingScore, direction)

	confidence += multiTimeframeBonus(direction, in.OtherTimeframeSnapshot, in.OrderBookAgrees)

	if in.TemporalMultiplier != 0 {
		confidence *= in.TemporalMultiplier
	}

	confidence *= crossAssetMultiplier(in.CrossAssetSignal, in.CrossAssetOK, true)

	additive, multiplicative := settlementEdgeAdjustment(in.SettlementPrediction, in.Strike, confidence, direction)
	confidence = confidence*multiplicative + additive

	if confidence > confidenceCap {
		confidence = confidenceCap
	}
	if confidence < 0 {
		confidence = 0
	}
	return confidence
}
