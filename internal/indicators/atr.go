package indicators

import (
	"math"

	"github.com/sawpanic/signalengine/internal/candle"
)

const atrPeriod = 14

func trueRange(cur, prev candle.Candle) float64 {
	hl := cur.High - cur.Low
	hc := math.Abs(cur.High - prev.Close)
	lc := math.Abs(cur.Low - prev.Close)
	return math.Max(hl, math.Max(hc, lc))
}

// ATR computes the 14-period simple average of true range. It needs 15
// candles (14 true-range samples, each requiring the prior close).
func ATR(cs []candle.Candle) Result {
	if len(cs) < atrPeriod+1 {
		return invalid()
	}
	sum := 0.0
	for i := len(cs) - atrPeriod; i < len(cs); i++ {
		sum += trueRange(cs[i], cs[i-1])
	}
	return valid(sum/atrPeriod, atrPeriod)
}
