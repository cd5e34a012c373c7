package indicators

import (
	"math"

	"github.com/sawpanic/signalengine/internal/candle"
)

const adxPeriod = 14

// ADXResult reports the directional indicators alongside ADX itself, since
// +DI/-DI are what the cluster voter's trend cluster actually reads.
type ADXResult struct {
	PlusDI  Result
	MinusDI Result
	ADX     Result
}

func directionalMovement(cur, prev candle.Candle) (plusDM, minusDM, tr float64) {
	upMove := cur.High - prev.High
	downMove := prev.Low - cur.Low
	if upMove > downMove && upMove > 0 {
		plusDM = upMove
	}
	if downMove > upMove && downMove > 0 {
		minusDM = downMove
	}
	tr = trueRange(cur, prev)
	return
}

// ADX computes Wilder-smoothed +DM/-DM/TR over 14 periods, derives +DI/-DI,
// then DX = 100*|+DI-DI|/(+DI+DI), and Wilder-smooths DX into ADX. The
// first ADX value seeds from the simple mean of the first 14 DX
// observations; subsequent ticks Wilder-smooth it one sample at a time.
func ADX(cs []candle.Candle, st *State) ADXResult {
	if len(cs) < 2 {
		return ADXResult{}
	}

	plusDM, minusDM, tr := directionalMovement(cs[len(cs)-1], cs[len(cs)-2])

	if !st.adxReady {
		if len(cs)-1 <= adxPeriod {
			st.adxSmoothTR += tr
			st.adxSmoothPlus += plusDM
			st.adxSmoothMinus += minusDM
		} else {
			st.adxSmoothTR = st.adxSmoothTR - st.adxSmoothTR/adxPeriod + tr
			st.adxSmoothPlus = st.adxSmoothPlus - st.adxSmoothPlus/adxPeriod + plusDM
			st.adxSmoothMinus = st.adxSmoothMinus - st.adxSmoothMinus/adxPeriod + minusDM
		}

		if len(cs)-1 < adxPeriod {
			return ADXResult{}
		}

		plusDI, minusDI, dx := diAndDX(st.adxSmoothPlus, st.adxSmoothMinus, st.adxSmoothTR)
		st.adxDXHistory = append(st.adxDXHistory, dx)

		if len(st.adxDXHistory) < adxPeriod {
			return ADXResult{PlusDI: valid(plusDI, adxPeriod), MinusDI: valid(minusDI, adxPeriod)}
		}

		sum := 0.0
		for _, v := range st.adxDXHistory {
			sum += v
		}
		st.adxPrevADX = sum / float64(len(st.adxDXHistory))
		st.adxReady = true
		st.adxDXHistory = nil
		return ADXResult{
			PlusDI:  valid(plusDI, adxPeriod),
			MinusDI: valid(minusDI, adxPeriod),
			ADX:     valid(st.adxPrevADX, adxPeriod),
		}
	}

	st.adxSmoothTR = st.adxSmoothTR - st.adxSmoothTR/adxPeriod + tr
	st.adxSmoothPlus = st.adxSmoothPlus - st.adxSmoothPlus/adxPeriod + plusDM
	st.adxSmoothMinus = st.adxSmoothMinus - st.adxSmoothMinus/adxPeriod + minusDM

	plusDI, minusDI, dx := diAndDX(st.adxSmoothPlus, st.adxSmoothMinus, st.adxSmoothTR)
	st.adxPrevADX = (st.adxPrevADX*(adxPeriod-1) + dx) / adxPeriod

	return ADXResult{
		PlusDI:  valid(plusDI, adxPeriod),
		MinusDI: valid(minusDI, adxPeriod),
		ADX:     valid(st.adxPrevADX, adxPeriod),
	}
}

func diAndDX(smoothPlus, smoothMinus, smoothTR float64) (plusDI, minusDI, dx float64) {
	if smoothTR == 0 {
		return 0, 0, 0
	}
	plusDI = 100 * smoothPlus / smoothTR
	minusDI = 100 * smoothMinus / smoothTR
	denom := plusDI + minusDI
	if denom == 0 {
		return plusDI, minusDI, 0
	}
	dx = 100 * math.Abs(plusDI-minusDI) / denom
	return
}
