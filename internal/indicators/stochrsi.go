package indicators

import "github.com/sawpanic/signalengine/internal/candle"

const (
	stochRSIPeriod = 14
	stochKPeriod   = 3
)

// StochRSIResult holds %K and %D. Per spec §4.1's simplification, %D is not
// a separate smoothing of %K over its own window — it mirrors %K directly.
type StochRSIResult struct {
	K Result
	D Result
}

// StochRSI computes the stochastic oscillator applied to RSI instead of
// price: (RSI - min(RSI_14)) / (max(RSI_14) - min(RSI_14)), then %K is the
// 3-sample mean of that raw value and %D repeats %K.
func StochRSI(cs []candle.Candle, st *State) StochRSIResult {
	rsi := RSI(cs, st)
	if !rsi.IsValid {
		return StochRSIResult{}
	}

	st.rsiHistory = pushCapped(st.rsiHistory, rsi.Value, stochRSIPeriod)
	if len(st.rsiHistory) < stochRSIPeriod {
		return StochRSIResult{}
	}

	lo, hi := st.rsiHistory[0], st.rsiHistory[0]
	for _, v := range st.rsiHistory {
		if v < lo {
			lo = v
		}
		if v > hi {
			hi = v
		}
	}

	var raw float64
	if hi != lo {
		raw = (rsi.Value - lo) / (hi - lo)
	}

	st.stochRawHist = pushCapped(st.stochRawHist, raw, stochKPeriod)
	sum := 0.0
	for _, v := range st.stochRawHist {
		sum += v
	}
	k := valid(sum/float64(len(st.stochRawHist)), len(st.stochRawHist))
	return StochRSIResult{K: k, D: k}
}
