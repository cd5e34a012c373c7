package indicators

import "github.com/sawpanic/signalengine/internal/candle"

const rsiPeriod = 14

// RSI computes Wilder's relative strength index over the 14-period window,
// seeded from a simple average of the first 14 gains/losses and Wilder-
// smoothed thereafter via st. A run of identical closes (zero average gain
// and loss) returns the flat value 50; an average loss of zero with nonzero
// average gain returns the degenerate ceiling 99, the mirror image 1.
// Values are clamped to [1, 99] in all other cases (spec §4.1).
func RSI(cs []candle.Candle, st *State) Result {
	if len(cs) < 2 {
		return invalid()
	}

	if !st.rsiReady {
		if len(cs) < rsiPeriod+1 {
			return invalid()
		}
		var gainSum, lossSum float64
		for i := len(cs) - rsiPeriod; i < len(cs); i++ {
			delta := cs[i].Close - cs[i-1].Close
			if delta > 0 {
				gainSum += delta
			} else {
				lossSum += -delta
			}
		}
		st.rsiAvgGain = gainSum / rsiPeriod
		st.rsiAvgLoss = lossSum / rsiPeriod
		st.rsiReady = true
	} else {
		delta := cs[len(cs)-1].Close - cs[len(cs)-2].Close
		gain, loss := 0.0, 0.0
		if delta > 0 {
			gain = delta
		} else {
			loss = -delta
		}
		st.rsiAvgGain = (st.rsiAvgGain*(rsiPeriod-1) + gain) / rsiPeriod
		st.rsiAvgLoss = (st.rsiAvgLoss*(rsiPeriod-1) + loss) / rsiPeriod
	}

	if st.rsiAvgGain == 0 && st.rsiAvgLoss == 0 {
		return valid(50, rsiPeriod)
	}
	if st.rsiAvgLoss == 0 {
		return valid(99, rsiPeriod)
	}
	if st.rsiAvgGain == 0 {
		return valid(1, rsiPeriod)
	}

	rs := st.rsiAvgGain / st.rsiAvgLoss
	rsi := 100 - (100 / (1 + rs))
	if rsi > 99 {
		rsi = 99
	}
	if rsi < 1 {
		rsi = 1
	}
	return valid(rsi, rsiPeriod)
}
