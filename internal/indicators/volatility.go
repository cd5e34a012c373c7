package indicators

import (
	"math"

	"github.com/sawpanic/signalengine/internal/candle"
)

const volatilityWindow = 20

// Volatility computes the standard deviation of the last 20 one-step
// simple returns, the short-window realized-volatility feature used by the
// early-window and smart-filter volatility gates.
func Volatility(cs []candle.Candle, st *State) Result {
	if len(cs) < volatilityWindow+1 {
		return invalid()
	}
	rets := make([]float64, 0, volatilityWindow)
	for i := len(cs) - volatilityWindow; i < len(cs); i++ {
		ret, ok := candle.Return(cs[i-1].Close, cs[i].Close)
		if !ok {
			return invalid()
		}
		rets = append(rets, ret)
	}
	st.volReturns = rets

	mean := 0.0
	for _, r := range st.volReturns {
		mean += r
	}
	mean /= float64(len(st.volReturns))

	variance := 0.0
	for _, r := range st.volReturns {
		d := r - mean
		variance += d * d
	}
	variance /= float64(len(st.volReturns))

	return valid(math.Sqrt(variance), len(st.volReturns))
}
