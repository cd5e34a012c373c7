package indicators

import "github.com/sawpanic/signalengine/internal/candle"

// EMA computes the exponential moving average of closes over period n,
// seeded from the first observed close and smoothed with alpha=2/(n+1)
// thereafter. key namespaces the carried accumulator in st so multiple EMA
// periods (12, 26, 9-signal, or ad-hoc periods requested by other
// components) can coexist against the same State.
func EMA(cs []candle.Candle, n int, key string, st *State) Result {
	if len(cs) == 0 || n <= 0 {
		return invalid()
	}
	alpha := 2.0 / (float64(n) + 1.0)
	last := cs[len(cs)-1].Close

	prev, ok := st.genericEMA[key]
	if !ok {
		st.genericEMA[key] = last
		return valid(last, 1)
	}
	next := alpha*last + (1-alpha)*prev
	st.genericEMA[key] = next
	return valid(next, len(cs))
}

// EMAOfSeries is the series equivalent of EMA, used by MACD's signal line
// which smooths MACD values rather than closes. Stateless: the caller
// supplies the full capped history each call.
func EMAOfSeries(series []float64, n int) Result {
	if len(series) == 0 || n <= 0 {
		return invalid()
	}
	alpha := 2.0 / (float64(n) + 1.0)
	val := series[0]
	for _, x := range series[1:] {
		val = alpha*x + (1-alpha)*val
	}
	return valid(val, len(series))
}
