package indicators

import "github.com/sawpanic/signalengine/internal/candle"

const (
	macdFast   = 12
	macdSlow   = 26
	macdSignal = 9
)

// MACDResult carries the line, signal and histogram together — spec §4.1
// treats them as one snapshot, not three independent indicators.
type MACDResult struct {
	MACD      Result
	Signal    Result
	Histogram Result
}

// MACD computes EMA12 - EMA26 as the MACD line, carries it into st's capped
// history (100 entries), and derives the signal line as the EMA9 of that
// history. Before 9 MACD observations have accumulated the signal line
// falls back to the plain mean of the history collected so far, per spec
// §4.1, rather than reporting invalid.
func MACD(cs []candle.Candle, st *State) MACDResult {
	fast := EMA(cs, macdFast, "macd_fast", st)
	slow := EMA(cs, macdSlow, "macd_slow", st)
	if !fast.IsValid || !slow.IsValid {
		return MACDResult{}
	}

	line := fast.Value - slow.Value
	st.macdHistory = pushCapped(st.macdHistory, line, macdHistoryCap)

	var signal Result
	if len(st.macdHistory) >= macdSignal {
		signal = EMAOfSeries(st.macdHistory, macdSignal)
	} else {
		sum := 0.0
		for _, v := range st.macdHistory {
			sum += v
		}
		signal = valid(sum/float64(len(st.macdHistory)), len(st.macdHistory))
	}

	hist := valid(line-signal.Value, len(cs))
	return MACDResult{
		MACD:      valid(line, len(cs)),
		Signal:    signal,
		Histogram: hist,
	}
}
