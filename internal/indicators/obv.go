package indicators

import "github.com/sawpanic/signalengine/internal/candle"

const obvSlopeWindow = 5

// OBVResult is the running on-balance-volume total plus its short-window
// signed slope, the feature the cluster voter's confirmation cluster reads.
type OBVResult struct {
	OBV   Result
	Slope Result
}

// OBV accumulates volume signed by the direction of the close-to-close
// move (unchanged closes contribute zero) and reports the 5-candle linear
// slope of the running total via simple endpoint difference over the
// window.
func OBV(cs []candle.Candle, st *State) OBVResult {
	if len(cs) < 2 {
		return OBVResult{}
	}

	last := cs[len(cs)-1]
	prev := cs[len(cs)-2]
	switch {
	case last.Close > prev.Close:
		st.obvCum += last.Volume
	case last.Close < prev.Close:
		st.obvCum -= last.Volume
	}

	st.obvHistory = pushCapped(st.obvHistory, st.obvCum, obvSlopeWindow)

	result := OBVResult{OBV: valid(st.obvCum, len(cs))}
	if len(st.obvHistory) < obvSlopeWindow {
		return result
	}
	slope := (st.obvHistory[len(st.obvHistory)-1] - st.obvHistory[0]) / float64(obvSlopeWindow-1)
	result.Slope = valid(slope, obvSlopeWindow)
	return result
}
