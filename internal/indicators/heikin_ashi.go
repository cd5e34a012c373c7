package indicators

import "github.com/sawpanic/signalengine/internal/candle"

// HeikinAshiResult is the smoothed candle plus its trend relative to the
// prior Heikin-Ashi bar.
type HeikinAshiResult struct {
	Close Result
	Open  Result
	Trend Result // +1 bullish (close above open), -1 bearish, 0 doji
}

// HeikinAshi computes one Heikin-Ashi bar from the latest candle, carrying
// the prior synthetic open/close in st. The first bar seeds its open from
// (open+close)/2 of the real candle, matching the standard bootstrap.
func HeikinAshi(cs []candle.Candle, st *State) HeikinAshiResult {
	if len(cs) == 0 {
		return HeikinAshiResult{}
	}
	c := cs[len(cs)-1]
	haClose := (c.Open + c.High + c.Low + c.Close) / 4

	var haOpen float64
	if !st.haReady {
		haOpen = (c.Open + c.Close) / 2
		st.haReady = true
	} else {
		haOpen = (st.haPrevOpen + st.haPrevClose) / 2
	}
	st.haPrevOpen = haOpen
	st.haPrevClose = haClose

	trend := 0.0
	if haClose > haOpen {
		trend = 1
	} else if haClose < haOpen {
		trend = -1
	}

	return HeikinAshiResult{
		Close: valid(haClose, len(cs)),
		Open:  valid(haOpen, len(cs)),
		Trend: valid(trend, len(cs)),
	}
}
