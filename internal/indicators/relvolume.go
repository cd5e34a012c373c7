package indicators

import "github.com/sawpanic/signalengine/internal/candle"

const relVolumeWindow = 20

// RelVolume computes the current candle's volume relative to the mean of
// the previous 20 candles' volume. A mean of zero (all-zero volume window)
// reports invalid rather than dividing by zero.
func RelVolume(cs []candle.Candle, st *State) Result {
	if len(cs) < 2 {
		return invalid()
	}
	history := cs[:len(cs)-1]
	n := relVolumeWindow
	if len(history) < n {
		n = len(history)
	}
	if n == 0 {
		return invalid()
	}
	window := history[len(history)-n:]

	sum := 0.0
	for _, c := range window {
		sum += c.Volume
	}
	mean := sum / float64(n)
	if mean == 0 {
		return invalid()
	}

	current := cs[len(cs)-1].Volume
	return valid(current/mean, n)
}
