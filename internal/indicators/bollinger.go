package indicators

import (
	"math"

	"github.com/sawpanic/signalengine/internal/candle"
)

const (
	bollingerPeriod = 20
	bollingerMult   = 2.0
)

// BollingerResult is the three-band snapshot spec §4.1 treats as one unit.
type BollingerResult struct {
	Upper  Result
	Middle Result
	Lower  Result
}

// Bollinger computes a 20-period SMA middle band and +/-2 standard
// deviation outer bands over the same window.
func Bollinger(cs []candle.Candle) BollingerResult {
	if len(cs) < bollingerPeriod {
		return BollingerResult{}
	}
	window := cs[len(cs)-bollingerPeriod:]

	sum := 0.0
	for _, c := range window {
		sum += c.Close
	}
	mean := sum / bollingerPeriod

	variance := 0.0
	for _, c := range window {
		d := c.Close - mean
		variance += d * d
	}
	variance /= bollingerPeriod
	stddev := math.Sqrt(variance)

	return BollingerResult{
		Upper:  valid(mean+bollingerMult*stddev, bollingerPeriod),
		Middle: valid(mean, bollingerPeriod),
		Lower:  valid(mean-bollingerMult*stddev, bollingerPeriod),
	}
}
