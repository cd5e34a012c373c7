package indicators

import "github.com/sawpanic/signalengine/internal/candle"

const vwapPeriod = 50

// VWAPResult is the volume-weighted average price over the trailing window
// plus the current close's deviation from it, expressed as a ratio.
type VWAPResult struct {
	VWAP      Result
	Deviation Result // (close - vwap) / vwap
}

// VWAP computes the volume-weighted mean of the typical price
// ((high+low+close)/3) over the trailing 50 candles.
func VWAP(cs []candle.Candle) VWAPResult {
	n := vwapPeriod
	if len(cs) < n {
		n = len(cs)
	}
	if n == 0 {
		return VWAPResult{}
	}
	window := cs[len(cs)-n:]

	var pvSum, volSum float64
	for _, c := range window {
		typical := (c.High + c.Low + c.Close) / 3
		pvSum += typical * c.Volume
		volSum += c.Volume
	}
	if volSum == 0 {
		return VWAPResult{}
	}
	vwap := pvSum / volSum

	last := cs[len(cs)-1].Close
	var dev Result
	if vwap != 0 {
		dev = valid((last-vwap)/vwap, n)
	}

	return VWAPResult{
		VWAP:      valid(vwap, n),
		Deviation: dev,
	}
}
