// Package market defines the closed enumerations that every other package in
// signalengine keys its state by: the tradable asset, the settlement
// timeframe, and the binary directional call.
package market

import "fmt"

// Asset is a closed-set symbol. Symbols outside the signal-generating set are
// still ingested (candles/book/trade events are accepted) but never produce a
// GeneratedSignal.
type Asset string

const (
	BTC Asset = "BTC"
	ETH Asset = "ETH"
)

// signalingAssets is the whitelist consulted by the gating chain (spec §4.8
// rule 1). Additional symbols may be ingested without being added here.
var signalingAssets = map[Asset]bool{
	BTC: true,
	ETH: true,
}

// Supported reports whether the asset is eligible to generate signals.
func (a Asset) Supported() bool {
	return signalingAssets[a]
}

func (a Asset) String() string { return string(a) }

// Timeframe is a closed-set settlement window size.
type Timeframe string

const (
	TF15M Timeframe = "15M"
	TF1H  Timeframe = "1H"
)

func (tf Timeframe) String() string { return string(tf) }

// Duration returns the timeframe's window length in seconds.
func (tf Timeframe) Duration() int64 {
	switch tf {
	case TF15M:
		return 15 * 60
	case TF1H:
		return 60 * 60
	default:
		return 0
	}
}

// DurationMillis is Duration in milliseconds, the unit candle timestamps use.
func (tf Timeframe) DurationMillis() int64 {
	return tf.Duration() * 1000
}

// IsLong reports whether this is the repo's "long" timeframe (1H), the side
// of several asymmetric rules in §4.8 (regime_volatile_1h, eth_1h_disabled,
// divergence detector long-only).
func (tf Timeframe) IsLong() bool {
	return tf == TF1H
}

// MarketKey builds the canonical "{ASSET}_{15M|1H}" key used throughout the
// calibrator and temporal analyzer.
func MarketKey(a Asset, tf Timeframe) string {
	suffix := "15M"
	if tf == TF1H {
		suffix = "1H"
	}
	return fmt.Sprintf("%s_%s", a, suffix)
}

// GlobalMarketKey is the reserved legacy-aggregation key.
const GlobalMarketKey = "GLOBAL"

// Direction is the binary directional call a signal makes.
type Direction string

const (
	Up   Direction = "up"
	Down Direction = "down"
)

// Opposite returns the other direction.
func (d Direction) Opposite() Direction {
	if d == Up {
		return Down
	}
	return Up
}

func (d Direction) String() string { return string(d) }
