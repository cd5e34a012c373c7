// Package filters implements the smart filter chain of spec §4.10: a
// composable, ordered set of checks each carrying its own closed-
// vocabulary rejection reason, with adaptive thresholds that widen once a
// filter proves counter-productive (rejecting more winners than losers)
// after at least 20 applications. Grounded on cryptorun's
// internal/domain/guards package (GuardEvaluator.EvaluateAllGuards: an
// ordered chain of independent checks, first-failure-wins, a GuardResult
// per check) — generalized one level: this package's thresholds also
// adapt from observed outcomes, something cryptorun's guards do not.
package filters

import "github.com/sawpanic/signalengine/internal/config"

const adaptiveMinApplications = 20

// AdaptiveThreshold is a base value plus a multiplier that widens (or
// narrows) the effective threshold once enough outcome feedback has
// accumulated.
type AdaptiveThreshold struct {
	Base       float64
	multiplier float64

	applied         int
	rejectedWinners int
	rejectedLosers  int
}

// NewAdaptiveThreshold constructs a threshold at its base value with a
// neutral 1.0 multiplier.
func NewAdaptiveThreshold(base float64) *AdaptiveThreshold {
	return &AdaptiveThreshold{Base: base, multiplier: 1.0}
}

// Effective returns the threshold's current widened/narrowed value.
func (a *AdaptiveThreshold) Effective() float64 {
	return a.Base * a.multiplier
}

// RecordRejection feeds back whether a trade this filter rejected would
// have won or lost, had it been allowed through. Once at least 20
// rejections have been observed, the multiplier widens by 10% (capped at
// 2x base) whenever the filter has rejected more winners than losers, and
// narrows back toward 1x (floor 1x base) otherwise.
func (a *AdaptiveThreshold) RecordRejection(wouldHaveWon bool) {
	a.applied++
	if wouldHaveWon {
		a.rejectedWinners++
	} else {
		a.rejectedLosers++
	}
	if a.applied < adaptiveMinApplications {
		return
	}
	if a.rejectedWinners > a.rejectedLosers {
		a.multiplier *= 1.10
		if a.multiplier > 2.0 {
			a.multiplier = 2.0
		}
	} else if a.multiplier > 1.0 {
		a.multiplier *= 0.95
		if a.multiplier < 1.0 {
			a.multiplier = 1.0
		}
	}
}

// Thresholds collects every adaptive and fixed knob the filter chain
// consults.
type Thresholds struct {
	MinLiquidity       *AdaptiveThreshold // top-5 depth floor
	MaxSpreadBPS       *AdaptiveThreshold
	MaxVolatility      *AdaptiveThreshold
	MinVolatility      *AdaptiveThreshold
	MinMinutesToExpiry *AdaptiveThreshold

	HourFilterEnabled bool
	SuboptimalHours   map[int]bool // UTC hour-of-day

	CorrelationBandMin float64
	CorrelationBandMax float64

	MinConfidence float64
}

// DefaultThresholds mirrors the concrete numbers spec §4.10 leaves
// unpinned beyond naming each check; the values chosen are recorded as
// Open Question resolutions in DESIGN.md.
func DefaultThresholds() Thresholds {
	return Thresholds{
		MinLiquidity:       NewAdaptiveThreshold(10),
		MaxSpreadBPS:       NewAdaptiveThreshold(1500),
		MaxVolatility:      NewAdaptiveThreshold(0.03),
		MinVolatility:      NewAdaptiveThreshold(0.0005),
		MinMinutesToExpiry: NewAdaptiveThreshold(1.0),
		HourFilterEnabled:  false,
		SuboptimalHours:    map[int]bool{3: true, 4: true},
		CorrelationBandMin: -0.3,
		CorrelationBandMax: 0.9,
		MinConfidence:      0.55,
	}
}

// ThresholdsFromConfig builds a fresh set of adaptive thresholds seeded
// from a loaded Config document's FilterConfig and top-level
// min_confidence, so the §6 filter knobs actually drive the chain instead
// of this package silently re-deriving its own defaults.
func ThresholdsFromConfig(cfg *config.Config) Thresholds {
	hours := make(map[int]bool, len(cfg.Filters.SuboptimalHours))
	for _, h := range cfg.Filters.SuboptimalHours {
		hours[h] = true
	}
	return Thresholds{
		MinLiquidity:       NewAdaptiveThreshold(cfg.Filters.MinLiquidity),
		MaxSpreadBPS:       NewAdaptiveThreshold(cfg.Filters.MaxSpreadBPS),
		MaxVolatility:      NewAdaptiveThreshold(cfg.Filters.MaxVolatility),
		MinVolatility:      NewAdaptiveThreshold(cfg.Filters.MinVolatility),
		MinMinutesToExpiry: NewAdaptiveThreshold(cfg.Filters.MinMinutesToExpiry),
		HourFilterEnabled:  cfg.Filters.HourFilterEnabled,
		SuboptimalHours:    hours,
		CorrelationBandMin: cfg.Filters.CorrelationBandMin,
		CorrelationBandMax: cfg.Filters.CorrelationBandMax,
		MinConfidence:      cfg.MinConfidence,
	}
}
