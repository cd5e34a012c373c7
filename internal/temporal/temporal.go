// Package temporal implements the temporal analyzer of spec §4.5: per-hour
// and per-weekday win/loss/confidence/edge counters and the two derived
// decisions, temporal_adjustment and should_block_trading. Grounded on the
// teacher's internal/score/calibration bucket-and-counter style (the same
// shape as internal/calibration's IndicatorStats, one level up in key
// granularity: hour-of-day and weekday instead of market/indicator name).
package temporal

import (
	"fmt"
	"time"

	"github.com/sawpanic/signalengine/internal/market"
)

const (
	minSamplesAdjustment = 5
	minSamplesBlock      = 15
	winRateBoostThresh   = 0.55
	winRatePenaltyThresh = 0.40
	penaltySampleFloor   = 10
	blockWinRateThresh   = 0.35

	boostMultiplier   = 1.12
	penaltyMultiplier = 0.3
)

// exploratoryHours get a small boost regardless of sample history; high-
// volatility hours get a penalty. UTC hour-of-day.
var (
	exploratoryHours  = map[int]bool{0: true, 8: true, 14: true}
	highVolatilityHrs = map[int]bool{13: true, 20: true}
)

// bucket accumulates outcomes for one (asset, timeframe, key) slot, where
// key is either an hour-of-day or a weekday.
type bucket struct {
	wins, losses   int
	confidenceSum  float64
	edgeSum        float64
	dominantUp     int
	dominantDown   int
}

func (b *bucket) samples() int { return b.wins + b.losses }

func (b *bucket) winRate() float64 {
	n := b.samples()
	if n == 0 {
		return 0
	}
	return float64(b.wins) / float64(n)
}

func (b *bucket) dominantDirection() market.Direction {
	if b.dominantUp >= b.dominantDown {
		return market.Up
	}
	return market.Down
}

// Analyzer keys buckets by (asset, timeframe, hour) and (asset, timeframe, weekday).
type Analyzer struct {
	hourBuckets    map[string]*bucket
	weekdayBuckets map[string]*bucket
}

// NewAnalyzer constructs an empty temporal Analyzer.
func NewAnalyzer() *Analyzer {
	return &Analyzer{
		hourBuckets:    make(map[string]*bucket),
		weekdayBuckets: make(map[string]*bucket),
	}
}

func hourKey(a market.Asset, tf market.Timeframe, hour int) string {
	return fmt.Sprintf("%s|%d", market.MarketKey(a, tf), hour)
}

func weekdayKey(a market.Asset, tf market.Timeframe, wd time.Weekday) string {
	return fmt.Sprintf("%s|%d", market.MarketKey(a, tf), int(wd))
}

// RecordOutcome folds a settled trade's outcome into both the hour and
// weekday buckets for its (asset, timeframe) at the given settlement time.
func (an *Analyzer) RecordOutcome(a market.Asset, tf market.Timeframe, direction market.Direction,
	won bool, confidence, edge float64, at time.Time) {

	hk := hourKey(a, tf, at.UTC().Hour())
	wk := weekdayKey(a, tf, at.UTC().Weekday())

	for _, b := range []*bucket{an.bucketFor(an.hourBuckets, hk), an.bucketFor(an.weekdayBuckets, wk)} {
		if won {
			b.wins++
		} else {
			b.losses++
		}
		b.confidenceSum += confidence
		b.edgeSum += edge
		if direction == market.Up {
			b.dominantUp++
		} else {
			b.dominantDown++
		}
	}
}

func (an *Analyzer) bucketFor(m map[string]*bucket, key string) *bucket {
	b, ok := m[key]
	if !ok {
		b = &bucket{}
		m[key] = b
	}
	return b
}

// TemporalAdjustment implements temporal_adjustment(asset, timeframe,
// direction, now) per spec §4.5: a multiplier applied to signal confidence
// plus the reason it was applied.
func (an *Analyzer) TemporalAdjustment(a market.Asset, tf market.Timeframe, direction market.Direction, now time.Time) (float64, string) {
	hour := now.UTC().Hour()
	b, ok := an.hourBuckets[hourKey(a, tf, hour)]

	if ok && b.samples() >= minSamplesAdjustment && b.winRate() > winRateBoostThresh && b.dominantDirection() == direction {
		return boostMultiplier, "temporal_boost_dominant_direction"
	}
	if ok && b.samples() > penaltySampleFloor && b.winRate() < winRatePenaltyThresh {
		return penaltyMultiplier, "temporal_penalty_low_win_rate"
	}
	if exploratoryHours[hour] {
		return 1.05, "temporal_exploratory_hour"
	}
	if highVolatilityHrs[hour] {
		return 0.9, "temporal_high_volatility_hour"
	}
	return 1.0, "temporal_neutral"
}

// ShouldBlockTrading implements should_block_trading(asset, timeframe, now)
// per spec §4.5: true when the hour bucket has ≥15 samples and win-rate <
// 0.35.
func (an *Analyzer) ShouldBlockTrading(a market.Asset, tf market.Timeframe, now time.Time) (bool, string) {
	b, ok := an.hourBuckets[hourKey(a, tf, now.UTC().Hour())]
	if !ok || b.samples() < minSamplesBlock {
		return false, ""
	}
	if b.winRate() < blockWinRateThresh {
		return true, "temporal_block:poor_hourly_win_rate"
	}
	return false, ""
}
