package calibration

import "math"

const metricBinCount = 10

type metricBin struct {
	sumP float64
	sumY float64
	n    int
}

// MarketCalibrationMetrics tracks the probability-calibration quality of
// one market-key: 10 equal-width bins over the predicted-probability
// range, each accumulating the mean predicted probability and mean
// observed outcome, plus the running sum of squared error for Brier.
type MarketCalibrationMetrics struct {
	MarketKey string
	bins      [metricBinCount]metricBin
	sumSqErr  float64
	n         int
}

// NewMarketCalibrationMetrics constructs an empty metrics tracker for one
// market-key.
func NewMarketCalibrationMetrics(marketKey string) *MarketCalibrationMetrics {
	return &MarketCalibrationMetrics{MarketKey: marketKey}
}

// RecordPrediction folds in one (predicted probability, realized outcome)
// pair per spec §4.7's record_prediction(p, y).
func (m *MarketCalibrationMetrics) RecordPrediction(p float64, y bool) {
	outcome := 0.0
	if y {
		outcome = 1.0
	}
	err := p - outcome
	m.sumSqErr += err * err
	m.n++

	idx := int(p * float64(metricBinCount))
	if idx >= metricBinCount {
		idx = metricBinCount - 1
	}
	if idx < 0 {
		idx = 0
	}
	m.bins[idx].sumP += p
	m.bins[idx].sumY += outcome
	m.bins[idx].n++
}

// Brier returns the mean squared error of predicted probability against
// realized outcome, 0 if no observations yet.
func (m *MarketCalibrationMetrics) Brier() float64 {
	if m.n == 0 {
		return 0
	}
	return m.sumSqErr / float64(m.n)
}

// ECE returns the expected calibration error: the bin-count-weighted mean
// absolute gap between each bin's average predicted probability and its
// average observed outcome.
func (m *MarketCalibrationMetrics) ECE() float64 {
	if m.n == 0 {
		return 0
	}
	ece := 0.0
	for _, b := range m.bins {
		if b.n == 0 {
			continue
		}
		avgP := b.sumP / float64(b.n)
		avgY := b.sumY / float64(b.n)
		ece += (float64(b.n) / float64(m.n)) * math.Abs(avgP-avgY)
	}
	return ece
}
