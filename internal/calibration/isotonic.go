package calibration

import "sort"

const (
	isotonicBinCount       = 10
	isotonicRefreshEvery   = 50
	isotonicRetentionFIFO  = 1000
)

// observation is one raw-probability/outcome pair awaiting calibration.
type observation struct {
	p float64
	y bool
}

// ProbabilityCalibrator maps a raw predicted probability onto a calibrated
// one via isotonic regression: 10 equal-width bins over [0,1], followed by
// Pool-Adjacent-Violators to enforce monotonicity. Adapted from the
// teacher's IsotonicCalibrator (internal/score/calibration/isotonic.go) —
// same PAVA core, generalized from a composite-score domain to this
// spec's raw-probability domain, and refitted on a fixed 50-observation
// cadence instead of a time-based refresh interval.
type ProbabilityCalibrator struct {
	observations []observation // FIFO, capped at 1000
	sinceRefit   int

	curveX []float64 // monotone increasing raw probabilities
	curveY []float64 // corresponding calibrated probabilities
}

// NewProbabilityCalibrator constructs an empty ProbabilityCalibrator.
func NewProbabilityCalibrator() *ProbabilityCalibrator {
	return &ProbabilityCalibrator{}
}

// Record adds a new (raw probability, outcome) observation, retaining at
// most 1000 FIFO, and refits the calibration curve every 50 new
// observations.
func (c *ProbabilityCalibrator) Record(p float64, y bool) {
	c.observations = append(c.observations, observation{p: p, y: y})
	if len(c.observations) > isotonicRetentionFIFO {
		c.observations = c.observations[len(c.observations)-isotonicRetentionFIFO:]
	}
	c.sinceRefit++
	if c.sinceRefit >= isotonicRefreshEvery {
		c.refit()
		c.sinceRefit = 0
	}
}

// Calibrate maps a raw probability through the fitted curve via linear
// interpolation. Returns the raw probability unchanged if no curve has
// been fitted yet.
func (c *ProbabilityCalibrator) Calibrate(p float64) float64 {
	if len(c.curveX) == 0 {
		return p
	}
	if p <= c.curveX[0] {
		return c.curveY[0]
	}
	if p >= c.curveX[len(c.curveX)-1] {
		return c.curveY[len(c.curveY)-1]
	}
	for i := 1; i < len(c.curveX); i++ {
		if p <= c.curveX[i] {
			x0, x1 := c.curveX[i-1], c.curveX[i]
			y0, y1 := c.curveY[i-1], c.curveY[i]
			if x1 == x0 {
				return y0
			}
			weight := (p - x0) / (x1 - x0)
			return y0 + weight*(y1-y0)
		}
	}
	return c.curveY[len(c.curveY)-1]
}

func (c *ProbabilityCalibrator) refit() {
	if len(c.observations) == 0 {
		return
	}
	obs := append([]observation(nil), c.observations...)
	sort.Slice(obs, func(i, j int) bool { return obs[i].p < obs[j].p })

	type bin struct {
		sumP  float64
		sumY  float64
		count int
	}
	bins := make([]bin, isotonicBinCount)
	for _, o := range obs {
		idx := int(o.p * float64(isotonicBinCount))
		if idx >= isotonicBinCount {
			idx = isotonicBinCount - 1
		}
		if idx < 0 {
			idx = 0
		}
		outcome := 0.0
		if o.y {
			outcome = 1
		}
		bins[idx].sumP += o.p
		bins[idx].sumY += outcome
		bins[idx].count++
	}

	var xs, ys, weights []float64
	for _, b := range bins {
		if b.count == 0 {
			continue
		}
		xs = append(xs, b.sumP/float64(b.count))
		ys = append(ys, b.sumY/float64(b.count))
		weights = append(weights, float64(b.count))
	}

	poolAdjacentViolators(xs, ys, weights)
	c.curveX = xs
	c.curveY = ys
}

// poolAdjacentViolators enforces ys non-decreasing in place by repeatedly
// merging violating adjacent points into their weighted mean, mirroring
// cryptorun's poolViolators routine.
func poolAdjacentViolators(xs, ys, weights []float64) {
	for i := 1; i < len(ys); i++ {
		if ys[i] < ys[i-1] {
			pool(xs, ys, weights, i)
			i = 0
		}
	}
}

func pool(xs, ys, weights []float64, violatorIndex int) {
	start := violatorIndex - 1
	end := violatorIndex
	for start > 0 && ys[start] > ys[start-1] {
		start--
	}
	for end < len(ys)-1 && ys[end] > ys[end+1] {
		end++
	}

	var totalWeight, weightedY, weightedX float64
	for i := start; i <= end; i++ {
		totalWeight += weights[i]
		weightedY += weights[i] * ys[i]
		weightedX += weights[i] * xs[i]
	}
	pooledY := weightedY / totalWeight
	pooledX := weightedX / totalWeight
	for i := start; i <= end; i++ {
		ys[i] = pooledY
		xs[i] = pooledX
	}
}
