// Package ml implements the ML ensemble strategy of spec §4.9: a
// fixed-arity feature vector built from a Features snapshot plus market
// context, a three-model ensemble (random forest, a shallower "GBM"
// forest, logistic regression), dynamic weight re-normalization by
// running training accuracy, a capped labeled dataset, and walk-forward
// validation. Grounded structurally on cryptorun's
// internal/score/composite package (weighted multi-component scoring with
// a combine-then-threshold shape, the same role this package's ensemble
// plays one level up) — no repo in the pack ships a tabular ML library, so
// the trees are built on the standard library alone, the one deliberate
// stdlib-only component in this module, and the logistic regression on
// gonum/mat (see DESIGN.md).
package ml

import "github.com/sawpanic/signalengine/internal/market"

const datasetCap = 1000

// LabeledSample is one training example per spec §6's persisted Dataset
// contract.
type LabeledSample struct {
	Features  []float64
	Target    float64 // 0.0 or 1.0
	Timestamp int64
	Asset     market.Asset
	Timeframe market.Timeframe
	Metadata  map[string]string
}

// Dataset is a capped, insertion-ordered FIFO of labeled samples.
type Dataset struct {
	samples []LabeledSample
}

// NewDataset constructs an empty Dataset.
func NewDataset() *Dataset {
	return &Dataset{}
}

// Add appends a labeled sample, evicting the oldest once the 1000-sample
// cap is reached.
func (d *Dataset) Add(s LabeledSample) {
	d.samples = append(d.samples, s)
	if len(d.samples) > datasetCap {
		d.samples = d.samples[len(d.samples)-datasetCap:]
	}
}

// Len reports the current sample count.
func (d *Dataset) Len() int { return len(d.samples) }

// Samples returns the retained samples in insertion order.
func (d *Dataset) Samples() []LabeledSample {
	return d.samples
}

// XY splits the dataset into parallel feature-matrix and target-vector
// slices, the shape every Model.Train expects.
func (d *Dataset) XY() (X [][]float64, y []float64) {
	X = make([][]float64, len(d.samples))
	y = make([]float64, len(d.samples))
	for i, s := range d.samples {
		X[i] = s.Features
		y[i] = s.Target
	}
	return
}

// ClassBalanced returns a copy of (X, y) up-sampled so the minority class
// has as many rows as the majority class, by cycling through its
// original rows. Used ahead of a retrain when spec §4.9's optional
// class-balancing is enabled.
func ClassBalanced(X [][]float64, y []float64) ([][]float64, []float64) {
	var ones, zeros []int
	for i, v := range y {
		if v >= 0.5 {
			ones = append(ones, i)
		} else {
			zeros = append(zeros, i)
		}
	}
	if len(ones) == 0 || len(zeros) == 0 {
		return X, y
	}
	minority, majority := ones, zeros
	if len(zeros) < len(ones) {
		minority, majority = zeros, ones
	}
	outX := make([][]float64, 0, len(X)+len(majority)-len(minority))
	outY := make([]float64, 0, cap(outX))
	for _, i := range majority {
		outX = append(outX, X[i])
		outY = append(outY, y[i])
	}
	for i := 0; i < len(majority); i++ {
		idx := minority[i%len(minority)]
		outX = append(outX, X[idx])
		outY = append(outY, y[idx])
	}
	return outX, outY
}
