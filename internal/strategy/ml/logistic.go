package ml

import (
	"math"

	"gonum.org/v1/gonum/mat"
)

const (
	logisticLearningRate = 0.1
	logisticEpochs       = 200
	logisticL2           = 0.001
)

// LogisticRegression is the third ensemble member spec §4.9 names,
// trained by batch gradient descent on the cross-entropy loss with a
// small L2 penalty. Grounded on gonum/mat for the weight-vector algebra —
// the same library internal/crossasset already draws on for Pearson
// correlation, and the only linear-algebra package the example pack
// references anywhere.
type LogisticRegression struct {
	weights *mat.VecDense // length nFeatures+1, weights[0] is the bias
}

// NewLogisticRegression constructs an untrained LogisticRegression.
func NewLogisticRegression() *LogisticRegression {
	return &LogisticRegression{}
}

func (m *LogisticRegression) Name() string { return "logistic_regression" }

func sigmoid(z float64) float64 {
	return 1.0 / (1.0 + math.Exp(-z))
}

func withBias(x []float64) []float64 {
	out := make([]float64, len(x)+1)
	out[0] = 1.0
	copy(out[1:], x)
	return out
}

// Train runs batch gradient descent for a fixed epoch count. logisticEpochs
// and logisticLearningRate are small enough that this stays bounded work
// per retrain even on the full 1000-sample dataset.
func (m *LogisticRegression) Train(X [][]float64, y []float64) {
	if len(X) == 0 {
		return
	}
	nFeatures := len(X[0]) + 1
	weights := make([]float64, nFeatures)
	n := float64(len(X))

	for epoch := 0; epoch < logisticEpochs; epoch++ {
		gradients := make([]float64, nFeatures)
		for i, row := range X {
			xb := withBias(row)
			z := dot(weights, xb)
			pred := sigmoid(z)
			errTerm := pred - y[i]
			for j, xv := range xb {
				gradients[j] += errTerm * xv
			}
		}
		for j := range weights {
			grad := gradients[j]/n + logisticL2*weights[j]
			weights[j] -= logisticLearningRate * grad
		}
	}
	m.weights = mat.NewVecDense(nFeatures, weights)
}

// Predict returns the sigmoid of the learned linear combination, 0.5 (no
// information) before Train has run.
func (m *LogisticRegression) Predict(x []float64) float64 {
	if m.weights == nil {
		return 0.5
	}
	xb := withBias(x)
	sum := 0.0
	for j := 0; j < m.weights.Len() && j < len(xb); j++ {
		sum += m.weights.AtVec(j) * xb[j]
	}
	return sigmoid(sum)
}

func dot(a, b []float64) float64 {
	sum := 0.0
	for i := range a {
		sum += a[i] * b[i]
	}
	return sum
}
