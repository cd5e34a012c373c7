package ml

import (
	"testing"

	"github.com/stretchr/testify/assert"

	"github.com/sawpanic/signalengine/internal/config"
	"github.com/sawpanic/signalengine/internal/features"
	"github.com/sawpanic/signalengine/internal/market"
)

func TestBuildFeatureVectorFixedArity(t *testing.T) {
	v := BuildFeatureVector(features.Snapshot{}, MarketContext{})
	assert.Len(t, v, FeatureVectorSize)
}

func TestBuildFeatureVectorUsesImpliedProbability(t *testing.T) {
	v := BuildFeatureVector(features.Snapshot{}, MarketContext{ImpliedProbability: 0.62})
	assert.Equal(t, 0.62, v[len(v)-1])
}

func linearlySeparableDataset(n int) ([][]float64, []float64) {
	X := make([][]float64, n)
	y := make([]float64, n)
	for i := 0; i < n; i++ {
		row := make([]float64, FeatureVectorSize)
		up := i%2 == 0
		if up {
			row[0] = 1.0
			y[i] = 1.0
		} else {
			row[0] = -1.0
			y[i] = 0.0
		}
		X[i] = row
	}
	return X, y
}

func TestRandomForestLearnsSeparableSignal(t *testing.T) {
	f := NewRandomForest()
	X, y := linearlySeparableDataset(40)
	f.Train(X, y)

	upRow := make([]float64, FeatureVectorSize)
	upRow[0] = 1.0
	downRow := make([]float64, FeatureVectorSize)
	downRow[0] = -1.0

	assert.Greater(t, f.Predict(upRow), 0.5)
	assert.Less(t, f.Predict(downRow), 0.5)
}

func TestGBMUsesShallowerSmallerForest(t *testing.T) {
	g := NewGBM()
	assert.Equal(t, 50, g.nTrees)
	assert.Equal(t, 5, g.params.maxDepth)
}

func TestLogisticRegressionPredictsDefaultBeforeTrain(t *testing.T) {
	m := NewLogisticRegression()
	assert.Equal(t, 0.5, m.Predict(make([]float64, FeatureVectorSize)))
}

func TestLogisticRegressionLearnsSeparableSignal(t *testing.T) {
	m := NewLogisticRegression()
	X, y := linearlySeparableDataset(60)
	m.Train(X, y)

	upRow := make([]float64, FeatureVectorSize)
	upRow[0] = 1.0
	downRow := make([]float64, FeatureVectorSize)
	downRow[0] = -1.0

	assert.Greater(t, m.Predict(upRow), 0.5)
	assert.Less(t, m.Predict(downRow), 0.5)
}

func TestEnsemblePredictConfidenceBounds(t *testing.T) {
	e := NewEnsemble(false, nil)
	X, y := linearlySeparableDataset(40)
	e.Train(X, y)

	row := make([]float64, FeatureVectorSize)
	row[0] = 1.0
	pred := e.Predict(row)

	assert.GreaterOrEqual(t, pred.Confidence, 0.0)
	assert.LessOrEqual(t, pred.Confidence, 1.0)
	assert.Len(t, pred.PerModel, 3)
}

func TestEnsembleDynamicWeightingRenormalizesAfterFiftyOutcomes(t *testing.T) {
	e := NewEnsemble(true, nil)
	X, y := linearlySeparableDataset(40)
	e.Train(X, y)

	row := make([]float64, FeatureVectorSize)
	row[0] = 1.0
	for i := 0; i < minOutcomesForDynamicWeighting; i++ {
		e.RecordOutcome(row, true)
	}
	assert.Equal(t, minOutcomesForDynamicWeighting, e.outcomesSeen)
	for _, s := range e.slots {
		assert.Equal(t, minOutcomesForDynamicWeighting, s.total)
	}
}

func TestShouldSignalRejectsBelowMinConfidence(t *testing.T) {
	signal, reason := ShouldSignal(Prediction{PUp: 0.9, Confidence: 0.3}, 0.55)
	assert.False(t, signal)
	assert.Equal(t, "confidence_below_min", reason)
}

func TestShouldSignalRejectsInsufficientEdge(t *testing.T) {
	signal, reason := ShouldSignal(Prediction{PUp: 0.51, Confidence: 0.9}, 0.55)
	assert.False(t, signal)
	assert.Equal(t, "strategy_no_signal", reason)
}

func TestShouldSignalAccepts(t *testing.T) {
	signal, reason := ShouldSignal(Prediction{PUp: 0.7, Confidence: 0.8}, 0.55)
	assert.True(t, signal)
	assert.Empty(t, reason)
}

func TestDatasetCapsAtOneThousand(t *testing.T) {
	d := NewDataset()
	for i := 0; i < 1100; i++ {
		d.Add(LabeledSample{Timestamp: int64(i)})
	}
	assert.Equal(t, 1000, d.Len())
	assert.Equal(t, int64(100), d.Samples()[0].Timestamp)
}

func TestClassBalancedUpSamplesMinority(t *testing.T) {
	X := [][]float64{{1}, {2}, {3}, {4}}
	y := []float64{1, 0, 0, 0}
	balancedX, balancedY := ClassBalanced(X, y)

	ones, zeros := 0, 0
	for _, v := range balancedY {
		if v >= 0.5 {
			ones++
		} else {
			zeros++
		}
	}
	assert.Equal(t, ones, zeros)
	assert.Len(t, balancedX, len(balancedY))
}

func TestPredictorRetrainsAfterIntervalTrades(t *testing.T) {
	p := NewPredictor(false, false)
	x := make([]float64, FeatureVectorSize)
	x[0] = 1.0

	for i := 0; i < defaultRetrainIntervalTrades; i++ {
		_, digest := p.Predict(x, int64(i)*1000)
		p.RecordOutcome(digest, x, market.BTC, market.TF15M, int64(i)*1000, true)
	}
	assert.Equal(t, 0, p.outcomesSinceRetrain)
	assert.Equal(t, defaultRetrainIntervalTrades, p.Dataset.Len())
}

func TestNewPredictorFromConfigAppliesEnsembleWeightOverrides(t *testing.T) {
	cfg := &config.MLConfig{
		EnsembleWeights: map[string]float64{
			"random_forest":       2.0,
			"gbm_simplified":      0.5,
			"logistic_regression": 1.0,
		},
		DynamicWeights:        true,
		ClassBalance:          true,
		RetrainIntervalTrades: 10,
	}
	p := NewPredictorFromConfig(cfg)

	weights := make(map[string]float64, len(p.Ensemble.slots))
	for _, s := range p.Ensemble.slots {
		weights[s.model.Name()] = s.weight
	}
	assert.Equal(t, 2.0, weights["random_forest"])
	assert.Equal(t, 0.5, weights["gbm_simplified"])
	assert.Equal(t, 10, p.retrainIntervalTrades)
	assert.True(t, p.classBalance)
}

func TestNewPredictorFromConfigFallsBackToDefaultRetrainInterval(t *testing.T) {
	cfg := &config.MLConfig{RetrainIntervalTrades: 0}
	p := NewPredictorFromConfig(cfg)
	assert.Equal(t, defaultRetrainIntervalTrades, p.retrainIntervalTrades)
}

func TestWalkForwardWithWindowHonorsConfiguredTrainTestDays(t *testing.T) {
	var samples []LabeledSample
	for day := 0; day < 20; day++ {
		row := make([]float64, FeatureVectorSize)
		target := 0.0
		if day%2 == 0 {
			row[0] = 1.0
			target = 1.0
		} else {
			row[0] = -1.0
		}
		samples = append(samples, LabeledSample{
			Features:  row,
			Target:    target,
			Timestamp: int64(day) * daySeconds,
		})
	}

	report := WalkForwardWithWindow(samples, false, 10, 5)
	assert.NotEmpty(t, report.Windows)
	for _, w := range report.Windows {
		assert.Equal(t, int64(10*daySeconds), w.TrainEnd-w.TrainStart)
		assert.Equal(t, int64(5*daySeconds), w.TestEnd-w.TestStart)
	}
}

func TestWalkForwardProducesConsistencyScoreInRange(t *testing.T) {
	var samples []LabeledSample
	for day := 0; day < 60; day++ {
		for k := 0; k < 5; k++ {
			up := (day+k)%2 == 0
			row := make([]float64, FeatureVectorSize)
			target := 0.0
			if up {
				row[0] = 1.0
				target = 1.0
			} else {
				row[0] = -1.0
			}
			samples = append(samples, LabeledSample{
				Features:  row,
				Target:    target,
				Timestamp: int64(day) * daySeconds,
			})
		}
	}

	report := WalkForward(samples, false)
	assert.GreaterOrEqual(t, report.ConsistencyScore, 0.0)
	assert.LessOrEqual(t, report.ConsistencyScore, 1.0)
}
