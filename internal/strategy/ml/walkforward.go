package ml

import "math"

const (
	walkForwardTrainDays = 30
	walkForwardTestDays  = 7
	walkForwardStepDays  = 7
	daySeconds           = 86400
	winPayoff            = 0.80
	lossPayoff           = -1.00
)

// WindowResult is one walk-forward window's evaluation, per spec §4.9.
type WindowResult struct {
	TrainStart, TrainEnd int64
	TestStart, TestEnd   int64
	Accuracy             float64
	WinRate              float64
	ProfitFactor         float64
	Sharpe               float64
	MaxDrawdown          float64
}

// Report is the full walk-forward validation output: every window's
// result plus the consistency score spec §4.9 defines as 1 - stdev of
// per-window accuracies, clamped to [0,1].
type Report struct {
	Windows          []WindowResult
	ConsistencyScore float64
}

// WalkForward chronologically steps train/test windows of
// walkForwardTrainDays/TestDays (default 30/7), advancing
// walkForwardStepDays (default 7) each iteration, training a fresh
// ensemble on each train window and evaluating it on the following test
// window. samples must already be sorted by Timestamp ascending.
func WalkForward(samples []LabeledSample, dynamicWeights bool) Report {
	return WalkForwardWithWindow(samples, dynamicWeights, walkForwardTrainDays, walkForwardTestDays)
}

// WalkForwardWithWindow is WalkForward with the train/test window lengths
// (walk_forward_train_days/walk_forward_test_days) taken as parameters
// instead of the package defaults, so a loaded Config document's MLConfig
// actually drives the validation window.
func WalkForwardWithWindow(samples []LabeledSample, dynamicWeights bool, trainDays, testDays int) Report {
	if len(samples) == 0 {
		return Report{}
	}

	start := samples[0].Timestamp
	end := samples[len(samples)-1].Timestamp

	trainSpan := int64(trainDays * daySeconds)
	testSpan := int64(testDays * daySeconds)
	step := int64(walkForwardStepDays * daySeconds)

	var windows []WindowResult
	for trainStart := start; trainStart+trainSpan+testSpan <= end; trainStart += step {
		trainEnd := trainStart + trainSpan
		testEnd := trainEnd + testSpan

		train := sliceBetween(samples, trainStart, trainEnd)
		test := sliceBetween(samples, trainEnd, testEnd)
		if len(train) == 0 || len(test) == 0 {
			continue
		}

		ens := NewEnsemble(dynamicWeights, nil)
		X, y := toXY(train)
		ens.Train(X, y)

		windows = append(windows, evaluateWindow(ens, test, trainStart, trainEnd, trainEnd, testEnd))
	}

	return Report{Windows: windows, ConsistencyScore: consistencyScore(windows)}
}

func sliceBetween(samples []LabeledSample, fromInclusive, toExclusive int64) []LabeledSample {
	var out []LabeledSample
	for _, s := range samples {
		if s.Timestamp >= fromInclusive && s.Timestamp < toExclusive {
			out = append(out, s)
		}
	}
	return out
}

func toXY(samples []LabeledSample) ([][]float64, []float64) {
	X := make([][]float64, len(samples))
	y := make([]float64, len(samples))
	for i, s := range samples {
		X[i] = s.Features
		y[i] = s.Target
	}
	return X, y
}

func evaluateWindow(ens *Ensemble, test []LabeledSample, trainStart, trainEnd, testStart, testEnd int64) WindowResult {
	correct := 0
	wins := 0
	var grossProfit, grossLoss float64
	returns := make([]float64, 0, len(test))
	equity := 0.0
	peak := 0.0
	maxDrawdown := 0.0

	for _, s := range test {
		pred := ens.Predict(s.Features)
		predictedUp := pred.PUp >= 0.5
		actualUp := s.Target >= 0.5
		if predictedUp == actualUp {
			correct++
		}

		payoff := lossPayoff
		if predictedUp == actualUp {
			payoff = winPayoff
			wins++
			grossProfit += payoff
		} else {
			grossLoss += -payoff
		}
		returns = append(returns, payoff)

		equity += payoff
		if equity > peak {
			peak = equity
		}
		if dd := peak - equity; dd > maxDrawdown {
			maxDrawdown = dd
		}
	}

	n := float64(len(test))
	accuracy := float64(correct) / n
	winRate := float64(wins) / n

	profitFactor := 0.0
	if grossLoss > 0 {
		profitFactor = grossProfit / grossLoss
	} else if grossProfit > 0 {
		profitFactor = math.Inf(1)
	}

	return WindowResult{
		TrainStart:   trainStart,
		TrainEnd:     trainEnd,
		TestStart:    testStart,
		TestEnd:      testEnd,
		Accuracy:     accuracy,
		WinRate:      winRate,
		ProfitFactor: profitFactor,
		Sharpe:       annualizedSharpe(returns),
		MaxDrawdown:  maxDrawdown,
	}
}

// annualizedSharpe scales the per-trade mean/stdev return ratio by
// sqrt(252), per spec §4.11's 252-period annualization convention reused
// here for walk-forward reporting.
func annualizedSharpe(returns []float64) float64 {
	n := float64(len(returns))
	if n == 0 {
		return 0
	}
	mean := 0.0
	for _, r := range returns {
		mean += r
	}
	mean /= n

	variance := 0.0
	for _, r := range returns {
		d := r - mean
		variance += d * d
	}
	variance /= n
	stdev := math.Sqrt(variance)
	if stdev == 0 {
		return 0
	}
	return (mean / stdev) * math.Sqrt(252)
}

func consistencyScore(windows []WindowResult) float64 {
	if len(windows) == 0 {
		return 0
	}
	mean := 0.0
	for _, w := range windows {
		mean += w.Accuracy
	}
	mean /= float64(len(windows))

	variance := 0.0
	for _, w := range windows {
		d := w.Accuracy - mean
		variance += d * d
	}
	variance /= float64(len(windows))
	stdev := math.Sqrt(variance)

	return clamp01(1 - stdev)
}
