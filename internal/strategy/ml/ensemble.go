package ml

import "math"

const (
	insufficientEdgeThreshold = 0.03
	minOutcomesForDynamicWeighting = 50
)

// modelSlot pairs one ensemble member with its weight and running
// training-accuracy counters, the state dynamic weighting re-normalizes
// from.
type modelSlot struct {
	model  Model
	weight float64

	correct int
	total   int
}

// Ensemble is the ML strategy's three-model predictor of spec §4.9:
// random forest, simplified GBM, logistic regression, combined by
// weighted average with an optional dynamic re-weighting by each model's
// running training accuracy.
type Ensemble struct {
	slots          []*modelSlot
	dynamicWeights bool
	outcomesSeen   int
}

// NewEnsemble constructs the standard three-model ensemble. initialWeights,
// keyed by each Model's Name() ("random_forest", "gbm_simplified",
// "logistic_regression"), overrides that model's starting weight; nil (or
// a model absent from the map) keeps the equal 1.0 default, matching the
// §6 ensemble_weights knob's per-model override shape.
func NewEnsemble(dynamicWeights bool, initialWeights map[string]float64) *Ensemble {
	e := &Ensemble{
		slots: []*modelSlot{
			{model: NewRandomForest(), weight: 1.0},
			{model: NewGBM(), weight: 1.0},
			{model: NewLogisticRegression(), weight: 1.0},
		},
		dynamicWeights: dynamicWeights,
	}
	for _, s := range e.slots {
		if w, ok := initialWeights[s.model.Name()]; ok {
			s.weight = w
		}
	}
	return e
}

// Train fits every ensemble member on the same (X, y).
func (e *Ensemble) Train(X [][]float64, y []float64) {
	for _, s := range e.slots {
		s.model.Train(X, y)
	}
}

// Prediction is the ensemble's combined output for one feature vector.
type Prediction struct {
	PUp        float64
	Confidence float64
	PerModel   map[string]float64
}

// Predict computes p_up = sum(w_i * p_i) / sum(w_i) and the agreement-
// based confidence formula of spec §4.9.
func (e *Ensemble) Predict(x []float64) Prediction {
	perModel := make(map[string]float64, len(e.slots))
	ps := make([]float64, len(e.slots))
	weightSum := 0.0
	weighted := 0.0

	for i, s := range e.slots {
		p := s.model.Predict(x)
		ps[i] = p
		perModel[s.model.Name()] = p
		weighted += s.weight * p
		weightSum += s.weight
	}

	pEns := 0.5
	if weightSum > 0 {
		pEns = weighted / weightSum
	}

	meanAbsDiff := 0.0
	for _, p := range ps {
		meanAbsDiff += math.Abs(p - pEns)
	}
	meanAbsDiff /= float64(len(ps))

	confidence := (1-2*meanAbsDiff)*0.7 + math.Abs(pEns-0.5)*2*0.3
	confidence = clamp01(confidence)

	return Prediction{PUp: pEns, Confidence: confidence, PerModel: perModel}
}

// RecordOutcome feeds back whether each model's own directional call (p >
// 0.5 implies Up) matched the realized outcome, and re-normalizes weights
// by running accuracy once at least 50 outcomes have been recorded and
// dynamic weighting is enabled.
func (e *Ensemble) RecordOutcome(x []float64, wasUp bool) {
	e.outcomesSeen++
	for _, s := range e.slots {
		p := s.model.Predict(x)
		predictedUp := p > 0.5
		s.total++
		if predictedUp == wasUp {
			s.correct++
		}
	}
	if e.dynamicWeights && e.outcomesSeen >= minOutcomesForDynamicWeighting {
		e.renormalizeWeights()
	}
}

func (e *Ensemble) renormalizeWeights() {
	for _, s := range e.slots {
		if s.total == 0 {
			continue
		}
		s.weight = float64(s.correct) / float64(s.total)
	}
}

// ShouldSignal implements spec §4.9's post-ensemble gate: reject if
// confidence is below min_confidence or the edge |p_ens - 0.5| is below
// 0.03. The edge check has no dedicated entry in the closed rejection
// vocabulary of spec §6, so it falls back to strategy_no_signal, the
// vocabulary's own generic catch-all. Direction follows p_ens >= 0.5 -> Up.
func ShouldSignal(pred Prediction, minConfidence float64) (signal bool, reason string) {
	if pred.Confidence < minConfidence {
		return false, "confidence_below_min"
	}
	if math.Abs(pred.PUp-0.5) < insufficientEdgeThreshold {
		return false, "strategy_no_signal"
	}
	return true, ""
}

func clamp01(v float64) float64 {
	if v < 0 {
		return 0
	}
	if v > 1 {
		return 1
	}
	return v
}
