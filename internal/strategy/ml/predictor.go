package ml

import (
	"crypto/sha256"
	"encoding/binary"
	"encoding/hex"
	"math"

	"github.com/sawpanic/signalengine/internal/config"
	"github.com/sawpanic/signalengine/internal/market"
)

const defaultRetrainIntervalTrades = 50

// RecordedPrediction is the attribution record spec §4.9 keeps for a
// successful prediction: timestamp, the prediction itself, and a digest
// of the feature vector that produced it, so a later settled outcome can
// be matched back to the exact inputs.
type RecordedPrediction struct {
	Timestamp  int64
	Prediction Prediction
	Digest     string
}

// Predictor wires the Ensemble to its Dataset and the retrain-on-interval
// policy spec §4.9 describes: every retrainIntervalTrades recorded
// outcomes, retrain on the current dataset, optionally class-balanced.
type Predictor struct {
	Ensemble *Ensemble
	Dataset  *Dataset

	retrainIntervalTrades int
	classBalance          bool
	outcomesSinceRetrain  int

	pending map[string]RecordedPrediction
}

// NewPredictor constructs a Predictor with the default 50-trade retrain
// interval and equal ensemble weights.
func NewPredictor(dynamicWeights, classBalance bool) *Predictor {
	return &Predictor{
		Ensemble:              NewEnsemble(dynamicWeights, nil),
		Dataset:               NewDataset(),
		retrainIntervalTrades: defaultRetrainIntervalTrades,
		classBalance:          classBalance,
		pending:               make(map[string]RecordedPrediction),
	}
}

// NewPredictorFromConfig builds a Predictor from a loaded Config's MLConfig
// sub-document, so ensemble_weights, dynamic_weights, class_balance and
// retrain_interval_trades actually drive the predictor instead of it
// falling back to NewPredictor's hardcoded defaults.
func NewPredictorFromConfig(cfg *config.MLConfig) *Predictor {
	retrainInterval := cfg.RetrainIntervalTrades
	if retrainInterval <= 0 {
		retrainInterval = defaultRetrainIntervalTrades
	}
	return &Predictor{
		Ensemble:              NewEnsemble(cfg.DynamicWeights, cfg.EnsembleWeights),
		Dataset:               NewDataset(),
		retrainIntervalTrades: retrainInterval,
		classBalance:          cfg.ClassBalance,
		pending:               make(map[string]RecordedPrediction),
	}
}

// FeatureDigest hashes a feature vector to a short hex digest for the
// attribution record.
func FeatureDigest(x []float64) string {
	h := sha256.New()
	buf := make([]byte, 8)
	for _, v := range x {
		binary.BigEndian.PutUint64(buf, math.Float64bits(v))
		h.Write(buf)
	}
	return hex.EncodeToString(h.Sum(nil))[:16]
}

// Predict runs the ensemble and records the prediction for later outcome
// attribution, keyed by its feature digest.
func (p *Predictor) Predict(x []float64, atMs int64) (Prediction, string) {
	pred := p.Ensemble.Predict(x)
	digest := FeatureDigest(x)
	p.pending[digest] = RecordedPrediction{Timestamp: atMs, Prediction: pred, Digest: digest}
	return pred, digest
}

// RecordOutcome attributes a settled outcome back to its prediction via
// digest, feeds the ensemble's per-model accuracy counters, appends a
// labeled sample to the dataset, and retrains once retrainIntervalTrades
// outcomes have accumulated.
func (p *Predictor) RecordOutcome(digest string, x []float64, asset market.Asset, tf market.Timeframe, atMs int64, wasUp bool) {
	delete(p.pending, digest)

	p.Ensemble.RecordOutcome(x, wasUp)

	target := 0.0
	if wasUp {
		target = 1.0
	}
	p.Dataset.Add(LabeledSample{
		Features:  x,
		Target:    target,
		Timestamp: atMs / 1000,
		Asset:     asset,
		Timeframe: tf,
	})

	p.outcomesSinceRetrain++
	if p.outcomesSinceRetrain >= p.retrainIntervalTrades {
		p.retrain()
		p.outcomesSinceRetrain = 0
	}
}

func (p *Predictor) retrain() {
	X, y := p.Dataset.XY()
	if len(X) == 0 {
		return
	}
	if p.classBalance {
		X, y = ClassBalanced(X, y)
	}
	p.Ensemble.Train(X, y)
}
