package persistence

import (
	"encoding/json"
	"fmt"
	"os"

	sigio "github.com/sawpanic/signalengine/internal/io"
)

// CalibratorDocument is the on-disk v2 calibrator state: per-bucket
// observed rates plus the running sample counts they were computed
// from, written after every retrain so a restart resumes calibrated
// rather than cold.
type CalibratorDocument struct {
	Version       int       `json:"version"`
	BucketBounds  []float64 `json:"bucket_bounds"`
	ObservedRates []float64 `json:"observed_rates"`
	SampleCounts  []int64   `json:"sample_counts"`
	DecayFactor   float64   `json:"decay_factor"`
}

const calibratorDocumentVersion = 2

// MLStateDocument is the ensemble's persisted training state: per-model
// weights and running accuracy counters, enough to resume dynamic
// weighting without replaying every historical outcome.
type MLStateDocument struct {
	ModelWeights   map[string]float64 `json:"model_weights"`
	ModelCorrect   map[string]int     `json:"model_correct"`
	ModelTotal     map[string]int     `json:"model_total"`
	OutcomesSeen   int                `json:"outcomes_seen"`
	DynamicWeights bool               `json:"dynamic_weights"`
}

// DatasetDocument is a JSON-serializable snapshot of a training dataset,
// used to seed internal/strategy/ml's Dataset on startup.
type DatasetDocument struct {
	Samples []DatasetSample `json:"samples"`
}

// DatasetSample mirrors ml.LabeledSample's JSON shape without importing
// the ml package, keeping persistence free of a dependency on strategy
// logic.
type DatasetSample struct {
	Features  []float64 `json:"features"`
	Target    float64   `json:"target"`
	Timestamp int64     `json:"timestamp"`
	Asset     string    `json:"asset"`
	Timeframe string    `json:"timeframe"`
}

// SaveCalibratorDocument atomically writes a calibrator document to
// disk, following internal/io's WriteJSONAtomic temp-file-then-rename
// pattern so a crash mid-write never leaves a truncated file in place.
func SaveCalibratorDocument(path string, doc CalibratorDocument) error {
	doc.Version = calibratorDocumentVersion
	return sigio.WriteJSONAtomic(path, doc)
}

// LoadCalibratorDocument reads a calibrator document from disk.
func LoadCalibratorDocument(path string) (*CalibratorDocument, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("read calibrator document: %w", err)
	}
	var doc CalibratorDocument
	if err := json.Unmarshal(data, &doc); err != nil {
		return nil, fmt.Errorf("parse calibrator document: %w", err)
	}
	return &doc, nil
}

// SaveMLStateDocument atomically writes ensemble training state to disk.
func SaveMLStateDocument(path string, doc MLStateDocument) error {
	return sigio.WriteJSONAtomic(path, doc)
}

// LoadMLStateDocument reads ensemble training state from disk.
func LoadMLStateDocument(path string) (*MLStateDocument, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("read ml state document: %w", err)
	}
	var doc MLStateDocument
	if err := json.Unmarshal(data, &doc); err != nil {
		return nil, fmt.Errorf("parse ml state document: %w", err)
	}
	return &doc, nil
}

// SaveDatasetDocument atomically writes a training dataset snapshot to
// disk.
func SaveDatasetDocument(path string, doc DatasetDocument) error {
	return sigio.WriteJSONAtomic(path, doc)
}

// LoadDatasetDocument reads a training dataset snapshot from disk.
func LoadDatasetDocument(path string) (*DatasetDocument, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("read dataset document: %w", err)
	}
	var doc DatasetDocument
	if err := json.Unmarshal(data, &doc); err != nil {
		return nil, fmt.Errorf("parse dataset document: %w", err)
	}
	return &doc, nil
}
