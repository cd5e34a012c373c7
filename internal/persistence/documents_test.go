package persistence

import (
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestCalibratorDocumentRoundTrips(t *testing.T) {
	path := filepath.Join(t.TempDir(), "calibrator.json")
	doc := CalibratorDocument{
		BucketBounds:  []float64{0.5, 0.6, 0.7},
		ObservedRates: []float64{0.55, 0.68},
		SampleCounts:  []int64{20, 35},
		DecayFactor:   0.98,
	}

	require.NoError(t, SaveCalibratorDocument(path, doc))

	loaded, err := LoadCalibratorDocument(path)
	require.NoError(t, err)
	assert.Equal(t, calibratorDocumentVersion, loaded.Version)
	assert.Equal(t, doc.BucketBounds, loaded.BucketBounds)
	assert.Equal(t, doc.ObservedRates, loaded.ObservedRates)
}

func TestMLStateDocumentRoundTrips(t *testing.T) {
	path := filepath.Join(t.TempDir(), "ml_state.json")
	doc := MLStateDocument{
		ModelWeights:   map[string]float64{"random_forest": 0.7, "logistic_regression": 0.3},
		ModelCorrect:   map[string]int{"random_forest": 40},
		ModelTotal:     map[string]int{"random_forest": 55},
		OutcomesSeen:   55,
		DynamicWeights: true,
	}

	require.NoError(t, SaveMLStateDocument(path, doc))

	loaded, err := LoadMLStateDocument(path)
	require.NoError(t, err)
	assert.Equal(t, doc.OutcomesSeen, loaded.OutcomesSeen)
	assert.Equal(t, doc.ModelWeights["random_forest"], loaded.ModelWeights["random_forest"])
}

func TestDatasetDocumentRoundTrips(t *testing.T) {
	path := filepath.Join(t.TempDir(), "dataset.json")
	doc := DatasetDocument{
		Samples: []DatasetSample{
			{Features: []float64{1, 2, 3}, Target: 1.0, Timestamp: 1000, Asset: "BTC", Timeframe: "15M"},
			{Features: []float64{4, 5, 6}, Target: 0.0, Timestamp: 2000, Asset: "ETH", Timeframe: "1H"},
		},
	}

	require.NoError(t, SaveDatasetDocument(path, doc))

	loaded, err := LoadDatasetDocument(path)
	require.NoError(t, err)
	assert.Len(t, loaded.Samples, 2)
	assert.Equal(t, "BTC", loaded.Samples[0].Asset)
}

func TestLoadCalibratorDocumentMissingFile(t *testing.T) {
	_, err := LoadCalibratorDocument(filepath.Join(t.TempDir(), "missing.json"))
	assert.Error(t, err)
}
