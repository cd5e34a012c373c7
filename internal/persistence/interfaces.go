// Package persistence defines the engine's storage contracts: generated
// signals, ML prediction/outcome attribution records, and calibration
// snapshots, each behind a repository interface so sqlstore (sqlx +
// lib/pq) and rediscache (go-redis) can implement or decorate them
// independently of the domain logic that calls them.
//
// Grounded on cryptorun's own internal/persistence/interfaces.go: the
// TimeRange-windowed Repo-interface-per-entity shape (Insert/InsertBatch,
// List*, Count, stats), the Repository aggregate struct, and the
// HealthCheck/RepositoryHealth pair — generalized from cryptorun's
// trade/regime/premove domain to this engine's signal/prediction/
// calibration domain.
package persistence

import (
	"context"
	"time"
)

// TimeRange is an inclusive-from, exclusive-to query window.
type TimeRange struct {
	From time.Time `json:"from"`
	To   time.Time `json:"to"`
}

// SignalRecord is the persisted form of a GeneratedSignal (spec §3):
// asset, timeframe, direction, confidence, the ordered reason strings,
// and the indicator names that contributed.
type SignalRecord struct {
	ID              int64             `json:"id" db:"id"`
	Timestamp       time.Time         `json:"ts" db:"ts"`
	Asset           string            `json:"asset" db:"asset"`
	Timeframe       string            `json:"timeframe" db:"timeframe"`
	Direction       string            `json:"direction" db:"direction"`
	Confidence      float64           `json:"confidence" db:"confidence"`
	Reasons         []string          `json:"reasons" db:"reasons"`
	IndicatorsUsed  []string          `json:"indicators_used" db:"indicators_used"`
	RejectReason    *string           `json:"reject_reason,omitempty" db:"reject_reason"`
	Metadata        map[string]any    `json:"metadata,omitempty" db:"metadata"`
	CreatedAt       time.Time         `json:"created_at" db:"created_at"`
}

// MLOutcomeRecord is a settled prediction→outcome attribution row, the
// durable counterpart of ml.Predictor's in-memory pending map (spec
// §4.9's "timestamp, prediction, features digest" persisted record).
type MLOutcomeRecord struct {
	ID              int64     `json:"id" db:"id"`
	Timestamp       time.Time `json:"ts" db:"ts"`
	Asset           string    `json:"asset" db:"asset"`
	Timeframe       string    `json:"timeframe" db:"timeframe"`
	FeaturesDigest  string    `json:"features_digest" db:"features_digest"`
	PredictedPUp    float64   `json:"predicted_p_up" db:"predicted_p_up"`
	Confidence      float64   `json:"confidence" db:"confidence"`
	WasUp           bool      `json:"was_up" db:"was_up"`
	CreatedAt       time.Time `json:"created_at" db:"created_at"`
}

// CalibrationSnapshot is a persisted confidence-calibration state: bucket
// boundaries, observed-vs-predicted rates per bucket, and the decay
// factor in effect when the snapshot was taken.
type CalibrationSnapshot struct {
	Timestamp      time.Time          `json:"ts" db:"ts"`
	BucketBounds   []float64          `json:"bucket_bounds" db:"bucket_bounds"`
	ObservedRates  []float64          `json:"observed_rates" db:"observed_rates"`
	SampleCounts   []int64            `json:"sample_counts" db:"sample_counts"`
	DecayFactor    float64            `json:"decay_factor" db:"decay_factor"`
	CreatedAt      time.Time          `json:"created_at" db:"created_at"`
}

// SignalsRepo persists GeneratedSignal decisions for audit and backtest
// replay.
type SignalsRepo interface {
	// Insert adds a single signal record.
	Insert(ctx context.Context, rec SignalRecord) error

	// InsertBatch adds multiple signal records atomically.
	InsertBatch(ctx context.Context, recs []SignalRecord) error

	// ListByAsset retrieves signals for an asset within a time range,
	// ordered by timestamp ascending (PIT order).
	ListByAsset(ctx context.Context, asset string, tr TimeRange, limit int) ([]SignalRecord, error)

	// ListRejected retrieves signals that were blocked, grouped
	// implicitly by RejectReason for diagnostics.
	ListRejected(ctx context.Context, tr TimeRange, limit int) ([]SignalRecord, error)

	// CountByRejectReason returns rejection counts per reason in a
	// window, the input to the smart filter chain's adaptive-threshold
	// winner/loser bookkeeping once outcomes are joined in.
	CountByRejectReason(ctx context.Context, tr TimeRange) (map[string]int64, error)

	// Latest returns the most recent accepted signals across all assets.
	Latest(ctx context.Context, limit int) ([]SignalRecord, error)
}

// MLOutcomesRepo persists settled prediction outcomes for walk-forward
// analysis and dynamic-weight recovery after a restart.
type MLOutcomesRepo interface {
	// Insert adds a single outcome record.
	Insert(ctx context.Context, rec MLOutcomeRecord) error

	// InsertBatch adds multiple outcome records atomically.
	InsertBatch(ctx context.Context, recs []MLOutcomeRecord) error

	// ListByAsset retrieves outcome records for an asset within a time
	// range, ordered by timestamp ascending, for walk-forward replay.
	ListByAsset(ctx context.Context, asset string, tr TimeRange, limit int) ([]MLOutcomeRecord, error)

	// Accuracy returns the realized accuracy (predicted direction vs
	// was_up) over a window.
	Accuracy(ctx context.Context, tr TimeRange) (float64, error)
}

// CalibrationRepo persists calibration snapshots so a restarted process
// resumes from the last known bucket state instead of a cold uniform
// prior.
type CalibrationRepo interface {
	// Upsert stores the current calibration snapshot, keyed by
	// timestamp.
	Upsert(ctx context.Context, snap CalibrationSnapshot) error

	// Latest returns the most recent calibration snapshot.
	Latest(ctx context.Context) (*CalibrationSnapshot, error)

	// ListRange retrieves calibration snapshots within a time window
	// for drift analysis.
	ListRange(ctx context.Context, tr TimeRange) ([]CalibrationSnapshot, error)
}

// Repository aggregates the engine's persistence interfaces behind one
// handle, following cryptorun's own Repository struct shape.
type Repository struct {
	Signals     SignalsRepo
	MLOutcomes  MLOutcomesRepo
	Calibration CalibrationRepo
}

// HealthCheck is the repository layer's health status, consumed by
// internal/httpapi's /healthz handler.
type HealthCheck struct {
	Healthy        bool           `json:"healthy"`
	Errors         []string       `json:"errors,omitempty"`
	ConnectionPool map[string]int `json:"connection_pool"`
	LastCheck      time.Time      `json:"last_check"`
	ResponseTimeMS int64          `json:"response_time_ms"`
}

// RepositoryHealth provides health monitoring for the persistence layer.
type RepositoryHealth interface {
	// Health returns current repository health status.
	Health(ctx context.Context) HealthCheck

	// Ping tests basic connectivity to the backing store.
	Ping(ctx context.Context) error

	// Stats returns connection pool and query statistics.
	Stats(ctx context.Context) map[string]any
}
