package sqlstore

import (
	"context"
	"database/sql"
	"encoding/json"
	"errors"
	"fmt"
	"time"

	"github.com/jmoiron/sqlx"
	"github.com/lib/pq"

	"github.com/sawpanic/signalengine/internal/persistence"
)

// calibrationRepo implements persistence.CalibrationRepo against
// PostgreSQL, upserting by timestamp the way cryptorun's regime_repo.go
// upserts by (ts) uniqueness.
type calibrationRepo struct {
	db      *sqlx.DB
	timeout time.Duration
}

// NewCalibrationRepo constructs a PostgreSQL-backed CalibrationRepo.
func NewCalibrationRepo(db *sqlx.DB, timeout time.Duration) persistence.CalibrationRepo {
	return &calibrationRepo{db: db, timeout: timeout}
}

func (r *calibrationRepo) Upsert(ctx context.Context, snap persistence.CalibrationSnapshot) error {
	ctx, cancel := context.WithTimeout(ctx, r.timeout)
	defer cancel()

	boundsJSON, err := json.Marshal(snap.BucketBounds)
	if err != nil {
		return fmt.Errorf("marshal bucket_bounds: %w", err)
	}
	ratesJSON, err := json.Marshal(snap.ObservedRates)
	if err != nil {
		return fmt.Errorf("marshal observed_rates: %w", err)
	}
	countsJSON, err := json.Marshal(snap.SampleCounts)
	if err != nil {
		return fmt.Errorf("marshal sample_counts: %w", err)
	}

	query := `
		INSERT INTO calibration_snapshots (ts, bucket_bounds, observed_rates, sample_counts, decay_factor)
		VALUES ($1, $2, $3, $4, $5)
		ON CONFLICT (ts) DO UPDATE SET
			bucket_bounds = EXCLUDED.bucket_bounds,
			observed_rates = EXCLUDED.observed_rates,
			sample_counts = EXCLUDED.sample_counts,
			decay_factor = EXCLUDED.decay_factor`

	if _, err := r.db.ExecContext(ctx, query, snap.Timestamp, boundsJSON, ratesJSON, countsJSON, snap.DecayFactor); err != nil {
		var pqErr *pq.Error
		if errors.As(err, &pqErr) && pqErr.Code == pqDuplicateKeyCode {
			return fmt.Errorf("duplicate calibration snapshot: %w", err)
		}
		return fmt.Errorf("upsert calibration snapshot: %w", err)
	}
	return nil
}

func (r *calibrationRepo) Latest(ctx context.Context) (*persistence.CalibrationSnapshot, error) {
	ctx, cancel := context.WithTimeout(ctx, r.timeout)
	defer cancel()

	query := `
		SELECT ts, bucket_bounds, observed_rates, sample_counts, decay_factor, created_at
		FROM calibration_snapshots
		ORDER BY ts DESC
		LIMIT 1`

	row := r.db.QueryRowxContext(ctx, query)
	snap, err := scanCalibrationRow(row)
	if errors.Is(err, sql.ErrNoRows) {
		return nil, nil
	}
	if err != nil {
		return nil, fmt.Errorf("query latest calibration snapshot: %w", err)
	}
	return snap, nil
}

func (r *calibrationRepo) ListRange(ctx context.Context, tr persistence.TimeRange) ([]persistence.CalibrationSnapshot, error) {
	ctx, cancel := context.WithTimeout(ctx, r.timeout)
	defer cancel()

	query := `
		SELECT ts, bucket_bounds, observed_rates, sample_counts, decay_factor, created_at
		FROM calibration_snapshots
		WHERE ts >= $1 AND ts < $2
		ORDER BY ts ASC`

	rows, err := r.db.QueryxContext(ctx, query, tr.From, tr.To)
	if err != nil {
		return nil, fmt.Errorf("query calibration snapshot range: %w", err)
	}
	defer rows.Close()

	var out []persistence.CalibrationSnapshot
	for rows.Next() {
		snap, err := scanCalibrationRow(rows)
		if err != nil {
			return nil, fmt.Errorf("scan calibration snapshot: %w", err)
		}
		out = append(out, *snap)
	}
	return out, rows.Err()
}

type rowScanner interface {
	Scan(dest ...any) error
}

func scanCalibrationRow(row rowScanner) (*persistence.CalibrationSnapshot, error) {
	var snap persistence.CalibrationSnapshot
	var boundsJSON, ratesJSON, countsJSON []byte

	if err := row.Scan(&snap.Timestamp, &boundsJSON, &ratesJSON, &countsJSON, &snap.DecayFactor, &snap.CreatedAt); err != nil {
		return nil, err
	}
	if err := json.Unmarshal(boundsJSON, &snap.BucketBounds); err != nil {
		return nil, fmt.Errorf("unmarshal bucket_bounds: %w", err)
	}
	if err := json.Unmarshal(ratesJSON, &snap.ObservedRates); err != nil {
		return nil, fmt.Errorf("unmarshal observed_rates: %w", err)
	}
	if err := json.Unmarshal(countsJSON, &snap.SampleCounts); err != nil {
		return nil, fmt.Errorf("unmarshal sample_counts: %w", err)
	}
	return &snap, nil
}
