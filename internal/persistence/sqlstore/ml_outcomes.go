package sqlstore

import (
	"context"
	"fmt"
	"time"

	"github.com/jmoiron/sqlx"

	"github.com/sawpanic/signalengine/internal/persistence"
)

// mlOutcomesRepo implements persistence.MLOutcomesRepo against PostgreSQL.
type mlOutcomesRepo struct {
	db      *sqlx.DB
	timeout time.Duration
}

// NewMLOutcomesRepo constructs a PostgreSQL-backed MLOutcomesRepo.
func NewMLOutcomesRepo(db *sqlx.DB, timeout time.Duration) persistence.MLOutcomesRepo {
	return &mlOutcomesRepo{db: db, timeout: timeout}
}

func (r *mlOutcomesRepo) Insert(ctx context.Context, rec persistence.MLOutcomeRecord) error {
	ctx, cancel := context.WithTimeout(ctx, r.timeout)
	defer cancel()

	query := `
		INSERT INTO ml_outcomes (ts, asset, timeframe, features_digest, predicted_p_up, confidence, was_up)
		VALUES ($1, $2, $3, $4, $5, $6, $7)
		RETURNING id, created_at`

	err := r.db.QueryRowxContext(ctx, query,
		rec.Timestamp, rec.Asset, rec.Timeframe, rec.FeaturesDigest,
		rec.PredictedPUp, rec.Confidence, rec.WasUp).
		Scan(&rec.ID, &rec.CreatedAt)
	if err != nil {
		return fmt.Errorf("insert ml outcome: %w", err)
	}
	return nil
}

func (r *mlOutcomesRepo) InsertBatch(ctx context.Context, recs []persistence.MLOutcomeRecord) error {
	if len(recs) == 0 {
		return nil
	}

	ctx, cancel := context.WithTimeout(ctx, r.timeout*time.Duration(len(recs)/100+1))
	defer cancel()

	tx, err := r.db.BeginTxx(ctx, nil)
	if err != nil {
		return fmt.Errorf("begin tx: %w", err)
	}
	defer tx.Rollback()

	stmt, err := tx.PrepareContext(ctx, `
		INSERT INTO ml_outcomes (ts, asset, timeframe, features_digest, predicted_p_up, confidence, was_up)
		VALUES ($1, $2, $3, $4, $5, $6, $7)`)
	if err != nil {
		return fmt.Errorf("prepare statement: %w", err)
	}
	defer stmt.Close()

	for _, rec := range recs {
		if _, err := stmt.ExecContext(ctx,
			rec.Timestamp, rec.Asset, rec.Timeframe, rec.FeaturesDigest,
			rec.PredictedPUp, rec.Confidence, rec.WasUp); err != nil {
			return fmt.Errorf("insert ml outcome in batch: %w", err)
		}
	}

	return tx.Commit()
}

func (r *mlOutcomesRepo) ListByAsset(ctx context.Context, asset string, tr persistence.TimeRange, limit int) ([]persistence.MLOutcomeRecord, error) {
	ctx, cancel := context.WithTimeout(ctx, r.timeout)
	defer cancel()

	query := `
		SELECT id, ts, asset, timeframe, features_digest, predicted_p_up, confidence, was_up, created_at
		FROM ml_outcomes
		WHERE asset = $1 AND ts >= $2 AND ts < $3
		ORDER BY ts ASC
		LIMIT $4`

	var out []persistence.MLOutcomeRecord
	if err := r.db.SelectContext(ctx, &out, query, asset, tr.From, tr.To, limit); err != nil {
		return nil, fmt.Errorf("query ml outcomes by asset: %w", err)
	}
	return out, nil
}

func (r *mlOutcomesRepo) Accuracy(ctx context.Context, tr persistence.TimeRange) (float64, error) {
	ctx, cancel := context.WithTimeout(ctx, r.timeout)
	defer cancel()

	query := `
		SELECT
			COALESCE(AVG(CASE WHEN (predicted_p_up >= 0.5) = was_up THEN 1.0 ELSE 0.0 END), 0)
		FROM ml_outcomes
		WHERE ts >= $1 AND ts < $2`

	var accuracy float64
	if err := r.db.GetContext(ctx, &accuracy, query, tr.From, tr.To); err != nil {
		return 0, fmt.Errorf("compute ml outcome accuracy: %w", err)
	}
	return accuracy, nil
}
