// Package sqlstore implements the engine's persistence.Repository
// interfaces against PostgreSQL via jmoiron/sqlx and lib/pq. Grounded on
// cryptorun's internal/persistence/postgres package (trades_repo.go's
// context-timeout-per-call, prepared-statement batch insert inside a
// transaction, and pq.Error 23505 duplicate-key detection), generalized
// from cryptorun's trade/regime/premove tables to this engine's
// signals/ml_outcomes/calibration_snapshots tables.
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

const pqDuplicateKeyCode = "23505"

// signalsRepo implements persistence.SignalsRepo against PostgreSQL.
type signalsRepo struct {
	db      *sqlx.DB
	timeout time.Duration
}

// NewSignalsRepo constructs a PostgreSQL-backed SignalsRepo.
func NewSignalsRepo(db *sqlx.DB, timeout time.Duration) persistence.SignalsRepo {
	return &signalsRepo{db: db, timeout: timeout}
}

func (r *signalsRepo) Insert(ctx context.Context, rec persistence.SignalRecord) error {
	ctx, cancel := context.WithTimeout(ctx, r.timeout)
	defer cancel()

	reasonsJSON, err := json.Marshal(rec.Reasons)
	if err != nil {
		return fmt.Errorf("marshal reasons: %w", err)
	}
	indicatorsJSON, err := json.Marshal(rec.IndicatorsUsed)
	if err != nil {
		return fmt.Errorf("marshal indicators_used: %w", err)
	}
	metadataJSON, err := json.Marshal(rec.Metadata)
	if err != nil {
		return fmt.Errorf("marshal metadata: %w", err)
	}

	query := `
		INSERT INTO signals (ts, asset, timeframe, direction, confidence, reasons, indicators_used, reject_reason, metadata)
		VALUES ($1, $2, $3, $4, $5, $6, $7, $8, $9)
		RETURNING id, created_at`

	err = r.db.QueryRowxContext(ctx, query,
		rec.Timestamp, rec.Asset, rec.Timeframe, rec.Direction, rec.Confidence,
		reasonsJSON, indicatorsJSON, rec.RejectReason, metadataJSON).
		Scan(&rec.ID, &rec.CreatedAt)
	if err != nil {
		var pqErr *pq.Error
		if errors.As(err, &pqErr) && pqErr.Code == pqDuplicateKeyCode {
			return fmt.Errorf("duplicate signal: %w", err)
		}
		return fmt.Errorf("insert signal: %w", err)
	}
	return nil
}

func (r *signalsRepo) InsertBatch(ctx context.Context, recs []persistence.SignalRecord) error {
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
		INSERT INTO signals (ts, asset, timeframe, direction, confidence, reasons, indicators_used, reject_reason, metadata)
		VALUES ($1, $2, $3, $4, $5, $6, $7, $8, $9)`)
	if err != nil {
		return fmt.Errorf("prepare statement: %w", err)
	}
	defer stmt.Close()

	for _, rec := range recs {
		reasonsJSON, err := json.Marshal(rec.Reasons)
		if err != nil {
			return fmt.Errorf("marshal reasons: %w", err)
		}
		indicatorsJSON, err := json.Marshal(rec.IndicatorsUsed)
		if err != nil {
			return fmt.Errorf("marshal indicators_used: %w", err)
		}
		metadataJSON, err := json.Marshal(rec.Metadata)
		if err != nil {
			return fmt.Errorf("marshal metadata: %w", err)
		}

		if _, err := stmt.ExecContext(ctx,
			rec.Timestamp, rec.Asset, rec.Timeframe, rec.Direction, rec.Confidence,
			reasonsJSON, indicatorsJSON, rec.RejectReason, metadataJSON); err != nil {
			return fmt.Errorf("insert signal in batch: %w", err)
		}
	}

	return tx.Commit()
}

func (r *signalsRepo) ListByAsset(ctx context.Context, asset string, tr persistence.TimeRange, limit int) ([]persistence.SignalRecord, error) {
	ctx, cancel := context.WithTimeout(ctx, r.timeout)
	defer cancel()

	query := `
		SELECT id, ts, asset, timeframe, direction, confidence, reasons, indicators_used, reject_reason, metadata, created_at
		FROM signals
		WHERE asset = $1 AND ts >= $2 AND ts < $3
		ORDER BY ts ASC
		LIMIT $4`

	rows, err := r.db.QueryxContext(ctx, query, asset, tr.From, tr.To, limit)
	if err != nil {
		return nil, fmt.Errorf("query signals by asset: %w", err)
	}
	defer rows.Close()

	return scanSignalRows(rows)
}

func (r *signalsRepo) ListRejected(ctx context.Context, tr persistence.TimeRange, limit int) ([]persistence.SignalRecord, error) {
	ctx, cancel := context.WithTimeout(ctx, r.timeout)
	defer cancel()

	query := `
		SELECT id, ts, asset, timeframe, direction, confidence, reasons, indicators_used, reject_reason, metadata, created_at
		FROM signals
		WHERE reject_reason IS NOT NULL AND ts >= $1 AND ts < $2
		ORDER BY ts ASC
		LIMIT $3`

	rows, err := r.db.QueryxContext(ctx, query, tr.From, tr.To, limit)
	if err != nil {
		return nil, fmt.Errorf("query rejected signals: %w", err)
	}
	defer rows.Close()

	return scanSignalRows(rows)
}

func (r *signalsRepo) CountByRejectReason(ctx context.Context, tr persistence.TimeRange) (map[string]int64, error) {
	ctx, cancel := context.WithTimeout(ctx, r.timeout)
	defer cancel()

	query := `
		SELECT reject_reason, COUNT(*)
		FROM signals
		WHERE reject_reason IS NOT NULL AND ts >= $1 AND ts < $2
		GROUP BY reject_reason`

	rows, err := r.db.QueryContext(ctx, query, tr.From, tr.To)
	if err != nil {
		return nil, fmt.Errorf("count by reject reason: %w", err)
	}
	defer rows.Close()

	out := make(map[string]int64)
	for rows.Next() {
		var reason string
		var count int64
		if err := rows.Scan(&reason, &count); err != nil {
			return nil, fmt.Errorf("scan reject reason count: %w", err)
		}
		out[reason] = count
	}
	return out, rows.Err()
}

func (r *signalsRepo) Latest(ctx context.Context, limit int) ([]persistence.SignalRecord, error) {
	ctx, cancel := context.WithTimeout(ctx, r.timeout)
	defer cancel()

	query := `
		SELECT id, ts, asset, timeframe, direction, confidence, reasons, indicators_used, reject_reason, metadata, created_at
		FROM signals
		WHERE reject_reason IS NULL
		ORDER BY ts DESC
		LIMIT $1`

	rows, err := r.db.QueryxContext(ctx, query, limit)
	if err != nil {
		return nil, fmt.Errorf("query latest signals: %w", err)
	}
	defer rows.Close()

	return scanSignalRows(rows)
}

func scanSignalRows(rows *sqlx.Rows) ([]persistence.SignalRecord, error) {
	var out []persistence.SignalRecord
	for rows.Next() {
		var rec persistence.SignalRecord
		var reasonsJSON, indicatorsJSON, metadataJSON []byte
		var rejectReason sql.NullString

		if err := rows.Scan(&rec.ID, &rec.Timestamp, &rec.Asset, &rec.Timeframe, &rec.Direction,
			&rec.Confidence, &reasonsJSON, &indicatorsJSON, &rejectReason, &metadataJSON, &rec.CreatedAt); err != nil {
			return nil, fmt.Errorf("scan signal row: %w", err)
		}

		if err := json.Unmarshal(reasonsJSON, &rec.Reasons); err != nil {
			return nil, fmt.Errorf("unmarshal reasons: %w", err)
		}
		if err := json.Unmarshal(indicatorsJSON, &rec.IndicatorsUsed); err != nil {
			return nil, fmt.Errorf("unmarshal indicators_used: %w", err)
		}
		if len(metadataJSON) > 0 {
			if err := json.Unmarshal(metadataJSON, &rec.Metadata); err != nil {
				return nil, fmt.Errorf("unmarshal metadata: %w", err)
			}
		}
		if rejectReason.Valid {
			v := rejectReason.String
			rec.RejectReason = &v
		}

		out = append(out, rec)
	}
	return out, rows.Err()
}
