package sqlstore

import (
	"context"
	"time"

	"github.com/jmoiron/sqlx"

	"github.com/sawpanic/signalengine/internal/persistence"
)

// health implements persistence.RepositoryHealth against a sqlx.DB pool.
type health struct {
	db      *sqlx.DB
	timeout time.Duration
}

// NewHealth constructs a RepositoryHealth backed by db's connection pool.
func NewHealth(db *sqlx.DB, timeout time.Duration) persistence.RepositoryHealth {
	return &health{db: db, timeout: timeout}
}

func (h *health) Health(ctx context.Context) persistence.HealthCheck {
	start := time.Now()
	err := h.Ping(ctx)
	stats := h.db.Stats()

	hc := persistence.HealthCheck{
		Healthy: err == nil,
		ConnectionPool: map[string]int{
			"open": stats.OpenConnections,
			"idle": stats.Idle,
			"inUse": stats.InUse,
		},
		LastCheck:      time.Now(),
		ResponseTimeMS: time.Since(start).Milliseconds(),
	}
	if err != nil {
		hc.Errors = []string{err.Error()}
	}
	return hc
}

func (h *health) Ping(ctx context.Context) error {
	ctx, cancel := context.WithTimeout(ctx, h.timeout)
	defer cancel()
	return h.db.PingContext(ctx)
}

func (h *health) Stats(ctx context.Context) map[string]any {
	stats := h.db.Stats()
	return map[string]any{
		"open_connections":   stats.OpenConnections,
		"in_use":             stats.InUse,
		"idle":               stats.Idle,
		"wait_count":         stats.WaitCount,
		"wait_duration_ms":   stats.WaitDuration.Milliseconds(),
		"max_open_conns":     stats.MaxOpenConnections,
	}
}
