package httpapi

import (
	"context"
	"encoding/json"
	"net/http"
	"time"

	"github.com/sawpanic/signalengine/internal/persistence"
)

// QueueDepthSource reports the current depth of each named ingestion queue,
// satisfied by internal/ingest's queue types through a thin adapter.
type QueueDepthSource interface {
	QueueDepths() map[string]int
}

// HealthHandler serves /healthz, reporting persistence connectivity and
// ingestion queue depths. Grounded on cryptorun's HealthHandler JSON
// response shape, trimmed to this engine's own collaborators (no
// multi-provider registry — persistence and ingestion are the only
// external dependencies this engine has).
type HealthHandler struct {
	persistence persistence.RepositoryHealth
	queues      QueueDepthSource
	startTime   time.Time
	version     string
}

// NewHealthHandler constructs a HealthHandler. queues may be nil if the
// caller has no ingestion tasks running (e.g. backtest mode).
func NewHealthHandler(repoHealth persistence.RepositoryHealth, queues QueueDepthSource, version string) *HealthHandler {
	return &HealthHandler{
		persistence: repoHealth,
		queues:      queues,
		startTime:   time.Now(),
		version:     version,
	}
}

// HealthResponse is the /healthz JSON body.
type HealthResponse struct {
	Status      string                    `json:"status"`
	Timestamp   time.Time                 `json:"timestamp"`
	Uptime      string                    `json:"uptime"`
	Version     string                    `json:"version"`
	Persistence *persistence.HealthCheck  `json:"persistence,omitempty"`
	QueueDepths map[string]int            `json:"queue_depths,omitempty"`
}

func (h *HealthHandler) ServeHTTP(w http.ResponseWriter, r *http.Request) {
	if r.Method != http.MethodGet {
		http.Error(w, "method not allowed", http.StatusMethodNotAllowed)
		return
	}

	resp := HealthResponse{
		Timestamp: time.Now(),
		Uptime:    time.Since(h.startTime).String(),
		Version:   h.version,
		Status:    "healthy",
	}

	if h.persistence != nil {
		hc := h.persistence.Health(r.Context())
		resp.Persistence = &hc
		if !hc.Healthy {
			resp.Status = "unhealthy"
		}
	}

	if h.queues != nil {
		resp.QueueDepths = h.queues.QueueDepths()
	}

	w.Header().Set("Content-Type", "application/json")
	if resp.Status == "unhealthy" {
		w.WriteHeader(http.StatusServiceUnavailable)
	} else {
		w.WriteHeader(http.StatusOK)
	}
	_ = json.NewEncoder(w).Encode(resp)
}

// Ping checks persistence connectivity with ctx, returning nil when no
// persistence is configured.
func (h *HealthHandler) Ping(ctx context.Context) error {
	if h.persistence == nil {
		return nil
	}
	return h.persistence.Ping(ctx)
}
