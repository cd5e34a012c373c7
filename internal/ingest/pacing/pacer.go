// Package pacing token-buckets the persistence snapshot writer's flush
// cadence and the historical-fetch collaborator's retries, so neither can
// run hot enough to starve the signal task's suspension budget (spec §5).
// Grounded on cryptorun's internal/net/ratelimit per-host Limiter/Manager,
// generalized from per-host request pacing to per-stream pacing.
package pacing

import (
	"context"
	"sync"

	"golang.org/x/time/rate"
)

// Pacer rate-limits a single named activity (a persistence stream or a
// retry loop) via a token bucket.
type Pacer struct {
	limiter *rate.Limiter
}

// NewPacer constructs a Pacer allowing eventsPerSecond steady-state with
// burst capacity burst.
func NewPacer(eventsPerSecond float64, burst int) *Pacer {
	return &Pacer{limiter: rate.NewLimiter(rate.Limit(eventsPerSecond), burst)}
}

// Allow reports whether an event may proceed right now without blocking.
func (p *Pacer) Allow() bool {
	return p.limiter.Allow()
}

// Wait blocks until an event may proceed or ctx is cancelled.
func (p *Pacer) Wait(ctx context.Context) error {
	return p.limiter.Wait(ctx)
}

// SetRate updates the steady-state rate.
func (p *Pacer) SetRate(eventsPerSecond float64) {
	p.limiter.SetLimit(rate.Limit(eventsPerSecond))
}

// Manager owns one Pacer per named stream (e.g. "persistence.snapshot",
// "historical.retry"), created lazily on first use.
type Manager struct {
	mu     sync.RWMutex
	pacers map[string]*Pacer
}

// NewManager constructs an empty Manager.
func NewManager() *Manager {
	return &Manager{pacers: make(map[string]*Pacer)}
}

// Register installs a Pacer for name, replacing any existing one.
func (m *Manager) Register(name string, eventsPerSecond float64, burst int) {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.pacers[name] = NewPacer(eventsPerSecond, burst)
}

// Get returns the Pacer registered for name, if any.
func (m *Manager) Get(name string) (*Pacer, bool) {
	m.mu.RLock()
	defer m.mu.RUnlock()
	p, ok := m.pacers[name]
	return p, ok
}

// Allow reports whether name's stream may proceed now. An unregistered name
// is always allowed — pacing is opt-in per stream.
func (m *Manager) Allow(name string) bool {
	p, ok := m.Get(name)
	if !ok {
		return true
	}
	return p.Allow()
}

// Wait blocks until name's stream may proceed or ctx is cancelled. An
// unregistered name returns immediately.
func (m *Manager) Wait(ctx context.Context, name string) error {
	p, ok := m.Get(name)
	if !ok {
		return nil
	}
	return p.Wait(ctx)
}
