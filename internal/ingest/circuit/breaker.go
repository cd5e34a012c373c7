// Package circuit wraps calls to the historical-data-fetch collaborator in a
// sony/gobreaker circuit breaker, so a stalled or failing fetch degrades to
// fast failures instead of blocking the signal task (spec §5: "suspension
// points are exactly queue draining, persistence writes, and historical-data
// fetches"; a circuit breaker bounds how long that suspension can last).
// Grounded on cryptorun's per-provider CircuitBreakerManager idiom,
// generalized from HTTP provider fan-out to a single named collaborator.
package circuit

import (
	"context"
	"fmt"
	"time"

	"github.com/rs/zerolog"
	"github.com/sony/gobreaker"
)

// Config tunes the breaker guarding a HistoricalFetcher call.
type Config struct {
	Name                string
	MaxRequests         uint32        // requests allowed through in half-open
	Interval            time.Duration // cyclic counter reset period when closed
	Timeout             time.Duration // time open before trying half-open
	ConsecutiveFailures uint32        // trips open after this many consecutive failures
}

// DefaultConfig returns sane breaker settings for a single collaborator.
func DefaultConfig(name string) Config {
	return Config{
		Name:                name,
		MaxRequests:         1,
		Interval:            time.Minute,
		Timeout:             30 * time.Second,
		ConsecutiveFailures: 5,
	}
}

// Result is what a historical candle fetch returns on success.
type Result struct {
	Candles []byte // opaque payload; callers decode per their own contract
}

// HistoricalFetcher models the out-of-scope historical-data collaborator
// (spec's "external collaborator reads/writes" boundary). No venue-specific
// implementation lives here.
type HistoricalFetcher interface {
	Fetch(ctx context.Context, asset, timeframe string) (Result, error)
}

// Breaker wraps a HistoricalFetcher with a gobreaker.CircuitBreaker.
type Breaker struct {
	fetcher HistoricalFetcher
	cb      *gobreaker.CircuitBreaker
	log     zerolog.Logger
}

// New constructs a Breaker guarding fetcher's calls with cfg.
func New(fetcher HistoricalFetcher, cfg Config, log zerolog.Logger) *Breaker {
	settings := gobreaker.Settings{
		Name:        cfg.Name,
		MaxRequests: cfg.MaxRequests,
		Interval:    cfg.Interval,
		Timeout:     cfg.Timeout,
		ReadyToTrip: func(counts gobreaker.Counts) bool {
			return counts.ConsecutiveFailures >= cfg.ConsecutiveFailures
		},
		OnStateChange: func(name string, from, to gobreaker.State) {
			log.Warn().Str("breaker", name).Str("from", from.String()).Str("to", to.String()).Msg("historical fetch breaker state change")
		},
	}
	return &Breaker{
		fetcher: fetcher,
		cb:      gobreaker.NewCircuitBreaker(settings),
		log:     log,
	}
}

// Fetch executes the wrapped fetcher's call through the circuit breaker. A
// tripped breaker returns gobreaker.ErrOpenState without invoking fetcher.
func (b *Breaker) Fetch(ctx context.Context, asset, timeframe string) (Result, error) {
	out, err := b.cb.Execute(func() (interface{}, error) {
		return b.fetcher.Fetch(ctx, asset, timeframe)
	})
	if err != nil {
		return Result{}, fmt.Errorf("historical fetch for %s/%s: %w", asset, timeframe, err)
	}
	result, ok := out.(Result)
	if !ok {
		return Result{}, fmt.Errorf("historical fetch for %s/%s: unexpected result type", asset, timeframe)
	}
	return result, nil
}

// State reports the breaker's current state for health/metrics reporting.
func (b *Breaker) State() gobreaker.State {
	return b.cb.State()
}

// Counts returns the breaker's rolling request/failure counters.
func (b *Breaker) Counts() gobreaker.Counts {
	return b.cb.Counts()
}
