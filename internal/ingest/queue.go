// Package ingest implements the three bounded-queue ingress tasks spec §5
// describes: candles, order-book snapshots, and trade prints arrive on
// separate tasks and are delivered to the signal task through fixed-capacity
// FIFOs. A full queue drops its oldest entry rather than blocking the
// producer or growing without bound, logged at Warn.
package ingest

import (
	"context"
	"sync"

	"github.com/rs/zerolog"

	"github.com/sawpanic/signalengine/internal/candle"
	"github.com/sawpanic/signalengine/internal/market"
)

// DefaultQueueCapacity bounds each ingress queue absent an explicit override.
const DefaultQueueCapacity = 256

// boundedQueue is a fixed-capacity, channel-backed FIFO with drop-oldest
// overflow semantics. Push calls are serialized by mu; Drain does not take
// mu and may run concurrently with Push.
type boundedQueue[T any] struct {
	ch  chan T
	mu  sync.Mutex
	log zerolog.Logger
	name string
}

func newBoundedQueue[T any](name string, capacity int, log zerolog.Logger) *boundedQueue[T] {
	if capacity <= 0 {
		capacity = DefaultQueueCapacity
	}
	return &boundedQueue[T]{
		ch:   make(chan T, capacity),
		log:  log,
		name: name,
	}
}

// Push enqueues v, dropping the oldest queued item first if the queue is at
// capacity.
func (q *boundedQueue[T]) Push(v T) {
	q.mu.Lock()
	defer q.mu.Unlock()

	select {
	case q.ch <- v:
		return
	default:
	}

	select {
	case dropped := <-q.ch:
		q.log.Warn().Str("queue", q.name).Interface("dropped", dropped).Msg("ingress queue full, dropped oldest")
	default:
	}
	q.ch <- v
}

// Drain blocks until an item is available or ctx is cancelled.
func (q *boundedQueue[T]) Drain(ctx context.Context) (T, bool) {
	select {
	case v := <-q.ch:
		return v, true
	case <-ctx.Done():
		var zero T
		return zero, false
	}
}

// Len reports the number of items currently queued.
func (q *boundedQueue[T]) Len() int {
	return len(q.ch)
}

// partitionGate rejects out-of-order events within a (asset, timeframe)
// partition, per spec §6: "out-of-order events within a (asset, timeframe)
// partition are rejected."
type partitionGate struct {
	mu   sync.Mutex
	last map[string]int64
}

func newPartitionGate() *partitionGate {
	return &partitionGate{last: make(map[string]int64)}
}

// admit reports whether ts is non-decreasing for partition key, recording it
// as the new high-water mark when admitted.
func (g *partitionGate) admit(key string, ts int64) bool {
	g.mu.Lock()
	defer g.mu.Unlock()
	if prev, ok := g.last[key]; ok && ts < prev {
		return false
	}
	g.last[key] = ts
	return true
}

// CandleQueue is the bounded ingress FIFO for the candle stream.
type CandleQueue struct {
	q     *boundedQueue[candle.Candle]
	gate  *partitionGate
	log   zerolog.Logger
}

// NewCandleQueue constructs a CandleQueue with the given capacity (0 uses
// DefaultQueueCapacity).
func NewCandleQueue(capacity int, log zerolog.Logger) *CandleQueue {
	return &CandleQueue{
		q:    newBoundedQueue[candle.Candle]("candle", capacity, log),
		gate: newPartitionGate(),
		log:  log,
	}
}

// Push validates and partition-orders c before enqueueing it. Invalid or
// out-of-order candles are dropped with a Warn log, never propagated
// (spec §7's input-validation error class).
func (q *CandleQueue) Push(c candle.Candle) {
	if err := c.Validate(); err != nil {
		q.log.Warn().Err(err).Str("asset", string(c.Asset)).Str("tf", string(c.Timeframe)).Msg("dropped invalid candle")
		return
	}
	key := market.MarketKey(c.Asset, c.Timeframe)
	if !q.gate.admit(key, c.OpenTime) {
		q.log.Warn().Str("asset", string(c.Asset)).Str("tf", string(c.Timeframe)).Int64("open_time", c.OpenTime).Msg("dropped out-of-order candle")
		return
	}
	q.q.Push(c)
}

// Drain blocks for the next candle or ctx cancellation.
func (q *CandleQueue) Drain(ctx context.Context) (candle.Candle, bool) {
	return q.q.Drain(ctx)
}

// Len reports the number of queued candles.
func (q *CandleQueue) Len() int { return q.q.Len() }

// BookQueue is the bounded ingress FIFO for the order-book stream.
type BookQueue struct {
	q    *boundedQueue[candle.OrderBook]
	gate *partitionGate
	log  zerolog.Logger
}

// NewBookQueue constructs a BookQueue with the given capacity (0 uses
// DefaultQueueCapacity).
func NewBookQueue(capacity int, log zerolog.Logger) *BookQueue {
	return &BookQueue{
		q:    newBoundedQueue[candle.OrderBook]("book", capacity, log),
		gate: newPartitionGate(),
		log:  log,
	}
}

// Push partition-orders ob before enqueueing it.
func (q *BookQueue) Push(ob candle.OrderBook) {
	key := market.MarketKey(ob.Asset, ob.Timeframe)
	if !q.gate.admit(key, ob.Timestamp) {
		q.log.Warn().Str("token", ob.TokenID).Int64("ts", ob.Timestamp).Msg("dropped out-of-order book snapshot")
		return
	}
	q.q.Push(ob)
}

// Drain blocks for the next order-book snapshot or ctx cancellation.
func (q *BookQueue) Drain(ctx context.Context) (candle.OrderBook, bool) {
	return q.q.Drain(ctx)
}

// Len reports the number of queued order-book snapshots.
func (q *BookQueue) Len() int { return q.q.Len() }

// TradeQueue is the bounded ingress FIFO for the trade stream.
type TradeQueue struct {
	q    *boundedQueue[candle.TradePrint]
	gate *partitionGate
	log  zerolog.Logger
}

// NewTradeQueue constructs a TradeQueue with the given capacity (0 uses
// DefaultQueueCapacity).
func NewTradeQueue(capacity int, log zerolog.Logger) *TradeQueue {
	return &TradeQueue{
		q:    newBoundedQueue[candle.TradePrint]("trade", capacity, log),
		gate: newPartitionGate(),
		log:  log,
	}
}

// Push partition-orders t before enqueueing it.
func (q *TradeQueue) Push(t candle.TradePrint) {
	key := market.MarketKey(t.Asset, t.Timeframe)
	if !q.gate.admit(key, t.Timestamp) {
		q.log.Warn().Str("token", t.TokenID).Int64("ts", t.Timestamp).Msg("dropped out-of-order trade print")
		return
	}
	q.q.Push(t)
}

// Drain blocks for the next trade print or ctx cancellation.
func (q *TradeQueue) Drain(ctx context.Context) (candle.TradePrint, bool) {
	return q.q.Drain(ctx)
}

// Len reports the number of queued trade prints.
func (q *TradeQueue) Len() int { return q.q.Len() }
