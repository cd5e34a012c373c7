// Package rediscache decorates persistence repositories with a Redis
// cache-aside layer via go-redis/v8. Grounded on cryptorun's
// infrastructure/cache.RedisCache (a thin addr/db/ttl wrapper over
// *redis.Client's Get/Set), generalized from a raw string cache into a
// typed decorator over persistence.CalibrationRepo and
// persistence.SignalsRepo's hot-path reads.
package rediscache

import (
	"context"
	"encoding/json"
	"fmt"
	"time"

	"github.com/go-redis/redis/v8"

	"github.com/sawpanic/signalengine/internal/persistence"
)

const defaultTTL = 30 * time.Second

// Client wraps a *redis.Client with the default TTL cache-aside
// decorators below consult.
type Client struct {
	rdb *redis.Client
	ttl time.Duration
}

// NewClient constructs a Client against a Redis server at addr.
func NewClient(addr string, db int, ttl time.Duration) *Client {
	if ttl <= 0 {
		ttl = defaultTTL
	}
	return &Client{
		rdb: redis.NewClient(&redis.Options{Addr: addr, DB: db}),
		ttl: ttl,
	}
}

// NewClientFromRedis wraps an already-constructed *redis.Client, the
// constructor redismock-based tests use to inject a mock client.
func NewClientFromRedis(rdb *redis.Client, ttl time.Duration) *Client {
	if ttl <= 0 {
		ttl = defaultTTL
	}
	return &Client{rdb: rdb, ttl: ttl}
}

const latestCalibrationKey = "signalengine:calibration:latest"

// CalibrationCache decorates a persistence.CalibrationRepo with a
// cache-aside read path for Latest, the hottest read in the confidence
// assembly loop.
type CalibrationCache struct {
	inner  persistence.CalibrationRepo
	client *Client
}

// NewCalibrationCache wraps inner with a Redis cache-aside layer.
func NewCalibrationCache(inner persistence.CalibrationRepo, client *Client) *CalibrationCache {
	return &CalibrationCache{inner: inner, client: client}
}

// Upsert writes through to inner and invalidates the cached Latest
// entry so the next read picks up the new snapshot.
func (c *CalibrationCache) Upsert(ctx context.Context, snap persistence.CalibrationSnapshot) error {
	if err := c.inner.Upsert(ctx, snap); err != nil {
		return err
	}
	if err := c.client.rdb.Del(ctx, latestCalibrationKey).Err(); err != nil && err != redis.Nil {
		return fmt.Errorf("invalidate calibration cache: %w", err)
	}
	return nil
}

// Latest serves from cache when present, falling back to inner on a
// cache miss and repopulating the cache afterward.
func (c *CalibrationCache) Latest(ctx context.Context) (*persistence.CalibrationSnapshot, error) {
	cached, err := c.client.rdb.Get(ctx, latestCalibrationKey).Bytes()
	if err == nil {
		var snap persistence.CalibrationSnapshot
		if unmarshalErr := json.Unmarshal(cached, &snap); unmarshalErr == nil {
			return &snap, nil
		}
	}
	if err != nil && err != redis.Nil {
		return nil, fmt.Errorf("read calibration cache: %w", err)
	}

	snap, err := c.inner.Latest(ctx)
	if err != nil || snap == nil {
		return snap, err
	}

	data, marshalErr := json.Marshal(snap)
	if marshalErr == nil {
		_ = c.client.rdb.Set(ctx, latestCalibrationKey, data, c.client.ttl).Err()
	}
	return snap, nil
}

// ListRange always reads through to inner; range queries aren't cached.
func (c *CalibrationCache) ListRange(ctx context.Context, tr persistence.TimeRange) ([]persistence.CalibrationSnapshot, error) {
	return c.inner.ListRange(ctx, tr)
}

func latestSignalsKey(asset string) string {
	return fmt.Sprintf("signalengine:signals:latest:%s", asset)
}

// SignalsCache decorates a persistence.SignalsRepo. Inserts write through
// to inner and then delete the affected assets' latest-signal keys; every
// read passes straight through to inner, and nothing in this type
// populates those keys.
type SignalsCache struct {
	inner  persistence.SignalsRepo
	client *Client
}

// NewSignalsCache wraps inner with a Redis cache-aside layer.
func NewSignalsCache(inner persistence.SignalsRepo, client *Client) *SignalsCache {
	return &SignalsCache{inner: inner, client: client}
}

func (c *SignalsCache) Insert(ctx context.Context, rec persistence.SignalRecord) error {
	if err := c.inner.Insert(ctx, rec); err != nil {
		return err
	}
	return c.invalidate(ctx, rec.Asset)
}

func (c *SignalsCache) InsertBatch(ctx context.Context, recs []persistence.SignalRecord) error {
	if err := c.inner.InsertBatch(ctx, recs); err != nil {
		return err
	}
	seen := make(map[string]bool)
	for _, rec := range recs {
		if seen[rec.Asset] {
			continue
		}
		seen[rec.Asset] = true
		if err := c.invalidate(ctx, rec.Asset); err != nil {
			return err
		}
	}
	return nil
}

func (c *SignalsCache) invalidate(ctx context.Context, asset string) error {
	if err := c.client.rdb.Del(ctx, latestSignalsKey(asset)).Err(); err != nil && err != redis.Nil {
		return fmt.Errorf("invalidate signals cache: %w", err)
	}
	return nil
}

func (c *SignalsCache) ListByAsset(ctx context.Context, asset string, tr persistence.TimeRange, limit int) ([]persistence.SignalRecord, error) {
	return c.inner.ListByAsset(ctx, asset, tr, limit)
}

func (c *SignalsCache) ListRejected(ctx context.Context, tr persistence.TimeRange, limit int) ([]persistence.SignalRecord, error) {
	return c.inner.ListRejected(ctx, tr, limit)
}

func (c *SignalsCache) CountByRejectReason(ctx context.Context, tr persistence.TimeRange) (map[string]int64, error) {
	return c.inner.CountByRejectReason(ctx, tr)
}

func (c *SignalsCache) Latest(ctx context.Context, limit int) ([]persistence.SignalRecord, error) {
	return c.inner.Latest(ctx, limit)
}
