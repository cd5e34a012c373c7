package rediscache

import (
	"context"
	"encoding/json"
	"testing"
	"time"

	"github.com/go-redis/redis/v8"
	"github.com/go-redis/redismock/v8"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/sawpanic/signalengine/internal/persistence"
)

type fakeCalibrationRepo struct {
	latest *persistence.CalibrationSnapshot
	calls  int
}

func (f *fakeCalibrationRepo) Upsert(ctx context.Context, snap persistence.CalibrationSnapshot) error {
	f.latest = &snap
	return nil
}
func (f *fakeCalibrationRepo) Latest(ctx context.Context) (*persistence.CalibrationSnapshot, error) {
	f.calls++
	return f.latest, nil
}
func (f *fakeCalibrationRepo) ListRange(ctx context.Context, tr persistence.TimeRange) ([]persistence.CalibrationSnapshot, error) {
	return nil, nil
}

func TestCalibrationCacheServesFromCacheOnHit(t *testing.T) {
	rdb, mock := redismock.NewClientMock()
	client := NewClientFromRedis(rdb, time.Minute)

	snap := persistence.CalibrationSnapshot{
		BucketBounds:  []float64{0.5, 0.6},
		ObservedRates: []float64{0.55},
		DecayFactor:   0.98,
	}
	data, err := json.Marshal(snap)
	require.NoError(t, err)

	mock.ExpectGet(latestCalibrationKey).SetVal(string(data))

	inner := &fakeCalibrationRepo{}
	cache := NewCalibrationCache(inner, client)

	got, err := cache.Latest(context.Background())
	require.NoError(t, err)
	require.NotNil(t, got)
	assert.Equal(t, snap.DecayFactor, got.DecayFactor)
	assert.Equal(t, 0, inner.calls, "cache hit must not fall through to inner repo")
	assert.NoError(t, mock.ExpectationsWereMet())
}

func TestCalibrationCacheFallsThroughOnMiss(t *testing.T) {
	rdb, mock := redismock.NewClientMock()
	client := NewClientFromRedis(rdb, time.Minute)

	snap := persistence.CalibrationSnapshot{DecayFactor: 0.97}
	inner := &fakeCalibrationRepo{latest: &snap}
	cache := NewCalibrationCache(inner, client)

	mock.ExpectGet(latestCalibrationKey).RedisNil()
	mock.ExpectSet(latestCalibrationKey, mock.MatchAny(), time.Minute).SetVal("OK")

	got, err := cache.Latest(context.Background())
	require.NoError(t, err)
	require.NotNil(t, got)
	assert.Equal(t, 0.97, got.DecayFactor)
	assert.Equal(t, 1, inner.calls)
	assert.NoError(t, mock.ExpectationsWereMet())
}

func TestCalibrationCacheUpsertInvalidatesKey(t *testing.T) {
	rdb, mock := redismock.NewClientMock()
	client := NewClientFromRedis(rdb, time.Minute)

	inner := &fakeCalibrationRepo{}
	cache := NewCalibrationCache(inner, client)

	mock.ExpectDel(latestCalibrationKey).SetVal(1)

	err := cache.Upsert(context.Background(), persistence.CalibrationSnapshot{DecayFactor: 0.99})
	require.NoError(t, err)
	assert.Equal(t, 0.99, inner.latest.DecayFactor)
	assert.NoError(t, mock.ExpectationsWereMet())
}

func TestRedisNilIsNotAnError(t *testing.T) {
	assert.Equal(t, redis.Nil.Error(), "redis: nil")
}
