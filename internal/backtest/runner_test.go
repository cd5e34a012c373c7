package backtest

import (
	"testing"

	"github.com/rs/zerolog"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/sawpanic/signalengine/internal/candle"
	"github.com/sawpanic/signalengine/internal/market"
	"github.com/sawpanic/signalengine/internal/strategy/legacy"
)

func legacyDecisionFixture() legacy.Decision {
	return legacy.Decision{
		Signal:    true,
		Direction: market.Up,
		Clusters: []legacy.ClusterSummary{
			{Name: "Trend", Active: true, DominantDirection: market.Up, Confidence: 0.7},
			{Name: "Momentum", Active: false},
		},
	}
}

const fifteenMinMs = 15 * 60 * 1000

func flatCandle(asset market.Asset, tf market.Timeframe, openTimeMs int64, price float64) candle.Candle {
	return candle.Candle{
		Asset: asset, Timeframe: tf,
		Open: price, High: price, Low: price, Close: price,
		Volume: 10, Trades: 5,
		OpenTime: openTimeMs, CloseTime: openTimeMs + tf.DurationMillis(),
	}
}

func genSeries(asset market.Asset, tf market.Timeframe, n int, priceAt func(i int) float64) []candle.Candle {
	out := make([]candle.Candle, n)
	start := int64(1_700_000_000_000)
	step := tf.DurationMillis()
	for i := 0; i < n; i++ {
		out[i] = flatCandle(asset, tf, start+int64(i)*step, priceAt(i))
	}
	return out
}

func TestGroupByPartitionSeparatesAssetsAndTimeframes(t *testing.T) {
	candles := append(
		genSeries(market.BTC, market.TF15M, 3, func(i int) float64 { return 100 }),
		genSeries(market.ETH, market.TF1H, 2, func(i int) float64 { return 50 })...,
	)

	partitions := groupByPartition(candles)
	require.Len(t, partitions, 2)

	byKey := map[string]partition{}
	for _, p := range partitions {
		byKey[market.MarketKey(p.asset, p.timeframe)] = p
	}
	assert.Len(t, byKey["BTC_15M"].candles, 3)
	assert.Len(t, byKey["ETH_1H"].candles, 2)
}

func TestGroupByPartitionSortsChronologically(t *testing.T) {
	unsorted := []candle.Candle{
		flatCandle(market.BTC, market.TF15M, 2_000, 100),
		flatCandle(market.BTC, market.TF15M, 1_000, 99),
		flatCandle(market.BTC, market.TF15M, 3_000, 101),
	}

	partitions := groupByPartition(unsorted)
	require.Len(t, partitions, 1)

	got := partitions[0].candles
	assert.Equal(t, int64(1_000), got[0].OpenTime)
	assert.Equal(t, int64(2_000), got[1].OpenTime)
	assert.Equal(t, int64(3_000), got[2].OpenTime)
}

func TestDirectionAgrees(t *testing.T) {
	assert.True(t, directionAgrees(market.Up, 100, 101))
	assert.False(t, directionAgrees(market.Up, 100, 99))
	assert.True(t, directionAgrees(market.Down, 100, 99))
	assert.False(t, directionAgrees(market.Down, 100, 101))
}

func TestRunWarmupProducesNoTradesOrRejectionsBelowLookback(t *testing.T) {
	cfg := DefaultConfig()
	cfg.LookbackCandles = 50
	runner := NewRunner(cfg, zerolog.Nop())

	candles := genSeries(market.BTC, market.TF15M, 10, func(i int) float64 { return 100 + float64(i) })

	result, err := runner.Run(candles)
	require.NoError(t, err)
	assert.Empty(t, result.Trades)
	assert.Empty(t, result.Rejections)
	assert.Equal(t, 0, result.Metrics.TotalTrades)
}

func TestRunDropsInvalidCandleWithoutError(t *testing.T) {
	cfg := DefaultConfig()
	cfg.LookbackCandles = 5
	runner := NewRunner(cfg, zerolog.Nop())

	candles := genSeries(market.BTC, market.TF15M, 20, func(i int) float64 { return 100 })
	// corrupt one candle: high below max(open, close).
	candles[10].High = candles[10].Open - 1

	result, err := runner.Run(candles)
	require.NoError(t, err)
	assert.Equal(t, len(result.Trades), result.Metrics.TotalTrades)
}

func TestRunProducesInternallyConsistentTrades(t *testing.T) {
	cfg := DefaultConfig()
	cfg.LookbackCandles = 20
	runner := NewRunner(cfg, zerolog.Nop())

	// mild upward drift, enough history for every indicator to report a
	// valid result well before the lookback boundary.
	candles := genSeries(market.BTC, market.TF15M, 80, func(i int) float64 {
		return 100 + float64(i)*0.05
	})

	result, err := runner.Run(candles)
	require.NoError(t, err)
	assert.Equal(t, len(result.Trades), result.Metrics.TotalTrades)

	for _, tr := range result.Trades {
		assert.Equal(t, tr.IsWin, directionAgrees(tr.Direction, tr.EntryPrice, tr.ExitPrice))
		assert.NotEmpty(t, tr.Signal.ID)
		assert.Equal(t, tr.Asset, tr.Signal.Asset)
	}

	for _, rej := range result.Rejections {
		assert.NotEmpty(t, rej.Reason)
	}
}

func TestActiveClustersOnlyIncludesActiveOnes(t *testing.T) {
	decision := legacyDecisionFixture()
	reasons, indicators := activeClusters(decision)
	assert.Equal(t, []string{"Trend_cluster_active"}, reasons)
	assert.Equal(t, []string{"Trend"}, indicators)
}
