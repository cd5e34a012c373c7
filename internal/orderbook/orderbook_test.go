package orderbook

import (
	"testing"

	"github.com/stretchr/testify/assert"

	"github.com/sawpanic/signalengine/internal/candle"
	"github.com/sawpanic/signalengine/internal/market"
)

func mkBook(bidSize, askSize float64, ts int64) candle.OrderBook {
	return candle.OrderBook{
		Asset:     market.BTC,
		Timeframe: market.TF15M,
		Bids:      []candle.BookLevel{{Price: 100, Size: bidSize}},
		Asks:      []candle.BookLevel{{Price: 101, Size: askSize}},
		Timestamp: ts,
	}
}

func TestTracker_OnBookComputesImbalance(t *testing.T) {
	tr := NewTracker()
	snap := tr.OnBook(mkBook(80, 20, 1000))
	assert.InDelta(t, 0.6, snap.Imbalance, 0.001)
}

func TestTracker_CapsSnapshotHistory(t *testing.T) {
	tr := NewTracker()
	for i := 0; i < maxSnapshots+10; i++ {
		tr.OnBook(mkBook(50, 50, int64(i)*1000))
	}
	assert.Len(t, tr.snapshots, maxSnapshots)
}

func TestTracker_OrderFlowDeltaBySide(t *testing.T) {
	tr := NewTracker()
	tr.OnTrade(candle.TradePrint{Side: candle.Buy, Size: 10})
	tr.OnTrade(candle.TradePrint{Side: candle.Sell, Size: 5})
	assert.InDelta(t, 1.0/3.0, tr.OrderFlowDelta(), 0.001)

	tr.ResetOrderFlow()
	assert.Equal(t, 0.0, tr.OrderFlowDelta())
}

func TestTracker_ClassifyStrongBuyOnHeavyBidSkew(t *testing.T) {
	tr := NewTracker()
	for i := 0; i < 3; i++ {
		tr.OnBook(mkBook(95, 5, int64(i)*1000))
	}
	tr.OnTrade(candle.TradePrint{Side: candle.Buy, Size: 100})

	label, score := tr.Classify()
	assert.Equal(t, StrongBuy, label)
	assert.GreaterOrEqual(t, score, strongThresh)
}

func TestTracker_ClassifyNeutralOnBalancedBook(t *testing.T) {
	tr := NewTracker()
	tr.OnBook(mkBook(50, 50, 1000))
	label, _ := tr.Classify()
	assert.Equal(t, Neutral, label)
}

func TestTracker_AccessorsReflectLastSnapshot(t *testing.T) {
	tr := NewTracker()
	_, ok := tr.LastImbalance()
	assert.False(t, ok)

	tr.OnBook(mkBook(70, 30, 1000))
	imb, ok := tr.LastImbalance()
	assert.True(t, ok)
	assert.InDelta(t, 0.4, imb, 0.001)
	assert.Equal(t, 100.0, tr.Depth())
}
