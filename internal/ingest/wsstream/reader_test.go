package wsstream

import (
	"encoding/json"
	"testing"

	"github.com/rs/zerolog"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/sawpanic/signalengine/internal/ingest"
)

func newSink() Sink {
	log := zerolog.Nop()
	return Sink{
		Candles: ingest.NewCandleQueue(4, log),
		Books:   ingest.NewBookQueue(4, log),
		Trades:  ingest.NewTradeQueue(4, log),
	}
}

func TestDispatchCandleFrame(t *testing.T) {
	raw := `{
		"stream": "candle",
		"candle": {
			"asset": "BTC", "timeframe": "15M",
			"open_time_ms": 0, "close_time_ms": 900000,
			"open": 100, "high": 105, "low": 99, "close": 102,
			"volume": 10, "trade_count": 4
		}
	}`
	var frame Frame
	require.NoError(t, json.Unmarshal([]byte(raw), &frame))

	sink := newSink()
	require.NoError(t, sink.Dispatch(frame))
	assert.Equal(t, 1, sink.Candles.Len())
}

func TestDispatchBookFrame(t *testing.T) {
	raw := `{
		"stream": "book",
		"book": {
			"token_id": "tok-1", "asset": "ETH", "timeframe": "1H",
			"bids": [{"price": 100, "size": 1}],
			"asks": [{"price": 101, "size": 1}],
			"timestamp": 1000
		}
	}`
	var frame Frame
	require.NoError(t, json.Unmarshal([]byte(raw), &frame))

	sink := newSink()
	require.NoError(t, sink.Dispatch(frame))
	assert.Equal(t, 1, sink.Books.Len())
}

func TestDispatchTradeFrame(t *testing.T) {
	raw := `{
		"stream": "trade",
		"trade": {
			"token_id": "tok-1", "asset": "BTC", "timeframe": "15M",
			"price": 100, "size": 1, "side": "buy", "timestamp": 1000
		}
	}`
	var frame Frame
	require.NoError(t, json.Unmarshal([]byte(raw), &frame))

	sink := newSink()
	require.NoError(t, sink.Dispatch(frame))
	assert.Equal(t, 1, sink.Trades.Len())
}

func TestDispatchUnknownStreamTag(t *testing.T) {
	sink := newSink()
	err := sink.Dispatch(Frame{Stream: "unknown"})
	assert.Error(t, err)
}

func TestDispatchMissingPayload(t *testing.T) {
	sink := newSink()
	err := sink.Dispatch(Frame{Stream: "candle", Candle: nil})
	assert.Error(t, err)
}

func TestDispatchInvalidCandleIsDroppedNotErrored(t *testing.T) {
	raw := `{
		"stream": "candle",
		"candle": {
			"asset": "BTC", "timeframe": "15M",
			"open_time_ms": 0, "close_time_ms": 900000,
			"open": 100, "high": 1, "low": 99, "close": 102,
			"volume": 10
		}
	}`
	var frame Frame
	require.NoError(t, json.Unmarshal([]byte(raw), &frame))

	sink := newSink()
	err := sink.Dispatch(frame)
	require.NoError(t, err, "invalid candle is dropped inside the queue, not surfaced as a dispatch error")
	assert.Equal(t, 0, sink.Candles.Len())
}
