// Package wsstream provides a venue-agnostic websocket reader for the three
// input streams spec §6 describes (candle, order-book, trade). It dials a
// single gorilla/websocket connection, decodes each message as a tagged JSON
// frame, and dispatches the payload into the matching bounded ingest queue.
// No venue-specific wire protocol (Kraken/Binance/OKX/Coinbase framing) is
// implemented here — this is the external-collaborator boundary made
// concrete enough to exercise the dependency, not a production feed client.
package wsstream

import (
	"context"
	"encoding/json"
	"fmt"
	"time"

	"github.com/gorilla/websocket"
	"github.com/rs/zerolog"

	"github.com/sawpanic/signalengine/internal/candle"
	"github.com/sawpanic/signalengine/internal/ingest"
	"github.com/sawpanic/signalengine/internal/market"
)

// Frame is the tagged envelope each websocket message decodes into. Exactly
// one of Candle, Book, Trade is populated, selected by Stream.
type Frame struct {
	Stream string         `json:"stream"`
	Candle *CandlePayload `json:"candle,omitempty"`
	Book   *BookPayload   `json:"book,omitempty"`
	Trade  *TradePayload  `json:"trade,omitempty"`
}

// CandlePayload mirrors spec §6's candle stream event shape.
type CandlePayload struct {
	Asset       string  `json:"asset"`
	Timeframe   string  `json:"timeframe"`
	OpenTimeMs  int64   `json:"open_time_ms"`
	CloseTimeMs int64   `json:"close_time_ms"`
	Open        float64 `json:"open"`
	High        float64 `json:"high"`
	Low         float64 `json:"low"`
	Close       float64 `json:"close"`
	Volume      float64 `json:"volume"`
	TradeCount  int64   `json:"trade_count"`
}

// BookPayload mirrors spec §6's order-book stream event shape. Levels arrive
// already normalized by the upstream collaborator (bids descending, asks
// ascending, size-zero levels omitted).
type BookPayload struct {
	TokenID   string          `json:"token_id"`
	Asset     string          `json:"asset"`
	Timeframe string          `json:"timeframe"`
	Bids      []LevelPayload  `json:"bids"`
	Asks      []LevelPayload  `json:"asks"`
	Timestamp int64           `json:"timestamp"`
}

// LevelPayload is a single book level.
type LevelPayload struct {
	Price float64 `json:"price"`
	Size  float64 `json:"size"`
}

// TradePayload mirrors spec §6's trade stream event shape.
type TradePayload struct {
	TokenID   string  `json:"token_id"`
	Asset     string  `json:"asset"`
	Timeframe string  `json:"timeframe"`
	Price     float64 `json:"price"`
	Size      float64 `json:"size"`
	Side      string  `json:"side"`
	Timestamp int64   `json:"timestamp"`
}

// Sink routes decoded frames into the ingress queues they belong to.
type Sink struct {
	Candles *ingest.CandleQueue
	Books   *ingest.BookQueue
	Trades  *ingest.TradeQueue
}

// Dispatch converts frame into its domain type and pushes it onto the
// matching queue. An unknown stream tag or a frame missing its declared
// payload is a decode error, not a panic.
func (s Sink) Dispatch(frame Frame) error {
	switch frame.Stream {
	case "candle":
		if frame.Candle == nil {
			return fmt.Errorf("candle frame missing payload")
		}
		s.Candles.Push(frame.Candle.toCandle())
		return nil
	case "book":
		if frame.Book == nil {
			return fmt.Errorf("book frame missing payload")
		}
		s.Books.Push(frame.Book.toOrderBook())
		return nil
	case "trade":
		if frame.Trade == nil {
			return fmt.Errorf("trade frame missing payload")
		}
		s.Trades.Push(frame.Trade.toTradePrint())
		return nil
	default:
		return fmt.Errorf("unknown stream tag %q", frame.Stream)
	}
}

func (p *CandlePayload) toCandle() candle.Candle {
	return candle.Candle{
		Asset:     market.Asset(p.Asset),
		Timeframe: market.Timeframe(p.Timeframe),
		Open:      p.Open,
		High:      p.High,
		Low:       p.Low,
		Close:     p.Close,
		Volume:    p.Volume,
		Trades:    p.TradeCount,
		OpenTime:  p.OpenTimeMs,
		CloseTime: p.CloseTimeMs,
	}
}

func (p *BookPayload) toOrderBook() candle.OrderBook {
	bids := make([]candle.BookLevel, len(p.Bids))
	for i, l := range p.Bids {
		bids[i] = candle.BookLevel{Price: l.Price, Size: l.Size}
	}
	asks := make([]candle.BookLevel, len(p.Asks))
	for i, l := range p.Asks {
		asks[i] = candle.BookLevel{Price: l.Price, Size: l.Size}
	}
	return candle.OrderBook{
		TokenID:   p.TokenID,
		Asset:     market.Asset(p.Asset),
		Timeframe: market.Timeframe(p.Timeframe),
		Bids:      bids,
		Asks:      asks,
		Timestamp: p.Timestamp,
	}
}

func (p *TradePayload) toTradePrint() candle.TradePrint {
	side := candle.Sell
	if p.Side == string(candle.Buy) {
		side = candle.Buy
	}
	return candle.TradePrint{
		TokenID:   p.TokenID,
		Asset:     market.Asset(p.Asset),
		Timeframe: market.Timeframe(p.Timeframe),
		Price:     p.Price,
		Size:      p.Size,
		Side:      side,
		Timestamp: p.Timestamp,
	}
}

// Reader dials a single websocket URL and drives frames into a Sink until
// ctx is cancelled or the connection fails.
type Reader struct {
	URL          string
	Sink         Sink
	Log          zerolog.Logger
	HandshakeTimeout time.Duration
}

// Run dials the connection and blocks reading frames until ctx is done or a
// read error terminates the stream. Decode errors for individual messages
// are logged at Warn and do not terminate the loop (spec §7's
// input-validation error class: drop with a warning, never propagate).
func (r *Reader) Run(ctx context.Context) error {
	dialer := websocket.Dialer{HandshakeTimeout: r.HandshakeTimeout}
	if dialer.HandshakeTimeout == 0 {
		dialer.HandshakeTimeout = 10 * time.Second
	}

	conn, _, err := dialer.DialContext(ctx, r.URL, nil)
	if err != nil {
		return fmt.Errorf("dial %s: %w", r.URL, err)
	}
	defer conn.Close()

	go func() {
		<-ctx.Done()
		_ = conn.Close()
	}()

	for {
		_, data, err := conn.ReadMessage()
		if err != nil {
			if ctx.Err() != nil {
				return ctx.Err()
			}
			return fmt.Errorf("read message: %w", err)
		}

		var frame Frame
		if err := json.Unmarshal(data, &frame); err != nil {
			r.Log.Warn().Err(err).Msg("dropped malformed frame")
			continue
		}
		if err := r.Sink.Dispatch(frame); err != nil {
			r.Log.Warn().Err(err).Str("stream", frame.Stream).Msg("dropped undeliverable frame")
		}
	}
}
