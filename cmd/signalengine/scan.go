package main

import (
	"context"
	"encoding/json"
	"fmt"
	"os"
	ossignal "os/signal"
	"syscall"
	"time"

	"github.com/rs/zerolog"
	"github.com/rs/zerolog/log"
	"github.com/spf13/cobra"

	"github.com/sawpanic/signalengine/internal/calibration"
	"github.com/sawpanic/signalengine/internal/candle"
	"github.com/sawpanic/signalengine/internal/config"
	"github.com/sawpanic/signalengine/internal/crossasset"
	"github.com/sawpanic/signalengine/internal/features"
	"github.com/sawpanic/signalengine/internal/filters"
	"github.com/sawpanic/signalengine/internal/httpapi"
	"github.com/sawpanic/signalengine/internal/ingest"
	"github.com/sawpanic/signalengine/internal/ingest/wsstream"
	"github.com/sawpanic/signalengine/internal/market"
	"github.com/sawpanic/signalengine/internal/signal"
	"github.com/sawpanic/signalengine/internal/strategy/legacy"
	"github.com/sawpanic/signalengine/internal/temporal"
)

func newScanCmd() *cobra.Command {
	var wsURL string
	var queueCapacity int
	var metricsAddr string
	var configPath string

	cmd := &cobra.Command{
		Use:   "scan",
		Short: "Run the live signal pipeline against a websocket ingestion source",
		Long: `scan dials a JSON-over-websocket candle/book/trade stream, drains it
through the bounded ingestion queues, and emits a GeneratedSignal JSON line
to stdout for every accepted (asset, timeframe) tick. Rejected ticks are
logged at Debug with their rejection reason, never emitted.`,
		RunE: func(cmd *cobra.Command, args []string) error {
			return runScan(cmd.Context(), wsURL, queueCapacity, metricsAddr, configPath)
		},
	}

	cmd.Flags().StringVar(&wsURL, "ws-url", "", "websocket URL to dial for candle/book/trade frames (required)")
	cmd.Flags().IntVar(&queueCapacity, "queue-capacity", ingest.DefaultQueueCapacity, "bounded ingestion queue capacity per stream")
	cmd.Flags().StringVar(&metricsAddr, "metrics-addr", "", "if set, also serve /healthz and /metrics on this host:port")
	cmd.Flags().StringVar(&configPath, "config", "", "optional path to a config.yaml; unset uses the engine's built-in defaults")
	_ = cmd.MarkFlagRequired("ws-url")

	return cmd
}

// partitionEngine bundles the feature and strategy engines one logical
// signal task owns for a single (asset, timeframe) partition.
type partitionEngine struct {
	features *features.Engine
	strategy *legacy.Engine
}

func runScan(ctx context.Context, wsURL string, queueCapacity int, metricsAddr, configPath string) error {
	ctx, stop := ossignal.NotifyContext(ctx, os.Interrupt, syscall.SIGTERM)
	defer stop()

	logger := log.Logger

	engineCfg := config.DefaultConfig()
	if configPath != "" {
		loaded, err := config.LoadConfig(configPath)
		if err != nil {
			return fmt.Errorf("loading config: %w", err)
		}
		engineCfg = loaded
	}
	thresholds := legacy.ThresholdsFromConfig(engineCfg)
	filterChain := filters.NewChain(filters.ThresholdsFromConfig(engineCfg))

	candles := ingest.NewCandleQueue(queueCapacity, logger)
	books := ingest.NewBookQueue(queueCapacity, logger)
	trades := ingest.NewTradeQueue(queueCapacity, logger)

	sink := wsstream.Sink{Candles: candles, Books: books, Trades: trades}
	reader := wsstream.Reader{URL: wsURL, Sink: sink, Log: logger, HandshakeTimeout: 10 * time.Second}

	metrics := httpapi.NewMetricsRegistry()
	var httpServer *httpapi.Server
	if metricsAddr != "" {
		httpServer = startMetricsServer(metricsAddr, metrics, candles, books, trades, logger)
		defer httpServer.Shutdown(context.Background())
	}

	go func() {
		if err := reader.Run(ctx); err != nil {
			logger.Error().Err(err).Msg("websocket reader stopped")
		}
	}()

	events := fanIn(ctx, books, trades, candles)

	engines := map[string]*partitionEngine{}
	crossAssetAnalyzer := crossasset.NewAnalyzer()

	logger.Info().Str("ws_url", wsURL).Msg("scan pipeline started")

	for {
		select {
		case <-ctx.Done():
			logger.Info().Msg("scan pipeline shutting down")
			return nil
		case ev := <-events:
			switch {
			case ev.book != nil:
				pe := enginesFor(engines, ev.book.Asset, ev.book.Timeframe, crossAssetAnalyzer, thresholds)
				pe.features.OnBook(*ev.book)
			case ev.trade != nil:
				pe := enginesFor(engines, ev.trade.Asset, ev.trade.Timeframe, crossAssetAnalyzer, thresholds)
				pe.features.OnTrade(*ev.trade)
			case ev.candle != nil:
				c := *ev.candle
				pe := enginesFor(engines, c.Asset, c.Timeframe, crossAssetAnalyzer, thresholds)
				nowMs := time.Now().UnixMilli()
				snap := pe.features.OnCandle(c, nowMs)

				decision := pe.strategy.Evaluate(c.Asset, c.Timeframe, legacy.Request{Snapshot: snap, NowMs: nowMs})
				if !decision.Signal {
					metrics.RecordRejection(decision.RejectReason)
					logger.Debug().Str("asset", string(c.Asset)).Str("reason", decision.RejectReason).Msg("tick rejected")
					continue
				}

				filterReq := filters.WithCorrelation(filters.Request{
					Snapshot:   snap,
					Direction:  decision.Direction,
					Confidence: decision.Confidence,
					NowMs:      nowMs,
				}, crossAssetAnalyzer, c.Timeframe)
				if result := filterChain.Evaluate(filterReq); !result.Allow {
					metrics.RecordRejection(result.Reason)
					logger.Debug().Str("asset", string(c.Asset)).Str("reason", result.Reason).Msg("tick rejected by filter chain")
					continue
				}

				reasons, indicatorsUsed := activeClusterNames(decision)
				sig := signal.New(c.Asset, c.Timeframe, decision.Direction, decision.Confidence,
					reasons, indicatorsUsed, signal.StrategyClusterVoter, time.UnixMilli(c.CloseTime), 0)

				metrics.RecordSignal(string(c.Asset), string(c.Timeframe))
				emit(sig, logger)
			}
		}
	}
}

// ingestEvent tags exactly one of the three ingress streams, the shape a
// single select loop needs to drain all of them without one empty queue's
// blocking Drain call starving the others.
type ingestEvent struct {
	book   *candle.OrderBook
	trade  *candle.TradePrint
	candle *candle.Candle
}

// fanIn merges the three bounded queues' blocking Drain calls onto one
// channel via a dedicated goroutine per queue.
func fanIn(ctx context.Context, books *ingest.BookQueue, trades *ingest.TradeQueue, candles *ingest.CandleQueue) <-chan ingestEvent {
	out := make(chan ingestEvent)

	go func() {
		for {
			ob, ok := books.Drain(ctx)
			if !ok {
				return
			}
			select {
			case out <- ingestEvent{book: &ob}:
			case <-ctx.Done():
				return
			}
		}
	}()
	go func() {
		for {
			tp, ok := trades.Drain(ctx)
			if !ok {
				return
			}
			select {
			case out <- ingestEvent{trade: &tp}:
			case <-ctx.Done():
				return
			}
		}
	}()
	go func() {
		for {
			c, ok := candles.Drain(ctx)
			if !ok {
				return
			}
			select {
			case out <- ingestEvent{candle: &c}:
			case <-ctx.Done():
				return
			}
		}
	}()

	return out
}

func enginesFor(engines map[string]*partitionEngine, asset market.Asset, tf market.Timeframe, crossAssetAnalyzer *crossasset.Analyzer, thresholds legacy.Thresholds) *partitionEngine {
	key := market.MarketKey(asset, tf)
	if pe, ok := engines[key]; ok {
		return pe
	}
	pe := &partitionEngine{
		features: features.NewEngine(asset, tf),
		strategy: legacy.NewEngine(thresholds, temporal.NewAnalyzer(), crossAssetAnalyzer, calibration.NewIndicatorStore()),
	}
	engines[key] = pe
	return pe
}

func activeClusterNames(decision legacy.Decision) (reasons, indicatorsUsed []string) {
	for _, cl := range decision.Clusters {
		if !cl.Active {
			continue
		}
		reasons = append(reasons, cl.Name+"_cluster_active")
		indicatorsUsed = append(indicatorsUsed, cl.Name)
	}
	return reasons, indicatorsUsed
}

func emit(sig signal.GeneratedSignal, logger zerolog.Logger) {
	enc := json.NewEncoder(os.Stdout)
	if err := enc.Encode(sig); err != nil {
		logger.Error().Err(err).Msg("failed to encode signal")
		return
	}
	logger.Info().Str("asset", string(sig.Asset)).Str("direction", string(sig.Direction)).
		Float64("confidence", sig.Confidence).Msg("signal emitted")
}

func startMetricsServer(addr string, metrics *httpapi.MetricsRegistry, candles *ingest.CandleQueue, books *ingest.BookQueue, trades *ingest.TradeQueue, logger zerolog.Logger) *httpapi.Server {
	cfg := httpapi.DefaultConfig()
	cfg.Host, cfg.Port = splitHostPort(addr)

	health := httpapi.NewHealthHandler(nil, queueDepthSource{candles, books, trades}, version)
	srv := httpapi.NewServer(cfg, health, metrics, logger)
	go func() {
		if err := srv.Start(); err != nil {
			logger.Error().Err(err).Msg("metrics server stopped")
		}
	}()
	return srv
}

type queueDepthSource struct {
	candles *ingest.CandleQueue
	books   *ingest.BookQueue
	trades  *ingest.TradeQueue
}

func (q queueDepthSource) QueueDepths() map[string]int {
	return map[string]int{
		"candle": q.candles.Len(),
		"book":   q.books.Len(),
		"trade":  q.trades.Len(),
	}
}
