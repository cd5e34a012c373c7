package legacy

import (
	"time"

	"github.com/sawpanic/signalengine/internal/calibration"
	"github.com/sawpanic/signalengine/internal/crossasset"
	"github.com/sawpanic/signalengine/internal/features"
	"github.com/sawpanic/signalengine/internal/market"
	"github.com/sawpanic/signalengine/internal/orderbook"
	"github.com/sawpanic/signalengine/internal/settlement"
	"github.com/sawpanic/signalengine/internal/temporal"
)

func unixToTime(sec int64) time.Time {
	return time.Unix(sec, 0)
}

// indicatorNames lists every cluster vote source, the key the calibrator
// indexes calibrated weights by.
var indicatorNames = []string{
	"adx", "ema", "macd", "momentum_velocity", "heikin_ashi", "short_term_momentum",
	"rsi", "bollinger", "stoch_rsi", "orderbook_imbalance", "order_flow_delta",
	"obv_volume", "rsi_divergence",
}

// Request is one decision request for one (asset, timeframe) tick.
type Request struct {
	Snapshot               features.Snapshot
	OtherTimeframeSnapshot *features.Snapshot // the sibling timeframe's latest snapshot, if tracked
	ImpliedProbability     float64             // market-implied probability of Up, for the settlement edge
	Strike                 float64             // window-start price
	MinutesToExpiry        float64
	NowMs                  int64
	SettlementTime         int64 // unix seconds, for the temporal analyzer's time-of-day lookup
}

// ClusterSummary is the explainable, exported view of one cluster's vote.
type ClusterSummary struct {
	Name              string
	Active            bool
	DominantDirection market.Direction
	Confidence        float64
}

// Decision is the cluster voter's output for one Request.
type Decision struct {
	Signal       bool
	Direction    market.Direction
	Confidence   float64
	RejectReason string
	Clusters     []ClusterSummary
}

// Engine is the cluster-voting strategy of spec §4.8. It owns no per-tick
// state of its own beyond the signal-cooldown clock; the feature snapshot,
// temporal analyzer, cross-asset analyzer, settlement predictor and
// indicator calibrator are all owned upstream and threaded in via Request
// and the constructor's dependencies, matching spec §5's "the strategy
// engine exclusively owns the settlement predictor and ML ensemble" split.
type Engine struct {
	thresholds Thresholds

	temporalAnalyzer   *temporal.Analyzer
	crossAssetAnalyzer *crossasset.Analyzer
	indicatorStore     *calibration.IndicatorStore
	settlementTrackers map[market.Asset]*settlement.Tracker
	orderBookTrackers  map[string]*orderbook.Tracker // keyed by market.MarketKey

	lastSignalAtMs map[string]int64 // keyed by market.MarketKey
}

// NewEngine constructs a cluster-voting Engine with the given thresholds.
// Callers that don't need a loaded config document can pass
// DefaultThresholds().
func NewEngine(thresholds Thresholds, temporalAnalyzer *temporal.Analyzer, crossAssetAnalyzer *crossasset.Analyzer,
	indicatorStore *calibration.IndicatorStore) *Engine {
	return &Engine{
		thresholds:         thresholds,
		temporalAnalyzer:   temporalAnalyzer,
		crossAssetAnalyzer: crossAssetAnalyzer,
		indicatorStore:     indicatorStore,
		settlementTrackers: make(map[market.Asset]*settlement.Tracker),
		orderBookTrackers:  make(map[string]*orderbook.Tracker),
		lastSignalAtMs:     make(map[string]int64),
	}
}

func (e *Engine) settlementTracker(asset market.Asset) *settlement.Tracker {
	t, ok := e.settlementTrackers[asset]
	if !ok {
		t = settlement.NewTracker(asset)
		e.settlementTrackers[asset] = t
	}
	return t
}

// RegisterOrderBookTracker lets the caller share its per-(asset, timeframe)
// order-book tracker so the voter can read order-book agreement for the
// multi-timeframe alignment bonus.
func (e *Engine) RegisterOrderBookTracker(asset market.Asset, tf market.Timeframe, tr *orderbook.Tracker) {
	e.orderBookTrackers[market.MarketKey(asset, tf)] = tr
}

func (e *Engine) weightsFor(marketKey string) map[string]float64 {
	weights := make(map[string]float64, len(indicatorNames))
	for _, name := range indicatorNames {
		weights[name] = e.indicatorStore.Get(marketKey, name, 1.0).CalibratedWeight
	}
	return weights
}

func (e *Engine) orderBookAgrees(marketKey string, direction market.Direction) bool {
	tr, ok := e.orderBookTrackers[marketKey]
	if !ok {
		return false
	}
	imb, ok := tr.LastImbalance()
	if !ok {
		return false
	}
	if direction == market.Up {
		return imb > 0
	}
	return imb < 0
}

// Evaluate runs the full gating chain, tallies the five clusters, and
// assembles the final confidence, per spec §4.8.
func (e *Engine) Evaluate(asset market.Asset, tf market.Timeframe, req Request) Decision {
	snap := req.Snapshot
	marketKey := market.MarketKey(asset, tf)

	if reason, ok := gateAssetSupported(asset); !ok {
		return Decision{RejectReason: reason}
	}
	if reason, ok := gateCooldown(tf, req.NowMs, e.lastSignalAtMs[marketKey]); !ok {
		return Decision{RejectReason: reason}
	}
	if reason, ok := gateEthLongDisabled(asset, tf); !ok {
		return Decision{RejectReason: reason}
	}
	if reason, ok := gateVolatileRegimeLong(tf, snap.Regime); !ok {
		return Decision{RejectReason: reason}
	}
	if reason, ok := gateLateEntry(snap, e.thresholds.MaxLateEntryProgress); !ok {
		return Decision{RejectReason: reason}
	}
	if reason, ok := gateSpread(snap, e.thresholds); !ok {
		return Decision{RejectReason: reason}
	}
	if reason, ok := gateDepth(snap, e.thresholds); !ok {
		return Decision{RejectReason: reason}
	}
	if reason, ok := gateEarlyWindowVolatility(snap, e.thresholds); !ok {
		return Decision{RejectReason: reason}
	}

	settlementTr := e.settlementTracker(asset)
	clusters := allClusters(snap, settlementTr.Velocity(), e.weightsFor(marketKey), e.thresholds.ClusterMinAlignment)

	if reason, ok := gateInsufficientClusters(clusters, e.thresholds.MinActiveClusters); !ok {
		return Decision{RejectReason: reason, Clusters: summarize(clusters)}
	}
	if reason, ok := gateTrendMomentumMisalignment(clusters, e.thresholds.ClusterRequireTrendMomentumAgree); !ok {
		return Decision{RejectReason: reason, Clusters: summarize(clusters)}
	}

	direction, winningTotal, losingTotal := combinedVotes(clusters)

	if reason, ok := gateZeroVotes(winningTotal, losingTotal); !ok {
		return Decision{RejectReason: reason, Clusters: summarize(clusters)}
	}
	if reason, ok := gateVoteMargin(winningTotal, losingTotal, e.thresholds.MinVoteRatio); !ok {
		return Decision{RejectReason: reason, Clusters: summarize(clusters)}
	}

	temporalMultiplier := 1.0
	if e.temporalAnalyzer != nil && req.SettlementTime != 0 {
		temporalMultiplier, _ = e.temporalAnalyzer.TemporalAdjustment(asset, tf, direction, unixToTime(req.SettlementTime))
	}

	var crossSig crossasset.Signal
	var crossOK bool
	if e.crossAssetAnalyzer != nil {
		crossSig, crossOK = e.crossAssetAnalyzer.BTCETHSignal(tf)
	}

	var settlementPred *settlement.Prediction
	if req.MinutesToExpiry > 0 && req.Strike > 0 {
		pressure := 0.0
		if tr, ok := e.orderBookTrackers[marketKey]; ok {
			_, pressure = tr.Classify()
		}
		p := settlementTr.Predict(snap.Close, req.MinutesToExpiry, pressure, req.ImpliedProbability, req.Strike)
		settlementPred = &p
	}

	confidence := assembleConfidence(direction, winningTotal, losingTotal, assemblyInputs{
		Snapshot:               snap,
		OtherTimeframeSnapshot: req.OtherTimeframeSnapshot,
		OrderBookAgrees:        e.orderBookAgrees(marketKey, direction),
		TemporalMultiplier:     temporalMultiplier,
		CrossAssetSignal:       crossSig,
		CrossAssetOK:           crossOK,
		SettlementPrediction:   settlementPred,
		Strike:                 req.Strike,
	})

	if confidence < e.thresholds.MinConfidence {
		return Decision{RejectReason: ReasonConfidenceBelowMin, Clusters: summarize(clusters), Confidence: confidence}
	}

	e.lastSignalAtMs[marketKey] = req.NowMs

	return Decision{
		Signal:     true,
		Direction:  direction,
		Confidence: confidence,
		Clusters:   summarize(clusters),
	}
}

func summarize(clusters []clusterResult) []ClusterSummary {
	out := make([]ClusterSummary, len(clusters))
	for i, c := range clusters {
		out[i] = ClusterSummary{
			Name:              c.name,
			Active:            c.active,
			DominantDirection: c.dominantDirection,
			Confidence:        c.confidence,
		}
	}
	return out
}
