// Package signal defines GeneratedSignal, the engine's one output shape
// (spec §6): every strategy path — the cluster voter and the ML ensemble
// alike — converges on this struct before it reaches persistence, the
// backtest trade ledger, or a live consumer. Grounded on cryptorun's
// habit of keeping its wire-output types (e.g. domain/scoring.ScoredAsset)
// separate from the engine state that produces them, and on the
// `google/uuid` dependency cryptorun's require block already carries
// for exactly this kind of record identity.
package signal

import (
	"time"

	"github.com/google/uuid"

	"github.com/sawpanic/signalengine/internal/market"
)

// Strategy identifiers, the closed set GeneratedSignal.StrategyID takes.
const (
	StrategyClusterVoter = "cluster_voter_v1"
	StrategyMLEnsemble   = "ml_ensemble_v1"
)

// GeneratedSignal is the engine's emitted decision record, field-for-field
// the JSON shape spec §6 names. Optional fields that only make sense for
// a live prediction-market venue (market_slug, condition_id, token_id)
// are pointers, nil in contexts — like backtest replay over bare candles
// — that have no venue attribution to attach.
type GeneratedSignal struct {
	ID         string          `json:"id"`
	Timestamp  time.Time       `json:"ts"`
	Asset      market.Asset    `json:"asset"`
	Timeframe  market.Timeframe `json:"timeframe"`
	Direction  market.Direction `json:"direction"`
	Confidence float64         `json:"confidence"`

	Reasons        []string `json:"reasons"`
	IndicatorsUsed []string `json:"indicators_used"`
	StrategyID     string   `json:"strategy_id"`

	MarketSlug  *string `json:"market_slug,omitempty"`
	ConditionID *string `json:"condition_id,omitempty"`
	TokenID     *string `json:"token_id,omitempty"`

	ExpiresAt         time.Time `json:"expires_at"`
	SuggestedSizeUSDC float64   `json:"suggested_size_usdc"`

	QuotePriceUp   *float64 `json:"quote_price_up,omitempty"`
	QuotePriceDown *float64 `json:"quote_price_down,omitempty"`
}

// New stamps a fresh GeneratedSignal with a random ID, the given
// strategy/asset/timeframe/direction/confidence, and an expiry derived
// from the timeframe's settlement window.
func New(asset market.Asset, tf market.Timeframe, direction market.Direction, confidence float64,
	reasons, indicatorsUsed []string, strategyID string, ts time.Time, suggestedSizeUSDC float64) GeneratedSignal {
	return GeneratedSignal{
		ID:                uuid.New().String(),
		Timestamp:         ts,
		Asset:             asset,
		Timeframe:         tf,
		Direction:         direction,
		Confidence:        confidence,
		Reasons:           reasons,
		IndicatorsUsed:    indicatorsUsed,
		StrategyID:        strategyID,
		ExpiresAt:         ts.Add(time.Duration(tf.Duration()) * time.Second),
		SuggestedSizeUSDC: suggestedSizeUSDC,
	}
}
