package legacy

import (
	"github.com/sawpanic/signalengine/internal/features"
	"github.com/sawpanic/signalengine/internal/market"
)

// Closed rejection-reason vocabulary for the gating chain, spec §4.8.
const (
	ReasonAssetNotSupported         = "asset_not_supported"
	ReasonSignalCooldown            = "signal_cooldown"
	ReasonEth1HDisabled             = "eth_1h_disabled_pending_fix"
	ReasonRegimeVolatile1H          = "regime_volatile_1h"
	ReasonLateEntryUp               = "late_entry_up"
	ReasonLateEntryDown             = "late_entry_down"
	ReasonSpreadTooWide             = "spread_too_wide"
	ReasonDepthTooLow               = "depth_too_low"
	ReasonEarlyWindowHighVolatility = "early_window_high_volatility"
	ReasonInsufficientClusters      = "insufficient_clusters"
	ReasonTrendMomentumMisaligned   = "trend_momentum_misalignment"
	ReasonZeroTotalVotes            = "zero_total_votes"
	ReasonVoteMarginTooLow          = "vote_margin_too_low"
	ReasonConfidenceBelowMin        = "confidence_below_min"
)

// gate 1: asset whitelist.
func gateAssetSupported(asset market.Asset) (string, bool) {
	if !asset.Supported() {
		return ReasonAssetNotSupported, false
	}
	return "", true
}

// gate 2: per-timeframe cooldown equal to one window.
func gateCooldown(tf market.Timeframe, nowMs, lastSignalMs int64) (string, bool) {
	if lastSignalMs == 0 {
		return "", true
	}
	if nowMs-lastSignalMs < tf.DurationMillis() {
		return ReasonSignalCooldown, false
	}
	return "", true
}

// gate 3: ETH + long timeframe is currently disabled pending a fix.
func gateEthLongDisabled(asset market.Asset, tf market.Timeframe) (string, bool) {
	if asset == market.ETH && tf.IsLong() {
		return ReasonEth1HDisabled, false
	}
	return "", true
}

// gate 4: volatile regime on the long timeframe.
func gateVolatileRegimeLong(tf market.Timeframe, regime features.Regime) (string, bool) {
	if tf.IsLong() && regime == features.Volatile {
		return ReasonRegimeVolatile1H, false
	}
	return "", true
}

// gate 5: late entry past the configured window-progress bound.
func gateLateEntry(snap features.Snapshot, maxLateEntryProgress float64) (string, bool) {
	if snap.Window.WindowProgress <= maxLateEntryProgress {
		return "", true
	}
	if snap.Window.LateEntryUp {
		return ReasonLateEntryUp, false
	}
	if snap.Window.LateEntryDown {
		return ReasonLateEntryDown, false
	}
	return "", true
}

// gate 6: spread too wide, threshold depends on timeframe.
func gateSpread(snap features.Snapshot, th Thresholds) (string, bool) {
	max := th.SpreadBPSMaxShort
	if snap.Timeframe.IsLong() {
		max = th.SpreadBPSMaxLong
	}
	if snap.SpreadBPS > max {
		return ReasonSpreadTooWide, false
	}
	return "", true
}

// gate 7: top-5 depth too thin, when depth has actually been reported
// (Top5Depth > 0 — no book snapshot yet reports zero and is skipped).
func gateDepth(snap features.Snapshot, th Thresholds) (string, bool) {
	if snap.Top5Depth == 0 {
		return "", true
	}
	min := th.DepthMinShort
	if snap.Timeframe.IsLong() {
		min = th.DepthMinLong
	}
	if snap.Top5Depth < min {
		return ReasonDepthTooLow, false
	}
	return "", true
}

// gate 8: early-window high volatility.
func gateEarlyWindowVolatility(snap features.Snapshot, th Thresholds) (string, bool) {
	if snap.Window.WindowProgress < th.EarlyWindowProgressMax && snap.Window.IntraWindowRange > th.EarlyWindowVolMin {
		return ReasonEarlyWindowHighVolatility, false
	}
	return "", true
}

// gate 9: fewer than minActive active (aligned) clusters, per
// min_active_votes.
func gateInsufficientClusters(clusters []clusterResult, minActive int) (string, bool) {
	active := 0
	for _, c := range clusters {
		if c.active {
			active++
		}
	}
	if active < minActive {
		return ReasonInsufficientClusters, false
	}
	return "", true
}

// gate 10: when requireAgree is set (cluster_require_trend_momentum_agreement),
// both Trend and Momentum clusters being active requires their dominant
// directions to agree. Disabled, the gate never rejects.
func gateTrendMomentumMisalignment(clusters []clusterResult, requireAgree bool) (string, bool) {
	if !requireAgree {
		return "", true
	}
	var trend, momentum *clusterResult
	for i := range clusters {
		switch clusters[i].name {
		case "Trend":
			trend = &clusters[i]
		case "Momentum":
			momentum = &clusters[i]
		}
	}
	if trend == nil || momentum == nil || !trend.active || !momentum.active {
		return "", true
	}
	if trend.dominantDirection != momentum.dominantDirection {
		return ReasonTrendMomentumMisaligned, false
	}
	return "", true
}

// gate 11/12 operate on the combined vote totals across all clusters.
func combinedVotes(clusters []clusterResult) (direction market.Direction, winningTotal, losingTotal float64) {
	var up, down float64
	for _, c := range clusters {
		up += c.upWeight
		down += c.downWeight
	}
	if up >= down {
		return market.Up, up, down
	}
	return market.Down, down, up
}

func gateZeroVotes(winningTotal, losingTotal float64) (string, bool) {
	if winningTotal+losingTotal == 0 {
		return ReasonZeroTotalVotes, false
	}
	return "", true
}

func gateVoteMargin(winningTotal, losingTotal, minRatio float64) (string, bool) {
	if losingTotal == 0 {
		return "", true
	}
	if winningTotal/losingTotal < minRatio {
		return ReasonVoteMarginTooLow, false
	}
	return "", true
}
