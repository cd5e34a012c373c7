package legacy

import "github.com/sawpanic/signalengine/internal/config"

// Thresholds collects every numeric knob the gating chain and confidence
// assembly consult. Values come straight out of spec §4.8; the handful it
// leaves unpinned (early-window volatility bound, market-timing bands) are
// recorded as Open Question resolutions in DESIGN.md rather than invented
// silently here.
type Thresholds struct {
	MinConfidence float64
	MinVoteRatio  float64 // winning/losing vote ratio, gate 12

	MaxLateEntryProgress float64 // gate 5

	SpreadBPSMaxShort float64 // gate 6
	SpreadBPSMaxLong  float64

	DepthMinShort float64 // gate 7
	DepthMinLong  float64

	EarlyWindowProgressMax float64 // gate 8
	EarlyWindowVolMin      float64

	MinActiveClusters                int     // gate 9, min_active_votes
	ClusterMinAlignment              float64 // cluster tally's aligned-share bar, cluster_min_alignment
	ClusterRequireTrendMomentumAgree bool    // gate 10, cluster_require_trend_momentum_agreement
}

// DefaultThresholds mirrors the concrete numbers spec §4.8 names.
func DefaultThresholds() Thresholds {
	return Thresholds{
		MinConfidence:                     0.55,
		MinVoteRatio:                      1.15,
		MaxLateEntryProgress:              0.85,
		SpreadBPSMaxShort:                 1200,
		SpreadBPSMaxLong:                  2000,
		DepthMinShort:                     10,
		DepthMinLong:                      5,
		EarlyWindowProgressMax:            0.3,
		EarlyWindowVolMin:                 0.02,
		MinActiveClusters:                2,
		ClusterMinAlignment:              0.70,
		ClusterRequireTrendMomentumAgree: true,
	}
}

// ThresholdsFromConfig overlays the §6 knobs internal/config actually
// carries (min_confidence, min_vote_ratio, min_active_votes,
// cluster_min_alignment, cluster_require_trend_momentum_agreement) onto
// DefaultThresholds' baseline, so a loaded Config document drives the
// gating chain instead of it silently re-deriving its own defaults.
func ThresholdsFromConfig(cfg *config.Config) Thresholds {
	th := DefaultThresholds()
	th.MinConfidence = cfg.MinConfidence
	th.MinVoteRatio = cfg.Clusters.MinVoteRatio
	th.MinActiveClusters = cfg.Clusters.MinActiveVotes
	th.ClusterMinAlignment = cfg.Clusters.ClusterMinAlignment
	th.ClusterRequireTrendMomentumAgree = cfg.Clusters.ClusterRequireTrendMomentumAgree
	return th
}
