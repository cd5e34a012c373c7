package filters

import (
	"time"

	"github.com/sawpanic/signalengine/internal/crossasset"
	"github.com/sawpanic/signalengine/internal/features"
	"github.com/sawpanic/signalengine/internal/market"
)

// Closed rejection-reason vocabulary for the smart filter chain, per
// spec §6/§4.10.
const (
	ReasonInsufficientLiquidity = "insufficient_liquidity"
	ReasonExcessiveSpread       = "excessive_spread"
	ReasonHighVolatility        = "high_volatility"
	ReasonLowVolatility         = "low_volatility"
	ReasonSuboptimalHour        = "suboptimal_hour"
	ReasonUnstableCorrelation   = "unstable_correlation"
	ReasonLateEntryUp           = "late_entry_up"
	ReasonLateEntryDown         = "late_entry_down"
	ReasonInsufficientTime      = "insufficient_time"
	ReasonMacroEvent            = "macro_event"
	ReasonConfidenceBelowMin    = "confidence_below_min"
)

// Request carries everything a single filter evaluation needs. No single
// filter touches all of it; each reads what it needs.
type Request struct {
	Snapshot   features.Snapshot
	Direction  market.Direction
	Confidence float64

	MinutesToExpiry float64
	NowMs           int64

	OtherAsset     market.Asset
	CorrelationOK  bool
	Correlation    float64
	MacroEventNear bool
}

// Result is one filter's verdict: Allow, or a closed-vocabulary Reason.
type Result struct {
	Name   string
	Allow  bool
	Reason string
}

// filterFunc evaluates one rule against a Request and the chain's current
// (possibly adapted) Thresholds.
type filterFunc func(req Request, th Thresholds) Result

// Chain is the smart filter chain of spec §4.10: an ordered set of
// independent checks, each producing its own Result, AND-combined for the
// overall verdict with the first failing check surfaced as the single
// block reason. Grounded on cryptorun's
// internal/domain/guards.GuardEvaluator.EvaluateAllGuards, which evaluates
// every guard independently into a map and then walks a fixed priority
// order to find the first blocker.
type Chain struct {
	Thresholds Thresholds
	filters    []filterFunc
}

// NewChain builds the standard filter chain in spec §4.10's naming order.
func NewChain(th Thresholds) *Chain {
	return &Chain{
		Thresholds: th,
		filters: []filterFunc{
			filterLiquidity,
			filterSpread,
			filterVolatility,
			filterHour,
			filterCorrelation,
			filterLateEntry,
			filterTimeToClose,
			filterMacroEvent,
			filterConfidence,
		},
	}
}

// AllResults evaluates every filter independently, regardless of whether
// an earlier one failed.
func (c *Chain) AllResults(req Request) map[string]Result {
	out := make(map[string]Result, len(c.filters))
	for _, f := range c.filters {
		r := f(req, c.Thresholds)
		out[r.Name] = r
	}
	return out
}

// Evaluate runs the chain in order and stops at the first failing filter,
// returning its Result. If every filter passes, the returned Result has
// Allow true.
func (c *Chain) Evaluate(req Request) Result {
	for _, f := range c.filters {
		r := f(req, c.Thresholds)
		if !r.Allow {
			return r
		}
	}
	return Result{Name: "chain", Allow: true}
}

// RecordRejectionOutcome feeds adaptive-threshold feedback to the named
// filter: whether the trade it rejected would have won had it been let
// through. Unknown filter names are ignored.
func (c *Chain) RecordRejectionOutcome(filterName string, wouldHaveWon bool) {
	switch filterName {
	case ReasonInsufficientLiquidity:
		c.Thresholds.MinLiquidity.RecordRejection(wouldHaveWon)
	case ReasonExcessiveSpread:
		c.Thresholds.MaxSpreadBPS.RecordRejection(wouldHaveWon)
	case ReasonHighVolatility:
		c.Thresholds.MaxVolatility.RecordRejection(wouldHaveWon)
	case ReasonLowVolatility:
		c.Thresholds.MinVolatility.RecordRejection(wouldHaveWon)
	case ReasonInsufficientTime:
		c.Thresholds.MinMinutesToExpiry.RecordRejection(wouldHaveWon)
	}
}

func filterLiquidity(req Request, th Thresholds) Result {
	allow := req.Snapshot.Top5Depth >= th.MinLiquidity.Effective()
	return Result{Name: ReasonInsufficientLiquidity, Allow: allow, Reason: reasonIfBlocked(allow, ReasonInsufficientLiquidity)}
}

func filterSpread(req Request, th Thresholds) Result {
	allow := req.Snapshot.SpreadBPS <= th.MaxSpreadBPS.Effective()
	return Result{Name: ReasonExcessiveSpread, Allow: allow, Reason: reasonIfBlocked(allow, ReasonExcessiveSpread)}
}

// filterVolatility rejects either extreme: too hot (high_volatility) or
// too dead (low_volatility), per spec §4.10's "extreme volatility (either
// direction)".
func filterVolatility(req Request, th Thresholds) Result {
	v := req.Snapshot.Volatility.Value
	if !req.Snapshot.Volatility.IsValid {
		return Result{Name: "volatility", Allow: true}
	}
	if v > th.MaxVolatility.Effective() {
		return Result{Name: ReasonHighVolatility, Allow: false, Reason: ReasonHighVolatility}
	}
	if v < th.MinVolatility.Effective() {
		return Result{Name: ReasonLowVolatility, Allow: false, Reason: ReasonLowVolatility}
	}
	return Result{Name: "volatility", Allow: true}
}

func filterHour(req Request, th Thresholds) Result {
	if !th.HourFilterEnabled {
		return Result{Name: ReasonSuboptimalHour, Allow: true}
	}
	hour := time.UnixMilli(req.NowMs).UTC().Hour()
	if th.SuboptimalHours[hour] {
		return Result{Name: ReasonSuboptimalHour, Allow: false, Reason: ReasonSuboptimalHour}
	}
	return Result{Name: ReasonSuboptimalHour, Allow: true}
}

func filterCorrelation(req Request, th Thresholds) Result {
	if !req.CorrelationOK {
		return Result{Name: ReasonUnstableCorrelation, Allow: true}
	}
	allow := req.Correlation >= th.CorrelationBandMin && req.Correlation <= th.CorrelationBandMax
	return Result{Name: ReasonUnstableCorrelation, Allow: allow, Reason: reasonIfBlocked(allow, ReasonUnstableCorrelation)}
}

func filterLateEntry(req Request, _ Thresholds) Result {
	w := req.Snapshot.Window
	if w.LateEntryUp && req.Direction == market.Up {
		return Result{Name: ReasonLateEntryUp, Allow: false, Reason: ReasonLateEntryUp}
	}
	if w.LateEntryDown && req.Direction == market.Down {
		return Result{Name: ReasonLateEntryDown, Allow: false, Reason: ReasonLateEntryDown}
	}
	return Result{Name: "late_entry", Allow: true}
}

// filterTimeToClose skips when MinutesToExpiry hasn't been reported
// (<= 0 — a live scan tick with no settlement-window tracker wired in,
// same "unreported, skip" idiom gateDepth uses for Top5Depth).
func filterTimeToClose(req Request, th Thresholds) Result {
	if req.MinutesToExpiry <= 0 {
		return Result{Name: ReasonInsufficientTime, Allow: true}
	}
	allow := req.MinutesToExpiry >= th.MinMinutesToExpiry.Effective()
	return Result{Name: ReasonInsufficientTime, Allow: allow, Reason: reasonIfBlocked(allow, ReasonInsufficientTime)}
}

func filterMacroEvent(req Request, _ Thresholds) Result {
	allow := !req.MacroEventNear
	return Result{Name: ReasonMacroEvent, Allow: allow, Reason: reasonIfBlocked(allow, ReasonMacroEvent)}
}

func filterConfidence(req Request, th Thresholds) Result {
	allow := req.Confidence >= th.MinConfidence
	return Result{Name: ReasonConfidenceBelowMin, Allow: allow, Reason: reasonIfBlocked(allow, ReasonConfidenceBelowMin)}
}

func reasonIfBlocked(allow bool, reason string) string {
	if allow {
		return ""
	}
	return reason
}

// WithCorrelation fills req's correlation inputs from a live analyzer,
// ready for the unstable_correlation filter.
func WithCorrelation(req Request, a *crossasset.Analyzer, tf market.Timeframe) Request {
	corr, ok := a.BTCETHCorrelation(tf)
	req.Correlation = corr
	req.CorrelationOK = ok
	return req
}
