package backtest

import "math"

// TradingPeriodsPerYear is the annualization scale spec §4.11 names
// ("annualized Sharpe using 252-period scaling"), matching cryptorun's
// report/perf package's TradingDaysPerYear default.
const TradingPeriodsPerYear = 252

// Metrics is the backtest run's derived performance summary, computed
// entirely from real per-trade outcomes (no assumed hit rate).
type Metrics struct {
	TotalTrades int
	Wins        int
	Losses      int
	WinRate     float64

	GrossProfit  float64
	GrossLoss    float64
	ProfitFactor float64

	Expectancy float64 // mean PnL per trade

	Sharpe       float64
	MaxDrawdown  float64

	RejectionsByReason map[string]int64
}

// ComputeMetrics tabulates win-rate, profit factor, expectancy, annualized
// Sharpe, and max drawdown over the equity curve from a chronologically
// ordered trade slice. Every figure is derived from the trades' actual
// PnL, never an assumed win percentage.
func ComputeMetrics(trades []Trade, rejections []Rejection) Metrics {
	m := Metrics{RejectionsByReason: map[string]int64{}}
	m.TotalTrades = len(trades)

	for _, r := range rejections {
		m.RejectionsByReason[r.Reason]++
	}

	if m.TotalTrades == 0 {
		return m
	}

	var sumPnL float64
	equity := make([]float64, 0, len(trades)+1)
	equity = append(equity, 0)
	running := 0.0

	for _, t := range trades {
		sumPnL += t.PnL
		if t.IsWin {
			m.Wins++
			m.GrossProfit += t.PnL
		} else {
			m.Losses++
			m.GrossLoss += -t.PnL
		}
		running += t.PnL
		equity = append(equity, running)
	}

	m.WinRate = float64(m.Wins) / float64(m.TotalTrades)
	m.Expectancy = sumPnL / float64(m.TotalTrades)

	if m.GrossLoss > 0 {
		m.ProfitFactor = m.GrossProfit / m.GrossLoss
	}

	m.Sharpe = annualizedSharpe(trades)
	m.MaxDrawdown = maxDrawdown(equity)

	return m
}

// annualizedSharpe computes the Sharpe ratio of the trade-by-trade PnL
// series (sample mean over sample standard deviation), scaled by
// sqrt(TradingPeriodsPerYear) the way cryptorun's report/perf package
// annualizes a per-period return series.
func annualizedSharpe(trades []Trade) float64 {
	n := len(trades)
	if n < 2 {
		return 0
	}

	mean := 0.0
	for _, t := range trades {
		mean += t.PnL
	}
	mean /= float64(n)

	variance := 0.0
	for _, t := range trades {
		diff := t.PnL - mean
		variance += diff * diff
	}
	variance /= float64(n - 1)

	stddev := math.Sqrt(variance)
	if stddev == 0 {
		return 0
	}

	return (mean / stddev) * math.Sqrt(float64(TradingPeriodsPerYear))
}

// maxDrawdown walks an equity curve (cumulative PnL, starting at 0) and
// returns the largest peak-to-trough decline observed.
func maxDrawdown(equity []float64) float64 {
	if len(equity) == 0 {
		return 0
	}
	peak := equity[0]
	maxDD := 0.0
	for _, e := range equity {
		if e > peak {
			peak = e
		}
		dd := peak - e
		if dd > maxDD {
			maxDD = dd
		}
	}
	return maxDD
}
