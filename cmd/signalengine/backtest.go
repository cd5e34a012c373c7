package main

import (
	"encoding/json"
	"fmt"
	"os"

	"github.com/rs/zerolog/log"
	"github.com/spf13/cobra"

	"github.com/sawpanic/signalengine/internal/backtest"
	"github.com/sawpanic/signalengine/internal/candle"
	"github.com/sawpanic/signalengine/internal/config"
	"github.com/sawpanic/signalengine/internal/strategy/legacy"
)

func newBacktestCmd() *cobra.Command {
	var inputPath string
	var outputPath string
	var configPath string
	var lookback int
	var positionSize float64
	var commissionRate float64
	var slippageRate float64

	cmd := &cobra.Command{
		Use:   "backtest",
		Short: "Replay a candle file through the signal pipeline and report performance",
		Long: `backtest loads a JSON array of candles, groups them by (asset, timeframe),
and chronologically replays each partition through the feature and strategy
engines with a lookback warm-up before admitting signals (spec §4.11). It
prints win-rate, profit factor, annualized Sharpe, and max drawdown, and
optionally writes a per-trade CSV ledger.`,
		RunE: func(cmd *cobra.Command, args []string) error {
			candles, err := loadCandlesJSON(inputPath)
			if err != nil {
				return fmt.Errorf("loading candles: %w", err)
			}

			thresholds := legacy.DefaultThresholds()
			if configPath != "" {
				engineCfg, err := config.LoadConfig(configPath)
				if err != nil {
					return fmt.Errorf("loading config: %w", err)
				}
				thresholds = legacy.ThresholdsFromConfig(engineCfg)
			}

			cfg := backtest.DefaultConfig()
			cfg.LookbackCandles = lookback
			cfg.PositionSizeUSDC = positionSize
			cfg.CommissionRate = commissionRate
			cfg.SlippageRate = slippageRate
			cfg.Thresholds = thresholds

			runner := backtest.NewRunner(cfg, log.Logger)
			result, err := runner.Run(candles)
			if err != nil {
				return fmt.Errorf("replay failed: %w", err)
			}

			printMetrics(result.Metrics)

			if outputPath != "" {
				if err := writeTradesCSV(outputPath, result.Trades); err != nil {
					return fmt.Errorf("writing trade CSV: %w", err)
				}
				log.Info().Str("path", outputPath).Int("trades", len(result.Trades)).Msg("trade ledger written")
			}

			return nil
		},
	}

	cmd.Flags().StringVar(&inputPath, "input", "", "path to a JSON array of candles (required)")
	cmd.Flags().StringVar(&outputPath, "output", "", "optional path to write the per-trade CSV ledger")
	cmd.Flags().StringVar(&configPath, "config", "", "optional path to a config.yaml; unset uses the engine's built-in defaults")
	cmd.Flags().IntVar(&lookback, "lookback", backtest.DefaultConfig().LookbackCandles, "candles of history required before admitting signals")
	cmd.Flags().Float64Var(&positionSize, "position-size", 1.0, "notional position size per trade, in USDC")
	cmd.Flags().Float64Var(&commissionRate, "commission-rate", 0, "fractional commission cost per trade")
	cmd.Flags().Float64Var(&slippageRate, "slippage-rate", 0, "fractional slippage cost per trade")
	_ = cmd.MarkFlagRequired("input")

	return cmd
}

func loadCandlesJSON(path string) ([]candle.Candle, error) {
	f, err := os.Open(path)
	if err != nil {
		return nil, err
	}
	defer f.Close()

	var candles []candle.Candle
	if err := json.NewDecoder(f).Decode(&candles); err != nil {
		return nil, fmt.Errorf("decoding candle file: %w", err)
	}
	return candles, nil
}

func writeTradesCSV(path string, trades []backtest.Trade) error {
	f, err := os.Create(path)
	if err != nil {
		return err
	}
	defer f.Close()
	return backtest.WriteCSV(f, trades)
}

func printMetrics(m backtest.Metrics) {
	fmt.Printf("total_trades=%d wins=%d losses=%d win_rate=%.4f\n", m.TotalTrades, m.Wins, m.Losses, m.WinRate)
	fmt.Printf("gross_profit=%.4f gross_loss=%.4f profit_factor=%.4f expectancy=%.4f\n",
		m.GrossProfit, m.GrossLoss, m.ProfitFactor, m.Expectancy)
	fmt.Printf("sharpe=%.4f max_drawdown=%.4f\n", m.Sharpe, m.MaxDrawdown)
	for reason, count := range m.RejectionsByReason {
		fmt.Printf("rejected[%s]=%d\n", reason, count)
	}
}
