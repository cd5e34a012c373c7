package backtest

import (
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/sawpanic/signalengine/internal/market"
)

func TestWriteCSVHeaderMatchesSpec(t *testing.T) {
	var buf strings.Builder
	require.NoError(t, WriteCSV(&buf, nil))

	lines := strings.Split(strings.TrimSpace(buf.String()), "\n")
	require.Len(t, lines, 1)
	assert.Equal(t, "entry_ts,exit_ts,asset,timeframe,direction,entry_price,exit_price,confidence,pnl,is_win",
		strings.TrimSpace(lines[0]))
}

func TestWriteCSVEmitsOneRowPerTrade(t *testing.T) {
	trades := []Trade{
		{
			EntryTS: 1_700_000_000_000, ExitTS: 1_700_000_900_000,
			Asset: market.BTC, Timeframe: market.TF15M, Direction: market.Up,
			EntryPrice: 100, ExitPrice: 101, Confidence: 0.62, PnL: 0.8, IsWin: true,
		},
		{
			EntryTS: 1_700_000_900_000, ExitTS: 1_700_001_800_000,
			Asset: market.ETH, Timeframe: market.TF1H, Direction: market.Down,
			EntryPrice: 50, ExitPrice: 51, Confidence: 0.58, PnL: -1.0, IsWin: false,
		},
	}

	var buf strings.Builder
	require.NoError(t, WriteCSV(&buf, trades))

	lines := strings.Split(strings.TrimSpace(buf.String()), "\n")
	require.Len(t, lines, 3)
	assert.Contains(t, lines[1], "BTC")
	assert.Contains(t, lines[1], "true")
	assert.Contains(t, lines[2], "ETH")
	assert.Contains(t, lines[2], "false")
}
