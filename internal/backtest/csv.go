package backtest

import (
	"encoding/csv"
	"io"
	"strconv"
	"time"
)

// csvHeader matches spec §6's CSV export contract exactly.
var csvHeader = []string{
	"entry_ts", "exit_ts", "asset", "timeframe", "direction",
	"entry_price", "exit_price", "confidence", "pnl", "is_win",
}

// WriteCSV writes the header spec §6 names verbatim, then one row per
// trade in the order trades are given.
func WriteCSV(w io.Writer, trades []Trade) error {
	cw := csv.NewWriter(w)
	defer cw.Flush()

	if err := cw.Write(csvHeader); err != nil {
		return err
	}

	for _, t := range trades {
		row := []string{
			time.UnixMilli(t.EntryTS).UTC().Format(time.RFC3339),
			time.UnixMilli(t.ExitTS).UTC().Format(time.RFC3339),
			string(t.Asset),
			string(t.Timeframe),
			string(t.Direction),
			strconv.FormatFloat(t.EntryPrice, 'f', 8, 64),
			strconv.FormatFloat(t.ExitPrice, 'f', 8, 64),
			strconv.FormatFloat(t.Confidence, 'f', 6, 64),
			strconv.FormatFloat(t.PnL, 'f', 6, 64),
			strconv.FormatBool(t.IsWin),
		}
		if err := cw.Write(row); err != nil {
			return err
		}
	}

	return cw.Error()
}
