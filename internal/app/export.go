package app

import (
	"context"
	"encoding/csv"
	"errors"
	"math"
	"os"
	"path/filepath"
	"strconv"
	"time"

	"github.com/shopspring/decimal"
	chart "github.com/wcharczuk/go-chart/v2"

	"hedera-defi/internal/storage"
)

// Export renders snapshot history as CSV and/or PNG.
func (a *App) Export(ctx context.Context, opts ExportOptions) error {
	if opts.CSVPath == "" && opts.PNGPath == "" {
		return errors.New("at least one of --csv or --png must be provided")
	}

	opts.MaxPoints = a.Config.ResolveMaxPoints(opts.MaxPoints)

	store, closeStore, err := a.openStore(ctx)
	if err != nil {
		return err
	}
	if store == nil {
		return errors.New("database not configured; cannot export")
	}
	if closeStore != nil {
		defer closeStore()
	}

	from, to, err := a.exportWindow(opts, time.Now().UTC())
	if err != nil {
		return err
	}

	snaps, err := store.ListSnapshotsBetween(ctx, from, to)
	if err != nil {
		return err
	}
	if len(snaps) == 0 {
		a.Logger.Info().Msg("no snapshots found for export window")
		return nil
	}

	return a.writeExports(opts, snaps)
}

func (a *App) exportWindow(opts ExportOptions, now time.Time) (time.Time, time.Time, error) {
	to := now
	if opts.To != nil {
		to = opts.To.UTC()
	}

	from := to.Add(-time.Duration(opts.MaxPoints) * a.Config.Scheduler.Interval)
	if opts.From != nil {
		from = opts.From.UTC()
	}

	if !from.Before(to) {
		return time.Time{}, time.Time{}, errors.New("from must be before to")
	}
	return from, to, nil
}

func (a *App) writeExports(opts ExportOptions, snaps []storage.LiquiditySnapshot) error {
	downsampled := downsampleSnapshots(snaps, opts.MaxPoints)
	a.Logger.Info().Int("total", len(snaps)).Int("exported", len(downsampled)).Msg("exporting snapshots")

	if opts.CSVPath != "" {
		if err := writeSnapshotsCSV(opts.CSVPath, downsampled); err != nil {
			return err
		}
	}

	if opts.PNGPath != "" {
		if err := writeSnapshotsPNG(opts.PNGPath, downsampled); err != nil {
			return err
		}
	}
	return nil
}

func downsampleSnapshots(snaps []storage.LiquiditySnapshot, max int) []storage.LiquiditySnapshot {
	if max <= 0 || len(snaps) <= max {
		return snaps
	}
	if max == 1 {
		return snaps[len(snaps)-1:]
	}

	result := make([]storage.LiquiditySnapshot, 0, max)
	step := float64(len(snaps)-1) / float64(max-1)
	for i := 0; i < max; i++ {
		idx := int(math.Round(step * float64(i)))
		if idx >= len(snaps) {
			idx = len(snaps) - 1
		}
		result = append(result, snaps[idx])
	}
	return result
}

func writeSnapshotsCSV(path string, snaps []storage.LiquiditySnapshot) error {
	if err := ensureDir(path); err != nil {
		return err
	}

	file, err := os.Create(path)
	if err != nil {
		return err
	}
	defer file.Close()

	writer := csv.NewWriter(file)
	defer writer.Flush()

	header := []string{"bucket_ts", "total_usd", "dex_tvl_usd", "lending_tvl_usd", "dex_share_pct", "lending_share_pct", "dex_available", "lending_available", "status", "error"}
	if err := writer.Write(header); err != nil {
		return err
	}

	for _, snap := range snaps {
		errMsg := ""
		if snap.Error != nil {
			errMsg = *snap.Error
		}
		record := []string{
			snap.Bucket.Format(time.RFC3339),
			snap.TotalUSD.String(),
			snap.DexTVLUSD.String(),
			snap.LendingTVLUSD.String(),
			snap.DexSharePct.String(),
			snap.LendingSharePct.String(),
			strconv.FormatBool(snap.DexAvailable),
			strconv.FormatBool(snap.LendingAvailable),
			snap.Status,
			errMsg,
		}
		if err := writer.Write(record); err != nil {
			return err
		}
	}

	writer.Flush()
	return writer.Error()
}

func writeSnapshotsPNG(path string, snaps []storage.LiquiditySnapshot) error {
	if len(snaps) < 2 {
		return errors.New("png export needs at least two snapshots")
	}
	if err := ensureDir(path); err != nil {
		return err
	}

	x := make([]time.Time, len(snaps))
	total := make([]float64, len(snaps))
	dex := make([]float64, len(snaps))
	lending := make([]float64, len(snaps))
	dexShare := make([]float64, len(snaps))

	for i, snap := range snaps {
		x[i] = snap.Bucket
		total[i] = snap.TotalUSD.InexactFloat64()
		dex[i] = snap.DexTVLUSD.InexactFloat64()
		lending[i] = snap.LendingTVLUSD.InexactFloat64()
		dexShare[i] = snap.DexSharePct.InexactFloat64()
	}

	usdFormatter := func(v interface{}) string {
		return chart.FloatValueFormatterWithFormat(v, "%.0f")
	}
	pctFormatter := func(v interface{}) string {
		return chart.FloatValueFormatterWithFormat(v, "%.1f")
	}
	graph := chart.Chart{
		Width:  1280,
		Height: 720,
		XAxis: chart.XAxis{
			ValueFormatter: chart.TimeValueFormatter,
		},
		YAxis: chart.YAxis{
			Name:           "Liquidity (USD)",
			ValueFormatter: usdFormatter,
		},
		YAxisSecondary: chart.YAxis{
			Name:           "SaucerSwap share (%)",
			ValueFormatter: pctFormatter,
		},
		Series: []chart.Series{
			chart.TimeSeries{
				Name:    "Total",
				XValues: x,
				YValues: total,
			},
			chart.TimeSeries{
				Name:    "SaucerSwap TVL",
				XValues: x,
				YValues: dex,
			},
			chart.TimeSeries{
				Name:    "Bonzo supplied",
				XValues: x,
				YValues: lending,
			},
			chart.TimeSeries{
				Name:    "SaucerSwap share %",
				XValues: x,
				YValues: dexShare,
				YAxis:   chart.YAxisSecondary,
			},
		},
	}
	graph.Elements = []chart.Renderable{chart.Legend(&graph)}

	file, err := os.Create(path)
	if err != nil {
		return err
	}
	defer file.Close()

	return graph.Render(chart.PNG, file)
}

func ensureDir(path string) error {
	dir := filepath.Dir(path)
	if dir == "." || dir == "" {
		return nil
	}
	return os.MkdirAll(dir, 0o755)
}

func formatDecimal(d decimal.Decimal, places int32) string {
	return d.StringFixed(places)
}
