package app

import (
	"context"
	"errors"
	"fmt"
	"strings"
	"text/tabwriter"
	"time"

	"hedera-defi/internal/storage"
)

// Show prints recent snapshots, or recent alerts with opts.Alerts.
func (a *App) Show(ctx context.Context, opts ShowOptions) error {
	store, closeStore, err := a.openStore(ctx)
	if err != nil {
		return err
	}
	if store == nil {
		return errors.New("database not configured; cannot show snapshots")
	}
	if closeStore != nil {
		defer closeStore()
	}

	if opts.Alerts {
		alerts, err := store.ListRecentAlerts(ctx, opts.Limit)
		if err != nil {
			return err
		}
		return a.printAlerts(alerts)
	}

	snaps, err := store.ListRecentSnapshots(ctx, opts.Limit)
	if err != nil {
		return err
	}
	total, err := store.CountSnapshots(ctx)
	if err != nil {
		return err
	}
	return a.printSnapshots(snaps, total)
}

func (a *App) printSnapshots(snaps []storage.LiquiditySnapshot, total int64) error {
	if len(snaps) == 0 {
		fmt.Fprintln(a.Out, "no snapshots found")
		return nil
	}
	fmt.Fprintf(a.Out, "showing %d of %d stored snapshots\n", len(snaps), total)

	writer := tabwriter.NewWriter(a.Out, 0, 4, 2, ' ', 0)
	fmt.Fprintln(writer, "Time (UTC)\tTotal (USD)\tSaucerSwap\tBonzo\tDEX%\tStatus\tError")
	for _, snap := range snaps {
		errMsg := ""
		if snap.Error != nil {
			errMsg = sanitizeInline(*snap.Error)
		}
		fmt.Fprintf(
			writer,
			"%s\t%s\t%s\t%s\t%s\t%s\t%s\n",
			snap.Bucket.UTC().Format(time.RFC3339),
			formatDecimal(snap.TotalUSD, 2),
			formatDecimal(snap.DexTVLUSD, 2),
			formatDecimal(snap.LendingTVLUSD, 2),
			formatDecimal(snap.DexSharePct, 2),
			snap.Status,
			errMsg,
		)
	}
	return writer.Flush()
}

func (a *App) printAlerts(alerts []storage.AlertRecord) error {
	if len(alerts) == 0 {
		fmt.Fprintln(a.Out, "no alerts found")
		return nil
	}

	writer := tabwriter.NewWriter(a.Out, 0, 4, 2, ' ', 0)
	fmt.Fprintln(writer, "Snapshot (UTC)\tPrevious\tCurrent\tChange%\tThreshold%\tDirection\tChannels")
	for _, rec := range alerts {
		fmt.Fprintf(
			writer,
			"%s\t%s\t%s\t%s\t%s\t%s\t%s\n",
			rec.SnapshotTS.UTC().Format(time.RFC3339),
			formatDecimal(rec.PreviousTotal, 2),
			formatDecimal(rec.CurrentTotal, 2),
			formatDecimal(rec.ChangePct, 2),
			formatDecimal(rec.ThresholdPct, 2),
			rec.Direction,
			strings.Join(rec.Channels, ","),
		)
	}
	return writer.Flush()
}

func sanitizeInline(v string) string {
	cleaned := strings.ReplaceAll(v, "\n", " ")
	cleaned = strings.ReplaceAll(cleaned, "\r", " ")
	return cleaned
}
