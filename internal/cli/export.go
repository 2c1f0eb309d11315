package cli

import (
	"fmt"
	"time"

	"github.com/spf13/cobra"

	"hedera-defi/internal/app"
)

var (
	exportFrom      string
	exportTo        string
	exportLast      time.Duration
	exportPNGPath   string
	exportCSVPath   string
	exportMaxPoints int
)

var exportCmd = &cobra.Command{
	Use:   "export",
	Short: "Export liquidity snapshot history as CSV and/or a PNG chart",
	Example: `  hederadefi export --last 24h --csv liquidity.csv
  hederadefi export --from 2025-01-01 --to 2025-01-08T00:00:00Z --png week.png`,
	RunE: func(cmd *cobra.Command, args []string) error {
		opts := app.ExportOptions{
			PNGPath:   exportPNGPath,
			CSVPath:   exportCSVPath,
			MaxPoints: exportMaxPoints,
		}

		from, err := parseTimestamp("from", exportFrom)
		if err != nil {
			return err
		}
		to, err := parseTimestamp("to", exportTo)
		if err != nil {
			return err
		}
		if exportLast > 0 {
			if from != nil {
				return fmt.Errorf("--last and --from are mutually exclusive")
			}
			end := time.Now().UTC()
			if to != nil {
				end = *to
			}
			start := end.Add(-exportLast)
			from = &start
		}
		opts.From, opts.To = from, to

		return getApp().Export(cmd.Context(), opts)
	},
}

// parseTimestamp accepts RFC3339 or a bare UTC date.
func parseTimestamp(flag, value string) (*time.Time, error) {
	if value == "" {
		return nil, nil
	}
	for _, layout := range []string{time.RFC3339, time.DateOnly} {
		if ts, err := time.Parse(layout, value); err == nil {
			ts = ts.UTC()
			return &ts, nil
		}
	}
	return nil, fmt.Errorf("invalid --%s value %q: want RFC3339 or YYYY-MM-DD", flag, value)
}

func init() {
	exportCmd.Flags().StringVar(&exportFrom, "from", "", "Start timestamp (RFC3339 or YYYY-MM-DD, inclusive)")
	exportCmd.Flags().StringVar(&exportTo, "to", "", "End timestamp (RFC3339 or YYYY-MM-DD, exclusive)")
	exportCmd.Flags().DurationVar(&exportLast, "last", 0, "Export the trailing window ending at --to (e.g. 24h)")
	exportCmd.Flags().StringVar(&exportPNGPath, "png", "", "Path to write PNG chart")
	exportCmd.Flags().StringVar(&exportCSVPath, "csv", "", "Path to write CSV data")
	exportCmd.Flags().IntVar(&exportMaxPoints, "max-points", 0, "Maximum data points to export (defaults to export.max_data_points)")
}
