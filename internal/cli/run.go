package cli

import (
	"time"

	"github.com/spf13/cobra"

	"hedera-defi/internal/app"
)

var (
	runOnce     bool
	runInterval time.Duration
)

var runCmd = &cobra.Command{
	Use:   "run",
	Short: "Run the liquidity snapshot monitor",
	Long: `Snapshot cross-protocol liquidity on every scheduler bucket and alert when
total liquidity moves past alerting.threshold_pct. Snapshots are persisted
when database.dsn is set.`,
	RunE: func(cmd *cobra.Command, args []string) error {
		return getApp().Run(cmd.Context(), app.RunOptions{Once: runOnce, Interval: runInterval})
	},
}

func init() {
	runCmd.Flags().BoolVar(&runOnce, "once", false, "Take a single snapshot and exit")
	runCmd.Flags().DurationVar(&runInterval, "interval", 0, "Override scheduler.interval")
}
