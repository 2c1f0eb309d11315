package cli

import (
	"fmt"
	"os"

	"github.com/spf13/cobra"

	"hedera-defi/internal/app"
	"hedera-defi/internal/config"
	"hedera-defi/internal/logging"
)

var (
	cfgFile   string
	logLevel  string
	appHandle *app.App
)

var rootCmd = &cobra.Command{
	Use:          "hederadefi",
	Short:        "Query Hedera DeFi data and monitor cross-protocol liquidity",
	SilenceUsage: true,
	PersistentPreRunE: func(cmd *cobra.Command, args []string) error {
		if appHandle != nil {
			return nil
		}

		cfg, err := config.Load(cfgFile)
		if err != nil {
			return err
		}

		if logLevel != "" {
			cfg.Logging.Level = logLevel
		}

		logger := logging.NewLogger(cfg.Logging)
		appHandle = app.NewApp(cfg, logger)
		return nil
	},
}

// Execute runs the root command.
func Execute() {
	if err := rootCmd.Execute(); err != nil {
		fmt.Fprintln(os.Stderr, err)
		os.Exit(1)
	}
}

func init() {
	rootCmd.PersistentFlags().StringVar(&cfgFile, "config", "", "Path to configuration file")
	rootCmd.PersistentFlags().StringVar(&logLevel, "log-level", "", "Override log level defined in config")

	rootCmd.AddCommand(summaryCmd)
	rootCmd.AddCommand(accountCmd)
	rootCmd.AddCommand(tokensCmd)
	rootCmd.AddCommand(poolsCmd)
	rootCmd.AddCommand(reservesCmd)
	rootCmd.AddCommand(statsCmd)
	rootCmd.AddCommand(transactionsCmd)
	rootCmd.AddCommand(whalesCmd)
	rootCmd.AddCommand(overviewCmd)
	rootCmd.AddCommand(comparePricesCmd)
	rootCmd.AddCommand(runCmd)
	rootCmd.AddCommand(migrateCmd)
	rootCmd.AddCommand(exportCmd)
	rootCmd.AddCommand(showCmd)
	rootCmd.AddCommand(versionCmd)
	rootCmd.AddCommand(simulateCmd)
}

func getApp() *app.App {
	if appHandle == nil {
		panic("application not initialized; PersistentPreRunE not executed")
	}
	return appHandle
}
