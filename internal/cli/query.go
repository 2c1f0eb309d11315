package cli

import (
	"time"

	"github.com/spf13/cobra"

	"hedera-defi/internal/app"
)

var (
	accountEVM     bool
	accountTokenID string

	tokensLimit int
	tokensSort  string
	tokensID    string

	poolsTop   int
	poolsToken string

	reservesSymbol string
	reservesMinAPY float64
	reservesRisk   bool

	txAccount string
	txLimit   int

	whaleThreshold float64
	whaleWindow    time.Duration
)

var summaryCmd = &cobra.Command{
	Use:   "summary",
	Short: "Print the cross-protocol liquidity summary",
	Args:  cobra.NoArgs,
	RunE: func(cmd *cobra.Command, args []string) error {
		return getApp().Summary(cmd.Context())
	},
}

var accountCmd = &cobra.Command{
	Use:   "account <account-id>",
	Short: "Print account info, balance and token relationships",
	Args:  cobra.ExactArgs(1),
	RunE: func(cmd *cobra.Command, args []string) error {
		return getApp().Account(cmd.Context(), app.AccountOptions{
			AccountID: args[0],
			EVM:       accountEVM,
			TokenID:   accountTokenID,
		})
	},
}

var tokensCmd = &cobra.Command{
	Use:   "tokens",
	Short: "List top tokens, or one token across mirror, DEX and lending",
	Args:  cobra.NoArgs,
	RunE: func(cmd *cobra.Command, args []string) error {
		return getApp().Tokens(cmd.Context(), app.TokensOptions{
			Limit:   tokensLimit,
			SortBy:  tokensSort,
			TokenID: tokensID,
		})
	},
}

var poolsCmd = &cobra.Command{
	Use:   "pools",
	Short: "List top SaucerSwap pools by TVL",
	Args:  cobra.NoArgs,
	RunE: func(cmd *cobra.Command, args []string) error {
		return getApp().Pools(cmd.Context(), app.PoolsOptions{
			Top:     poolsTop,
			TokenID: poolsToken,
		})
	},
}

var reservesCmd = &cobra.Command{
	Use:   "reserves",
	Short: "List Bonzo lending reserves",
	Args:  cobra.NoArgs,
	RunE: func(cmd *cobra.Command, args []string) error {
		return getApp().Reserves(cmd.Context(), app.ReservesOptions{
			Symbol: reservesSymbol,
			MinAPY: reservesMinAPY,
			Risk:   reservesRisk,
		})
	},
}

var statsCmd = &cobra.Command{
	Use:   "stats",
	Short: "Run the summary and analytics once and print call and cache statistics",
	Args:  cobra.NoArgs,
	RunE: func(cmd *cobra.Command, args []string) error {
		return getApp().Stats(cmd.Context())
	},
}

var transactionsCmd = &cobra.Command{
	Use:   "transactions",
	Short: "List recent transactions, network-wide or for one account",
	Args:  cobra.NoArgs,
	RunE: func(cmd *cobra.Command, args []string) error {
		return getApp().Transactions(cmd.Context(), app.TransactionsOptions{
			AccountID: txAccount,
			Limit:     txLimit,
		})
	},
}

var whalesCmd = &cobra.Command{
	Use:   "whales",
	Short: "List large HBAR transfers in a recent window",
	Args:  cobra.NoArgs,
	RunE: func(cmd *cobra.Command, args []string) error {
		return getApp().Whales(cmd.Context(), app.WhalesOptions{
			ThresholdHbar: whaleThreshold,
			Window:        whaleWindow,
		})
	},
}

var overviewCmd = &cobra.Command{
	Use:   "overview",
	Short: "Print liquidity, DEX analytics, top tokens and whale activity together",
	Args:  cobra.NoArgs,
	RunE: func(cmd *cobra.Command, args []string) error {
		return getApp().Overview(cmd.Context())
	},
}

var comparePricesCmd = &cobra.Command{
	Use:   "compare-prices <token-id>...",
	Short: "Compare SaucerSwap and Bonzo prices for tokens",
	Args:  cobra.MinimumNArgs(1),
	RunE: func(cmd *cobra.Command, args []string) error {
		return getApp().ComparePrices(cmd.Context(), args)
	},
}

func init() {
	accountCmd.Flags().BoolVar(&accountEVM, "evm", false, "Cross-check balances through the JSON-RPC relay")
	accountCmd.Flags().StringVar(&accountTokenID, "token", "", "Token ID for the on-chain token balance (with --evm)")

	tokensCmd.Flags().IntVar(&tokensLimit, "limit", 20, "Number of tokens (1-1000)")
	tokensCmd.Flags().StringVar(&tokensSort, "sort", "", "Sort by supply, symbol, name or price")
	tokensCmd.Flags().StringVar(&tokensID, "id", "", "Show a single token across all sources")

	poolsCmd.Flags().IntVar(&poolsTop, "top", 10, "Number of pools (1-1000)")
	poolsCmd.Flags().StringVar(&poolsToken, "token", "", "List the pairs this token trades in instead")

	reservesCmd.Flags().StringVar(&reservesSymbol, "symbol", "", "Show a single reserve by symbol")
	reservesCmd.Flags().Float64Var(&reservesMinAPY, "min-apy", 0, "Only reserves with supply APY at or above this value")
	reservesCmd.Flags().BoolVar(&reservesRisk, "risk", false, "Include a risk assessment")

	transactionsCmd.Flags().StringVar(&txAccount, "account", "", "Only transactions touching this account")
	transactionsCmd.Flags().IntVar(&txLimit, "limit", 25, "Number of transactions (1-100)")

	whalesCmd.Flags().Float64Var(&whaleThreshold, "threshold", 10000, "Minimum transfer size in HBAR")
	whalesCmd.Flags().DurationVar(&whaleWindow, "window", time.Hour, "How far back to look")
}
