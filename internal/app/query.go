package app

import (
	"context"
	"encoding/json"
	"fmt"
	"text/tabwriter"

	"github.com/shopspring/decimal"

	"hedera-defi/internal/hedera"
	"hedera-defi/internal/model"
)

// Summary prints the cross-protocol liquidity summary as JSON.
func (a *App) Summary(ctx context.Context) error {
	client := a.newClient()
	defer client.Close()

	return a.writeJSON(client.GetCrossProtocolLiquiditySummary(ctx))
}

type accountView struct {
	Info         *model.AccountInfo   `json:"info"`
	HbarBalance  decimal.Decimal      `json:"hbar_balance"`
	Tokens       []model.TokenBalance `json:"tokens"`
	EVM          *model.EVMBalance    `json:"evm,omitempty"`
	EVMToken     *model.EVMBalance    `json:"evm_token,omitempty"`
	RelayError   string               `json:"relay_error,omitempty"`
	HbarPriceUSD decimal.Decimal      `json:"hbar_price_usd"`
}

// Account prints mirror-node account data, optionally cross-checked on-chain.
func (a *App) Account(ctx context.Context, opts AccountOptions) error {
	client := a.newClient()
	defer client.Close()

	info, err := client.GetAccountInfo(ctx, opts.AccountID)
	if err != nil {
		return err
	}
	balance, err := client.GetAccountBalance(ctx, opts.AccountID)
	if err != nil {
		return err
	}
	tokens, err := client.GetAccountTokens(ctx, opts.AccountID)
	if err != nil {
		return err
	}

	view := accountView{
		Info:         info,
		HbarBalance:  balance,
		Tokens:       tokens,
		HbarPriceUSD: client.GetHbarPriceUSD(ctx),
	}

	if opts.EVM {
		// relay failures are reported inline
		if view.EVM, err = client.GetEVMBalance(ctx, opts.AccountID); err != nil {
			view.RelayError = err.Error()
		}
		if opts.TokenID != "" && view.RelayError == "" {
			if view.EVMToken, err = client.GetEVMTokenBalance(ctx, opts.AccountID, opts.TokenID); err != nil {
				view.RelayError = err.Error()
			}
		}
	}
	return a.writeJSON(view)
}

// Tokens prints the top tokens as a table, or one token across all sources.
func (a *App) Tokens(ctx context.Context, opts TokensOptions) error {
	client := a.newClient()
	defer client.Close()

	if opts.TokenID != "" {
		data, err := client.GetMultiProtocolTokenData(ctx, opts.TokenID)
		if err != nil {
			return err
		}
		return a.writeJSON(data)
	}

	tokens, err := client.GetTopTokens(ctx, opts.Limit, opts.SortBy)
	if err != nil {
		return err
	}

	writer := tabwriter.NewWriter(a.Out, 0, 4, 2, ' ', 0)
	fmt.Fprintln(writer, "Token\tSymbol\tName\tPrice (USD)\tTVL (USD)\tDecimals")
	for _, t := range tokens {
		fmt.Fprintf(writer, "%s\t%s\t%s\t%s\t%s\t%d\n",
			t.TokenID,
			t.Symbol,
			sanitizeInline(t.Name),
			formatDecimal(t.Price, 6),
			formatDecimal(t.TVL, 2),
			t.Decimals,
		)
	}
	return writer.Flush()
}

// Pools prints top DEX pools, or the pairs a token trades in.
func (a *App) Pools(ctx context.Context, opts PoolsOptions) error {
	client := a.newClient()
	defer client.Close()

	if opts.TokenID != "" {
		pairs, err := client.GetDexTokenPairs(ctx, opts.TokenID, nil)
		if err != nil {
			return err
		}
		return a.writeJSON(pairs)
	}

	pools, err := client.GetDexTopPools(ctx, opts.Top)
	if err != nil {
		return err
	}

	writer := tabwriter.NewWriter(a.Out, 0, 4, 2, ' ', 0)
	fmt.Fprintln(writer, "Pool\tPair\tContract\tFee\tTVL (USD)")
	for _, p := range pools {
		fmt.Fprintf(writer, "%d\t%s\t%s\t%d\t%s\n",
			p.ID,
			p.Pair(),
			p.ContractID,
			p.Fee,
			formatDecimal(p.TVLUSD, 2),
		)
	}
	return writer.Flush()
}

// Reserves prints Bonzo reserves, filtered by symbol or minimum supply APY.
func (a *App) Reserves(ctx context.Context, opts ReservesOptions) error {
	client := a.newClient()
	defer client.Close()

	if opts.Symbol != "" {
		reserve := client.GetLendingReserve(ctx, opts.Symbol)
		if reserve == nil {
			return fmt.Errorf("reserve %q not found", opts.Symbol)
		}
		if opts.Risk {
			return a.writeJSON(map[string]any{
				"reserve": reserve,
				"risk":    hedera.AssessReserveRisk(*reserve),
			})
		}
		return a.writeJSON(reserve)
	}

	if opts.MinAPY > 0 {
		return a.writeJSON(client.GetBestLendingRates(ctx, decimal.NewFromFloat(opts.MinAPY)))
	}

	market := client.GetLendingMarkets(ctx)
	reserves := client.GetLendingReserves(ctx, market)

	writer := tabwriter.NewWriter(a.Out, 0, 4, 2, ' ', 0)
	header := "Symbol\tSupply APY\tBorrow APY\tUtilization\tSupplied (USD)\tBorrowed (USD)"
	if opts.Risk {
		header += "\tRisk"
	}
	fmt.Fprintln(writer, header)
	for _, r := range reserves {
		fmt.Fprintf(writer, "%s\t%s\t%s\t%s\t%s\t%s",
			r.Symbol,
			formatDecimal(r.SupplyAPY, 2),
			formatDecimal(r.VariableBorrowAPY, 2),
			formatDecimal(r.UtilizationRate, 2),
			formatDecimal(r.TotalSupply.USD, 2),
			formatDecimal(r.TotalBorrow.USD, 2),
		)
		if opts.Risk {
			fmt.Fprintf(writer, "\t%s", hedera.AssessReserveRisk(r).Level)
		}
		fmt.Fprintln(writer)
	}
	return writer.Flush()
}

// Stats exercises the summary and analytics paths, then reports call counts
// and cache contents for the session.
func (a *App) Stats(ctx context.Context) error {
	client := a.newClient()
	defer client.Close()

	client.GetCrossProtocolLiquiditySummary(ctx)
	client.GetDexAnalytics(ctx)

	return a.writeJSON(map[string]any{
		"calls": client.ShowCallStatistics(),
		"cache": client.GetCacheStats(),
	})
}

func (a *App) writeJSON(v any) error {
	enc := json.NewEncoder(a.Out)
	enc.SetIndent("", "  ")
	return enc.Encode(v)
}
