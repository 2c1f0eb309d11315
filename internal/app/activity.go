package app

import (
	"context"
	"fmt"
	"text/tabwriter"
	"time"

	"github.com/shopspring/decimal"
)

// Transactions prints recent transactions for an account or the network.
func (a *App) Transactions(ctx context.Context, opts TransactionsOptions) error {
	client := a.newClient()
	defer client.Close()

	if opts.AccountID != "" {
		txs, err := client.GetAccountTransactions(ctx, opts.AccountID, opts.Limit)
		if err != nil {
			return err
		}
		return a.writeJSON(txs)
	}
	txs, err := client.GetRecentTransactions(ctx, opts.Limit)
	if err != nil {
		return err
	}
	return a.writeJSON(txs)
}

// Whales prints HBAR transfers above the threshold within the window.
func (a *App) Whales(ctx context.Context, opts WhalesOptions) error {
	client := a.newClient()
	defer client.Close()

	whales, err := client.GetWhaleTransactions(ctx, decimal.NewFromFloat(opts.ThresholdHbar), opts.Window)
	if err != nil {
		return err
	}

	writer := tabwriter.NewWriter(a.Out, 0, 4, 2, ' ', 0)
	fmt.Fprintln(writer, "Time\tTransaction\tFrom\tTo\tHBAR\tValue (USD)")
	for _, w := range whales {
		fmt.Fprintf(writer, "%s\t%s\t%s\t%s\t%s\t%s\n",
			w.ConsensusAt.Format(time.RFC3339),
			w.TransactionID,
			w.From,
			w.To,
			formatDecimal(w.AmountHbar, 2),
			formatDecimal(w.ValueUSD, 2),
		)
	}
	return writer.Flush()
}

// Overview prints the combined DeFi overview as JSON.
func (a *App) Overview(ctx context.Context) error {
	client := a.newClient()
	defer client.Close()

	return a.writeJSON(client.GetCombinedDefiOverview(ctx))
}

// ComparePrices prints DEX and lending prices side by side.
func (a *App) ComparePrices(ctx context.Context, tokenIDs []string) error {
	client := a.newClient()
	defer client.Close()

	cmps, err := client.CompareTokenPrices(ctx, tokenIDs)
	if err != nil {
		return err
	}

	writer := tabwriter.NewWriter(a.Out, 0, 4, 2, ' ', 0)
	fmt.Fprintln(writer, "Token\tSymbol\tDEX (USD)\tBonzo (USD)\tSpread %")
	for _, c := range cmps {
		fmt.Fprintf(writer, "%s\t%s\t%s\t%s\t%s\n",
			c.TokenID,
			c.Symbol,
			priceCell(c.DexListed, c.DexPrice),
			priceCell(c.LendingListed, c.LendingPrice),
			formatDecimal(c.SpreadPercent, 2),
		)
	}
	return writer.Flush()
}

func priceCell(listed bool, price decimal.Decimal) string {
	if !listed {
		return "-"
	}
	return formatDecimal(price, 6)
}
