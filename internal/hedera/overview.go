package hedera

import (
	"context"
	"strings"
	"time"

	"github.com/shopspring/decimal"
	"golang.org/x/sync/errgroup"

	"hedera-defi/internal/model"
	"hedera-defi/internal/units"
)

const (
	overviewTopTokens   = 10
	overviewWhaleWindow = time.Hour
	maxCompareTokens    = 50
)

// overviewWhaleThreshold is the HBAR size counted as whale activity.
var overviewWhaleThreshold = decimal.NewFromInt(10_000)

// GetCombinedDefiOverview runs the liquidity summary, DEX analytics, top
// tokens and whale scan concurrently. Each part fails open on its own.
func (c *Client) GetCombinedDefiOverview(ctx context.Context) model.DefiOverview {
	c.track("getCombinedDefiOverview")

	var (
		overview model.DefiOverview
		whales   []model.WhaleTransfer
	)

	var g errgroup.Group
	g.Go(func() error {
		overview.Summary = c.GetCrossProtocolLiquiditySummary(ctx)
		return nil
	})
	g.Go(func() error {
		overview.Dex = c.GetDexAnalytics(ctx)
		return nil
	})
	g.Go(func() error {
		tokens, err := c.GetTopTokens(ctx, overviewTopTokens, SortPrice)
		overview.TopTokens = tokens
		return err
	})
	g.Go(func() error {
		whales = c.whales(ctx, overviewWhaleThreshold, overviewWhaleWindow)
		return nil
	})
	if err := g.Wait(); err != nil {
		c.logger.Warn().Err(err).Msg("overview top tokens rejected")
	}

	if overview.TopTokens == nil {
		overview.TopTokens = make([]model.Token, 0)
	}
	overview.Whales = whaleActivity(whales)
	overview.GeneratedAt = c.now().UTC()
	return overview
}

func whaleActivity(whales []model.WhaleTransfer) model.WhaleActivity {
	activity := model.WhaleActivity{Count: len(whales), TotalUSD: decimal.Zero, LargestUSD: decimal.Zero}
	for _, w := range whales {
		activity.TotalUSD = activity.TotalUSD.Add(w.ValueUSD)
		if w.ValueUSD.GreaterThan(activity.LargestUSD) {
			activity.LargestUSD = w.ValueUSD
		}
	}
	return activity
}

// CompareTokenPrices puts each token's DEX price next to the Bonzo reserve
// price. Reserves match by token id, then by the DEX symbol. Results keep
// the input order.
func (c *Client) CompareTokenPrices(ctx context.Context, tokenIDs []string) ([]model.PriceComparison, error) {
	c.track("compareTokenPrices")
	if err := units.ValidateLimit(len(tokenIDs), 1, maxCompareTokens); err != nil {
		return nil, err
	}
	for _, id := range tokenIDs {
		if err := units.ValidateTokenID(id); err != nil {
			return nil, err
		}
	}

	byID := make(map[string]model.Token)
	for _, t := range c.dexTokens(ctx) {
		byID[t.TokenID] = t
	}
	market, _ := c.lendingMarket(ctx)

	out := make([]model.PriceComparison, 0, len(tokenIDs))
	for _, id := range tokenIDs {
		cmp := model.PriceComparison{TokenID: id, SpreadPercent: decimal.Zero}
		if t, ok := byID[id]; ok {
			cmp.Symbol = t.Symbol
			cmp.DexPrice = t.Price
			cmp.DexListed = true
		}

		reserve := findReserve(market, func(r model.Reserve) bool { return r.TokenID == id })
		if reserve == nil && cmp.Symbol != "" {
			reserve = findReserve(market, func(r model.Reserve) bool { return strings.EqualFold(r.Symbol, cmp.Symbol) })
		}
		if reserve != nil {
			cmp.LendingListed = true
			cmp.LendingPrice = reserve.PriceUSD
			if cmp.Symbol == "" {
				cmp.Symbol = reserve.Symbol
			}
		}

		if cmp.DexPrice.IsPositive() && cmp.LendingPrice.IsPositive() {
			cmp.SpreadPercent = units.PercentageChange(cmp.DexPrice, cmp.LendingPrice)
		}
		out = append(out, cmp)
	}
	return out, nil
}
