package hedera

import (
	"context"
	"time"

	"github.com/shopspring/decimal"
	"golang.org/x/sync/errgroup"

	"hedera-defi/internal/model"
	"hedera-defi/internal/units"
)

// GetCrossProtocolLiquiditySummary adds DEX TVL and lending supply into a
// total and splits it into shares. The constituents are fetched concurrently
// and cached individually; the summary itself is not cached. A failed
// source contributes zero and is marked unavailable.
func (c *Client) GetCrossProtocolLiquiditySummary(ctx context.Context) model.CrossProtocolSummary {
	c.track("getCrossProtocolLiquiditySummary")
	start := time.Now()

	var (
		stats      model.DexStats
		dexOK      bool
		dexElapsed time.Duration

		market         *model.LendingMarket
		lendingOK      bool
		lendingElapsed time.Duration
	)

	// Constituents fail open and never return an error; the group only joins.
	var g errgroup.Group
	g.Go(func() error {
		t := time.Now()
		stats, dexOK = c.dexStats(ctx)
		dexElapsed = time.Since(t)
		return nil
	})
	g.Go(func() error {
		t := time.Now()
		market, lendingOK = c.lendingMarket(ctx)
		lendingElapsed = time.Since(t)
		return nil
	})
	_ = g.Wait()

	lendingTVL := decimal.Zero
	if market != nil {
		lendingTVL = market.Totals.TotalSupplied.USD
	}

	summary := summarize(stats.TVLUSD, dexOK, lendingTVL, lendingOK && market != nil)
	summary.Performance = model.Timing{
		TotalMs:   time.Since(start).Milliseconds(),
		DexMs:     dexElapsed.Milliseconds(),
		LendingMs: lendingElapsed.Milliseconds(),
	}
	summary.GeneratedAt = c.now().UTC()

	if !summary.Complete() {
		c.logger.Warn().
			Bool("dex_available", summary.Dex.Available).
			Bool("lending_available", summary.Lending.Available).
			Msg("liquidity summary built from partial data")
	}
	return summary
}

func summarize(dexTVL decimal.Decimal, dexOK bool, lendingTVL decimal.Decimal, lendingOK bool) model.CrossProtocolSummary {
	total := dexTVL.Add(lendingTVL)
	return model.CrossProtocolSummary{
		TotalLiquidityUSD: total,
		Dex:               model.ProtocolBreakdown{Protocol: model.ProtocolDEX, TVLUSD: dexTVL, Available: dexOK},
		Lending:           model.ProtocolBreakdown{Protocol: model.ProtocolLending, TVLUSD: lendingTVL, Available: lendingOK},
		Distribution: model.Distribution{
			DexSharePercent:     units.SharePercent(dexTVL, total),
			LendingSharePercent: units.SharePercent(lendingTVL, total),
		},
	}
}
