package hedera

import (
	"context"
	"sort"

	"github.com/shopspring/decimal"

	"hedera-defi/internal/model"
	"hedera-defi/internal/normalize"
	"hedera-defi/internal/units"
)

// GetDexPools returns every SaucerSwap pool with derived TVL.
func (c *Client) GetDexPools(ctx context.Context) []model.Pool {
	c.track("getDexPools")
	return c.dexPools(ctx)
}

// GetDexTokens returns the SaucerSwap token list with USD prices.
func (c *Client) GetDexTokens(ctx context.Context) []model.Token {
	c.track("getDexTokens")
	return c.dexTokens(ctx)
}

// GetDexStats returns protocol-wide DEX statistics.
func (c *Client) GetDexStats(ctx context.Context) model.DexStats {
	c.track("getDexStats")
	stats, _ := c.dexStats(ctx)
	return stats
}

// GetDexTopPools returns the n pools with the highest TVL.
func (c *Client) GetDexTopPools(ctx context.Context, n int) ([]model.Pool, error) {
	c.track("getDexTopPools")
	if err := units.ValidateLimit(n, 1, maxTopPoolsLimit); err != nil {
		return nil, err
	}
	return topPools(c.dexPools(ctx), n), nil
}

// GetDexTokenByID returns nil when the DEX does not list the token.
func (c *Client) GetDexTokenByID(ctx context.Context, tokenID string) (*model.Token, error) {
	c.track("getDexTokenById")
	if err := units.ValidateTokenID(tokenID); err != nil {
		return nil, err
	}
	for _, t := range c.dexTokens(ctx) {
		if t.TokenID == tokenID {
			token := t
			return &token, nil
		}
	}
	return nil, nil
}

// GetDexTokenPrice returns the DEX USD price, zero when unknown.
func (c *Client) GetDexTokenPrice(ctx context.Context, tokenID string) (decimal.Decimal, error) {
	c.track("getDexTokenPrice")
	if err := units.ValidateTokenID(tokenID); err != nil {
		return decimal.Zero, err
	}
	for _, t := range c.dexTokens(ctx) {
		if t.TokenID == tokenID {
			return t.Price, nil
		}
	}
	return decimal.Zero, nil
}

// GetDexTokenPairs lists the pools containing tokenID, highest TVL first.
// A non-nil cached pool list is used instead of fetching.
func (c *Client) GetDexTokenPairs(ctx context.Context, tokenID string, cached []model.Pool) ([]model.TokenPair, error) {
	c.track("getDexTokenPairs")
	if err := units.ValidateTokenID(tokenID); err != nil {
		return nil, err
	}
	pools := cached
	if pools == nil {
		pools = c.dexPools(ctx)
	}
	return tokenPairs(pools, tokenID), nil
}

// GetDexAnalytics combines stats, pools and tokens.
func (c *Client) GetDexAnalytics(ctx context.Context) model.DexAnalytics {
	c.track("getDexAnalytics")

	stats, _ := c.dexStats(ctx)
	pools := c.dexPools(ctx)
	tokens := c.dexTokens(ctx)

	analytics := model.DexAnalytics{
		Stats:       stats,
		PoolCount:   len(pools),
		TokenCount:  len(tokens),
		PoolsTVLUSD: normalize.PoolsTVL(pools),
		TopPools:    topPools(pools, defaultTopPoolsCap),
		GeneratedAt: c.now().UTC(),
	}
	for _, t := range tokens {
		if t.Price.IsPositive() {
			analytics.PricedTokens++
		}
	}
	analytics.AveragePoolTVL = units.SafeDivide(analytics.PoolsTVLUSD, decimal.NewFromInt(int64(len(pools))), decimal.Zero)
	return analytics
}

func (c *Client) dexPools(ctx context.Context) []model.Pool {
	raw, _ := c.exec.Execute(ctx, c.dex, "pools", nil)
	return normalize.Pools(raw)
}

func (c *Client) dexTokens(ctx context.Context) []model.Token {
	raw, _ := c.exec.Execute(ctx, c.dex, "tokens", nil)
	return normalize.DexTokens(raw)
}

func (c *Client) dexStats(ctx context.Context) (model.DexStats, bool) {
	raw, ok := c.exec.Execute(ctx, c.dex, "stats", nil)
	return normalize.DexStats(raw, c.now()), ok
}

func topPools(pools []model.Pool, n int) []model.Pool {
	sorted := make([]model.Pool, len(pools))
	copy(sorted, pools)
	sort.SliceStable(sorted, func(i, j int) bool {
		return sorted[i].TVLUSD.GreaterThan(sorted[j].TVLUSD)
	})
	if len(sorted) > n {
		sorted = sorted[:n]
	}
	return sorted
}

func tokenPairs(pools []model.Pool, tokenID string) []model.TokenPair {
	pairs := make([]model.TokenPair, 0)
	for _, p := range pools {
		var other model.PoolToken
		switch tokenID {
		case p.TokenA.TokenID:
			other = p.TokenB
		case p.TokenB.TokenID:
			other = p.TokenA
		default:
			continue
		}
		pairs = append(pairs, model.TokenPair{
			PoolID:       p.ID,
			ContractID:   p.ContractID,
			Counterparty: other,
			Fee:          p.Fee,
			TVLUSD:       p.TVLUSD,
		})
	}
	sort.SliceStable(pairs, func(i, j int) bool {
		return pairs[i].TVLUSD.GreaterThan(pairs[j].TVLUSD)
	})
	return pairs
}
