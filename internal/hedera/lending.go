package hedera

import (
	"context"
	"sort"
	"strings"

	"github.com/shopspring/decimal"

	"hedera-defi/internal/model"
	"hedera-defi/internal/normalize"
	"hedera-defi/internal/units"
)

// Utilization bands used by AssessReserveRisk, in percent.
var (
	utilizationCritical = decimal.NewFromInt(95)
	utilizationHigh     = decimal.NewFromInt(80)
	utilizationMedium   = decimal.NewFromInt(60)
)

// GetLendingMarkets returns nil when the lending API is unavailable.
func (c *Client) GetLendingMarkets(ctx context.Context) *model.LendingMarket {
	c.track("getLendingMarkets")
	market, _ := c.lendingMarket(ctx)
	return market
}

// GetLendingReserves returns the reserves of cached, fetching the market
// when cached is nil.
func (c *Client) GetLendingReserves(ctx context.Context, cached *model.LendingMarket) []model.Reserve {
	c.track("getLendingReserves")
	market := c.marketOrFetch(ctx, cached)
	if market == nil {
		return make([]model.Reserve, 0)
	}
	return market.Reserves
}

// GetLendingTotals returns the market-wide totals of cached, fetching the
// market when cached is nil.
func (c *Client) GetLendingTotals(ctx context.Context, cached *model.LendingMarket) model.LendingTotals {
	c.track("getLendingTotals")
	market := c.marketOrFetch(ctx, cached)
	if market == nil {
		return model.LendingTotals{}
	}
	return market.Totals
}

// GetLendingReserve looks a reserve up by symbol, case-insensitively.
func (c *Client) GetLendingReserve(ctx context.Context, symbol string) *model.Reserve {
	c.track("getLendingReserve")
	market, _ := c.lendingMarket(ctx)
	return findReserve(market, func(r model.Reserve) bool {
		return strings.EqualFold(r.Symbol, strings.TrimSpace(symbol))
	})
}

// GetBestLendingRates lists active reserves whose supply APY is at least
// minAPY, best first.
func (c *Client) GetBestLendingRates(ctx context.Context, minAPY decimal.Decimal) []model.LendingRate {
	c.track("getBestLendingRates")
	market, _ := c.lendingMarket(ctx)

	rates := make([]model.LendingRate, 0)
	if market == nil {
		return rates
	}
	for _, r := range market.Reserves {
		if !r.Active || r.SupplyAPY.LessThan(minAPY) {
			continue
		}
		rates = append(rates, model.LendingRate{
			Symbol:             r.Symbol,
			SupplyAPY:          r.SupplyAPY,
			UtilizationRate:    r.UtilizationRate,
			AvailableLiquidity: r.AvailableLiquidity.USDDisplay,
			LTV:                r.LTV,
		})
	}
	sort.SliceStable(rates, func(i, j int) bool {
		return rates[i].SupplyAPY.GreaterThan(rates[j].SupplyAPY)
	})
	return rates
}

// GetBorrowingRates lists active reserves with a borrow rate, cheapest first.
func (c *Client) GetBorrowingRates(ctx context.Context) []model.BorrowRate {
	c.track("getBorrowingRates")
	market, _ := c.lendingMarket(ctx)

	rates := make([]model.BorrowRate, 0)
	if market == nil {
		return rates
	}
	for _, r := range market.Reserves {
		if !r.Active || !r.VariableBorrowAPY.IsPositive() {
			continue
		}
		rates = append(rates, model.BorrowRate{
			Symbol:             r.Symbol,
			VariableBorrowAPY:  r.VariableBorrowAPY,
			UtilizationRate:    r.UtilizationRate,
			AvailableLiquidity: r.AvailableLiquidity.USDDisplay,
		})
	}
	sort.SliceStable(rates, func(i, j int) bool {
		return rates[i].VariableBorrowAPY.LessThan(rates[j].VariableBorrowAPY)
	})
	return rates
}

// GetMultiProtocolTokenData gathers DEX metadata, pools and the lending
// reserve for one token. Reserves are matched by token id, then by symbol.
func (c *Client) GetMultiProtocolTokenData(ctx context.Context, tokenID string) (*model.MultiProtocolToken, error) {
	c.track("getMultiProtocolTokenData")
	if err := units.ValidateTokenID(tokenID); err != nil {
		return nil, err
	}

	out := &model.MultiProtocolToken{TokenID: tokenID}
	for _, t := range c.dexTokens(ctx) {
		if t.TokenID == tokenID {
			token := t
			out.Token = &token
			break
		}
	}

	out.Pairs = tokenPairs(c.dexPools(ctx), tokenID)
	out.DexTVL = decimal.Zero
	for _, p := range out.Pairs {
		out.DexTVL = out.DexTVL.Add(p.TVLUSD)
	}

	market, _ := c.lendingMarket(ctx)
	out.Reserve = findReserve(market, func(r model.Reserve) bool { return r.TokenID == tokenID })
	if out.Reserve == nil && out.Token != nil && out.Token.Symbol != "" {
		out.Reserve = findReserve(market, func(r model.Reserve) bool {
			return strings.EqualFold(r.Symbol, out.Token.Symbol)
		})
	}
	return out, nil
}

// AssessReserveRisk grades a reserve from its utilization, status and
// remaining liquidity.
func AssessReserveRisk(r model.Reserve) model.ReserveRisk {
	risk := model.ReserveRisk{
		Symbol:          r.Symbol,
		UtilizationRate: r.UtilizationRate,
		LTV:             r.LTV,
		Level:           model.RiskLow,
		Reasons:         make([]string, 0),
	}

	raise := func(level, reason string) {
		if riskRank(level) > riskRank(risk.Level) {
			risk.Level = level
		}
		risk.Reasons = append(risk.Reasons, reason)
	}

	switch {
	case r.UtilizationRate.GreaterThanOrEqual(utilizationCritical):
		raise(model.RiskCritical, "utilization above 95%")
	case r.UtilizationRate.GreaterThanOrEqual(utilizationHigh):
		raise(model.RiskHigh, "utilization above 80%")
	case r.UtilizationRate.GreaterThanOrEqual(utilizationMedium):
		raise(model.RiskMedium, "utilization above 60%")
	}
	if !r.Active {
		raise(model.RiskHigh, "reserve inactive")
	}
	if r.Frozen {
		raise(model.RiskHigh, "reserve frozen")
	}
	if r.Active && !r.AvailableLiquidity.USD.IsPositive() {
		raise(model.RiskHigh, "no available liquidity")
	}
	return risk
}

func riskRank(level string) int {
	switch level {
	case model.RiskCritical:
		return 3
	case model.RiskHigh:
		return 2
	case model.RiskMedium:
		return 1
	}
	return 0
}

func (c *Client) lendingMarket(ctx context.Context) (*model.LendingMarket, bool) {
	raw, ok := c.exec.Execute(ctx, c.lending, "Market", nil)
	return normalize.LendingMarket(raw, c.now()), ok
}

func (c *Client) marketOrFetch(ctx context.Context, cached *model.LendingMarket) *model.LendingMarket {
	if cached != nil {
		return cached
	}
	market, _ := c.lendingMarket(ctx)
	return market
}

func findReserve(market *model.LendingMarket, match func(model.Reserve) bool) *model.Reserve {
	if market == nil {
		return nil
	}
	for _, r := range market.Reserves {
		if match(r) {
			found := r
			return &found
		}
	}
	return nil
}
