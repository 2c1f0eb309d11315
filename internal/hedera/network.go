package hedera

import (
	"context"

	"github.com/shopspring/decimal"

	"hedera-defi/internal/model"
	"hedera-defi/internal/normalize"
)

// GetNetworkSupply returns total and circulating HBAR supply.
func (c *Client) GetNetworkSupply(ctx context.Context) model.NetworkSupply {
	c.track("getNetworkSupply")
	raw, _ := c.exec.Execute(ctx, c.mirror, "network/supply", nil)
	return normalize.NetworkSupply(raw, c.now())
}

// GetNetworkNodes returns the consensus node list.
func (c *Client) GetNetworkNodes(ctx context.Context) []model.NetworkNode {
	c.track("getNetworkNodes")
	raw, _ := c.exec.Execute(ctx, c.mirror, "network/nodes", nil)
	return normalize.NetworkNodes(raw)
}

// GetNetworkExchangeRate returns nil when the rate is unavailable.
func (c *Client) GetNetworkExchangeRate(ctx context.Context) *model.NetworkExchangeRate {
	c.track("getNetworkExchangeRate")
	return c.exchangeRate(ctx)
}

// GetHbarPriceUSD derives the HBAR price from the current exchange rate.
func (c *Client) GetHbarPriceUSD(ctx context.Context) decimal.Decimal {
	c.track("getHbarPriceUsd")
	rate := c.exchangeRate(ctx)
	if rate == nil {
		return decimal.Zero
	}
	return rate.PriceUSD()
}

func (c *Client) exchangeRate(ctx context.Context) *model.NetworkExchangeRate {
	raw, _ := c.exec.Execute(ctx, c.mirror, "network/exchangerate", nil)
	return normalize.ExchangeRate(raw)
}
