package model

import (
	"time"

	"github.com/shopspring/decimal"
)

// NetworkSupply is the HBAR supply in display units.
type NetworkSupply struct {
	TotalSupply       decimal.Decimal `json:"total_supply"`
	CirculatingSupply decimal.Decimal `json:"circulating_supply"`
	Timestamp         time.Time       `json:"timestamp"`
}

// NetworkNode is a consensus node as reported by the mirror node.
type NetworkNode struct {
	NodeID      int64           `json:"node_id"`
	NodeAccount string          `json:"node_account_id"`
	Description string          `json:"description"`
	Memo        string          `json:"memo"`
	Stake       decimal.Decimal `json:"stake"`
	StakeReward decimal.Decimal `json:"stake_rewarded"`
	RewardRate  int64           `json:"reward_rate_start"`
	Endpoints   []string        `json:"service_endpoints"`
}

// ExchangeRate is one HBAR/USD rate window.
type ExchangeRate struct {
	HbarEquivalent int64     `json:"hbar_equivalent"`
	CentEquivalent int64     `json:"cent_equivalent"`
	ExpirationTime time.Time `json:"expiration_time"`
}

// PriceUSD returns the USD price of one HBAR, zero when the rate is empty.
func (r ExchangeRate) PriceUSD() decimal.Decimal {
	if r.HbarEquivalent == 0 {
		return decimal.Zero
	}
	return decimal.NewFromInt(r.CentEquivalent).
		Div(decimal.NewFromInt(r.HbarEquivalent)).
		Div(decimal.NewFromInt(100))
}

// NetworkExchangeRate carries the current and next rate windows.
type NetworkExchangeRate struct {
	Current   ExchangeRate `json:"current_rate"`
	Next      ExchangeRate `json:"next_rate"`
	Timestamp time.Time    `json:"timestamp"`
}

// PriceUSD is the current HBAR price.
func (r NetworkExchangeRate) PriceUSD() decimal.Decimal {
	return r.Current.PriceUSD()
}
