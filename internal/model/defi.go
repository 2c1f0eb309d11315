package model

import (
	"time"

	"github.com/shopspring/decimal"
)

// PoolToken is a token reference inside a pool.
type PoolToken struct {
	TokenID  string          `json:"id"`
	Symbol   string          `json:"symbol"`
	Name     string          `json:"name"`
	Decimals int32           `json:"decimals"`
	PriceUSD decimal.Decimal `json:"price_usd"`
}

// Pool is a DEX liquidity pool snapshot.
type Pool struct {
	ID         int64           `json:"id"`
	ContractID string          `json:"contract_id"`
	TokenA     PoolToken       `json:"token_a"`
	TokenB     PoolToken       `json:"token_b"`
	Fee        int64           `json:"fee"`
	ReserveA   decimal.Decimal `json:"reserve_a"`
	ReserveB   decimal.Decimal `json:"reserve_b"`
	Liquidity  decimal.Decimal `json:"liquidity"`
	TVLUSD     decimal.Decimal `json:"tvl_usd"`
}

// HasToken reports whether tokenID is one side of the pool.
func (p Pool) HasToken(tokenID string) bool {
	return p.TokenA.TokenID == tokenID || p.TokenB.TokenID == tokenID
}

// Pair returns "A/B".
func (p Pool) Pair() string {
	return p.TokenA.Symbol + "/" + p.TokenB.Symbol
}

// DexStats is the DEX protocol-wide statistics.
type DexStats struct {
	TVLUSD           decimal.Decimal `json:"tvl_usd"`
	VolumeTotalUSD   decimal.Decimal `json:"volume_total_usd"`
	SwapTotal        int64           `json:"swap_total"`
	CirculatingSauce decimal.Decimal `json:"circulating_sauce"`
	Timestamp        time.Time       `json:"timestamp"`
}

// DexAnalytics combines stats, pools and tokens into a protocol overview.
type DexAnalytics struct {
	Stats          DexStats        `json:"stats"`
	PoolCount      int             `json:"pool_count"`
	TokenCount     int             `json:"token_count"`
	PricedTokens   int             `json:"priced_tokens"`
	PoolsTVLUSD    decimal.Decimal `json:"pools_tvl_usd"`
	AveragePoolTVL decimal.Decimal `json:"average_pool_tvl_usd"`
	TopPools       []Pool          `json:"top_pools"`
	GeneratedAt    time.Time       `json:"generated_at"`
}

// TokenPair is a counterparty of a token inside one pool.
type TokenPair struct {
	PoolID       int64           `json:"pool_id"`
	ContractID   string          `json:"contract_id"`
	Counterparty PoolToken       `json:"counterparty"`
	Fee          int64           `json:"fee"`
	TVLUSD       decimal.Decimal `json:"tvl_usd"`
}

// DisplayAmount is a lending amount as formatted by the upstream.
type DisplayAmount struct {
	TokenDisplay   string          `json:"token_display"`
	USDDisplay     string          `json:"usd_display"`
	HBARDisplay    string          `json:"hbar_display"`
	USDAbbreviated string          `json:"usd_abbreviated"`
	USD            decimal.Decimal `json:"usd"`
}

// Reserve is one lending-market reserve. Rates are percents.
type Reserve struct {
	Symbol               string          `json:"symbol"`
	Name                 string          `json:"name"`
	TokenID              string          `json:"token_id"`
	EVMAddress           string          `json:"evm_address"`
	Decimals             int32           `json:"decimals"`
	Active               bool            `json:"active"`
	Frozen               bool            `json:"frozen"`
	BorrowingEnabled     bool            `json:"borrowing_enabled"`
	SupplyAPY            decimal.Decimal `json:"supply_apy"`
	VariableBorrowAPY    decimal.Decimal `json:"variable_borrow_apy"`
	StableBorrowAPY      decimal.Decimal `json:"stable_borrow_apy"`
	UtilizationRate      decimal.Decimal `json:"utilization_rate"`
	LTV                  decimal.Decimal `json:"ltv"`
	LiquidationThreshold decimal.Decimal `json:"liquidation_threshold"`
	LiquidationBonus     decimal.Decimal `json:"liquidation_bonus"`
	PriceUSD             decimal.Decimal `json:"price_usd"`
	AvailableLiquidity   DisplayAmount   `json:"available_liquidity"`
	TotalSupply          DisplayAmount   `json:"total_supply"`
	TotalBorrow          DisplayAmount   `json:"total_borrow"`
}

// LendingTotals is the market-wide aggregate.
type LendingTotals struct {
	TotalSupplied  DisplayAmount `json:"total_market_supplied"`
	TotalBorrowed  DisplayAmount `json:"total_market_borrowed"`
	TotalLiquidity DisplayAmount `json:"total_market_liquidity"`
	ReserveCount   int           `json:"reserve_count"`
	ActiveReserves int           `json:"active_reserves"`
}

// LendingMarket is the full lending-protocol payload.
type LendingMarket struct {
	ChainID     string        `json:"chain_id"`
	NetworkName string        `json:"network_name"`
	Reserves    []Reserve     `json:"reserves"`
	Totals      LendingTotals `json:"totals"`
	Timestamp   time.Time     `json:"timestamp"`
}

// LendingRate is a supply opportunity.
type LendingRate struct {
	Symbol             string          `json:"symbol"`
	SupplyAPY          decimal.Decimal `json:"supply_apy"`
	UtilizationRate    decimal.Decimal `json:"utilization_rate"`
	AvailableLiquidity string          `json:"available_liquidity"`
	LTV                decimal.Decimal `json:"ltv"`
}

// BorrowRate is a borrow option.
type BorrowRate struct {
	Symbol             string          `json:"symbol"`
	VariableBorrowAPY  decimal.Decimal `json:"variable_borrow_apy"`
	UtilizationRate    decimal.Decimal `json:"utilization_rate"`
	AvailableLiquidity string          `json:"available_liquidity"`
}

// Risk levels reported by ReserveRisk.
const (
	RiskLow      = "low"
	RiskMedium   = "medium"
	RiskHigh     = "high"
	RiskCritical = "critical"
)

// ReserveRisk is a coarse liquidity-risk assessment of one reserve.
type ReserveRisk struct {
	Symbol          string          `json:"symbol"`
	UtilizationRate decimal.Decimal `json:"utilization_rate"`
	LTV             decimal.Decimal `json:"ltv"`
	Level           string          `json:"level"`
	Reasons         []string        `json:"reasons"`
}

// MultiProtocolToken is everything known about one token across sources.
type MultiProtocolToken struct {
	TokenID string          `json:"token_id"`
	Token   *Token          `json:"token,omitempty"`
	Pairs   []TokenPair     `json:"pairs"`
	Reserve *Reserve        `json:"lending_reserve,omitempty"`
	DexTVL  decimal.Decimal `json:"dex_tvl_usd"`
}
