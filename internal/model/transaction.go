package model

import (
	"time"

	"github.com/shopspring/decimal"
)

// Transfer is one HBAR leg of a transaction, in HBAR.
type Transfer struct {
	AccountID string          `json:"account"`
	Amount    decimal.Decimal `json:"amount"`
}

// TokenTransfer is one fungible token leg in the token's smallest unit.
type TokenTransfer struct {
	TokenID   string          `json:"token_id"`
	AccountID string          `json:"account"`
	Amount    decimal.Decimal `json:"amount"`
}

// Transaction is a mirror node transaction record with tinybar amounts
// converted to HBAR.
type Transaction struct {
	TransactionID  string          `json:"transaction_id"`
	Type           string          `json:"name"`
	Result         string          `json:"result"`
	ConsensusAt    time.Time       `json:"consensus_timestamp"`
	ChargedFee     decimal.Decimal `json:"charged_tx_fee"`
	Memo           string          `json:"memo,omitempty"`
	Transfers      []Transfer      `json:"transfers"`
	TokenTransfers []TokenTransfer `json:"token_transfers"`
}

// Succeeded reports whether consensus accepted the transaction.
func (t Transaction) Succeeded() bool {
	return t.Result == "SUCCESS"
}

// WhaleTransfer is a large HBAR movement. From is the largest sender and To
// the largest receiver.
type WhaleTransfer struct {
	TransactionID string          `json:"transaction_id"`
	ConsensusAt   time.Time       `json:"consensus_timestamp"`
	From          string          `json:"from"`
	To            string          `json:"to"`
	AmountHbar    decimal.Decimal `json:"amount_hbar"`
	ValueUSD      decimal.Decimal `json:"value_usd"`
}

// DefiOverview bundles the liquidity summary with DEX analytics, the top
// tokens and recent whale activity.
type DefiOverview struct {
	Summary     CrossProtocolSummary `json:"summary"`
	Dex         DexAnalytics         `json:"dex"`
	TopTokens   []Token              `json:"top_tokens"`
	Whales      WhaleActivity        `json:"whale_activity"`
	GeneratedAt time.Time            `json:"generated_at"`
}

// WhaleActivity summarises whale transfers over the overview window.
type WhaleActivity struct {
	Count      int             `json:"count"`
	TotalUSD   decimal.Decimal `json:"total_value_usd"`
	LargestUSD decimal.Decimal `json:"largest_value_usd"`
}

// PriceComparison puts a token's DEX price next to the lending oracle price.
// Spread is (lending - dex) / dex in percent and zero when either side is
// missing.
type PriceComparison struct {
	TokenID       string          `json:"token_id"`
	Symbol        string          `json:"symbol"`
	DexPrice      decimal.Decimal `json:"dex_price_usd"`
	LendingPrice  decimal.Decimal `json:"lending_price_usd"`
	SpreadPercent decimal.Decimal `json:"spread_percent"`
	DexListed     bool            `json:"dex_listed"`
	LendingListed bool            `json:"lending_listed"`
}
