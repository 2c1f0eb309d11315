package model

import "github.com/shopspring/decimal"

// AccountBalance is the raw tinybar balance and the consensus timestamp it
// was observed at.
type AccountBalance struct {
	Amount int64         `json:"balance"`
	AsOf   string        `json:"timestamp"`
	Tokens []TokenAmount `json:"tokens"`
}

// TokenAmount is a token entry embedded in an account balance.
type TokenAmount struct {
	TokenID string `json:"token_id"`
	Balance int64  `json:"balance"`
}

// AccountKey is the account's public key material.
type AccountKey struct {
	Type string `json:"_type"`
	Key  string `json:"key"`
}

// AccountInfo is passed through largely as the mirror node reports it.
type AccountInfo struct {
	AccountID       string         `json:"account"`
	Balance         AccountBalance `json:"balance"`
	Alias           string         `json:"alias,omitempty"`
	Memo            string         `json:"memo"`
	EVMAddress      string         `json:"evm_address"`
	Key             *AccountKey    `json:"key,omitempty"`
	Deleted         bool           `json:"deleted"`
	CreatedAt       string         `json:"created_timestamp"`
	ExpiresAt       string         `json:"expiry_timestamp"`
	StakedNodeID    *int64         `json:"staked_node_id,omitempty"`
	StakedAccountID string         `json:"staked_account_id,omitempty"`
	DeclineReward   bool           `json:"decline_reward"`
	PendingReward   int64          `json:"pending_reward"`
	MaxAutoAssoc    int64          `json:"max_automatic_token_associations"`
}

// HbarBalance converts the balance to display units.
func (a AccountInfo) HbarBalance() decimal.Decimal {
	return decimal.New(a.Balance.Amount, -8)
}

// TokenBalance is one token relationship of an account.
type TokenBalance struct {
	TokenID            string `json:"token_id"`
	Balance            int64  `json:"balance"`
	Decimals           int32  `json:"decimals"`
	FreezeStatus       string `json:"freeze_status"`
	KYCStatus          string `json:"kyc_status"`
	AutomaticAssociate bool   `json:"automatic_association"`
	CreatedAt          string `json:"created_timestamp"`
}

// DisplayBalance scales Balance by Decimals.
func (t TokenBalance) DisplayBalance() decimal.Decimal {
	return decimal.New(t.Balance, -t.Decimals)
}

// EVMBalance is a balance read through the JSON-RPC relay.
type EVMBalance struct {
	AccountID   string          `json:"account_id"`
	EVMAddress  string          `json:"evm_address"`
	TokenID     string          `json:"token_id,omitempty"`
	Balance     decimal.Decimal `json:"balance"`
	BlockNumber uint64          `json:"block_number"`
}
