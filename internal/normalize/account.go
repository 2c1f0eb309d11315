package normalize

import (
	"encoding/json"

	"hedera-defi/internal/model"
)

// AccountInfo returns nil when the payload does not describe an account.
func AccountInfo(raw json.RawMessage) *model.AccountInfo {
	r, ok := object(raw)
	if !ok {
		return nil
	}
	id := str(r, "account", "account_id", "accountId")
	if id == "" {
		return nil
	}

	balance := pick(r, "balance")
	info := &model.AccountInfo{
		AccountID: id,
		Balance: model.AccountBalance{
			Amount: i64(balance, "balance"),
			AsOf:   str(balance, "timestamp"),
			Tokens: make([]model.TokenAmount, 0),
		},
		Alias:           str(r, "alias"),
		Memo:            str(r, "memo"),
		EVMAddress:      str(r, "evm_address", "evmAddress"),
		Deleted:         boolean(r, "deleted"),
		CreatedAt:       str(r, "created_timestamp", "createdTimestamp"),
		ExpiresAt:       str(r, "expiry_timestamp", "expiryTimestamp"),
		StakedAccountID: str(r, "staked_account_id", "stakedAccountId"),
		DeclineReward:   boolean(r, "decline_reward", "declineReward"),
		PendingReward:   i64(r, "pending_reward", "pendingReward"),
		MaxAutoAssoc:    i64(r, "max_automatic_token_associations", "maxAutomaticTokenAssociations"),
	}

	for _, t := range list(balance, "tokens") {
		info.Balance.Tokens = append(info.Balance.Tokens, model.TokenAmount{
			TokenID: str(t, "token_id", "tokenId"),
			Balance: i64(t, "balance"),
		})
	}

	if node := pick(r, "staked_node_id", "stakedNodeId"); node.Exists() {
		id := node.Int()
		info.StakedNodeID = &id
	}

	if key := pick(r, "key"); key.IsObject() {
		info.Key = &model.AccountKey{
			Type: str(key, "_type", "type"),
			Key:  str(key, "key"),
		}
	}
	return info
}

// AccountTokens maps an account's token relationships.
func AccountTokens(raw json.RawMessage) []model.TokenBalance {
	items := list(parse(raw), "tokens")
	tokens := make([]model.TokenBalance, 0, len(items))
	for _, item := range items {
		tokens = append(tokens, model.TokenBalance{
			TokenID:            str(item, "token_id", "tokenId"),
			Balance:            i64(item, "balance"),
			Decimals:           i32(item, "decimals"),
			FreezeStatus:       str(item, "freeze_status", "freezeStatus"),
			KYCStatus:          str(item, "kyc_status", "kycStatus"),
			AutomaticAssociate: boolean(item, "automatic_association", "automaticAssociation"),
			CreatedAt:          str(item, "created_timestamp", "createdTimestamp"),
		})
	}
	return tokens
}
