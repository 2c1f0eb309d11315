package normalize

import (
	"encoding/base64"
	"encoding/json"

	"github.com/tidwall/gjson"

	"hedera-defi/internal/model"
	"hedera-defi/internal/units"
)

// Transactions maps the mirror node transaction list. HBAR legs and the
// charged fee are converted from tinybars.
func Transactions(raw json.RawMessage) []model.Transaction {
	items := list(parse(raw), "transactions")
	txs := make([]model.Transaction, 0, len(items))
	for _, item := range items {
		id := str(item, "transaction_id", "transactionId")
		if id == "" {
			continue
		}
		txs = append(txs, transaction(item, id))
	}
	return txs
}

func transaction(r gjson.Result, id string) model.Transaction {
	tx := model.Transaction{
		TransactionID:  id,
		Type:           str(r, "name", "type"),
		Result:         str(r, "result"),
		ChargedFee:     units.TinybarsToHbar(dec(r, "charged_tx_fee", "chargedTxFee")),
		Memo:           memo(str(r, "memo_base64", "memoBase64")),
		Transfers:      make([]model.Transfer, 0),
		TokenTransfers: make([]model.TokenTransfer, 0),
	}
	if at, ok := units.ParseTimestamp(str(r, "consensus_timestamp", "consensusTimestamp")); ok {
		tx.ConsensusAt = at
	}

	for _, t := range list(r, "transfers") {
		tx.Transfers = append(tx.Transfers, model.Transfer{
			AccountID: str(t, "account"),
			Amount:    units.TinybarsToHbar(dec(t, "amount")),
		})
	}
	for _, t := range list(r, "token_transfers", "tokenTransfers") {
		tx.TokenTransfers = append(tx.TokenTransfers, model.TokenTransfer{
			TokenID:   str(t, "token_id", "tokenId"),
			AccountID: str(t, "account"),
			Amount:    dec(t, "amount"),
		})
	}
	return tx
}

// memo decodes the base64 memo; undecodable input is kept verbatim.
func memo(encoded string) string {
	if encoded == "" {
		return ""
	}
	decoded, err := base64.StdEncoding.DecodeString(encoded)
	if err != nil {
		return encoded
	}
	return string(decoded)
}
