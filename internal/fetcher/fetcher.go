package fetcher

import (
	"context"
	"encoding/json"
	"net/url"

	"github.com/shopspring/decimal"
)

// Requester performs cached GET requests against an upstream Source.
type Requester interface {
	Execute(ctx context.Context, src Source, path string, params url.Values) (json.RawMessage, bool)
}

// ChainReader reads balances through the Hedera JSON-RPC relay.
type ChainReader interface {
	NativeBalance(ctx context.Context, account string) (decimal.Decimal, uint64, error)
	TokenBalance(ctx context.Context, token, account string) (decimal.Decimal, uint64, error)
}

var (
	_ Requester   = (*Executor)(nil)
	_ ChainReader = (*Relay)(nil)
)
