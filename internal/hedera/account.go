package hedera

import (
	"context"
	"fmt"
	"net/url"
	"strconv"

	"github.com/shopspring/decimal"

	"hedera-defi/internal/model"
	"hedera-defi/internal/normalize"
	"hedera-defi/internal/units"
)

// GetAccountInfo returns nil without error when the account cannot be
// fetched. Malformed ids are rejected before any request.
func (c *Client) GetAccountInfo(ctx context.Context, accountID string) (*model.AccountInfo, error) {
	c.track("getAccountInfo")
	if err := units.ValidateAccountID(accountID); err != nil {
		return nil, err
	}
	return c.accountInfo(ctx, accountID), nil
}

// GetAccountBalance returns the HBAR balance, zero when unavailable.
func (c *Client) GetAccountBalance(ctx context.Context, accountID string) (decimal.Decimal, error) {
	c.track("getAccountBalance")
	if err := units.ValidateAccountID(accountID); err != nil {
		return decimal.Zero, err
	}
	info := c.accountInfo(ctx, accountID)
	if info == nil {
		return decimal.Zero, nil
	}
	return info.HbarBalance(), nil
}

// GetAccountTokens returns the account's token relationships.
func (c *Client) GetAccountTokens(ctx context.Context, accountID string) ([]model.TokenBalance, error) {
	c.track("getAccountTokens")
	if err := units.ValidateAccountID(accountID); err != nil {
		return nil, err
	}
	params := url.Values{"limit": {strconv.Itoa(mirrorPageSize)}}
	raw, _ := c.exec.Execute(ctx, c.mirror, "accounts/"+accountID+"/tokens", params)
	return normalize.AccountTokens(raw), nil
}

// GetEVMBalance reads the HBAR balance of an account through the JSON-RPC
// relay. Relay failures are returned, there is no default for a chain read.
func (c *Client) GetEVMBalance(ctx context.Context, accountID string) (*model.EVMBalance, error) {
	c.track("getEvmBalance")
	addr, err := units.AccountIDToEVMAddress(accountID)
	if err != nil {
		return nil, err
	}

	balance, block, err := c.relay.NativeBalance(ctx, addr.Hex())
	if err != nil {
		return nil, fmt.Errorf("relay balance of %s: %w", accountID, err)
	}
	return &model.EVMBalance{
		AccountID:   accountID,
		EVMAddress:  addr.Hex(),
		Balance:     balance,
		BlockNumber: block,
	}, nil
}

// GetEVMTokenBalance reads an HTS token balance through the token's ERC-20
// facade on the relay.
func (c *Client) GetEVMTokenBalance(ctx context.Context, accountID, tokenID string) (*model.EVMBalance, error) {
	c.track("getEvmTokenBalance")
	if err := units.ValidateTokenID(tokenID); err != nil {
		return nil, err
	}
	addr, err := units.AccountIDToEVMAddress(accountID)
	if err != nil {
		return nil, err
	}
	tokenAddr, err := units.AccountIDToEVMAddress(tokenID)
	if err != nil {
		return nil, err
	}

	balance, block, err := c.relay.TokenBalance(ctx, tokenAddr.Hex(), addr.Hex())
	if err != nil {
		return nil, fmt.Errorf("relay token balance of %s for %s: %w", tokenID, accountID, err)
	}
	return &model.EVMBalance{
		AccountID:   accountID,
		EVMAddress:  addr.Hex(),
		TokenID:     tokenID,
		Balance:     balance,
		BlockNumber: block,
	}, nil
}

func (c *Client) accountInfo(ctx context.Context, accountID string) *model.AccountInfo {
	raw, _ := c.exec.Execute(ctx, c.mirror, "accounts/"+accountID, nil)
	return normalize.AccountInfo(raw)
}
