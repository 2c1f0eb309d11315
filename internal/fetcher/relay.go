package fetcher

import (
	"context"
	"errors"
	"fmt"
	"math/big"
	"strings"
	"sync"
	"time"

	"github.com/ethereum/go-ethereum"
	"github.com/ethereum/go-ethereum/accounts/abi"
	"github.com/ethereum/go-ethereum/common"
	"github.com/ethereum/go-ethereum/ethclient"
	"github.com/rs/zerolog"
	"github.com/shopspring/decimal"
)

// DefaultRelayURL is the public Hedera JSON-RPC relay.
const DefaultRelayURL = "https://mainnet.hashio.io/api"

const erc20ABIJSON = `[
{"inputs":[{"internalType":"address","name":"account","type":"address"}],"name":"balanceOf","outputs":[{"internalType":"uint256","name":"","type":"uint256"}],"stateMutability":"view","type":"function"},
{"inputs":[],"name":"decimals","outputs":[{"internalType":"uint8","name":"","type":"uint8"}],"stateMutability":"view","type":"function"}
]`

// The relay reports native balances in weibars: 18 decimals.
const weibarDecimals = 18

var erc20ABI abi.ABI

func init() {
	parsed, err := abi.JSON(strings.NewReader(erc20ABIJSON))
	if err != nil {
		panic("failed to parse ERC-20 ABI: " + err.Error())
	}
	erc20ABI = parsed
}

// RelayOptions parameterise the JSON-RPC relay reader.
type RelayOptions struct {
	RPCURL  string
	Timeout time.Duration
}

// Relay reads balances through the Hedera JSON-RPC relay. HTS tokens are
// exposed there as ERC-20 contracts at their long-zero address.
type Relay struct {
	opts      RelayOptions
	logger    zerolog.Logger
	client    *ethclient.Client
	clientMux sync.Mutex
}

// NewRelay builds a relay reader. The connection is opened lazily.
func NewRelay(opts RelayOptions, logger zerolog.Logger) *Relay {
	return &Relay{opts: opts, logger: logger.With().Str("component", "json_rpc_relay").Logger()}
}

// NativeBalance returns the HBAR balance of account and the block it was read at.
func (r *Relay) NativeBalance(ctx context.Context, account string) (decimal.Decimal, uint64, error) {
	if !common.IsHexAddress(account) {
		return decimal.Decimal{}, 0, fmt.Errorf("invalid evm address %q", account)
	}

	ctx, cancel := r.withTimeout(ctx)
	defer cancel()

	client, err := r.getClient(ctx)
	if err != nil {
		return decimal.Decimal{}, 0, err
	}

	blockNumber, err := client.BlockNumber(ctx)
	if err != nil {
		return decimal.Decimal{}, 0, fmt.Errorf("block number: %w", err)
	}

	balance, err := client.BalanceAt(ctx, common.HexToAddress(account), new(big.Int).SetUint64(blockNumber))
	if err != nil {
		return decimal.Decimal{}, 0, fmt.Errorf("balance: %w", err)
	}

	return decimal.NewFromBigInt(balance, -weibarDecimals), blockNumber, nil
}

// TokenBalance returns the ERC-20 balance of account for token, scaled by
// the token's decimals.
func (r *Relay) TokenBalance(ctx context.Context, token, account string) (decimal.Decimal, uint64, error) {
	if !common.IsHexAddress(token) {
		return decimal.Decimal{}, 0, fmt.Errorf("invalid token address %q", token)
	}
	if !common.IsHexAddress(account) {
		return decimal.Decimal{}, 0, fmt.Errorf("invalid evm address %q", account)
	}

	ctx, cancel := r.withTimeout(ctx)
	defer cancel()

	client, err := r.getClient(ctx)
	if err != nil {
		return decimal.Decimal{}, 0, err
	}

	blockNumber, err := client.BlockNumber(ctx)
	if err != nil {
		return decimal.Decimal{}, 0, fmt.Errorf("block number: %w", err)
	}
	block := new(big.Int).SetUint64(blockNumber)
	tokenAddr := common.HexToAddress(token)

	raw, err := r.call(ctx, client, tokenAddr, block, "balanceOf", common.HexToAddress(account))
	if err != nil {
		return decimal.Decimal{}, 0, err
	}
	amount, ok := raw.(*big.Int)
	if !ok {
		return decimal.Decimal{}, 0, errors.New("failed to decode balanceOf output")
	}

	raw, err = r.call(ctx, client, tokenAddr, block, "decimals")
	if err != nil {
		return decimal.Decimal{}, 0, err
	}
	decimals, ok := raw.(uint8)
	if !ok {
		return decimal.Decimal{}, 0, errors.New("failed to decode decimals output")
	}

	return decimal.NewFromBigInt(amount, -int32(decimals)), blockNumber, nil
}

func (r *Relay) call(ctx context.Context, client *ethclient.Client, to common.Address, block *big.Int, method string, args ...any) (any, error) {
	payload, err := erc20ABI.Pack(method, args...)
	if err != nil {
		return nil, fmt.Errorf("pack %s: %w", method, err)
	}

	res, err := client.CallContract(ctx, ethereum.CallMsg{To: &to, Data: payload}, block)
	if err != nil {
		return nil, fmt.Errorf("call %s: %w", method, err)
	}

	outputs, err := erc20ABI.Unpack(method, res)
	if err != nil {
		return nil, fmt.Errorf("unpack %s: %w", method, err)
	}
	if len(outputs) != 1 {
		return nil, fmt.Errorf("unexpected %s response", method)
	}
	return outputs[0], nil
}

func (r *Relay) withTimeout(ctx context.Context) (context.Context, context.CancelFunc) {
	timeout := r.opts.Timeout
	if timeout <= 0 {
		timeout = 10 * time.Second
	}
	return context.WithTimeout(ctx, timeout)
}

func (r *Relay) getClient(ctx context.Context) (*ethclient.Client, error) {
	if r.opts.RPCURL == "" {
		return nil, errors.New("json-rpc relay url not configured")
	}

	r.clientMux.Lock()
	defer r.clientMux.Unlock()

	if r.client != nil {
		return r.client, nil
	}

	client, err := ethclient.DialContext(ctx, r.opts.RPCURL)
	if err != nil {
		return nil, fmt.Errorf("dial relay: %w", err)
	}
	r.logger.Debug().Str("url", r.opts.RPCURL).Msg("connected to json-rpc relay")
	r.client = client
	return client, nil
}

// Close releases the relay connection.
func (r *Relay) Close() {
	r.clientMux.Lock()
	defer r.clientMux.Unlock()
	if r.client != nil {
		r.client.Close()
		r.client = nil
	}
}
