package normalize

import (
	"encoding/json"
	"time"

	"github.com/shopspring/decimal"
	"github.com/tidwall/gjson"

	"hedera-defi/internal/model"
)

// Pools maps the DEX pool list. Reserves are scaled to display units and
// TVL is the sum of both sides at the token USD prices.
func Pools(raw json.RawMessage) []model.Pool {
	items := list(parse(raw), "pools")
	pools := make([]model.Pool, 0, len(items))
	for _, item := range items {
		pools = append(pools, pool(item))
	}
	return pools
}

func pool(r gjson.Result) model.Pool {
	a := poolToken(pick(r, "token_a", "tokenA"))
	b := poolToken(pick(r, "token_b", "tokenB"))

	reserveA := scaled(dec(r, "token_reserve_a", "tokenReserveA", "amount_a", "amountA"), a.Decimals)
	reserveB := scaled(dec(r, "token_reserve_b", "tokenReserveB", "amount_b", "amountB"), b.Decimals)

	return model.Pool{
		ID:         i64(r, "id"),
		ContractID: str(r, "contract_id", "contractId"),
		TokenA:     a,
		TokenB:     b,
		Fee:        i64(r, "fee"),
		ReserveA:   reserveA,
		ReserveB:   reserveB,
		Liquidity:  dec(r, "liquidity"),
		TVLUSD:     reserveA.Mul(a.PriceUSD).Add(reserveB.Mul(b.PriceUSD)),
	}
}

func poolToken(r gjson.Result) model.PoolToken {
	return model.PoolToken{
		TokenID:  str(r, "id", "token_id", "tokenId"),
		Symbol:   str(r, "symbol"),
		Name:     str(r, "name"),
		Decimals: i32(r, "decimals"),
		PriceUSD: dec(r, "price_usd", "priceUsd"),
	}
}

// DexStats maps the protocol statistics; now stamps the observation.
func DexStats(raw json.RawMessage, now time.Time) model.DexStats {
	r := parse(raw)
	return model.DexStats{
		TVLUSD:           dec(r, "tvl_usd", "tvlUsd"),
		VolumeTotalUSD:   dec(r, "volume_total_usd", "volumeTotalUsd"),
		SwapTotal:        i64(r, "swap_total", "swapTotal"),
		CirculatingSauce: dec(r, "circulating_sauce", "circulatingSauce"),
		Timestamp:        now.UTC(),
	}
}

// PoolsTVL sums pool TVLs.
func PoolsTVL(pools []model.Pool) decimal.Decimal {
	total := decimal.Zero
	for _, p := range pools {
		total = total.Add(p.TVLUSD)
	}
	return total
}
