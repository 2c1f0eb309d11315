package normalize

import (
	"encoding/json"
	"time"

	"github.com/tidwall/gjson"

	"hedera-defi/internal/model"
	"hedera-defi/internal/units"
)

// LendingMarket returns nil when the payload carries neither reserves nor
// market totals.
func LendingMarket(raw json.RawMessage, now time.Time) *model.LendingMarket {
	r, ok := object(raw)
	if !ok {
		return nil
	}
	if !pick(r, "reserves").Exists() && !pick(r, "total_market_supplied", "totalMarketSupplied").Exists() {
		return nil
	}

	return &model.LendingMarket{
		ChainID:     str(r, "chain_id", "chainId"),
		NetworkName: str(r, "network_name", "networkName"),
		Reserves:    Reserves(raw),
		Totals:      LendingTotals(raw),
		Timestamp:   now.UTC(),
	}
}

// Reserves maps the reserves array of a lending market payload.
func Reserves(raw json.RawMessage) []model.Reserve {
	items := list(parse(raw), "reserves")
	reserves := make([]model.Reserve, 0, len(items))
	for _, item := range items {
		reserves = append(reserves, reserve(item))
	}
	return reserves
}

// Reserve maps a single reserve object.
func Reserve(raw json.RawMessage) model.Reserve {
	r, ok := object(raw)
	if !ok {
		return reserve(gjson.Result{})
	}
	return reserve(r)
}

func reserve(r gjson.Result) model.Reserve {
	return model.Reserve{
		Symbol:               str(r, "symbol"),
		Name:                 str(r, "name"),
		TokenID:              str(r, "hts_address", "htsAddress", "token_id", "tokenId"),
		EVMAddress:           str(r, "evm_address", "evmAddress"),
		Decimals:             i32(r, "decimals"),
		Active:               boolean(r, "active"),
		Frozen:               boolean(r, "frozen"),
		BorrowingEnabled:     boolean(r, "borrowing_enabled", "borrowingEnabled"),
		SupplyAPY:            dec(r, "supply_apy", "supplyApy"),
		VariableBorrowAPY:    dec(r, "variable_borrow_apy", "variableBorrowApy"),
		StableBorrowAPY:      dec(r, "stable_borrow_apy", "stableBorrowApy"),
		UtilizationRate:      dec(r, "utilization_rate", "utilizationRate"),
		LTV:                  dec(r, "ltv"),
		LiquidationThreshold: dec(r, "liquidation_threshold", "liquidationThreshold"),
		LiquidationBonus:     dec(r, "liquidation_bonus", "liquidationBonus"),
		PriceUSD:             units.ParseCurrency(str(r, "price_usd_display", "priceUsdDisplay", "price_usd", "priceUsd")),
		AvailableLiquidity:   displayAmount(pick(r, "available_liquidity", "availableLiquidity")),
		TotalSupply:          displayAmount(pick(r, "total_supply", "totalSupply")),
		TotalBorrow:          displayAmount(pick(r, "total_borrow", "totalBorrow", "variable_debt", "variableDebt")),
	}
}

// LendingTotals maps the market-wide amounts and counts reserves.
func LendingTotals(raw json.RawMessage) model.LendingTotals {
	r := parse(raw)
	totals := model.LendingTotals{
		TotalSupplied:  displayAmount(pick(r, "total_market_supplied", "totalMarketSupplied")),
		TotalBorrowed:  displayAmount(pick(r, "total_market_borrowed", "totalMarketBorrowed")),
		TotalLiquidity: displayAmount(pick(r, "total_market_liquidity", "totalMarketLiquidity")),
	}
	for _, item := range list(r, "reserves") {
		totals.ReserveCount++
		if boolean(item, "active") {
			totals.ActiveReserves++
		}
	}
	return totals
}

// DisplayAmount maps a {token,usd,hbar}_display object. A bare string is
// taken as the USD display.
func DisplayAmount(raw json.RawMessage) model.DisplayAmount {
	return displayAmount(parse(raw))
}

func displayAmount(r gjson.Result) model.DisplayAmount {
	if r.Type == gjson.String || r.Type == gjson.Number {
		return model.DisplayAmount{USDDisplay: r.String(), USD: units.ParseCurrency(r.String())}
	}
	usd := str(r, "usd_display", "usdDisplay")
	return model.DisplayAmount{
		TokenDisplay:   str(r, "token_display", "tokenDisplay"),
		USDDisplay:     usd,
		HBARDisplay:    str(r, "hbar_display", "hbarDisplay"),
		USDAbbreviated: str(r, "usd_abbreviated", "usdAbbreviated"),
		USD:            units.ParseCurrency(usd),
	}
}
