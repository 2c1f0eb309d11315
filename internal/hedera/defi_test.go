package hedera

import (
	"context"
	"errors"
	"testing"

	"github.com/shopspring/decimal"

	"hedera-defi/internal/model"
	"hedera-defi/internal/units"
)

const marketBody = `{
	"chain_id":"295",
	"reserves":[
		{"symbol":"USDC","hts_address":"0.0.456858","active":true,"supply_apy":3.5,"variable_borrow_apy":6.2,"utilization_rate":62,"ltv":80,
		 "available_liquidity":{"usd_display":"$1,000,000.00"}},
		{"symbol":"HBARX","active":true,"supplyApy":0.4,"variableBorrowApy":"2.1","utilizationRate":"97","availableLiquidity":{"usdDisplay":"$10.00"}},
		{"symbol":"OLD","active":false,"supply_apy":9,"variable_borrow_apy":1}
	],
	"total_market_supplied":{"usd_display":"$5,000,000.00"}
}`

const poolsBody = `[
	{"id":1,"contractId":"0.0.100","tokenA":{"id":"0.0.456858","symbol":"USDC","decimals":6,"priceUsd":1},"tokenB":{"id":"0.0.1456986","symbol":"WHBAR","decimals":8,"priceUsd":0.25},"tokenReserveA":"1000000","tokenReserveB":"400000000","fee":3000},
	{"id":2,"contractId":"0.0.200","tokenA":{"id":"0.0.731861","symbol":"SAUCE","decimals":6,"priceUsd":0.05},"tokenB":{"id":"0.0.456858","symbol":"USDC","decimals":6,"priceUsd":1},"tokenReserveA":"0","tokenReserveB":"50000000","fee":1500},
	{"id":3,"contractId":"0.0.300","tokenA":{"id":"0.0.731861","symbol":"SAUCE","decimals":6,"priceUsd":0.05},"tokenB":{"id":"0.0.1456986","symbol":"WHBAR","decimals":8,"priceUsd":0.25},"tokenReserveA":"4000000000","tokenReserveB":"0","fee":3000}
]`

func TestLendingAccessors(t *testing.T) {
	up, srv := newUpstream(t)
	up.set("/bonzo/Market", marketBody)
	client := newTestClient(t, srv, nil, nil)
	ctx := context.Background()

	market := client.GetLendingMarkets(ctx)
	if market == nil || len(market.Reserves) != 3 {
		t.Fatalf("unexpected market %#v", market)
	}

	reserves := client.GetLendingReserves(ctx, market)
	totals := client.GetLendingTotals(ctx, market)
	if len(reserves) != 3 || !totals.TotalSupplied.USD.Equal(mustDec(t, "5000000")) {
		t.Fatalf("reserves/totals mismatch: %d %s", len(reserves), totals.TotalSupplied.USD)
	}
	if up.hits.Load() != 1 {
		t.Fatalf("cached market must not refetch, upstream saw %d", up.hits.Load())
	}

	usdc := client.GetLendingReserve(ctx, "usdc")
	if usdc == nil || !usdc.SupplyAPY.Equal(mustDec(t, "3.5")) {
		t.Fatalf("usdc reserve = %#v", usdc)
	}
	if client.GetLendingReserve(ctx, "DOGE") != nil {
		t.Fatal("unknown symbol is absent")
	}

	best := client.GetBestLendingRates(ctx, decimal.NewFromInt(1))
	if len(best) != 1 || best[0].Symbol != "USDC" {
		t.Fatalf("best rates = %#v", best)
	}

	borrow := client.GetBorrowingRates(ctx)
	if len(borrow) != 2 || borrow[0].Symbol != "HBARX" {
		t.Fatalf("borrow rates = %#v", borrow)
	}
}

func TestAssessReserveRisk(t *testing.T) {
	cases := []struct {
		name    string
		reserve model.Reserve
		want    string
	}{
		{"healthy", model.Reserve{Active: true, UtilizationRate: decimal.NewFromInt(40), AvailableLiquidity: model.DisplayAmount{USD: decimal.NewFromInt(10)}}, model.RiskLow},
		{"busy", model.Reserve{Active: true, UtilizationRate: decimal.NewFromInt(65), AvailableLiquidity: model.DisplayAmount{USD: decimal.NewFromInt(10)}}, model.RiskMedium},
		{"drained", model.Reserve{Active: true, UtilizationRate: decimal.NewFromInt(10)}, model.RiskHigh},
		{"inactive", model.Reserve{Active: false}, model.RiskHigh},
		{"critical", model.Reserve{Active: true, UtilizationRate: decimal.NewFromInt(99), AvailableLiquidity: model.DisplayAmount{USD: decimal.NewFromInt(1)}}, model.RiskCritical},
	}
	for _, tc := range cases {
		t.Run(tc.name, func(t *testing.T) {
			got := AssessReserveRisk(tc.reserve)
			if got.Level != tc.want {
				t.Fatalf("level = %s want %s (%v)", got.Level, tc.want, got.Reasons)
			}
		})
	}
}

func TestDexAccessors(t *testing.T) {
	up, srv := newUpstream(t)
	up.set("/dex/pools", poolsBody)
	up.set("/dex/stats", `{"tvlUsd":"3","swapTotal":9}`)
	up.set("/dex/tokens", `[{"id":"0.0.456858","symbol":"USDC","priceUsd":1},{"id":"0.0.731861","symbol":"SAUCE","priceUsd":0.05},{"id":"0.0.5","symbol":"NOPRICE"}]`)
	client := newTestClient(t, srv, nil, nil)
	ctx := context.Background()

	top, err := client.GetDexTopPools(ctx, 2)
	if err != nil || len(top) != 2 {
		t.Fatalf("top pools: %v %d", err, len(top))
	}
	if top[0].ID != 3 || !top[0].TVLUSD.Equal(mustDec(t, "200")) || top[1].ID != 2 {
		t.Fatalf("highest tvl pool first, got %d %s", top[0].ID, top[0].TVLUSD)
	}
	if _, err := client.GetDexTopPools(ctx, 0); !errors.Is(err, units.ErrInvalidInput) {
		t.Fatal("n must be positive")
	}

	pairs, err := client.GetDexTokenPairs(ctx, "0.0.456858", nil)
	if err != nil || len(pairs) != 2 || pairs[0].Counterparty.Symbol != "SAUCE" {
		t.Fatalf("pairs = %#v %v", pairs, err)
	}

	price, err := client.GetDexTokenPrice(ctx, "0.0.731861")
	if err != nil || !price.Equal(mustDec(t, "0.05")) {
		t.Fatalf("price = %s %v", price, err)
	}
	if token, _ := client.GetDexTokenByID(ctx, "0.0.404"); token != nil {
		t.Fatal("unknown dex token is absent")
	}

	analytics := client.GetDexAnalytics(ctx)
	if analytics.PoolCount != 3 || analytics.TokenCount != 3 || analytics.PricedTokens != 2 {
		t.Fatalf("unexpected analytics %#v", analytics)
	}
	if !analytics.PoolsTVLUSD.Equal(mustDec(t, "252")) {
		t.Fatalf("pools tvl = %s", analytics.PoolsTVLUSD)
	}
	if !analytics.AveragePoolTVL.Equal(mustDec(t, "84")) {
		t.Fatalf("average tvl = %s", analytics.AveragePoolTVL)
	}
}

func TestMultiProtocolTokenData(t *testing.T) {
	up, srv := newUpstream(t)
	up.set("/dex/pools", poolsBody)
	up.set("/dex/tokens", `[{"id":"0.0.731861","symbol":"SAUCE","priceUsd":0.05}]`)
	up.set("/bonzo/Market", `{"reserves":[{"symbol":"sauce","supply_apy":2}]}`)
	client := newTestClient(t, srv, nil, nil)

	data, err := client.GetMultiProtocolTokenData(context.Background(), "0.0.731861")
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if data.Token == nil || len(data.Pairs) != 2 {
		t.Fatalf("unexpected data %#v", data)
	}
	if data.Reserve == nil || !data.Reserve.SupplyAPY.Equal(decimal.NewFromInt(2)) {
		t.Fatal("reserve should match by symbol")
	}
	if !data.DexTVL.Equal(mustDec(t, "250")) {
		t.Fatalf("dex tvl = %s", data.DexTVL)
	}
}

func TestTokenImages(t *testing.T) {
	up, srv := newUpstream(t)
	up.set("/dex/tokens", `[{"id":"0.0.1","icon":"/a.png"},{"id":"0.0.2","icon":"/b.svg"},{"id":"0.0.3"}]`)
	client := newTestClient(t, srv, nil, nil)

	images := client.GetAllTokenImages(context.Background())
	if images.Stats.PNGImagesCount != 1 || images.Stats.OtherFormatCount != 1 || len(images.AllImages) != 2 {
		t.Fatalf("unexpected images %#v", images.Stats)
	}
}
