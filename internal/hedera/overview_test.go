package hedera

import (
	"context"
	"errors"
	"testing"
	"time"

	"github.com/shopspring/decimal"

	"hedera-defi/internal/units"
)

func TestCombinedDefiOverview(t *testing.T) {
	up, srv := newUpstream(t)
	up.set("/dex/stats", `{"tvlUsd":"300"}`)
	up.set("/dex/pools", poolsBody)
	up.set("/dex/tokens", `[{"id":"0.0.456858","symbol":"USDC","priceUsd":1},{"id":"0.0.731861","symbol":"SAUCE","priceUsd":0.05}]`)
	up.set("/bonzo/Market", `{"reserves":[],"total_market_supplied":{"usd_display":"$100"}}`)
	up.set("/api/v1/tokens", `{"tokens":[
		{"token_id":"0.0.731861","symbol":"SAUCE","decimals":"6"},
		{"token_id":"0.0.456858","symbol":"USDC","decimals":"6"}
	],"links":{"next":null}}`)
	up.set("/api/v1/transactions", `{"transactions":[
		{"transaction_id":"w1","result":"SUCCESS","transfers":[{"account":"0.0.1","amount":-3000000000000},{"account":"0.0.2","amount":3000000000000}]},
		{"transaction_id":"w2","result":"SUCCESS","transfers":[{"account":"0.0.1","amount":-1000000000000},{"account":"0.0.2","amount":1000000000000}]}
	]}`)
	up.set("/api/v1/network/exchangerate", rateBody)
	clock := &testClock{now: time.Unix(1_700_000_000, 0)}
	client := newTestClient(t, srv, clock, nil)

	overview := client.GetCombinedDefiOverview(context.Background())

	if !overview.Summary.TotalLiquidityUSD.Equal(decimal.NewFromInt(400)) {
		t.Fatalf("summary total = %s", overview.Summary.TotalLiquidityUSD)
	}
	if overview.Dex.PoolCount != 3 {
		t.Fatalf("dex analytics pools = %d", overview.Dex.PoolCount)
	}
	if len(overview.TopTokens) != 2 || overview.TopTokens[0].Symbol != "USDC" {
		t.Fatalf("top tokens = %#v", overview.TopTokens)
	}
	if overview.Whales.Count != 2 {
		t.Fatalf("whale count = %d", overview.Whales.Count)
	}
	if !overview.Whales.TotalUSD.Equal(decimal.NewFromInt(4_000)) || !overview.Whales.LargestUSD.Equal(decimal.NewFromInt(3_000)) {
		t.Fatalf("whale activity = %#v", overview.Whales)
	}
	if !overview.GeneratedAt.Equal(clock.Now()) {
		t.Fatalf("generated at = %s", overview.GeneratedAt)
	}
	if client.ShowCallStatistics().CallCounts["getCombinedDefiOverview"] != 1 {
		t.Fatal("overview call not counted")
	}
}

func TestCombinedDefiOverviewAllSourcesDown(t *testing.T) {
	_, srv := newUpstream(t)
	client := newTestClient(t, srv, nil, nil)

	overview := client.GetCombinedDefiOverview(context.Background())
	if overview.Summary.Complete() || overview.Whales.Count != 0 {
		t.Fatalf("expected an empty overview, got %#v", overview)
	}
	if overview.TopTokens == nil || !overview.Whales.TotalUSD.IsZero() {
		t.Fatal("empty parts keep non-nil defaults")
	}
}

func TestCompareTokenPrices(t *testing.T) {
	up, srv := newUpstream(t)
	up.set("/dex/tokens", `[{"id":"0.0.456858","symbol":"USDC","priceUsd":1},{"id":"0.0.731861","symbol":"SAUCE","priceUsd":0.05}]`)
	up.set("/bonzo/Market", `{"reserves":[
		{"symbol":"USDC","hts_address":"0.0.456858","price_usd":1.01},
		{"symbol":"sauce","price_usd":"0.04"},
		{"symbol":"HBARX","hts_address":"0.0.834116","price_usd":"0.3"}
	]}`)
	client := newTestClient(t, srv, nil, nil)

	got, err := client.CompareTokenPrices(context.Background(), []string{"0.0.456858", "0.0.731861", "0.0.834116", "0.0.999"})
	if err != nil || len(got) != 4 {
		t.Fatalf("comparisons = %#v %v", got, err)
	}

	usdc, sauce, hbarx, unknown := got[0], got[1], got[2], got[3]
	if !usdc.DexListed || !usdc.LendingListed || !usdc.SpreadPercent.Equal(decimal.NewFromInt(1)) {
		t.Fatalf("usdc = %#v", usdc)
	}
	if !sauce.LendingPrice.Equal(mustDec(t, "0.04")) || !sauce.SpreadPercent.Equal(decimal.NewFromInt(-20)) {
		t.Fatalf("sauce should match its reserve by symbol: %#v", sauce)
	}
	if hbarx.DexListed || !hbarx.LendingListed || hbarx.Symbol != "HBARX" || !hbarx.SpreadPercent.IsZero() {
		t.Fatalf("lending-only token = %#v", hbarx)
	}
	if unknown.DexListed || unknown.LendingListed {
		t.Fatalf("unknown token = %#v", unknown)
	}
	if up.hits.Load() != 2 {
		t.Fatalf("each source is fetched once, upstream saw %d", up.hits.Load())
	}
}

func TestCompareTokenPricesValidation(t *testing.T) {
	up, srv := newUpstream(t)
	client := newTestClient(t, srv, nil, nil)

	if _, err := client.CompareTokenPrices(context.Background(), nil); !errors.Is(err, units.ErrInvalidInput) {
		t.Fatalf("empty list should be rejected, got %v", err)
	}
	if _, err := client.CompareTokenPrices(context.Background(), []string{"0.0.1", "USDC"}); !errors.Is(err, units.ErrInvalidInput) {
		t.Fatalf("bad token id should be rejected, got %v", err)
	}
	if up.hits.Load() != 0 {
		t.Fatal("validation must not reach the network")
	}
}
