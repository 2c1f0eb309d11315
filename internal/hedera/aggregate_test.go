package hedera

import (
	"context"
	"net/http"
	"testing"

	"github.com/shopspring/decimal"
)

var tolerance = decimal.New(1, -9)

func TestSummaryZeroGuard(t *testing.T) {
	up, srv := newUpstream(t)
	up.set("/dex/stats", `{"tvlUsd":0}`)
	up.set("/bonzo/Market", `{"reserves":[],"total_market_supplied":{"usd_display":"$0.00"}}`)
	client := newTestClient(t, srv, nil, nil)

	summary := client.GetCrossProtocolLiquiditySummary(context.Background())
	if !summary.TotalLiquidityUSD.IsZero() {
		t.Fatalf("total = %s", summary.TotalLiquidityUSD)
	}
	if !summary.Distribution.DexSharePercent.IsZero() || !summary.Distribution.LendingSharePercent.IsZero() {
		t.Fatalf("两个 TVL 都为 0 时占比必须为 0: %#v", summary.Distribution)
	}
	if !summary.Complete() {
		t.Fatal("both sources answered, summary is complete")
	}
}

func TestSummaryDistributionSumsToHundred(t *testing.T) {
	up, srv := newUpstream(t)
	up.set("/dex/stats", `{"tvlUsd":"300","volumeTotalUsd":"1"}`)
	up.set("/bonzo/Market", `{"reserves":[],"total_market_supplied":{"usd_display":"$100.00"}}`)
	client := newTestClient(t, srv, nil, nil)

	summary := client.GetCrossProtocolLiquiditySummary(context.Background())
	if !summary.TotalLiquidityUSD.Equal(mustDec(t, "400")) {
		t.Fatalf("total = %s", summary.TotalLiquidityUSD)
	}
	if !summary.Distribution.DexSharePercent.Equal(mustDec(t, "75")) {
		t.Fatalf("dex share = %s", summary.Distribution.DexSharePercent)
	}
	sum := summary.Distribution.DexSharePercent.Add(summary.Distribution.LendingSharePercent)
	if sum.Sub(decimal.NewFromInt(100)).Abs().GreaterThan(tolerance) {
		t.Fatalf("shares must sum to 100, got %s", sum)
	}
	if summary.Performance.TotalMs < 0 || summary.GeneratedAt.IsZero() {
		t.Fatalf("timing metadata missing: %#v", summary.Performance)
	}
}

func TestSummaryDistributionUnevenSplit(t *testing.T) {
	cases := []struct{ dex, lending string }{
		{"1", "2"},
		{"45123456.78", "9876543.21"},
		{"0.0001", "999999999"},
	}
	for _, tc := range cases {
		s := summarize(mustDec(t, tc.dex), true, mustDec(t, tc.lending), true)
		sum := s.Distribution.DexSharePercent.Add(s.Distribution.LendingSharePercent)
		if sum.Sub(decimal.NewFromInt(100)).Abs().GreaterThan(tolerance) {
			t.Fatalf("%s/%s: shares sum to %s", tc.dex, tc.lending, sum)
		}
	}
}

func TestSummaryPartialFailure(t *testing.T) {
	up, srv := newUpstream(t)
	up.set("/dex/stats", `{"tvlUsd":"250"}`)
	up.fail("/bonzo/Market", http.StatusServiceUnavailable)
	client := newTestClient(t, srv, nil, nil)

	summary := client.GetCrossProtocolLiquiditySummary(context.Background())
	if summary.Lending.Available || !summary.Dex.Available {
		t.Fatalf("availability flags wrong: %#v %#v", summary.Dex, summary.Lending)
	}
	if !summary.TotalLiquidityUSD.Equal(mustDec(t, "250")) {
		t.Fatalf("failed source contributes zero, total = %s", summary.TotalLiquidityUSD)
	}
	if !summary.Distribution.DexSharePercent.Equal(decimal.NewFromInt(100)) {
		t.Fatalf("dex share = %s", summary.Distribution.DexSharePercent)
	}
}

func TestSummaryReusesCachedConstituents(t *testing.T) {
	up, srv := newUpstream(t)
	up.set("/dex/stats", `{"tvlUsd":"1"}`)
	up.set("/bonzo/Market", `{"reserves":[],"total_market_supplied":{"usd_display":"$1"}}`)
	client := newTestClient(t, srv, nil, nil)

	client.GetCrossProtocolLiquiditySummary(context.Background())
	client.GetCrossProtocolLiquiditySummary(context.Background())
	client.GetDexStats(context.Background())

	if up.hits.Load() != 2 {
		t.Fatalf("constituents should be fetched once each, upstream saw %d", up.hits.Load())
	}
	stats := client.ShowCallStatistics()
	if stats.CallCounts["getCrossProtocolLiquiditySummary"] != 2 || stats.CallCounts["getDexStats"] != 1 {
		t.Fatalf("unexpected call counts %#v", stats.CallCounts)
	}
}
