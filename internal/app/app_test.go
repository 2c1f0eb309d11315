package app

import (
	"bytes"
	"context"
	"encoding/csv"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"os"
	"path/filepath"
	"strings"
	"testing"
	"time"

	"github.com/rs/zerolog"
	"github.com/shopspring/decimal"

	"hedera-defi/internal/alerting"
	"hedera-defi/internal/config"
	"hedera-defi/internal/hedera"
	"hedera-defi/internal/storage"
)

func testApp(t *testing.T, routes map[string]string) (*App, *bytes.Buffer) {
	t.Helper()
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		body, ok := routes[r.URL.Path]
		if !ok {
			w.WriteHeader(http.StatusNotFound)
			return
		}
		w.Header().Set("Content-Type", "application/json")
		_, _ = w.Write([]byte(body))
	}))
	t.Cleanup(srv.Close)

	cfg := &config.Config{}
	cfg.Mirror.BaseURL = srv.URL + "/api/v1"
	cfg.SaucerSwap.BaseURL = srv.URL + "/dex"
	cfg.Bonzo.BaseURL = srv.URL + "/bonzo"
	cfg.Relay.RPCURL = srv.URL + "/rpc"
	cfg.Client.CacheTTL = time.Minute
	cfg.Client.RequestTimeout = 2 * time.Second
	cfg.Client.RetryAttempts = 1
	cfg.Scheduler.Interval = 5 * time.Minute
	cfg.Export.MaxDataPoints = 100

	var out bytes.Buffer
	a := NewApp(cfg, zerolog.Nop())
	a.Out = &out
	return a, &out
}

func TestSummaryWritesJSON(t *testing.T) {
	a, out := testApp(t, map[string]string{
		"/dex/stats":    `{"tvlUsd":"300"}`,
		"/bonzo/Market": `{"reserves":[],"total_market_supplied":{"usd_display":"$100.00"}}`,
	})

	if err := a.Summary(context.Background()); err != nil {
		t.Fatal(err)
	}

	var got struct {
		Total string `json:"total_liquidity_usd"`
		Dex   struct {
			Available bool `json:"available"`
		} `json:"dex"`
	}
	if err := json.Unmarshal(out.Bytes(), &got); err != nil {
		t.Fatalf("输出应为 JSON: %v\n%s", err, out.String())
	}
	if got.Total != "400" || !got.Dex.Available {
		t.Fatalf("unexpected summary %s", out.String())
	}
}

func TestPoolsTable(t *testing.T) {
	a, out := testApp(t, map[string]string{
		"/dex/pools": `[
			{"id":1,"contractId":"0.0.10","fee":3000,
			 "tokenA":{"id":"0.0.1","symbol":"AAA","decimals":0,"priceUsd":1},
			 "tokenB":{"id":"0.0.2","symbol":"BBB","decimals":0,"priceUsd":1},
			 "tokenReserveA":"10","tokenReserveB":"10"}
		]`,
	})

	if err := a.Pools(context.Background(), PoolsOptions{Top: 5}); err != nil {
		t.Fatal(err)
	}
	if !strings.Contains(out.String(), "AAA/BBB") || !strings.Contains(out.String(), "0.0.10") {
		t.Fatalf("table missing pool row:\n%s", out.String())
	}
}

func TestQueryValidationErrors(t *testing.T) {
	a, _ := testApp(t, nil)
	ctx := context.Background()

	if err := a.Pools(ctx, PoolsOptions{Top: 0}); err == nil {
		t.Fatal("top=0 must be rejected")
	}
	if err := a.Tokens(ctx, TokensOptions{Limit: 5, SortBy: "volume"}); err == nil {
		t.Fatal("unknown sort must be rejected")
	}
	if err := a.Account(ctx, AccountOptions{AccountID: "not-an-id"}); err == nil {
		t.Fatal("invalid account must be rejected")
	}
	if err := a.Transactions(ctx, TransactionsOptions{Limit: 500}); err == nil {
		t.Fatal("limit above 100 must be rejected")
	}
	if err := a.Whales(ctx, WhalesOptions{ThresholdHbar: 100}); err == nil {
		t.Fatal("zero window must be rejected")
	}
	if err := a.ComparePrices(ctx, []string{"SAUCE"}); err == nil {
		t.Fatal("symbols are not token ids")
	}
}

func TestWhalesAndComparePricesTables(t *testing.T) {
	a, out := testApp(t, map[string]string{
		"/api/v1/transactions": `{"transactions":[{"transaction_id":"0.0.9-1","result":"SUCCESS","consensus_timestamp":"1700000000.0",
			"transfers":[{"account":"0.0.9","amount":-5000000000000},{"account":"0.0.10","amount":5000000000000}]}]}`,
		"/dex/tokens":   `[{"id":"0.0.731861","symbol":"SAUCE","priceUsd":0.05}]`,
		"/bonzo/Market": `{"reserves":[{"symbol":"SAUCE","price_usd":"0.05"}]}`,
	})
	ctx := context.Background()

	if err := a.Whales(ctx, WhalesOptions{ThresholdHbar: 1000, Window: time.Hour}); err != nil {
		t.Fatal(err)
	}
	if !strings.Contains(out.String(), "0.0.9-1") || !strings.Contains(out.String(), "50000.00") {
		t.Fatalf("whale row missing:\n%s", out.String())
	}

	out.Reset()
	if err := a.ComparePrices(ctx, []string{"0.0.731861", "0.0.1"}); err != nil {
		t.Fatal(err)
	}
	if !strings.Contains(out.String(), "SAUCE") || !strings.Contains(out.String(), "0.050000") || !strings.Contains(out.String(), "-") {
		t.Fatalf("comparison table incomplete:\n%s", out.String())
	}
}

func TestStatsReportsCalls(t *testing.T) {
	a, out := testApp(t, nil)
	if err := a.Stats(context.Background()); err != nil {
		t.Fatal(err)
	}
	if !strings.Contains(out.String(), "getCrossProtocolLiquiditySummary") {
		t.Fatalf("stats should list tracked calls:\n%s", out.String())
	}
}

func TestNewClientOverride(t *testing.T) {
	a, _ := testApp(t, nil)
	called := false
	a.NewClient = func() *hedera.Client {
		called = true
		return hedera.New(ClientOptions(a.Config), zerolog.Nop())
	}
	if err := a.Summary(context.Background()); err != nil {
		t.Fatal(err)
	}
	if !called {
		t.Fatal("override not used")
	}
}

func TestNewNotifierChannels(t *testing.T) {
	a, _ := testApp(t, nil)

	a.Config.Alerting.Channels = []string{"telegram"}
	if a.newNotifier() != nil {
		t.Fatal("disabled telegram yields no notifier")
	}

	a.Config.Alerting.Channels = []string{"log"}
	if _, ok := a.newNotifier().(*alerting.LogNotifier); !ok {
		t.Fatal("single channel returns the notifier itself")
	}

	a.Config.Alerting.Channels = []string{"log", " Telegram ", "pager"}
	a.Config.Alerting.Telegram.Enabled = true
	multi, ok := a.newNotifier().(alerting.Multi)
	if !ok || len(multi) != 2 {
		t.Fatalf("expected two notifiers, got %#v", multi)
	}
}

func TestSimulateAlert(t *testing.T) {
	a, _ := testApp(t, nil)
	ctx := context.Background()

	if err := a.SimulateAlert(ctx, decimal.NewFromInt(100), decimal.NewFromInt(50)); err == nil {
		t.Fatal("alerting 未启用时应报错")
	}

	a.Config.Alerting.Enabled = true
	a.Config.Alerting.ThresholdPct = 10
	if err := a.SimulateAlert(ctx, decimal.NewFromInt(100), decimal.NewFromInt(50)); err == nil {
		t.Fatal("没有告警通道时应报错")
	}

	var sent []string
	tg := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		var payload map[string]string
		_ = json.NewDecoder(r.Body).Decode(&payload)
		sent = append(sent, payload["text"])
		_ = json.NewEncoder(w).Encode(map[string]any{"ok": true})
	}))
	defer tg.Close()

	a.Config.Alerting.Channels = []string{"telegram"}
	a.Config.Alerting.Telegram = config.TelegramConfig{Enabled: true, BotToken: "t", ChatID: "c", APIBase: tg.URL}
	if err := a.SimulateAlert(ctx, decimal.NewFromInt(100), decimal.NewFromInt(50)); err != nil {
		t.Fatal(err)
	}
	if len(sent) != 1 || !strings.Contains(sent[0], "Change: -50.00%") {
		t.Fatalf("expected one -50%% alert, got %v", sent)
	}
}

func TestDownsampleSnapshots(t *testing.T) {
	snaps := make([]storage.LiquiditySnapshot, 10)
	base := time.Date(2025, 1, 1, 0, 0, 0, 0, time.UTC)
	for i := range snaps {
		snaps[i].Bucket = base.Add(time.Duration(i) * time.Minute)
	}

	got := downsampleSnapshots(snaps, 4)
	if len(got) != 4 {
		t.Fatalf("len = %d", len(got))
	}
	if !got[0].Bucket.Equal(snaps[0].Bucket) || !got[3].Bucket.Equal(snaps[9].Bucket) {
		t.Fatal("downsample must keep both endpoints")
	}
	if len(downsampleSnapshots(snaps, 1)) != 1 || len(downsampleSnapshots(snaps, 0)) != 10 {
		t.Fatal("edge cases")
	}
}

func TestExportWindow(t *testing.T) {
	a, _ := testApp(t, nil)
	now := time.Date(2025, 1, 2, 0, 0, 0, 0, time.UTC)

	from, to, err := a.exportWindow(ExportOptions{MaxPoints: 12}, now)
	if err != nil {
		t.Fatal(err)
	}
	if !to.Equal(now) || !from.Equal(now.Add(-time.Hour)) {
		t.Fatalf("window = %s..%s", from, to)
	}

	late := now.Add(time.Hour)
	if _, _, err := a.exportWindow(ExportOptions{From: &late, MaxPoints: 1}, now); err == nil {
		t.Fatal("from after to must fail")
	}
}

func TestWriteExports(t *testing.T) {
	a, _ := testApp(t, nil)
	dir := t.TempDir()
	base := time.Date(2025, 1, 1, 0, 0, 0, 0, time.UTC)
	msg := "unavailable sources: [bonzo]"
	snaps := []storage.LiquiditySnapshot{
		{Bucket: base, TotalUSD: decimal.NewFromInt(1000), DexTVLUSD: decimal.NewFromInt(600), LendingTVLUSD: decimal.NewFromInt(400), DexSharePct: decimal.NewFromInt(60), Status: storage.StatusComplete, DexAvailable: true, LendingAvailable: true},
		{Bucket: base.Add(5 * time.Minute), TotalUSD: decimal.NewFromInt(600), DexTVLUSD: decimal.NewFromInt(600), DexSharePct: decimal.NewFromInt(100), Status: storage.StatusPartial, DexAvailable: true, Error: &msg},
	}

	opts := ExportOptions{CSVPath: filepath.Join(dir, "out", "liquidity.csv"), PNGPath: filepath.Join(dir, "liquidity.png"), MaxPoints: 100}
	if err := a.writeExports(opts, snaps); err != nil {
		t.Fatal(err)
	}

	f, err := os.Open(opts.CSVPath)
	if err != nil {
		t.Fatal(err)
	}
	defer f.Close()
	records, err := csv.NewReader(f).ReadAll()
	if err != nil {
		t.Fatal(err)
	}
	if len(records) != 3 || records[2][8] != storage.StatusPartial || records[2][9] != msg {
		t.Fatalf("unexpected csv %v", records)
	}

	info, err := os.Stat(opts.PNGPath)
	if err != nil || info.Size() == 0 {
		t.Fatalf("png not written: %v", err)
	}
}

func TestPrintSnapshotsAndAlerts(t *testing.T) {
	a, out := testApp(t, nil)
	if err := a.printSnapshots(nil, 0); err != nil {
		t.Fatal(err)
	}
	if !strings.Contains(out.String(), "no snapshots found") {
		t.Fatalf("unexpected output %q", out.String())
	}

	out.Reset()
	snap := storage.LiquiditySnapshot{
		Bucket:   time.Date(2025, 1, 1, 0, 5, 0, 0, time.UTC),
		TotalUSD: decimal.NewFromInt(1000),
		Status:   storage.StatusComplete,
	}
	if err := a.printSnapshots([]storage.LiquiditySnapshot{snap}, 42); err != nil {
		t.Fatal(err)
	}
	if !strings.Contains(out.String(), "showing 1 of 42 stored snapshots") || !strings.Contains(out.String(), "1000.00") {
		t.Fatalf("snapshot table missing count or row:\n%s", out.String())
	}

	out.Reset()
	rec := storage.AlertRecord{
		SnapshotTS:    time.Date(2025, 1, 1, 0, 0, 0, 0, time.UTC),
		PreviousTotal: decimal.NewFromInt(100),
		CurrentTotal:  decimal.NewFromInt(80),
		ChangePct:     decimal.NewFromInt(-20),
		ThresholdPct:  decimal.NewFromInt(10),
		Direction:     "down",
		Channels:      []string{"telegram"},
	}
	if err := a.printAlerts([]storage.AlertRecord{rec}); err != nil {
		t.Fatal(err)
	}
	if !strings.Contains(out.String(), "-20.00") || !strings.Contains(out.String(), "telegram") {
		t.Fatalf("alert row missing:\n%s", out.String())
	}
}

func TestShowRequiresDatabase(t *testing.T) {
	a, _ := testApp(t, nil)
	if err := a.Show(context.Background(), ShowOptions{Limit: 5}); err == nil {
		t.Fatal("show without database must fail")
	}
	if err := a.Export(context.Background(), ExportOptions{}); err == nil {
		t.Fatal("export without outputs must fail")
	}
}

func TestOpsRouter(t *testing.T) {
	a, _ := testApp(t, nil)
	srv := httptest.NewServer(newOpsRouter(a.newClient()))
	defer srv.Close()

	for path, want := range map[string]string{
		"/healthz": "ok",
		"/stats":   `"cache"`,
		"/metrics": "hedera_defi_",
	} {
		resp, err := http.Get(srv.URL + path)
		if err != nil {
			t.Fatal(err)
		}
		var body bytes.Buffer
		_, _ = body.ReadFrom(resp.Body)
		resp.Body.Close()
		if resp.StatusCode != http.StatusOK || !strings.Contains(body.String(), want) {
			t.Fatalf("%s: status %d body %q", path, resp.StatusCode, body.String())
		}
	}
}
