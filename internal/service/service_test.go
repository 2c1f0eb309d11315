package service

import (
	"context"
	"testing"
	"time"

	"github.com/rs/zerolog"
	"github.com/shopspring/decimal"

	"hedera-defi/internal/alerting"
	"hedera-defi/internal/config"
	"hedera-defi/internal/model"
	"hedera-defi/internal/storage"
)

type fakeSource struct {
	summaries []model.CrossProtocolSummary
	calls     int
}

func (f *fakeSource) GetCrossProtocolLiquiditySummary(context.Context) model.CrossProtocolSummary {
	s := f.summaries[f.calls]
	f.calls++
	return s
}

type memoryStore struct {
	snaps  []storage.LiquiditySnapshot
	alerts []storage.AlertRecord
	now    time.Time
	cutoff time.Time
}

func (m *memoryStore) UpsertSnapshot(_ context.Context, snap storage.LiquiditySnapshot) error {
	m.snaps = append(m.snaps, snap)
	return nil
}

func (m *memoryStore) PreviousSnapshot(_ context.Context, before time.Time) (*storage.LiquiditySnapshot, error) {
	var found *storage.LiquiditySnapshot
	for i := range m.snaps {
		s := m.snaps[i]
		if s.Bucket.Before(before) && s.Status == storage.StatusComplete {
			if found == nil || s.Bucket.After(found.Bucket) {
				found = &s
			}
		}
	}
	return found, nil
}

func (m *memoryStore) ListSnapshotsBetween(context.Context, time.Time, time.Time) ([]storage.LiquiditySnapshot, error) {
	return m.snaps, nil
}

func (m *memoryStore) ListRecentSnapshots(context.Context, int) ([]storage.LiquiditySnapshot, error) {
	return m.snaps, nil
}

func (m *memoryStore) CountSnapshots(context.Context) (int64, error) {
	return int64(len(m.snaps)), nil
}

func (m *memoryStore) InsertAlert(_ context.Context, rec storage.AlertRecord) (storage.AlertRecord, error) {
	rec.ID = int64(len(m.alerts) + 1)
	if rec.CreatedAt.IsZero() {
		rec.CreatedAt = m.now
	}
	m.alerts = append(m.alerts, rec)
	return rec, nil
}

func (m *memoryStore) ListRecentAlerts(context.Context, int) ([]storage.AlertRecord, error) {
	return m.alerts, nil
}

func (m *memoryStore) DeleteAlertsBefore(_ context.Context, olderThan time.Time) (int64, error) {
	m.cutoff = olderThan
	kept := m.alerts[:0]
	for _, rec := range m.alerts {
		if !rec.CreatedAt.Before(olderThan) {
			kept = append(kept, rec)
		}
	}
	removed := int64(len(m.alerts) - len(kept))
	m.alerts = kept
	return removed, nil
}

type recordingNotifier struct {
	notes []alerting.Notification
}

func (r *recordingNotifier) Notify(_ context.Context, note alerting.Notification) error {
	r.notes = append(r.notes, note)
	return nil
}

func summary(dex, lending int64, dexOK, lendingOK bool) model.CrossProtocolSummary {
	d := decimal.NewFromInt(dex)
	l := decimal.NewFromInt(lending)
	return model.CrossProtocolSummary{
		TotalLiquidityUSD: d.Add(l),
		Dex:               model.ProtocolBreakdown{Protocol: model.ProtocolDEX, TVLUSD: d, Available: dexOK},
		Lending:           model.ProtocolBreakdown{Protocol: model.ProtocolLending, TVLUSD: l, Available: lendingOK},
	}
}

func testConfig(threshold float64, cooldown time.Duration) *config.Config {
	cfg := &config.Config{}
	cfg.Alerting.Enabled = true
	cfg.Alerting.ThresholdPct = threshold
	cfg.Alerting.Cooldown = cooldown
	cfg.Alerting.Channels = []string{"log"}
	return cfg
}

func TestSnapshotFromSummaryStatus(t *testing.T) {
	bucket := time.Date(2025, 1, 1, 0, 0, 0, 0, time.UTC)
	cases := []struct {
		name      string
		in        model.CrossProtocolSummary
		want      string
		wantError bool
	}{
		{"complete", summary(1, 1, true, true), storage.StatusComplete, false},
		{"partial", summary(1, 0, true, false), storage.StatusPartial, true},
		{"unavailable", summary(0, 0, false, false), storage.StatusUnavailable, true},
	}
	for _, tc := range cases {
		t.Run(tc.name, func(t *testing.T) {
			snap := SnapshotFromSummary(bucket, tc.in)
			if snap.Status != tc.want {
				t.Fatalf("status = %s, want %s", snap.Status, tc.want)
			}
			if (snap.Error != nil) != tc.wantError {
				t.Fatalf("error presence mismatch: %v", snap.Error)
			}
		})
	}
}

func TestProcessBucketAlertsOnLargeShift(t *testing.T) {
	source := &fakeSource{summaries: []model.CrossProtocolSummary{
		summary(600, 400, true, true),
		summary(500, 350, true, true),
	}}
	store := &memoryStore{}
	notifier := &recordingNotifier{}
	svc := New(testConfig(10, 0), nil, source, store, store, notifier, zerolog.Nop())

	t0 := time.Date(2025, 1, 1, 0, 0, 0, 0, time.UTC)
	if err := svc.ProcessBucket(context.Background(), t0); err != nil {
		t.Fatal(err)
	}
	if err := svc.ProcessBucket(context.Background(), t0.Add(5*time.Minute)); err != nil {
		t.Fatal(err)
	}

	if len(store.snaps) != 2 {
		t.Fatalf("expected 2 snapshots, got %d", len(store.snaps))
	}
	if len(notifier.notes) != 1 || len(store.alerts) != 1 {
		t.Fatalf("应触发一次告警: notes=%d alerts=%d", len(notifier.notes), len(store.alerts))
	}
	note := notifier.notes[0]
	if !note.ChangePct.Equal(decimal.NewFromInt(-15)) || note.Direction != "down" {
		t.Fatalf("unexpected notification %#v", note)
	}
}

func TestAlertRetentionPrunesOldRecords(t *testing.T) {
	source := &fakeSource{summaries: []model.CrossProtocolSummary{
		summary(600, 400, true, true),
		summary(300, 200, true, true),
	}}
	now := time.Date(2025, 3, 1, 0, 0, 0, 0, time.UTC)
	store := &memoryStore{now: now}
	store.alerts = []storage.AlertRecord{
		{ID: 1, CreatedAt: now.Add(-40 * 24 * time.Hour)},
		{ID: 2, CreatedAt: now.Add(-24 * time.Hour)},
	}

	cfg := testConfig(10, 0)
	cfg.Alerting.Retention = 30 * 24 * time.Hour
	svc := New(cfg, nil, source, store, store, &recordingNotifier{}, zerolog.Nop())
	svc.now = func() time.Time { return now }

	for i := 0; i < 2; i++ {
		if err := svc.ProcessBucket(context.Background(), now.Add(time.Duration(i)*time.Minute)); err != nil {
			t.Fatal(err)
		}
	}

	if want := now.Add(-30 * 24 * time.Hour); !store.cutoff.Equal(want) {
		t.Fatalf("cutoff = %s, want %s", store.cutoff, want)
	}
	if len(store.alerts) != 2 || store.alerts[0].ID != 2 {
		t.Fatalf("过期告警应被清理: %#v", store.alerts)
	}
}

func TestAlertRetentionDisabled(t *testing.T) {
	source := &fakeSource{summaries: []model.CrossProtocolSummary{
		summary(600, 400, true, true),
		summary(300, 200, true, true),
	}}
	now := time.Date(2025, 3, 1, 0, 0, 0, 0, time.UTC)
	store := &memoryStore{now: now}
	store.alerts = []storage.AlertRecord{{ID: 1, CreatedAt: now.AddDate(-1, 0, 0)}}

	svc := New(testConfig(10, 0), nil, source, store, store, &recordingNotifier{}, zerolog.Nop())
	svc.now = func() time.Time { return now }
	for i := 0; i < 2; i++ {
		if err := svc.ProcessBucket(context.Background(), now.Add(time.Duration(i)*time.Minute)); err != nil {
			t.Fatal(err)
		}
	}
	if !store.cutoff.IsZero() || len(store.alerts) != 2 {
		t.Fatalf("zero retention keeps every alert: cutoff=%s alerts=%d", store.cutoff, len(store.alerts))
	}
}

func TestProcessBucketSkipsPartialAndSmallShifts(t *testing.T) {
	source := &fakeSource{summaries: []model.CrossProtocolSummary{
		summary(600, 400, true, true),
		summary(600, 0, true, false),
		summary(610, 400, true, true),
	}}
	notifier := &recordingNotifier{}
	svc := New(testConfig(10, 0), nil, source, nil, nil, notifier, zerolog.Nop())

	t0 := time.Date(2025, 1, 1, 0, 0, 0, 0, time.UTC)
	for i := 0; i < 3; i++ {
		if err := svc.ProcessBucket(context.Background(), t0.Add(time.Duration(i)*time.Minute)); err != nil {
			t.Fatal(err)
		}
	}
	if len(notifier.notes) != 0 {
		t.Fatalf("partial snapshot must not be compared, got %#v", notifier.notes)
	}
}

func TestCooldownSuppressesRepeatAlerts(t *testing.T) {
	source := &fakeSource{summaries: []model.CrossProtocolSummary{
		summary(1000, 0, true, true),
		summary(500, 0, true, true),
		summary(1000, 0, true, true),
	}}
	notifier := &recordingNotifier{}
	svc := New(testConfig(10, time.Hour), nil, source, nil, nil, notifier, zerolog.Nop())
	now := time.Date(2025, 1, 1, 0, 0, 0, 0, time.UTC)
	svc.now = func() time.Time { return now }

	for i := 0; i < 3; i++ {
		if err := svc.ProcessBucket(context.Background(), now.Add(time.Duration(i)*time.Minute)); err != nil {
			t.Fatal(err)
		}
	}
	if len(notifier.notes) != 1 {
		t.Fatalf("冷却期内只应告警一次, got %d", len(notifier.notes))
	}
}

func TestAlertsDisabled(t *testing.T) {
	source := &fakeSource{summaries: []model.CrossProtocolSummary{
		summary(1000, 0, true, true),
		summary(100, 0, true, true),
	}}
	cfg := testConfig(10, 0)
	cfg.Alerting.Enabled = false
	notifier := &recordingNotifier{}
	svc := New(cfg, nil, source, nil, nil, notifier, zerolog.Nop())

	t0 := time.Now().UTC()
	_ = svc.ProcessBucket(context.Background(), t0)
	_ = svc.ProcessBucket(context.Background(), t0.Add(time.Minute))
	if len(notifier.notes) != 0 {
		t.Fatal("alerts disabled")
	}
}

func TestRunRequiresScheduler(t *testing.T) {
	svc := New(testConfig(10, 0), nil, &fakeSource{}, nil, nil, nil, zerolog.Nop())
	if err := svc.Run(context.Background()); err == nil {
		t.Fatal("missing scheduler must fail")
	}
}
