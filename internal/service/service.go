package service

import (
	"context"
	"fmt"
	"sync"
	"time"

	"github.com/rs/zerolog"
	"github.com/shopspring/decimal"

	"hedera-defi/internal/alerting"
	"hedera-defi/internal/config"
	"hedera-defi/internal/metrics"
	"hedera-defi/internal/model"
	"hedera-defi/internal/scheduler"
	"hedera-defi/internal/storage"
	"hedera-defi/internal/units"
)

// SummarySource produces cross-protocol liquidity summaries.
type SummarySource interface {
	GetCrossProtocolLiquiditySummary(ctx context.Context) model.CrossProtocolSummary
}

// Service orchestrates snapshotting, persistence, and alerting.
type Service struct {
	scheduler  *scheduler.Scheduler
	source     SummarySource
	store      storage.SnapshotStore
	alertStore storage.AlertStore
	notifier   alerting.Notifier
	logger     zerolog.Logger

	threshold decimal.Decimal
	cooldown  time.Duration
	retention time.Duration
	channels  []string
	alertsOn  bool
	locker    storage.AdvisoryLocker
	lockKey   int64
	now       func() time.Time

	mu        sync.Mutex
	last      *storage.LiquiditySnapshot
	lastAlert time.Time
}

// New constructs the monitoring service. store and alertStore may be nil, in
// which case the previous snapshot is kept in memory only.
func New(cfg *config.Config, sched *scheduler.Scheduler, source SummarySource, store storage.SnapshotStore, alertStore storage.AlertStore, notifier alerting.Notifier, logger zerolog.Logger) *Service {
	threshold := decimal.Zero
	if cfg.Alerting.Enabled && cfg.Alerting.ThresholdPct > 0 {
		threshold = decimal.NewFromFloat(cfg.Alerting.ThresholdPct)
	}

	var locker storage.AdvisoryLocker
	if l, ok := store.(storage.AdvisoryLocker); ok {
		locker = l
	}

	return &Service{
		scheduler:  sched,
		source:     source,
		store:      store,
		alertStore: alertStore,
		notifier:   notifier,
		logger:     logger.With().Str("component", "service").Logger(),
		threshold:  threshold,
		cooldown:   cfg.Alerting.Cooldown,
		retention:  cfg.Alerting.Retention,
		channels:   cfg.Alerting.Channels,
		alertsOn:   cfg.Alerting.Enabled,
		locker:     locker,
		lockKey:    cfg.Scheduler.AdvisoryLockKey,
		now:        time.Now,
	}
}

// Run begins the aligned snapshot loop.
func (s *Service) Run(ctx context.Context) error {
	if s.scheduler == nil {
		return fmt.Errorf("scheduler not configured")
	}
	return s.scheduler.Run(ctx, s.ProcessBucket)
}

// RunOnce takes a single snapshot for the current bucket.
func (s *Service) RunOnce(ctx context.Context) error {
	if s.scheduler == nil {
		return fmt.Errorf("scheduler not configured")
	}
	return s.scheduler.RunOnce(ctx, s.ProcessBucket)
}

// ProcessBucket 执行单个时间桶的流动性快照逻辑。
func (s *Service) ProcessBucket(ctx context.Context, bucket time.Time) error {
	unlock, proceed, err := s.acquireLock(ctx)
	if err != nil {
		return err
	}
	if !proceed {
		s.logger.Debug().Time("bucket", bucket).Msg("skip bucket because advisory lock held elsewhere")
		return nil
	}
	if unlock != nil {
		defer unlock()
	}

	return s.executeBucket(ctx, bucket)
}

func (s *Service) executeBucket(ctx context.Context, bucket time.Time) error {
	if s.source == nil {
		return fmt.Errorf("summary source not configured")
	}

	summary := s.source.GetCrossProtocolLiquiditySummary(ctx)
	snap := SnapshotFromSummary(bucket, summary)
	snap.CreatedAt = s.now().UTC()

	if s.store != nil {
		if err := s.store.UpsertSnapshot(ctx, snap); err != nil {
			s.logger.Error().Err(err).Time("bucket", bucket).Msg("failed to upsert snapshot")
		}
	}

	recordSnapshot(snap)
	s.logger.Info().Time("bucket", bucket).
		Str("status", snap.Status).
		Str("total_usd", snap.TotalUSD.StringFixed(2)).
		Str("dex_share_pct", snap.DexSharePct.StringFixed(2)).
		Msg("snapshot recorded")

	if snap.Status != storage.StatusComplete {
		return nil
	}

	prev := s.previous(ctx, bucket)
	s.remember(snap)
	if prev == nil {
		return nil
	}

	change := units.PercentageChange(prev.TotalUSD, snap.TotalUSD)
	s.logger.Debug().Time("bucket", bucket).
		Time("previous_bucket", prev.Bucket).
		Str("change_pct", change.StringFixed(4)).
		Msg("liquidity compared")

	if !s.shouldAlert(change) {
		return nil
	}

	direction := classifyChange(change)
	note := alerting.Notification{
		Bucket:        bucket,
		PreviousTotal: prev.TotalUSD,
		CurrentTotal:  snap.TotalUSD,
		ChangePct:     change,
		ThresholdPct:  s.threshold,
		Direction:     direction,
		DexTVL:        snap.DexTVLUSD,
		LendingTVL:    snap.LendingTVLUSD,
		Channels:      s.channels,
	}
	if s.alertStore != nil {
		record := storage.AlertRecord{
			SnapshotTS:    bucket,
			PreviousTotal: prev.TotalUSD,
			CurrentTotal:  snap.TotalUSD,
			ChangePct:     change,
			ThresholdPct:  s.threshold,
			Direction:     direction,
			Channels:      s.channels,
		}
		if _, err := s.alertStore.InsertAlert(ctx, record); err != nil {
			s.logger.Error().Err(err).Time("bucket", bucket).Msg("failed to persist alert record")
		} else {
			s.pruneAlerts(ctx)
		}
	}
	if err := s.notifier.Notify(ctx, note); err != nil {
		metrics.AlertsFailedTotal.Inc()
		s.logger.Error().Err(err).Time("bucket", bucket).Msg("failed to dispatch alert")
		return nil
	}
	metrics.AlertsSentTotal.Inc()

	s.mu.Lock()
	s.lastAlert = s.now()
	s.mu.Unlock()
	return nil
}

// SnapshotFromSummary maps a summary onto a storable snapshot.
func SnapshotFromSummary(bucket time.Time, summary model.CrossProtocolSummary) storage.LiquiditySnapshot {
	snap := storage.LiquiditySnapshot{
		Bucket:           bucket,
		TotalUSD:         summary.TotalLiquidityUSD,
		DexTVLUSD:        summary.Dex.TVLUSD,
		LendingTVLUSD:    summary.Lending.TVLUSD,
		DexSharePct:      summary.Distribution.DexSharePercent,
		LendingSharePct:  summary.Distribution.LendingSharePercent,
		DexAvailable:     summary.Dex.Available,
		LendingAvailable: summary.Lending.Available,
	}

	switch {
	case summary.Complete():
		snap.Status = storage.StatusComplete
	case summary.Dex.Available || summary.Lending.Available:
		snap.Status = storage.StatusPartial
	default:
		snap.Status = storage.StatusUnavailable
	}

	if snap.Status != storage.StatusComplete {
		var missing []string
		if !summary.Dex.Available {
			missing = append(missing, summary.Dex.Protocol)
		}
		if !summary.Lending.Available {
			missing = append(missing, summary.Lending.Protocol)
		}
		msg := fmt.Sprintf("unavailable sources: %v", missing)
		snap.Error = &msg
	}
	return snap
}

func recordSnapshot(snap storage.LiquiditySnapshot) {
	metrics.SnapshotsTotal.WithLabelValues(snap.Status).Inc()
	if snap.Status != storage.StatusComplete {
		return
	}
	metrics.LiquidityUSD.WithLabelValues("total").Set(snap.TotalUSD.InexactFloat64())
	metrics.LiquidityUSD.WithLabelValues(model.ProtocolDEX).Set(snap.DexTVLUSD.InexactFloat64())
	metrics.LiquidityUSD.WithLabelValues(model.ProtocolLending).Set(snap.LendingTVLUSD.InexactFloat64())
	metrics.LastSnapshot.Set(float64(snap.Bucket.Unix()))
}

func (s *Service) previous(ctx context.Context, bucket time.Time) *storage.LiquiditySnapshot {
	if s.store != nil {
		prev, err := s.store.PreviousSnapshot(ctx, bucket)
		if err == nil {
			return prev
		}
		s.logger.Error().Err(err).Time("bucket", bucket).Msg("failed to load previous snapshot, using in-memory copy")
	}

	s.mu.Lock()
	defer s.mu.Unlock()
	if s.last == nil || !s.last.Bucket.Before(bucket) {
		return nil
	}
	prev := *s.last
	return &prev
}

func (s *Service) remember(snap storage.LiquiditySnapshot) {
	s.mu.Lock()
	s.last = &snap
	s.mu.Unlock()
}

func (s *Service) shouldAlert(change decimal.Decimal) bool {
	if !s.alertsOn || s.notifier == nil || s.threshold.IsZero() {
		return false
	}
	if !change.Abs().GreaterThan(s.threshold) {
		return false
	}

	s.mu.Lock()
	defer s.mu.Unlock()
	if s.cooldown > 0 && !s.lastAlert.IsZero() && s.now().Sub(s.lastAlert) < s.cooldown {
		s.logger.Info().Str("change_pct", change.StringFixed(2)).Msg("alert suppressed by cooldown")
		return false
	}
	return true
}

// pruneAlerts drops alert records older than the retention window.
func (s *Service) pruneAlerts(ctx context.Context) {
	if s.retention <= 0 {
		return
	}
	cutoff := s.now().UTC().Add(-s.retention)
	removed, err := s.alertStore.DeleteAlertsBefore(ctx, cutoff)
	if err != nil {
		s.logger.Error().Err(err).Time("cutoff", cutoff).Msg("failed to prune alert records")
		return
	}
	if removed > 0 {
		s.logger.Info().Int64("removed", removed).Time("cutoff", cutoff).Msg("pruned old alert records")
	}
}

func classifyChange(d decimal.Decimal) string {
	switch d.Sign() {
	case 1:
		return "up"
	case -1:
		return "down"
	default:
		return "flat"
	}
}

func (s *Service) acquireLock(ctx context.Context) (func(), bool, error) {
	if s.lockKey == 0 || s.locker == nil {
		return nil, true, nil
	}
	unlock, acquired, err := s.locker.TryAdvisoryLock(ctx, s.lockKey)
	if err != nil {
		return nil, false, fmt.Errorf("acquire advisory lock: %w", err)
	}
	if !acquired {
		return nil, false, nil
	}
	return unlock, true, nil
}
