package storage

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"time"

	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgxpool"
	"github.com/shopspring/decimal"
)

var (
	// ErrNotConfigured indicates the storage pool was not initialised.
	ErrNotConfigured = errors.New("storage: pool not configured")
)

const snapshotColumns = `bucket_ts,
        total_usd,
        dex_tvl_usd,
        lending_tvl_usd,
        dex_share_pct,
        lending_share_pct,
        dex_available,
        lending_available,
        status,
        error,
        created_at`

const alertColumns = `id,
        snapshot_ts,
        previous_total_usd,
        current_total_usd,
        change_pct,
        threshold_pct,
        direction,
        channels,
        created_at`

const (
	upsertSnapshotSQL = `INSERT INTO liquidity_snapshots (
        bucket_ts,
        total_usd,
        dex_tvl_usd,
        lending_tvl_usd,
        dex_share_pct,
        lending_share_pct,
        dex_available,
        lending_available,
        status,
        error
    ) VALUES (
        $1,$2,$3,$4,$5,$6,$7,$8,$9,$10
    )
    ON CONFLICT (bucket_ts) DO UPDATE
    SET
        total_usd         = EXCLUDED.total_usd,
        dex_tvl_usd       = EXCLUDED.dex_tvl_usd,
        lending_tvl_usd   = EXCLUDED.lending_tvl_usd,
        dex_share_pct     = EXCLUDED.dex_share_pct,
        lending_share_pct = EXCLUDED.lending_share_pct,
        dex_available     = EXCLUDED.dex_available,
        lending_available = EXCLUDED.lending_available,
        status            = EXCLUDED.status,
        error             = EXCLUDED.error;`

	listSnapshotsBetweenSQL = `SELECT ` + snapshotColumns + `
    FROM liquidity_snapshots
    WHERE bucket_ts >= $1
      AND bucket_ts < $2
    ORDER BY bucket_ts;`

	listRecentSnapshotsSQL = `SELECT ` + snapshotColumns + `
    FROM liquidity_snapshots
    ORDER BY bucket_ts DESC
    LIMIT $1;`

	// change detection baseline: complete snapshots only
	previousSnapshotSQL = `SELECT ` + snapshotColumns + `
    FROM liquidity_snapshots
    WHERE bucket_ts < $1
      AND status = 'complete'
    ORDER BY bucket_ts DESC
    LIMIT 1;`

	countSnapshotsSQL = `SELECT COUNT(*) FROM liquidity_snapshots;`

	insertAlertSQL = `INSERT INTO liquidity_alerts (
        snapshot_ts,
        previous_total_usd,
        current_total_usd,
        change_pct,
        threshold_pct,
        direction,
        channels
    ) VALUES (
        $1,$2,$3,$4,$5,$6,$7
    )
    ON CONFLICT (snapshot_ts) DO UPDATE
    SET previous_total_usd = EXCLUDED.previous_total_usd,
        current_total_usd  = EXCLUDED.current_total_usd,
        change_pct         = EXCLUDED.change_pct,
        threshold_pct      = EXCLUDED.threshold_pct,
        direction          = EXCLUDED.direction,
        channels           = EXCLUDED.channels
    RETURNING ` + alertColumns + `;`

	listRecentAlertsSQL = `SELECT ` + alertColumns + `
    FROM liquidity_alerts
    ORDER BY created_at DESC
    LIMIT $1;`

	deleteAlertsBeforeSQL = `DELETE FROM liquidity_alerts WHERE created_at < $1;`

	tryAdvisoryLockSQL = `SELECT pg_try_advisory_lock($1);`
	advisoryUnlockSQL  = `SELECT pg_advisory_unlock($1);`
)

// SnapshotStore defines operations for liquidity snapshot persistence.
type SnapshotStore interface {
	UpsertSnapshot(ctx context.Context, snap LiquiditySnapshot) error
	PreviousSnapshot(ctx context.Context, before time.Time) (*LiquiditySnapshot, error)
	ListSnapshotsBetween(ctx context.Context, from, to time.Time) ([]LiquiditySnapshot, error)
	ListRecentSnapshots(ctx context.Context, limit int) ([]LiquiditySnapshot, error)
	CountSnapshots(ctx context.Context) (int64, error)
}

// AlertStore defines operations for alert auditing.
type AlertStore interface {
	InsertAlert(ctx context.Context, alert AlertRecord) (AlertRecord, error)
	ListRecentAlerts(ctx context.Context, limit int) ([]AlertRecord, error)
	DeleteAlertsBefore(ctx context.Context, olderThan time.Time) (int64, error)
}

// AdvisoryLocker exposes advisory lock helpers.
type AdvisoryLocker interface {
	TryAdvisoryLock(ctx context.Context, key int64) (unlock func(), acquired bool, err error)
}

// Store aggregates access to snapshots and alerts.
type Store struct {
	pool *pgxpool.Pool
}

var (
	_ SnapshotStore  = (*Store)(nil)
	_ AlertStore     = (*Store)(nil)
	_ AdvisoryLocker = (*Store)(nil)
)

// NewStore wires a pgx pool into a Store.
func NewStore(pool *pgxpool.Pool) *Store {
	return &Store{pool: pool}
}

// Close releases the underlying pool resources.
func (s *Store) Close() {
	if s == nil || s.pool == nil {
		return
	}
	s.pool.Close()
}

// TryAdvisoryLock attempts to acquire a postgres advisory lock and returns a release func.
func (s *Store) TryAdvisoryLock(ctx context.Context, key int64) (func(), bool, error) {
	pool, err := s.getPool()
	if err != nil {
		return nil, false, err
	}

	conn, err := pool.Acquire(ctx)
	if err != nil {
		return nil, false, fmt.Errorf("acquire connection: %w", err)
	}

	var acquired bool
	if err := conn.QueryRow(ctx, tryAdvisoryLockSQL, key).Scan(&acquired); err != nil {
		conn.Release()
		return nil, false, fmt.Errorf("try advisory lock: %w", err)
	}
	if !acquired {
		conn.Release()
		return nil, false, nil
	}

	unlock := func() {
		ctxUnlock, cancel := context.WithTimeout(context.Background(), 2*time.Second)
		defer cancel()
		// a failed unlock is released with the session anyway
		_, _ = conn.Exec(ctxUnlock, advisoryUnlockSQL, key)
		conn.Release()
	}
	return unlock, true, nil
}

func (s *Store) getPool() (*pgxpool.Pool, error) {
	if s == nil || s.pool == nil {
		return nil, ErrNotConfigured
	}
	return s.pool, nil
}

// UpsertSnapshot persists or replaces the snapshot for a bucket.
func (s *Store) UpsertSnapshot(ctx context.Context, snap LiquiditySnapshot) error {
	pool, err := s.getPool()
	if err != nil {
		return err
	}

	var errMsg interface{}
	if snap.Error != nil {
		errMsg = *snap.Error
	}

	_, execErr := pool.Exec(ctx, upsertSnapshotSQL,
		snap.Bucket,
		snap.TotalUSD.String(),
		snap.DexTVLUSD.String(),
		snap.LendingTVLUSD.String(),
		snap.DexSharePct.String(),
		snap.LendingSharePct.String(),
		snap.DexAvailable,
		snap.LendingAvailable,
		snap.Status,
		errMsg,
	)
	if execErr != nil {
		return fmt.Errorf("upsert liquidity snapshot: %w", execErr)
	}
	return nil
}

// PreviousSnapshot returns the latest complete snapshot strictly before the
// given bucket, or nil when there is none.
func (s *Store) PreviousSnapshot(ctx context.Context, before time.Time) (*LiquiditySnapshot, error) {
	pool, err := s.getPool()
	if err != nil {
		return nil, err
	}

	rows, queryErr := pool.Query(ctx, previousSnapshotSQL, before)
	if queryErr != nil {
		return nil, fmt.Errorf("previous snapshot: %w", queryErr)
	}
	snaps, err := collectSnapshots(rows, 1)
	if err != nil {
		return nil, err
	}
	if len(snaps) == 0 {
		return nil, nil
	}
	return &snaps[0], nil
}

// ListSnapshotsBetween lists snapshots within [from, to).
func (s *Store) ListSnapshotsBetween(ctx context.Context, from, to time.Time) ([]LiquiditySnapshot, error) {
	pool, err := s.getPool()
	if err != nil {
		return nil, err
	}

	rows, queryErr := pool.Query(ctx, listSnapshotsBetweenSQL, from, to)
	if queryErr != nil {
		return nil, fmt.Errorf("list snapshots between: %w", queryErr)
	}
	return collectSnapshots(rows, 0)
}

// ListRecentSnapshots lists the most recent snapshots ordered by descending bucket.
func (s *Store) ListRecentSnapshots(ctx context.Context, limit int) ([]LiquiditySnapshot, error) {
	pool, err := s.getPool()
	if err != nil {
		return nil, err
	}

	rows, queryErr := pool.Query(ctx, listRecentSnapshotsSQL, limit)
	if queryErr != nil {
		return nil, fmt.Errorf("list recent snapshots: %w", queryErr)
	}
	return collectSnapshots(rows, limit)
}

// CountSnapshots counts stored snapshots.
func (s *Store) CountSnapshots(ctx context.Context) (int64, error) {
	pool, err := s.getPool()
	if err != nil {
		return 0, err
	}
	var count int64
	if scanErr := pool.QueryRow(ctx, countSnapshotsSQL).Scan(&count); scanErr != nil {
		return 0, fmt.Errorf("count snapshots: %w", scanErr)
	}
	return count, nil
}

// InsertAlert persists an alert emission.
func (s *Store) InsertAlert(ctx context.Context, alert AlertRecord) (AlertRecord, error) {
	pool, err := s.getPool()
	if err != nil {
		return AlertRecord{}, err
	}

	row := pool.QueryRow(ctx, insertAlertSQL,
		alert.SnapshotTS,
		alert.PreviousTotal.String(),
		alert.CurrentTotal.String(),
		alert.ChangePct.String(),
		alert.ThresholdPct.String(),
		alert.Direction,
		alert.Channels,
	)

	rec, scanErr := scanAlert(row)
	if scanErr != nil {
		return AlertRecord{}, fmt.Errorf("insert alert: %w", scanErr)
	}
	return rec, nil
}

// ListRecentAlerts lists most recent alerts.
func (s *Store) ListRecentAlerts(ctx context.Context, limit int) ([]AlertRecord, error) {
	pool, err := s.getPool()
	if err != nil {
		return nil, err
	}

	rows, queryErr := pool.Query(ctx, listRecentAlertsSQL, limit)
	if queryErr != nil {
		return nil, fmt.Errorf("list recent alerts: %w", queryErr)
	}
	defer rows.Close()

	alerts := make([]AlertRecord, 0, limit)
	for rows.Next() {
		rec, err := scanAlert(rows)
		if err != nil {
			return nil, err
		}
		alerts = append(alerts, rec)
	}
	if rows.Err() != nil {
		return nil, rows.Err()
	}
	return alerts, nil
}

// DeleteAlertsBefore prunes alerts created before olderThan and reports how
// many rows were removed.
func (s *Store) DeleteAlertsBefore(ctx context.Context, olderThan time.Time) (int64, error) {
	pool, err := s.getPool()
	if err != nil {
		return 0, err
	}
	tag, execErr := pool.Exec(ctx, deleteAlertsBeforeSQL, olderThan)
	if execErr != nil {
		return 0, fmt.Errorf("delete alerts before: %w", execErr)
	}
	return tag.RowsAffected(), nil
}

func collectSnapshots(rows pgx.Rows, capacity int) ([]LiquiditySnapshot, error) {
	defer rows.Close()

	snaps := make([]LiquiditySnapshot, 0, capacity)
	for rows.Next() {
		snap, err := scanSnapshot(rows)
		if err != nil {
			return nil, err
		}
		snaps = append(snaps, snap)
	}
	if rows.Err() != nil {
		return nil, rows.Err()
	}
	return snaps, nil
}

func scanSnapshot(row pgx.Row) (LiquiditySnapshot, error) {
	var (
		snap                         LiquiditySnapshot
		totalStr, dexStr, lendingStr string
		dexShareStr, lendingShareStr string
		errMsg                       sql.NullString
	)

	if err := row.Scan(
		&snap.Bucket,
		&totalStr,
		&dexStr,
		&lendingStr,
		&dexShareStr,
		&lendingShareStr,
		&snap.DexAvailable,
		&snap.LendingAvailable,
		&snap.Status,
		&errMsg,
		&snap.CreatedAt,
	); err != nil {
		return LiquiditySnapshot{}, err
	}

	fields := []struct {
		name string
		raw  string
		dst  *decimal.Decimal
	}{
		{"total_usd", totalStr, &snap.TotalUSD},
		{"dex_tvl_usd", dexStr, &snap.DexTVLUSD},
		{"lending_tvl_usd", lendingStr, &snap.LendingTVLUSD},
		{"dex_share_pct", dexShareStr, &snap.DexSharePct},
		{"lending_share_pct", lendingShareStr, &snap.LendingSharePct},
	}
	for _, f := range fields {
		value, err := decimal.NewFromString(f.raw)
		if err != nil {
			return LiquiditySnapshot{}, fmt.Errorf("parse %s: %w", f.name, err)
		}
		*f.dst = value
	}

	if errMsg.Valid {
		msg := errMsg.String
		snap.Error = &msg
	}
	return snap, nil
}

func scanAlert(row pgx.Row) (AlertRecord, error) {
	var (
		rec                     AlertRecord
		previousStr, currentStr string
		changeStr, thresholdStr string
	)
	if err := row.Scan(
		&rec.ID,
		&rec.SnapshotTS,
		&previousStr,
		&currentStr,
		&changeStr,
		&thresholdStr,
		&rec.Direction,
		&rec.Channels,
		&rec.CreatedAt,
	); err != nil {
		return AlertRecord{}, err
	}

	var err error
	if rec.PreviousTotal, err = decimal.NewFromString(previousStr); err != nil {
		return AlertRecord{}, fmt.Errorf("parse previous total: %w", err)
	}
	if rec.CurrentTotal, err = decimal.NewFromString(currentStr); err != nil {
		return AlertRecord{}, fmt.Errorf("parse current total: %w", err)
	}
	if rec.ChangePct, err = decimal.NewFromString(changeStr); err != nil {
		return AlertRecord{}, fmt.Errorf("parse change pct: %w", err)
	}
	if rec.ThresholdPct, err = decimal.NewFromString(thresholdStr); err != nil {
		return AlertRecord{}, fmt.Errorf("parse threshold pct: %w", err)
	}
	return rec, nil
}
