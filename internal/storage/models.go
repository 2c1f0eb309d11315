package storage

import (
	"time"

	"github.com/shopspring/decimal"
)

// Snapshot statuses.
const (
	StatusComplete    = "complete"
	StatusPartial     = "partial"
	StatusUnavailable = "unavailable"
)

// LiquiditySnapshot is one persisted cross-protocol liquidity observation.
type LiquiditySnapshot struct {
	Bucket           time.Time
	TotalUSD         decimal.Decimal
	DexTVLUSD        decimal.Decimal
	LendingTVLUSD    decimal.Decimal
	DexSharePct      decimal.Decimal
	LendingSharePct  decimal.Decimal
	DexAvailable     bool
	LendingAvailable bool
	Status           string
	Error            *string
	CreatedAt        time.Time
}

// AlertRecord captures an emitted liquidity-shift alert for auditing.
type AlertRecord struct {
	ID            int64
	SnapshotTS    time.Time
	PreviousTotal decimal.Decimal
	CurrentTotal  decimal.Decimal
	ChangePct     decimal.Decimal
	ThresholdPct  decimal.Decimal
	Direction     string
	Channels      []string
	CreatedAt     time.Time
}
