package model

import (
	"time"

	"github.com/shopspring/decimal"
)

// Protocol labels used in summaries and snapshots.
const (
	ProtocolDEX     = "saucerswap"
	ProtocolLending = "bonzo"
)

// ProtocolBreakdown is one protocol's contribution to a summary. Available
// is false when the upstream call failed and TVL is a default.
type ProtocolBreakdown struct {
	Protocol  string          `json:"protocol"`
	TVLUSD    decimal.Decimal `json:"tvl_usd"`
	Available bool            `json:"available"`
}

// Distribution is the share of total liquidity per protocol.
type Distribution struct {
	DexSharePercent     decimal.Decimal `json:"dex_share_percent"`
	LendingSharePercent decimal.Decimal `json:"lending_share_percent"`
}

// Timing is observability only.
type Timing struct {
	TotalMs   int64 `json:"total_ms"`
	DexMs     int64 `json:"dex_ms"`
	LendingMs int64 `json:"lending_ms"`
}

// CrossProtocolSummary is derived from DEX stats and the lending market.
type CrossProtocolSummary struct {
	TotalLiquidityUSD decimal.Decimal   `json:"total_liquidity_usd"`
	Dex               ProtocolBreakdown `json:"dex"`
	Lending           ProtocolBreakdown `json:"lending"`
	Distribution      Distribution      `json:"distribution"`
	Performance       Timing            `json:"performance"`
	GeneratedAt       time.Time         `json:"generated_at"`
}

// Complete reports whether every constituent source answered.
func (s CrossProtocolSummary) Complete() bool {
	return s.Dex.Available && s.Lending.Available
}

// CacheStats describes the response cache.
type CacheStats struct {
	Size       int      `json:"cache_size"`
	Keys       []string `json:"cached_keys"`
	TTLSeconds float64  `json:"ttl_seconds"`
}

// CallStatistics is the call tracker report plus network-layer counters.
type CallStatistics struct {
	CallCounts       map[string]int `json:"call_counts"`
	TotalCalls       int            `json:"total_calls"`
	UniqueMethods    int            `json:"unique_methods"`
	ExcessiveMethods []string       `json:"excessive_methods"`
	NetworkRequests  int64          `json:"network_requests"`
	CacheHits        int64          `json:"cache_hits"`
	Failures         int64          `json:"failures"`
}
