package calltrack

import (
	"sort"
	"sync"

	"github.com/rs/zerolog"
)

const (
	// SoftThreshold triggers an advisory warning once exceeded.
	SoftThreshold = 5
	// HardThreshold marks a method as excessive in reports.
	HardThreshold = 10
)

// Report is a snapshot of per-method call counts.
type Report struct {
	CallCounts       map[string]int `json:"call_counts"`
	TotalCalls       int            `json:"total_calls"`
	UniqueMethods    int            `json:"unique_methods"`
	ExcessiveMethods []string       `json:"excessive_methods"`
}

// Tracker counts public method invocations for operational visibility.
type Tracker struct {
	mu     sync.Mutex
	counts map[string]int
	logger zerolog.Logger
}

// New constructs a Tracker.
func New(logger zerolog.Logger) *Tracker {
	return &Tracker{
		counts: make(map[string]int),
		logger: logger.With().Str("component", "call_tracker").Logger(),
	}
}

// Track increments the counter for method and returns the new count.
func (t *Tracker) Track(method string) int {
	t.mu.Lock()
	t.counts[method]++
	count := t.counts[method]
	t.mu.Unlock()

	if count > SoftThreshold {
		t.logger.Warn().Str("method", method).Int("count", count).
			Msg("method called repeatedly; consider reusing results")
	}
	return count
}

// Count returns the current count for method.
func (t *Tracker) Count(method string) int {
	t.mu.Lock()
	defer t.mu.Unlock()
	return t.counts[method]
}

// Reset zeroes all counters.
func (t *Tracker) Reset() {
	t.mu.Lock()
	t.counts = make(map[string]int)
	t.mu.Unlock()
}

// Report returns a copy of the counters.
func (t *Tracker) Report() Report {
	t.mu.Lock()
	defer t.mu.Unlock()

	report := Report{
		CallCounts:       make(map[string]int, len(t.counts)),
		UniqueMethods:    len(t.counts),
		ExcessiveMethods: make([]string, 0),
	}
	for method, count := range t.counts {
		report.CallCounts[method] = count
		report.TotalCalls += count
		if count > HardThreshold {
			report.ExcessiveMethods = append(report.ExcessiveMethods, method)
		}
	}
	sort.Strings(report.ExcessiveMethods)
	return report
}
