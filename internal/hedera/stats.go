package hedera

import "hedera-defi/internal/model"

// ShowCallStatistics reports per-method counts and network counters.
func (c *Client) ShowCallStatistics() model.CallStatistics {
	report := c.tracker.Report()
	exec := c.exec.Stats()
	return model.CallStatistics{
		CallCounts:       report.CallCounts,
		TotalCalls:       report.TotalCalls,
		UniqueMethods:    report.UniqueMethods,
		ExcessiveMethods: report.ExcessiveMethods,
		NetworkRequests:  exec.NetworkRequests,
		CacheHits:        exec.CacheHits,
		Failures:         exec.Failures,
	}
}

// ResetCallCounts zeroes method and network counters.
func (c *Client) ResetCallCounts() {
	c.tracker.Reset()
	c.exec.ResetStats()
}

// ClearCache drops every cached response.
func (c *Client) ClearCache() {
	c.cache.Clear()
	c.logger.Debug().Msg("response cache cleared")
}

// GetCacheStats describes the cache contents.
func (c *Client) GetCacheStats() model.CacheStats {
	stats := c.cache.Stats()
	return model.CacheStats{
		Size:       stats.Size,
		Keys:       stats.Keys,
		TTLSeconds: c.cache.TTL().Seconds(),
	}
}
