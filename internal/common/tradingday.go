// Package common provides shared utilities for Sieve
package common

import "time"

// LatestTradingDay returns the most recent day with a completed session.
// Before the market-open hour the current day has no data yet, so the
// candidate steps back one day; it then keeps stepping back while it falls
// on a weekend. Public holidays are not modeled; a holiday date surfaces
// as an empty upstream result instead.
func LatestTradingDay(now time.Time, openHour int) time.Time {
	day := now
	if day.Hour() < openHour {
		day = day.AddDate(0, 0, -1)
	}
	for day.Weekday() == time.Saturday || day.Weekday() == time.Sunday {
		day = day.AddDate(0, 0, -1)
	}
	return day
}

// WithinMarketHours reports whether now falls inside a weekday session in
// the configured market timezone.
func (c *CollectorConfig) WithinMarketHours(now time.Time) bool {
	local := now.In(c.Location())
	if local.Weekday() == time.Saturday || local.Weekday() == time.Sunday {
		return false
	}

	if local.Hour() < c.MarketOpenHour {
		return false
	}
	if local.Hour() > c.MarketCloseHour {
		return false
	}
	if local.Hour() == c.MarketCloseHour && local.Minute() > c.MarketCloseMin {
		return false
	}
	return true
}
