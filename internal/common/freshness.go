// Package common provides shared utilities for Sieve
package common

import "time"

// Freshness TTLs for served data
const (
	FreshnessQuote = 20 * time.Minute // two refresh intervals; one missed cycle tolerated
)

// IsFresh returns true if the given timestamp is within the TTL
func IsFresh(updated time.Time, ttl time.Duration) bool {
	if updated.IsZero() {
		return false
	}
	return time.Since(updated) < ttl
}
