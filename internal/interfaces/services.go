// Package interfaces defines service contracts for Sieve
package interfaces

import (
	"context"
	"time"

	"github.com/danielsohn/sieve/internal/models"
)

// Collector runs market-data collection cycles. At most one cycle is in
// flight at a time; overlapping triggers are no-ops reported as skipped.
type Collector interface {
	// Run executes one collection cycle. When force is false the cycle is
	// skipped outside configured market hours.
	Run(ctx context.Context, force bool) models.RefreshOutcome

	// InProgress reports whether a cycle is currently fetching or publishing
	InProgress() bool
}

// SnapshotReader is the read surface of the published market snapshot
type SnapshotReader interface {
	// IsLoaded reports whether any snapshot has been published yet
	IsLoaded() bool

	// LastUpdated returns the as-of time of the current snapshot
	LastUpdated() (time.Time, bool)

	// Symbols returns symbols matching an optional name/code query and
	// market, capped at limit when limit is positive
	Symbols(query string, market models.Market, limit int) []models.Symbol

	// Quotes returns all quotes, optionally restricted to one market
	Quotes(market models.Market) []models.Quote

	// Quote returns the quote for one listing code
	Quote(code string) (models.Quote, bool)
}
