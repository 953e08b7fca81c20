// Package interfaces defines service contracts for Sieve
package interfaces

import (
	"context"
	"time"

	"github.com/danielsohn/sieve/internal/models"
)

// MarketSource is the common capability of every upstream protocol adapter:
// given a market, produce raw field records for the latest trading day.
//
// Implementations report failure through the shared taxonomy:
// *models.TransientError for network and HTTP-level faults,
// *models.ProtocolError for payloads violating the upstream contract, and
// models.ErrEmptyResult when the call succeeded but yielded zero rows.
type MarketSource interface {
	// Name identifies the source in logs and diagnostics
	Name() string

	// Fetch retrieves all raw records for one market
	Fetch(ctx context.Context, market models.Market) ([]models.RawRecord, error)
}

// MarketDataAPI is the blocking data-provider library behind the fallback
// source. Calls may block on internal I/O and take no context; callers must
// offload them rather than invoke them on a serving goroutine.
type MarketDataAPI interface {
	// DailyQuotes returns raw per-symbol rows for the given trading date.
	// Rows carry prices and volumes but no symbol names.
	DailyQuotes(date time.Time, market models.Market) ([]models.RawRecord, error)

	// SymbolNames returns the code-to-name directory for a market
	SymbolNames(market models.Market) (map[string]string, error)
}
