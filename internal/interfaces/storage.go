// Package interfaces defines service contracts for Sieve
package interfaces

import (
	"context"

	"github.com/danielsohn/sieve/internal/models"
)

// StorageManager coordinates the durable storage backend
type StorageManager interface {
	// MarketStore returns the market-data store
	MarketStore() MarketStore

	// Lifecycle
	Close() error
}

// MarketStore persists symbols, latest quotes, and historical quote
// snapshots. Batch writes are chunked by the implementation to respect
// upstream write-batch limits.
type MarketStore interface {
	// BatchUpsertSymbols writes or replaces symbol identity records
	BatchUpsertSymbols(ctx context.Context, symbols []models.Symbol) error

	// BatchUpsertQuotes writes or replaces the latest quote per code
	BatchUpsertQuotes(ctx context.Context, quotes []models.Quote) error

	// BatchSaveQuoteSnapshots archives quotes keyed by code and as-of minute
	BatchSaveQuoteSnapshots(ctx context.Context, quotes []models.Quote) error

	// GetSymbols returns active symbols, optionally filtered by a
	// case-insensitive name/code query and by market
	GetSymbols(ctx context.Context, query string, market models.Market, limit int) ([]models.Symbol, error)

	// GetAllLatestQuotes returns the latest stored quote for every code,
	// optionally restricted to one market
	GetAllLatestQuotes(ctx context.Context, market models.Market) ([]models.Quote, error)

	// GetLatestQuote returns the latest stored quote for one code, or nil
	// when the code is unknown
	GetLatestQuote(ctx context.Context, code string) (*models.Quote, error)
}
