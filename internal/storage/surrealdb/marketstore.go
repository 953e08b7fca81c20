package surrealdb

import (
	"context"
	"fmt"
	"strings"

	"github.com/surrealdb/surrealdb.go"
	surrealmodels "github.com/surrealdb/surrealdb.go/pkg/models"

	"github.com/danielsohn/sieve/internal/common"
	"github.com/danielsohn/sieve/internal/interfaces"
	"github.com/danielsohn/sieve/internal/models"
)

const defaultBatchSize = 450

// MarketStore persists symbols, latest quotes, and archived quote
// snapshots. Batch writes are chunked to respect the upstream write-batch
// cap.
type MarketStore struct {
	db        *surrealdb.DB
	logger    *common.Logger
	batchSize int
}

func NewMarketStore(db *surrealdb.DB, logger *common.Logger, batchSize int) *MarketStore {
	if batchSize <= 0 {
		batchSize = defaultBatchSize
	}
	return &MarketStore{
		db:        db,
		logger:    logger,
		batchSize: batchSize,
	}
}

// snapshotDoc is a quote plus its archival record key (code + as-of minute)
type snapshotDoc struct {
	SnapshotID string `json:"snapshot_id"`
	models.Quote
}

// BatchUpsertSymbols writes or replaces symbol identity records keyed by code
func (s *MarketStore) BatchUpsertSymbols(ctx context.Context, symbols []models.Symbol) error {
	sql := "FOR $s IN $batch { UPSERT type::thing('symbols', $s.code) CONTENT $s; }"

	for i := 0; i < len(symbols); i += s.batchSize {
		end := min(i+s.batchSize, len(symbols))
		vars := map[string]any{"batch": symbols[i:end]}
		if _, err := surrealdb.Query[any](ctx, s.db, sql, vars); err != nil {
			return fmt.Errorf("failed to upsert symbol batch at %d: %w", i, err)
		}
	}
	return nil
}

// BatchUpsertQuotes writes or replaces the latest quote per code
func (s *MarketStore) BatchUpsertQuotes(ctx context.Context, quotes []models.Quote) error {
	sql := "FOR $q IN $batch { UPSERT type::thing('latest_quotes', $q.code) CONTENT $q; }"

	for i := 0; i < len(quotes); i += s.batchSize {
		end := min(i+s.batchSize, len(quotes))
		vars := map[string]any{"batch": quotes[i:end]}
		if _, err := surrealdb.Query[any](ctx, s.db, sql, vars); err != nil {
			return fmt.Errorf("failed to upsert quote batch at %d: %w", i, err)
		}
	}
	return nil
}

// BatchSaveQuoteSnapshots archives quotes keyed by code and as-of minute.
// Re-running a cycle within the same minute overwrites rather than
// duplicates.
func (s *MarketStore) BatchSaveQuoteSnapshots(ctx context.Context, quotes []models.Quote) error {
	sql := "FOR $q IN $batch { UPSERT type::thing('quote_snapshots', $q.snapshot_id) CONTENT $q; }"

	for i := 0; i < len(quotes); i += s.batchSize {
		end := min(i+s.batchSize, len(quotes))

		docs := make([]snapshotDoc, 0, end-i)
		for _, q := range quotes[i:end] {
			docs = append(docs, snapshotDoc{SnapshotID: q.SnapshotID(), Quote: q})
		}

		vars := map[string]any{"batch": docs}
		if _, err := surrealdb.Query[any](ctx, s.db, sql, vars); err != nil {
			return fmt.Errorf("failed to save quote snapshot batch at %d: %w", i, err)
		}
	}
	return nil
}

// GetSymbols returns symbols, optionally filtered by a case-insensitive
// name/code query and by market, capped at limit when limit is positive.
func (s *MarketStore) GetSymbols(ctx context.Context, query string, market models.Market, limit int) ([]models.Symbol, error) {
	sql := "SELECT * FROM symbols"
	var conds []string
	vars := map[string]any{}

	if market != "" {
		conds = append(conds, "market = $market")
		vars["market"] = string(market)
	}
	if query = strings.ToLower(strings.TrimSpace(query)); query != "" {
		conds = append(conds, "(string::contains(string::lowercase(name), $query) OR string::starts_with(code, $query))")
		vars["query"] = query
	}
	if len(conds) > 0 {
		sql += " WHERE " + strings.Join(conds, " AND ")
	}
	sql += " ORDER BY code"
	if limit > 0 {
		sql += " LIMIT $limit"
		vars["limit"] = limit
	}

	results, err := surrealdb.Query[[]models.Symbol](ctx, s.db, sql, vars)
	if err != nil {
		return nil, fmt.Errorf("failed to get symbols: %w", err)
	}
	if results != nil && len(*results) > 0 {
		return (*results)[0].Result, nil
	}
	return nil, nil
}

// GetAllLatestQuotes returns the latest stored quote for every code,
// optionally restricted to one market.
func (s *MarketStore) GetAllLatestQuotes(ctx context.Context, market models.Market) ([]models.Quote, error) {
	sql := "SELECT * FROM latest_quotes"
	vars := map[string]any{}

	if market != "" {
		sql += " WHERE market = $market"
		vars["market"] = string(market)
	}

	results, err := surrealdb.Query[[]models.Quote](ctx, s.db, sql, vars)
	if err != nil {
		return nil, fmt.Errorf("failed to get latest quotes: %w", err)
	}
	if results != nil && len(*results) > 0 {
		return (*results)[0].Result, nil
	}
	return nil, nil
}

// GetLatestQuote returns the latest stored quote for one code, or nil when
// the code is unknown.
func (s *MarketStore) GetLatestQuote(ctx context.Context, code string) (*models.Quote, error) {
	data, err := surrealdb.Select[models.Quote](ctx, s.db, surrealmodels.NewRecordID("latest_quotes", code))
	if err != nil {
		return nil, fmt.Errorf("failed to select latest quote: %w", err)
	}
	return data, nil
}

// Compile-time check
var _ interfaces.MarketStore = (*MarketStore)(nil)
