// Package collector orchestrates market-data collection: adapter fallback,
// normalization, snapshot publish, and best-effort durable storage.
package collector

import (
	"context"
	"errors"
	"sync/atomic"
	"time"

	"github.com/danielsohn/sieve/internal/common"
	"github.com/danielsohn/sieve/internal/interfaces"
	"github.com/danielsohn/sieve/internal/models"
	"github.com/danielsohn/sieve/internal/storage/snapshot"
)

const defaultBatchSize = 450

// Service runs collection cycles. Sources are tried in construction order
// per market; the first non-empty result wins. At most one cycle is in
// flight; overlapping triggers are skipped, not queued.
type Service struct {
	sources  []interfaces.MarketSource
	snapshot *snapshot.Store
	store    interfaces.MarketStore // nil when running memory-only
	config   *common.CollectorConfig
	logger   *common.Logger

	inFlight atomic.Bool
	now      func() time.Time
}

// NewService creates a collector service. store may be nil, in which case
// cycles publish to the snapshot only.
func NewService(sources []interfaces.MarketSource, snap *snapshot.Store, store interfaces.MarketStore, config *common.CollectorConfig, logger *common.Logger) *Service {
	return &Service{
		sources:  sources,
		snapshot: snap,
		store:    store,
		config:   config,
		logger:   logger.Component("collector"),
		now:      time.Now,
	}
}

// InProgress reports whether a cycle is currently fetching or publishing
func (s *Service) InProgress() bool {
	return s.inFlight.Load()
}

// Run executes one collection cycle. When force is false the cycle only
// runs during configured market hours. A failed cycle leaves the previous
// snapshot untouched, so readers keep seeing stale-but-valid data.
func (s *Service) Run(ctx context.Context, force bool) models.RefreshOutcome {
	if !s.inFlight.CompareAndSwap(false, true) {
		s.logger.Debug().Msg("Refresh already in progress, skipping")
		return models.RefreshOutcome{Status: models.RefreshSkipped, Reason: models.ReasonInProgress}
	}
	defer s.inFlight.Store(false)

	start := s.now()

	if !force && !s.config.WithinMarketHours(start) {
		s.logger.Debug().Time("now", start).Msg("Outside market hours, skipping collection")
		return models.RefreshOutcome{Status: models.RefreshSkipped, Reason: models.ReasonMarketClosed}
	}

	asOf := start
	var allSymbols []models.Symbol
	var allQuotes []models.Quote
	var failures []models.SourceFailure

	// Markets run sequentially; each market's own fetch already
	// parallelizes pages.
	for _, market := range models.Markets() {
		records, marketFailures := s.fetchMarket(ctx, market)
		failures = append(failures, marketFailures...)

		symbols, quotes := Normalize(records, market, asOf)
		s.logger.Info().
			Str("market", string(market)).
			Int("raw", len(records)).
			Int("normalized", len(symbols)).
			Msg("Market collected")

		allSymbols = append(allSymbols, symbols...)
		allQuotes = append(allQuotes, quotes...)
	}

	if len(allSymbols) == 0 {
		s.logger.Error().
			Int("source_failures", len(failures)).
			Dur("elapsed", s.now().Sub(start)).
			Msg("Collection produced no symbols, snapshot left untouched")
		return models.RefreshOutcome{
			Status:    models.RefreshError,
			Reason:    models.ReasonNoData,
			ElapsedMS: s.now().Sub(start).Milliseconds(),
		}
	}

	s.snapshot.Publish(allSymbols, allQuotes, asOf)

	// Durability is best-effort archival; the snapshot publish above is
	// the cycle's success criterion.
	s.persist(ctx, allSymbols, allQuotes)

	elapsed := s.now().Sub(start)
	s.logger.Info().
		Int("symbols", len(allSymbols)).
		Time("as_of", asOf).
		Dur("elapsed", elapsed).
		Msg("Collection cycle complete")

	return models.RefreshOutcome{
		Status:      models.RefreshSuccess,
		SymbolCount: len(allSymbols),
		AsOf:        asOf,
		ElapsedMS:   elapsed.Milliseconds(),
	}
}

// fetchMarket tries each source in priority order and returns the first
// non-empty result. Source failures are recorded, never raised; exhaustion
// yields an empty slice and the caller decides what that means for the
// cycle.
func (s *Service) fetchMarket(ctx context.Context, market models.Market) ([]models.RawRecord, []models.SourceFailure) {
	var failures []models.SourceFailure

	for _, src := range s.sources {
		records, err := src.Fetch(ctx, market)
		if err != nil {
			level := s.logger.Warn()
			if errors.Is(err, models.ErrEmptyResult) {
				level = s.logger.Debug()
			}
			level.Err(err).
				Str("source", src.Name()).
				Str("market", string(market)).
				Msg("Source fetch failed, trying next")

			failures = append(failures, models.SourceFailure{
				Source: src.Name(),
				Market: market,
				Error:  err.Error(),
			})
			continue
		}
		if len(records) == 0 {
			failures = append(failures, models.SourceFailure{
				Source: src.Name(),
				Market: market,
				Error:  models.ErrEmptyResult.Error(),
			})
			continue
		}

		s.logger.Debug().
			Str("source", src.Name()).
			Str("market", string(market)).
			Int("records", len(records)).
			Msg("Source fetch succeeded")
		return records, failures
	}

	return nil, failures
}

// persist writes the batch through to durable storage in capped chunks.
// Storage failures are logged and never fail the cycle.
func (s *Service) persist(ctx context.Context, symbols []models.Symbol, quotes []models.Quote) {
	if s.store == nil {
		return
	}

	batchSize := s.config.BatchSize
	if batchSize <= 0 {
		batchSize = defaultBatchSize
	}

	for i := 0; i < len(symbols); i += batchSize {
		end := min(i+batchSize, len(symbols))
		if err := s.store.BatchUpsertSymbols(ctx, symbols[i:end]); err != nil {
			s.logger.Warn().Err(err).Int("offset", i).Msg("Symbol batch upsert failed")
		}
	}

	for i := 0; i < len(quotes); i += batchSize {
		end := min(i+batchSize, len(quotes))
		if err := s.store.BatchUpsertQuotes(ctx, quotes[i:end]); err != nil {
			s.logger.Warn().Err(err).Int("offset", i).Msg("Quote batch upsert failed")
		}
		if err := s.store.BatchSaveQuoteSnapshots(ctx, quotes[i:end]); err != nil {
			s.logger.Warn().Err(err).Int("offset", i).Msg("Quote snapshot batch save failed")
		}
	}
}

// Ensure Service implements Collector
var _ interfaces.Collector = (*Service)(nil)
