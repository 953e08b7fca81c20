package krxdata

import (
	"context"
	"fmt"
	"time"

	"github.com/danielsohn/sieve/internal/common"
	"github.com/danielsohn/sieve/internal/interfaces"
	"github.com/danielsohn/sieve/internal/models"
)

const sourceName = "krxdata"

// Source adapts the blocking provider client to the MarketSource
// capability. Each provider call runs on its own goroutine with the caller
// selecting on ctx, so a stalled provider never blocks a serving goroutine.
type Source struct {
	api      interfaces.MarketDataAPI
	logger   *common.Logger
	openHour int
}

// SourceOption configures the source
type SourceOption func(*Source)

// WithSourceLogger sets the logger
func WithSourceLogger(logger *common.Logger) SourceOption {
	return func(s *Source) {
		s.logger = logger
	}
}

// WithSourceOpenHour sets the hour used to pick the latest completed
// trading day. Defaults to 9 (KST market open).
func WithSourceOpenHour(hour int) SourceOption {
	return func(s *Source) {
		s.openHour = hour
	}
}

// NewSource wraps a provider client as a market source
func NewSource(api interfaces.MarketDataAPI, opts ...SourceOption) *Source {
	s := &Source{
		api:      api,
		logger:   common.NewSilentLogger(),
		openHour: 9,
	}

	for _, opt := range opts {
		opt(s)
	}

	return s
}

// Name identifies the source in logs and diagnostics
func (s *Source) Name() string {
	return sourceName
}

// Fetch retrieves daily rows for the latest trading day, retrying once
// against the prior calendar day when the requested date yields nothing.
// Symbol names are resolved separately and merged in, since the provider's
// daily call omits them.
func (s *Source) Fetch(ctx context.Context, market models.Market) ([]models.RawRecord, error) {
	date := common.LatestTradingDay(time.Now(), s.openHour)

	rows, err := s.dailyQuotes(ctx, date, market)
	if err != nil {
		return nil, err
	}
	if len(rows) == 0 {
		prior := date.AddDate(0, 0, -1)
		s.logger.Debug().
			Str("market", string(market)).
			Str("date", date.Format("2006-01-02")).
			Str("retry_date", prior.Format("2006-01-02")).
			Msg("No provider rows for trading day, retrying prior day")

		rows, err = s.dailyQuotes(ctx, prior, market)
		if err != nil {
			return nil, err
		}
	}
	if len(rows) == 0 {
		return nil, models.ErrEmptyResult
	}

	names, err := s.symbolNames(ctx, market)
	if err != nil {
		// Rows without names are dropped by the normalizer, so a failed
		// directory lookup degrades to an empty result rather than a
		// half-named batch.
		return nil, err
	}

	merged := make([]models.RawRecord, 0, len(rows))
	for _, row := range rows {
		if row["종목명"] == "" {
			if name, ok := names[row["종목코드"]]; ok {
				row["종목명"] = name
			}
		}
		merged = append(merged, row)
	}

	s.logger.Info().
		Str("market", string(market)).
		Int("records", len(merged)).
		Msg("Provider fallback fetch complete")

	return merged, nil
}

// dailyQuotes offloads the blocking DailyQuotes call
func (s *Source) dailyQuotes(ctx context.Context, date time.Time, market models.Market) ([]models.RawRecord, error) {
	type result struct {
		rows []models.RawRecord
		err  error
	}

	ch := make(chan result, 1)
	go func() {
		rows, err := s.api.DailyQuotes(date, market)
		ch <- result{rows: rows, err: err}
	}()

	select {
	case <-ctx.Done():
		return nil, &models.TransientError{Source: sourceName, Err: ctx.Err()}
	case r := <-ch:
		if r.err != nil {
			return nil, &models.TransientError{Source: sourceName, Err: fmt.Errorf("daily quotes: %w", r.err)}
		}
		return r.rows, nil
	}
}

// symbolNames offloads the blocking SymbolNames call
func (s *Source) symbolNames(ctx context.Context, market models.Market) (map[string]string, error) {
	type result struct {
		names map[string]string
		err   error
	}

	ch := make(chan result, 1)
	go func() {
		names, err := s.api.SymbolNames(market)
		ch <- result{names: names, err: err}
	}()

	select {
	case <-ctx.Done():
		return nil, &models.TransientError{Source: sourceName, Err: ctx.Err()}
	case r := <-ch:
		if r.err != nil {
			return nil, &models.TransientError{Source: sourceName, Err: fmt.Errorf("symbol names: %w", r.err)}
		}
		return r.names, nil
	}
}

// Ensure Source implements MarketSource
var _ interfaces.MarketSource = (*Source)(nil)
