// Package snapshot holds the latest fully-normalized market dataset in
// memory. Publish swaps the whole view atomically; readers never lock and
// never observe a half-applied update.
package snapshot

import (
	"strings"
	"sync/atomic"
	"time"

	"github.com/danielsohn/sieve/internal/models"
)

// view is one immutable snapshot generation. Nothing mutates a view after
// it is stored, so readers may share it freely.
type view struct {
	symbols []models.Symbol
	quotes  []models.Quote
	byCode  map[string]models.Quote
	asOf    time.Time
}

// Store is the process-wide snapshot holder: single writer, many readers.
// The nil pointer state means "never published", which is distinct from a
// published-but-empty snapshot.
type Store struct {
	current atomic.Pointer[view]
}

// NewStore creates an empty, not-yet-loaded store
func NewStore() *Store {
	return &Store{}
}

// Publish atomically replaces the current view. The input slices are
// copied so later caller mutations cannot leak into the published view.
func (s *Store) Publish(symbols []models.Symbol, quotes []models.Quote, asOf time.Time) {
	v := &view{
		symbols: make([]models.Symbol, len(symbols)),
		quotes:  make([]models.Quote, len(quotes)),
		byCode:  make(map[string]models.Quote, len(quotes)),
		asOf:    asOf,
	}
	copy(v.symbols, symbols)
	copy(v.quotes, quotes)
	for _, q := range v.quotes {
		v.byCode[q.Code] = q
	}

	s.current.Store(v)
}

// IsLoaded reports whether any snapshot has been published yet
func (s *Store) IsLoaded() bool {
	return s.current.Load() != nil
}

// LastUpdated returns the as-of time of the current snapshot
func (s *Store) LastUpdated() (time.Time, bool) {
	v := s.current.Load()
	if v == nil {
		return time.Time{}, false
	}
	return v.asOf, true
}

// Snapshot returns the full consistent view in one read. All three values
// come from the same publish generation.
func (s *Store) Snapshot() ([]models.Symbol, []models.Quote, time.Time, bool) {
	v := s.current.Load()
	if v == nil {
		return nil, nil, time.Time{}, false
	}
	return v.symbols, v.quotes, v.asOf, true
}

// Symbols returns symbols matching an optional case-insensitive name/code
// query and market, capped at limit when limit is positive.
func (s *Store) Symbols(query string, market models.Market, limit int) []models.Symbol {
	v := s.current.Load()
	if v == nil {
		return nil
	}

	query = strings.ToLower(strings.TrimSpace(query))

	var matched []models.Symbol
	for _, sym := range v.symbols {
		if market != "" && sym.Market != market {
			continue
		}
		if query != "" &&
			!strings.Contains(strings.ToLower(sym.Name), query) &&
			!strings.HasPrefix(sym.Code, query) {
			continue
		}
		matched = append(matched, sym)
		if limit > 0 && len(matched) >= limit {
			break
		}
	}
	return matched
}

// Quotes returns all quotes, optionally restricted to one market
func (s *Store) Quotes(market models.Market) []models.Quote {
	v := s.current.Load()
	if v == nil {
		return nil
	}
	if market == "" {
		out := make([]models.Quote, len(v.quotes))
		copy(out, v.quotes)
		return out
	}

	var matched []models.Quote
	for _, q := range v.quotes {
		if q.Market == market {
			matched = append(matched, q)
		}
	}
	return matched
}

// Quote returns the quote for one listing code
func (s *Store) Quote(code string) (models.Quote, bool) {
	v := s.current.Load()
	if v == nil {
		return models.Quote{}, false
	}
	q, ok := v.byCode[code]
	return q, ok
}
