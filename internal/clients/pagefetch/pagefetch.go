// Package pagefetch runs bounded-concurrency page fetches against
// paginated upstream sources.
package pagefetch

import (
	"context"
	"sync"

	"golang.org/x/sync/errgroup"

	"github.com/danielsohn/sieve/internal/models"
)

// PageFunc fetches one page (1-based) and returns its raw records.
type PageFunc func(ctx context.Context, page int) ([]models.RawRecord, error)

// Pages fetches pages 1..total with at most limit requests in flight and
// returns the union of all pages that succeeded plus the number of failed
// pages. A single page's failure never aborts the remaining pages, and the
// result order is whatever the pages completed in; callers deduplicate by
// code during normalization, so order carries no meaning.
func Pages(ctx context.Context, total, limit int, fn PageFunc) ([]models.RawRecord, int) {
	if total <= 0 {
		return nil, 0
	}
	if limit <= 0 {
		limit = 1
	}

	var (
		mu      sync.Mutex
		records []models.RawRecord
		failed  int
	)

	var g errgroup.Group
	g.SetLimit(limit)

	for page := 1; page <= total; page++ {
		g.Go(func() error {
			batch, err := fn(ctx, page)

			mu.Lock()
			defer mu.Unlock()
			if err != nil {
				failed++
				return nil
			}
			records = append(records, batch...)
			return nil
		})
	}

	g.Wait()

	return records, failed
}
