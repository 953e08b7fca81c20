package pagefetch

import (
	"context"
	"errors"
	"fmt"
	"strconv"
	"sync"
	"sync/atomic"
	"testing"

	"github.com/danielsohn/sieve/internal/models"
)

func TestPages_AllSucceed(t *testing.T) {
	records, failed := Pages(context.Background(), 4, 2, func(ctx context.Context, page int) ([]models.RawRecord, error) {
		return []models.RawRecord{{"page": strconv.Itoa(page)}}, nil
	})

	if failed != 0 {
		t.Errorf("failed = %d, want 0", failed)
	}
	if len(records) != 4 {
		t.Fatalf("len(records) = %d, want 4", len(records))
	}

	seen := make(map[string]bool)
	for _, rec := range records {
		seen[rec["page"]] = true
	}
	for page := 1; page <= 4; page++ {
		if !seen[strconv.Itoa(page)] {
			t.Errorf("page %d missing from results", page)
		}
	}
}

func TestPages_PartialFailure(t *testing.T) {
	records, failed := Pages(context.Background(), 5, 3, func(ctx context.Context, page int) ([]models.RawRecord, error) {
		if page == 2 || page == 4 {
			return nil, errors.New("upstream 500")
		}
		return []models.RawRecord{{"page": strconv.Itoa(page)}}, nil
	})

	if failed != 2 {
		t.Errorf("failed = %d, want 2", failed)
	}
	if len(records) != 3 {
		t.Errorf("len(records) = %d, want 3", len(records))
	}
}

func TestPages_ConcurrencyBound(t *testing.T) {
	const limit = 3

	var inFlight, peak atomic.Int64
	var mu sync.Mutex

	block := make(chan struct{})
	started := make(chan struct{}, limit)

	done := make(chan struct{})
	go func() {
		defer close(done)
		Pages(context.Background(), 10, limit, func(ctx context.Context, page int) ([]models.RawRecord, error) {
			n := inFlight.Add(1)
			mu.Lock()
			if n > peak.Load() {
				peak.Store(n)
			}
			mu.Unlock()

			select {
			case started <- struct{}{}:
			default:
			}
			<-block
			inFlight.Add(-1)
			return nil, nil
		})
	}()

	// Wait until the gate is saturated, then release everything.
	for i := 0; i < limit; i++ {
		<-started
	}
	close(block)
	<-done

	if got := peak.Load(); got > limit {
		t.Errorf("peak in-flight = %d, want <= %d", got, limit)
	}
}

func TestPages_ZeroPages(t *testing.T) {
	records, failed := Pages(context.Background(), 0, 5, func(ctx context.Context, page int) ([]models.RawRecord, error) {
		t.Fatal("page func should not be called")
		return nil, nil
	})
	if records != nil || failed != 0 {
		t.Errorf("Pages(0 pages) = (%v, %d), want (nil, 0)", records, failed)
	}
}

func TestPages_AllFail(t *testing.T) {
	records, failed := Pages(context.Background(), 3, 2, func(ctx context.Context, page int) ([]models.RawRecord, error) {
		return nil, fmt.Errorf("page %d unreachable", page)
	})
	if failed != 3 {
		t.Errorf("failed = %d, want 3", failed)
	}
	if len(records) != 0 {
		t.Errorf("len(records) = %d, want 0", len(records))
	}
}
