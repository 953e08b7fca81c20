package krxdata

import (
	"context"
	"errors"
	"testing"
	"time"

	"github.com/danielsohn/sieve/internal/models"
)

// fakeAPI is a hand-rolled MarketDataAPI with per-call hooks
type fakeAPI struct {
	dailyQuotes func(date time.Time, market models.Market) ([]models.RawRecord, error)
	symbolNames func(market models.Market) (map[string]string, error)
}

func (f *fakeAPI) DailyQuotes(date time.Time, market models.Market) ([]models.RawRecord, error) {
	return f.dailyQuotes(date, market)
}

func (f *fakeAPI) SymbolNames(market models.Market) (map[string]string, error) {
	return f.symbolNames(market)
}

func TestFetch_MergesNames(t *testing.T) {
	api := &fakeAPI{
		dailyQuotes: func(date time.Time, market models.Market) ([]models.RawRecord, error) {
			return []models.RawRecord{
				{"종목코드": "005930", "종가": "70,000", "등락률": "1.5"},
				{"종목코드": "000660", "종가": "120,000", "등락률": "-0.8"},
			}, nil
		},
		symbolNames: func(market models.Market) (map[string]string, error) {
			return map[string]string{"005930": "삼성전자", "000660": "SK하이닉스"}, nil
		},
	}

	src := NewSource(api)

	records, err := src.Fetch(context.Background(), models.MarketKOSPI)
	if err != nil {
		t.Fatalf("Fetch() error = %v", err)
	}
	if len(records) != 2 {
		t.Fatalf("len(records) = %d, want 2", len(records))
	}
	if records[0]["종목명"] != "삼성전자" {
		t.Errorf("종목명 = %q, want 삼성전자", records[0]["종목명"])
	}
	if records[1]["종목명"] != "SK하이닉스" {
		t.Errorf("종목명 = %q, want SK하이닉스", records[1]["종목명"])
	}
}

func TestFetch_RetriesPriorDay(t *testing.T) {
	var dates []time.Time
	api := &fakeAPI{
		dailyQuotes: func(date time.Time, market models.Market) ([]models.RawRecord, error) {
			dates = append(dates, date)
			if len(dates) == 1 {
				return nil, nil // requested day has no rows yet
			}
			return []models.RawRecord{{"종목코드": "005930", "종가": "70,000"}}, nil
		},
		symbolNames: func(market models.Market) (map[string]string, error) {
			return map[string]string{"005930": "삼성전자"}, nil
		},
	}

	src := NewSource(api)

	records, err := src.Fetch(context.Background(), models.MarketKOSDAQ)
	if err != nil {
		t.Fatalf("Fetch() error = %v", err)
	}
	if len(records) != 1 {
		t.Fatalf("len(records) = %d, want 1", len(records))
	}
	if len(dates) != 2 {
		t.Fatalf("DailyQuotes called %d times, want 2", len(dates))
	}
	wantPrior := dates[0].AddDate(0, 0, -1)
	if !dates[1].Equal(wantPrior) {
		t.Errorf("retry date = %v, want %v", dates[1], wantPrior)
	}
}

func TestFetch_EmptyBothDays(t *testing.T) {
	api := &fakeAPI{
		dailyQuotes: func(date time.Time, market models.Market) ([]models.RawRecord, error) {
			return nil, nil
		},
		symbolNames: func(market models.Market) (map[string]string, error) {
			t.Fatal("SymbolNames should not be called when no rows exist")
			return nil, nil
		},
	}

	src := NewSource(api)

	_, err := src.Fetch(context.Background(), models.MarketKOSPI)
	if !errors.Is(err, models.ErrEmptyResult) {
		t.Fatalf("Fetch() error = %v, want ErrEmptyResult", err)
	}
}

func TestFetch_ProviderErrorIsTransient(t *testing.T) {
	api := &fakeAPI{
		dailyQuotes: func(date time.Time, market models.Market) ([]models.RawRecord, error) {
			return nil, errors.New("connection reset")
		},
	}

	src := NewSource(api)

	_, err := src.Fetch(context.Background(), models.MarketKOSPI)

	var transient *models.TransientError
	if !errors.As(err, &transient) {
		t.Fatalf("Fetch() error = %v, want *models.TransientError", err)
	}
}

func TestFetch_CancelDoesNotWaitForBlockedProvider(t *testing.T) {
	block := make(chan struct{})
	defer close(block)

	api := &fakeAPI{
		dailyQuotes: func(date time.Time, market models.Market) ([]models.RawRecord, error) {
			<-block // simulate a provider stuck on internal I/O
			return nil, nil
		},
	}

	src := NewSource(api)

	ctx, cancel := context.WithCancel(context.Background())
	cancel()

	done := make(chan error, 1)
	go func() {
		_, err := src.Fetch(ctx, models.MarketKOSPI)
		done <- err
	}()

	select {
	case err := <-done:
		var transient *models.TransientError
		if !errors.As(err, &transient) {
			t.Fatalf("Fetch() error = %v, want *models.TransientError", err)
		}
		if !errors.Is(err, context.Canceled) {
			t.Errorf("Fetch() error = %v, want context.Canceled in chain", err)
		}
	case <-time.After(2 * time.Second):
		t.Fatal("Fetch did not return after cancellation")
	}
}
