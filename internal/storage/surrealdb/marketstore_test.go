package surrealdb

import (
	"context"
	"testing"
	"time"

	surreal "github.com/surrealdb/surrealdb.go"

	"github.com/danielsohn/sieve/internal/models"
)

func sampleSymbols() []models.Symbol {
	return []models.Symbol{
		{Code: "005930", Name: "삼성전자", Market: models.MarketKOSPI},
		{Code: "000660", Name: "SK하이닉스", Market: models.MarketKOSPI},
		{Code: "035720", Name: "카카오", Market: models.MarketKOSDAQ},
	}
}

func sampleQuotes(asOf time.Time) []models.Quote {
	return []models.Quote{
		{Code: "005930", Name: "삼성전자", Market: models.MarketKOSPI, AsOf: asOf, Price: 70000, ChangePct: 1.5, Volume: 1000000, Value: 70000000000},
		{Code: "000660", Name: "SK하이닉스", Market: models.MarketKOSPI, AsOf: asOf, Price: 120000, ChangePct: -0.8, Volume: 500000, Value: 60000000000},
		{Code: "035720", Name: "카카오", Market: models.MarketKOSDAQ, AsOf: asOf, Price: 45000, ChangePct: 2.1, Volume: 300000, Value: 13500000000},
	}
}

func TestMarketStore_SymbolRoundTrip(t *testing.T) {
	db := testDB(t)
	store := NewMarketStore(db, testLogger(), 450)
	ctx := context.Background()

	if err := store.BatchUpsertSymbols(ctx, sampleSymbols()); err != nil {
		t.Fatalf("BatchUpsertSymbols() error = %v", err)
	}

	all, err := store.GetSymbols(ctx, "", "", 0)
	if err != nil {
		t.Fatalf("GetSymbols() error = %v", err)
	}
	if len(all) != 3 {
		t.Fatalf("GetSymbols(all) = %d rows, want 3", len(all))
	}

	kosdaq, err := store.GetSymbols(ctx, "", models.MarketKOSDAQ, 0)
	if err != nil {
		t.Fatalf("GetSymbols(KOSDAQ) error = %v", err)
	}
	if len(kosdaq) != 1 || kosdaq[0].Code != "035720" {
		t.Errorf("GetSymbols(KOSDAQ) = %v, want only 035720", kosdaq)
	}

	byName, err := store.GetSymbols(ctx, "카카오", "", 0)
	if err != nil {
		t.Fatalf("GetSymbols(query) error = %v", err)
	}
	if len(byName) != 1 || byName[0].Code != "035720" {
		t.Errorf("GetSymbols(카카오) = %v, want only 035720", byName)
	}

	byPrefix, err := store.GetSymbols(ctx, "005", "", 0)
	if err != nil {
		t.Fatalf("GetSymbols(prefix) error = %v", err)
	}
	if len(byPrefix) != 1 || byPrefix[0].Code != "005930" {
		t.Errorf("GetSymbols(005) = %v, want only 005930", byPrefix)
	}

	limited, err := store.GetSymbols(ctx, "", "", 2)
	if err != nil {
		t.Fatalf("GetSymbols(limit) error = %v", err)
	}
	if len(limited) != 2 {
		t.Errorf("GetSymbols(limit 2) = %d rows, want 2", len(limited))
	}
}

func TestMarketStore_UpsertIsIdempotent(t *testing.T) {
	db := testDB(t)
	store := NewMarketStore(db, testLogger(), 450)
	ctx := context.Background()

	if err := store.BatchUpsertSymbols(ctx, sampleSymbols()); err != nil {
		t.Fatalf("first upsert error = %v", err)
	}
	if err := store.BatchUpsertSymbols(ctx, sampleSymbols()); err != nil {
		t.Fatalf("second upsert error = %v", err)
	}

	all, err := store.GetSymbols(ctx, "", "", 0)
	if err != nil {
		t.Fatalf("GetSymbols() error = %v", err)
	}
	if len(all) != 3 {
		t.Errorf("GetSymbols() = %d rows after double upsert, want 3", len(all))
	}
}

func TestMarketStore_LatestQuotes(t *testing.T) {
	db := testDB(t)
	store := NewMarketStore(db, testLogger(), 450)
	ctx := context.Background()

	asOf := time.Date(2026, 8, 24, 15, 40, 0, 0, time.UTC)
	if err := store.BatchUpsertQuotes(ctx, sampleQuotes(asOf)); err != nil {
		t.Fatalf("BatchUpsertQuotes() error = %v", err)
	}

	q, err := store.GetLatestQuote(ctx, "005930")
	if err != nil {
		t.Fatalf("GetLatestQuote() error = %v", err)
	}
	if q == nil {
		t.Fatal("GetLatestQuote(005930) = nil, want quote")
	}
	if q.Price != 70000 || q.ChangePct != 1.5 {
		t.Errorf("quote = %+v, want price 70000 chg 1.5", q)
	}

	missing, err := store.GetLatestQuote(ctx, "999999")
	if err != nil {
		t.Fatalf("GetLatestQuote(unknown) error = %v", err)
	}
	if missing != nil {
		t.Errorf("GetLatestQuote(unknown) = %+v, want nil", missing)
	}

	// A later cycle replaces, not duplicates
	later := sampleQuotes(asOf.Add(10 * time.Minute))
	later[0].Price = 71000
	if err := store.BatchUpsertQuotes(ctx, later); err != nil {
		t.Fatalf("second BatchUpsertQuotes() error = %v", err)
	}

	all, err := store.GetAllLatestQuotes(ctx, "")
	if err != nil {
		t.Fatalf("GetAllLatestQuotes() error = %v", err)
	}
	if len(all) != 3 {
		t.Errorf("GetAllLatestQuotes() = %d rows, want 3", len(all))
	}

	kospi, err := store.GetAllLatestQuotes(ctx, models.MarketKOSPI)
	if err != nil {
		t.Fatalf("GetAllLatestQuotes(KOSPI) error = %v", err)
	}
	if len(kospi) != 2 {
		t.Errorf("GetAllLatestQuotes(KOSPI) = %d rows, want 2", len(kospi))
	}
}

func TestMarketStore_QuoteSnapshotsKeyedByMinute(t *testing.T) {
	db := testDB(t)
	store := NewMarketStore(db, testLogger(), 450)
	ctx := context.Background()

	asOf := time.Date(2026, 8, 24, 15, 40, 0, 0, time.UTC)
	quotes := sampleQuotes(asOf)

	if err := store.BatchSaveQuoteSnapshots(ctx, quotes); err != nil {
		t.Fatalf("BatchSaveQuoteSnapshots() error = %v", err)
	}
	// Same minute again → overwrite, not a new row
	if err := store.BatchSaveQuoteSnapshots(ctx, quotes); err != nil {
		t.Fatalf("second BatchSaveQuoteSnapshots() error = %v", err)
	}
	// A new minute appends history
	if err := store.BatchSaveQuoteSnapshots(ctx, sampleQuotes(asOf.Add(time.Minute))); err != nil {
		t.Fatalf("third BatchSaveQuoteSnapshots() error = %v", err)
	}

	results, err := surreal.Query[[]snapshotDoc](ctx, db, "SELECT * FROM quote_snapshots", nil)
	if err != nil {
		t.Fatalf("count snapshots: %v", err)
	}
	rows := 0
	if results != nil && len(*results) > 0 {
		rows = len((*results)[0].Result)
	}
	if rows != 6 {
		t.Errorf("snapshot rows = %d, want 6 (3 codes x 2 minutes)", rows)
	}
}

func TestMarketStore_BatchChunking(t *testing.T) {
	db := testDB(t)
	// Tiny batch size to force chunked writes
	store := NewMarketStore(db, testLogger(), 2)
	ctx := context.Background()

	var symbols []models.Symbol
	for i := 0; i < 5; i++ {
		symbols = append(symbols, models.Symbol{
			Code:   string([]byte{'1', '0', '0', '0', '0', byte('0' + i)}),
			Name:   "Chunk Co",
			Market: models.MarketKOSPI,
		})
	}

	if err := store.BatchUpsertSymbols(ctx, symbols); err != nil {
		t.Fatalf("BatchUpsertSymbols() error = %v", err)
	}

	all, err := store.GetSymbols(ctx, "", "", 0)
	if err != nil {
		t.Fatalf("GetSymbols() error = %v", err)
	}
	if len(all) != 5 {
		t.Errorf("GetSymbols() = %d rows across chunks, want 5", len(all))
	}
}
