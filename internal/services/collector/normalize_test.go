package collector

import (
	"reflect"
	"testing"
	"time"

	"github.com/danielsohn/sieve/internal/models"
)

var testAsOf = time.Date(2026, 8, 24, 15, 40, 0, 0, time.UTC)

func TestNormalize_KoreanSchema(t *testing.T) {
	records := []models.RawRecord{{
		"종목코드": "005930",
		"종목명":  "Samsung",
		"종가":   "70,000",
		"등락률":  "1.5",
		"거래량":  "1000000",
		"거래대금": "70,000,000,000",
	}}

	symbols, quotes := Normalize(records, models.MarketKOSPI, testAsOf)

	if len(symbols) != 1 || len(quotes) != 1 {
		t.Fatalf("Normalize() = %d symbols, %d quotes, want 1/1", len(symbols), len(quotes))
	}

	q := quotes[0]
	if q.Code != "005930" {
		t.Errorf("Code = %q, want 005930", q.Code)
	}
	if q.Price != 70000 {
		t.Errorf("Price = %d, want 70000", q.Price)
	}
	if q.ChangePct != 1.5 {
		t.Errorf("ChangePct = %v, want 1.5", q.ChangePct)
	}
	if q.Volume != 1000000 {
		t.Errorf("Volume = %d, want 1000000", q.Volume)
	}
	if q.Value != 70000000000 {
		t.Errorf("Value = %d, want 70000000000", q.Value)
	}
	if !q.AsOf.Equal(testAsOf) {
		t.Errorf("AsOf = %v, want %v", q.AsOf, testAsOf)
	}
}

func TestNormalize_EnglishSchema(t *testing.T) {
	records := []models.RawRecord{{
		"itemCode":                 "000660",
		"stockName":                "SK하이닉스",
		"closePrice":               "120,000",
		"fluctuationsRatio":        "-0.8",
		"openPrice":                "121,000",
		"highPrice":                "122,000",
		"lowPrice":                 "119,500",
		"accumulatedTradingVolume": "500000",
		"accumulatedTradingValue":  "60,000,000,000",
		"stockEndType":             "stock",
	}}

	symbols, quotes := Normalize(records, models.MarketKOSPI, testAsOf)

	if len(symbols) != 1 {
		t.Fatalf("Normalize() = %d symbols, want 1", len(symbols))
	}

	q := quotes[0]
	if q.Price != 120000 || q.Open != 121000 || q.High != 122000 || q.Low != 119500 {
		t.Errorf("OHLC = %d/%d/%d/%d, want 120000/121000/122000/119500", q.Price, q.Open, q.High, q.Low)
	}
	if q.ChangePct != -0.8 {
		t.Errorf("ChangePct = %v, want -0.8", q.ChangePct)
	}
}

func TestNormalize_RejectsMalformedCodes(t *testing.T) {
	cases := []string{"ABCDEF", "12345", "1234567", "12345a", "", "  "}
	for _, code := range cases {
		records := []models.RawRecord{{
			"itemCode": code, "stockName": "Bad Co", "closePrice": "1000",
		}}
		symbols, quotes := Normalize(records, models.MarketKOSPI, testAsOf)
		if len(symbols) != 0 || len(quotes) != 0 {
			t.Errorf("Normalize(code=%q) kept the record, want excluded", code)
		}
	}
}

func TestNormalize_RejectsZeroPrice(t *testing.T) {
	records := []models.RawRecord{
		{"itemCode": "005930", "stockName": "Trades", "closePrice": "70000"},
		{"itemCode": "111111", "stockName": "No trade", "closePrice": "0"},
		{"itemCode": "222222", "stockName": "Dashed", "closePrice": "-"},
	}

	symbols, quotes := Normalize(records, models.MarketKOSPI, testAsOf)

	if len(symbols) != 1 || len(quotes) != 1 {
		t.Fatalf("Normalize() = %d symbols, %d quotes, want 1/1", len(symbols), len(quotes))
	}
	// Symbol and quote lists stay index-aligned: the zero-price symbol is
	// gone too, not just its quote.
	if symbols[0].Code != "005930" || quotes[0].Code != "005930" {
		t.Errorf("surviving record = %s/%s, want 005930", symbols[0].Code, quotes[0].Code)
	}
}

func TestNormalize_SkipsNonStockInstruments(t *testing.T) {
	records := []models.RawRecord{
		{"itemCode": "069500", "stockName": "KODEX 200", "closePrice": "35000", "stockEndType": "etf"},
		{"itemCode": "005930", "stockName": "Samsung", "closePrice": "70000", "stockEndType": "stock"},
		// Missing tag is not a rejection; the CSV schema has none.
		{"종목코드": "000660", "종목명": "SK하이닉스", "종가": "120,000"},
	}

	symbols, _ := Normalize(records, models.MarketKOSPI, testAsOf)

	if len(symbols) != 2 {
		t.Fatalf("Normalize() = %d symbols, want 2", len(symbols))
	}
	if symbols[0].Code != "005930" || symbols[1].Code != "000660" {
		t.Errorf("kept = %s, %s; want 005930, 000660", symbols[0].Code, symbols[1].Code)
	}
}

func TestNormalize_DeduplicatesByCode(t *testing.T) {
	records := []models.RawRecord{
		{"itemCode": "005930", "stockName": "Samsung", "closePrice": "70000"},
		{"itemCode": "005930", "stockName": "Samsung dup", "closePrice": "70100"},
	}

	symbols, quotes := Normalize(records, models.MarketKOSPI, testAsOf)

	if len(symbols) != 1 {
		t.Fatalf("Normalize() = %d symbols, want 1", len(symbols))
	}
	if quotes[0].Price != 70000 {
		t.Errorf("Price = %d, want first occurrence 70000", quotes[0].Price)
	}
}

func TestNormalize_Idempotent(t *testing.T) {
	records := []models.RawRecord{
		{"itemCode": "005930", "stockName": "Samsung", "closePrice": "70,000", "fluctuationsRatio": "1.5"},
		{"종목코드": "035720", "종목명": "카카오", "종가": "45,000", "등락률": "-2.1", "거래대금": "3,000,000,000"},
	}

	s1, q1 := Normalize(records, models.MarketKOSDAQ, testAsOf)
	s2, q2 := Normalize(records, models.MarketKOSDAQ, testAsOf)

	if !reflect.DeepEqual(s1, s2) {
		t.Errorf("symbols differ across identical runs:\n%v\n%v", s1, s2)
	}
	if !reflect.DeepEqual(q1, q2) {
		t.Errorf("quotes differ across identical runs:\n%v\n%v", q1, q2)
	}
}

func TestParseFloat_Tolerance(t *testing.T) {
	cases := []struct {
		in   string
		want float64
	}{
		{"", 0},
		{"-", 0},
		{"N/A", 0},
		{"1,234.5", 1234.5},
		{"-3.2", -3.2},
		{" 42 ", 42},
		{"garbage", 0},
	}
	for _, tc := range cases {
		if got := parseFloat(tc.in); got != tc.want {
			t.Errorf("parseFloat(%q) = %v, want %v", tc.in, got, tc.want)
		}
	}
}
