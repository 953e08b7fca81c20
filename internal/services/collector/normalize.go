package collector

import (
	"strconv"
	"strings"
	"time"

	"github.com/danielsohn/sieve/internal/models"
)

// Canonical field keys after schema translation
const (
	fieldCode      = "code"
	fieldName      = "name"
	fieldPrice     = "price"
	fieldChangePct = "change_pct"
	fieldOpen      = "open"
	fieldHigh      = "high"
	fieldLow       = "low"
	fieldVolume    = "volume"
	fieldValue     = "value"
	fieldType      = "type"
)

// englishSchema translates the Naver JSON field names
var englishSchema = map[string]string{
	"itemCode":                 fieldCode,
	"stockName":                fieldName,
	"closePrice":               fieldPrice,
	"fluctuationsRatio":        fieldChangePct,
	"openPrice":                fieldOpen,
	"highPrice":                fieldHigh,
	"lowPrice":                 fieldLow,
	"accumulatedTradingVolume": fieldVolume,
	"accumulatedTradingValue":  fieldValue,
	"stockEndType":             fieldType,
}

// koreanSchema translates the KRX CSV column headers
var koreanSchema = map[string]string{
	"종목코드": fieldCode,
	"종목명":  fieldName,
	"종가":   fieldPrice,
	"등락률":  fieldChangePct,
	"시가":   fieldOpen,
	"고가":   fieldHigh,
	"저가":   fieldLow,
	"거래량":  fieldVolume,
	"거래대금": fieldValue,
	"증권구분": fieldType,
}

// rekey translates a raw record into canonical keys. The schema is chosen
// per record by key presence, so mixed batches normalize correctly.
func rekey(rec models.RawRecord) models.RawRecord {
	schema := koreanSchema
	if _, ok := rec["itemCode"]; ok {
		schema = englishSchema
	}

	out := make(models.RawRecord, len(schema))
	for src, dst := range schema {
		if val, ok := rec[src]; ok {
			out[dst] = val
		}
	}
	return out
}

// Normalize maps raw adapter records into canonical symbols and quotes
// sharing one as-of time. Records with a malformed code, an empty name, a
// non-common-stock type tag, or a zero price are skipped whole; the two
// result slices stay index-aligned 1:1. Duplicate codes keep the first
// occurrence. Pure function; normalizing the same batch twice yields
// identical output.
func Normalize(records []models.RawRecord, market models.Market, asOf time.Time) ([]models.Symbol, []models.Quote) {
	symbols := make([]models.Symbol, 0, len(records))
	quotes := make([]models.Quote, 0, len(records))
	seen := make(map[string]bool, len(records))

	for _, raw := range records {
		rec := rekey(raw)

		code := strings.TrimSpace(rec[fieldCode])
		name := strings.TrimSpace(rec[fieldName])
		if !validCode(code) || name == "" {
			continue
		}
		if seen[code] {
			continue
		}

		// ETF/ETN and other non-stock instruments carry an explicit type tag
		if t := rec[fieldType]; t != "" && t != "stock" {
			continue
		}

		price := parseInt(rec[fieldPrice])
		if price == 0 {
			// No trade or delisted noise
			continue
		}

		seen[code] = true
		symbols = append(symbols, models.Symbol{Code: code, Name: name, Market: market})
		quotes = append(quotes, models.Quote{
			Code:      code,
			Name:      name,
			Market:    market,
			AsOf:      asOf,
			Price:     price,
			ChangePct: parseFloat(rec[fieldChangePct]),
			Volume:    parseInt(rec[fieldVolume]),
			Value:     parseInt(rec[fieldValue]),
			Open:      parseInt(rec[fieldOpen]),
			High:      parseInt(rec[fieldHigh]),
			Low:       parseInt(rec[fieldLow]),
		})
	}

	return symbols, quotes
}

// validCode reports whether code is exactly 6 numeric characters
func validCode(code string) bool {
	if len(code) != 6 {
		return false
	}
	for _, r := range code {
		if r < '0' || r > '9' {
			return false
		}
	}
	return true
}

// parseFloat parses a numeric field tolerating "-", "N/A", empty strings,
// and thousands separators, all of which read as zero.
func parseFloat(s string) float64 {
	s = strings.TrimSpace(s)
	if s == "" || s == "-" || s == "N/A" {
		return 0
	}
	f, err := strconv.ParseFloat(strings.ReplaceAll(s, ",", ""), 64)
	if err != nil {
		return 0
	}
	return f
}

// parseInt parses an integer field with the same tolerance as parseFloat.
// Values arriving as decimals are truncated.
func parseInt(s string) int64 {
	return int64(parseFloat(s))
}
