// Package models defines data structures for Sieve
package models

import (
	"strings"
	"time"
)

// Market identifies one of the two supported exchanges
type Market string

const (
	MarketKOSPI  Market = "KOSPI"
	MarketKOSDAQ Market = "KOSDAQ"
)

// Markets lists all supported markets in collection order
func Markets() []Market {
	return []Market{MarketKOSPI, MarketKOSDAQ}
}

// ParseMarket normalizes a market name from user input.
// An empty string is returned unchanged; read paths treat it as "all markets".
func ParseMarket(s string) (Market, bool) {
	switch strings.ToUpper(strings.TrimSpace(s)) {
	case "":
		return "", true
	case "KOSPI":
		return MarketKOSPI, true
	case "KOSDAQ":
		return MarketKOSDAQ, true
	default:
		return "", false
	}
}

// Symbol is the identity record for one listed stock
type Symbol struct {
	Code   string `json:"code"`   // 6-digit numeric listing code
	Name   string `json:"name"`   // display name, never empty after normalization
	Market Market `json:"market"` // KOSPI or KOSDAQ
}

// Quote is a point-in-time trade state for one symbol.
// Prices are Korean won, so integers; value is total traded amount in won.
type Quote struct {
	Code      string    `json:"code"`
	Name      string    `json:"name"`
	Market    Market    `json:"market"`
	AsOf      time.Time `json:"as_of"`
	Price     int64     `json:"price"`
	ChangePct float64   `json:"change_pct"`
	Volume    int64     `json:"volume"`
	Value     int64     `json:"value"`
	Open      int64     `json:"open"`
	High      int64     `json:"high"`
	Low       int64     `json:"low"`
}

// SnapshotID returns the archival record key for this quote, unique per
// symbol and refresh minute.
func (q Quote) SnapshotID() string {
	return q.Code + "_" + q.AsOf.Format("200601021504")
}

// RawRecord is an untyped field mapping as returned by a protocol adapter.
// It only exists between fetch and normalization.
type RawRecord map[string]string
