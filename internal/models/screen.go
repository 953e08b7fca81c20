package models

import "time"

// Screen sort modes
const (
	SortByValue    = "value"    // traded value, descending
	SortByWeighted = "weighted" // 0.7 normalized value + 0.3 normalized change
)

// ScreenFilter holds the filter and ranking parameters for a screen request.
// Nil pointer fields mean "no bound".
type ScreenFilter struct {
	Market       Market   `json:"market,omitempty"`
	MinValue     *float64 `json:"min_value,omitempty"` // traded value floor, 억원 units
	MinChangePct *float64 `json:"min_change_pct,omitempty"`
	MaxChangePct *float64 `json:"max_change_pct,omitempty"`
	MinPrice     *int64   `json:"min_price,omitempty"`
	MaxPrice     *int64   `json:"max_price,omitempty"`
	SortBy       string   `json:"sort_by,omitempty"`
	Limit        int      `json:"limit,omitempty"`
}

// RiskParams holds position-sizing inputs. All-or-nothing: sizing is
// computed only when AccountSize is positive.
type RiskParams struct {
	AccountSize int64   `json:"account_size"` // total account, won
	RiskPct     float64 `json:"risk_pct"`     // max loss per trade, fraction of account
	StopPct     float64 `json:"stop_pct"`     // stop distance below entry, fraction of price
	CapPct      float64 `json:"cap_pct"`      // max position size, fraction of account
}

// PositionPlan is the computed sizing for one candidate entry
type PositionPlan struct {
	StopPrice     int64 `json:"stop_price"`
	MaxShares     int64 `json:"max_shares"`
	MaxInvestment int64 `json:"max_investment"`
	RiskAmount    int64 `json:"risk_amount"`
}

// ScreenItem is one ranked row of a screen response
type ScreenItem struct {
	Rank      int           `json:"rank"`
	Code      string        `json:"code"`
	Name      string        `json:"name"`
	Market    Market        `json:"market"`
	Price     int64         `json:"price"`
	ChangePct float64       `json:"change_pct"`
	Volume    int64         `json:"volume"`
	Value     int64         `json:"value"`
	Score     float64       `json:"score,omitempty"` // weighted sort only
	Position  *PositionPlan `json:"position,omitempty"`
}

// ScreenResponse is the full screen result
type ScreenResponse struct {
	AsOf    time.Time    `json:"as_of"`
	Matched int          `json:"matched"` // rows passing filters before ranking cut
	Items   []ScreenItem `json:"items"`
}
