package models

import "time"

// Refresh cycle status values
const (
	RefreshSuccess = "success"
	RefreshSkipped = "skipped"
	RefreshError   = "error"
)

// Refresh skip/failure reasons
const (
	ReasonMarketClosed = "market_closed"
	ReasonInProgress   = "refresh_in_progress"
	ReasonNoData       = "no_data"
)

// RefreshOutcome reports the result of one collection cycle
type RefreshOutcome struct {
	Status      string    `json:"status"` // "success", "skipped", "error"
	Reason      string    `json:"reason,omitempty"`
	SymbolCount int       `json:"symbol_count"`
	AsOf        time.Time `json:"as_of"`
	ElapsedMS   int64     `json:"elapsed_ms"`
}

// SourceFailure records one adapter attempt that did not produce rows,
// kept for cycle diagnostics.
type SourceFailure struct {
	Source string `json:"source"`
	Market Market `json:"market"`
	Error  string `json:"error"`
}
