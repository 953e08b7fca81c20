package server

import (
	"net/http"
	"strconv"
	"time"

	"github.com/danielsohn/sieve/internal/common"
	"github.com/danielsohn/sieve/internal/models"
	"github.com/danielsohn/sieve/internal/services/screener"
)

// handleHealth returns service liveness.
func (s *Server) handleHealth(w http.ResponseWriter, r *http.Request) {
	if !RequireMethod(w, r, http.MethodGet) {
		return
	}
	WriteJSON(w, http.StatusOK, map[string]string{
		"status":  "ok",
		"version": common.GetVersion(),
	})
}

// handleVersion returns build information.
func (s *Server) handleVersion(w http.ResponseWriter, r *http.Request) {
	if !RequireMethod(w, r, http.MethodGet) {
		return
	}
	WriteJSON(w, http.StatusOK, map[string]string{
		"version": common.GetVersion(),
		"build":   common.GetBuild(),
		"commit":  common.GetGitCommit(),
	})
}

// handleStatus reports snapshot freshness and collection state.
func (s *Server) handleStatus(w http.ResponseWriter, r *http.Request) {
	if !RequireMethod(w, r, http.MethodGet) {
		return
	}

	status := map[string]interface{}{
		"loaded":      s.app.Snapshot.IsLoaded(),
		"in_progress": s.app.Collector.InProgress(),
		"storage":     s.app.Storage != nil,
		"uptime":      time.Since(s.app.StartupTime).Round(time.Second).String(),
	}
	if asOf, ok := s.app.Snapshot.LastUpdated(); ok {
		status["last_updated"] = asOf
		status["fresh"] = common.IsFresh(asOf, common.FreshnessQuote)
	}

	WriteJSON(w, http.StatusOK, status)
}

// handleSymbols lists symbols from the snapshot, falling back to durable
// storage when no snapshot has been published yet (e.g. right after a
// restart outside market hours).
func (s *Server) handleSymbols(w http.ResponseWriter, r *http.Request) {
	if !RequireMethod(w, r, http.MethodGet) {
		return
	}

	query := r.URL.Query().Get("query")
	market, ok := parseMarketParam(w, r)
	if !ok {
		return
	}
	limit := parseIntParam(r, "limit", 0)

	if s.app.Snapshot.IsLoaded() {
		symbols := s.app.Snapshot.Symbols(query, market, limit)
		WriteJSON(w, http.StatusOK, map[string]interface{}{
			"count":   len(symbols),
			"symbols": emptyIfNilSymbols(symbols),
		})
		return
	}

	if s.app.Storage != nil {
		symbols, err := s.app.Storage.MarketStore().GetSymbols(r.Context(), query, market, limit)
		if err != nil {
			s.logger.Error().Err(err).Msg("Failed to read symbols from storage")
			WriteError(w, http.StatusInternalServerError, "Failed to read symbols")
			return
		}
		WriteJSON(w, http.StatusOK, map[string]interface{}{
			"count":   len(symbols),
			"symbols": emptyIfNilSymbols(symbols),
		})
		return
	}

	WriteError(w, http.StatusServiceUnavailable, "No market data loaded yet")
}

// handleQuote returns the latest quote for one listing code.
func (s *Server) handleQuote(w http.ResponseWriter, r *http.Request) {
	if !RequireMethod(w, r, http.MethodGet) {
		return
	}

	code := PathParam(r, "/api/quote/", "")
	if !isListingCode(code) {
		WriteError(w, http.StatusBadRequest, "Listing code must be exactly 6 digits")
		return
	}

	if s.app.Snapshot.IsLoaded() {
		if q, ok := s.app.Snapshot.Quote(code); ok {
			WriteJSON(w, http.StatusOK, q)
			return
		}
		WriteError(w, http.StatusNotFound, "Unknown listing code: "+code)
		return
	}

	if s.app.Storage != nil {
		q, err := s.app.Storage.MarketStore().GetLatestQuote(r.Context(), code)
		if err != nil {
			s.logger.Error().Err(err).Str("code", code).Msg("Failed to read quote from storage")
			WriteError(w, http.StatusInternalServerError, "Failed to read quote")
			return
		}
		if q == nil {
			WriteError(w, http.StatusNotFound, "Unknown listing code: "+code)
			return
		}
		WriteJSON(w, http.StatusOK, q)
		return
	}

	WriteError(w, http.StatusServiceUnavailable, "No market data loaded yet")
}

// handleScreenTop filters and ranks the current snapshot. Ranking and
// optional position sizing are controlled by query parameters.
func (s *Server) handleScreenTop(w http.ResponseWriter, r *http.Request) {
	if !RequireMethod(w, r, http.MethodGet) {
		return
	}

	if !s.app.Snapshot.IsLoaded() {
		WriteError(w, http.StatusServiceUnavailable, "No market data loaded yet")
		return
	}

	market, ok := parseMarketParam(w, r)
	if !ok {
		return
	}

	filter := models.ScreenFilter{
		Market:       market,
		MinValue:     parseFloatPtrParam(r, "min_value"),
		MinChangePct: parseFloatPtrParam(r, "min_change_pct"),
		MaxChangePct: parseFloatPtrParam(r, "max_change_pct"),
		MinPrice:     parseIntPtrParam(r, "min_price"),
		MaxPrice:     parseIntPtrParam(r, "max_price"),
		SortBy:       r.URL.Query().Get("sort"),
		Limit:        parseIntParam(r, "limit", 20),
	}
	if filter.SortBy != "" && filter.SortBy != models.SortByValue && filter.SortBy != models.SortByWeighted {
		WriteError(w, http.StatusBadRequest, "Unknown sort mode: "+filter.SortBy)
		return
	}

	var risk *models.RiskParams
	if account := parseIntParam(r, "account", 0); account > 0 {
		risk = &models.RiskParams{
			AccountSize: int64(account),
			RiskPct:     parseFloatParam(r, "risk_pct", 0.02),
			StopPct:     parseFloatParam(r, "stop_pct", 0.05),
			CapPct:      parseFloatParam(r, "cap_pct", 0.20),
		}
	}

	quotes := s.app.Snapshot.Quotes(market)
	WriteJSON(w, http.StatusOK, screener.Screen(quotes, filter, risk))
}

// handleCollect triggers one collection cycle synchronously and reports
// the outcome. force=true bypasses the market-hours check.
func (s *Server) handleCollect(w http.ResponseWriter, r *http.Request) {
	if !RequireMethod(w, r, http.MethodPost) {
		return
	}

	force := r.URL.Query().Get("force") == "true"
	outcome := s.app.Collector.Run(r.Context(), force)

	status := http.StatusOK
	if outcome.Status == models.RefreshError {
		status = http.StatusBadGateway
	}
	WriteJSON(w, status, outcome)
}

// isListingCode reports whether s is exactly six ASCII digits.
func isListingCode(s string) bool {
	if len(s) != 6 {
		return false
	}
	for _, c := range s {
		if c < '0' || c > '9' {
			return false
		}
	}
	return true
}

// parseMarketParam reads an optional market query parameter. An
// unrecognized market writes a 400 and returns ok=false.
func parseMarketParam(w http.ResponseWriter, r *http.Request) (models.Market, bool) {
	raw := r.URL.Query().Get("market")
	if raw == "" {
		return "", true
	}
	market, ok := models.ParseMarket(raw)
	if !ok {
		WriteError(w, http.StatusBadRequest, "Unknown market: "+raw)
		return "", false
	}
	return market, true
}

func parseIntParam(r *http.Request, name string, fallback int) int {
	raw := r.URL.Query().Get(name)
	if raw == "" {
		return fallback
	}
	v, err := strconv.Atoi(raw)
	if err != nil {
		return fallback
	}
	return v
}

func parseFloatParam(r *http.Request, name string, fallback float64) float64 {
	raw := r.URL.Query().Get(name)
	if raw == "" {
		return fallback
	}
	v, err := strconv.ParseFloat(raw, 64)
	if err != nil {
		return fallback
	}
	return v
}

func parseFloatPtrParam(r *http.Request, name string) *float64 {
	raw := r.URL.Query().Get(name)
	if raw == "" {
		return nil
	}
	v, err := strconv.ParseFloat(raw, 64)
	if err != nil {
		return nil
	}
	return &v
}

func parseIntPtrParam(r *http.Request, name string) *int64 {
	raw := r.URL.Query().Get(name)
	if raw == "" {
		return nil
	}
	v, err := strconv.ParseInt(raw, 10, 64)
	if err != nil {
		return nil
	}
	return &v
}

func emptyIfNilSymbols(symbols []models.Symbol) []models.Symbol {
	if symbols == nil {
		return []models.Symbol{}
	}
	return symbols
}
