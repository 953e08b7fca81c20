// Package screener filters and ranks snapshot quotes and computes
// risk-based position sizing for ranked candidates.
package screener

import (
	"sort"
	"time"

	"github.com/danielsohn/sieve/internal/models"
)

// Filter returns the quotes passing every bound in f. MinValue is in 억원
// (100M won) while quote values are in won.
func Filter(quotes []models.Quote, f models.ScreenFilter) []models.Quote {
	var matched []models.Quote
	for _, q := range quotes {
		if f.Market != "" && q.Market != f.Market {
			continue
		}
		if f.MinValue != nil && float64(q.Value) < *f.MinValue*100_000_000 {
			continue
		}
		if f.MinChangePct != nil && q.ChangePct < *f.MinChangePct {
			continue
		}
		if f.MaxChangePct != nil && q.ChangePct > *f.MaxChangePct {
			continue
		}
		if f.MinPrice != nil && q.Price < *f.MinPrice {
			continue
		}
		if f.MaxPrice != nil && q.Price > *f.MaxPrice {
			continue
		}
		matched = append(matched, q)
	}
	return matched
}

// Sort orders quotes descending by the chosen mode and returns the
// per-quote scores when the mode is weighted. The input is not mutated.
func Sort(quotes []models.Quote, sortBy string) ([]models.Quote, map[string]float64) {
	sorted := make([]models.Quote, len(quotes))
	copy(sorted, quotes)

	if sortBy != models.SortByWeighted {
		sort.SliceStable(sorted, func(i, j int) bool {
			return sorted[i].Value > sorted[j].Value
		})
		return sorted, nil
	}

	scores := weightedScores(sorted)
	sort.SliceStable(sorted, func(i, j int) bool {
		return scores[sorted[i].Code] > scores[sorted[j].Code]
	})
	return sorted, scores
}

// weightedScores combines a min-max normalized traded value (0-100) with
// the raw change percentage: 70% value, 30% change.
func weightedScores(quotes []models.Quote) map[string]float64 {
	if len(quotes) == 0 {
		return nil
	}

	minValue, maxValue := quotes[0].Value, quotes[0].Value
	for _, q := range quotes[1:] {
		if q.Value < minValue {
			minValue = q.Value
		}
		if q.Value > maxValue {
			maxValue = q.Value
		}
	}
	valueRange := float64(maxValue - minValue)
	if valueRange == 0 {
		valueRange = 1
	}

	scores := make(map[string]float64, len(quotes))
	for _, q := range quotes {
		valueScore := float64(q.Value-minValue) / valueRange * 100
		scores[q.Code] = valueScore*0.7 + q.ChangePct*0.3
	}
	return scores
}

// Screen filters, sorts, and ranks quotes into a screen response. Position
// sizing is attached per row when risk carries a positive account size.
// The response as-of is the newest quote timestamp, so stale reads are
// visible to the caller.
func Screen(quotes []models.Quote, f models.ScreenFilter, risk *models.RiskParams) models.ScreenResponse {
	var asOf time.Time
	for _, q := range quotes {
		if q.AsOf.After(asOf) {
			asOf = q.AsOf
		}
	}

	filtered := Filter(quotes, f)
	sorted, scores := Sort(filtered, f.SortBy)

	limit := f.Limit
	if limit <= 0 || limit > len(sorted) {
		limit = len(sorted)
	}

	items := make([]models.ScreenItem, 0, limit)
	for i, q := range sorted[:limit] {
		item := models.ScreenItem{
			Rank:      i + 1,
			Code:      q.Code,
			Name:      q.Name,
			Market:    q.Market,
			Price:     q.Price,
			ChangePct: q.ChangePct,
			Volume:    q.Volume,
			Value:     q.Value,
		}
		if scores != nil {
			item.Score = scores[q.Code]
		}
		if risk != nil && risk.AccountSize > 0 {
			plan := PositionSize(q.Price, *risk)
			item.Position = &plan
		}
		items = append(items, item)
	}

	return models.ScreenResponse{
		AsOf:    asOf,
		Matched: len(filtered),
		Items:   items,
	}
}
