package screener

import "github.com/danielsohn/sieve/internal/models"

// PositionSize computes the maximum position for one entry price: the
// share count is risk-bounded (allowed loss divided by per-share loss to
// the stop) and capital-capped (CapPct of the account), whichever is
// smaller.
func PositionSize(price int64, p models.RiskParams) models.PositionPlan {
	riskAmount := int64(float64(p.AccountSize) * p.RiskPct)
	stopPrice := int64(float64(price) * (1 - p.StopPct))
	lossPerShare := price - stopPrice

	var sharesByRisk int64
	if lossPerShare > 0 {
		sharesByRisk = riskAmount / lossPerShare
	}

	var sharesByCap int64
	if price > 0 {
		sharesByCap = int64(float64(p.AccountSize) * p.CapPct / float64(price))
	}

	shares := min(sharesByRisk, sharesByCap)

	return models.PositionPlan{
		StopPrice:     stopPrice,
		MaxShares:     shares,
		MaxInvestment: shares * price,
		RiskAmount:    riskAmount,
	}
}
