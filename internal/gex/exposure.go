package gex

import "gexview/internal/models"

const (
	contractSize = 100
	percentMove  = 0.01
)

// Multiplier is the dollar notional of a 1% move per unit of gamma:
// 100 x P^2 x 0.01.
func Multiplier(price float64) float64 {
	return contractSize * price * price * percentMove
}

// ComputeExposure derives signed gamma and vega exposure for a contract at
// underlying price. Puts are negative, everything else positive. Zero greeks,
// open interest or volume give zero exposure.
func ComputeExposure(c models.OptionContract, price float64) models.ExposureRecord {
	multiplier := Multiplier(price)
	sign := 1.0
	if c.Type == models.OptionTypePut {
		sign = -1.0
	}
	return models.ExposureRecord{
		OptionContract: c,
		GammaExposure:  c.Gamma * c.OpenInterest * multiplier * sign,
		VegaExposure:   c.Gamma * c.Volume * multiplier * sign,
	}
}

// ComputeAll applies ComputeExposure to every contract.
func ComputeAll(contracts []models.OptionContract, price float64) []models.ExposureRecord {
	records := make([]models.ExposureRecord, len(contracts))
	for i, c := range contracts {
		records[i] = ComputeExposure(c, price)
	}
	return records
}
