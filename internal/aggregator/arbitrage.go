package aggregator

import (
	"sort"
	"time"

	"fundingflow/internal/model"
)

// arbitrageThreshold is the minimum annualized spread worth surfacing.
const arbitrageThreshold = 0.01

// FindArbitrage detects funding spreads per symbol across venues. For each
// symbol listed on at least two venues it pairs the lowest annualized rate
// (long leg) with the highest (short leg) and keeps the pair when the spread
// clears the threshold. One opportunity per symbol, best spread first.
func FindArbitrage(rates []model.FundingRate) []model.ArbitrageOpportunity {
	bySymbol := make(map[string][]model.FundingRate)
	for _, r := range rates {
		bySymbol[r.Symbol] = append(bySymbol[r.Symbol], r)
	}

	now := time.Now().UTC()
	opportunities := make([]model.ArbitrageOpportunity, 0)
	for symbol, symbolRates := range bySymbol {
		if len(symbolRates) < 2 {
			continue
		}

		lowest, highest := symbolRates[0], symbolRates[0]
		for _, r := range symbolRates[1:] {
			if r.FundingRateAnnualized < lowest.FundingRateAnnualized {
				lowest = r
			}
			if r.FundingRateAnnualized > highest.FundingRateAnnualized {
				highest = r
			}
		}

		spread := highest.FundingRateAnnualized - lowest.FundingRateAnnualized
		if spread <= arbitrageThreshold {
			continue
		}

		opportunities = append(opportunities, model.ArbitrageOpportunity{
			Symbol:           symbol,
			LongExchange:     lowest.Exchange,
			ShortExchange:    highest.Exchange,
			LongRate:         lowest.FundingRateAnnualized,
			ShortRate:        highest.FundingRateAnnualized,
			SpreadAnnualized: spread,
			Timestamp:        now,
		})
	}

	sort.Slice(opportunities, func(i, j int) bool {
		return opportunities[i].SpreadAnnualized > opportunities[j].SpreadAnnualized
	})
	return opportunities
}
