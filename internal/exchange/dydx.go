package exchange

import (
	"context"

	"fundingflow/internal/model"
)

type dydxAdapter struct {
	base
	apiURL string
}

func newDydx() *dydxAdapter {
	return &dydxAdapter{
		base:   newBase(Venues["dydx"]),
		apiURL: "https://indexer.v4mainnet.dydx.exchange/v4/perpetualMarkets",
	}
}

func (a *dydxAdapter) IsConfigured() bool { return true }

type dydxMarket struct {
	Ticker          string `json:"ticker"`
	Status          string `json:"status"`
	OraclePrice     string `json:"oraclePrice"`
	Volume24H       string `json:"volume24H"`
	NextFundingRate string `json:"nextFundingRate"`
	OpenInterest    string `json:"openInterest"`
}

type dydxMarketsResponse struct {
	Markets map[string]dydxMarket `json:"markets"`
}

func (a *dydxAdapter) FetchFundingRates(ctx context.Context) model.FetchResult {
	var resp dydxMarketsResponse
	if err := a.getJSON(ctx, a.apiURL, nil, &resp); err != nil {
		return a.failure(err)
	}

	rates := make([]model.FundingRate, 0, len(resp.Markets))
	for _, market := range resp.Markets {
		// Delisted and paused markets keep stale rates; skip them.
		if market.Status != "ACTIVE" {
			continue
		}
		rate, err := parseFloat(market.NextFundingRate)
		if err != nil {
			rate = 0
		}
		rates = append(rates, a.newRate(rateData{
			rawSymbol:    market.Ticker,
			rate:         rate,
			indexPrice:   parseFloatPtr(market.OraclePrice),
			openInterest: parseFloatPtr(market.OpenInterest),
			volume24h:    parseFloatPtr(market.Volume24H),
		}))
	}
	return a.success(rates)
}
