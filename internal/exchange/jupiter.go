package exchange

import (
	"context"

	"fundingflow/internal/model"
)

type jupiterAdapter struct {
	base
	apiURL      string
	fallbackURL string
}

func newJupiter() *jupiterAdapter {
	return &jupiterAdapter{
		base:        newBase(Venues["jupiter"]),
		apiURL:      "https://perps-api.jup.ag/v1/stats",
		fallbackURL: "https://api.fluxbeam.xyz/v1/jupiter-perps/markets",
	}
}

func (a *jupiterAdapter) IsConfigured() bool { return true }

type jupiterStatsResponse struct {
	Markets []struct {
		Symbol           string `json:"symbol"`
		MarkPrice        string `json:"markPrice"`
		IndexPrice       string `json:"indexPrice"`
		FundingRateLong  string `json:"fundingRateLong"`
		FundingRateShort string `json:"fundingRateShort"`
		OpenInterest     string `json:"openInterest"`
		Volume24h        string `json:"volume24h"`
	} `json:"markets"`
}

type jupiterFallbackResponse struct {
	Data []struct {
		Symbol       string `json:"symbol"`
		BorrowRate   string `json:"borrowRate"`
		Price        string `json:"price"`
		OpenInterest string `json:"openInterest"`
	} `json:"data"`
}

// FetchFundingRates reads the Jupiter perps stats endpoint, averaging the
// long and short legs into one comparable rate. When the primary endpoint is
// down it falls back to an indexer that exposes the borrow rate.
func (a *jupiterAdapter) FetchFundingRates(ctx context.Context) model.FetchResult {
	var resp jupiterStatsResponse
	if err := a.getJSON(ctx, a.apiURL, nil, &resp); err != nil {
		a.log.WithError(err).Debug("stats endpoint failed, trying fallback")
		return a.fetchFromFallback(ctx)
	}

	rates := make([]model.FundingRate, 0, len(resp.Markets))
	for _, market := range resp.Markets {
		long, _ := parseFloat(market.FundingRateLong)
		short, _ := parseFloat(market.FundingRateShort)
		rates = append(rates, a.newRate(rateData{
			rawSymbol:    market.Symbol,
			rate:         (long + short) / 2,
			markPrice:    parseFloatPtr(market.MarkPrice),
			indexPrice:   parseFloatPtr(market.IndexPrice),
			openInterest: parseFloatPtr(market.OpenInterest),
			volume24h:    parseFloatPtr(market.Volume24h),
		}))
	}
	return a.success(rates)
}

func (a *jupiterAdapter) fetchFromFallback(ctx context.Context) model.FetchResult {
	var resp jupiterFallbackResponse
	if err := a.getJSON(ctx, a.fallbackURL, nil, &resp); err != nil {
		return a.failure(err)
	}

	rates := make([]model.FundingRate, 0, len(resp.Data))
	for _, item := range resp.Data {
		rate, err := parseFloat(item.BorrowRate)
		if err != nil {
			rate = 0
		}
		rates = append(rates, a.newRate(rateData{
			rawSymbol:    item.Symbol,
			rate:         rate,
			markPrice:    parseFloatPtr(item.Price),
			openInterest: parseFloatPtr(item.OpenInterest),
		}))
	}
	return a.success(rates)
}
