package exchange

import (
	"context"
	"errors"
	"time"

	"fundingflow/internal/model"
)

type lighterAdapter struct {
	base
	apiURL string
	apiKey string
}

func newLighter(apiKey string) *lighterAdapter {
	return &lighterAdapter{
		base:   newBase(Venues["lighter"]),
		apiURL: "https://mainnet.zklighter.elliot.ai/api/v1/funding-rates",
		apiKey: apiKey,
	}
}

func (a *lighterAdapter) IsConfigured() bool { return a.apiKey != "" }

type lighterFundingRate struct {
	Market          string `json:"market"`
	FundingRate     string `json:"fundingRate"`
	MarkPrice       string `json:"markPrice"`
	IndexPrice      string `json:"indexPrice"`
	OpenInterest    string `json:"openInterest"`
	NextFundingTime int64  `json:"nextFundingTime"`
}

type lighterResponse struct {
	Data []lighterFundingRate `json:"data"`
}

func (a *lighterAdapter) FetchFundingRates(ctx context.Context) model.FetchResult {
	if !a.IsConfigured() {
		return a.failure(errors.New("API key not configured"))
	}

	var resp lighterResponse
	headers := map[string]string{"X-API-Key": a.apiKey}
	if err := a.getJSON(ctx, a.apiURL, headers, &resp); err != nil {
		return a.failure(err)
	}

	rates := make([]model.FundingRate, 0, len(resp.Data))
	for _, item := range resp.Data {
		rate, err := parseFloat(item.FundingRate)
		if err != nil {
			rate = 0
		}
		d := rateData{
			rawSymbol:    item.Market,
			rate:         rate,
			markPrice:    parseFloatPtr(item.MarkPrice),
			indexPrice:   parseFloatPtr(item.IndexPrice),
			openInterest: parseFloatPtr(item.OpenInterest),
		}
		if item.NextFundingTime > 0 {
			ts := time.UnixMilli(item.NextFundingTime).UTC()
			d.nextFundingTime = &ts
		}
		rates = append(rates, a.newRate(d))
	}
	return a.success(rates)
}
