package exchange

import (
	"context"
	"errors"
	"time"

	"fundingflow/internal/model"
)

type edgexAdapter struct {
	base
	apiURL string
	apiKey string
}

func newEdgex(apiKey string) *edgexAdapter {
	return &edgexAdapter{
		base:   newBase(Venues["edgex"]),
		apiURL: "https://api.edgex.exchange/api/v1/public/funding/getLatestFundingRate",
		apiKey: apiKey,
	}
}

func (a *edgexAdapter) IsConfigured() bool { return a.apiKey != "" }

type edgexFundingRate struct {
	Symbol          string `json:"symbol"`
	FundingRate     string `json:"fundingRate"`
	FundingRateE8   string `json:"fundingRateE8"`
	NextFundingTime int64  `json:"nextFundingTime"`
	MarkPrice       string `json:"markPrice"`
	IndexPrice      string `json:"indexPrice"`
}

type edgexResponse struct {
	Code int                `json:"code"`
	Data []edgexFundingRate `json:"data"`
}

func (a *edgexAdapter) FetchFundingRates(ctx context.Context) model.FetchResult {
	if !a.IsConfigured() {
		return a.failure(errors.New("API key not configured"))
	}

	var resp edgexResponse
	headers := map[string]string{"X-EDGEX-API-KEY": a.apiKey}
	if err := a.getJSON(ctx, a.apiURL, headers, &resp); err != nil {
		return a.failure(err)
	}
	if resp.Code != 0 || resp.Data == nil {
		return a.failure(errors.New("invalid response format"))
	}

	rates := make([]model.FundingRate, 0, len(resp.Data))
	for _, item := range resp.Data {
		// The venue sends either a decimal rate or a 1e8 fixed-point one.
		var rate float64
		if item.FundingRate != "" {
			rate, _ = parseFloat(item.FundingRate)
		} else if e8, err := parseFloat(item.FundingRateE8); err == nil {
			rate = e8 / 1e8
		}
		d := rateData{
			rawSymbol:  item.Symbol,
			rate:       rate,
			markPrice:  parseFloatPtr(item.MarkPrice),
			indexPrice: parseFloatPtr(item.IndexPrice),
		}
		if item.NextFundingTime > 0 {
			ts := time.UnixMilli(item.NextFundingTime).UTC()
			d.nextFundingTime = &ts
		}
		rates = append(rates, a.newRate(d))
	}
	return a.success(rates)
}
