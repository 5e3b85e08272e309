package exchange

import (
	"context"
	"errors"
	"time"

	"fundingflow/internal/model"
)

type grvtAdapter struct {
	base
	apiURL string
	apiKey string
}

func newGrvt(apiKey string) *grvtAdapter {
	return &grvtAdapter{
		base:   newBase(Venues["grvt"]),
		apiURL: "https://api.grvt.io/v1/funding",
		apiKey: apiKey,
	}
}

func (a *grvtAdapter) IsConfigured() bool { return a.apiKey != "" }

type grvtInstrument struct {
	Instrument           string `json:"instrument"`
	FundingRate          string `json:"fundingRate"`
	NextFundingTimestamp string `json:"nextFundingTimestamp"`
	MarkPrice            string `json:"markPrice"`
	IndexPrice           string `json:"indexPrice"`
	OpenInterest         string `json:"openInterest"`
}

type grvtResponse struct {
	Result []grvtInstrument `json:"result"`
}

func (a *grvtAdapter) FetchFundingRates(ctx context.Context) model.FetchResult {
	if !a.IsConfigured() {
		return a.failure(errors.New("API key not configured"))
	}

	// The gateway authenticates the session cookie; the bearer token is
	// accepted by newer deployments.
	headers := map[string]string{
		"Cookie":        "session=" + a.apiKey,
		"Authorization": "Bearer " + a.apiKey,
	}

	var resp grvtResponse
	if err := a.getJSON(ctx, a.apiURL, headers, &resp); err != nil {
		return a.failure(err)
	}
	if resp.Result == nil {
		return a.failure(errors.New("invalid response format"))
	}

	rates := make([]model.FundingRate, 0, len(resp.Result))
	for _, item := range resp.Result {
		rate, err := parseFloat(item.FundingRate)
		if err != nil {
			rate = 0
		}
		d := rateData{
			rawSymbol:    item.Instrument,
			rate:         rate,
			markPrice:    parseFloatPtr(item.MarkPrice),
			indexPrice:   parseFloatPtr(item.IndexPrice),
			openInterest: parseFloatPtr(item.OpenInterest),
		}
		if ms, err := parseFloat(item.NextFundingTimestamp); err == nil && ms > 0 {
			ts := time.UnixMilli(int64(ms)).UTC()
			d.nextFundingTime = &ts
		}
		rates = append(rates, a.newRate(d))
	}
	return a.success(rates)
}
