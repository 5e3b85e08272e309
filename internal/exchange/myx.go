package exchange

import (
	"context"
	"errors"
	"time"

	"fundingflow/internal/model"
)

type myxAdapter struct {
	base
	apiURL string
}

func newMyx() *myxAdapter {
	return &myxAdapter{
		base:   newBase(Venues["myx"]),
		apiURL: "https://api.myx.finance/v2/quote/market/contracts",
	}
}

func (a *myxAdapter) IsConfigured() bool { return true }

type myxContract struct {
	Symbol          string `json:"symbol"`
	IndexPrice      string `json:"indexPrice"`
	MarkPrice       string `json:"markPrice"`
	FundingRate     string `json:"fundingRate"`
	NextFundingTime int64  `json:"nextFundingTime"`
	OpenInterest    string `json:"openInterest"`
	Volume24h       string `json:"volume24h"`
}

type myxResponse struct {
	Code int `json:"code"`
	Data struct {
		Contracts []myxContract `json:"contracts"`
	} `json:"data"`
}

func (a *myxAdapter) FetchFundingRates(ctx context.Context) model.FetchResult {
	var resp myxResponse
	if err := a.getJSON(ctx, a.apiURL, nil, &resp); err != nil {
		return a.failure(err)
	}
	if resp.Code != 0 || resp.Data.Contracts == nil {
		return a.failure(errors.New("invalid response format"))
	}

	rates := make([]model.FundingRate, 0, len(resp.Data.Contracts))
	for _, contract := range resp.Data.Contracts {
		rate, err := parseFloat(contract.FundingRate)
		if err != nil {
			rate = 0
		}
		d := rateData{
			rawSymbol:    contract.Symbol,
			rate:         rate,
			markPrice:    parseFloatPtr(contract.MarkPrice),
			indexPrice:   parseFloatPtr(contract.IndexPrice),
			openInterest: parseFloatPtr(contract.OpenInterest),
			volume24h:    parseFloatPtr(contract.Volume24h),
		}
		if contract.NextFundingTime > 0 {
			ts := time.UnixMilli(contract.NextFundingTime).UTC()
			d.nextFundingTime = &ts
		}
		rates = append(rates, a.newRate(d))
	}
	return a.success(rates)
}
