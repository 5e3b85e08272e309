package exchange

import (
	"context"
	"crypto/hmac"
	"crypto/sha256"
	"encoding/hex"
	"errors"
	"fmt"
	"time"

	"fundingflow/internal/model"
)

type asterAdapter struct {
	base
	apiURL    string
	apiKey    string
	apiSecret string

	// now is swapped out in tests to make signatures deterministic.
	now func() time.Time
}

func newAster(apiKey, apiSecret string) *asterAdapter {
	return &asterAdapter{
		base:      newBase(Venues["aster"]),
		apiURL:    "https://fapi.asterdex.com/fapi/v1/fundingRate",
		apiKey:    apiKey,
		apiSecret: apiSecret,
		now:       time.Now,
	}
}

func (a *asterAdapter) IsConfigured() bool { return a.apiKey != "" && a.apiSecret != "" }

type asterFundingRate struct {
	Symbol      string `json:"symbol"`
	FundingRate string `json:"fundingRate"`
	FundingTime int64  `json:"fundingTime"`
	MarkPrice   string `json:"markPrice"`
	IndexPrice  string `json:"indexPrice"`
}

// sign computes the HMAC-SHA256 hex digest of the query string, Binance
// futures style.
func (a *asterAdapter) sign(query string) string {
	mac := hmac.New(sha256.New, []byte(a.apiSecret))
	mac.Write([]byte(query))
	return hex.EncodeToString(mac.Sum(nil))
}

func (a *asterAdapter) FetchFundingRates(ctx context.Context) model.FetchResult {
	if !a.IsConfigured() {
		return a.failure(errors.New("API key/secret not configured"))
	}

	query := fmt.Sprintf("timestamp=%d", a.now().UnixMilli())
	url := fmt.Sprintf("%s?%s&signature=%s", a.apiURL, query, a.sign(query))

	var items []asterFundingRate
	headers := map[string]string{"X-MBX-APIKEY": a.apiKey}
	if err := a.getJSON(ctx, url, headers, &items); err != nil {
		return a.failure(err)
	}

	rates := make([]model.FundingRate, 0, len(items))
	for _, item := range items {
		rate, err := parseFloat(item.FundingRate)
		if err != nil {
			rate = 0
		}
		d := rateData{
			rawSymbol:  item.Symbol,
			rate:       rate,
			markPrice:  parseFloatPtr(item.MarkPrice),
			indexPrice: parseFloatPtr(item.IndexPrice),
		}
		if item.FundingTime > 0 {
			ts := time.UnixMilli(item.FundingTime).UTC()
			d.nextFundingTime = &ts
		}
		rates = append(rates, a.newRate(d))
	}
	return a.success(rates)
}
