package exchange

import (
	"context"
	"crypto/hmac"
	"crypto/sha256"
	"encoding/hex"
	"errors"
	"strconv"
	"time"

	"fundingflow/internal/model"
)

type variationalAdapter struct {
	base
	apiURL    string
	apiKey    string
	apiSecret string

	now func() time.Time
}

func newVariational(apiKey, apiSecret string) *variationalAdapter {
	return &variationalAdapter{
		base:      newBase(Venues["variational"]),
		apiURL:    "https://api.variational.io/v1/markets",
		apiKey:    apiKey,
		apiSecret: apiSecret,
		now:       time.Now,
	}
}

func (a *variationalAdapter) IsConfigured() bool { return a.apiKey != "" && a.apiSecret != "" }

type variationalMarket struct {
	Symbol          string `json:"symbol"`
	FundingRate     string `json:"fundingRate"`
	MarkPrice       string `json:"markPrice"`
	IndexPrice      string `json:"indexPrice"`
	OpenInterest    string `json:"openInterest"`
	NextFundingTime string `json:"nextFundingTime"`
}

type variationalResponse struct {
	Data []variationalMarket `json:"data"`
}

// sign computes the HMAC-SHA256 hex digest over timestamp, method and path
// concatenated in that order.
func (a *variationalAdapter) sign(timestamp, method, path string) string {
	mac := hmac.New(sha256.New, []byte(a.apiSecret))
	mac.Write([]byte(timestamp + method + path))
	return hex.EncodeToString(mac.Sum(nil))
}

func (a *variationalAdapter) FetchFundingRates(ctx context.Context) model.FetchResult {
	if !a.IsConfigured() {
		return a.failure(errors.New("API key/secret not configured"))
	}

	timestamp := strconv.FormatInt(a.now().UnixMilli(), 10)
	headers := map[string]string{
		"X-API-Key":   a.apiKey,
		"X-Timestamp": timestamp,
		"X-Signature": a.sign(timestamp, "GET", "/v1/markets"),
	}

	var resp variationalResponse
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
			rawSymbol:    item.Symbol,
			rate:         rate,
			markPrice:    parseFloatPtr(item.MarkPrice),
			indexPrice:   parseFloatPtr(item.IndexPrice),
			openInterest: parseFloatPtr(item.OpenInterest),
		}
		if item.NextFundingTime != "" {
			if ts, err := time.Parse(time.RFC3339, item.NextFundingTime); err == nil {
				d.nextFundingTime = &ts
			}
		}
		rates = append(rates, a.newRate(d))
	}
	return a.success(rates)
}
