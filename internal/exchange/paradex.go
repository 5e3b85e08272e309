package exchange

import (
	"context"
	"fmt"
	"time"

	json "github.com/goccy/go-json"
	"github.com/gorilla/websocket"

	"fundingflow/internal/model"
)

type paradexAdapter struct {
	base
	restURL string
	wsURL   string
}

func newParadex() *paradexAdapter {
	return &paradexAdapter{
		base:    newBase(Venues["paradex"]),
		restURL: "https://api.prod.paradex.trade/v1",
		wsURL:   "wss://ws.api.prod.paradex.trade/v1",
	}
}

func (a *paradexAdapter) IsConfigured() bool { return true }

type paradexFundingData struct {
	Symbol        string `json:"symbol"`
	FundingRate   string `json:"funding_rate"`
	FundingRate8h string `json:"funding_rate_8h"`
	MarkPrice     string `json:"mark_price"`
	IndexPrice    string `json:"index_price"`
	OpenInterest  string `json:"open_interest"`
	NextFundingAt string `json:"next_funding_at"`
}

type paradexSummaryResponse struct {
	Results []paradexFundingData `json:"results"`
}

type paradexWSMessage struct {
	Channel string               `json:"channel"`
	Type    string               `json:"type"`
	Data    []paradexFundingData `json:"data"`
}

// FetchFundingRates reads the REST markets summary and falls back to the
// funding_data websocket channel when the REST call fails.
func (a *paradexAdapter) FetchFundingRates(ctx context.Context) model.FetchResult {
	var resp paradexSummaryResponse
	if err := a.getJSON(ctx, a.restURL+"/markets/summary", nil, &resp); err != nil {
		a.log.WithError(err).Debug("markets summary failed, trying websocket")
		return a.fetchViaWebSocket(ctx)
	}
	return a.success(a.toRates(resp.Results))
}

func (a *paradexAdapter) fetchViaWebSocket(ctx context.Context) model.FetchResult {
	wsCtx, cancel := context.WithTimeout(ctx, requestTimeout)
	defer cancel()

	conn, _, err := websocket.DefaultDialer.DialContext(wsCtx, a.wsURL, nil)
	if err != nil {
		return a.failure(fmt.Errorf("websocket dial: %w", err))
	}
	defer conn.Close()

	sub := map[string]string{"type": "subscribe", "channel": "funding_data"}
	if err := conn.WriteJSON(sub); err != nil {
		return a.failure(fmt.Errorf("websocket subscribe: %w", err))
	}

	deadline, _ := wsCtx.Deadline()
	conn.SetReadDeadline(deadline)

	for {
		_, raw, err := conn.ReadMessage()
		if err != nil {
			return a.failure(fmt.Errorf("websocket read: %w", err))
		}
		var msg paradexWSMessage
		if err := json.Unmarshal(raw, &msg); err != nil {
			continue
		}
		if msg.Type == "snapshot" && len(msg.Data) > 0 {
			return a.success(a.toRates(msg.Data))
		}
	}
}

func (a *paradexAdapter) toRates(items []paradexFundingData) []model.FundingRate {
	rates := make([]model.FundingRate, 0, len(items))
	for _, item := range items {
		rateStr := item.FundingRate8h
		if rateStr == "" {
			rateStr = item.FundingRate
		}
		rate, err := parseFloat(rateStr)
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
		if item.NextFundingAt != "" {
			if ts, err := time.Parse(time.RFC3339, item.NextFundingAt); err == nil {
				d.nextFundingTime = &ts
			}
		}
		rates = append(rates, a.newRate(d))
	}
	return rates
}
