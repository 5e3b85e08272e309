package exchange

import (
	"context"

	json "github.com/goccy/go-json"

	"fundingflow/internal/model"
)

type hyperliquidAdapter struct {
	base
	apiURL string
}

func newHyperliquid() *hyperliquidAdapter {
	return &hyperliquidAdapter{
		base:   newBase(Venues["hyperliquid"]),
		apiURL: "https://api.hyperliquid.xyz/info",
	}
}

func (a *hyperliquidAdapter) IsConfigured() bool { return true }

type hyperliquidFunding struct {
	Coin    string `json:"coin"`
	Funding string `json:"funding"`
	Premium string `json:"premium"`
	Time    int64  `json:"time"`
}

type hyperliquidMeta struct {
	Universe []struct {
		Name string `json:"name"`
	} `json:"universe"`
}

type hyperliquidAssetCtx struct {
	Funding      string `json:"funding"`
	OpenInterest string `json:"openInterest"`
	DayNtlVlm    string `json:"dayNtlVlm"`
	OraclePx     string `json:"oraclePx"`
	MarkPx       string `json:"markPx"`
}

// FetchFundingRates pulls predicted fundings for the rate values and joins
// the metaAndAssetCtxs response for prices and open interest. The join is
// positional: universe index i matches asset context i. Context enrichment
// is best effort; a failed second call still yields rates.
func (a *hyperliquidAdapter) FetchFundingRates(ctx context.Context) model.FetchResult {
	var fundings []hyperliquidFunding
	if err := a.postJSON(ctx, a.apiURL, map[string]string{"type": "predictedFundings"}, nil, &fundings); err != nil {
		return a.failure(err)
	}

	ctxByCoin := make(map[string]hyperliquidAssetCtx)
	var raw []json.RawMessage
	if err := a.postJSON(ctx, a.apiURL, map[string]string{"type": "metaAndAssetCtxs"}, nil, &raw); err == nil && len(raw) == 2 {
		var meta hyperliquidMeta
		var ctxs []hyperliquidAssetCtx
		if json.Unmarshal(raw[0], &meta) == nil && json.Unmarshal(raw[1], &ctxs) == nil {
			for i, asset := range meta.Universe {
				if i < len(ctxs) {
					ctxByCoin[asset.Name] = ctxs[i]
				}
			}
		}
	}

	rates := make([]model.FundingRate, 0, len(fundings))
	for _, item := range fundings {
		rate, err := parseFloat(item.Funding)
		if err != nil {
			continue
		}
		d := rateData{rawSymbol: item.Coin, rate: rate}
		if c, ok := ctxByCoin[item.Coin]; ok {
			d.markPrice = parseFloatPtr(c.MarkPx)
			d.indexPrice = parseFloatPtr(c.OraclePx)
			d.openInterest = parseFloatPtr(c.OpenInterest)
			d.volume24h = parseFloatPtr(c.DayNtlVlm)
		}
		rates = append(rates, a.newRate(d))
	}
	return a.success(rates)
}
