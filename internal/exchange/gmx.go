package exchange

import (
	"context"
	"strings"

	"fundingflow/internal/model"
)

type gmxAdapter struct {
	base
	apiURL string
}

func newGmx() *gmxAdapter {
	return &gmxAdapter{
		base:   newBase(Venues["gmx"]),
		apiURL: "https://arbitrum-api.gmxinfra.io/markets/info",
	}
}

func (a *gmxAdapter) IsConfigured() bool { return true }

type gmxMarketInfo struct {
	IndexToken             string `json:"indexToken"`
	IndexTokenPriceMax     string `json:"indexTokenPriceMax"`
	IndexTokenPriceMin     string `json:"indexTokenPriceMin"`
	OpenInterestLong       string `json:"openInterestLong"`
	OpenInterestShort      string `json:"openInterestShort"`
	FundingFactorPerSecond string `json:"fundingFactorPerSecond"`
}

type gmxMarketsResponse struct {
	Markets []gmxMarketInfo `json:"markets"`
}

// gmxTokenSymbols maps Arbitrum index token addresses to asset symbols.
// Markets whose index token is not listed here are skipped.
var gmxTokenSymbols = map[string]string{
	"0x82af49447d8a07e3bd95bd0d56f35241523fbab1": "ETH",
	"0x2f2a2543b76a4166549f7aab2e75bef0aefc5b0f": "BTC",
	"0xf97f4df75117a78c1a5a0dbb814af92458539fb4": "LINK",
	"0xfa7f8980b0f1e64a2062791cc3b0871572f1f7f0": "UNI",
	"0x912ce59144191c1204e64559fe8253a0e49e6548": "ARB",
	"0xfc5a1a6eb076a2c7ad06ed22c90d7e710e35ad0a": "GMX",
	"0x5979d7b546e38e414f7e9822514be443a4800529": "wstETH",
	"0x35751007a407ca6feffe80b3cb397736d2cf4dbe": "weETH",
	"0x0c880f6761f1af8d9aa9c466984b80dab9a8c9e8": "PENDLE",
	"0x6985884c4392d348587b19cb9eaaf157f13271cd": "ZRO",
	"0xba5ddd1f9d7f570dc94a51479a000e3bce967196": "AAVE",
	"0x7dd9c5cba05e151c895fde1cf355c9a1d5da6429": "ATOM",
	"0x8d9ba570d6cb60c7e3e0f31343efe75ab8e65fb1": "NEAR",
	"0x289ba1701c2f088cf0faf8b3705246331cb8a839": "LTC",
	"0x9623063377ad1b27544c965ccd7342f7ea7e88c7": "XRP",
	"0x1f52145666c862ed3e2f1da213d479e61b2892af": "DOGE",
	"0xa9004a5421372e1d83fb1f85b0fc986c912f91f3": "SOL",
	"0x565609faf65b92f7be02468acf86f8979423e514": "BNB",
	"0x6fdf6f9c5c09aa3fa4bc53aaadb29da6be7d9ea4": "OP",
	"0xaed882f117a32ad47f2053ef30a16d97cfe52b42": "ORDI",
	"0x0000000000000000000000000000000000000000": "ETH",
	"0x4200000000000000000000000000000000000006": "ETH",
}

// gmxScale is the fixed-point scale GMX uses for USD amounts and prices.
const gmxScale = 1e30

func (a *gmxAdapter) FetchFundingRates(ctx context.Context) model.FetchResult {
	var resp gmxMarketsResponse
	if err := a.getJSON(ctx, a.apiURL, nil, &resp); err != nil {
		return a.failure(err)
	}

	rates := make([]model.FundingRate, 0, len(resp.Markets))
	for _, market := range resp.Markets {
		symbol, ok := gmxTokenSymbols[strings.ToLower(market.IndexToken)]
		if !ok {
			continue
		}

		// GMX quotes funding per second; scale up to the hourly accrual
		// period before annualization.
		perSecond, err := parseFloat(market.FundingFactorPerSecond)
		if err != nil {
			perSecond = 0
		}
		hourly := perSecond * 3600

		oiLong, _ := parseFloat(market.OpenInterestLong)
		oiShort, _ := parseFloat(market.OpenInterestShort)

		d := rateData{
			rawSymbol:    symbol + "-USD",
			rate:         hourly,
			openInterest: fptr((oiLong + oiShort) / gmxScale),
		}
		priceMax, errMax := parseFloat(market.IndexTokenPriceMax)
		priceMin, errMin := parseFloat(market.IndexTokenPriceMin)
		if errMax == nil && errMin == nil {
			d.markPrice = fptr((priceMax + priceMin) / 2 / gmxScale)
		}
		rates = append(rates, a.newRate(d))
	}

	// Several GM pools track the same index asset; keep the deepest market.
	return a.success(dedupeByOpenInterest(rates))
}
