package exchange

import (
	"context"
	"strconv"
	"time"

	"fundingflow/internal/model"
)

// Adapter fetches the current funding rates for one venue. Implementations
// never return an error from FetchFundingRates; failures are reported through
// the FetchResult so one broken venue cannot sink a fetch cycle.
type Adapter interface {
	ID() string
	IsConfigured() bool
	FetchFundingRates(ctx context.Context) model.FetchResult
	LastFetchTime() time.Time
	LastError() string
}

// rateData is the venue-agnostic intermediate an adapter extracts from a
// venue response before normalization and annualization are applied.
type rateData struct {
	rawSymbol       string
	rate            float64
	nextFundingTime *time.Time
	markPrice       *float64
	indexPrice      *float64
	openInterest    *float64
	volume24h       *float64
}

func fptr(v float64) *float64 { return &v }

func parseFloat(s string) (float64, error) {
	return strconv.ParseFloat(s, 64)
}

// parseFloatPtr returns nil for empty or unparseable strings so optional
// venue fields stay optional.
func parseFloatPtr(s string) *float64 {
	if s == "" {
		return nil
	}
	v, err := strconv.ParseFloat(s, 64)
	if err != nil {
		return nil
	}
	return &v
}

// dedupeByOpenInterest keeps one rate per canonical symbol, preferring the
// market with the larger open interest when a venue lists the same asset more
// than once.
func dedupeByOpenInterest(rates []model.FundingRate) []model.FundingRate {
	best := make(map[string]int, len(rates))
	out := make([]model.FundingRate, 0, len(rates))
	for _, r := range rates {
		idx, seen := best[r.Symbol]
		if !seen {
			best[r.Symbol] = len(out)
			out = append(out, r)
			continue
		}
		if oi(r) > oi(out[idx]) {
			out[idx] = r
		}
	}
	return out
}

func oi(r model.FundingRate) float64 {
	if r.OpenInterest == nil {
		return 0
	}
	return *r.OpenInterest
}
