package exchange

import (
	"bytes"
	"context"
	"fmt"
	"io"
	"net/http"
	"sync"
	"time"

	json "github.com/goccy/go-json"
	"golang.org/x/time/rate"

	"fundingflow/internal/funding"
	"fundingflow/internal/model"
	"fundingflow/internal/symbols"
	"fundingflow/logger"
)

const requestTimeout = 10 * time.Second

// base carries the plumbing shared by every venue adapter: HTTP transport,
// rate limiting, logging and last-fetch bookkeeping. Venue adapters embed it
// and implement only response parsing.
type base struct {
	venue   Venue
	client  *http.Client
	limiter *rate.Limiter
	log     *logger.Entry

	mu        sync.Mutex
	lastFetch time.Time
	lastError string
}

func newBase(venue Venue) base {
	return base{
		venue:   venue,
		client:  &http.Client{Timeout: requestTimeout},
		limiter: rate.NewLimiter(rate.Every(time.Second), 5),
		log:     logger.GetLogger().WithComponent("exchange." + venue.ID),
	}
}

func (b *base) ID() string { return b.venue.ID }

func (b *base) LastFetchTime() time.Time {
	b.mu.Lock()
	defer b.mu.Unlock()
	return b.lastFetch
}

func (b *base) LastError() string {
	b.mu.Lock()
	defer b.mu.Unlock()
	return b.lastError
}

// success records the cycle outcome and wraps the rates in a FetchResult.
func (b *base) success(rates []model.FundingRate) model.FetchResult {
	now := time.Now().UTC()
	b.mu.Lock()
	b.lastFetch = now
	b.lastError = ""
	b.mu.Unlock()

	b.log.WithFields(logger.Fields{"rates": len(rates)}).Debug("fetched funding rates")
	return model.FetchResult{Success: true, Rates: rates, FetchTime: now}
}

// failure records the error and returns a failed FetchResult. It never
// panics or propagates; the caller decides how to surface the error.
func (b *base) failure(err error) model.FetchResult {
	now := time.Now().UTC()
	b.mu.Lock()
	b.lastFetch = now
	b.lastError = err.Error()
	b.mu.Unlock()

	b.log.WithError(err).Warn("fetch failed")
	return model.FetchResult{Success: false, Error: err.Error(), FetchTime: now}
}

// newRate builds the canonical FundingRate from venue-extracted data,
// applying symbol normalization and annualization exactly once.
func (b *base) newRate(d rateData) model.FundingRate {
	return model.FundingRate{
		Exchange:              b.venue.ID,
		Symbol:                symbols.Normalize(d.rawSymbol),
		RawSymbol:             d.rawSymbol,
		FundingRate:           d.rate,
		FundingRateAnnualized: funding.Annualize(d.rate, b.venue.FundingIntervalHours),
		Timestamp:             time.Now().UTC(),
		FundingInterval:       b.venue.FundingIntervalHours,
		NextFundingTime:       d.nextFundingTime,
		MarkPrice:             d.markPrice,
		IndexPrice:            d.indexPrice,
		OpenInterest:          d.openInterest,
		Volume24h:             d.volume24h,
	}
}

// getJSON issues a rate-limited GET and decodes the JSON body into out.
// Non-2xx statuses are returned as errors carrying the status code.
func (b *base) getJSON(ctx context.Context, url string, headers map[string]string, out interface{}) error {
	req, err := http.NewRequestWithContext(ctx, http.MethodGet, url, nil)
	if err != nil {
		return err
	}
	return b.doJSON(req, headers, out)
}

// postJSON issues a rate-limited POST with a JSON body and decodes the
// response into out.
func (b *base) postJSON(ctx context.Context, url string, payload interface{}, headers map[string]string, out interface{}) error {
	body, err := json.Marshal(payload)
	if err != nil {
		return err
	}
	req, err := http.NewRequestWithContext(ctx, http.MethodPost, url, bytes.NewReader(body))
	if err != nil {
		return err
	}
	req.Header.Set("Content-Type", "application/json")
	return b.doJSON(req, headers, out)
}

func (b *base) doJSON(req *http.Request, headers map[string]string, out interface{}) error {
	if err := b.limiter.Wait(req.Context()); err != nil {
		return err
	}
	for k, v := range headers {
		req.Header.Set(k, v)
	}
	req.Header.Set("Accept", "application/json")

	resp, err := b.client.Do(req)
	if err != nil {
		return err
	}
	defer resp.Body.Close()

	if resp.StatusCode < 200 || resp.StatusCode >= 300 {
		// Read a little of the body for diagnostics; venues return terse
		// error payloads.
		snippet, _ := io.ReadAll(io.LimitReader(resp.Body, 256))
		return fmt.Errorf("%s %s: status %d: %s", req.Method, req.URL.Path, resp.StatusCode, bytes.TrimSpace(snippet))
	}

	if err := json.NewDecoder(resp.Body).Decode(out); err != nil {
		return fmt.Errorf("decoding response from %s: %w", req.URL.Host, err)
	}
	return nil
}
