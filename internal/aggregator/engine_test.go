package aggregator

import (
	"context"
	"sync"
	"testing"
	"time"

	"fundingflow/internal/cache"
	"fundingflow/internal/exchange"
	"fundingflow/internal/model"
)

type stubAdapter struct {
	id         string
	configured bool
	result     model.FetchResult

	mu    sync.Mutex
	calls int
}

func (s *stubAdapter) ID() string               { return s.id }
func (s *stubAdapter) IsConfigured() bool       { return s.configured }
func (s *stubAdapter) LastError() string        { return s.result.Error }
func (s *stubAdapter) LastFetchTime() time.Time { return s.result.FetchTime }

func (s *stubAdapter) FetchFundingRates(ctx context.Context) model.FetchResult {
	s.mu.Lock()
	s.calls++
	s.mu.Unlock()
	return s.result
}

func (s *stubAdapter) callCount() int {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.calls
}

type stubRegistry struct {
	adapters []exchange.Adapter
}

func (r *stubRegistry) All() []exchange.Adapter { return r.adapters }

type fakePersistence struct {
	mu       sync.Mutex
	rates    []model.FundingRate
	statuses map[string]*time.Time
}

func newFakePersistence() *fakePersistence {
	return &fakePersistence{statuses: make(map[string]*time.Time)}
}

func (f *fakePersistence) UpsertRates(ctx context.Context, rates []model.FundingRate) error {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.rates = append(f.rates, rates...)
	return nil
}

func (f *fakePersistence) UpsertStatus(ctx context.Context, exchangeID string, fetchTime time.Time, successTime *time.Time, lastErr string, rateCount int) error {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.statuses[exchangeID] = successTime
	return nil
}

func (f *fakePersistence) QueryHistorical(ctx context.Context, symbol string, exchangeIDs []string, sinceHours int) ([]model.FundingRate, error) {
	return nil, nil
}

func okResult(rates ...model.FundingRate) model.FetchResult {
	return model.FetchResult{Success: true, Rates: rates, FetchTime: time.Now().UTC()}
}

func failedResult(msg string) model.FetchResult {
	return model.FetchResult{Success: false, Error: msg, FetchTime: time.Now().UTC()}
}

func newTestEngine(persist Persistence, adapters ...exchange.Adapter) *Engine {
	return NewEngine(&stubRegistry{adapters: adapters}, cache.NewMemoryStore(), persist, 30*time.Second)
}

func TestFetchAllPartialFailure(t *testing.T) {
	good := &stubAdapter{id: "hyperliquid", configured: true, result: okResult(
		rate("hyperliquid", "BTC-USD", 0.1),
		rate("hyperliquid", "ETH-USD", 0.2),
	)}
	bad := &stubAdapter{id: "dydx", configured: true, result: failedResult("status 502")}
	off := &stubAdapter{id: "lighter", configured: false}

	engine := newTestEngine(nil, good, bad, off)
	snapshot := engine.FetchAll(context.Background())

	if len(snapshot.Rates) != 2 {
		t.Errorf("expected 2 rates from the healthy venue, got %d", len(snapshot.Rates))
	}
	if len(snapshot.Exchanges) != 3 {
		t.Fatalf("expected status for every venue, got %d", len(snapshot.Exchanges))
	}

	byID := make(map[string]model.ExchangeStatus)
	for _, s := range snapshot.Exchanges {
		byID[s.ID] = s
	}

	if s := byID["dydx"]; s.Error != "status 502" || !s.Enabled || s.RateCount != 0 {
		t.Errorf("failed venue status = %+v", s)
	}
	if s := byID["lighter"]; s.Enabled || s.Error != "not configured" {
		t.Errorf("unconfigured venue status = %+v", s)
	}
	if off.callCount() != 0 {
		t.Error("unconfigured adapter must never be invoked")
	}
}

func TestGetCurrentRatesServesCache(t *testing.T) {
	a := &stubAdapter{id: "hyperliquid", configured: true, result: okResult(rate("hyperliquid", "BTC-USD", 0.1))}
	engine := newTestEngine(nil, a)
	ctx := context.Background()

	first := engine.GetCurrentRates(ctx, false)
	second := engine.GetCurrentRates(ctx, false)

	if a.callCount() != 1 {
		t.Errorf("second call should hit the cache, adapter fetched %d times", a.callCount())
	}
	if !first.LastUpdated.Equal(second.LastUpdated) {
		t.Error("cached snapshot should be returned verbatim")
	}
}

func TestGetCurrentRatesForceRefresh(t *testing.T) {
	a := &stubAdapter{id: "hyperliquid", configured: true, result: okResult(rate("hyperliquid", "BTC-USD", 0.1))}
	engine := newTestEngine(nil, a)
	ctx := context.Background()

	engine.GetCurrentRates(ctx, false)
	engine.GetCurrentRates(ctx, true)

	if a.callCount() != 2 {
		t.Errorf("force refresh must bypass the cache, adapter fetched %d times", a.callCount())
	}
}

func TestFetchAllPersistsStatus(t *testing.T) {
	good := &stubAdapter{id: "hyperliquid", configured: true, result: okResult(rate("hyperliquid", "BTC-USD", 0.1))}
	bad := &stubAdapter{id: "dydx", configured: true, result: failedResult("boom")}

	persist := newFakePersistence()
	engine := newTestEngine(persist, good, bad)
	engine.FetchAll(context.Background())

	persist.mu.Lock()
	defer persist.mu.Unlock()

	if len(persist.rates) != 1 {
		t.Errorf("expected 1 persisted rate, got %d", len(persist.rates))
	}
	if persist.statuses["hyperliquid"] == nil {
		t.Error("successful fetch should record a success time")
	}
	if persist.statuses["dydx"] != nil {
		t.Error("failed fetch must record a nil success time")
	}
}

func TestFilterRates(t *testing.T) {
	a := &stubAdapter{id: "hyperliquid", configured: true, result: okResult(
		rate("hyperliquid", "BTC-USD", 0.1),
		rate("hyperliquid", "ETH-USD", 0.2),
	)}
	b := &stubAdapter{id: "dydx", configured: true, result: okResult(
		rate("dydx", "BTC-USD", 0.3),
	)}

	engine := newTestEngine(nil, a, b)
	ctx := context.Background()

	if got := engine.FilterRates(ctx, []string{"dydx"}, nil); len(got) != 1 {
		t.Errorf("venue filter: got %d rates, want 1", len(got))
	}
	if got := engine.FilterRates(ctx, nil, []string{"btc-usd"}); len(got) != 2 {
		t.Errorf("symbol filter should be case-insensitive: got %d rates, want 2", len(got))
	}
	if got := engine.FilterRates(ctx, []string{"hyperliquid"}, []string{"ETH-USD"}); len(got) != 1 {
		t.Errorf("combined filter: got %d rates, want 1", len(got))
	}
}

func TestGetSummary(t *testing.T) {
	a := &stubAdapter{id: "hyperliquid", configured: true, result: okResult(
		rate("hyperliquid", "BTC-USD", 0.10),
		rate("hyperliquid", "ETH-USD", -0.05),
	)}
	b := &stubAdapter{id: "dydx", configured: true, result: okResult(
		rate("dydx", "BTC-USD", 0.25),
	)}

	engine := newTestEngine(nil, a, b)
	summary := engine.GetSummary(context.Background())

	if summary.TotalMarkets != 3 {
		t.Errorf("TotalMarkets = %d, want 3", summary.TotalMarkets)
	}
	if summary.HighestRate == nil || summary.HighestRate.FundingRateAnnualized != 0.25 {
		t.Errorf("HighestRate = %+v", summary.HighestRate)
	}
	if summary.LowestRate == nil || summary.LowestRate.FundingRateAnnualized != -0.05 {
		t.Errorf("LowestRate = %+v", summary.LowestRate)
	}
	if want := (0.10 - 0.05 + 0.25) / 3; summary.AverageRate != want {
		t.Errorf("AverageRate = %v, want %v", summary.AverageRate, want)
	}
	if len(summary.TopArbitrage) != 1 {
		t.Errorf("expected the BTC spread as an opportunity, got %d", len(summary.TopArbitrage))
	}
}

func TestGetSummaryEmpty(t *testing.T) {
	engine := newTestEngine(nil, &stubAdapter{id: "hyperliquid", configured: true, result: okResult()})
	summary := engine.GetSummary(context.Background())

	if summary.HighestRate != nil || summary.LowestRate != nil {
		t.Error("empty snapshot should yield nil extremes")
	}
	if summary.TopArbitrage == nil {
		t.Error("TopArbitrage should be an empty slice, not nil")
	}
}
