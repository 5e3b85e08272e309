package server

import (
	"context"
	"errors"
	"net/http"
	"net/http/httptest"
	"testing"
	"time"

	json "github.com/goccy/go-json"

	"fundingflow/internal/aggregator"
	"fundingflow/internal/cache"
	"fundingflow/internal/exchange"
	"fundingflow/internal/model"
)

type stubAdapter struct {
	id    string
	rates []model.FundingRate
}

func (s *stubAdapter) ID() string               { return s.id }
func (s *stubAdapter) IsConfigured() bool       { return true }
func (s *stubAdapter) LastError() string        { return "" }
func (s *stubAdapter) LastFetchTime() time.Time { return time.Now() }

func (s *stubAdapter) FetchFundingRates(ctx context.Context) model.FetchResult {
	return model.FetchResult{Success: true, Rates: s.rates, FetchTime: time.Now().UTC()}
}

type stubRegistry struct{ adapters []exchange.Adapter }

func (r *stubRegistry) All() []exchange.Adapter { return r.adapters }

func testRate(exchangeID, symbol string, annualized float64) model.FundingRate {
	return model.FundingRate{
		Exchange:              exchangeID,
		Symbol:                symbol,
		RawSymbol:             symbol,
		FundingRateAnnualized: annualized,
		Timestamp:             time.Now().UTC(),
	}
}

func newTestServer(t *testing.T, opts Options, adapters ...exchange.Adapter) *httptest.Server {
	t.Helper()
	engine := aggregator.NewEngine(&stubRegistry{adapters: adapters}, cache.NewMemoryStore(), nil, 30*time.Second)
	srv := httptest.NewServer(New(engine, opts).Handler())
	t.Cleanup(srv.Close)
	return srv
}

type envelope struct {
	Success bool            `json:"success"`
	Data    json.RawMessage `json:"data"`
	Error   string          `json:"error"`
}

func getJSON(t *testing.T, url string, out interface{}) int {
	t.Helper()
	resp, err := http.Get(url)
	if err != nil {
		t.Fatal(err)
	}
	defer resp.Body.Close()
	if out != nil {
		if err := json.NewDecoder(resp.Body).Decode(out); err != nil {
			t.Fatal(err)
		}
	}
	return resp.StatusCode
}

func TestCurrentRatesFilterAndSort(t *testing.T) {
	srv := newTestServer(t, Options{},
		&stubAdapter{id: "hyperliquid", rates: []model.FundingRate{
			testRate("hyperliquid", "BTC-USD", 0.10),
			testRate("hyperliquid", "ETH-USD", 0.30),
		}},
		&stubAdapter{id: "dydx", rates: []model.FundingRate{
			testRate("dydx", "BTC-USD", 0.20),
		}},
	)

	var env envelope
	status := getJSON(t, srv.URL+"/api/funding-rates/current?symbols=BTC-USD&sortOrder=desc", &env)
	if status != http.StatusOK || !env.Success {
		t.Fatalf("status = %d, success = %v", status, env.Success)
	}

	var data struct {
		Rates      []model.FundingRate `json:"rates"`
		Pagination struct {
			Total int `json:"total"`
		} `json:"pagination"`
	}
	if err := json.Unmarshal(env.Data, &data); err != nil {
		t.Fatal(err)
	}

	if data.Pagination.Total != 2 {
		t.Errorf("total = %d, want 2 BTC rates", data.Pagination.Total)
	}
	if len(data.Rates) != 2 || data.Rates[0].Exchange != "dydx" {
		t.Errorf("rates should sort by annualized rate desc, got %+v", data.Rates)
	}
}

func TestCurrentRatesPagination(t *testing.T) {
	rates := make([]model.FundingRate, 0, 5)
	for _, sym := range []string{"A-USD", "B-USD", "C-USD", "D-USD", "E-USD"} {
		rates = append(rates, testRate("hyperliquid", sym, 0.1))
	}
	srv := newTestServer(t, Options{}, &stubAdapter{id: "hyperliquid", rates: rates})

	var env envelope
	getJSON(t, srv.URL+"/api/funding-rates/current?limit=2&page=3&sortBy=symbol&sortOrder=asc", &env)

	var data struct {
		Rates      []model.FundingRate `json:"rates"`
		Pagination struct {
			TotalPages int `json:"totalPages"`
		} `json:"pagination"`
	}
	json.Unmarshal(env.Data, &data)

	if data.Pagination.TotalPages != 3 {
		t.Errorf("totalPages = %d, want 3", data.Pagination.TotalPages)
	}
	if len(data.Rates) != 1 || data.Rates[0].Symbol != "E-USD" {
		t.Errorf("page 3 should hold the last rate, got %+v", data.Rates)
	}
}

func TestComparisonEndpoint(t *testing.T) {
	srv := newTestServer(t, Options{},
		&stubAdapter{id: "hyperliquid", rates: []model.FundingRate{testRate("hyperliquid", "BTC-USD", 0.10)}},
		&stubAdapter{id: "dydx", rates: []model.FundingRate{testRate("dydx", "BTC-USD", 0.25)}},
	)

	var env envelope
	getJSON(t, srv.URL+"/api/funding-rates/comparison/btc-usd", &env)

	var data struct {
		Symbol string              `json:"symbol"`
		Rates  []model.FundingRate `json:"rates"`
		Spread float64             `json:"spread"`
	}
	json.Unmarshal(env.Data, &data)

	if data.Symbol != "BTC-USD" {
		t.Errorf("symbol = %q, want BTC-USD", data.Symbol)
	}
	if len(data.Rates) != 2 || data.Rates[0].Exchange != "dydx" {
		t.Errorf("rates should sort highest first, got %+v", data.Rates)
	}
	if want := 0.25 - 0.10; data.Spread != want {
		t.Errorf("spread = %v, want %v", data.Spread, want)
	}
}

func TestHistoricalRequiresSymbol(t *testing.T) {
	srv := newTestServer(t, Options{}, &stubAdapter{id: "hyperliquid"})

	var env envelope
	status := getJSON(t, srv.URL+"/api/funding-rates/historical", &env)
	if status != http.StatusBadRequest {
		t.Errorf("status = %d, want 400", status)
	}
	if env.Success {
		t.Error("response should not be marked successful")
	}
}

func TestHistoricalRejectsBadRange(t *testing.T) {
	srv := newTestServer(t, Options{}, &stubAdapter{id: "hyperliquid"})

	status := getJSON(t, srv.URL+"/api/funding-rates/historical?symbol=BTC-USD&range=2w", nil)
	if status != http.StatusBadRequest {
		t.Errorf("status = %d, want 400", status)
	}
}

func TestExchangeNotFound(t *testing.T) {
	srv := newTestServer(t, Options{}, &stubAdapter{id: "hyperliquid"})

	status := getJSON(t, srv.URL+"/api/exchanges/binance", nil)
	if status != http.StatusNotFound {
		t.Errorf("status = %d, want 404", status)
	}
}

func TestExchangesListing(t *testing.T) {
	srv := newTestServer(t, Options{}, &stubAdapter{id: "hyperliquid", rates: []model.FundingRate{
		testRate("hyperliquid", "BTC-USD", 0.1),
	}})

	var env envelope
	getJSON(t, srv.URL+"/api/exchanges", &env)

	var data struct {
		Exchanges []struct {
			ID     string `json:"id"`
			Status string `json:"status"`
		} `json:"exchanges"`
	}
	json.Unmarshal(env.Data, &data)

	if len(data.Exchanges) != len(exchange.VenueIDs) {
		t.Fatalf("expected %d venues, got %d", len(exchange.VenueIDs), len(data.Exchanges))
	}
	byID := make(map[string]string)
	for _, e := range data.Exchanges {
		byID[e.ID] = e.Status
	}
	if byID["hyperliquid"] != "ok" {
		t.Errorf("hyperliquid status = %q, want ok", byID["hyperliquid"])
	}
	if byID["grvt"] != "disabled" {
		t.Errorf("grvt status = %q, want disabled (not in registry)", byID["grvt"])
	}
}

func TestHealthDegradedAndUnhealthy(t *testing.T) {
	healthy := func(context.Context) error { return nil }
	broken := func(context.Context) error { return errors.New("down") }

	srv := newTestServer(t, Options{Version: "1.0.0", DBPing: healthy, RedisPing: broken},
		&stubAdapter{id: "hyperliquid"})

	var health struct {
		Status   string `json:"status"`
		Services struct {
			Redis string `json:"redis"`
		} `json:"services"`
	}
	getJSON(t, srv.URL+"/health", &health)

	if health.Status != "unhealthy" {
		t.Errorf("status = %q, want unhealthy with redis down", health.Status)
	}
	if health.Services.Redis != "disconnected" {
		t.Errorf("redis = %q, want disconnected", health.Services.Redis)
	}

	status := getJSON(t, srv.URL+"/ready", nil)
	if status != http.StatusServiceUnavailable {
		t.Errorf("/ready status = %d, want 503", status)
	}
}

func TestLive(t *testing.T) {
	srv := newTestServer(t, Options{}, &stubAdapter{id: "hyperliquid"})

	var body struct {
		Alive bool `json:"alive"`
	}
	if status := getJSON(t, srv.URL+"/live", &body); status != http.StatusOK || !body.Alive {
		t.Errorf("live check failed: status %d, alive %v", status, body.Alive)
	}
}
