// Package aggregator fans fetches out across every configured venue and
// folds the results into one snapshot.
package aggregator

import (
	"context"
	"strings"
	"sync"
	"time"

	json "github.com/goccy/go-json"
	"github.com/sourcegraph/conc"

	"fundingflow/internal/cache"
	"fundingflow/internal/exchange"
	"fundingflow/internal/model"
	"fundingflow/logger"
)

// Registry is the subset of the exchange registry the engine needs.
type Registry interface {
	All() []exchange.Adapter
}

// Persistence receives each cycle's rates and statuses. Implementations may
// be nil-safe stubs in deployments without a database.
type Persistence interface {
	UpsertRates(ctx context.Context, rates []model.FundingRate) error
	UpsertStatus(ctx context.Context, exchangeID string, fetchTime time.Time, successTime *time.Time, lastErr string, rateCount int) error
	QueryHistorical(ctx context.Context, symbol string, exchangeIDs []string, sinceHours int) ([]model.FundingRate, error)
}

// Engine coordinates fetch cycles: concurrent venue fetches, snapshot
// assembly, cache writes and persistence. Fetch failures degrade the
// snapshot; they never abort the cycle.
type Engine struct {
	registry Registry
	cache    cache.Store
	persist  Persistence
	cacheTTL time.Duration
	log      *logger.Entry

	mu   sync.RWMutex
	last *model.Snapshot
}

func NewEngine(registry Registry, cacheStore cache.Store, persist Persistence, cacheTTL time.Duration) *Engine {
	return &Engine{
		registry: registry,
		cache:    cacheStore,
		persist:  persist,
		cacheTTL: cacheTTL,
		log:      logger.GetLogger().WithComponent("aggregator"),
	}
}

// FetchAll runs one complete fetch cycle and returns the resulting
// snapshot. Every configured venue is fetched concurrently; the cycle waits
// for all of them.
func (e *Engine) FetchAll(ctx context.Context) *model.Snapshot {
	start := time.Now()
	adapters := e.registry.All()
	results := make([]model.FetchResult, len(adapters))

	var wg conc.WaitGroup
	for i, adapter := range adapters {
		if !adapter.IsConfigured() {
			continue
		}
		i, adapter := i, adapter
		wg.Go(func() {
			results[i] = adapter.FetchFundingRates(ctx)
		})
	}
	wg.Wait()

	snapshot := &model.Snapshot{LastUpdated: time.Now().UTC()}
	succeeded := 0
	for i, adapter := range adapters {
		venue := exchange.Venues[adapter.ID()]

		if !adapter.IsConfigured() {
			snapshot.Exchanges = append(snapshot.Exchanges, model.ExchangeStatus{
				ID:      adapter.ID(),
				Name:    venue.Name,
				Enabled: false,
				Error:   "not configured",
			})
			continue
		}

		result := results[i]
		fetchTime := result.FetchTime
		status := model.ExchangeStatus{
			ID:            adapter.ID(),
			Name:          venue.Name,
			Enabled:       true,
			LastFetchTime: &fetchTime,
			Error:         result.Error,
			RateCount:     len(result.Rates),
		}
		snapshot.Exchanges = append(snapshot.Exchanges, status)

		if result.Success {
			snapshot.Rates = append(snapshot.Rates, result.Rates...)
			succeeded++
		}

		e.persistStatus(ctx, adapter.ID(), result)
	}

	e.mu.Lock()
	e.last = snapshot
	e.mu.Unlock()

	e.writeCache(ctx, snapshot)
	e.persistRates(ctx, snapshot.Rates)

	e.log.WithFields(logger.Fields{
		"venues_ok":  succeeded,
		"rates":      len(snapshot.Rates),
		"elapsed_ms": time.Since(start).Milliseconds(),
	}).Info("fetch cycle complete")
	e.log.LogMetric("aggregator", "fetch_cycle_rates", len(snapshot.Rates), "gauge", nil)

	return snapshot
}

// GetCurrentRates returns the cached snapshot when one is fresh, otherwise
// it runs a full fetch cycle. forceRefresh always fetches. Cache backend
// failures fall through to a fresh fetch rather than erroring out.
func (e *Engine) GetCurrentRates(ctx context.Context, forceRefresh bool) *model.Snapshot {
	if !forceRefresh {
		if data, err := e.cache.Get(ctx, cache.KeyCurrentRates); err != nil {
			e.log.WithError(err).Warn("cache read failed, fetching fresh")
		} else if data != nil {
			var snapshot model.Snapshot
			if err := json.Unmarshal(data, &snapshot); err != nil {
				e.log.WithError(err).Warn("discarding corrupt cached snapshot")
			} else {
				return &snapshot
			}
		}
	}
	return e.FetchAll(ctx)
}

// GetExchangeStatuses returns per-venue health, served from cache when
// possible.
func (e *Engine) GetExchangeStatuses(ctx context.Context) []model.ExchangeStatus {
	if data, err := e.cache.Get(ctx, cache.KeyExchangeStatus); err == nil && data != nil {
		var statuses []model.ExchangeStatus
		if json.Unmarshal(data, &statuses) == nil {
			return statuses
		}
	}
	return e.GetCurrentRates(ctx, false).Exchanges
}

// FilterRates returns the current rates narrowed to the given venues and
// symbols. Empty filters match everything.
func (e *Engine) FilterRates(ctx context.Context, exchangeIDs, symbols []string) []model.FundingRate {
	snapshot := e.GetCurrentRates(ctx, false)

	wantExchange := toSet(exchangeIDs)
	wantSymbol := toSet(symbols)

	out := make([]model.FundingRate, 0, len(snapshot.Rates))
	for _, r := range snapshot.Rates {
		if len(wantExchange) > 0 && !wantExchange[strings.ToLower(r.Exchange)] {
			continue
		}
		if len(wantSymbol) > 0 && !wantSymbol[strings.ToLower(r.Symbol)] {
			continue
		}
		out = append(out, r)
	}
	return out
}

// GetSummary computes cross-venue statistics for the current snapshot.
func (e *Engine) GetSummary(ctx context.Context) model.Summary {
	snapshot := e.GetCurrentRates(ctx, false)
	rates := snapshot.Rates
	if len(rates) == 0 {
		return model.Summary{TopArbitrage: []model.ArbitrageOpportunity{}}
	}

	highest, lowest := rates[0], rates[0]
	sum := 0.0
	for _, r := range rates {
		if r.FundingRateAnnualized > highest.FundingRateAnnualized {
			highest = r
		}
		if r.FundingRateAnnualized < lowest.FundingRateAnnualized {
			lowest = r
		}
		sum += r.FundingRateAnnualized
	}

	opportunities := FindArbitrage(rates)
	if len(opportunities) > 5 {
		opportunities = opportunities[:5]
	}

	return model.Summary{
		HighestRate:  &highest,
		LowestRate:   &lowest,
		AverageRate:  sum / float64(len(rates)),
		TotalMarkets: len(rates),
		TopArbitrage: opportunities,
	}
}

// GetArbitrage returns every detected opportunity in the current snapshot,
// best spread first.
func (e *Engine) GetArbitrage(ctx context.Context) []model.ArbitrageOpportunity {
	return FindArbitrage(e.GetCurrentRates(ctx, false).Rates)
}

// GetHistorical proxies the persistence layer, normalizing the symbol case.
func (e *Engine) GetHistorical(ctx context.Context, symbol string, exchangeIDs []string, sinceHours int) ([]model.FundingRate, error) {
	if e.persist == nil {
		return nil, nil
	}
	return e.persist.QueryHistorical(ctx, strings.ToUpper(symbol), exchangeIDs, sinceHours)
}

// LastSnapshot returns the most recent in-process snapshot without touching
// the cache. Nil before the first cycle.
func (e *Engine) LastSnapshot() *model.Snapshot {
	e.mu.RLock()
	defer e.mu.RUnlock()
	return e.last
}

func (e *Engine) writeCache(ctx context.Context, snapshot *model.Snapshot) {
	data, err := json.Marshal(snapshot)
	if err == nil {
		if err := e.cache.Set(ctx, cache.KeyCurrentRates, data, e.cacheTTL); err != nil {
			e.log.WithError(err).Warn("failed to cache snapshot")
		}
	}
	statuses, err := json.Marshal(snapshot.Exchanges)
	if err == nil {
		if err := e.cache.Set(ctx, cache.KeyExchangeStatus, statuses, e.cacheTTL); err != nil {
			e.log.WithError(err).Warn("failed to cache exchange statuses")
		}
	}
}

func (e *Engine) persistStatus(ctx context.Context, exchangeID string, result model.FetchResult) {
	if e.persist == nil {
		return
	}
	var successTime *time.Time
	if result.Success {
		t := result.FetchTime
		successTime = &t
	}
	if err := e.persist.UpsertStatus(ctx, exchangeID, result.FetchTime, successTime, result.Error, len(result.Rates)); err != nil {
		e.log.WithError(err).WithFields(logger.Fields{"exchange": exchangeID}).Warn("failed to persist fetch status")
	}
}

func (e *Engine) persistRates(ctx context.Context, rates []model.FundingRate) {
	if e.persist == nil || len(rates) == 0 {
		return
	}
	if err := e.persist.UpsertRates(ctx, rates); err != nil {
		e.log.WithError(err).Warn("failed to persist funding rates")
	}
}

func toSet(values []string) map[string]bool {
	if len(values) == 0 {
		return nil
	}
	set := make(map[string]bool, len(values))
	for _, v := range values {
		set[strings.ToLower(v)] = true
	}
	return set
}
