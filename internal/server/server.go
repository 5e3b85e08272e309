// Package server exposes the aggregated funding data over HTTP.
package server

import (
	"context"
	"math"
	"net/http"
	"sort"
	"strconv"
	"strings"
	"time"

	"github.com/gin-gonic/gin"

	"fundingflow/internal/aggregator"
	"fundingflow/internal/exchange"
	"fundingflow/internal/model"
	"fundingflow/logger"
)

// PingFunc reports backend liveness for the health endpoints. A nil func
// marks the backend as not configured.
type PingFunc func(ctx context.Context) error

type Options struct {
	Version   string
	DBPing    PingFunc
	RedisPing PingFunc
}

// Server wires the HTTP routes to the aggregation engine.
type Server struct {
	engine    *aggregator.Engine
	opts      Options
	router    *gin.Engine
	log       *logger.Entry
	startTime time.Time
}

func New(engine *aggregator.Engine, opts Options) *Server {
	s := &Server{
		engine:    engine,
		opts:      opts,
		log:       logger.GetLogger().WithComponent("server"),
		startTime: time.Now(),
	}

	gin.SetMode(gin.ReleaseMode)
	router := gin.New()
	router.Use(gin.Recovery())
	s.routes(router)
	s.router = router
	return s
}

func (s *Server) routes(r *gin.Engine) {
	r.GET("/", s.handleRoot)
	r.GET("/health", s.handleHealth)
	r.GET("/ready", s.handleReady)
	r.GET("/live", s.handleLive)

	api := r.Group("/api")
	{
		funding := api.Group("/funding-rates")
		funding.GET("/current", s.handleCurrent)
		funding.GET("/historical", s.handleHistorical)
		funding.GET("/summary", s.handleSummary)
		funding.GET("/arbitrage", s.handleArbitrage)
		funding.GET("/comparison/:symbol", s.handleComparison)

		exchanges := api.Group("/exchanges")
		exchanges.GET("", s.handleExchanges)
		exchanges.GET("/:id", s.handleExchange)
	}
}

// Handler exposes the router, primarily for tests.
func (s *Server) Handler() http.Handler { return s.router }

// Run serves until the context is cancelled, then drains in-flight
// requests.
func (s *Server) Run(ctx context.Context, addr string) error {
	srv := &http.Server{Addr: addr, Handler: s.router}

	errCh := make(chan error, 1)
	go func() {
		s.log.WithFields(logger.Fields{"addr": addr}).Info("http server listening")
		errCh <- srv.ListenAndServe()
	}()

	select {
	case err := <-errCh:
		return err
	case <-ctx.Done():
	}

	shutdownCtx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
	defer cancel()
	return srv.Shutdown(shutdownCtx)
}

func respond(c *gin.Context, data interface{}) {
	c.JSON(http.StatusOK, gin.H{
		"success":   true,
		"data":      data,
		"timestamp": time.Now().UTC().Format(time.RFC3339),
	})
}

func respondError(c *gin.Context, status int, msg string) {
	c.JSON(status, gin.H{
		"success":   false,
		"error":     msg,
		"timestamp": time.Now().UTC().Format(time.RFC3339),
	})
}

func (s *Server) handleRoot(c *gin.Context) {
	respond(c, gin.H{
		"name":    "fundingflow",
		"version": s.opts.Version,
		"endpoints": []string{
			"/health",
			"/api/funding-rates/current",
			"/api/funding-rates/historical",
			"/api/funding-rates/summary",
			"/api/funding-rates/arbitrage",
			"/api/funding-rates/comparison/:symbol",
			"/api/exchanges",
		},
	})
}

func (s *Server) ping(ctx context.Context, fn PingFunc) string {
	if fn == nil {
		return "not configured"
	}
	if err := fn(ctx); err != nil {
		return "disconnected"
	}
	return "connected"
}

func (s *Server) handleHealth(c *gin.Context) {
	ctx := c.Request.Context()
	db := s.ping(ctx, s.opts.DBPing)
	redis := s.ping(ctx, s.opts.RedisPing)

	statuses := s.engine.GetExchangeStatuses(ctx)
	exchanges := make([]gin.H, 0, len(statuses))
	anyError := false
	for _, e := range statuses {
		status := "ok"
		if !e.Enabled {
			status = "disabled"
		} else if e.Error != "" {
			status = "error"
			anyError = true
		}
		entry := gin.H{"id": e.ID, "status": status}
		if e.LastFetchTime != nil {
			entry["lastCheck"] = e.LastFetchTime.UTC().Format(time.RFC3339)
		}
		exchanges = append(exchanges, entry)
	}

	overall := "healthy"
	if db == "disconnected" || redis == "disconnected" {
		overall = "unhealthy"
	} else if anyError {
		overall = "degraded"
	}

	c.JSON(http.StatusOK, gin.H{
		"status":  overall,
		"version": s.opts.Version,
		"uptime":  int(time.Since(s.startTime).Seconds()),
		"services": gin.H{
			"database":  db,
			"redis":     redis,
			"exchanges": exchanges,
		},
	})
}

func (s *Server) handleReady(c *gin.Context) {
	ctx := c.Request.Context()
	db := s.ping(ctx, s.opts.DBPing)
	redis := s.ping(ctx, s.opts.RedisPing)

	if db != "disconnected" && redis != "disconnected" {
		c.JSON(http.StatusOK, gin.H{"ready": true})
		return
	}
	c.JSON(http.StatusServiceUnavailable, gin.H{
		"ready":    false,
		"database": db,
		"redis":    redis,
	})
}

func (s *Server) handleLive(c *gin.Context) {
	c.JSON(http.StatusOK, gin.H{"alive": true})
}

func (s *Server) handleCurrent(c *gin.Context) {
	ctx := c.Request.Context()

	forceRefresh := c.Query("refresh") == "true"
	snapshot := s.engine.GetCurrentRates(ctx, forceRefresh)
	rates := snapshot.Rates

	if v := c.Query("exchanges"); v != "" {
		rates = filterByExchange(rates, splitList(v))
	}
	if v := c.Query("symbols"); v != "" {
		rates = filterBySymbol(rates, splitList(v))
	}
	if v := c.Query("search"); v != "" {
		term := strings.ToUpper(v)
		rates = filter(rates, func(r model.FundingRate) bool {
			return strings.Contains(strings.ToUpper(r.Symbol), term)
		})
	}
	if v := c.Query("minRate"); v != "" {
		if min, err := strconv.ParseFloat(v, 64); err == nil {
			rates = filter(rates, func(r model.FundingRate) bool { return r.FundingRateAnnualized >= min })
		}
	}
	if v := c.Query("maxRate"); v != "" {
		if max, err := strconv.ParseFloat(v, 64); err == nil {
			rates = filter(rates, func(r model.FundingRate) bool { return r.FundingRateAnnualized <= max })
		}
	}

	sortRates(rates, c.DefaultQuery("sortBy", "fundingRateAnnualized"), c.DefaultQuery("sortOrder", "desc"))

	page := atoiDefault(c.Query("page"), 1)
	limit := atoiDefault(c.Query("limit"), 100)
	total := len(rates)

	start := (page - 1) * limit
	if start > total {
		start = total
	}
	end := start + limit
	if end > total {
		end = total
	}

	respond(c, gin.H{
		"rates":       rates[start:end],
		"lastUpdated": snapshot.LastUpdated,
		"pagination": gin.H{
			"page":       page,
			"limit":      limit,
			"total":      total,
			"totalPages": int(math.Ceil(float64(total) / float64(limit))),
		},
	})
}

var rangeHours = map[string]int{
	"1h":  1,
	"4h":  4,
	"24h": 24,
	"7d":  168,
	"30d": 720,
}

func (s *Server) handleHistorical(c *gin.Context) {
	symbol := c.Query("symbol")
	if symbol == "" {
		respondError(c, http.StatusBadRequest, "symbol is required")
		return
	}

	timeRange := c.DefaultQuery("range", "24h")
	hours, ok := rangeHours[timeRange]
	if !ok {
		respondError(c, http.StatusBadRequest, "invalid range")
		return
	}

	var exchangeIDs []string
	if v := c.Query("exchanges"); v != "" {
		exchangeIDs = splitList(v)
	}

	rates, err := s.engine.GetHistorical(c.Request.Context(), symbol, exchangeIDs, hours)
	if err != nil {
		s.log.WithError(err).Warn("historical query failed")
		respondError(c, http.StatusInternalServerError, "failed to query historical rates")
		return
	}
	if rates == nil {
		rates = []model.FundingRate{}
	}

	respond(c, gin.H{
		"symbol": strings.ToUpper(symbol),
		"range":  timeRange,
		"rates":  rates,
	})
}

func (s *Server) handleSummary(c *gin.Context) {
	respond(c, s.engine.GetSummary(c.Request.Context()))
}

func (s *Server) handleArbitrage(c *gin.Context) {
	respond(c, gin.H{"opportunities": s.engine.GetArbitrage(c.Request.Context())})
}

func (s *Server) handleComparison(c *gin.Context) {
	symbol := strings.ToUpper(c.Param("symbol"))
	snapshot := s.engine.GetCurrentRates(c.Request.Context(), false)

	rates := filter(snapshot.Rates, func(r model.FundingRate) bool {
		return strings.EqualFold(r.Symbol, symbol)
	})
	sort.Slice(rates, func(i, j int) bool {
		return rates[i].FundingRateAnnualized > rates[j].FundingRateAnnualized
	})

	spread := 0.0
	if len(rates) >= 2 {
		spread = rates[0].FundingRateAnnualized - rates[len(rates)-1].FundingRateAnnualized
	}

	respond(c, gin.H{
		"symbol": symbol,
		"rates":  rates,
		"spread": spread,
	})
}

func (s *Server) exchangeEntry(id string, statuses []model.ExchangeStatus) gin.H {
	venue := exchange.Venues[id]
	entry := gin.H{
		"id":                   venue.ID,
		"name":                 venue.Name,
		"fundingIntervalHours": venue.FundingIntervalHours,
		"authRequired":         venue.AuthRequired,
		"chain":                venue.Chain,
		"website":              venue.Website,
	}

	for _, st := range statuses {
		if st.ID != id {
			continue
		}
		switch {
		case st.Error != "" && st.Enabled:
			entry["status"] = "error"
			entry["error"] = st.Error
		case st.Enabled:
			entry["status"] = "ok"
		default:
			entry["status"] = "disabled"
		}
		if st.LastFetchTime != nil {
			entry["lastFetchTime"] = st.LastFetchTime
		}
		entry["rateCount"] = st.RateCount
		return entry
	}

	entry["status"] = "disabled"
	entry["rateCount"] = 0
	return entry
}

func (s *Server) handleExchanges(c *gin.Context) {
	statuses := s.engine.GetExchangeStatuses(c.Request.Context())

	exchanges := make([]gin.H, 0, len(exchange.VenueIDs))
	for _, id := range exchange.VenueIDs {
		exchanges = append(exchanges, s.exchangeEntry(id, statuses))
	}
	respond(c, gin.H{"exchanges": exchanges})
}

func (s *Server) handleExchange(c *gin.Context) {
	id := c.Param("id")
	if _, ok := exchange.Venues[id]; !ok {
		respondError(c, http.StatusNotFound, "exchange not found")
		return
	}

	ctx := c.Request.Context()
	entry := s.exchangeEntry(id, s.engine.GetExchangeStatuses(ctx))

	rates := filterByExchange(s.engine.GetCurrentRates(ctx, false).Rates, []string{id})
	entry["rates"] = rates
	entry["rateCount"] = len(rates)

	respond(c, entry)
}

func atoiDefault(v string, def int) int {
	n, err := strconv.Atoi(v)
	if err != nil || n < 1 {
		return def
	}
	return n
}

func splitList(v string) []string {
	parts := strings.Split(v, ",")
	out := make([]string, 0, len(parts))
	for _, p := range parts {
		if p = strings.TrimSpace(p); p != "" {
			out = append(out, p)
		}
	}
	return out
}

func filter(rates []model.FundingRate, keep func(model.FundingRate) bool) []model.FundingRate {
	out := make([]model.FundingRate, 0, len(rates))
	for _, r := range rates {
		if keep(r) {
			out = append(out, r)
		}
	}
	return out
}

func filterByExchange(rates []model.FundingRate, ids []string) []model.FundingRate {
	want := make(map[string]bool, len(ids))
	for _, id := range ids {
		want[strings.ToLower(id)] = true
	}
	return filter(rates, func(r model.FundingRate) bool { return want[strings.ToLower(r.Exchange)] })
}

func filterBySymbol(rates []model.FundingRate, symbols []string) []model.FundingRate {
	want := make(map[string]bool, len(symbols))
	for _, s := range symbols {
		want[strings.ToUpper(s)] = true
	}
	return filter(rates, func(r model.FundingRate) bool { return want[strings.ToUpper(r.Symbol)] })
}

func sortRates(rates []model.FundingRate, sortBy, sortOrder string) {
	less := func(a, b model.FundingRate) bool {
		switch sortBy {
		case "fundingRate":
			return a.FundingRate < b.FundingRate
		case "symbol":
			return a.Symbol < b.Symbol
		case "exchange":
			return a.Exchange < b.Exchange
		default:
			return a.FundingRateAnnualized < b.FundingRateAnnualized
		}
	}
	sort.SliceStable(rates, func(i, j int) bool {
		if sortOrder == "asc" {
			return less(rates[i], rates[j])
		}
		return less(rates[j], rates[i])
	})
}
