package model

import "time"

// ExchangeStatus is the per-venue health entry included in every Snapshot.
// Enabled is false only for venues that are not configured; those venues are
// never invoked.
type ExchangeStatus struct {
	ID            string     `json:"id"`
	Name          string     `json:"name"`
	Enabled       bool       `json:"enabled"`
	LastFetchTime *time.Time `json:"lastFetchTime,omitempty"`
	Error         string     `json:"error,omitempty"`
	RateCount     int        `json:"rateCount"`
}

// Snapshot is one complete fetch cycle's result set. A new cycle produces a
// wholly new Snapshot; snapshots are never merged.
type Snapshot struct {
	Rates       []FundingRate    `json:"rates"`
	Exchanges   []ExchangeStatus `json:"exchanges"`
	LastUpdated time.Time        `json:"lastUpdated"`
}

// ArbitrageOpportunity is a same-symbol funding spread between the venue with
// the lowest annualized rate (long leg) and the highest (short leg).
type ArbitrageOpportunity struct {
	Symbol           string    `json:"symbol"`
	LongExchange     string    `json:"longExchange"`
	ShortExchange    string    `json:"shortExchange"`
	LongRate         float64   `json:"longRate"`
	ShortRate        float64   `json:"shortRate"`
	SpreadAnnualized float64   `json:"spreadAnnualized"`
	Timestamp        time.Time `json:"timestamp"`
}

// Summary holds cross-venue aggregate statistics derived from one Snapshot.
type Summary struct {
	HighestRate  *FundingRate           `json:"highestRate"`
	LowestRate   *FundingRate           `json:"lowestRate"`
	AverageRate  float64                `json:"averageRate"`
	TotalMarkets int                    `json:"totalMarkets"`
	TopArbitrage []ArbitrageOpportunity `json:"topArbitrage"`
}
